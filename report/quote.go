package report

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/primavera-events/primavera/web"
)

// QuoteLine is one priced row of a quote document.
type QuoteLine struct {
	Name      string
	Unit      string
	Quantity  int
	UnitPrice float64
	Total     float64
}

// QuoteDocument is the printable view of a quote.
type QuoteDocument struct {
	Reference   string
	EventName   string
	EventDate   string
	GuestCount  int
	Status      string
	Lines       []QuoteLine
	Subtotal    float64
	Notes       string
	GeneratedAt time.Time
}

var quoteTemplate = template.Must(template.New("quote.html").Funcs(template.FuncMap{
	"money": Money,
	"date": func(t time.Time) string {
		return t.Format("02/01/2006 15:04")
	},
}).ParseFS(web.Templates, "templates/pdf/quote.html"))

var printer = message.NewPrinter(language.MustParse("es-MX"))

// Money formats an amount in Mexican pesos.
func Money(v float64) string {
	return printer.Sprintf("$%.2f", v)
}

// RenderQuoteHTML executes the quote template.
func RenderQuoteHTML(doc QuoteDocument) (string, error) {
	var buf bytes.Buffer
	if err := quoteTemplate.Execute(&buf, doc); err != nil {
		return "", fmt.Errorf("report: render quote template: %w", err)
	}
	return buf.String(), nil
}
