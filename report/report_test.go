package report

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderHTMLPostsMultipartDocument(t *testing.T) {
	var gotPath, gotPaper string
	var gotHTML []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotPaper = r.FormValue("paperWidth")
		file, _, err := r.FormFile("files")
		require.NoError(t, err)
		gotHTML, _ = io.ReadAll(file)
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.7"))
	}))
	defer srv.Close()

	pdf, err := NewClient(srv.URL).RenderHTML(context.Background(), "<h1>hola</h1>")
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7", string(pdf))
	assert.Equal(t, "/forms/chromium/convert/html", gotPath)
	assert.Equal(t, "8.5", gotPaper)
	assert.Equal(t, "<h1>hola</h1>", string(gotHTML))
}

func TestRenderHTMLWrapsBackendFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).RenderHTML(context.Background(), "<p></p>")
	require.ErrorIs(t, err, ErrRenderFailed)

	require.Error(t, NewClient(srv.URL).Ping(context.Background()))
}

func TestWithPaperOverridesSize(t *testing.T) {
	var width, margin string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		width = r.FormValue("paperWidth")
		margin = r.FormValue("marginLeft")
		_, _ = w.Write([]byte("%PDF"))
	}))
	defer srv.Close()

	base := NewClient(srv.URL + "/")
	_, err := base.WithPaper(Paper{Width: 8.27, Height: 11.7, Margin: 0.4}).RenderHTML(context.Background(), "<p></p>")
	require.NoError(t, err)
	assert.Equal(t, "8.27", width)
	assert.Equal(t, "0.4", margin)
	assert.Equal(t, Letter, base.paper)
}

func TestRenderQuoteHTML(t *testing.T) {
	html, err := RenderQuoteHTML(QuoteDocument{
		Reference:  "5f0c",
		EventName:  "Boda <Ana & Luis>",
		EventDate:  "15/06/2024",
		GuestCount: 150,
		Status:     "SENT",
		Lines: []QuoteLine{
			{Name: "Silla Tiffany", Unit: "pieza", Quantity: 150, UnitPrice: 60, Total: 9000},
		},
		Subtotal:    9000,
		GeneratedAt: time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Contains(t, html, "Boda &lt;Ana &amp; Luis&gt;")
	assert.Contains(t, html, "Silla Tiffany")
	assert.Contains(t, html, "#5f0c")
	assert.Contains(t, html, "01/05/2024 10:30")
	assert.Equal(t, 2, strings.Count(html, Money(9000)))
}

func TestMoneyGroupsThousands(t *testing.T) {
	assert.Equal(t, "$1,234.50", Money(1234.5))
	assert.Equal(t, "$0.00", Money(0))
}
