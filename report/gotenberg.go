package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// ErrRenderFailed wraps every failure of the PDF backend.
var ErrRenderFailed = errors.New("report: pdf render failed")

// Paper is a page size and margin set, in inches.
type Paper struct {
	Width, Height float64
	Margin        float64
}

// Letter is the default page for quotes.
var Letter = Paper{Width: 8.5, Height: 11, Margin: 0.5}

// Client converts HTML to PDF through a Gotenberg instance.
type Client struct {
	baseURL    string
	paper      Paper
	httpClient *http.Client
}

// NewClient targets the Gotenberg server at baseURL with letter paper.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		paper:      Letter,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// WithPaper returns a copy of c printing on p.
func (c *Client) WithPaper(p Paper) *Client {
	clone := *c
	clone.paper = p
	return &clone
}

// Ping calls Gotenberg's health endpoint.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("report: gotenberg health status %d", resp.StatusCode)
	}
	return nil
}

// RenderHTML converts a self-contained HTML document into a PDF.
func (c *Client) RenderHTML(ctx context.Context, html string) ([]byte, error) {
	body, contentType, err := c.form(html)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/forms/chromium/convert/html", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRenderFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 400 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", ErrRenderFailed, resp.StatusCode, bytes.TrimSpace(detail))
	}
	return io.ReadAll(resp.Body)
}

func (c *Client) form(html string) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("files", "index.html")
	if err != nil {
		return nil, "", err
	}
	if _, err := io.WriteString(part, html); err != nil {
		return nil, "", err
	}
	inches := func(v float64) string { return fmt.Sprintf("%g", v) }
	fields := [][2]string{
		{"paperWidth", inches(c.paper.Width)},
		{"paperHeight", inches(c.paper.Height)},
		{"marginTop", inches(c.paper.Margin)},
		{"marginBottom", inches(c.paper.Margin)},
		{"marginLeft", inches(c.paper.Margin)},
		{"marginRight", inches(c.paper.Margin)},
		{"printBackground", "true"},
	}
	for _, f := range fields {
		if err := writer.WriteField(f[0], f[1]); err != nil {
			return nil, "", err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return body, writer.FormDataContentType(), nil
}
