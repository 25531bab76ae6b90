package wikifetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// Thumbnail is an optional lead image reference from the summary endpoint.
type Thumbnail struct {
	Source string `json:"source"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// PageSummary is one element's prose summary from the REST summary
// endpoint. Raw keeps the undecoded response body so callers can archive
// exactly what the API returned.
type PageSummary struct {
	Title       string
	Description string
	Extract     string
	ExtractHTML string
	URL         string // canonical desktop page URL
	Thumbnail   *Thumbnail
	Raw         []byte
}

// summaryEnvelope mirrors the wire shape of the summary endpoint.
type summaryEnvelope struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Extract     string     `json:"extract"`
	ExtractHTML string     `json:"extract_html"`
	Thumbnail   *Thumbnail `json:"thumbnail"`
	ContentURLs struct {
		Desktop struct {
			Page string `json:"page"`
		} `json:"desktop"`
	} `json:"content_urls"`
}

// Summary fetches the prose summary of one page. Missing pages surface as
// an ErrHTTPStatus 404, which callers treat as a per-element failure, not
// a pipeline failure.
func (c *Client) Summary(ctx context.Context, lang, title string) (*PageSummary, error) {
	lang, err := CheckLanguage(lang)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(title) == "" {
		return nil, ErrInvalidTitle
	}

	escaped := url.PathEscape(strings.ReplaceAll(title, " ", "_"))
	u := c.origin(lang) + "/api/rest_v1/page/summary/" + escaped

	resp, err := c.getRetry(ctx, "summary", lang, title, u)
	if err != nil {
		return nil, fmt.Errorf("summary: %w", err)
	}

	var env summaryEnvelope
	if err := json.Unmarshal(resp.body, &env); err != nil {
		return nil, fmt.Errorf("summary: decode response: %w", err)
	}

	return &PageSummary{
		Title:       env.Title,
		Description: env.Description,
		Extract:     env.Extract,
		ExtractHTML: env.ExtractHTML,
		URL:         env.ContentURLs.Desktop.Page,
		Thumbnail:   env.Thumbnail,
		Raw:         resp.body,
	}, nil
}
