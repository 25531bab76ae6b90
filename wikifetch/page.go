package wikifetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/gosimple/slug"

	"github.com/hazyhaar/mendelev/element"
	"github.com/hazyhaar/mendelev/safeio"
)

// Payload is the raw page artifact: the HTML of the source page plus the
// request context that produced it. Persisted as indented JSON so a human
// can inspect what the normalizer actually saw.
type Payload struct {
	API         string `json:"api"`
	Language    string `json:"language"`
	Page        string `json:"page"`
	SourceURL   string `json:"source_url"`
	ContentType string `json:"content_type"`
	HTML        string `json:"html"`
	FetchedAt   string `json:"fetched_at_utc"`
}

// Meta derives the immutable provenance record for this payload. rawFile is
// the path the payload artifact was written to.
func (p *Payload) Meta(rawFile string) element.Meta {
	return element.Meta{
		FetchedAtUTC: p.FetchedAt,
		Language:     p.Language,
		Page:         p.Page,
		API:          p.API,
		SourceURL:    p.SourceURL,
		RawFile:      rawFile,
	}
}

// RawFileName names a payload artifact: slugified page title, language,
// and the API style that produced it.
func RawFileName(page, lang, api string) string {
	return fmt.Sprintf("%s-%s-%s.json", slug.Make(page), lang, api)
}

// SavePayload writes the payload artifact into dir and returns its path.
func SavePayload(dir string, p *Payload) (string, error) {
	path := filepath.Join(dir, RawFileName(p.Page, p.Language, p.API))
	if err := safeio.WriteJSON(path, p); err != nil {
		return "", err
	}
	return path, nil
}

// LoadPayload reads a payload artifact.
func LoadPayload(path string) (*Payload, error) {
	var p Payload
	if err := safeio.ReadJSON(path, &p); err != nil {
		return nil, err
	}
	if p.HTML == "" {
		return nil, fmt.Errorf("wikifetch: payload %s has no html", path)
	}
	return &p, nil
}

// Page fetches the HTML of a wiki page. style is rest, action, or auto;
// auto tries the strategies in order and returns the first success, or
// ErrAllAPIsFailed wrapping the last failure.
func (c *Client) Page(ctx context.Context, lang, title, style string) (*Payload, error) {
	lang, err := CheckLanguage(lang)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(title) == "" {
		return nil, ErrInvalidTitle
	}

	var styles []string
	switch style {
	case StyleREST, StyleAction:
		styles = []string{style}
	case StyleAuto, "":
		styles = autoOrder
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStyle, style)
	}

	var lastErr error
	for _, s := range styles {
		var p *Payload
		switch s {
		case StyleREST:
			p, err = c.pageREST(ctx, lang, title)
		case StyleAction:
			p, err = c.pageAction(ctx, lang, title)
		}
		if err == nil {
			return p, nil
		}
		lastErr = err
		c.config.Logger.Warn("page strategy failed", "style", s, "page", title, "error", err)
		if ctx.Err() != nil {
			break
		}
	}
	return nil, fmt.Errorf("%w for %q (last: %v)", ErrAllAPIsFailed, title, lastErr)
}

// pageREST fetches via the REST content API, which serves the parsed page
// HTML directly.
func (c *Client) pageREST(ctx context.Context, lang, title string) (*Payload, error) {
	escaped := url.PathEscape(strings.ReplaceAll(title, " ", "_"))
	u := c.origin(lang) + "/api/rest_v1/page/html/" + escaped

	resp, err := c.getRetry(ctx, "page-rest", lang, title, u)
	if err != nil {
		return nil, fmt.Errorf("rest: %w", err)
	}
	return &Payload{
		API:         StyleREST,
		Language:    lang,
		Page:        title,
		SourceURL:   u,
		ContentType: resp.contentType,
		HTML:        string(resp.body),
		FetchedAt:   time.Now().UTC().Format(time.RFC3339),
	}, nil
}

// actionEnvelope is the subset of the Action API response this client
// reads (formatversion=2: parse.text is a plain string).
type actionEnvelope struct {
	Error *struct {
		Code string `json:"code"`
		Info string `json:"info"`
	} `json:"error"`
	Parse struct {
		Title string `json:"title"`
		Text  string `json:"text"`
	} `json:"parse"`
}

// pageAction fetches via the classic Action API (action=parse). The API
// answers 200 even for failures and reports them in an error object.
func (c *Client) pageAction(ctx context.Context, lang, title string) (*Payload, error) {
	params := url.Values{}
	params.Set("action", "parse")
	params.Set("page", title)
	params.Set("format", "json")
	params.Set("prop", "text")
	params.Set("formatversion", "2")
	u := c.origin(lang) + "/w/api.php?" + params.Encode()

	resp, err := c.getRetry(ctx, "page-action", lang, title, u)
	if err != nil {
		return nil, fmt.Errorf("action: %w", err)
	}

	var env actionEnvelope
	if err := json.Unmarshal(resp.body, &env); err != nil {
		return nil, fmt.Errorf("action: decode response: %w", err)
	}
	if env.Error != nil {
		return nil, fmt.Errorf("action: %w: %s: %s", ErrAPIError, env.Error.Code, env.Error.Info)
	}
	if env.Parse.Text == "" {
		return nil, fmt.Errorf("action: %w: empty parse text", ErrAPIError)
	}

	return &Payload{
		API:         StyleAction,
		Language:    lang,
		Page:        title,
		SourceURL:   u,
		ContentType: resp.contentType,
		HTML:        env.Parse.Text,
		FetchedAt:   time.Now().UTC().Format(time.RFC3339),
	}, nil
}
