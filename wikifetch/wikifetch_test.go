package wikifetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func testClient(t *testing.T, baseURL string, mutate func(*Config)) *Client {
	t.Helper()
	cfg := Config{
		BaseURL:      baseURL,
		MaxRetries:   3,
		RetryBackoff: time.Millisecond,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	return New(cfg)
}

// WHAT: Verifies a REST page fetch returns the served HTML with full
// payload context (API style, source URL, parseable timestamp).
func TestPageREST(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/rest_v1/page/html/List_of_chemical_elements" {
			t.Errorf("unexpected path %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		if ua := r.Header.Get("User-Agent"); !strings.Contains(ua, "mendelev") {
			t.Errorf("user agent = %q", ua)
		}
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html><table class=\"wikitable\"></table></html>"))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, nil)
	p, err := c.Page(context.Background(), "en", "List of chemical elements", StyleREST)
	if err != nil {
		t.Fatalf("Page: %v", err)
	}
	if p.API != StyleREST {
		t.Errorf("API = %q", p.API)
	}
	if !strings.Contains(p.HTML, "wikitable") {
		t.Errorf("HTML = %q", p.HTML)
	}
	if !strings.Contains(p.SourceURL, "/api/rest_v1/page/html/") {
		t.Errorf("SourceURL = %q", p.SourceURL)
	}
	if _, err := time.Parse(time.RFC3339, p.FetchedAt); err != nil {
		t.Errorf("FetchedAt %q not RFC3339: %v", p.FetchedAt, err)
	}
}

// WHAT: Verifies the auto style falls back to the Action API when the REST
// endpoint 404s.
// WHY: The ordered strategy list is the availability story: one API style
// going away must not take the pipeline down.
func TestPageAutoFallsBack(t *testing.T) {
	var restHits, actionHits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/api/rest_v1/page/html/"):
			restHits.Add(1)
			http.NotFound(w, r)
		case r.URL.Path == "/w/api.php":
			actionHits.Add(1)
			if r.URL.Query().Get("formatversion") != "2" {
				t.Errorf("formatversion = %q", r.URL.Query().Get("formatversion"))
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"parse":{"title":"List of chemical elements","text":"<table class=\"wikitable\"></table>"}}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, nil)
	p, err := c.Page(context.Background(), "en", "List of chemical elements", StyleAuto)
	if err != nil {
		t.Fatalf("Page: %v", err)
	}
	if p.API != StyleAction {
		t.Errorf("API = %q, want action", p.API)
	}
	if restHits.Load() != 1 {
		t.Errorf("rest hits = %d, want 1 (404 is permanent, no retry)", restHits.Load())
	}
	if actionHits.Load() != 1 {
		t.Errorf("action hits = %d", actionHits.Load())
	}
}

// WHAT: Verifies transient 503s are retried with backoff until success.
func TestPageRetriesServerError(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("<html>ok</html>"))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, nil)
	p, err := c.Page(context.Background(), "en", "Hydrogen", StyleREST)
	if err != nil {
		t.Fatalf("Page: %v", err)
	}
	if hits.Load() != 3 {
		t.Errorf("attempts = %d, want 3", hits.Load())
	}
	if p.HTML != "<html>ok</html>" {
		t.Errorf("HTML = %q", p.HTML)
	}
}

// WHAT: Verifies a 400 is permanent: exactly one attempt, then failure.
// WHY: Retrying a malformed request wastes the politeness budget and can
// never succeed.
func TestPageNoRetryOnClientError(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, nil)
	_, err := c.Page(context.Background(), "en", "Hydrogen", StyleREST)
	if !errors.Is(err, ErrAllAPIsFailed) {
		t.Fatalf("err = %v, want ErrAllAPIsFailed", err)
	}
	if !strings.Contains(err.Error(), "400") {
		t.Errorf("error does not carry the status: %v", err)
	}
	if hits.Load() != 1 {
		t.Errorf("attempts = %d, want 1", hits.Load())
	}
}

// WHAT: Verifies an Action API error object surfaces as ErrAPIError even
// though the HTTP status is 200.
func TestPageActionAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"error":{"code":"missingtitle","info":"The page you specified doesn't exist."}}`))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, nil)
	_, err := c.Page(context.Background(), "en", "No Such Page", StyleAction)
	if !errors.Is(err, ErrAllAPIsFailed) {
		t.Fatalf("err = %v, want ErrAllAPIsFailed wrap", err)
	}
	if !strings.Contains(err.Error(), "missingtitle") {
		t.Errorf("error does not carry the api code: %v", err)
	}
}

// WHAT: Verifies the body size cap rejects oversized responses.
func TestPageTooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("x", 2048)))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, func(cfg *Config) { cfg.MaxBytes = 1024 })
	_, err := c.Page(context.Background(), "en", "Hydrogen", StyleREST)
	if err == nil || !strings.Contains(err.Error(), "size limit") {
		t.Fatalf("err = %v, want size limit error", err)
	}
}

// WHAT: Verifies language and title validation happens before any I/O.
func TestInputValidation(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()
	c := testClient(t, srv.URL, nil)
	ctx := context.Background()

	if _, err := c.Page(ctx, "not a lang", "Hydrogen", StyleREST); !errors.Is(err, ErrInvalidLanguage) {
		t.Errorf("bad language err = %v", err)
	}
	if _, err := c.Page(ctx, "en", "   ", StyleREST); !errors.Is(err, ErrInvalidTitle) {
		t.Errorf("empty title err = %v", err)
	}
	if _, err := c.Page(ctx, "en", "Hydrogen", "soap"); !errors.Is(err, ErrUnknownStyle) {
		t.Errorf("bad style err = %v", err)
	}
	if hits.Load() != 0 {
		t.Errorf("server hit %d times before validation", hits.Load())
	}

	// Mixed case and regional tags normalize instead of failing.
	if _, err := CheckLanguage(" JA "); err != nil {
		t.Errorf("JA: %v", err)
	}
	if lang, err := CheckLanguage("zh-Hant"); err != nil || lang != "zh-hant" {
		t.Errorf("zh-Hant = %q, %v", lang, err)
	}
}

// WHAT: Verifies the summary endpoint decode: extract, extract_html,
// desktop URL, thumbnail, and the preserved raw body.
func TestSummary(t *testing.T) {
	body := `{
		"title": "Hydrogen",
		"description": "Chemical element with symbol H",
		"extract": "Hydrogen is the lightest element.",
		"extract_html": "<p><b>Hydrogen</b> is the lightest element.</p>",
		"thumbnail": {"source": "https://upload.example/h.png", "width": 320, "height": 240},
		"content_urls": {"desktop": {"page": "https://en.wikipedia.org/wiki/Hydrogen"}}
	}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/rest_v1/page/summary/Hydrogen" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, nil)
	s, err := c.Summary(context.Background(), "en", "Hydrogen")
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if s.Extract != "Hydrogen is the lightest element." {
		t.Errorf("Extract = %q", s.Extract)
	}
	if !strings.Contains(s.ExtractHTML, "<b>Hydrogen</b>") {
		t.Errorf("ExtractHTML = %q", s.ExtractHTML)
	}
	if s.URL != "https://en.wikipedia.org/wiki/Hydrogen" {
		t.Errorf("URL = %q", s.URL)
	}
	if s.Thumbnail == nil || s.Thumbnail.Width != 320 {
		t.Errorf("Thumbnail = %+v", s.Thumbnail)
	}
	if len(s.Raw) == 0 || !strings.Contains(string(s.Raw), "content_urls") {
		t.Errorf("Raw body not preserved")
	}
}

// WHAT: Verifies raw artifact naming and the payload save/load round trip,
// including the derived provenance meta.
func TestPayloadArtifact(t *testing.T) {
	if got := RawFileName("List of chemical elements", "en", "rest"); got != "list-of-chemical-elements-en-rest.json" {
		t.Errorf("RawFileName = %q", got)
	}

	dir := t.TempDir()
	p := &Payload{
		API:       StyleREST,
		Language:  "en",
		Page:      "List of chemical elements",
		SourceURL: "https://en.wikipedia.org/api/rest_v1/page/html/List_of_chemical_elements",
		HTML:      "<html></html>",
		FetchedAt: "2026-03-01T10:20:30Z",
	}
	path, err := SavePayload(dir, p)
	if err != nil {
		t.Fatalf("SavePayload: %v", err)
	}
	if filepath.Base(path) != "list-of-chemical-elements-en-rest.json" {
		t.Errorf("saved as %s", path)
	}

	loaded, err := LoadPayload(path)
	if err != nil {
		t.Fatalf("LoadPayload: %v", err)
	}
	if *loaded != *p {
		t.Errorf("round trip = %+v, want %+v", loaded, p)
	}

	m := loaded.Meta(path)
	if m.API != "rest" || m.RawFile != path || m.FetchedAtUTC != p.FetchedAt {
		t.Errorf("Meta = %+v", m)
	}
}

// WHAT: Verifies every HTTP attempt reaches the provenance recorder, with
// the hash on success and the error on failure.
func TestRecordFunc(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("<html>ok</html>"))
	}))
	defer srv.Close()

	var records []Record
	c := testClient(t, srv.URL, func(cfg *Config) {
		cfg.Record = func(ctx context.Context, rec Record) { records = append(records, rec) }
	})
	if _, err := c.Page(context.Background(), "en", "Hydrogen", StyleREST); err != nil {
		t.Fatalf("Page: %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
	first, second := records[0], records[1]
	if first.Status != http.StatusServiceUnavailable || first.Error == "" {
		t.Errorf("first record = %+v", first)
	}
	if second.Status != http.StatusOK || second.SHA256 == "" || second.Bytes == 0 {
		t.Errorf("second record = %+v", second)
	}
	if second.Kind != "page-rest" || second.Language != "en" || second.Page != "Hydrogen" {
		t.Errorf("second record context = %+v", second)
	}
}
