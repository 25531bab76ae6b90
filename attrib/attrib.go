// Package attrib generates the attribution artifacts for the book: one
// TASL (Title, Author, Source, License) entry per element, preceded by a
// localized front matter naming the source page and the recorded retrieval
// time. The page is assembled once and encoded twice, as the XHTML page
// the book links into its spine and as a plain-text sidecar shipped next
// to the book file.
package attrib

import (
	"bytes"
	"fmt"
	"html/template"
	"io"

	"github.com/hazyhaar/mendelev/element"
	"github.com/hazyhaar/mendelev/l10n"
	"github.com/hazyhaar/mendelev/safeio"
)

// License terms every Wikipedia-derived entry is distributed under.
const (
	LicenseName = "CC BY-SA 4.0"
	LicenseURL  = "https://creativecommons.org/licenses/by-sa/4.0/"
)

// Item is one TASL entry.
type Item struct {
	Title  string
	Author string
	Source string
}

// Page is the assembled attribution page. All fields are resolved strings;
// encoding only lays them out.
type Page struct {
	Lang      string
	Title     string
	Intro     string
	Generated string
	SourceURL string
	Retrieved string
	ListTitle string
	Items     []Item
}

// Build assembles the attribution page from the normalized dataset and its
// recorded provenance. The retrieval line comes from the meta artifact,
// never from the wall clock, so rebuilding the book does not silently
// change what the page claims.
func Build(elements []element.Element, meta element.Meta, tr l10n.Strings) *Page {
	sorted := make([]element.Element, len(elements))
	copy(sorted, elements)
	element.SortByNumber(sorted)

	author := tr.Get("book_author")
	items := make([]Item, 0, len(sorted))
	for _, e := range sorted {
		items = append(items, Item{Title: e.Name, Author: author, Source: e.WikiURL})
	}

	retrieved := meta.FetchedAtUTC
	if t, err := meta.FetchedAt(); err == nil {
		retrieved = t.Format("2006-01-02 15:04 UTC")
	}

	return &Page{
		Lang:      tr.Lang(),
		Title:     tr.Get("sources_title"),
		Intro:     tr.Get("sources_intro"),
		Generated: tr.Format("sources_page_line", meta.Page, meta.API),
		SourceURL: meta.SourceURL,
		Retrieved: tr.Format("sources_retrieved", retrieved),
		ListTitle: tr.Get("attribution_list_title"),
		Items:     items,
	}
}

const xmlProlog = "<?xml version=\"1.0\" encoding=\"utf-8\"?>\n"

var pageTmpl = template.Must(template.New("attribution").Parse(`<html xmlns="http://www.w3.org/1999/xhtml" xml:lang="{{.Lang}}">
<head>
<title>{{.Title}}</title>
<link rel="stylesheet" href="css/style.css" type="text/css"/>
</head>
<body>
<h1>{{.Title}}</h1>
<p>{{.Intro}}</p>
<p class="license"><a href="` + LicenseURL + `">` + LicenseURL + `</a></p>
<p>{{.Generated}}{{if .SourceURL}} <a href="{{.SourceURL}}">{{.SourceURL}}</a>{{end}}</p>
<p>{{.Retrieved}}</p>
<h2>{{.ListTitle}}</h2>
<ul>
{{- range .Items}}
<li><strong>Title:</strong> {{.Title}}; <strong>Author:</strong> {{.Author}}; <strong>Source:</strong> <a href="{{.Source}}">{{.Source}}</a>; <strong>License:</strong> <a href="` + LicenseURL + `">` + LicenseName + `</a>.</li>
{{- end}}
</ul>
</body>
</html>
`))

// EncodeXHTML writes the standalone attribution page. The book copies the
// resulting file into its spine verbatim.
func (p *Page) EncodeXHTML(w io.Writer) error {
	if _, err := io.WriteString(w, xmlProlog); err != nil {
		return fmt.Errorf("attrib: write prolog: %w", err)
	}
	if err := pageTmpl.Execute(w, p); err != nil {
		return fmt.Errorf("attrib: render xhtml: %w", err)
	}
	return nil
}

// EncodeText writes the plain-text sidecar (ATTRIBUTION.txt) for
// distribution channels that cannot carry the XHTML page.
func (p *Page) EncodeText(w io.Writer) error {
	var b bytes.Buffer
	b.WriteString(p.Title + "\n\n")
	b.WriteString(p.Intro + "\n")
	b.WriteString(LicenseURL + "\n\n")
	b.WriteString(p.Generated)
	if p.SourceURL != "" {
		b.WriteString(" " + p.SourceURL)
	}
	b.WriteString("\n")
	b.WriteString(p.Retrieved + "\n\n")
	b.WriteString(p.ListTitle + ":\n")
	for _, item := range p.Items {
		fmt.Fprintf(&b, "- Title: %s; Author: %s; Source: %s; License: %s <%s>\n",
			item.Title, item.Author, item.Source, LicenseName, LicenseURL)
	}
	if _, err := w.Write(b.Bytes()); err != nil {
		return fmt.Errorf("attrib: write text: %w", err)
	}
	return nil
}

// WriteArtifacts renders both encodings and writes them atomically.
// Either path may be empty to skip that artifact.
func (p *Page) WriteArtifacts(xhtmlPath, textPath string) error {
	if xhtmlPath != "" {
		var buf bytes.Buffer
		if err := p.EncodeXHTML(&buf); err != nil {
			return err
		}
		if err := safeio.WriteFile(xhtmlPath, buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("attrib: save %s: %w", xhtmlPath, err)
		}
	}
	if textPath != "" {
		var buf bytes.Buffer
		if err := p.EncodeText(&buf); err != nil {
			return err
		}
		if err := safeio.WriteFile(textPath, buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("attrib: save %s: %w", textPath, err)
		}
	}
	return nil
}
