package book

import (
	"fmt"
	"html/template"
	"path/filepath"
	"strings"

	"github.com/gosimple/slug"

	"github.com/hazyhaar/mendelev/l10n"
	"github.com/hazyhaar/mendelev/summary"
)

const (
	mimetypePayload = "application/epub+zip"
	xhtmlType       = "application/xhtml+xml"
)

const containerXML = xmlProlog + `<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
<rootfiles><rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/></rootfiles>
</container>
`

// pageRef identifies one element profile page across the manifest, the
// spine and both navigation documents.
type pageRef struct {
	ID    string // manifest id
	File  string // name within elements/
	Href  string // path from the OEBPS root
	Title string
}

// profilePages derives a stable file name per element and returns the
// refs plus an atomic-number index used wherever a page links an element.
func profilePages(elements []summary.ElementSummary) ([]pageRef, map[int]string) {
	pages := make([]pageRef, 0, len(elements))
	hrefs := make(map[int]string, len(elements))
	for _, s := range elements {
		text := slug.Make(s.Name)
		if text == "" {
			text = slug.Make(s.Symbol)
		}
		if text == "" {
			text = fmt.Sprintf("element-%d", s.AtomicNumber)
		}
		file := fmt.Sprintf("%03d-%s.xhtml", s.AtomicNumber, text)
		href := "elements/" + file
		pages = append(pages, pageRef{
			ID:    fmt.Sprintf("element-%03d", s.AtomicNumber),
			File:  file,
			Href:  href,
			Title: s.Symbol + " — " + s.Name,
		})
		hrefs[s.AtomicNumber] = href
	}
	return pages, hrefs
}

// coverAsset resolves the in-book name and media type for the cover image.
func coverAsset(path string) (name, mediaType string, err error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "images/cover.jpg", "image/jpeg", nil
	case ".png":
		return "images/cover.png", "image/png", nil
	}
	return "", "", fmt.Errorf("book: unsupported cover image %q (want .jpg or .png)", path)
}

type navEntry struct {
	Label    string
	Href     string
	Children []linkItem
}

type navView struct {
	Lang    string
	Heading string
	Entries []navEntry
}

var navTmpl = template.Must(template.New("nav.xhtml").Parse(`<html xmlns="http://www.w3.org/1999/xhtml" xmlns:epub="http://www.idpf.org/2007/ops" xml:lang="{{.Lang}}">
<head><title>{{.Heading}}</title></head>
<body>
<nav epub:type="toc" id="toc">
<h1>{{.Heading}}</h1>
<ol>
{{- range .Entries}}
<li><a href="{{.Href}}">{{.Label}}</a>{{if .Children}}<ol>{{range .Children}}<li><a href="{{.Href}}">{{.Text}}</a></li>{{end}}</ol>{{end}}</li>
{{- end}}
</ol>
</nav>
</body>
</html>
`))

func renderNav(tr l10n.Strings, pages []pageRef) ([]byte, error) {
	children := make([]linkItem, 0, len(pages))
	for _, p := range pages {
		children = append(children, linkItem{Href: p.Href, Text: p.Title})
	}
	entries := []navEntry{
		{Label: tr.Get("cover_nav_label"), Href: "cover.xhtml"},
		{Label: tr.Get("quick_table_nav_label"), Href: "quick-table.xhtml"},
		{Label: tr.Get("index_nav_label"), Href: "index.xhtml"},
		{Label: tr.Get("blocks_nav_label"), Href: "blocks.xhtml"},
		{Label: tr.Get("element_profiles_nav_label"), Href: "elements/index.xhtml", Children: children},
		{Label: tr.Get("legend_nav_label"), Href: "legend.xhtml"},
		{Label: tr.Get("sources_nav_label"), Href: "attribution.xhtml"},
	}
	return renderPage(navTmpl, navView{
		Lang:    tr.Lang(),
		Heading: tr.Get("toc_heading"),
		Entries: entries,
	})
}

type ncxPoint struct {
	Order int
	Label string
	Href  string
}

type ncxView struct {
	UID    string
	Title  string
	Points []ncxPoint
}

var ncxTmpl = template.Must(template.New("toc.ncx").Parse(`<ncx xmlns="http://www.daisy.org/z3986/2005/ncx/" version="2005-1">
<head>
<meta name="dtb:uid" content="{{.UID}}"/>
<meta name="dtb:depth" content="1"/>
<meta name="dtb:totalPageCount" content="0"/>
<meta name="dtb:maxPageNumber" content="0"/>
</head>
<docTitle><text>{{.Title}}</text></docTitle>
<navMap>
{{- range .Points}}
<navPoint id="navPoint-{{.Order}}" playOrder="{{.Order}}"><navLabel><text>{{.Label}}</text></navLabel><content src="{{.Href}}"/></navPoint>
{{- end}}
</navMap>
</ncx>
`))

// renderNCX emits the flat EPUB 2 fallback map: the same order as the
// spine, element pages inlined after their directory.
func renderNCX(tr l10n.Strings, bookID string, pages []pageRef) ([]byte, error) {
	labels := []struct {
		label string
		href  string
	}{
		{tr.Get("cover_nav_label"), "cover.xhtml"},
		{tr.Get("quick_table_nav_label"), "quick-table.xhtml"},
		{tr.Get("index_nav_label"), "index.xhtml"},
		{tr.Get("blocks_nav_label"), "blocks.xhtml"},
		{tr.Get("element_profiles_nav_label"), "elements/index.xhtml"},
	}
	points := make([]ncxPoint, 0, len(labels)+len(pages)+2)
	for _, l := range labels {
		points = append(points, ncxPoint{Order: len(points) + 1, Label: l.label, Href: l.href})
	}
	for _, p := range pages {
		points = append(points, ncxPoint{Order: len(points) + 1, Label: p.Title, Href: p.Href})
	}
	points = append(points, ncxPoint{Order: len(points) + 1, Label: tr.Get("legend_nav_label"), Href: "legend.xhtml"})
	points = append(points, ncxPoint{Order: len(points) + 1, Label: tr.Get("sources_nav_label"), Href: "attribution.xhtml"})

	return renderPage(ncxTmpl, ncxView{
		UID:    bookID,
		Title:  tr.Get("book_title"),
		Points: points,
	})
}

type manifestItem struct {
	ID         string
	Href       string
	MediaType  string
	Properties string
}

type opfView struct {
	BookID   string
	Title    string
	Author   string
	Language string
	Modified string
	Manifest []manifestItem
	Spine    []string
}

var opfTmpl = template.Must(template.New("content.opf").Parse(`<package xmlns="http://www.idpf.org/2007/opf" version="3.0" unique-identifier="bookid">
<metadata xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:dcterms="http://purl.org/dc/terms/">
<dc:identifier id="bookid">{{.BookID}}</dc:identifier>
<dc:title>{{.Title}}</dc:title>
<dc:creator>{{.Author}}</dc:creator>
<dc:language>{{.Language}}</dc:language>
<meta property="dcterms:modified">{{.Modified}}</meta>
<meta name="cover" content="cover-image"/>
</metadata>
<manifest>
{{- range .Manifest}}
<item id="{{.ID}}" href="{{.Href}}" media-type="{{.MediaType}}"{{if .Properties}} properties="{{.Properties}}"{{end}}/>
{{- end}}
</manifest>
<spine toc="ncx">
{{- range .Spine}}
<itemref idref="{{.}}"/>
{{- end}}
</spine>
</package>
`))

func renderOPF(tr l10n.Strings, bookID, modified, imageName, imageType string, pages []pageRef) ([]byte, error) {
	manifest := []manifestItem{
		{ID: "nav", Href: "nav.xhtml", MediaType: xhtmlType, Properties: "nav"},
		{ID: "style", Href: "css/style.css", MediaType: "text/css"},
		{ID: "cover-image", Href: imageName, MediaType: imageType, Properties: "cover-image"},
		{ID: "cover", Href: "cover.xhtml", MediaType: xhtmlType},
		{ID: "quick-table", Href: "quick-table.xhtml", MediaType: xhtmlType},
		{ID: "index", Href: "index.xhtml", MediaType: xhtmlType},
		{ID: "blocks", Href: "blocks.xhtml", MediaType: xhtmlType},
		{ID: "legend", Href: "legend.xhtml", MediaType: xhtmlType},
		{ID: "attribution", Href: "attribution.xhtml", MediaType: xhtmlType},
		{ID: "ncx", Href: "toc.ncx", MediaType: "application/x-dtbncx+xml"},
		{ID: "element-index", Href: "elements/index.xhtml", MediaType: xhtmlType},
	}
	for _, p := range pages {
		manifest = append(manifest, manifestItem{ID: p.ID, Href: p.Href, MediaType: xhtmlType})
	}

	spine := []string{"cover", "quick-table", "index", "blocks", "element-index"}
	for _, p := range pages {
		spine = append(spine, p.ID)
	}
	spine = append(spine, "legend", "attribution")

	return renderPage(opfTmpl, opfView{
		BookID:   bookID,
		Title:    tr.Get("book_title"),
		Author:   tr.Get("book_author"),
		Language: tr.Lang(),
		Modified: modified,
		Manifest: manifest,
		Spine:    spine,
	})
}
