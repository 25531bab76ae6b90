package book

import (
	"bytes"
	"fmt"
	"html/template"
	"sort"
	"strconv"

	"github.com/hazyhaar/mendelev/element"
	"github.com/hazyhaar/mendelev/l10n"
	"github.com/hazyhaar/mendelev/layout"
	"github.com/hazyhaar/mendelev/summary"
)

const xmlProlog = "<?xml version=\"1.0\" encoding=\"utf-8\"?>\n"

// renderPage executes a page template behind the XML prolog.
func renderPage(t *template.Template, data any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xmlProlog)
	if err := t.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("book: render %s: %w", t.Name(), err)
	}
	return buf.Bytes(), nil
}

type coverView struct {
	Lang  string
	Title string
	Image string
	Alt   string
}

var coverTmpl = template.Must(template.New("cover.xhtml").Parse(`<html xmlns="http://www.w3.org/1999/xhtml" xmlns:epub="http://www.idpf.org/2007/ops" xml:lang="{{.Lang}}">
<head><title>{{.Title}}</title></head>
<body><section epub:type="cover" id="cover"><img src="{{.Image}}" alt="{{.Alt}}"/></section></body>
</html>
`))

func renderCover(tr l10n.Strings, imageName string) ([]byte, error) {
	return renderPage(coverTmpl, coverView{
		Lang:  tr.Lang(),
		Title: tr.Get("cover_page_title"),
		Image: imageName,
		Alt:   tr.Get("cover_image_alt"),
	})
}

type cellView struct {
	Empty  bool
	Number int
	Symbol string
	Name   string
	Href   string
}

type rowView struct {
	Label string
	Cells []cellView
}

type quickTableView struct {
	Lang   string
	Title  string
	Corner string
	Note   string
	Head   []int
	Rows   []rowView
}

var quickTableTmpl = template.Must(template.New("quick-table.xhtml").Parse(`<html xmlns="http://www.w3.org/1999/xhtml" xml:lang="{{.Lang}}">
<head><title>{{.Title}}</title><link rel="stylesheet" href="css/style.css" type="text/css"/></head>
<body>
<h1>{{.Title}}</h1>
<table class="periodic-grid">
<tr><th>{{.Corner}}</th>{{range .Head}}<th>{{.}}</th>{{end}}</tr>
{{- range .Rows}}
<tr><th>{{.Label}}</th>{{range .Cells}}{{if .Empty}}<td>&#160;</td>{{else}}<td id="el-{{.Number}}" title="{{.Name}}"><div class="atomic-number">{{.Number}}</div><div class="symbol"><a href="{{.Href}}">{{.Symbol}}</a></div></td>{{end}}{{end}}</tr>
{{- end}}
</table>
<p>{{.Note}}</p>
</body>
</html>
`))

// renderQuickTable lays the dataset out on the same 18x9 grid the cover
// uses, so the two views of the table can never disagree about where an
// element sits.
func renderQuickTable(tr l10n.Strings, elements []summary.ElementSummary, hrefByZ map[int]string) ([]byte, error) {
	bare := make([]element.Element, len(elements))
	for i, s := range elements {
		bare[i] = s.Element
	}
	placements, err := layout.PlaceAll(bare)
	if err != nil {
		return nil, fmt.Errorf("book: quick table: %w", err)
	}
	byCell := make(map[layout.GridCell]element.Element, len(placements))
	for _, p := range placements {
		byCell[p.Cell] = p.Element
	}

	head := make([]int, 18)
	for i := range head {
		head[i] = i + 1
	}
	rows := make([]rowView, 0, 9)
	for row := 1; row <= 9; row++ {
		var label string
		switch {
		case row <= 7:
			label = tr.Format("period_row_label", row)
		case row == 8:
			label = tr.Get("lanthanides_label")
		default:
			label = tr.Get("actinides_label")
		}
		cells := make([]cellView, 0, 18)
		for col := 1; col <= 18; col++ {
			e, ok := byCell[layout.GridCell{Row: row, Col: col}]
			if !ok {
				cells = append(cells, cellView{Empty: true})
				continue
			}
			cells = append(cells, cellView{
				Number: e.AtomicNumber,
				Symbol: e.Symbol,
				Name:   e.Name,
				Href:   hrefByZ[e.AtomicNumber],
			})
		}
		rows = append(rows, rowView{Label: label, Cells: cells})
	}

	return renderPage(quickTableTmpl, quickTableView{
		Lang:   tr.Lang(),
		Title:  tr.Get("quick_table_title"),
		Corner: tr.Get("element_meta_group"),
		Note:   tr.Get("quick_table_note"),
		Head:   head,
		Rows:   rows,
	})
}

type linkItem struct {
	Href string
	Text string
}

type indexView struct {
	Lang  string
	Title string
	Items []linkItem
}

var indexTmpl = template.Must(template.New("index.xhtml").Parse(`<html xmlns="http://www.w3.org/1999/xhtml" xml:lang="{{.Lang}}">
<head><title>{{.Title}}</title><link rel="stylesheet" href="css/style.css" type="text/css"/></head>
<body>
<h1>{{.Title}}</h1>
<ul>
{{- range .Items}}
<li><a href="{{.Href}}">{{.Text}}</a></li>
{{- end}}
</ul>
</body>
</html>
`))

func renderIndex(tr l10n.Strings, elements []summary.ElementSummary, hrefByZ map[int]string) ([]byte, error) {
	bySymbol := make([]summary.ElementSummary, len(elements))
	copy(bySymbol, elements)
	sort.Slice(bySymbol, func(i, j int) bool {
		if bySymbol[i].Symbol != bySymbol[j].Symbol {
			return bySymbol[i].Symbol < bySymbol[j].Symbol
		}
		return bySymbol[i].AtomicNumber < bySymbol[j].AtomicNumber
	})
	items := make([]linkItem, 0, len(bySymbol))
	for _, s := range bySymbol {
		items = append(items, linkItem{
			Href: hrefByZ[s.AtomicNumber],
			Text: s.Symbol + " — " + s.Name,
		})
	}
	return renderPage(indexTmpl, indexView{
		Lang:  tr.Lang(),
		Title: tr.Get("index_title"),
		Items: items,
	})
}

type blockSection struct {
	Title string
	Items []linkItem
}

type blocksView struct {
	Lang     string
	Title    string
	Sections []blockSection
}

var blocksTmpl = template.Must(template.New("blocks.xhtml").Parse(`<html xmlns="http://www.w3.org/1999/xhtml" xml:lang="{{.Lang}}">
<head><title>{{.Title}}</title><link rel="stylesheet" href="css/style.css" type="text/css"/></head>
<body>
<h1>{{.Title}}</h1>
{{- range .Sections}}
<h2>{{.Title}}</h2>
<ul>
{{- range .Items}}
<li><a href="{{.Href}}">{{.Text}}</a></li>
{{- end}}
</ul>
{{- end}}
</body>
</html>
`))

// renderBlocks groups the dataset by block letter. Letters outside s/p/d/f
// land in the trailing "other" bucket together with blank blocks, so no
// element can silently vanish from the reference.
func renderBlocks(tr l10n.Strings, elements []summary.ElementSummary) ([]byte, error) {
	buckets := make(map[string][]linkItem)
	for _, s := range elements {
		key := s.Block
		switch key {
		case "s", "p", "d", "f":
		default:
			key = ""
		}
		buckets[key] = append(buckets[key], linkItem{
			Href: fmt.Sprintf("quick-table.xhtml#el-%d", s.AtomicNumber),
			Text: s.Symbol + " — " + s.Name,
		})
	}
	var sections []blockSection
	for _, key := range []string{"s", "p", "d", "f", ""} {
		items, ok := buckets[key]
		if !ok {
			continue
		}
		title := tr.Get("blocks_other_label")
		if key != "" {
			title = tr.Format("block_section_label", key)
		}
		sections = append(sections, blockSection{Title: title, Items: items})
	}
	return renderPage(blocksTmpl, blocksView{
		Lang:     tr.Lang(),
		Title:    tr.Get("blocks_title"),
		Sections: sections,
	})
}

type metaPair struct {
	Label string
	Value string
}

type elementPageView struct {
	Lang        string
	Title       string
	Heading     string
	Subtitle    string
	Pairs       []metaPair
	SummaryHTML template.HTML
	Summary     string
	Unavailable string
	SourceLabel string
	SourceURL   string
}

var elementPageTmpl = template.Must(template.New("element.xhtml").Parse(`<html xmlns="http://www.w3.org/1999/xhtml" xml:lang="{{.Lang}}">
<head><title>{{.Title}}</title><link rel="stylesheet" href="../css/style.css" type="text/css"/></head>
<body>
<h1>{{.Heading}}</h1>
{{- if .Subtitle}}
<p class="subtitle">{{.Subtitle}}</p>
{{- end}}
{{- if .Pairs}}
<dl class="element-meta">
{{- range .Pairs}}
<dt>{{.Label}}</dt><dd>{{.Value}}</dd>
{{- end}}
</dl>
{{- end}}
<section class="summary">
{{- if .SummaryHTML}}
{{.SummaryHTML}}
{{- else if .Summary}}
<p>{{.Summary}}</p>
{{- else}}
<p>{{.Unavailable}}</p>
{{- end}}
</section>
{{- if .SourceURL}}
<p class="source">{{.SourceLabel}}: <a href="{{.SourceURL}}">Wikipedia</a> (CC BY-SA 4.0)</p>
{{- end}}
</body>
</html>
`))

func renderElementPage(tr l10n.Strings, s summary.ElementSummary) ([]byte, error) {
	var pairs []metaPair
	add := func(key, value string) {
		if value != "" {
			pairs = append(pairs, metaPair{Label: tr.Get(key), Value: value})
		}
	}
	add("element_meta_atomic_number", strconv.Itoa(s.AtomicNumber))
	add("element_meta_symbol", s.Symbol)
	add("element_meta_name_en", s.Name)
	switch {
	case s.Group != nil:
		add("element_meta_group", strconv.Itoa(*s.Group))
	case s.Category == "lanthanide":
		add("element_meta_group", tr.Get("lanthanides_label"))
	case s.Category == "actinide":
		add("element_meta_group", tr.Get("actinides_label"))
	}
	if s.Period > 0 {
		add("element_meta_period", strconv.Itoa(s.Period))
	}
	add("element_meta_block", s.Block)
	add("element_meta_category", s.Category)
	add("element_meta_standard_atomic_weight", s.Weight)
	add("element_meta_phase_stp", s.Phase)
	add("element_meta_origin", s.Origin)

	sourceURL := s.SourceURL
	if sourceURL == "" {
		sourceURL = s.WikiURL
	}

	heading := s.Symbol + " — " + s.Name
	return renderPage(elementPageTmpl, elementPageView{
		Lang:     tr.Lang(),
		Title:    heading,
		Heading:  heading,
		Subtitle: s.Description,
		Pairs:    pairs,
		// Sanitized during aggregation; the only raw HTML the book accepts.
		SummaryHTML: template.HTML(s.SummaryHTML),
		Summary:     s.Summary,
		Unavailable: tr.Get("summary_unavailable"),
		SourceLabel: tr.Get("source_link_label"),
		SourceURL:   sourceURL,
	})
}

type elementIndexView struct {
	Lang  string
	Title string
	Intro string
	Items []linkItem
	Note  string
}

var elementIndexTmpl = template.Must(template.New("elements/index.xhtml").Parse(`<html xmlns="http://www.w3.org/1999/xhtml" xml:lang="{{.Lang}}">
<head><title>{{.Title}}</title><link rel="stylesheet" href="../css/style.css" type="text/css"/></head>
<body>
<h1>{{.Title}}</h1>
<p>{{.Intro}}</p>
<ol class="element-list">
{{- range .Items}}
<li><a href="{{.Href}}">{{.Text}}</a></li>
{{- end}}
</ol>
<p class="source">{{.Note}}</p>
</body>
</html>
`))

func renderElementIndex(tr l10n.Strings, pages []pageRef) ([]byte, error) {
	items := make([]linkItem, 0, len(pages))
	for _, p := range pages {
		items = append(items, linkItem{Href: p.File, Text: p.Title})
	}
	return renderPage(elementIndexTmpl, elementIndexView{
		Lang:  tr.Lang(),
		Title: tr.Get("element_profiles_title"),
		Intro: tr.Get("element_profiles_intro"),
		Items: items,
		Note:  tr.Get("element_profiles_source_note"),
	})
}

type legendView struct {
	Lang            string
	Title           string
	Notes           []string
	CategoriesTitle string
	Categories      []string
}

var legendTmpl = template.Must(template.New("legend.xhtml").Parse(`<html xmlns="http://www.w3.org/1999/xhtml" xml:lang="{{.Lang}}">
<head><title>{{.Title}}</title><link rel="stylesheet" href="css/style.css" type="text/css"/></head>
<body>
<h1>{{.Title}}</h1>
<ul>
{{- range .Notes}}
<li>{{.}}</li>
{{- end}}
</ul>
<h2>{{.CategoriesTitle}}</h2>
<ul>
{{- range .Categories}}
<li>{{.}}</li>
{{- end}}
</ul>
</body>
</html>
`))

func renderLegend(tr l10n.Strings, elements []summary.ElementSummary) ([]byte, error) {
	seen := make(map[string]bool)
	var cats []string
	for _, s := range elements {
		if s.Category != "" && !seen[s.Category] {
			seen[s.Category] = true
			cats = append(cats, s.Category)
		}
	}
	sort.Strings(cats)
	return renderPage(legendTmpl, legendView{
		Lang:  tr.Lang(),
		Title: tr.Get("legend_title"),
		Notes: []string{
			tr.Get("legend_grid_note"),
			tr.Get("legend_series_note"),
			tr.Get("legend_block_note"),
		},
		CategoriesTitle: tr.Get("legend_categories_title"),
		Categories:      cats,
	})
}
