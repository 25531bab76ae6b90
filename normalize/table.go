package normalize

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// rawTable is one extracted table: the cleaned header row plus the data
// rows expanded to a rectangular grid (colspan and rowspan resolved).
type rawTable struct {
	headers []string
	rows    [][]string
}

var hiddenStylePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)display\s*:\s*none`),
	regexp.MustCompile(`(?i)visibility\s*:\s*hidden`),
}

// hasHiddenStyle reports inline-hidden nodes. Sortable wiki tables embed
// hidden sort keys that would corrupt cell text if extracted.
func hasHiddenStyle(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for _, a := range n.Attr {
		if a.Key == "style" {
			for _, pat := range hiddenStylePatterns {
				if pat.MatchString(a.Val) {
					return true
				}
			}
		}
	}
	return false
}

func attrValue(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// hasClassToken reports whether the node's class attribute contains token
// as a whole word.
func hasClassToken(n *html.Node, token string) bool {
	for _, f := range strings.Fields(attrValue(n, "class")) {
		if f == token {
			return true
		}
	}
	return false
}

// findMarkedTables collects every <table> carrying the marker class, in
// document order. Nested marked tables are collected once each.
func findMarkedTables(doc *html.Node, marker string) []*html.Node {
	var tables []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Table && hasClassToken(n, marker) {
			tables = append(tables, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return tables
}

// cellText extracts the visible text of one cell, joining text nodes with
// spaces and skipping hidden spans and non-content elements.
func cellText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				if sb.Len() > 0 {
					sb.WriteByte(' ')
				}
				sb.WriteString(text)
			}
			return
		}
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Noscript:
				return
			}
			if hasHiddenStyle(n) {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// tableRows collects the <tr> nodes of a table, looking through thead and
// tbody but not into nested tables.
func tableRows(table *html.Node) []*html.Node {
	var rows []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Tr:
				rows = append(rows, n)
				return
			case atom.Table:
				if n != table {
					return
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(table)
	return rows
}

// rowCells collects the th/td children of a row.
func rowCells(tr *html.Node) []*html.Node {
	var cells []*html.Node
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && (c.DataAtom == atom.Th || c.DataAtom == atom.Td) {
			cells = append(cells, c)
		}
	}
	return cells
}

func spanValue(n *html.Node, key string) int {
	v, err := strconv.Atoi(strings.TrimSpace(attrValue(n, key)))
	if err != nil || v < 1 {
		return 1
	}
	if v > 100 {
		return 100
	}
	return v
}

// extractTable flattens one table into headers plus rectangular rows.
// The header row is the first row containing a <th>; colspan duplicates a
// cell's text rightwards and rowspan carries it down, the way a visual
// reading of the table would.
func extractTable(table *html.Node) (*rawTable, error) {
	trs := tableRows(table)
	if len(trs) == 0 {
		return nil, fmt.Errorf("table has no rows")
	}

	headerIdx := -1
	for i, tr := range trs {
		for _, c := range rowCells(tr) {
			if c.DataAtom == atom.Th {
				headerIdx = i
				break
			}
		}
		if headerIdx >= 0 {
			break
		}
	}
	if headerIdx == -1 {
		headerIdx = 0
	}

	type carry struct {
		text      string
		remaining int
	}
	pending := map[int]*carry{}

	expand := func(tr *html.Node) []string {
		var out []string
		col := 0
		place := func(text string, colspan, rowspan int) {
			for i := 0; i < colspan; i++ {
				for pending[col] != nil {
					p := pending[col]
					out = append(out, p.text)
					p.remaining--
					if p.remaining == 0 {
						delete(pending, col)
					}
					col++
				}
				out = append(out, text)
				if rowspan > 1 {
					pending[col] = &carry{text: text, remaining: rowspan - 1}
				}
				col++
			}
		}
		for _, c := range rowCells(tr) {
			place(CleanText(cellText(c)), spanValue(c, "colspan"), spanValue(c, "rowspan"))
		}
		for pending[col] != nil {
			p := pending[col]
			out = append(out, p.text)
			p.remaining--
			if p.remaining == 0 {
				delete(pending, col)
			}
			col++
		}
		return out
	}

	rt := &rawTable{}
	for i := headerIdx; i < len(trs); i++ {
		row := expand(trs[i])
		if i == headerIdx {
			rt.headers = row
			continue
		}
		rt.rows = append(rt.rows, row)
	}
	if len(rt.headers) == 0 {
		return nil, fmt.Errorf("table has an empty header row")
	}
	return rt, nil
}

// selectElementTable parses the document and picks the one marked table
// whose headers map onto the element schema.
func selectElementTable(doc []byte, marker string, rules *ColumnRules) (*rawTable, error) {
	root, err := html.Parse(bytes.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("normalize: parse html: %w", err)
	}

	var matches []*rawTable
	for _, t := range findMarkedTables(root, marker) {
		rt, err := extractTable(t)
		if err != nil {
			continue
		}
		cm := rules.mapColumns(rt.headers)
		if _, ok := cm.byField[FieldAtomicNumber]; ok {
			matches = append(matches, rt)
		}
	}

	switch len(matches) {
	case 0:
		return nil, ErrNoTable
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("%w: %d tables map the element schema", ErrAmbiguousTable, len(matches))
	}
}
