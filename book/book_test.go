package book

import (
	"archive/zip"
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hazyhaar/mendelev/element"
	"github.com/hazyhaar/mendelev/l10n"
	"github.com/hazyhaar/mendelev/summary"
)

func intp(n int) *int { return &n }

func testSummaries() []summary.ElementSummary {
	return []summary.ElementSummary{
		{
			Element: element.Element{
				AtomicNumber: 92, Symbol: "U", Name: "Uranium",
				Period: 7, Block: "", Category: "actinide",
				WikiURL: "https://en.wikipedia.org/wiki/Uranium",
			},
		},
		{
			Element: element.Element{
				AtomicNumber: 1, Symbol: "H", Name: "Hydrogen",
				Group: intp(1), Period: 1, Block: "s", Weight: "1.008",
				Phase: "gas", Category: "nonmetal",
				WikiURL: "https://en.wikipedia.org/wiki/Hydrogen",
			},
			Description: "Chemical element with atomic number 1",
			SummaryHTML: "<p><b>Hydrogen</b> is the lightest element.</p>",
			Summary:     "Hydrogen is the lightest element.",
			SourceURL:   "https://en.wikipedia.org/wiki/Hydrogen",
		},
		{
			Element: element.Element{
				AtomicNumber: 57, Symbol: "La", Name: "Lanthanum",
				Group: intp(3), Period: 6, Block: "f", Category: "lanthanide",
				WikiURL: "https://en.wikipedia.org/wiki/Lanthanum",
			},
		},
		{
			Element: element.Element{
				AtomicNumber: 6, Symbol: "C", Name: "Carbon",
				Group: intp(14), Period: 2, Block: "p", Category: "nonmetal",
				WikiURL: "https://en.wikipedia.org/wiki/Carbon",
			},
			Summary: "Carbon is a chemical element.",
		},
		{
			Element: element.Element{
				AtomicNumber: 2, Symbol: "He", Name: "Helium",
				Group: intp(18), Period: 1, Block: "s", Category: "noble gas",
				WikiURL: "https://en.wikipedia.org/wiki/Helium",
			},
		},
	}
}

func testConfig(t *testing.T) Config {
	t.Helper()
	dir := t.TempDir()

	coverPath := filepath.Join(dir, "cover.jpg")
	if err := os.WriteFile(coverPath, []byte("jpeg-bytes"), 0o644); err != nil {
		t.Fatalf("write cover: %v", err)
	}
	attribPath := filepath.Join(dir, "attribution.xhtml")
	attribBody := []byte("<?xml version=\"1.0\" encoding=\"utf-8\"?>\n<html><body>attribution</body></html>")
	if err := os.WriteFile(attribPath, attribBody, 0o644); err != nil {
		t.Fatalf("write attribution: %v", err)
	}

	return Config{
		Elements: testSummaries(),
		Meta: element.Meta{
			FetchedAtUTC: "2026-08-21T09:30:00Z",
			Language:     "en",
			Page:         "List of chemical elements",
			API:          "rest",
		},
		Strings:          l10n.Lookup("en"),
		CoverImage:       coverPath,
		AttributionXHTML: attribPath,
		Output:           filepath.Join(dir, "dist", "table.epub"),
		BookID:           "urn:uuid:00000000-0000-0000-0000-000000000001",
	}
}

// WHAT: Verifies RenderFiles emits the complete container file map: OCF
// skeleton, every page, the profile per element, and verbatim copies of
// the cover image and attribution artifacts.
func TestRenderFiles(t *testing.T) {
	cfg := testConfig(t)
	files, err := RenderFiles(cfg)
	if err != nil {
		t.Fatalf("RenderFiles: %v", err)
	}

	for _, name := range []string{
		"mimetype",
		"META-INF/container.xml",
		"OEBPS/content.opf",
		"OEBPS/toc.ncx",
		"OEBPS/nav.xhtml",
		"OEBPS/cover.xhtml",
		"OEBPS/quick-table.xhtml",
		"OEBPS/index.xhtml",
		"OEBPS/blocks.xhtml",
		"OEBPS/legend.xhtml",
		"OEBPS/attribution.xhtml",
		"OEBPS/css/style.css",
		"OEBPS/images/cover.jpg",
		"OEBPS/elements/index.xhtml",
		"OEBPS/elements/001-hydrogen.xhtml",
		"OEBPS/elements/057-lanthanum.xhtml",
		"OEBPS/elements/092-uranium.xhtml",
	} {
		if _, ok := files[name]; !ok {
			t.Errorf("missing file %s", name)
		}
	}

	if got := string(files["mimetype"]); got != "application/epub+zip" {
		t.Errorf("mimetype = %q", got)
	}
	if !bytes.Equal(files["OEBPS/images/cover.jpg"], []byte("jpeg-bytes")) {
		t.Error("cover image not copied verbatim")
	}
	if !bytes.Contains(files["OEBPS/attribution.xhtml"], []byte("attribution")) {
		t.Error("attribution not copied verbatim")
	}
	if got := string(files["OEBPS/css/style.css"]); got != DefaultCSS {
		t.Error("stylesheet is not the bundled default")
	}
	if !bytes.Contains(files["META-INF/container.xml"], []byte(`full-path="OEBPS/content.opf"`)) {
		t.Error("container.xml does not point at the package document")
	}
}

// WHAT: Verifies the quick table places elements on the shared grid:
// anchored cells with linked symbols, series rows with their own labels,
// and non-breaking-space filler for empty cells.
func TestRenderFilesQuickTable(t *testing.T) {
	files, err := RenderFiles(testConfig(t))
	if err != nil {
		t.Fatalf("RenderFiles: %v", err)
	}
	page := string(files["OEBPS/quick-table.xhtml"])

	for _, want := range []string{
		`<td id="el-1" title="Hydrogen"><div class="atomic-number">1</div><div class="symbol"><a href="elements/001-hydrogen.xhtml">H</a></div></td>`,
		`<th>Period 1</th>`,
		`<th>Lanthanides</th>`,
		`<th>Actinides</th>`,
		// Lanthanum routes to the series row despite its nominal group 3.
		`<td id="el-57"`,
		`<td>&#160;</td>`,
		`<th>Group</th><th>1</th>`,
	} {
		if !strings.Contains(page, want) {
			t.Errorf("quick table missing %q", want)
		}
	}
}

// WHAT: Verifies the index sorts by (symbol, atomic number) and links the
// profile pages, and the blocks page buckets s/p/d/f with a trailing
// "Other" for blank blocks.
func TestRenderFilesIndexAndBlocks(t *testing.T) {
	files, err := RenderFiles(testConfig(t))
	if err != nil {
		t.Fatalf("RenderFiles: %v", err)
	}

	index := string(files["OEBPS/index.xhtml"])
	first := strings.Index(index, `<li><a href="elements/006-carbon.xhtml">C — Carbon</a></li>`)
	if first < 0 {
		t.Fatal("index missing carbon entry")
	}
	hydrogen := strings.Index(index, `>H — Hydrogen<`)
	if hydrogen < 0 {
		t.Fatal("index missing hydrogen entry")
	}
	if hydrogen < first {
		t.Error("index not sorted by symbol: H before C")
	}

	blocks := string(files["OEBPS/blocks.xhtml"])
	sOff := strings.Index(blocks, "<h2>s-block</h2>")
	otherOff := strings.Index(blocks, "<h2>Other</h2>")
	if sOff < 0 || otherOff < 0 {
		t.Fatalf("blocks page missing sections: s=%d other=%d", sOff, otherOff)
	}
	if otherOff < sOff {
		t.Error("Other bucket should trail the lettered blocks")
	}
	if !strings.Contains(blocks[otherOff:], ">U — Uranium<") {
		t.Error("blank-block element missing from Other bucket")
	}
	if !strings.Contains(blocks, `href="quick-table.xhtml#el-6"`) {
		t.Error("blocks page should anchor into the quick table")
	}
}

// WHAT: Verifies profile pages: heading, definition list with group or
// series, sanitized summary HTML passed through raw, plain-text summary
// escaped into a paragraph, and the localized fallback line.
func TestRenderFilesElementPages(t *testing.T) {
	files, err := RenderFiles(testConfig(t))
	if err != nil {
		t.Fatalf("RenderFiles: %v", err)
	}

	hydrogen := string(files["OEBPS/elements/001-hydrogen.xhtml"])
	for _, want := range []string{
		"<h1>H — Hydrogen</h1>",
		`<p class="subtitle">Chemical element with atomic number 1</p>`,
		"<dt>Atomic number</dt><dd>1</dd>",
		"<dt>Group</dt><dd>1</dd>",
		"<dt>Standard atomic weight</dt><dd>1.008</dd>",
		"<p><b>Hydrogen</b> is the lightest element.</p>",
		`<a href="https://en.wikipedia.org/wiki/Hydrogen">Wikipedia</a> (CC BY-SA 4.0)`,
	} {
		if !strings.Contains(hydrogen, want) {
			t.Errorf("hydrogen page missing %q", want)
		}
	}

	carbon := string(files["OEBPS/elements/006-carbon.xhtml"])
	if !strings.Contains(carbon, "<p>Carbon is a chemical element.</p>") {
		t.Error("carbon page missing plain summary paragraph")
	}

	lanthanum := string(files["OEBPS/elements/057-lanthanum.xhtml"])
	if !strings.Contains(lanthanum, "<dt>Group</dt><dd>3</dd>") {
		t.Error("lanthanum should show its recorded group")
	}

	uranium := string(files["OEBPS/elements/092-uranium.xhtml"])
	if !strings.Contains(uranium, "<dt>Group</dt><dd>Actinides</dd>") {
		t.Error("groupless actinide should show the series instead")
	}
	if !strings.Contains(uranium, "<p>Summary not available.</p>") {
		t.Error("uranium page missing the fallback summary line")
	}
}

// WHAT: Verifies the package metadata: identifier, localized title and
// creator, pinned dcterms:modified, nav and cover-image properties, and a
// spine that reads cover to attribution with the profiles inline.
func TestRenderFilesPackageDocs(t *testing.T) {
	files, err := RenderFiles(testConfig(t))
	if err != nil {
		t.Fatalf("RenderFiles: %v", err)
	}

	opf := string(files["OEBPS/content.opf"])
	for _, want := range []string{
		`<dc:identifier id="bookid">urn:uuid:00000000-0000-0000-0000-000000000001</dc:identifier>`,
		"<dc:title>Periodic Table for Kindle</dc:title>",
		"<dc:creator>Wikipedia contributors</dc:creator>",
		"<dc:language>en</dc:language>",
		`<meta property="dcterms:modified">2026-08-21T09:30:00Z</meta>`,
		`<item id="nav" href="nav.xhtml" media-type="application/xhtml+xml" properties="nav"/>`,
		`<item id="cover-image" href="images/cover.jpg" media-type="image/jpeg" properties="cover-image"/>`,
		`<item id="element-001" href="elements/001-hydrogen.xhtml" media-type="application/xhtml+xml"/>`,
		`<itemref idref="cover"/>`,
		`<itemref idref="element-092"/>`,
	} {
		if !strings.Contains(opf, want) {
			t.Errorf("opf missing %q", want)
		}
	}
	if strings.Index(opf, `idref="legend"`) < strings.Index(opf, `idref="element-092"`) {
		t.Error("legend should follow the element profiles in the spine")
	}

	ncx := string(files["OEBPS/toc.ncx"])
	for _, want := range []string{
		`<meta name="dtb:uid" content="urn:uuid:00000000-0000-0000-0000-000000000001"/>`,
		`playOrder="1"`,
		"<text>H — Hydrogen</text>",
	} {
		if !strings.Contains(ncx, want) {
			t.Errorf("ncx missing %q", want)
		}
	}

	nav := string(files["OEBPS/nav.xhtml"])
	if !strings.Contains(nav, `<nav epub:type="toc" id="toc">`) {
		t.Error("nav.xhtml missing epub:type toc")
	}
	if !strings.Contains(nav, `<li><a href="elements/001-hydrogen.xhtml">H — Hydrogen</a></li>`) {
		t.Error("nav.xhtml missing element child entry")
	}
}

// WHAT: Verifies the Japanese string table drives the rendered pages and
// package metadata when the config language says so.
func TestRenderFilesJapanese(t *testing.T) {
	cfg := testConfig(t)
	cfg.Strings = l10n.Strings{} // force the Meta.Language fallback
	cfg.Meta.Language = "ja"

	files, err := RenderFiles(cfg)
	if err != nil {
		t.Fatalf("RenderFiles: %v", err)
	}

	quick := string(files["OEBPS/quick-table.xhtml"])
	for _, want := range []string{"<th>第1周期</th>", "<th>ランタノイド</th>", "<title>クイックリファレンス表</title>"} {
		if !strings.Contains(quick, want) {
			t.Errorf("quick table missing %q", want)
		}
	}

	opf := string(files["OEBPS/content.opf"])
	if !strings.Contains(opf, "<dc:language>ja</dc:language>") {
		t.Error("opf missing ja language")
	}
	if !strings.Contains(opf, "<dc:creator>ウィキペディア寄稿者</dc:creator>") {
		t.Error("opf missing localized creator")
	}

	uranium := string(files["OEBPS/elements/092-uranium.xhtml"])
	if !strings.Contains(uranium, "<p>概要は利用できません。</p>") {
		t.Error("uranium page missing localized fallback")
	}
}

// WHAT: Verifies Build writes a valid OCF zip: stored mimetype first,
// remaining entries deflated in sorted order, and byte-identical output
// across runs with a pinned book id.
// WHY: Readers sniff the mimetype at a fixed offset, and reproducible
// output is the whole point of pinning BookID and Modified.
func TestBuildEPUB(t *testing.T) {
	cfg := testConfig(t)
	if err := Build(cfg); err != nil {
		t.Fatalf("Build: %v", err)
	}

	zr, err := zip.OpenReader(cfg.Output)
	if err != nil {
		t.Fatalf("open epub: %v", err)
	}
	defer zr.Close()

	if len(zr.File) == 0 {
		t.Fatal("empty zip")
	}
	first := zr.File[0]
	if first.Name != "mimetype" {
		t.Fatalf("first entry = %q, want mimetype", first.Name)
	}
	if first.Method != zip.Store {
		t.Errorf("mimetype method = %d, want Store", first.Method)
	}
	rc, err := first.Open()
	if err != nil {
		t.Fatalf("open mimetype: %v", err)
	}
	payload, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		t.Fatalf("read mimetype: %v", err)
	}
	if string(payload) != "application/epub+zip" {
		t.Errorf("mimetype payload = %q", payload)
	}

	for i := 2; i < len(zr.File); i++ {
		if zr.File[i-1].Name >= zr.File[i].Name {
			t.Errorf("entries out of order: %q before %q", zr.File[i-1].Name, zr.File[i].Name)
		}
	}
	for _, f := range zr.File[1:] {
		if f.Method != zip.Deflate {
			t.Errorf("entry %s method = %d, want Deflate", f.Name, f.Method)
		}
	}
	if got := first.Modified.UTC().Format("2006-01-02T15:04:05Z"); got != "2026-08-21T09:30:00Z" {
		t.Errorf("mimetype timestamp = %s, want the recorded fetch time", got)
	}

	// Same inputs, same bytes.
	second := cfg
	second.Output = filepath.Join(t.TempDir(), "again.epub")
	if err := Build(second); err != nil {
		t.Fatalf("Build (second): %v", err)
	}
	a, err := os.ReadFile(cfg.Output)
	if err != nil {
		t.Fatalf("read first build: %v", err)
	}
	b, err := os.ReadFile(second.Output)
	if err != nil {
		t.Fatalf("read second build: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Error("two builds with the same book id differ")
	}
}

// WHAT: Verifies the fatal preconditions: no dataset, missing cover,
// missing attribution, unsupported cover type, unparseable modified time.
func TestBuildErrors(t *testing.T) {
	base := testConfig(t)

	cfg := base
	cfg.Elements = nil
	if _, err := RenderFiles(cfg); !errors.Is(err, ErrNoElements) {
		t.Errorf("empty dataset: err = %v, want ErrNoElements", err)
	}

	cfg = base
	cfg.CoverImage = filepath.Join(t.TempDir(), "absent.jpg")
	if _, err := RenderFiles(cfg); !errors.Is(err, ErrNoCover) {
		t.Errorf("missing cover: err = %v, want ErrNoCover", err)
	}

	cfg = base
	cfg.AttributionXHTML = ""
	if _, err := RenderFiles(cfg); !errors.Is(err, ErrNoAttribution) {
		t.Errorf("missing attribution: err = %v, want ErrNoAttribution", err)
	}

	cfg = base
	webp := filepath.Join(t.TempDir(), "cover.webp")
	if err := os.WriteFile(webp, []byte("x"), 0o644); err != nil {
		t.Fatalf("write webp: %v", err)
	}
	cfg.CoverImage = webp
	if _, err := RenderFiles(cfg); err == nil || !strings.Contains(err.Error(), "unsupported cover image") {
		t.Errorf("webp cover: err = %v", err)
	}

	cfg = base
	cfg.Modified = "not-a-time"
	if _, err := RenderFiles(cfg); err == nil || !strings.Contains(err.Error(), "parse modified") {
		t.Errorf("bad modified: err = %v", err)
	}
}

// WHAT: Verifies an omitted BookID still yields a urn:uuid identifier.
func TestBuildGeneratedBookID(t *testing.T) {
	cfg := testConfig(t)
	cfg.BookID = ""
	files, err := RenderFiles(cfg)
	if err != nil {
		t.Fatalf("RenderFiles: %v", err)
	}
	if !bytes.Contains(files["OEBPS/content.opf"], []byte(`<dc:identifier id="bookid">urn:uuid:`)) {
		t.Error("opf missing generated urn:uuid identifier")
	}
}
