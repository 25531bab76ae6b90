package layout

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/hazyhaar/mendelev/element"
	"github.com/hazyhaar/mendelev/safeio"
)

// GridConfig configures the cover scene. Zero values take the Kindle
// landscape defaults (2560x1600, 18 columns, 9 rows).
type GridConfig struct {
	Width  int
	Height int

	Columns int
	Rows    int

	MarginLeft   int
	MarginRight  int
	MarginTop    int
	MarginBottom int

	TitleY    int
	SubtitleY int

	Title    string
	Subtitle string

	// Compact suppresses element names, leaving number and symbol only.
	Compact bool

	// Font size tiers, in scene units.
	SymbolSize   float64
	NumberSize   float64
	NameSize     float64
	TitleSize    float64
	SubtitleSize float64

	// Palette maps element categories to cell fill colors. Nil paints
	// every cell white, which is what an e-ink cover wants.
	Palette map[string]string
}

func (c *GridConfig) defaults() {
	if c.Width <= 0 {
		c.Width = 2560
	}
	if c.Height <= 0 {
		c.Height = 1600
	}
	if c.Columns <= 0 {
		c.Columns = 18
	}
	if c.Rows <= 0 {
		c.Rows = 9
	}
	if c.MarginLeft <= 0 {
		c.MarginLeft = 160
	}
	if c.MarginRight <= 0 {
		c.MarginRight = 160
	}
	if c.MarginTop <= 0 {
		c.MarginTop = 200
	}
	if c.MarginBottom <= 0 {
		c.MarginBottom = 200
	}
	if c.TitleY <= 0 {
		c.TitleY = 160
	}
	if c.SubtitleY <= 0 {
		c.SubtitleY = 260
	}
	if c.SymbolSize <= 0 {
		c.SymbolSize = 48
	}
	if c.NumberSize <= 0 {
		c.NumberSize = 20
	}
	if c.NameSize <= 0 {
		c.NameSize = 16
	}
	if c.TitleSize <= 0 {
		c.TitleSize = 96
	}
	if c.SubtitleSize <= 0 {
		c.SubtitleSize = 40
	}
}

// Rect is one filled rectangle node.
type Rect struct {
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	Fill        string  `json:"fill,omitempty"`
	Stroke      string  `json:"stroke,omitempty"`
	StrokeWidth float64 `json:"stroke_width,omitempty"`
}

// Text is one positioned text run. Y is the baseline, as in SVG.
type Text struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Content string  `json:"content"`
	Size    float64 `json:"size"`
	Anchor  string  `json:"anchor,omitempty"` // start, middle, end
	Weight  string  `json:"weight,omitempty"` // bold or empty
	Fill    string  `json:"fill,omitempty"`
}

// Scene is the cover as explicit geometry: every coordinate resolved, no
// layout logic left. Paint order is background, rects, then texts.
// The scene JSON is the contract between the layout and raster stages.
type Scene struct {
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Background string `json:"background"`
	Rects      []Rect `json:"rects"`
	Texts      []Text `json:"texts"`
}

// r2 rounds scene coordinates to hundredths. Grid math divides by 18 and
// 9; unrounded floats would serialize as 17-digit noise.
func r2(v float64) float64 {
	return math.Round(v*100) / 100
}

// BuildScene lays the placed elements out as scene geometry.
func BuildScene(elements []element.Element, cfg GridConfig) (*Scene, error) {
	cfg.defaults()
	placements, err := PlaceAll(elements)
	if err != nil {
		return nil, err
	}

	cellW := float64(cfg.Width-cfg.MarginLeft-cfg.MarginRight) / float64(cfg.Columns)
	cellH := float64(cfg.Height-cfg.MarginTop-cfg.MarginBottom) / float64(cfg.Rows)
	if cellW <= 0 || cellH <= 0 {
		return nil, fmt.Errorf("layout: margins leave no room for the grid")
	}

	s := &Scene{Width: cfg.Width, Height: cfg.Height, Background: "#ffffff"}

	if cfg.Title != "" {
		s.Texts = append(s.Texts, Text{
			X: r2(float64(cfg.Width) / 2), Y: float64(cfg.TitleY),
			Content: cfg.Title, Size: cfg.TitleSize,
			Anchor: "middle", Weight: "bold", Fill: "#111111",
		})
	}
	if cfg.Subtitle != "" {
		s.Texts = append(s.Texts, Text{
			X: r2(float64(cfg.Width) / 2), Y: float64(cfg.SubtitleY),
			Content: cfg.Subtitle, Size: cfg.SubtitleSize,
			Anchor: "middle", Fill: "#444444",
		})
	}

	for _, p := range placements {
		if p.Cell.Col > cfg.Columns || p.Cell.Row > cfg.Rows {
			return nil, fmt.Errorf("layout: element %d cell (%d,%d) outside %dx%d grid",
				p.Element.AtomicNumber, p.Cell.Row, p.Cell.Col, cfg.Columns, cfg.Rows)
		}
		x := float64(cfg.MarginLeft) + float64(p.Cell.Col-1)*cellW
		y := float64(cfg.MarginTop) + float64(p.Cell.Row-1)*cellH

		fill := "#ffffff"
		if c, ok := cfg.Palette[p.Element.Category]; ok {
			fill = c
		}
		s.Rects = append(s.Rects, Rect{
			X: r2(x + 1), Y: r2(y + 1), Width: r2(cellW - 2), Height: r2(cellH - 2),
			Fill: fill, Stroke: "#222222", StrokeWidth: 2,
		})

		s.Texts = append(s.Texts, Text{
			X: r2(x + 8), Y: r2(y + cfg.NumberSize + 6),
			Content: strconv.Itoa(p.Element.AtomicNumber), Size: cfg.NumberSize,
			Anchor: "start", Fill: "#333333",
		})
		s.Texts = append(s.Texts, Text{
			X: r2(x + cellW/2), Y: r2(y + cellH/2 + cfg.SymbolSize*0.35),
			Content: p.Element.Symbol, Size: cfg.SymbolSize,
			Anchor: "middle", Weight: "bold", Fill: "#111111",
		})
		if !cfg.Compact && nameFits(p.Element.Name, cfg.NameSize, cellW) {
			s.Texts = append(s.Texts, Text{
				X: r2(x + cellW/2), Y: r2(y + cellH - 10),
				Content: p.Element.Name, Size: cfg.NameSize,
				Anchor: "middle", Fill: "#333333",
			})
		}
	}
	return s, nil
}

// nameFits estimates whether a name at the given size stays inside a cell.
// The estimate (0.6em average advance) only decides inclusion; actual
// glyph metrics are the rasterizer's problem.
func nameFits(name string, size, cellW float64) bool {
	return 0.6*size*float64(len([]rune(name))) <= cellW-8
}

// EncodeJSON writes the scene as indented JSON. Identical scenes encode
// to identical bytes.
func (s *Scene) EncodeJSON(w io.Writer) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("layout: encode scene: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("layout: encode scene: %w", err)
	}
	return nil
}

// DecodeScene reads a scene back from its JSON form.
func DecodeScene(r io.Reader) (*Scene, error) {
	var s Scene
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("layout: decode scene: %w", err)
	}
	if s.Width <= 0 || s.Height <= 0 {
		return nil, fmt.Errorf("layout: decode scene: non-positive dimensions %dx%d", s.Width, s.Height)
	}
	return &s, nil
}

// SaveScene writes the scene artifact atomically.
func SaveScene(path string, s *Scene) error {
	if err := safeio.WriteJSON(path, s); err != nil {
		return fmt.Errorf("layout: save scene: %w", err)
	}
	return nil
}

// LoadScene reads a scene artifact.
func LoadScene(path string) (*Scene, error) {
	var s Scene
	if err := safeio.ReadJSON(path, &s); err != nil {
		return nil, fmt.Errorf("layout: load scene: %w", err)
	}
	if s.Width <= 0 || s.Height <= 0 {
		return nil, fmt.Errorf("layout: load scene: non-positive dimensions %dx%d", s.Width, s.Height)
	}
	return &s, nil
}
