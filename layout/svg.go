package layout

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
)

// num formats a coordinate the shortest way that round-trips, so "160"
// stays "160" and 124.44 stays "124.44".
func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// EncodeSVG writes the scene as a standalone SVG document: background,
// rects, then texts, attributes always in the same order. The SVG is a
// faithful preview of the scene; the scene JSON stays the artifact the
// rasterizer consumes.
func (s *Scene) EncodeSVG(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "<svg xmlns=\"http://www.w3.org/2000/svg\" width=\"%d\" height=\"%d\" viewBox=\"0 0 %d %d\">\n",
		s.Width, s.Height, s.Width, s.Height)
	fmt.Fprintf(bw, "  <rect x=\"0\" y=\"0\" width=\"%d\" height=\"%d\" fill=\"%s\"/>\n",
		s.Width, s.Height, xmlEscaper.Replace(s.Background))

	for _, r := range s.Rects {
		fmt.Fprintf(bw, "  <rect x=%q y=%q width=%q height=%q", num(r.X), num(r.Y), num(r.Width), num(r.Height))
		if r.Fill != "" {
			fmt.Fprintf(bw, " fill=%q", xmlEscaper.Replace(r.Fill))
		}
		if r.Stroke != "" {
			fmt.Fprintf(bw, " stroke=%q stroke-width=%q", xmlEscaper.Replace(r.Stroke), num(r.StrokeWidth))
		}
		fmt.Fprint(bw, "/>\n")
	}

	for _, t := range s.Texts {
		fmt.Fprintf(bw, "  <text x=%q y=%q font-family=\"sans-serif\" font-size=%q", num(t.X), num(t.Y), num(t.Size))
		if t.Anchor != "" {
			fmt.Fprintf(bw, " text-anchor=%q", t.Anchor)
		}
		if t.Weight != "" {
			fmt.Fprintf(bw, " font-weight=%q", t.Weight)
		}
		if t.Fill != "" {
			fmt.Fprintf(bw, " fill=%q", xmlEscaper.Replace(t.Fill))
		}
		fmt.Fprintf(bw, ">%s</text>\n", xmlEscaper.Replace(t.Content))
	}

	fmt.Fprint(bw, "</svg>\n")
	return bw.Flush()
}
