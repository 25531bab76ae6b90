package normalize

import (
	"regexp"
	"strconv"
	"strings"
)

// footnoteRe matches bracketed footnote and citation markers ("[a]", "[i]",
// "[3]") that wiki markup scatters through headers and cells.
var footnoteRe = regexp.MustCompile(`\[[^\]]*\]`)

// bracketValueRe matches a cell that is nothing but a bracketed numeral,
// the way predicted atomic weights are published ("[98]"). Such a cell
// keeps its numeral as opaque text instead of being emptied as a footnote.
var bracketValueRe = regexp.MustCompile(`^\[\s*([0-9]+(?:\.[0-9]+)?)\s*\]$`)

// widthFold maps full-width punctuation and exotic spaces to their ASCII
// forms so header matching and numeric coercion behave the same for the
// Japanese edition.
var widthFold = strings.NewReplacer(
	"（", "(", // （
	"）", ")", // ）
	"：", ":", // ：
	"，", ",", // ，
	"．", ".", // ．
	"－", "-", // －
	"　", " ", // ideographic space
	" ", " ", // nbsp
	" ", " ", // narrow nbsp
	"−", "-", // minus sign
)

// CleanText normalizes one extracted cell or header: punctuation width
// folded, whitespace collapsed, footnote markers excised. A cell that is
// entirely a bracketed numeral is unwrapped instead, so "[98]" cleans to
// "98" while "1.008 [a]" cleans to "1.008".
func CleanText(s string) string {
	s = widthFold.Replace(s)
	s = collapseSpace(s)
	if m := bracketValueRe.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	s = footnoteRe.ReplaceAllString(s, "")
	return collapseSpace(s)
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// absentValues are the cell spellings that mean "no value" rather than
// zero. Lanthanides and actinides render their group as a dash.
var absentValues = map[string]bool{
	"":    true,
	"-":   true,
	"–":   true, // en dash
	"—":   true, // em dash
	"n/a": true,
}

// ToInt coerces a cleaned cell to an integer. Values that render integers
// with a decimal point ("14.0") are truncated toward zero, matching how
// the source tables print them. The second return is false for absent or
// unparseable cells.
func ToInt(s string) (int, bool) {
	s = CleanText(s)
	if absentValues[strings.ToLower(s)] {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return int(f), true
}
