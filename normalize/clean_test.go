package normalize

import "testing"

// WHAT: Verifies CleanText folds widths, collapses whitespace, excises
// footnote markers, and unwraps whole-cell bracketed numerals.
// WHY: Predicted atomic weights are published as "[98]"; treating that
// bracket as a footnote would silently empty the value.
func TestCleanText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"  Hydrogen  ", "Hydrogen"},
		{"1.008 [a]", "1.008"},
		{"Atomic weight[a] (Da)", "Atomic weight (Da)"},
		{"[98]", "98"},
		{"[ 98 ]", "98"},
		{"[251.08]", "251.08"},
		{"[98][a]", ""}, // not a whole-cell numeral, so both excise
		{"gas[j]", "gas"},
		{"primordial [i]", "primordial"},
		{"Phase [j]", "Phase"},
		{"原子量　（Da）", "原子量 (Da)"},
		{"−273", "-273"},
		{"a   b\n\tc", "a b c"},
	}
	for _, tt := range tests {
		if got := CleanText(tt.in); got != tt.want {
			t.Errorf("CleanText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// WHAT: Verifies ToInt coercion: decimals truncate, absent spellings and
// prose report no value.
// WHY: Wiki tables print periods as "6" but sometimes group cells as "–";
// the dash must read as absent, not as a parse failure worth a row drop.
func TestToInt(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"6", 6, true},
		{" 14 ", 14, true},
		{"14.0", 14, true},
		{"[98]", 98, true},
		{"", 0, false},
		{"-", 0, false},
		{"–", 0, false},
		{"—", 0, false},
		{"N/A", 0, false},
		{"n/a", 0, false},
		{"unknown", 0, false},
		{"12abc", 0, false},
	}
	for _, tt := range tests {
		got, ok := ToInt(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ToInt(%q) = (%d, %v), want (%d, %v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

// WHAT: Verifies category derivation: atomic-number overrides beat the
// block default, block labels map to series names, unknowns stay "unknown".
// WHY: Helium sits in the s-block but is a noble gas; only the override
// table gets that right.
func TestDeriveCategory(t *testing.T) {
	tests := []struct {
		block string
		z     int
		want  string
	}{
		{"s-block", 1, "nonmetal"},
		{"s-block", 2, "noble gas"},
		{"s-block", 3, "alkali metal"},
		{"s-block", 4, "alkaline earth metal"},
		{"p-block", 5, "metalloid"},
		{"p-block", 6, "nonmetal"},
		{"p-block", 9, "halogen"},
		{"p-block", 10, "noble gas"},
		{"d-block", 26, "transition metal"},
		{"f-block", 58, "lanthanide"},
		{"f-block", 92, "actinide"},
		{"p-block", 13, "p-block element"},
		{"P-Block", 13, "p-block element"},
		{"d-block", 104, "transition metal"},
		{"oddity", 113, "oddity"},
		{"", 113, "unknown"},
		{"p-block", 118, "noble gas"},
	}
	for _, tt := range tests {
		if got := deriveCategory(tt.block, tt.z); got != tt.want {
			t.Errorf("deriveCategory(%q, %d) = %q, want %q", tt.block, tt.z, got, tt.want)
		}
	}
}

// WHAT: Verifies block labels reduce to their letter and junk reduces to
// empty.
func TestBlockLetter(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"s-block", "s"},
		{"P-block", "p"},
		{"d", "d"},
		{"F-BLOCK", "f"},
		{"", ""},
		{"g-block", ""},
		{"?", ""},
	}
	for _, tt := range tests {
		if got := blockLetter(tt.in); got != tt.want {
			t.Errorf("blockLetter(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
