package l10n

import "testing"

// WHAT: Verifies language resolution: exact tag, regional tag falling back
// to its primary subtag, and unknown tags falling back to English.
// WHY: Book builds pass through user-supplied language tags; resolution
// must never fail, only degrade.
func TestLookupResolution(t *testing.T) {
	tests := []struct {
		tag  string
		want string
	}{
		{"en", "en"},
		{"ja", "ja"},
		{"JA", "ja"},
		{"ja-JP", "ja"},
		{"en-GB", "en"},
		{"fr", "en"},
		{"", "en"},
		{"  ja  ", "ja"},
	}
	for _, tt := range tests {
		if got := Lookup(tt.tag).Lang(); got != tt.want {
			t.Errorf("Lookup(%q).Lang() = %q, want %q", tt.tag, got, tt.want)
		}
	}
}

// WHAT: Verifies the Japanese table overrides localized keys while keys it
// does not define fall back to the English base.
func TestLookupMergesOverBase(t *testing.T) {
	ja := Lookup("ja")
	if got := ja.Get("book_author"); got != "ウィキペディア寄稿者" {
		t.Errorf("ja book_author = %q", got)
	}
	// Both tables define the subtitle with the same value; the point is
	// that the merged table always has one.
	if got := ja.Get("cover_arc_subtitle"); got == "" || got == "cover_arc_subtitle" {
		t.Errorf("ja cover_arc_subtitle missing: %q", got)
	}

	en := Lookup("en")
	if got := en.Get("cover_arc_title"); got != "PERIODIC TABLE" {
		t.Errorf("en cover_arc_title = %q", got)
	}
}

// WHAT: Verifies derived defaults: nav labels mirror page titles unless a
// table sets them explicitly.
func TestLookupDerivedDefaults(t *testing.T) {
	s := Lookup("en")
	if s.Get("sources_nav_label") != s.Get("sources_title") {
		t.Errorf("sources_nav_label = %q, want title %q",
			s.Get("sources_nav_label"), s.Get("sources_title"))
	}
	if s.Get("quick_table_nav_label") != s.Get("quick_table_title") {
		t.Errorf("quick_table_nav_label = %q, want title %q",
			s.Get("quick_table_nav_label"), s.Get("quick_table_title"))
	}
	if got := s.Get("book_title"); got == "" || got == "book_title" {
		t.Errorf("book_title missing: %q", got)
	}
}

// WHAT: Verifies unknown keys come back as the key itself, and Format
// substitutes arguments.
func TestGetAndFormat(t *testing.T) {
	s := Lookup("en")
	if got := s.Get("no_such_key"); got != "no_such_key" {
		t.Errorf("Get(no_such_key) = %q", got)
	}
	if s.Has("no_such_key") {
		t.Error("Has(no_such_key) = true")
	}
	if got := s.Format("period_row_label", 6); got != "Period 6" {
		t.Errorf("Format(period_row_label, 6) = %q", got)
	}
	if got := Lookup("ja").Format("period_row_label", 6); got != "第6周期" {
		t.Errorf("ja Format(period_row_label, 6) = %q", got)
	}
}

// WHAT: Verifies every key present in a non-base table also exists in the
// English base, so no language can introduce keys that vanish under
// fallback.
func TestTablesCoverBase(t *testing.T) {
	base := tables[DefaultLanguage]
	for lang, table := range tables {
		if lang == DefaultLanguage {
			continue
		}
		for key := range table {
			if _, ok := base[key]; !ok {
				t.Errorf("key %q in %q table has no English base entry", key, lang)
			}
		}
	}
}
