package element

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func group(n int) *int { return &n }

func sample() []Element {
	return []Element{
		{AtomicNumber: 1, Symbol: "H", Name: "Hydrogen", Group: group(1), Period: 1,
			Block: "s", Weight: "1.008", Category: "nonmetal",
			WikiURL: "https://en.wikipedia.org/wiki/Hydrogen"},
		{AtomicNumber: 2, Symbol: "He", Name: "Helium", Group: group(18), Period: 1,
			Block: "s", Weight: "4.0026", Category: "noble gas",
			WikiURL: "https://en.wikipedia.org/wiki/Helium"},
		{AtomicNumber: 58, Symbol: "Ce", Name: "Cerium", Period: 6,
			Block: "f", Weight: "140.12", Category: "lanthanide",
			WikiURL: "https://en.wikipedia.org/wiki/Cerium"},
	}
}

// WHAT: Verifies ValidateAll accepts a well-formed dataset and reports
// duplicate atomic numbers as ErrDuplicateElement.
// WHY: Uniqueness is structural; a duplicate means the source table changed
// shape and the whole pass must fail with zero records, not drop a row.
func TestValidateAllDuplicateNumber(t *testing.T) {
	good := sample()
	if err := ValidateAll(good); err != nil {
		t.Fatalf("valid dataset rejected: %v", err)
	}

	dup := append(sample(), Element{
		AtomicNumber: 2, Symbol: "Xx", Name: "Duplicon", Group: group(2), Period: 1,
		Category: "nonmetal", WikiURL: "https://en.wikipedia.org/wiki/Duplicon",
	})
	err := ValidateAll(dup)
	if !errors.Is(err, ErrDuplicateElement) {
		t.Fatalf("err = %v, want ErrDuplicateElement", err)
	}
	if !strings.Contains(err.Error(), "2") {
		t.Errorf("error does not name the duplicated number: %v", err)
	}
}

// WHAT: Verifies a duplicated symbol is rejected the same way as a
// duplicated atomic number.
func TestValidateAllDuplicateSymbol(t *testing.T) {
	dup := append(sample(), Element{
		AtomicNumber: 3, Symbol: "H", Name: "Hydrogen Prime", Group: group(1), Period: 2,
		Category: "alkali metal", WikiURL: "https://en.wikipedia.org/wiki/Hydrogen_Prime",
	})
	if err := ValidateAll(dup); !errors.Is(err, ErrDuplicateElement) {
		t.Fatalf("err = %v, want ErrDuplicateElement", err)
	}
}

// WHAT: Verifies the empty dataset and out-of-range fields are rejected.
func TestValidateBounds(t *testing.T) {
	if err := ValidateAll(nil); !errors.Is(err, ErrEmptyDataset) {
		t.Fatalf("empty dataset err = %v, want ErrEmptyDataset", err)
	}

	tests := []struct {
		name string
		e    Element
	}{
		{"number zero", Element{AtomicNumber: 0, Symbol: "X", Name: "X", Period: 1}},
		{"number beyond table", Element{AtomicNumber: 119, Symbol: "X", Name: "X", Period: 7}},
		{"empty symbol", Element{AtomicNumber: 5, Name: "Boron", Period: 2}},
		{"period out of range", Element{AtomicNumber: 5, Symbol: "B", Name: "Boron", Period: 8}},
		{"group out of range", Element{AtomicNumber: 5, Symbol: "B", Name: "Boron", Period: 2, Group: group(19)}},
		{"bad block", Element{AtomicNumber: 5, Symbol: "B", Name: "Boron", Period: 2, Block: "g"}},
	}
	for _, tt := range tests {
		if err := tt.e.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tt.name)
		}
	}
}

// WHAT: Verifies the dataset artifact round-trips byte-identically
// (save, load, save again, compare files).
// WHY: Downstream stages hash artifacts for provenance; the codec must not
// introduce drift.
func TestDatasetRoundTrip(t *testing.T) {
	dir := t.TempDir()
	p1 := filepath.Join(dir, "elements1.json")
	p2 := filepath.Join(dir, "elements2.json")

	if err := SaveDataset(p1, sample()); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := LoadDataset(p1)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := SaveDataset(p2, loaded); err != nil {
		t.Fatalf("save again: %v", err)
	}

	d1, _ := os.ReadFile(p1)
	d2, _ := os.ReadFile(p2)
	if string(d1) != string(d2) {
		t.Errorf("round trip not byte-identical:\n%s\n---\n%s", d1, d2)
	}
}

// WHAT: Verifies LoadDataset rejects a file that decodes but violates
// invariants.
func TestLoadDatasetValidates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	bad := `[{"atomic_number":6,"symbol":"C","name":"Carbon","period":2,"category":"nonmetal","wiki_url":"u"},
	{"atomic_number":6,"symbol":"C2","name":"Carbon Again","period":2,"category":"nonmetal","wiki_url":"u"}]`
	if err := os.WriteFile(path, []byte(bad), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadDataset(path); !errors.Is(err, ErrDuplicateElement) {
		t.Fatalf("err = %v, want ErrDuplicateElement", err)
	}
}

// WHAT: Verifies ordering helpers and the wiki title form.
func TestSortAndTitle(t *testing.T) {
	list := sample()
	SortBySymbol(list)
	if list[0].Symbol != "Ce" || list[1].Symbol != "H" || list[2].Symbol != "He" {
		t.Errorf("SortBySymbol order = %s %s %s", list[0].Symbol, list[1].Symbol, list[2].Symbol)
	}
	SortByNumber(list)
	if list[0].AtomicNumber != 1 || list[2].AtomicNumber != 58 {
		t.Errorf("SortByNumber order = %d %d %d",
			list[0].AtomicNumber, list[1].AtomicNumber, list[2].AtomicNumber)
	}

	e := Element{Name: "Molybdenum disulfide"}
	if got := e.WikiTitle(); got != "Molybdenum_disulfide" {
		t.Errorf("WikiTitle = %q", got)
	}
}

// WHAT: Verifies Meta round-trips and FetchedAt parses the recorded time.
func TestMetaRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meta.json")
	m := Meta{
		FetchedAtUTC: "2026-03-01T10:20:30Z",
		Language:     "en",
		Page:         "List of chemical elements",
		API:          "rest",
		SourceURL:    "https://en.wikipedia.org/api/rest_v1/page/html/List_of_chemical_elements",
		RawFile:      "data/raw/list-of-chemical-elements-en-rest.json",
	}
	if err := SaveMeta(path, m); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := LoadMeta(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != m {
		t.Errorf("meta round trip = %+v, want %+v", got, m)
	}
	ts, err := got.FetchedAt()
	if err != nil {
		t.Fatalf("FetchedAt: %v", err)
	}
	if ts.Year() != 2026 || ts.Month() != 3 {
		t.Errorf("FetchedAt = %v", ts)
	}
}
