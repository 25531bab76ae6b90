package normalize

import "strings"

// Field names of the target schema. Exported so callers can build custom
// rule sets without spelling the fields by hand.
const (
	FieldAtomicNumber = "atomic_number"
	FieldSymbol       = "symbol"
	FieldName         = "name"
	FieldGroup        = "group"
	FieldPeriod       = "period"
	FieldBlock        = "block"
	FieldWeight       = "standard_atomic_weight"
	FieldPhase        = "phase"
	FieldOrigin       = "origin"
)

// Rule maps source header spellings onto one target field. Synonyms are
// compared against cleaned, lowercased header text; when Prefix is set a
// synonym also matches headers that merely start with it, which absorbs
// unit suffixes like "standard atomic weight (da)".
type Rule struct {
	Field    string
	Synonyms []string
	Required bool
	Prefix   bool
}

// ColumnRules is the ordered mapping rule set applied to a table's header
// row. Order matters: the first rule to match a header wins.
type ColumnRules struct {
	rules []Rule
}

// NewColumnRules builds a rule set from explicit rules.
func NewColumnRules(rules []Rule) *ColumnRules {
	return &ColumnRules{rules: rules}
}

// DefaultRules covers the header spellings of the English and Japanese
// "list of chemical elements" tables.
func DefaultRules() *ColumnRules {
	return NewColumnRules([]Rule{
		{Field: FieldAtomicNumber, Required: true,
			Synonyms: []string{"z", "atomic number", "number", "no.", "原子番号"}},
		{Field: FieldSymbol, Required: true,
			Synonyms: []string{"sym.", "symbol", "元素記号", "記号"}},
		{Field: FieldName, Required: true,
			Synonyms: []string{"element", "name", "元素名", "名称"}},
		{Field: FieldGroup,
			Synonyms: []string{"group", "族"}},
		{Field: FieldPeriod, Required: true,
			Synonyms: []string{"period", "周期"}},
		{Field: FieldBlock,
			Synonyms: []string{"block", "ブロック"}},
		{Field: FieldWeight, Prefix: true,
			Synonyms: []string{"atomic weight", "standard atomic weight", "weight", "原子量"}},
		{Field: FieldPhase, Prefix: true,
			Synonyms: []string{"phase", "状態"}},
		// Exact only: the source table also carries an "Origin of name"
		// column that must not be mistaken for the occurrence column.
		{Field: FieldOrigin,
			Synonyms: []string{"origin", "起源"}},
	})
}

// match resolves one cleaned header to a target field.
func (r *ColumnRules) match(header string) (string, bool) {
	h := strings.ToLower(strings.TrimSpace(header))
	if h == "" {
		return "", false
	}
	for _, rule := range r.rules {
		for _, syn := range rule.Synonyms {
			if h == syn {
				return rule.Field, true
			}
		}
	}
	for _, rule := range r.rules {
		if !rule.Prefix {
			continue
		}
		for _, syn := range rule.Synonyms {
			if strings.HasPrefix(h, syn) {
				return rule.Field, true
			}
		}
	}
	return "", false
}

// requiredFields lists the fields marked Required, in rule order.
func (r *ColumnRules) requiredFields() []string {
	var out []string
	for _, rule := range r.rules {
		if rule.Required {
			out = append(out, rule.Field)
		}
	}
	return out
}

// columnMap is the resolved header→column assignment for one table.
type columnMap struct {
	byField        map[string]int // field → column index
	droppedHeaders []string       // headers no rule matched
	duplicates     []string       // headers losing to an earlier column
}

// mapColumns assigns each header column to a field. The first column to
// claim a field keeps it; later claimants are reported as duplicates.
func (r *ColumnRules) mapColumns(headers []string) columnMap {
	cm := columnMap{byField: make(map[string]int, len(headers))}
	for i, h := range headers {
		field, ok := r.match(h)
		if !ok {
			cm.droppedHeaders = append(cm.droppedHeaders, h)
			continue
		}
		if _, taken := cm.byField[field]; taken {
			cm.duplicates = append(cm.duplicates, h)
			continue
		}
		cm.byField[field] = i
	}
	return cm
}

// missingRequired names every required field without a mapped column.
func (r *ColumnRules) missingRequired(cm columnMap) []string {
	var missing []string
	for _, f := range r.requiredFields() {
		if _, ok := cm.byField[f]; !ok {
			missing = append(missing, f)
		}
	}
	return missing
}
