// Package l10n holds the localized string tables for the generated book,
// cover and attribution page. Languages override only the keys they need;
// lookups merge the selected language over the English base so every key
// is always present.
package l10n

import (
	"fmt"
	"strings"
)

// DefaultLanguage is the base table every other language is merged over.
const DefaultLanguage = "en"

// Supported lists the languages with their own table, base first.
var Supported = []string{"en", "ja"}

var tables = map[string]map[string]string{
	"en": {
		"cover_page_title":             "Cover",
		"cover_nav_label":              "Cover",
		"cover_image_alt":              "Periodic Table cover",
		"cover_arc_title":              "PERIODIC TABLE",
		"cover_arc_subtitle":           "Reference Edition for Kindle",
		"book_title":                   "Periodic Table for Kindle",
		"book_author":                  "Wikipedia contributors",
		"toc_heading":                  "Contents",
		"quick_table_title":            "Quick Reference Table",
		"quick_table_note":             "Tap an element cell for its symbol and number. Use the index for alphabetical lookup.",
		"index_title":                  "Element Index",
		"blocks_title":                 "Elements by Block",
		"blocks_other_label":           "Other",
		"block_section_label":          "%s-block",
		"legend_title":                 "How to Read the Table",
		"legend_grid_note":             "Columns are groups 1–18; rows are periods 1–7.",
		"legend_series_note":           "The lanthanide and actinide series appear as two separate rows below the main table.",
		"legend_block_note":            "Block letters (s, p, d, f) follow the source data.",
		"legend_categories_title":      "Categories",
		"period_row_label":             "Period %d",
		"lanthanides_label":            "Lanthanides",
		"actinides_label":              "Actinides",
		"element_profiles_title":       "Element Profiles",
		"element_profiles_intro":       "Concise summaries for each element sourced from Wikipedia.",
		"element_profiles_source_note": "Each entry links to the corresponding Wikipedia article under CC BY-SA 4.0.",
		"element_meta_atomic_number":   "Atomic number",
		"element_meta_symbol":          "Symbol",
		"element_meta_name_en":         "English name",
		"element_meta_standard_atomic_weight": "Standard atomic weight",
		"element_meta_group":           "Group",
		"element_meta_period":          "Period",
		"element_meta_block":           "Block",
		"element_meta_category":        "Category",
		"element_meta_phase_stp":       "Phase (STP)",
		"element_meta_origin":          "Origin",
		"summary_unavailable":          "Summary not available.",
		"sources_title":                "Sources & Licensing",
		"sources_intro": "All textual content originates from Wikipedia and is distributed under the terms of the " +
			"Creative Commons Attribution-ShareAlike 4.0 International License (CC BY-SA 4.0).",
		"sources_page_line":       "Generated from “%s” (%s API).",
		"sources_retrieved":       "Retrieved on %s.",
		"attribution_list_title":  "Article attribution",
		"source_link_label":       "Source",
	},
	"ja": {
		"cover_page_title":             "表紙",
		"cover_nav_label":              "表紙",
		"cover_image_alt":              "元素周期表の表紙",
		"cover_arc_title":              "元 素 周 期 表",
		"cover_arc_subtitle":           "Reference Edition for Kindle",
		"book_title":                   "元素周期表",
		"book_author":                  "ウィキペディア寄稿者",
		"toc_heading":                  "目次",
		"quick_table_title":            "クイックリファレンス表",
		"quick_table_note":             "セルには元素記号と原子番号を表示しています。記号順の検索には索引をご利用ください。",
		"index_title":                  "元素索引",
		"blocks_title":                 "ブロック別元素",
		"blocks_other_label":           "その他",
		"block_section_label":          "%sブロック",
		"legend_title":                 "周期表の読み方",
		"legend_grid_note":             "列は族（1〜18）、行は周期（1〜7）を表します。",
		"legend_series_note":           "ランタノイドとアクチノイドは本表の下に2行で示します。",
		"legend_block_note":            "ブロック記号（s, p, d, f）は出典データに従います。",
		"legend_categories_title":      "分類",
		"period_row_label":             "第%d周期",
		"lanthanides_label":            "ランタノイド",
		"actinides_label":              "アクチノイド",
		"element_profiles_title":       "元素の基本情報",
		"element_profiles_intro":       "各元素の簡潔な概要をWikipediaから収録しています。",
		"element_profiles_source_note": "各項目はCC BY-SA 4.0の条件で対応するWikipedia記事にリンクしています。",
		"element_meta_atomic_number":   "原子番号",
		"element_meta_symbol":          "元素記号",
		"element_meta_name_en":         "英語名",
		"element_meta_standard_atomic_weight": "標準原子量",
		"element_meta_group":           "族",
		"element_meta_period":          "周期",
		"element_meta_block":           "ブロック",
		"element_meta_category":        "分類",
		"element_meta_phase_stp":       "標準状態での相",
		"element_meta_origin":          "名称の由来",
		"summary_unavailable":          "概要は利用できません。",
		"sources_title":                "出典とライセンス",
		"sources_intro": "本文のテキストはすべてWikipediaに由来し、Creative Commons Attribution-ShareAlike 4.0 International " +
			"License (CC BY-SA 4.0) の条件で配布されています。",
		"sources_page_line":      "「%s」（%s API）から生成。",
		"sources_retrieved":      "取得日: %s。",
		"attribution_list_title": "記事ごとの出典",
		"source_link_label":      "出典",
	},
}

// Strings is a resolved, merged string table for one language.
type Strings struct {
	lang string
	m    map[string]string
}

// Lookup resolves the best table for a language tag: exact match, then the
// primary subtag ("ja-JP" selects "ja"), then the English base. Non-base
// tables are merged over the base so callers can rely on every key.
func Lookup(lang string) Strings {
	selected := selectLanguage(lang)

	m := make(map[string]string, len(tables[DefaultLanguage]))
	for k, v := range tables[DefaultLanguage] {
		m[k] = v
	}
	if selected != DefaultLanguage {
		for k, v := range tables[selected] {
			m[k] = v
		}
	}
	// Derived defaults: nav labels fall back to page titles, the book title
	// to the cover title.
	setDefault(m, "quick_table_nav_label", m["quick_table_title"])
	setDefault(m, "index_nav_label", m["index_title"])
	setDefault(m, "blocks_nav_label", m["blocks_title"])
	setDefault(m, "legend_nav_label", m["legend_title"])
	setDefault(m, "element_profiles_nav_label", m["element_profiles_title"])
	setDefault(m, "sources_nav_label", m["sources_title"])
	setDefault(m, "book_title", m["cover_arc_title"])
	setDefault(m, "book_subtitle", m["cover_arc_subtitle"])

	return Strings{lang: selected, m: m}
}

func selectLanguage(lang string) string {
	candidate := strings.ToLower(strings.TrimSpace(lang))
	if candidate == "" {
		return DefaultLanguage
	}
	if _, ok := tables[candidate]; ok {
		return candidate
	}
	if primary, _, found := strings.Cut(candidate, "-"); found {
		if _, ok := tables[primary]; ok {
			return primary
		}
	}
	return DefaultLanguage
}

func setDefault(m map[string]string, key, value string) {
	if _, ok := m[key]; !ok {
		m[key] = value
	}
}

// Lang returns the language the table resolved to.
func (s Strings) Lang() string { return s.lang }

// Get returns the string for key, or the key itself when unknown, so a
// missing entry shows up as a visible marker instead of empty output.
func (s Strings) Get(key string) string {
	if v, ok := s.m[key]; ok {
		return v
	}
	return key
}

// Format formats the string for key with fmt.Sprintf.
func (s Strings) Format(key string, args ...any) string {
	return fmt.Sprintf(s.Get(key), args...)
}

// Has reports whether key exists in the table.
func (s Strings) Has(key string) bool {
	_, ok := s.m[key]
	return ok
}
