package domain

import (
	"strings"
)

// TranslationDocument is the persisted unit, keyed by (Lang, Project).
type TranslationDocument struct {
	Lang         string            `json:"lang" bson:"lang" db:"lang" yaml:"lang"`
	Project      string            `json:"project" bson:"project" db:"project" yaml:"project"`
	Translations map[string]string `json:"translations" bson:"translations" db:"-" yaml:"translations"`
}

// StringEntry is one value of a StringFile. Message is nil when the field is absent.
type StringEntry struct {
	Message     *string `json:"message"`
	Description string  `json:"description,omitempty"`
}

// StringFile maps string identifiers to their entries.
type StringFile map[string]StringEntry

// NormalizeLanguage collapses folder names like "de_DE" to "de" when the region
// repeats the language; anything else, "pt_BR" included, is returned unchanged.
func NormalizeLanguage(folder string) string {
	if len(folder) < 2 {
		return folder
	}
	if folder[:2] == strings.ToLower(substr(folder, 3, 5)) {
		return folder[:2]
	}
	return folder
}

// ProjectID lower-cases a project folder name.
func ProjectID(folder string) string {
	return strings.ToLower(folder)
}

// SanitizeKey replaces every "." so the key is usable as a document field name.
func SanitizeKey(key string) string {
	return strings.ReplaceAll(key, ".", "_")
}

func substr(s string, start, end int) string {
	if start >= len(s) {
		return ""
	}
	if end > len(s) {
		end = len(s)
	}
	return s[start:end]
}
