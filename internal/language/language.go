package language

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Auto is the configuration value that requests automatic language detection.
const Auto = "auto"

type entry struct {
	code2 string   // ISO 639-1 (2-letter)
	words []string // Full word forms (e.g. "english")
}

var wordForms = []entry{
	{"en", []string{"english"}},
	{"uk", []string{"ukrainian"}},
	{"es", []string{"spanish"}},
	{"fr", []string{"french"}},
	{"de", []string{"german"}},
	{"it", []string{"italian"}},
	{"pt", []string{"portuguese"}},
	{"ja", []string{"japanese"}},
	{"ko", []string{"korean"}},
	{"zh", []string{"chinese", "mandarin"}},
	{"ru", []string{"russian"}},
	{"pl", []string{"polish"}},
	{"nl", []string{"dutch"}},
}

var byWord map[string]string

func init() {
	byWord = make(map[string]string, len(wordForms))
	for _, e := range wordForms {
		for _, w := range e.words {
			byWord[w] = e.code2
		}
	}
}

// IsAuto reports whether the hint requests automatic detection.
func IsAuto(hint string) bool {
	trimmed := strings.ToLower(strings.TrimSpace(hint))
	return trimmed == "" || trimmed == Auto
}

// Normalize validates a configured hint and returns its canonical form:
// "auto" for automatic detection, otherwise a two-letter code.
func Normalize(hint string) (string, error) {
	if IsAuto(hint) {
		return Auto, nil
	}
	code := ToISO2(hint)
	if code == "" {
		return "", fmt.Errorf("unrecognized language %q (use an ISO 639 code or %q)", strings.TrimSpace(hint), Auto)
	}
	return code, nil
}

// TranscriberHint converts a configured hint into the value passed to the
// transcriber. Automatic detection maps to the empty string.
func TranscriberHint(hint string) string {
	if IsAuto(hint) {
		return ""
	}
	return ToISO2(hint)
}

// ToISO2 converts a language code, tag, or English word to ISO 639-1.
// Returns "" when the input cannot be resolved to a two-letter code.
func ToISO2(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return ""
	}
	if mapped, ok := byWord[code]; ok {
		return mapped
	}
	tag, err := language.Parse(code)
	if err != nil {
		return ""
	}
	base, confidence := tag.Base()
	if confidence == language.No {
		return ""
	}
	iso := base.String()
	if len(iso) != 2 {
		return ""
	}
	return iso
}

// DisplayName returns an English display name for a hint.
func DisplayName(hint string) string {
	if IsAuto(hint) {
		return "auto-detect"
	}
	code := ToISO2(hint)
	if code == "" {
		return strings.ToUpper(strings.TrimSpace(hint))
	}
	name := display.English.Languages().Name(language.Make(code))
	if name == "" {
		return strings.ToUpper(code)
	}
	return name
}
