package delegation

import (
	"regexp"
	"strings"
)

// languageRule matches either a script range or a keyword list. Rules are
// tried in order; script matches outrank keyword matches, and English is the
// default when nothing matches.
type languageRule struct {
	code     string
	script   *regexp.Regexp
	keywords []string
}

var languageRules = []languageRule{
	{code: "he", script: regexp.MustCompile(`\p{Hebrew}`)},
	{code: "ar", script: regexp.MustCompile(`\p{Arabic}`)},
	{code: "ru", script: regexp.MustCompile(`\p{Cyrillic}`)},
	{code: "ja", script: regexp.MustCompile(`[\p{Hiragana}\p{Katakana}]`)},
	{code: "zh", script: regexp.MustCompile(`\p{Han}`)},
	{code: "ko", script: regexp.MustCompile(`\p{Hangul}`)},
	{code: "el", script: regexp.MustCompile(`\p{Greek}`)},
	{code: "th", script: regexp.MustCompile(`\p{Thai}`)},
	{code: "hi", script: regexp.MustCompile(`\p{Devanagari}`)},
	{code: "es", keywords: []string{"hola", "gracias", "por favor", "reunión", "mañana", "¿"}},
	{code: "fr", keywords: []string{"bonjour", "merci", "s'il vous", "réunion", "demain"}},
	{code: "de", keywords: []string{"hallo", "danke", "bitte", "termin", "morgen früh"}},
	{code: "pt", keywords: []string{"olá", "obrigado", "obrigada", "reunião", "amanhã"}},
	{code: "it", keywords: []string{"ciao", "grazie", "per favore", "riunione", "domani"}},
}

const defaultLanguage = "en"

// DetectLanguage guesses the language of a user message for cosmetic copy
// selection. It is intentionally cheap; a wrong guess only affects the
// closing remark, never correctness.
func DetectLanguage(text string) string {
	if text == "" {
		return defaultLanguage
	}
	lower := strings.ToLower(text)
	for _, rule := range languageRules {
		if rule.script != nil {
			if rule.script.MatchString(text) {
				return rule.code
			}
			continue
		}
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.code
			}
		}
	}
	return defaultLanguage
}
