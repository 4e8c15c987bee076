package workspace

import (
	"golang.org/x/text/language"
)

// DefaultLang is used when nothing better matches.
const DefaultLang = "en"

var (
	supported = []language.Tag{language.English, language.German, language.Spanish}
	matcher   = language.NewMatcher(supported)
)

// MatchLang maps language preferences, either plain tags ("de-AT") or an
// Accept-Language header, to en, de or es.
func MatchLang(prefs ...string) string {
	var tags []language.Tag
	for _, p := range prefs {
		parsed, _, err := language.ParseAcceptLanguage(p)
		if err != nil {
			continue
		}
		tags = append(tags, parsed...)
	}
	if len(tags) == 0 {
		return DefaultLang
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return DefaultLang
	}
	base, _ := supported[idx].Base()
	return base.String()
}
