package translations

import "strings"

// Translations contains all text strings sent by the bot
type Translations struct {
	// Webhook replies
	Help           string
	NoOpenStations string
	PriceNA        string
	PlaceNotFound  string

	// HTTP
	Fallback      string
	SetupComplete string
}

// GetTranslations returns translations for the specified language
func GetTranslations(lang string) Translations {
	switch lang {
	case "de", "german":
		return GetGermanTranslations()
	default:
		return GetEnglishTranslations()
	}
}

// LanguageFromCode maps an IETF language tag such as "de-AT" to a supported
// language, falling back to def.
func LanguageFromCode(code, def string) string {
	base, _, _ := strings.Cut(strings.ToLower(code), "-")
	switch base {
	case "de":
		return "de"
	case "en":
		return "en"
	default:
		return def
	}
}
