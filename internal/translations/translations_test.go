package translations

import "testing"

func TestLanguageFromCode(t *testing.T) {
	tests := []struct {
		code string
		def  string
		want string
	}{
		{"de", "en", "de"},
		{"de-AT", "en", "de"},
		{"EN-gb", "de", "en"},
		{"fr", "en", "en"},
		{"", "de", "de"},
	}

	for _, test := range tests {
		if got := LanguageFromCode(test.code, test.def); got != test.want {
			t.Errorf("LanguageFromCode(%q, %q) = %q, expected %q", test.code, test.def, got, test.want)
		}
	}
}

func TestGetTranslations(t *testing.T) {
	if GetTranslations("de").Help == GetTranslations("en").Help {
		t.Error("expected different help text for de and en")
	}
	if GetTranslations("xx").Help != GetEnglishTranslations().Help {
		t.Error("unknown languages should fall back to English")
	}
}
