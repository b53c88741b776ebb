package translations

// GetEnglishTranslations returns all English text strings
func GetEnglishTranslations() Translations {
	return Translations{
		Help:           "Send me your location to get fuel prices near you",
		NoOpenStations: "No open fuel stations found near you",
		PriceNA:        "n/a",
		PlaceNotFound:  "I could not find that place",

		Fallback:      "go away! 🦜",
		SetupComplete: "Setup complete:",
	}
}
