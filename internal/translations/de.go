package translations

// GetGermanTranslations returns all German text strings
func GetGermanTranslations() Translations {
	return Translations{
		Help:           "Schick mir deinen Standort, um Spritpreise in deiner Nähe zu bekommen",
		NoOpenStations: "Keine geöffneten Tankstellen in deiner Nähe gefunden",
		PriceNA:        "k. A.",
		PlaceNotFound:  "Diesen Ort konnte ich nicht finden",

		Fallback:      "go away! 🦜",
		SetupComplete: "Setup complete:",
	}
}
