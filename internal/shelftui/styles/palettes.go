package styles

// DefaultTheme is the baseline dark palette.
var DefaultTheme = Theme{
	Name:        "default",
	BorderStyle: "rounded",
	Base: BaseColors{
		Background: "234",
		Foreground: "252",
		Muted:      "245",
		Accent:     "75",
		Border:     "240",
	},
	Chrome: ChromeColors{
		Header:       "111",
		Footer:       "110",
		SelectedItem: "180",
		CurrentItem:  "75",
		Status:       "109",
	},
	Tiles: TileColors{
		Border:         "238",
		CurrentBorder:  "75",
		SelectedBorder: "180",
		Fallback:       "236",
		FallbackText:   "250",
	},
}

// HighContrastTheme favors legibility on low-quality terminals.
var HighContrastTheme = Theme{
	Name:        "high-contrast",
	BorderStyle: "sharp",
	Base: BaseColors{
		Background: "16",
		Foreground: "231",
		Muted:      "250",
		Accent:     "51",
		Border:     "231",
	},
	Chrome: ChromeColors{
		Header:       "117",
		Footer:       "159",
		SelectedItem: "226",
		CurrentItem:  "51",
		Status:       "195",
	},
	Tiles: TileColors{
		Border:         "250",
		CurrentBorder:  "51",
		SelectedBorder: "226",
		Fallback:       "16",
		FallbackText:   "231",
	},
}
