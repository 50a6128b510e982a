package layout

// Style holds colors, sizes and fixed labels used by layout.
type Style struct {
	Primary   Color
	Text      Color
	Muted     Color
	Stripe    Color
	TitleBar  Color
	Rule      Color
	Missing   Color
	BodySize  float64
	SmallSize float64

	// text drawn inside placeholder of image which could not be resolved
	MissingImage string
	// appended to photo group title on continuation pages
	Continued string
}

func DefaultStyle() Style {
	return Style{
		Primary:      Color{31, 78, 121},
		Text:         Color{33, 33, 33},
		Muted:        Color{110, 110, 110},
		Stripe:       Color{240, 244, 248},
		TitleBar:     Color{245, 248, 252},
		Rule:         Color{180, 180, 180},
		Missing:      Color{200, 200, 200},
		BodySize:     10,
		SmallSize:    8,
		MissingImage: "Imagem indisponível",
		Continued:    " (continuação)",
	}
}
