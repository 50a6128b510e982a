package layout

import (
	"strings"

	"repgen/common"
)

// Field is a labelled value row.
type Field struct {
	Label string
	Value string
}

// Photo is one image of a photo group.
type Photo struct {
	Ref     string
	Caption string
}

// CoverContent is everything drawn on the cover page.
type CoverContent struct {
	Brand       string
	Services    []string
	PhotoRef    string
	Placeholder string
	TitleLines  []string
	Volume      string
	Fields      []Field
	Notice      string
}

// Geometry of composite elements, millimeters.
const (
	sectionTitleHeight = 10.0
	sectionTitleSize   = 14.0
	pageTitleSize      = 20.0
	pageTitleLine      = 10.0
	bannerHeight       = 9.0
	bannerGap          = 3.0
	bannerSize         = 11.0
	fieldSize          = 8.5
	fieldLine          = 5.0
	groupTitleHeight   = 9.0
	groupBarHeight     = 7.0
	groupTitleSize     = 9.0
	groupNoteHeight    = 10.0
	photoHeight        = 55.0
	photoCaption       = 6.0
	photoRowGap        = 4.0
	photoRowHeight     = photoHeight + photoCaption + photoRowGap
	photoGutter        = 6.0
	photoCaptionSize   = 8.0
	imageNameHeight    = 8.0
	imageNameSize      = 11.0
	imageCaptionHeight = 10.0
	imageCaptionSize   = 9.0
)

// SectionTitle draws section title with a rule under it.
func (f *Flow) SectionTitle(text string) {
	font := Font{Size: sectionTitleSize, Bold: true}
	f.ensure(sectionTitleHeight + lineHeight)
	f.placeAtomic(BlockTitle, sectionTitleHeight, func(top float64) []Item {
		left := f.box.ContentLeft()
		return []Item{
			&Text{X: left, Y: top + 6, Text: Fit(f.m, text, font, f.box.ContentWidth()), Font: font, Color: f.style.Primary},
			&Line{X1: left, Y1: top + 8, X2: f.box.ContentRight(), Y2: top + 8, Color: f.style.Primary, Width: 0.5},
		}
	})
}

// TitlePage starts a new page with lines centered in the content box. Page
// is considered full afterwards.
func (f *Flow) TitlePage(lines ...string) {
	f.NewPage(PageContent)
	font := Font{Size: pageTitleSize, Bold: true}
	cw := f.box.ContentWidth()

	var wrapped []line
	for _, l := range lines {
		wrapped = append(wrapped, wrapPlain(f.m, l, font, cw)...)
	}
	f.placeAtomic(BlockTitle, f.box.ContentHeight(), func(top float64) []Item {
		y := top + (f.box.ContentHeight()-pageTitleLine*float64(len(wrapped)))/2
		var items []Item
		for i, l := range wrapped {
			items = append(items, f.lineItems(l, f.box.ContentLeft()+(cw-l.width)/2, y+pageTitleLine*float64(i), pageTitleLine, f.style.Primary)...)
		}
		return items
	})
}

// Banner draws filled header bar of an entity, kept with at least one
// following row.
func (f *Flow) Banner(text string) {
	font := Font{Size: bannerSize, Bold: true}
	f.ensure(bannerHeight + bannerGap + fieldLine)
	f.placeAtomic(BlockBanner, bannerHeight+bannerGap, func(top float64) []Item {
		fill := f.style.Primary
		left := f.box.ContentLeft()
		return []Item{
			&Rect{X: left, Y: top, W: f.box.ContentWidth(), H: bannerHeight, Fill: &fill},
			&Text{X: left + 3, Y: Baseline(top, bannerHeight, font.Size), Text: Fit(f.m, text, font, f.box.ContentWidth()-6), Font: font, Color: Color{255, 255, 255}},
		}
	})
}

// Fields draws label: value rows, values wrap under themselves.
func (f *Flow) Fields(fields []Field) {
	labelFont := Font{Size: fieldSize, Bold: true}
	valueFont := Font{Size: fieldSize}
	left := f.box.ContentLeft()

	for _, fl := range fields {
		label := fl.Label + ": "
		lw := f.m.Width(label, labelFont)
		value := strings.TrimSpace(fl.Value)
		if len(value) == 0 {
			value = "-"
		}
		lines := wrapPlain(f.m, value, valueFont, f.box.ContentWidth()-lw)
		f.placeAtomic(BlockField, fieldLine*float64(len(lines)), func(top float64) []Item {
			items := []Item{&Text{X: left, Y: Baseline(top, fieldLine, labelFont.Size), Text: label, Font: labelFont, Color: f.style.Text}}
			for i, l := range lines {
				items = append(items, f.lineItems(l, left+lw, top+fieldLine*float64(i), fieldLine, f.style.Text)...)
			}
			return items
		})
	}
}

// Text places plain wrapped text, hard line breaks kept. Lines may be split
// across pages. after is space added below the text.
func (f *Flow) Text(text string, size, lh, after float64) {
	text = strings.TrimSpace(text)
	if len(text) == 0 {
		return
	}
	f.lines(wrapPlain(f.m, text, Font{Size: size}, f.box.ContentWidth()), common.TextAlignLeft, lh, f.style.Text)
	f.Gap(after)
}

func (f *Flow) groupTitle(title string) {
	font := Font{Size: groupTitleSize, Bold: true}
	f.placeAtomic(BlockTitle, groupTitleHeight, func(top float64) []Item {
		fill, mark := f.style.TitleBar, f.style.Primary
		left := f.box.ContentLeft()
		return []Item{
			&Rect{X: left, Y: top, W: f.box.ContentWidth(), H: groupBarHeight, Fill: &fill},
			&Rect{X: left + 2, Y: top + (groupBarHeight-2.5)/2, W: 2.5, H: 2.5, Fill: &mark},
			&Text{X: left + 6, Y: Baseline(top, groupBarHeight, font.Size), Text: Fit(f.m, title, font, f.box.ContentWidth()-8), Font: font, Color: f.style.Primary},
		}
	})
}

// PhotoGroup places titled group of photos two per row. Group starts on a
// new page unless its title and the first row fit, title is repeated on
// every continuation page.
func (f *Flow) PhotoGroup(title string, photos []Photo, empty string) {
	first := photoRowHeight
	if len(photos) == 0 {
		first = groupNoteHeight
	}
	f.ensure(groupTitleHeight + first)
	f.groupTitle(title)

	if len(photos) == 0 {
		font := Font{Size: groupTitleSize, Italic: true}
		f.placeAtomic(BlockNote, groupNoteHeight, func(top float64) []Item {
			return []Item{&Text{X: f.box.ContentLeft() + 2, Y: Baseline(top, groupNoteHeight, font.Size), Text: empty, Font: font, Color: f.style.Muted}}
		})
		return
	}

	cellW := (f.box.ContentWidth() - photoGutter) / 2
	for start := 0; start < len(photos); start += 2 {
		row := photos[start:min(start+2, len(photos))]
		if start > 0 && !f.fits(photoRowHeight) {
			f.NewPage(PageContent)
			f.groupTitle(title + f.style.Continued)
		}
		f.placeAtomic(BlockPhotoRow, photoRowHeight, func(top float64) []Item {
			var items []Item
			for i, p := range row {
				x := f.box.ContentLeft() + float64(i)*(cellW+photoGutter)
				pics, _ := f.picture(p.Ref, x, top, cellW, photoHeight, true)
				items = append(items, pics...)
				if len(p.Caption) > 0 {
					font := Font{Size: photoCaptionSize}
					caption := Fit(f.m, p.Caption, font, cellW)
					items = append(items, &Text{
						X:     x + (cellW-f.m.Width(caption, font))/2,
						Y:     Baseline(top+photoHeight, photoCaption, font.Size),
						Text:  caption,
						Font:  font,
						Color: f.style.Muted,
					})
				}
			}
			return items
		})
	}
}

// FullPageImage puts single image on its own page fitted into the content
// box, with optional name above and caption below.
func (f *Flow) FullPageImage(name, ref, caption string) {
	f.NewPage(PageContent)
	f.placeAtomic(BlockImage, f.box.ContentHeight(), func(top float64) []Item {
		var items []Item
		left, cw := f.box.ContentLeft(), f.box.ContentWidth()
		avail := f.box.ContentHeight()
		y := top
		if len(name) > 0 {
			font := Font{Size: imageNameSize, Bold: true}
			items = append(items, &Text{X: left, Y: Baseline(y, imageNameHeight, font.Size), Text: Fit(f.m, name, font, cw), Font: font, Color: f.style.Primary})
			y += imageNameHeight
			avail -= imageNameHeight
		}
		if len(caption) > 0 {
			avail -= imageCaptionHeight
		}
		pics, h := f.picture(ref, left, y, cw, avail, false)
		// horizontally centered, top aligned
		for _, it := range pics {
			if p, ok := it.(*Picture); ok {
				p.X = left + (cw-p.W)/2
			}
		}
		items = append(items, pics...)
		if len(caption) > 0 {
			font := Font{Size: imageCaptionSize}
			lines := wrapPlain(f.m, caption, font, cw)
			for i, l := range lines {
				lt := y + h + 2 + 4.5*float64(i)
				if lt+4.5 > top+f.box.ContentHeight()+epsilon {
					break
				}
				items = append(items, f.lineItems(l, left+(cw-l.width)/2, lt, 4.5, f.style.Muted)...)
			}
		}
		return items
	})
}

// Cover lays out the cover on a page of its own. Items are positioned
// relative to the whole page rather than the content box.
func (f *Flow) Cover(c CoverContent) {
	f.NewPage(PageCover)
	pw, ph := f.box.Width, f.box.Height
	scale := ph / 297
	at := func(mm float64) float64 { return mm * scale }
	left, cw := f.box.ContentLeft(), f.box.ContentWidth()

	centered := func(text string, font Font, y float64, color Color) *Text {
		text = Fit(f.m, text, font, cw)
		return &Text{X: (pw - f.m.Width(text, font)) / 2, Y: y, Text: text, Font: font, Color: color}
	}

	var items []Item
	items = append(items, centered(c.Brand, Font{Size: 26, Bold: true}, at(38), f.style.Primary))
	if len(c.Services) > 0 {
		items = append(items, centered(strings.Join(c.Services, " • "), Font{Size: 9}, at(46), f.style.Muted))
	}
	items = append(items, &Line{X1: left, Y1: at(52), X2: f.box.ContentRight(), Y2: at(52), Color: f.style.Primary, Width: 0.6})

	const photoW = 150.0
	photoX, photoY, photoH := (pw-photoW)/2, at(62), at(95)
	if len(c.PhotoRef) > 0 {
		pics, _ := f.picture(c.PhotoRef, photoX, photoY, photoW, photoH, true)
		items = append(items, pics...)
	} else {
		items = append(items, f.placeholder(photoX, photoY, photoW, photoH, c.Placeholder)...)
	}

	y := at(175)
	for _, l := range c.TitleLines {
		items = append(items, centered(l, Font{Size: 18, Bold: true}, y, f.style.Primary))
		y += 9
	}
	if len(c.Volume) > 0 {
		items = append(items, centered(c.Volume, Font{Size: 12}, y+3, f.style.Text))
		y += 10
	}

	y = max(y+6, at(212))
	labelFont, valueFont := Font{Size: 10, Bold: true}, Font{Size: 10}
	const labelW = 42.0
	for _, fl := range c.Fields {
		items = append(items,
			&Text{X: left, Y: y, Text: fl.Label, Font: labelFont, Color: f.style.Text},
			&Text{X: left + labelW, Y: y, Text: Fit(f.m, fl.Value, valueFont, cw-labelW), Font: valueFont, Color: f.style.Text},
		)
		y += 7
	}

	if len(c.Notice) > 0 {
		font := Font{Size: 8, Italic: true}
		lines := wrapPlain(f.m, c.Notice, font, cw)
		ny := ph - f.box.Bottom + 4 - 4*float64(len(lines))
		for i, l := range lines {
			items = append(items, f.lineItems(l, left+(cw-l.width)/2, ny+4*float64(i), 4, f.style.Muted)...)
		}
	}

	f.place(&Block{Kind: BlockCover, Y: f.box.ContentTop(), H: f.box.ContentHeight(), Items: items})
}

// Reserve adds empty index page and returns its number.
func (f *Flow) Reserve() int {
	return f.NewPage(PageIndex).Number
}
