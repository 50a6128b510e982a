package convert

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"repgen/anchor"
	"repgen/config"
	"repgen/content"
	"repgen/layout"
	"repgen/markup"
	"repgen/report"
	"repgen/toc"
)

// Neighbour entry starts on a new page when less than this is left, so its
// banner is never stranded at the bottom.
const (
	neighborMinSpace = 48.0
	neighborGap      = 10.0
	roomGap          = 5.0
	textSize         = 9.0
	textLine         = 4.5
	textGap          = 4.0
)

type assembler struct {
	c       *content.Content
	cfg     *config.DocumentConfig
	flow    *layout.Flow
	tracker *anchor.Tracker
	log     *zap.Logger
}

// Assemble lays out the whole report in fixed order: cover, index, narrative
// sections, neighbours, site, appendices and conclusion. Index page is
// reserved up front and filled once page numbers of every section are known.
func Assemble(c *content.Content, cfg *config.DocumentConfig, m layout.Measurer, style layout.Style, log *zap.Logger) (*layout.Document, error) {
	box := layout.NewPageBox(&cfg.Page)
	tracker := anchor.NewTracker(log)
	a := &assembler{
		c:       c,
		cfg:     cfg,
		flow:    layout.New(box, m, c.Images, style, log, tracker),
		tracker: tracker,
		log:     log.Named("assemble"),
	}

	a.cover()
	index := a.flow.Reserve()

	steps := []struct {
		name string
		fn   func() error
	}{
		{"sections", a.sections},
		{"neighbors", a.neighbors},
		{"site", a.site},
		{"appendices", a.appendices},
		{"conclusion", a.conclusion},
	}
	for _, s := range steps {
		if err := s.fn(); err != nil {
			return nil, &AssemblyError{Op: s.name, Err: err}
		}
	}

	doc := a.flow.Document()
	doc.Anchors = tracker.Tree()

	page := toc.Build(doc.Anchors, len(doc.Pages), box, m, style,
		toc.Options{Title: cfg.Index.Title, Separator: cfg.Index.RangeSeparator}, log)
	if err := doc.Fill(index, page.Blocks); err != nil {
		return nil, &AssemblyError{Op: "index", Err: err}
	}

	doc.Finalize(c.Report.Title, c.Date)
	if err := doc.Check(); err != nil {
		return nil, &AssemblyError{Op: "check", Err: err}
	}

	if n := len(a.flow.Oversized()); n > 0 {
		a.log.Warn("Document has elements taller than a page", zap.Int("count", n))
	}
	a.log.Debug("Document assembled", zap.Int("pages", doc.Total), zap.Int("index", index))
	return doc, nil
}

// group registers anchor and makes everything fn places part of it.
func (a *assembler) group(id, label, parent string, fn func() error) error {
	if err := a.tracker.Open(id, label, parent); err != nil {
		return err
	}
	a.flow.Enter(id)
	defer a.flow.Leave()
	return fn()
}

func (a *assembler) cover() {
	rc := &a.c.Report.Cover
	cc := a.cfg.Cover

	var volume string
	if rc.Volume > 0 {
		volume = fmt.Sprintf("%s %d de %d", cc.VolumeLabel, rc.Volume, max(rc.Volumes, rc.Volume))
	}
	a.flow.Cover(layout.CoverContent{
		Brand:       a.cfg.Brand.Name,
		Services:    a.cfg.Brand.Services,
		PhotoRef:    rc.Photo,
		Placeholder: cc.PhotoPlaceholder,
		TitleLines:  cc.TitleLines,
		Volume:      volume,
		Fields: []layout.Field{
			{Label: cc.ProjectLabel, Value: rc.Project},
			{Label: cc.SiteLabel, Value: rc.SiteAddress},
			{Label: cc.RequesterLabel, Value: rc.Requester},
			{Label: cc.TaxIDLabel, Value: rc.TaxID},
		},
		Notice: cc.Notice,
	})
}

// sectionLabel gives configured title for narrative section, unknown keys
// are shown as is.
func (a *assembler) sectionLabel(key string) string {
	s := &a.cfg.Sections
	labels := []string{s.Introduction, s.Object, s.Objective, s.Purpose, s.Responsibilities, s.Classification}
	if i := slices.Index(content.SectionKeys, key); i >= 0 && i < len(labels) {
		return labels[i]
	}
	return key
}

// sections places narrative texts, each on a page of its own even when
// there is no text.
func (a *assembler) sections() error {
	for _, s := range a.c.Sections {
		label := a.sectionLabel(s.Key)
		err := a.group(s.Key, label, "", func() error {
			a.flow.NewPage(layout.PageContent)
			a.flow.SectionTitle(label)
			a.flow.Nodes(s.Nodes)
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (a *assembler) neighbors() error {
	list := a.c.Report.Neighbors
	if len(list) == 0 {
		return nil
	}
	nc := &a.cfg.Neighbors
	return a.group("neighbors", a.cfg.Sections.Neighbors, "", func() error {
		a.flow.NewPage(layout.PageContent)
		a.flow.SectionTitle(nc.Heading)

		for i := range list {
			n := &list[i]
			id := "neighbors/" + strconv.Itoa(i+1)
			address := strings.TrimSpace(n.Address)
			if len(address) == 0 {
				address = nc.NoAddress
			}
			err := a.group(id, fmt.Sprintf("%s %d: %s", nc.Entry, i+1, address), "neighbors", func() error {
				return a.neighbor(id, i+1, n)
			})
			if err != nil {
				return err
			}
			a.flow.Gap(neighborGap)
		}
		return nil
	})
}

func (a *assembler) neighbor(id string, number int, n *report.Neighbor) error {
	nc := &a.cfg.Neighbors
	if a.flow.Remaining() < neighborMinSpace {
		a.flow.NewPage(layout.PageContent)
	}

	banner := fmt.Sprintf("%s %d: %s", strings.ToUpper(nc.Entry), number, strings.ToUpper(n.Type))
	if len(n.Use) > 0 {
		banner += " – " + strings.ToUpper(n.Use)
	}
	a.flow.Banner(banner)
	a.flow.Fields([]layout.Field{
		{Label: nc.Fields.Address, Value: n.Address},
		{Label: nc.Fields.Owner, Value: n.Owner},
		{Label: nc.Fields.Phone, Value: n.Phone},
		{Label: nc.Fields.Date, Value: displayDate(n.InspectionDate, a.cfg.Footer.DateFormat)},
		{Label: nc.Fields.Condition, Value: n.Condition},
		{Label: nc.Fields.Companion, Value: n.Companion},
	})
	a.flow.Gap(3)
	a.flow.Text(n.Features, textSize, textLine, textGap)
	a.flow.Text(n.Description, textSize, textLine, textGap)

	for j := range n.Rooms {
		room := &n.Rooms[j]
		name := strings.TrimSpace(room.Name)
		if len(name) == 0 {
			name = nc.Room
		}
		photos := room.OrderedPhotos()
		items := make([]layout.Photo, 0, len(photos))
		for k, p := range photos {
			caption := p.Caption
			if len(caption) == 0 {
				caption = report.DefaultCaption(number, room.Name, k+1)
			}
			items = append(items, layout.Photo{Ref: p.Ref, Caption: caption})
		}
		err := a.group(fmt.Sprintf("%s/rooms/%d", id, j+1), name, id, func() error {
			a.flow.PhotoGroup(name, items, nc.NoPhotos)
			return nil
		})
		if err != nil {
			return err
		}
		a.flow.Gap(roomGap)
	}
	return nil
}

// site places construction site volume with photos grouped by category.
func (a *assembler) site() error {
	s := a.c.Report.Site
	if s.Empty() {
		return nil
	}
	sc := &a.cfg.Site
	return a.group("site", sc.Title, "", func() error {
		a.flow.NewPage(layout.PageContent)
		a.flow.SectionTitle(sc.Title)
		a.flow.Fields([]layout.Field{
			{Label: a.cfg.Neighbors.Fields.Address, Value: s.Address},
			{Label: a.cfg.Neighbors.Fields.Date, Value: displayDate(s.InspectionDate, a.cfg.Footer.DateFormat)},
		})
		a.flow.Gap(3)
		a.flow.Text(s.Features, textSize, textLine, textGap)

		for _, category := range report.SiteCategories {
			photos := s.PhotosOf(category)
			if len(photos) == 0 {
				continue
			}
			label := sc.Categories[category]
			if len(label) == 0 {
				label = category
			}
			items := make([]layout.Photo, 0, len(photos))
			for k, p := range photos {
				caption := p.Caption
				if len(caption) == 0 {
					caption = fmt.Sprintf("%s - Fig:%04d", label, k+1)
				}
				items = append(items, layout.Photo{Ref: p.Ref, Caption: caption})
			}
			err := a.group("site/"+category, label, "site", func() error {
				a.flow.PhotoGroup(label, items, "")
				return nil
			})
			if err != nil {
				return err
			}
			a.flow.Gap(roomGap)
		}
		return nil
	})
}

// appendices places every non empty appendix: title page, a page per image
// and rich text page.
func (a *assembler) appendices() error {
	s := &a.cfg.Sections
	labels := []string{s.Sketch, s.ART, s.Documents, s.Sheets}
	ids := []string{"sketch", "art", "documents", "sheets"}

	for i, ap := range a.c.Report.Appendices.All() {
		if ap.Empty() {
			continue
		}
		var text []markup.Node
		if i < len(a.c.Appendices) {
			text = a.c.Appendices[i]
		}
		err := a.group(ids[i], labels[i], "", func() error {
			a.flow.TitlePage(labels[i])
			for _, col := range ap.Collections {
				for _, img := range col.Images {
					a.flow.FullPageImage(col.Name, img.Ref, img.Caption)
				}
			}
			if len(text) > 0 {
				a.flow.NewPage(layout.PageContent)
				a.flow.SectionTitle(withoutNumeral(labels[i]))
				a.flow.Nodes(text)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (a *assembler) conclusion() error {
	if len(a.c.Conclusion) == 0 {
		return nil
	}
	label := a.cfg.Sections.Conclusion
	return a.group("conclusion", label, "", func() error {
		a.flow.NewPage(layout.PageContent)
		a.flow.SectionTitle(label)
		a.flow.Nodes(a.c.Conclusion)
		return nil
	})
}

// withoutNumeral drops leading roman numeral ("IX. ART" becomes "ART").
func withoutNumeral(label string) string {
	prefix, rest, ok := strings.Cut(label, ". ")
	if !ok || len(prefix) == 0 || strings.Trim(prefix, "IVXLCDM") != "" {
		return label
	}
	return rest
}

// displayDate reformats report date, unparsable values are shown as is.
func displayDate(value, format string) string {
	if len(value) == 0 {
		return ""
	}
	t, err := time.Parse(report.DateLayout, value)
	if err != nil {
		return value
	}
	return t.Format(format)
}
