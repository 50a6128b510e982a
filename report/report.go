// Package report defines input of the generator: a precautionary neighbour
// inspection report as it is stored by the editing side.
package report

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"
)

// DateLayout is the layout of all dates in the report.
const DateLayout = "2006-01-02"

type (
	Photo struct {
		Ref     string `yaml:"ref" json:"ref" validate:"required"`
		Caption string `yaml:"caption,omitempty" json:"caption,omitempty"`
		Order   int    `yaml:"order,omitempty" json:"order,omitempty"`
	}

	Room struct {
		Name   string  `yaml:"name" json:"name"`
		Photos []Photo `yaml:"photos,omitempty" json:"photos,omitempty" validate:"dive"`
	}

	Neighbor struct {
		Type           string `yaml:"type" json:"type"`
		Use            string `yaml:"use" json:"use"`
		Address        string `yaml:"address" json:"address"`
		Owner          string `yaml:"owner,omitempty" json:"owner,omitempty"`
		Phone          string `yaml:"phone,omitempty" json:"phone,omitempty"`
		InspectionDate string `yaml:"inspection_date,omitempty" json:"inspection_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
		Condition      string `yaml:"condition,omitempty" json:"condition,omitempty"`
		Companion      string `yaml:"companion,omitempty" json:"companion,omitempty"`
		Features       string `yaml:"features,omitempty" json:"features,omitempty"`
		Description    string `yaml:"description,omitempty" json:"description,omitempty"`
		Rooms          []Room `yaml:"rooms,omitempty" json:"rooms,omitempty" validate:"dive"`
	}

	SitePhoto struct {
		Ref      string `yaml:"ref" json:"ref" validate:"required"`
		Caption  string `yaml:"caption,omitempty" json:"caption,omitempty"`
		Order    int    `yaml:"order,omitempty" json:"order,omitempty"`
		Category string `yaml:"category" json:"category" validate:"oneof=canteiro entorno drone"`
	}

	// Site is the construction site volume: photos of the site itself, its
	// surroundings and aerial ones.
	Site struct {
		Address        string      `yaml:"address,omitempty" json:"address,omitempty"`
		InspectionDate string      `yaml:"inspection_date,omitempty" json:"inspection_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
		Features       string      `yaml:"features,omitempty" json:"features,omitempty"`
		Photos         []SitePhoto `yaml:"photos,omitempty" json:"photos,omitempty" validate:"dive"`
	}

	Image struct {
		Ref     string `yaml:"ref" json:"ref" validate:"required"`
		Caption string `yaml:"caption,omitempty" json:"caption,omitempty"`
	}

	Collection struct {
		Name   string  `yaml:"name,omitempty" json:"name,omitempty"`
		Images []Image `yaml:"images,omitempty" json:"images,omitempty" validate:"dive"`
	}

	// Appendix is a group of scanned or photographed documents with optional
	// rich text commentary.
	Appendix struct {
		Collections []Collection `yaml:"collections,omitempty" json:"collections,omitempty" validate:"dive"`
		Text        string       `yaml:"text,omitempty" json:"text,omitempty"`
	}

	Appendices struct {
		Sketch    Appendix `yaml:"sketch,omitempty" json:"sketch,omitempty"`
		ART       Appendix `yaml:"art,omitempty" json:"art,omitempty"`
		Documents Appendix `yaml:"documents,omitempty" json:"documents,omitempty"`
		Sheets    Appendix `yaml:"sheets,omitempty" json:"sheets,omitempty"`
	}

	Cover struct {
		Project     string `yaml:"project" json:"project"`
		SiteAddress string `yaml:"site_address" json:"site_address"`
		Requester   string `yaml:"requester" json:"requester"`
		TaxID       string `yaml:"tax_id,omitempty" json:"tax_id,omitempty"`
		Volume      int    `yaml:"volume,omitempty" json:"volume,omitempty" validate:"gte=0"`
		Volumes     int    `yaml:"volumes,omitempty" json:"volumes,omitempty" validate:"omitempty,gtefield=Volume"`
		Photo       string `yaml:"photo,omitempty" json:"photo,omitempty"`
	}

	// Texts are narrative sections, each is markup.
	Texts struct {
		Introduction     string `yaml:"introduction,omitempty" json:"introduction,omitempty"`
		Object           string `yaml:"object,omitempty" json:"object,omitempty"`
		Objective        string `yaml:"objective,omitempty" json:"objective,omitempty"`
		Purpose          string `yaml:"purpose,omitempty" json:"purpose,omitempty"`
		Responsibilities string `yaml:"responsibilities,omitempty" json:"responsibilities,omitempty"`
		Classification   string `yaml:"classification,omitempty" json:"classification,omitempty"`
	}

	Report struct {
		ID         string     `yaml:"id,omitempty" json:"id,omitempty"`
		Title      string     `yaml:"title" json:"title"`
		Date       string     `yaml:"date,omitempty" json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
		Cover      Cover      `yaml:"cover" json:"cover"`
		Texts      Texts      `yaml:"texts" json:"texts"`
		Neighbors  []Neighbor `yaml:"neighbors,omitempty" json:"neighbors,omitempty" validate:"dive"`
		Site       *Site      `yaml:"site,omitempty" json:"site,omitempty"`
		Appendices Appendices `yaml:"appendices,omitempty" json:"appendices,omitempty"`
		Conclusion string     `yaml:"conclusion,omitempty" json:"conclusion,omitempty"`
	}
)

// ParsedDate returns report date, zero time when none was recorded.
func (r *Report) ParsedDate() (time.Time, error) {
	if len(r.Date) == 0 {
		return time.Time{}, nil
	}
	t, err := time.Parse(DateLayout, r.Date)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad report date %q: %w", r.Date, err)
	}
	return t, nil
}

// Empty reports whether appendix has nothing to show.
func (a *Appendix) Empty() bool {
	return a.ImageCount() == 0 && len(strings.TrimSpace(a.Text)) == 0
}

func (a *Appendix) ImageCount() int {
	n := 0
	for _, c := range a.Collections {
		n += len(c.Images)
	}
	return n
}

// Empty reports whether site volume has anything to show.
func (s *Site) Empty() bool {
	return s == nil || (len(s.Photos) == 0 && len(s.Address) == 0 && len(s.Features) == 0)
}

// OrderedPhotos returns room photos sorted by their order, photos with the
// same order keep input sequence.
func (r *Room) OrderedPhotos() []Photo {
	out := slices.Clone(r.Photos)
	slices.SortStableFunc(out, func(a, b Photo) int {
		return cmp.Compare(a.Order, b.Order)
	})
	return out
}

// PhotosOf returns ordered site photos of a single category.
func (s *Site) PhotosOf(category string) []SitePhoto {
	var out []SitePhoto
	for _, p := range s.Photos {
		if p.Category == category {
			out = append(out, p)
		}
	}
	slices.SortStableFunc(out, func(a, b SitePhoto) int {
		return cmp.Compare(a.Order, b.Order)
	})
	return out
}

// SiteCategories lists site photo categories in presentation order.
var SiteCategories = []string{"canteiro", "entorno", "drone"}

// Refs lists every image reference used directly by the report (markup
// embedded images are not included) in document order, duplicates removed.
func (r *Report) Refs() []string {
	var (
		out  []string
		seen = make(map[string]struct{})
	)
	add := func(ref string) {
		if len(ref) == 0 {
			return
		}
		if _, ok := seen[ref]; ok {
			return
		}
		seen[ref] = struct{}{}
		out = append(out, ref)
	}

	add(r.Cover.Photo)
	for _, n := range r.Neighbors {
		for _, room := range n.Rooms {
			for _, p := range room.Photos {
				add(p.Ref)
			}
		}
	}
	if r.Site != nil {
		for _, p := range r.Site.Photos {
			add(p.Ref)
		}
	}
	for _, a := range r.Appendices.All() {
		for _, c := range a.Collections {
			for _, img := range c.Images {
				add(img.Ref)
			}
		}
	}
	return out
}

// All returns appendices in document order.
func (a *Appendices) All() []*Appendix {
	return []*Appendix{&a.Sketch, &a.ART, &a.Documents, &a.Sheets}
}

// DefaultCaption builds caption for uncaptioned room photo: neighbour number
// (1 based), room name and photo number (1 based) within the room.
func DefaultCaption(neighbor int, room string, photo int) string {
	if len(strings.TrimSpace(room)) == 0 {
		room = "Amb."
	}
	return fmt.Sprintf("L%d - %s - Fig:%04d", neighbor, room, photo)
}
