// Package anchor records on which pages logical groups of the document
// (sections, neighbours, rooms) begin and end.
package anchor

import (
	"fmt"

	"go.uber.org/zap"
)

// Event is emitted by layout for every placed block and every group entered
// at that moment.
type Event struct {
	Group string
	Page  int
}

// Anchor is page range of a group. StartPage is 0 when nothing was placed
// inside the group.
type Anchor struct {
	ID        string
	Label     string
	StartPage int
	EndPage   int
	Children  []*Anchor
}

// Observed reports whether any content was placed in the group.
func (a *Anchor) Observed() bool {
	return a.StartPage > 0
}

// Tracker keeps anchors in the order they were opened.
type Tracker struct {
	log   *zap.Logger
	roots []*Anchor
	index map[string]*Anchor
}

func NewTracker(log *zap.Logger) *Tracker {
	return &Tracker{
		log:   log.Named("anchors"),
		index: make(map[string]*Anchor),
	}
}

// Open registers group id under parent (empty for top level). Parent must be
// opened before its children.
func (t *Tracker) Open(id, label, parent string) error {
	if _, exists := t.index[id]; exists {
		return fmt.Errorf("anchor %q opened twice", id)
	}
	a := &Anchor{ID: id, Label: label}
	if len(parent) == 0 {
		t.roots = append(t.roots, a)
	} else {
		p, ok := t.index[parent]
		if !ok {
			return fmt.Errorf("anchor %q has unknown parent %q", id, parent)
		}
		p.Children = append(p.Children, a)
	}
	t.index[id] = a
	return nil
}

// Observe extends page range of the group, events for unknown groups are
// ignored.
func (t *Tracker) Observe(ev Event) {
	a, ok := t.index[ev.Group]
	if !ok {
		t.log.Debug("Placement in unknown group", zap.String("group", ev.Group), zap.Int("page", ev.Page))
		return
	}
	if a.StartPage == 0 || ev.Page < a.StartPage {
		a.StartPage = ev.Page
	}
	a.EndPage = max(a.EndPage, ev.Page)
}

// Get returns anchor by id.
func (t *Tracker) Get(id string) (*Anchor, bool) {
	a, ok := t.index[id]
	return a, ok
}

// Tree returns top level anchors with children nested as opened.
func (t *Tracker) Tree() []*Anchor {
	return t.roots
}

// Walk visits anchors depth first in document order.
func Walk(anchors []*Anchor, fn func(a *Anchor, depth int) bool) {
	var walk func([]*Anchor, int) bool
	walk = func(list []*Anchor, depth int) bool {
		for _, a := range list {
			if !fn(a, depth) {
				return false
			}
			if !walk(a.Children, depth+1) {
				return false
			}
		}
		return true
	}
	walk(anchors, 0)
}

// Validate checks range invariants: start never after end and starts of
// observed anchors non decreasing in document order.
func Validate(anchors []*Anchor) error {
	var (
		err  error
		prev *Anchor
	)
	Walk(anchors, func(a *Anchor, _ int) bool {
		if !a.Observed() {
			return true
		}
		if a.StartPage > a.EndPage {
			err = fmt.Errorf("anchor %q starts on page %d after it ends on page %d", a.ID, a.StartPage, a.EndPage)
			return false
		}
		if prev != nil && a.StartPage < prev.StartPage {
			err = fmt.Errorf("anchor %q starts on page %d before preceding anchor %q (page %d)", a.ID, a.StartPage, prev.ID, prev.StartPage)
			return false
		}
		prev = a
		return true
	})
	return err
}
