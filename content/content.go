// Package content prepares everything a single generation needs: report
// with every narrative text parsed into nodes and every image fetched and
// decoded. Content is built once per request and discarded afterwards.
package content

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"repgen/archive"
	"repgen/imgcache"
	"repgen/markup"
	"repgen/misc"
	"repgen/report"
	"repgen/state"
)

// Section is a narrative text parsed into nodes.
type Section struct {
	// Key names report field the text came from
	Key   string
	Nodes []markup.Node
}

// Content is report ready for layout. Images are read-only after Prepare
// returns.
type Content struct {
	SrcName string
	Report  *report.Report
	Date    time.Time

	// introduction, object, objective, purpose, responsibilities and
	// classification in this order
	Sections []Section
	// rich text of sketch, ART, documents and sheets appendices in this
	// order, nil when appendix has no text
	Appendices [][]markup.Node
	Conclusion []markup.Node

	Images *imgcache.Cache
}

// SectionKeys lists narrative sections in document order.
var SectionKeys = []string{"introduction", "object", "objective", "purpose", "responsibilities", "classification"}

func narrative(t *report.Texts) []string {
	return []string{t.Introduction, t.Object, t.Objective, t.Purpose, t.Responsibilities, t.Classification}
}

// Prepare parses report texts and resolves all images. Bundle may be nil,
// baseDir is used to resolve local relative image paths.
func Prepare(ctx context.Context, rpt *report.Report, srcName string, bundle *archive.Bundle, baseDir string, log *zap.Logger) (*Content, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	env := state.EnvFromContext(ctx)

	// Make sure report ID is not empty and is valid UUID
	if _, err := uuid.Parse(rpt.ID); err != nil {
		id, err := uuid.NewV7()
		if err != nil {
			return nil, fmt.Errorf("unable to generate new report UUID: %w", err)
		}
		if len(rpt.ID) > 0 {
			log.Warn("Report has invalid ID, correcting", zap.String("old_id", rpt.ID), zap.Stringer("new_id", id))
		} else {
			log.Debug("Report has no ID, assigning", zap.Stringer("id", id))
		}
		rpt.ID = id.String()
	}

	recorded, err := rpt.ParsedDate()
	if err != nil {
		return nil, err
	}

	parser := markup.NewParser(log)
	c := &Content{
		SrcName:    srcName,
		Report:     rpt,
		Date:       env.DocumentDate(recorded),
		Conclusion: parser.Parse(rpt.Conclusion),
	}
	for i, text := range narrative(&rpt.Texts) {
		c.Sections = append(c.Sections, Section{Key: SectionKeys[i], Nodes: parser.Parse(text)})
	}
	for _, a := range rpt.Appendices.All() {
		var nodes []markup.Node
		if len(strings.TrimSpace(a.Text)) > 0 {
			nodes = parser.Parse(a.Text)
		}
		c.Appendices = append(c.Appendices, nodes)
	}

	refs := c.Refs()
	log.Debug("Resolving images", zap.Int("refs", len(refs)))
	fetcher := imgcache.NewFetcher(&env.Cfg.Document.Images, bundle, baseDir)
	c.Images = imgcache.NewResolver(&env.Cfg.Document.Images, fetcher, log).Resolve(ctx, refs)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Save prepared content for debugging
	if env.Rpt != nil {
		env.Rpt.StoreData(fmt.Sprintf("%s-%s-content.txt", misc.GetAppName(), rpt.ID), []byte(c.String()))
	}
	return c, nil
}

// Refs lists every image reference of the report in document order
// including images embedded into narrative texts, duplicates removed.
func (c *Content) Refs() []string {
	refs := c.Report.Refs()
	seen := make(map[string]struct{}, len(refs))
	for _, r := range refs {
		seen[r] = struct{}{}
	}
	add := func(nodes []markup.Node) {
		for _, r := range markup.Refs(nodes) {
			if _, ok := seen[r]; !ok {
				seen[r] = struct{}{}
				refs = append(refs, r)
			}
		}
	}
	for _, s := range c.Sections {
		add(s.Nodes)
	}
	for _, a := range c.Appendices {
		add(a)
	}
	add(c.Conclusion)
	return refs
}
