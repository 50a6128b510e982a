package convert

import (
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"repgen/config"
	"repgen/content"
)

const (
	outputExt         = ".pdf"
	defaultOutputName = "laudo_lindeiros"
)

// FileName returns name of the output document. It uses either default
// naming scheme based on report title or user-defined template which may
// produce subdirectories. Result is slash separated and always relative.
func FileName(c *content.Content, cfg *config.DocumentConfig, log *zap.Logger) string {
	if len(cfg.OutputNameTemplate) > 0 {
		expanded, err := expandTemplate(c, config.OutputNameTemplateFieldName, cfg.OutputNameTemplate)
		if err != nil {
			log.Warn("Unable to prepare output filename", zap.Error(err))
		} else if name := assembleName(expanded, cfg.FileNameTransliterate); len(name) > 0 {
			return name
		}
		// fallback to default name
	}
	return defaultFileName(c.Report.Title, cfg.FileNameTransliterate) + outputExt
}

// defaultFileName keeps only ASCII letters, digits and spaces of the title,
// runs of spaces become single underscore.
func defaultFileName(title string, transliterate bool) string {
	if transliterate {
		title = strings.ReplaceAll(slug.Make(title), "-", " ")
	}
	var b strings.Builder
	for _, r := range title {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == ' ':
			b.WriteRune(r)
		}
	}
	name := strings.Join(strings.Fields(b.String()), "_")
	if len(name) == 0 {
		return defaultOutputName
	}
	return name
}

// assembleName takes an expanded template name (which may contain path
// separators for subdirectories), cleans and transliterates segments as
// needed.
func assembleName(expanded string, transliterate bool) string {
	segments := splitPath(filepath.FromSlash(strings.TrimSpace(expanded)))
	if len(segments) == 0 {
		return ""
	}
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		parts = append(parts, cleanPathSegment(s, transliterate))
	}
	parts[len(parts)-1] = strings.TrimSuffix(parts[len(parts)-1], outputExt) + outputExt
	return path.Join(parts...)
}

func splitPath(p string) []string {
	p = strings.TrimSuffix(p, string(os.PathSeparator))
	segments := make([]string, 0, 8)

	for head, tail := filepath.Split(p); ; head, tail = filepath.Split(head) {
		if tail != "" {
			segments = slices.Insert(segments, 0, tail)
		}
		head = strings.TrimSuffix(head, string(os.PathSeparator))
		if head == "" {
			break
		}
	}
	return segments
}

func cleanPathSegment(segment string, transliterate bool) string {
	if transliterate {
		ext := ""
		if strings.HasSuffix(segment, outputExt) {
			segment, ext = strings.TrimSuffix(segment, outputExt), outputExt
		}
		segment = slug.Make(segment) + ext
	}
	return config.CleanFileName(segment)
}
