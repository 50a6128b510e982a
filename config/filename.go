package config

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	badFileName = "_bad_file_name_"
	// most file systems limit a single path element to 255 bytes
	maxFileNameBytes = 240
)

// CleanFileName makes single path element safe for the current platform:
// forbidden and control characters are dropped, leading dots and surrounding
// spaces are trimmed and overly long names are cut keeping the extension.
func CleanFileName(in string) string {
	out := strings.Map(func(sym rune) rune {
		if unicode.IsControl(sym) || strings.ContainsRune(forbiddenNameChars, sym) {
			return -1
		}
		return sym
	}, in)
	out = strings.TrimLeft(strings.TrimSpace(out), ".")
	out = strings.TrimRight(out, trailingNameChars)
	if len(out) == 0 {
		return badFileName
	}
	return limitName(out, maxFileNameBytes)
}

// limitName cuts name on rune boundary, short extension survives the cut.
func limitName(name string, limit int) string {
	if len(name) <= limit {
		return name
	}
	ext := ""
	if i := strings.LastIndexByte(name, '.'); i > 0 && len(name)-i <= 8 {
		name, ext = name[:i], name[i:]
	}
	cut := limit - len(ext)
	for cut > 0 && !utf8.RuneStart(name[cut]) {
		cut--
	}
	return strings.TrimSpace(name[:cut]) + ext
}
