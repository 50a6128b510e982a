package css

import (
	"unicode"
)

// Value represents a parsed CSS property value.
type Value struct {
	Raw     string  // Original CSS value string (e.g., "1.2em", "bold", "#ff0000")
	Value   float64 // Numeric value if applicable
	Unit    string  // Unit if applicable: "em", "px", "%", "pt", etc.
	Keyword string  // Keyword if applicable: "bold", "italic", "center", etc.
}

// IsNumeric returns true if the value has a numeric component.
// This includes explicit zero values like "0" or "0px".
func (v Value) IsNumeric() bool {
	if v.Unit != "" {
		return true
	}
	if v.Value != 0 && v.Keyword == "" {
		return true
	}
	if v.Raw != "" && v.Keyword == "" {
		firstChar := rune(v.Raw[0])
		if unicode.IsDigit(firstChar) || firstChar == '.' || firstChar == '-' || firstChar == '+' {
			return true
		}
	}
	return false
}

// IsKeyword returns true if the value is a keyword (no numeric component).
func (v Value) IsKeyword() bool {
	return v.Keyword != "" && v.Unit == ""
}

// Declarations are properties of a single inline style attribute. Later
// declarations of the same property win, as in browsers.
type Declarations map[string]Value

// Keyword returns lower case keyword of the property or empty string.
func (d Declarations) Keyword(property string) string {
	if v, ok := d[property]; ok {
		return v.Keyword
	}
	return ""
}

// TextAlign returns one of "left", "center", "right", "justify" or empty
// string when alignment is not set or not supported ("start", "end" are
// mapped to left and right).
func (d Declarations) TextAlign() string {
	switch k := d.Keyword("text-align"); k {
	case "left", "center", "right", "justify":
		return k
	case "start":
		return "left"
	case "end":
		return "right"
	}
	return ""
}

// Bold reports whether font-weight asks for bold face (keywords or numeric
// weight of 600 and more).
func (d Declarations) Bold() bool {
	v, ok := d["font-weight"]
	if !ok {
		return false
	}
	switch v.Keyword {
	case "bold", "bolder":
		return true
	}
	return v.IsNumeric() && v.Value >= 600
}

func (d Declarations) Italic() bool {
	switch d.Keyword("font-style") {
	case "italic", "oblique":
		return true
	}
	return false
}

// Underline checks both text-decoration and text-decoration-line.
func (d Declarations) Underline() bool {
	for _, p := range []string{"text-decoration", "text-decoration-line"} {
		if v, ok := d[p]; ok && containsWord(v.Raw, "underline") {
			return true
		}
	}
	return false
}

func containsWord(s, word string) bool {
	start := -1
	for i, r := range s + " " {
		if unicode.IsLetter(r) || r == '-' {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 && s[start:i] == word {
			return true
		}
		start = -1
	}
	return false
}
