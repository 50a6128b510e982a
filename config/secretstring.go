package config

import "fmt"

// SecretStringValue replaces secret in every textual representation.
const SecretStringValue = "<secret>"

// SecretString holds credentials (image server tokens). It never shows up in
// dumped configuration, debug reports or log fields, use Reveal to get the
// value itself.
type SecretString string

// Reveal returns actual value.
func (s SecretString) Reveal() string {
	return string(s)
}

func (s SecretString) mask() string {
	if len(s) == 0 {
		return ""
	}
	return SecretStringValue
}

// String implements fmt.Stringer, so zap.Stringer and %v are masked too.
func (s SecretString) String() string {
	return s.mask()
}

// Format covers verbs which bypass String (%q, %x and friends).
func (s SecretString) Format(f fmt.State, verb rune) {
	switch verb {
	case 'q':
		fmt.Fprintf(f, "%q", s.mask())
	default:
		fmt.Fprint(f, s.mask())
	}
}

func (s SecretString) MarshalJSON() ([]byte, error) {
	if len(s) == 0 {
		return []byte("null"), nil
	}
	return []byte(`"` + SecretStringValue + `"`), nil
}

func (s SecretString) MarshalYAML() (any, error) {
	if len(s) == 0 {
		return nil, nil
	}
	return SecretStringValue, nil
}
