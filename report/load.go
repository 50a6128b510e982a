package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	yaml "gopkg.in/yaml.v3"
)

// Load reads report from YAML or JSON file, format is selected by extension.
func Load(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read report: %w", err)
	}
	return Decode(data, path)
}

// Decode parses report data. Name is only used to select format: ".json"
// means JSON, everything else is treated as YAML. Unknown fields are errors
// in both cases.
func Decode(data []byte, name string) (*Report, error) {
	r := &Report{}
	if strings.EqualFold(filepath.Ext(name), ".json") {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(r); err != nil {
			return nil, fmt.Errorf("failed to decode report %s: %w", name, err)
		}
	} else {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(r); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to decode report %s: %w", name, err)
		}
	}
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("invalid report %s: %w", name, err)
	}
	return r, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks structural constraints of the report.
func (r *Report) Validate() error {
	return validate.Struct(r)
}

// Encode writes report as YAML, used to store normalized input in debug
// report.
func (r *Report) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return err
	}
	return enc.Close()
}
