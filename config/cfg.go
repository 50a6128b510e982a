package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"time"

	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"

	"repgen/common"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	TemplateFieldName string

	MarginsConfig struct {
		Top    float64 `yaml:"top" validate:"gte=0"`
		Right  float64 `yaml:"right" validate:"gte=0"`
		Bottom float64 `yaml:"bottom" validate:"gte=0"`
		Left   float64 `yaml:"left" validate:"gte=0"`
	}

	PageConfig struct {
		Size    common.PageSize `yaml:"size" validate:"gte=0"`
		Margins MarginsConfig   `yaml:"margins"`
	}

	BrandConfig struct {
		Name     string   `yaml:"name" validate:"required"`
		Services []string `yaml:"services" validate:"dive,required"`
	}

	CoverConfig struct {
		TitleLines       []string `yaml:"title_lines" validate:"min=1,dive,required"`
		VolumeLabel      string   `yaml:"volume_label" validate:"required"`
		PhotoPlaceholder string   `yaml:"photo_placeholder"`
		Notice           string   `yaml:"notice"`
		ProjectLabel     string   `yaml:"project_label"`
		SiteLabel        string   `yaml:"site_label"`
		RequesterLabel   string   `yaml:"requester_label"`
		TaxIDLabel       string   `yaml:"tax_id_label"`
	}

	SectionsConfig struct {
		Introduction     string `yaml:"introduction" validate:"required"`
		Object           string `yaml:"object" validate:"required"`
		Objective        string `yaml:"objective" validate:"required"`
		Purpose          string `yaml:"purpose" validate:"required"`
		Responsibilities string `yaml:"responsibilities" validate:"required"`
		Classification   string `yaml:"classification" validate:"required"`
		Neighbors        string `yaml:"neighbors" validate:"required"`
		Sketch           string `yaml:"sketch" validate:"required"`
		ART              string `yaml:"art" validate:"required"`
		Documents        string `yaml:"documents" validate:"required"`
		Sheets           string `yaml:"sheets" validate:"required"`
		Conclusion       string `yaml:"conclusion" validate:"required"`
	}

	FieldLabelsConfig struct {
		Address   string `yaml:"address"`
		Owner     string `yaml:"owner"`
		Phone     string `yaml:"phone"`
		Date      string `yaml:"date"`
		Condition string `yaml:"condition"`
		Companion string `yaml:"companion"`
	}

	NeighborsConfig struct {
		Heading   string            `yaml:"heading" validate:"required"`
		Entry     string            `yaml:"entry" validate:"required"`
		NoAddress string            `yaml:"no_address"`
		Room      string            `yaml:"room"`
		NoPhotos  string            `yaml:"no_photos"`
		Fields    FieldLabelsConfig `yaml:"fields"`
	}

	SiteConfig struct {
		Title      string            `yaml:"title" validate:"required"`
		Categories map[string]string `yaml:"categories"`
	}

	IndexConfig struct {
		Title          string `yaml:"title" validate:"required"`
		RangeSeparator string `yaml:"range_separator" validate:"required"`
	}

	FooterConfig struct {
		DateLabel    string `yaml:"date_label"`
		DateFormat   string `yaml:"date_format" validate:"required"`
		PageTemplate string `yaml:"page_template" validate:"required"`
	}

	ImagesConfig struct {
		Concurrency  int                    `yaml:"concurrency" validate:"min=1,max=64"`
		Timeout      time.Duration          `yaml:"timeout" validate:"gt=0"`
		MaxDimension int                    `yaml:"max_dimension" validate:"min=256"`
		Resize       common.ImageResizeMode `yaml:"resize" validate:"gte=0"`
		JPEGQuality  int                    `yaml:"jpeq_quality_level" validate:"min=40,max=100"`
		Optimize     bool                   `yaml:"optimize"`
		UserAgent    string                 `yaml:"user_agent"`
		AuthToken    SecretString           `yaml:"auth_token,omitempty"`
	}

	DocumentConfig struct {
		OutputNameTemplate    string          `yaml:"output_name_template"`
		FileNameTransliterate bool            `yaml:"file_name_transliterate"`
		Page                  PageConfig      `yaml:"page"`
		Brand                 BrandConfig     `yaml:"brand"`
		Cover                 CoverConfig     `yaml:"cover"`
		Sections              SectionsConfig  `yaml:"sections"`
		Neighbors             NeighborsConfig `yaml:"neighbors"`
		Site                  SiteConfig      `yaml:"site"`
		Index                 IndexConfig     `yaml:"index"`
		Footer                FooterConfig    `yaml:"footer"`
		Images                ImagesConfig    `yaml:"images"`
	}

	Config struct {
		Version   int            `yaml:"version" validate:"eq=1"`
		Document  DocumentConfig `yaml:"document"`
		Logging   LoggingConfig  `yaml:"logging"`
		Reporting ReporterConfig `yaml:"reporting"`
	}
)

const (
	// NOTE: must match yaml field name above, alternative is to use struct
	// field name and reflection which I want to avoid for now
	OutputNameTemplateFieldName TemplateFieldName = "output_name_template"
	PageTemplateFieldName       TemplateFieldName = "page_template"
)

var requiredOptions = append([]func(*gencfg.ProcessingOptions){},
	gencfg.WithDoNotExpandField(string(OutputNameTemplateFieldName)),
	gencfg.WithDoNotExpandField(string(PageTemplateFieldName)),
)

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// We want to use only fields we defined so we cannot use yaml.Unmarshal
	// directly here
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		// sanitize and validate what has been loaded
		if err := gencfg.Sanitize(cfg); err != nil {
			return nil, err
		}
		if err := gencfg.Validate(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of expanded configuration tamplate to provide
// sane defaults and performs validation.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, append(requiredOptions, options...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	cfg, err := unmarshalConfig(data, &Config{}, !haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	if !haveFile {
		return cfg, nil
	}

	// overwrite cfg values with values from the file
	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err = unmarshalConfig(data, cfg, haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Prepare generates configuration file from template and returns it as a byte
// slice.
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl, requiredOptions...)
}

func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %v", err)
	}
	return data, nil
}
