package convert

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"text/template"

	sprig "github.com/go-task/slim-sprig/v3"

	"repgen/config"
	"repgen/content"
	"repgen/report"
)

// Values is a struct that holds variables we make available for template expansion
type Values struct {
	Context    string
	Title      string
	Requester  string
	Project    string
	Volume     int
	Volumes    int
	Date       string
	ReportID   string
	SourceFile string
}

func expandTemplate(c *content.Content, name config.TemplateFieldName, field string) (string, error) {
	funcMap := sprig.FuncMap()

	tmpl, err := template.New(string(name)).Funcs(funcMap).Parse(field)
	if err != nil {
		return "", fmt.Errorf("unable to parse template field %s: %w", name, err)
	}

	var date string
	if !c.Date.IsZero() {
		date = c.Date.Format(report.DateLayout)
	}
	r := c.Report
	values := Values{
		Context:    string(name),
		Title:      r.Title,
		Requester:  r.Cover.Requester,
		Project:    r.Cover.Project,
		Volume:     r.Cover.Volume,
		Volumes:    r.Cover.Volumes,
		Date:       date,
		ReportID:   r.ID,
		SourceFile: strings.TrimSuffix(filepath.Base(c.SrcName), filepath.Ext(c.SrcName)),
	}

	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, values); err != nil {
		return "", err
	}
	return buf.String(), nil
}
