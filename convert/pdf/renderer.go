// Package pdf serializes laid out document. All positions are already
// decided by layout, renderer only draws them together with running header
// and footer.
package pdf

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"

	sprig "github.com/go-task/slim-sprig/v3"
	"github.com/jung-kurt/gofpdf"
	"go.uber.org/zap"

	"repgen/config"
	"repgen/imgcache"
	"repgen/layout"
	"repgen/misc"
)

// PageCountError is returned when serialized document does not have the
// number of pages layout has settled on.
type PageCountError struct {
	Expected int
	Actual   int
}

func (e *PageCountError) Error() string {
	return fmt.Sprintf("rendered %d pages, document has %d", e.Actual, e.Expected)
}

// PageValues are available to footer page template.
type PageValues struct {
	Page  int
	Total int
}

// Header and footer geometry, millimeters from the content box edges.
const (
	headerRuleGap   = 6.0
	headerBrandSize = 16.0
	headerSvcSize   = 7.0
	headerSvcLine   = 3.5
	footerRuleGap   = 6.0
	footerTextGap   = 11.0
	footerSize      = 8.0
	footerSideWidth = 45.0
)

type Renderer struct {
	cfg    *config.DocumentConfig
	images *imgcache.Cache
	style  layout.Style
	m      *Measurer
	page   *template.Template
	log    *zap.Logger
}

// NewRenderer prepares renderer, footer page template is parsed here so
// mistakes in configuration are reported before any work is done.
func NewRenderer(cfg *config.DocumentConfig, images *imgcache.Cache, style layout.Style, log *zap.Logger) (*Renderer, error) {
	tmpl, err := template.New(string(config.PageTemplateFieldName)).Funcs(sprig.FuncMap()).Parse(cfg.Footer.PageTemplate)
	if err != nil {
		return nil, fmt.Errorf("unable to parse template field %s: %w", config.PageTemplateFieldName, err)
	}
	return &Renderer{
		cfg:    cfg,
		images: images,
		style:  style,
		m:      NewMeasurer(),
		page:   tmpl,
		log:    log.Named("pdf"),
	}, nil
}

// canvas is state of a single Render call.
type canvas struct {
	*Renderer
	pdf *gofpdf.Fpdf
	tr  func(string) string
	reg *registry
	box layout.PageBox
}

// Render draws every page of finalized document and returns PDF data. Same
// document always produces the same bytes.
func (r *Renderer) Render(doc *layout.Document) ([]byte, error) {
	if doc.Total != len(doc.Pages) {
		return nil, fmt.Errorf("document is not finalized: total %d, pages %d", doc.Total, len(doc.Pages))
	}

	box := doc.Box
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           gofpdf.SizeType{Wd: box.Width, Ht: box.Height},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCatalogSort(true)

	stamp := doc.Date
	if stamp.IsZero() {
		stamp = time.Unix(0, 0).UTC()
	}
	pdf.SetCreationDate(stamp)
	pdf.SetModificationDate(stamp)
	pdf.SetTitle(doc.Title, true)
	pdf.SetCreator(misc.GetAppName(), true)
	pdf.SetProducer(misc.GetAppName(), true)

	c := &canvas{
		Renderer: r,
		pdf:      pdf,
		tr:       pdf.UnicodeTranslatorFromDescriptor(""),
		reg:      newRegistry(pdf, r.images, r.log),
		box:      box,
	}

	for _, p := range doc.Pages {
		pdf.AddPage()
		if p.Footer != nil {
			c.header()
			if err := c.footer(p.Footer); err != nil {
				return nil, err
			}
		}
		for _, b := range p.Blocks {
			for _, it := range b.Items {
				c.draw(it)
			}
		}
		if err := pdf.Error(); err != nil {
			return nil, fmt.Errorf("unable to draw page %d: %w", p.Number, err)
		}
	}

	if n := pdf.PageCount(); n != doc.Total {
		return nil, &PageCountError{Expected: doc.Total, Actual: n}
	}

	buf := new(bytes.Buffer)
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("unable to produce PDF: %w", err)
	}
	r.log.Debug("Document rendered", zap.Int("pages", doc.Total), zap.Int("images", c.reg.len()), zap.Int("size", buf.Len()))
	return buf.Bytes(), nil
}

func (c *canvas) draw(it layout.Item) {
	switch it := it.(type) {
	case *layout.Text:
		c.text(it.X, it.Y, it.Text, it.Font, it.Color)
	case *layout.Rect:
		style := ""
		if it.Fill != nil {
			c.pdf.SetFillColor(it.Fill.R, it.Fill.G, it.Fill.B)
			style += "F"
		}
		if it.Stroke != nil {
			c.pdf.SetDrawColor(it.Stroke.R, it.Stroke.G, it.Stroke.B)
			c.pdf.SetLineWidth(lineWidth(it.LineWidth))
			style += "D"
		}
		if len(style) > 0 {
			c.pdf.Rect(it.X, it.Y, it.W, it.H, style)
		}
	case *layout.Line:
		c.line(it.X1, it.Y1, it.X2, it.Y2, it.Color, it.Width)
	case *layout.Picture:
		name, format, ok := c.reg.name(it.Ref)
		if !ok {
			c.log.Debug("Picture without image data skipped", zap.String("ref", it.Ref))
			return
		}
		c.pdf.ImageOptions(name, it.X, it.Y, it.W, it.H, false, gofpdf.ImageOptions{ImageType: format}, 0, "")
	default:
		// unreachable unless new drawable is added to layout
		panic(fmt.Sprintf("pdf: unexpected item %T", it))
	}
}

func lineWidth(w float64) float64 {
	if w <= 0 {
		return 0.2
	}
	return w
}

func (c *canvas) text(x, y float64, text string, f layout.Font, color layout.Color) {
	if len(text) == 0 {
		return
	}
	c.pdf.SetFont(fontFamily, fontStyle(f, true), f.Size)
	c.pdf.SetTextColor(color.R, color.G, color.B)
	c.pdf.Text(x, y, c.tr(text))
}

func (c *canvas) line(x1, y1, x2, y2 float64, color layout.Color, w float64) {
	c.pdf.SetDrawColor(color.R, color.G, color.B)
	c.pdf.SetLineWidth(lineWidth(w))
	c.pdf.Line(x1, y1, x2, y2)
}

// header draws brand on the left and services stacked on the right above a
// rule, all inside the top margin.
func (c *canvas) header() {
	left, right := c.box.ContentLeft(), c.box.ContentRight()
	rule := c.box.ContentTop() - headerRuleGap

	brand := layout.Font{Size: headerBrandSize, Bold: true}
	c.text(left, rule-3, c.cfg.Brand.Name, brand, c.style.Primary)

	svc := layout.Font{Size: headerSvcSize}
	services := c.cfg.Brand.Services
	top := rule - 2 - headerSvcLine*float64(len(services))
	for i, s := range services {
		s = layout.Fit(c.m, s, svc, c.box.ContentWidth()/2)
		c.text(right-c.m.Width(s, svc), top+headerSvcLine*float64(i+1), s, svc, c.style.Muted)
	}
	c.line(left, rule, right, rule, c.style.Primary, 0.5)
}

// footer draws rule, date on the left, clipped title in the middle and page
// number on the right.
func (c *canvas) footer(d *layout.Decor) error {
	left, right := c.box.ContentLeft(), c.box.ContentRight()
	rule := c.box.ContentBottom() + footerRuleGap
	base := c.box.ContentBottom() + footerTextGap
	font := layout.Font{Size: footerSize}

	c.line(left, rule, right, rule, c.style.Rule, 0.3)

	date := strings.TrimSpace(c.cfg.Footer.DateLabel + " " + formatDate(d.Date, c.cfg.Footer.DateFormat))
	c.text(left, base, layout.Fit(c.m, date, font, footerSideWidth), font, c.style.Muted)

	title := layout.Fit(c.m, d.Title, font, c.box.ContentWidth()-2*footerSideWidth)
	c.text(left+(c.box.ContentWidth()-c.m.Width(title, font))/2, base, title, font, c.style.Muted)

	buf := new(strings.Builder)
	if err := c.page.Execute(buf, PageValues{Page: d.Page, Total: d.Total}); err != nil {
		return fmt.Errorf("unable to expand page template for page %d: %w", d.Page, err)
	}
	number := layout.Fit(c.m, buf.String(), font, footerSideWidth)
	c.text(right-c.m.Width(number, font), base, number, font, c.style.Muted)
	return nil
}

func formatDate(t time.Time, format string) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(format)
}
