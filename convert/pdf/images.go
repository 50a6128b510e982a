package pdf

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"
	"github.com/jung-kurt/gofpdf"
	"go.uber.org/zap"

	"repgen/imgcache"
)

// registry registers cache entries with the PDF writer on first use. Names
// follow order of first use and identical data is embedded once.
//
// NOTE: with catalog sorting on, gofpdf orders image objects by pixel width
// only, so two different images of the same width would be written in map
// order. To keep output stable every registered image gets a width of its
// own, colliding image loses a column of pixels on the right.
type registry struct {
	pdf    *gofpdf.Fpdf
	images *imgcache.Cache
	log    *zap.Logger

	names   map[string]string
	byData  map[[sha256.Size]byte]string
	formats map[string]string
	widths  map[int]struct{}
}

func newRegistry(pdf *gofpdf.Fpdf, images *imgcache.Cache, log *zap.Logger) *registry {
	return &registry{
		pdf:     pdf,
		images:  images,
		log:     log,
		names:   make(map[string]string),
		byData:  make(map[[sha256.Size]byte]string),
		formats: make(map[string]string),
		widths:  make(map[int]struct{}),
	}
}

func (g *registry) len() int {
	return len(g.byData)
}

// name returns registered image name and its format for reference.
func (g *registry) name(ref string) (string, string, bool) {
	if name, ok := g.names[ref]; ok {
		return name, g.formats[name], len(name) > 0
	}
	entry, ok := g.images.Get(ref)
	if !ok {
		g.names[ref] = ""
		return "", "", false
	}

	sum := sha256.Sum256(entry.Data)
	if name, ok := g.byData[sum]; ok {
		g.names[ref] = name
		return name, g.formats[name], true
	}

	data, format, width := entry.Data, entry.Format, entry.Width
	if _, taken := g.widths[width]; taken {
		var err error
		if data, width, err = g.narrow(entry); err != nil {
			g.log.Warn("Unable to prepare image for embedding", zap.String("ref", ref), zap.Error(err))
			g.names[ref] = ""
			return "", "", false
		}
	}

	name := fmt.Sprintf("img%04d", len(g.byData)+1)
	g.pdf.RegisterImageOptionsReader(name, gofpdf.ImageOptions{ImageType: format}, bytes.NewReader(data))
	if err := g.pdf.Error(); err != nil {
		// writer is in error state now, Render reports it
		g.names[ref] = ""
		return "", "", false
	}
	g.byData[sum] = name
	g.names[ref] = name
	g.formats[name] = format
	g.widths[width] = struct{}{}
	return name, format, true
}

// narrow crops image to the widest width not used yet.
func (g *registry) narrow(entry *imgcache.Entry) ([]byte, int, error) {
	width := entry.Width
	for {
		width--
		if width <= 0 {
			return nil, 0, fmt.Errorf("no free width left for %dx%d image", entry.Width, entry.Height)
		}
		if _, taken := g.widths[width]; !taken {
			break
		}
	}

	img, err := imaging.Decode(bytes.NewReader(entry.Data))
	if err != nil {
		return nil, 0, err
	}
	img = imaging.Crop(img, image.Rect(0, 0, width, img.Bounds().Dy()))

	buf := new(bytes.Buffer)
	switch entry.Format {
	case imgcache.FormatJPG:
		err = imaging.Encode(buf, img, imaging.JPEG, imaging.JPEGQuality(95))
	default:
		err = imaging.Encode(buf, img, imaging.PNG, imaging.PNGCompressionLevel(png.DefaultCompression))
	}
	if err != nil {
		return nil, 0, err
	}
	return buf.Bytes(), width, nil
}
