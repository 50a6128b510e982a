package imgcache

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	"github.com/disintegration/imaging"
	"github.com/h2non/filetype"
	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"repgen/common"
	"repgen/config"
	"repgen/jpegquality"
	"repgen/utils/images"
)

var svgType = filetype.NewType("svg", "image/svg+xml")

const (
	// density recorded in re-encoded JPEG images
	printDPI = 300
	// vector drawings are rasterized at least this large, enough for a
	// sketch spread over A4 content width
	svgMinSide = 1600
)

func init() {
	filetype.AddMatcher(svgType, isSVG)
}

// isSVG looks for svg root element in the beginning of the text.
func isSVG(buf []byte) bool {
	head := buf[:min(len(buf), 1024)]
	head = bytes.TrimLeft(head, "\xef\xbb\xbf \t\r\n")
	if !bytes.HasPrefix(head, []byte("<")) {
		return false
	}
	return bytes.Contains(bytes.ToLower(head), []byte("<svg"))
}

// prepare converts raw image data into something PDF writer can embed,
// leaving original data intact when no changes are necessary.
func prepare(ref string, data []byte, cfg *config.ImagesConfig, log *zap.Logger) (*Entry, error) {
	kind, err := filetype.Match(data)
	if err != nil {
		return nil, fmt.Errorf("unable to detect image type: %w", err)
	}

	switch kind.MIME.Value {
	case "image/jpeg":
		return prepareJPEG(ref, data, cfg, log)
	case "image/png":
		return preparePNG(ref, data, cfg, log)
	case svgType.MIME.Value:
		maxSide := 0
		if cfg.Resize != common.ImageResizeModeNone {
			maxSide = cfg.MaxDimension
		}
		img, err := images.RasterizeSVG(data, svgMinSide, maxSide)
		if err != nil {
			return nil, fmt.Errorf("unable to rasterize SVG: %w", err)
		}
		log.Debug("SVG rasterized", zap.String("ref", shorten(ref)), zap.Int("width", img.Bounds().Dx()), zap.Int("height", img.Bounds().Dy()))
		return encode(img, cfg)
	case "image/gif", "image/bmp", "image/tiff", "image/webp":
		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("unable to decode %s: %w", kind.Extension, err)
		}
		log.Debug("Converting image", zap.String("ref", shorten(ref)), zap.String("type", kind.Extension))
		return encode(resize(img, cfg), cfg)
	case "":
		return nil, errors.New("unknown image format")
	default:
		return nil, fmt.Errorf("unsupported image format %s", kind.MIME.Value)
	}
}

func prepareJPEG(ref string, data []byte, cfg *config.ImagesConfig, log *zap.Logger) (*Entry, error) {
	ic, err := decodeConfig(data)
	if err != nil {
		return nil, err
	}

	quality := cfg.JPEGQuality
	reencode := false
	if qr, err := jpegquality.NewWithBytes(data); err != nil {
		log.Debug("Unable to detect JPEG quality level", zap.String("ref", shorten(ref)), zap.Error(err))
	} else if q := qr.Quality(); q < quality {
		// never inflate already compressed images
		quality = q
	} else if cfg.Optimize && q > quality {
		log.Debug("JPEG quality level higher than requested, reencoding...",
			zap.String("ref", shorten(ref)), zap.Int("detected", q), zap.Int("requested", quality))
		reencode = true
	}

	if !needsResize(ic.Width, ic.Height, cfg) && !reencode {
		return &Entry{Data: data, Format: FormatJPG, Width: ic.Width, Height: ic.Height}, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("unable to decode jpeg: %w", err)
	}
	img = resize(img, cfg)
	out, err := images.EncodeJPEG(img, quality, printDPI)
	if err != nil {
		return nil, fmt.Errorf("unable to encode jpeg: %w", err)
	}
	return &Entry{Data: out, Format: FormatJPG, Width: img.Bounds().Dx(), Height: img.Bounds().Dy()}, nil
}

func decodeConfig(data []byte) (image.Config, error) {
	ic, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return ic, fmt.Errorf("unable to decode image header: %w", err)
	}
	if ic.Width <= 0 || ic.Height <= 0 {
		return ic, errors.New("image has no pixels")
	}
	return ic, nil
}

func preparePNG(ref string, data []byte, cfg *config.ImagesConfig, log *zap.Logger) (*Entry, error) {
	ic, err := decodeConfig(data)
	if err != nil {
		return nil, err
	}
	if !needsResize(ic.Width, ic.Height, cfg) && embeddablePNG(data) {
		return &Entry{Data: data, Format: FormatPNG, Width: ic.Width, Height: ic.Height}, nil
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("unable to decode png: %w", err)
	}
	log.Debug("Reencoding PNG", zap.String("ref", shorten(ref)))
	return encodePNG(resize(img, cfg))
}

// embeddablePNG checks IHDR for what PDF writer cannot embed as is: 16 bit
// samples and interlacing.
func embeddablePNG(data []byte) bool {
	// signature(8) length(4) "IHDR"(4) width(4) height(4) depth(1) color(1)
	// compression(1) filter(1) interlace(1)
	if len(data) < 29 || string(data[12:16]) != "IHDR" {
		return false
	}
	depth, interlace := data[24], data[28]
	return depth <= 8 && interlace == 0
}

func needsResize(w, h int, cfg *config.ImagesConfig) bool {
	return cfg.Resize != common.ImageResizeModeNone && (w > cfg.MaxDimension || h > cfg.MaxDimension)
}

func resize(img image.Image, cfg *config.ImagesConfig) image.Image {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	if !needsResize(w, h, cfg) {
		return img
	}
	switch cfg.Resize {
	case common.ImageResizeModeKeepAR:
		return imaging.Fit(img, cfg.MaxDimension, cfg.MaxDimension, imaging.Lanczos)
	case common.ImageResizeModeStretch:
		return imaging.Resize(img, min(w, cfg.MaxDimension), min(h, cfg.MaxDimension), imaging.Lanczos)
	}
	return img
}

// encode picks JPEG for opaque images and PNG for the rest.
func encode(img image.Image, cfg *config.ImagesConfig) (*Entry, error) {
	if !opaque(img) {
		return encodePNG(img)
	}
	out, err := images.EncodeJPEG(img, cfg.JPEGQuality, printDPI)
	if err != nil {
		return nil, fmt.Errorf("unable to encode jpeg: %w", err)
	}
	return &Entry{Data: out, Format: FormatJPG, Width: img.Bounds().Dx(), Height: img.Bounds().Dy()}, nil
}

func encodePNG(img image.Image) (*Entry, error) {
	// Clone produces 8 bit NRGBA, never 16 bit
	img = imaging.Clone(img)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG, imaging.PNGCompressionLevel(png.BestCompression)); err != nil {
		return nil, fmt.Errorf("unable to encode png: %w", err)
	}
	return &Entry{Data: buf.Bytes(), Format: FormatPNG, Width: img.Bounds().Dx(), Height: img.Bounds().Dy()}, nil
}

func opaque(img image.Image) bool {
	if oimg, ok := img.(interface{ Opaque() bool }); ok {
		return oimg.Opaque()
	}
	return true
}
