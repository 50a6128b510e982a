package convert

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"

	"go.uber.org/zap"

	"repgen/content"
	"repgen/convert/pdf"
	"repgen/layout"
	"repgen/misc"
	"repgen/state"
)

// Sink accepts finished document.
type Sink interface {
	Accept(ctx context.Context, name string, data []byte) error
}

// SinkFunc adapts ordinary function to Sink.
type SinkFunc func(ctx context.Context, name string, data []byte) error

func (f SinkFunc) Accept(ctx context.Context, name string, data []byte) error {
	return f(ctx, name, data)
}

// Generate lays out and renders prepared content and hands result to sink
// under file name derived from the report. Sink is not called on failure.
func Generate(ctx context.Context, c *content.Content, sink Sink) (rerr error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	env := state.EnvFromContext(ctx)
	cfg := &env.Cfg.Document
	log := env.Log.Named("generate")

	defer func() {
		// image decoders are third party code, one bad image should not
		// bring down the whole program
		if r := recover(); r != nil {
			log.Error("Generation ended with panic", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
			rerr = &AssemblyError{Op: "panic", Err: fmt.Errorf("%v", r)}
		}
	}()

	style := layout.DefaultStyle()
	renderer, err := pdf.NewRenderer(cfg, c.Images, style, log)
	if err != nil {
		return err
	}

	doc, err := Assemble(c, cfg, pdf.NewMeasurer(), style, log)
	if env.Rpt != nil && doc != nil {
		env.Rpt.StoreData(fmt.Sprintf("%s-%s-layout.txt", misc.GetAppName(), c.Report.ID), []byte(doc.String()))
	}
	if err != nil {
		return err
	}

	data, err := renderer.Render(doc)
	if err != nil {
		return &AssemblyError{Op: "render", Err: err}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	name := FileName(c, cfg, log)
	log.Debug("Document ready", zap.String("name", name), zap.Int("pages", doc.Total), zap.Int("size", len(data)))
	return sink.Accept(ctx, name, data)
}

// FileSink writes documents to disk. When Path is set it is used as is,
// otherwise document goes into Dir under the name it was offered with.
type FileSink struct {
	Dir       string
	Path      string
	Overwrite bool
	log       *zap.Logger

	// Written is the path of the last written file
	Written string
}

func NewFileSink(dir, path string, overwrite bool, log *zap.Logger) *FileSink {
	return &FileSink{Dir: dir, Path: path, Overwrite: overwrite, log: log}
}

func (s *FileSink) target(name string) string {
	if len(s.Path) > 0 {
		return s.Path
	}
	return filepath.Join(s.Dir, filepath.FromSlash(name))
}

func (s *FileSink) Accept(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	out := s.target(name)

	// Check if output file already exists
	if _, err := os.Stat(out); err == nil {
		if !s.Overwrite {
			return fmt.Errorf("output file already exists: %s", out)
		}
		s.log.Warn("Overwriting existing file", zap.String("file", out))
		if err = os.Remove(out); err != nil {
			return err
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	} else if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return fmt.Errorf("unable to create output directory: %w", err)
	}

	if err := os.WriteFile(out, data, 0644); err != nil {
		return fmt.Errorf("unable to write output: %w", err)
	}
	s.Written = out
	return nil
}
