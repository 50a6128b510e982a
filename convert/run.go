package convert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"repgen/archive"
	"repgen/content"
	"repgen/misc"
	"repgen/report"
	"repgen/state"
)

// BundleReportNames lists names report description may have inside bundle,
// first found wins.
var BundleReportNames = []string{"report.yaml", "report.yml", "report.json"}

func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("generate")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no input source has been specified")
	}
	if src, err = filepath.Abs(src); err != nil {
		return err
	}

	dst := cmd.Args().Get(1)
	if len(dst) == 0 {
		if dst, err = os.Getwd(); err != nil {
			return fmt.Errorf("unable to get working directory: %w", err)
		}
	}
	if dst, err = filepath.Abs(dst); err != nil {
		return err
	}
	if cmd.Args().Len() > 2 {
		log.Warn("Mailformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	env.Overwrite = cmd.Bool("overwrite")
	if d := cmd.String("date"); len(d) > 0 {
		if env.Date, err = time.Parse(report.DateLayout, d); err != nil {
			return fmt.Errorf("bad document date %q: %w", d, err)
		}
	}

	log.Info("Processing starting", zap.String("source", src), zap.String("destination", dst))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	return process(ctx, src, dst, log)
}

// process handles generation independently of CLI framework. Source is
// report file (YAML or JSON) or zip bundle with report and images,
// destination is either directory or name of the PDF file.
func process(ctx context.Context, src, dst string, log *zap.Logger) (rerr error) {
	env := state.EnvFromContext(ctx)

	var (
		refID  string
		bundle *archive.Bundle
		rpt    *report.Report
		err    error
	)

	baseDir := filepath.Dir(src)
	if env.Rpt != nil {
		if err := env.Rpt.StoreCopy("source/"+filepath.Base(src), src); err != nil {
			log.Warn("Unable to copy source to debug report", zap.Error(err))
		}
	}
	if strings.EqualFold(filepath.Ext(src), ".zip") {
		if bundle, err = archive.Open(src); err != nil {
			return fmt.Errorf("unable to open report bundle: %w", err)
		}
		defer bundle.Close()
		if rpt, err = loadFromBundle(bundle); err != nil {
			return err
		}
	} else if rpt, err = report.Load(src); err != nil {
		return err
	}

	sink := NewFileSink(dst, "", env.Overwrite, log)
	if strings.EqualFold(filepath.Ext(dst), outputExt) {
		sink.Dir, sink.Path = filepath.Dir(dst), dst
	}

	log.Info("Generation starting", zap.String("from", src))
	defer func(start time.Time) {
		if rerr == nil {
			log.Info("Generation completed", zap.Duration("elapsed", time.Since(start)), zap.String("to", sink.Written), zap.String("ref_id", refID))
		}
	}(time.Now())

	c, err := content.Prepare(ctx, rpt, filepath.Base(src), bundle, baseDir, log)
	if err != nil {
		return fmt.Errorf("unable to prepare report (%s): %w", src, err)
	}
	refID = rpt.ID

	// Store normalized input for debugging
	if env.Rpt != nil {
		buf := new(bytes.Buffer)
		if err := rpt.Encode(buf); err == nil {
			env.Rpt.StoreData(fmt.Sprintf("%s-%s-report.yaml", misc.GetAppName(), refID), buf.Bytes())
		}
	}

	if err := Generate(ctx, c, sink); err != nil {
		return fmt.Errorf("unable to generate document: %w", err)
	}

	// Store generation result for debugging
	if env.Rpt != nil {
		env.Rpt.Store(fmt.Sprintf("result-%s%s", refID, outputExt), sink.Written)
	}
	return nil
}

func loadFromBundle(b *archive.Bundle) (*report.Report, error) {
	for _, name := range BundleReportNames {
		if !b.Has(name) {
			continue
		}
		data, err := b.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("unable to read %s from bundle: %w", name, err)
		}
		return report.Decode(data, name)
	}
	return nil, fmt.Errorf("bundle %s has no report description (%s)", filepath.Base(b.Name()), strings.Join(BundleReportNames, ", "))
}
