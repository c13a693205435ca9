package payload

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/mark3labs/tgcg/internal/logging"
	"github.com/mark3labs/tgcg/internal/outfile"
	"github.com/mark3labs/tgcg/internal/render"
	"github.com/mark3labs/tgcg/internal/schema"
)

// Options controls how payload files are written.
type Options struct {
	OutDir string // required; the payloads directory
	Force  bool   // overwrite files that do not carry the generated banner
	DryRun bool   // don't write, only plan
	Stamp  render.Stamp
	Logger *zap.SugaredLogger
}

// PlannedFile describes a file the emitter intends to write.
type PlannedFile struct {
	RelPath string
	Size    int
	Mode    os.FileMode
}

// Result lists the planned files in schema order.
type Result struct {
	Planned []PlannedFile
	Units   []Unit
}

// Emit renders every payload and then writes them under opts.OutDir. Nothing
// is written unless every unit renders, and a failed write leaves the
// directory as it was.
func Emit(ctx context.Context, s *schema.Schema, opts Options) (*Result, error) {
	if s == nil {
		return nil, errors.New("payload: nil schema")
	}
	if strings.TrimSpace(opts.OutDir) == "" {
		return nil, errors.New("payload: OutDir is required")
	}
	log := opts.Logger
	if log == nil {
		log = logging.Nop()
	}

	units, err := Generate(s, render.Banner(render.BannerFile, opts.Stamp))
	if err != nil {
		return nil, err
	}

	planned := make([]PlannedFile, 0, len(units))
	for _, u := range units {
		planned = append(planned, PlannedFile{RelPath: u.FileName, Size: len(u.Content), Mode: 0o644})
	}
	log.Infow("payloads rendered", "files", len(planned), "dir", opts.OutDir)

	if !opts.DryRun {
		if err := writeUnits(ctx, opts.OutDir, units, opts.Force); err != nil {
			return nil, err
		}
	}
	return &Result{Planned: planned, Units: units}, nil
}

func writeUnits(ctx context.Context, outDir string, units []Unit, force bool) error {
	abs, err := filepath.Abs(outDir)
	if err != nil {
		return errors.Wrap(err, "resolve out dir")
	}
	// Pre-flight: hand-written files are never replaced without force.
	if !force {
		for _, u := range units {
			existing, err := os.ReadFile(filepath.Join(abs, u.FileName))
			if err != nil {
				if os.IsNotExist(err) {
					continue
				}
				return errors.Wrapf(err, "read %s", u.FileName)
			}
			if !render.IsGenerated(existing) {
				return errors.Newf("payload: %s exists and was not generated (use --force to overwrite)", filepath.Join(abs, u.FileName))
			}
		}
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return errors.Wrap(err, "mkdir")
	}
	var batch outfile.Batch
	for _, u := range units {
		batch.Add(filepath.Join(abs, u.FileName), u.Content, 0o644)
	}
	return batch.Commit(ctx)
}
