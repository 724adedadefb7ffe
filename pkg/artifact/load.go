package artifact

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// Load reads, validates and decodes every model document from src. The
// documents are fetched concurrently; the first failure cancels the rest.
// The version document is optional.
func Load(ctx context.Context, src Source) (*Artifacts, error) {
	if src == nil {
		return nil, errors.New("artifact source required")
	}

	start := time.Now()
	var (
		docs      Documents
		intercept struct {
			Intercept float64 `json:"intercept"`
		}
		version struct {
			ModelVersion *string `json:"model_version"`
		}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return readDocument(gctx, src, SelectedVarsFile, &docs.SelectedVariables) })
	g.Go(func() error { return readDocument(gctx, src, WoeMappingsFile, &docs.WoeMappings) })
	g.Go(func() error { return readDocument(gctx, src, CoefficientsFile, &docs.Coefficients) })
	g.Go(func() error { return readDocument(gctx, src, InterceptFile, &intercept) })
	g.Go(func() error { return readDocument(gctx, src, ScoreParamsFile, &docs.ScoreParams) })
	g.Go(func() error {
		err := readDocument(gctx, src, VersionFile, &version)
		if errors.Is(err, ErrMissingArtifact) {
			slog.Debug("version document not found, using default",
				"path", src.Path(VersionFile), "model_version", DefaultModelVersion)
			return nil
		}
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	docs.Intercept = intercept.Intercept
	if version.ModelVersion != nil {
		docs.Version = &VersionInfo{ModelVersion: *version.ModelVersion}
	}

	a, err := New(src.Location(), docs)
	if err != nil {
		return nil, err
	}

	slog.Debug("artifacts loaded",
		"location", a.Location(),
		"model_version", a.Version().ModelVersion,
		"selected_vars", a.NumVariables(),
		"duration", time.Since(start).String())

	return a, nil
}

func readDocument(ctx context.Context, src Source, name string, target any) error {
	path := src.Path(name)

	b, err := src.ReadFile(ctx, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return missing(path, nil)
		}
		return malformed(path, fmt.Errorf("reading document: %w", err))
	}

	if err := validateDocument(name, b); err != nil {
		return malformed(path, err)
	}

	if err := json.Unmarshal(b, target); err != nil {
		return malformed(path, fmt.Errorf("decoding document: %w", err))
	}
	return nil
}
