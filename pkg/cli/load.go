package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/mchmarny/scorecard/pkg/artifact"
	"github.com/mchmarny/scorecard/pkg/auth"
	"github.com/mchmarny/scorecard/pkg/data"
	"github.com/mchmarny/scorecard/pkg/net"
)

func loadArtifacts(ctx context.Context, cfg *appConfig) (*artifact.Artifacts, error) {
	var client *http.Client
	if artifact.IsRemote(cfg.Artifacts) {
		var err error
		if client, err = artifactClient(ctx, cfg.StateDir); err != nil {
			return nil, err
		}
	}

	src, err := artifact.NewSource(cfg.Artifacts, client)
	if err != nil {
		return nil, fmt.Errorf("creating artifact source: %w", err)
	}

	a, err := artifact.Load(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("loading artifacts: %w", err)
	}
	return a, nil
}

// artifactClient uses the stored token when there is one.
func artifactClient(ctx context.Context, dir string) (*http.Client, error) {
	token, err := auth.GetToken(dir)
	if err == nil {
		slog.Debug("using stored artifact token")
		return net.GetOAuthClient(ctx, token), nil
	}
	if !errors.Is(err, auth.ErrNoToken) {
		slog.Warn("error reading artifact token, continuing without it", "error", err)
	}

	client, err := net.GetHTTPClient()
	if err != nil {
		return nil, fmt.Errorf("creating http client: %w", err)
	}
	return client, nil
}

// openHistory returns nil when history is disabled.
func openHistory(ctx context.Context, dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, nil
	}

	if err := data.Init(ctx, dsn); err != nil {
		return nil, fmt.Errorf("initializing database: %w", err)
	}

	db, err := data.GetDB(dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	v, err := data.SchemaVersion(ctx, db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("reading history schema: %w", err)
	}
	slog.Debug("history database ready", "postgres", data.IsPostgresDSN(dsn), "schema_version", v)
	return db, nil
}
