package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mchmarny/scorecard/pkg/server"
	urfave "github.com/urfave/cli/v3"
)

const (
	addressFlagName   = "address"
	portFlagName      = "port"
	rateLimitFlagName = "rate-limit"
	rateBurstFlagName = "rate-burst"
)

func newServerCmd() *urfave.Command {
	return &urfave.Command{
		Name:    "server",
		Aliases: []string{"serve"},
		Usage:   "Start the scoring HTTP server",
		Action:  cmdStartServer,
		Flags: []urfave.Flag{
			&urfave.StringFlag{
				Name:  addressFlagName,
				Usage: "Address on which the server will listen",
				Value: server.DefaultAddress,
			},
			&urfave.IntFlag{
				Name:  portFlagName,
				Usage: "Port on which the server will listen",
				Value: server.DefaultPort,
			},
			&urfave.FloatFlag{
				Name:  rateLimitFlagName,
				Usage: "Sustained /score requests per second (0 disables limiting)",
			},
			&urfave.IntFlag{
				Name:  rateBurstFlagName,
				Usage: "Requests allowed above the rate limit in a burst (default: the rate limit)",
			},
		},
	}
}

func cmdStartServer(ctx context.Context, cmd *urfave.Command) error {
	cfg := getConfig(ctx)
	applyServerFlags(cmd, cfg)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid server config: %w", err)
	}

	a, err := loadArtifacts(ctx, cfg)
	if err != nil {
		return err
	}

	db, err := openHistory(ctx, cfg.History.DB)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	s, err := server.New(server.Config{
		Address:   cfg.Server.Address,
		Port:      cfg.Server.Port,
		Artifacts: a,
		DB:        db,
		RateLimit: cfg.Server.RateLimit,
		RateBurst: cfg.Server.Burst(),
		Logger:    slog.Default(),
	})
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	return s.ListenAndServe(ctx)
}

func applyServerFlags(cmd *urfave.Command, cfg *appConfig) {
	if cmd.IsSet(addressFlagName) {
		cfg.Server.Address = cmd.String(addressFlagName)
	}
	if cmd.IsSet(portFlagName) {
		cfg.Server.Port = cmd.Int(portFlagName)
	}
	if cmd.IsSet(rateLimitFlagName) {
		cfg.Server.RateLimit = cmd.Float(rateLimitFlagName)
	}
	if cmd.IsSet(rateBurstFlagName) {
		cfg.Server.RateBurst = cmd.Int(rateBurstFlagName)
	}
}
