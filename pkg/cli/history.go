package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/mchmarny/scorecard/pkg/data"
	urfave "github.com/urfave/cli/v3"
)

const limitFlagName = "limit"

func newHistoryCmd() *urfave.Command {
	return &urfave.Command{
		Name:   "history",
		Usage:  "List recorded scoring events (requires --db or --history)",
		Action: cmdHistory,
		Flags: []urfave.Flag{
			&urfave.IntFlag{
				Name:  limitFlagName,
				Usage: fmt.Sprintf("Number of most recent events to list (max %d)", data.ScoreEventLimitMax),
				Value: data.ScoreEventLimitDefault,
			},
		},
	}
}

func cmdHistory(ctx context.Context, cmd *urfave.Command) error {
	cfg := getConfig(ctx)
	if cfg.History.DB == "" {
		return errors.New("score history requires --db, --history or history.db in the config file")
	}

	db, err := openHistory(ctx, cfg.History.DB)
	if err != nil {
		return err
	}
	defer db.Close()

	list, err := data.GetScoreEvents(ctx, db, cmd.Int(limitFlagName))
	if err != nil {
		return fmt.Errorf("listing score events: %w", err)
	}

	if err := encode(stdout(cmd), cfg.Format, list); err != nil {
		return fmt.Errorf("encoding score events: %w", err)
	}
	return nil
}
