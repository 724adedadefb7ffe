package cli

import (
	"context"
	"fmt"

	urfave "github.com/urfave/cli/v3"
)

func newValidateCmd() *urfave.Command {
	return &urfave.Command{
		Name:   "validate",
		Usage:  "Load and validate the model artifacts and print a summary",
		Action: cmdValidate,
	}
}

func cmdValidate(ctx context.Context, cmd *urfave.Command) error {
	cfg := getConfig(ctx)

	a, err := loadArtifacts(ctx, cfg)
	if err != nil {
		return err
	}

	if err := encode(stdout(cmd), cfg.Format, a.Summary()); err != nil {
		return fmt.Errorf("encoding summary: %w", err)
	}
	return nil
}
