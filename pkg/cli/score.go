package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/mchmarny/scorecard/pkg/canon"
	"github.com/mchmarny/scorecard/pkg/record"
	"github.com/mchmarny/scorecard/pkg/scorecard"
	urfave "github.com/urfave/cli/v3"
)

const (
	dataFlagName = "data"
	stdinName    = "-"
)

func newScoreCmd() *urfave.Command {
	return &urfave.Command{
		Name:   "score",
		Usage:  "Score a payload offline and print the result",
		Action: cmdScore,
		Flags: []urfave.Flag{
			&urfave.StringFlag{
				Name:     dataFlagName,
				Usage:    `Path to a {"data": {...}} payload file, or "-" for stdin`,
				Required: true,
			},
		},
	}
}

func cmdScore(ctx context.Context, cmd *urfave.Command) error {
	cfg := getConfig(ctx)

	body, err := readPayload(stdin(cmd), cmd.String(dataFlagName))
	if err != nil {
		return err
	}

	rec, err := record.DecodePayload(body)
	if err != nil {
		return fmt.Errorf("parsing payload: %w", err)
	}

	a, err := loadArtifacts(ctx, cfg)
	if err != nil {
		return err
	}

	res := scorecard.Evaluate(canon.Canonicalize(rec), a)
	if err := encode(stdout(cmd), cfg.Format, res); err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	return nil
}

func readPayload(r io.Reader, path string) ([]byte, error) {
	if path == stdinName {
		b, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("reading payload from stdin: %w", err)
		}
		return b, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading payload file %s: %w", path, err)
	}
	return b, nil
}
