package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/mchmarny/scorecard/pkg/auth"
	urfave "github.com/urfave/cli/v3"
)

const (
	tokenFlagName = "token"
	clearFlagName = "clear"
)

func newAuthCmd() *urfave.Command {
	return &urfave.Command{
		Name:   "auth",
		Usage:  "Store the access token used to fetch remote artifacts",
		Action: cmdAuth,
		Flags: []urfave.Flag{
			&urfave.StringFlag{
				Name:  tokenFlagName,
				Usage: "Bearer token for the remote artifact host (read from stdin when omitted)",
			},
			&urfave.BoolFlag{
				Name:  clearFlagName,
				Usage: "Remove the stored token",
			},
		},
	}
}

func cmdAuth(ctx context.Context, cmd *urfave.Command) error {
	cfg := getConfig(ctx)
	out := stdout(cmd)

	if cmd.Bool(clearFlagName) {
		if err := auth.DeleteToken(cfg.StateDir); err != nil {
			return fmt.Errorf("removing token: %w", err)
		}
		fmt.Fprintln(out, "Token removed")
		return nil
	}

	token := cmd.String(tokenFlagName)
	if token == "" {
		fmt.Fprint(out, "Token: ")
		line, err := bufio.NewReader(stdin(cmd)).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("reading token: %w", err)
		}
		token = strings.TrimSpace(line)
	}

	if err := auth.SaveToken(cfg.StateDir, token); err != nil {
		return fmt.Errorf("saving token: %w", err)
	}

	fmt.Fprintln(out, "Token saved")
	return nil
}
