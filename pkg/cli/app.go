package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/mchmarny/scorecard/pkg/config"
	"github.com/mchmarny/scorecard/pkg/data"
	"github.com/mchmarny/scorecard/pkg/logging"
	urfave "github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

const (
	appName         = "scorecard"
	dirMode         = 0700
	artifactsEnvVar = "SCORECARD_ARTIFACTS_DIR"

	formatJSON = "json"
	formatYAML = "yaml"
)

const (
	artifactsFlagName = "artifacts"
	configFlagName    = "config"
	dbFlagName        = "db"
	historyFlagName   = "history"
	formatFlagName    = "format"
	logLevelFlagName  = "log-level"
	logFormatFlagName = "log-format"
	debugFlagName     = "debug"
)

var (
	version = "v0.0.1-default"
	commit  = ""
	date    = ""
)

func rootFlags() []urfave.Flag {
	return []urfave.Flag{
		&urfave.StringFlag{
			Name:    artifactsFlagName,
			Usage:   "Model artifacts directory or http(s) base URL",
			Value:   config.DefaultArtifacts,
			Sources: urfave.EnvVars(artifactsEnvVar),
		},
		&urfave.StringFlag{
			Name:  configFlagName,
			Usage: "Path to the YAML config file (optional)",
		},
		&urfave.StringFlag{
			Name:  dbFlagName,
			Usage: "Score history database: SQLite file path or postgres:// DSN (optional, disabled when empty)",
		},
		&urfave.BoolFlag{
			Name:  historyFlagName,
			Usage: fmt.Sprintf("Record score history in $HOME/.%s/%s when --db is not set", appName, data.DataFileName),
		},
		&urfave.StringFlag{
			Name:  formatFlagName,
			Usage: "Output format [json, yaml]",
			Value: formatJSON,
		},
		&urfave.StringFlag{
			Name:  logLevelFlagName,
			Usage: "Log level [debug, info, warn, error]",
			Value: config.DefaultLogLevel,
		},
		&urfave.StringFlag{
			Name:  logFormatFlagName,
			Usage: fmt.Sprintf("Log format %v", logging.Formats),
			Value: config.DefaultLogFormat,
		},
		&urfave.BoolFlag{
			Name:  debugFlagName,
			Usage: "Prints verbose logs (optional, default: false)",
		},
	}
}

// Execute creates and runs the CLI application.
func Execute() {
	slog.SetDefault(logging.NewCLILogger(config.DefaultLogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		slog.Error("fatal error", "error", err)
		stop()
		os.Exit(1)
	}
}

type appConfig struct {
	*config.Config
	Format   string
	StateDir string
}

type appConfigKey struct{}

func getConfig(ctx context.Context) *appConfig {
	if c, ok := ctx.Value(appConfigKey{}).(*appConfig); ok {
		return c
	}
	return &appConfig{Config: config.Default(), Format: formatJSON, StateDir: getHomeDir()}
}

func newApp() *urfave.Command {
	return &urfave.Command{
		Name:                  appName,
		Version:               fmt.Sprintf("%s (%s - %s)", version, commit, date),
		Usage:                 "Serve a WoE logistic scorecard fraud model over HTTP",
		EnableShellCompletion: true,
		HideHelpCommand:       true,
		Flags:                 rootFlags(),
		Commands: []*urfave.Command{
			newServerCmd(),
			newScoreCmd(),
			newValidateCmd(),
			newHistoryCmd(),
			newAuthCmd(),
		},
		Before: before,
	}
}

func before(ctx context.Context, cmd *urfave.Command) (context.Context, error) {
	cfg, err := config.Load(cmd.String(configFlagName))
	if err != nil {
		return ctx, fmt.Errorf("loading config: %w", err)
	}

	// flags and the env var win over the file
	if v := cmd.String(artifactsFlagName); cmd.IsSet(artifactsFlagName) || v != config.DefaultArtifacts {
		cfg.Artifacts = v
	}
	if cmd.IsSet(dbFlagName) {
		cfg.History.DB = cmd.String(dbFlagName)
	}
	stateDir := getHomeDir()
	if cmd.Bool(historyFlagName) && cfg.History.DB == "" {
		cfg.History.DB = filepath.Join(stateDir, data.DataFileName)
	}
	if cmd.IsSet(logLevelFlagName) {
		cfg.Log.Level = cmd.String(logLevelFlagName)
	}
	if cmd.IsSet(logFormatFlagName) {
		cfg.Log.Format = cmd.String(logFormatFlagName)
	}
	if cmd.Bool(debugFlagName) {
		cfg.Log.Level = "debug"
	}

	if !logging.IsValidFormat(cfg.Log.Format) {
		return ctx, fmt.Errorf("invalid log format: %s", cfg.Log.Format)
	}
	if err := cfg.Validate(); err != nil {
		return ctx, fmt.Errorf("invalid config: %w", err)
	}

	format, err := parseFormat(cmd.String(formatFlagName))
	if err != nil {
		return ctx, err
	}

	logging.SetDefault(cfg.Log.Format, cfg.Log.Level)
	slog.Debug("config loaded",
		"artifacts", cfg.Artifacts,
		"history", cfg.History.DB != "",
		"format", format)

	return context.WithValue(ctx, appConfigKey{}, &appConfig{
		Config:   cfg,
		Format:   format,
		StateDir: stateDir,
	}), nil
}

func parseFormat(f string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(f)) {
	case formatJSON, "":
		return formatJSON, nil
	case formatYAML, "yml":
		return formatYAML, nil
	default:
		return "", fmt.Errorf("invalid output format: %s", f)
	}
}

func getHomeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		slog.Debug("error getting home dir, using current dir instead", "error", err)
		return "."
	}

	dirPath := filepath.Join(home, "."+appName)
	if _, err := os.Stat(dirPath); errors.Is(err, os.ErrNotExist) {
		slog.Debug("creating dir", "path", dirPath)
		if err := os.Mkdir(dirPath, dirMode); err != nil {
			slog.Debug("error creating dir", "path", dirPath, "home", home, "error", err)
			return home
		}
	}
	return dirPath
}

func stdout(cmd *urfave.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}

func stdin(cmd *urfave.Command) io.Reader {
	if r := cmd.Root().Reader; r != nil {
		return r
	}
	return os.Stdin
}

func encode(w io.Writer, format string, v any) error {
	if format == formatYAML {
		e := yaml.NewEncoder(w)
		defer e.Close()
		return e.Encode(v)
	}
	e := json.NewEncoder(w)
	e.SetIndent("", "  ")
	return e.Encode(v)
}
