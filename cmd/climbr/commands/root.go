// Package commands provides the CLI commands for climbr.
package commands

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/rpggio/climbr/internal/config"
	"github.com/rpggio/climbr/internal/identity"
	"github.com/rpggio/climbr/internal/rpcclient"
	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "0.1.0"

type rootOptions struct {
	configPath string
	endpoint   string
	token      string
	userID     string
	logLevel   string
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "climbr",
		Short: "climbr - record and browse climbing sessions",
		Long: `climbr talks to a climbr server over JSON-RPC.

Record a session from a YAML file with 'climbr push', browse saved
sessions with 'climbr history', and manage credentials with
'climbr token' and 'climbr apikey'.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to a YAML config file (defaults to $CLIMBR_CONFIG_PATH)")
	cmd.PersistentFlags().StringVar(&opts.endpoint, "endpoint", "", "Server base URL")
	cmd.PersistentFlags().StringVar(&opts.token, "token", "", "Bearer token (API key or JWT)")
	cmd.PersistentFlags().StringVar(&opts.userID, "user", "", "Signed-in user id")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level (debug|info|warn|error)")

	cmd.AddCommand(newPushCmd(opts))
	cmd.AddCommand(newHistoryCmd(opts))
	cmd.AddCommand(newTokenCmd(opts))
	cmd.AddCommand(newAPIKeyCmd(opts))

	return cmd
}

// load resolves configuration with flag overrides applied.
func (o *rootOptions) load() (config.Config, error) {
	var (
		cfg config.Config
		err error
	)
	if o.configPath != "" {
		cfg, err = config.LoadFile(o.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return config.Config{}, err
	}
	if o.endpoint != "" {
		cfg.Client.Endpoint = o.endpoint
	}
	if o.token != "" {
		cfg.Client.Token = o.token
	}
	if o.userID != "" {
		cfg.Client.UserID = o.userID
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	return cfg, nil
}

func newLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

func newClient(cfg config.Config, logger *slog.Logger) *rpcclient.Client {
	maxRetries := cfg.Client.MaxRetries
	if maxRetries == 0 {
		maxRetries = -1
	}
	return rpcclient.New(rpcclient.Config{
		Endpoint:   cfg.Client.Endpoint,
		Token:      cfg.Client.Token,
		HTTPClient: &http.Client{Timeout: cfg.Client.Timeout},
		MaxRetries: maxRetries,
		Logger:     logger,
	})
}

func requireUser(cfg config.Config) (identity.Static, error) {
	user := identity.Static(strings.TrimSpace(cfg.Client.UserID))
	if user == "" {
		return "", fmt.Errorf("no user configured: pass --user or set CLIMBR_CLIENT_USER_ID")
	}
	return user, nil
}
