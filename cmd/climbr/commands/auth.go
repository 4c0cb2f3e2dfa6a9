package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/climbr/internal/identity"
	"github.com/rpggio/climbr/internal/sqlite"
	"github.com/spf13/cobra"
)

// apiKeyPrefix marks keys minted by this CLI.
const apiKeyPrefix = "clb_"

func newTokenCmd(root *rootOptions) *cobra.Command {
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token <user-id>",
		Short: "Issue a signed bearer token",
		Long: `Issue an HS256 bearer token for a user, signed with the server's
auth.jwt_secret ($CLIMBR_AUTH_JWT_SECRET).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			if ttl <= 0 {
				ttl = cfg.Auth.TokenTTL
			}
			token, err := identity.IssueToken([]byte(cfg.Auth.JWTSecret), args[0], ttl, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Token lifetime (defaults to auth.token_ttl)")
	return cmd
}

func newAPIKeyCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apikey",
		Short: "Manage API keys in the server database",
	}

	var description string
	create := &cobra.Command{
		Use:   "create <user-id>",
		Short: "Create an API key for a user",
		Long: `Create an API key for a user. The key is printed once; only its hash
is stored in the database at db.path ($CLIMBR_DB_PATH).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			userID := strings.TrimSpace(args[0])
			if userID == "" {
				return fmt.Errorf("user id is required")
			}

			if dir := filepath.Dir(cfg.DB.Path); dir != "." && cfg.DB.Path != ":memory:" {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return fmt.Errorf("prepare database path: %w", err)
				}
			}
			db, err := sqlite.New(cfg.DB.Path)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := db.RunMigrations(); err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			key := NewAPIKey()
			if err := sqlite.NewAPIKeyRepository(db).Create(ctx, identity.HashToken(key), userID, description); err != nil {
				return fmt.Errorf("storing api key: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), key)
			return nil
		},
	}
	create.Flags().StringVar(&description, "description", "", "Free-text note stored with the key")

	cmd.AddCommand(create)
	return cmd
}

// NewAPIKey returns a fresh random API key.
func NewAPIKey() string {
	return apiKeyPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")
}
