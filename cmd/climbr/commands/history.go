package commands

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/rpggio/climbr/internal/domain/session"
	"github.com/rpggio/climbr/internal/history"
	"github.com/spf13/cobra"
)

func newHistoryCmd(root *rootOptions) *cobra.Command {
	var (
		uid    string
		recent bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List saved sessions, newest first",
		Long: `List saved sessions, newest first.

Examples:
  climbr history              # the signed-in user's sessions
  climbr history --uid alice  # another user's sessions
  climbr history --recent     # only the last 24 hours`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			if uid == "" {
				user, err := requireUser(cfg)
				if err != nil {
					return err
				}
				uid = string(user)
			}

			logger := newLogger(cmd.ErrOrStderr(), cfg.Log.Level)
			client := newClient(cfg, logger)

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			var sessions []session.Session
			if recent {
				sessions, err = client.GetActiveSessions(ctx, uid)
				history.SortNewestFirst(sessions)
			} else {
				sessions, err = history.NewLoader(client, cfg.History.Concurrency, logger).Load(ctx, uid)
			}
			if err != nil {
				return fmt.Errorf("loading history: %w", err)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tCREATED\tTITLE\tLOCATION\tROUTES\tSENT\t")
			for _, sess := range sessions {
				sent := 0
				for _, r := range sess.Routes {
					if r.SuccessCount() > 0 {
						sent++
					}
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t\n",
					sess.ID, sess.CreatedAt, sess.Title, sess.Location, sess.RoutesCount(), sent)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&uid, "uid", "", "Owner to list (defaults to --user)")
	cmd.Flags().BoolVar(&recent, "recent", false, "Only sessions from the last 24 hours")
	return cmd
}
