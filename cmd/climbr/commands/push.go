package commands

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rpggio/climbr/internal/domain/session"
	"github.com/rpggio/climbr/internal/gateway"
	"github.com/rpggio/climbr/internal/recorder"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// sessionFile is the YAML layout accepted by push.
type sessionFile struct {
	Title    string      `yaml:"title"`
	Location string      `yaml:"location"`
	Gym      string      `yaml:"gym"`
	Wall     string      `yaml:"wall"`
	Routes   []routeFile `yaml:"routes"`
}

type routeFile struct {
	ID         string   `yaml:"id"`
	Name       string   `yaml:"name"`
	Difficulty string   `yaml:"difficulty"`
	Tags       []string `yaml:"tags"`
	Notes      string   `yaml:"notes"`
	Media      string   `yaml:"media"`
	// Attempts lists outcomes in order; true is a send.
	Attempts []bool `yaml:"attempts"`
}

func newPushCmd(root *rootOptions) *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "push <session.yaml>",
		Short: "Save a session described in a YAML file",
		Long: `Save a session described in a YAML file.

Without --session-id a new session is created. With --session-id the
stored session's routes are replaced by the file's routes.

Examples:
  climbr push evening.yaml
  climbr push --session-id 1b9d6bcd evening.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPush(cmd, root, args[0], sessionID)
		},
	}
	cmd.Flags().StringVar(&sessionID, "session-id", "", "Replace the routes of this stored session")
	return cmd
}

func runPush(cmd *cobra.Command, root *rootOptions, path, sessionID string) error {
	cfg, err := root.load()
	if err != nil {
		return err
	}
	user, err := requireUser(cfg)
	if err != nil {
		return err
	}
	file, err := readSessionFile(path)
	if err != nil {
		return err
	}

	logger := newLogger(cmd.ErrOrStderr(), cfg.Log.Level)
	client := newClient(cfg, logger)
	manager := recorder.New(recorder.Config{
		Saver:           gateway.New(client, user, logger),
		Identity:        user,
		KeepAfterCreate: true,
		Logger:          logger,
	})

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if sessionID != "" {
		existing, err := client.GetSessionByID(ctx, sessionID)
		if err != nil {
			return fmt.Errorf("loading session %s: %w", sessionID, err)
		}
		opened := *existing
		opened.Routes = []session.Route{}
		if strings.TrimSpace(file.Title) != "" {
			opened.Title = file.Title
		}
		if gym := session.StringPtr(file.Gym); gym != nil {
			opened.GymName = gym
		}
		manager.Open(opened)
	} else if file.Wall != "" {
		manager.StartAtGym(file.Title, file.Gym, file.Wall)
	} else {
		manager.Start(file.Title, file.Location, session.StringPtr(file.Gym))
	}

	clock := time.Now()
	for _, rf := range file.Routes {
		route := session.Route{
			ID:         rf.ID,
			Name:       rf.Name,
			Difficulty: rf.Difficulty,
			Tags:       rf.Tags,
			Notes:      session.StringPtr(rf.Notes),
			MediaURI:   session.StringPtr(rf.Media),
			Attempts:   fileAttempts(rf.Attempts, clock),
		}
		clock = clock.Add(time.Duration(len(rf.Attempts)) * time.Millisecond)
		manager.AddRoute(route)
	}

	if err := manager.End(ctx); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}

	state := manager.Snapshot()
	routes := 0
	if state.Session != nil {
		routes = state.Session.RoutesCount()
	}
	fmt.Fprintf(cmd.OutOrStdout(), "saved session %s (%d routes)\n", state.LastSavedID, routes)
	return nil
}

func readSessionFile(path string) (sessionFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return sessionFile{}, fmt.Errorf("read session file: %w", err)
	}
	var file sessionFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return sessionFile{}, fmt.Errorf("parse session file: %w", err)
	}
	return file, nil
}

// fileAttempts stamps attempts one millisecond apart from start so their
// createdAt order matches the file.
func fileAttempts(outcomes []bool, start time.Time) []session.Attempt {
	attempts := make([]session.Attempt, 0, len(outcomes))
	for i, success := range outcomes {
		attempts = append(attempts, session.Attempt{
			Success:   success,
			CreatedAt: session.Timestamp(start.Add(time.Duration(i) * time.Millisecond)),
		})
	}
	return attempts
}
