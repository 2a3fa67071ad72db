package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/soulparking/dashboard/internal/audit"
	parkauth "github.com/soulparking/dashboard/internal/auth"
	"github.com/soulparking/dashboard/internal/db"
)

var (
	version = "dev"

	errNotSignedIn = errors.New("not signed in; run parkctl login first")
	errAdminOnly   = errors.New("this command requires an admin account")
)

// env holds what every command shares. Tests swap now and the paths.
type env struct {
	dbPath   string
	timezone string
	noColor  bool
	verbose  bool
	now      func() time.Time
}

func defaultEnv() *env {
	dbPath := os.Getenv("PARKCTL_DB")
	if dbPath == "" {
		dbPath = "parkctl.db"
	}
	return &env{dbPath: dbPath, timezone: "Asia/Jakarta", now: time.Now}
}

func newRootCmd(e *env) *cobra.Command {
	root := &cobra.Command{
		Use:   "parkctl",
		Short: "parkctl - parking dashboard from the command line",
		Long: `parkctl signs in with the dashboard accounts and prints the same
dashboard, overview, transaction list and daily report as the web app.
The session is kept in a local SQLite file.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if e.noColor {
				color.NoColor = true
			}
			level := zerolog.WarnLevel
			if e.verbose {
				level = zerolog.DebugLevel
			}
			log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr()}).Level(level).With().Timestamp().Logger()
		},
	}

	root.PersistentFlags().StringVar(&e.dbPath, "db", e.dbPath, "Path to the local session database (env PARKCTL_DB)")
	root.PersistentFlags().StringVar(&e.timezone, "timezone", e.timezone, "Timezone used for date ranges")
	root.PersistentFlags().BoolVar(&e.noColor, "no-color", false, "Disable colored output")
	root.PersistentFlags().BoolVarP(&e.verbose, "verbose", "v", false, "Log debug output to stderr")

	root.AddCommand(
		newLoginCmd(e),
		newLogoutCmd(e),
		newWhoamiCmd(e),
		newDashboardCmd(e),
		newOverviewCmd(e),
		newTransactionsCmd(e),
		newReportCmd(e),
		newMigrateCmd(e),
	)
	return root
}

// local is an opened session database.
type local struct {
	database *db.DB
	sessions *parkauth.SessionService
	recorder *audit.Recorder
}

func (e *env) open() (*local, error) {
	database, err := db.New(e.dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", e.dbPath, err)
	}
	credentials, err := parkauth.DefaultCredentials()
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to load credentials: %w", err)
	}
	return &local{
		database: database,
		sessions: parkauth.NewSessionService(db.NewSessionStore(database.Queries), credentials, 0),
		recorder: audit.NewRecorder(database.Queries, nil),
	}, nil
}

func (l *local) Close() error {
	return l.database.Close()
}

// currentUser returns the signed-in user, or errNotSignedIn.
func (l *local) currentUser(ctx context.Context) (*parkauth.User, error) {
	user, err := l.sessions.Current(ctx)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errNotSignedIn
	}
	return user, nil
}

// withUser opens the session database, checks the signed-in user and runs fn.
func (e *env) withUser(ctx context.Context, adminOnly bool, fn func(*parkauth.User) error) error {
	l, err := e.open()
	if err != nil {
		return err
	}
	defer l.Close()

	user, err := l.currentUser(ctx)
	if err != nil {
		return err
	}
	if adminOnly && !user.IsAdmin() {
		return errAdminOnly
	}
	return fn(user)
}

func (e *env) location() (*time.Location, error) {
	if e.timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(e.timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", e.timezone, err)
	}
	return loc, nil
}
