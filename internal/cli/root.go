package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/me/acadeval/internal/api"
	"github.com/me/acadeval/internal/config"
	"github.com/me/acadeval/internal/feedback"
	"github.com/me/acadeval/internal/logging"
	"github.com/me/acadeval/internal/route"
	"github.com/me/acadeval/internal/session"
	"github.com/spf13/cobra"
)

// routeAnnotation names the location a command renders. Commands without one
// are not guarded.
const routeAnnotation = "route"

var (
	// ErrLoginRequired is returned when a protected command runs anonymously.
	ErrLoginRequired = errors.New("login required: run `acadeval login`")
	// ErrForbidden is returned when the session's role may not run a command.
	ErrForbidden = errors.New("not permitted")
)

// app is the state shared by the commands of one invocation.
type app struct {
	configFile string
	debug      bool

	cfg     config.ClientConfig
	logger  *slog.Logger
	client  *api.Client
	session *session.Store
	notes   *feedback.Store
	history *route.History
	table   *route.Table
	closers []io.Closer
}

// NewRootCmd creates the root cobra command for the acadeval CLI.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&app{table: route.DefaultTable()})
}

func newRootCmd(a *app) *cobra.Command {
	def := config.DefaultClientConfig()

	root := &cobra.Command{
		Use:   "acadeval",
		Short: "acadeval: academic evaluation platform client",
		Long: "acadeval lets students submit copies, professors run evaluations and\n" +
			"corrections, and administrators review candidatures and accounts.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			err := a.setup(cmd)
			if err == nil {
				err = a.guard(cmd)
			}
			if err != nil {
				a.teardown()
			}
			return err
		},
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configFile, "config", "", "Config file (default ~/.acadeval/config.yaml)")
	pf.String("server", def.Server, "API base URL (or ACADEVAL_SERVER env)")
	pf.BoolVar(&a.debug, "debug", false, "Enable debug logging")
	pf.String("log-level", def.LogLevel, "Log level (debug, info, warn, error)")
	pf.String("log-format", def.LogFormat, "Log format (text, json)")
	pf.String("session-backend", def.SessionBackend, "Session storage (file, sqlite, memory)")
	pf.String("session-path", "", "Session file or database path")
	pf.String("profile", def.Profile, "Session slot for the sqlite backend")

	root.AddCommand(
		newLoginCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newApplyCmd(a),
		newCandidaturesCmd(a),
		newEvaluationsCmd(a),
		newSubmitCmd(a),
		newSubmissionsCmd(a),
		newCorrectionsCmd(a),
		newReportsCmd(a),
		newUsersCmd(a),
	)
	a.closeAfterRun(root)
	return root
}

// closeAfterRun makes every runnable command under cmd release the app's
// resources when it returns, whether or not it failed.
func (a *app) closeAfterRun(cmd *cobra.Command) {
	for _, c := range cmd.Commands() {
		a.closeAfterRun(c)
	}
	run := cmd.RunE
	if run == nil {
		return
	}
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		defer a.teardown()
		return run(cmd, args)
	}
}

// setup loads the configuration and wires the client, the session and the
// feedback queue. A saved session that has expired is renewed once if it
// carries a refresh token.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(config.Options{ConfigFile: a.configFile, Flags: cmd.Flags()})
	if err != nil {
		return err
	}
	if a.debug {
		cfg.LogLevel = "debug"
	}
	a.cfg = cfg
	a.logger = logging.NewLoggerWithWriter(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat, cmd.ErrOrStderr())

	errOut := cmd.ErrOrStderr()
	a.notes = feedback.New(func(n feedback.Notification) {
		fmt.Fprintln(errOut, n.String())
	})
	a.history = route.NewHistory(route.LoginPath)

	persist, err := a.openPersistence(cmd.Context())
	if err != nil {
		return err
	}

	a.client = api.NewClient(cfg.Server, a.logger)
	a.session = session.NewStore(a.client.Auth(), persist, a.logger)
	a.client.SetTokenSource(a.session)
	a.client.SetUnauthorizedHandler(func() {
		a.session.Evict(context.Background())
		a.notes.Warning("session expired, please log in again")
		a.history.Navigate(route.LoginPath)
	})

	return a.session.Restore(cmd.Context())
}

func (a *app) openPersistence(ctx context.Context) (session.Persistence, error) {
	path, err := a.cfg.ResolvedSessionPath()
	if err != nil {
		return nil, err
	}
	switch a.cfg.SessionBackend {
	case config.BackendMemory:
		return session.NewMemoryPersistence(), nil
	case config.BackendSQLite:
		if err := ensureDir(path); err != nil {
			return nil, err
		}
		p, err := session.NewSQLitePersistence(ctx, path, a.cfg.Profile, a.logger)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, p)
		return p, nil
	default:
		return session.NewFilePersistence(path), nil
	}
}

// guard evaluates the command's location against the route table.
func (a *app) guard(cmd *cobra.Command) error {
	loc, ok := cmd.Annotations[routeAnnotation]
	if !ok {
		return nil
	}
	state := a.session.Snapshot()
	d := a.history.Go(a.table, state, loc)
	if d.Render {
		return nil
	}
	a.logger.Debug("command refused", "route", loc, "redirect", d.Redirect)
	if d.From != "" || d.Redirect == route.LoginPath {
		return ErrLoginRequired
	}
	return fmt.Errorf("%w for role %s; home is %s", ErrForbidden, state.Role(), d.Redirect)
}

// teardown closes the feedback queue and any open session database. It is
// safe to call more than once.
func (a *app) teardown() {
	if a.notes != nil {
		a.notes.Close()
	}
	for _, c := range a.closers {
		c.Close()
	}
	a.closers = nil
}

// at annotates cmd with the location it renders.
func at(loc string, cmd *cobra.Command) *cobra.Command {
	if cmd.Annotations == nil {
		cmd.Annotations = map[string]string{}
	}
	cmd.Annotations[routeAnnotation] = loc
	return cmd
}
