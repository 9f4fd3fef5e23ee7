package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/0x6d61/storefront/internal/api"
	"github.com/0x6d61/storefront/internal/app"
	"github.com/0x6d61/storefront/internal/config"
	"github.com/0x6d61/storefront/internal/logging"
	"github.com/0x6d61/storefront/internal/notify"
	"github.com/0x6d61/storefront/internal/session"
	"github.com/0x6d61/storefront/internal/transport"
	"github.com/0x6d61/storefront/internal/view"
)

// env is what a command needs: the loaded config, the persisted session
// and the app built on top of them.
type env struct {
	ctx    context.Context
	cancel context.CancelFunc

	cfg       *config.Config
	logger    *zap.Logger
	store     *session.SQLiteStore
	state     *session.State
	client    *api.Client
	transport *transport.DefaultClient
	app       *app.App
	renderer  view.Renderer
	out       io.Writer
}

type envOptions struct {
	// notifier replaces the configured notifier.
	notifier notify.Notifier
	// quietLog forces logging into a file even with --verbose.
	quietLog bool
	// skipRefresh skips the initial catalog and cart load.
	skipRefresh bool
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if v, _ := cmd.Flags().GetString("api"); v != "" {
		cfg.API.BaseURL = strings.TrimRight(v, "/")
	}
	if v, _ := cmd.Flags().GetDuration("timeout"); v > 0 {
		cfg.API.Timeout = v.String()
	}
	if v, _ := cmd.Flags().GetString("format"); v != "" {
		cfg.UI.Format = v
	}
	if v, _ := cmd.Flags().GetString("session-db"); v != "" {
		cfg.Session.DatabasePath = v
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger logs to stderr at debug level with --verbose and into a file
// next to the session database otherwise.
func newLogger(cmd *cobra.Command, cfg *config.Config, quiet bool) (*zap.Logger, error) {
	verbose, _ := cmd.Flags().GetBool("verbose")
	level, file := cfg.Logging.Level, cfg.Logging.File
	if verbose {
		level = "debug"
	}
	if file == "" && (!verbose || quiet) {
		file = filepath.Join(filepath.Dir(cfg.Session.DatabasePath), "storefront.log")
	}
	return logging.New(level, file)
}

// openEnv loads the config and the persisted session and builds the app.
// Call close when done.
func openEnv(cmd *cobra.Command, opts envOptions) (*env, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(cmd, cfg, opts.quietLog)
	if err != nil {
		return nil, err
	}
	renderer, err := view.NewRenderer(cfg.UI.Format)
	if err != nil {
		return nil, err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
	e := &env{ctx: ctx, cancel: cancel, cfg: cfg, logger: logger, renderer: renderer, out: cmd.OutOrStdout()}

	if err := os.MkdirAll(filepath.Dir(cfg.Session.DatabasePath), 0o700); err != nil {
		e.close()
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}
	store, err := session.NewSQLiteStore(cfg.Session.DatabasePath)
	if err != nil {
		e.close()
		return nil, fmt.Errorf("failed to open session database %q: %w", cfg.Session.DatabasePath, err)
	}
	e.store = store

	st, err := store.Load(ctx, cfg.API.BaseURL)
	if err != nil {
		logger.Warn("session not restored", zap.Error(err))
	}
	if st == nil {
		st = &session.State{APIURL: cfg.API.BaseURL, GuestID: uuid.NewString()}
	}
	e.state = st

	timeout, _ := cfg.Timeout()
	tc, err := transport.NewClient(transport.ClientOptions{
		Timeout:            timeout,
		ProxyURL:           cfg.API.ProxyURL,
		InsecureSkipVerify: cfg.API.Insecure,
		UserAgent:          "storefront/" + version,
		MaxRPS:             cfg.API.MaxRPS,
		Logger:             logger.Named("http"),
	})
	if err != nil {
		e.close()
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}
	client, err := api.New(tc, cfg.API.BaseURL,
		api.WithLogger(logger),
		api.WithGuestID(st.GuestID),
		api.WithSession(st.Session()))
	if err != nil {
		e.close()
		return nil, err
	}
	e.client = client
	e.transport = tc

	notifier := opts.notifier
	if notifier == nil {
		w := cmd.OutOrStdout()
		if renderer.Format() == "json" {
			w = cmd.ErrOrStderr()
		}
		notifier = notify.New(cfg.UI.Notifications, w, logger)
	}
	e.app = app.New(client,
		app.WithLogger(logger),
		app.WithNotifier(notifier),
		app.WithStore(store, st))

	logger.Debug("session opened",
		zap.String("api", cfg.API.BaseURL),
		zap.String("guest_id", st.GuestID),
		zap.Bool("authenticated", st.Session() != nil))
	return e, nil
}

func (e *env) close() {
	if e.transport != nil {
		st := e.transport.Stats()
		e.logger.Debug("transport stats",
			zap.Int64("requests", st.TotalRequests),
			zap.Int64("failures", st.Failures),
			zap.Int64("server_errors", st.ServerErrors),
			zap.Duration("avg", st.AvgDuration))
	}
	if e.store != nil {
		_ = e.store.Close()
	}
	if e.logger != nil {
		_ = e.logger.Sync()
	}
	e.cancel()
}

// render writes the current page.
func (e *env) render() error {
	return e.renderer.Render(e.ctx, e.app.Page(), e.out)
}

// show opens route and renders the page.
func (e *env) show(route string) error {
	e.app.Navigate(e.ctx, route)
	return e.render()
}

// fail marks err as reported. Form errors are not notified by the app, so
// they are printed here.
func (e *env) fail(form string, err error) error {
	if err == nil {
		return nil
	}
	if msg := e.app.State().FormError(form); form != "" && msg != "" {
		fmt.Fprintf(e.out, "%s %s\n", notify.Prefix(notify.Error), msg)
	}
	return reportedError{err}
}

// reportedError is an error the user has already been shown.
type reportedError struct{ err error }

func (r reportedError) Error() string { return r.err.Error() }
func (r reportedError) Unwrap() error { return r.err }

// Reported reports whether err was already shown to the user.
func Reported(err error) bool {
	var r reportedError
	return errors.As(err, &r)
}

// withEnv wraps a command body with openEnv and close.
func withEnv(opts envOptions, fn func(cmd *cobra.Command, args []string, e *env) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd, opts)
		if err != nil {
			return err
		}
		defer e.close()
		if !opts.skipRefresh {
			e.app.Refresh(e.ctx)
		}
		return fn(cmd, args, e)
	}
}
