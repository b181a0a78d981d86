package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/pinsession/internal/client/client"
	"github.com/dmitrijs2005/pinsession/internal/client/config"
	"github.com/dmitrijs2005/pinsession/internal/client/models"
	"github.com/dmitrijs2005/pinsession/internal/client/reconciler"
	"github.com/dmitrijs2005/pinsession/internal/client/sessionstore"
	"github.com/dmitrijs2005/pinsession/internal/client/storage"
	"github.com/dmitrijs2005/pinsession/internal/logging"
)

// Surface is the screen the user is on.
type Surface string

const (
	SurfaceLogin Surface = "login"
	SurfaceMain  Surface = "main"
)

// Sessions is the part of the reconciler the forms drive.
type Sessions interface {
	Login(ctx context.Context, username, pin string) (*models.Session, error)
	Signup(ctx context.Context, username, pin, confirmPin string) (*models.Session, error)
	Logout(ctx context.Context) error
	EnterLoginSurface(ctx context.Context) error
	RequireSession(ctx context.Context) (*models.Session, error)
	CurrentSession() *models.Session
	State() reconciler.State
	Mode() reconciler.Mode
}

type App struct {
	config   *config.Config
	logger   logging.Logger
	sessions Sessions
	reader   *bufio.Reader
	out      io.Writer
	banner   *Banner
	surface  Surface

	// sleep is a test seam for the redirect delay.
	sleep   func(time.Duration)
	closers []func(context.Context) error
}

// NewApp opens the device database, probes the identity service and
// returns a ready App reading from stdin.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	repos, err := storage.InitDatabase(ctx, c.DatabasePath, logger)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	store := sessionstore.New(repos.DB, logger)
	factory := func() (client.Client, error) {
		cl, err := client.NewGRPCClient(c.ServerEndpointAddr, logger)
		if err != nil {
			return nil, err
		}
		cl.SetTokenStore(store)
		return cl, nil
	}
	rec := reconciler.New(reconciler.Config{
		RemoteEnabled:   c.RemoteEnabled,
		ProbeTimeout:    c.ProbeTimeout,
		InitGracePeriod: c.InitGracePeriod,
	}, factory, store, logger)

	if err := rec.Init(ctx); err != nil {
		_ = repos.Close()
		return nil, err
	}

	a := newApp(c, rec, os.Stdin, os.Stdout, logger)
	a.closers = append(a.closers,
		rec.Shutdown,
		func(context.Context) error { return repos.Close() },
	)
	return a, nil
}

func newApp(c *config.Config, sessions Sessions, in io.Reader, out io.Writer, logger logging.Logger) *App {
	return &App{
		config:   c,
		logger:   logger.With("module", "cli"),
		sessions: sessions,
		reader:   bufio.NewReader(in),
		out:      out,
		banner:   NewBanner(out, c.MessageTTL),
		surface:  SurfaceLogin,
		sleep:    time.Sleep,
	}
}

// Run shows the first surface and blocks in the REPL until the user exits
// or input ends.
func (a *App) Run(ctx context.Context) {
	defer a.Close(ctx)

	fmt.Fprintln(a.out, "PIN session terminal (type 'help' for commands)")

	if s, err := a.sessions.RequireSession(ctx); err == nil {
		a.enterMain(s)
	} else {
		a.enterLogin(ctx)
	}

	runREPL(ctx, a, a.status, a.reader)
}

// Close releases the reconciler and the database.
func (a *App) Close(ctx context.Context) {
	a.banner.Stop()
	for _, c := range a.closers {
		if err := c(ctx); err != nil {
			a.logger.Warn(ctx, "shutdown step failed", "error", err)
		}
	}
	a.closers = nil
}

func (a *App) onMainSurface() bool {
	return a.surface == SurfaceMain
}

// enterLogin clears the session and shows the login surface.
func (a *App) enterLogin(ctx context.Context) {
	if err := a.sessions.EnterLoginSurface(ctx); err != nil {
		a.logger.Error(ctx, "login surface not prepared", "error", err)
	}
	a.surface = SurfaceLogin
	fmt.Fprintln(a.out, "== LOGIN ==")
}

func (a *App) enterMain(s *models.Session) {
	a.surface = SurfaceMain
	fmt.Fprintf(a.out, "== WELCOME, %s ==\n", s.Username)
}

// redirect waits so the success message stays readable, then enters the
// main surface.
func (a *App) redirect(s *models.Session) {
	a.sleep(a.config.RedirectDelay)
	a.enterMain(s)
}

func (a *App) status() string {
	user := string(a.surface)
	if a.onMainSurface() {
		if s := a.sessions.CurrentSession(); s != nil {
			user = s.Username
		}
	}
	return fmt.Sprintf("(%s %s)", user, a.sessions.Mode())
}
