package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/postboard/internal/client/api"
	"github.com/dmitrijs2005/postboard/internal/client/config"
	"github.com/dmitrijs2005/postboard/internal/client/session"
)

const expiryCheckInterval = time.Second

type apiClient interface {
	SetToken(token string)
	Health(ctx context.Context) error
	Signup(ctx context.Context, email, password string) (*api.Account, error)
	Login(ctx context.Context, email, password string) (*api.LoginResult, error)
	ListPosts(ctx context.Context, pageSize, page int) (*api.PostsPage, error)
	GetPost(ctx context.Context, id string) (*api.Post, error)
	CreatePost(ctx context.Context, in api.PostInput) (*api.Post, error)
	UpdatePost(ctx context.Context, id string, in api.PostInput) (*api.Post, error)
	DeletePost(ctx context.Context, id string) error
}

type sessionStore interface {
	Load() (*session.Session, error)
	Save(s *session.Session) error
	Clear() error
}

// App is the interactive client state.
type App struct {
	config   *config.Config
	api      apiClient
	sessions sessionStore
	reader   *bufio.Reader
	out      io.Writer
	now      func() time.Time

	mu      sync.Mutex
	session *session.Session
}

func NewApp(c *config.Config) *App {
	return &App{
		config:   c,
		api:      api.New(c.ServerEndpointAddr, c.RequestTimeout),
		sessions: session.NewStore(c.SessionDir),
		reader:   bufio.NewReader(os.Stdin),
		out:      os.Stdout,
		now:      time.Now,
	}
}

// Run restores a saved session, then serves the REPL until the user exits
// or ctx is cancelled.
func (a *App) Run(ctx context.Context) {
	fmt.Fprintln(a.out, "Welcome to postboard (type 'help' for commands)")

	hctx, cancel := context.WithTimeout(ctx, a.config.RequestTimeout)
	if err := a.api.Health(hctx); err != nil {
		fmt.Fprintf(a.out, "Warning: server %s is not reachable: %v\n", a.config.ServerEndpointAddr, err)
	}
	cancel()

	a.restoreSession()

	ctx, stop := context.WithCancel(ctx)
	defer stop()
	go a.StartExpiryWatcher(ctx, expiryCheckInterval)

	runREPL(ctx, a, a.status, a.reader, a.out)
}

func (a *App) restoreSession() {
	s, err := a.sessions.Load()
	if err != nil {
		if !errors.Is(err, session.ErrNoSession) {
			a.reportError(err)
		}
		return
	}
	a.setSession(s)
	fmt.Fprintf(a.out, "Logged in as %s (session valid for %s)\n", s.Email, s.Remaining(a.now()).Round(time.Second))
}

func (a *App) setSession(s *session.Session) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.session = s
	if s == nil {
		a.api.SetToken("")
		return
	}
	a.api.SetToken(s.Token)
}

func (a *App) currentSession() *session.Session {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.session
}

func (a *App) isLoggedIn() bool {
	return a.currentSession() != nil
}

func (a *App) status() string {
	if s := a.currentSession(); s != nil {
		return fmt.Sprintf(" (%s)", s.Email)
	}
	return ""
}

// expireSession logs out when the current session has expired at now.
// It reports whether it did.
func (a *App) expireSession(now time.Time) bool {
	a.mu.Lock()
	s := a.session
	if s == nil || !s.Expired(now) {
		a.mu.Unlock()
		return false
	}
	a.session = nil
	a.api.SetToken("")
	a.mu.Unlock()

	if err := a.sessions.Clear(); err != nil {
		a.reportError(err)
	}
	fmt.Fprintln(a.out, "\nSession expired, you have been logged out.")
	return true
}

// StartExpiryWatcher checks the session expiry every interval until ctx is done.
func (a *App) StartExpiryWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.expireSession(a.now())
		case <-ctx.Done():
			return
		}
	}
}

// reportError prints err in a form fit for the terminal.
func (a *App) reportError(err error) {
	var apiErr *api.Error
	switch {
	case errors.Is(err, errLoginRequired):
		fmt.Fprintln(a.out, "Please login first.")
	case errors.As(err, &apiErr) && apiErr.Message != "":
		fmt.Fprintln(a.out, "Error:", apiErr.Message)
	default:
		fmt.Fprintln(a.out, "Error:", err)
	}
}
