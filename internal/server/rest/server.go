// Package rest exposes accounts and posts over HTTP using fiber.
package rest

import (
	"context"
	"time"

	"github.com/dmitrijs2005/postboard/internal/logging"
	"github.com/dmitrijs2005/postboard/internal/server/auth"
	"github.com/dmitrijs2005/postboard/internal/server/models"
	"github.com/dmitrijs2005/postboard/internal/server/services"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

type AccountService interface {
	Register(ctx context.Context, email, password string) (*models.Account, error)
	Login(ctx context.Context, email, password string) (*services.LoginResult, error)
}

type PostService interface {
	List(ctx context.Context, pageSize, page int) ([]*models.Post, int, error)
	Get(ctx context.Context, id string) (*models.Post, error)
	Create(ctx context.Context, ownerID, title, content string, image models.NewAsset) (*models.Post, error)
	Update(ctx context.Context, id, ownerID string, upd models.PostUpdate) (*models.Post, error)
	Delete(ctx context.Context, id, ownerID string) error
}

type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// Options wires a Server to its collaborators.
type Options struct {
	Accounts   AccountService
	Posts      PostService
	Verifier   TokenVerifier
	Logger     logging.Logger
	CORSOrigin string
	// MaxUploadSize bounds image bytes; the request body limit leaves room
	// for the remaining form fields on top of it.
	MaxUploadSize int
}

const (
	formOverhead    = 64 << 10
	shutdownTimeout = 10 * time.Second
)

type Server struct {
	app      *fiber.App
	accounts AccountService
	posts    PostService
	verifier TokenVerifier
	logger   logging.Logger
}

func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop{}
	}

	s := &Server{
		accounts: opts.Accounts,
		posts:    opts.Posts,
		verifier: opts.Verifier,
		logger:   logger.With("module", "rest"),
	}

	bodyLimit := fiber.DefaultBodyLimit
	if opts.MaxUploadSize > 0 {
		bodyLimit = opts.MaxUploadSize + formOverhead
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "postboard",
		BodyLimit:             bodyLimit,
		DisableStartupMessage: true,
		// Params and form values outlive the request in services and events.
		Immutable:    true,
		ReadTimeout:  30 * time.Second,
		ErrorHandler: s.handleError,
	})

	origin := opts.CORSOrigin
	if origin == "" {
		origin = "*"
	}

	// recover sits inside the logger so panics are logged as 500s
	s.app.Use(requestid.New())
	s.app.Use(s.requestLogger)
	s.app.Use(recover.New())
	s.app.Use(cors.New(cors.Config{
		AllowOrigins: origin,
		AllowHeaders: "Origin, X-Requested-With, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
	}))

	s.routes()
	return s
}

func (s *Server) routes() {
	s.app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"ok": true})
	})

	acc := s.app.Group("/accounts")
	acc.Post("/signup", s.signup)
	acc.Post("/login", s.login)

	posts := s.app.Group("/posts")
	posts.Get("/", s.listPosts)
	posts.Get("/:id", s.getPost)
	posts.Post("/", s.requireAuth, s.createPost)
	posts.Put("/:id", s.requireAuth, s.updatePost)
	posts.Delete("/:id", s.requireAuth, s.deletePost)
}

// App exposes the underlying fiber app, mostly for app.Test in tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Run serves on addr until ctx is cancelled, then drains in-flight requests
// for up to shutdownTimeout.
func (s *Server) Run(ctx context.Context, addr string) error {
	done := make(chan struct{})
	defer close(done)

	go func() {
		select {
		case <-ctx.Done():
		case <-done:
			return
		}
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.app.ShutdownWithContext(shutdownCtx); err != nil {
			s.logger.Error(ctx, "shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", addr)
	return s.app.Listen(addr)
}
