package handlers

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/padraicbc/racingdb/models"
	"github.com/padraicbc/racingdb/procs"
)

// Gateway runs stored procedures and the horse lookup.
type Gateway interface {
	Invoke(ctx context.Context, p procs.Procedure, args ...any) ([]procs.Row, error)
	HorseByID(ctx context.Context, horseID string) (*models.Horse, error)
	Ping(ctx context.Context) error
}

// UserStore looks up API accounts for sign-in.
type UserStore interface {
	UserByName(ctx context.Context, username string) (*models.User, error)
}

// Options tune a Handler.
type Options struct {
	// JWTKey signs admin tokens. Only used when AdminAuth is set.
	JWTKey    []byte
	AdminAuth bool
	// Development adds request details and panic stacks to error bodies.
	Development bool
	Version     string
}

// Handler holds shared dependencies used by all route handlers.
type Handler struct {
	gw    Gateway
	users UserStore
	log   *zap.Logger
	opts  Options

	started time.Time
	now     func() time.Time
}

// New creates a Handler. users may be nil when admin sign-in is disabled.
func New(gw Gateway, users UserStore, log *zap.Logger, opts Options) *Handler {
	if opts.Version == "" {
		opts.Version = "1.0.0"
	}
	return &Handler{
		gw:      gw,
		users:   users,
		log:     log,
		opts:    opts,
		started: time.Now(),
		now:     time.Now,
	}
}
