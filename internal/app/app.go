package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	sl "github.com/14kear/sso-prettyslog/slogpretty/errors"

	httpapp "github.com/14kear/siteVoting/internal/app/http"
	"github.com/14kear/siteVoting/internal/config"
	domainerrors "github.com/14kear/siteVoting/internal/domain/errors"
	"github.com/14kear/siteVoting/internal/handlers"
	"github.com/14kear/siteVoting/internal/lib/jwt"
	"github.com/14kear/siteVoting/internal/middleware"
	"github.com/14kear/siteVoting/internal/services"
	"github.com/14kear/siteVoting/internal/services/auth"
	"github.com/14kear/siteVoting/internal/services/guard"
	"github.com/14kear/siteVoting/internal/storage/memory"
	"github.com/14kear/siteVoting/internal/storage/postgres"
	"github.com/14kear/siteVoting/internal/storage/sqlite"
)

// Storage это то, что нужно приложению от любого ledger-бэкенда.
type Storage interface {
	services.Ledger
	guard.VoteAppender
	Close() error
}

type App struct {
	log        *slog.Logger
	HTTPServer *httpapp.App
	Voting     *services.OnlineVoting
	storage    Storage
	cfg        *config.Config
	cancel     context.CancelFunc
}

func NewApp(log *slog.Logger, cfg *config.Config, clock services.Clock) (*App, error) {
	const op = "app.NewApp"

	storage, err := NewStorage(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	issuer := jwt.Issuer{
		Name:     cfg.Identity.Issuer,
		Audience: cfg.Identity.Audience,
		Secret:   []byte(cfg.Identity.Secret),
	}
	identity := auth.NewIdentity(log, issuer)
	admin := auth.NewAdmin(log, cfg.Admin.KeyHash)

	voteGuard := guard.New(log, storage, cfg.Voting.GroupCap)
	votingService := services.NewOnlineVoting(log, storage, identity, voteGuard, clock, services.Options{
		GroupCap:   cfg.Voting.GroupCap,
		RevealStep: cfg.Voting.RevealStep,
	})

	handler := handlers.NewVotingHandler(log, votingService, clock)
	authMiddleware := middleware.NewAuthMiddleware(identity)

	httpApp := httpapp.NewApp(log, cfg.HTTP, handler, authMiddleware.Middleware(), middleware.AdminOnly(admin))

	return &App{
		log:        log,
		HTTPServer: httpApp,
		Voting:     votingService,
		storage:    storage,
		cfg:        cfg,
	}, nil
}

func NewStorage(cfg config.StorageConfig) (Storage, error) {
	switch cfg.Type {
	case config.StorageMemory, "":
		return memory.New(), nil
	case config.StorageSQLite:
		return sqlite.New(cfg.Path)
	case config.StoragePostgres:
		return postgres.New(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}

// Start восстанавливает сессию из ledger и запускает таймер фаз.
// Битая конфигурация не мешает старту: сервис ждёт setup или reset.
func (a *App) Start(ctx context.Context) error {
	const op = "app.Start"

	if err := a.Voting.Load(ctx); err != nil {
		if !errors.Is(err, domainerrors.ErrMissingConfiguration) {
			return fmt.Errorf("%s: %w", op, err)
		}
		a.log.Warn("starting without configuration", slog.String("op", op), sl.Err(err))
	}

	runCtx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	go a.Voting.Run(runCtx, a.cfg.Voting.Tick)

	return nil
}

func (a *App) Stop(ctx context.Context) error {
	if a.cancel != nil {
		a.cancel()
	}
	if err := a.HTTPServer.Stop(ctx); err != nil {
		return err
	}
	return a.storage.Close()
}
