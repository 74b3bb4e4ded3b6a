package factory

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/openmahjong/parlor/internal/api"
	"github.com/openmahjong/parlor/internal/dependencies/clock"
	"github.com/openmahjong/parlor/internal/dependencies/random"
	"github.com/openmahjong/parlor/internal/evaluator"
	"github.com/openmahjong/parlor/internal/services/bot"
	"github.com/openmahjong/parlor/internal/services/game"
	"github.com/openmahjong/parlor/internal/services/registry"
	"github.com/openmahjong/parlor/internal/services/supervisor"
	"github.com/openmahjong/parlor/internal/storage"
	"github.com/openmahjong/parlor/internal/storage/memory"
	redisstorage "github.com/openmahjong/parlor/internal/storage/redis"
	"github.com/openmahjong/parlor/internal/ws"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	Registry       *registry.Registry
	Evaluator      evaluator.Evaluator
	Brain          *bot.PatternBrain
	GameController *game.Controller
	Supervisor     *supervisor.Supervisor
	Hub            *ws.Hub

	// Router is the complete HTTP surface: websocket plus REST
	Router http.Handler
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// GameConfig holds the game timing knobs (optional)
	// If zero value, defaults to game.DefaultConfig()
	GameConfig game.Config
	// SupervisorConfig holds the disconnect grace settings (optional)
	SupervisorConfig supervisor.Config
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	clk := clock.New()
	rnd := random.New()

	gameCfg := cfg.GameConfig
	if gameCfg.BotSafetyTimeout == 0 {
		gameCfg = game.DefaultConfig()
	}
	supCfg := cfg.SupervisorConfig
	if supCfg.DisconnectGrace == 0 {
		supCfg = supervisor.DefaultConfig()
	}

	return newWithDependencies(store, clk, rnd, gameCfg, supCfg, logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.Storage,
	clk clock.Clock,
	rnd random.Random,
	gameCfg game.Config,
	supCfg supervisor.Config,
	logger *slog.Logger,
) *App {
	reg := registry.New(clk, rnd, logger)
	eval := evaluator.New()
	brain := bot.NewPatternBrain(eval)
	hub := ws.NewHub(logger)

	gameController := game.New(reg, eval, store, brain, hub, clk, rnd, logger, gameCfg)
	sup := supervisor.New(reg, hub, clk, logger, supCfg)

	wsHandler := ws.NewHandler(reg, gameController, sup, hub, clk, logger)
	wsEndpoint := ws.NewEndpoint(hub, wsHandler, logger)

	router := api.NewRouter(api.RouterConfig{
		Logger:     logger,
		Registry:   reg,
		Storage:    store,
		WSEndpoint: wsEndpoint,
	})

	return &App{
		Storage:        store,
		Clock:          clk,
		Random:         rnd,
		Registry:       reg,
		Evaluator:      eval,
		Brain:          brain,
		GameController: gameController,
		Supervisor:     sup,
		Hub:            hub,
		Router:         router,
	}
}
