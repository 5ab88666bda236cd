package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aretw0/plotline"
	"github.com/aretw0/plotline/pkg/adapters/memory"
	"github.com/aretw0/plotline/pkg/adapters/process"
	redisAdapter "github.com/aretw0/plotline/pkg/adapters/redis"
	"github.com/aretw0/plotline/pkg/observability"
	"github.com/aretw0/plotline/pkg/persistence/middleware"
	"github.com/aretw0/plotline/pkg/ports"
	"github.com/redis/go-redis/v9"
)

// DefaultActionsFile is picked up from the definitions directory when no actions config is given.
const DefaultActionsFile = "actions.yaml"

// CreateEngine initializes a Plotline engine with standard CLI conventions.
// The returned cleanup closes any external connections.
func CreateEngine(ctx context.Context, opts Options, logger *slog.Logger, extra ...plotline.Option) (*plotline.Engine, func(), error) {
	cleanup := func() {}
	engineOpts := []plotline.Option{plotline.WithLogger(logger)}

	// 1. Definitions: file bundle wins over the Loam directory.
	switch {
	case opts.File != "":
		engineOpts = append(engineOpts, plotline.WithDefinitionsFile(opts.File))
	default:
		dir := opts.Dir
		if dir == "" {
			dir = "."
		}
		engineOpts = append(engineOpts, plotline.WithDefinitionsDir(dir))
	}

	if opts.Debug {
		engineOpts = append(engineOpts, plotline.WithHooks(observability.LoggingHooks(logger)))
	}
	if opts.MaxActions > 0 {
		engineOpts = append(engineOpts, plotline.WithMaxActionsPerTurn(opts.MaxActions))
	}

	// 2. Smart Convention: actions.yaml next to the definitions.
	actionsPath := resolveActionsPath(opts)
	if actionsPath != "" {
		actions, err := process.LoadActions(actionsPath)
		if err != nil {
			return nil, cleanup, err
		}
		runner := process.NewRunner(
			process.WithRegistry(actions),
			process.WithBaseDir(filepath.Dir(actionsPath)),
			process.WithLogger(logger),
		)
		for name, fn := range runner.Handlers() {
			engineOpts = append(engineOpts, plotline.WithActionHandler(name, fn))
		}
		if len(actions) > 0 {
			logger.Debug("process actions registered", "path", actionsPath, "actions", runner.Names())
		}
	}

	// 3. Persistence
	var store ports.StateStore = memory.NewStore()
	if opts.RedisURL != "" {
		redisOpts, err := redis.ParseURL(opts.RedisURL)
		if err != nil {
			return nil, cleanup, fmt.Errorf("invalid redis url: %w", err)
		}
		client := redis.NewClient(redisOpts)
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, cleanup, fmt.Errorf("failed to connect to redis: %w", err)
		}
		redisStore := redisAdapter.NewFromClient(client, redisAdapter.WithTTL(opts.TTL))
		store = redisStore
		engineOpts = append(engineOpts, plotline.WithLocker(redisAdapter.NewLocker(client, "plotline:lock:"), 0))
		cleanup = func() { _ = redisStore.Close() }
		logger.Info("using redis session store", "addr", redisOpts.Addr, "ttl", opts.TTL)
	}

	mws, err := storeMiddlewares(opts)
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}
	engineOpts = append(engineOpts, plotline.WithStore(middleware.Chain(store, mws...)))

	engineOpts = append(engineOpts, extra...)

	// 4. Initialize
	engine, err := plotline.New(engineOpts...)
	if err != nil {
		cleanup()
		return nil, func() {}, fmt.Errorf("error initializing engine: %w", err)
	}
	return engine, cleanup, nil
}

// storeMiddlewares builds the persistence middlewares requested by opts.
// Masking runs before encryption so masked values never reach the ciphertext.
func storeMiddlewares(opts Options) ([]middleware.Middleware, error) {
	var mws []middleware.Middleware
	if len(opts.MaskSlots) > 0 {
		pii, err := middleware.NewPIIMiddleware(opts.MaskSlots)
		if err != nil {
			return nil, err
		}
		mws = append(mws, pii)
	}
	if opts.EncryptionKey != "" {
		key, err := middleware.ParseKey(opts.EncryptionKey)
		if err != nil {
			return nil, fmt.Errorf("invalid encryption key: %w", err)
		}
		enc, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})
		if err != nil {
			return nil, err
		}
		mws = append(mws, enc)
	}
	return mws, nil
}

// resolveActionsPath returns the explicit actions config, or the conventional
// one inside the definitions directory if it exists.
func resolveActionsPath(opts Options) string {
	if opts.ActionsPath != "" {
		return opts.ActionsPath
	}
	base := opts.Dir
	if opts.File != "" {
		base = filepath.Dir(opts.File)
	}
	if base == "" {
		base = "."
	}
	candidate := filepath.Join(base, DefaultActionsFile)
	if _, err := os.Stat(candidate); err == nil {
		return candidate
	}
	return ""
}
