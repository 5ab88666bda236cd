package process

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os/exec"
	"slices"
	"strings"
	"time"

	"github.com/aretw0/plotline/internal/logging"
	"github.com/aretw0/plotline/pkg/plan"
	"github.com/aretw0/plotline/pkg/registry"
)

// ErrNotRegistered is returned when running an action that has no command.
var ErrNotRegistered = errors.New("process action not registered")

// Environment variables passed to every command.
const (
	EnvAction     = "PLOTLINE_ACTION"
	EnvIntent     = "PLOTLINE_INTENT"
	EnvSlotPrefix = "PLOTLINE_SLOT_"
)

// Runner executes actions as local processes.
// Only registered commands run; slot values are never passed as command flags.
type Runner struct {
	registry map[string]ActionConfig
	baseDir  string
	timeout  time.Duration
	logger   *slog.Logger
}

// RunnerOption configures the runner.
type RunnerOption func(*Runner)

// WithRegistry populates the allow-list from a loaded config.
func WithRegistry(actions map[string]ActionConfig) RunnerOption {
	return func(r *Runner) {
		for name, a := range actions {
			a.Name = name
			r.registry[name] = a
		}
	}
}

// WithBaseDir sets the working directory for executed processes.
func WithBaseDir(dir string) RunnerOption {
	return func(r *Runner) {
		r.baseDir = dir
	}
}

// WithTimeout bounds every execution that does not declare its own timeout.
func WithTimeout(d time.Duration) RunnerOption {
	return func(r *Runner) {
		r.timeout = d
	}
}

// WithLogger sets the runner logger.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRunner creates a new process runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		registry: make(map[string]ActionConfig),
		timeout:  30 * time.Second,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a trusted command to the allow-list.
func (r *Runner) Register(name string, command string, args ...string) {
	r.registry[name] = ActionConfig{Name: name, Command: command, Args: args}
}

// Names lists the registered actions, sorted.
func (r *Runner) Names() []string {
	return slices.Sorted(maps.Keys(r.registry))
}

// Handler returns the action implementation for name.
func (r *Runner) Handler(name string) registry.ActionFunc {
	return func(ctx context.Context, s plan.Session) ([]plan.Event, error) {
		updates, err := r.Run(ctx, name, s.LatestIntent(), s.SlotValues())
		if err != nil {
			return nil, err
		}
		events := make([]plan.Event, 0, len(updates))
		for _, slot := range slices.Sorted(maps.Keys(updates)) {
			events = append(events, plan.SlotSet{Slot: slot, Value: updates[slot]})
		}
		return events, nil
	}
}

// Handlers returns a handler for every registered action.
func (r *Runner) Handlers() map[string]registry.ActionFunc {
	out := make(map[string]registry.ActionFunc, len(r.registry))
	for name := range r.registry {
		out[name] = r.Handler(name)
	}
	return out
}

// Run executes the command registered for name.
// Slots are passed as PLOTLINE_SLOT_<NAME> variables. If the command prints a JSON
// object, its members are returned as slot updates; any other output is ignored.
func (r *Runner) Run(ctx context.Context, name, intent string, slots map[string]any) (map[string]any, error) {
	cfg, ok := r.registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotRegistered, name)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = r.timeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, cfg.Command, cfg.Args...)
	cmd.Dir = r.baseDir

	env := []string{EnvAction + "=" + name, EnvIntent + "=" + intent}
	for k, v := range cfg.Environment {
		env = append(env, k+"="+v)
	}
	for k, v := range slots {
		env = append(env, EnvSlotPrefix+strings.ToUpper(k)+"="+envValue(v))
	}
	cmd.Env = append(cmd.Environ(), env...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("action %s: %w", name, ctx.Err())
		}
		return nil, fmt.Errorf("action %s: execution failed: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	r.logger.Debug("process action finished", "action", name, "duration", time.Since(start))

	trimmed := strings.TrimSpace(stdout.String())
	if !strings.HasPrefix(trimmed, "{") {
		return nil, nil
	}
	var updates map[string]any
	if err := json.Unmarshal([]byte(trimmed), &updates); err != nil {
		r.logger.Warn("process action printed malformed JSON", "action", name, "err", err)
		return nil, nil
	}
	return updates, nil
}

// envValue renders primitives as text and everything else as JSON.
func envValue(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case int, int64, float64, bool:
		return fmt.Sprint(v)
	}
	if data, err := json.Marshal(v); err == nil {
		return string(data)
	}
	return fmt.Sprint(v)
}
