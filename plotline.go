package plotline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/aretw0/loam"
	"github.com/aretw0/plotline/internal/logging"
	"github.com/aretw0/plotline/pkg/adapters/file"
	loamAdapter "github.com/aretw0/plotline/pkg/adapters/loam"
	"github.com/aretw0/plotline/pkg/adapters/memory"
	"github.com/aretw0/plotline/pkg/domain"
	"github.com/aretw0/plotline/pkg/observability"
	"github.com/aretw0/plotline/pkg/plan"
	"github.com/aretw0/plotline/pkg/ports"
	"github.com/aretw0/plotline/pkg/registry"
	"github.com/aretw0/plotline/pkg/script"
	"github.com/aretw0/plotline/pkg/session"
	"github.com/aretw0/plotline/pkg/tracker"
)

// Engine is the high-level entry point for the Plotline library.
// It owns the plan catalog, the action registry and the session manager,
// and drives conversations one turn at a time.
type Engine struct {
	loader          ports.DefinitionLoader
	definitionsDir  string
	definitionsFile string
	codeBranches    map[string]plan.BranchFactory
	extraActions    []string
	handlers        map[string]registry.ActionFunc
	planOpts        []plan.Option

	store   ports.StateStore
	locker  ports.DistributedLocker
	lockTTL time.Duration

	hooks        domain.LifecycleHooks
	metrics      *observability.Metrics
	logger       *slog.Logger
	maxActions   int
	maxInputSize int

	catalog  *plan.Catalog // explicit catalog from WithCatalog
	current  atomic.Pointer[compiled]
	sessions *session.Manager

	Name string
}

// compiled is everything derived from one load of the definitions.
type compiled struct {
	catalog  *plan.Catalog
	registry *registry.Registry
	branches []domain.BranchDefinition
}

// New initializes a new Engine. Exactly one definition source is required:
// WithCatalog, WithLoader, WithDefinitionsDir or WithDefinitionsFile.
func New(opts ...Option) (*Engine, error) {
	eng := &Engine{
		codeBranches: make(map[string]plan.BranchFactory),
		handlers:     make(map[string]registry.ActionFunc),
		maxActions:   DefaultMaxActionsPerTurn,
		maxInputSize: maxInputSizeFromEnv(),
	}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}

	if err := eng.resolveLoader(); err != nil {
		return nil, err
	}
	if eng.Name != "" {
		eng.logger = eng.logger.With("definitions", eng.Name)
	}

	if eng.store == nil {
		eng.store = memory.NewStore()
	}
	sessionOpts := []session.Option{session.WithLogger(eng.logger)}
	if eng.locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(eng.locker), session.WithLockTTL(eng.lockTTL))
	}
	eng.sessions = session.NewManager(eng.store, sessionOpts...)

	if err := eng.Reload(context.Background()); err != nil {
		return nil, err
	}
	return eng, nil
}

func (e *Engine) resolveLoader() error {
	sources := 0
	for _, set := range []bool{e.catalog != nil, e.loader != nil, e.definitionsDir != "", e.definitionsFile != ""} {
		if set {
			sources++
		}
	}
	switch {
	case sources == 0:
		return fmt.Errorf("a definition source is required (catalog, loader, directory or file)")
	case sources > 1:
		return fmt.Errorf("only one definition source may be configured")
	}

	switch {
	case e.definitionsDir != "":
		absPath, err := filepath.Abs(e.definitionsDir)
		if err != nil {
			return fmt.Errorf("invalid path: %w", err)
		}
		e.Name = filepath.Base(absPath)

		// Strict mode keeps numeric types consistent across Markdown, YAML and JSON documents.
		repo, err := loam.Init(absPath,
			loam.WithStrict(true),
			loam.WithReadOnly(true),
		)
		if err != nil {
			return fmt.Errorf("failed to initialize loam: %w", err)
		}
		e.loader = loamAdapter.New(loam.NewTypedRepository[loamAdapter.DocumentMetadata](repo))

	case e.definitionsFile != "":
		e.Name = filepath.Base(e.definitionsFile)
		e.loader = file.NewLoader(e.definitionsFile)
	}
	return nil
}

// Reload rebuilds the catalog and the action registry from the definition source.
// Sessions keep their state; their active plans are re-instantiated from the new
// definitions on their next turn.
func (e *Engine) Reload(ctx context.Context) error {
	c := e.catalog
	var extra []string
	var declared []domain.BranchDefinition

	if c == nil {
		bundle, err := e.loader.Load(ctx)
		if err != nil {
			return fmt.Errorf("failed to load definitions: %w", err)
		}

		branches := plan.NewBranchRegistry()
		for name, factory := range e.codeBranches {
			branches.Register(name, factory)
		}
		if err := script.Register(branches, bundle.Branches, script.WithLogger(e.logger)); err != nil {
			return err
		}

		c = plan.NewCatalog(branches, append([]plan.Option{plan.WithLogger(e.logger)}, e.planOpts...)...)
		for _, def := range bundle.Plans {
			if err := c.Add(def); err != nil {
				return err
			}
		}
		for name, text := range bundle.Descriptions {
			c.SetDescription(name, text)
		}

		extra = append(extra, script.Actions(bundle.Branches)...)
		extra = append(extra, bundle.Actions...)
		declared = bundle.Branches
	}
	extra = append(extra, e.extraActions...)

	reg := registry.FromCatalog(c, extra...)
	reg.Register(domain.ActionActivatePlan, plan.NewActivateAction(c, e.logger).Run)
	reg.Register(domain.ActionDeactivatePlan, plan.NewCompleteAction(e.logger).Run)
	for name, fn := range e.handlers {
		reg.Register(name, fn)
	}

	e.current.Store(&compiled{catalog: c, registry: reg, branches: declared})
	e.logger.Debug("definitions loaded", "plans", len(c.Names()), "actions", reg.Len())
	return nil
}

// Watch returns a channel that signals when the underlying definitions change.
// Returns error if the loader does not support watching.
func (e *Engine) Watch(ctx context.Context) (<-chan string, error) {
	if w, ok := e.loader.(ports.Watchable); ok {
		return w.Watch(ctx)
	}
	return nil, fmt.Errorf("current loader does not support watching")
}

// Catalog returns the current plan catalog.
func (e *Engine) Catalog() *plan.Catalog { return e.current.Load().catalog }

// Registry returns the current action registry.
func (e *Engine) Registry() *registry.Registry { return e.current.Load().registry }

// Branches returns the declarative branches of the last load.
func (e *Engine) Branches() []domain.BranchDefinition { return e.current.Load().branches }

// Sessions returns the session manager.
func (e *Engine) Sessions() *session.Manager { return e.sessions }

// Metrics returns the metrics configured with WithMetrics, or nil.
func (e *Engine) Metrics() *observability.Metrics { return e.metrics }

// Plans returns the registered plan names, sorted.
func (e *Engine) Plans() []string { return e.Catalog().Names() }

// Describe returns the definition, description and directly emitted actions of a plan.
func (e *Engine) Describe(name string) (domain.PlanInfo, error) {
	c := e.Catalog()
	def, err := c.Definition(name)
	if err != nil {
		return domain.PlanInfo{}, err
	}
	return domain.PlanInfo{
		Name:        name,
		Kind:        def.Kind,
		Description: c.Description(name),
		Actions:     def.Actions(),
		Definition:  def,
	}, nil
}

// Decide asks the active plan for the next action. Without an active plan the
// engine listens.
func (e *Engine) Decide(ctx context.Context, conv *tracker.Conversation) (plan.Decision, error) {
	reg := e.Registry()

	p := conv.ActivePlan()
	if p == nil {
		idx, err := reg.ActionIndex(domain.ActionListen)
		if err != nil {
			return plan.Decision{}, err
		}
		return plan.Decision{Action: domain.ActionListen, Index: idx, Reason: plan.ReasonIdle}, nil
	}

	start := time.Now()
	d, err := p.Decide(ctx, conv, reg)
	if e.hooks.OnDecision != nil {
		e.hooks.OnDecision(ctx, &domain.DecisionEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventDecision, SessionID: conv.SessionID()},
			Plan:      p.Name(),
			Action:    d.Action,
			Reason:    string(d.Reason),
			Duration:  time.Since(start),
			Err:       err,
		})
	}
	return d, err
}

// Execute runs an action against the conversation: its handler's events are
// applied and the action becomes the latest one.
func (e *Engine) Execute(ctx context.Context, conv *tracker.Conversation, action string) error {
	previous := conv.ActivePlan()

	events, err := e.Registry().Execute(ctx, action, conv)
	if err != nil {
		return err
	}
	conv.RecordAction(action)
	conv.Apply(events...)

	now := time.Now()
	base := func(t domain.EventType) domain.EventBase {
		return domain.EventBase{Timestamp: now, Type: t, SessionID: conv.SessionID()}
	}

	if e.hooks.OnActionExecuted != nil {
		e.hooks.OnActionExecuted(ctx, &domain.ActionEvent{EventBase: base(domain.EventActionExecuted), Action: action})
	}
	for _, ev := range events {
		switch ev := ev.(type) {
		case plan.PlanActivated:
			if e.hooks.OnPlanActivated != nil {
				e.hooks.OnPlanActivated(ctx, &domain.PlanEvent{EventBase: base(domain.EventPlanActivated), Plan: ev.Plan.Name()})
			}
		case plan.PlanDeactivated:
			if e.hooks.OnPlanDeactivated != nil && previous != nil {
				complete, _ := conv.SlotValue(domain.SlotPlanComplete)
				e.hooks.OnPlanDeactivated(ctx, &domain.PlanEvent{
					EventBase: base(domain.EventPlanDeactivated),
					Plan:      previous.Name(),
					Complete:  complete == true,
				})
			}
		}
	}
	return nil
}

// Turn processes one user message for sessionID under the session lock: the
// conversation is loaded (or created), in is applied, and the engine alternates
// Decide and Execute until the active plan listens. When a plan finishes,
// quits or is aborted by an exit intent, that action is followed by deactivate_plan. The conversation is
// persisted only if the turn succeeds.
func (e *Engine) Turn(ctx context.Context, sessionID string, in domain.TurnInput) (*domain.TurnResult, error) {
	in, err := SanitizeInput(in, e.maxInputSize)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}

	var result *domain.TurnResult

	err = e.sessions.WithLock(ctx, sessionID, func(ctx context.Context) error {
		store := e.sessions.Store()

		before, err := session.LoadOrCreate(ctx, store, sessionID)
		if err != nil {
			return err
		}
		conv, err := tracker.Restore(before, e.Catalog())
		if err != nil {
			return err
		}

		for slot, value := range in.Slots {
			conv.SetSlot(slot, value)
		}
		conv.SetIntent(in.Intent)

		var executed []domain.ExecutedAction
		run := func(action string, reason plan.Reason) error {
			if len(executed) >= e.maxActions {
				return fmt.Errorf("session %s: %w (%d)", sessionID, domain.ErrTurnLimit, e.maxActions)
			}
			planName := ""
			if p := conv.ActivePlan(); p != nil {
				planName = p.Name()
			}
			if err := e.Execute(ctx, conv, action); err != nil {
				return err
			}
			executed = append(executed, domain.ExecutedAction{Action: action, Reason: string(reason), Plan: planName})
			return nil
		}

		if in.Plan != "" {
			conv.SetSlot(domain.SlotRequestedPlan, in.Plan)
			if err := run(domain.ActionActivatePlan, plan.ReasonInvoke); err != nil {
				return err
			}
		}

		for {
			d, err := e.Decide(ctx, conv)
			if err != nil {
				return err
			}
			if d.Action == domain.ActionListen {
				break
			}
			if err := run(d.Action, d.Reason); err != nil {
				return err
			}
			if endsPlan(d.Reason) {
				if err := run(domain.ActionDeactivatePlan, d.Reason); err != nil {
					return err
				}
			}
		}

		after := conv.Snapshot()
		if err := store.Save(ctx, sessionID, after); err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}

		result = &domain.TurnResult{
			SessionID: sessionID,
			Actions:   executed,
			State:     after,
			Diff:      domain.Diff(before, after),
		}
		return nil
	})
	if err != nil {
		e.logger.Warn("turn failed", "session_id", sessionID, "err", err)
		return nil, err
	}

	e.logger.Debug("turn complete", "session_id", sessionID, "actions", len(result.Actions))
	return result, nil
}

// endsPlan reports whether a decision with reason closes the active plan.
func endsPlan(reason plan.Reason) bool {
	switch reason {
	case plan.ReasonFinish, plan.ReasonQuit, plan.ReasonExit:
		return true
	}
	return false
}

// Session returns the stored conversation for sessionID.
func (e *Engine) Session(ctx context.Context, sessionID string) (*domain.ConversationSnapshot, error) {
	return e.sessions.Load(ctx, sessionID)
}

// StartSession creates an empty conversation, failing if it already exists.
func (e *Engine) StartSession(ctx context.Context, sessionID string) (*domain.ConversationSnapshot, error) {
	var snap *domain.ConversationSnapshot
	err := e.sessions.WithLock(ctx, sessionID, func(ctx context.Context) error {
		store := e.sessions.Store()
		if _, err := store.Load(ctx, sessionID); err == nil {
			return fmt.Errorf("%w: %s", domain.ErrSessionExists, sessionID)
		} else if !errors.Is(err, domain.ErrSessionNotFound) {
			return err
		}
		var err error
		snap, err = session.LoadOrCreate(ctx, store, sessionID)
		return err
	})
	return snap, err
}

// DeleteSession removes a conversation.
func (e *Engine) DeleteSession(ctx context.Context, sessionID string) error {
	return e.sessions.Delete(ctx, sessionID)
}

// ListSessions returns the stored session IDs.
func (e *Engine) ListSessions(ctx context.Context) ([]string, error) {
	return e.sessions.List(ctx)
}
