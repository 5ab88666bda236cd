package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/aretw0/plotline/internal/presentation/tui"
	"github.com/aretw0/plotline/pkg/domain"
	"github.com/muesli/termenv"
	"gopkg.in/yaml.v3"
)

// ChatEngine is the part of the engine the chat drives.
type ChatEngine interface {
	Plans() []string
	Session(ctx context.Context, sessionID string) (*domain.ConversationSnapshot, error)
	DeleteSession(ctx context.Context, sessionID string) error
	Turn(ctx context.Context, sessionID string, in domain.TurnInput) (*domain.TurnResult, error)
}

// CommandKind classifies a chat line.
type CommandKind int

const (
	CmdNone CommandKind = iota
	CmdTurn
	CmdQuit
	CmdPlans
	CmdState
	CmdReset
	CmdHelp
)

const chatHelp = `Type "<intent> [slot=value ...]" to send a message.
  /plan <name> [intent]  activate a plan
  /plans                 list plans
  /state                 show the stored conversation
  /reset                 forget the conversation
  /quit                  leave`

// ParseLine turns a chat line into a command and, for turns, its input.
// Slot values are parsed as YAML scalars ("3" is a number, "true" a bool);
// "slot=" unsets the slot.
func ParseLine(line string) (CommandKind, domain.TurnInput, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return CmdNone, domain.TurnInput{}, nil
	}

	switch fields[0] {
	case "/quit", "/exit", "q", "quit", "exit":
		return CmdQuit, domain.TurnInput{}, nil
	case "/plans":
		return CmdPlans, domain.TurnInput{}, nil
	case "/state":
		return CmdState, domain.TurnInput{}, nil
	case "/reset":
		return CmdReset, domain.TurnInput{}, nil
	case "/help", "?":
		return CmdHelp, domain.TurnInput{}, nil
	case "/plan":
		if len(fields) < 2 {
			return CmdNone, domain.TurnInput{}, errors.New("usage: /plan <name> [intent]")
		}
		in := domain.TurnInput{Plan: fields[1], Intent: domain.IntentPlanPrefix + fields[1]}
		if len(fields) > 2 {
			in.Intent = fields[2]
		}
		return CmdTurn, in, nil
	}
	if strings.HasPrefix(fields[0], "/") {
		return CmdNone, domain.TurnInput{}, fmt.Errorf("unknown command %s", fields[0])
	}

	in := domain.TurnInput{Intent: fields[0]}
	for _, f := range fields[1:] {
		key, raw, ok := strings.Cut(f, "=")
		if !ok || key == "" {
			return CmdNone, domain.TurnInput{}, fmt.Errorf("expected slot=value, got %q", f)
		}
		if in.Slots == nil {
			in.Slots = make(map[string]any)
		}
		if raw == "" {
			in.Slots[key] = nil
			continue
		}
		var value any
		if err := yaml.Unmarshal([]byte(raw), &value); err != nil {
			value = raw
		}
		in.Slots[key] = value
	}
	return CmdTurn, in, nil
}

// Chat is an interactive session over a line-oriented stream.
type Chat struct {
	engine  ChatEngine
	opts    ChatOptions
	out     io.Writer
	mu      sync.Mutex // Serializes writes to out (watch notifications run concurrently)
	profile termenv.Profile
	logger  *slog.Logger
}

// NewChat creates a chat writing to out.
func NewChat(engine ChatEngine, out io.Writer, opts ChatOptions, logger *slog.Logger) *Chat {
	return &Chat{
		engine:  engine,
		opts:    opts,
		out:     out,
		profile: termenv.Ascii,
		logger:  logger,
	}
}

// WithProfile sets the color profile used for actions.
func (c *Chat) WithProfile(profile termenv.Profile) *Chat {
	c.profile = profile
	return c
}

// Notify prints a system message between turns.
func (c *Chat) Notify(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	printSystemMessage(c.out, format, args...)
}

// Run reads lines from in until EOF, a quit command or ctx is done.
func (c *Chat) Run(ctx context.Context, in io.Reader) error {
	if c.opts.Fresh {
		if err := c.engine.DeleteSession(ctx, c.opts.SessionID); err != nil {
			return err
		}
	}

	lines := readLines(ctx, in)

	if c.opts.Plan != "" {
		if err := c.turn(ctx, domain.TurnInput{Plan: c.opts.Plan, Intent: domain.IntentPlanPrefix + c.opts.Plan}); err != nil {
			return err
		}
	}

	for {
		c.prompt()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return io.EOF
			}
			quit, err := c.handle(ctx, line)
			if err != nil {
				return err
			}
			if quit {
				return nil
			}
		}
	}
}

func (c *Chat) prompt() {
	if c.opts.JSON || c.opts.Quiet {
		return
	}
	c.mu.Lock()
	fmt.Fprint(c.out, "> ")
	c.mu.Unlock()
}

// handle processes one line. Only failures of the output stream end the chat;
// engine errors are reported and the chat continues.
func (c *Chat) handle(ctx context.Context, line string) (bool, error) {
	if c.opts.JSON {
		if strings.TrimSpace(line) == "" {
			return false, nil
		}
		var in domain.TurnInput
		if err := json.Unmarshal([]byte(line), &in); err != nil {
			return false, c.writeJSON(map[string]string{"error": "invalid input: " + err.Error()})
		}
		return false, c.turn(ctx, in)
	}

	kind, in, err := ParseLine(line)
	if err != nil {
		c.Notify("%v", err)
		return false, nil
	}

	switch kind {
	case CmdQuit:
		return true, nil
	case CmdHelp:
		c.Notify("%s", chatHelp)
	case CmdPlans:
		c.Notify("Plans: %s", strings.Join(c.engine.Plans(), ", "))
	case CmdReset:
		if err := c.engine.DeleteSession(ctx, c.opts.SessionID); err != nil {
			c.Notify("reset failed: %v", err)
		} else {
			c.Notify("Session '%s' reset.", c.opts.SessionID)
		}
	case CmdState:
		snap, err := c.engine.Session(ctx, c.opts.SessionID)
		if err != nil {
			c.Notify("%v", err)
			break
		}
		data, _ := json.MarshalIndent(snap, "", "  ")
		c.mu.Lock()
		fmt.Fprintln(c.out, string(data))
		c.mu.Unlock()
	case CmdTurn:
		return false, c.turn(ctx, in)
	}
	return false, nil
}

func (c *Chat) turn(ctx context.Context, in domain.TurnInput) error {
	res, err := c.engine.Turn(ctx, c.opts.SessionID, in)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.logger.Debug("turn failed", "session_id", c.opts.SessionID, "err", err)
		if c.opts.JSON {
			return c.writeJSON(map[string]string{"error": err.Error()})
		}
		c.Notify("error: %v", err)
		return nil
	}

	if c.opts.JSON {
		return c.writeJSON(res)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprint(c.out, tui.FormatActions(c.profile, res.Actions))
	if res.Diff != nil && len(res.Diff.Slots) > 0 {
		data, _ := json.Marshal(res.Diff.Slots)
		fmt.Fprintf(c.out, "  %s\n", termenv.String("slots "+string(data)).Faint())
	}
	return nil
}

func (c *Chat) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return json.NewEncoder(c.out).Encode(v)
}

// readLines pumps in into a channel so reads never block cancellation.
func readLines(ctx context.Context, in io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return lines
}
