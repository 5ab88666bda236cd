package loam

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aretw0/loam"
	"github.com/aretw0/plotline/pkg/domain"
)

// Loader adapts a Loam repository to the ports.DefinitionLoader interface.
type Loader struct {
	Repo *loam.TypedRepository[DocumentMetadata]
}

// New creates a new Loam adapter.
func New(repo *loam.TypedRepository[DocumentMetadata]) *Loader {
	return &Loader{
		Repo: repo,
	}
}

// Load reads every document in the repository and assembles a bundle.
func (l *Loader) Load(ctx context.Context) (*domain.Bundle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	docs, err := l.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	bundle := &domain.Bundle{Descriptions: make(map[string]string)}
	seen := make(map[string]string)

	for _, doc := range docs {
		meta := doc.Data
		name := meta.Name
		if name == "" {
			name = trimExtension(doc.ID)
		}

		kind := meta.Kind
		if kind == "" {
			kind = KindPlan
		}

		switch kind {
		case KindPlan:
			key := "plan:" + name
			if existing, ok := seen[key]; ok {
				return nil, fmt.Errorf("collision detected: plan '%s' is defined in both '%s' and '%s'", name, existing, doc.ID)
			}
			seen[key] = doc.ID

			def, err := decodePlan(name, meta)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", doc.ID, err)
			}
			bundle.Plans = append(bundle.Plans, def)

			// List carries metadata only; the body needs a Get.
			full, err := l.Repo.Get(ctx, doc.ID)
			if err != nil {
				return nil, fmt.Errorf("loam get failed for %s: %w", doc.ID, err)
			}
			if desc := strings.TrimSpace(full.Content); desc != "" {
				bundle.Descriptions[name] = desc
			}

		case KindBranch:
			key := "branch:" + name
			if existing, ok := seen[key]; ok {
				return nil, fmt.Errorf("collision detected: branch '%s' is defined in both '%s' and '%s'", name, existing, doc.ID)
			}
			seen[key] = doc.ID
			bundle.Branches = append(bundle.Branches, decodeBranch(name, meta))

		case KindActions:
			bundle.Actions = append(bundle.Actions, meta.Actions...)

		default:
			return nil, fmt.Errorf("%s: unsupported document kind %q", doc.ID, kind)
		}
	}

	return bundle, nil
}

func decodePlan(name string, meta DocumentMetadata) (domain.PlanDefinition, error) {
	raw := map[string]any{
		"type":             meta.Type,
		"name":             name,
		"start_checkpoint": meta.StartCheckpoint,
		"finish_action":    meta.FinishAction,
		"exit_dict":        meta.ExitDict,
		"chitchat_dict":    meta.ChitchatDict,
		"optional_slots":   meta.OptionalSlots,
		"details_intent":   meta.DetailsIntent,
		"subject":          meta.Subject,
	}

	branches := meta.Branches
	if len(branches) == 0 {
		branches = meta.BranchesList
	}
	raw["branches"] = branches

	if len(meta.RequiredSlots) > 0 {
		slots, err := normalizeSlotTypes(meta.RequiredSlots)
		if err != nil {
			return domain.PlanDefinition{}, err
		}
		raw["required_slots"] = slots
	}
	if len(meta.Rules) > 0 {
		raw["rules"] = meta.Rules
	}

	return domain.DecodeDefinition(raw)
}

func decodeBranch(name string, meta DocumentMetadata) domain.BranchDefinition {
	steps := make([]domain.BranchStep, 0, len(meta.Steps))
	for _, s := range meta.Steps {
		steps = append(steps, domain.BranchStep{When: s.When, Do: s.Do})
	}
	return domain.BranchDefinition{Name: name, Steps: steps}
}

func normalizeSlotTypes(raw map[string]any) (map[string]string, error) {
	normalized := make(map[string]string, len(raw))
	for key, value := range raw {
		typeStr, err := formatSlotType(value)
		if err != nil {
			return nil, &domain.DefinitionError{Field: "required_slots." + key, Reason: err.Error()}
		}
		normalized[key] = typeStr
	}
	return normalized, nil
}

func formatSlotType(value any) (string, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case []any:
		if len(v) != 1 {
			return "", fmt.Errorf("expected single element list for list type")
		}
		inner, err := formatSlotType(v[0])
		if err != nil {
			return "", err
		}
		return "[" + inner + "]", nil
	case []string:
		if len(v) != 1 {
			return "", fmt.Errorf("expected single element list for list type")
		}
		return "[" + v[0] + "]", nil
	default:
		return "", fmt.Errorf("expected string or list, got %T", value)
	}
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}

// Watch emits the ID of every changed document until ctx is cancelled.
func (l *Loader) Watch(ctx context.Context) (<-chan string, error) {
	events, err := l.Repo.Watch(ctx, "**/*.{md,json,yaml,yml}")
	if err != nil {
		return nil, fmt.Errorf("failed to start loam watcher: %w", err)
	}

	ch := make(chan string, 1)

	go func() {
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-events:
				if !ok {
					return
				}
				select {
				case ch <- evt.ID:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return ch, nil
}
