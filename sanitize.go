package plotline

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/aretw0/plotline/pkg/domain"
)

// DefaultMaxInputSize is 4KB per string.
const DefaultMaxInputSize = 4096

// EnvMaxInputSize overrides DefaultMaxInputSize.
const EnvMaxInputSize = "PLOTLINE_MAX_INPUT_SIZE"

var (
	ErrInputTooLarge = fmt.Errorf("%w: exceeds maximum allowed size", domain.ErrInvalidInput)
	ErrInvalidUTF8   = fmt.Errorf("%w: contains invalid UTF-8 sequences", domain.ErrInvalidInput)
)

// SanitizeInput cleans a turn input before it reaches the tracker.
// The intent, the requested plan, slot names and string slot values must be
// valid UTF-8 within limit bytes; control characters other than newline, tab
// and carriage return are stripped. Oversized input is rejected, never truncated.
func SanitizeInput(in domain.TurnInput, limit int) (domain.TurnInput, error) {
	if limit <= 0 {
		limit = DefaultMaxInputSize
	}

	var err error
	out := domain.TurnInput{}
	if out.Intent, err = sanitizeString("intent", in.Intent, limit); err != nil {
		return domain.TurnInput{}, err
	}
	if out.Plan, err = sanitizeString("plan", in.Plan, limit); err != nil {
		return domain.TurnInput{}, err
	}
	if in.Slots == nil {
		return out, nil
	}

	out.Slots = make(map[string]any, len(in.Slots))
	for k, v := range in.Slots {
		key, err := sanitizeString("slot name", k, limit)
		if err != nil {
			return domain.TurnInput{}, err
		}
		if s, ok := v.(string); ok {
			if v, err = sanitizeString("slot "+key, s, limit); err != nil {
				return domain.TurnInput{}, err
			}
		}
		out.Slots[key] = v
	}
	return out, nil
}

func sanitizeString(field, input string, limit int) (string, error) {
	if len(input) > limit {
		return "", fmt.Errorf("%s: %w: size=%d limit=%d", field, ErrInputTooLarge, len(input), limit)
	}
	if !utf8.ValidString(input) {
		return "", fmt.Errorf("%s: %w", field, ErrInvalidUTF8)
	}

	// Fast path: nothing to strip.
	if strings.IndexFunc(input, isUnsafeControl) < 0 {
		return input, nil
	}

	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		if !isUnsafeControl(r) {
			b.WriteRune(r)
		}
	}
	return b.String(), nil
}

// isUnsafeControl matches ANSI escapes, NUL, BEL and friends.
func isUnsafeControl(r rune) bool {
	return unicode.IsControl(r) && r != '\n' && r != '\t' && r != '\r'
}

func maxInputSizeFromEnv() int {
	if val := os.Getenv(EnvMaxInputSize); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return DefaultMaxInputSize
}
