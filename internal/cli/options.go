package cli

import (
	"time"
)

// Options contains the configuration shared by the commands that build an engine.
type Options struct {
	Dir         string // Loam repository with plan documents
	File        string // YAML/JSON bundle file (or directory of bundles)
	ActionsPath string // Process-backed actions config
	RedisURL    string
	TTL         time.Duration
	MaxActions  int
	Debug       bool
	LogLevel    string

	// EncryptionKey (hex or base64, 32 bytes) enables encryption at rest.
	EncryptionKey string

	// MaskSlots lists regex patterns of slot names masked before persisting.
	MaskSlots []string
}

// ChatOptions configures the interactive chat.
type ChatOptions struct {
	SessionID string
	Plan      string // Activated on the first turn
	JSON      bool   // JSONL in, JSONL out
	Fresh     bool   // Discard any stored session first
	Watch     bool   // Reload definitions on change
	Quiet     bool
}
