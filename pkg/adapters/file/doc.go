// Package file provides filesystem adapters: a YAML/JSON definition loader
// and a JSON-per-session StateStore.
package file
