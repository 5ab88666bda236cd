package plotline

import (
	_ "embed"
	"strings"
)

//go:embed VERSION
var rawVersion string

// Version is the release of the Plotline module.
var Version = strings.TrimSpace(rawVersion)
