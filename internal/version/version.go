package version

import (
	"strings"

	"github.com/fatih/color"
)

// Build metadata for the lumen CLI, overridable via -ldflags. Version
// stays a plain string so JSON output and cache keys never carry
// escape codes; Pretty colors it at call time.

var (
	// Version is the semantic version of the CLI.
	Version = "0.1.0-dev"

	// GitCommit is an optional git commit hash.
	GitCommit = ""

	// GitMessage is an optional git commit message.
	GitMessage = ""

	// BuildDate is an optional build date in ISO-8601.
	BuildDate = ""
)

var segmentColors = []*color.Color{
	color.New(color.FgYellow, color.Bold),
	color.New(color.FgGreen, color.Bold),
	color.New(color.FgBlue, color.Bold),
}

// Pretty renders Version with each dotted segment in its own color.
// Pre-release suffixes stay attached to the segment that carries them.
func Pretty() string {
	parts := strings.SplitN(Version, ".", len(segmentColors))
	for i, part := range parts {
		parts[i] = segmentColors[i%len(segmentColors)].Sprint(part)
	}
	return strings.Join(parts, ".")
}
