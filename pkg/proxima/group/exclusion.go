package group

import (
	"fmt"

	"github.com/cognicore/proxima/pkg/proxima/internalerr"
)

// ExclusionMode decides which groups veto a window centered on another group.
type ExclusionMode string

const (
	// ExcludeBinary makes Female and Male exclude each other and leaves every
	// other group without exclusions.
	ExcludeBinary ExclusionMode = "binary"
	// ExcludeAll makes every group exclude every other group.
	ExcludeAll ExclusionMode = "all"
	// ExcludeNone disables exclusions.
	ExcludeNone ExclusionMode = "none"
)

// ParseExclusionMode validates a mode name; empty means ExcludeBinary.
func ParseExclusionMode(s string) (ExclusionMode, error) {
	switch ExclusionMode(s) {
	case "":
		return ExcludeBinary, nil
	case ExcludeBinary, ExcludeAll, ExcludeNone:
		return ExclusionMode(s), nil
	}
	return "", fmt.Errorf("exclusion mode %q: %w", s, internalerr.ErrInvalidConfig)
}

// Exclusions returns, for each group name, the groups whose members veto a
// window around that group.
func Exclusions(groups []Group, mode ExclusionMode) map[string][]Group {
	out := make(map[string][]Group, len(groups))
	byName := make(map[string]Group, len(groups))
	for _, g := range groups {
		byName[g.Name] = g
	}
	for _, g := range groups {
		switch mode {
		case ExcludeAll:
			for _, other := range groups {
				if other.Name != g.Name {
					out[g.Name] = append(out[g.Name], other)
				}
			}
		case ExcludeNone:
			out[g.Name] = nil
		default:
			var counterpart string
			switch g.Name {
			case FemaleName:
				counterpart = MaleName
			case MaleName:
				counterpart = FemaleName
			}
			if other, ok := byName[counterpart]; ok && counterpart != "" {
				out[g.Name] = []Group{other}
			} else if counterpart != "" {
				builtin, _ := Builtin(counterpart)
				out[g.Name] = []Group{builtin}
			}
		}
	}
	return out
}
