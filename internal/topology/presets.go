package topology

import (
	"sort"
	"strings"
)

// Presets cover common storytelling shapes. Every entry is valid by
// construction; a test guards each against Validate.
var presets = map[string]Spec{
	"guided": {
		NodeCount:        12,
		Pattern:          SingleConvergence,
		ConvergenceRatio: Ratio(0.5),
		MaxDepth:         8,
		BranchingFactor:  2,
	},
	"adventure": {
		NodeCount:        16,
		Pattern:          MultipleConvergence,
		ConvergenceRatio: Ratio(0.6),
		MaxDepth:         10,
		BranchingFactor:  2,
	},
	"epic": {
		NodeCount:        24,
		Pattern:          EndOnly,
		ConvergenceRatio: Ratio(0.9),
		MaxDepth:         12,
		BranchingFactor:  2,
	},
	"choose_your_path": {
		NodeCount:       16,
		Pattern:         PureBranching,
		MaxDepth:        10,
		BranchingFactor: 3,
	},
}

// LookupPreset resolves a preset by name. Matching is case-insensitive and
// ignores surrounding whitespace.
func LookupPreset(name string) (Spec, bool) {
	spec, ok := presets[strings.ToLower(strings.TrimSpace(name))]
	return spec, ok
}

// PresetNames returns the registered preset names, sorted.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
