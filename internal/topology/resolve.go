package topology

import (
	"fmt"
	"log"
	"strings"
)

// Source tags where a resolved spec came from.
type Source string

const (
	SourcePreset  Source = "preset"
	SourceCustom  Source = "custom"
	SourceDefault Source = "default"
)

// Provenance records which of the three resolution tiers produced the spec.
type Provenance struct {
	Source Source `json:"source"`
	Preset string `json:"preset,omitempty"`
}

func (p Provenance) String() string {
	if p.Source == SourcePreset {
		return fmt.Sprintf("Preset(%s)", p.Preset)
	}
	if p.Source == SourceCustom {
		return "Custom"
	}
	return "Default"
}

// Conflict is the non-fatal notice emitted when a request supplies both a
// preset name and a custom spec. The preset wins; the custom fields listed
// here were discarded.
type Conflict struct {
	Preset    string   `json:"preset"`
	Discarded []string `json:"discarded_fields"`
}

// UnknownPresetError reports a preset name absent from the registry.
type UnknownPresetError struct {
	Name string
}

func (e *UnknownPresetError) Error() string {
	return fmt.Sprintf("unknown preset %q (known: %s)", e.Name, strings.Join(PresetNames(), ", "))
}

// Resolve combines a request's preset name and custom spec with the
// service-wide default, in strict priority order: preset, then custom, then
// default. Exactly one branch applies. The returned spec is always valid;
// the Conflict pointer is non-nil only when a preset displaced a custom spec.
//
// One informational line is logged per call stating the provenance, plus a
// warning naming the discarded fields when a conflict occurred.
func Resolve(presetName string, custom *Spec, serviceDefault Spec) (Spec, Provenance, *Conflict, error) {
	presetName = strings.TrimSpace(presetName)

	if presetName != "" {
		spec, ok := LookupPreset(presetName)
		if !ok {
			return Spec{}, Provenance{}, nil, &UnknownPresetError{Name: presetName}
		}
		prov := Provenance{Source: SourcePreset, Preset: strings.ToLower(presetName)}
		var conflict *Conflict
		if custom != nil {
			conflict = &Conflict{Preset: prov.Preset, Discarded: setFields(*custom)}
			log.Printf("dag config conflict: preset %q overrides custom spec (discarded fields: %s)",
				prov.Preset, strings.Join(conflict.Discarded, ", "))
		}
		log.Printf("dag config resolved: provenance=%s", prov)
		return spec, prov, conflict, nil
	}

	if custom != nil {
		if err := Validate(*custom); err != nil {
			return Spec{}, Provenance{}, nil, err
		}
		prov := Provenance{Source: SourceCustom}
		log.Printf("dag config resolved: provenance=%s", prov)
		return *custom, prov, nil, nil
	}

	prov := Provenance{Source: SourceDefault}
	log.Printf("dag config resolved: provenance=%s", prov)
	return serviceDefault, prov, nil, nil
}

// setFields lists the populated fields of a custom spec, for conflict notices.
func setFields(s Spec) []string {
	var fields []string
	if s.NodeCount != 0 {
		fields = append(fields, "node_count")
	}
	if s.Pattern != "" {
		fields = append(fields, "convergence_pattern")
	}
	if s.ConvergenceRatio != nil {
		fields = append(fields, "convergence_point_ratio")
	}
	if s.MaxDepth != 0 {
		fields = append(fields, "max_depth")
	}
	if s.BranchingFactor != 0 {
		fields = append(fields, "branching_factor")
	}
	return fields
}
