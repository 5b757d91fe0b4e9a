package topology

import (
	"fmt"
	"strings"
)

// FieldError describes a single rule violation on a spec candidate.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// ValidationError aggregates every violated rule so the caller sees the
// complete set, not just the first failure.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return "invalid topology spec"
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Error())
	}
	return "invalid topology spec: " + strings.Join(parts, "; ")
}

// Has reports whether the error names the given field.
func (e *ValidationError) Has(field string) bool {
	if e == nil {
		return false
	}
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// Validate checks a spec candidate against every rule and returns either nil
// or a *ValidationError listing all violations. Rules, in reported order:
// node_count range, known pattern, ratio presence/absence per pattern,
// ratio range, max_depth range, branching_factor range.
func Validate(s Spec) error {
	var violations []FieldError

	if s.NodeCount < MinNodeCount || s.NodeCount > MaxNodeCount {
		violations = append(violations, FieldError{
			Field:   "node_count",
			Message: fmt.Sprintf("must be between %d and %d, got %d", MinNodeCount, MaxNodeCount, s.NodeCount),
		})
	}

	switch {
	case !s.Pattern.Known():
		violations = append(violations, FieldError{
			Field:   "convergence_pattern",
			Message: fmt.Sprintf("unknown pattern %q", string(s.Pattern)),
		})
		// Ratio presence rules depend on the pattern; with an unknown pattern
		// only the range can be checked.
		if s.ConvergenceRatio != nil && (*s.ConvergenceRatio < 0 || *s.ConvergenceRatio > 1) {
			violations = append(violations, FieldError{
				Field:   "convergence_point_ratio",
				Message: fmt.Sprintf("must be between 0.0 and 1.0, got %v", *s.ConvergenceRatio),
			})
		}
	case s.Pattern.RequiresRatio():
		if s.ConvergenceRatio == nil {
			violations = append(violations, FieldError{
				Field:   "convergence_point_ratio",
				Message: fmt.Sprintf("required for pattern %s", s.Pattern),
			})
		} else if *s.ConvergenceRatio < 0 || *s.ConvergenceRatio > 1 {
			violations = append(violations, FieldError{
				Field:   "convergence_point_ratio",
				Message: fmt.Sprintf("must be between 0.0 and 1.0, got %v", *s.ConvergenceRatio),
			})
		}
	default:
		if s.ConvergenceRatio != nil {
			violations = append(violations, FieldError{
				Field:   "convergence_point_ratio",
				Message: fmt.Sprintf("must be omitted for pattern %s", s.Pattern),
			})
		}
	}

	if s.MaxDepth < MinDepth || s.MaxDepth > MaxDepth {
		violations = append(violations, FieldError{
			Field:   "max_depth",
			Message: fmt.Sprintf("must be between %d and %d, got %d", MinDepth, MaxDepth, s.MaxDepth),
		})
	}

	if s.BranchingFactor < MinBranchingFactor || s.BranchingFactor > MaxBranchingFactor {
		violations = append(violations, FieldError{
			Field:   "branching_factor",
			Message: fmt.Sprintf("must be between %d and %d, got %d", MinBranchingFactor, MaxBranchingFactor, s.BranchingFactor),
		})
	}

	if len(violations) > 0 {
		return &ValidationError{Fields: violations}
	}
	return nil
}
