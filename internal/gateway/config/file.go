package config

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"storygraph/internal/topology"
)

// fileConfig mirrors the service config file. Only the dag block is
// consumed here; unknown top-level content is rejected by the HCL decoder.
type fileConfig struct {
	Dag *dagBlock `hcl:"dag,block"`
}

// dagBlock is the [dag] section: the service-wide default topology spec.
//
//	dag {
//	  node_count              = 12
//	  convergence_pattern     = "SingleConvergence"
//	  convergence_point_ratio = 0.5
//	  max_depth               = 8
//	  branching_factor        = 2
//	}
type dagBlock struct {
	NodeCount        int      `hcl:"node_count"`
	Pattern          string   `hcl:"convergence_pattern"`
	ConvergenceRatio *float64 `hcl:"convergence_point_ratio,optional"`
	MaxDepth         int      `hcl:"max_depth"`
	BranchingFactor  int      `hcl:"branching_factor"`
}

// loadDefaultSpec reads the default topology spec from the config file's dag
// block. A missing file falls back to the built-in default; a present but
// malformed file is a startup error.
func loadDefaultSpec(path string) (topology.Spec, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return builtinDefault(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return topology.Spec{}, fmt.Errorf("parse %s: %s", path, diags.Error())
	}

	var cfg fileConfig
	if diags := gohcl.DecodeBody(file.Body, nil, &cfg); diags.HasErrors() {
		return topology.Spec{}, fmt.Errorf("decode %s: %s", path, diags.Error())
	}
	if cfg.Dag == nil {
		return builtinDefault(), nil
	}

	return topology.Spec{
		NodeCount:        cfg.Dag.NodeCount,
		Pattern:          topology.Pattern(cfg.Dag.Pattern),
		ConvergenceRatio: cfg.Dag.ConvergenceRatio,
		MaxDepth:         cfg.Dag.MaxDepth,
		BranchingFactor:  cfg.Dag.BranchingFactor,
	}, nil
}

// builtinDefault matches the guided preset: the safest all-purpose shape.
func builtinDefault() topology.Spec {
	return topology.Spec{
		NodeCount:        12,
		Pattern:          topology.SingleConvergence,
		ConvergenceRatio: topology.Ratio(0.5),
		MaxDepth:         8,
		BranchingFactor:  2,
	}
}
