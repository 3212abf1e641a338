// Package config loads the solver's operational tuning (tolerances,
// iteration caps, damping bounds, linear-solver backend) from a YAML file
// via gopkg.in/yaml.v3, the library the rest of this corpus uses for config
// (dd0wney-graphdb's config/logging layers). This is deliberately separate
// from network.Options: Options describes the network being solved
// (units, head-loss formula), while SolverConfig describes how hard the
// solver tries, which is a deployment concern, not a network property.
package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"hydrosim/network"
	"hydrosim/simerr"
	"hydrosim/solver"
)

// SolverConfig is the on-disk shape; yaml field names are lower_snake_case,
// set explicitly by each field's tag.
type SolverConfig struct {
	SolverBackend    string  `yaml:"solver_backend"` // "lu" or "cg"
	HydAccuracy      float64 `yaml:"hyd_accuracy"`
	MaxIterations    int     `yaml:"max_iterations"`
	MaxStatusChecks  int     `yaml:"max_status_checks"`
	DampingFactor    float64 `yaml:"damping_factor"`
	MinDampingFactor float64 `yaml:"min_damping_factor"`
	MaxDampingFactor float64 `yaml:"max_damping_factor"`
	OscillationMax   int     `yaml:"oscillation_max"`
}

// Load reads and parses a SolverConfig from path.
func Load(path string) (*SolverConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, simerr.New(simerr.File, simerr.CodeCannotOpenFile, "open solver config %q: %v", path, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, simerr.New(simerr.Input, simerr.CodeCorruptSection, "parse solver config %q: %v", path, err)
	}
	return cfg, nil
}

// Default returns the SolverConfig a project starts with absent a config
// file, matching solver.DefaultConfig's numbers.
func Default() *SolverConfig {
	d := solver.DefaultConfig()
	return &SolverConfig{
		SolverBackend:    "lu",
		HydAccuracy:      d.HydAccuracy,
		MaxIterations:    d.MaxIterations,
		MaxStatusChecks:  d.MaxStatusChecks,
		DampingFactor:    d.DampingFactor,
		MinDampingFactor: d.MinDampingFactor,
		MaxDampingFactor: d.MaxDampingFactor,
		OscillationMax:   d.OscillationMax,
	}
}

// BalanceConfig converts the on-disk config to solver.Config.
func (c *SolverConfig) BalanceConfig() solver.Config {
	return solver.Config{
		MaxIterations:    c.MaxIterations,
		MaxStatusChecks:  c.MaxStatusChecks,
		HydAccuracy:      c.HydAccuracy,
		DampingFactor:    c.DampingFactor,
		MinDampingFactor: c.MinDampingFactor,
		MaxDampingFactor: c.MaxDampingFactor,
		OscillationMax:   c.OscillationMax,
	}
}

// SolverMethod translates the config's backend name to network.SolverMethod.
func (c *SolverConfig) SolverMethod() network.SolverMethod {
	if c.SolverBackend == "cg" {
		return network.ConjugateGradient
	}
	return network.SparseLU
}
