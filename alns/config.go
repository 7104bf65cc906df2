// Package alns wires the destroy/repair operators, the adaptive selector,
// and the construction and main-loop drivers together. It is the sole
// exported entry point into the solver — a caller supplies a
// *problem.ProblemInstance and a Config and gets back a best SolutionData
// plus run/operator history.
package alns

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/DangMmo/vrp2e-alns/internal/objective"
)

// Config bundles every tunable the solver needs: algorithm sizing,
// simulated-annealing schedule, adaptive-weight reaction, pruning limits,
// and objective weights. It never sources its own values (file/env/flag
// parsing is a caller's job) but exposes Validate and Snapshot so a
// caller's run-directory layout can persist what was used.
type Config struct {
	FilePath     string  `yaml:"file_path"`
	VehicleSpeed float64 `yaml:"vehicle_speed"`

	LNSInitialIterations int     `yaml:"lns_initial_iterations"`
	QPercentageInitial   float64 `yaml:"q_percentage_initial"`

	ALNSMainIterations    int     `yaml:"alns_main_iterations"`
	StartTempAcceptProb   float64 `yaml:"start_temp_accept_prob"`
	StartTempWorseningPct float64 `yaml:"start_temp_worsening_pct"`
	CoolingRate           float64 `yaml:"cooling_rate"`

	ReactionFactor float64 `yaml:"reaction_factor"`
	SegmentLength  int     `yaml:"segment_length"`
	Sigma1NewBest  float64 `yaml:"sigma_1_new_best"`
	Sigma2Better   float64 `yaml:"sigma_2_better"`
	Sigma3Accepted float64 `yaml:"sigma_3_accepted"`

	QSmallRangeLo float64 `yaml:"q_small_range_lo"`
	QSmallRangeHi float64 `yaml:"q_small_range_hi"`
	// QLargeRangeLo/Hi are declared for a caller to read and validate but
	// are never consulted by Run's own q selection.
	QLargeRangeLo float64 `yaml:"q_large_range_lo"`
	QLargeRangeHi float64 `yaml:"q_large_range_hi"`

	RestartThreshold int   `yaml:"restart_threshold"`
	RandomSeed       int64 `yaml:"random_seed"`

	PruningKCustomerNeighbors  int `yaml:"pruning_k_customer_neighbors"`
	PruningMSatelliteNeighbors int `yaml:"pruning_m_satellite_neighbors"`
	PruningNSERouteCandidates  int `yaml:"pruning_n_se_route_candidates"`

	PrimaryObjective     string  `yaml:"primary_objective"`
	OptimizeVehicleCount bool    `yaml:"optimize_vehicle_count"`
	WeightPrimary        float64 `yaml:"weight_primary"`
	WeightFEVehicle      float64 `yaml:"weight_fe_vehicle"`
	WeightSEVehicle      float64 `yaml:"weight_se_vehicle"`

	// CacheCapacity bounds the SE-evaluation LRU; zero disables caching.
	CacheCapacity int `yaml:"cache_capacity"`

	// Logger is excluded from YAML (un)marshaling; nil means no-op.
	Logger Logger `yaml:"-"`
}

// Validate rejects an unknown PRIMARY_OBJECTIVE, negative iteration
// counts, an invalid q-range, or an out-of-range reaction factor — all
// fatal before the driver enters its loop.
func (c Config) Validate() error {
	if _, err := objective.ParsePrimary(c.PrimaryObjective); err != nil {
		return fmt.Errorf("alns: config: %w", err)
	}
	if c.ALNSMainIterations < 0 || c.LNSInitialIterations < 0 {
		return fmt.Errorf("alns: config: iteration counts must be non-negative")
	}
	if c.QSmallRangeLo <= 0 || c.QSmallRangeHi < c.QSmallRangeLo {
		return fmt.Errorf("alns: config: invalid q_small_range (%v, %v)", c.QSmallRangeLo, c.QSmallRangeHi)
	}
	if c.SegmentLength <= 0 {
		return fmt.Errorf("alns: config: segment_length must be positive")
	}
	if c.ReactionFactor < 0 || c.ReactionFactor > 1 {
		return fmt.Errorf("alns: config: reaction_factor must be in [0,1]")
	}
	return nil
}

// primary parses PrimaryObjective, assuming Validate already succeeded.
func (c Config) primary() objective.Primary {
	p, _ := objective.ParsePrimary(c.PrimaryObjective)
	return p
}

func (c Config) weights() objective.Weights {
	return objective.Weights{Primary: c.WeightPrimary, FEVehicle: c.WeightFEVehicle, SEVehicle: c.WeightSEVehicle}
}

// Snapshot marshals the configuration to YAML (excluding Logger) so a
// caller's run-directory layout can persist config_snapshot.yaml without
// the core ever touching the filesystem itself.
func (c Config) Snapshot() ([]byte, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("alns: config: snapshot: %w", err)
	}
	return out, nil
}
