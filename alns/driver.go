package alns

import (
	"math"
	"math/rand"

	"github.com/DangMmo/vrp2e-alns/internal/destroy"
	"github.com/DangMmo/vrp2e-alns/internal/kernel"
	"github.com/DangMmo/vrp2e-alns/internal/objective"
	"github.com/DangMmo/vrp2e-alns/internal/problem"
	"github.com/DangMmo/vrp2e-alns/internal/repair"
	"github.com/DangMmo/vrp2e-alns/internal/selector"
	"github.com/DangMmo/vrp2e-alns/internal/solution"
)

// IterationRecord is one row of the per-iteration run history.
type IterationRecord struct {
	Iteration   int
	BestCost    float64
	CurrentCost float64
	Temperature float64
}

// SegmentRecord is one row of the per-segment operator-weight history.
type SegmentRecord struct {
	Segment        int
	DestroyWeights map[string]float64
	RepairWeights  map[string]float64
}

// Result is everything the driver hands back to a caller: the best
// solution found and both histories.
type Result struct {
	Best            solution.SolutionData
	RunHistory      []IterationRecord
	OperatorHistory []SegmentRecord
}

const (
	destroyRandom    = "random"
	destroyShaw      = "shaw"
	destroyWorstCost = "worst_cost"
	repairGreedy     = "greedy"
)

// DefaultDestroyPool returns the full three-operator destroy portfolio.
func DefaultDestroyPool() *selector.Pool {
	return selector.NewPool(destroyRandom, destroyShaw, destroyWorstCost)
}

// DefaultRepairPool returns the single greedy repair operator, still
// modeled as a Pool so the same adaptive-weight machinery applies
// uniformly to both operator classes.
func DefaultRepairPool() *selector.Pool {
	return selector.NewPool(repairGreedy)
}

func runDestroy(name string, sol solution.SolutionData, q int, p *problem.ProblemInstance, primary objective.Primary, rng *rand.Rand) (solution.SolutionData, []problem.Node) {
	switch name {
	case destroyShaw:
		return destroy.ShawRemoval(sol, q, p, rng)
	case destroyWorstCost:
		return destroy.WorstCostRemoval(sol, q, primary, p, rng)
	default:
		return destroy.RandomRemoval(sol, q, p, rng)
	}
}

// runRepair receives the selected repair operator's name but always runs
// greedy repair, the only repair operator; the name is not consulted.
func runRepair(name string, partial solution.SolutionData, removed []problem.Node, p *problem.ProblemInstance, cache *kernel.Cache, primary objective.Primary, w objective.Weights, optimizeVehicleCount bool, rng *rand.Rand, logger Logger) solution.SolutionData {
	return repair.GreedyRepair(partial, removed, p, cache, primary, w, optimizeVehicleCount, rng, logger)
}

func chooseQ(numServed int, isLNS bool, cfg Config, rng *rand.Rand) int {
	var frac float64
	if isLNS {
		frac = cfg.QPercentageInitial
	} else {
		frac = cfg.QSmallRangeLo + rng.Float64()*(cfg.QSmallRangeHi-cfg.QSmallRangeLo)
	}
	q := int(math.Ceil(float64(numServed) * frac))
	if q < 1 {
		q = 1
	}
	return q
}

func score(newCost, currentCost, bestCost float64, accepted, isNewBest bool, cfg Config) float64 {
	switch {
	case isNewBest:
		return cfg.Sigma1NewBest
	case newCost < currentCost:
		return cfg.Sigma2Better
	case accepted:
		return cfg.Sigma3Accepted
	default:
		return 0
	}
}

// Run executes the ALNS main loop for `iterations` iterations starting
// from `initial`. In LNS mode (isLNS) there is no simulated-annealing
// acceptance and no restart, matching the construction-polish phase;
// otherwise full SA acceptance, cooling, and periodic restart-to-best
// apply.
func Run(
	initial solution.SolutionData,
	p *problem.ProblemInstance,
	cfg Config,
	iterations int,
	isLNS bool,
	destroyPool, repairPool *selector.Pool,
	cache *kernel.Cache,
	rng *rand.Rand,
) Result {
	logger := logOf(cfg.Logger)
	primary := cfg.primary()
	w := cfg.weights()

	current := initial
	currentCost := objective.Cost(current, primary, w, cfg.OptimizeVehicleCount)
	best := current
	bestCost := currentCost

	var temperature float64
	if !isLNS {
		temperature = -(cfg.StartTempWorseningPct * currentCost) / math.Log(cfg.StartTempAcceptProb)
	}

	var result Result
	iterationsWithoutImprovement := 0

	for i := 1; i <= iterations; i++ {
		d := destroyPool.Select(rng)
		r := repairPool.Select(rng)

		q := chooseQ(current.NumServed(), isLNS, cfg, rng)
		partial, removed := runDestroy(d.Name, current, q, p, primary, rng)
		candidate := runRepair(r.Name, partial, removed, p, cache, primary, w, cfg.OptimizeVehicleCount, rng, logger)
		candidateCost := objective.Cost(candidate, primary, w, cfg.OptimizeVehicleCount)

		accepted := false
		if candidateCost < currentCost {
			accepted = true
		} else if !isLNS && temperature > kernel.Epsilon {
			if rng.Float64() < math.Exp(-(candidateCost-currentCost)/temperature) {
				accepted = true
			}
		}

		isNewBest := accepted && candidateCost < bestCost
		sigma := score(candidateCost, currentCost, bestCost, accepted, isNewBest, cfg)
		if sigma > 0 {
			destroyPool.Award(d.Name, sigma)
			repairPool.Award(r.Name, sigma)
		}

		if accepted {
			current = candidate
			currentCost = candidateCost
		}
		if isNewBest {
			best = current
			bestCost = currentCost
			iterationsWithoutImprovement = 0
		} else {
			iterationsWithoutImprovement++
		}

		if !isLNS && cfg.RestartThreshold > 0 && iterationsWithoutImprovement >= cfg.RestartThreshold {
			current = best
			currentCost = bestCost
			iterationsWithoutImprovement = 0
			logger.Infof("alns: restarting from best at iteration %d (cost=%.4f)", i, bestCost)
		}

		if !isLNS {
			temperature *= cfg.CoolingRate
		}

		if i%cfg.SegmentLength == 0 {
			destroyPool.UpdateWeights(cfg.ReactionFactor)
			repairPool.UpdateWeights(cfg.ReactionFactor)
			result.OperatorHistory = append(result.OperatorHistory, SegmentRecord{
				Segment:        i / cfg.SegmentLength,
				DestroyWeights: destroyPool.Weights(),
				RepairWeights:  repairPool.Weights(),
			})
		}

		result.RunHistory = append(result.RunHistory, IterationRecord{
			Iteration: i, BestCost: bestCost, CurrentCost: currentCost, Temperature: temperature,
		})

		logger.Debugf("alns: iter %d/%d best=%.4f current=%.4f ops=%s/%s", i, iterations, bestCost, currentCost, d.Name, r.Name)
	}

	result.Best = best
	return result
}
