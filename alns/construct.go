package alns

import (
	"math/rand"

	"github.com/DangMmo/vrp2e-alns/internal/insertion"
	"github.com/DangMmo/vrp2e-alns/internal/kernel"
	"github.com/DangMmo/vrp2e-alns/internal/problem"
	"github.com/DangMmo/vrp2e-alns/internal/selector"
	"github.com/DangMmo/vrp2e-alns/internal/solution"
)

// Construct builds the first feasible solution by best-insertion over a
// shuffled customer order, then polishes it with a short LNS run (no SA,
// no restart, a single random/greedy operator pair).
func Construct(p *problem.ProblemInstance, cfg Config) (Result, error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}
	logger := logOf(cfg.Logger)
	primary := cfg.primary()
	w := cfg.weights()
	rng := rand.New(rand.NewSource(cfg.RandomSeed))
	cache := kernel.NewCache(cfg.CacheCapacity)

	order := append([]problem.Node(nil), p.Customers...)
	rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

	current := solution.Empty(p)
	for _, c := range order {
		opt := insertion.FindBest(current, c.ID, p, cache, primary, w, cfg.OptimizeVehicleCount)
		if opt.Type == insertion.None {
			logger.Warnf("alns: construct: no feasible placement for customer %d, left unserved", c.ID)
			continue
		}
		next, ok := insertion.Apply(current, opt)
		if !ok {
			logger.Warnf("alns: construct: apply-insertion recomputation failed for customer %d", c.ID)
			continue
		}
		current = next
	}
	logger.Infof("alns: construction complete: %d served, %d unserved", current.NumServed(), len(current.UnservedCustomerIDs))

	destroyPool := selector.NewPool(destroyRandom)
	repairPool := selector.NewPool(repairGreedy)
	return Run(current, p, cfg, cfg.LNSInitialIterations, true, destroyPool, repairPool, cache, rng), nil
}
