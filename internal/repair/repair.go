// Package repair implements the greedy repair operator that repeatedly
// best-inserts removed customers back into a partial solution.
package repair

import (
	"math/rand"

	"github.com/DangMmo/vrp2e-alns/internal/insertion"
	"github.com/DangMmo/vrp2e-alns/internal/kernel"
	"github.com/DangMmo/vrp2e-alns/internal/objective"
	"github.com/DangMmo/vrp2e-alns/internal/problem"
	"github.com/DangMmo/vrp2e-alns/internal/solution"
)

// Logger is the minimal sink repair warns through when apply-insertion's
// defensive fallback triggers. A nil Logger is valid and silently drops the
// message.
type Logger interface {
	Warnf(format string, args ...interface{})
}

// GreedyRepair shuffles removed (deterministically, from rng) and
// best-inserts each customer in turn into the working solution. A customer
// with no feasible option is appended to the unserved list instead.
func GreedyRepair(
	partial solution.SolutionData,
	removed []problem.Node,
	p *problem.ProblemInstance,
	cache *kernel.Cache,
	primary objective.Primary,
	w objective.Weights,
	optimizeVehicleCount bool,
	rng *rand.Rand,
	logger Logger,
) solution.SolutionData {
	order := append([]problem.Node(nil), removed...)
	rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

	working := partial
	for _, n := range order {
		opt := insertion.FindBest(working, n.ID, p, cache, primary, w, optimizeVehicleCount)
		if opt.Type == insertion.None {
			continue // already carried in working.UnservedCustomerIDs via destroy.Rebuild
		}
		next, ok := insertion.Apply(working, opt)
		if !ok {
			if logger != nil {
				logger.Warnf("repair: apply-insertion recomputation failed for customer %d after a feasible pre-check; leaving unserved", n.ID)
			}
			continue
		}
		working = next
	}
	return working
}
