// Package destroy implements the random, Shaw-relatedness, and worst-cost
// removal operators, sharing a single post-removal rebuild helper that drops
// emptied SE routes and renumbers/drops infeasible FE routes.
package destroy

import (
	"math"
	"math/rand"
	"sort"

	"github.com/DangMmo/vrp2e-alns/internal/kernel"
	"github.com/DangMmo/vrp2e-alns/internal/objective"
	"github.com/DangMmo/vrp2e-alns/internal/problem"
	"github.com/DangMmo/vrp2e-alns/internal/solution"
)

func servedIDs(sol solution.SolutionData) []int {
	ids := make([]int, 0, len(sol.CustomerToSERouteIdx))
	for id := range sol.CustomerToSERouteIdx {
		ids = append(ids, id)
	}
	sort.Ints(ids) // deterministic iteration order before the RNG takes over
	return ids
}

func indexOf(nodes []int, id int) int {
	for i, v := range nodes {
		if v == id {
			return i
		}
	}
	return -1
}

// Rebuild removes the given customer ids from the served set: each is
// stripped from its hosting SE route's node sequence; SE routes left with
// no customers are dropped; every FE route touched by a drop or a stripped
// SE is re-evaluated from its surviving hosted SE routes, and dropped
// itself if that re-evaluation fails. An FE's surviving hosted SE routes
// are not removed when the FE is dropped — they remain in the solution as
// orphaned SE routes, owned by no FE, available to be re-hosted by repair.
func Rebuild(sol solution.SolutionData, removedIDs []int, p *problem.ProblemInstance) solution.SolutionData {
	removedSet := make(map[int]bool, len(removedIDs))
	touchedSE := make(map[int]bool)
	for _, id := range removedIDs {
		removedSet[id] = true
		if seIdx, ok := sol.CustomerToSERouteIdx[id]; ok {
			touchedSE[seIdx] = true
		}
	}

	seRoutes := append([]solution.SERouteData(nil), sol.SERoutes...)
	dropped := make(map[int]bool)
	for seIdx := range touchedSE {
		se := seRoutes[seIdx]
		kept := make([]int, 0, len(se.NodesID))
		kept = append(kept, se.NodesID[0])
		for _, id := range se.Customers() {
			if !removedSet[id] {
				kept = append(kept, id)
			}
		}
		kept = append(kept, se.NodesID[len(se.NodesID)-1])
		if len(kept) <= 2 {
			dropped[seIdx] = true
			continue
		}
		se.NodesID = kept
		seRoutes[seIdx] = se
	}

	// FE routes whose hosted list includes a touched or dropped SE need a
	// full re-evaluate.
	feRoutes := append([]solution.FERouteData(nil), sol.FERoutes...)
	feDropped := make(map[int]bool)
	for feIdx, fe := range feRoutes {
		affected := false
		for _, gi := range fe.ServicedSERouteIndices {
			if touchedSE[gi] {
				affected = true
				break
			}
		}
		if !affected {
			continue
		}
		var survivors []int
		for _, gi := range fe.ServicedSERouteIndices {
			if !dropped[gi] {
				survivors = append(survivors, gi)
			}
		}
		if len(survivors) == 0 {
			feDropped[feIdx] = true
			continue
		}
		stubs := make([]solution.SERouteData, len(survivors))
		for k, gi := range survivors {
			se := seRoutes[gi]
			deliv, pickup := 0.0, 0.0
			for _, cid := range se.Customers() {
				n := p.Node(cid)
				if n.Type == problem.DeliveryCustomer {
					deliv += n.Demand
				} else {
					pickup += n.Demand
				}
			}
			stubs[k] = solution.SERouteData{SatelliteID: se.SatelliteID, NodesID: se.NodesID, TotalDeliveryLoad: deliv, TotalPickupLoad: pickup}
		}
		ok, res := kernel.FEEvaluate(stubs, p)
		if !ok {
			feDropped[feIdx] = true
			continue
		}
		for k, gi := range survivors {
			r := res.RecomputedSE[k]
			seRoutes[gi] = solution.SERouteData{
				SatelliteID: stubs[k].SatelliteID, NodesID: stubs[k].NodesID,
				TotalDistance: r.TotalDistance, TotalTravelTime: r.TotalTravelTime,
				TotalDeliveryLoad: r.TotalDeliveryLoad, TotalPickupLoad: r.TotalPickupLoad,
				ServiceStartTimes: r.ServiceStartTimes, WaitingTimes: r.WaitingTimes,
				ForwardTimeSlacks: r.ForwardTimeSlacks,
			}
		}
		feRoutes[feIdx] = solution.FERouteData{
			ServicedSERouteIndices: survivors,
			Schedule:               res.Schedule,
			TotalDistance:          res.TotalDistance,
			TotalTravelTime:        res.TotalTravelTime,
			RouteDeadline:          res.RouteDeadline,
		}
	}

	// Renumber SE routes, dropping emptied ones.
	newSEIdx := make(map[int]int, len(seRoutes))
	finalSE := make([]solution.SERouteData, 0, len(seRoutes))
	for i, se := range seRoutes {
		if dropped[i] {
			continue
		}
		newSEIdx[i] = len(finalSE)
		finalSE = append(finalSE, se)
	}

	finalFE := make([]solution.FERouteData, 0, len(feRoutes))
	for i, fe := range feRoutes {
		if feDropped[i] {
			continue
		}
		remapped := make([]int, 0, len(fe.ServicedSERouteIndices))
		for _, gi := range fe.ServicedSERouteIndices {
			if ni, ok := newSEIdx[gi]; ok {
				remapped = append(remapped, ni)
			}
		}
		fe.ServicedSERouteIndices = remapped
		finalFE = append(finalFE, fe)
	}

	unserved := append([]int(nil), sol.UnservedCustomerIDs...)
	unserved = append(unserved, removedIDs...)
	return solution.New(p, finalFE, finalSE, unserved)
}

func nodesFor(ids []int, p *problem.ProblemInstance) []problem.Node {
	out := make([]problem.Node, 0, len(ids))
	for _, id := range ids {
		out = append(out, p.Node(id))
	}
	return out
}

// RandomRemoval uniformly samples min(q, |served|) customers without
// replacement.
func RandomRemoval(sol solution.SolutionData, q int, p *problem.ProblemInstance, rng *rand.Rand) (solution.SolutionData, []problem.Node) {
	served := servedIDs(sol)
	if q > len(served) {
		q = len(served)
	}
	rng.Shuffle(len(served), func(i, j int) { served[i], served[j] = served[j], served[i] })
	removed := append([]int(nil), served[:q]...)
	return Rebuild(sol, removed, p), nodesFor(removed, p)
}

// shawExponent biases rank selection toward the most-related candidate:
// rank = floor(random()^shawExponent * |candidates|).
const shawExponent = 6.0

func relatedness(a, b problem.Node, sameRoute bool, ssA, ssB float64, p *problem.ProblemInstance) float64 {
	distHat := p.Distance(a.ID, b.ID) / p.MaxDist
	ssHat := math.Abs(ssA-ssB) / p.MaxDueTime
	demHat := math.Abs(a.Demand-b.Demand) / p.MaxDemand
	diff := 0.0
	if !sameRoute {
		diff = 1.0
	}
	return 9*distHat + 3*ssHat + 2*demHat + 5*diff
}

// ShawRelatedness exposes the relatedness formula for an already-built
// solution, keyed by customer id — used by tests and by ShawRemoval.
func ShawRelatedness(sol solution.SolutionData, a, b int, p *problem.ProblemInstance) float64 {
	na, nb := p.Node(a), p.Node(b)
	seA, seB := sol.CustomerToSERouteIdx[a], sol.CustomerToSERouteIdx[b]
	ssA := sol.SERoutes[seA].ServiceStartTimes[a]
	ssB := sol.SERoutes[seB].ServiceStartTimes[b]
	return relatedness(na, nb, seA == seB, ssA, ssB, p)
}

// ShawRemoval grows a related cluster of q customers starting from a random
// seed, biasing each pick toward the most-related remaining candidate.
func ShawRemoval(sol solution.SolutionData, q int, p *problem.ProblemInstance, rng *rand.Rand) (solution.SolutionData, []problem.Node) {
	served := servedIDs(sol)
	if q > len(served) {
		q = len(served)
	}
	if q == 0 {
		return sol, nil
	}

	remaining := make(map[int]bool, len(served))
	for _, id := range served {
		remaining[id] = true
	}
	seed := served[rng.Intn(len(served))]
	removed := []int{seed}
	delete(remaining, seed)

	for len(removed) < q {
		bait := removed[rng.Intn(len(removed))]
		candidates := make([]int, 0, len(remaining))
		for id := range remaining {
			candidates = append(candidates, id)
		}
		sort.Slice(candidates, func(i, j int) bool {
			return ShawRelatedness(sol, bait, candidates[i], p) < ShawRelatedness(sol, bait, candidates[j], p)
		})
		rank := int(math.Pow(rng.Float64(), shawExponent) * float64(len(candidates)))
		if rank >= len(candidates) {
			rank = len(candidates) - 1
		}
		pick := candidates[rank]
		removed = append(removed, pick)
		delete(remaining, pick)
	}

	return Rebuild(sol, removed, p), nodesFor(removed, p)
}

// worstCostExponent biases rank selection toward the highest-saving
// candidate.
const worstCostExponent = 3.0

func primaryCost(i, j int, primary objective.Primary, p *problem.ProblemInstance) float64 {
	if primary == objective.Distance {
		return p.Distance(i, j)
	}
	return p.TravelTime(i, j)
}

type worstItem struct {
	id     int
	saving float64
}

// WorstCostRemoval removes the q customers whose removal would save the
// most route cost, with a random bias toward the highest savers.
func WorstCostRemoval(sol solution.SolutionData, q int, primary objective.Primary, p *problem.ProblemInstance, rng *rand.Rand) (solution.SolutionData, []problem.Node) {
	served := servedIDs(sol)
	items := make([]worstItem, 0, len(served))
	for _, id := range served {
		seIdx := sol.CustomerToSERouteIdx[id]
		se := sol.SERoutes[seIdx]
		pos := indexOf(se.NodesID, id)
		prev, next := se.NodesID[pos-1], se.NodesID[pos+1]
		saving := primaryCost(prev, id, primary, p) + primaryCost(id, next, primary, p) - primaryCost(prev, next, primary, p)
		items = append(items, worstItem{id: id, saving: saving})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].saving > items[j].saving })

	if q > len(items) {
		q = len(items)
	}
	removed := make([]int, 0, q)
	for len(removed) < q {
		remainingN := len(items)
		idx := int(math.Pow(rng.Float64(), worstCostExponent) * float64(remainingN))
		if idx >= remainingN {
			idx = remainingN - 1
		}
		removed = append(removed, items[idx].id)
		items = append(items[:idx], items[idx+1:]...)
	}

	return Rebuild(sol, removed, p), nodesFor(removed, p)
}
