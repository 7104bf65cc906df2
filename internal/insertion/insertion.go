// Package insertion enumerates candidate placements for a single customer
// against a solution across three action classes, and returns the best by
// delta-cost.
package insertion

import (
	"github.com/DangMmo/vrp2e-alns/internal/kernel"
	"github.com/DangMmo/vrp2e-alns/internal/objective"
	"github.com/DangMmo/vrp2e-alns/internal/problem"
	"github.com/DangMmo/vrp2e-alns/internal/solution"
)

// Type discriminates the three insertion action classes.
type Type int

const (
	// None is the sentinel "no feasible option" type.
	None Type = iota
	ExistingSE
	NewSENewFE
	NewSEExistingFE
)

// Option carries the objective delta plus everything Apply needs to build
// the new SolutionData atomically. The pre-built route records are stashed
// on the option at evaluation time, so applying it reuses the schedules the
// search already computed instead of rebuilding them.
type Option struct {
	Type              Type
	ObjectiveIncrease float64
	CustomerID        int

	feIndex   int // ExistingSE / NewSEExistingFE: which FE route is touched
	seIndices []int
	newSEs    []solution.SERouteData
	newFE     solution.FERouteData
}

// demandTotals sums delivery/pickup demand over the customer ids of a
// candidate SE node sequence (excludes the two satellite alias sentinels).
func demandTotals(nodesID []int, p *problem.ProblemInstance) (deliv, pickup float64) {
	for _, id := range nodesID[1 : len(nodesID)-1] {
		n := p.Node(id)
		if n.Type == problem.DeliveryCustomer {
			deliv += n.Demand
		} else {
			pickup += n.Demand
		}
	}
	return deliv, pickup
}

func stub(satelliteID int, nodesID []int, p *problem.ProblemInstance) solution.SERouteData {
	deliv, pickup := demandTotals(nodesID, p)
	return solution.SERouteData{
		SatelliteID:       satelliteID,
		NodesID:           nodesID,
		TotalDeliveryLoad: deliv,
		TotalPickupLoad:   pickup,
	}
}

// rebuildFE re-evaluates an FE route from a candidate list of SE stubs: every
// hosted SE is re-evaluated with its FE-supplied start time, never reusing a
// stale schedule.
func rebuildFE(seStubs []solution.SERouteData, p *problem.ProblemInstance) (bool, solution.FERouteData, []solution.SERouteData) {
	ok, res := kernel.FEEvaluate(seStubs, p)
	if !ok {
		return false, solution.FERouteData{}, nil
	}
	newSEs := make([]solution.SERouteData, len(seStubs))
	for i, s := range seStubs {
		r := res.RecomputedSE[i]
		newSEs[i] = solution.SERouteData{
			SatelliteID:       s.SatelliteID,
			NodesID:           s.NodesID,
			TotalDistance:     r.TotalDistance,
			TotalTravelTime:   r.TotalTravelTime,
			TotalDeliveryLoad: r.TotalDeliveryLoad,
			TotalPickupLoad:   r.TotalPickupLoad,
			ServiceStartTimes: r.ServiceStartTimes,
			WaitingTimes:      r.WaitingTimes,
			ForwardTimeSlacks: r.ForwardTimeSlacks,
		}
	}
	fe := solution.FERouteData{
		Schedule:        res.Schedule,
		TotalDistance:   res.TotalDistance,
		TotalTravelTime: res.TotalTravelTime,
		RouteDeadline:   res.RouteDeadline,
	}
	return true, fe, newSEs
}

// candidateCost builds the whole candidate SolutionData that applying opt
// would produce and returns its objective cost.
func candidateCost(sol solution.SolutionData, opt Option, primary objective.Primary, w objective.Weights, optimizeVehicleCount bool) float64 {
	cand := apply(sol, opt)
	return objective.Cost(cand, primary, w, optimizeVehicleCount)
}

func ownerFEIndex(sol solution.SolutionData, seIdx int) (int, bool) {
	for i, fe := range sol.FERoutes {
		for _, s := range fe.ServicedSERouteIndices {
			if s == seIdx {
				return i, true
			}
		}
	}
	return 0, false
}

// FindBest enumerates every candidate placement for customerID against sol
// and returns the one minimizing objective increase. If nothing is
// feasible, the returned Option's Type is None.
func FindBest(sol solution.SolutionData, customerID int, p *problem.ProblemInstance, cache *kernel.Cache, primary objective.Primary, w objective.Weights, optimizeVehicleCount bool) Option {
	currentCost := objective.Cost(sol, primary, w, optimizeVehicleCount)
	best := Option{Type: None, ObjectiveIncrease: objective.Infeasible, CustomerID: customerID}

	// Option 1: insert into an existing SE route.
	for seIdx, se := range sol.SERoutes {
		feIdx, hasOwner := ownerFEIndex(sol, seIdx)
		if !hasOwner {
			continue // orphaned SE routes are not extended by insertion
		}
		startTime := se.ServiceStartTimes[se.NodesID[0]]
		for pos := 1; pos < len(se.NodesID); pos++ {
			cand := make([]int, 0, len(se.NodesID)+1)
			cand = append(cand, se.NodesID[:pos]...)
			cand = append(cand, customerID)
			cand = append(cand, se.NodesID[pos:]...)

			ok, _ := cache.EvaluateSE(cand, se.SatelliteID, startTime, p)
			if !ok {
				continue
			}

			fe := sol.FERoutes[feIdx]
			seStubs := make([]solution.SERouteData, len(fe.ServicedSERouteIndices))
			for k, gi := range fe.ServicedSERouteIndices {
				if gi == seIdx {
					seStubs[k] = stub(se.SatelliteID, cand, p)
				} else {
					seStubs[k] = sol.SERoutes[gi]
				}
			}
			feOK, newFE, newSEs := rebuildFE(seStubs, p)
			if !feOK {
				continue
			}
			opt := Option{
				Type:       ExistingSE,
				CustomerID: customerID,
				feIndex:    feIdx,
				seIndices:  append([]int(nil), fe.ServicedSERouteIndices...),
				newSEs:     newSEs,
				newFE:      newFE,
			}
			cost := candidateCost(sol, opt, primary, w, optimizeVehicleCount)
			opt.ObjectiveIncrease = cost - currentCost
			if opt.ObjectiveIncrease < best.ObjectiveIncrease {
				best = opt
			}
		}
	}

	satellites := p.SatelliteNeighbors[customerID]
	if len(satellites) == 0 {
		satellites = make([]int, len(p.Satellites))
		for i, s := range p.Satellites {
			satellites[i] = s.DistID
		}
	}

	// Option 2: open a new SE route on a brand-new FE route. The delta is
	// closed-form since both routes are new and independent of the rest of
	// the solution.
	for _, satID := range satellites {
		sat := p.Node(satID)
		nodes := []int{sat.DistID, customerID, sat.CollID}
		s := stub(sat.DistID, nodes, p)
		ok, newFE, newSEs := rebuildFE([]solution.SERouteData{s}, p)
		if !ok {
			continue
		}
		var primaryDelta float64
		if primary == objective.Distance {
			primaryDelta = newSEs[0].TotalDistance + newFE.TotalDistance
		} else {
			primaryDelta = newSEs[0].TotalTravelTime + newFE.TotalTravelTime
		}
		increase := w.Primary * primaryDelta
		if optimizeVehicleCount {
			increase += w.FEVehicle + w.SEVehicle
		}
		if increase < best.ObjectiveIncrease {
			best = Option{
				Type:              NewSENewFE,
				CustomerID:        customerID,
				newSEs:            newSEs,
				newFE:             newFE,
				ObjectiveIncrease: increase,
			}
		}
	}

	// Option 3: open a new SE route hosted by an existing FE route.
	for _, satID := range satellites {
		sat := p.Node(satID)
		nodes := []int{sat.DistID, customerID, sat.CollID}
		newStub := stub(sat.DistID, nodes, p)

		for feIdx, fe := range sol.FERoutes {
			seStubs := make([]solution.SERouteData, 0, len(fe.ServicedSERouteIndices)+1)
			for _, gi := range fe.ServicedSERouteIndices {
				seStubs = append(seStubs, sol.SERoutes[gi])
			}
			seStubs = append(seStubs, newStub)

			ok, newFE, newSEs := rebuildFE(seStubs, p)
			if !ok {
				continue
			}
			opt := Option{
				Type:       NewSEExistingFE,
				CustomerID: customerID,
				feIndex:    feIdx,
				seIndices:  append([]int(nil), fe.ServicedSERouteIndices...),
				newSEs:     newSEs,
				newFE:      newFE,
			}
			cost := candidateCost(sol, opt, primary, w, optimizeVehicleCount)
			opt.ObjectiveIncrease = cost - currentCost
			if opt.ObjectiveIncrease < best.ObjectiveIncrease {
				best = opt
			}
		}
	}

	return best
}

// apply builds the candidate SolutionData for opt without touching the
// unserved-id bookkeeping (used both by candidateCost and by the exported
// Apply).
func apply(sol solution.SolutionData, opt Option) solution.SolutionData {
	switch opt.Type {
	case ExistingSE:
		feRoutes := append([]solution.FERouteData(nil), sol.FERoutes...)
		seRoutes := append([]solution.SERouteData(nil), sol.SERoutes...)
		for k, gi := range opt.seIndices {
			seRoutes[gi] = opt.newSEs[k]
		}
		newFE := opt.newFE
		newFE.ServicedSERouteIndices = append([]int(nil), opt.seIndices...)
		feRoutes[opt.feIndex] = newFE
		return solution.New(sol.Problem, feRoutes, seRoutes, sol.UnservedCustomerIDs)

	case NewSENewFE:
		seRoutes := append([]solution.SERouteData(nil), sol.SERoutes...)
		newIdx := len(seRoutes)
		seRoutes = append(seRoutes, opt.newSEs[len(opt.newSEs)-1])
		feRoutes := append([]solution.FERouteData(nil), sol.FERoutes...)
		newFE := opt.newFE
		newFE.ServicedSERouteIndices = []int{newIdx}
		feRoutes = append(feRoutes, newFE)
		return solution.New(sol.Problem, feRoutes, seRoutes, sol.UnservedCustomerIDs)

	case NewSEExistingFE:
		seRoutes := append([]solution.SERouteData(nil), sol.SERoutes...)
		for k, gi := range opt.seIndices {
			seRoutes[gi] = opt.newSEs[k]
		}
		newIdx := len(seRoutes)
		seRoutes = append(seRoutes, opt.newSEs[len(opt.newSEs)-1])
		feRoutes := append([]solution.FERouteData(nil), sol.FERoutes...)
		newFE := opt.newFE
		newFE.ServicedSERouteIndices = append(append([]int(nil), opt.seIndices...), newIdx)
		feRoutes[opt.feIndex] = newFE
		return solution.New(sol.Problem, feRoutes, seRoutes, sol.UnservedCustomerIDs)

	default:
		return sol
	}
}

// Apply builds the new SolutionData implied by opt and removes its
// CustomerID from the unserved list. If opt.Type is None, sol is returned
// unchanged with ok=false. As a defensive re-check, the touched FE route and
// the SE routes it hosts are re-evaluated through the kernel; if that fails,
// sol is returned unchanged with ok=false and the callers log the discrepancy.
func Apply(sol solution.SolutionData, opt Option) (solution.SolutionData, bool) {
	if opt.Type == None {
		return sol, false
	}
	cand := apply(sol, opt)
	feIdx := opt.feIndex
	if opt.Type == NewSENewFE {
		feIdx = len(cand.FERoutes) - 1
	}
	hosted := make([]solution.SERouteData, 0, len(cand.FERoutes[feIdx].ServicedSERouteIndices))
	for _, gi := range cand.FERoutes[feIdx].ServicedSERouteIndices {
		hosted = append(hosted, cand.SERoutes[gi])
	}
	if ok, _ := kernel.FEEvaluate(hosted, sol.Problem); !ok {
		return sol, false
	}
	unserved := make([]int, 0, len(sol.UnservedCustomerIDs))
	for _, id := range sol.UnservedCustomerIDs {
		if id != opt.CustomerID {
			unserved = append(unserved, id)
		}
	}
	return solution.New(sol.Problem, cand.FERoutes, cand.SERoutes, unserved), true
}
