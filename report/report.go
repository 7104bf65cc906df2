// Package report holds pure, read-only helpers over a built SolutionData:
// invariant validation and a plain summary structure. Both return data for
// a caller to format or print — neither does any I/O itself.
package report

import (
	"fmt"

	"github.com/DangMmo/vrp2e-alns/internal/kernel"
	"github.com/DangMmo/vrp2e-alns/internal/objective"
	"github.com/DangMmo/vrp2e-alns/internal/problem"
	"github.com/DangMmo/vrp2e-alns/internal/solution"
)

// ValidateSolution re-checks customer conservation, route capacity and
// time-window feasibility, and first-echelon load and deadline bounds
// against an already-built SolutionData. It returns one human-readable
// string per violation found; an empty slice means the solution is
// feasible.
func ValidateSolution(s solution.SolutionData) []string {
	var violations []string
	p := s.Problem

	// Conservation: served ⊎ unserved == all customers, no duplicates.
	seen := make(map[int]int, len(p.Customers))
	for _, se := range s.SERoutes {
		for _, cid := range se.Customers() {
			seen[cid]++
		}
	}
	for _, id := range s.UnservedCustomerIDs {
		seen[id]++
	}
	for _, c := range p.Customers {
		switch seen[c.ID] {
		case 1:
			// fine
		case 0:
			violations = append(violations, fmt.Sprintf("customer %d is neither served nor unserved", c.ID))
		default:
			violations = append(violations, fmt.Sprintf("customer %d appears %d times across served+unserved", c.ID, seen[c.ID]))
		}
	}

	for idx, se := range s.SERoutes {
		violations = append(violations, validateSERoute(idx, se, p)...)
	}
	for idx, fe := range s.FERoutes {
		violations = append(violations, validateFERoute(idx, fe, p)...)
	}
	return violations
}

func validateSERoute(idx int, se solution.SERouteData, p *problem.ProblemInstance) []string {
	var v []string
	if len(se.NodesID) < 2 {
		return append(v, fmt.Sprintf("SE route %d: fewer than 2 nodes", idx))
	}
	sat, ok := p.SatelliteByPhysicalID(se.SatelliteID % p.TotalNodes)
	if !ok {
		return append(v, fmt.Sprintf("SE route %d: satellite id %d not found", idx, se.SatelliteID))
	}
	if se.NodesID[0] != sat.DistID {
		v = append(v, fmt.Sprintf("SE route %d: first node %d is not satellite %d's dist alias", idx, se.NodesID[0], sat.ID))
	}
	if se.NodesID[len(se.NodesID)-1] != sat.CollID {
		v = append(v, fmt.Sprintf("SE route %d: last node %d is not satellite %d's coll alias", idx, se.NodesID[len(se.NodesID)-1], sat.ID))
	}
	if se.TotalDeliveryLoad > p.SEVehicleCapacity+kernel.Epsilon {
		v = append(v, fmt.Sprintf("SE route %d: delivery load %.4f exceeds capacity %.4f", idx, se.TotalDeliveryLoad, p.SEVehicleCapacity))
	}
	for _, cid := range se.Customers() {
		n := p.Node(cid)
		ss, hasSS := se.ServiceStartTimes[cid]
		if !hasSS {
			v = append(v, fmt.Sprintf("SE route %d: customer %d has no recorded service start", idx, cid))
			continue
		}
		if ss < n.ReadyTime-kernel.Epsilon || ss > n.DueTime+kernel.Epsilon {
			v = append(v, fmt.Sprintf("SE route %d: customer %d service start %.4f outside [%.4f, %.4f]", idx, cid, ss, n.ReadyTime, n.DueTime))
		}
	}
	return v
}

func validateFERoute(idx int, fe solution.FERouteData, p *problem.ProblemInstance) []string {
	var v []string
	seen := make(map[int]int)
	for _, ev := range fe.Schedule {
		if ev.LoadAfter < -kernel.Epsilon || ev.LoadAfter > p.FEVehicleCapacity+kernel.Epsilon {
			v = append(v, fmt.Sprintf("FE route %d: load_after %.4f at node %d outside [0, %.4f]", idx, ev.LoadAfter, ev.NodeID, p.FEVehicleCapacity))
		}
		if ev.Kind == solution.UnloadDeliv || ev.Kind == solution.LoadPickup {
			seen[ev.NodeID]++
		}
	}
	for node, count := range seen {
		if count != 2 {
			v = append(v, fmt.Sprintf("FE route %d: satellite %d visited with %d unload/load events, want 2", idx, node, count))
		}
	}
	if len(fe.Schedule) > 0 {
		last := fe.Schedule[len(fe.Schedule)-1]
		if last.Arrival > fe.RouteDeadline+kernel.Epsilon {
			v = append(v, fmt.Sprintf("FE route %d: final arrival %.4f exceeds route deadline %.4f", idx, last.Arrival, fe.RouteDeadline))
		}
	}
	return v
}

// RouteSummary is a plain, printable extraction of one route's totals.
type RouteSummary struct {
	Index         int
	Distance      float64
	TravelTime    float64
	CustomerCount int
}

// Summary is the plain data Summarize returns.
type Summary struct {
	FERouteCount  int
	SERouteCount  int
	UnservedCount int
	ObjectiveCost float64
	FERoutes      []RouteSummary
	SERoutes      []RouteSummary
}

// Summarize extracts a plain Summary from s for a reporting collaborator to
// format; it never prints anything itself.
func Summarize(s solution.SolutionData, primary objective.Primary, w objective.Weights, optimizeVehicleCount bool) Summary {
	cost := objective.Cost(s, primary, w, optimizeVehicleCount)
	sum := Summary{
		FERouteCount:  len(s.FERoutes),
		SERouteCount:  len(s.SERoutes),
		UnservedCount: len(s.UnservedCustomerIDs),
		ObjectiveCost: cost,
	}
	for i, fe := range s.FERoutes {
		n := 0
		for _, gi := range fe.ServicedSERouteIndices {
			n += len(s.SERoutes[gi].Customers())
		}
		sum.FERoutes = append(sum.FERoutes, RouteSummary{Index: i, Distance: fe.TotalDistance, TravelTime: fe.TotalTravelTime, CustomerCount: n})
	}
	for i, se := range s.SERoutes {
		sum.SERoutes = append(sum.SERoutes, RouteSummary{Index: i, Distance: se.TotalDistance, TravelTime: se.TotalTravelTime, CustomerCount: len(se.Customers())})
	}
	return sum
}
