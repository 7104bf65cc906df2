// Package solution holds the immutable route and whole-solution records
// produced by the insertion engine, the destroy-rebuild helper, and the
// repair operator. Nothing in this package mutates a record in place —
// every change produces a new value via New.
package solution

import "github.com/DangMmo/vrp2e-alns/internal/problem"

// EventKind enumerates the FE route schedule event tags.
type EventKind int

const (
	DepartDepot EventKind = iota
	UnloadDeliv
	LoadPickup
	ArriveDepot
)

func (k EventKind) String() string {
	switch k {
	case DepartDepot:
		return "DEPART_DEPOT"
	case UnloadDeliv:
		return "UNLOAD_DELIV"
	case LoadPickup:
		return "LOAD_PICKUP"
	case ArriveDepot:
		return "ARRIVE_DEPOT"
	default:
		return "UNKNOWN"
	}
}

// ScheduleEvent is one entry of an FE route's schedule.
type ScheduleEvent struct {
	Kind      EventKind
	NodeID    int
	Arrival   float64
	Start     float64
	Departure float64
	LoadAfter float64
}

// SERouteData is an immutable second-echelon route: it starts at a
// satellite's distribution alias and ends at its collection alias, with
// customer ids in between.
type SERouteData struct {
	SatelliteID int
	NodesID     []int

	TotalDistance     float64
	TotalTravelTime   float64
	TotalDeliveryLoad float64
	TotalPickupLoad   float64

	ServiceStartTimes map[int]float64
	WaitingTimes      map[int]float64
	ForwardTimeSlacks map[int]float64
}

// Customers returns the customer ids hosted by this route (excludes the two
// satellite alias sentinels).
func (r SERouteData) Customers() []int {
	if len(r.NodesID) <= 2 {
		return nil
	}
	return r.NodesID[1 : len(r.NodesID)-1]
}

// FERouteData is an immutable first-echelon route.
type FERouteData struct {
	ServicedSERouteIndices []int
	Schedule               []ScheduleEvent

	TotalDistance   float64
	TotalTravelTime float64
	RouteDeadline   float64
}

// SolutionData is the immutable whole-solution record. Copying the struct
// by value is cheap and safe — the inner slices/maps are never mutated
// after construction, only replaced wholesale by New.
type SolutionData struct {
	Problem             *problem.ProblemInstance
	FERoutes             []FERouteData
	SERoutes             []SERouteData
	UnservedCustomerIDs  []int
	CustomerToSERouteIdx map[int]int
}

// New builds a SolutionData, deriving CustomerToSERouteIdx from the SE
// route node sequences. Slices passed in are copied defensively so the
// caller's backing arrays can be reused or mutated afterward without
// corrupting the returned value.
func New(p *problem.ProblemInstance, feRoutes []FERouteData, seRoutes []SERouteData, unserved []int) SolutionData {
	idx := make(map[int]int, len(seRoutes))
	for i, se := range seRoutes {
		for _, cid := range se.Customers() {
			idx[cid] = i
		}
	}
	return SolutionData{
		Problem:              p,
		FERoutes:             append([]FERouteData(nil), feRoutes...),
		SERoutes:             append([]SERouteData(nil), seRoutes...),
		UnservedCustomerIDs:  append([]int(nil), unserved...),
		CustomerToSERouteIdx: idx,
	}
}

// Empty returns a SolutionData with no routes and every customer unserved.
func Empty(p *problem.ProblemInstance) SolutionData {
	unserved := make([]int, 0, len(p.Customers))
	for _, c := range p.Customers {
		unserved = append(unserved, c.ID)
	}
	return New(p, nil, nil, unserved)
}

// NumServed returns the count of customers with an assigned SE route.
func (s SolutionData) NumServed() int {
	return len(s.CustomerToSERouteIdx)
}
