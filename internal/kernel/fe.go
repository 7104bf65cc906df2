package kernel

import (
	"math"
	"sort"

	"github.com/DangMmo/vrp2e-alns/internal/problem"
	"github.com/DangMmo/vrp2e-alns/internal/solution"
)

// FEResult carries the recomputed FE schedule/totals plus the recomputed
// SEResult for every input SE route — aligned index-for-index with the
// seRoutes slice passed to FEEvaluate — so a caller can rebuild each
// SERouteData with the FE-supplied start time instead of reusing a stale
// schedule.
type FEResult struct {
	Schedule        []solution.ScheduleEvent
	TotalDistance   float64
	TotalTravelTime float64
	RouteDeadline   float64
	RecomputedSE    []SEResult
}

// FEEvaluate computes feasibility and the full depot->satellites->depot
// schedule for an FE route servicing seRoutes. Satellites are visited in
// non-decreasing distance from the depot, ties broken by satellite id, which
// makes the result insensitive to the input order of seRoutes.
func FEEvaluate(seRoutes []solution.SERouteData, p *problem.ProblemInstance) (bool, FEResult) {
	recomputed := make([]SEResult, len(seRoutes))

	var totalDeliv float64
	for _, se := range seRoutes {
		totalDeliv += se.TotalDeliveryLoad
	}
	if totalDeliv > p.FEVehicleCapacity+Epsilon {
		return false, FEResult{}
	}

	bySatellite := make(map[int][]int) // satellite physical id -> indices into seRoutes
	for i, se := range seRoutes {
		pid := se.SatelliteID % p.TotalNodes
		bySatellite[pid] = append(bySatellite[pid], i)
	}
	satIDs := make([]int, 0, len(bySatellite))
	for sid := range bySatellite {
		satIDs = append(satIDs, sid)
	}
	sort.Slice(satIDs, func(i, j int) bool {
		di, dj := p.Distance(p.Depot.ID, satIDs[i]), p.Distance(p.Depot.ID, satIDs[j])
		if di != dj {
			return di < dj
		}
		return satIDs[i] < satIDs[j]
	})

	schedule := make([]solution.ScheduleEvent, 0, 2+2*len(satIDs))
	currentTime := 0.0
	currentLoad := totalDeliv
	lastNode := p.Depot.ID
	var totalDist, totalTime float64

	schedule = append(schedule, solution.ScheduleEvent{
		Kind: solution.DepartDepot, NodeID: p.Depot.ID,
		Arrival: 0, Start: 0, Departure: 0, LoadAfter: currentLoad,
	})

	var deadline = math.Inf(1)

	for _, sid := range satIDs {
		d := p.Distance(lastNode, sid)
		tt := p.TravelTime(lastNode, sid)
		totalDist += d
		totalTime += tt
		arrival := currentTime + tt

		var deliverShare, pickupShare float64
		for _, i := range bySatellite[sid] {
			deliverShare += seRoutes[i].TotalDeliveryLoad
		}
		loadAfterUnload := currentLoad - deliverShare
		if loadAfterUnload < -Epsilon || loadAfterUnload > p.FEVehicleCapacity+Epsilon {
			return false, FEResult{}
		}
		schedule = append(schedule, solution.ScheduleEvent{
			Kind: solution.UnloadDeliv, NodeID: sid,
			Arrival: arrival, Start: arrival, Departure: arrival, LoadAfter: loadAfterUnload,
		})

		latestFinish := arrival
		for _, i := range bySatellite[sid] {
			se := seRoutes[i]
			ok, res := SEEvaluate(se.NodesID, arrival, p)
			if !ok {
				return false, FEResult{}
			}
			recomputed[i] = res
			pickupShare += res.TotalPickupLoad
			finish := res.ServiceStartTimes[se.NodesID[len(se.NodesID)-1]]
			if finish > latestFinish {
				latestFinish = finish
			}
			for _, cid := range se.Customers() {
				if n := p.Node(cid); n.Type == problem.PickupCustomer && n.Deadline < deadline {
					deadline = n.Deadline
				}
			}
		}

		loadAfterPickup := loadAfterUnload + pickupShare
		if loadAfterPickup < -Epsilon || loadAfterPickup > p.FEVehicleCapacity+Epsilon {
			return false, FEResult{}
		}
		schedule = append(schedule, solution.ScheduleEvent{
			Kind: solution.LoadPickup, NodeID: sid,
			Arrival: latestFinish, Start: latestFinish, Departure: latestFinish, LoadAfter: loadAfterPickup,
		})

		currentLoad = loadAfterPickup
		currentTime = latestFinish
		lastNode = sid
	}

	ttDepot := p.TravelTime(lastNode, p.Depot.ID)
	dDepot := p.Distance(lastNode, p.Depot.ID)
	totalDist += dDepot
	totalTime += ttDepot
	arrivalDepot := currentTime + ttDepot
	if arrivalDepot > deadline+Epsilon {
		return false, FEResult{}
	}
	schedule = append(schedule, solution.ScheduleEvent{
		Kind: solution.ArriveDepot, NodeID: p.Depot.ID,
		Arrival: arrivalDepot, Start: arrivalDepot, Departure: arrivalDepot, LoadAfter: currentLoad,
	})

	return true, FEResult{
		Schedule:        schedule,
		TotalDistance:   totalDist,
		TotalTravelTime: totalTime,
		RouteDeadline:   deadline,
		RecomputedSE:    recomputed,
	}
}
