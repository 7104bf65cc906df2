// Package kernel implements the two pure feasibility+schedule functions the
// rest of the solver builds on: SEEvaluate for a single second-echelon
// route, and FEEvaluate for a first-echelon route servicing a set of SE
// routes. Both are side-effect free — same input, same output, every time —
// which is what makes them memoizable.
package kernel

import (
	"math"

	"github.com/DangMmo/vrp2e-alns/internal/problem"
)

// Epsilon is the feasibility tolerance applied to every upper and lower
// bound comparison in the kernel.
const Epsilon = 1e-6

// SEResult carries everything SERouteData needs besides SatelliteID and
// NodesID (which the caller already has).
type SEResult struct {
	TotalDistance     float64
	TotalTravelTime   float64
	TotalDeliveryLoad float64
	TotalPickupLoad   float64
	ServiceStartTimes map[int]float64
	WaitingTimes      map[int]float64
	ForwardTimeSlacks map[int]float64
}

// SEEvaluate computes feasibility and the full schedule for a candidate SE
// route: nodesID must start and end with the same satellite's two aliases,
// with customer ids in between. startTime is the time the vehicle departs
// the satellite's distribution alias.
func SEEvaluate(nodesID []int, startTime float64, p *problem.ProblemInstance) (bool, SEResult) {
	if len(nodesID) < 2 {
		return false, SEResult{}
	}

	var totalDeliv, totalPickup float64
	for _, id := range nodesID[1 : len(nodesID)-1] {
		n := p.Node(id)
		if n.Type == problem.DeliveryCustomer {
			totalDeliv += n.Demand
		} else {
			totalPickup += n.Demand
		}
	}
	if totalDeliv > p.SEVehicleCapacity+Epsilon {
		return false, SEResult{}
	}

	n := len(nodesID)
	arrival := make([]float64, n)
	departure := make([]float64, n)
	serviceStart := make(map[int]float64, n)
	waiting := make(map[int]float64, n)

	var totalDist, totalTime float64
	load := totalDeliv

	for i, id := range nodesID {
		node := p.Node(id)
		if i == 0 {
			arrival[i] = startTime
		} else {
			prev := nodesID[i-1]
			totalDist += p.Distance(prev, id)
			totalTime += p.TravelTime(prev, id)
			arrival[i] = departure[i-1] + p.TravelTime(prev, id)
		}

		ready, due := 0.0, math.Inf(1)
		if node.IsCustomer() {
			ready, due = node.ReadyTime, node.DueTime
		}
		ss := math.Max(arrival[i], ready)
		if ss > due+Epsilon {
			return false, SEResult{}
		}
		serviceStart[id] = ss
		waiting[id] = ss - arrival[i]
		departure[i] = ss + node.ServiceTime

		if i > 0 && i < n-1 {
			if node.Type == problem.DeliveryCustomer {
				load -= node.Demand
			} else {
				load += node.Demand
			}
			if load < -Epsilon || load > p.SEVehicleCapacity+Epsilon {
				return false, SEResult{}
			}
		}
	}

	slack := make(map[int]float64, n)
	nextSlack := math.Inf(1)
	for i := n - 1; i >= 0; i-- {
		id := nodesID[i]
		if i == n-1 {
			slack[id] = math.Inf(1)
			nextSlack = math.Inf(1)
			continue
		}
		node := p.Node(id)
		due := math.Inf(1)
		if node.IsCustomer() {
			due = node.DueTime
		}
		candidate := nextSlack + (arrival[i+1] - departure[i])
		dueSlack := due - serviceStart[id]
		v := math.Min(candidate, dueSlack)
		slack[id] = v
		nextSlack = v
	}

	return true, SEResult{
		TotalDistance:     totalDist,
		TotalTravelTime:   totalTime,
		TotalDeliveryLoad: totalDeliv,
		TotalPickupLoad:   totalPickup,
		ServiceStartTimes: serviceStart,
		WaitingTimes:      waiting,
		ForwardTimeSlacks: slack,
	}
}
