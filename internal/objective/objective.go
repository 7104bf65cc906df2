// Package objective computes the weighted cost of a SolutionData: a
// primary term (total distance or total travel time, summed over every FE
// and SE route) plus, optionally, vehicle-count terms.
package objective

import (
	"errors"
	"fmt"
	"math"

	"github.com/DangMmo/vrp2e-alns/internal/solution"
)

// Primary selects which quantity the primary cost term sums.
type Primary int

const (
	Distance Primary = iota
	TravelTime
)

// ErrUnknownObjective is returned by ParsePrimary for any value outside
// {"DISTANCE", "TRAVEL_TIME"}. It is a configuration error: fatal, surfaced
// when the configuration string is parsed, before any cost is evaluated,
// never swallowed the way kernel infeasibility is.
var ErrUnknownObjective = errors.New("objective: unknown PRIMARY_OBJECTIVE")

// ParsePrimary maps the PRIMARY_OBJECTIVE configuration string to a
// Primary, or ErrUnknownObjective for anything else.
func ParsePrimary(s string) (Primary, error) {
	switch s {
	case "DISTANCE":
		return Distance, nil
	case "TRAVEL_TIME":
		return TravelTime, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownObjective, s)
	}
}

// Weights bundles the weighted-sum coefficients applied to the primary cost
// term and, when vehicle counting is enabled, each echelon's vehicle count.
type Weights struct {
	Primary   float64
	FEVehicle float64
	SEVehicle float64
}

// Cost returns the weighted objective for s. OptimizeVehicleCount toggles
// whether the vehicle-count terms are added at all.
func Cost(s solution.SolutionData, primary Primary, w Weights, optimizeVehicleCount bool) float64 {
	var primaryCost float64
	for _, fe := range s.FERoutes {
		primaryCost += primaryOf(fe.TotalDistance, fe.TotalTravelTime, primary)
	}
	for _, se := range s.SERoutes {
		primaryCost += primaryOf(se.TotalDistance, se.TotalTravelTime, primary)
	}

	total := w.Primary * primaryCost
	if optimizeVehicleCount {
		total += float64(len(s.FERoutes))*w.FEVehicle + float64(len(s.SERoutes))*w.SEVehicle
	}
	return total
}

func primaryOf(dist, travelTime float64, primary Primary) float64 {
	if primary == Distance {
		return dist
	}
	return travelTime
}

// Infeasible is the +Inf sentinel cost; the insertion engine starts its
// search from it. Cost sums the routes' stored totals without re-evaluating
// them, so it never returns Infeasible itself.
var Infeasible = math.Inf(1)

// IsInfeasible reports whether cost is the sentinel infeasible cost.
func IsInfeasible(cost float64) bool {
	return math.IsInf(cost, 1)
}
