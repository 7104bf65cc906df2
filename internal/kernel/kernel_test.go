package kernel

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/DangMmo/vrp2e-alns/internal/problem"
	"github.com/DangMmo/vrp2e-alns/internal/solution"
)

// buildToy builds a single-satellite instance: depot(0,0), satellite(10,0),
// two delivery customers and one pickup customer further out along the
// same line, wide time windows, FE=10, SE=seCap, vehicle_speed=1.
func buildToy(t *testing.T, seCap float64) *problem.ProblemInstance {
	t.Helper()
	nodes := []problem.Node{
		{Type: problem.Depot, X: 0, Y: 0},
		{Type: problem.Satellite, X: 10, Y: 0},
		{Type: problem.DeliveryCustomer, X: 12, Y: 0, ReadyTime: 0, DueTime: 1000, Demand: 3},
		{Type: problem.DeliveryCustomer, X: 14, Y: 0, ReadyTime: 0, DueTime: 1000, Demand: 2},
		{Type: problem.PickupCustomer, X: 16, Y: 0, ReadyTime: 0, DueTime: 1000, Demand: 1, Deadline: 1000},
	}
	n := len(nodes)
	dist := make([][]float64, n)
	for i := range dist {
		dist[i] = make([]float64, n)
		for j := range dist[i] {
			dist[i][j] = math.Abs(nodes[i].X - nodes[j].X)
		}
	}
	p, err := problem.New(nodes, dist, problem.BuildOptions{
		FEVehicleCapacity: 10, SEVehicleCapacity: seCap, VehicleSpeed: 1,
		PruningKCustomers: 5, PruningMSatellites: 5,
	})
	require.NoError(t, err)
	return p
}

func toySERoute(p *problem.ProblemInstance) []int {
	sat := p.Satellites[0]
	d1, d2, pk := p.Customers[0], p.Customers[1], p.Customers[2]
	return []int{sat.DistID, d1.ID, d2.ID, pk.ID, sat.CollID}
}

func TestSEEvaluateFeasibleToy(t *testing.T) {
	p := buildToy(t, 5)
	nodes := toySERoute(p)
	ok, res := SEEvaluate(nodes, 0, p)
	require.True(t, ok)
	require.InDelta(t, 5.0, res.TotalDeliveryLoad, 1e-9) // 3 + 2
	require.InDelta(t, 1.0, res.TotalPickupLoad, 1e-9)
	require.InDelta(t, 12.0, res.TotalDistance, 1e-9) // 10->12->14->16->10
}

func TestSEEvaluateCapacityViolation(t *testing.T) {
	p := buildToy(t, 3) // capacity too small: delivery load alone is 5
	nodes := toySERoute(p)
	ok, _ := SEEvaluate(nodes, 0, p)
	require.False(t, ok)
}

func TestSEEvaluatePurity(t *testing.T) {
	p := buildToy(t, 5)
	nodes := toySERoute(p)
	ok1, res1 := SEEvaluate(nodes, 3.5, p)
	ok2, res2 := SEEvaluate(nodes, 3.5, p)
	require.Equal(t, ok1, ok2)
	require.Equal(t, res1, res2)
}

func TestForwardSlackBound(t *testing.T) {
	p := buildToy(t, 5)
	nodes := toySERoute(p)
	ok, res := SEEvaluate(nodes, 0, p)
	require.True(t, ok)

	for _, cid := range nodes[1 : len(nodes)-1] {
		slack := res.ForwardTimeSlacks[cid]
		if math.IsInf(slack, 1) {
			continue
		}
		shifted := res.ServiceStartTimes[cid] + slack
		// Delaying service at this node by its full slack must still land
		// within the node's own due time.
		require.LessOrEqual(t, shifted, p.Node(cid).DueTime+Epsilon)
	}
}

func seRouteFromResult(satelliteID int, nodes []int, res SEResult) solution.SERouteData {
	return solution.SERouteData{
		SatelliteID:       satelliteID,
		NodesID:           nodes,
		TotalDistance:     res.TotalDistance,
		TotalTravelTime:   res.TotalTravelTime,
		TotalDeliveryLoad: res.TotalDeliveryLoad,
		TotalPickupLoad:   res.TotalPickupLoad,
		ServiceStartTimes: res.ServiceStartTimes,
		WaitingTimes:      res.WaitingTimes,
		ForwardTimeSlacks: res.ForwardTimeSlacks,
	}
}

func TestFEEvaluateSingleSatellite(t *testing.T) {
	p := buildToy(t, 5)
	sat := p.Satellites[0]
	nodes := toySERoute(p)
	ok, seRes := SEEvaluate(nodes, 0, p)
	require.True(t, ok)
	se := seRouteFromResult(sat.ID, nodes, seRes)

	feOK, feRes := FEEvaluate([]solution.SERouteData{se}, p)
	require.True(t, feOK)
	require.Len(t, feRes.Schedule, 4) // depart, unload, load, arrive
	require.LessOrEqual(t, feRes.Schedule[len(feRes.Schedule)-1].Arrival, feRes.RouteDeadline+Epsilon)
}

// buildToyTwoSatellites gives each satellite one delivery customer so an FE
// route services two independent SE routes, exercising the satellite
// visiting order and its tie-break/permutation-insensitivity.
func buildToyTwoSatellites(t *testing.T) *problem.ProblemInstance {
	t.Helper()
	nodes := []problem.Node{
		{Type: problem.Depot, X: 0, Y: 0},
		{Type: problem.Satellite, X: 10, Y: 0},
		{Type: problem.Satellite, X: -10, Y: 0},
		{Type: problem.DeliveryCustomer, X: 12, Y: 0, ReadyTime: 0, DueTime: 1000, Demand: 2},
		{Type: problem.DeliveryCustomer, X: -12, Y: 0, ReadyTime: 0, DueTime: 1000, Demand: 2},
	}
	n := len(nodes)
	dist := make([][]float64, n)
	for i := range dist {
		dist[i] = make([]float64, n)
		for j := range dist[i] {
			dist[i][j] = math.Abs(nodes[i].X - nodes[j].X)
		}
	}
	p, err := problem.New(nodes, dist, problem.BuildOptions{
		FEVehicleCapacity: 10, SEVehicleCapacity: 5, VehicleSpeed: 1,
		PruningKCustomers: 5, PruningMSatellites: 5,
	})
	require.NoError(t, err)
	return p
}

func twoSatelliteRoutes(t *testing.T, p *problem.ProblemInstance) (solution.SERouteData, solution.SERouteData) {
	t.Helper()
	sat1, sat2 := p.Satellites[0], p.Satellites[1]
	c1, c2 := p.Customers[0], p.Customers[1]
	n1 := []int{sat1.DistID, c1.ID, sat1.CollID}
	n2 := []int{sat2.DistID, c2.ID, sat2.CollID}
	ok1, r1 := SEEvaluate(n1, 0, p)
	require.True(t, ok1)
	ok2, r2 := SEEvaluate(n2, 0, p)
	require.True(t, ok2)
	return seRouteFromResult(sat1.ID, n1, r1), seRouteFromResult(sat2.ID, n2, r2)
}

func TestFEEvaluatePermutationInsensitive(t *testing.T) {
	p := buildToyTwoSatellites(t)
	se1, se2 := twoSatelliteRoutes(t, p)

	okA, a := FEEvaluate([]solution.SERouteData{se1, se2}, p)
	okB, b := FEEvaluate([]solution.SERouteData{se2, se1}, p)
	require.Equal(t, okA, okB)
	require.InDelta(t, a.TotalDistance, b.TotalDistance, 1e-9)
	require.InDelta(t, a.TotalTravelTime, b.TotalTravelTime, 1e-9)
}

func TestCacheHitMatchesDirectEvaluate(t *testing.T) {
	p := buildToy(t, 5)
	nodes := toySERoute(p)
	c := NewCache(16)
	ok1, res1 := c.EvaluateSE(nodes, p.Satellites[0].ID, 0, p)
	ok2, res2 := c.EvaluateSE(nodes, p.Satellites[0].ID, 0, p)
	require.Equal(t, ok1, ok2)
	require.Equal(t, res1, res2)
	require.Equal(t, 1, c.Len())
}

func TestCacheEvictsBoundedly(t *testing.T) {
	p := buildToy(t, 5)
	nodes := toySERoute(p)
	c := NewCache(2)
	for i := 0; i < 10; i++ {
		c.EvaluateSE(nodes, p.Satellites[0].ID, float64(i), p)
	}
	require.LessOrEqual(t, c.Len(), 2)
}
