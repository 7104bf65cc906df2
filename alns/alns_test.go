package alns

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"

	"github.com/DangMmo/vrp2e-alns/internal/kernel"
	"github.com/DangMmo/vrp2e-alns/internal/objective"
	"github.com/DangMmo/vrp2e-alns/internal/problem"
	"github.com/DangMmo/vrp2e-alns/internal/selector"
	"github.com/DangMmo/vrp2e-alns/report"
)

func buildToyProblem(t *testing.T, seCap float64) *problem.ProblemInstance {
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

func baseCfg() Config {
	return Config{
		VehicleSpeed:          1,
		LNSInitialIterations:  20,
		QPercentageInitial:    0.5,
		ALNSMainIterations:    50,
		StartTempAcceptProb:   0.5,
		StartTempWorseningPct: 0.05,
		CoolingRate:           0.9,
		ReactionFactor:        0.1,
		SegmentLength:         10,
		Sigma1NewBest:         9,
		Sigma2Better:          5,
		Sigma3Accepted:        2,
		QSmallRangeLo:         0.1,
		QSmallRangeHi:         0.3,
		RestartThreshold:      10,
		RandomSeed:            1,
		PrimaryObjective:      "TRAVEL_TIME",
		OptimizeVehicleCount:  true,
		WeightPrimary:         1,
		WeightFEVehicle:       100,
		WeightSEVehicle:       10,
		CacheCapacity:         512,
	}
}

// TestSingleSatelliteAllCustomersServed constructs a toy instance with one
// satellite and enough capacity for every customer in a single SE route,
// and expects the whole instance to come back served by one FE/SE route
// pair with a finite cost.
func TestSingleSatelliteAllCustomersServed(t *testing.T) {
	p := buildToyProblem(t, 5)
	cfg := baseCfg()
	res, err := Construct(p, cfg)
	require.NoError(t, err)
	require.Equal(t, 1, len(res.Best.FERoutes))
	require.Equal(t, 1, len(res.Best.SERoutes))
	require.Empty(t, res.Best.UnservedCustomerIDs)
	cost := objective.Cost(res.Best, cfg.primary(), cfg.weights(), cfg.OptimizeVehicleCount)
	require.False(t, math.IsInf(cost, 1))
}

// TestCapacityForcesSplit lowers SE vehicle capacity below the toy
// instance's total demand and expects construction to open a second SE
// route rather than leave anyone unserved.
func TestCapacityForcesSplit(t *testing.T) {
	p := buildToyProblem(t, 3)
	cfg := baseCfg()
	res, err := Construct(p, cfg)
	require.NoError(t, err)
	require.Equal(t, 1, len(res.Best.FERoutes))
	require.Equal(t, 2, len(res.Best.SERoutes))
	require.Empty(t, res.Best.UnservedCustomerIDs)
}

// TestDeadlineInfeasibility gives a pickup a deadline tighter than 2x the
// depot<->satellite travel time, which no vehicle can meet, so it must end
// up unserved with the solution otherwise reporting no violations.
func TestDeadlineInfeasibility(t *testing.T) {
	nodes := []problem.Node{
		{Type: problem.Depot, X: 0, Y: 0},
		{Type: problem.Satellite, X: 10, Y: 0},
		{Type: problem.PickupCustomer, X: 11, Y: 0, ReadyTime: 0, DueTime: 1000, Demand: 1, Deadline: 5},
	}
	n := len(nodes)
	dist := make([][]float64, n)
	for i := range dist {
		dist[i] = make([]float64, n)
		for j := range dist[i] {
			dist[i][j] = math.Abs(nodes[i].X - nodes[j].X)
		}
	}
	p, err := problem.New(nodes, dist, problem.BuildOptions{FEVehicleCapacity: 10, SEVehicleCapacity: 10, VehicleSpeed: 1})
	require.NoError(t, err)

	cfg := baseCfg()
	res, err := Construct(p, cfg)
	require.NoError(t, err)
	require.Contains(t, res.Best.UnservedCustomerIDs, p.Customers[0].ID)
	require.Empty(t, report.ValidateSolution(res.Best))
}

// TestRestartRevertsToBest runs the main loop on an instance where, after
// the feasible construction, no further improvement is possible: best cost
// must never increase across the run, and since no iteration finds a new
// best, the current state reverts to best at iterations 10, 20 and 30.
func TestRestartRevertsToBest(t *testing.T) {
	p := buildToyProblem(t, 5)
	cfg := baseCfg()
	cfg.RestartThreshold = 10
	cfg.ALNSMainIterations = 35
	constructed, err := Construct(p, cfg)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(cfg.RandomSeed))
	cache := kernel.NewCache(cfg.CacheCapacity)
	destroyPool := DefaultDestroyPool()
	repairPool := DefaultRepairPool()
	res := Run(constructed.Best, p, cfg, cfg.ALNSMainIterations, false, destroyPool, repairPool, cache, rng)

	require.Len(t, res.RunHistory, cfg.ALNSMainIterations)
	for i := 1; i < len(res.RunHistory); i++ {
		require.LessOrEqual(t, res.RunHistory[i].BestCost, res.RunHistory[i-1].BestCost+1e-9)
	}
	for _, it := range []int{10, 20, 30} {
		require.Equal(t, res.RunHistory[it-1].BestCost, res.RunHistory[it-1].CurrentCost)
	}
}

// TestObjectiveSwitchYieldsEqualPrimaryCosts checks that with
// vehicle_speed=1, DISTANCE and TRAVEL_TIME primary costs coincide.
func TestObjectiveSwitchYieldsEqualPrimaryCosts(t *testing.T) {
	p := buildToyProblem(t, 5)

	cfgDist := baseCfg()
	cfgDist.PrimaryObjective = "DISTANCE"
	cfgDist.OptimizeVehicleCount = false
	resDist, err := Construct(p, cfgDist)
	require.NoError(t, err)

	cfgTime := baseCfg()
	cfgTime.PrimaryObjective = "TRAVEL_TIME"
	cfgTime.OptimizeVehicleCount = false
	resTime, err := Construct(p, cfgTime)
	require.NoError(t, err)

	costDist := objective.Cost(resDist.Best, cfgDist.primary(), cfgDist.weights(), false)
	costTime := objective.Cost(resTime.Best, cfgTime.primary(), cfgTime.weights(), false)
	require.InDelta(t, costDist, costTime, 1e-6)
}

// TestSAAcceptanceDistribution checks that, for fixed (seed, T, deltaE),
// accept-frequency over repeated trials approaches exp(-dE/T) within 3
// standard deviations of the binomial estimate.
func TestSAAcceptanceDistribution(t *testing.T) {
	const (
		temperature = 10.0
		deltaE      = 4.0
		trials      = 4000
	)
	rng := rand.New(rand.NewSource(99))
	outcomes := make([]float64, trials)
	for i := range outcomes {
		if rng.Float64() < math.Exp(-deltaE/temperature) {
			outcomes[i] = 1
		}
	}
	mean := stat.Mean(outcomes, nil)
	sd := stat.StdDev(outcomes, nil)
	se := sd / math.Sqrt(float64(trials))
	want := math.Exp(-deltaE / temperature)
	require.InDelta(t, want, mean, 3*se+1e-9)
}

// TestAdaptiveWeightsConverge checks that an operator scored every segment
// pulls ahead of one that is used every segment but never scores.
func TestAdaptiveWeightsConverge(t *testing.T) {
	pool := selector.NewPool("scores", "never")
	for segment := 0; segment < 20; segment++ {
		pool.Operators[0].TimesUsed = 1
		pool.Operators[1].TimesUsed = 1
		pool.Award("scores", 9)
		pool.UpdateWeights(0.1)
	}
	require.Greater(t, pool.Operators[0].Weight, pool.Operators[1].Weight)
}
