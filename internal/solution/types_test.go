package solution

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/DangMmo/vrp2e-alns/internal/problem"
)

func toyProblem(t *testing.T) *problem.ProblemInstance {
	t.Helper()
	nodes := []problem.Node{
		{Type: problem.Depot},
		{Type: problem.Satellite},
		{Type: problem.DeliveryCustomer, Demand: 3, DueTime: 100},
		{Type: problem.DeliveryCustomer, Demand: 2, DueTime: 100},
	}
	dist := make([][]float64, len(nodes))
	for i := range dist {
		dist[i] = make([]float64, len(nodes))
	}
	p, err := problem.New(nodes, dist, problem.BuildOptions{FEVehicleCapacity: 10, SEVehicleCapacity: 5, VehicleSpeed: 1})
	require.NoError(t, err)
	return p
}

func TestEmptyLeavesAllCustomersUnserved(t *testing.T) {
	p := toyProblem(t)
	s := Empty(p)
	require.Len(t, s.UnservedCustomerIDs, len(p.Customers))
	require.Equal(t, 0, s.NumServed())
}

func TestNewDerivesCustomerToSERouteIdx(t *testing.T) {
	p := toyProblem(t)
	sat := p.Satellites[0]
	cust1, cust2 := p.Customers[0], p.Customers[1]
	se := SERouteData{SatelliteID: sat.ID, NodesID: []int{sat.DistID, cust1.ID, cust2.ID, sat.CollID}}
	s := New(p, nil, []SERouteData{se}, nil)

	require.Equal(t, 0, s.CustomerToSERouteIdx[cust1.ID])
	require.Equal(t, 0, s.CustomerToSERouteIdx[cust2.ID])
	require.Equal(t, 2, s.NumServed())
	require.Equal(t, []int{cust1.ID, cust2.ID}, se.Customers())
}

func TestNewCopiesSlicesDefensively(t *testing.T) {
	p := toyProblem(t)
	unserved := []int{1, 2}
	s := New(p, nil, nil, unserved)
	unserved[0] = 999
	require.Equal(t, 1, s.UnservedCustomerIDs[0])
}
