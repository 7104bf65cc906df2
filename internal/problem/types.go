// Package problem holds the read-only graph the solver operates over: nodes,
// distances, travel times, per-echelon capacities, and the neighbor pruning
// tables the insertion engine uses to keep its candidate search small.
package problem

import (
	"fmt"
	"math"
	"sort"
)

// NodeType discriminates the tagged Node variant. Dispatch on Type is by a
// plain switch, never by a dynamic lookup or interface assertion.
type NodeType int

const (
	Depot NodeType = iota
	Satellite
	DeliveryCustomer
	PickupCustomer
)

func (t NodeType) String() string {
	switch t {
	case Depot:
		return "Depot"
	case Satellite:
		return "Satellite"
	case DeliveryCustomer:
		return "DeliveryCustomer"
	case PickupCustomer:
		return "PickupCustomer"
	default:
		return "Unknown"
	}
}

// Node is the common (id, x, y, service_time) prefix plus the
// variant-specific fields: ready/due/demand for customers, a deadline on
// pickups, and the two satellite aliases.
type Node struct {
	ID          int
	X, Y        float64
	ServiceTime float64
	Type        NodeType

	// Customer fields (DeliveryCustomer, PickupCustomer).
	ReadyTime float64
	DueTime   float64
	Demand    float64
	// Deadline is only meaningful for PickupCustomer; New sets it to +Inf
	// for DeliveryCustomer.
	Deadline float64

	// Satellite fields.
	DistID int
	CollID int
}

func (n Node) IsCustomer() bool {
	return n.Type == DeliveryCustomer || n.Type == PickupCustomer
}

// ProblemInstance is the read-only graph the solver runs over. It is built
// once at startup and never mutated afterward; every lookup method is safe
// to call concurrently for that reason.
type ProblemInstance struct {
	// TotalNodes is the count of physical nodes (depot + satellites +
	// customers). Satellite aliases resolve to a physical node id by
	// id % TotalNodes.
	TotalNodes int

	Depot      Node
	Satellites []Node
	Customers  []Node

	FEVehicleCapacity float64
	SEVehicleCapacity float64
	VehicleSpeed      float64

	// dist and travel are symmetric TotalNodes x TotalNodes matrices.
	dist   [][]float64
	travel [][]float64

	nodeByID map[int]Node

	// CustomerNeighbors[customerID] lists the top-K nearest other
	// customers, nearest first. SatelliteNeighbors[customerID] lists the
	// top-M nearest satellites, nearest first.
	CustomerNeighbors  map[int][]int
	SatelliteNeighbors map[int][]int

	MaxDist    float64
	MaxDueTime float64
	MaxDemand  float64
}

// BuildOptions bundles the construction-time parameters that are not themselves
// part of the physical graph (capacities, pruning widths).
type BuildOptions struct {
	FEVehicleCapacity  float64
	SEVehicleCapacity  float64
	VehicleSpeed       float64
	PruningKCustomers  int
	PruningMSatellites int
}

// New builds a ProblemInstance from a flat physical node list (depot first,
// then satellites, then customers — ids are assigned by position, 0-based)
// and a symmetric distance matrix over that same node list. It is the only
// constructor: loading nodes and distances from a file is a caller concern,
// not this package's.
func New(nodes []Node, distances [][]float64, opts BuildOptions) (*ProblemInstance, error) {
	if len(nodes) == 0 {
		return nil, fmt.Errorf("problem: no nodes supplied")
	}
	if len(distances) != len(nodes) {
		return nil, fmt.Errorf("problem: distance matrix has %d rows, want %d", len(distances), len(nodes))
	}
	for i, row := range distances {
		if len(row) != len(nodes) {
			return nil, fmt.Errorf("problem: distance matrix row %d has %d cols, want %d", i, len(row), len(nodes))
		}
	}
	if opts.FEVehicleCapacity <= 0 || opts.SEVehicleCapacity <= 0 {
		return nil, fmt.Errorf("problem: vehicle capacities must be positive")
	}
	if opts.VehicleSpeed <= 0 {
		return nil, fmt.Errorf("problem: vehicle speed must be positive")
	}

	total := len(nodes)
	p := &ProblemInstance{
		TotalNodes:        total,
		FEVehicleCapacity: opts.FEVehicleCapacity,
		SEVehicleCapacity: opts.SEVehicleCapacity,
		VehicleSpeed:      opts.VehicleSpeed,
		nodeByID:          make(map[int]Node, total),
	}

	p.dist = make([][]float64, total)
	p.travel = make([][]float64, total)
	for i := range distances {
		p.dist[i] = append([]float64(nil), distances[i]...)
		row := make([]float64, total)
		for j, d := range p.dist[i] {
			row[j] = d / opts.VehicleSpeed
		}
		p.travel[i] = row
	}

	var foundDepot bool
	for i, n := range nodes {
		n.ID = i
		switch n.Type {
		case Depot:
			if foundDepot {
				return nil, fmt.Errorf("problem: more than one depot")
			}
			foundDepot = true
			p.Depot = n
		case Satellite:
			n.DistID = i
			n.CollID = i + total
			p.Satellites = append(p.Satellites, n)
		case DeliveryCustomer, PickupCustomer:
			if n.Demand <= 0 {
				return nil, fmt.Errorf("problem: customer %d has non-positive demand", n.ID)
			}
			if n.Type == DeliveryCustomer {
				n.Deadline = math.Inf(1)
			}
			p.Customers = append(p.Customers, n)
		default:
			return nil, fmt.Errorf("problem: node %d has unknown type %d", i, n.Type)
		}
		p.nodeByID[i] = n
	}
	if !foundDepot {
		return nil, fmt.Errorf("problem: no depot found")
	}
	// The alias entries are addressable through Node()/Distance() via
	// modulo but are not separate physical rows.
	for _, s := range p.Satellites {
		p.nodeByID[s.CollID] = s
	}

	p.MaxDist = maxMatrix(p.dist)
	p.MaxDueTime = 0
	p.MaxDemand = 0
	for _, c := range p.Customers {
		if c.DueTime > p.MaxDueTime {
			p.MaxDueTime = c.DueTime
		}
		if c.Demand > p.MaxDemand {
			p.MaxDemand = c.Demand
		}
	}
	if p.MaxDist == 0 {
		p.MaxDist = 1
	}
	if p.MaxDueTime == 0 {
		p.MaxDueTime = 1
	}
	if p.MaxDemand == 0 {
		p.MaxDemand = 1
	}

	p.buildNeighborTables(opts.PruningKCustomers, opts.PruningMSatellites)
	return p, nil
}

func maxMatrix(m [][]float64) float64 {
	max := 0.0
	for _, row := range m {
		for _, v := range row {
			if v > max {
				max = v
			}
		}
	}
	return max
}

func (p *ProblemInstance) buildNeighborTables(k, m int) {
	p.CustomerNeighbors = make(map[int][]int, len(p.Customers))
	p.SatelliteNeighbors = make(map[int][]int, len(p.Customers))
	for _, c := range p.Customers {
		others := make([]int, 0, len(p.Customers)-1)
		for _, o := range p.Customers {
			if o.ID != c.ID {
				others = append(others, o.ID)
			}
		}
		sort.Slice(others, func(i, j int) bool {
			return p.Distance(c.ID, others[i]) < p.Distance(c.ID, others[j])
		})
		if k > 0 && k < len(others) {
			others = others[:k]
		}
		p.CustomerNeighbors[c.ID] = others

		sats := make([]int, 0, len(p.Satellites))
		for _, s := range p.Satellites {
			sats = append(sats, s.ID)
		}
		sort.Slice(sats, func(i, j int) bool {
			return p.Distance(c.ID, sats[i]) < p.Distance(c.ID, sats[j])
		})
		if m > 0 && m < len(sats) {
			sats = sats[:m]
		}
		p.SatelliteNeighbors[c.ID] = sats
	}
}

// Node returns the node for id, resolving satellite aliases by modulo.
func (p *ProblemInstance) Node(id int) Node {
	return p.nodeByID[id%p.TotalNodes]
}

// Distance returns the symmetric distance between i and j, resolving
// satellite aliases by modulo on TotalNodes.
func (p *ProblemInstance) Distance(i, j int) float64 {
	return p.dist[i%p.TotalNodes][j%p.TotalNodes]
}

// TravelTime returns distance(i,j) / VehicleSpeed.
func (p *ProblemInstance) TravelTime(i, j int) float64 {
	return p.travel[i%p.TotalNodes][j%p.TotalNodes]
}

// SatelliteByPhysicalID returns the satellite whose physical id is pid, and
// whether one exists.
func (p *ProblemInstance) SatelliteByPhysicalID(pid int) (Node, bool) {
	for _, s := range p.Satellites {
		if s.DistID == pid {
			return s, true
		}
	}
	return Node{}, false
}
