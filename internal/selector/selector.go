// Package selector implements a roulette-wheel operator selector with
// adaptive, reaction-factor-smoothed weight updates.
package selector

import "math/rand"

// Operator carries a destroy or repair operator's name alongside the
// running weight/score/usage bookkeeping the adaptive selector needs.
type Operator struct {
	Name      string
	Weight    float64
	Score     float64
	TimesUsed int
}

// Pool is a named set of operators sharing one roulette wheel.
type Pool struct {
	Operators []*Operator
}

// NewPool builds a Pool with every operator starting at weight 1.
func NewPool(names ...string) *Pool {
	ops := make([]*Operator, len(names))
	for i, n := range names {
		ops[i] = &Operator{Name: n, Weight: 1}
	}
	return &Pool{Operators: ops}
}

// Select draws x in [0, sum(weight)) and returns the first operator whose
// running weight sum exceeds x, incrementing its TimesUsed.
func (p *Pool) Select(rng *rand.Rand) *Operator {
	total := 0.0
	for _, o := range p.Operators {
		total += o.Weight
	}
	x := rng.Float64() * total
	running := 0.0
	for _, o := range p.Operators {
		running += o.Weight
		if x < running {
			o.TimesUsed++
			return o
		}
	}
	last := p.Operators[len(p.Operators)-1]
	last.TimesUsed++
	return last
}

// Award adds sigma to the named operator's running score. A no-op if name
// is not in the pool.
func (p *Pool) Award(name string, sigma float64) {
	for _, o := range p.Operators {
		if o.Name == name {
			o.Score += sigma
			return
		}
	}
}

// UpdateWeights applies the reaction-factor smoothing to every operator
// used at least once since the last update, then resets score/usage for
// the next segment. Operators unused in the segment retain their weight
// untouched.
func (p *Pool) UpdateWeights(reactionFactor float64) {
	for _, o := range p.Operators {
		if o.TimesUsed > 0 {
			o.Weight = (1-reactionFactor)*o.Weight + reactionFactor*(o.Score/float64(o.TimesUsed))
		}
		o.Score = 0
		o.TimesUsed = 0
	}
}

// Weights returns a name->weight snapshot, used for history recording.
func (p *Pool) Weights() map[string]float64 {
	m := make(map[string]float64, len(p.Operators))
	for _, o := range p.Operators {
		m[o.Name] = o.Weight
	}
	return m
}
