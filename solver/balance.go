// Package solver runs the damped Newton-Raphson hydraulic balance described
// in spec.md §4.2/§4.3. It is grounded on the teacher's mna/solve.go Soluv:
// the same per-iteration shape (assemble, factor, solve, measure the step,
// adapt a damping factor, repeat) carries over, with conductance stamps and
// current-source terms taking the place of the teacher's resistor/diode
// companion models (global gradient formulation: each link becomes a
// conductance Y=1/hGrad plus a constant flow term I0, exactly the way the
// teacher linearizes a nonlinear device about its last operating point).
package solver

import (
	"math"

	"hydrosim/headloss"
	"hydrosim/matrix"
	"hydrosim/network"
	"hydrosim/simerr"
	"hydrosim/units"
)

// Config bundles the balance engine's tunables, spec.md §4.3. It is carried
// separately from network.Options because it is pure solver tuning, not a
// property of the network being solved.
type Config struct {
	MaxIterations    int
	MaxStatusChecks  int
	HydAccuracy      float64
	DampingFactor    float64 // initial
	MinDampingFactor float64
	MaxDampingFactor float64
	OscillationMax   int
}

// DefaultConfig returns the Config a freshly initialized Engine starts with.
func DefaultConfig() Config {
	return Config{
		MaxIterations:    units.DefaultMaxIter,
		MaxStatusChecks:  units.DefaultMaxStatusChk,
		HydAccuracy:      units.DefaultHydAccuracy,
		DampingFactor:    1.0,
		MinDampingFactor: 0.05,
		MaxDampingFactor: 1.0,
		OscillationMax:   6,
	}
}

// StatusUpdater is called once per status-check round after a converged
// balance, and reports whether it flipped any link's Status (e.g. a PRV
// going ACTIVE->CLOSED). It is supplied by the caller (hydraulics.Engine)
// rather than imported directly, so this package never depends on valvefsm
// or control — only on network and headloss.
type StatusUpdater func(net *network.Network) bool

// Engine holds the reusable buffers the balance loop needs across repeated
// calls to Balance, spec.md §5: sized once, never reallocated.
type Engine struct {
	net *network.Network
	cfg Config
	mat *matrix.System

	unknownOf []int // len(Nodes); -1 for fixed-head nodes (Reservoir/Tank)
	nJunction int

	diagConductance []float64
	lastQ           []float64 // previous iteration's flow, len(Links)
}

// NewEngine sizes an Engine for net under cfg.
func NewEngine(net *network.Network, cfg Config) (*Engine, error) {
	e := &Engine{net: net, cfg: cfg}
	e.unknownOf = make([]int, len(net.Nodes))
	idx := 0
	for i := range net.Nodes {
		if net.Nodes[i].Kind == network.Junction {
			e.unknownOf[i] = idx
			idx++
		} else {
			e.unknownOf[i] = -1
		}
	}
	e.nJunction = idx
	mat, err := matrix.New(idx, net.Options.Solver)
	if err != nil {
		return nil, err
	}
	e.mat = mat
	e.diagConductance = make([]float64, idx)
	e.lastQ = make([]float64, len(net.Links))
	return e, nil
}

// Balance runs the status-check loop of spec.md §4.3: repeatedly
// Newton-balance the network, then ask update to flip any link statuses the
// new heads/flows imply, until a round produces no further flips (or
// MaxStatusChecks is exhausted, which is reported as a control-instability
// HydError rather than silently accepted).
func (e *Engine) Balance(update StatusUpdater) (iterations int, err error) {
	total := 0
	for round := 0; round < e.cfg.MaxStatusChecks; round++ {
		n, err := e.newtonSolve()
		total += n
		if err != nil {
			return total, err
		}
		if update == nil || !update(e.net) {
			return total, nil
		}
	}
	return total, simerr.New(simerr.Hyd, simerr.CodeControlInstability,
		"valve/pump status did not settle within %d checks", e.cfg.MaxStatusChecks)
}

// newtonSolve runs the damped Newton-Raphson loop for the network's current
// link statuses, spec.md §4.2/§4.3.
func (e *Engine) newtonSolve() (int, error) {
	net := e.net
	damping := e.cfg.DampingFactor
	oscillation := 0

	for i := range e.lastQ {
		e.lastQ[i] = net.Links[i].Q
	}

	for iter := 0; iter < e.cfg.MaxIterations; iter++ {
		e.mat.Zero()
		for i := range e.diagConductance {
			e.diagConductance[i] = 0
		}

		for i := range net.Links {
			e.stampLink(&net.Links[i])
		}
		e.stampDemands()
		e.mat.Regularize(e.diagConductance)

		x, err := e.mat.Solve()
		if err != nil {
			return iter, err
		}
		for i := range net.Nodes {
			if u := e.unknownOf[i]; u >= 0 {
				net.Nodes[i].H = x[u]
			}
		}

		sumAbsQ, sumAbsDelta := 0.0, 0.0
		for i := range net.Links {
			link := &net.Links[i]
			if link.Status == network.StatusClosed || link.Status == network.StatusTempClosed {
				link.Q = 0
				continue
			}
			newQ := e.linkFlow(link)
			delta := newQ - link.Q
			link.Q += damping * delta
			sumAbsQ += math.Abs(link.Q)
			sumAbsDelta += math.Abs(delta)
		}

		converged := sumAbsQ == 0 || sumAbsDelta/sumAbsQ < e.cfg.HydAccuracy
		if converged {
			return iter + 1, nil
		}

		ratio := 0.0
		if sumAbsQ > 0 {
			ratio = sumAbsDelta / sumAbsQ
		}
		switch {
		case ratio > e.cfg.HydAccuracy*10:
			damping = math.Max(e.cfg.MinDampingFactor, damping*0.1)
			oscillation++
		case ratio > e.cfg.HydAccuracy*2:
			damping = math.Max(e.cfg.MinDampingFactor, damping*0.5)
			oscillation++
		case ratio > e.cfg.HydAccuracy*1.5:
			damping = math.Max(e.cfg.MinDampingFactor, damping*0.8)
			oscillation++
		default:
			oscillation = 0
			damping = math.Min(e.cfg.MaxDampingFactor, damping*1.1)
		}
		if oscillation > e.cfg.OscillationMax {
			return iter, simerr.New(simerr.Hyd, simerr.CodeNonConvergence,
				"balance oscillating after %d iterations, residual=%.3e", iter, ratio)
		}
	}
	return e.cfg.MaxIterations, simerr.New(simerr.Hyd, simerr.CodeNonConvergence,
		"balance did not converge within %d iterations", e.cfg.MaxIterations)
}

// stampLink adds link's conductance/current-source contribution to the
// system, per the global-gradient derivation in the package doc comment.
func (e *Engine) stampLink(link *network.Link) {
	net := e.net
	if link.Status == network.StatusClosed || link.Status == network.StatusTempClosed {
		return
	}
	res := headloss.Compute(net, link)
	y := 1 / res.HGrad
	i0 := link.Q - y*res.HLoss

	ai := e.unknownOf[link.FromNode]
	bi := e.unknownOf[link.ToNode]
	ha := net.Nodes[link.FromNode].H
	hb := net.Nodes[link.ToNode].H

	switch {
	case ai >= 0 && bi >= 0:
		e.mat.Add(ai, ai, y)
		e.mat.Add(bi, bi, y)
		e.mat.Add(ai, bi, -y)
		e.mat.Add(bi, ai, -y)
		e.mat.AddRHS(ai, -i0)
		e.mat.AddRHS(bi, i0)
		e.diagConductance[ai] += y
		e.diagConductance[bi] += y
	case ai >= 0: // bi fixed
		e.mat.Add(ai, ai, y)
		e.mat.AddRHS(ai, -i0+y*hb)
		e.diagConductance[ai] += y
	case bi >= 0: // ai fixed
		e.mat.Add(bi, bi, y)
		e.mat.AddRHS(bi, i0+y*ha)
		e.diagConductance[bi] += y
	}
}

// linkFlow recomputes q from the same linearized relation used to stamp the
// link, evaluated at the newly solved heads: the standard post-solve flow
// update of the global gradient algorithm.
func (e *Engine) linkFlow(link *network.Link) float64 {
	net := e.net
	res := headloss.Compute(net, link)
	y := 1 / res.HGrad
	i0 := link.Q - y*res.HLoss
	ha := net.Nodes[link.FromNode].H
	hb := net.Nodes[link.ToNode].H
	return i0 + y*(ha-hb)
}

// stampDemands adds each junction's fixed demand, plus pressure-dependent
// emitter and leakage terms recomputed from the previous iteration's heads
// (spec.md §4.2: a fixed-point outer loop around the Newton linearization).
func (e *Engine) stampDemands() {
	net := e.net
	for i := range net.Nodes {
		u := e.unknownOf[i]
		if u < 0 {
			continue
		}
		node := &net.Nodes[i]
		d := node.D
		if node.EmitterCoeff > 0 {
			p := node.Pressure()
			if p > 0 {
				d += node.EmitterCoeff * math.Sqrt(p)
			}
		}
		e.mat.AddRHS(u, -d)
	}
	for i := range net.Links {
		link := &net.Links[i]
		if link.Leakage <= 0 {
			continue
		}
		avgPressure := (net.Nodes[link.FromNode].Pressure() + net.Nodes[link.ToNode].Pressure()) / 2
		if avgPressure <= 0 {
			continue
		}
		leak := link.Leakage * math.Sqrt(avgPressure)
		half := leak / 2
		if ai := e.unknownOf[link.FromNode]; ai >= 0 {
			e.mat.AddRHS(ai, -half)
		}
		if bi := e.unknownOf[link.ToNode]; bi >= 0 {
			e.mat.AddRHS(bi, -half)
		}
	}
}
