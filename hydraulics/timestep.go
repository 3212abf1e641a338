// Package hydraulics implements the extended-period time-stepping engine of
// spec.md §4.6: at each step it applies patterns, evaluates controls, runs
// the pressure-management controller, balances the network, reports the
// elapsed time, computes the next step size, and integrates tank volumes.
//
// It is grounded on the teacher's mna/time package (AdvanceTimeStep's
// orchestration order) and circuit.go's Simulate (the adaptive step-size
// outer loop that repeatedly calls Solve and advances a clock).
package hydraulics

import (
	"math"

	"hydrosim/control"
	"hydrosim/network"
	"hydrosim/solver"
	"hydrosim/units"
	"hydrosim/valvefsm"
)

// horizonInf stands in for "no event on this horizon", mirroring
// network.Pattern's internal posInf sentinel.
const horizonInf = 1e300

// Config bundles the time-stepping tunables spec.md §4.6 needs beyond the
// balance engine's own Config.
type Config struct {
	Duration   float64 // total simulation horizon, seconds
	ReportStep float64 // reporting period, seconds
	HydStep    float64 // nominal hydraulic step, seconds
}

// Engine drives the extended-period simulation for one Network. It owns the
// solver.Engine sized for that network (spec.md §5: sized once at init,
// reused every step).
type Engine struct {
	net     *network.Network
	cfg     Config
	balance *solver.Engine

	t float64

	prevH      []float64
	prevQ      []float64
	prevStatus []network.Status
}

// NewEngine sizes an Engine for net, per spec.md §5's initSolver step.
func NewEngine(net *network.Network, cfg Config, balanceCfg solver.Config) (*Engine, error) {
	bal, err := solver.NewEngine(net, balanceCfg)
	if err != nil {
		return nil, err
	}
	return &Engine{
		net:        net,
		cfg:        cfg,
		balance:    bal,
		prevH:      make([]float64, len(net.Nodes)),
		prevQ:      make([]float64, len(net.Links)),
		prevStatus: make([]network.Status, len(net.Links)),
	}, nil
}

// Reset rewinds elapsed time to zero and, if resetFlows is set, zeroes every
// link's flow, spec.md §6 initSolver's "reset flows" flag.
func (e *Engine) Reset(resetFlows bool) {
	e.t = 0
	for i := range e.net.Controls {
		e.net.Controls[i].ResetFired()
	}
	if resetFlows {
		for i := range e.net.Links {
			e.net.Links[i].Q = 0
		}
	}
}

// Step runs one iteration of spec.md §4.6 and returns the elapsed time just
// solved plus the size of the next step (0 signals the horizon is
// exhausted). On a balance failure, node heads, link flows and link
// statuses are restored to the values they had just before the balance ran,
// elapsed time does not advance, and the error is returned alongside dt=0
// for that attempt; changes made earlier in the same step (pattern-driven
// demands and settings, fired controls, the controller's Xm update) are not
// undone. The caller decides whether to retry, skip, or abort (spec.md §7:
// convergence failures do not by themselves end the run).
func (e *Engine) Step() (t, dt float64, err error) {
	net := e.net
	e.snapshotPast()

	e.applyPatterns()
	e.evalControls()
	control.Update(net, e.t, e.cfg.HydStep)

	e.saveState()
	if _, err := e.balance.Balance(valvefsm.Update); err != nil {
		e.restoreState()
		return e.t, 0, err
	}
	control.Lasting(net)

	reportedT := e.t
	dt = e.nextDt()
	e.integrateTanks(dt)
	e.t += dt
	return reportedT, dt, nil
}

// snapshotPast captures pastHead/pastFlow before this step's patterns,
// controls and controller run, spec.md §9's control-loop timing note: the
// controller's derivative terms must see yesterday's head, not a value the
// current step has already started mutating.
func (e *Engine) snapshotPast() {
	net := e.net
	for i := range net.Nodes {
		net.Nodes[i].PastHead = net.Nodes[i].H
	}
	for i := range net.Links {
		net.Links[i].PastFlow = net.Links[i].Q
	}
}

func (e *Engine) saveState() {
	net := e.net
	for i := range net.Nodes {
		e.prevH[i] = net.Nodes[i].H
	}
	for i := range net.Links {
		e.prevQ[i] = net.Links[i].Q
		e.prevStatus[i] = net.Links[i].Status
	}
}

func (e *Engine) restoreState() {
	net := e.net
	for i := range net.Nodes {
		net.Nodes[i].H = e.prevH[i]
	}
	for i := range net.Links {
		net.Links[i].Q = e.prevQ[i]
		net.Links[i].Status = e.prevStatus[i]
	}
}

// applyPatterns rewrites every junction's demand and every pattern-driven
// valve setting from the current pattern factor, spec.md §4.6 step 1.
func (e *Engine) applyPatterns() {
	net := e.net
	for i := range net.Nodes {
		node := &net.Nodes[i]
		if node.Kind != network.Junction {
			continue
		}
		factor := 1.0
		if node.DemandPattern != network.NoPattern && int(node.DemandPattern) < len(net.Patterns) {
			factor = net.Patterns[node.DemandPattern].FactorAt(e.t)
		}
		node.D = node.BaseDemand * factor
	}
	for i := range net.Links {
		link := &net.Links[i]
		if link.SettingPattern == network.NoPattern || int(link.SettingPattern) >= len(net.Patterns) {
			continue
		}
		link.Setting = link.BaseSetting * net.Patterns[link.SettingPattern].FactorAt(e.t)
	}
}

// evalControls fires every control rule whose condition now holds, spec.md
// §4.6 step 2.
func (e *Engine) evalControls() {
	net := e.net
	for i := range net.Controls {
		net.Controls[i].Eval(net, e.t)
	}
}

// nextDt computes spec.md §4.6 step 5: the minimum of the reporting
// boundary, the next control firing, the next pattern period boundary, the
// next tank full/empty event, and the nominal hydraulic step.
func (e *Engine) nextDt() float64 {
	net := e.net
	remaining := e.cfg.Duration - e.t
	if remaining <= 0 {
		return 0
	}
	dt := e.cfg.HydStep
	if dt <= 0 || dt > remaining {
		dt = remaining
	}

	if e.cfg.ReportStep > 0 {
		sinceReport := math.Mod(e.t, e.cfg.ReportStep)
		toReport := e.cfg.ReportStep - sinceReport
		if toReport > 0 && toReport < dt {
			dt = toReport
		}
	}

	for i := range net.Controls {
		if d := net.Controls[i].NextFireTime(e.t) - e.t; d > 0 && d < dt {
			dt = d
		}
	}

	for i := range net.Patterns {
		if d := net.Patterns[i].NextBoundary(e.t) - e.t; d > 0 && d < dt {
			dt = d
		}
	}

	for i := range net.Nodes {
		if net.Nodes[i].Kind != network.Tank {
			continue
		}
		if d := e.tankEventHorizon(network.NodeID(i)); d > 0 && d < dt {
			dt = d
		}
	}

	if dt < 0 {
		dt = 0
	}
	return dt
}

// tankEventHorizon estimates the time until id's level would reach its min
// or max bound at its current net inflow rate, so the stepping engine never
// overshoots a tank going empty or full mid-step.
func (e *Engine) tankEventHorizon(id network.NodeID) float64 {
	net := e.net
	node := &net.Nodes[id]
	inflow := e.netInflow(id, false)
	if math.Abs(inflow) < units.ZeroFlow {
		return horizonInf
	}
	area := node.CrossSection(net)
	if area <= 0 {
		return horizonInf
	}
	level := node.Level()
	target := node.MinLevel
	if inflow > 0 {
		target = node.MaxLevel
	}
	dVolume := (target - level) * area
	t := dVolume / inflow
	if t < 0 {
		return horizonInf
	}
	return t
}

// netInflow sums signed flow into node id across its incident links
// (positive = flow arriving), minus its own demand. past selects PastFlow
// instead of the current Q, for the trapezoidal tank integration.
func (e *Engine) netInflow(id network.NodeID, past bool) float64 {
	net := e.net
	var sum float64
	for i := range net.Links {
		link := &net.Links[i]
		q := link.Q
		if past {
			q = link.PastFlow
		}
		if link.ToNode == id {
			sum += q
		} else if link.FromNode == id {
			sum -= q
		}
	}
	return sum - net.Nodes[id].D
}

// integrateTanks advances every tank's volume by trapezoidal net inflow over
// dt, spec.md §4.6 step 6, then clamps each tank's level to its min/max
// bounds; links connected to a clamped tank are left as they are.
func (e *Engine) integrateTanks(dt float64) {
	if dt <= 0 {
		return
	}
	net := e.net
	for i := range net.Nodes {
		if net.Nodes[i].Kind != network.Tank {
			continue
		}
		id := network.NodeID(i)
		node := &net.Nodes[i]
		avgInflow := (e.netInflow(id, true) + e.netInflow(id, false)) / 2
		area := node.CrossSection(net)
		if area <= 0 {
			continue
		}
		node.Volume += avgInflow * dt
		if node.Volume < node.MinVolume {
			node.Volume = node.MinVolume
		}
		node.H = node.Elevation + node.MinLevel + (node.Volume-node.MinVolume)/area
		node.ClampLevel()
	}
}
