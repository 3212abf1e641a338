// Package engine implements the §6 Programmatic surface: the seam the
// out-of-scope collaborators (input-file parser, report writer,
// water-quality engine, CLI) attach to. Project is the only layer that
// catches the typed errors every package below it returns, appends them to
// a message log, and reduces them to a plain integer code for the caller —
// mirroring the teacher's Circuit, whose Load/Simulate bubble a plain error
// up to cmd/ for that entry point to print and turn into an exit code.
package engine

import (
	"fmt"
	"io"
	"math"

	"hydrosim/hydraulics"
	"hydrosim/network"
	"hydrosim/simerr"
	"hydrosim/solver"
)

// Project owns one Network plus the time-stepping engine built over it, and
// the message log every recoverable error is appended to (spec.md §7).
type Project struct {
	Net *network.Network
	eng *hydraulics.Engine
	log io.Writer
}

// New creates an empty Project writing its message log to log (use io.Discard
// to silence it).
func New(log io.Writer) *Project {
	if log == nil {
		log = io.Discard
	}
	return &Project{Net: network.New(), log: log}
}

// InitSolver sizes the time-stepping/balance engines for the current
// network, spec.md §6's "initialize solver (flag: reset flows)". It must be
// called once after the network is fully built/loaded and again any time
// topology changes.
func (p *Project) InitSolver(stepCfg hydraulics.Config, balanceCfg solver.Config, resetFlows bool) int {
	eng, err := hydraulics.NewEngine(p.Net, stepCfg, balanceCfg)
	if err != nil {
		return p.catch(err)
	}
	p.eng = eng
	p.eng.Reset(resetFlows)
	return 0
}

// RunSolver runs one hydraulic step exactly like Advance, but reports the
// time t just solved instead of the next dt, spec.md §6. Most callers only
// need Advance in a loop.
func (p *Project) RunSolver() (t float64, code int) {
	if p.eng == nil {
		return 0, simerr.CodeSolverNotInit
	}
	t, _, err := p.eng.Step()
	if err != nil {
		return t, p.catch(err)
	}
	return t, 0
}

// Advance runs exactly one hydraulic step and reports (next dt, code); dt=0
// signals the horizon is exhausted. A HydError (non-convergence, control
// instability) is logged and returned as a non-zero code WITHOUT stopping
// the caller from calling Advance again — spec.md §7: "convergence failures
// do not abort the run ... the solver continues, preserving the network
// state that was current at entry." Any other error kind is also just
// logged+coded here; it is Advance's caller's decision (the CLI driver,
// out of scope) whether to stop looping on a non-zero code.
func (p *Project) Advance() (dt float64, code int) {
	if p.eng == nil {
		return 0, simerr.CodeSolverNotInit
	}
	_, dt, err := p.eng.Step()
	if err != nil {
		return 0, p.catch(err)
	}
	return dt, 0
}

// catch is the one place a typed simerr.Error turns into a logged line and
// a plain integer code, spec.md §7's propagation policy.
func (p *Project) catch(err error) int {
	if e, ok := simerr.AsError(err); ok {
		fmt.Fprintf(p.log, "%s %d: %s\n", e.Kind, e.Code, e.Msg)
		return e.Code
	}
	fmt.Fprintf(p.log, "error: %v\n", err)
	return simerr.CodeSolverNotInit
}

// NodeCount and LinkCount satisfy spec.md §6's "query counts".
func (p *Project) NodeCount() int { return len(p.Net.Nodes) }
func (p *Project) LinkCount() int { return len(p.Net.Links) }

// GetNodeValue reads one node attribute by (index, parameter code).
func (p *Project) GetNodeValue(id network.NodeID, param NodeParam) (float64, int) {
	if int(id) < 0 || int(id) >= len(p.Net.Nodes) {
		return 0, simerr.CodeInvalidReference
	}
	n := &p.Net.Nodes[id]
	switch param {
	case NodeElevation:
		return n.Elevation, 0
	case NodeHead:
		return n.H, 0
	case NodeDemand:
		return n.D, 0
	case NodeBaseDemand:
		return n.BaseDemand, 0
	case NodePressure:
		return n.Pressure(), 0
	case NodeEmitterCoeff:
		return n.EmitterCoeff, 0
	case NodeTankLevel:
		return n.Level(), 0
	case NodeTankVolume:
		return n.Volume, 0
	case NodeTankMinLevel:
		return n.MinLevel, 0
	case NodeTankMaxLevel:
		return n.MaxLevel, 0
	default:
		return 0, simerr.CodeInvalidReference
	}
}

// SetNodeValue writes one node attribute by (index, parameter code). Only
// attributes that are meaningful inputs (not solver outputs like head or
// pressure) may be set.
func (p *Project) SetNodeValue(id network.NodeID, param NodeParam, value float64) int {
	if int(id) < 0 || int(id) >= len(p.Net.Nodes) {
		return simerr.CodeInvalidReference
	}
	n := &p.Net.Nodes[id]
	switch param {
	case NodeElevation:
		n.Elevation = value
	case NodeBaseDemand:
		n.BaseDemand = value
	case NodeEmitterCoeff:
		n.EmitterCoeff = value
	case NodeTankMinLevel:
		n.MinLevel = value
	case NodeTankMaxLevel:
		n.MaxLevel = value
	default:
		return simerr.CodeInvalidReference
	}
	return 0
}

// GetLinkValue reads one link attribute by (index, parameter code).
func (p *Project) GetLinkValue(id network.LinkID, param LinkParam) (float64, int) {
	if int(id) < 0 || int(id) >= len(p.Net.Links) {
		return 0, simerr.CodeInvalidReference
	}
	l := &p.Net.Links[id]
	switch param {
	case LinkDiameter:
		return l.Diameter, 0
	case LinkLength:
		return l.Length, 0
	case LinkRoughness:
		return l.Roughness, 0
	case LinkMinorLoss:
		return l.MinorLoss, 0
	case LinkStatusParam:
		return float64(l.Status), 0
	case LinkSetting:
		return l.Setting, 0
	case LinkFlow:
		return l.Q, 0
	case LinkVelocity:
		return linkVelocity(l), 0
	case LinkHeadLoss:
		return p.Net.Nodes[l.FromNode].H - p.Net.Nodes[l.ToNode].H, 0
	default:
		return 0, simerr.CodeInvalidReference
	}
}

// SetLinkValue writes one link attribute by (index, parameter code).
func (p *Project) SetLinkValue(id network.LinkID, param LinkParam, value float64) int {
	if int(id) < 0 || int(id) >= len(p.Net.Links) {
		return simerr.CodeInvalidReference
	}
	l := &p.Net.Links[id]
	switch param {
	case LinkDiameter:
		l.Diameter = value
	case LinkLength:
		l.Length = value
	case LinkRoughness:
		l.Roughness = value
	case LinkMinorLoss:
		l.MinorLoss = value
	case LinkStatusParam:
		l.Status = network.Status(value)
	case LinkSetting:
		l.Setting = value
		l.BaseSetting = value
	default:
		return simerr.CodeInvalidReference
	}
	return 0
}

func linkVelocity(l *network.Link) float64 {
	d := l.Diameter
	if d <= 0 {
		return 0
	}
	area := math.Pi / 4 * d * d
	return l.Q / area
}
