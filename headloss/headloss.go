// Package headloss computes, for every link type, the pair (hLoss, hGrad)
// spec.md §4.1 requires the balance engine to Newton-iterate on, plus an
// inertial term used by unsteady extensions. It is grounded on the
// teacher's base package: each variant there (Diode, Switch, ...) derives
// an equivalent conductance and current-source/constant term from a
// physical law; here the same shape produces hLoss/hGrad from a hydraulic
// law instead of an electrical one.
package headloss

import (
	"math"

	"hydrosim/network"
	"hydrosim/units"
)

// Result is what every link type reports for the current flow.
type Result struct {
	HLoss   float64 // head loss (or, for pumps, negative = gain), meters
	HGrad   float64 // d(hLoss)/dq, always >= units.MinGradient
	Inertia float64 // unsteady-extension inertial term
}

// Compute dispatches on the link's Kind (and, for valves, ValveType) and
// returns its (hLoss, hGrad, inertia) at the link's current flow q.
func Compute(net *network.Network, link *network.Link) Result {
	switch link.Kind {
	case network.Pipe:
		return computePipe(net, link)
	case network.Pump:
		return computePump(net, link)
	case network.ValveLink:
		return computeValve(net, link)
	default:
		return Result{HLoss: link.Q * units.ClosedResistance, HGrad: units.ClosedResistance, Inertia: units.MinGradient}
	}
}

// closedFormula is the shared CLOSED/TEMP_CLOSED model every link type uses,
// spec.md §4.1: hLoss = q*R_closed, hGrad = R_closed.
func closedFormula(q float64) Result {
	return Result{HLoss: q * units.ClosedResistance, HGrad: units.ClosedResistance, Inertia: units.MinGradient}
}

// openFormula is the shared fixed-OPEN / regulating-valve-in-ACTIVE model:
// a quadratic resistive element hLoss = lossFactor*q*|q|,
// hGrad = 2*lossFactor*|q| clipped below by MIN_GRADIENT (spec.md §4.1).
func openFormula(lossFactor, q float64) Result {
	grad := 2 * lossFactor * math.Abs(q)
	if grad < units.MinGradient {
		grad = units.MinGradient
	}
	return Result{HLoss: lossFactor * q * math.Abs(q), HGrad: grad, Inertia: units.MinGradient}
}

// OrificeFactor converts a dimensionless minor-loss coefficient K at
// diameter d (meters) into the lossFactor openFormula expects, the
// constant spec.md §4.1 gives for TCV (0.025173) generalized to every
// valve type that derives its factor from a minor-loss coefficient.
func OrificeFactor(diameter, minorLossOrSetting float64) float64 {
	d2 := diameter * diameter
	d4 := d2 * d2
	if d4 <= 0 {
		return units.ClosedResistance
	}
	return 0.025173 * minorLossOrSetting / d4
}
