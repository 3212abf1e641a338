package headloss

import (
	"math"

	"hydrosim/network"
	"hydrosim/units"
)

// qLowFlow is the low-flow linearization threshold of spec.md §4.1: below
// it, hLoss/hGrad are replaced by a line through the origin whose slope
// matches the curve's gradient at the threshold, avoiding the
// infinite-gradient / zero-gradient singularity of |q|^n near q=0.
const qLowFlow = 1e-4 // m^3/s

func computePipe(net *network.Network, link *network.Link) Result {
	if link.Status == network.StatusClosed || link.Status == network.StatusTempClosed {
		return closedFormula(link.Q)
	}
	r, n := pipeResistance(net.Options.HeadLoss, link, net.Options)
	return resistivePowerLaw(r, n, link.Q)
}

// resistivePowerLaw implements spec.md §4.1's generic pipe form:
// hLoss = r*|q|^n*sign(q), hGrad = n*r*|q|^(n-1), smoothed below qLowFlow.
func resistivePowerLaw(r, n, q float64) Result {
	aq := math.Abs(q)
	if aq < qLowFlow {
		gradAtThreshold := n * r * math.Pow(qLowFlow, n-1)
		if gradAtThreshold < units.MinGradient {
			gradAtThreshold = units.MinGradient
		}
		return Result{HLoss: gradAtThreshold * q, HGrad: gradAtThreshold, Inertia: units.MinGradient}
	}
	hLoss := r * math.Pow(aq, n)
	if q < 0 {
		hLoss = -hLoss
	}
	grad := n * r * math.Pow(aq, n-1)
	if grad < units.MinGradient {
		grad = units.MinGradient
	}
	return Result{HLoss: hLoss, HGrad: grad, Inertia: units.MinGradient}
}

// pipeResistance computes the (r, n) pair of spec.md §4.1's generic pipe
// model for the formula selected in Options.
func pipeResistance(formula network.HeadLossFormula, link *network.Link, opts network.Options) (r, n float64) {
	d := link.Diameter
	l := link.Length
	switch formula {
	case network.HazenWilliams:
		c := link.Roughness
		if c <= 0 {
			c = 130
		}
		n = 1.852
		r = 10.667 * l / (math.Pow(c, 1.852) * math.Pow(d, 4.8704))
	case network.ChezyManning:
		nm := link.Roughness
		if nm <= 0 {
			nm = 0.012
		}
		n = 2.0
		r = 10.29 * nm * nm * l / math.Pow(d, 5.333)
	default: // DarcyWeisbach
		n = 2.0
		r = darcyWeisbachResistance(link, opts)
	}
	return r, n
}

// darcyWeisbachResistance folds the Darcy friction factor f(Re, eps/d) into
// a single r such that hLoss = r*q^2: f is evaluated once via the
// Swamee-Jain approximation at the link's current flow, which is the usual
// simplification when f is refit every solver iteration rather than solved
// implicitly alongside the network.
func darcyWeisbachResistance(link *network.Link, opts network.Options) float64 {
	d := link.Diameter
	area := math.Pi / 4 * d * d
	nu := opts.Viscosity
	if nu <= 0 {
		nu = 1.003e-6
	}
	velocity := math.Abs(link.Q) / area
	if velocity < 1e-9 {
		velocity = 1e-9
	}
	re := velocity * d / nu
	eps := link.Roughness
	if eps <= 0 {
		eps = 0.00026 // default absolute roughness, meters (cast iron, aged)
	}
	var f float64
	if re < 2300 {
		f = 64 / re
	} else {
		rel := eps / (3.7 * d)
		denom := math.Log10(rel + 5.74/math.Pow(re, 0.9))
		f = 0.25 / (denom * denom)
	}
	return f * link.Length / (2 * units.Gravity * d * area * area)
}
