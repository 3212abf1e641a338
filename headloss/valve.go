package headloss

import (
	"math"

	"hydrosim/network"
	"hydrosim/units"
)

func computeValve(net *network.Network, link *network.Link) Result {
	v := link.Valve
	if v == nil {
		return closedFormula(link.Q)
	}

	// TEMP_CLOSED, or a fixed-status valve sitting CLOSED, always uses the
	// large-resistance closed model (spec.md §4.1).
	if link.Status == network.StatusTempClosed {
		return closedFormula(link.Q)
	}
	if link.HasFixedStatus() && link.Status == network.StatusClosed {
		return closedFormula(link.Q)
	}

	switch v.Type {
	case PRVType, PSVType:
		return computeRegulating(net, link)
	case network.FCV:
		return computeFCV(net, link)
	case network.TCV:
		return computeTCV(net, link)
	case network.PBV:
		return computePBV(net, link)
	case network.GPV:
		return computeGPV(net, link)
	case network.CCV:
		return computeCCV(net, link)
	case network.DPRV:
		return computeDPRV(net, link)
	default:
		return closedFormula(link.Q)
	}
}

// PRVType/PSVType alias the network enum values so this file reads as the
// spec's own vocabulary without repeating the package-qualified name.
const (
	PRVType = network.PRV
	PSVType = network.PSV
)

// computeRegulating implements the PRV/PSV ACTIVE behavior of spec.md
// §4.1/§4.4: while ACTIVE, the valve pins its downstream (PRV) or upstream
// (PSV) head at hset, the Setting-derived target RegulatingSetpoint returns
// (the same quantity the status machine compares against); the valve is
// modeled as a fixed-head boundary with a very small resistance, so flow is
// free to adjust to satisfy the rest of the network while head stays clamped.
func computeRegulating(net *network.Network, link *network.Link) Result {
	switch link.Status {
	case network.StatusClosed:
		return closedFormula(link.Q)
	case network.StatusOpen:
		lossFactor := OrificeFactor(link.Diameter, link.MinorLoss)
		return openFormula(lossFactor, link.Q)
	default: // ACTIVE
		hset := RegulatingSetpoint(net, link)
		if link.Valve.Type == network.PSV {
			hTo := net.Nodes[link.ToNode].H
			return Result{HLoss: hset - hTo, HGrad: units.MinGradient, Inertia: units.MinGradient}
		}
		hFrom := net.Nodes[link.FromNode].H
		return Result{HLoss: hFrom - hset, HGrad: units.MinGradient, Inertia: units.MinGradient}
	}
}

// RegulatingSetpoint returns hset for a PRV/PSV, spec.md §4.4: PRV uses the
// downstream elevation, PSV the upstream one. It is exported because
// valvefsm's status machine evaluates the same quantity against H_from/H_to
// to decide transitions.
func RegulatingSetpoint(net *network.Network, link *network.Link) float64 {
	v := link.Valve
	switch v.Type {
	case network.PSV:
		return link.Setting + net.Nodes[link.FromNode].Elevation
	default: // PRV
		return link.Setting + net.Nodes[link.ToNode].Elevation
	}
}

func computeFCV(net *network.Network, link *network.Link) Result {
	if link.Status == network.StatusClosed {
		return closedFormula(link.Q)
	}
	q := link.Q
	lossFactor := OrificeFactor(link.Diameter, link.MinorLoss)
	switch {
	case q > link.Setting:
		hLoss := lossFactor*link.Setting*link.Setting + units.HighFlowResistance*(q-link.Setting)
		return Result{HLoss: hLoss, HGrad: units.HighFlowResistance, Inertia: units.MinGradient}
	case q < 0:
		return closedFormula(q)
	default:
		return openFormula(lossFactor, q)
	}
}

func computeTCV(net *network.Network, link *network.Link) Result {
	if link.Status == network.StatusClosed {
		return closedFormula(link.Q)
	}
	openFactor := OrificeFactor(link.Diameter, link.MinorLoss)
	tcvFactor := OrificeFactor(link.Diameter, link.Setting)
	lossFactor := math.Max(tcvFactor, openFactor)
	return openFormula(lossFactor, link.Q)
}

func computePBV(net *network.Network, link *network.Link) Result {
	if link.Status == network.StatusClosed {
		return closedFormula(link.Q)
	}
	lossFactor := OrificeFactor(link.Diameter, link.MinorLoss)
	natural := openFormula(lossFactor, link.Q)
	if math.Abs(natural.HLoss) > math.Abs(link.Setting) {
		return natural
	}
	hLoss := link.Setting
	if link.Q < 0 {
		hLoss = -hLoss
	}
	return Result{HLoss: hLoss, HGrad: units.MinGradient, Inertia: units.MinGradient}
}

func computeGPV(net *network.Network, link *network.Link) Result {
	if link.Status == network.StatusClosed {
		return closedFormula(link.Q)
	}
	v := link.Valve
	if int(v.HeadLossCurve) < 0 || int(v.HeadLossCurve) >= len(net.Curves) {
		return openFormula(OrificeFactor(link.Diameter, link.MinorLoss), link.Q)
	}
	curve := &net.Curves[v.HeadLossCurve]
	aq := math.Abs(link.Q) * units.FlowUCF(net.Options.UnitSystem)
	r, h0, _ := curve.FindSegment(aq)
	r /= units.FlowUCF(net.Options.UnitSystem)
	hLoss := h0 + r*math.Abs(link.Q)
	if link.Q < 0 {
		hLoss = -hLoss
	}
	grad := r
	if grad < units.MinGradient {
		grad = units.MinGradient
	}
	return Result{HLoss: hLoss, HGrad: grad, Inertia: units.MinGradient}
}

func computeCCV(net *network.Network, link *network.Link) Result {
	v := link.Valve
	if link.Setting == 0 {
		link.Status = network.StatusClosed
		return closedFormula(link.Q)
	}
	lossFactor := ccvLossFactor(v, link.Diameter, link.Setting)
	r := openFormula(lossFactor, link.Q)
	r.Inertia = ccvInertia(v)
	return r
}

// ccvConductance and gravity are the constants the Toe/Cd representations
// are fit against (Nault and Karney, 2016; Tullis, 1989).
const (
	ccvConductance = 16.96
	ccvGravity     = 32.174
)

// ccvLossFactor gives a closure control valve's loss factor as a function of
// setting, per the representation chosen for the valve (spec.md §4.1,
// _examples/original_source/src/Elements/valve.cpp findCcvHeadLoss).
func ccvLossFactor(v *network.Valve, diameter, setting float64) float64 {
	switch v.CCVRepresentation {
	case network.TullisPolynomial:
		cd := -1.1293*math.Pow(setting, 6) + 3.3823*math.Pow(setting, 5) -
			3.443*math.Pow(setting, 4) + 0.5671*math.Pow(setting, 3) +
			1.0371*setting*setting - 0.0037*setting
		if cd <= 0 {
			return units.ClosedResistance
		}
		fullArea := math.Pi / 4 * diameter * diameter
		return (1/(cd*cd) - 1) / (2 * ccvGravity * fullArea * fullArea)
	default: // ToeCoefficient
		if setting <= 0 {
			return units.ClosedResistance
		}
		return 1 / (ccvConductance * ccvConductance * setting * setting)
	}
}

// ccvInertia reports CCV's non-zero inertial term: CCVCoeffs[0] (1 when
// unset or non-positive) scaled by 1e-3. It does not depend on the valve's
// diameter or other geometry.
func ccvInertia(v *network.Valve) float64 {
	base := v.CCVCoeffs[0]
	if base <= 0 {
		base = 1
	}
	return base * 1e-3
}
