package headloss

import (
	"hydrosim/network"
	"hydrosim/units"
)

// computeDPRV implements the DPRV dispatch of spec.md §4.1: CLOSED or
// Xm==0 use the closed model with zero inertia; a DPRV forced fully OPEN
// uses the open-valve model; otherwise the opening fraction Xm drives a
// flow coefficient Cv(Xm) that in turn sets the loss factor.
func computeDPRV(net *network.Network, link *network.Link) Result {
	v := link.Valve
	if link.Status == network.StatusClosed || v.Xm <= 0 {
		r := closedFormula(link.Q)
		r.Inertia = 0
		return r
	}
	if link.Status == network.StatusOpen {
		return openFormula(OrificeFactor(link.Diameter, link.MinorLoss), link.Q)
	}

	cv := dprvFlowCoefficient(v)
	var lossFactor float64
	if cv <= 0 {
		lossFactor = units.ClosedResistance
	} else {
		lossFactor = 1 / (cv * cv)
	}
	result := openFormula(lossFactor, link.Q)
	result.Inertia = dprvInertia(link)
	return result
}

// dprvXmBreak is the opening fraction below which Cv(Xm) is taken as
// linear rather than the fitted cubic, spec.md §4.1.
const dprvXmBreak = 0.12

// dprvFlowCoefficient evaluates the piecewise Cv(Xm) curve: linear from the
// origin up to (dprvXmBreak, CvTr), then the CvMax-scaled cubic fit given by
// DPRVCoeffs = (k1,k2,k3,k4) over [dprvXmBreak, 1].
func dprvFlowCoefficient(v *network.Valve) float64 {
	xm := v.Xm
	if xm <= 0 {
		return 0
	}
	if xm >= 1 {
		xm = 1
	}
	if xm < dprvXmBreak {
		return v.CvTr * (xm / dprvXmBreak)
	}
	k1, k2, k3, k4 := v.DPRVCoeffs[0], v.DPRVCoeffs[1], v.DPRVCoeffs[2], v.DPRVCoeffs[3]
	poly := ((k1*xm+k2)*xm+k3)*xm + k4
	return v.CvMax * poly
}

// dprvInertia gives the DPRV its geometry-dependent non-zero inertial term,
// spec.md §4.1 ("a geometry-dependent non-zero value for CCV and DPRV"):
// scaled by the disc's cross-sectional area, so a larger valve carries more
// fluid inertia through its throat.
func dprvInertia(link *network.Link) float64 {
	area := 0.7854 * link.Diameter * link.Diameter // pi/4, kept terse
	if area <= 0 {
		return units.MinGradient
	}
	return area * 1e-2
}
