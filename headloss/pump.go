package headloss

import (
	"math"

	"hydrosim/network"
	"hydrosim/units"
)

// computePump evaluates the pump head-flow curve and reports it as a
// negative head loss (a gain), spec.md §4.1. The curve is evaluated at the
// flow implied by the pump's relative speed (affinity laws): a pump curve
// given at unit speed is queried at q/speed, and the resulting head is
// scaled by speed^2.
func computePump(net *network.Network, link *network.Link) Result {
	if link.Status == network.StatusClosed || link.Status == network.StatusTempClosed {
		return closedFormula(link.Q)
	}
	speed := link.Speed
	if speed <= 0 {
		speed = 1
	}
	if link.SpeedPattern != network.NoPattern {
		speed *= net.Patterns[link.SpeedPattern].FactorAt(0)
	}
	if int(link.PumpCurve) < 0 || int(link.PumpCurve) >= len(net.Curves) {
		return Result{HLoss: 0, HGrad: units.MinGradient, Inertia: units.MinGradient}
	}
	curve := &net.Curves[link.PumpCurve]

	q := link.Q
	qEq := q / speed
	r, h0, _ := curve.FindSegment(math.Abs(qEq))
	// Head added at the equivalent-speed operating point, scaled back up by
	// affinity: H = speed^2 * (h0 + r*qEq).
	headAdded := speed * speed * (h0 + r*qEq)
	grad := -speed * r // d(headAdded)/dq = speed^2 * r / speed = speed*r; hLoss = -headAdded so hGrad = -d(headAdded)/dq
	if grad < units.MinGradient {
		grad = units.MinGradient
	}
	return Result{HLoss: -headAdded, HGrad: grad, Inertia: units.MinGradient}
}
