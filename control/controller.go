// Package control implements the DPRV pressure-management controller of
// spec.md §4.5: once per hydraulic step, before the balance engine runs, it
// rewrites every DPRV's opening Xm from a setpoint derived from the valve's
// modulation strategy and one of two feedback laws.
//
// It is grounded on the teacher's element.StartIteration/DoStep split (a
// per-element hook run once before the solver's linear system is touched,
// separate from the hook run inside the Newton loop): Update here plays the
// role of that pre-iteration hook, generalized from a circuit element's
// internal state update to a valve's opening update.
package control

import (
	"hydrosim/network"
	"hydrosim/units"
)

const (
	initialXm          = 0.2
	initialErrorPreVal = 0.5
	integralClamp      = 100.0
)

// Update runs the controller for every DPRV link in net, given the elapsed
// simulation time t and the hydraulic step size dt about to be taken. It is
// called once per step, before hydraulics.Engine invokes the balance engine.
func Update(net *network.Network, t, dt float64) {
	for i := range net.Links {
		link := &net.Links[i]
		if !link.IsDPRV() {
			continue
		}
		updateOne(net, link, t, dt)
	}
}

func updateOne(net *network.Network, link *network.Link, t, dt float64) {
	v := link.Valve
	if !v.Initialized {
		v.Xm = initialXm
		v.XmLast = initialXm
		v.DeltaXm = 0
		v.ErrorValve = 0
		v.ErrorSumValve = 0
		v.ErrorPreValve = initialErrorPreVal
		v.Initialized = true
	}

	toNode := &net.Nodes[link.ToNode]
	fromNode := &net.Nodes[link.FromNode]
	pTo := toNode.H - toNode.Elevation
	pToPast := toNode.PastHead - toNode.Elevation
	pFrom := fromNode.H - fromNode.Elevation

	ref := setpoint(net, link, t)

	if v.PresManagType == network.FO && link.Status == network.StatusClosed {
		if pFrom > ref && pTo < ref {
			link.Status = network.StatusActive
		}
	}
	if link.Status != network.StatusActive {
		return
	}

	pTarget := pTo
	if v.PresManagType == network.RNM {
		remote := &net.Nodes[v.RemoteNode]
		pTarget = remote.H - remote.Elevation
	}
	e := ref - pTarget
	v.ErrorValve = e

	acs := pistonArea(v)

	var q3 float64
	switch v.ControlLaw {
	case network.PID:
		v.ErrorSumValve += e
		if v.ErrorSumValve > integralClamp {
			v.ErrorSumValve = integralClamp
		} else if v.ErrorSumValve < -integralClamp {
			v.ErrorSumValve = -integralClamp
		}
		derivative := pTo - pToPast
		q3 = -(v.Kp*e + v.Ki*v.ErrorSumValve + v.Kd*derivative)
	default: // Physical
		if e >= 0 {
			q3 = v.AlphaOpen * e
		} else {
			q3 = v.AlphaClose * e
		}
	}

	if acs <= 0 {
		acs = units.MinGradient
	}
	v.DeltaXm = (q3 / acs) * dt
	xm := v.XmLast + v.DeltaXm
	if xm < 0 {
		xm = 0
	} else if xm > 1 {
		xm = 1
	}
	v.Xm = xm
}

// Lasting runs the post-solve snapshot spec.md §4.5 step 9 requires, exactly
// once per successful hydraulic step: XmLast <- Xm, errorPreValve <-
// errorValve. hydraulics.Engine calls this only after a converged balance.
func Lasting(net *network.Network) {
	for i := range net.Links {
		link := &net.Links[i]
		if !link.IsDPRV() {
			continue
		}
		v := link.Valve
		v.XmLast = v.Xm
		v.ErrorPreValve = v.ErrorValve
	}
}

// setpoint derives ref per spec.md §4.5 step 4.
func setpoint(net *network.Network, link *network.Link, t float64) float64 {
	v := link.Valve
	switch v.PresManagType {
	case network.TM:
		if v.Schedule != nil && v.Schedule.NightAt(t) {
			return v.NightPressure
		}
		return v.DayPressure
	case network.FM:
		q := link.Q * units.FlowUCF(net.Options.UnitSystem)
		raw := v.FlowCoeffA*q*q + v.FlowCoeffB*q + v.FlowCoeffC
		return raw / units.LengthUCF(net.Options.UnitSystem)
	case network.RNM:
		return v.RemotePressure
	default: // FO
		return v.FixedOutletPressure
	}
}

// pistonArea implements spec.md §4.5 step 6:
// A_cs = (k5*Xm^2 + k6) * V_control/lift.
func pistonArea(v *network.Valve) float64 {
	if v.Lift == 0 {
		return units.MinGradient
	}
	return (v.PistonK5*v.Xm*v.Xm + v.PistonK6) * v.ControlVolume / v.Lift
}
