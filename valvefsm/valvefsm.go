// Package valvefsm implements the three-state (OPEN/CLOSED/ACTIVE) valve
// status machine of spec.md §4.4. It only ever runs for valves whose
// ValveType.HasFixedStatus is false (PRV, PSV, DPRV); every other valve
// type keeps whatever Status the network load or a Control set.
//
// It is grounded on the teacher's element package pattern of a per-element
// UpdateStatus/DoStep hook examined once per solver iteration and reporting
// whether anything changed, generalized here from a circuit switch's
// two-state model to the three-state PRV/PSV/DPRV machine.
package valvefsm

import (
	"hydrosim/headloss"
	"hydrosim/network"
	"hydrosim/units"
)

// Update walks every non-fixed-status valve link, evaluates its transition
// table against the heads/flows the balance engine just computed, and
// reports whether any link's Status changed. The balance engine calls this
// once per status-check round (spec.md §4.3 step 4).
func Update(net *network.Network) bool {
	changed := false
	for i := range net.Links {
		link := &net.Links[i]
		if link.Kind != network.ValveLink || link.Valve == nil {
			continue
		}
		if link.HasFixedStatus() {
			continue
		}
		if updateOne(net, link) {
			changed = true
		}
	}
	return changed
}

func updateOne(net *network.Network, link *network.Link) bool {
	v := link.Valve
	hset := setpoint(net, link)
	hFrom := net.Nodes[link.FromNode].H
	hTo := net.Nodes[link.ToNode].H

	var next network.Status
	if v.Type == network.PSV {
		next = nextPsvStatus(link, hFrom, hTo, hset)
	} else {
		next = nextPrvStatus(link, hFrom, hTo, hset)
	}

	if next == link.Status {
		return false
	}
	link.Status = next
	if next == network.StatusClosed {
		link.Q = 0
	}
	return true
}

// nextPrvStatus implements spec.md §4.4's PRV/DPRV transition table, which
// gates on the downstream head h2 staying at or below hset (it sustains a
// reducing valve's downstream pressure).
func nextPrvStatus(link *network.Link, hFrom, hTo, hset float64) network.Status {
	switch link.Status {
	case network.StatusActive:
		switch {
		case link.Q < -units.ZeroFlow:
			return network.StatusClosed
		case hFrom < hset:
			return network.StatusOpen
		}
	case network.StatusOpen:
		switch {
		case link.Q < -units.ZeroFlow:
			return network.StatusClosed
		case hTo > hset:
			return network.StatusActive
		}
	case network.StatusClosed:
		switch {
		case hFrom > hset && hTo < hset:
			return network.StatusActive
		case hFrom < hset && hFrom > hTo:
			return network.StatusOpen
		}
	default: // TEMP_CLOSED: a Control may release it; the machine itself
		// never transitions out of TEMP_CLOSED on its own.
	}
	return link.Status
}

// nextPsvStatus implements spec.md §4.4's PSV transition table. It mirrors
// nextPrvStatus: a PSV sustains upstream pressure, so its comparisons gate
// on h1 where a PRV gates on h2, and vice versa.
func nextPsvStatus(link *network.Link, hFrom, hTo, hset float64) network.Status {
	switch link.Status {
	case network.StatusActive:
		switch {
		case link.Q < -units.ZeroFlow:
			return network.StatusClosed
		case hTo > hset:
			return network.StatusOpen
		}
	case network.StatusOpen:
		switch {
		case link.Q < -units.ZeroFlow:
			return network.StatusClosed
		case hFrom < hset:
			return network.StatusActive
		}
	case network.StatusClosed:
		switch {
		case hTo < hset && hFrom > hset:
			return network.StatusActive
		case hTo > hset && hFrom > hTo:
			return network.StatusOpen
		}
	default: // TEMP_CLOSED
	}
	return link.Status
}

// setpoint computes hset, spec.md §4.4: PRV/PSV use a fixed offset from the
// relevant endpoint's elevation; DPRV's hset depends on its modulation mode,
// tracking either a fixed or controller-derived outlet pressure.
func setpoint(net *network.Network, link *network.Link) float64 {
	v := link.Valve
	if v.Type == network.DPRV {
		return dprvSetpoint(net, link)
	}
	return headloss.RegulatingSetpoint(net, link)
}

// dprvSetpoint implements spec.md §4.4's DPRV rule: FO uses the fixed
// outlet-pressure setpoint; TM/FM/RNM track the current downstream head
// (hset = H_to), since for those modes the setpoint is enforced through Xm
// rather than through the binary status transition. This is the open
// question spec.md §9 flags (dprvOutletPressure recomputed from H_to making
// hset track the downstream head) — the chosen semantics is to follow the
// literal rule as given rather than "fix" it to use the controller's ref,
// since the status machine's job is only to decide OPEN/CLOSED/ACTIVE
// around the rare case where even full authority over Xm cannot hold
// pressure (e.g. near-zero demand), not to duplicate the controller.
func dprvSetpoint(net *network.Network, link *network.Link) float64 {
	v := link.Valve
	toElev := net.Nodes[link.ToNode].Elevation
	if v.PresManagType == network.FO {
		return v.FixedOutletPressure + toElev
	}
	return net.Nodes[link.ToNode].H
}
