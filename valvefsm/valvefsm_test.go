package valvefsm

import (
	"testing"

	"hydrosim/network"
	"hydrosim/units"
)

func prvNet(hFrom, hTo, setting float64) (*network.Network, *network.Link) {
	net := network.New()
	net.Options = network.DefaultOptions()
	from, _ := net.AddNode(network.Node{ID: "A", Kind: network.Junction, H: hFrom})
	to, _ := net.AddNode(network.Node{ID: "B", Kind: network.Junction, Elevation: 0, H: hTo})
	net.AddLink(network.Link{
		ID: "V1", Kind: network.ValveLink, FromNode: from, ToNode: to,
		Status: network.StatusActive, Setting: setting,
		Valve: &network.Valve{Type: network.PRV},
	})
	return net, &net.Links[0]
}

func TestPRVActiveToClosedOnReverseFlow(t *testing.T) {
	net, link := prvNet(30, 20, 25)
	link.Q = -units.ZeroFlow * 10
	if !Update(net) {
		t.Fatalf("expected a status change")
	}
	if link.Status != network.StatusClosed {
		t.Errorf("status = %v, want CLOSED", link.Status)
	}
	if link.Q != 0 {
		t.Errorf("expected q forced to 0 on entering CLOSED, got %v", link.Q)
	}
}

func TestPRVActiveToOpenWhenUpstreamBelowSetpoint(t *testing.T) {
	net, link := prvNet(10, 5, 25) // hset = 25, hFrom=10 < hset
	link.Q = 0.01
	if !Update(net) {
		t.Fatalf("expected a status change")
	}
	if link.Status != network.StatusOpen {
		t.Errorf("status = %v, want OPEN", link.Status)
	}
}

func TestPRVClosedToActive(t *testing.T) {
	net, link := prvNet(30, 10, 25) // hset=25, hFrom=30>hset, hTo=10<hset
	link.Status = network.StatusClosed
	link.Q = 0
	if !Update(net) {
		t.Fatalf("expected a status change")
	}
	if link.Status != network.StatusActive {
		t.Errorf("status = %v, want ACTIVE", link.Status)
	}
}

func psvNet(hFrom, hTo, setting float64) (*network.Network, *network.Link) {
	net := network.New()
	net.Options = network.DefaultOptions()
	from, _ := net.AddNode(network.Node{ID: "A", Kind: network.Junction, Elevation: 0, H: hFrom})
	to, _ := net.AddNode(network.Node{ID: "B", Kind: network.Junction, H: hTo})
	net.AddLink(network.Link{
		ID: "V1", Kind: network.ValveLink, FromNode: from, ToNode: to,
		Status: network.StatusActive, Setting: setting,
		Valve: &network.Valve{Type: network.PSV},
	})
	return net, &net.Links[0]
}

func TestPSVActiveToOpenWhenDownstreamAboveSetpoint(t *testing.T) {
	net, link := psvNet(10, 30, 25) // hset=25, hTo=30 > hset
	link.Q = 0.01
	if !Update(net) {
		t.Fatalf("expected a status change")
	}
	if link.Status != network.StatusOpen {
		t.Errorf("status = %v, want OPEN", link.Status)
	}
}

func TestPSVOpenToActiveWhenUpstreamBelowSetpoint(t *testing.T) {
	net, link := psvNet(10, 30, 25) // hset=25, hFrom=10 < hset
	link.Status = network.StatusOpen
	link.Q = 0.01
	if !Update(net) {
		t.Fatalf("expected a status change")
	}
	if link.Status != network.StatusActive {
		t.Errorf("status = %v, want ACTIVE", link.Status)
	}
}

func TestPSVClosedToActive(t *testing.T) {
	net, link := psvNet(30, 10, 25) // hset=25, hTo=10<hset, hFrom=30>hset
	link.Status = network.StatusClosed
	link.Q = 0
	if !Update(net) {
		t.Fatalf("expected a status change")
	}
	if link.Status != network.StatusActive {
		t.Errorf("status = %v, want ACTIVE", link.Status)
	}
}

func TestFixedStatusValveNeverTransitions(t *testing.T) {
	net := network.New()
	net.Options = network.DefaultOptions()
	from, _ := net.AddNode(network.Node{ID: "A", Kind: network.Junction, H: 30})
	to, _ := net.AddNode(network.Node{ID: "B", Kind: network.Junction, H: 10})
	net.AddLink(network.Link{
		ID: "V1", Kind: network.ValveLink, FromNode: from, ToNode: to,
		Status: network.StatusOpen, Setting: 1,
		Valve: &network.Valve{Type: network.FCV},
	})
	if Update(net) {
		t.Errorf("FCV (fixed status) must never be touched by the status machine")
	}
}
