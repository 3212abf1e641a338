package solver

import (
	"math"
	"testing"

	"hydrosim/network"
)

// TestBalanceSingleReservoirPipeJunction is spec.md §8 boundary scenario 1:
// a reservoir at H=100m feeds a junction with 10 L/s demand through one
// Hazen-Williams pipe; balance should converge to that flow.
func TestBalanceSingleReservoirPipeJunction(t *testing.T) {
	net := network.New()
	net.Options = network.DefaultOptions()
	r, _ := net.AddNode(network.Node{ID: "R1", Kind: network.Reservoir, H: 100})
	j, _ := net.AddNode(network.Node{ID: "J1", Kind: network.Junction, Elevation: 0, BaseDemand: 0.010, D: 0.010})
	if _, err := net.AddLink(network.Link{
		ID: "P1", Kind: network.Pipe, FromNode: r, ToNode: j,
		Diameter: 0.2, Length: 1000, Roughness: 130, Status: network.StatusOpen,
	}); err != nil {
		t.Fatalf("AddLink: %v", err)
	}

	eng, err := NewEngine(net, DefaultConfig())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	if _, err := eng.Balance(nil); err != nil {
		t.Fatalf("Balance: %v", err)
	}

	q := net.Links[0].Q
	if math.Abs(q-0.010) > 1e-4 {
		t.Errorf("converged flow = %v, want ~0.010", q)
	}
	hFrom := net.Nodes[r].H
	hTo := net.Nodes[j].H
	if hFrom <= hTo {
		t.Errorf("expected head drop from reservoir to junction, got %v -> %v", hFrom, hTo)
	}
}

func TestBalanceTwoTankFlowReversal(t *testing.T) {
	net := network.New()
	net.Options = network.DefaultOptions()
	t1, _ := net.AddNode(network.Node{ID: "T1", Kind: network.Reservoir, H: 100})
	t2, _ := net.AddNode(network.Node{ID: "T2", Kind: network.Reservoir, H: 50})
	net.AddLink(network.Link{
		ID: "P1", Kind: network.Pipe, FromNode: t1, ToNode: t2,
		Diameter: 0.3, Length: 500, Roughness: 130, Status: network.StatusOpen,
	})
	eng, err := NewEngine(net, DefaultConfig())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	if _, err := eng.Balance(nil); err != nil {
		t.Fatalf("Balance: %v", err)
	}
	if net.Links[0].Q <= 0 {
		t.Errorf("expected positive flow from higher to lower reservoir, got %v", net.Links[0].Q)
	}

	net.Nodes[t1].H, net.Nodes[t2].H = 50, 100
	if _, err := eng.Balance(nil); err != nil {
		t.Fatalf("Balance (reversed): %v", err)
	}
	if net.Links[0].Q >= 0 {
		t.Errorf("expected reversed (negative) flow after swapping heads, got %v", net.Links[0].Q)
	}
}
