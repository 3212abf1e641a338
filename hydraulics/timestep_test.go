package hydraulics

import (
	"math"
	"testing"

	"hydrosim/network"
	"hydrosim/solver"
)

func buildNet() *network.Network {
	net := network.New()
	net.Options = network.DefaultOptions()
	r, _ := net.AddNode(network.Node{ID: "R1", Kind: network.Reservoir, H: 100})
	j, _ := net.AddNode(network.Node{ID: "J1", Kind: network.Junction, Elevation: 0, BaseDemand: 0.010})
	net.AddLink(network.Link{
		ID: "P1", Kind: network.Pipe, FromNode: r, ToNode: j,
		Diameter: 0.2, Length: 1000, Roughness: 130, Status: network.StatusOpen,
	})
	return net
}

func TestStepConverges(t *testing.T) {
	net := buildNet()
	eng, err := NewEngine(net, Config{Duration: 7200, ReportStep: 3600, HydStep: 3600}, solver.DefaultConfig())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	eng.Reset(true)

	reportedT, dt, err := eng.Step()
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if reportedT != 0 {
		t.Errorf("first reported t = %v, want 0", reportedT)
	}
	if dt != 3600 {
		t.Errorf("dt = %v, want 3600 (report step bound)", dt)
	}
	if math.Abs(net.Links[0].Q-0.010) > 1e-4 {
		t.Errorf("converged flow = %v, want ~0.010", net.Links[0].Q)
	}
}

func TestStepReturnsZeroDtAtHorizon(t *testing.T) {
	net := buildNet()
	eng, err := NewEngine(net, Config{Duration: 3600, ReportStep: 3600, HydStep: 3600}, solver.DefaultConfig())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	eng.Reset(true)
	// The first step solves t=0 and reports dt=3600; the second solves
	// t=3600, the end of the horizon.
	if _, _, err := eng.Step(); err != nil {
		t.Fatalf("Step at t=0: %v", err)
	}
	_, dt, err := eng.Step()
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if dt != 0 {
		t.Errorf("dt at horizon = %v, want 0", dt)
	}
}

func TestPastHeadSnapshottedBeforeBalance(t *testing.T) {
	net := buildNet()
	net.Nodes[1].H = 42
	eng, err := NewEngine(net, Config{Duration: 7200, ReportStep: 3600, HydStep: 3600}, solver.DefaultConfig())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	eng.Reset(true)
	if _, _, err := eng.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if net.Nodes[1].PastHead != 42 {
		t.Errorf("PastHead = %v, want 42 (value before this step's balance ran)", net.Nodes[1].PastHead)
	}
}
