package network

import "testing"

func TestAddNodeDuplicateID(t *testing.T) {
	n := New()
	if _, err := n.AddNode(Node{ID: "J1", Kind: Junction}); err != nil {
		t.Fatalf("first AddNode: %v", err)
	}
	if _, err := n.AddNode(Node{ID: "J1", Kind: Junction}); err == nil {
		t.Fatalf("expected duplicate id error, got nil")
	}
}

func TestAddLinkInvalidEndpoint(t *testing.T) {
	n := New()
	j, _ := n.AddNode(Node{ID: "J1", Kind: Junction})
	if _, err := n.AddLink(Link{ID: "P1", FromNode: j, ToNode: 99}); err == nil {
		t.Fatalf("expected invalid reference error, got nil")
	}
}

func TestValidateDisconnectedNode(t *testing.T) {
	n := New()
	if _, err := n.AddNode(Node{ID: "J1", Kind: Junction}); err != nil {
		t.Fatalf("AddNode: %v", err)
	}
	if err := n.Validate(); err == nil {
		t.Fatalf("expected node-no-links error, got nil")
	}
}

func TestValidateOK(t *testing.T) {
	n := New()
	a, _ := n.AddNode(Node{ID: "R1", Kind: Reservoir, H: 100})
	b, _ := n.AddNode(Node{ID: "J1", Kind: Junction})
	if _, err := n.AddLink(Link{ID: "P1", Kind: Pipe, FromNode: a, ToNode: b}); err != nil {
		t.Fatalf("AddLink: %v", err)
	}
	if err := n.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestTankClampLevel(t *testing.T) {
	tank := Node{Kind: Tank, Elevation: 10, MinLevel: 1, MaxLevel: 5, H: 10}
	if !tank.ClampLevel() {
		t.Fatalf("expected clamp at low level")
	}
	if got := tank.Level(); got != 1 {
		t.Errorf("level after clamp = %v, want 1", got)
	}

	tank2 := Node{Kind: Tank, Elevation: 10, MinLevel: 1, MaxLevel: 5, H: 20}
	if !tank2.ClampLevel() {
		t.Fatalf("expected clamp at high level")
	}
	if got := tank2.Level(); got != 5 {
		t.Errorf("level after clamp = %v, want 5", got)
	}
}

func TestCurveFindSegment(t *testing.T) {
	c := Curve{X: []float64{0, 10, 20}, Y: []float64{0, 100, 150}}
	r, h0, seg := c.FindSegment(5)
	if seg != 0 {
		t.Errorf("seg = %d, want 0", seg)
	}
	if got := r*5 + h0; got != 50 {
		t.Errorf("interpolated y = %v, want 50", got)
	}
}

func TestScheduleValidateDetectsGap(t *testing.T) {
	s := &Schedule{Intervals: []Interval{
		{Start: 0, End: 3600, Night: false},
		{Start: 4000, End: 7200, Night: true},
	}}
	if err := s.Validate(); err == nil {
		t.Fatalf("expected gap error, got nil")
	}
}

func TestScheduleValidateDetectsOverlap(t *testing.T) {
	s := &Schedule{Intervals: []Interval{
		{Start: 0, End: 3600, Night: false},
		{Start: 1800, End: 7200, Night: true},
	}}
	if err := s.Validate(); err == nil {
		t.Fatalf("expected overlap error, got nil")
	}
}

func TestScheduleNightAt(t *testing.T) {
	s := &Schedule{Intervals: []Interval{
		{Start: 0, End: 72000, Night: false},
		{Start: 72000, End: 75600, Night: true},
		{Start: 75600, End: 144000, Night: false},
	}}
	if s.NightAt(72000) != true {
		t.Errorf("NightAt(72000) = false, want true (left-closed boundary)")
	}
	if s.NightAt(75599) != true {
		t.Errorf("NightAt(75599) = false, want true")
	}
	if s.NightAt(75600) != false {
		t.Errorf("NightAt(75600) = true, want false")
	}
}

func TestPatternFactorAtWraps(t *testing.T) {
	p := Pattern{Factors: []float64{1, 2, 3}, PeriodSecs: 3600}
	if got := p.FactorAt(3600 * 3); got != 1 {
		t.Errorf("FactorAt wrapped = %v, want 1", got)
	}
	if got := p.FactorAt(3600); got != 2 {
		t.Errorf("FactorAt(3600) = %v, want 2", got)
	}
}
