package headloss

import (
	"math"
	"testing"

	"hydrosim/network"
	"hydrosim/units"
)

func baseNet() *network.Network {
	n := network.New()
	n.Options = network.DefaultOptions()
	return n
}

func TestComputePipeHazenWilliams(t *testing.T) {
	net := baseNet()
	link := &network.Link{
		Kind: network.Pipe, Status: network.StatusOpen,
		Diameter: 0.2, Length: 1000, Roughness: 130, Q: 0.010,
	}
	res := Compute(net, link)
	if res.HLoss <= 0 {
		t.Errorf("expected positive head loss for positive flow, got %v", res.HLoss)
	}
	if res.HGrad < units.MinGradient {
		t.Errorf("hGrad below MinGradient: %v", res.HGrad)
	}
}

func TestComputePipeClosed(t *testing.T) {
	net := baseNet()
	link := &network.Link{Kind: network.Pipe, Status: network.StatusClosed, Q: 0.01}
	res := Compute(net, link)
	if got := res.HLoss; got != 0.01*units.ClosedResistance {
		t.Errorf("closed hLoss = %v, want %v", got, 0.01*units.ClosedResistance)
	}
}

func TestComputePipeLowFlowSmoothing(t *testing.T) {
	net := baseNet()
	link := &network.Link{
		Kind: network.Pipe, Status: network.StatusOpen,
		Diameter: 0.2, Length: 1000, Roughness: 130, Q: 1e-8,
	}
	res := Compute(net, link)
	if math.IsNaN(res.HGrad) || res.HGrad < units.MinGradient {
		t.Errorf("low-flow hGrad invalid: %v", res.HGrad)
	}
}

func TestComputeValveFCV(t *testing.T) {
	net := baseNet()
	link := &network.Link{
		Kind: network.ValveLink, Status: network.StatusOpen,
		Diameter: 0.2, MinorLoss: 1, Setting: 0.01, Q: 0.02,
		Valve: &network.Valve{Type: network.FCV},
	}
	res := Compute(net, link)
	if res.HGrad != units.HighFlowResistance {
		t.Errorf("FCV above setting: hGrad = %v, want %v", res.HGrad, units.HighFlowResistance)
	}
}

func TestComputeValveCCVClosesAtZeroSetting(t *testing.T) {
	net := baseNet()
	link := &network.Link{
		Kind: network.ValveLink, Status: network.StatusOpen,
		Diameter: 0.2, Setting: 0, Q: 0.01,
		Valve: &network.Valve{Type: network.CCV},
	}
	Compute(net, link)
	if link.Status != network.StatusClosed {
		t.Errorf("CCV with setting=0 did not force CLOSED, got %v", link.Status)
	}
}

func TestDPRVClosedWhenXmZero(t *testing.T) {
	net := baseNet()
	link := &network.Link{
		Kind: network.ValveLink, Status: network.StatusActive,
		Diameter: 0.2, Q: 0.01,
		Valve: &network.Valve{Type: network.DPRV, Xm: 0},
	}
	res := Compute(net, link)
	if res.Inertia != 0 {
		t.Errorf("DPRV closed inertia = %v, want 0", res.Inertia)
	}
	if res.HLoss != 0.01*units.ClosedResistance {
		t.Errorf("DPRV closed hLoss = %v", res.HLoss)
	}
}

// TestDPRVFlowCoefficientMatchesCubicOrdering pins k1 as the cubic
// coefficient and k4 as the constant term (spec.md §4.1: Cv = (k1*Xm^3 +
// k2*Xm^2 + k3*Xm + k4)*CvMax), distinguishing it from the reversed mapping
// a naive Horner-by-ascending-power reading would produce.
func TestDPRVFlowCoefficientMatchesCubicOrdering(t *testing.T) {
	net := baseNet()
	v := &network.Valve{
		Type: network.DPRV, Xm: 0.5, CvMax: 1,
		DPRVCoeffs: [4]float64{1, 0, 0, 0}, // Cv(Xm) = Xm^3 * CvMax
	}
	link := &network.Link{Kind: network.ValveLink, Status: network.StatusActive, Diameter: 0.2, Q: 0.01, Valve: v}
	res := Compute(net, link)

	wantCv := 0.5 * 0.5 * 0.5
	wantLossFactor := 1 / (wantCv * wantCv)
	wantHGrad := 2 * wantLossFactor * math.Abs(link.Q)
	if math.Abs(res.HGrad-wantHGrad) > 1e-9 {
		t.Errorf("hGrad = %v, want %v (k1 as the cubic coefficient)", res.HGrad, wantHGrad)
	}
}

func TestCCVLossFactorUsesSetting(t *testing.T) {
	net := baseNet()
	link := &network.Link{
		Kind: network.ValveLink, Status: network.StatusOpen,
		Diameter: 0.2, Setting: 0.5, Q: 0.01,
		Valve: &network.Valve{Type: network.CCV, CCVRepresentation: network.ToeCoefficient},
	}
	low := Compute(net, link)

	link.Setting = 0.9
	high := Compute(net, link)

	if low.HGrad == high.HGrad {
		t.Errorf("CCV loss factor did not change with setting: low=%v high=%v", low.HGrad, high.HGrad)
	}
}

func TestDPRVOpeningIncreasesFlowCoefficient(t *testing.T) {
	net := baseNet()
	v := &network.Valve{
		Type: network.DPRV, Xm: 0.5, CvMax: 10, CvTr: 1,
		DPRVCoeffs: [4]float64{0.1, 0.2, 0.3, 0.4},
	}
	link := &network.Link{Kind: network.ValveLink, Status: network.StatusActive, Diameter: 0.2, Q: 0.01, Valve: v}
	half := Compute(net, link)

	v.Xm = 1.0
	full := Compute(net, link)

	if full.HGrad >= half.HGrad {
		t.Errorf("expected more open valve to have lower resistance: half hGrad=%v full hGrad=%v", half.HGrad, full.HGrad)
	}
}
