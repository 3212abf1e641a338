// Package units holds the physical constants and unit-system conversion
// factors shared by every other package. Nothing in here depends on network
// topology; it is pure arithmetic.
package units

// System selects which user unit system a project was loaded in. Internal
// computation always happens in SI-like units (seconds, meters, m^3/s);
// System only affects the conversion factors applied at the API boundary.
type System int

const (
	US System = iota // US customary (GPM, feet, psi)
	SI                // SI metric (LPS, meters, meters of head)
)

// Numerical safety constants used throughout the solver and valve models.
const (
	// ZeroFlow is the threshold below which a flow is treated as zero for
	// status-transition and invariant checks.
	ZeroFlow = 1e-6 // m^3/s

	// MinGradient is the smallest dHead/dFlow gradient ever stamped for a
	// link; it keeps the system matrix non-singular for fully open, purely
	// resistive links.
	MinGradient = 1e-11

	// ClosedResistance is the large resistance used to model a closed or
	// temporarily closed link: hLoss = q * ClosedResistance.
	ClosedResistance = 1e8

	// HighFlowResistance (R_high) is the slope used past an FCV's target
	// flow to stiffly resist excess flow instead of modeling it exactly.
	HighFlowResistance = 1e8

	// Gravity is the standard gravitational acceleration, m/s^2.
	Gravity = 9.80665
)

// Default solver tolerances (overridable via config.SolverConfig).
const (
	DefaultHydAccuracy  = 0.001 // relative flow-change convergence criterion
	DefaultMaxIter      = 200
	DefaultMaxStatusChk = 10
)

// Conversion factors (UCF = unit conversion factor) between user units and
// internal computation units, indexed by System. Internal units are always
// meters (length/head), m^3/s (flow), and kilopascal-equivalent head meters
// for pressure (pressure is reported as head minus elevation, in length
// units, consistent with §3 of the spec).
var flowUCF = [2]float64{
	US: 15850.323,    // internal m^3/s -> GPM
	SI: 1000.0,       // internal m^3/s -> LPS
}

var lengthUCF = [2]float64{
	US: 3.28084, // meters -> feet
	SI: 1.0,     // meters -> meters
}

var pressureUCF = [2]float64{
	US: 1.4219704, // meters of head -> psi (for water, rho*g/144 in^2/ft^2 form)
	SI: 1.0,       // meters of head -> meters of head (SI reports pressure as head)
}

// FlowUCF returns the conversion factor applied to go from internal m^3/s to
// the project's user flow unit.
func FlowUCF(sys System) float64 { return flowUCF[sys] }

// LengthUCF returns the conversion factor applied to go from internal meters
// to the project's user length unit.
func LengthUCF(sys System) float64 { return lengthUCF[sys] }

// PressureUCF returns the conversion factor applied to go from internal
// meters of head to the project's user pressure unit.
func PressureUCF(sys System) float64 { return pressureUCF[sys] }
