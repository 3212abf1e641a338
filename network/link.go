package network

// Link holds the attributes common to Pipe, Pump and Valve (spec.md §3).
// Valve-only fields live in Valve, nil for Pipe/Pump links.
type Link struct {
	ID   string
	Kind LinkKind

	FromNode NodeID
	ToNode   NodeID

	Diameter float64 // meters
	Length   float64 // meters, pipes only

	Status     Status
	Q          float64 // current signed flow, m^3/s
	PastFlow   float64 // flow at start of the current step
	LossFactor float64 // link-specific coefficient consumed by headloss
	Leakage    float64 // leakage coefficient, >= 0; 0 disables

	Roughness float64 // Hazen-Williams C, Darcy-Weisbach epsilon, or Manning n
	MinorLoss float64 // dimensionless minor-loss coefficient

	PumpCurve    CurveID
	SpeedPattern PatternID
	Speed        float64 // relative pump speed multiplier, default 1

	Setting        float64 // current scalar setting; meaning depends on ValveType
	BaseSetting    float64 // unmodulated setting SettingPattern multiplies against
	SettingPattern PatternID

	Valve *Valve // non-nil iff Kind == ValveLink
}

// Valve carries the attributes specific to the Valve link variant, spec.md
// §3, including the DPRV extension.
type Valve struct {
	Type ValveType

	// GPV head-loss curve / CCV representation-table curve.
	HeadLossCurve CurveID

	// CCV representation. Representation selects which polynomial/
	// coefficient family Cd(setting) uses; spec.md §4.1 names "Toe
	// coefficient" and "Tullis Cd polynomial" as the two variants.
	CCVRepresentation CCVRepresentation
	CCVCoeffs         [5]float64

	// DPRV-only state, spec.md §3.
	Xm            float64 // current opening fraction, [0,1]
	XmLast        float64 // opening at the start of the current step
	DeltaXm       float64 // last computed increment
	ErrorValve    float64
	ErrorSumValve float64
	ErrorPreValve float64

	// DPRV flow-coefficient curve, spec.md §4.1: piecewise Cv(Xm). DPRVCoeffs
	// holds (k1,k2,k3,k4) for the 0.12<=Xm<=1 cubic segment; CvMax/CvTr are
	// the curve's scale and its value at the Xm=0.12 breakpoint.
	DPRVCoeffs [4]float64
	CvMax      float64
	CvTr       float64

	PresManagType PresManagType

	FixedOutletPressure float64 // FO mode setpoint, meters
	DayPressure         float64 // TM mode
	NightPressure       float64 // TM mode
	FlowCoeffA          float64 // FM mode: ref = a*Q^2 + b*Q + c
	FlowCoeffB          float64
	FlowCoeffC          float64
	RemoteNode          NodeID // RNM mode
	RemotePressure      float64

	ControlLaw    ControlLaw // which of §4.5's two laws this DPRV uses
	AlphaOpen     float64    // physical law gain, e >= 0
	AlphaClose    float64    // physical law gain, e < 0
	Kp, Ki, Kd    float64    // PID law gains

	// Piston geometry feeding A_cs = (PistonK5*Xm^2 + PistonK6)*ControlVolume/Lift,
	// spec.md §4.5 step 6.
	PistonK5      float64
	PistonK6      float64
	ControlVolume float64
	Lift          float64

	Schedule *Schedule // TM mode only; nil otherwise

	Initialized bool // whether the t=0 initialization (§4.5 step 1) has run
}

// ControlLaw selects a DPRV's feedback law, spec.md §4.5/§9 (both laws must
// be available behind a runtime switch; this is that switch).
type ControlLaw uint8

const (
	Physical ControlLaw = iota
	PID
)

// CCVRepresentation selects the polynomial family used to derive a CCV's
// loss factor from its opening setting, spec.md §4.1.
type CCVRepresentation uint8

const (
	ToeCoefficient CCVRepresentation = iota
	TullisPolynomial
)

// IsDPRV is a convenience predicate used throughout solver/valvefsm/control.
func (l *Link) IsDPRV() bool {
	return l.Kind == ValveLink && l.Valve != nil && l.Valve.Type == DPRV
}

// HasFixedStatus reports whether this link's Status is only ever an operator
// setting. Non-valve links are always "fixed" in this sense (a Pipe/Pump's
// Status doesn't self-regulate); valves defer to ValveType.HasFixedStatus.
func (l *Link) HasFixedStatus() bool {
	if l.Kind != ValveLink || l.Valve == nil {
		return true
	}
	return l.Valve.Type.HasFixedStatus()
}
