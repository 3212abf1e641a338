package engine

// NodeParam and LinkParam are the (index, parameter code) addressing scheme
// spec.md §6 calls for: "read/write link and node attributes by (index,
// parameter code)". Numbering is this project's own choice (spec.md leaves
// it unspecified beyond "small non-negative integers"), loosely following
// the EPANET toolkit convention the input-file section names in spec.md §6
// already echo, so a caller already familiar with that numbering feels at
// home.
type NodeParam int

const (
	NodeElevation NodeParam = iota
	NodeHead
	NodeDemand
	NodeBaseDemand
	NodePressure
	NodeEmitterCoeff
	NodeTankLevel
	NodeTankVolume
	NodeTankMinLevel
	NodeTankMaxLevel
)

type LinkParam int

const (
	LinkDiameter LinkParam = iota
	LinkLength
	LinkRoughness
	LinkMinorLoss
	LinkStatusParam
	LinkSetting
	LinkFlow
	LinkVelocity
	LinkHeadLoss
)
