package network

import (
	"hydrosim/simerr"
	"hydrosim/units"
)

// Options bundles the per-project unit system and the tunables spec.md §4
// names (head-loss formula, solver backend, accuracy). It does not include
// solver iteration caps or damping bounds — those are operational tuning and
// live in the sibling config package, loaded independently of the network.
type Options struct {
	UnitSystem  units.System
	HeadLoss    HeadLossFormula
	Solver      SolverMethod
	HydAccuracy float64 // relative convergence criterion, §4.3
	SpGravity   float64 // specific gravity of the fluid, default 1.0
	Viscosity   float64 // kinematic viscosity, m^2/s, default water at 20C
}

// DefaultOptions returns the Options a freshly created Network starts with.
func DefaultOptions() Options {
	return Options{
		UnitSystem:  units.SI,
		HeadLoss:    HazenWilliams,
		Solver:      SparseLU,
		HydAccuracy: units.DefaultHydAccuracy,
		SpGravity:   1.0,
		Viscosity:   1.003e-6,
	}
}

// Network is the data model's container: it exclusively owns every Node,
// Link, Curve, Pattern and Control; every other component holds only
// non-owning NodeID/LinkID/... references into it (spec.md §3, "Ownership").
type Network struct {
	Nodes    []Node
	Links    []Link
	Curves   []Curve
	Patterns []Pattern
	Controls []Control
	Options  Options

	byNodeID map[string]NodeID
	byLinkID map[string]LinkID
}

// New returns an empty Network ready to have nodes/links appended to it.
func New() *Network {
	return &Network{
		Options:  DefaultOptions(),
		byNodeID: make(map[string]NodeID),
		byLinkID: make(map[string]LinkID),
	}
}

// AddNode appends a Node and returns its stable index. Duplicate external
// IDs are rejected per spec.md §7 ("duplicate names" is a FileError).
func (n *Network) AddNode(node Node) (NodeID, error) {
	if _, exists := n.byNodeID[node.ID]; exists {
		return NoNode, simerr.New(simerr.File, simerr.CodeDuplicateID, "duplicate node id %q", node.ID)
	}
	id := NodeID(len(n.Nodes))
	n.Nodes = append(n.Nodes, node)
	n.byNodeID[node.ID] = id
	return id, nil
}

// AddLink appends a Link and returns its stable index. Both endpoints must
// already exist (spec.md §3's Link invariant); NoNode is never a valid
// endpoint after load.
func (n *Network) AddLink(link Link) (LinkID, error) {
	if _, exists := n.byLinkID[link.ID]; exists {
		return -1, simerr.New(simerr.File, simerr.CodeDuplicateID, "duplicate link id %q", link.ID)
	}
	if int(link.FromNode) < 0 || int(link.FromNode) >= len(n.Nodes) {
		return -1, simerr.New(simerr.Network, simerr.CodeInvalidReference, "link %q: invalid fromNode", link.ID)
	}
	if int(link.ToNode) < 0 || int(link.ToNode) >= len(n.Nodes) {
		return -1, simerr.New(simerr.Network, simerr.CodeInvalidReference, "link %q: invalid toNode", link.ID)
	}
	id := LinkID(len(n.Links))
	n.Links = append(n.Links, link)
	n.byLinkID[link.ID] = id
	return id, nil
}

// AddCurve appends a Curve and returns its stable index.
func (n *Network) AddCurve(c Curve) CurveID {
	n.Curves = append(n.Curves, c)
	return CurveID(len(n.Curves) - 1)
}

// AddPattern appends a Pattern and returns its stable index.
func (n *Network) AddPattern(p Pattern) PatternID {
	n.Patterns = append(n.Patterns, p)
	return PatternID(len(n.Patterns) - 1)
}

// AddControl appends a Control rule.
func (n *Network) AddControl(c Control) {
	n.Controls = append(n.Controls, c)
}

// NodeByID looks up a node's stable index by its external identifier.
func (n *Network) NodeByID(id string) (NodeID, bool) {
	v, ok := n.byNodeID[id]
	return v, ok
}

// LinkByID looks up a link's stable index by its external identifier.
func (n *Network) LinkByID(id string) (LinkID, bool) {
	v, ok := n.byLinkID[id]
	return v, ok
}

// Validate checks the structural invariants spec.md §3 requires after load:
// every link's endpoints resolve, and no node is completely disconnected
// (a node with no incident links cannot carry a meaningful demand balance).
func (n *Network) Validate() error {
	degree := make([]int, len(n.Nodes))
	for i := range n.Links {
		l := &n.Links[i]
		if int(l.FromNode) < 0 || int(l.FromNode) >= len(n.Nodes) {
			return simerr.New(simerr.Network, simerr.CodeInvalidReference, "link %q: fromNode out of range", l.ID)
		}
		if int(l.ToNode) < 0 || int(l.ToNode) >= len(n.Nodes) {
			return simerr.New(simerr.Network, simerr.CodeInvalidReference, "link %q: toNode out of range", l.ID)
		}
		degree[l.FromNode]++
		degree[l.ToNode]++
	}
	for i := range n.Nodes {
		if degree[i] == 0 {
			return simerr.New(simerr.Network, simerr.CodeNodeNoLinks, "node %q has no links", n.Nodes[i].ID)
		}
	}
	return nil
}
