// Command hydrosim-demo wires engine.Project end to end against a network
// built programmatically in-process (boundary scenario 1 of spec.md §8): a
// reservoir feeding a junction through one pipe. It is not the CLI spec.md
// §6 describes (that one takes input/report/output filenames and parses
// the [SECTION] format, both out of scope); this is the thin adapted
// descendant of the teacher's cmd/main.go, swapped to this domain.
package main

import (
	"fmt"
	"os"

	"hydrosim/engine"
	"hydrosim/hydraulics"
	"hydrosim/network"
	"hydrosim/solver"
)

func main() {
	proj := engine.New(os.Stderr)
	net := proj.Net
	net.Options = network.DefaultOptions()

	reservoir, _ := net.AddNode(network.Node{ID: "R1", Kind: network.Reservoir, H: 100})
	junction, _ := net.AddNode(network.Node{ID: "J1", Kind: network.Junction, Elevation: 0, BaseDemand: 0.010})
	_, err := net.AddLink(network.Link{
		ID:        "P1",
		Kind:      network.Pipe,
		FromNode:  reservoir,
		ToNode:    junction,
		Diameter:  0.2,
		Length:    1000,
		Roughness: 130,
		Status:    network.StatusOpen,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if code := proj.InitSolver(
		hydraulics.Config{Duration: 3600, ReportStep: 3600, HydStep: 3600},
		solver.DefaultConfig(),
		true,
	); code != 0 {
		os.Exit(code)
	}

	for {
		dt, code := proj.Advance()
		if code != 0 {
			os.Exit(code)
		}
		h, _ := proj.GetNodeValue(junction, engine.NodeHead)
		p, _ := proj.GetNodeValue(junction, engine.NodePressure)
		fmt.Printf("t done; junction head=%.3f m pressure=%.3f m\n", h, p)
		if dt == 0 {
			break
		}
	}
}
