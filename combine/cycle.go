package combine

import (
	"fmt"

	"github.com/sentrie-sh/aspen/dag"
	"github.com/sentrie-sh/aspen/xerr"
)

// documentNode lets a Document's name stand in as a dag.G node without the
// graph package needing to know anything about policies or sets.
type documentNode string

func (n documentNode) String() string { return string(n) }

// validateAcyclic walks a set's child tree with the teacher's own
// topological-sort graph (dag.G, built for task dependency ordering,
// generalized here to document nesting) and rejects a set that contains
// itself, directly or through a shared child. The DSL's own scoping
// (§4.2's where-chain) cannot cycle on its own — variables only ever see
// earlier bindings — so the only way a cycle can appear is a set built
// from a registry that hands back a not-yet-finished set as someone
// else's child; this is the compile-time guard against that.
func validateAcyclic(root *Set) error {
	g := dag.New[documentNode]()
	visited := map[Document]bool{}

	var walk func(d Document) error
	walk = func(d Document) error {
		if visited[d] {
			return nil
		}
		visited[d] = true
		g.AddNode(documentNode(d.DocumentName()))

		set, ok := d.(*Set)
		if !ok {
			return nil
		}
		for _, child := range set.Children {
			g.AddNode(documentNode(child.DocumentName()))
			if err := g.AddEdge(documentNode(set.Name), documentNode(child.DocumentName())); err != nil {
				return xerr.ErrCompile(fmt.Sprintf("policy set %q contains a cycle: %s", root.Name, err), root.Name)
			}
			if err := walk(child); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(root); err != nil {
		return err
	}

	if _, err := g.TopoSort(); err != nil {
		return xerr.ErrCompile(fmt.Sprintf("policy set %q contains a cycle: %s", root.Name, err), root.Name)
	}
	return nil
}
