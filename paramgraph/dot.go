package paramgraph

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
)

// WriteDOT renders the graph in Graphviz DOT form.
func (g *Graph) WriteDOT(w io.Writer, name string) error {
	out := bufio.NewWriter(w)

	fmt.Fprintf(out, "digraph %s {\n", strconv.Quote(name))
	for _, v := range g.vertices {
		fmt.Fprintf(out, "  %s [label=%s];\n", strconv.Quote(v.ID), strconv.Quote(v.String()))
	}
	for _, from := range g.vertices {
		for _, to := range g.out[from] {
			fmt.Fprintf(out, "  %s -> %s;\n", strconv.Quote(from.ID), strconv.Quote(to.ID))
		}
	}
	fmt.Fprintln(out, "}")

	return out.Flush()
}
