package graph

import (
	"fmt"
	"strings"
)

// Exporter provides methods to export graphs in different formats
type Exporter[S any] struct {
	graph *StateGraph[S]
}

// NewExporter creates a new graph exporter for the given graph
func NewExporter[S any](graph *StateGraph[S]) *Exporter[S] {
	return &Exporter[S]{graph: graph}
}

// MermaidOptions defines configuration for Mermaid diagram generation
type MermaidOptions struct {
	// Direction of the flowchart (e.g., "TD", "LR")
	Direction string

	// Title is emitted as a front matter title when set
	Title string
}

// DrawMermaid generates a Mermaid diagram representation of the graph
func (ge *Exporter[S]) DrawMermaid() string {
	return ge.DrawMermaidWithOptions(MermaidOptions{Direction: "TD"})
}

// DrawMermaidWithOptions generates a Mermaid diagram with custom options.
// Static edges are solid, Command destinations are dotted.
func (ge *Exporter[S]) DrawMermaidWithOptions(opts MermaidOptions) string {
	var sb strings.Builder

	if opts.Title != "" {
		fmt.Fprintf(&sb, "---\ntitle: %s\n---\n", opts.Title)
	}
	direction := opts.Direction
	if direction == "" {
		direction = "TD"
	}
	fmt.Fprintf(&sb, "flowchart %s\n", direction)

	g := ge.graph
	sb.WriteString("    START([\"START\"])\n")
	for _, name := range g.order {
		fmt.Fprintf(&sb, "    %s[\"%s\"]\n", mermaidID(name), name)
	}
	if ge.reachesEnd() {
		sb.WriteString("    END([\"END\"])\n")
	}

	if g.entryPoint != "" {
		fmt.Fprintf(&sb, "    START --> %s\n", mermaidID(g.entryPoint))
	}
	for _, e := range g.edges {
		fmt.Fprintf(&sb, "    %s --> %s\n", mermaidID(e.From), mermaidID(e.To))
	}
	for _, name := range g.order {
		for _, d := range g.nodes[name].Destinations {
			fmt.Fprintf(&sb, "    %s -.-> %s\n", mermaidID(name), mermaidID(d))
		}
	}
	for _, name := range g.order {
		if _, ok := g.conditionalEdges[name]; ok {
			fmt.Fprintf(&sb, "    %s -.-> %s_condition((?))\n", mermaidID(name), mermaidID(name))
		}
	}

	sb.WriteString("    style START fill:#90EE90\n")
	if ge.reachesEnd() {
		sb.WriteString("    style END fill:#FFB6C1\n")
	}
	if g.entryPoint != "" {
		fmt.Fprintf(&sb, "    style %s fill:#87CEEB\n", mermaidID(g.entryPoint))
	}
	return sb.String()
}

// DrawDOT generates a DOT (Graphviz) representation of the graph
func (ge *Exporter[S]) DrawDOT() string {
	var sb strings.Builder
	g := ge.graph

	sb.WriteString("digraph G {\n")
	sb.WriteString("    rankdir=TD;\n")
	sb.WriteString("    node [shape=box];\n")
	sb.WriteString("    START [label=\"START\", shape=ellipse, style=filled, fillcolor=lightgreen];\n")
	if ge.reachesEnd() {
		sb.WriteString("    END [label=\"END\", shape=ellipse, style=filled, fillcolor=lightpink];\n")
	}
	if g.entryPoint != "" {
		fmt.Fprintf(&sb, "    %s [style=filled, fillcolor=lightblue];\n", g.entryPoint)
		fmt.Fprintf(&sb, "    START -> %s;\n", g.entryPoint)
	}
	for _, e := range g.edges {
		fmt.Fprintf(&sb, "    %s -> %s;\n", e.From, e.To)
	}
	for _, name := range g.order {
		for _, d := range g.nodes[name].Destinations {
			fmt.Fprintf(&sb, "    %s -> %s [style=dashed];\n", name, d)
		}
	}
	sb.WriteString("}\n")
	return sb.String()
}

func (ge *Exporter[S]) reachesEnd() bool {
	for _, e := range ge.graph.edges {
		if e.To == END {
			return true
		}
	}
	for _, n := range ge.graph.nodes {
		if n.allows(END) {
			return true
		}
	}
	return false
}

// mermaidID keeps node ids clear of Mermaid keywords.
func mermaidID(name string) string {
	if name == END {
		return "END"
	}
	return "n_" + name
}
