package dataflow

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func validGraph() *Graph {
	return &Graph{
		Name: "wordcount",
		Vertices: []Vertex{
			{Name: "tokenizer", Processor: "tokenizer", Source: &SourceSpec{Type: "textfile", Path: "/in/*.txt"}},
			{Name: "summation", Processor: "summation", Parallelism: 2, Sink: &SinkSpec{Type: "textfile", Path: "/out"}},
		},
		Edges: []Edge{
			{From: "tokenizer", To: "summation", Partitions: 2},
		},
	}
}

func TestGraphValidate_Valid(t *testing.T) {
	require.NoError(t, validGraph().Validate())
}

func TestGraphValidate_Malformed(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(g *Graph)
	}{
		{"no name", func(g *Graph) { g.Name = "" }},
		{"no vertices", func(g *Graph) { g.Vertices = nil }},
		{"unnamed vertex", func(g *Graph) { g.Vertices[0].Name = "" }},
		{"duplicate vertex", func(g *Graph) { g.Vertices[1].Name = g.Vertices[0].Name }},
		{"no processor", func(g *Graph) { g.Vertices[0].Processor = "" }},
		{"dangling edge from", func(g *Graph) { g.Edges[0].From = "missing" }},
		{"dangling edge to", func(g *Graph) { g.Edges[0].To = "missing" }},
		{"self edge", func(g *Graph) { g.Edges[0].To = g.Edges[0].From }},
		{"zero partitions", func(g *Graph) { g.Edges[0].Partitions = 0 }},
		{"negative partitions", func(g *Graph) { g.Edges[0].Partitions = -1 }},
		{"parallelism mismatch", func(g *Graph) { g.Vertices[1].Parallelism = 3 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := validGraph()
			tt.mutate(g)
			require.ErrorIs(t, g.Validate(), ErrMalformedGraph)
		})
	}
}

func TestGraphValidate_DerivedParallelism(t *testing.T) {
	// Parallelism 0 on the consumer means derived from the edge, never a
	// mismatch.
	g := validGraph()
	g.Vertices[1].Parallelism = 0
	require.NoError(t, g.Validate())
}
