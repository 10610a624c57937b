package dataflow

import "fmt"

// SourceSpec binds a vertex to an input location. The engine resolves Type
// through the source registry.
type SourceSpec struct {
	Type string `json:"type"`
	Path string `json:"path"`
}

// SinkSpec binds a vertex to an output location. The engine resolves Type
// through the sink registry.
type SinkSpec struct {
	Type string `json:"type"`
	Path string `json:"path"`
}

// Vertex is one independently schedulable stage. Processor names a
// registered processor so the graph stays serializable. Parallelism 0 means
// the engine derives the task count (one per source split for producer
// vertices, one per partition for consumers).
type Vertex struct {
	Name        string      `json:"name"`
	Processor   string      `json:"processor"`
	Parallelism int         `json:"parallelism,omitempty"`
	Source      *SourceSpec `json:"source,omitempty"`
	Sink        *SinkSpec   `json:"sink,omitempty"`
}

// Edge moves pairs from one vertex to another, partitioned by key hash and
// grouped by key before delivery.
type Edge struct {
	From       string `json:"from"`
	To         string `json:"to"`
	Partitions int    `json:"partitions"`
}

// Graph is a complete job description, immutable once submitted.
type Graph struct {
	Name     string   `json:"name"`
	Vertices []Vertex `json:"vertices"`
	Edges    []Edge   `json:"edges"`
}

// Validate checks structural soundness: named graph, uniquely named vertices
// with processors, no dangling edge endpoints, at least one partition per
// edge. Parallelism of an edge consumer, when set, must match the edge's
// partition count so every partition has exactly one task.
func (g *Graph) Validate() error {
	if g.Name == "" {
		return fmt.Errorf("%w: graph has no name", ErrMalformedGraph)
	}
	if len(g.Vertices) == 0 {
		return fmt.Errorf("%w: graph has no vertices", ErrMalformedGraph)
	}

	vertices := make(map[string]Vertex, len(g.Vertices))
	for _, vertex := range g.Vertices {
		if vertex.Name == "" {
			return fmt.Errorf("%w: vertex has no name", ErrMalformedGraph)
		}
		if _, exists := vertices[vertex.Name]; exists {
			return fmt.Errorf("%w: duplicate vertex %q", ErrMalformedGraph, vertex.Name)
		}
		if vertex.Processor == "" {
			return fmt.Errorf("%w: vertex %q has no processor", ErrMalformedGraph, vertex.Name)
		}
		vertices[vertex.Name] = vertex
	}

	for _, edge := range g.Edges {
		if _, exists := vertices[edge.From]; !exists {
			return fmt.Errorf("%w: edge from unknown vertex %q", ErrMalformedGraph, edge.From)
		}
		if _, exists := vertices[edge.To]; !exists {
			return fmt.Errorf("%w: edge to unknown vertex %q", ErrMalformedGraph, edge.To)
		}
		if edge.From == edge.To {
			return fmt.Errorf("%w: edge loops on vertex %q", ErrMalformedGraph, edge.From)
		}
		if edge.Partitions < 1 {
			return fmt.Errorf("%w: edge %s->%s has %d partitions", ErrMalformedGraph, edge.From, edge.To, edge.Partitions)
		}
		consumer := vertices[edge.To]
		if consumer.Parallelism > 0 && consumer.Parallelism != edge.Partitions {
			return fmt.Errorf("%w: vertex %q parallelism %d does not match edge partitions %d",
				ErrMalformedGraph, edge.To, consumer.Parallelism, edge.Partitions)
		}
	}

	return nil
}
