package types

import (
	"encoding/json"
	"fmt"
)

// Definition is a workflow document recovered from model output. It is kept
// as a generic object so fields outside the known schema survive a round trip.
type Definition map[string]any

// DefaultWorkflowName is used when a definition carries no usable name.
const DefaultWorkflowName = "Generated Workflow"

// Name returns the definition's name, or "" when absent.
func (d Definition) Name() string {
	name, _ := d["name"].(string)
	return name
}

// NameOr returns the definition's name or fallback.
func (d Definition) NameOr(fallback string) string {
	if name := d.Name(); name != "" {
		return name
	}
	return fallback
}

// Nodes returns the raw node list.
func (d Definition) Nodes() []any {
	nodes, _ := d["nodes"].([]any)
	return nodes
}

// Connections returns the raw connection map keyed by source node name.
func (d Definition) Connections() map[string]any {
	conns, _ := d["connections"].(map[string]any)
	return conns
}

// Bytes encodes the definition as compact JSON.
func (d Definition) Bytes() ([]byte, error) {
	return json.Marshal(d)
}

// Graph decodes the definition into the typed node/connection view.
func (d Definition) Graph() (*WorkflowGraph, error) {
	raw, err := d.Bytes()
	if err != nil {
		return nil, err
	}
	var g WorkflowGraph
	if err := json.Unmarshal(raw, &g); err != nil {
		return nil, fmt.Errorf("workflow graph: %w", err)
	}
	return &g, nil
}

// WorkflowGraph is the typed shape of a workflow definition.
type WorkflowGraph struct {
	Name        string                         `json:"name"`
	Nodes       []Node                         `json:"nodes"`
	Connections map[string]map[string][][]Edge `json:"connections"`
}

// Node is one unit of work in a workflow.
type Node struct {
	ID          string         `json:"id,omitempty"`
	Name        string         `json:"name"`
	Type        string         `json:"type"`
	TypeVersion float64        `json:"typeVersion,omitempty"`
	Parameters  map[string]any `json:"parameters"`
	Position    []float64      `json:"position"`
}

// Edge points at a destination node input.
type Edge struct {
	Node  string `json:"node"`
	Type  string `json:"type"`
	Index int    `json:"index"`
}

// EdgeCount counts every edge across all sources and channels.
func (g *WorkflowGraph) EdgeCount() int {
	n := 0
	for _, channels := range g.Connections {
		for _, outputs := range channels {
			for _, edges := range outputs {
				n += len(edges)
			}
		}
	}
	return n
}
