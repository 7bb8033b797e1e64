package config

import (
	"fmt"
	"os"

	"depgraph/graph"

	"gopkg.in/yaml.v3"
)

// GraphFile is the YAML layout of a dependency graph. Probabilities left out
// keep the node and edge defaults.
type GraphFile struct {
	Nodes []NodeSpec `yaml:"nodes" validate:"required,min=1,dive"`
	Edges []EdgeSpec `yaml:"edges" validate:"omitempty,dive"`
}

type NodeSpec struct {
	ID              int      `yaml:"id" validate:"min=1"`
	Type            string   `yaml:"type" validate:"oneof=target nonTarget"`
	Activation      string   `yaml:"activation" validate:"oneof=and or"`
	AReward         float64  `yaml:"aReward"`
	DPenalty        float64  `yaml:"dPenalty"`
	ACost           float64  `yaml:"aCost"`
	DCost           float64  `yaml:"dCost"`
	ActProb         *float64 `yaml:"actProb" validate:"omitempty,gte=0,lte=1"`
	PosActiveProb   *float64 `yaml:"posActiveProb" validate:"omitempty,gte=0,lte=1"`
	PosInactiveProb *float64 `yaml:"posInactiveProb" validate:"omitempty,gte=0,lte=1"`
}

type EdgeSpec struct {
	ID      int      `yaml:"id" validate:"min=1"`
	Source  int      `yaml:"source" validate:"min=1"`
	Target  int      `yaml:"target" validate:"min=1"`
	ACost   float64  `yaml:"aCost"`
	ActProb *float64 `yaml:"actProb" validate:"omitempty,gte=0,lte=1"`
}

// LoadGraph reads and builds a graph file.
func LoadGraph(path string) (*graph.DependencyGraph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read graph: %w", err)
	}
	g, err := ParseGraph(data)
	if err != nil {
		return nil, fmt.Errorf("graph %s: %w", path, err)
	}
	return g, nil
}

func ParseGraph(data []byte) (*graph.DependencyGraph, error) {
	var file GraphFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse graph: %w", err)
	}
	if err := validate.Struct(file); err != nil {
		return nil, formatValidationError(err)
	}
	return file.Build()
}

func (f GraphFile) Build() (*graph.DependencyGraph, error) {
	b := graph.New()
	for _, spec := range f.Nodes {
		nodeType := graph.NonTarget
		if spec.Type == "target" {
			nodeType = graph.Target
		}
		activation := graph.AND
		if spec.Activation == "or" {
			activation = graph.OR
		}
		n := graph.NewNode(spec.ID, nodeType, activation)
		n.AReward = spec.AReward
		n.DPenalty = spec.DPenalty
		n.ACost = spec.ACost
		n.DCost = spec.DCost
		setIf(&n.ActProb, spec.ActProb)
		setIf(&n.PosActiveProb, spec.PosActiveProb)
		setIf(&n.PosInactiveProb, spec.PosInactiveProb)
		if err := b.AddNode(n); err != nil {
			return nil, err
		}
	}
	for _, spec := range f.Edges {
		e := graph.NewEdge(spec.ID, spec.Source, spec.Target)
		e.ACost = spec.ACost
		setIf(&e.ActProb, spec.ActProb)
		if err := b.AddEdge(e); err != nil {
			return nil, err
		}
	}
	return b.Build()
}

func setIf(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}
