// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package prefabdef

import "encoding/json"

// Definition is the authored form of a template.
type Definition struct {
	// Name is the template name. Required.
	Name string `json:"name"`

	// Description is free text shown by tooling.
	Description string `json:"description,omitempty"`

	// Archetypes in template order.
	Archetypes []ArchetypeDefinition `json:"archetypes"`

	// Sequence is the optional embedded script.
	Sequence *SequenceDefinition `json:"sequence,omitempty"`
}

// ArchetypeDefinition is one template member.
type ArchetypeDefinition struct {
	Name  string `json:"name"`
	Class string `json:"class"`

	// Location and Rotation place actor archetypes relative to the
	// prefab origin. Rotation is in fixed-point units, 65536 per turn.
	Location *[3]float64 `json:"location,omitempty"`
	Rotation *[3]int32   `json:"rotation,omitempty"`

	Properties map[string]json.RawMessage `json:"properties,omitempty"`
	Components []ComponentDefinition      `json:"components,omitempty"`
}

// ComponentDefinition is a component of an archetype. Other values
// refer to it as "<archetype>.<component>".
type ComponentDefinition struct {
	Name       string                     `json:"name"`
	Class      string                     `json:"class"`
	Properties map[string]json.RawMessage `json:"properties,omitempty"`
}

// SequenceDefinition is the root script sequence. Its name defaults to
// the template name.
type SequenceDefinition struct {
	Name      string              `json:"name,omitempty"`
	Inputs    []string            `json:"inputs,omitempty"`
	Outputs   []string            `json:"outputs,omitempty"`
	Variables []string            `json:"variables,omitempty"`
	Nodes     []NodeDefinition    `json:"nodes,omitempty"`
	Links     []LinkDefinition    `json:"links,omitempty"`
	Bindings  []BindingDefinition `json:"bindings,omitempty"`
}

// NodeDefinition is one script node. ID is local to the definition and
// only used by links and bindings.
type NodeDefinition struct {
	ID        string   `json:"id"`
	Kind      string   `json:"kind"`
	Class     string   `json:"class"`
	Name      string   `json:"name,omitempty"`
	X         int      `json:"x,omitempty"`
	Y         int      `json:"y,omitempty"`
	Inputs    []string `json:"inputs,omitempty"`
	Outputs   []string `json:"outputs,omitempty"`
	Variables []string `json:"variables,omitempty"`

	// Originator names the archetype an event fires for.
	Originator string `json:"originator,omitempty"`

	// Value names the archetype an object variable holds.
	Value string `json:"value,omitempty"`
}

// LinkDefinition connects output From.Output to input To.Input.
type LinkDefinition struct {
	From   string `json:"from"`
	Output string `json:"output"`
	To     string `json:"to"`
	Input  string `json:"input"`
}

// BindingDefinition connects variable connector Node.Variable to the
// variable node To.
type BindingDefinition struct {
	Node     string `json:"node"`
	Variable string `json:"variable"`
	To       string `json:"to"`
}
