// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sequence

import (
	"fmt"

	"github.com/bureau-foundation/prefab/lib/object"
)

// Document is the serialized form of a node subtree. Links are stored
// as node IDs and only links between nodes of the same subtree are
// kept.
type Document struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Class       string             `json:"class"`
	Kind        string             `json:"kind"`
	DefaultName string             `json:"default_name,omitempty"`
	X           int                `json:"x,omitempty"`
	Y           int                `json:"y,omitempty"`
	Inputs      []string           `json:"inputs,omitempty"`
	Outputs     []OutputDocument   `json:"outputs,omitempty"`
	Variables   []VariableDocument `json:"variables,omitempty"`
	Originator  string             `json:"originator,omitempty"`
	Value       string             `json:"value,omitempty"`
	Deletable   bool               `json:"deletable,omitempty"`
	Children    []Document         `json:"children,omitempty"`
}

// OutputDocument is a serialized output connector.
type OutputDocument struct {
	Label string         `json:"label"`
	Links []LinkDocument `json:"links,omitempty"`
}

// LinkDocument is a serialized link.
type LinkDocument struct {
	Target string `json:"target"`
	Input  int    `json:"input"`
}

// VariableDocument is a serialized variable connector.
type VariableDocument struct {
	Label  string   `json:"label"`
	Linked []string `json:"linked,omitempty"`
}

// Encode returns the document for node's subtree.
func Encode(node *Node) Document {
	return node.encode(node)
}

func (node *Node) encode(root *Node) Document {
	document := Document{
		ID:          node.ID.String(),
		Name:        node.Name,
		Class:       node.Class,
		Kind:        node.Kind.String(),
		DefaultName: node.DefaultName,
		X:           node.X,
		Y:           node.Y,
		Deletable:   node.Deletable,
	}
	for _, input := range node.Inputs {
		document.Inputs = append(document.Inputs, input.Label)
	}
	for _, output := range node.Outputs {
		outputDocument := OutputDocument{Label: output.Label}
		for _, link := range output.Links {
			if root.Contains(link.Target) {
				outputDocument.Links = append(outputDocument.Links, LinkDocument{Target: link.Target.ID.String(), Input: link.InputIndex})
			}
		}
		document.Outputs = append(document.Outputs, outputDocument)
	}
	for _, variable := range node.Variables {
		variableDocument := VariableDocument{Label: variable.Label}
		for _, target := range variable.Linked {
			if root.Contains(target) {
				variableDocument.Linked = append(variableDocument.Linked, target.ID.String())
			}
		}
		document.Variables = append(document.Variables, variableDocument)
	}
	if node.Originator != nil {
		document.Originator = node.Originator.ID().String()
	}
	if node.Value != nil {
		document.Value = node.Value.ID().String()
	}
	for _, child := range node.Children {
		document.Children = append(document.Children, child.encode(root))
	}
	return document
}

// Decode rebuilds a node subtree. Object references go through
// resolve; references it cannot resolve become nil.
func Decode(document Document, resolve func(object.ID) *object.Object) (*Node, error) {
	nodes := make(map[string]*Node)
	root, err := decodeTree(document, nodes, resolve)
	if err != nil {
		return nil, err
	}
	if err := linkTree(root, document, nodes); err != nil {
		return nil, err
	}
	return root, nil
}

func decodeTree(document Document, nodes map[string]*Node, resolve func(object.ID) *object.Object) (*Node, error) {
	id, err := object.ParseID(document.ID)
	if err != nil {
		return nil, fmt.Errorf("sequence node %q: %w", document.Name, err)
	}
	if _, exists := nodes[document.ID]; exists {
		return nil, fmt.Errorf("sequence node %q: duplicate id %s", document.Name, id)
	}
	kind, err := ParseKind(document.Kind)
	if err != nil {
		return nil, fmt.Errorf("sequence node %q: %w", document.Name, err)
	}
	node := &Node{
		ID:          id,
		Name:        document.Name,
		Class:       document.Class,
		Kind:        kind,
		DefaultName: document.DefaultName,
		X:           document.X,
		Y:           document.Y,
		Deletable:   document.Deletable,
	}
	for _, label := range document.Inputs {
		node.Inputs = append(node.Inputs, Input{Label: label})
	}
	if node.Originator, err = resolveObject(document.Originator, resolve); err != nil {
		return nil, fmt.Errorf("sequence node %q originator: %w", document.Name, err)
	}
	if node.Value, err = resolveObject(document.Value, resolve); err != nil {
		return nil, fmt.Errorf("sequence node %q value: %w", document.Name, err)
	}
	nodes[document.ID] = node
	for _, childDocument := range document.Children {
		child, err := decodeTree(childDocument, nodes, resolve)
		if err != nil {
			return nil, err
		}
		if err := node.AddObject(child); err != nil {
			return nil, err
		}
	}
	return node, nil
}

func linkTree(node *Node, document Document, nodes map[string]*Node) error {
	for _, outputDocument := range document.Outputs {
		output := Output{Label: outputDocument.Label}
		for _, linkDocument := range outputDocument.Links {
			target, ok := nodes[linkDocument.Target]
			if !ok {
				return fmt.Errorf("sequence node %q: link to unknown node %s", document.Name, linkDocument.Target)
			}
			output.Links = append(output.Links, Link{Target: target, InputIndex: linkDocument.Input})
		}
		node.Outputs = append(node.Outputs, output)
	}
	for _, variableDocument := range document.Variables {
		variable := VariableLink{Label: variableDocument.Label}
		for _, targetID := range variableDocument.Linked {
			target, ok := nodes[targetID]
			if !ok {
				return fmt.Errorf("sequence node %q: variable bound to unknown node %s", document.Name, targetID)
			}
			variable.Linked = append(variable.Linked, target)
		}
		node.Variables = append(node.Variables, variable)
	}
	for i, child := range node.Children {
		if err := linkTree(child, document.Children[i], nodes); err != nil {
			return err
		}
	}
	return nil
}

func resolveObject(text string, resolve func(object.ID) *object.Object) (*object.Object, error) {
	if text == "" || resolve == nil {
		return nil, nil
	}
	id, err := object.ParseID(text)
	if err != nil {
		return nil, err
	}
	return resolve(id), nil
}
