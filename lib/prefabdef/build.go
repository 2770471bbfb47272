// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package prefabdef

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bureau-foundation/prefab/lib/object"
	"github.com/bureau-foundation/prefab/lib/prefab"
	"github.com/bureau-foundation/prefab/lib/sequence"
	"github.com/bureau-foundation/prefab/lib/transform"
)

// ValidationError lists the issues that kept a definition from
// building.
type ValidationError struct {
	Name   string
	Issues []string
}

func (err *ValidationError) Error() string {
	return fmt.Sprintf("template definition %q has %d issue(s): %s", err.Name, len(err.Issues), strings.Join(err.Issues, "; "))
}

// Build validates definition and constructs the template it describes.
// Archetypes are created in order with fresh IDs; refs between them
// point at the new archetype objects.
func Build(definition *Definition, registry *object.Registry) (*prefab.Template, error) {
	if issues := Validate(definition, registry); len(issues) > 0 {
		return nil, &ValidationError{Name: definition.Name, Issues: issues}
	}

	objects := make(map[string]*object.Object)
	archetypes := make([]*object.Object, len(definition.Archetypes))
	for index, archetypeDefinition := range definition.Archetypes {
		class, _ := registry.Lookup(archetypeDefinition.Class)
		archetype := object.New(class, archetypeDefinition.Name, nil)
		if class.Kind() == object.KindActor {
			archetype.SetTransform(placement(archetypeDefinition))
		}
		for _, componentDefinition := range archetypeDefinition.Components {
			componentClass, _ := registry.Lookup(componentDefinition.Class)
			component := object.New(componentClass, componentDefinition.Name, nil)
			archetype.AddComponent(component)
			objects[archetypeDefinition.Name+"."+componentDefinition.Name] = component
		}
		objects[archetypeDefinition.Name] = archetype
		archetypes[index] = archetype
	}

	resolve := func(name string) (*object.Object, bool) {
		found, ok := objects[name]
		return found, ok
	}
	for index, archetypeDefinition := range definition.Archetypes {
		archetype := archetypes[index]
		if err := setProperties(archetype, archetypeDefinition.Properties, resolve); err != nil {
			return nil, fmt.Errorf("prefabdef: %s: %w", archetype.Name(), err)
		}
		for componentIndex, componentDefinition := range archetypeDefinition.Components {
			if err := setProperties(archetype.Component(componentIndex), componentDefinition.Properties, resolve); err != nil {
				return nil, fmt.Errorf("prefabdef: %s.%s: %w", archetype.Name(), componentDefinition.Name, err)
			}
		}
	}

	template := prefab.NewTemplate(definition.Name)
	for _, archetype := range archetypes {
		if err := template.AddArchetype(archetype); err != nil {
			return nil, fmt.Errorf("prefabdef: %w", err)
		}
	}
	if definition.Sequence != nil {
		script, err := buildSequence(definition.Sequence, definition.Name, objects)
		if err != nil {
			return nil, fmt.Errorf("prefabdef: %s sequence: %w", definition.Name, err)
		}
		template.SetSequence(script)
	}
	return template, nil
}

func placement(definition ArchetypeDefinition) transform.Transform {
	var result transform.Transform
	if location := definition.Location; location != nil {
		result.Location = transform.Vector{X: location[0], Y: location[1], Z: location[2]}
	}
	if rotation := definition.Rotation; rotation != nil {
		result.Rotation = transform.Rotator{Pitch: rotation[0], Yaw: rotation[1], Roll: rotation[2]}
	}
	return result
}

func setProperties(target *object.Object, properties map[string]json.RawMessage, resolve resolver) error {
	for name, raw := range properties {
		value, err := decodeValue(raw, resolve)
		if err != nil {
			return fmt.Errorf("property %q: %w", name, err)
		}
		target.SetProperty(name, value)
	}
	return nil
}

func buildSequence(definition *SequenceDefinition, templateName string, objects map[string]*object.Object) (*sequence.Node, error) {
	name := definition.Name
	if name == "" {
		name = templateName
	}
	root := sequence.NewSequence(name)
	for _, label := range definition.Inputs {
		root.Inputs = append(root.Inputs, sequence.Input{Label: label})
	}
	for _, label := range definition.Outputs {
		root.Outputs = append(root.Outputs, sequence.Output{Label: label})
	}
	for _, label := range definition.Variables {
		root.Variables = append(root.Variables, sequence.VariableLink{Label: label})
	}

	nodes := make(map[string]*sequence.Node, len(definition.Nodes))
	labels := make(map[string]NodeDefinition, len(definition.Nodes))
	for _, nodeDefinition := range definition.Nodes {
		kind, _ := sequence.ParseKind(nodeDefinition.Kind)
		nodeName := nodeDefinition.Name
		if nodeName == "" {
			nodeName = nodeDefinition.ID
		}
		node := sequence.NewNode(kind, nodeDefinition.Class, nodeName, nodeDefinition.Inputs, nodeDefinition.Outputs)
		for _, label := range nodeDefinition.Variables {
			node.Variables = append(node.Variables, sequence.VariableLink{Label: label})
		}
		node.X, node.Y = nodeDefinition.X, nodeDefinition.Y
		if nodeDefinition.Originator != "" {
			node.Originator = objects[nodeDefinition.Originator]
		}
		if nodeDefinition.Value != "" {
			node.Value = objects[nodeDefinition.Value]
		}
		if err := root.AddObject(node); err != nil {
			return nil, err
		}
		nodes[nodeDefinition.ID] = node
		labels[nodeDefinition.ID] = nodeDefinition
	}

	for _, link := range definition.Links {
		output := connectorIndex(labels[link.From].Outputs, link.Output)
		input := connectorIndex(labels[link.To].Inputs, link.Input)
		nodes[link.From].AddLink(output, nodes[link.To], input)
	}
	for _, binding := range definition.Bindings {
		variable := connectorIndex(labels[binding.Node].Variables, binding.Variable)
		nodes[binding.Node].BindVariable(variable, nodes[binding.To])
	}
	return root, nil
}
