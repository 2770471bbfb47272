// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package prefabdef

import (
	"encoding/json"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/bureau-foundation/prefab/lib/object"
	"github.com/bureau-foundation/prefab/lib/sequence"
)

// Validate checks a Definition for structural issues against the
// classes in registry. Returns a list of human-readable issue
// descriptions. An empty list means the definition builds.
//
// Structural checks include:
//   - Name is required and at least one archetype is required
//   - Archetype names are non-empty, unique, and contain no "."
//   - Classes exist; components must be data classes
//   - Location and Rotation are only valid on actor archetypes
//   - Property values parse and their refs name existing objects
//   - Script node IDs are unique, kinds are known, and originators
//     and values name archetypes
//   - Link and binding endpoints exist and each label matches exactly
//     one connector
func Validate(definition *Definition, registry *object.Registry) []string {
	var issues []string

	if definition.Name == "" {
		issues = append(issues, "name is required")
	}
	if len(definition.Archetypes) == 0 {
		issues = append(issues, "template has no archetypes (at least one is required)")
	}

	names := make(map[string]int, len(definition.Archetypes))
	for index, archetype := range definition.Archetypes {
		if archetype.Name == "" {
			continue
		}
		if firstIndex, exists := names[archetype.Name]; exists {
			issues = append(issues, fmt.Sprintf(
				"archetypes[%d] %q: duplicate archetype name (first used at archetypes[%d])",
				index, archetype.Name, firstIndex,
			))
			continue
		}
		names[archetype.Name] = index
	}
	exists := existenceResolver(definition)

	for index, archetype := range definition.Archetypes {
		prefix := fmt.Sprintf("archetypes[%d]", index)
		issues = append(issues, validateArchetype(archetype, prefix, registry, exists)...)
	}

	if definition.Sequence != nil {
		issues = append(issues, validateSequence(definition.Sequence, names)...)
	}

	return issues
}

// existenceResolver reports whether a ref target names an archetype or
// one of its components.
func existenceResolver(definition *Definition) resolver {
	targets := make(map[string]bool)
	for _, archetype := range definition.Archetypes {
		targets[archetype.Name] = true
		for _, component := range archetype.Components {
			targets[archetype.Name+"."+component.Name] = true
		}
	}
	return func(name string) (*object.Object, bool) {
		return nil, targets[name]
	}
}

func validateArchetype(archetype ArchetypeDefinition, prefix string, registry *object.Registry, exists resolver) []string {
	var issues []string

	if archetype.Name == "" {
		issues = append(issues, fmt.Sprintf("%s: name is required", prefix))
	} else {
		if strings.Contains(archetype.Name, ".") {
			issues = append(issues, fmt.Sprintf("%s %q: name must not contain \".\"", prefix, archetype.Name))
		}
		prefix = fmt.Sprintf("%s %q", prefix, archetype.Name)
	}

	class, known := lookupClass(archetype.Class, registry)
	switch {
	case archetype.Class == "":
		issues = append(issues, fmt.Sprintf("%s: class is required", prefix))
	case !known:
		issues = append(issues, fmt.Sprintf("%s: unknown class %q", prefix, archetype.Class))
	case class.Kind() != object.KindActor && (archetype.Location != nil || archetype.Rotation != nil):
		issues = append(issues, fmt.Sprintf("%s: location and rotation are only valid on actor classes, %s is %s", prefix, class.Name(), class.Kind()))
	}

	issues = append(issues, validateProperties(archetype.Properties, prefix, exists)...)

	components := make(map[string]bool, len(archetype.Components))
	for index, component := range archetype.Components {
		componentPrefix := fmt.Sprintf("%s components[%d]", prefix, index)
		switch {
		case component.Name == "":
			issues = append(issues, fmt.Sprintf("%s: name is required", componentPrefix))
		case components[component.Name]:
			issues = append(issues, fmt.Sprintf("%s %q: duplicate component name", componentPrefix, component.Name))
		}
		components[component.Name] = true

		componentClass, known := lookupClass(component.Class, registry)
		switch {
		case component.Class == "":
			issues = append(issues, fmt.Sprintf("%s: class is required", componentPrefix))
		case !known:
			issues = append(issues, fmt.Sprintf("%s: unknown class %q", componentPrefix, component.Class))
		case componentClass.Kind() != object.KindData:
			issues = append(issues, fmt.Sprintf("%s: component class %s must be a data class", componentPrefix, componentClass.Name()))
		}
		issues = append(issues, validateProperties(component.Properties, componentPrefix, exists)...)
	}

	return issues
}

func lookupClass(name string, registry *object.Registry) (*object.Class, bool) {
	if name == "" {
		return nil, false
	}
	return registry.Lookup(name)
}

// validateProperties reports values that fail to parse, in property
// name order so the output is stable.
func validateProperties(properties map[string]json.RawMessage, prefix string, exists resolver) []string {
	var issues []string
	names := make([]string, 0, len(properties))
	for name := range properties {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, err := decodeValue(properties[name], exists); err != nil {
			issues = append(issues, fmt.Sprintf("%s property %q: %v", prefix, name, err))
		}
	}
	return issues
}

func validateSequence(definition *SequenceDefinition, archetypes map[string]int) []string {
	var issues []string

	nodes := make(map[string]NodeDefinition, len(definition.Nodes))
	for index, node := range definition.Nodes {
		prefix := fmt.Sprintf("sequence.nodes[%d]", index)
		if node.ID == "" {
			issues = append(issues, fmt.Sprintf("%s: id is required", prefix))
		} else {
			if _, duplicate := nodes[node.ID]; duplicate {
				issues = append(issues, fmt.Sprintf("%s %q: duplicate node id", prefix, node.ID))
			} else {
				nodes[node.ID] = node
			}
			prefix = fmt.Sprintf("%s %q", prefix, node.ID)
		}

		kind, err := sequence.ParseKind(node.Kind)
		if err != nil {
			issues = append(issues, fmt.Sprintf("%s: %v", prefix, err))
		}
		if node.Class == "" {
			issues = append(issues, fmt.Sprintf("%s: class is required", prefix))
		}
		if node.Originator != "" {
			if err == nil && kind != sequence.KindEvent {
				issues = append(issues, fmt.Sprintf("%s: originator is only valid on event nodes", prefix))
			}
			if _, ok := archetypes[node.Originator]; !ok {
				issues = append(issues, fmt.Sprintf("%s: originator %q is not an archetype", prefix, node.Originator))
			}
		}
		if node.Value != "" {
			if err == nil && kind != sequence.KindVariable {
				issues = append(issues, fmt.Sprintf("%s: value is only valid on variable nodes", prefix))
			}
			if _, ok := archetypes[node.Value]; !ok {
				issues = append(issues, fmt.Sprintf("%s: value %q is not an archetype", prefix, node.Value))
			}
		}
	}

	for index, link := range definition.Links {
		prefix := fmt.Sprintf("sequence.links[%d]", index)
		from, fromOK := nodes[link.From]
		to, toOK := nodes[link.To]
		if !fromOK {
			issues = append(issues, fmt.Sprintf("%s: unknown source node %q", prefix, link.From))
		} else if issue := matchLabel(from.Outputs, link.Output, "output", link.From); issue != "" {
			issues = append(issues, prefix+": "+issue)
		}
		if !toOK {
			issues = append(issues, fmt.Sprintf("%s: unknown target node %q", prefix, link.To))
		} else if issue := matchLabel(to.Inputs, link.Input, "input", link.To); issue != "" {
			issues = append(issues, prefix+": "+issue)
		}
	}

	for index, binding := range definition.Bindings {
		prefix := fmt.Sprintf("sequence.bindings[%d]", index)
		node, nodeOK := nodes[binding.Node]
		target, targetOK := nodes[binding.To]
		if !nodeOK {
			issues = append(issues, fmt.Sprintf("%s: unknown node %q", prefix, binding.Node))
		} else if issue := matchLabel(node.Variables, binding.Variable, "variable", binding.Node); issue != "" {
			issues = append(issues, prefix+": "+issue)
		}
		if !targetOK {
			issues = append(issues, fmt.Sprintf("%s: unknown variable node %q", prefix, binding.To))
		} else if target.Kind != sequence.KindVariable.String() {
			issues = append(issues, fmt.Sprintf("%s: %q is a %s node, not a variable", prefix, binding.To, target.Kind))
		}
	}

	return issues
}

// matchLabel returns an issue unless label appears exactly once in
// labels.
func matchLabel(labels []string, label, connector, node string) string {
	switch count := countLabel(labels, label); count {
	case 1:
		return ""
	case 0:
		return fmt.Sprintf("node %q has no %s %q (has %s)", node, connector, label, strings.Join(labels, ", "))
	default:
		return fmt.Sprintf("node %q has %d %ss labeled %q", node, count, connector, label)
	}
}

func countLabel(labels []string, label string) int {
	count := 0
	for _, candidate := range labels {
		if candidate == label {
			count++
		}
	}
	return count
}

// connectorIndex returns the position of label in labels.
func connectorIndex(labels []string, label string) int {
	return slices.Index(labels, label)
}
