// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sequence

import (
	"fmt"

	"github.com/bureau-foundation/prefab/lib/object"
)

// Kind is the role of a node in the graph.
type Kind uint8

const (
	KindAction Kind = iota
	KindEvent
	KindVariable
	KindSequence
)

var kindNames = [...]string{
	KindAction:   "action",
	KindEvent:    "event",
	KindVariable: "variable",
	KindSequence: "sequence",
}

func (kind Kind) String() string {
	if int(kind) < len(kindNames) {
		return kindNames[kind]
	}
	return fmt.Sprintf("unknown(%d)", kind)
}

// ParseKind is the inverse of Kind.String.
func ParseKind(name string) (Kind, error) {
	for kind, kindName := range kindNames {
		if kindName == name {
			return Kind(kind), nil
		}
	}
	return KindAction, fmt.Errorf("unknown node kind %q", name)
}

// Link connects an output to input InputIndex of Target.
type Link struct {
	Target     *Node
	InputIndex int
}

// Input is an input connector.
type Input struct {
	Label string
}

// Output is an output connector and its links.
type Output struct {
	Label string
	Links []Link
}

// VariableLink is a variable connector and the variable nodes bound to
// it.
type VariableLink struct {
	Label  string
	Linked []*Node
}

// Node is one object in a script graph.
type Node struct {
	ID          object.ID
	Name        string
	Class       string
	Kind        Kind
	DefaultName string

	// X and Y are the editor position.
	X, Y int

	Inputs    []Input
	Outputs   []Output
	Variables []VariableLink

	// Originator is the object an event fires for. Value is the object
	// an object variable holds. Both are rewritten along with object
	// references.
	Originator *object.Object
	Value      *object.Object

	// Children holds the nodes of a sequence.
	Children []*Node

	// Deletable is false for sequences the host manages itself.
	Deletable bool

	parent *Node
}

// NewSequence returns an empty, deletable sequence node.
func NewSequence(name string) *Node {
	return &Node{
		ID:          object.NewID(),
		Name:        name,
		Class:       "Sequence",
		Kind:        KindSequence,
		DefaultName: "Sequence",
		Deletable:   true,
	}
}

// NewNode returns a deletable node with the given connector labels.
func NewNode(kind Kind, class, name string, inputs, outputs []string) *Node {
	node := &Node{
		ID:          object.NewID(),
		Name:        name,
		Class:       class,
		Kind:        kind,
		DefaultName: name,
		Deletable:   true,
	}
	for _, label := range inputs {
		node.Inputs = append(node.Inputs, Input{Label: label})
	}
	for _, label := range outputs {
		node.Outputs = append(node.Outputs, Output{Label: label})
	}
	return node
}

// Parent returns the sequence containing node, or nil for a root.
func (node *Node) Parent() *Node { return node.parent }

// Root returns the outermost sequence containing node.
func (node *Node) Root() *Node {
	root := node
	for root.parent != nil {
		root = root.parent
	}
	return root
}

// Contains reports whether other is node or one of its descendants.
func (node *Node) Contains(other *Node) bool {
	for current := other; current != nil; current = current.parent {
		if current == node {
			return true
		}
	}
	return false
}

// AddObject appends child to a sequence.
func (node *Node) AddObject(child *Node) error {
	if node.Kind != KindSequence {
		return fmt.Errorf("sequence: %s is a %s, not a sequence", node.Name, node.Kind)
	}
	if child.parent != nil {
		return fmt.Errorf("sequence: %s already belongs to %s", child.Name, child.parent.Name)
	}
	if child.Contains(node) {
		return fmt.Errorf("sequence: adding %s to %s would create a cycle", child.Name, node.Name)
	}
	child.parent = node
	node.Children = append(node.Children, child)
	return nil
}

// RemoveObject detaches child from node and removes every link and
// variable binding elsewhere in the graph that pointed into child's
// subtree. It reports whether child was a direct child of node.
func (node *Node) RemoveObject(child *Node) bool {
	for i, candidate := range node.Children {
		if candidate != child {
			continue
		}
		node.Children = append(node.Children[:i:i], node.Children[i+1:]...)
		child.parent = nil
		node.Root().Walk(func(other *Node) bool {
			other.dropLinksInto(child)
			return true
		})
		return true
	}
	return false
}

func (node *Node) dropLinksInto(subtree *Node) {
	node.filterLinks(func(target *Node) bool { return !subtree.Contains(target) })
}

// filterLinks keeps only links and variable bindings whose target
// passes keep.
func (node *Node) filterLinks(keep func(*Node) bool) int {
	removed := 0
	for i := range node.Outputs {
		links := node.Outputs[i].Links[:0]
		for _, link := range node.Outputs[i].Links {
			if keep(link.Target) {
				links = append(links, link)
			} else {
				removed++
			}
		}
		node.Outputs[i].Links = links
	}
	for i := range node.Variables {
		linked := node.Variables[i].Linked[:0]
		for _, target := range node.Variables[i].Linked {
			if keep(target) {
				linked = append(linked, target)
			} else {
				removed++
			}
		}
		node.Variables[i].Linked = linked
	}
	return removed
}

// Walk visits node and then its descendants depth-first. Returning
// false from visit skips the children of that node.
func (node *Node) Walk(visit func(*Node) bool) {
	if !visit(node) {
		return
	}
	for _, child := range node.Children {
		child.Walk(visit)
	}
}

// Count returns the number of nodes in node's subtree, node included.
func (node *Node) Count() int {
	count := 0
	node.Walk(func(*Node) bool {
		count++
		return true
	})
	return count
}

// AddLink links output outputIndex of node to input inputIndex of
// target. It reports false, without adding anything, when the link
// already exists or either index is out of range.
func (node *Node) AddLink(outputIndex int, target *Node, inputIndex int) bool {
	if outputIndex < 0 || outputIndex >= len(node.Outputs) {
		return false
	}
	if inputIndex < 0 || inputIndex >= len(target.Inputs) {
		return false
	}
	link := Link{Target: target, InputIndex: inputIndex}
	for _, existing := range node.Outputs[outputIndex].Links {
		if existing == link {
			return false
		}
	}
	node.Outputs[outputIndex].Links = append(node.Outputs[outputIndex].Links, link)
	return true
}

// BindVariable links variable connector index of node to variable. It
// reports false when the binding already exists or index is out of
// range.
func (node *Node) BindVariable(index int, variable *Node) bool {
	if index < 0 || index >= len(node.Variables) {
		return false
	}
	for _, existing := range node.Variables[index].Linked {
		if existing == variable {
			return false
		}
	}
	node.Variables[index].Linked = append(node.Variables[index].Linked, variable)
	return true
}

// InputsLabeled returns the indices of the inputs carrying label.
func (node *Node) InputsLabeled(label string) []int {
	var indices []int
	for i, input := range node.Inputs {
		if input.Label == label {
			indices = append(indices, i)
		}
	}
	return indices
}

// OutputsLabeled returns the indices of the outputs carrying label.
func (node *Node) OutputsLabeled(label string) []int {
	var indices []int
	for i, output := range node.Outputs {
		if output.Label == label {
			indices = append(indices, i)
		}
	}
	return indices
}

// VariablesLabeled returns the indices of the variable connectors
// carrying label.
func (node *Node) VariablesLabeled(label string) []int {
	var indices []int
	for i, variable := range node.Variables {
		if variable.Label == label {
			indices = append(indices, i)
		}
	}
	return indices
}

// Clone deep-copies node's subtree with fresh IDs. Links between nodes
// of the subtree are redirected to the copies; links leaving the
// subtree keep their original targets. Object references are shared.
func (node *Node) Clone() *Node {
	copies := make(map[*Node]*Node)
	clone := node.cloneTree(copies)
	for original, copied := range copies {
		copied.Outputs = make([]Output, len(original.Outputs))
		for i, output := range original.Outputs {
			copied.Outputs[i] = Output{Label: output.Label}
			for _, link := range output.Links {
				if target, ok := copies[link.Target]; ok {
					link.Target = target
				}
				copied.Outputs[i].Links = append(copied.Outputs[i].Links, link)
			}
		}
		copied.Variables = make([]VariableLink, len(original.Variables))
		for i, variable := range original.Variables {
			copied.Variables[i] = VariableLink{Label: variable.Label}
			for _, target := range variable.Linked {
				if mapped, ok := copies[target]; ok {
					target = mapped
				}
				copied.Variables[i].Linked = append(copied.Variables[i].Linked, target)
			}
		}
	}
	return clone
}

func (node *Node) cloneTree(copies map[*Node]*Node) *Node {
	clone := &Node{
		ID:          object.NewID(),
		Name:        node.Name,
		Class:       node.Class,
		Kind:        node.Kind,
		DefaultName: node.DefaultName,
		X:           node.X,
		Y:           node.Y,
		Inputs:      append([]Input(nil), node.Inputs...),
		Originator:  node.Originator,
		Value:       node.Value,
		Deletable:   node.Deletable,
	}
	copies[node] = clone
	for _, child := range node.Children {
		childClone := child.cloneTree(copies)
		childClone.parent = clone
		clone.Children = append(clone.Children, childClone)
	}
	return clone
}

// CleanupConnections removes every link and variable binding in node's
// subtree whose target lies outside the subtree. It returns the number
// removed.
func (node *Node) CleanupConnections() int {
	removed := 0
	node.Walk(func(member *Node) bool {
		removed += member.filterLinks(node.Contains)
		return true
	})
	return removed
}

// CheckParentPointers verifies that every child's parent pointer names
// the sequence holding it.
func (node *Node) CheckParentPointers() error {
	var failure error
	node.Walk(func(member *Node) bool {
		for _, child := range member.Children {
			if child.parent != member {
				failure = fmt.Errorf("sequence: %s is held by %s but its parent is %v", child.Name, member.Name, child.parent)
				return false
			}
		}
		return failure == nil
	})
	return failure
}

// RewriteReferences passes every object reference held in node's
// subtree through replace. It returns the number of slots changed.
func (node *Node) RewriteReferences(replace func(*object.Object) *object.Object) int {
	changed := 0
	node.Walk(func(member *Node) bool {
		if member.Originator != nil {
			if replacement := replace(member.Originator); replacement != member.Originator {
				member.Originator = replacement
				changed++
			}
		}
		if member.Value != nil {
			if replacement := replace(member.Value); replacement != member.Value {
				member.Value = replacement
				changed++
			}
		}
		return true
	})
	return changed
}

// RenameEvents names every event node with an originator after it:
// "<originator name> <default name>".
func (node *Node) RenameEvents() {
	node.Walk(func(member *Node) bool {
		if member.Kind == KindEvent && member.Originator != nil {
			member.Name = member.Originator.Name() + " " + member.DefaultName
		}
		return true
	})
}

func (node *Node) String() string {
	if node == nil {
		return "<nil>"
	}
	return node.Name
}
