// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sequence

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/bureau-foundation/prefab/lib/object"
)

type owner string

func (o owner) OwnerName() string { return string(o) }

var actorClass = object.NewClass("Actor", object.KindActor, nil, nil)

// buildGraph returns a level root holding a trigger event, a door
// sequence with labeled connectors, and a log action fed by the door.
func buildGraph(t *testing.T) (root, trigger, door, logger *Node) {
	t.Helper()
	root = NewSequence("Main_Sequence")
	trigger = NewNode(KindEvent, "Event_Touch", "Touch", nil, []string{"Touched", "UnTouched"})
	door = NewSequence("Door")
	door.Inputs = []Input{{Label: "Open"}, {Label: "Close"}}
	door.Outputs = []Output{{Label: "Opened"}}
	door.Variables = []VariableLink{{Label: "Instigator"}}
	logger = NewNode(KindAction, "Action_Log", "Log", []string{"In"}, []string{"Out"})
	variable := NewNode(KindVariable, "Variable_Object", "Player", nil, nil)

	for _, node := range []*Node{trigger, door, logger, variable} {
		if err := root.AddObject(node); err != nil {
			t.Fatalf("AddObject(%s): %v", node, err)
		}
	}
	inner := NewNode(KindAction, "Action_Toggle", "Toggle", []string{"Toggle"}, []string{"Out"})
	if err := door.AddObject(inner); err != nil {
		t.Fatalf("AddObject(inner): %v", err)
	}

	mustLink(t, trigger, 0, door, 0)
	mustLink(t, trigger, 1, door, 1)
	door.Outputs[0].Links = []Link{{Target: logger, InputIndex: 0}, {Target: inner, InputIndex: 0}}
	door.Variables[0].Linked = []*Node{variable}
	return root, trigger, door, logger
}

func mustLink(t *testing.T, source *Node, output int, target *Node, input int) {
	t.Helper()
	if !source.AddLink(output, target, input) {
		t.Fatalf("AddLink(%s[%d] -> %s[%d]) failed", source, output, target, input)
	}
}

func TestAddLinkDeduplicates(t *testing.T) {
	source := NewNode(KindAction, "A", "A", nil, []string{"Out"})
	target := NewNode(KindAction, "B", "B", []string{"In"}, nil)
	if !source.AddLink(0, target, 0) {
		t.Fatal("first AddLink should succeed")
	}
	if source.AddLink(0, target, 0) {
		t.Error("duplicate AddLink should be refused")
	}
	if source.AddLink(1, target, 0) || source.AddLink(0, target, 3) {
		t.Error("out-of-range AddLink should be refused")
	}
	if got := len(source.Outputs[0].Links); got != 1 {
		t.Errorf("got %d links, want 1", got)
	}
}

func TestAddObjectRejectsCycles(t *testing.T) {
	outer := NewSequence("Outer")
	inner := NewSequence("Inner")
	if err := outer.AddObject(inner); err != nil {
		t.Fatalf("AddObject: %v", err)
	}
	if err := inner.AddObject(outer); err == nil {
		t.Error("adding an ancestor should fail")
	}
	action := NewNode(KindAction, "A", "A", nil, nil)
	if err := action.AddObject(NewSequence("X")); err == nil {
		t.Error("adding to a non-sequence should fail")
	}
}

func TestRemoveObjectDropsLinksIntoSubtree(t *testing.T) {
	root, trigger, door, logger := buildGraph(t)
	relay := NewNode(KindAction, "Action_Relay", "Relay", nil, []string{"Out"})
	if err := root.AddObject(relay); err != nil {
		t.Fatalf("AddObject: %v", err)
	}
	mustLink(t, relay, 0, door.Children[0], 0)

	if !root.RemoveObject(door) {
		t.Fatal("RemoveObject should find the door")
	}
	if door.Parent() != nil {
		t.Error("removed node keeps a parent")
	}
	for _, output := range trigger.Outputs {
		if len(output.Links) != 0 {
			t.Errorf("trigger output %q still links: %v", output.Label, output.Links)
		}
	}
	if len(relay.Outputs[0].Links) != 0 {
		t.Error("link into the removed subtree survived")
	}
	if root.Count() != 5 {
		t.Errorf("root holds %d nodes, want 5", root.Count())
	}
	if root.RemoveObject(logger.Parent()) {
		t.Error("removing a non-child should report false")
	}
}

func TestCloneRedirectsInternalLinks(t *testing.T) {
	_, _, door, logger := buildGraph(t)
	inner := door.Children[0]

	clone := door.Clone()
	if clone.ID == door.ID || clone.Parent() != nil {
		t.Fatal("clone should be a fresh root")
	}
	if err := clone.CheckParentPointers(); err != nil {
		t.Fatalf("CheckParentPointers: %v", err)
	}
	clonedInner := clone.Children[0]
	if clonedInner == inner {
		t.Fatal("children should be copied")
	}
	links := clone.Outputs[0].Links
	if len(links) != 2 {
		t.Fatalf("got %d links, want 2", len(links))
	}
	if links[0].Target != logger {
		t.Errorf("external link target = %s, want the original logger", links[0].Target)
	}
	if links[1].Target != clonedInner {
		t.Errorf("internal link target = %s, want the cloned child", links[1].Target)
	}

	clone.Outputs[0].Links[0].InputIndex = 9
	if door.Outputs[0].Links[0].InputIndex != 0 {
		t.Error("editing the clone changed the original")
	}
}

func TestCleanupConnections(t *testing.T) {
	_, _, door, _ := buildGraph(t)
	clone := door.Clone()

	removed := clone.CleanupConnections()
	if removed != 2 {
		t.Errorf("removed = %d, want 2 (logger link and variable)", removed)
	}
	if len(clone.Outputs[0].Links) != 1 || clone.Outputs[0].Links[0].Target != clone.Children[0] {
		t.Errorf("internal link lost: %v", clone.Outputs[0].Links)
	}
	if len(clone.Variables[0].Linked) != 0 {
		t.Error("external variable binding survived")
	}
}

func TestCaptureAndRestoreByLabel(t *testing.T) {
	root, trigger, door, logger := buildGraph(t)
	connections := Capture(door)

	wantIncoming := []IncomingLink{
		{Source: trigger, OutputIndex: 0, InputLabel: "Open"},
		{Source: trigger, OutputIndex: 1, InputLabel: "Close"},
	}
	if diff := cmp.Diff(wantIncoming, connections.Incoming, cmp.Comparer(func(a, b *Node) bool { return a == b })); diff != "" {
		t.Errorf("Incoming mismatch (-want +got):\n%s", diff)
	}
	if len(connections.Outputs) != 1 || len(connections.Outputs[0].Links) != 1 {
		t.Fatalf("Outputs = %+v, want only the external logger link", connections.Outputs)
	}

	root.RemoveObject(door)

	// The new version reorders the inputs and adds one.
	replacement := NewSequence("Door")
	replacement.Inputs = []Input{{Label: "Lock"}, {Label: "Close"}, {Label: "Open"}}
	replacement.Outputs = []Output{{Label: "Opened"}}
	replacement.Variables = []VariableLink{{Label: "Instigator"}}
	if err := root.AddObject(replacement); err != nil {
		t.Fatalf("AddObject: %v", err)
	}

	result := connections.Restore(replacement)
	if len(result.Unresolved) != 0 {
		t.Errorf("unexpected unresolved links: %v", result.Unresolved)
	}
	if result.Restored != 4 {
		t.Errorf("Restored = %d, want 4", result.Restored)
	}
	if got := trigger.Outputs[0].Links; len(got) != 1 || got[0] != (Link{Target: replacement, InputIndex: 2}) {
		t.Errorf("Touched links = %v, want Open at index 2", got)
	}
	if got := trigger.Outputs[1].Links; len(got) != 1 || got[0] != (Link{Target: replacement, InputIndex: 1}) {
		t.Errorf("UnTouched links = %v, want Close at index 1", got)
	}
	if got := replacement.Outputs[0].Links; len(got) != 1 || got[0].Target != logger {
		t.Errorf("Opened links = %v, want the logger", got)
	}

	again := connections.Restore(replacement)
	if again.Restored != 0 || len(trigger.Outputs[0].Links) != 1 {
		t.Errorf("restoring twice duplicated links: %+v", again)
	}
}

func TestRestoreReportsRenamedInput(t *testing.T) {
	root := NewSequence("Main_Sequence")
	source := NewNode(KindAction, "Action_Delay", "Delay", nil, []string{"Finished"})
	old := NewNode(KindAction, "Action_Log", "Log", []string{"In"}, nil)
	for _, node := range []*Node{source, old} {
		if err := root.AddObject(node); err != nil {
			t.Fatalf("AddObject: %v", err)
		}
	}
	mustLink(t, source, 0, old, 0)

	connections := Capture(old)
	root.RemoveObject(old)
	renamed := NewNode(KindAction, "Action_Log", "Log", []string{"Input"}, nil)
	if err := root.AddObject(renamed); err != nil {
		t.Fatalf("AddObject: %v", err)
	}

	result := connections.Restore(renamed)
	if len(result.Unresolved) != 1 {
		t.Fatalf("got %d unresolved links, want 1", len(result.Unresolved))
	}
	dropped := result.Unresolved[0]
	if dropped.Direction != Incoming || dropped.Label != "In" || dropped.Peer != source || dropped.Reason != Missing {
		t.Errorf("unresolved = %+v", dropped)
	}
	if len(source.Outputs[0].Links) != 0 {
		t.Errorf("source links = %v, want none", source.Outputs[0].Links)
	}
}

func TestRestoreRefusesAmbiguousLabels(t *testing.T) {
	root := NewSequence("Main_Sequence")
	source := NewNode(KindAction, "Action_Delay", "Delay", nil, []string{"Finished"})
	old := NewNode(KindAction, "Action_Log", "Log", []string{"In"}, nil)
	for _, node := range []*Node{source, old} {
		if err := root.AddObject(node); err != nil {
			t.Fatalf("AddObject: %v", err)
		}
	}
	mustLink(t, source, 0, old, 0)

	connections := Capture(old)
	root.RemoveObject(old)
	doubled := NewNode(KindAction, "Action_Log", "Log", []string{"In", "In"}, nil)
	if err := root.AddObject(doubled); err != nil {
		t.Fatalf("AddObject: %v", err)
	}

	result := connections.Restore(doubled)
	if len(result.Unresolved) != 1 || result.Unresolved[0].Reason != Ambiguous {
		t.Fatalf("unresolved = %v, want one ambiguous link", result.Unresolved)
	}
	if len(source.Outputs[0].Links) != 0 {
		t.Error("an ambiguous label should not produce a link")
	}
}

func TestRewriteAndRenameEvents(t *testing.T) {
	archetype := object.New(actorClass, "Trigger", owner("Template"))
	live := object.New(actorClass, "Trigger_3", owner("Level"))

	root := NewSequence("Prefab")
	event := NewNode(KindEvent, "Event_Touch", "Touch", nil, []string{"Touched"})
	event.Originator = archetype
	variable := NewNode(KindVariable, "Variable_Object", "Object", nil, nil)
	variable.Value = archetype
	for _, node := range []*Node{event, variable} {
		if err := root.AddObject(node); err != nil {
			t.Fatalf("AddObject: %v", err)
		}
	}

	changed := root.RewriteReferences(func(target *object.Object) *object.Object {
		if target == archetype {
			return live
		}
		return target
	})
	if changed != 2 {
		t.Errorf("changed = %d, want 2", changed)
	}
	root.RenameEvents()
	if event.Name != "Trigger_3 Touch" {
		t.Errorf("event name = %q, want %q", event.Name, "Trigger_3 Touch")
	}
	if variable.Name != "Object" {
		t.Errorf("variable renamed to %q", variable.Name)
	}
}

func TestDocumentRoundTrip(t *testing.T) {
	_, _, door, _ := buildGraph(t)
	originator := object.New(actorClass, "Door", owner("Template"))
	door.Children[0].Originator = originator

	document := Encode(door)
	decoded, err := Decode(document, func(id object.ID) *object.Object {
		if id == originator.ID() {
			return originator
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded.ID != door.ID || decoded.Name != "Door" || decoded.Kind != KindSequence {
		t.Errorf("decoded root = %+v", decoded)
	}
	if err := decoded.CheckParentPointers(); err != nil {
		t.Errorf("CheckParentPointers: %v", err)
	}
	if diff := cmp.Diff([]Input{{Label: "Open"}, {Label: "Close"}}, decoded.Inputs); diff != "" {
		t.Errorf("Inputs mismatch (-want +got):\n%s", diff)
	}
	links := decoded.Outputs[0].Links
	if len(links) != 1 || links[0].Target != decoded.Children[0] {
		t.Errorf("links = %v, want only the internal link", links)
	}
	if decoded.Children[0].Originator != originator {
		t.Error("originator not resolved")
	}
	if len(decoded.Variables) != 1 || len(decoded.Variables[0].Linked) != 0 {
		t.Errorf("variables = %+v, want the connector without external bindings", decoded.Variables)
	}
}
