// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package prefab

import (
	"fmt"

	"github.com/bureau-foundation/prefab/lib/object"
	"github.com/bureau-foundation/prefab/lib/rewrite"
	"github.com/bureau-foundation/prefab/lib/sequence"
	"github.com/bureau-foundation/prefab/lib/transform"
)

// CreateTemplate promotes scene objects into a new template. Each
// object is copied into an archetype whose transform is relative to
// origin. References between the promoted objects are redirected to
// the archetypes; references to other objects of the same level are
// cleared so private level state never leaks into the template. The
// optional sequence is copied with every link leaving it removed.
func CreateTemplate(name string, origin transform.Transform, objects []*object.Object, script *sequence.Node) (*Template, error) {
	if len(objects) == 0 {
		return nil, fmt.Errorf("prefab: creating template %s: no objects", name)
	}
	template := NewTemplate(name)
	mapping := rewrite.NewMapping()
	archetypes := make([]*object.Object, 0, len(objects))
	for _, source := range objects {
		if source == nil {
			return nil, fmt.Errorf("prefab: creating template %s: nil object", name)
		}
		if _, duplicate := mapping.Lookup(source); duplicate {
			return nil, fmt.Errorf("prefab: creating template %s: %s listed twice", name, source.Name())
		}
		archetype := source.Duplicate(source.Name(), template)
		mapping.Set(source, archetype)
		addComponentPairs(mapping, source, archetype)
		if archetype.Kind() == object.KindActor {
			archetype.SetTransform(transform.ToLocal(source.Transform(), origin))
		}
		archetypes = append(archetypes, archetype)
	}
	mapping.Scope = objects[0].Owner()
	rewrite.RewriteAll(archetypes, mapping, true)
	template.archetypes = archetypes

	if script != nil {
		copied := script.Clone()
		copied.CleanupConnections()
		rewrite.Rewrite(copied, mapping, true)
		template.sequence = copied
	}
	return template, nil
}
