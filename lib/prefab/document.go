// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package prefab

import (
	"fmt"

	"github.com/bureau-foundation/prefab/lib/object"
	"github.com/bureau-foundation/prefab/lib/sequence"
)

// TemplateDocument is the serialized form of a template.
type TemplateDocument struct {
	Name       string             `json:"name"`
	Version    int                `json:"version"`
	Archetypes []object.Document  `json:"archetypes,omitempty"`
	Removed    []object.Document  `json:"removed,omitempty"`
	Sequence   *sequence.Document `json:"sequence,omitempty"`
}

// EncodeTemplate returns the document for template.
func EncodeTemplate(template *Template) TemplateDocument {
	document := TemplateDocument{
		Name:    template.name,
		Version: template.version,
	}
	for _, archetype := range template.archetypes {
		document.Archetypes = append(document.Archetypes, object.Encode(archetype))
	}
	for _, archetype := range template.removed {
		document.Removed = append(document.Removed, object.Encode(archetype))
	}
	if template.sequence != nil {
		encoded := sequence.Encode(template.sequence)
		document.Sequence = &encoded
	}
	return document
}

// DecodeTemplate rebuilds a template, looking classes up in registry.
// References from archetypes to objects outside the template cannot be
// resolved and come back null; their IDs are returned.
func DecodeTemplate(document TemplateDocument, registry *object.Registry) (*Template, []object.ID, error) {
	if document.Name == "" {
		return nil, nil, fmt.Errorf("prefab: template document has no name")
	}
	template := NewTemplate(document.Name)
	if document.Version > 0 {
		template.version = document.Version
	}

	decoder := object.NewDecoder(registry, template)
	for _, archetypeDocument := range document.Archetypes {
		archetype, err := decoder.Decode(archetypeDocument)
		if err != nil {
			return nil, nil, fmt.Errorf("prefab: template %s: %w", document.Name, err)
		}
		template.archetypes = append(template.archetypes, archetype)
	}
	for _, archetypeDocument := range document.Removed {
		archetype, err := decoder.Decode(archetypeDocument)
		if err != nil {
			return nil, nil, fmt.Errorf("prefab: template %s removed archetype: %w", document.Name, err)
		}
		template.removed = append(template.removed, archetype)
	}
	unresolved := decoder.Resolve(nil)

	if document.Sequence != nil {
		node, err := sequence.Decode(*document.Sequence, template.Find)
		if err != nil {
			return nil, nil, fmt.Errorf("prefab: template %s sequence: %w", document.Name, err)
		}
		template.sequence = node
	}
	return template, unresolved, nil
}
