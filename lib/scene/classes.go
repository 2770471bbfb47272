// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package scene

import (
	"github.com/bureau-foundation/prefab/lib/object"
	"github.com/bureau-foundation/prefab/lib/transform"
)

// Built-in classes every world knows about.
var (
	Actor = object.NewClass("Actor", object.KindActor, nil, object.Properties{
		"Hidden": object.BoolValue(false),
		"Tag":    object.NameValue("None"),
	})
	StaticMeshActor = object.NewClass("StaticMeshActor", object.KindActor, Actor, object.Properties{
		"StaticMesh":  object.NameValue("None"),
		"DrawScale":   object.FloatValue(1),
		"DrawScale3D": object.VectorValue(transform.Vector{X: 1, Y: 1, Z: 1}),
	})
	TriggerVolume = object.NewClass("TriggerVolume", object.KindActor, Actor, object.Properties{
		"Enabled": object.BoolValue(true),
	})
	PointLight = object.NewClass("PointLight", object.KindActor, Actor, object.Properties{
		"Brightness": object.FloatValue(1),
		"Radius":     object.FloatValue(1024),
	})
	Note = object.NewClass("Note", object.KindActor, Actor, object.Properties{
		"Text": object.StringValue(""),
	})

	StaticMeshComponent = object.NewClass("StaticMeshComponent", object.KindData, nil, object.Properties{
		"StaticMesh": object.NameValue("None"),
		"Materials":  object.ListValue(),
	})
	BrushComponent = object.NewClass("BrushComponent", object.KindData, nil, object.Properties{
		"BlockActors": object.BoolValue(true),
	})
	LightComponent = object.NewClass("LightComponent", object.KindData, nil, object.Properties{
		"Brightness":  object.FloatValue(1),
		"CastShadows": object.BoolValue(true),
	})

	// DataAsset is a plain-data object with no placement, such as a
	// sound cue or a material parameter set referenced by actors.
	DataAsset = object.NewClass("DataAsset", object.KindData, nil, object.Properties{
		"Payload": object.StringValue(""),
	})
)

// Classes returns a registry holding the built-in classes.
func Classes() *object.Registry {
	return object.NewRegistry(
		Actor, StaticMeshActor, TriggerVolume, PointLight, Note,
		StaticMeshComponent, BrushComponent, LightComponent, DataAsset,
	)
}
