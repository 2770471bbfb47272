// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package object is the data model shared by templates, live scenes,
// and the diff serializer.
//
// Every [Object] belongs to a [Class], and every class is one of a
// closed set of kinds ([KindActor] or [KindData]). Actor-kind objects
// carry a placement ([transform.Transform]); data-kind objects do not.
// Code that must treat the two differently switches on [Object.Kind]
// rather than probing the class hierarchy.
//
// Property values are a tagged variant ([Value]) over booleans,
// integers, floats, strings, names, vectors, rotators, object
// references, and lists. References are plain *Object pointers, so
// identity is pointer identity; [Object.RewriteReferences] visits every
// reference an object holds, including those held by its components.
//
// An object created with [Instantiate] records the object it was
// constructed from as its archetype and starts with a deep copy of the
// archetype's properties, transform, and components.
// [Object.ResetToArchetype] puts an instance back into that state.
//
// [Document] is the serialized form used for persisting archetypes.
// References inside documents are object IDs; [Decoder] resolves them
// after every object in a batch has been decoded.
package object
