// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package prefabdef

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/bureau-foundation/prefab/lib/object"
	"github.com/bureau-foundation/prefab/lib/transform"
)

// resolver looks up an archetype or "<archetype>.<component>" by name.
// During validation it reports existence with a nil object.
type resolver func(name string) (*object.Object, bool)

func decodeValue(raw json.RawMessage, resolve resolver) (object.Value, error) {
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	var generic any
	if err := decoder.Decode(&generic); err != nil {
		return object.Value{}, err
	}
	return convertValue(generic, resolve)
}

func convertValue(generic any, resolve resolver) (object.Value, error) {
	switch typed := generic.(type) {
	case nil:
		return object.Value{}, nil
	case bool:
		return object.BoolValue(typed), nil
	case json.Number:
		if integer, err := typed.Int64(); err == nil {
			return object.IntValue(integer), nil
		}
		float, err := typed.Float64()
		if err != nil {
			return object.Value{}, fmt.Errorf("invalid number %s", typed)
		}
		return object.FloatValue(float), nil
	case string:
		return object.StringValue(typed), nil
	case []any:
		elements := make([]object.Value, len(typed))
		for i, element := range typed {
			value, err := convertValue(element, resolve)
			if err != nil {
				return object.Value{}, fmt.Errorf("[%d]: %w", i, err)
			}
			elements[i] = value
		}
		return object.ListValue(elements...), nil
	case map[string]any:
		if len(typed) != 1 {
			return object.Value{}, fmt.Errorf("tagged value must have exactly one key, has %d", len(typed))
		}
		for tag, inner := range typed {
			return convertTagged(tag, inner, resolve)
		}
	}
	return object.Value{}, fmt.Errorf("unsupported value %v", generic)
}

func convertTagged(tag string, inner any, resolve resolver) (object.Value, error) {
	switch tag {
	case "name":
		text, ok := inner.(string)
		if !ok {
			return object.Value{}, errors.New("name must be a string")
		}
		return object.NameValue(text), nil
	case "ref":
		target, ok := inner.(string)
		if !ok {
			return object.Value{}, errors.New("ref must be a string")
		}
		found, exists := resolve(target)
		if !exists {
			return object.Value{}, fmt.Errorf("ref to unknown object %q", target)
		}
		return object.RefValue(found), nil
	case "float":
		number, ok := inner.(json.Number)
		if !ok {
			return object.Value{}, errors.New("float must be a number")
		}
		float, err := number.Float64()
		if err != nil {
			return object.Value{}, fmt.Errorf("invalid float %s", number)
		}
		return object.FloatValue(float), nil
	case "vector":
		components, err := triple(inner)
		if err != nil {
			return object.Value{}, fmt.Errorf("vector: %w", err)
		}
		var vector [3]float64
		for i, component := range components {
			if vector[i], err = component.Float64(); err != nil {
				return object.Value{}, fmt.Errorf("vector: invalid component %s", component)
			}
		}
		return object.VectorValue(transform.Vector{X: vector[0], Y: vector[1], Z: vector[2]}), nil
	case "rotator":
		components, err := triple(inner)
		if err != nil {
			return object.Value{}, fmt.Errorf("rotator: %w", err)
		}
		var rotator [3]int32
		for i, component := range components {
			integer, err := component.Int64()
			if err != nil || integer < math.MinInt32 || integer > math.MaxInt32 {
				return object.Value{}, fmt.Errorf("rotator: component %s is not a 32-bit integer", component)
			}
			rotator[i] = int32(integer)
		}
		return object.RotatorValue(transform.Rotator{Pitch: rotator[0], Yaw: rotator[1], Roll: rotator[2]}), nil
	default:
		return object.Value{}, fmt.Errorf("unknown value tag %q", tag)
	}
}

func triple(inner any) ([3]json.Number, error) {
	var numbers [3]json.Number
	list, ok := inner.([]any)
	if !ok || len(list) != 3 {
		return numbers, errors.New("want a list of three numbers")
	}
	for i, element := range list {
		number, ok := element.(json.Number)
		if !ok {
			return numbers, errors.New("want a list of three numbers")
		}
		numbers[i] = number
	}
	return numbers, nil
}
