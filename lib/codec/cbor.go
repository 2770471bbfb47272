// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

// Deeply nested property structs are rare in templates; anything past
// this is a corrupt or hostile record.
const maxNesting = 64

var (
	deterministic cbor.EncMode
	lenient       cbor.DecMode
)

func init() {
	var err error
	if deterministic, err = cbor.CoreDetEncOptions().EncMode(); err != nil {
		panic("codec: building encoder: " + err.Error())
	}

	lenient, err = cbor.DecOptions{
		DefaultMapType:  reflect.TypeOf(map[string]any(nil)),
		DupMapKey:       cbor.DupMapKeyEnforcedAPF,
		MaxNestedLevels: maxNesting,
	}.DecMode()
	if err != nil {
		panic("codec: building decoder: " + err.Error())
	}
}

// Marshal encodes v with Core Deterministic Encoding, so equal values
// encode to equal bytes.
func Marshal(v any) ([]byte, error) {
	return deterministic.Marshal(v)
}

// Unmarshal decodes data into v. Unknown fields are ignored and
// duplicate map keys are rejected.
func Unmarshal(data []byte, v any) error {
	return lenient.Unmarshal(data, v)
}

// RawMessage holds an encoded value whose decoding is deferred, such
// as one record inside a diff archive.
type RawMessage = cbor.RawMessage

// Diagnose renders data in CBOR diagnostic notation for show
// --diagnostic.
func Diagnose(data []byte) (string, error) {
	return cbor.Diagnose(data)
}
