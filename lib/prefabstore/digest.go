// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package prefabstore

import (
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"

	"github.com/bureau-foundation/prefab/lib/codec"
	"github.com/bureau-foundation/prefab/lib/prefab"
)

// Digest is a BLAKE3 keyed hash of a template document.
type Digest [32]byte

// String returns the digest in lowercase hex.
func (digest Digest) String() string { return hex.EncodeToString(digest[:]) }

// Short returns the first 12 hex characters, for listings.
func (digest Digest) Short() string { return hex.EncodeToString(digest[:6]) }

// templateDomainKey separates template digests from any other BLAKE3
// keyed hash. Fixed: changing it changes every stored digest.
var templateDomainKey = [32]byte{
	'b', 'u', 'r', 'e', 'a', 'u', '.', 'p', 'r', 'e', 'f', 'a', 'b', '.',
	't', 'e', 'm', 'p', 'l', 'a', 't', 'e', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// DigestTemplate hashes the deterministic CBOR encoding of document
// with its version cleared, so two documents with the same content
// digest equal regardless of how often they were pushed.
func DigestTemplate(document prefab.TemplateDocument) (Digest, error) {
	document.Version = 0
	data, err := codec.Marshal(document)
	if err != nil {
		return Digest{}, fmt.Errorf("prefabstore: encode template %s: %w", document.Name, err)
	}
	hasher, err := blake3.NewKeyed(templateDomainKey[:])
	if err != nil {
		panic("prefabstore: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write(data)
	var digest Digest
	copy(digest[:], hasher.Sum(nil))
	return digest, nil
}
