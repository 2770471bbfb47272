// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package prefabstore

// migrations is the store schema, applied in order by sqlitepool.
// Append only.
var migrations = []string{
	`
CREATE TABLE templates (
	name        TEXT PRIMARY KEY,
	version     INTEGER NOT NULL,
	digest      BLOB NOT NULL,
	description TEXT NOT NULL,
	compression INTEGER NOT NULL,
	size        INTEGER NOT NULL,
	body        BLOB NOT NULL,
	created_at  INTEGER NOT NULL,
	updated_at  INTEGER NOT NULL
) STRICT;

CREATE TABLE instances (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	template    TEXT NOT NULL REFERENCES templates(name) ON DELETE CASCADE,
	level       TEXT NOT NULL,
	version     INTEGER NOT NULL,
	compression INTEGER NOT NULL,
	size        INTEGER NOT NULL,
	body        BLOB NOT NULL,
	updated_at  INTEGER NOT NULL
) STRICT;
`,
	`CREATE INDEX instances_by_template ON instances(template);`,
}
