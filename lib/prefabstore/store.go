// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package prefabstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/bureau-foundation/prefab/lib/clock"
	"github.com/bureau-foundation/prefab/lib/codec"
	"github.com/bureau-foundation/prefab/lib/object"
	"github.com/bureau-foundation/prefab/lib/prefab"
	"github.com/bureau-foundation/prefab/lib/sqlitepool"
)

// ErrNotFound is returned when a named template or instance is not in
// the store.
var ErrNotFound = errors.New("prefabstore: not found")

// Store persists templates and instance state in SQLite. Bodies are
// deterministic CBOR, compressed with the configured algorithm.
//
// Templates are keyed by name. PutTemplate compares the content digest
// of the incoming template with the stored one and only writes, and
// bumps the version, when they differ. Instances reference their
// template row; deleting a template deletes its instances.
type Store struct {
	pool        *sqlitepool.Pool
	compression Compression
	clock       clock.Clock
	logger      *slog.Logger
}

// Config holds the parameters for opening a store.
type Config struct {
	// Path is the SQLite database file. The parent directory must
	// exist.
	Path string

	// PoolSize is the number of connections. Zero picks the
	// sqlitepool default.
	PoolSize int

	// Compression is applied to bodies on write. Reads honor whatever
	// each row was written with.
	Compression Compression

	// Clock stamps created_at and updated_at. Defaults to the real
	// clock.
	Clock clock.Clock

	// Logger receives operational messages.
	Logger *slog.Logger
}

// TemplateInfo describes a stored template without its body.
type TemplateInfo struct {
	Name        string
	Version     int
	Digest      Digest
	Description string
	Compression Compression
	Size        int
	StoredSize  int
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Changed is set by PutTemplate when the call wrote a new version.
	Changed bool
}

// InstanceInfo describes a stored instance without its body.
type InstanceInfo struct {
	ID        string
	Name      string
	Template  string
	Level     string
	Version   int
	UpdatedAt time.Time
}

// Open opens (creating if needed) the store database and applies the
// schema.
func Open(config Config) (*Store, error) {
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:       config.Path,
		PoolSize:   config.PoolSize,
		Migrations: migrations,
		Logger:     config.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("prefabstore: %w", err)
	}
	return &Store{
		pool:        pool,
		compression: config.Compression,
		clock:       config.Clock,
		logger:      config.Logger,
	}, nil
}

// Close closes every connection.
func (s *Store) Close() error {
	return s.pool.Close()
}

// PutTemplate stores template. If the stored template with the same
// name has the same content digest nothing is written and the stored
// info is returned. Otherwise the new body is written with a version
// one past the stored one, or the template's own version if that is
// higher.
func (s *Store) PutTemplate(ctx context.Context, template *prefab.Template) (info TemplateInfo, err error) {
	document := prefab.EncodeTemplate(template)
	digest, err := DigestTemplate(document)
	if err != nil {
		return TemplateInfo{}, err
	}

	conn, err := s.pool.Take(ctx)
	if err != nil {
		return TemplateInfo{}, fmt.Errorf("prefabstore: %w", err)
	}
	defer s.pool.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return TemplateInfo{}, fmt.Errorf("prefabstore: begin transaction: %w", err)
	}
	defer endTransaction(&err)

	existing, found, err := s.templateInfo(conn, document.Name)
	if err != nil {
		return TemplateInfo{}, err
	}
	if found && existing.Digest == digest {
		return existing, nil
	}

	version := max(document.Version, 1)
	now := s.clock.Now()
	createdAt := now
	if found {
		version = max(existing.Version+1, document.Version)
		createdAt = existing.CreatedAt
	}
	document.Version = version

	data, err := codec.Marshal(document)
	if err != nil {
		return TemplateInfo{}, fmt.Errorf("prefabstore: encode template %s: %w", document.Name, err)
	}
	compression, body, err := compress(data, s.compression)
	if err != nil {
		return TemplateInfo{}, fmt.Errorf("prefabstore: compress template %s: %w", document.Name, err)
	}

	info = TemplateInfo{
		Name:        document.Name,
		Version:     version,
		Digest:      digest,
		Description: template.Describe(),
		Compression: compression,
		Size:        len(data),
		StoredSize:  len(body),
		CreatedAt:   createdAt,
		UpdatedAt:   now,
		Changed:     true,
	}
	err = sqlitex.Execute(conn, `
		INSERT INTO templates (name, version, digest, description, compression, size, body, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET
			version = excluded.version,
			digest = excluded.digest,
			description = excluded.description,
			compression = excluded.compression,
			size = excluded.size,
			body = excluded.body,
			updated_at = excluded.updated_at`,
		&sqlitex.ExecOptions{
			Args: []any{
				info.Name, info.Version, info.Digest[:], info.Description,
				int64(info.Compression), info.Size, body,
				createdAt.UnixNano(), now.UnixNano(),
			},
		})
	if err != nil {
		return TemplateInfo{}, fmt.Errorf("prefabstore: write template %s: %w", info.Name, err)
	}

	s.logger.Info("template stored",
		"template", info.Name,
		"version", info.Version,
		"digest", info.Digest.Short(),
		"compression", info.Compression.String(),
		"size", info.Size,
		"stored_size", info.StoredSize,
	)
	return info, nil
}

// TemplateDocument returns the stored document for name.
func (s *Store) TemplateDocument(ctx context.Context, name string) (prefab.TemplateDocument, TemplateInfo, error) {
	data, info, err := s.TemplateBody(ctx, name)
	if err != nil {
		return prefab.TemplateDocument{}, TemplateInfo{}, err
	}
	var document prefab.TemplateDocument
	if err := codec.Unmarshal(data, &document); err != nil {
		return prefab.TemplateDocument{}, TemplateInfo{}, fmt.Errorf("prefabstore: decode template %s: %w", name, err)
	}
	return document, info, nil
}

// TemplateBody returns the uncompressed CBOR body stored for name.
func (s *Store) TemplateBody(ctx context.Context, name string) ([]byte, TemplateInfo, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, TemplateInfo{}, fmt.Errorf("prefabstore: %w", err)
	}
	defer s.pool.Put(conn)

	var (
		info TemplateInfo
		body []byte
	)
	err = sqlitex.Execute(conn, `
		SELECT `+templateColumns+`, body FROM templates WHERE name = ?`,
		&sqlitex.ExecOptions{
			Args: []any{name},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				info = scanTemplateInfo(stmt)
				body = make([]byte, stmt.ColumnLen(9))
				stmt.ColumnBytes(9, body)
				return nil
			},
		})
	if err != nil {
		return nil, TemplateInfo{}, fmt.Errorf("prefabstore: read template %s: %w", name, err)
	}
	if info.Name == "" {
		return nil, TemplateInfo{}, fmt.Errorf("template %s: %w", name, ErrNotFound)
	}
	data, err := decompress(body, info.Compression, info.Size)
	if err != nil {
		return nil, TemplateInfo{}, fmt.Errorf("prefabstore: template %s: %w", name, err)
	}
	return data, info, nil
}

// Template loads and decodes the template stored under name. Classes
// are looked up in registry. The IDs of references the template could
// not resolve are returned alongside it.
func (s *Store) Template(ctx context.Context, name string, registry *object.Registry) (*prefab.Template, []object.ID, error) {
	document, _, err := s.TemplateDocument(ctx, name)
	if err != nil {
		return nil, nil, err
	}
	template, unresolved, err := prefab.DecodeTemplate(document, registry)
	if err != nil {
		return nil, nil, fmt.Errorf("prefabstore: %w", err)
	}
	if len(unresolved) > 0 {
		s.logger.Warn("template has unresolved references",
			"template", name,
			"count", len(unresolved),
		)
	}
	return template, unresolved, nil
}

// ListTemplates returns every stored template, ordered by name.
func (s *Store) ListTemplates(ctx context.Context) ([]TemplateInfo, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("prefabstore: %w", err)
	}
	defer s.pool.Put(conn)

	var templates []TemplateInfo
	err = sqlitex.Execute(conn, `SELECT `+templateColumns+` FROM templates ORDER BY name`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				templates = append(templates, scanTemplateInfo(stmt))
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("prefabstore: list templates: %w", err)
	}
	return templates, nil
}

// DeleteTemplate removes the template and every instance of it.
func (s *Store) DeleteTemplate(ctx context.Context, name string) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("prefabstore: %w", err)
	}
	defer s.pool.Put(conn)

	if err := sqlitex.Execute(conn, `DELETE FROM templates WHERE name = ?`,
		&sqlitex.ExecOptions{Args: []any{name}}); err != nil {
		return fmt.Errorf("prefabstore: delete template %s: %w", name, err)
	}
	if conn.Changes() == 0 {
		return fmt.Errorf("template %s: %w", name, ErrNotFound)
	}
	s.logger.Info("template deleted", "template", name)
	return nil
}

// PutInstanceState stores the persisted form of an instance,
// replacing any earlier state with the same ID. The instance's
// template must already be stored.
func (s *Store) PutInstanceState(ctx context.Context, state prefab.State) (err error) {
	if state.ID == "" {
		return fmt.Errorf("prefabstore: instance state has no ID")
	}
	data, err := codec.Marshal(state)
	if err != nil {
		return fmt.Errorf("prefabstore: encode instance %s: %w", state.ID, err)
	}
	compression, body, err := compress(data, s.compression)
	if err != nil {
		return fmt.Errorf("prefabstore: compress instance %s: %w", state.ID, err)
	}

	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("prefabstore: %w", err)
	}
	defer s.pool.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return fmt.Errorf("prefabstore: begin transaction: %w", err)
	}
	defer endTransaction(&err)

	_, found, err := s.templateInfo(conn, state.Template)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("instance %s: template %s: %w", state.ID, state.Template, ErrNotFound)
	}

	err = sqlitex.Execute(conn, `
		INSERT INTO instances (id, name, template, level, version, compression, size, body, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			template = excluded.template,
			level = excluded.level,
			version = excluded.version,
			compression = excluded.compression,
			size = excluded.size,
			body = excluded.body,
			updated_at = excluded.updated_at`,
		&sqlitex.ExecOptions{
			Args: []any{
				state.ID, state.Name, state.Template, state.Level, state.InstanceVersion,
				int64(compression), len(data), body, s.clock.Now().UnixNano(),
			},
		})
	if err != nil {
		return fmt.Errorf("prefabstore: write instance %s: %w", state.ID, err)
	}
	s.logger.Debug("instance stored",
		"instance", state.ID,
		"template", state.Template,
		"instance_version", state.InstanceVersion,
		"members", len(state.Members),
	)
	return nil
}

// InstanceState returns the stored state of the instance with id.
func (s *Store) InstanceState(ctx context.Context, id string) (prefab.State, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return prefab.State{}, fmt.Errorf("prefabstore: %w", err)
	}
	defer s.pool.Put(conn)

	var (
		found       bool
		compression Compression
		size        int
		body        []byte
	)
	err = sqlitex.Execute(conn, `SELECT compression, size, body FROM instances WHERE id = ?`,
		&sqlitex.ExecOptions{
			Args: []any{id},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				found = true
				compression = Compression(stmt.ColumnInt64(0))
				size = stmt.ColumnInt(1)
				body = make([]byte, stmt.ColumnLen(2))
				stmt.ColumnBytes(2, body)
				return nil
			},
		})
	if err != nil {
		return prefab.State{}, fmt.Errorf("prefabstore: read instance %s: %w", id, err)
	}
	if !found {
		return prefab.State{}, fmt.Errorf("instance %s: %w", id, ErrNotFound)
	}
	data, err := decompress(body, compression, size)
	if err != nil {
		return prefab.State{}, fmt.Errorf("prefabstore: instance %s: %w", id, err)
	}
	var state prefab.State
	if err := codec.Unmarshal(data, &state); err != nil {
		return prefab.State{}, fmt.Errorf("prefabstore: decode instance %s: %w", id, err)
	}
	return state, nil
}

// ListInstances returns the stored instances of template, or of every
// template when template is empty, ordered by name.
func (s *Store) ListInstances(ctx context.Context, template string) ([]InstanceInfo, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("prefabstore: %w", err)
	}
	defer s.pool.Put(conn)

	query := `SELECT id, name, template, level, version, updated_at FROM instances`
	var args []any
	if template != "" {
		query += ` WHERE template = ?`
		args = append(args, template)
	}
	query += ` ORDER BY name, id`

	var instances []InstanceInfo
	err = sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
		Args: args,
		ResultFunc: func(stmt *sqlite.Stmt) error {
			instances = append(instances, InstanceInfo{
				ID:        stmt.ColumnText(0),
				Name:      stmt.ColumnText(1),
				Template:  stmt.ColumnText(2),
				Level:     stmt.ColumnText(3),
				Version:   stmt.ColumnInt(4),
				UpdatedAt: time.Unix(0, stmt.ColumnInt64(5)).UTC(),
			})
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("prefabstore: list instances: %w", err)
	}
	return instances, nil
}

// DeleteInstanceState removes the stored state of the instance with
// id.
func (s *Store) DeleteInstanceState(ctx context.Context, id string) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("prefabstore: %w", err)
	}
	defer s.pool.Put(conn)

	if err := sqlitex.Execute(conn, `DELETE FROM instances WHERE id = ?`,
		&sqlitex.ExecOptions{Args: []any{id}}); err != nil {
		return fmt.Errorf("prefabstore: delete instance %s: %w", id, err)
	}
	if conn.Changes() == 0 {
		return fmt.Errorf("instance %s: %w", id, ErrNotFound)
	}
	return nil
}

const templateColumns = `name, version, digest, description, compression, size, length(body), created_at, updated_at`

func (s *Store) templateInfo(conn *sqlite.Conn, name string) (TemplateInfo, bool, error) {
	var (
		info  TemplateInfo
		found bool
	)
	err := sqlitex.Execute(conn, `SELECT `+templateColumns+` FROM templates WHERE name = ?`,
		&sqlitex.ExecOptions{
			Args: []any{name},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				info = scanTemplateInfo(stmt)
				found = true
				return nil
			},
		})
	if err != nil {
		return TemplateInfo{}, false, fmt.Errorf("prefabstore: read template %s: %w", name, err)
	}
	return info, found, nil
}

// scanTemplateInfo reads the templateColumns of the current row.
func scanTemplateInfo(stmt *sqlite.Stmt) TemplateInfo {
	info := TemplateInfo{
		Name:        stmt.ColumnText(0),
		Version:     stmt.ColumnInt(1),
		Description: stmt.ColumnText(3),
		Compression: Compression(stmt.ColumnInt64(4)),
		Size:        stmt.ColumnInt(5),
		StoredSize:  stmt.ColumnInt(6),
		CreatedAt:   time.Unix(0, stmt.ColumnInt64(7)).UTC(),
		UpdatedAt:   time.Unix(0, stmt.ColumnInt64(8)).UTC(),
	}
	stmt.ColumnBytes(2, info.Digest[:])
	return info
}
