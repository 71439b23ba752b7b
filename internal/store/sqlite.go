package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"mnemograph/internal/model"
)

// SQLite is the default durable backend. Opened with WAL mode for concurrent
// reads and foreign keys enabled. Embeddings are stored as little-endian
// float32 BLOBs; labels, properties and assertion objects as JSON text.
type SQLite struct {
	conn *sql.DB
	Path string
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS entities (
    uuid            TEXT PRIMARY KEY,
    kind            TEXT NOT NULL,
    labels          TEXT NOT NULL,
    properties      TEXT NOT NULL,
    embedding       BLOB,
    status          TEXT NOT NULL,
    created_at      INTEGER NOT NULL,
    updated_at      INTEGER NOT NULL,
    prov_source     TEXT,
    prov_confidence REAL,
    prov_trace_id   TEXT,
    prov_at         INTEGER
);
CREATE INDEX IF NOT EXISTS idx_entities_kind ON entities(kind);

CREATE TABLE IF NOT EXISTS associations (
    uuid            TEXT PRIMARY KEY,
    from_uuid       TEXT NOT NULL,
    to_uuid         TEXT NOT NULL,
    relation_type   TEXT NOT NULL,
    weight          REAL NOT NULL,
    confidence      REAL NOT NULL,
    status          TEXT NOT NULL,
    created_at      INTEGER NOT NULL,
    prov_source     TEXT,
    prov_confidence REAL,
    prov_trace_id   TEXT,
    prov_at         INTEGER
);
CREATE INDEX IF NOT EXISTS idx_assoc_from ON associations(from_uuid, relation_type);
CREATE INDEX IF NOT EXISTS idx_assoc_to ON associations(to_uuid);

CREATE TABLE IF NOT EXISTS assertions (
    uuid            TEXT PRIMARY KEY,
    subject         TEXT NOT NULL,
    predicate       TEXT NOT NULL,
    object          TEXT NOT NULL,
    truth           REAL NOT NULL,
    source          TEXT NOT NULL,
    status          TEXT NOT NULL,
    created_at      INTEGER NOT NULL,
    prov_source     TEXT,
    prov_confidence REAL,
    prov_trace_id   TEXT,
    prov_at         INTEGER
);
CREATE INDEX IF NOT EXISTS idx_assertions_subject ON assertions(subject);

CREATE TABLE IF NOT EXISTS facts (
    uuid            TEXT PRIMARY KEY,
    key             TEXT NOT NULL UNIQUE,
    subject         TEXT NOT NULL,
    predicate       TEXT NOT NULL,
    object          TEXT NOT NULL,
    status          TEXT NOT NULL,
    confidence      REAL NOT NULL,
    embedding       BLOB,
    assertion_uuid  TEXT NOT NULL,
    source          TEXT NOT NULL,
    created_at      INTEGER NOT NULL,
    prov_source     TEXT,
    prov_confidence REAL,
    prov_trace_id   TEXT,
    prov_at         INTEGER
);
CREATE INDEX IF NOT EXISTS idx_facts_triple ON facts(subject, predicate);
`

// OpenSQLite opens (and if necessary bootstraps) a SQLite store at path.
// Use ":memory:" for an ephemeral database.
func OpenSQLite(path string) (*SQLite, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for concurrent reads
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	// Enable foreign keys
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	if _, err := conn.Exec(sqliteSchema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("bootstrapping schema: %w", err)
	}

	return &SQLite{conn: conn, Path: path}, nil
}

func (s *SQLite) Close() error { return s.conn.Close() }

// Conn returns the underlying sql.DB for custom queries.
func (s *SQLite) Conn() *sql.DB { return s.conn }

func (s *SQLite) UpsertEntity(ctx context.Context, e *model.Entity, prov model.Provenance) error {
	labels, err := json.Marshal(e.Labels)
	if err != nil {
		return fmt.Errorf("encoding labels: %w", err)
	}
	props, err := json.Marshal(e.Properties)
	if err != nil {
		return fmt.Errorf("encoding properties: %w", err)
	}

	_, err = s.conn.ExecContext(ctx, `
		INSERT INTO entities (uuid, kind, labels, properties, embedding, status,
		                      created_at, updated_at,
		                      prov_source, prov_confidence, prov_trace_id, prov_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(uuid) DO UPDATE SET
			kind = excluded.kind,
			labels = excluded.labels,
			properties = excluded.properties,
			embedding = excluded.embedding,
			status = excluded.status,
			updated_at = excluded.updated_at,
			prov_source = excluded.prov_source,
			prov_confidence = excluded.prov_confidence,
			prov_trace_id = excluded.prov_trace_id,
			prov_at = excluded.prov_at
	`, e.UUID, string(e.Kind), string(labels), string(props), EncodeEmbedding(e.Embedding),
		string(e.Status), e.CreatedAt.UnixMilli(), e.UpdatedAt.UnixMilli(),
		prov.Source, prov.Confidence, prov.TraceID, prov.Timestamp.UnixMilli())
	if err != nil {
		return fmt.Errorf("upserting entity %s: %w", e.UUID, err)
	}
	return nil
}

// scanEntity scans a row with the standard 8 entity columns.
func scanEntity(scanner interface{ Scan(dest ...any) error }) (*model.Entity, error) {
	var (
		e         model.Entity
		kind      string
		labels    string
		props     string
		embedding []byte
		status    string
		created   int64
		updated   int64
	)
	err := scanner.Scan(&e.UUID, &kind, &labels, &props, &embedding, &status, &created, &updated)
	if err != nil {
		return nil, err
	}
	e.Kind = model.Kind(kind)
	e.Status = model.Status(status)
	e.CreatedAt = time.UnixMilli(created).UTC()
	e.UpdatedAt = time.UnixMilli(updated).UTC()
	e.Embedding = DecodeEmbedding(embedding)
	if err := json.Unmarshal([]byte(labels), &e.Labels); err != nil {
		return nil, fmt.Errorf("decoding labels for %s: %w", e.UUID, err)
	}
	if err := json.Unmarshal([]byte(props), &e.Properties); err != nil {
		return nil, fmt.Errorf("decoding properties for %s: %w", e.UUID, err)
	}
	return &e, nil
}

const entityColumns = "uuid, kind, labels, properties, embedding, status, created_at, updated_at"

func (s *SQLite) GetEntity(ctx context.Context, uuid string) (*model.Entity, error) {
	row := s.conn.QueryRowContext(ctx,
		"SELECT "+entityColumns+" FROM entities WHERE uuid = ?", uuid)
	e, err := scanEntity(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (s *SQLite) Entities(ctx context.Context, f EntityFilter) ([]*model.Entity, error) {
	query := "SELECT " + entityColumns + " FROM entities"
	var args []any
	var where []string
	if f.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, string(f.Kind))
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(f.Status))
	}
	for i, w := range where {
		if i == 0 {
			query += " WHERE " + w
		} else {
			query += " AND " + w
		}
	}
	query += " ORDER BY created_at, uuid"

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*model.Entity
	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			return nil, err
		}
		// Marker filtering inspects the decoded property bag; not pushed into
		// SQL to keep the property encoding opaque to the schema.
		if f.Marker != "" && !e.Marked(f.Marker) {
			continue
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

// UpsertAssociation stores created_at at nanosecond precision: traversal
// order is (created_at, uuid), and edges written back-to-back would tie at
// millisecond resolution.
func (s *SQLite) UpsertAssociation(ctx context.Context, a *model.Association, prov model.Provenance) error {
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO associations (uuid, from_uuid, to_uuid, relation_type, weight,
		                          confidence, status, created_at,
		                          prov_source, prov_confidence, prov_trace_id, prov_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(uuid) DO NOTHING
	`, a.UUID, a.From, a.To, a.RelationType, a.Weight, a.Confidence,
		string(a.Status), a.CreatedAt.UnixNano(),
		prov.Source, prov.Confidence, prov.TraceID, prov.Timestamp.UnixMilli())
	if err != nil {
		return fmt.Errorf("inserting association %s: %w", a.UUID, err)
	}
	return nil
}

func scanAssociation(scanner interface{ Scan(dest ...any) error }) (*model.Association, error) {
	var (
		a       model.Association
		status  string
		created int64
	)
	err := scanner.Scan(&a.UUID, &a.From, &a.To, &a.RelationType,
		&a.Weight, &a.Confidence, &status, &created)
	if err != nil {
		return nil, err
	}
	a.Status = model.Status(status)
	a.CreatedAt = time.Unix(0, created).UTC()
	return &a, nil
}

const assocColumns = "uuid, from_uuid, to_uuid, relation_type, weight, confidence, status, created_at"

func (s *SQLite) GetAssociation(ctx context.Context, uuid string) (*model.Association, error) {
	row := s.conn.QueryRowContext(ctx,
		"SELECT "+assocColumns+" FROM associations WHERE uuid = ?", uuid)
	a, err := scanAssociation(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *SQLite) Associations(ctx context.Context) ([]*model.Association, error) {
	rows, err := s.conn.QueryContext(ctx,
		"SELECT "+assocColumns+" FROM associations ORDER BY created_at, uuid")
	if err != nil {
		return nil, err
	}
	return collectAssociations(rows)
}

func (s *SQLite) AssociationsFrom(ctx context.Context, entityUUID, relationType string) ([]*model.Association, error) {
	rows, err := s.conn.QueryContext(ctx,
		"SELECT "+assocColumns+" FROM associations WHERE from_uuid = ? AND relation_type = ? ORDER BY created_at, uuid",
		entityUUID, relationType)
	if err != nil {
		return nil, err
	}
	return collectAssociations(rows)
}

func (s *SQLite) AssociationsFor(ctx context.Context, entityUUID string) ([]*model.Association, error) {
	rows, err := s.conn.QueryContext(ctx,
		"SELECT "+assocColumns+" FROM associations WHERE from_uuid = ? OR to_uuid = ? ORDER BY created_at, uuid",
		entityUUID, entityUUID)
	if err != nil {
		return nil, err
	}
	return collectAssociations(rows)
}

func collectAssociations(rows *sql.Rows) ([]*model.Association, error) {
	defer rows.Close()
	var result []*model.Association
	for rows.Next() {
		a, err := scanAssociation(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

func (s *SQLite) AppendAssertion(ctx context.Context, a *model.Assertion, prov model.Provenance) error {
	object, err := json.Marshal(a.Object)
	if err != nil {
		return fmt.Errorf("encoding assertion object: %w", err)
	}
	_, err = s.conn.ExecContext(ctx, `
		INSERT INTO assertions (uuid, subject, predicate, object, truth, source,
		                        status, created_at,
		                        prov_source, prov_confidence, prov_trace_id, prov_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, a.UUID, a.Subject, a.Predicate, string(object), a.Truth, a.Source,
		string(a.Status), a.CreatedAt.UnixMilli(),
		prov.Source, prov.Confidence, prov.TraceID, prov.Timestamp.UnixMilli())
	if err != nil {
		return fmt.Errorf("appending assertion %s: %w", a.UUID, err)
	}
	return nil
}

func (s *SQLite) AssertionsFor(ctx context.Context, subjectUUID string) ([]*model.Assertion, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT uuid, subject, predicate, object, truth, source, status, created_at
		FROM assertions WHERE subject = ? ORDER BY created_at, uuid
	`, subjectUUID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*model.Assertion
	for rows.Next() {
		var (
			a       model.Assertion
			object  string
			status  string
			created int64
		)
		if err := rows.Scan(&a.UUID, &a.Subject, &a.Predicate, &object,
			&a.Truth, &a.Source, &status, &created); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(object), &a.Object); err != nil {
			return nil, fmt.Errorf("decoding object for assertion %s: %w", a.UUID, err)
		}
		a.Status = model.AssertionStatus(status)
		a.CreatedAt = time.UnixMilli(created).UTC()
		result = append(result, &a)
	}
	return result, rows.Err()
}

func (s *SQLite) UpsertFact(ctx context.Context, f *model.Fact, prov model.Provenance) error {
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO facts (uuid, key, subject, predicate, object, status, confidence,
		                   embedding, assertion_uuid, source, created_at,
		                   prov_source, prov_confidence, prov_trace_id, prov_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			status = excluded.status,
			confidence = excluded.confidence,
			embedding = excluded.embedding,
			assertion_uuid = excluded.assertion_uuid,
			source = excluded.source,
			prov_source = excluded.prov_source,
			prov_confidence = excluded.prov_confidence,
			prov_trace_id = excluded.prov_trace_id,
			prov_at = excluded.prov_at
	`, f.UUID, f.Key, f.Subject, f.Predicate, f.Object, string(f.Status), f.Confidence,
		EncodeEmbedding(f.Embedding), f.AssertionUUID, f.Source, f.CreatedAt.UnixMilli(),
		prov.Source, prov.Confidence, prov.TraceID, prov.Timestamp.UnixMilli())
	if err != nil {
		return fmt.Errorf("upserting fact %s: %w", f.Key, err)
	}
	return nil
}

func (s *SQLite) Facts(ctx context.Context) ([]*model.Fact, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT uuid, key, subject, predicate, object, status, confidence,
		       embedding, assertion_uuid, source, created_at
		FROM facts ORDER BY created_at, uuid
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*model.Fact
	for rows.Next() {
		var (
			f         model.Fact
			status    string
			embedding []byte
			created   int64
		)
		if err := rows.Scan(&f.UUID, &f.Key, &f.Subject, &f.Predicate, &f.Object,
			&status, &f.Confidence, &embedding, &f.AssertionUUID, &f.Source, &created); err != nil {
			return nil, err
		}
		f.Status = model.FactStatus(status)
		f.Embedding = DecodeEmbedding(embedding)
		f.CreatedAt = time.UnixMilli(created).UTC()
		result = append(result, &f)
	}
	return result, rows.Err()
}
