// Copyright (c) 2026 ShieldHQ
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = errors.New("document not found")

// FieldCreatedAt is the document field carrying the creation timestamp.
const FieldCreatedAt = "createdAt"

// Document is one row of a collection. Data holds the JSON payload with
// the creation timestamp already normalized to an RFC 3339 string, so
// consumers never branch on timestamp shape.
type Document struct {
	Collection string
	ID         string
	Data       map[string]any
	CreatedAt  time.Time
}

// Decode unmarshals the document payload into v via JSON.
func (d *Document) Decode(v any) error {
	b, err := json.Marshal(d.Data)
	if err != nil {
		return fmt.Errorf("encoding document %s/%s: %w", d.Collection, d.ID, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decoding document %s/%s: %w", d.Collection, d.ID, err)
	}
	return nil
}

// Field returns the string value of a top-level payload field, or "" when
// the field is absent or not a string.
func (d *Document) Field(name string) string {
	s, _ := d.Data[name].(string)
	return s
}

// OrderSpec describes the store-side ordering of a collection snapshot.
type OrderSpec struct {
	// Field is "createdAt" for creation-time ordering or "" / "id" for
	// document-id ordering.
	Field string
	Desc  bool
}

// OrderByCreatedDesc orders newest first, the default for record tabs.
var OrderByCreatedDesc = OrderSpec{Field: FieldCreatedAt, Desc: true}

// OrderByID orders by document id ascending.
var OrderByID = OrderSpec{}

// Store provides document CRUD and change-feed subscriptions over SQLite.
type Store struct {
	db       *sql.DB
	hub      *hub
	notifier *Notifier
}

// New creates a Store on top of an open database.
func New(db *sql.DB) *Store {
	return &Store{db: db, hub: newHub()}
}

// DB exposes the underlying database handle for collaborators that share
// the connection (session store, migrations).
func (s *Store) DB() *sql.DB {
	return s.db
}

// Get fetches a single document by collection and id.
// Returns ErrNotFound when no such document exists.
func (s *Store) Get(ctx context.Context, collection, id string) (*Document, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, data, created_at FROM documents WHERE collection = ? AND id = ?`,
		collection, id)

	doc, err := scanDocument(row, collection)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting %s/%s: %w", collection, id, err)
	}
	return doc, nil
}

// List returns the full collection in the given order.
func (s *Store) List(ctx context.Context, collection string, order OrderSpec) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, data, created_at FROM documents WHERE collection = ? ORDER BY `+order.sqlClause(),
		collection)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", collection, err)
	}
	defer func() { _ = rows.Close() }()

	var docs []Document
	for rows.Next() {
		doc, err := scanDocument(rows, collection)
		if err != nil {
			return nil, fmt.Errorf("listing %s: %w", collection, err)
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing %s: %w", collection, err)
	}
	return docs, nil
}

// FindByField returns up to limit documents whose top-level payload field
// equals value. This is the bounded-scan primitive used for legacy rows
// whose document id does not follow the current keying convention.
func (s *Store) FindByField(ctx context.Context, collection, field, value string, limit int) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, data, created_at FROM documents
		 WHERE collection = ? AND json_extract(data, ?) = ?
		 ORDER BY id LIMIT ?`,
		collection, "$."+field, value, limit)
	if err != nil {
		return nil, fmt.Errorf("scanning %s by %s: %w", collection, field, err)
	}
	defer func() { _ = rows.Close() }()

	var docs []Document
	for rows.Next() {
		doc, err := scanDocument(rows, collection)
		if err != nil {
			return nil, fmt.Errorf("scanning %s by %s: %w", collection, field, err)
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scanning %s by %s: %w", collection, field, err)
	}
	return docs, nil
}

// CountByField counts documents whose top-level payload field equals value.
func (s *Store) CountByField(ctx context.Context, collection, field, value string) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM documents WHERE collection = ? AND json_extract(data, ?) = ?`,
		collection, "$."+field, value).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting %s by %s: %w", collection, field, err)
	}
	return n, nil
}

// Count returns the number of documents in a collection.
func (s *Store) Count(ctx context.Context, collection string) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM documents WHERE collection = ?`, collection).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting %s: %w", collection, err)
	}
	return n, nil
}

// Create inserts a new document with a generated id and returns the id.
func (s *Store) Create(ctx context.Context, collection string, data map[string]any) (string, error) {
	id := uuid.NewString()
	if err := s.insert(ctx, collection, id, data); err != nil {
		return "", err
	}
	s.changed(collection, true)
	return id, nil
}

// Put writes a document under a caller-chosen id, merging with any
// existing payload. Used for keyed records such as account rows where the
// id is the normalized email.
func (s *Store) Put(ctx context.Context, collection, id string, data map[string]any) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("putting %s/%s: %w", collection, id, err)
	}
	defer func() { _ = tx.Rollback() }()

	var existing string
	err = tx.QueryRowContext(ctx,
		`SELECT data FROM documents WHERE collection = ? AND id = ?`, collection, id).Scan(&existing)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		payload, createdAt, perr := preparePayload(data)
		if perr != nil {
			return fmt.Errorf("putting %s/%s: %w", collection, id, perr)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO documents (collection, id, data, created_at) VALUES (?, ?, ?, ?)`,
			collection, id, payload, createdAt); err != nil {
			return fmt.Errorf("putting %s/%s: %w", collection, id, err)
		}
	case err != nil:
		return fmt.Errorf("putting %s/%s: %w", collection, id, err)
	default:
		merged, merr := mergePayload(existing, data)
		if merr != nil {
			return fmt.Errorf("putting %s/%s: %w", collection, id, merr)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE documents SET data = ? WHERE collection = ? AND id = ?`,
			merged, collection, id); err != nil {
			return fmt.Errorf("putting %s/%s: %w", collection, id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("putting %s/%s: %w", collection, id, err)
	}
	s.changed(collection, true)
	return nil
}

// Update merges a partial payload into an existing document.
// Returns ErrNotFound when the document does not exist.
func (s *Store) Update(ctx context.Context, collection, id string, partial map[string]any) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("updating %s/%s: %w", collection, id, err)
	}
	defer func() { _ = tx.Rollback() }()

	var existing string
	err = tx.QueryRowContext(ctx,
		`SELECT data FROM documents WHERE collection = ? AND id = ?`, collection, id).Scan(&existing)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("updating %s/%s: %w", collection, id, err)
	}

	merged, err := mergePayload(existing, partial)
	if err != nil {
		return fmt.Errorf("updating %s/%s: %w", collection, id, err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE documents SET data = ? WHERE collection = ? AND id = ?`,
		merged, collection, id); err != nil {
		return fmt.Errorf("updating %s/%s: %w", collection, id, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("updating %s/%s: %w", collection, id, err)
	}
	s.changed(collection, true)
	return nil
}

// Delete removes a document. Deleting a missing document is a no-op, in
// which case no change notification is emitted.
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = ? AND id = ?`, collection, id)
	if err != nil {
		return fmt.Errorf("deleting %s/%s: %w", collection, id, err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		s.changed(collection, true)
	}
	return nil
}

// PurgeOlderThan removes every document in a collection created before the
// cutoff and returns the number removed. Used by retention jobs.
func (s *Store) PurgeOlderThan(ctx context.Context, collection string, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = ? AND created_at < ?`, collection, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purging %s: %w", collection, err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		s.changed(collection, true)
	}
	return n, nil
}

func (s *Store) insert(ctx context.Context, collection, id string, data map[string]any) error {
	payload, createdAt, err := preparePayload(data)
	if err != nil {
		return fmt.Errorf("creating %s/%s: %w", collection, id, err)
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (collection, id, data, created_at) VALUES (?, ?, ?, ?)`,
		collection, id, payload, createdAt); err != nil {
		return fmt.Errorf("creating %s/%s: %w", collection, id, err)
	}
	return nil
}

// changed fans a collection change out to local subscribers and, when a
// notifier is attached and the change originated here, to other processes.
func (s *Store) changed(collection string, publish bool) {
	s.hub.notify(collection)
	if publish && s.notifier != nil {
		s.notifier.publish(collection)
	}
}

// scanner abstracts sql.Row and sql.Rows for scanDocument.
type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(sc scanner, collection string) (*Document, error) {
	var (
		id        string
		payload   string
		createdAt time.Time
	)
	if err := sc.Scan(&id, &payload, &createdAt); err != nil {
		return nil, err
	}

	data := map[string]any{}
	if err := json.Unmarshal([]byte(payload), &data); err != nil {
		return nil, fmt.Errorf("decoding payload of %s/%s: %w", collection, id, err)
	}

	doc := &Document{Collection: collection, ID: id, Data: data, CreatedAt: createdAt}
	normalizeCreatedAt(doc)
	return doc, nil
}

// preparePayload serializes a payload and extracts the creation timestamp,
// defaulting to now when the payload carries none.
func preparePayload(data map[string]any) (string, time.Time, error) {
	createdAt := time.Now().UTC()
	if v, ok := data[FieldCreatedAt]; ok {
		if t, ok := parseTimestamp(v); ok {
			createdAt = t
		}
	} else {
		if data == nil {
			data = map[string]any{}
		}
		data[FieldCreatedAt] = createdAt.Format(time.RFC3339Nano)
	}

	b, err := json.Marshal(data)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("encoding payload: %w", err)
	}
	return string(b), createdAt, nil
}

func mergePayload(existing string, partial map[string]any) (string, error) {
	merged := map[string]any{}
	if err := json.Unmarshal([]byte(existing), &merged); err != nil {
		return "", fmt.Errorf("decoding existing payload: %w", err)
	}
	for k, v := range partial {
		merged[k] = v
	}
	b, err := json.Marshal(merged)
	if err != nil {
		return "", fmt.Errorf("encoding merged payload: %w", err)
	}
	return string(b), nil
}

// normalizeCreatedAt rewrites whatever timestamp shape the payload carries
// (RFC 3339 string, unix seconds or milliseconds, {seconds,nanos} object)
// into a single RFC 3339 string and the Document.CreatedAt field.
// Documents without a parseable timestamp keep the row creation time.
func normalizeCreatedAt(doc *Document) {
	if v, ok := doc.Data[FieldCreatedAt]; ok {
		if t, ok := parseTimestamp(v); ok {
			doc.CreatedAt = t
		}
	}
	doc.Data[FieldCreatedAt] = doc.CreatedAt.UTC().Format(time.RFC3339Nano)
}

func parseTimestamp(v any) (time.Time, bool) {
	switch t := v.(type) {
	case string:
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05.999999999-07:00"} {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed, true
			}
		}
	case time.Time:
		return t, true
	case float64:
		// Heuristic: values past the year 33658 as seconds are milliseconds.
		if t > 1e12 {
			return time.UnixMilli(int64(t)), true
		}
		return time.Unix(int64(t), 0), true
	case map[string]any:
		secs, ok := t["seconds"].(float64)
		if !ok {
			return time.Time{}, false
		}
		nanos, _ := t["nanos"].(float64)
		return time.Unix(int64(secs), int64(nanos)), true
	}
	return time.Time{}, false
}

func (o OrderSpec) sqlClause() string {
	column := "id"
	if o.Field == FieldCreatedAt {
		column = "created_at"
	}
	if o.Desc {
		// Tie-break on id so snapshot order is deterministic.
		return column + " DESC, id"
	}
	return column + ", id"
}
