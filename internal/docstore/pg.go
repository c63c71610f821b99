package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/fitjournal/internal/telemetry/tracing"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// ChangesChannel is the redis channel every write is announced on, the
// message payload is "<user id>/<collection>".
const ChangesChannel = "fitjournal:changes"

const Schema = `
CREATE TABLE IF NOT EXISTS document
(
    user_id    VARCHAR                     NOT NULL,
    collection VARCHAR                     NOT NULL,
    id         VARCHAR                     NOT NULL,
    data       JSONB                       NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE    NOT NULL DEFAULT now(),
    updated_at TIMESTAMP WITH TIME ZONE    NOT NULL DEFAULT now(),
    PRIMARY KEY (user_id, collection, id)
);
CREATE INDEX IF NOT EXISTS ix_document_collection_created_at
    ON document USING btree (user_id, collection, created_at);
`

// PgStore keeps documents in postgres and announces changes over redis
// pub/sub, so subscribers in any service instance get fresh snapshots.
type PgStore struct {
	db      *pgxpool.Pool
	rdb     *redis.Client
	changes *changeFeed
}

func NewPgStore(db *pgxpool.Pool, rdb *redis.Client) *PgStore {
	return &PgStore{
		db:      db,
		rdb:     rdb,
		changes: newChangeFeed(rdb),
	}
}

func (s *PgStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("create document schema: %w", err)
	}
	return nil
}

func changeKey(ref CollectionRef) string {
	return ref.UserID + "/" + ref.Name
}

func (s *PgStore) announce(ctx context.Context, ref CollectionRef) {
	if err := s.rdb.Publish(ctx, ChangesChannel, changeKey(ref)).Err(); err != nil {
		// the write itself went through, subscribers catch up on the next change
		log.Errorf("docstore: announce change of %s: %s", ref.Path(), err)
	}
}

func (s *PgStore) Create(ctx context.Context, ref CollectionRef, doc json.RawMessage) (_ string, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.docstore.create")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("collection", ref.Name))

	id := uuid.NewString()
	if _, err := s.db.Exec(
		ctx,
		`INSERT INTO document (user_id, collection, id, data) VALUES ($1, $2, $3, $4);`,
		ref.UserID, ref.Name, id, []byte(doc),
	); err != nil {
		return "", &WriteError{Op: "create", Path: ref.Path(), Err: err}
	}

	s.announce(ctx, ref)
	return id, nil
}

func (s *PgStore) Replace(ctx context.Context, ref CollectionRef, id string, doc json.RawMessage) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.docstore.replace")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("collection", ref.Name), attribute.String("id", id))

	tag, err := s.db.Exec(
		ctx,
		`UPDATE document SET data = $1, updated_at = now() WHERE user_id = $2 AND collection = $3 AND id = $4;`,
		[]byte(doc), ref.UserID, ref.Name, id,
	)
	if err != nil {
		return &WriteError{Op: "replace", Path: ref.DocPath(id), Err: err}
	}
	if tag.RowsAffected() == 0 {
		return &WriteError{Op: "replace", Path: ref.DocPath(id), Err: ErrNotFound}
	}

	s.announce(ctx, ref)
	return nil
}

func (s *PgStore) Delete(ctx context.Context, ref CollectionRef, id string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.docstore.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("collection", ref.Name), attribute.String("id", id))

	tag, err := s.db.Exec(
		ctx,
		`DELETE FROM document WHERE user_id = $1 AND collection = $2 AND id = $3;`,
		ref.UserID, ref.Name, id,
	)
	if err != nil {
		return &WriteError{Op: "delete", Path: ref.DocPath(id), Err: err}
	}
	if tag.RowsAffected() == 0 {
		return &WriteError{Op: "delete", Path: ref.DocPath(id), Err: ErrNotFound}
	}

	s.announce(ctx, ref)
	return nil
}

func (s *PgStore) Get(ctx context.Context, ref CollectionRef, id string) (_ Document, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.docstore.get")
	defer func() {
		if errors.Is(err, ErrNotFound) {
			tracing.EndSpanWithErrCheck(span, nil)
			return
		}
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var doc Document
	var data []byte
	err = s.db.QueryRow(
		ctx,
		`SELECT id, data, created_at, updated_at FROM document WHERE user_id = $1 AND collection = $2 AND id = $3;`,
		ref.UserID, ref.Name, id,
	).Scan(&doc.ID, &data, &doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, fmt.Errorf("query document: %w", err)
	}
	doc.Data = data
	return doc, nil
}

func (s *PgStore) List(ctx context.Context, ref CollectionRef) (_ []Document, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.docstore.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("collection", ref.Name))

	rows, err := s.db.Query(
		ctx,
		`SELECT id, data, created_at, updated_at FROM document
			WHERE user_id = $1 AND collection = $2
			ORDER BY created_at, id;`,
		ref.UserID, ref.Name,
	)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	docs := make([]Document, 0)
	for rows.Next() {
		var doc Document
		var data []byte
		if err := rows.Scan(&doc.ID, &data, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		doc.Data = data
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	span.SetAttributes(attribute.Int("documents", len(docs)))
	return docs, nil
}

// Subscribe loads the collection and reloads it every time a change of it is
// announced on ChangesChannel.
func (s *PgStore) Subscribe(ctx context.Context, ref CollectionRef) (<-chan Snapshot, error) {
	// watch before the initial load, so no change is missed in between
	changes, stop, err := s.changes.watch(ctx, changeKey(ref))
	if err != nil {
		return nil, fmt.Errorf("subscribe to changes: %w", err)
	}

	docs, err := s.List(ctx, ref)
	if err != nil {
		stop()
		return nil, err
	}

	sub := newLatest()
	sub.push(ref, docs)

	go func() {
		defer close(sub.ch)
		defer stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-changes:
				reloadCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
				docs, err := s.List(reloadCtx, ref)
				cancel()
				if err != nil {
					log.Errorf("docstore: reload %s: %s", ref.Path(), err)
					continue
				}
				sub.push(ref, docs)
			}
		}
	}()

	return sub.ch, nil
}

// Close ends the shared change subscription. Open subscriptions get no
// further snapshots.
func (s *PgStore) Close() error {
	return s.changes.close()
}
