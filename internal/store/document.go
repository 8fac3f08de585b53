package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/cachefleet/cachefleet/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Collection is a generic document repository over one Postgres table holding
// a single JSONB document per row. Every document of a type shares the same
// fixed partition key. Updates are last-write-wins; there is no optimistic
// concurrency token.
type Collection[T any, PT interface {
	*T
	domain.Entity
}] struct {
	db        *pgxpool.Pool
	table     string
	partition string
}

func NewCollection[T any, PT interface {
	*T
	domain.Entity
}](db *pgxpool.Pool, table, partition string) *Collection[T, PT] {
	return &Collection[T, PT]{db: db, table: table, partition: partition}
}

func (c *Collection[T, PT]) Create(ctx context.Context, e PT) error {
	doc := e.Doc()
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	doc.PartitionKey = c.partition
	now := time.Now().UTC()
	doc.CreatedAt = now
	doc.UpdatedAt = now

	body, err := json.Marshal(e)
	if err != nil {
		return err
	}

	_, err = c.db.Exec(ctx,
		`INSERT INTO `+c.table+` (id, partition_key, doc, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		doc.ID, doc.PartitionKey, body, doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return err
	}
	return nil
}

func (c *Collection[T, PT]) GetByID(ctx context.Context, id uuid.UUID) (PT, error) {
	var body []byte
	err := c.db.QueryRow(ctx,
		`SELECT doc FROM `+c.table+` WHERE id = $1 AND partition_key = $2`,
		id, c.partition,
	).Scan(&body)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return c.decode(body)
}

func (c *Collection[T, PT]) GetAll(ctx context.Context) ([]PT, error) {
	rows, err := c.db.Query(ctx,
		`SELECT doc FROM `+c.table+` WHERE partition_key = $1 ORDER BY created_at`,
		c.partition,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return c.collect(rows)
}

func (c *Collection[T, PT]) Update(ctx context.Context, e PT) error {
	doc := e.Doc()
	doc.PartitionKey = c.partition
	doc.UpdatedAt = time.Now().UTC()

	body, err := json.Marshal(e)
	if err != nil {
		return err
	}

	tag, err := c.db.Exec(ctx,
		`UPDATE `+c.table+` SET doc = $3, updated_at = $4
		 WHERE id = $1 AND partition_key = $2`,
		doc.ID, c.partition, body, doc.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (c *Collection[T, PT]) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := c.db.Exec(ctx,
		`DELETE FROM `+c.table+` WHERE id = $1 AND partition_key = $2`,
		id, c.partition,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Query returns all documents matching a predicate over the doc column.
// The partition key is bound to $1, so predicate placeholders start at $2.
func (c *Collection[T, PT]) Query(ctx context.Context, predicate string, args ...any) ([]PT, error) {
	rows, err := c.db.Query(ctx,
		`SELECT doc FROM `+c.table+` WHERE partition_key = $1 AND (`+predicate+`) ORDER BY created_at`,
		append([]any{c.partition}, args...)...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return c.collect(rows)
}

// QueryOne returns the first document matching a predicate, or ErrNotFound.
func (c *Collection[T, PT]) QueryOne(ctx context.Context, predicate string, args ...any) (PT, error) {
	var body []byte
	err := c.db.QueryRow(ctx,
		`SELECT doc FROM `+c.table+` WHERE partition_key = $1 AND (`+predicate+`) LIMIT 1`,
		append([]any{c.partition}, args...)...,
	).Scan(&body)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return c.decode(body)
}

func (c *Collection[T, PT]) decode(body []byte) (PT, error) {
	var v T
	e := PT(&v)
	if err := json.Unmarshal(body, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (c *Collection[T, PT]) collect(rows pgx.Rows) ([]PT, error) {
	var out []PT
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		e, err := c.decode(body)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
