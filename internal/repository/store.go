package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"catalog-api/internal/database"
)

// RowScanner is satisfied by both *sql.Row and *sql.Rows.
type RowScanner interface {
	Scan(dest ...any) error
}

// Mapper describes how an entity maps onto its table. Entity repositories
// provide one to the generic store instead of inheriting persistence code.
type Mapper[T any] interface {
	Table() string
	// SelectColumns lists every column in Scan order, id first.
	SelectColumns() []string
	Scan(row RowScanner) (*T, error)
	// InsertColumns and InsertArgs must agree on order; id is
	// server-generated and never part of an insert.
	InsertColumns() []string
	InsertArgs(e *T) []any
	// UpdateColumns and UpdateArgs cover the mutable fields only;
	// created_at is immutable after insert.
	UpdateColumns() []string
	UpdateArgs(e *T) []any
	ID(e *T) int64
	SetID(e *T, id int64)
}

// Repository is the generic CRUD contract shared by all entity repositories.
// Add, Update and Delete stage mutations; nothing touches the database until
// SaveChanges commits the staged changeset inside a single transaction.
type Repository[T any] interface {
	GetByID(ctx context.Context, id int64) (*T, error)
	GetAll(ctx context.Context) ([]*T, error)
	Find(ctx context.Context, pred Predicate) ([]*T, error)
	Exists(ctx context.Context, id int64) (bool, error)
	Add(e *T)
	Update(e *T)
	Delete(id int64)
	SaveChanges(ctx context.Context) (int64, error)
}

type opKind int

const (
	opInsert opKind = iota
	opUpdate
	opDelete
)

type change[T any] struct {
	kind   opKind
	entity *T
	id     int64
}

// Store is the provider-agnostic Repository implementation. All SQL is
// written with ? placeholders and rebound through the dialect, so the same
// store works against PostgreSQL, MySQL and SQL Server.
type Store[T any] struct {
	db       *sql.DB
	dialect  database.Dialect
	mapper   Mapper[T]
	notFound error

	mu      sync.Mutex
	pending []change[T]
}

// NewStore creates a store for one entity type. notFound is the sentinel
// returned by GetByID when no row matches.
func NewStore[T any](db *sql.DB, dialect database.Dialect, mapper Mapper[T], notFound error) *Store[T] {
	return &Store[T]{
		db:       db,
		dialect:  dialect,
		mapper:   mapper,
		notFound: notFound,
	}
}

// GetByID retrieves a single entity by primary key.
func (s *Store[T]) GetByID(ctx context.Context, id int64) (*T, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM %s WHERE id = ?",
		strings.Join(s.mapper.SelectColumns(), ", "),
		s.mapper.Table(),
	)

	entity, err := s.mapper.Scan(s.db.QueryRowContext(ctx, s.dialect.Rebind(query), id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, s.notFound
		}
		return nil, fmt.Errorf("failed to get %s by id: %w", s.mapper.Table(), err)
	}

	return entity, nil
}

// GetAll retrieves every entity, ordered by id.
func (s *Store[T]) GetAll(ctx context.Context) ([]*T, error) {
	return s.Find(ctx, Predicate{})
}

// Find retrieves all entities matching the predicate, ordered by id. An
// empty predicate matches everything.
func (s *Store[T]) Find(ctx context.Context, pred Predicate) ([]*T, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM %s",
		strings.Join(s.mapper.SelectColumns(), ", "),
		s.mapper.Table(),
	)

	expr, args := pred.SQL()
	if !pred.IsEmpty() {
		query += " WHERE " + expr
	}
	query += " ORDER BY id"

	rows, err := s.db.QueryContext(ctx, s.dialect.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", s.mapper.Table(), err)
	}
	defer rows.Close()

	entities := []*T{}
	for rows.Next() {
		entity, err := s.mapper.Scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", s.mapper.Table(), err)
		}
		entities = append(entities, entity)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s rows: %w", s.mapper.Table(), err)
	}

	return entities, nil
}

// Exists reports whether an entity with the given id is persisted. Staged
// changes are not considered.
func (s *Store[T]) Exists(ctx context.Context, id int64) (bool, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE id = ?", s.mapper.Table())

	var count int
	err := s.db.QueryRowContext(ctx, s.dialect.Rebind(query), id).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check %s existence: %w", s.mapper.Table(), err)
	}

	return count > 0, nil
}

// Add stages an insert. The entity's id is assigned during SaveChanges.
func (s *Store[T]) Add(e *T) {
	s.stage(change[T]{kind: opInsert, entity: e})
}

// Update stages a full replace of the entity's mutable fields.
func (s *Store[T]) Update(e *T) {
	s.stage(change[T]{kind: opUpdate, entity: e, id: s.mapper.ID(e)})
}

// Delete stages removal of the entity with the given id. Deleting an absent
// id is a no-op at commit time; callers needing 404 semantics must check
// Exists first.
func (s *Store[T]) Delete(id int64) {
	s.stage(change[T]{kind: opDelete, id: id})
}

func (s *Store[T]) stage(ch change[T]) {
	s.mu.Lock()
	s.pending = append(s.pending, ch)
	s.mu.Unlock()
}

// SaveChanges commits all staged mutations atomically in one transaction and
// returns the number of affected rows. On failure the transaction is rolled
// back and the staged changeset is discarded: the store is shared across
// requests, so a failed batch must never resurface in a later commit.
func (s *Store[T]) SaveChanges(ctx context.Context) (int64, error) {
	s.mu.Lock()
	staged := s.pending
	s.pending = nil
	s.mu.Unlock()

	if len(staged) == 0 {
		return 0, nil
	}

	return s.commit(ctx, staged)
}

func (s *Store[T]) commit(ctx context.Context, staged []change[T]) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var affected int64
	for _, ch := range staged {
		switch ch.kind {
		case opInsert:
			id, err := s.dialect.InsertReturningID(ctx, tx, s.mapper.Table(), s.mapper.InsertColumns(), s.mapper.InsertArgs(ch.entity)...)
			if err != nil {
				return 0, err
			}
			s.mapper.SetID(ch.entity, id)
			affected++

		case opUpdate:
			assignments := make([]string, 0, len(s.mapper.UpdateColumns()))
			for _, col := range s.mapper.UpdateColumns() {
				assignments = append(assignments, col+" = ?")
			}
			query := fmt.Sprintf(
				"UPDATE %s SET %s WHERE id = ?",
				s.mapper.Table(),
				strings.Join(assignments, ", "),
			)

			args := append(s.mapper.UpdateArgs(ch.entity), ch.id)
			result, err := tx.ExecContext(ctx, s.dialect.Rebind(query), args...)
			if err != nil {
				return 0, fmt.Errorf("failed to update %s: %w", s.mapper.Table(), err)
			}
			n, err := result.RowsAffected()
			if err != nil {
				return 0, fmt.Errorf("failed to get rows affected: %w", err)
			}
			affected += n

		case opDelete:
			query := fmt.Sprintf("DELETE FROM %s WHERE id = ?", s.mapper.Table())
			result, err := tx.ExecContext(ctx, s.dialect.Rebind(query), ch.id)
			if err != nil {
				return 0, fmt.Errorf("failed to delete from %s: %w", s.mapper.Table(), err)
			}
			n, err := result.RowsAffected()
			if err != nil {
				return 0, fmt.Errorf("failed to get rows affected: %w", err)
			}
			affected += n
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return affected, nil
}
