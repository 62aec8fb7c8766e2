package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"strings"

	"github.com/dgraph-io/badger/v4"
)

// Entity provides generic CRUD operations for any domain type.
//
// Every operation has a transaction-scoped form (the *Txn methods) so that
// several entities can be changed atomically from a single Store.update call,
// and a convenience form that opens its own transaction.
type Entity[T any] struct {
	store    *Store
	prefix   string
	notFound *Error
	indexes  []Index[T]
}

// Index defines a secondary index on an entity.
//
// Unique indexes map a value to exactly one id and reject a second entity with
// the same value. Multi indexes map a value to any number of ids and are used
// for listing (for example, chapters of a course).
type Index[T any] struct {
	name            string
	keyGen          func(*T) []string
	lookupTransform func(string) string // Optional transformation for lookups
	multi           bool
}

// NewEntity creates a new Entity instance for type T.
func NewEntity[T any](s *Store, prefix string) *Entity[T] {
	return &Entity[T]{
		store:    s,
		prefix:   prefix,
		notFound: ErrNotFound,
		indexes:  make([]Index[T], 0),
	}
}

// WithNotFound sets the error returned when a lookup misses.
func (e *Entity[T]) WithNotFound(err *Error) *Entity[T] {
	e.notFound = err
	return e
}

// WithIndex adds a unique secondary index to the entity.
func (e *Entity[T]) WithIndex(name string, keyGen func(*T) []string) *Entity[T] {
	e.indexes = append(e.indexes, Index[T]{
		name:   name,
		keyGen: keyGen,
	})
	return e
}

// WithIndexTransform adds a unique secondary index with lookup transformation.
// The lookupTransform function is applied to search values before index lookup,
// enabling case-insensitive searches, normalization, etc.
func (e *Entity[T]) WithIndexTransform(name string, keyGen func(*T) []string, lookupTransform func(string) string) *Entity[T] {
	e.indexes = append(e.indexes, Index[T]{
		name:            name,
		keyGen:          keyGen,
		lookupTransform: lookupTransform,
	})
	return e
}

// WithMultiIndex adds a non-unique secondary index to the entity.
func (e *Entity[T]) WithMultiIndex(name string, keyGen func(*T) []string) *Entity[T] {
	e.indexes = append(e.indexes, Index[T]{
		name:   name,
		keyGen: keyGen,
		multi:  true,
	})
	return e
}

// indexKeys returns every index key the entity should own.
func (e *Entity[T]) indexKeys(id string, entity *T) []string {
	var keys []string
	for _, idx := range e.indexes {
		for _, value := range idx.keyGen(entity) {
			if idx.multi {
				keys = append(keys, multiIndexKey(e.prefix, idx.name, value, id))
			} else {
				keys = append(keys, indexKey(e.prefix, idx.name, value))
			}
		}
	}
	return keys
}

// checkConflicts returns ErrAlreadyExists if a unique index value of entity is
// owned by a different id.
func (e *Entity[T]) checkConflicts(txn *badger.Txn, id string, entity *T) error {
	for _, idx := range e.indexes {
		if idx.multi {
			continue
		}
		for _, value := range idx.keyGen(entity) {
			item, err := txn.Get([]byte(indexKey(e.prefix, idx.name, value)))
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return fmt.Errorf("failed to check index key: %w", err)
			}
			owner, err := item.ValueCopy(nil)
			if err != nil {
				return fmt.Errorf("failed to read index key: %w", err)
			}
			if string(owner) != id {
				return fmt.Errorf("index %s conflict on key %s: %w", idx.name, value, ErrAlreadyExists)
			}
		}
	}
	return nil
}

// getTxn loads an entity by ID inside txn.
func (e *Entity[T]) getTxn(txn *badger.Txn, id string) (*T, error) {
	key := buildKey(e.prefix, id)
	defer releaseKey(key)

	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, e.notFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get key: %w", err)
	}

	var entity T
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &entity)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal entity: %w", err)
	}
	return &entity, nil
}

// insertTxn writes a new entity and its index keys inside txn.
func (e *Entity[T]) insertTxn(txn *badger.Txn, id string, entity *T) error {
	key := []byte(e.prefix + id)

	_, err := txn.Get(key)
	if err == nil {
		return ErrAlreadyExists
	}
	if !errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("failed to check existing key: %w", err)
	}

	if err := e.checkConflicts(txn, id, entity); err != nil {
		return err
	}

	return e.writeTxn(txn, id, entity, nil)
}

// replaceTxn overwrites an existing entity inside txn, moving its index keys.
func (e *Entity[T]) replaceTxn(txn *badger.Txn, id string, entity *T) error {
	old, err := e.getTxn(txn, id)
	if err != nil {
		return err
	}

	if err := e.checkConflicts(txn, id, entity); err != nil {
		return err
	}

	return e.writeTxn(txn, id, entity, old)
}

// writeTxn sets the document and reconciles index keys against old (nil for inserts).
func (e *Entity[T]) writeTxn(txn *badger.Txn, id string, entity, old *T) error {
	data, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("failed to marshal entity: %w", err)
	}

	newKeys := e.indexKeys(id, entity)

	if old != nil {
		keep := make(map[string]bool, len(newKeys))
		for _, k := range newKeys {
			keep[k] = true
		}
		for _, k := range e.indexKeys(id, old) {
			if keep[k] {
				continue
			}
			if err := txn.Delete([]byte(k)); err != nil {
				return fmt.Errorf("failed to delete old index key: %w", err)
			}
		}
	}

	if err := txn.Set([]byte(e.prefix+id), data); err != nil {
		return fmt.Errorf("failed to set key: %w", err)
	}

	for _, k := range newKeys {
		if err := txn.Set([]byte(k), []byte(id)); err != nil {
			return fmt.Errorf("failed to set index key: %w", err)
		}
	}

	return nil
}

// removeTxn deletes an entity and its index keys inside txn.
// Returns the removed entity, or nil if it did not exist.
func (e *Entity[T]) removeTxn(txn *badger.Txn, id string) (*T, error) {
	entity, err := e.getTxn(txn, id)
	if errors.Is(err, e.notFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	for _, k := range e.indexKeys(id, entity) {
		if err := txn.Delete([]byte(k)); err != nil {
			return nil, fmt.Errorf("failed to delete index key: %w", err)
		}
	}

	if err := txn.Delete([]byte(e.prefix + id)); err != nil {
		return nil, fmt.Errorf("failed to delete key: %w", err)
	}

	return entity, nil
}

// lookupTxn resolves a unique index value to an id.
func (e *Entity[T]) lookupTxn(txn *badger.Txn, indexName, value string) (string, error) {
	for _, idx := range e.indexes {
		if idx.name == indexName && idx.lookupTransform != nil {
			value = idx.lookupTransform(value)
			break
		}
	}

	key := buildKey(e.prefix+indexSegment+indexName+":", value)
	defer releaseKey(key)

	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", e.notFound
	}
	if err != nil {
		return "", err
	}

	id, err := item.ValueCopy(nil)
	if err != nil {
		return "", err
	}
	return string(id), nil
}

// idsTxn returns every id registered under value in a multi index, in key order.
func (e *Entity[T]) idsTxn(txn *badger.Txn, indexName, value string) ([]string, error) {
	prefix := []byte(multiIndexPrefix(e.prefix, indexName, value))

	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = false

	it := txn.NewIterator(opts)
	defer it.Close()

	var ids []string
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		key := it.Item().Key()
		ids = append(ids, string(key[len(prefix):]))
	}
	return ids, nil
}

// getManyTxn loads the entities for ids, skipping ids that no longer resolve.
func (e *Entity[T]) getManyTxn(txn *badger.Txn, ids []string) ([]*T, error) {
	out := make([]*T, 0, len(ids))
	for _, id := range ids {
		entity, err := e.getTxn(txn, id)
		if errors.Is(err, e.notFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, entity)
	}
	return out, nil
}

// Create creates a new entity with the given ID.
// Returns ErrAlreadyExists if the ID or any unique index value is taken.
func (e *Entity[T]) Create(ctx context.Context, id string, entity *T) error {
	return e.store.update(ctx, func(txn *badger.Txn) error {
		return e.insertTxn(txn, id, entity)
	})
}

// Get retrieves an entity by ID.
func (e *Entity[T]) Get(ctx context.Context, id string) (*T, error) {
	var entity *T
	err := e.store.view(ctx, func(txn *badger.Txn) error {
		var err error
		entity, err = e.getTxn(txn, id)
		return err
	})
	return entity, err
}

// GetMany retrieves the entities for ids in the given order, skipping missing ones.
func (e *Entity[T]) GetMany(ctx context.Context, ids []string) ([]*T, error) {
	var out []*T
	err := e.store.view(ctx, func(txn *badger.Txn) error {
		var err error
		out, err = e.getManyTxn(txn, ids)
		return err
	})
	return out, err
}

// GetByIndex retrieves an entity by unique secondary index.
// If the index has a lookup transform, it will be applied to the value before lookup.
func (e *Entity[T]) GetByIndex(ctx context.Context, indexName, value string) (*T, error) {
	var entity *T
	err := e.store.view(ctx, func(txn *badger.Txn) error {
		id, err := e.lookupTxn(txn, indexName, value)
		if err != nil {
			return err
		}
		entity, err = e.getTxn(txn, id)
		return err
	})
	return entity, err
}

// ListByIndex retrieves every entity registered under value in a multi index.
func (e *Entity[T]) ListByIndex(ctx context.Context, indexName, value string) ([]*T, error) {
	var out []*T
	err := e.store.view(ctx, func(txn *badger.Txn) error {
		ids, err := e.idsTxn(txn, indexName, value)
		if err != nil {
			return err
		}
		out, err = e.getManyTxn(txn, ids)
		return err
	})
	return out, err
}

// Update replaces an existing entity.
// Returns the entity's not-found error if it does not exist.
func (e *Entity[T]) Update(ctx context.Context, id string, entity *T) error {
	return e.store.update(ctx, func(txn *badger.Txn) error {
		return e.replaceTxn(txn, id, entity)
	})
}

// Delete deletes an entity by ID.
// This operation is idempotent - it does not return an error if the entity does not exist.
func (e *Entity[T]) Delete(ctx context.Context, id string) error {
	return e.store.update(ctx, func(txn *badger.Txn) error {
		_, err := e.removeTxn(txn, id)
		return err
	})
}

// List returns an iterator over all entities in key order.
func (e *Entity[T]) List(ctx context.Context) iter.Seq2[*T, error] {
	return func(yield func(*T, error) bool) {
		_ = e.store.db.View(func(txn *badger.Txn) error {
			prefix := []byte(e.prefix)
			opts := badger.DefaultIteratorOptions
			opts.Prefix = prefix
			opts.PrefetchValues = true

			it := txn.NewIterator(opts)
			defer it.Close()

			for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
				if ctx.Err() != nil {
					yield(nil, ctx.Err())
					return ctx.Err()
				}

				// Skip index keys
				if strings.HasPrefix(string(it.Item().Key()[len(prefix):]), indexSegment) {
					continue
				}

				var entity T
				err := it.Item().Value(func(val []byte) error {
					return json.Unmarshal(val, &entity)
				})
				if err != nil {
					yield(nil, err)
					return err
				}

				if !yield(&entity, nil) {
					return nil // Consumer stopped early
				}
			}

			return nil
		})
	}
}

// Collect drains List into a slice.
func (e *Entity[T]) Collect(ctx context.Context) ([]*T, error) {
	var out []*T
	for entity, err := range e.List(ctx) {
		if err != nil {
			return nil, err
		}
		out = append(out, entity)
	}
	return out, nil
}

// Modify loads an entity, lets fn change it and writes it back in one transaction.
// fn may run more than once if the transaction is replayed after a conflict, so
// it must only depend on the entity it is given.
func (e *Entity[T]) Modify(ctx context.Context, id string, fn func(*T) error) (*T, error) {
	var out *T
	err := e.store.update(ctx, func(txn *badger.Txn) error {
		entity, err := e.getTxn(txn, id)
		if err != nil {
			return err
		}
		if err := fn(entity); err != nil {
			return err
		}
		if err := e.replaceTxn(txn, id, entity); err != nil {
			return err
		}
		out = entity
		return nil
	})
	return out, err
}
