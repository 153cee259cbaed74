package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"oli-admin/internal/model"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BadgerStore keeps every document as JSON under "doc:<kind>:<id>".
type BadgerStore struct {
	db     *badger.DB
	logger *zap.Logger
	now    func() time.Time
}

// NewBadgerStore wraps an open database. The caller owns db and closes it.
func NewBadgerStore(db *badger.DB, logger *zap.Logger) *BadgerStore {
	return &BadgerStore{db: db, logger: logger, now: time.Now}
}

func docKey(kind model.Kind, id string) []byte {
	return []byte(fmt.Sprintf("doc:%s:%s", kind, id))
}

func docPrefix(kind model.Kind) []byte {
	return []byte(fmt.Sprintf("doc:%s:", kind))
}

// FetchAll reads both collections in one read transaction, newest first.
func (s *BadgerStore) FetchAll(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		if snap.Items, err = scan[model.Item](txn, docPrefix(model.KindItem)); err != nil {
			return err
		}
		snap.Articles, err = scan[model.Article](txn, docPrefix(model.KindArticle))
		return err
	})
	if err != nil {
		return Snapshot{}, fmt.Errorf("fetch all: %w", err)
	}

	sort.SliceStable(snap.Items, func(i, j int) bool {
		return snap.Items[i].CreatedAt.After(snap.Items[j].CreatedAt)
	})
	sort.SliceStable(snap.Articles, func(i, j int) bool {
		return snap.Articles[i].CreatedAt.After(snap.Articles[j].CreatedAt)
	})
	return snap, nil
}

func (s *BadgerStore) CreateItem(ctx context.Context, item model.Item) (string, error) {
	item.ID = uuid.NewString()
	item.CreatedAt = s.now()
	item.UpdatedAt = item.CreatedAt
	if err := s.put(docKey(model.KindItem, item.ID), item); err != nil {
		return "", fmt.Errorf("create item: %w", err)
	}
	s.logger.Debug("Item created", zap.String("id", item.ID))
	return item.ID, nil
}

func (s *BadgerStore) UpdateItem(ctx context.Context, id string, item model.Item) error {
	key := docKey(model.KindItem, id)
	err := s.db.Update(func(txn *badger.Txn) error {
		var current model.Item
		if err := get(txn, key, &current); err != nil {
			return err
		}
		item.ID = id
		item.CreatedAt = current.CreatedAt
		item.UpdatedAt = s.now()
		return set(txn, key, item)
	})
	if err != nil {
		return fmt.Errorf("update item %s: %w", id, err)
	}
	return nil
}

func (s *BadgerStore) DeleteItem(ctx context.Context, id string) error {
	if err := s.delete(docKey(model.KindItem, id)); err != nil {
		return fmt.Errorf("delete item %s: %w", id, err)
	}
	return nil
}

func (s *BadgerStore) CreateArticle(ctx context.Context, article model.Article) (string, error) {
	article.ID = uuid.NewString()
	article.CreatedAt = s.now()
	article.UpdatedAt = article.CreatedAt
	if err := s.put(docKey(model.KindArticle, article.ID), article); err != nil {
		return "", fmt.Errorf("create article: %w", err)
	}
	s.logger.Debug("Article created", zap.String("id", article.ID))
	return article.ID, nil
}

func (s *BadgerStore) UpdateArticle(ctx context.Context, id string, article model.Article) error {
	key := docKey(model.KindArticle, id)
	err := s.db.Update(func(txn *badger.Txn) error {
		var current model.Article
		if err := get(txn, key, &current); err != nil {
			return err
		}
		article.ID = id
		article.CreatedAt = current.CreatedAt
		article.UpdatedAt = s.now()
		return set(txn, key, article)
	})
	if err != nil {
		return fmt.Errorf("update article %s: %w", id, err)
	}
	return nil
}

func (s *BadgerStore) DeleteArticle(ctx context.Context, id string) error {
	if err := s.delete(docKey(model.KindArticle, id)); err != nil {
		return fmt.Errorf("delete article %s: %w", id, err)
	}
	return nil
}

func (s *BadgerStore) put(key []byte, doc any) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return set(txn, key, doc)
	})
}

func (s *BadgerStore) delete(key []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
}

func set(txn *badger.Txn, key []byte, doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return txn.Set(key, data)
}

func get(txn *badger.Txn, key []byte, out any) error {
	it, err := txn.Get(key)
	if err != nil {
		return notFound(err)
	}
	return it.Value(func(val []byte) error {
		return json.Unmarshal(val, out)
	})
}

func scan[T any](txn *badger.Txn, prefix []byte) ([]T, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	defer it.Close()

	docs := []T{}
	for it.Rewind(); it.Valid(); it.Next() {
		var doc T
		err := it.Item().Value(func(val []byte) error {
			return json.Unmarshal(val, &doc)
		})
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", it.Item().Key(), err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func notFound(err error) error {
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrNotFound
	}
	return err
}
