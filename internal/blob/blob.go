package blob

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
)

var (
	ErrNotFound = errors.New("blob not found")
	ErrTooLarge = errors.New("blob exceeds size limit")
)

// Blob is a stored file with its metadata.
type Blob struct {
	Path        string    `json:"path"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	UploadedAt  time.Time `json:"uploaded_at"`
	Data        []byte    `json:"-"`
}

// BadgerStore keeps uploaded files in Badger and hands out URLs under baseURL.
type BadgerStore struct {
	db      *badger.DB
	baseURL string
	maxSize int64
	logger  *zap.Logger
}

// NewBadgerStore returns a blob store. maxSize <= 0 disables the size check.
func NewBadgerStore(db *badger.DB, baseURL string, maxSize int64, logger *zap.Logger) *BadgerStore {
	return &BadgerStore{
		db:      db,
		baseURL: strings.TrimSuffix(baseURL, "/") + "/",
		maxSize: maxSize,
		logger:  logger,
	}
}

func dataKey(path string) []byte { return []byte("blob:data:" + path) }
func metaKey(path string) []byte { return []byte("blob:meta:" + path) }

// Upload stores r at path, overwriting any previous blob, and returns its public URL.
func (s *BadgerStore) Upload(ctx context.Context, path, contentType string, r io.Reader) (string, error) {
	path = strings.TrimPrefix(path, "/")
	if path == "" {
		return "", fmt.Errorf("upload: empty path")
	}

	src := r
	if s.maxSize > 0 {
		src = io.LimitReader(r, s.maxSize+1)
	}
	data, err := io.ReadAll(src)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", path, err)
	}
	if s.maxSize > 0 && int64(len(data)) > s.maxSize {
		return "", fmt.Errorf("upload %s: %w", path, ErrTooLarge)
	}

	meta := Blob{
		Path:        path,
		ContentType: contentType,
		Size:        int64(len(data)),
		UploadedAt:  time.Now(),
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return "", err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(dataKey(path), data); err != nil {
			return err
		}
		return txn.Set(metaKey(path), metaJSON)
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", path, err)
	}

	s.logger.Info("Blob uploaded", zap.String("path", path), zap.Int64("size", meta.Size))
	return s.URL(path), nil
}

// URL is the public address of path.
func (s *BadgerStore) URL(path string) string {
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return s.baseURL + strings.Join(segments, "/")
}

// Open loads the blob stored at path.
func (s *BadgerStore) Open(ctx context.Context, path string) (*Blob, error) {
	path = strings.TrimPrefix(path, "/")

	var b Blob
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(metaKey(path))
		if err != nil {
			return err
		}
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &b)
		}); err != nil {
			return err
		}

		item, err = txn.Get(dataKey(path))
		if err != nil {
			return err
		}
		b.Data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &b, nil
}
