package storage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"threatdash/pkg/logger"
)

// FileBackend keeps one pretty-printed JSON array per collection under dir.
// Every write rewrites the whole file. mu serializes read-modify-write
// cycles within this process only.
type FileBackend struct {
	fs     afero.Fs
	dir    string
	mu     sync.Mutex
	logger *logger.Logger
}

// NewFileBackend creates dir when missing
func NewFileBackend(fs afero.Fs, dir string, log *logger.Logger) (*FileBackend, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create data dir %s", dir)
	}
	log = log.WithComponent("storage.file")
	log.Info().Str("data_dir", dir).Msg("using JSON file storage")
	return &FileBackend{fs: fs, dir: dir, logger: log}, nil
}

func (b *FileBackend) Name() string { return BackendFile }

func (b *FileBackend) path(collection string) string {
	return filepath.Join(b.dir, collection+".json")
}

// load reads a collection; a missing file is an empty collection
func (b *FileBackend) load(collection string) ([]json.RawMessage, error) {
	data, err := afero.ReadFile(b.fs, b.path(collection))
	if errors.Is(err, os.ErrNotExist) {
		return []json.RawMessage{}, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", collection)
	}

	var docs []json.RawMessage
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, errors.Wrapf(err, "parse %s", collection)
	}
	if docs == nil {
		docs = []json.RawMessage{}
	}
	return docs, nil
}

// save writes to a temp file and renames it over the collection file
func (b *FileBackend) save(collection string, docs []json.RawMessage) error {
	data, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return errors.Wrapf(err, "encode %s", collection)
	}

	target := b.path(collection)
	tmp := target + ".tmp"
	if err := afero.WriteFile(b.fs, tmp, data, 0o644); err != nil {
		return errors.Wrapf(err, "write %s", collection)
	}
	if err := b.fs.Rename(tmp, target); err != nil {
		return errors.Wrapf(err, "replace %s", collection)
	}
	return nil
}

func (b *FileBackend) indexOf(docs []json.RawMessage, id int64) (int, error) {
	for i, doc := range docs {
		docID, err := docID(doc)
		if err != nil {
			return -1, err
		}
		if docID == id {
			return i, nil
		}
	}
	return -1, ErrNotFound
}

func (b *FileBackend) List(_ context.Context, collection string) ([][]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	docs, err := b.load(collection)
	if err != nil {
		return nil, err
	}
	out := make([][]byte, len(docs))
	for i, doc := range docs {
		out[i] = doc
	}
	return out, nil
}

func (b *FileBackend) Get(_ context.Context, collection string, id int64) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	docs, err := b.load(collection)
	if err != nil {
		return nil, err
	}
	i, err := b.indexOf(docs, id)
	if err != nil {
		return nil, err
	}
	return docs[i], nil
}

func (b *FileBackend) Insert(_ context.Context, collection string, build BuildFunc) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	docs, err := b.load(collection)
	if err != nil {
		return 0, err
	}

	var maxID int64
	for _, doc := range docs {
		id, err := docID(doc)
		if err != nil {
			return 0, err
		}
		maxID = max(maxID, id)
	}

	id := maxID + 1
	doc, err := build(id)
	if err != nil {
		return 0, err
	}
	if err := b.save(collection, append(docs, doc)); err != nil {
		return 0, err
	}
	return id, nil
}

func (b *FileBackend) Replace(_ context.Context, collection string, id int64, doc []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	docs, err := b.load(collection)
	if err != nil {
		return err
	}
	i, err := b.indexOf(docs, id)
	if err != nil {
		return err
	}
	docs[i] = doc
	return b.save(collection, docs)
}

func (b *FileBackend) Delete(_ context.Context, collection string, id int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	docs, err := b.load(collection)
	if err != nil {
		return err
	}
	i, err := b.indexOf(docs, id)
	if err != nil {
		return err
	}
	return b.save(collection, append(docs[:i], docs[i+1:]...))
}

func (b *FileBackend) Truncate(_ context.Context, collection string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.save(collection, []json.RawMessage{})
}

// Ping checks that the data directory is still reachable
func (b *FileBackend) Ping(context.Context) error {
	info, err := b.fs.Stat(b.dir)
	if err != nil {
		return errors.Wrap(err, "stat data dir")
	}
	if !info.IsDir() {
		return errors.Errorf("%s is not a directory", b.dir)
	}
	return nil
}

func (b *FileBackend) Close() error { return nil }
