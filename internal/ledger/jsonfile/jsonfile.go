// Package jsonfile stores the ledger as a single JSON document that is
// rewritten in full on every commit.
package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/NivBraz/domainscan/internal/ledger"
	"github.com/NivBraz/domainscan/internal/models"
)

// ensure Backend implements ledger.Backend
var _ ledger.Backend = (*Backend)(nil)

type Backend struct {
	path   string
	pretty bool
}

type Option func(*Backend)

// WithIndent writes human-readable JSON.
func WithIndent(enabled bool) Option {
	return func(b *Backend) { b.pretty = enabled }
}

func New(path string, opts ...Option) *Backend {
	b := &Backend{path: path}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Backend) Load(ctx context.Context) (*models.Ledger, error) {
	contents, err := os.ReadFile(b.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &ledger.StorageError{Op: "read", Path: b.path, Err: err}
	}

	var l models.Ledger
	if err := json.Unmarshal(contents, &l); err != nil {
		return nil, &ledger.StorageError{Op: "decode", Path: b.path, Err: err}
	}
	return &l, nil
}

// Save writes the snapshot to a temp file next to the ledger and renames it
// into place, so readers only ever see a complete document.
func (b *Backend) Save(ctx context.Context, snapshot *models.Ledger, _ models.Entry) (err error) {
	var data []byte
	if b.pretty {
		data, err = json.MarshalIndent(snapshot, "", "  ")
	} else {
		data, err = json.Marshal(snapshot)
	}
	if err != nil {
		return &ledger.StorageError{Op: "encode", Path: b.path, Err: err}
	}

	dir := filepath.Dir(b.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(b.path)+".*.tmp")
	if err != nil {
		return &ledger.StorageError{Op: "write", Path: b.path, Err: err}
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return &ledger.StorageError{Op: "write", Path: tmp.Name(), Err: err}
	}
	if err = tmp.Sync(); err != nil {
		return &ledger.StorageError{Op: "sync", Path: tmp.Name(), Err: err}
	}
	if err = tmp.Close(); err != nil {
		return &ledger.StorageError{Op: "close", Path: tmp.Name(), Err: err}
	}
	if err = os.Chmod(tmp.Name(), 0644); err != nil {
		return &ledger.StorageError{Op: "chmod", Path: tmp.Name(), Err: err}
	}
	if err = os.Rename(tmp.Name(), b.path); err != nil {
		return &ledger.StorageError{Op: "rename", Path: b.path, Err: fmt.Errorf("replace ledger: %w", err)}
	}
	return nil
}

func (b *Backend) Close() error {
	return nil
}
