package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"loan-tracker/pkg/id"
)

// URLPrefix is where echo serves the upload directory.
const URLPrefix = "/uploads/"

// LocalStore keeps proof-of-payment files on local disk.
type LocalStore struct {
	dir     string
	baseURL string
}

func NewLocalStore(dir, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create %s: %w", dir, err)
	}
	return &LocalStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *LocalStore) Dir() string { return s.dir }

// Put writes r under a random name that keeps the original extension and
// returns the public URL of the file.
func (s *LocalStore) Put(ctx context.Context, name string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	fileName := id.NewID32() + strings.ToLower(filepath.Ext(filepath.Base(name)))

	f, err := os.OpenFile(filepath.Join(s.dir, fileName), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("storage: create: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("storage: write: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("storage: close: %w", err)
	}
	return s.baseURL + URLPrefix + fileName, nil
}

// Remove deletes a file returned by Put. A file that is already gone is not
// an error; URLs that do not point into this store are.
func (s *LocalStore) Remove(_ context.Context, url string) error {
	name, ok := strings.CutPrefix(url, s.baseURL+URLPrefix)
	if !ok || name == "" || name != filepath.Base(name) || name == ".." {
		return fmt.Errorf("storage: %q is not a stored file", url)
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("storage: remove: %w", err)
	}
	return nil
}
