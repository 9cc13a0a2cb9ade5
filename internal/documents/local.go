package documents

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"avaportal/pkg/logging"
)

// LocalStore keeps documents in a directory tree: one sub-directory per scope.
type LocalStore struct {
	root string
}

// NewLocalStore creates the root directory if needed.
func NewLocalStore(root string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create knowledge directory: %w", err)
	}
	return &LocalStore{root: root}, nil
}

func (ls *LocalStore) dir(scope string) (string, error) {
	if scope == "" {
		return ls.root, nil
	}
	if strings.ContainsAny(scope, `/\`) || scope == "." || scope == ".." {
		return "", fmt.Errorf("invalid scope %q", scope)
	}
	return filepath.Join(ls.root, scope), nil
}

func (ls *LocalStore) path(scope, name string) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}
	dir, err := ls.dir(scope)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// List returns the sorted .txt file names directly inside the scope directory.
func (ls *LocalStore) List(_ context.Context, scope string) ([]string, error) {
	dir, err := ls.dir(scope)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("list documents: %w", err)
	}
	names := []string{}
	for _, e := range entries {
		if e.Type().IsRegular() && strings.HasSuffix(e.Name(), Extension) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Read returns the document text.
func (ls *LocalStore) Read(_ context.Context, scope, name string) (string, error) {
	p, err := ls.path(scope, name)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("read %s: %w", name, err)
	}
	return string(data), nil
}

// Write creates or overwrites a document.
func (ls *LocalStore) Write(_ context.Context, scope, name, text string) error {
	p, err := ls.path(scope, name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("create scope directory: %w", err)
	}
	if err := os.WriteFile(p, []byte(text), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	logging.Debug("Documents", "Wrote %s (%d bytes)", p, len(text))
	return nil
}

// Delete removes a document.
func (ls *LocalStore) Delete(_ context.Context, scope, name string) error {
	p, err := ls.path(scope, name)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("delete %s: %w", name, err)
	}
	logging.Debug("Documents", "Deleted %s", p)
	return nil
}
