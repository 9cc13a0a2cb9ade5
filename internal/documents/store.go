package documents

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Extension is the only document type the portal manages.
const Extension = ".txt"

var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("document not found")

	// ErrInvalidName is returned for names that are empty or contain path elements.
	ErrInvalidName = errors.New("invalid document name")
)

// Store is a flat collection of text documents grouped by scope. A scope is a
// tenant folder; the empty scope is the store root.
type Store interface {
	List(ctx context.Context, scope string) ([]string, error)
	Read(ctx context.Context, scope, name string) (string, error)
	Write(ctx context.Context, scope, name, text string) error
	Delete(ctx context.Context, scope, name string) error
}

// NormalizeName trims whitespace and appends the .txt extension when missing.
func NormalizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" || strings.HasSuffix(name, Extension) {
		return name
	}
	return name + Extension
}

// ValidateName rejects names that could escape the scope.
func ValidateName(name string) error {
	switch {
	case strings.TrimSpace(name) == "", name == Extension:
		return fmt.Errorf("%w: name is empty", ErrInvalidName)
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidName, name)
	case strings.Contains(name, ".."):
		return fmt.Errorf("%w: %q contains '..'", ErrInvalidName, name)
	case !strings.HasSuffix(name, Extension):
		return fmt.Errorf("%w: %q is not a %s file", ErrInvalidName, name, Extension)
	}
	return nil
}

// Rename moves a document by writing text under newName and then deleting
// oldName. When the names are equal it is a plain write. A *NotifyError from
// the write does not stop the delete; it is returned once both steps ran.
func Rename(ctx context.Context, store Store, scope, oldName, newName, text string) error {
	writeErr := store.Write(ctx, scope, newName, text)
	var notifyErr *NotifyError
	if writeErr != nil && !errors.As(writeErr, &notifyErr) {
		return writeErr
	}
	if oldName == newName {
		return writeErr
	}
	if err := store.Delete(ctx, scope, oldName); err != nil {
		return err
	}
	return writeErr
}
