package documents

import (
	"context"
	"fmt"

	"avaportal/internal/telemetry"
	"avaportal/pkg/logging"
)

// Reembedder asks the backend to rebuild a tenant's document embeddings.
type Reembedder interface {
	ReembedTenantDocuments(ctx context.Context, bearerToken, tenantID string) error
}

// NotifyError reports that a write or delete succeeded but the re-embed
// request that follows it failed. The change is not rolled back.
type NotifyError struct {
	Op   string
	Name string
	Err  error
}

func (e *NotifyError) Error() string {
	return fmt.Sprintf("%s of %s succeeded but re-embedding failed: %v", e.Op, e.Name, e.Err)
}

func (e *NotifyError) Unwrap() error {
	return e.Err
}

// reembedding decorates a Store so every successful write or delete is
// followed by a re-embed request on behalf of one user and tenant. Every
// operation is counted.
type reembedding struct {
	Store
	notifier    Reembedder
	bearerToken string
	tenantID    string
}

// Reembedding wraps store for a single request. The wrapper is cheap and is
// meant to be built per request with the signed-in user's token.
func Reembedding(store Store, notifier Reembedder, bearerToken, tenantID string) Store {
	return &reembedding{Store: store, notifier: notifier, bearerToken: bearerToken, tenantID: tenantID}
}

func (r *reembedding) List(ctx context.Context, scope string) ([]string, error) {
	names, err := r.Store.List(ctx, scope)
	telemetry.DocumentOperations.WithLabelValues("list", telemetry.Result(err)).Inc()
	return names, err
}

func (r *reembedding) Read(ctx context.Context, scope, name string) (string, error) {
	text, err := r.Store.Read(ctx, scope, name)
	telemetry.DocumentOperations.WithLabelValues("read", telemetry.Result(err)).Inc()
	return text, err
}

func (r *reembedding) Write(ctx context.Context, scope, name, text string) error {
	err := r.Store.Write(ctx, scope, name, text)
	telemetry.DocumentOperations.WithLabelValues("write", telemetry.Result(err)).Inc()
	if err != nil {
		return err
	}
	return r.notify(ctx, "write", name)
}

func (r *reembedding) Delete(ctx context.Context, scope, name string) error {
	err := r.Store.Delete(ctx, scope, name)
	telemetry.DocumentOperations.WithLabelValues("delete", telemetry.Result(err)).Inc()
	if err != nil {
		return err
	}
	return r.notify(ctx, "delete", name)
}

func (r *reembedding) notify(ctx context.Context, op, name string) error {
	if err := r.notifier.ReembedTenantDocuments(ctx, r.bearerToken, r.tenantID); err != nil {
		logging.Error("Documents", err, "Re-embed after %s of %s failed", op, name)
		telemetry.DocumentOperations.WithLabelValues("reembed", "error").Inc()
		return &NotifyError{Op: op, Name: name, Err: err}
	}
	telemetry.DocumentOperations.WithLabelValues("reembed", "ok").Inc()
	return nil
}
