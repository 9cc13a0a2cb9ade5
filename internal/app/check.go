package app

import (
	"context"
	"fmt"

	"avaportal/internal/backend"
	"avaportal/internal/config"
	"avaportal/internal/oauth"
)

// CheckResult is the outcome of one probe.
type CheckResult struct {
	Name   string
	OK     bool
	Detail string
}

// Check probes everything the portal depends on. It never stops early so
// the report shows every problem at once.
func Check(ctx context.Context, cfg config.Config) []CheckResult {
	var results []CheckResult
	add := func(name string, err error, detail string) {
		r := CheckResult{Name: name, OK: err == nil, Detail: detail}
		if err != nil {
			r.Detail = err.Error()
		}
		results = append(results, r)
	}

	add("configuration", cfg.Validate().Err(), "valid")
	add("storage configuration", cfg.ValidateStorage().Err(), storageKind(cfg.Storage))

	if cfg.Backend.BaseURL == "" {
		add("backend", fmt.Errorf("backend.baseURL is not set"), "")
	} else {
		client := backend.NewClient(cfg.Backend.BaseURL, cfg.Backend.APIKey, backend.WithTimeout(cfg.Backend.Timeout))
		var err error
		if !client.Health(ctx) {
			err = fmt.Errorf("%s is not healthy", cfg.Backend.BaseURL)
		}
		add("backend", err, cfg.Backend.BaseURL)
	}

	if cfg.Auth.IssuerURL == "" {
		add("identity provider", fmt.Errorf("auth.issuerURL is not set"), "")
	} else {
		meta, err := oauth.NewClient(cfg.Auth).Metadata(ctx)
		detail := ""
		if err == nil {
			detail = meta.AuthorizationEndpoint
		}
		add("identity provider", err, detail)
	}

	sessions, err := NewSessionStore(ctx, cfg.Session)
	if err == nil {
		_ = sessions.Close()
	}
	add("session store", err, cfg.Session.Backend)

	store, err := NewDocumentStore(cfg.Storage)
	if err == nil {
		var files []string
		files, err = store.List(ctx, cfg.Storage.TenantFolder)
		if err == nil {
			add("document store", nil, fmt.Sprintf("%d documents in %q", len(files), cfg.Storage.TenantFolder))
		}
	}
	if err != nil {
		add("document store", err, "")
	}

	return results
}

// Failed reports whether any probe failed.
func Failed(results []CheckResult) bool {
	for _, r := range results {
		if !r.OK {
			return true
		}
	}
	return false
}
