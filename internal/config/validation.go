package config

import (
	"fmt"
	"net/url"
	"strings"

	"avaportal/pkg/oauth"
)

// ValidationError represents a validation error with context
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (ve ValidationError) Error() string {
	if ve.Field == "" {
		return ve.Message
	}
	return fmt.Sprintf("field '%s': %s", ve.Field, ve.Message)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for multiple validation errors
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}
	if len(ve) == 1 {
		return ve[0].Error()
	}

	var messages []string
	for _, err := range ve {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(messages, "; "))
}

// HasErrors returns true if there are any validation errors
func (ve ValidationErrors) HasErrors() bool {
	return len(ve) > 0
}

// Err returns nil when empty so callers can use the usual err != nil check.
func (ve ValidationErrors) Err() error {
	if len(ve) == 0 {
		return nil
	}
	return ve
}

// Add adds a new validation error
func (ve *ValidationErrors) Add(field, message string, value ...interface{}) {
	var val interface{}
	if len(value) > 0 {
		val = value[0]
	}
	*ve = append(*ve, ValidationError{
		Field:   field,
		Value:   val,
		Message: message,
	})
}

// ValidateRequired checks if a required string field is not empty
func ValidateRequired(field, value, envVar string) error {
	if strings.TrimSpace(value) == "" {
		return ValidationError{
			Field:   field,
			Message: fmt.Sprintf("is required (set %s)", envVar),
		}
	}
	return nil
}

// ValidateOneOf checks if a value is in a list of allowed values
func ValidateOneOf(field, value string, allowed []string) error {
	for _, allowedValue := range allowed {
		if value == allowedValue {
			return nil
		}
	}
	return ValidationError{
		Field:   field,
		Value:   value,
		Message: fmt.Sprintf("must be one of: %s", strings.Join(allowed, ", ")),
	}
}

// ValidateURL checks that value is an absolute http(s) URL.
func ValidateURL(field, value string) error {
	u, err := url.Parse(value)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ValidationError{
			Field:   field,
			Value:   value,
			Message: "must be an absolute http(s) URL",
		}
	}
	return nil
}

// Validate checks the settings needed to serve the portal: identity provider,
// backend and session store. Storage settings are checked separately by
// ValidateStorage because they only affect the knowledge page.
func (c Config) Validate() ValidationErrors {
	var errs ValidationErrors
	add := func(err error) {
		if ve, ok := err.(ValidationError); ok {
			errs = append(errs, ve)
		}
	}

	add(ValidateRequired("auth.issuerURL", c.Auth.IssuerURL, "KINDE_ISSUER_URL"))
	add(ValidateRequired("auth.callbackURL", c.Auth.CallbackURL, "KINDE_CALLBACK_URL"))
	add(ValidateRequired("auth.clientID", c.Auth.ClientID, "KINDE_CLIENT_ID"))
	add(ValidateRequired("backend.baseURL", c.Backend.BaseURL, "BACKEND_URL"))
	add(ValidateRequired("backend.apiKey", c.Backend.APIKey, "BACKEND_API_KEY"))

	if c.Auth.IssuerURL != "" {
		add(ValidateURL("auth.issuerURL", c.Auth.IssuerURL))
	}
	if c.Auth.CallbackURL != "" {
		add(ValidateURL("auth.callbackURL", c.Auth.CallbackURL))
	}
	if c.Auth.LogoutRedirectURL != "" {
		add(ValidateURL("auth.logoutRedirectURL", c.Auth.LogoutRedirectURL))
	}
	if c.Backend.BaseURL != "" {
		add(ValidateURL("backend.baseURL", c.Backend.BaseURL))
	}
	if c.Auth.CodeVerifier != "" {
		if err := oauth.ValidateVerifier(c.Auth.CodeVerifier); err != nil {
			errs.Add("auth.codeVerifier", err.Error())
		}
	}
	if len(c.Auth.Scopes) == 0 {
		errs.Add("auth.scopes", "must request at least one scope")
	}

	add(ValidateOneOf("session.backend", c.Session.Backend, []string{SessionBackendMemory, SessionBackendRedis}))
	if c.Session.Backend == SessionBackendRedis {
		add(ValidateRequired("session.redisAddr", c.Session.RedisAddr, "AVAPORTAL_REDIS_ADDR"))
	}
	if c.Session.TTL <= 0 {
		errs.Add("session.ttl", "must be positive", c.Session.TTL)
	}
	if c.Backend.Timeout <= 0 {
		errs.Add("backend.timeout", "must be positive", c.Backend.Timeout)
	}
	if _, err := c.Server.TrustedProxyPrefixes(); err != nil {
		errs.Add("server.trustedProxies", err.Error(), c.Server.TrustedProxies)
	}

	return errs
}

// ValidateStorage checks the document store settings.
func (c Config) ValidateStorage() ValidationErrors {
	var errs ValidationErrors
	if c.Storage.UseCloud {
		if err := ValidateRequired("storage.connectionString", c.Storage.ConnectionString, "AZURE_AVA_POC_APPS_CONNECTION_STRING"); err != nil {
			errs = append(errs, err.(ValidationError))
		}
		if err := ValidateRequired("storage.container", c.Storage.Container, "KNOWLEDGE_CONTAINER"); err != nil {
			errs = append(errs, err.(ValidationError))
		}
	} else if err := ValidateRequired("storage.localDir", c.Storage.LocalDir, "KNOWLEDGE_DIR"); err != nil {
		errs = append(errs, err.(ValidationError))
	}
	if strings.ContainsAny(c.Storage.TenantFolder, `/\`) {
		errs.Add("storage.tenantFolder", "must not contain path separators", c.Storage.TenantFolder)
	}
	return errs
}
