package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cookieName = "test_session"

func TestManager_LoadCreatesSessionAndCookie(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	defer store.Close()
	m := NewManager(store, cookieName)

	rec := httptest.NewRecorder()
	s, err := m.Load(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.False(t, s.Authenticated())
	assert.Equal(t, StateUnauthenticated, s.AuthState)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, cookieName, cookies[0].Name)
	assert.Equal(t, s.ID, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)
	assert.False(t, cookies[0].Secure)

	_, err = uuid.Parse(s.ID)
	assert.NoError(t, err)
}

func TestManager_LoadReusesKnownSession(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	defer store.Close()
	m := NewManager(store, cookieName)

	existing := New(uuid.NewString())
	existing.AccessToken = "token"
	require.NoError(t, store.Save(context.Background(), existing))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: cookieName, Value: existing.ID})
	rec := httptest.NewRecorder()

	s, err := m.Load(rec, req)
	require.NoError(t, err)
	assert.Equal(t, existing.ID, s.ID)
	assert.True(t, s.Authenticated())
	assert.Empty(t, rec.Result().Cookies(), "no new cookie for a known session")
}

func TestManager_LoadReplacesBadCookie(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	defer store.Close()
	m := NewManager(store, cookieName)

	for _, value := range []string{"not-a-uuid", uuid.NewString()} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Forwarded-Proto", "https")
		req.AddCookie(&http.Cookie{Name: cookieName, Value: value})
		rec := httptest.NewRecorder()

		s, err := m.Load(rec, req)
		require.NoError(t, err)
		assert.NotEqual(t, value, s.ID)

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.True(t, cookies[0].Secure)
	}
}

func TestManager_MiddlewareSavesBeforeResponse(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	defer store.Close()
	m := NewManager(store, cookieName)

	var sessionID string
	var storedAtRedirect *Session
	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := FromContext(r.Context())
		require.NotNil(t, s)
		sessionID = s.ID
		s.AuthState = StateAwaitingCallback
		http.Redirect(w, r, "https://idp.example.com/login", http.StatusFound)
		storedAtRedirect, _ = store.Get(r.Context(), s.ID)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusFound, rec.Code)
	require.NotNil(t, storedAtRedirect)
	assert.Equal(t, StateAwaitingCallback, storedAtRedirect.AuthState)

	final, err := store.Get(context.Background(), sessionID)
	require.NoError(t, err)
	assert.Equal(t, StateAwaitingCallback, final.AuthState)
}

func TestManager_MiddlewareSavesWithoutWrite(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	defer store.Close()
	m := NewManager(store, cookieName)

	var sessionID string
	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := FromContext(r.Context())
		sessionID = s.ID
		s.SetValue(KeySelectedFile, "faq.txt")
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	got, err := store.Get(context.Background(), sessionID)
	require.NoError(t, err)
	assert.Equal(t, "faq.txt", got.Value(KeySelectedFile))
}
