package session

import (
	"context"
	"testing"

	"avaportal/internal/backend"
	"avaportal/pkg/oauth"

	"github.com/stretchr/testify/assert"
)

func TestSession_ValuesTolerateAbsentKeys(t *testing.T) {
	s := New("id")

	assert.Equal(t, "", s.Value(KeySelectedFile))
	assert.False(t, s.Flag(KeyEditMode))

	s.SetFlag(KeyEditMode, true)
	s.SetValue(KeySelectedFile, "faq.txt")
	assert.True(t, s.Flag(KeyEditMode))
	assert.Equal(t, "faq.txt", s.Value(KeySelectedFile))

	s.SetFlag(KeyEditMode, false)
	s.SetValue(KeySelectedFile, "")
	assert.False(t, s.Flag(KeyEditMode))
	assert.Empty(t, s.Values)
}

func TestSession_Notices(t *testing.T) {
	s := New("id")
	s.AddNotice(NoticeSuccess, "saved")
	s.AddNotice(NoticeError, "failed")

	notices := s.TakeNotices()
	assert.Equal(t, []Notice{{Kind: NoticeSuccess, Message: "saved"}, {Kind: NoticeError, Message: "failed"}}, notices)
	assert.Empty(t, s.TakeNotices(), "notices are shown once")
}

func TestSession_ResetBehavesLikeFresh(t *testing.T) {
	s := New("keep-me")
	created := s.CreatedAt
	s.AccessToken = "token"
	s.AuthState = StateAuthenticated
	s.ProviderHandle = "kp_1"
	s.Profile = &oauth.UserProfile{ID: "kp_1"}
	s.User = &backend.User{ID: "u-1"}
	s.SelectedTenant = &backend.Tenant{ID: "t-1"}
	s.SelectedTenantID = "t-1"
	s.SetFlag(KeyNewFile, true)
	s.Messages = append(s.Messages, Message{Role: "user", Content: "hi"})

	s.Reset()

	fresh := New("keep-me")
	fresh.CreatedAt = created
	fresh.UpdatedAt = s.UpdatedAt
	assert.Equal(t, fresh, s)
	assert.False(t, s.Authenticated())
}

func TestSession_CloneIsDeep(t *testing.T) {
	s := New("id")
	s.SetValue(KeySelectedFile, "a.txt")
	s.SelectedTenant = &backend.Tenant{ID: "t-1"}

	c := s.Clone()
	c.SetValue(KeySelectedFile, "b.txt")
	c.SelectedTenant.ID = "t-2"

	assert.Equal(t, "a.txt", s.Value(KeySelectedFile))
	assert.Equal(t, "t-1", s.SelectedTenant.ID)
	assert.Equal(t, s.CreatedAt, c.CreatedAt)
}

func TestContext(t *testing.T) {
	assert.Nil(t, FromContext(context.Background()))

	s := New("id")
	ctx := WithSession(context.Background(), s)
	assert.Same(t, s, FromContext(ctx))
}
