package web

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"avaportal/internal/documents"
	"avaportal/internal/session"
	"avaportal/internal/tenancy"
	"avaportal/pkg/logging"

	"github.com/go-chi/chi/v5"
)

const (
	pageChat      = "chat"
	pageKnowledge = "knowledge"
)

// Knowledge page texts.
const (
	msgNeedFileName    = "Please enter a file name"
	msgReembedOK       = "Documents re-embedded successfully"
	msgReembedFailed   = "Failed to re-embed documents"
	msgSelectTenant    = "Please select a tenant first"
	msgUnknownTenant   = "The selected tenant is not available"
	msgStorageDisabled = "Product knowledge storage is not configured: "
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.showPage(w, r, pageChat)
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	page := chi.URLParam(r, "page")
	if page != pageChat && page != pageKnowledge {
		http.NotFound(w, r)
		return
	}
	s.showPage(w, r, page)
}

func (s *Server) showPage(w http.ResponseWriter, r *http.Request, page string) {
	st, ok := s.prepare(w, r, page)
	if !ok {
		return
	}

	switch page {
	case pageChat:
		st.view.Chat = &chatView{Messages: st.sess.Messages}
	case pageKnowledge:
		if s.deps.StorageErr != nil {
			s.renderHalt(w, http.StatusServiceUnavailable, page, &banner{Message: msgStorageDisabled + s.deps.StorageErr.Error()})
			return
		}
		if !st.view.NeedsTenant {
			st.view.Knowledge = s.knowledgeView(r, st.sess)
		}
	}
	st.view.Notices = st.sess.TakeNotices()
	s.render(w, http.StatusOK, st.view)
}

func (s *Server) knowledgeView(r *http.Request, sess *session.Session) *knowledgeView {
	ctx := r.Context()
	store := s.documentsFor(sess)
	kv := &knowledgeView{
		Folder:        s.folder(sess),
		NewFile:       sess.Flag(session.KeyNewFile),
		EditMode:      sess.Flag(session.KeyEditMode),
		DeleteConfirm: sess.Flag(session.KeyDeleteConfirm),
	}

	files, err := store.List(ctx, kv.Folder)
	if err != nil {
		logging.Error("Web", err, "Failed to list documents in %q", kv.Folder)
		kv.Error = "Failed to list documents: " + err.Error()
		return kv
	}
	kv.Files = files

	if kv.NewFile {
		return kv
	}
	selected := sess.Value(session.KeySelectedFile)
	if selected == "" {
		return kv
	}
	if !slices.Contains(files, selected) {
		clearSelection(sess)
		kv.EditMode, kv.DeleteConfirm = false, false
		return kv
	}

	content, err := store.Read(ctx, kv.Folder, selected)
	if err != nil {
		logging.Error("Web", err, "Failed to read document %q", selected)
		kv.Error = fmt.Sprintf("Failed to read %s: %v", selected, err)
		return kv
	}
	kv.Selected = selected
	kv.Content = content
	return kv
}

func (s *Server) handleKnowledgeAction(w http.ResponseWriter, r *http.Request) {
	st, ok := s.prepare(w, r, pageKnowledge)
	if !ok {
		return
	}
	if s.deps.StorageErr != nil {
		s.renderHalt(w, http.StatusServiceUnavailable, pageKnowledge, &banner{Message: msgStorageDisabled + s.deps.StorageErr.Error()})
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	sess := st.sess
	if st.view.NeedsTenant {
		sess.AddNotice(session.NoticeWarning, msgSelectTenant)
		http.Redirect(w, r, "/pages/knowledge", http.StatusSeeOther)
		return
	}

	ctx := r.Context()
	store := s.documentsFor(sess)
	folder := s.folder(sess)
	selected := sess.Value(session.KeySelectedFile)

	switch r.PostForm.Get("action") {
	case "select":
		clearSelection(sess)
		sess.SetValue(session.KeySelectedFile, r.PostForm.Get("file"))

	case "new":
		clearSelection(sess)
		sess.SetFlag(session.KeyNewFile, true)

	case "cancel":
		sess.SetFlag(session.KeyNewFile, false)
		sess.SetFlag(session.KeyEditMode, false)

	case "create":
		name := documents.NormalizeName(r.PostForm.Get("name"))
		if !validName(sess, name) {
			break
		}
		err := store.Write(ctx, folder, name, r.PostForm.Get("content"))
		if reportChange(sess, err, fmt.Sprintf("File %s added successfully", name)) {
			sess.SetFlag(session.KeyNewFile, false)
			sess.SetValue(session.KeySelectedFile, name)
		}

	case "edit":
		if selected != "" {
			sess.SetFlag(session.KeyEditMode, true)
			sess.SetFlag(session.KeyDeleteConfirm, false)
		}

	case "save":
		name := documents.NormalizeName(r.PostForm.Get("name"))
		if selected == "" || !validName(sess, name) {
			break
		}
		err := documents.Rename(ctx, store, folder, selected, name, r.PostForm.Get("content"))
		if reportChange(sess, err, "Changes saved successfully") {
			sess.SetFlag(session.KeyEditMode, false)
			sess.SetValue(session.KeySelectedFile, name)
		}

	case "delete":
		if selected != "" {
			sess.SetFlag(session.KeyDeleteConfirm, true)
		}

	case "cancel-delete":
		sess.SetFlag(session.KeyDeleteConfirm, false)

	case "confirm-delete":
		sess.SetFlag(session.KeyDeleteConfirm, false)
		if selected == "" {
			break
		}
		err := store.Delete(ctx, folder, selected)
		if reportChange(sess, err, "Deleted "+selected) {
			sess.SetValue(session.KeySelectedFile, "")
		}

	default:
		http.Error(w, "unknown action", http.StatusBadRequest)
		return
	}

	http.Redirect(w, r, "/pages/knowledge", http.StatusSeeOther)
}

func (s *Server) handleChatPost(w http.ResponseWriter, r *http.Request) {
	st, ok := s.prepare(w, r, pageChat)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	if msg := strings.TrimSpace(r.PostForm.Get("message")); msg != "" {
		st.sess.Messages = append(st.sess.Messages, session.Message{Role: "user", Content: msg, At: time.Now().UTC()})
	}
	http.Redirect(w, r, "/pages/chat", http.StatusSeeOther)
}

func (s *Server) handleSelectTenant(w http.ResponseWriter, r *http.Request) {
	st, ok := s.prepare(w, r, "")
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	sess := st.sess
	previous := sess.SelectedTenantID
	if err := tenancy.Select(sess, sess.Tenants, r.PostForm.Get("tenant_id")); err != nil {
		sess.AddNotice(session.NoticeError, msgUnknownTenant)
	} else if sess.SelectedTenantID != previous {
		clearSelection(sess)
		logging.Info("Web", "Session=%s switched to tenant %s", logging.TruncateSessionID(sess.ID), sess.SelectedTenantID)
	}
	http.Redirect(w, r, returnPath(r.PostForm.Get("return")), http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	res := s.deps.Auth.Logout(r.Context(), session.FromContext(r.Context()))
	http.Redirect(w, r, res.Location, http.StatusSeeOther)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	res := s.deps.Auth.Restart(r.Context(), session.FromContext(r.Context()))
	if !s.follow(w, r, res) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	res := s.deps.Auth.Register(r.Context(), session.FromContext(r.Context()))
	if !s.follow(w, r, res) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

// documentsFor returns the store for one request, acting for the signed-in
// user and selected tenant.
func (s *Server) documentsFor(sess *session.Session) documents.Store {
	return documents.Reembedding(s.deps.Documents, s.deps.Backend, sess.AccessToken, sess.SelectedTenantID)
}

func (s *Server) folder(sess *session.Session) string {
	return tenancy.Folder(s.cfg.Storage.TenantFolder, sess)
}

// reportChange turns the outcome of a write or delete into notices. It
// returns false when the change itself failed.
func reportChange(sess *session.Session, err error, success string) bool {
	var notifyErr *documents.NotifyError
	switch {
	case err == nil:
		sess.AddNotice(session.NoticeSuccess, success)
		sess.AddNotice(session.NoticeSuccess, msgReembedOK)
		return true
	case errors.As(err, &notifyErr):
		sess.AddNotice(session.NoticeSuccess, success)
		sess.AddNotice(session.NoticeError, msgReembedFailed)
		return true
	default:
		sess.AddNotice(session.NoticeError, err.Error())
		return false
	}
}

func validName(sess *session.Session, name string) bool {
	if name == "" {
		sess.AddNotice(session.NoticeError, msgNeedFileName)
		return false
	}
	if err := documents.ValidateName(name); err != nil {
		sess.AddNotice(session.NoticeError, err.Error())
		return false
	}
	return true
}

// clearSelection resets the knowledge page to its empty state.
func clearSelection(sess *session.Session) {
	sess.SetValue(session.KeySelectedFile, "")
	sess.SetFlag(session.KeyNewFile, false)
	sess.SetFlag(session.KeyEditMode, false)
	sess.SetFlag(session.KeyDeleteConfirm, false)
}

// returnPath keeps redirects inside the app.
func returnPath(p string) string {
	if p == "/pages/"+pageChat || p == "/pages/"+pageKnowledge {
		return p
	}
	return "/"
}
