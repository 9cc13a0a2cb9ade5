package web

import (
	"bytes"
	"embed"
	"html/template"
	"io/fs"
	"net/http"

	"avaportal/internal/backend"
	"avaportal/internal/session"
	"avaportal/pkg/logging"

	"github.com/Masterminds/sprig/v3"
)

//go:embed templates/*.html
var templateFiles embed.FS

//go:embed static
var staticFiles embed.FS

var (
	templates = template.Must(template.New("").Funcs(sprig.FuncMap()).ParseFS(templateFiles, "templates/*.html"))
	staticFS  = mustSub(staticFiles, "static")
)

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}

// navItem is an entry of the page menu.
type navItem struct {
	Page  string
	Title string
}

var nav = []navItem{
	{Page: "chat", Title: "Chat"},
	{Page: "knowledge", Title: "Product Knowledge"},
}

// banner is a page-stopping message.
type banner struct {
	Message string
	Logout  bool
	SignIn  bool
}

type userView struct {
	Name    string
	Email   string
	Picture string
}

func newUserView(sess *session.Session) *userView {
	if sess.Profile == nil {
		return nil
	}
	return &userView{
		Name:    sess.Profile.DisplayName(),
		Email:   sess.Profile.Email,
		Picture: sess.Profile.Picture,
	}
}

type chatView struct {
	Messages []session.Message
}

type knowledgeView struct {
	Folder        string
	Files         []string
	Selected      string
	Content       string
	NewFile       bool
	EditMode      bool
	DeleteConfirm bool
	Error         string
}

// view is the data handed to the layout template.
type view struct {
	Page    string
	Nav     []navItem
	Notices []session.Notice
	Halt    *banner

	User             *userView
	Tenants          []backend.Tenant
	SelectedTenantID string
	NeedsTenant      bool

	Chat      *chatView
	Knowledge *knowledgeView
}

// render executes the layout into a buffer first so a template error still
// produces a clean 500.
func (s *Server) render(w http.ResponseWriter, status int, v *view) {
	v.Nav = nav
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, "layout", v); err != nil {
		logging.Error("Web", err, "Failed to render page %q", v.Page)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (s *Server) renderHalt(w http.ResponseWriter, status int, page string, b *banner) {
	s.render(w, status, &view{Page: page, Halt: b})
}
