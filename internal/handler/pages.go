// Package handler contains the HTTP handlers: the JSON API under /api and
// the three HTML pages the Session Boundary guards.
//
// HANDLER RESPONSIBILITIES:
//  1. Parse the incoming request (query params, body, cookies)
//  2. Call the service with the caller's Identity
//  3. Write the response (status code, headers, body)
//
// Handlers hold no business rules. They are the glue between HTTP and the
// services.
package handler

import (
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sakif/todolist/internal/auth"
	"github.com/sakif/todolist/internal/model"
)

// PageHandler renders the HTML pages. Each page is base.html plus its own
// "content" template, parsed once at startup.
//
// The pages do not check the session themselves. By the time a request gets
// here, auth.Gate has already redirected anyone who should not see the page.
type PageHandler struct {
	pages    map[string]*template.Template
	identity IdentityService
	logger   *slog.Logger
}

// pageData is what every template receives.
type pageData struct {
	Title     string
	User      *model.UserSummary
	FirstName string
}

var pageTitles = map[string]string{
	"home":     "Task Manager",
	"login":    "Login · Task Manager",
	"register": "Register · Task Manager",
}

// NewPageHandler parses the templates in templates (see web.Templates).
//
// TEMPLATE COMPOSITION:
// base.html defines the page shell with a {{template "content" .}} hole;
// each page file defines "content". Parsing base with one page at a time
// keeps the three "content" definitions from overwriting each other.
func NewPageHandler(templates fs.FS, identity IdentityService, logger *slog.Logger) (*PageHandler, error) {
	pages := make(map[string]*template.Template, len(pageTitles))
	for name := range pageTitles {
		tmpl, err := template.ParseFS(templates, "base.html", name+".html")
		if err != nil {
			return nil, fmt.Errorf("handler: parsing %s page: %w", name, err)
		}
		pages[name] = tmpl
	}
	return &PageHandler{pages: pages, identity: identity, logger: logger}, nil
}

// HandleHome serves GET /.
func (h *PageHandler) HandleHome(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "home")
}

// HandleLogin serves GET /login.
func (h *PageHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "login")
}

// HandleRegister serves GET /register.
func (h *PageHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "register")
}

func (h *PageHandler) render(w http.ResponseWriter, r *http.Request, name string) {
	data := pageData{Title: pageTitles[name]}
	if user, ok := h.identity.Whoami(r.Context(), auth.IdentityFromContext(r.Context())); ok {
		data.User = user
		data.FirstName, _, _ = strings.Cut(user.Name, " ")
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.pages[name].ExecuteTemplate(w, "base", data); err != nil {
		h.logger.Error("failed to render template",
			slog.String("page", name),
			slog.String("error", err.Error()),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
