// Package views renders the server-side pages of the app.
package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/isdelr/taskmanager/internal/models"
	"github.com/isdelr/taskmanager/internal/routes"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page names.
const (
	PageHome     = "home"
	PageLogin    = "login"
	PageRegister = "register"
	PageTasks    = "tasks"
)

// FormState tracks a login or register form.
type FormState string

const (
	FormIdle    FormState = "idle"
	FormError   FormState = "error"
	FormSuccess FormState = "success"
)

// HomePage is the data of the landing page.
type HomePage struct {
	User *models.User
}

// LoginPage is the data of the login form.
type LoginPage struct {
	State FormState
	Email string
	Error string
}

// RegisterPage is the data of the registration form.
type RegisterPage struct {
	State             FormState
	FirstName         string
	LastName          string
	Email             string
	Error             string
	MinPasswordLength int
	RedirectTo        string
	RedirectAfterMs   int64
}

// TaskPage is the data of the task list once the session is known.
type TaskPage struct {
	User          models.User
	Tasks         []models.Task
	ModalOpen     bool
	CreateEnabled bool
}

// Renderer executes the page templates.
type Renderer struct {
	pages map[string]*template.Template
}

var funcs = template.FuncMap{
	"route": func(name string) string {
		switch name {
		case "home":
			return routes.Home
		case "login":
			return routes.Login
		case "register":
			return routes.Register
		case "logout":
			return routes.Logout
		case "tasks":
			return routes.Tasks
		case "events":
			return routes.Events
		}
		return routes.Home
	},
}

// New parses the embedded templates.
func New() (*Renderer, error) {
	r := &Renderer{pages: make(map[string]*template.Template)}
	for _, page := range []string{PageHome, PageLogin, PageRegister, PageTasks} {
		t, err := template.New("base.html").Funcs(funcs).ParseFS(templateFS, "templates/base.html", "templates/"+page+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", page, err)
		}
		r.pages[page] = t
	}
	return r, nil
}

// Render writes page with the given status. Rendering happens into a buffer
// first so a template failure never produces a half-written page.
func (r *Renderer) Render(w http.ResponseWriter, status int, page string, data any) error {
	t, ok := r.pages[page]
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "base.html", data); err != nil {
		return fmt.Errorf("render %s: %w", page, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
