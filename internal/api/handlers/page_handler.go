package handlers

import (
	"net/http"

	"github.com/isdelr/taskmanager/internal/apperrors"
	"github.com/isdelr/taskmanager/internal/auth"
	"github.com/isdelr/taskmanager/internal/metrics"
	"github.com/isdelr/taskmanager/internal/models"
	"github.com/isdelr/taskmanager/internal/routes"
	"github.com/isdelr/taskmanager/internal/services"
	"github.com/isdelr/taskmanager/internal/session"
	"github.com/isdelr/taskmanager/internal/views"
	"github.com/rs/zerolog/log"
)

// PageHandler serves the HTML views.
type PageHandler struct {
	gateway SessionGateway
	tasks   services.TaskServiceProvider
	views   *views.Renderer
	opts    Options
}

// NewPageHandler creates a new PageHandler.
func NewPageHandler(gateway SessionGateway, tasks services.TaskServiceProvider, renderer *views.Renderer, opts Options) *PageHandler {
	return &PageHandler{gateway: gateway, tasks: tasks, views: renderer, opts: opts}
}

func (h *PageHandler) render(w http.ResponseWriter, status int, page string, data any) {
	if err := h.views.Render(w, status, page, data); err != nil {
		log.Error().Err(err).Str("page", page).Msg("Failed to render page")
		http.Error(w, apperrors.GenericMessage, http.StatusInternalServerError)
	}
}

// Home renders the landing page.
func (h *PageHandler) Home(w http.ResponseWriter, r *http.Request) {
	var data views.HomePage
	current, err := h.gateway.CurrentSession(r.Context(), auth.TokenFromRequest(r))
	if err != nil {
		log.Warn().Err(err).Msg("Session lookup on home page failed")
	}
	if current != nil {
		data.User = &current.User
	}
	h.render(w, http.StatusOK, views.PageHome, data)
}

// LoginForm renders the idle login form.
func (h *PageHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, views.PageLogin, views.LoginPage{State: views.FormIdle})
}

// Login handles login form submission.
func (h *PageHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render(w, http.StatusBadRequest, views.PageLogin, views.LoginPage{State: views.FormError, Error: apperrors.GenericMessage})
		return
	}
	email := r.PostForm.Get("email")

	sess, err := h.gateway.Login(r.Context(), email, r.PostForm.Get("password"))
	if err != nil {
		log.Warn().Err(err).Str("email", email).Msg("Failed authentication attempt")
		h.render(w, authStatus(err), views.PageLogin, views.LoginPage{
			State: views.FormError,
			Email: email,
			Error: apperrors.UserMessage(err),
		})
		return
	}

	auth.SetSessionCookie(w, sess.Token, sess.ExpiresAt, h.opts.CookieSecure)
	http.Redirect(w, r, routes.Tasks, http.StatusSeeOther)
}

// RegisterForm renders the idle registration form.
func (h *PageHandler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, views.PageRegister, views.RegisterPage{
		State:             views.FormIdle,
		MinPasswordLength: h.opts.MinPasswordLength,
	})
}

// Register handles registration form submission.
func (h *PageHandler) Register(w http.ResponseWriter, r *http.Request) {
	page := views.RegisterPage{MinPasswordLength: h.opts.MinPasswordLength}
	if err := r.ParseForm(); err != nil {
		page.State, page.Error = views.FormError, apperrors.GenericMessage
		h.render(w, http.StatusBadRequest, views.PageRegister, page)
		return
	}
	in := session.RegisterInput{
		Email:     r.PostForm.Get("email"),
		Password:  r.PostForm.Get("password"),
		FirstName: r.PostForm.Get("first_name"),
		LastName:  r.PostForm.Get("last_name"),
	}
	page.Email, page.FirstName, page.LastName = in.Email, in.FirstName, in.LastName

	res, err := h.gateway.Register(r.Context(), in)
	if err != nil {
		log.Error().Err(err).Str("email", in.Email).Msg("Failed to register user")
		page.State, page.Error = views.FormError, apperrors.UserMessage(err)
		h.render(w, authStatus(err), views.PageRegister, page)
		return
	}

	page.State = views.FormSuccess
	page.RedirectTo = res.RedirectTo
	page.RedirectAfterMs = res.RedirectAfter.Milliseconds()
	h.render(w, http.StatusOK, views.PageRegister, page)
}

// Tasks renders the task list for the guarded session.
func (h *PageHandler) Tasks(w http.ResponseWriter, r *http.Request) {
	current, _ := auth.SessionFromContext(r.Context())

	tasks, err := h.tasks.ListTasks(r.Context(), taskFilter(h.opts.TaskListScope, current))
	if err != nil {
		metrics.TaskListFailures.Inc()
		log.Error().Err(err).Str("user_id", current.UserID).Msg("Failed to load tasks")
		tasks = []models.Task{}
	}

	h.render(w, http.StatusOK, views.PageTasks, views.TaskPage{
		User:          current.User,
		Tasks:         tasks,
		ModalOpen:     r.URL.Query().Get("modal") == "new",
		CreateEnabled: h.opts.TaskCreateEnabled,
	})
}

// SubmitTask handles the new-task modal. The modal always closes; the task is
// only persisted when task creation is enabled.
func (h *PageHandler) SubmitTask(w http.ResponseWriter, r *http.Request) {
	current, _ := auth.SessionFromContext(r.Context())

	if h.opts.TaskCreateEnabled {
		if _, err := h.tasks.CreateTask(r.Context(), current.UserID, r.FormValue("title")); err != nil {
			log.Error().Err(err).Str("user_id", current.UserID).Msg("Failed to create task")
		}
	}
	http.Redirect(w, r, routes.Tasks, http.StatusSeeOther)
}

// Logout ends the session once the user confirmed; otherwise the user stays
// on the task list.
func (h *PageHandler) Logout(w http.ResponseWriter, r *http.Request) {
	confirmed := r.FormValue("confirm") == "true"
	if !h.gateway.Logout(r.Context(), auth.TokenFromRequest(r), confirmed) {
		http.Redirect(w, r, routes.Tasks, http.StatusSeeOther)
		return
	}
	auth.ClearSessionCookie(w, h.opts.CookieSecure)
	http.Redirect(w, r, routes.Home, http.StatusSeeOther)
}
