package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/isdelr/taskmanager/internal/apperrors"
	"github.com/isdelr/taskmanager/internal/auth"
	"github.com/isdelr/taskmanager/internal/metrics"
	"github.com/isdelr/taskmanager/internal/models"
	"github.com/isdelr/taskmanager/internal/services"
	"github.com/isdelr/taskmanager/internal/session"
	"github.com/rs/zerolog/log"
)

// APIHandler serves the JSON API.
type APIHandler struct {
	gateway SessionGateway
	tasks   services.TaskServiceProvider
	opts    Options
}

// NewAPIHandler creates a new APIHandler.
func NewAPIHandler(gateway SessionGateway, tasks services.TaskServiceProvider, opts Options) *APIHandler {
	return &APIHandler{gateway: gateway, tasks: tasks, opts: opts}
}

// AuthPayload defines the structure for login requests.
type AuthPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterPayload defines the structure for registration requests.
type RegisterPayload struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// LogoutPayload carries the user's answer to the logout confirmation.
type LogoutPayload struct {
	Confirm bool `json:"confirm"`
}

// TaskPayload defines the structure for task creation requests.
type TaskPayload struct {
	Title string `json:"title"`
}

// Register handles new user registration.
func (h *APIHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload RegisterPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	res, err := h.gateway.Register(r.Context(), session.RegisterInput{
		Email:     payload.Email,
		Password:  payload.Password,
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
	})
	if err != nil {
		log.Error().Err(err).Str("email", payload.Email).Msg("Failed to register user")
		writeError(w, authStatus(err), apperrors.UserMessage(err))
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"user":            res.User,
		"redirectTo":      res.RedirectTo,
		"redirectAfterMs": res.RedirectAfter.Milliseconds(),
	})
}

// Login handles user authentication and sets the session cookie.
func (h *APIHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload AuthPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	sess, err := h.gateway.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		log.Warn().Err(err).Str("email", payload.Email).Msg("Failed authentication attempt")
		writeError(w, authStatus(err), apperrors.UserMessage(err))
		return
	}

	auth.SetSessionCookie(w, sess.Token, sess.ExpiresAt, h.opts.CookieSecure)
	writeJSON(w, http.StatusOK, map[string]interface{}{"token": sess.Token, "session": sess})
}

// Logout ends the current session when the payload confirms it.
func (h *APIHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var payload LogoutPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if !h.gateway.Logout(r.Context(), auth.TokenFromRequest(r), payload.Confirm) {
		writeJSON(w, http.StatusOK, map[string]bool{"loggedOut": false})
		return
	}
	auth.ClearSessionCookie(w, h.opts.CookieSecure)
	writeJSON(w, http.StatusOK, map[string]bool{"loggedOut": true})
}

// Session returns the active session, or null when there is none.
func (h *APIHandler) Session(w http.ResponseWriter, r *http.Request) {
	current, err := h.gateway.CurrentSession(r.Context(), auth.TokenFromRequest(r))
	if err != nil {
		log.Error().Err(err).Msg("Session lookup failed")
	}
	if current != nil {
		current.Token = ""
	}
	writeJSON(w, http.StatusOK, map[string]*models.Session{"session": current})
}

// ListTasks returns the task list, newest first. A failed query degrades to
// an empty list.
func (h *APIHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	current, _ := auth.SessionFromContext(r.Context())

	tasks, err := h.tasks.ListTasks(r.Context(), taskFilter(h.opts.TaskListScope, current))
	if err != nil {
		metrics.TaskListFailures.Inc()
		log.Error().Err(err).Str("user_id", current.UserID).Msg("Failed to load tasks")
		tasks = []models.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

// CreateTask creates a task owned by the current user.
func (h *APIHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	if !h.opts.TaskCreateEnabled {
		writeError(w, http.StatusNotImplemented, "task creation is disabled")
		return
	}
	current, _ := auth.SessionFromContext(r.Context())

	var payload TaskPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	task, err := h.tasks.CreateTask(r.Context(), current.UserID, payload.Title)
	if err != nil {
		if errors.Is(err, apperrors.ErrTitleRequired) {
			writeError(w, http.StatusBadRequest, apperrors.ErrTitleRequired.Error())
			return
		}
		log.Error().Err(err).Str("user_id", current.UserID).Msg("Failed to create task")
		writeError(w, http.StatusInternalServerError, apperrors.GenericMessage)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}
