// Package routes names the client-navigated paths of the app.
package routes

const (
	Home     = "/"
	Login    = "/auth/login"
	Register = "/auth/register"
	Logout   = "/auth/logout"
	Tasks    = "/task"
	Events   = "/ws"
)
