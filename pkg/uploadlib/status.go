package uploadlib

import "strings"

// LoginStatus is the session state of a Connection.
type LoginStatus int

const (
	// StatusDisconnected: no session, before the first login or after Disconnect.
	StatusDisconnected LoginStatus = iota
	// StatusLoggedIn: the server accepted the credentials, uploads may start.
	StatusLoggedIn
	// StatusLoggedOut: the session was ended by Logout.
	StatusLoggedOut
	// StatusRefused: the server rejected the credentials.
	StatusRefused
	// StatusUnknown: the login response matched no known marker.
	StatusUnknown
)

func (s LoginStatus) String() string {
	switch s {
	case StatusLoggedIn:
		return "LOGGED_IN"
	case StatusLoggedOut:
		return "LOGGED_OUT"
	case StatusRefused:
		return "REFUSED"
	case StatusUnknown:
		return "UNKNOWN"
	case StatusDisconnected:
		return "DISCONNECTED"
	default:
		return "INVALID"
	}
}

// Response markers of the forum. They are matched byte for byte against
// the ISO-8859-1 decoded response body and must not be translated.
const (
	MarkerLoginSuccess = "Seite wird geladen, einen Moment bitte..."
	MarkerLoginRefused = "Login Problem: Falscher Username"
	MarkerLoggedOut    = "Der User wurde auf diesem Rechner ausgeloggt..."
)

// Classify maps a login response body to a LoginStatus. A body carrying
// both markers counts as refused.
func Classify(body string) LoginStatus {
	switch {
	case strings.Contains(body, MarkerLoginRefused):
		return StatusRefused
	case strings.Contains(body, MarkerLoginSuccess):
		return StatusLoggedIn
	default:
		return StatusUnknown
	}
}

// IsLoggedOut reports whether a logout response confirms the logout.
func IsLoggedOut(body string) bool {
	return strings.Contains(body, MarkerLoggedOut)
}
