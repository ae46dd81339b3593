package domain

import (
	"errors"
	"time"
)

var (
	// ErrNoSession is returned when an operation needs a browser session and none is connected.
	ErrNoSession = errors.New("no browser session connected")
	// ErrSessionBusy is returned when the session is already held by a running scrape.
	ErrSessionBusy = errors.New("browser session is in use")
	// ErrAlreadyConnected is returned by Connect while a session is active.
	ErrAlreadyConnected = errors.New("browser session already connected")
	// ErrSessionClosed is returned by operations on a released session.
	ErrSessionClosed = errors.New("browser session closed")
)

// SessionInfo describes the attached browser session.
type SessionInfo struct {
	// Connected reports whether a session is active.
	Connected bool `json:"connected"`
	// Busy reports whether a scrape currently holds the session.
	Busy bool `json:"busy"`
	// ControlURL is the DevTools endpoint the session is attached to.
	ControlURL string `json:"control_url,omitempty"`
	// PageURL is the address of the controlled tab at connect time.
	PageURL string `json:"page_url,omitempty"`
	// ConnectedAt is when the session was attached.
	ConnectedAt time.Time `json:"connected_at,omitempty"`
}
