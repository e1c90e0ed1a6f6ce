// Package ui holds the narrow interfaces the session lifecycle needs from
// the presentation layer, plus terminal-backed implementations for the CLI.
// Screens and layout live outside this repository; the lifecycle only ever
// resets navigation and raises notifications through these capabilities.
package ui

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// NotifyKind classifies a user-facing notification.
type NotifyKind string

const (
	NotifySuccess NotifyKind = "success"
	NotifyError   NotifyKind = "error"
)

// Navigator discards the current view stack and mounts the default root
// destination. The session manager holds this as a constructor-injected
// capability; it never reaches for an ambient navigation singleton.
type Navigator interface {
	ResetToRoot()
}

// Notifier raises a fire-and-forget, auto-dismissing notification.
// Implementations must not block the caller.
type Notifier interface {
	Notify(kind NotifyKind, message string)
}

// TermUI is the terminal implementation of both collaborator interfaces.
// ResetToRoot is a prompt reset in a terminal world; Notify writes a single
// line to the output.
type TermUI struct {
	Out    io.Writer
	Logger *slog.Logger
}

func NewTermUI(logger *slog.Logger) *TermUI {
	return &TermUI{Out: os.Stdout, Logger: logger}
}

func (t *TermUI) ResetToRoot() {
	fmt.Fprintln(t.Out, "-- returned to main menu --")
	if t.Logger != nil {
		t.Logger.Debug("navigation reset to root")
	}
}

func (t *TermUI) Notify(kind NotifyKind, message string) {
	fmt.Fprintf(t.Out, "[%s] %s\n", kind, message)
	if t.Logger != nil {
		t.Logger.Debug("notification raised", "kind", kind, "message", message)
	}
}
