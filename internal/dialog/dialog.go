// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dialog describes the file and confirmation dialogs the core asks
// its host to show. Each dialog kind is a distinct type; a Handler must
// implement every kind, so adding one is a compile error until all hosts
// handle it.
package dialog

import "errors"

// ErrCanceled is returned when the user dismisses a dialog.
var ErrCanceled = errors.New("dialog canceled")

// Request is one dialog. It is implemented only by the types in this
// package.
type Request interface {
	accept(h Handler) (Response, error)
}

// Handler shows dialogs. Each method receives the concrete request.
type Handler interface {
	FileOpen(r FileOpen) (Response, error)
	FileSave(r FileSave) (Response, error)
	ChooseDirectory(r ChooseDirectory) (Response, error)
	Confirm(r Confirm) (Response, error)
}

// Response carries the user's answer. Path is set by the file and
// directory dialogs, Confirmed by Confirm.
type Response struct {
	Path      string
	Confirmed bool
}

// Filter restricts selectable files by extension (without the dot).
type Filter struct {
	Name       string
	Extensions []string
}

// FileOpen asks for an existing file.
type FileOpen struct {
	Title   string
	Filters []Filter
}

// FileSave asks for a destination file. DefaultName is offered in Dir.
type FileSave struct {
	Title       string
	Dir         string
	DefaultName string
	Filters     []Filter
}

// ChooseDirectory asks for a directory.
type ChooseDirectory struct {
	Title   string
	Default string
}

// Confirm asks a yes/no question. Default is the answer when the user just
// accepts.
type Confirm struct {
	Title   string
	Message string
	Default bool
}

func (r FileOpen) accept(h Handler) (Response, error)        { return h.FileOpen(r) }
func (r FileSave) accept(h Handler) (Response, error)        { return h.FileSave(r) }
func (r ChooseDirectory) accept(h Handler) (Response, error) { return h.ChooseDirectory(r) }
func (r Confirm) accept(h Handler) (Response, error)         { return h.Confirm(r) }

// Dispatch shows r with h.
func Dispatch(h Handler, r Request) (Response, error) {
	return r.accept(h)
}
