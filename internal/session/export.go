// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package session

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/pdiddy/paper-desk/internal/dialog"
	"github.com/pdiddy/paper-desk/internal/export"
)

var jsonFilter = dialog.Filter{Name: "JSON", Extensions: []string{"json"}}

// ExportPath asks h where to write an export, offering the default
// timestamped name in dir. An existing file is only returned after the
// user confirms the overwrite.
func ExportPath(h dialog.Handler, dir string, now time.Time) (string, error) {
	resp, err := dialog.Dispatch(h, dialog.FileSave{
		Title:       "Export papers to",
		Dir:         dir,
		DefaultName: export.DefaultFilename(now),
		Filters:     []dialog.Filter{jsonFilter},
	})
	if err != nil {
		return "", err
	}
	if err := ConfirmOverwrite(h, resp.Path); err != nil {
		return "", err
	}
	return resp.Path, nil
}

// ConfirmOverwrite returns nil when path does not exist or the user agrees
// to replace it, and dialog.ErrCanceled when they decline.
func ConfirmOverwrite(h dialog.Handler, path string) error {
	_, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("checking %s: %w", path, err)
	}
	resp, err := dialog.Dispatch(h, dialog.Confirm{
		Title:   "File exists",
		Message: fmt.Sprintf("%s already exists. Overwrite?", path),
	})
	if err != nil {
		return err
	}
	if !resp.Confirmed {
		return dialog.ErrCanceled
	}
	return nil
}
