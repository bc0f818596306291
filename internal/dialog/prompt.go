// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dialog

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Prompter answers dialogs on a terminal: it writes a prompt to Out and
// reads one line from In. With AssumeYes set it never reads and takes
// every default.
type Prompter struct {
	In        io.Reader
	Out       io.Writer
	AssumeYes bool

	scanner *bufio.Scanner
}

// FileOpen implements Handler. The path must name an existing file.
func (p *Prompter) FileOpen(r FileOpen) (Response, error) {
	if p.AssumeYes {
		return Response{}, fmt.Errorf("%s: no file given: %w", r.Title, ErrCanceled)
	}
	line, err := p.ask(fmt.Sprintf("%s%s: ", r.Title, filterHint(r.Filters)))
	if err != nil {
		return Response{}, err
	}
	if line == "" {
		return Response{}, ErrCanceled
	}
	info, err := os.Stat(line)
	if err != nil {
		return Response{}, fmt.Errorf("opening %s: %w", line, err)
	}
	if info.IsDir() {
		return Response{}, fmt.Errorf("%s is a directory", line)
	}
	return Response{Path: line}, nil
}

// FileSave implements Handler. An empty answer takes the default name.
func (p *Prompter) FileSave(r FileSave) (Response, error) {
	def := filepath.Join(r.Dir, r.DefaultName)
	if p.AssumeYes {
		return Response{Path: def}, nil
	}
	line, err := p.ask(fmt.Sprintf("%s [%s]: ", r.Title, def))
	if err != nil {
		return Response{}, err
	}
	if line == "" {
		return Response{Path: def}, nil
	}
	if !filepath.IsAbs(line) && r.Dir != "" && !strings.ContainsRune(line, filepath.Separator) {
		line = filepath.Join(r.Dir, line)
	}
	return Response{Path: line}, nil
}

// ChooseDirectory implements Handler. The directory is created if missing.
func (p *Prompter) ChooseDirectory(r ChooseDirectory) (Response, error) {
	dir := r.Default
	if !p.AssumeYes {
		line, err := p.ask(fmt.Sprintf("%s [%s]: ", r.Title, r.Default))
		if err != nil {
			return Response{}, err
		}
		if line != "" {
			dir = line
		}
	}
	if dir == "" {
		return Response{}, ErrCanceled
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Response{}, fmt.Errorf("creating directory %s: %w", dir, err)
	}
	return Response{Path: dir}, nil
}

// Confirm implements Handler.
func (p *Prompter) Confirm(r Confirm) (Response, error) {
	if p.AssumeYes {
		return Response{Confirmed: true}, nil
	}
	hint := "[y/N]"
	if r.Default {
		hint = "[Y/n]"
	}
	line, err := p.ask(fmt.Sprintf("%s %s ", r.Message, hint))
	if err != nil {
		return Response{}, err
	}
	switch strings.ToLower(line) {
	case "":
		return Response{Confirmed: r.Default}, nil
	case "y", "yes":
		return Response{Confirmed: true}, nil
	default:
		return Response{Confirmed: false}, nil
	}
}

// ask prints prompt and returns the trimmed next line. End of input
// cancels the dialog.
func (p *Prompter) ask(prompt string) (string, error) {
	if p.scanner == nil {
		in := p.In
		if in == nil {
			in = os.Stdin
		}
		p.scanner = bufio.NewScanner(in)
	}
	out := p.Out
	if out == nil {
		out = os.Stderr
	}
	fmt.Fprint(out, prompt)
	if !p.scanner.Scan() {
		if err := p.scanner.Err(); err != nil {
			return "", fmt.Errorf("reading answer: %w", err)
		}
		return "", ErrCanceled
	}
	return strings.TrimSpace(p.scanner.Text()), nil
}

func filterHint(filters []Filter) string {
	var exts []string
	for _, f := range filters {
		for _, e := range f.Extensions {
			exts = append(exts, "*."+e)
		}
	}
	if len(exts) == 0 {
		return ""
	}
	return " (" + strings.Join(exts, ", ") + ")"
}
