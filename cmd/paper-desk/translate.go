// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-desk/internal/config"
	"github.com/pdiddy/paper-desk/internal/search"
	"github.com/pdiddy/paper-desk/internal/secrets"
	"github.com/pdiddy/paper-desk/internal/session"
	"github.com/pdiddy/paper-desk/internal/translate"
	"github.com/pdiddy/paper-desk/pkg/types"
)

var translateCmd = &cobra.Command{
	Use:   "translate <results.yaml>",
	Short: "Translate the titles and abstracts in a result file",
	Long: `Translate sends each paper's title and abstract to the configured LLM,
one paper at a time, and stores the translation in the result file next to
the originals. Press Ctrl-C to stop after the paper in progress; the partial
translation is saved and the papers already done are not sent again when
the file is translated with the same model.

The API key is read from .secrets/<provider>-api-key or the
PAPER_DESK_<PROVIDER>_API_KEY environment variable.`,
	Args: cobra.ExactArgs(1),
	RunE: runTranslate,
}

func init() {
	translateCmd.Flags().String("model", "", "model id (default translation.model)")
	translateCmd.Flags().String("out", "", "write to this file instead of updating the input")
	translateCmd.Flags().Bool("force", false, "translate again even if the file holds a translation for the model")
	translateCmd.Flags().Bool("quiet", false, "do not print each translated title")
	translateCmd.Flags().Bool("json", false, "print the translated page as JSON")

	rootCmd.AddCommand(translateCmd)
}

func runTranslate(cmd *cobra.Command, args []string) error {
	path := args[0]
	model, _ := cmd.Flags().GetString("model")
	if model == "" {
		model = appCfg.Translation.Model
	}
	out, _ := cmd.Flags().GetString("out")
	if out == "" {
		out = path
	}
	force, _ := cmd.Flags().GetBool("force")
	quiet, _ := cmd.Flags().GetBool("quiet")

	f, err := search.ReadResultFile(path)
	if err != nil {
		return err
	}
	if len(f.Papers) == 0 {
		return fmt.Errorf("%s holds no papers", path)
	}
	if !force && remaining(f, model) == 0 {
		fmt.Fprintf(os.Stderr, "%s is already translated with %s (use --force to redo)\n", path, model)
		return nil
	}

	sess, err := newSession(nil)
	if err != nil {
		return err
	}
	if force {
		sess.Load(f.Request, f.Result(), nil, "")
	} else {
		sess.Load(f.Request, f.Result(), f.Translated, f.Model)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if n := remaining(f, model); !force && n < len(f.Papers) {
		fmt.Fprintf(os.Stderr, "Resuming: %d of %d papers left with %s\n", n, len(f.Papers), model)
	} else {
		fmt.Fprintf(os.Stderr, "Translating %d papers with %s\n", len(f.Papers), model)
	}
	batch, err := sess.StartTranslation(ctx, model)
	if err != nil {
		return err
	}

	var res translate.Result
	var batchErr error
	for e := range batch.Events {
		switch e.Kind {
		case session.EventProgress:
			fmt.Fprintf(os.Stderr, "\r  %d/%d", e.Done, e.Total)
		case session.EventItem:
			if !quiet {
				fmt.Fprintf(os.Stderr, "\r  [%d] %s\n", e.Index+1, e.Paper.Title)
			}
		case session.EventDone:
			res, batchErr = e.Result, e.Err
		}
	}
	fmt.Fprintln(os.Stderr)

	if batchErr != nil && errors.Is(batchErr, types.ErrAuth) {
		key := translate.CredentialKey(appCfg.Translation.Provider)
		fmt.Fprintf(os.Stderr, "Configure an API key in .secrets/%s or %s\n",
			key, secrets.EnvName(config.EnvPrefix, key))
	}
	if res.Papers == nil {
		return batchErr
	}

	f.Translated = res.Papers
	f.Model = model
	if err := search.WriteResultFile(out, f); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "%s: %d translated, %d failed (%s), saved to %s\n",
		res.State, res.Translated, res.Failed, model, out)

	if err := printView(cmd, sess.View()); err != nil {
		return err
	}
	return batchErr
}

// remaining counts the papers a run with model still has to send. Only a
// translation stored for the same model counts as done; entries identical
// to their originals were never translated.
func remaining(f *search.ResultFile, model string) int {
	if f.Model != model || len(f.Translated) != len(f.Papers) {
		return len(f.Papers)
	}
	n := 0
	for i, p := range f.Translated {
		if p.Title == f.Papers[i].Title && p.Summary == f.Papers[i].Summary {
			n++
		}
	}
	return n
}
