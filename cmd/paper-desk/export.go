// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-desk/internal/export"
	"github.com/pdiddy/paper-desk/internal/search"
	"github.com/pdiddy/paper-desk/internal/session"
	"github.com/pdiddy/paper-desk/pkg/types"
)

var exportCmd = &cobra.Command{
	Use:   "export <results.yaml>",
	Short: "Export papers from a result file to JSON or CSL-YAML",
	Long: `Export writes the selected papers of a result file, or all of them when
--select is not given, to a JSON export record or to CSL-YAML for reference
managers. Papers sharing a link are exported once. With --translated the
stored translation is exported.

Without --out you are asked for a file name; the default is
arxiv-export_YYYY-MM-DD_HH-MM.json in export.dir or the current directory.`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringSlice("select", nil, "arXiv IDs or links to export (default all)")
	exportCmd.Flags().Bool("translated", false, "export the stored translation")
	exportCmd.Flags().String("format", "json", "export format: json or csl")
	exportCmd.Flags().String("out", "", "output file")

	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	f, err := search.ReadResultFile(args[0])
	if err != nil {
		return err
	}
	ids, _ := cmd.Flags().GetStringSlice("select")
	sel, err := selection(f.Papers, ids)
	if err != nil {
		return err
	}
	translated, _ := cmd.Flags().GetBool("translated")
	format, _ := cmd.Flags().GetString("format")

	sess, err := newSession(nil)
	if err != nil {
		return err
	}
	sess.Load(f.Request, f.Result(), f.Translated, f.Model)

	now := time.Now()
	switch format {
	case "json":
		rec := sess.FormatExport(sel, translated)
		path, err := exportTarget(cmd, now, ".json")
		if err != nil {
			return err
		}
		if err := export.Write(path, rec); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Exported %d papers to %s\n", rec.Count, path)
	case "csl":
		papers := f.Papers
		if translated && len(f.Translated) > 0 {
			papers = f.Translated
		}
		chosen := export.Select(papers, sel)
		path, err := exportTarget(cmd, now, ".yaml")
		if err != nil {
			return err
		}
		if err := writeCSL(path, chosen); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Exported %d papers to %s\n", len(chosen), path)
	default:
		return fmt.Errorf("unsupported format %q: use json or csl", format)
	}
	return nil
}

// exportTarget returns --out after an overwrite check, or asks for a path.
func exportTarget(cmd *cobra.Command, now time.Time, ext string) (string, error) {
	h := prompter(cmd)
	if out, _ := cmd.Flags().GetString("out"); out != "" {
		if err := session.ConfirmOverwrite(h, out); err != nil {
			return "", err
		}
		return out, nil
	}
	path, err := session.ExportPath(h, exportDir(), now)
	if err != nil {
		return "", err
	}
	if ext != ".json" && filepath.Ext(path) == ".json" {
		path = strings.TrimSuffix(path, ".json") + ext
		if err := session.ConfirmOverwrite(h, path); err != nil {
			return "", err
		}
	}
	return path, nil
}

func writeCSL(path string, papers []types.Paper) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating export directory: %w", err)
	}
	w, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := export.FormatCSL(papers, w); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

// selection maps arXiv IDs or links to the identities of papers. Unknown
// entries are an error.
func selection(papers []types.Paper, ids []string) (export.IDSet, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	byKey := make(map[string]string, 2*len(papers))
	for _, p := range papers {
		byKey[p.Identity()] = p.Identity()
		if p.ID != "" {
			byKey[p.ID] = p.Identity()
		}
	}
	sel := export.NewIDSet()
	for _, id := range ids {
		identity, ok := byKey[strings.TrimSpace(id)]
		if !ok {
			return nil, fmt.Errorf("%q is not in the result file", id)
		}
		sel[identity] = struct{}{}
	}
	return sel, nil
}
