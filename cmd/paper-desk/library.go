// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-desk/internal/export"
	"github.com/pdiddy/paper-desk/internal/search"
	"github.com/pdiddy/paper-desk/pkg/types"
)

var libraryCmd = &cobra.Command{
	Use:   "library",
	Short: "Manage saved papers (add, list, export, remove)",
	Long: `Library keeps papers you want to come back to in a local SQLite database,
together with their translated title and abstract when the result file holds
a translation.`,
}

// --- add subcommand ---

var libraryAddCmd = &cobra.Command{
	Use:   "add <results.yaml>",
	Short: "Save papers from a result file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := search.ReadResultFile(args[0])
		if err != nil {
			return err
		}
		ids, _ := cmd.Flags().GetStringSlice("select")
		sel, err := selection(f.Papers, ids)
		if err != nil {
			return err
		}

		store, err := openLibrary()
		if err != nil {
			return err
		}
		defer store.Close()

		sess, err := newSession(nil)
		if err != nil {
			return err
		}
		sess.Load(f.Request, f.Result(), f.Translated, f.Model)

		n, err := sess.SaveToLibrary(context.Background(), store, sel, f.Model)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Saved %d papers to the library\n", n)
		return nil
	},
}

// --- list subcommand ---

var libraryListCmd = &cobra.Command{
	Use:   "list [query]",
	Short: "List saved papers, optionally filtered by text",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openLibrary()
		if err != nil {
			return err
		}
		defer store.Close()

		saved, err := store.Papers(context.Background(), strings.Join(args, " "))
		if err != nil {
			return err
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(saved)
		}
		if len(saved) == 0 {
			fmt.Println("No saved papers.")
			return nil
		}

		fmt.Fprintf(os.Stdout, "%-12s  %-60s  %-10s  %s\n", "arXiv", "Title", "Saved", "Translated")
		fmt.Fprintln(os.Stdout, strings.Repeat("-", 100))
		for _, sp := range saved {
			title := []rune(sp.Display().Title)
			if len(title) > 60 {
				title = append(title[:57], []rune("...")...)
			}
			tr := ""
			if sp.Translation != nil {
				tr = sp.Translation.Model
			}
			fmt.Fprintf(os.Stdout, "%-12s  %-60s  %-10s  %s\n",
				sp.Paper.ID, string(title), sp.SavedAt.Local().Format("2006-01-02"), tr)
		}
		fmt.Fprintf(os.Stdout, "\n%d papers\n", len(saved))
		return nil
	},
}

// --- export subcommand ---

var libraryExportCmd = &cobra.Command{
	Use:   "export [query]",
	Short: "Export saved papers to JSON or CSL-YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openLibrary()
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := context.Background()
		query := strings.Join(args, " ")
		now := time.Now()
		format, _ := cmd.Flags().GetString("format")

		switch format {
		case "json":
			rec, err := store.Export(ctx, query, now)
			if err != nil {
				return err
			}
			path, err := exportTarget(cmd, now, ".json")
			if err != nil {
				return err
			}
			if err := export.Write(path, rec); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "Exported %d papers to %s\n", rec.Count, path)
		case "csl":
			saved, err := store.Papers(ctx, query)
			if err != nil {
				return err
			}
			papers := make([]types.Paper, len(saved))
			for i, sp := range saved {
				papers[i] = sp.Paper
			}
			path, err := exportTarget(cmd, now, ".yaml")
			if err != nil {
				return err
			}
			if err := writeCSL(path, papers); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "Exported %d papers to %s\n", len(papers), path)
		default:
			return fmt.Errorf("unsupported format %q: use json or csl", format)
		}
		return nil
	},
}

// --- remove subcommand ---

var libraryRemoveCmd = &cobra.Command{
	Use:   "remove <arxiv-id-or-link>",
	Short: "Remove a saved paper",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openLibrary()
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.RemovePaper(context.Background(), args[0]); err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, "Removed", args[0])
		return nil
	},
}

func init() {
	libraryAddCmd.Flags().StringSlice("select", nil, "arXiv IDs or links to save (default all)")

	libraryListCmd.Flags().Bool("json", false, "output as JSON")

	libraryExportCmd.Flags().String("format", "json", "export format: json or csl")
	libraryExportCmd.Flags().String("out", "", "output file")

	libraryCmd.AddCommand(libraryAddCmd)
	libraryCmd.AddCommand(libraryListCmd)
	libraryCmd.AddCommand(libraryExportCmd)
	libraryCmd.AddCommand(libraryRemoveCmd)

	rootCmd.AddCommand(libraryCmd)
}
