// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-desk/internal/library"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List, favorite, remove and rerun recorded searches",
	Long: `History manages the searches recorded by the search command. The history
keeps the most recent searches (library.history_limit, default 10); a search
whose criteria match an existing entry is not recorded again. Favorites are
kept until removed.`,
}

// --- list subcommand ---

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent searches and favorites",
	RunE:  runHistoryList,
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	store, err := openLibrary()
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	favorites, err := store.Favorites(ctx)
	if err != nil {
		return err
	}
	recent, err := store.History(ctx)
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string][]library.Entry{"favorites": favorites, "history": recent})
	}

	onlyFavorites, _ := cmd.Flags().GetBool("favorites")
	printEntries("Favorites", favorites)
	if !onlyFavorites {
		fmt.Fprintln(os.Stdout)
		printEntries("History", recent)
	}
	return nil
}

func printEntries(heading string, entries []library.Entry) {
	fmt.Fprintf(os.Stdout, "%s (%d)\n", heading, len(entries))
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 100))
	if len(entries) == 0 {
		fmt.Fprintln(os.Stdout, "  none")
		return
	}
	for _, e := range entries {
		fmt.Fprintf(os.Stdout, "%-8s  %-16s  %s\n",
			e.ID[:min(8, len(e.ID))], e.CreatedAt.Local().Format("2006-01-02 15:04"), e.Name)
	}
}

// --- favorite subcommand ---

var historyFavoriteCmd = &cobra.Command{
	Use:   "favorite <id>",
	Short: "Move a history entry to the favorites",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openLibrary()
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := context.Background()
		id, err := resolveEntryID(ctx, store, args[0])
		if err != nil {
			return err
		}
		name, _ := cmd.Flags().GetString("name")
		e, err := store.Favorite(ctx, id, name)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Favorited %q\n", e.Name)
		return nil
	},
}

// --- remove subcommand ---

var historyRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove a history entry or favorite",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openLibrary()
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := context.Background()
		id, err := resolveEntryID(ctx, store, args[0])
		if err != nil {
			return err
		}
		if err := store.Remove(ctx, id); err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, "Removed", id)
		return nil
	},
}

// --- rerun subcommand ---

var historyRerunCmd = &cobra.Command{
	Use:   "rerun <id>",
	Short: "Run a recorded search again",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openLibrary()
		if err != nil {
			return err
		}
		ctx := context.Background()
		id, err := resolveEntryID(ctx, store, args[0])
		if err != nil {
			store.Close()
			return err
		}
		e, err := store.Lookup(ctx, id)
		store.Close()
		if err != nil {
			return err
		}
		return executeSearch(cmd, e.Request, true)
	},
}

// resolveEntryID expands a unique id prefix, as printed by list.
func resolveEntryID(ctx context.Context, store *library.Store, prefix string) (string, error) {
	favorites, err := store.Favorites(ctx)
	if err != nil {
		return "", err
	}
	recent, err := store.History(ctx)
	if err != nil {
		return "", err
	}

	var matches []string
	for _, e := range append(favorites, recent...) {
		if strings.HasPrefix(e.ID, prefix) {
			matches = append(matches, e.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("search %s: %w", prefix, library.ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("id prefix %q matches %d searches", prefix, len(matches))
	}
}

func init() {
	historyListCmd.Flags().Bool("favorites", false, "list favorites only")
	historyListCmd.Flags().Bool("json", false, "output as JSON")

	historyFavoriteCmd.Flags().String("name", "", "name for the favorite (default: the query)")

	historyRerunCmd.Flags().Int("page", 1, "result page to print")
	historyRerunCmd.Flags().String("out", "", "save the results to a YAML result file")
	historyRerunCmd.Flags().Bool("json", false, "print the page as JSON")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyFavoriteCmd)
	historyCmd.AddCommand(historyRemoveCmd)
	historyCmd.AddCommand(historyRerunCmd)

	rootCmd.AddCommand(historyCmd)
}
