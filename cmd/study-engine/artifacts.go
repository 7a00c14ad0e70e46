// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/study-engine/internal/store"
	"github.com/pdiddy/study-engine/pkg/types"
)

var artifactsCmd = &cobra.Command{
	Use:     "artifacts",
	Aliases: []string{"artifact"},
	Short:   "Manage saved artifacts (list, show, export, delete)",
	Long: `Artifacts manages the local SQLite store of generated quizzes, decks,
and summaries. Artifacts are addressed by id or by any unique id prefix.`,
}

// --- list subcommand ---

var artifactsListCmd = &cobra.Command{
	Use:   "list [query]",
	Short: "List saved artifacts, newest first",
	Long: `List shows saved artifacts in a table. An optional query runs a
full-text search over titles and item text.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runArtifactsList,
}

func runArtifactsList(cmd *cobra.Command, args []string) error {
	opts := store.ListOptions{}
	if typ, _ := cmd.Flags().GetString("type"); typ != "" {
		ct, err := types.ParseContentType(typ)
		if err != nil {
			return err
		}
		opts.Type = ct
	}
	if len(args) > 0 {
		opts.Query = args[0]
	}
	opts.Limit, _ = cmd.Flags().GetInt("limit")

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	recs, err := st.List(context.Background(), opts)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No artifacts found.")
		return nil
	}
	renderList(cmd.OutOrStdout(), recs)
	return nil
}

func renderList(w io.Writer, recs []store.Record) {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Type", "Title", "Items", "Chunks", "Created"})
	for _, r := range recs {
		chunks := fmt.Sprintf("%d/%d", r.ChunksTotal-r.ChunksSkipped, r.ChunksTotal)
		t.AppendRow(table.Row{r.ID[:8], r.Type, r.Title, r.ItemCount, chunks, r.CreatedAt.Local().Format("2006-01-02 15:04")})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, WidthMax: 48},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
	})
	t.AppendFooter(table.Row{"", "", fmt.Sprintf("%d artifact(s)", len(recs))})
	fmt.Fprintln(w, t.Render())
}

// --- show subcommand ---

var artifactsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a saved artifact as Markdown",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()
		return st.Export(context.Background(), args[0], store.FormatMarkdown, cmd.OutOrStdout())
	},
}

// --- export subcommand ---

var artifactsExportCmd = &cobra.Command{
	Use:   "export <id>",
	Short: "Export a saved artifact to YAML, JSON, Markdown, or HTML",
	Args:  cobra.ExactArgs(1),
	RunE:  runArtifactsExport,
}

func runArtifactsExport(cmd *cobra.Command, args []string) error {
	formatFlag, _ := cmd.Flags().GetString("format")
	format, err := store.ParseFormat(formatFlag)
	if err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	outPath, _ := cmd.Flags().GetString("out")
	if outPath == "" {
		return st.Export(context.Background(), args[0], format, cmd.OutOrStdout())
	}

	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", outPath, err)
	}
	if err := st.Export(context.Background(), args[0], format, f); err != nil {
		f.Close()
		os.Remove(outPath)
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Exported to %s\n", outPath)
	return nil
}

// --- delete subcommand ---

var artifactsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a saved artifact",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.Delete(context.Background(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Deleted %s\n", args[0])
		return nil
	},
}

// --- shared helpers ---

func openStore() (*store.Store, error) {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return nil, err
	}
	return store.Open(cfg.Store)
}

func init() {
	artifactsCmd.PersistentFlags().String("store-dir", "", "directory containing study.db (default: store.dir)")
	_ = viper.BindPFlag("store.dir", artifactsCmd.PersistentFlags().Lookup("store-dir"))

	artifactsListCmd.Flags().String("type", "", "filter by content type: quiz, flashcards, or summary")
	artifactsListCmd.Flags().Int("limit", 0, "maximum results (0 = 50)")

	artifactsExportCmd.Flags().String("format", "yaml", "export format: yaml, json, markdown, or html")
	artifactsExportCmd.Flags().String("out", "", "write to this file instead of stdout")

	artifactsCmd.AddCommand(artifactsListCmd)
	artifactsCmd.AddCommand(artifactsShowCmd)
	artifactsCmd.AddCommand(artifactsExportCmd)
	artifactsCmd.AddCommand(artifactsDeleteCmd)

	rootCmd.AddCommand(artifactsCmd)
}
