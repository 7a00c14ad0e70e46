// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/study-engine/internal/generate"
	"github.com/pdiddy/study-engine/internal/pipeline"
	"github.com/pdiddy/study-engine/internal/store"
	"github.com/pdiddy/study-engine/pkg/types"
)

var generateCmd = &cobra.Command{
	Use:   "generate <quiz|flashcards|summary> [file|-]",
	Short: "Generate a quiz, flashcard deck, or summary from study material",
	Long: `Generate reads study material from a file (or stdin when the file is
omitted or "-"), splits it into chunks, and sends each chunk to the
configured generation backend. Chunks that keep failing after retries are
skipped; the run succeeds as long as at least one chunk produced valid items.

Progress lines go to stderr. The artifact is written to stdout as JSON,
YAML, or Markdown. Use --save to keep it in the local artifact store.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runGenerate,
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ct, err := types.ParseContentType(args[0])
	if err != nil {
		return err
	}
	source := "-"
	if len(args) > 1 {
		source = args[1]
	}

	formatFlag, _ := cmd.Flags().GetString("format")
	format, err := types.ParseSummaryFormat(formatFlag)
	if err != nil {
		return err
	}
	output, _ := cmd.Flags().GetString("output")
	outFormat, err := store.ParseFormat(output)
	if err != nil {
		return err
	}
	maxChunk, _ := cmd.Flags().GetInt("max-chunk-size")
	threshold, _ := cmd.Flags().GetFloat64("threshold")
	if threshold < 0 || threshold > 1 {
		return fmt.Errorf("--threshold must be between 0 and 1, got %v", threshold)
	}

	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}

	content, err := readInput(source, cmd.InOrStdin())
	if err != nil {
		return err
	}

	backend, err := newBackend(cfg.Generation)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	stderr := cmd.ErrOrStderr()
	gen := pipeline.NewGenerator(backend, pipeline.ConfigFrom(cfg), pipeline.WithLogger(logger))
	art, err := gen.GenerateContent(ctx, content, ct, pipeline.Options{
		MaxChunkSize:           maxChunk,
		DeduplicationThreshold: threshold,
		Format:                 format,
		OnProgress: func(_ int, msg string) {
			fmt.Fprintln(stderr, msg)
		},
	})
	if err != nil {
		return err
	}

	r := art.Report
	fmt.Fprintf(stderr, "Generated %d %s item(s) from %d/%d chunks (%d rejected, %d duplicates removed)\n",
		art.ItemCount(), ct, r.ChunksSucceeded, r.ChunksTotal, r.ItemsRejected, r.DuplicatesRemoved)
	if r.Partial() {
		fmt.Fprintf(stderr, "warning: skipped chunks %v after exhausting retries\n", r.ChunksSkipped)
	}

	title, _ := cmd.Flags().GetString("title")
	rec := &store.Record{Type: ct, Title: title, Artifact: art}
	if source != "-" {
		rec.Source = source
		if rec.Title == "" {
			rec.Title = strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
		}
	}

	if save, _ := cmd.Flags().GetBool("save"); save {
		st, err := store.Open(cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close()
		id, err := st.Save(ctx, art, rec.Title, rec.Source)
		if err != nil {
			return err
		}
		fmt.Fprintf(stderr, "Saved artifact %s\n", id)
	}

	return writeArtifact(cmd.OutOrStdout(), rec, outFormat)
}

// writeArtifact prints a freshly generated artifact. JSON and YAML carry the
// artifact alone; Markdown and HTML render it as a study sheet.
func writeArtifact(w io.Writer, rec *store.Record, format store.Format) error {
	switch format {
	case store.FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rec.Artifact)
	case store.FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(rec.Artifact); err != nil {
			return err
		}
		return enc.Close()
	}
	if rec.Title == "" {
		rec.Title = string(rec.Type)
	}
	return store.Write(w, rec, format)
}

// readInput reads the named file, or r when name is "-".
func readInput(name string, r io.Reader) (string, error) {
	var (
		data []byte
		err  error
	)
	if name == "-" {
		data, err = io.ReadAll(r)
	} else {
		data, err = os.ReadFile(name)
	}
	if err != nil {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return string(data), nil
}

// newBackend builds the generation backend selected by cfg.Backend.
func newBackend(cfg types.GenerationConfig) (generate.Backend, error) {
	cfg.APIKey = apiKey(cfg, loadedSecrets)
	switch cfg.Backend {
	case types.BackendOpenAI:
		return generate.NewOpenAIBackend(cfg)
	default:
		return generate.NewEndpointBackend(cfg, &http.Client{})
	}
}

func init() {
	generateCmd.Flags().Int("max-chunk-size", 0, "maximum chunk size in characters (0 = chunking.max_chunk_size)")
	generateCmd.Flags().Float64("threshold", 0, "deduplication similarity threshold in (0,1] (0 = dedup.threshold)")
	generateCmd.Flags().String("format", "", "summary format: bullet, tldr, or qa")
	generateCmd.Flags().String("backend", "", "generation backend: endpoint or openai")
	generateCmd.Flags().String("endpoint", "", "generation endpoint URL (endpoint backend)")
	generateCmd.Flags().String("model", "", "model identifier (openai backend)")
	generateCmd.Flags().StringP("output", "o", "json", "output format: json, yaml, markdown, or html")
	generateCmd.Flags().Bool("save", false, "save the artifact to the local store")
	generateCmd.Flags().String("title", "", "title for the saved artifact (default: input file name)")

	_ = viper.BindPFlag("generation.backend", generateCmd.Flags().Lookup("backend"))
	_ = viper.BindPFlag("generation.endpoint", generateCmd.Flags().Lookup("endpoint"))
	_ = viper.BindPFlag("generation.model", generateCmd.Flags().Lookup("model"))

	rootCmd.AddCommand(generateCmd)
}
