// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"go.yaml.in/yaml/v3"
)

// Format selects an export encoding.
type Format string

const (
	FormatYAML     Format = "yaml"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// ParseFormat converts a user-supplied name into a Format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatYAML, FormatJSON, FormatMarkdown, FormatHTML:
		return f, nil
	case "yml":
		return FormatYAML, nil
	case "md":
		return FormatMarkdown, nil
	}
	return "", fmt.Errorf("unsupported export format %q: use yaml, json, markdown, or html", s)
}

// Export writes the artifact with the given id or id prefix to w.
func (s *Store) Export(ctx context.Context, id string, format Format, w io.Writer) error {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	return Write(w, rec, format)
}

// Write encodes rec to w in the given format.
func Write(w io.Writer, rec *Record, format Format) error {
	var (
		data []byte
		err  error
	)
	switch format {
	case FormatYAML:
		data, err = yaml.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshaling YAML: %w", err)
		}
	case FormatJSON:
		data, err = json.MarshalIndent(rec, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		data = append(data, '\n')
	case FormatMarkdown:
		data = []byte(Markdown(rec))
	case FormatHTML:
		data, err = renderHTML(rec)
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
	_, err = w.Write(data)
	return err
}

// Markdown renders a stored artifact as a study sheet.
func Markdown(rec *Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", rec.Title)
	if rec.Source != "" {
		fmt.Fprintf(&b, "_Source: %s_\n\n", rec.Source)
	}
	if rec.Artifact == nil {
		return b.String()
	}

	art := rec.Artifact
	switch {
	case art.Quiz != nil:
		for i, q := range art.Quiz.Questions {
			fmt.Fprintf(&b, "## %d. %s\n\n", i+1, q.Question)
			for j, opt := range q.Options {
				mark := " "
				if opt == q.CorrectAnswer {
					mark = "x"
				}
				fmt.Fprintf(&b, "- [%s] %c. %s\n", mark, 'A'+j, opt)
			}
			fmt.Fprintf(&b, "\n**Answer:** %s\n\n", q.CorrectAnswer)
			if q.Explanation != "" {
				fmt.Fprintf(&b, "%s\n\n", q.Explanation)
			}
		}
	case art.Deck != nil:
		b.WriteString("| Front | Back | Type |\n|---|---|---|\n")
		for _, c := range art.Deck.Cards {
			fmt.Fprintf(&b, "| %s | %s | %s |\n", cell(c.Front), cell(c.Back), c.Type)
		}
		b.WriteString("\n")
	case art.Summary != nil:
		b.WriteString(art.Summary.Text)
		b.WriteString("\n")
	}
	return b.String()
}

func renderHTML(rec *Record) ([]byte, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.Table, extension.TaskList))

	var body bytes.Buffer
	if err := md.Convert([]byte(Markdown(rec)), &body); err != nil {
		return nil, fmt.Errorf("rendering HTML: %w", err)
	}

	var out bytes.Buffer
	fmt.Fprintf(&out, "<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>%s</title>\n</head>\n<body>\n",
		html.EscapeString(rec.Title))
	out.Write(body.Bytes())
	out.WriteString("</body>\n</html>\n")
	return out.Bytes(), nil
}

// cell escapes a value for a Markdown table cell.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
