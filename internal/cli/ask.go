package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"document-quiz/internal/helper"
	"document-quiz/internal/models"
	"document-quiz/internal/rag"
)

// NewAskCmd answers questions about one file from flags or stdin.
func NewAskCmd() *cobra.Command {
	var (
		filePath  string
		questions []string
	)
	cmd := &cobra.Command{
		Use:   "ask",
		Short: "Ask questions about a document",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			comps, err := buildComponents(ctx, cfg)
			if err != nil {
				return err
			}
			defer comps.Close()

			text, err := readDocument(filePath)
			if err != nil {
				return err
			}
			docID, err := helper.NewID()
			if err != nil {
				return err
			}
			session, err := comps.builder.Build(ctx, &models.Document{
				ID:         docID,
				Filename:   filepath.Base(filePath),
				Text:       text,
				UploadedAt: time.Now(),
			})
			if err != nil {
				return err
			}
			defer func() {
				if err := session.Close(context.Background()); err != nil {
					log.Warn().Err(err).Msg("Failed to drop index")
				}
			}()

			if len(questions) > 0 {
				for _, q := range questions {
					if err := answer(ctx, session, q, cmd.OutOrStdout()); err != nil {
						return err
					}
				}
				return nil
			}
			return readQuestions(cmd.InOrStdin(), func(q string) error {
				return answer(ctx, session, q, cmd.OutOrStdout())
			})
		},
	}
	cmd.Flags().StringVar(&filePath, "file", "", "path to the document (pdf, docx, xlsx, txt, md)")
	cmd.Flags().StringArrayVar(&questions, "question", nil, "question to ask; repeatable, stdin is read when omitted")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func answer(ctx context.Context, session *rag.Session, question string, out io.Writer) error {
	a, err := session.Ask(ctx, question)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Q: %s\nA: %s\n\n", question, a.Text)
	return nil
}

// readQuestions calls fn for every non-blank line of r.
func readQuestions(r io.Reader, fn func(string) error) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := fn(line); err != nil {
			return err
		}
	}
	return scanner.Err()
}
