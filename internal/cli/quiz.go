package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"document-quiz/internal/export"
	"document-quiz/internal/helper"
	"document-quiz/internal/parser"
)

// NewQuizCmd generates a quiz for one file and prints it as JSON.
func NewQuizCmd() *cobra.Command {
	var (
		filePath       string
		exportPath     string
		includeAnswers bool
	)
	cmd := &cobra.Command{
		Use:   "quiz",
		Short: "Generate a multiple choice quiz from a document",
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
			q, err := comps.quizzes.Generate(ctx, text)
			if err != nil {
				return err
			}
			if err := helper.WriteJSON(cmd.OutOrStdout(), q); err != nil {
				return err
			}

			if exportPath == "" {
				return nil
			}
			format, err := export.ParseFormat(filepath.Ext(exportPath))
			if err != nil {
				return err
			}
			data, err := export.Export(q, format, export.Options{
				IncludeAnswers:    includeAnswers,
				PointsPerQuestion: cfg.Quiz.PointsPerQuestion,
			})
			if err != nil {
				return err
			}
			if err := os.WriteFile(exportPath, data, 0o644); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			log.Info().Str("path", exportPath).Str("format", string(format)).Msg("Exported quiz")
			return nil
		},
	}
	cmd.Flags().StringVar(&filePath, "file", "", "path to the document (pdf, docx, xlsx, txt, md)")
	cmd.Flags().StringVar(&exportPath, "export", "", "write the quiz to this file; the extension picks the format")
	cmd.Flags().BoolVar(&includeAnswers, "answers", false, "include correct answers in the export")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func readDocument(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	text, err := parser.ExtractFile(filepath.Base(path), data)
	if err != nil {
		return "", err
	}
	log.Debug().Str("file", path).Int("chars", len(text)).Msg("Read document")
	return text, nil
}
