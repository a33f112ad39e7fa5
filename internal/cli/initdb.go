package cli

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"document-quiz/internal/db"
)

// NewInitDBCmd creates the pgvector extension and the chunk table.
func NewInitDBCmd() *cobra.Command {
	var drop bool
	cmd := &cobra.Command{
		Use:   "initdb",
		Short: "Prepare the pgvector database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			bunDB, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer bunDB.Close()

			ctx := cmd.Context()
			if drop {
				if err := db.DropChunks(ctx, bunDB); err != nil {
					return err
				}
				log.Info().Msg("Dropped chunk table")
			}
			if err := db.InitDB(ctx, bunDB); err != nil {
				return err
			}
			log.Info().Msg("Database initialized")
			return nil
		},
	}
	cmd.Flags().BoolVar(&drop, "drop", false, "drop the chunk table first")
	return cmd
}
