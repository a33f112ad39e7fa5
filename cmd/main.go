package main

import (
	"os"

	"github.com/rs/zerolog/log"

	"document-quiz/internal/cli"
	"document-quiz/internal/helper"
)

func main() {
	helper.SetupLogger("info", os.Stderr)
	if err := cli.Execute(); err != nil {
		log.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}
