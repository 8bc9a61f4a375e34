/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/friendsincode/peach95/internal/db"
	"github.com/friendsincode/peach95/internal/library"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import track metadata into the library",
	Long:  "Import track metadata sidecar files (JSON) from a directory into the station library",
	RunE:  runImport,
}

var importDir string

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().StringVar(&importDir, "dir", "", "Directory containing track metadata JSON files (required)")
	importCmd.MarkFlagRequired("dir")
}

func runImport(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	logger.Info().Str("dir", importDir).Msg("starting library import")

	database, err := db.Connect(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer func() { _ = db.Close(database) }()

	store := library.NewStore(database, logger)
	imported, err := store.ImportDir(context.Background(), importDir)
	if err != nil {
		return fmt.Errorf("import directory: %w", err)
	}

	total, err := store.Count(context.Background())
	if err != nil {
		return err
	}

	logger.Info().Int("imported", imported).Int64("library_total", total).Msg("library import complete")
	return nil
}
