package migration

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"allocmgr/internal/shared/logger"
)

// Generator creates timestamped up/down migration file pairs in the format
// the golang-migrate strategy reads.
type Generator struct {
	scriptsPath string
	logger      logger.Interface
}

func NewGenerator(scriptsPath string) *Generator {
	return &Generator{
		scriptsPath: scriptsPath,
		logger:      logger.NewLogger().With("component", "migration.generator"),
	}
}

// CreateMigration writes an empty up/down script pair for the given name.
func (g *Generator) CreateMigration(name string) error {
	if err := os.MkdirAll(g.scriptsPath, 0755); err != nil {
		return fmt.Errorf("failed to create scripts directory: %w", err)
	}

	now := time.Now()
	timestamp := now.Format("20060102150405")
	created := now.Format("2006-01-02 15:04:05")

	pairs := []struct {
		file    string
		content string
	}{
		{
			file: fmt.Sprintf("%s_%s.up.sql", timestamp, name),
			content: fmt.Sprintf("-- Migration: %s\n-- Created: %s\n\n-- Add forward SQL statements here\n", name, created),
		},
		{
			file: fmt.Sprintf("%s_%s.down.sql", timestamp, name),
			content: fmt.Sprintf("-- Rollback: %s\n-- Created: %s\n\n-- Add rollback SQL statements here\n", name, created),
		},
	}

	for _, p := range pairs {
		path := filepath.Join(g.scriptsPath, p.file)
		if err := os.WriteFile(path, []byte(p.content), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", p.file, err)
		}
		g.logger.Infow("migration file created", "file", path)
	}

	return nil
}
