package main

import (
	"fmt"

	"legal-rag-be/internal/bootstrap"
	"legal-rag-be/internal/config"
	"legal-rag-be/internal/pkg/logger"
	"legal-rag-be/internal/service"
	"legal-rag-be/pkg/database"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const cliLogPath = "logs/ingest.log"

// Populated by PersistentPreRunE, or directly by tests.
var (
	cfg        *config.Config
	documents  service.IDocumentService
	consumer   service.IConsumerService
	closeStack func()
)

var rootCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Manage the legal judgment index",
	Long: `Loads extracted judgment text into the vector index, keeps it in sync with
a directory, and reports on what is indexed.

Set DB_CONNECTION_STRING to persist into pgvector. Without it the index lives
only for the duration of the command.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if closeStack != nil {
			closeStack()
			closeStack = nil
		}
	},
}

func setup(cmd *cobra.Command, args []string) error {
	if cfg == nil {
		cfg = config.Load()
	}
	if documents != nil {
		return nil
	}

	var db *gorm.DB
	if cfg.Database.Connection != "" {
		conn, err := database.NewGormDBFromDSN(cfg.Database.Connection, gormlogger.Silent)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		db = conn
	} else {
		warnColor.Fprintln(cmd.ErrOrStderr(), "DB_CONNECTION_STRING not set: using a throwaway in-process index")
	}

	container, err := bootstrap.NewContainer(db, cfg, bootstrap.Options{
		Logger: logger.NewIsolatedLogger(cliLogPath),
	})
	if err != nil {
		return err
	}

	documents = container.DocumentService
	consumer = container.ConsumerService
	closeStack = container.Close
	return nil
}
