package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dcrodman/rupeepatch/internal/core"
	"github.com/dcrodman/rupeepatch/internal/core/data"
)

// loadConfig reads the config, applies an optional executable path argument
// and builds the logger. It exits on failure.
func loadConfig(args []string) (*core.Config, *zap.SugaredLogger) {
	cfg, err := core.LoadConfig(ConfigFlag)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if len(args) > 0 {
		cfg.ExePath = args[0]
	}

	logger, err := core.NewLogger(cfg)
	if err != nil {
		fmt.Println("error initializing logger:", err)
		os.Exit(1)
	}
	return cfg, logger
}

func requireExe(cfg *core.Config) {
	if cfg.ExePath == "" {
		fmt.Println("no executable given; pass one or set exe_path in the config")
		os.Exit(1)
	}
}

// openDB opens the history database. History is best effort, so a failure
// is logged and nil returned.
func openDB(cfg *core.Config, logger *zap.SugaredLogger) *gorm.DB {
	dialector, err := data.Dialector(
		cfg.Database.Engine,
		cfg.QualifiedPath(cfg.Database.Filename),
		cfg.DatabaseURL(),
	)
	if err != nil {
		logger.Warnw("history disabled", "error", err)
		return nil
	}
	db, err := data.Initialize(dialector, cfg.Logging.LogLevel == "debug")
	if err != nil {
		logger.Warnw("history disabled", "error", err)
		return nil
	}
	return db
}

// recordRun stores a history record for a finished run.
func recordRun(cfg *core.Config, logger *zap.SugaredLogger, record *data.PatchRecord, runErr error) {
	db := openDB(cfg, logger)
	if db == nil {
		return
	}
	defer func() {
		if err := data.Shutdown(db); err != nil {
			logger.Warnw("closing history database", "error", err)
		}
	}()

	record.ExePath = cfg.ExePath
	record.Success = runErr == nil
	if runErr != nil {
		record.Error = runErr.Error()
	}
	if err := data.RecordPatch(db, record); err != nil {
		logger.Warnw("recording history", "error", err)
	}
}
