// Command import runs a one-shot statement import against the configured
// database, outside the HTTP path. Useful for backfills and local testing.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/contaflow/reconcile-api/internal/application/reconcile"
	"github.com/contaflow/reconcile-api/internal/domain/matcher"
	"github.com/contaflow/reconcile-api/internal/infrastructure/config"
	"github.com/contaflow/reconcile-api/internal/infrastructure/logging"
	"github.com/contaflow/reconcile-api/internal/infrastructure/storage"
)

func main() {
	var (
		configFile = flag.String("config", "config.yaml", "Configuration file path")
		csvPath    = flag.String("file", "", "Path to the statement CSV file (required)")
		ownerID    = flag.String("owner", "", "Owner id the statement belongs to (required)")
		bankName   = flag.String("bank", "", "Bank name (required)")
		account    = flag.String("account", "", "Account number")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	)
	flag.Parse()

	if *csvPath == "" || *ownerID == "" || *bankName == "" {
		fmt.Fprintln(os.Stderr, "usage: import -file statement.csv -owner OWNER -bank BANK [-account ACCT]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	cfg := config.LoadOrEnvWithPath(*configFile)
	if *verbose {
		cfg.Observability.Logging.Level = "debug"
	}

	logger := logging.NewLoggerWithScope(cfg.Observability.Logging, "import")

	data, err := os.ReadFile(*csvPath)
	if err != nil {
		logger.Error("Failed to read CSV file", "file", *csvPath, "error", err)
		os.Exit(1)
	}

	store, err := storage.NewStorage(cfg.Storage.DatabasePath, logger)
	if err != nil {
		logger.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	engine := matcher.NewEngine(matcher.Config{
		AutoAcceptThreshold: cfg.Matcher.AutoAcceptThreshold,
		ProposalFloor:       cfg.Matcher.ProposalFloor,
	})
	service := reconcile.NewService(store, engine, logger)

	result, err := service.Upload(context.Background(), reconcile.UploadRequest{
		OwnerID:       *ownerID,
		BankName:      *bankName,
		AccountNumber: *account,
		CSVData:       string(data),
	})
	if err != nil {
		logger.Error("Import failed", "error", err)
		os.Exit(1)
	}

	logger.Info("Import complete",
		"batch", result.ImportBatchID,
		"imported", result.StatementsImported,
		"skipped", result.RowsSkipped,
		"matches_found", result.MatchesFound,
		"matches_inserted", result.MatchesInserted,
		"duplicates_skipped", result.DuplicatesSkipped,
	)
}
