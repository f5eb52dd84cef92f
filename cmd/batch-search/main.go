// Command batch-search imports an optional CSV of school names and searches
// every pending record once. Nothing is purchased.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"domainacq/internal/app"
	"domainacq/internal/config"
	"domainacq/internal/logger"
	"domainacq/internal/services"
)

func main() {
	csvPath := flag.String("csv", "", "CSV file to import before searching")
	column := flag.String("column", "0", "column holding the names, by index or header")
	forwardTo := flag.String("forward-to", "", "email forwarding address stored on imported records")
	skipSearch := flag.Bool("import-only", false, "import the CSV without searching")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logg := logger.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logg, nil)
	if err != nil {
		log.Fatalf("Startup failed: %v", err)
	}
	defer a.Close()

	if *csvPath != "" {
		summary, err := importFile(ctx, a.Importer, *csvPath, *column, *forwardTo)
		if err != nil {
			log.Fatalf("Import failed: %v", err)
		}
		fmt.Printf("Imported %d records (%d duplicates, %d rejected, %d skipped)\n",
			summary.Created, summary.Duplicates, summary.Rejected, summary.Skipped)
	}
	if *skipSearch {
		return
	}

	summary, err := a.Batch.SearchPending(ctx)
	fmt.Printf("Searched %d pending records: %d found, %d without variant, %d failed\n",
		summary.Total, summary.Found, summary.NoVariant, summary.Failed)
	if err != nil {
		log.Fatalf("Batch search stopped: %v", err)
	}
}

func importFile(ctx context.Context, importer *services.ImportService, path, column, forwardTo string) (services.ImportSummary, error) {
	f, err := os.Open(path)
	if err != nil {
		return services.ImportSummary{}, err
	}
	defer f.Close()

	table, err := services.ParseCSV(f)
	if err != nil {
		return services.ImportSummary{}, err
	}
	idx, err := services.ResolveColumn(table.Headers, column)
	if err != nil {
		return services.ImportSummary{}, err
	}
	return importer.Import(ctx, table, idx, forwardTo)
}
