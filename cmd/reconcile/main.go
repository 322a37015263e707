// Command reconcile checks the inventory ledger against the live database and
// exits with status 1 when any drift is found.
package main

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/jljulioa/POS-App-sub001/internal/config"
	"github.com/jljulioa/POS-App-sub001/internal/infra"
	"github.com/jljulioa/POS-App-sub001/internal/repository"
	"github.com/jljulioa/POS-App-sub001/internal/service"

	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	infra.SetupLogger(cfg.Env, cfg.LogLevel)

	db, err := infra.NewDatabase(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	products := repository.NewProductRepository(db)
	transactions := repository.NewInventoryTransactionRepository(db)
	svc := service.NewInventoryService(
		products,
		transactions,
		repository.NewSaleRepository(db),
		repository.NewPurchaseInvoiceRepository(db),
		service.NewStockMutator(products),
		service.NewLedgerWriter(transactions),
		nil,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	report, err := svc.Reconcile(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("reconciliation failed")
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		log.Fatal().Err(err).Msg("failed to write report")
	}

	if !report.OK {
		log.Error().
			Int("stock_drift", len(report.StockDrift)).
			Int("broken_entries", len(report.BrokenEntries)).
			Int("sale_total_drift", len(report.SaleTotalDrift)).
			Int("invoice_balance_drift", len(report.InvoiceBalanceDrift)).
			Msg("ledger drift detected")
		os.Exit(1)
	}
	log.Info().Int("products_checked", report.ProductsChecked).Msg("ledger consistent")
}
