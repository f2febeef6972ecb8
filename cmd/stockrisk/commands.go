package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/andresuchdata/stockrisk/internal/app"
	"github.com/andresuchdata/stockrisk/internal/config"
	"github.com/andresuchdata/stockrisk/internal/domain"
	"github.com/andresuchdata/stockrisk/internal/ingest"
	"github.com/andresuchdata/stockrisk/internal/model"
	"github.com/andresuchdata/stockrisk/internal/repository/postgres"
	"github.com/andresuchdata/stockrisk/internal/storage"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "db-url",
		Usage:   "Database connection string (defaults to the DB_* settings)",
		EnvVars: []string{"DATABASE_URL"},
	}
}

func snapshotFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "sku", Usage: "SKU label"},
		&cli.Float64Flag{Name: "stock", Usage: "Current stock", Required: true},
		&cli.Float64Flag{Name: "daily", Usage: "Daily sales rate", Required: true},
		&cli.Float64Flag{Name: "weekly", Usage: "Weekly sales rate", Required: true},
		&cli.Float64Flag{Name: "lead-time", Usage: "Supplier lead time in days", Value: 7},
		&cli.IntFlag{Name: "horizon", Usage: "Forecast horizon in days", Value: 30},
		&cli.Int64Flag{Name: "seed", Usage: "Pin the random source (0 keeps it random)"},
	}
}

func snapshotFromFlags(c *cli.Context) domain.StockInput {
	return domain.StockInput{
		SKU:          c.String("sku"),
		CurrentStock: c.Float64("stock"),
		DailySales:   c.Float64("daily"),
		WeeklySales:  c.Float64("weekly"),
		LeadTime:     c.Float64("lead-time"),
		ForecastDays: c.Int("horizon"),
	}
}

// offlineApp builds the services without a database.
func offlineApp(c *cli.Context) *app.App {
	cfg := config.Load()
	if c.IsSet("seed") {
		cfg.Forecast.Seed = c.Int64("seed")
	}
	return app.New(c.Context, cfg, nil)
}

// onlineApp connects to postgres through pgx and builds the full service graph.
func onlineApp(c *cli.Context) (*app.App, error) {
	cfg := config.Load()
	dsn := c.String("db-url")
	if dsn == "" {
		dsn = postgres.DSN(&cfg.Database)
	}
	db, err := postgres.OpenPgx(c.Context, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}
	return app.New(c.Context, cfg, db), nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Apply pending database migrations",
		Flags: []cli.Flag{newDBURLFlag()},
		Action: func(c *cli.Context) error {
			dsn := c.String("db-url")
			if dsn == "" {
				dsn = postgres.DSN(&config.Load().Database)
			}
			db, err := sql.Open("pgx", dsn)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer db.Close()

			if err := db.PingContext(c.Context); err != nil {
				return fmt.Errorf("failed to ping database: %w", err)
			}

			n, err := postgres.Migrate(c.Context, db)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "applied %d migration(s)\n", n)
			return nil
		},
	}
}

func forecastCommand() *cli.Command {
	return &cli.Command{
		Name:  "forecast",
		Usage: "Forecast demand and print the stock-out alert",
		Flags: snapshotFlags(),
		Action: func(c *cli.Context) error {
			a := offlineApp(c)
			out, err := a.Forecast.ForecastAndAlert(snapshotFromFlags(c).ForecastRequest())
			if err != nil {
				return err
			}
			return printJSON(c.App.Writer, out)
		},
	}
}

func scenarioCommand() *cli.Command {
	flags := append(snapshotFlags(),
		&cli.Float64Flag{Name: "demand-multiplier", Value: 1},
		&cli.Float64Flag{Name: "sales-spike", Value: 1},
		&cli.Float64Flag{Name: "lead-time-delta"},
		&cli.Float64Flag{Name: "stock-delta"},
	)
	return &cli.Command{
		Name:  "scenario",
		Usage: "Compare a baseline forecast with an adjusted scenario",
		Flags: flags,
		Action: func(c *cli.Context) error {
			a := offlineApp(c)
			cmp, err := a.Forecast.PlanScenario(c.Context, snapshotFromFlags(c), map[string]float64{
				"demandMultiplier": c.Float64("demand-multiplier"),
				"salesSpike":       c.Float64("sales-spike"),
				"leadTimeDelta":    c.Float64("lead-time-delta"),
				"stockDelta":       c.Float64("stock-delta"),
			})
			if err != nil {
				return err
			}
			return printJSON(c.App.Writer, cmp)
		},
	}
}

func scoreCommand() *cli.Command {
	return &cli.Command{
		Name:  "score",
		Usage: "Score a supplier's delivery risk",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "supplier", Required: true},
			&cli.StringFlag{Name: "category", Value: domain.DefaultSupplierCategory},
			&cli.Float64Flag{Name: "qty", Value: domain.DefaultSupplierQty},
			&cli.Float64Flag{Name: "price", Value: domain.DefaultSupplierPrice},
			&cli.Float64Flag{Name: "payment-risk"},
		},
		Action: func(c *cli.Context) error {
			a := offlineApp(c)
			profile, err := a.Supplier.ScoreSupplier(domain.SupplierScoreInput{
				SupplierID:  c.String("supplier"),
				Category:    c.String("category"),
				OrderedQty:  c.Float64("qty"),
				BasePrice:   c.Float64("price"),
				PaymentRisk: c.Float64("payment-risk"),
			})
			if err != nil {
				return err
			}
			return printJSON(c.App.Writer, profile)
		},
	}
}

func refreshCommand() *cli.Command {
	return &cli.Command{
		Name:  "refresh",
		Usage: "Recompute status and risk level for every product",
		Flags: []cli.Flag{newDBURLFlag()},
		Action: func(c *cli.Context) error {
			a, err := onlineApp(c)
			if err != nil {
				return err
			}
			defer a.DB.Close()

			run, _, err := a.Refresher.Run(c.Context)
			if run != nil {
				if perr := printJSON(c.App.Writer, run); perr != nil {
					return perr
				}
			}
			return err
		},
	}
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export a SKU's forecast as an XLSX workbook",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "sku", Required: true},
			&cli.StringFlag{Name: "out", Usage: "Output file (defaults to forecast_<sku>.xlsx)"},
			&cli.BoolFlag{Name: "upload", Usage: "Also store the workbook in object storage"},
			newDBURLFlag(),
		},
		Action: func(c *cli.Context) error {
			a, err := onlineApp(c)
			if err != nil {
				return err
			}
			defer a.DB.Close()

			sku := c.String("sku")
			data, key, err := a.Forecast.ExportForecast(c.Context, sku, c.Bool("upload"))
			if err != nil {
				return err
			}

			out := c.String("out")
			if out == "" {
				out = fmt.Sprintf("forecast_%s.xlsx", sku)
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			fmt.Fprintf(c.App.Writer, "wrote %s\n", out)
			if key != "" {
				fmt.Fprintf(c.App.Writer, "uploaded %s\n", key)
			}
			return nil
		},
	}
}

func modelsCommand() *cli.Command {
	return &cli.Command{
		Name:  "models",
		Usage: "Manage predictor artefacts",
		Subcommands: []*cli.Command{
			{
				Name:  "sync",
				Usage: "Download model artefacts from object storage",
				Action: func(c *cli.Context) error {
					cfg := config.Load()
					store := app.NewStorage(cfg.Storage)
					if store == nil {
						return errors.New("object storage is not configured")
					}
					n, err := model.NewLoader(cfg.Models.Dir, store, cfg.Models.Prefix).Sync(c.Context)
					if err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "synced %d artefact(s) into %s\n", n, cfg.Models.Dir)
					return nil
				},
			},
			{
				Name:  "status",
				Usage: "Show which predictors load from the local directory",
				Action: func(c *cli.Context) error {
					return printJSON(c.App.Writer, offlineApp(c).Models)
				},
			},
		},
	}
}

func importCommand() *cli.Command {
	flags := func() []cli.Flag {
		return []cli.Flag{
			&cli.StringFlag{Name: "file", Usage: "CSV or XLSX export to load"},
			&cli.StringFlag{Name: "prefix", Usage: "Load every CSV/XLSX object under this storage prefix instead"},
			newDBURLFlag(),
		}
	}

	run := func(c *cli.Context, products bool, load func(*ingest.Importer, *ingest.Table) (*ingest.Summary, error)) error {
		a, err := onlineApp(c)
		if err != nil {
			return err
		}
		defer a.DB.Close()

		files, cleanup, err := importFiles(c.Context, a.Storage, c.String("file"), c.String("prefix"))
		if err != nil {
			return err
		}
		defer cleanup()

		importer := ingest.NewImporter(postgres.NewIngestRepository(a.DB))
		for _, file := range files {
			table, err := ingest.ReadFile(file)
			if err != nil {
				return err
			}
			sum, err := load(importer, table)
			if err != nil {
				return errors.Wrapf(err, "import %s", file)
			}
			fmt.Fprintf(c.App.Writer, "%s: ", file)
			if err := printJSON(c.App.Writer, sum); err != nil {
				return err
			}
		}
		if products {
			return a.Forecast.InvalidateCached(c.Context)
		}
		return nil
	}

	return &cli.Command{
		Name:  "import",
		Usage: "Load products or supplier transactions from spreadsheets",
		Subcommands: []*cli.Command{
			{
				Name:  "products",
				Usage: "Upsert product snapshots by SKU",
				Flags: flags(),
				Action: func(c *cli.Context) error {
					return run(c, true, func(im *ingest.Importer, t *ingest.Table) (*ingest.Summary, error) {
						return im.ImportProducts(c.Context, t)
					})
				},
			},
			{
				Name:  "suppliers",
				Usage: "Append supplier transactions",
				Flags: flags(),
				Action: func(c *cli.Context) error {
					return run(c, false, func(im *ingest.Importer, t *ingest.Table) (*ingest.Summary, error) {
						return im.ImportTransactions(c.Context, t)
					})
				},
			},
		},
	}
}

// importFiles resolves a local file or a storage prefix to spreadsheet paths.
// cleanup removes any download directory and must run once the files are read.
func importFiles(ctx context.Context, store storage.ObjectStorage, file, prefix string) ([]string, func(), error) {
	noop := func() {}
	switch {
	case file != "":
		return []string{file}, noop, nil
	case prefix != "":
		if store == nil {
			return nil, noop, errors.New("object storage is not configured")
		}
		dir, err := os.MkdirTemp("", "stockrisk-import-")
		if err != nil {
			return nil, noop, err
		}
		cleanup := func() { _ = os.RemoveAll(dir) }
		files, err := ingest.Fetch(ctx, store, prefix, dir)
		if err != nil {
			cleanup()
			return nil, noop, err
		}
		return files, cleanup, nil
	default:
		return nil, noop, errors.New("either --file or --prefix is required")
	}
}
