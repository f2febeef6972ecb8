// cmd/stockrisk/main.go
package main

import (
	"os"

	"github.com/andresuchdata/stockrisk/pkg/logger"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		logger.Log.Debug().Err(err).Msg("no .env file loaded")
	}

	if err := newApp().Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("stockrisk failed")
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "stockrisk",
		Usage: "Demand forecasting, stock-out alerts and supplier risk scoring",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"LOG_LEVEL"},
			},
		},
		Before: func(c *cli.Context) error {
			logger.SetOutput(c.App.ErrWriter)
			logger.SetLevel(c.String("log-level"))
			return nil
		},
		Commands: []*cli.Command{
			migrateCommand(),
			importCommand(),
			forecastCommand(),
			scenarioCommand(),
			scoreCommand(),
			refreshCommand(),
			exportCommand(),
			modelsCommand(),
		},
	}
}
