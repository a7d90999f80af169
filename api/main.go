package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

// @title Product Management API
// @version 1.0
// @description Product catalog and user services.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	configFlag := &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "path to a config file (yaml, json or env)",
		EnvVars: []string{"CONFIG_FILE"},
	}

	return &cli.App{
		Name:  "product-management",
		Usage: "product catalog and user services",
		Flags: []cli.Flag{configFlag},
		Commands: []*cli.Command{
			{
				Name:  "products",
				Usage: "serve the product service",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "addr", Usage: "listen address (overrides server.addr)"},
					&cli.BoolFlag{Name: "migrate", Usage: "apply pending migrations before serving"},
				},
				Action: serveProducts,
			},
			{
				Name:  "users",
				Usage: "serve the user service",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "addr", Value: ":8081", Usage: "listen address"},
					&cli.BoolFlag{Name: "migrate", Usage: "apply pending migrations before serving"},
				},
				Action: serveUsers,
			},
			{
				Name:  "migrate",
				Usage: "manage the database schema",
				Subcommands: []*cli.Command{
					{
						Name:   "up",
						Usage:  "apply all pending migrations",
						Action: migrateUp,
					},
					{
						Name:  "down",
						Usage: "roll back migrations",
						Flags: []cli.Flag{
							&cli.IntFlag{Name: "steps", Value: 1, Usage: "number of migrations to roll back"},
						},
						Action: migrateDown,
					},
					{
						Name:   "version",
						Usage:  "print the current schema version",
						Action: migrateVersion,
					},
				},
			},
		},
	}
}
