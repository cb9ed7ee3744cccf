package main

import "github.com/urfave/cli/v2"

func (s *srv) loadApp() {
	app := cli.NewApp()
	app.Action = cli.ShowAppHelp
	app.Name = "lottery"
	app.Usage = "Timed lottery sessions, draws and payouts"
	app.Before = s.before
	app.Commands = []*cli.Command{
		{
			Action:      s.startApi,
			Name:        "api",
			Usage:       "Start service api",
			Category:    "Api",
			Description: `Used to start the http api, including the operator and trigger endpoints.`,
		},
		{
			Action:      s.startCron,
			Name:        "worker",
			Usage:       "Start service worker",
			Category:    "Worker",
			Description: `Used to start the worker that processes scheduled events and runs the watchdog.`,
		},
		{
			Action:      s.startSubscriber,
			Name:        "subscriber",
			Usage:       "Start service subscriber",
			Category:    "Worker",
			Description: `Used to start the consumer that caches and archives completed draw results.`,
		},
		{
			Action:   s.startMigrate,
			Name:     "migrate",
			Usage:    "Migrate database",
			Category: "Tool",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "version",
					Value: "sql",
					Usage: "sql applies the embedded migrations, auto runs gorm auto migration",
				},
			},
			Description: `Used to migrate the database schema.`,
		},
		{
			Action:   s.genTriggerKey,
			Name:     "gen-trigger-key",
			Usage:    "Generate a trigger key and its hash",
			Category: "Tool",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "key",
					Usage: "use this key instead of a random one",
				},
			},
			Description: `Used to create the key external schedulers present on /processEvents.`,
		},
		{
			Action:   s.genAccessToken,
			Name:     "gen-token",
			Usage:    "Generate an access token of a user",
			Category: "Tool",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "user",
					Required: true,
					Usage:    "id of the user",
				},
			},
			Description: `Used to issue an access token for operators.`,
		},
	}

	s.app = app
}
