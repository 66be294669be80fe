package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
	"gitlab.com/pwprobe/clicmds"
)

func main() {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()

	app := cli.NewApp()
	app.Name = "pwprobe"
	app.Version = "0.1"
	app.Usage = "Analyzes password policies on web applications."
	app.Flags = append(clicmds.ProbeFlags(), &cli.StringFlag{
		Name:  "log_level",
		Usage: "log level (debug, info, warn, error)",
		Value: "info",
	})
	app.Before = func(ctx *cli.Context) error {
		level, err := zerolog.ParseLevel(ctx.String("log_level"))
		if err != nil {
			return err
		}
		zerolog.SetGlobalLevel(level)
		return nil
	}
	app.Action = clicmds.Probe
	app.Commands = []*cli.Command{
		{
			Name:    "testauth",
			Aliases: []string{"ta"},
			Usage:   "test a single credential pair",
			Action:  clicmds.TestAuth,
			Flags:   clicmds.TestAuthFlags(),
		},
	}
	err := app.Run(os.Args)
	if err == nil {
		return
	}
	if clicmds.IsReported(err) {
		os.Exit(1)
	}
	log.Fatal().Msgf("An unhandled error occurred: %+v", err)
}
