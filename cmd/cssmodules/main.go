package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"

	"github.com/sjc5/cssmodules"
)

var configFlag = &cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "load configuration from `FILE` (YAML or TOML)"}
var rootFlag = &cli.StringFlag{Name: "root", Aliases: []string{"r"}, Usage: "directory CSS module names are relative to"}

func loadConfig(cmd *cli.Command, override func(*cssmodules.Config)) (*cssmodules.Config, error) {
	cfg, err := cssmodules.LoadConfig(cmd.String("config"), func(c *cssmodules.Config) {
		if cmd.IsSet("root") {
			c.RootDir = cmd.String("root")
		}
		override(c)
	})
	if err != nil {
		return nil, fmt.Errorf("unable to prepare configuration: %w", err)
	}
	return cfg, nil
}

func runBuild(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd, func(c *cssmodules.Config) {
		if cmd.IsSet("out") {
			c.Bundle.OutFile = cmd.String("out")
		}
		if cmd.IsSet("separate-css") {
			c.Bundle.SeparateCSS = cmd.Bool("separate-css")
		}
		if cmd.IsSet("system-global") {
			c.Bundle.SystemGlobal = cmd.String("system-global")
		}
		if cmd.Bool("debug") {
			c.LogLevel = "debug"
		}
	})
	if err != nil {
		return err
	}

	result, err := cssmodules.New(cfg).Build(ctx)
	if err != nil {
		return err
	}
	if result.OutFile == "" && result.Artifact != "" {
		_, err = fmt.Fprintln(os.Stdout, result.Artifact)
	}
	return err
}

func runDev(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd, func(c *cssmodules.Config) {
		if cmd.IsSet("port") {
			c.Dev.Port = int(cmd.Int("port"))
		}
	})
	if err != nil {
		return err
	}
	return cssmodules.New(cfg).StartDev(ctx)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	app := &cli.Command{
		Name:            "cssmodules",
		Usage:           "builds and serves CSS modules",
		HideHelpCommand: true,
		Commands: []*cli.Command{
			{
				Name:   "build",
				Usage:  "Bundles every CSS module into a single injector script",
				Action: runBuild,
				Flags: []cli.Flag{
					configFlag,
					rootFlag,
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "write the bundle to `FILE` instead of STDOUT"},
					&cli.BoolFlag{Name: "separate-css", Usage: "write minified CSS next to the output file instead of injecting it"},
					&cli.StringFlag{Name: "system-global", Usage: "module loader global used for stub registrations", Value: "System"},
					&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: "verbose logging"},
				},
			},
			{
				Name:   "dev",
				Usage:  "Serves live CSS modules with hot reload",
				Action: runDev,
				Flags: []cli.Flag{
					configFlag,
					rootFlag,
					&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Usage: "listen on `PORT` (0 picks a free one)"},
				},
			},
		},
	}

	var err error
	defer func() {
		stop()
		if err != nil {
			// build failures accumulate one error per module
			for _, e := range multierr.Errors(err) {
				fmt.Fprintf(os.Stderr, "cssmodules: %v\n", e)
			}
			os.Exit(1)
		}
	}()
	err = app.Run(ctx, os.Args)
}
