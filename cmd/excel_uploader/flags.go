package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/npanukhin/excel_uploader/internal/app"
	"github.com/npanukhin/excel_uploader/internal/config"
	altsrc "github.com/urfave/cli-altsrc/v3"
	"github.com/urfave/cli-altsrc/v3/yaml"
	"github.com/urfave/cli/v3"
)

var version = "dev"

func cmd() *cli.Command {
	return &cli.Command{
		Name:      "excel_uploader",
		Usage:     "submit a spreadsheet for remote processing and save the result",
		Version:   version,
		ArgsUsage: "FILE",
		Flags:     flags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log, ok := ctx.Value(loggerKey{}).(*slog.Logger)
			if !ok {
				return errors.New("failed to get logger from context")
			}

			file := cmd.Args().First()
			if file == "" {
				return errors.New("no input file given")
			}

			cfg := config.LoadClient(cmd)

			return app.New(log, cfg).Run(ctx, file)
		},
	}
}

func flags() []cli.Flag {
	var config string

	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Validator:   validateConfig,
			Usage:       "Load configuration from `FILE`",
			Destination: &config,
		},
		&cli.StringFlag{
			Name:    "base-url",
			Aliases: []string{"u"},
			Usage:   "Set base URL of the processing service",
			Value:   "http://localhost:5000",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("EXCEL_UPLOADER_BASE_URL"),
				yaml.YAML("app.base_url", altsrc.NewStringPtrSourcer(&config)),
			),
		},
		&cli.StringFlag{
			Name:      "output-dir",
			Aliases:   []string{"o"},
			Usage:     "Set directory to save processed files to",
			Value:     ".",
			Sources:   cli.NewValueSourceChain(yaml.YAML("app.output_dir", altsrc.NewStringPtrSourcer(&config))),
			Validator: validateDirectory,
		},
	}
}

func validateDirectory(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%q does not exist", dir)
		}
		return fmt.Errorf("failed to stat %q: %w", dir, err)
	}

	if !info.IsDir() {
		return fmt.Errorf("%q is not a directory", dir)
	}

	return nil
}

func validateConfig(config string) error {
	info, err := os.Stat(config)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%q does not exist", config)
		}
		return fmt.Errorf("failed to stat %q: %w", config, err)
	}

	if info.IsDir() {
		return fmt.Errorf("%q is a directory, not a file", config)
	}

	ext := filepath.Ext(info.Name())
	if ext != ".yml" && ext != ".yaml" {
		return fmt.Errorf("invalid extension %q", config)
	}

	return nil
}
