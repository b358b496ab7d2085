package main

import (
	"log"
	"os"

	"github.com/birkland/bagval/validator"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var mainOpts = struct {
	profile   string
	config    string
	workers   int
	logLevel  string
	logFormat string
}{}

func main() {
	app := cli.NewApp()
	app.Name = "bagval"
	app.Usage = "BagIt bag validation utilities"
	app.EnableBashCompletion = true
	app.Commands = []cli.Command{
		validate,
		checksum,
		profile,
		plugins,
	}
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:        "profile, p",
			Usage:       "BagIt profile (file or http(s) URL)",
			EnvVar:      "BAGVAL_PROFILE",
			Destination: &mainOpts.profile,
		},
		cli.StringFlag{
			Name:        "config, c",
			Usage:       "Validation configuration (YAML file)",
			EnvVar:      "BAGVAL_CONFIG",
			Destination: &mainOpts.config,
		},
		cli.IntFlag{
			Name:        "workers, w",
			Usage:       "Files processed concurrently (default: number of CPUs)",
			EnvVar:      "BAGVAL_WORKERS",
			Destination: &mainOpts.workers,
		},
		cli.StringFlag{
			Name:        "log-level",
			Usage:       "Operational log level {debug, info, warn, error}",
			EnvVar:      "BAGVAL_LOG_LEVEL",
			Value:       "warn",
			Destination: &mainOpts.logLevel,
		},
		cli.StringFlag{
			Name:        "log-format",
			Usage:       "Operational log format {console, json}",
			EnvVar:      "BAGVAL_LOG_FORMAT",
			Value:       "console",
			Destination: &mainOpts.logFormat,
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		log.Fatal(err)
	}
}

// config reads the configuration file, if any, and applies global flags
func config() validator.Config {
	cfg := validator.Config{}
	if mainOpts.config != "" {
		loaded, err := validator.LoadConfig(mainOpts.config)
		if err != nil {
			log.Fatalf("could not read configuration %+v", err)
		}
		cfg = *loaded
	}

	if mainOpts.profile != "" {
		cfg.Profile = mainOpts.profile
	}
	if mainOpts.workers > 0 {
		cfg.Workers = mainOpts.workers
	}

	logger, err := newLogger(mainOpts.logLevel, mainOpts.logFormat)
	if err != nil {
		log.Fatalf("could not set up logging %+v", err)
	}
	cfg.Logger = logger

	return cfg
}

func newLogger(level, format string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, errors.Wrapf(err, "bad log level")
	}

	var zc zap.Config
	switch format {
	case "json":
		zc = zap.NewProductionConfig()
	case "console", "":
		zc = zap.NewDevelopmentConfig()
	default:
		return nil, errors.Errorf("unknown log format %s", format)
	}

	zc.Level = zap.NewAtomicLevelAt(lvl)
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}

	return zc.Build()
}
