package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/birkland/bagval/drivers/fs"
	"github.com/birkland/bagval/validator"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

var validateOpts = struct {
	skipProfile   bool
	skipIntegrity bool
	skipFormat    bool
	locate        bool
	report        string
}{}

var validate = cli.Command{
	Name:  "validate",
	Usage: "Validate bags",
	Description: `Given a list of bag directories, validate each of them.

	A bag is checked for conformity with a BagIt profile (when one is
	given via -p, or in the configuration), for integrity of its payload
	and tag files (completeness, Payload-Oxum, checksums), and for valid
	file formats (when format plugins are configured).  For example

	  bagval -p https://example.org/profile.json validate /bags/bag1 /bags/bag2

	The report of each bag is printed, and optionally written to a file.
	The exit status is non-zero if any bag is invalid.`,
	ArgsUsage: "bag...",
	Flags: []cli.Flag{
		cli.BoolFlag{
			Name:        "skip-profile",
			Usage:       "Do not validate profile conformity",
			Destination: &validateOpts.skipProfile,
		},
		cli.BoolFlag{
			Name:        "skip-integrity",
			Usage:       "Do not validate payload integrity",
			Destination: &validateOpts.skipIntegrity,
		},
		cli.BoolFlag{
			Name:        "skip-format",
			Usage:       "Do not validate file formats",
			Destination: &validateOpts.skipFormat,
		},
		cli.BoolFlag{
			Name:        "locate, l",
			Usage:       "Validate the bag containing each given path",
			Destination: &validateOpts.locate,
		},
		cli.StringFlag{
			Name:        "report, r",
			Usage:       "Also write reports to this file",
			Destination: &validateOpts.report,
		},
	},

	Action: func(c *cli.Context) error {
		return validateAction(c.Args())
	},
}

func validateAction(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("no bags given")
	}

	cfg := config()
	defer cfg.Logger.Sync() // nolint:errcheck

	cfg.SkipProfile = cfg.SkipProfile || validateOpts.skipProfile
	cfg.SkipIntegrity = cfg.SkipIntegrity || validateOpts.skipIntegrity
	cfg.SkipFormat = cfg.SkipFormat || validateOpts.skipFormat

	ctx := context.Background()
	v, err := validator.New(ctx, cfg)
	if err != nil {
		return errors.Wrapf(err, "could not set up validation")
	}

	var out io.Writer = os.Stdout
	var report *fs.ReportFile
	if validateOpts.report != "" {
		report, err = fs.CreateReport(validateOpts.report)
		if err != nil {
			return err
		}
		defer report.Discard() // nolint:errcheck
		out = io.MultiWriter(os.Stdout, report)
	}

	invalid := 0
	for _, path := range args {
		if validateOpts.locate {
			path, err = fs.LocateBag(path)
			if err != nil {
				return err
			}
		}

		res, err := v.Run(ctx, path)
		if err != nil && !validator.IsInvalid(err) {
			return err
		}

		status := "valid"
		if err != nil {
			invalid++
			status = "invalid"
		}
		fmt.Fprintf(out, "%s: %s (run %s)\n%s\n", path, status, res.ID, res.Report.Fancy())
	}

	if report != nil {
		if err := report.Commit(); err != nil {
			return err
		}
	}

	if invalid > 0 {
		return fmt.Errorf("%d of %d bags are invalid", invalid, len(args))
	}
	return nil
}
