package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/birkland/bagval"
	"github.com/birkland/bagval/metadata"
	bagprofile "github.com/birkland/bagval/profile"
	"github.com/urfave/cli"
)

var profile = cli.Command{
	Name:  "profile",
	Usage: "Check a BagIt profile",
	Description: `Load a BagIt profile, given as argument or via -p, and check it for
	internal consistency, i.e. that all required payload directories are
	allowed ones.  A summary of the profile's rules is printed.`,
	ArgsUsage: "[ profile ]",

	Action: func(c *cli.Context) error {
		return profileAction(c.Args())
	},
}

func profileAction(args []string) error {
	location := mainOpts.profile
	if len(args) > 0 {
		location = args[0]
	}
	if location == "" {
		return fmt.Errorf("no profile given")
	}

	p, err := metadata.LoadProfile(context.Background(), location)
	if err != nil {
		return err
	}

	fmt.Printf("%s (%s)\n", p.Source, p.Identifier)
	fmt.Printf("  bag-info tags:      %s\n", strings.Join(p.Tags(), ", "))
	fmt.Printf("  manifests required: %v\n", p.ManifestsRequired)
	fmt.Printf("  required folders:   %s\n", strings.Join(p.RequiredDirs, ", "))
	fmt.Printf("  bagit versions:     %s\n", strings.Join(p.AcceptBagItVersion, ", "))

	r := bagprofile.CheckConsistency(p)
	fmt.Print(r.Fancy())
	return bagval.Verdict(bagval.ProfileConformance, r)
}
