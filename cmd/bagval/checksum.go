package main

import (
	"fmt"

	"github.com/birkland/bagval"
	"github.com/birkland/bagval/integrity"
	"github.com/urfave/cli"
)

var checksumOpts = struct {
	algorithm string
}{}

var checksum = cli.Command{
	Name:  "checksum",
	Usage: "Verify the checksum of a single file",
	Description: `Given a file and its expected digest, verify that they match.

	  bagval checksum -a md5 report.pdf 0cc175b9c0f1b6a831c399e269772661

	Supported algorithms are md5, sha1, sha224, sha256, sha384, sha512,
	sha3-256, sha3-512, blake2b-256 and blake2b-512.`,
	ArgsUsage: "file digest",
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:        "algorithm, a",
			Usage:       "Digest algorithm",
			Value:       "sha256",
			Destination: &checksumOpts.algorithm,
		},
	},

	Action: func(c *cli.Context) error {
		return checksumAction(c.Args())
	},
}

func checksumAction(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("expected a file and a digest")
	}

	r, err := integrity.VerifyFile(args[0], bagval.Algorithm(checksumOpts.algorithm), bagval.Digest(args[1]))
	fmt.Print(r.Fancy())
	return err
}
