package main

import (
	"fmt"

	"github.com/birkland/bagval/validator"
	"github.com/urfave/cli"
)

var plugins = cli.Command{
	Name:  "plugins",
	Usage: "List file format plugins",
	Description: `List all file format validation plugins that can be named in the
	plugins section of a configuration file, along with the MIME types
	each selects by default.`,

	Action: func(c *cli.Context) error {
		return pluginsAction()
	},
}

func pluginsAction() error {
	for _, name := range validator.PluginNames() {
		p, err := validator.NewPlugin(name)
		if err != nil {
			return err
		}
		fmt.Printf("%s: %s\n  %s\n  default: %s\n", name, p.Tag(), p.Summary(), p.DefaultSelector())
	}
	return nil
}
