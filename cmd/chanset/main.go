// Copyright 2020 VMware, Inc.
// SPDX-License-Identifier: BSD-2-Clause

package main

import (
	"io"
	"os"

	"github.com/alecthomas/kong"
	"github.com/sirupsen/logrus"
)

// Context is passed to the Run method of every command.
type Context struct {
	Log    *logrus.Entry
	Stdout io.Writer
}

// CLI is the command line interface of chanset.
type CLI struct {
	Log string `name:"log" default:"info" help:"Log level (debug, info, warn, error, critical)."`

	Update UpdateCmd `cmd:"" default:"withargs" help:"Change, add or remove the channel of charms in the bundles of a charm (default command)."`
	Show   ShowCmd   `cmd:"" help:"Show charm and channel of the applications in the bundles of a charm."`

	Version kong.VersionFlag `name:"version" help:"Print version information and quit"`
}

// configFiles are TOML files providing flag defaults, in increasing priority.
var configFiles = []string{"~/.config/chanset.toml", ".chanset.toml"}

func newParser(cli *CLI, options ...kong.Option) (*kong.Kong, error) {
	opts := []kong.Option{
		kong.Name("chanset"),
		kong.Description("Change or add the juju channel to the bundles of a charm.\n\nEither pass the directory of the charm, or be in that directory when chanset is called."),
		kong.UsageOnError(),
		kong.Vars{
			"version":    "0.1.0",
			"namespaces": defaultNamespaces(),
		},
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}),
		kong.Configuration(TOML, configFiles...),
	}
	return kong.New(cli, append(opts, options...)...)
}

func main() {
	var cli CLI
	parser, err := newParser(&cli)
	if err != nil {
		panic(err)
	}
	ctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	logger, err := newLogger(cli.Log, os.Stderr)
	ctx.FatalIfErrorf(err)

	err = ctx.Run(&Context{Log: logrus.NewEntry(logger), Stdout: os.Stdout})
	ctx.FatalIfErrorf(err)
}
