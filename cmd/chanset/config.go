// Copyright 2020 VMware, Inc.
// SPDX-License-Identifier: BSD-2-Clause

package main

import (
	"io"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/pelletier/go-toml"
)

// TOML is a kong.ConfigurationLoader for TOML files whose top level keys are flag names:
//
//	ignore-track = ["latest"]
//	ensure-charmhub = true
//	log = "debug"
//
// Keys can also be nested under a table named after the command ("[update]").
func TOML(r io.Reader) (kong.Resolver, error) {
	tree, err := toml.LoadReader(r)
	if err != nil {
		return nil, err
	}

	return kong.ResolverFunc(func(ctx *kong.Context, parent *kong.Path, flag *kong.Flag) (interface{}, error) {
		var keys []string
		if parent != nil && parent.Command != nil {
			keys = append(keys, parent.Command.Name+"."+flag.Name)
		}
		keys = append(keys, flag.Name, strings.ReplaceAll(flag.Name, "-", "_"))

		for _, k := range keys {
			switch v := tree.GetPath(strings.Split(k, ".")).(type) {
			case nil, *toml.Tree:
			default:
				return v, nil
			}
		}
		return nil, nil
	}), nil
}
