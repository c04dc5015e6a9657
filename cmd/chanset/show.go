// Copyright 2020 VMware, Inc.
// SPDX-License-Identifier: BSD-2-Clause

package main

import (
	"os"

	"chanset.io/pkg/inspect"
	"gopkg.in/yaml.v3"
)

// ShowCmd prints the charm and channel of every application of every bundle.
type ShowCmd struct {
	BundleFlags
}

func (s *ShowCmd) Run(ctx *Context) error {
	files, err := s.find(ctx.Log)
	if err != nil {
		return err
	}

	res := map[string]map[string]inspect.Application{}
	for _, f := range files {
		log := ctx.Log.WithField("file", f)

		b, err := os.ReadFile(f)
		if err != nil {
			return err
		}
		apps, err := inspect.Applications(b)
		if err != nil {
			log.Warnf("skipping: %v", err)
			continue
		}
		m := map[string]inspect.Application{}
		for _, a := range apps {
			m[a.Pointer] = a
		}
		res[f] = m
	}

	enc := yaml.NewEncoder(ctx.Stdout)
	enc.SetIndent(2)
	if err := enc.Encode(res); err != nil {
		return err
	}
	return enc.Close()
}
