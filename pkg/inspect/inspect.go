// Copyright 2020 VMware, Inc.
// SPDX-License-Identifier: BSD-2-Clause

// Package inspect reads the charm and channel of the applications declared in a bundle.
package inspect

import (
	"errors"
	"fmt"

	"github.com/go-openapi/jsonpointer"
	yptr "github.com/vmware-labs/yaml-jsonpointer"
	"gopkg.in/yaml.v3"
)

// An Application is one entry of the applications section of a bundle.
type Application struct {
	// Pointer is the JSONPointer of the application in the bundle, e.g. "/applications/keystone".
	Pointer string `yaml:"-"`
	Name    string `yaml:"-"`
	Charm   string `yaml:"charm,omitempty"`
	Channel string `yaml:"channel,omitempty"`
}

// sections holding applications; "services" is the pre juju 2.0 name.
var sections = []string{"applications", "services"}

// Applications returns the applications declared in a bundle, in source order.
func Applications(src []byte) ([]Application, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(src, &root); err != nil {
		return nil, err
	}
	if root.Kind == 0 {
		return nil, nil
	}

	var res []Application
	for _, s := range sections {
		apps, err := yptr.Find(&root, "/"+s)
		if errors.Is(err, yptr.ErrNotFound) {
			continue
		} else if err != nil {
			return nil, err
		}
		if apps.Kind != yaml.MappingNode {
			if apps.Tag == "!!null" {
				continue
			}
			return nil, fmt.Errorf("%q is not a map", s)
		}

		for i := 0; i+1 < len(apps.Content); i += 2 {
			name, app := apps.Content[i].Value, apps.Content[i+1]
			a := Application{
				Pointer: "/" + s + "/" + jsonpointer.Escape(name),
				Name:    name,
			}
			if app.Kind == yaml.MappingNode {
				if a.Charm, err = scalar(app, "/charm"); err != nil {
					return nil, err
				}
				if a.Channel, err = scalar(app, "/channel"); err != nil {
					return nil, err
				}
			}
			res = append(res, a)
		}
	}
	return res, nil
}

// scalar returns the value of a scalar field, or "" if the field is missing.
func scalar(n *yaml.Node, ptr string) (string, error) {
	f, err := yptr.Find(n, ptr)
	if errors.Is(err, yptr.ErrNotFound) {
		return "", nil
	} else if err != nil {
		return "", err
	}
	if f.Kind != yaml.ScalarNode {
		return "", fmt.Errorf("%s is not a scalar", ptr)
	}
	return f.Value, nil
}
