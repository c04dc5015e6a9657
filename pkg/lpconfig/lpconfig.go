// Copyright 2020 VMware, Inc.
// SPDX-License-Identifier: BSD-2-Clause

/*
Package lpconfig reads the lp-builder-config documents that map the git branches
of a charm to the charmhub channels they are published to.

A document looks like:

	defaults:
	  branches:
	    master:
	      channels:
	        - latest/edge
	projects:
	  - name: OpenStack Nova Compute Charm
	    charmhub: nova-compute
	    branches:
	      stable/queens:
	        channels:
	          - 22.08/stable

Projects without their own branches inherit the defaults.
*/
package lpconfig

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// ErrNoProjects is returned by Parse when a document has no projects section.
var ErrNoProjects = errors.New("no projects key")

// A Map maps charm -> branch -> channels, in order of preference.
type Map map[string]map[string][]string

// Charms returns the charm names in lexical order.
func (m Map) Charms() []string {
	res := make([]string, 0, len(m))
	for c := range m {
		res = append(res, c)
	}
	sort.Strings(res)
	return res
}

// Channels returns the channel candidates of a charm for a branch.
func (m Map) Channels(charm, branch string) ([]string, bool) {
	c, ok := m[charm][branch]
	return c, ok
}

// Merge copies the entries of o into m, replacing existing charms.
func (m Map) Merge(o Map) {
	for k, v := range o {
		m[k] = v
	}
}

// A ConfigError is returned when a config directory or document cannot be read.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("reading lp-builder-config %q: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// A MalformedError is returned when a document is not valid YAML or doesn't have the expected shape.
type MalformedError struct {
	Path string
	Err  error
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("cannot parse lp-builder-config %q: %v", e.Path, e.Err)
}

func (e *MalformedError) Unwrap() error { return e.Err }

type document struct {
	Defaults struct {
		Branches map[string]branch `yaml:"branches"`
	} `yaml:"defaults"`
	Projects []project `yaml:"projects"`
}

type project struct {
	Name     string            `yaml:"name"`
	Charmhub string            `yaml:"charmhub"`
	Branches map[string]branch `yaml:"branches"`
}

type branch struct {
	Channels *[]string `yaml:"channels"`
}

// channels flattens a branches section. It returns false if any branch lacks a channels list.
func channels(bs map[string]branch) (map[string][]string, bool) {
	if bs == nil {
		return nil, false
	}
	res := make(map[string][]string, len(bs))
	for name, b := range bs {
		if b.Channels == nil {
			return nil, false
		}
		res[name] = *b.Channels
	}
	return res, true
}

func copyBranches(m map[string][]string) map[string][]string {
	res := make(map[string][]string, len(m))
	for k, v := range m {
		res[k] = v
	}
	return res
}

// Parse decodes one lp-builder-config document.
// The name is only used for error reporting.
func Parse(r io.Reader, name string, log *logrus.Entry) (Map, error) {
	var doc document
	d := yaml.NewDecoder(r)
	if err := d.Decode(&doc); errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%q: %w", name, ErrNoProjects)
	} else if err != nil {
		return nil, &MalformedError{Path: name, Err: err}
	}
	var extra yaml.Node
	if err := d.Decode(&extra); err == nil {
		return nil, &MalformedError{Path: name, Err: errors.New("expected a single document")}
	} else if !errors.Is(err, io.EOF) {
		return nil, &MalformedError{Path: name, Err: err}
	}
	if doc.Projects == nil {
		return nil, fmt.Errorf("%q: %w", name, ErrNoProjects)
	}

	defaults, ok := channels(doc.Defaults.Branches)
	if !ok {
		defaults = map[string][]string{}
	}

	res := Map{}
	for i, p := range doc.Projects {
		if p.Charmhub == "" {
			log.WithField("file", name).Warnf("project #%d (%q) has no charmhub key, skipping", i, p.Name)
			continue
		}
		bs, ok := channels(p.Branches)
		if !ok {
			bs = copyBranches(defaults)
		}
		res[p.Charmhub] = bs
	}
	return res, nil
}

// ParseFile parses the document at path.
func ParseFile(path string, log *logrus.Entry) (Map, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}
	return Parse(bytes.NewReader(b), path, log)
}

// Load parses every *.yaml document in dir, in lexical order, and merges them.
// When the same charm appears in more than one document the last one wins.
// Documents without projects are skipped with a warning; any other error is fatal.
func Load(dir string, log *logrus.Entry) (Map, error) {
	if st, err := os.Stat(dir); err != nil {
		return nil, &ConfigError{Path: dir, Err: err}
	} else if !st.IsDir() {
		return nil, &ConfigError{Path: dir, Err: errors.New("not a directory")}
	}

	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, &ConfigError{Path: dir, Err: err}
	}

	res := Map{}
	for _, p := range paths {
		if st, err := os.Stat(p); err == nil && st.IsDir() {
			continue
		}
		m, err := ParseFile(p, log)
		if errors.Is(err, ErrNoProjects) {
			log.WithField("file", p).Warn("file contains no projects key, skipping")
			continue
		} else if err != nil {
			return nil, err
		}
		log.WithField("file", p).Debugf("loaded %d projects", len(m))
		res.Merge(m)
	}
	return res, nil
}
