// Copyright 2020 VMware, Inc.
// SPDX-License-Identifier: BSD-2-Clause

// Package charmlist loads the set of charm names a bundle rewrite applies to.
package charmlist

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// A Set is an unordered set of charm names.
type Set map[string]struct{}

// NewSet returns a Set containing names.
func NewSet(names ...string) Set {
	s := make(Set, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

// Has reports whether name is in the set.
func (s Set) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Len returns the number of names in the set.
func (s Set) Len() int { return len(s) }

// Names returns the names in lexical order.
func (s Set) Names() []string {
	res := make([]string, 0, len(s))
	for n := range s {
		res = append(res, n)
	}
	sort.Strings(res)
	return res
}

// A ConfigError is returned when a name list cannot be read.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("reading charm list %q: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Load reads one or more charm list files and returns the union of their names.
// Every unreadable file is reported.
func Load(paths ...string) (Set, error) {
	var (
		res  = Set{}
		errs *multierror.Error
	)
	for _, p := range paths {
		names, err := loadFile(p)
		if err != nil {
			errs = multierror.Append(errs, &ConfigError{Path: p, Err: err})
			continue
		}
		for _, n := range names {
			res[n] = struct{}{}
		}
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return res, nil
}

func loadFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// Parse returns the names listed in r, one per line.
// Surrounding whitespace is trimmed; empty lines and lines starting with '#' are skipped.
func Parse(r io.Reader) ([]string, error) {
	var res []string
	s := bufio.NewScanner(r)
	for s.Scan() {
		l := strings.TrimSpace(s.Text())
		if l == "" || strings.HasPrefix(l, "#") {
			continue
		}
		res = append(res, l)
	}
	return res, s.Err()
}
