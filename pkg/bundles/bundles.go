// Copyright 2020 VMware, Inc.
// SPDX-License-Identifier: BSD-2-Clause

// Package bundles locates the test bundles and overlays of a charm source tree.
package bundles

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
	"github.com/hashicorp/go-multierror"
)

// SearchPaths are the directories, relative to the charm root, that can contain bundles.
var SearchPaths = [][]string{
	{"tests", "bundles"},
	{"tests", "bundles", "overlays"},
	{"src", "tests", "bundles"},
	{"src", "tests", "bundles", "overlays"},
}

const templateExt = ".yaml.j2"

var (
	// plain bundles need a non empty stem: ".yaml" is not a bundle.
	plainBundle    = glob.MustCompile("?*.yaml")
	templateBundle = glob.MustCompile("*" + templateExt)
	dotted         = glob.MustCompile("*.*")
)

// IsBundle reports whether a file name looks like a bundle or overlay.
// Templated bundles are "<stem>.yaml.j2" where the stem, leading dots aside, has no dot.
func IsBundle(name string) bool {
	if templateBundle.Match(name) {
		stem := strings.TrimLeft(strings.TrimSuffix(name, templateExt), ".")
		return stem != "" && !dotted.Match(stem)
	}
	return plainBundle.Match(name)
}

// Dirs returns the bundle directories that exist under root.
func Dirs(root string) []string {
	var res []string
	for _, p := range SearchPaths {
		d := filepath.Join(append([]string{root}, p...)...)
		if st, err := os.Stat(d); err == nil && st.IsDir() {
			res = append(res, d)
		}
	}
	return res
}

// Find returns the bundles contained directly in the given directories.
// Symlinks are skipped. The result is sorted and free of duplicates.
func Find(dirs ...string) ([]string, error) {
	var (
		seen = map[string]bool{}
		errs *multierror.Error
	)
	for _, d := range dirs {
		fs, err := bundlesInDir(d)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		for _, f := range fs {
			seen[f] = true
		}
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}

	res := make([]string, 0, len(seen))
	for f := range seen {
		res = append(res, f)
	}
	sort.Strings(res)
	return res, nil
}

func bundlesInDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var res []string
	for _, e := range entries {
		// DirEntry.Type doesn't follow symlinks.
		if !e.Type().IsRegular() || !IsBundle(e.Name()) {
			continue
		}
		res = append(res, filepath.Clean(filepath.Join(dir, e.Name())))
	}
	return res, nil
}
