// Copyright 2020 VMware, Inc.
// SPDX-License-Identifier: BSD-2-Clause

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"chanset.io/pkg/atomicfile"
	"chanset.io/pkg/bundles"
	"chanset.io/pkg/chanedit"
	"chanset.io/pkg/charmlist"
	"chanset.io/pkg/lpconfig"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/transform"
)

const lpConfigDir = "lp-builder-config"

var defaultNamesFiles = []string{"charms.txt", "operator-charms.txt"}

func defaultNamespaces() string { return strings.Join(chanedit.DefaultNamespaces, ",") }

// BundleFlags select the charm whose bundles are processed.
type BundleFlags struct {
	Dir string `arg:"" optional:"" default:"." type:"path" help:"Root directory of the charm."`
}

// root returns the charm directory, or an error if it is not a directory.
func (b *BundleFlags) root() (string, error) {
	st, err := os.Stat(b.Dir)
	if err != nil {
		return "", invalidRootError{b.Dir, err}
	}
	if !st.IsDir() {
		return "", invalidRootError{b.Dir, errors.New("not a directory")}
	}
	return b.Dir, nil
}

func (b *BundleFlags) find(log *logrus.Entry) ([]string, error) {
	root, err := b.root()
	if err != nil {
		return nil, err
	}
	dirs := bundles.Dirs(root)
	for _, d := range dirs {
		log.Debugf("searching: %s", d)
	}
	return bundles.Find(dirs...)
}

// DataFlags locate the charm lists and the lp-builder-config documents.
type DataFlags struct {
	DataDir    string   `name:"data-dir" env:"CHANSET_DATA_DIR" type:"path" help:"Directory containing charms.txt, operator-charms.txt and lp-builder-config/. Defaults to the directory of the executable."`
	NamesFiles []string `name:"names-file" type:"path" help:"Files listing the charms to update, one per line. Defaults to charms.txt and operator-charms.txt in the data dir."`
	LPConfig   string   `name:"lp-config" help:"Directory, or go-getter URL, of the lp-builder-config documents. Defaults to lp-builder-config in the data dir."`
}

func (d *DataFlags) dataDir() string {
	if d.DataDir != "" {
		return d.DataDir
	}
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	if p, err := filepath.EvalSymlinks(exe); err == nil {
		exe = p
	}
	return filepath.Dir(exe)
}

func (d *DataFlags) namesFiles() []string {
	if len(d.NamesFiles) > 0 {
		return d.NamesFiles
	}
	var res []string
	for _, n := range defaultNamesFiles {
		res = append(res, filepath.Join(d.dataDir(), n))
	}
	return res
}

func (d *DataFlags) lpConfig() string {
	if d.LPConfig != "" {
		return d.LPConfig
	}
	return filepath.Join(d.dataDir(), lpConfigDir)
}

// UpdateCmd rewrites the channels in the bundles of a charm.
type UpdateCmd struct {
	BundleFlags
	DataFlags

	Channel        string   `name:"channel" short:"c" placeholder:"CHANNEL" help:"Add or change the channel of the known charms. Must use --remove-channel or --branch if this is not supplied."`
	RemoveChannel  bool     `name:"remove-channel" help:"Remove the channel of the known charms. Don't use with --channel."`
	Branches       []string `name:"branch" short:"b" placeholder:"BRANCH" help:"Set the channel of the charms in the lp-builder-config documents by mapping the branch to a channel. Charms without the branch are left alone. May be repeated; branches are tried in order."`
	IgnoreTracks   []string `name:"ignore-track" short:"i" placeholder:"IGNORE" help:"Never pick channels starting with this prefix (e.g. latest). Only useful with --branch. May be repeated."`
	ScanAllTracks  bool     `name:"scan-all-tracks" help:"When the first channel of a branch is ignored, try its other channels before moving to the next branch."`
	EnsureCharmhub bool     `name:"ensure-charmhub" help:"Switch cs:~.../ charm prefixes to ch:."`
	Namespaces     []string `name:"namespace" default:"${namespaces}" help:"Charmstore namespaces of the recognised charms, with or without the cs: scheme (e.g. ~openstack-charmers/ or cs:~openstack-charmers/)."`
	DryRun         bool     `name:"dry-run" help:"Report the bundles that would change without writing them."`
	Jobs           int      `name:"jobs" short:"j" default:"1" help:"Number of bundles processed concurrently."`
}

type invalidArgumentsError struct{ msg string }

func (e invalidArgumentsError) Error() string { return e.msg }

type invalidRootError struct {
	dir string
	err error
}

func (e invalidRootError) Error() string {
	return fmt.Sprintf("charm dir %s doesn't exist: %v", e.dir, e.err)
}

func (e invalidRootError) Unwrap() error { return e.err }

// validate checks that exactly one of --channel, --remove-channel and --branch is used
// and normalizes the case of the channel related arguments.
func (u *UpdateCmd) validate() error {
	n := 0
	if u.Channel != "" {
		n++
	}
	if u.RemoveChannel {
		n++
	}
	if len(u.Branches) > 0 {
		n++
	}
	switch {
	case n == 0:
		return invalidArgumentsError{"one of --channel, --remove-channel or --branch is required"}
	case n > 1:
		return invalidArgumentsError{"--channel, --remove-channel and --branch are mutually exclusive"}
	case u.Jobs < 1:
		return invalidArgumentsError{fmt.Sprintf("--jobs must be positive, got %d", u.Jobs)}
	}

	u.Channel = strings.ToLower(u.Channel)
	u.Branches = lower(u.Branches)
	u.IgnoreTracks = lower(u.IgnoreTracks)
	return nil
}

func lower(ss []string) []string {
	res := make([]string, len(ss))
	for i, s := range ss {
		res[i] = strings.ToLower(s)
	}
	return res
}

func (u *UpdateCmd) resolver(m lpconfig.Map) *chanedit.Resolver {
	r := &chanedit.Resolver{
		Branches:      u.Branches,
		Map:           m,
		IgnoreTracks:  u.IgnoreTracks,
		ScanAllTracks: u.ScanAllTracks,
	}
	if u.Channel != "" {
		r.Target = &u.Channel
	}
	return r
}

func (u *UpdateCmd) Run(ctx *Context) error {
	if err := u.validate(); err != nil {
		return err
	}
	root, err := u.root()
	if err != nil {
		return err
	}
	log := ctx.Log

	switch {
	case u.Channel != "":
		log.Infof("charm dir: %s, adding/changing channel to %s", root, u.Channel)
	case len(u.Branches) > 0:
		log.Infof("charm dir: %s, adding/changing channel via lp-builder-config git branches: %s", root, strings.Join(u.Branches, ", "))
	default:
		log.Infof("charm dir: %s, removing the channel spec", root)
	}

	files, err := u.find(log)
	if err != nil {
		return err
	}

	names, err := charmlist.Load(u.namesFiles()...)
	if err != nil {
		return err
	}
	m, err := loadLPConfig(u.lpConfig(), log)
	if err != nil {
		return err
	}

	patterns, err := chanedit.NewPatterns(chanedit.PatternConfig{Canonical: chanedit.CanonicalPrefix, Namespaces: u.Namespaces})
	if err != nil {
		return invalidArgumentsError{err.Error()}
	}
	rw := &chanedit.Rewriter{
		Patterns:      patterns,
		Resolver:      u.resolver(m),
		Names:         names,
		MigratePrefix: u.EnsureCharmhub,
		Log:           log,
	}

	if len(files) == 0 {
		log.Info("no bundles found")
		return nil
	}
	stats, changed, err := updateBundles(context.Background(), rw, files, u.Jobs, u.DryRun)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"bundles":  len(files),
		"changed":  changed,
		"added":    stats.Added,
		"replaced": stats.Replaced,
		"removed":  stats.Removed,
		"migrated": stats.Migrated,
	}).Info("done.")
	return nil
}

func loadLPConfig(src string, log *logrus.Entry) (lpconfig.Map, error) {
	dir, cleanup, err := fetchConfig(src, log)
	if err != nil {
		return nil, err
	}
	defer cleanup()
	return lpconfig.Load(dir, log)
}

// updateBundles rewrites each bundle in place, using up to jobs goroutines.
// Bundles are rewritten even when their content doesn't change.
// It returns the accumulated stats and the number of bundles that changed.
func updateBundles(ctx context.Context, rw *chanedit.Rewriter, files []string, jobs int, dryRun bool) (chanedit.Stats, int, error) {
	var (
		mu      sync.Mutex
		total   chanedit.Stats
		changed int
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for _, f := range files {
		f := f
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			stats, err := updateBundle(rw, f, dryRun)
			if err != nil {
				return fmt.Errorf("%s: %w", f, err)
			}

			mu.Lock()
			defer mu.Unlock()
			total.Add(stats)
			if stats.Changed() {
				changed++
			}
			return nil
		})
	}
	err := g.Wait()
	return total, changed, err
}

func updateBundle(rw *chanedit.Rewriter, filename string, dryRun bool) (chanedit.Stats, error) {
	log := rw.Log.WithField("file", filename)
	log.Debug("updating bundle")

	frw := *rw
	frw.Log = log
	t := chanedit.T(&frw)

	if dryRun {
		b, err := os.ReadFile(filename)
		if err != nil {
			return chanedit.Stats{}, err
		}
		if _, _, err := transform.Bytes(t, b); err != nil {
			return chanedit.Stats{}, err
		}
		if t.Stats().Changed() {
			log.Infof("would change: %+v", t.Stats())
		}
		return t.Stats(), nil
	}

	if err := atomicfile.Transform(t, filename); err != nil {
		return chanedit.Stats{}, err
	}
	if t.Stats().Changed() {
		log.Infof("changed: %+v", t.Stats())
	}
	return t.Stats(), nil
}
