// Copyright 2020 VMware, Inc.
// SPDX-License-Identifier: BSD-2-Clause

package chanedit

import (
	"strings"

	"chanset.io/pkg/charmlist"
	"chanset.io/pkg/lpconfig"
)

// A Mode is the way a Resolver picks channels.
type Mode int

const (
	// SetChannel sets a fixed channel on every eligible charm.
	SetChannel Mode = iota
	// RemoveChannel removes the channel of every eligible charm.
	RemoveChannel
	// BranchChannel picks the channel from the lp-builder-config branch mapping.
	BranchChannel
)

func (m Mode) String() string {
	switch m {
	case SetChannel:
		return "set"
	case RemoveChannel:
		return "remove"
	case BranchChannel:
		return "branch"
	default:
		return "unknown"
	}
}

// A Resolver decides the channel of a charm.
type Resolver struct {
	// Target is the channel to set. A nil Target with no Branches removes channels.
	Target *string
	// Branches, if not empty, are looked up in order in Map.
	Branches []string
	Map      lpconfig.Map
	// IgnoreTracks are prefixes of channels that are never picked.
	IgnoreTracks []string
	// ScanAllTracks makes an ignored candidate fall through to the next
	// candidate of the same branch. By default only the first candidate of
	// a branch is considered.
	ScanAllTracks bool
}

// Mode returns the resolution mode.
func (r *Resolver) Mode() Mode {
	switch {
	case len(r.Branches) > 0:
		return BranchChannel
	case r.Target == nil:
		return RemoveChannel
	default:
		return SetChannel
	}
}

// Resolve returns the channel for a charm, or false if the charm must not have one.
func (r *Resolver) Resolve(charm string) (string, bool) {
	switch r.Mode() {
	case SetChannel:
		return *r.Target, true
	case RemoveChannel:
		return "", false
	}

	for _, b := range r.Branches {
		tracks, ok := r.Map.Channels(charm, b)
		if !ok {
			continue
		}
		for _, t := range tracks {
			if !r.ignored(t) {
				return t, true
			}
			if !r.ScanAllTracks {
				break
			}
		}
	}
	return "", false
}

func (r *Resolver) ignored(track string) bool {
	for _, p := range r.IgnoreTracks {
		if strings.HasPrefix(track, p) {
			return true
		}
	}
	return false
}

// Eligible returns the charms whose references are rewritten.
// In branch mode these are the charms of the lp-builder-config, otherwise names.
func (r *Resolver) Eligible(names charmlist.Set) charmlist.Set {
	if r.Mode() != BranchChannel {
		return names
	}
	return charmlist.NewSet(r.Map.Charms()...)
}
