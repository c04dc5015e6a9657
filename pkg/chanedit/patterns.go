// Copyright 2020 VMware, Inc.
// SPDX-License-Identifier: BSD-2-Clause

package chanedit

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	// CanonicalPrefix is the charmhub prefix legacy charmstore references are migrated to.
	CanonicalPrefix = "ch:"
	// LegacyScheme is the scheme of charmstore references.
	LegacyScheme = "cs:"
)

// DefaultNamespaces are the charmstore namespaces whose charms are recognised.
var DefaultNamespaces = []string{"~openstack-charmers/", "~openstack-charmers-next/"}

// A PatternConfig selects the charm reference prefixes recognised by Patterns.
type PatternConfig struct {
	// Canonical is the preferred prefix, e.g. "ch:".
	Canonical string
	// Namespaces are charmstore namespaces (e.g. "~openstack-charmers/")
	// that are recognised after the legacy "cs:" scheme. A leading "cs:" is optional.
	Namespaces []string
}

// Patterns classifies bundle lines.
// Lines are matched without their line terminator.
type Patterns struct {
	canonical string
	charm     *regexp.Regexp
	anyCharm  *regexp.Regexp
	channel   *regexp.Regexp
}

// optional quotes around the charm reference and trailing comment
const (
	quote   = `(?:|'|")`
	trailer = `\s*(?:|#.*)$`
)

// NewPatterns compiles the line patterns for a given prefix configuration.
func NewPatterns(c PatternConfig) (*Patterns, error) {
	if c.Canonical == "" {
		return nil, fmt.Errorf("canonical prefix must not be empty")
	}
	alts := []string{regexp.QuoteMeta(c.Canonical)}
	for _, ns := range c.Namespaces {
		ns = strings.TrimPrefix(ns, LegacyScheme)
		if ns == "" {
			return nil, fmt.Errorf("empty namespace")
		}
		if !strings.HasSuffix(ns, "/") {
			ns += "/"
		}
		alts = append(alts, regexp.QuoteMeta(LegacyScheme+ns))
	}

	charm, err := regexp.Compile(`^(\s*)charm:\s+` + quote + `(` + strings.Join(alts, "|") + `)([a-zA-Z0-9-]+)` + quote + trailer)
	if err != nil {
		return nil, err
	}
	return &Patterns{
		canonical: c.Canonical,
		charm:     charm,
		anyCharm:  regexp.MustCompile(`^(\s*)charm:\s+` + quote + `(` + regexp.QuoteMeta(LegacyScheme) + `.*/)([a-zA-Z0-9-]+)` + quote + trailer),
		channel:   regexp.MustCompile(`^(\s*)channel:\s+(\S+)` + trailer),
	}, nil
}

// DefaultPatterns recognises "ch:" and the OpenStack charmers charmstore namespaces.
func DefaultPatterns() *Patterns {
	p, err := NewPatterns(PatternConfig{Canonical: CanonicalPrefix, Namespaces: DefaultNamespaces})
	if err != nil {
		panic(err)
	}
	return p
}

// Canonical returns the canonical prefix.
func (p *Patterns) Canonical() string { return p.canonical }

// A Reference is a "charm:" line.
type Reference struct {
	Indent string
	Prefix string
	Name   string

	// byte offsets of Prefix in the line
	PrefixStart, PrefixEnd int
}

// A Channel is a "channel:" line.
type Channel struct {
	Indent string
	Value  string
}

// Reference matches a reference to a charm with one of the recognised prefixes.
func (p *Patterns) Reference(line string) (Reference, bool) {
	return matchReference(p.charm, line)
}

// LegacyReference matches a reference to a charm in any charmstore namespace.
func (p *Patterns) LegacyReference(line string) (Reference, bool) {
	return matchReference(p.anyCharm, line)
}

func matchReference(r *regexp.Regexp, line string) (Reference, bool) {
	m := r.FindStringSubmatchIndex(line)
	if m == nil {
		return Reference{}, false
	}
	return Reference{
		Indent:      line[m[2]:m[3]],
		Prefix:      line[m[4]:m[5]],
		Name:        line[m[6]:m[7]],
		PrefixStart: m[4],
		PrefixEnd:   m[5],
	}, true
}

// Channel matches a "channel:" line.
func (p *Patterns) Channel(line string) (Channel, bool) {
	m := p.channel.FindStringSubmatch(line)
	if m == nil {
		return Channel{}, false
	}
	return Channel{Indent: m[1], Value: m[2]}, true
}
