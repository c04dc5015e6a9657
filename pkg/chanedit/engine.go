// Copyright 2020 VMware, Inc.
// SPDX-License-Identifier: BSD-2-Clause

package chanedit

import (
	"bytes"
	"io"
	"strings"
	"unicode/utf8"

	"chanset.io/pkg/charmlist"
	"github.com/sirupsen/logrus"
	"github.com/vmware-labs/go-yaml-edit/splice"
	"golang.org/x/text/transform"
)

// A Document is a sequence of lines, each including its line terminator.
// Only the last line may lack a terminator.
type Document []string

// SplitLines splits a buffer into a Document.
func SplitLines(b []byte) Document {
	if len(b) == 0 {
		return nil
	}
	lines := strings.SplitAfter(string(b), "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return Document(lines)
}

// Bytes joins the lines of the document.
func (d Document) Bytes() []byte {
	var buf bytes.Buffer
	for _, l := range d {
		buf.WriteString(l)
	}
	return buf.Bytes()
}

// splitEOL splits a line into its text and its terminator.
func splitEOL(line string) (text, eol string) {
	switch {
	case strings.HasSuffix(line, "\r\n"):
		return line[:len(line)-2], "\r\n"
	case strings.HasSuffix(line, "\n"):
		return line[:len(line)-1], "\n"
	}
	return line, ""
}

// Stats counts the edits performed by a rewrite.
type Stats struct {
	Added    int
	Replaced int
	Removed  int
	Migrated int
}

// Changed reports whether any line was edited.
func (s Stats) Changed() bool {
	return s.Added+s.Replaced+s.Removed+s.Migrated > 0
}

// Add accumulates o into s.
func (s *Stats) Add(o Stats) {
	s.Added += o.Added
	s.Replaced += o.Replaced
	s.Removed += o.Removed
	s.Migrated += o.Migrated
}

// A Rewriter rewrites the channels of the charms referenced by a bundle.
// A Rewriter holds no per-document state and can be shared by concurrent rewrites.
type Rewriter struct {
	Patterns *Patterns
	Resolver *Resolver
	// Names are the charms eligible for rewriting unless the Resolver is in branch mode.
	Names charmlist.Set
	// MigratePrefix rewrites legacy charmstore prefixes to the canonical prefix.
	MigratePrefix bool
	Log           *logrus.Entry
}

type state int

const (
	seekingReference state = iota
	seekingChannel
)

// editor holds the state of one rewrite.
type editor struct {
	*Rewriter
	log      *logrus.Entry
	eligible charmlist.Set

	state  state
	indent string // indent of the "charm:" line of the current block
	charm  string
	eol    string // terminator of the "charm:" line

	out   Document
	stats Stats
}

// Rewrite returns a rewritten copy of doc. The input document is not modified.
func (rw *Rewriter) Rewrite(doc Document) (Document, Stats) {
	log := rw.Log
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = logrus.NewEntry(l)
	}
	e := &editor{
		Rewriter: rw,
		log:      log,
		eligible: rw.Resolver.Eligible(rw.Names),
		out:      make(Document, 0, len(doc)+1),
	}
	for _, line := range doc {
		e.line(line)
	}
	e.closeBlock()
	return e.out, e.stats
}

func (e *editor) emit(line string) { e.out = append(e.out, line) }

func (e *editor) line(line string) {
	text, eol := splitEOL(line)

	if e.state == seekingChannel {
		if !strings.HasPrefix(line, e.indent) {
			e.closeBlock()
		} else if m, ok := e.Patterns.Channel(text); ok && m.Indent == e.indent {
			e.replaceChannel(line, eol)
			e.reset()
			return
		}
	}

	e.emit(e.reference(text, eol) + eol)
}

// reference opens a block if text references an eligible charm and
// returns text with its prefix migrated as requested.
func (e *editor) reference(text, eol string) string {
	if m, ok := e.Patterns.Reference(text); ok && e.eligible.Has(m.Name) {
		e.log.Debugf("matched charm %s", m.Name)
		e.state, e.indent, e.charm, e.eol = seekingChannel, m.Indent, m.Name, eol
		if eol == "" {
			e.eol = "\n"
		}
		if e.MigratePrefix && m.Prefix != e.Patterns.Canonical() {
			return e.migrate(text, m)
		}
		return text
	}

	if e.MigratePrefix {
		if m, ok := e.Patterns.LegacyReference(text); ok {
			return e.migrate(text, m)
		}
	}
	return text
}

func (e *editor) migrate(text string, m Reference) string {
	res, err := replaceSpan(text, m.PrefixStart, m.PrefixEnd, e.Patterns.Canonical())
	if err != nil {
		e.log.Warnf("cannot migrate prefix of charm %s: %v", m.Name, err)
		return text
	}
	e.log.Debugf("replacing %q with %q", m.Prefix, e.Patterns.Canonical())
	e.stats.Migrated++
	return res
}

// replaceChannel handles the channel line of the current block.
func (e *editor) replaceChannel(line, eol string) {
	v, ok := e.Resolver.Resolve(e.charm)
	switch {
	case ok:
		n := channelLine(e.indent, v, eol)
		if n != line {
			e.stats.Replaced++
			e.log.Debugf("setting channel of %s to %s", e.charm, v)
		}
		e.emit(n)
	case e.Resolver.Mode() == RemoveChannel:
		e.stats.Removed++
		e.log.Debugf("removing channel of %s", e.charm)
	default:
		e.log.Debugf("no channel found for %s, leaving it untouched", e.charm)
		e.emit(line)
	}
}

// closeBlock appends a channel line to the current block, if any, and resets the state.
func (e *editor) closeBlock() {
	if e.state != seekingChannel {
		return
	}
	defer e.reset()

	v, ok := e.Resolver.Resolve(e.charm)
	if !ok {
		return
	}

	eol := e.eol
	if n := len(e.out); n > 0 {
		if _, t := splitEOL(e.out[n-1]); t == "" {
			// the block ends the document without a trailing newline.
			e.out[n-1] += eol
			eol = ""
		}
	}
	e.log.Debugf("adding channel %s to %s", v, e.charm)
	e.emit(channelLine(e.indent, v, eol))
	e.stats.Added++
}

func (e *editor) reset() {
	e.state, e.indent, e.charm, e.eol = seekingReference, "", "", ""
}

func channelLine(indent, channel, eol string) string {
	return indent + "channel: " + channel + eol
}

// replaceSpan replaces the bytes from start to end of s with a new string.
func replaceSpan(s string, start, end int, with string) (string, error) {
	rs, re := utf8.RuneCountInString(s[:start]), utf8.RuneCountInString(s[:end])
	res, _, err := transform.String(splice.T(splice.Span(rs, re).With(with)), s)
	return res, err
}
