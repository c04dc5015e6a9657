// Copyright 2020 VMware, Inc.
// SPDX-License-Identifier: BSD-2-Clause

package chanedit

import (
	"golang.org/x/text/transform"
)

// Transformer is a golang.org/x/text/transform.Transformer that rewrites a whole bundle.
// It needs to see the whole input before producing any output; it's meant to be used with
// transform.Bytes, transform.String or atomicfile.Transform.
type Transformer struct {
	rw    *Rewriter
	buf   []byte
	done  int
	stats Stats
}

// T returns a Transformer that applies rw.
func T(rw *Rewriter) *Transformer { return &Transformer{rw: rw} }

// Transform implements the golang.org/x/text/transform.Transformer interface.
func (t *Transformer) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	if t.buf == nil {
		if !atEOF {
			return 0, 0, transform.ErrShortSrc
		}
		doc, stats := t.rw.Rewrite(SplitLines(src))
		t.buf, t.stats = doc.Bytes(), stats
		if t.buf == nil {
			t.buf = []byte{}
		}
	}

	n := copy(dst, t.buf[t.done:])
	t.done += n
	if t.done < len(t.buf) {
		return n, 0, transform.ErrShortDst
	}
	return n, len(src), nil
}

// Reset implements the golang.org/x/text/transform.Transformer interface.
func (t *Transformer) Reset() {
	t.buf, t.done, t.stats = nil, 0, Stats{}
}

// Stats returns the edits performed by the last transformation.
func (t *Transformer) Stats() Stats { return t.stats }
