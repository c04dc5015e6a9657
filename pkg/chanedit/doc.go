// Copyright 2020 VMware, Inc.
// SPDX-License-Identifier: BSD-2-Clause

/*
Package chanedit rewrites the channel of charms referenced by Juju bundles.

Bundles are not parsed as YAML. The rewriter performs one pass over the lines of a
bundle looking for "charm:" lines that reference a known charm. The indentation of
such a line delimits a block: every following line that starts with the same
indentation belongs to it. Within the block the "channel:" key at exactly the same
indentation is replaced or removed; if the block ends without one, a channel line is
appended at the end of the block.

Every other line, comments and blank lines included, is copied verbatim.

	rw := &chanedit.Rewriter{
		Patterns: chanedit.DefaultPatterns(),
		Resolver: &chanedit.Resolver{Target: &channel},
		Names:    names,
	}
	out, stats := rw.Rewrite(chanedit.SplitLines(src))
*/
package chanedit
