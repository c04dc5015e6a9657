// Copyright 2020 VMware, Inc.
// SPDX-License-Identifier: BSD-2-Clause

// Package atomicfile replaces files atomically: the new content is written to a
// temporary file in the same directory which is then renamed over the original.
package atomicfile

import (
	"bytes"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/text/transform"
)

// Writer returns an AtomicWriter that writes data to a temporary file
// which gets renamed atomically as filename upon Commit.
// If filename exists its mode is preserved, otherwise perm is used.
func Writer(filename string, perm os.FileMode) (*AtomicWriter, error) {
	if st, err := os.Stat(filename); err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	} else {
		perm = st.Mode()
	}

	out, err := os.CreateTemp(filepath.Dir(filename), "."+filepath.Base(filename)+".*~")
	if err != nil {
		return nil, err
	}
	if err := out.Chmod(perm); err != nil {
		out.Close()
		os.Remove(out.Name())
		return nil, err
	}
	return &AtomicWriter{File: out, filename: filename}, nil
}

// An AtomicWriter is a temporary file that replaces a target file on Commit.
type AtomicWriter struct {
	*os.File
	filename string
	done     bool
}

// Close discards the temporary file unless it has been committed.
func (a *AtomicWriter) Close() error {
	if a.done {
		return nil
	}
	a.done = true
	defer os.Remove(a.Name())
	return a.File.Close()
}

// Commit renames the temporary file over the target file.
func (a *AtomicWriter) Commit() error {
	if err := a.File.Close(); err != nil {
		a.Close()
		return err
	}
	if err := os.Rename(a.Name(), a.filename); err != nil {
		a.Close()
		return err
	}
	a.done = true
	return nil
}

// WriteFrom atomically replaces filename with the content of r.
func WriteFrom(filename string, r io.Reader, perm os.FileMode) error {
	w, err := Writer(filename, perm)
	if err != nil {
		return err
	}
	defer w.Close()

	if _, err := io.Copy(w, r); err != nil {
		return err
	}
	return w.Commit()
}

// WriteFile is a drop-in replacement for os.WriteFile that writes the file atomically.
func WriteFile(filename string, data []byte, perm os.FileMode) error {
	return WriteFrom(filename, bytes.NewReader(data), perm)
}

// Transform reads the content of an existing file, passes it through a transformer and writes it back atomically.
// The whole file is handed to the transformer at once.
func Transform(t transform.Transformer, filename string) error {
	b, err := os.ReadFile(filename)
	if err != nil {
		return err
	}
	out, _, err := transform.Bytes(t, b)
	if err != nil {
		return err
	}
	return WriteFile(filename, out, 0)
}
