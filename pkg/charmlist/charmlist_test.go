// Copyright 2020 VMware, Inc.
// SPDX-License-Identifier: BSD-2-Clause

package charmlist

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		src  string
		want []string
	}{
		{"", nil},
		{"a\nb\n", []string{"a", "b"}},
		{"  a  \n\n\tb\n", []string{"a", "b"}},
		{"# comment\na\n  # indented comment\n", []string{"a"}},
		{"a\r\nb", []string{"a", "b"}},
	}

	for i, tc := range testCases {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			got, err := Parse(strings.NewReader(tc.src))
			if err != nil {
				t.Fatal(err)
			}
			if want := tc.want; !reflect.DeepEqual(got, want) {
				t.Errorf("got: %q, want: %q", got, want)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
		return p
	}
	charms := write("charms.txt", "# openstack\nnova-compute\nkeystone\n")
	operators := write("operator-charms.txt", "keystone\nmysql-router\n\n")

	s, err := Load(charms, operators)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := s.Names(), []string{"keystone", "mysql-router", "nova-compute"}; !reflect.DeepEqual(got, want) {
		t.Errorf("got: %q, want: %q", got, want)
	}
	if !s.Has("nova-compute") || s.Has("# openstack") {
		t.Errorf("unexpected membership in %q", s.Names())
	}
}

func TestLoadMissing(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(filepath.Join(dir, "a.txt"), filepath.Join(dir, "b.txt"))
	if err == nil {
		t.Fatal("expected error")
	}

	var ce *ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("got %T, want *ConfigError", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("error %v does not wrap os.ErrNotExist", err)
	}
	if got := err.Error(); !strings.Contains(got, "a.txt") || !strings.Contains(got, "b.txt") {
		t.Errorf("error %q should mention both files", got)
	}
}
