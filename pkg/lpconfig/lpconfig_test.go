// Copyright 2020 VMware, Inc.
// SPDX-License-Identifier: BSD-2-Clause

package lpconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

const openstack = `defaults:
  branches:
    master:
      channels:
        - latest/edge
        - zed/edge
    stable/queens:
      channels:
        - queens/stable
projects:
  - name: OpenStack Keystone Charm
    charmhub: keystone
  - name: OpenStack Nova Compute Charm
    charmhub: nova-compute
    branches:
      stable/queens:
        channels:
          - 22.08/stable
`

func nullLog() (*logrus.Entry, *test.Hook) {
	l, hook := test.NewNullLogger()
	l.SetLevel(logrus.DebugLevel)
	return logrus.NewEntry(l), hook
}

func TestParse(t *testing.T) {
	log, _ := nullLog()
	m, err := Parse(strings.NewReader(openstack), "openstack.yaml", log)
	if err != nil {
		t.Fatal(err)
	}

	want := Map{
		"keystone": {
			"master":        {"latest/edge", "zed/edge"},
			"stable/queens": {"queens/stable"},
		},
		"nova-compute": {
			"stable/queens": {"22.08/stable"},
		},
	}
	if !reflect.DeepEqual(m, want) {
		t.Errorf("got: %v, want: %v", m, want)
	}
}

func TestParseDefaultsAreCopied(t *testing.T) {
	src := `defaults:
  branches:
    master:
      channels: [latest/edge]
projects:
  - charmhub: a
  - charmhub: b
`
	log, _ := nullLog()
	m, err := Parse(strings.NewReader(src), "x.yaml", log)
	if err != nil {
		t.Fatal(err)
	}
	m["a"]["extra"] = []string{"x"}
	if _, ok := m["b"]["extra"]; ok {
		t.Errorf("projects share the same defaults map")
	}
}

func TestParseEdgeCases(t *testing.T) {
	testCases := []struct {
		src  string
		want Map
	}{
		{
			// no defaults at all
			"projects:\n  - charmhub: a\n",
			Map{"a": {}},
		},
		{
			// a branch without channels makes the project fall back to the defaults
			`defaults:
  branches:
    master:
      channels: [latest/edge]
projects:
  - charmhub: a
    branches:
      stable/x: {}
`,
			Map{"a": {"master": {"latest/edge"}}},
		},
		{
			// broken defaults are ignored
			`defaults:
  branches:
    master: {}
projects:
  - charmhub: a
`,
			Map{"a": {}},
		},
	}

	for i, tc := range testCases {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			log, _ := nullLog()
			got, err := Parse(strings.NewReader(tc.src), "x.yaml", log)
			if err != nil {
				t.Fatal(err)
			}
			if want := tc.want; !reflect.DeepEqual(got, want) {
				t.Errorf("got: %v, want: %v", got, want)
			}
		})
	}
}

func TestParseSkipsProjectsWithoutCharmhub(t *testing.T) {
	src := "projects:\n  - name: orphan\n  - charmhub: a\n"
	log, hook := nullLog()
	m, err := Parse(strings.NewReader(src), "x.yaml", log)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := m.Charms(), []string{"a"}; !reflect.DeepEqual(got, want) {
		t.Errorf("got: %q, want: %q", got, want)
	}
	if got, want := len(hook.Entries), 1; got != want {
		t.Fatalf("got %d log entries, want %d", got, want)
	}
	if got, want := hook.LastEntry().Level, logrus.WarnLevel; got != want {
		t.Errorf("got: %v, want: %v", got, want)
	}
}

func TestParseErrors(t *testing.T) {
	testCases := []struct {
		src       string
		malformed bool
	}{
		{"", false},
		{"defaults: {}\n", false},
		{"projects:\n", false},
		{"projects: [\n", true},
		{"- a\n- b\n", true},
		{"projects: {a: b}\n", true},
		{"projects: []\n---\nprojects: []\n", true},
		{"projects:\n  - charmhub: a\n---\ndefaults: [\n", true},
		{"defaults: {}\n---\nprojects: []\n", true},
	}

	for i, tc := range testCases {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			log, _ := nullLog()
			_, err := Parse(strings.NewReader(tc.src), "x.yaml", log)
			if err == nil {
				t.Fatal("expected error")
			}
			var me *MalformedError
			if got, want := errors.As(err, &me), tc.malformed; got != want {
				t.Errorf("malformed: got: %v, want: %v (%v)", got, want, err)
			}
			if got, want := errors.Is(err, ErrNoProjects), !tc.malformed; got != want {
				t.Errorf("no projects: got: %v, want: %v (%v)", got, want, err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	write("a-openstack.yaml", openstack)
	write("b-override.yaml", "projects:\n  - charmhub: keystone\n    branches:\n      master:\n        channels: [2023.1/edge]\n")
	write("c-empty.yaml", "defaults: {}\n")
	write("ignored.txt", "not: yaml: at: all")

	log, hook := nullLog()
	m, err := Load(dir, log)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := m.Charms(), []string{"keystone", "nova-compute"}; !reflect.DeepEqual(got, want) {
		t.Errorf("got: %q, want: %q", got, want)
	}
	if got, ok := m.Channels("keystone", "master"); !ok || !reflect.DeepEqual(got, []string{"2023.1/edge"}) {
		t.Errorf("last document should win, got: %q", got)
	}
	if _, ok := m.Channels("keystone", "stable/queens"); ok {
		t.Errorf("override should replace the whole charm entry")
	}

	var warned bool
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel && e.Data["file"] == filepath.Join(dir, "c-empty.yaml") {
			warned = true
		}
	}
	if !warned {
		t.Errorf("expected a warning about c-empty.yaml")
	}
}

func TestLoadErrors(t *testing.T) {
	log, _ := nullLog()

	missing := filepath.Join(t.TempDir(), "nope")
	var ce *ConfigError
	if _, err := Load(missing, log); !errors.As(err, &ce) {
		t.Errorf("got %v, want *ConfigError", err)
	}

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("projects: [\n"), 0644); err != nil {
		t.Fatal(err)
	}
	var me *MalformedError
	if _, err := Load(dir, log); !errors.As(err, &me) {
		t.Errorf("got %v, want *MalformedError", err)
	}
}
