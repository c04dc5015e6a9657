// Copyright 2020 VMware, Inc.
// SPDX-License-Identifier: BSD-2-Clause

package main

import (
	"reflect"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
)

func parseWithConfig(t *testing.T, config string, args ...string) CLI {
	t.Helper()
	r, err := TOML(strings.NewReader(config))
	if err != nil {
		t.Fatal(err)
	}
	var cli CLI
	parser, err := newParser(&cli, kong.Resolvers(r), kong.Exit(func(code int) { t.Fatalf("unexpected exit %d", code) }))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := parser.Parse(args); err != nil {
		t.Fatal(err)
	}
	return cli
}

func TestTOML(t *testing.T) {
	cli := parseWithConfig(t, `
log = "debug"
ignore-track = ["latest"]
ensure-charmhub = true

[update]
jobs = 4
`, "-c", "yoga/stable")

	if got, want := cli.Log, "debug"; got != want {
		t.Errorf("log: got %q, want %q", got, want)
	}
	if got, want := cli.Update.IgnoreTracks, []string{"latest"}; !reflect.DeepEqual(got, want) {
		t.Errorf("ignore-track: got %q, want %q", got, want)
	}
	if !cli.Update.EnsureCharmhub {
		t.Errorf("ensure-charmhub: not set")
	}
	if got, want := cli.Update.Jobs, 4; got != want {
		t.Errorf("jobs: got %d, want %d", got, want)
	}
	if got, want := cli.Update.Channel, "yoga/stable"; got != want {
		t.Errorf("channel: got %q, want %q", got, want)
	}
}

func TestTOMLFlagsWin(t *testing.T) {
	cli := parseWithConfig(t, "jobs = 4\nnamespace = [\"cs:~me/\"]\n", "-j", "2", "--remove-channel")
	if got, want := cli.Update.Jobs, 2; got != want {
		t.Errorf("jobs: got %d, want %d", got, want)
	}
	if got, want := cli.Update.Namespaces, []string{"cs:~me/"}; !reflect.DeepEqual(got, want) {
		t.Errorf("namespace: got %q, want %q", got, want)
	}
}

func TestTOMLDefaults(t *testing.T) {
	cli := parseWithConfig(t, "", "--remove-channel")
	if got, want := cli.Update.Jobs, 1; got != want {
		t.Errorf("jobs: got %d, want %d", got, want)
	}
	if got, want := cli.Update.Namespaces, []string{"~openstack-charmers/", "~openstack-charmers-next/"}; !reflect.DeepEqual(got, want) {
		t.Errorf("namespace: got %q, want %q", got, want)
	}
	if got, want := cli.Log, "info"; got != want {
		t.Errorf("log: got %q, want %q", got, want)
	}
}

func TestTOMLInvalid(t *testing.T) {
	if _, err := TOML(strings.NewReader("jobs = ")); err == nil {
		t.Fatal("expected error")
	}
}
