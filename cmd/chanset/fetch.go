// Copyright 2020 VMware, Inc.
// SPDX-License-Identifier: BSD-2-Clause

package main

import (
	"os"
	"path/filepath"
	"strings"

	"chanset.io/pkg/lpconfig"
	"github.com/hashicorp/go-getter"
	"github.com/sirupsen/logrus"
)

// fetchConfig returns a local directory holding the lp-builder-config documents named by src.
// Plain paths are returned as is; anything else go-getter understands (git::, https://, s3::, file::...)
// is downloaded into a temporary directory that is removed by cleanup.
func fetchConfig(src string, log *logrus.Entry) (dir string, cleanup func(), err error) {
	nop := func() {}

	pwd, err := os.Getwd()
	if err != nil {
		return "", nop, err
	}
	u, err := getter.Detect(src, pwd, getter.Detectors)
	if err != nil {
		return "", nop, &lpconfig.ConfigError{Path: src, Err: err}
	}
	if strings.HasPrefix(u, "file://") {
		return src, nop, nil
	}

	tmp, err := os.MkdirTemp("", "chanset-lp-config-")
	if err != nil {
		return "", nop, err
	}
	cleanup = func() { os.RemoveAll(tmp) }

	dst := filepath.Join(tmp, "config")
	log.Debugf("fetching %s into %s", src, dst)
	opt := func(c *getter.Client) (err error) {
		c.Pwd = pwd
		return
	}
	if err := getter.GetAny(dst, src, opt); err != nil {
		cleanup()
		return "", nop, &lpconfig.ConfigError{Path: src, Err: err}
	}
	return dst, cleanup, nil
}
