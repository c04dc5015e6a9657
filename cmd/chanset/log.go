// Copyright 2020 VMware, Inc.
// SPDX-License-Identifier: BSD-2-Clause

package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

func parseLevel(s string) (logrus.Level, error) {
	switch strings.ToLower(s) {
	case "critical":
		return logrus.FatalLevel, nil
	case "warn", "warning":
		return logrus.WarnLevel, nil
	case "debug", "info", "error":
		return logrus.ParseLevel(s)
	}
	return 0, fmt.Errorf("unknown log level %q", s)
}

func newLogger(level string, w io.Writer) (*logrus.Logger, error) {
	lvl, err := parseLevel(level)
	if err != nil {
		return nil, err
	}

	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(lvl)
	l.SetFormatter(&logrus.TextFormatter{
		DisableColors:    !isTerminal(w),
		DisableTimestamp: true,
	})
	return l, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
