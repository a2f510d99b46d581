// Copyright (C) 2026 groundcast authors.
// All rights reserved. This file is part of groundcast.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package runtimeenv holds process-level setup that has nothing to do
// with groundcast's domain logic: loading a .env file and talking to
// systemd's readiness protocol.
package runtimeenv

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// LoadEnv is a very simple and limited .env file reader. Every variable
// definition found is added directly to the process's environment.
func LoadEnv(file string) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	s := bufio.NewScanner(bufio.NewReader(f))
	for s.Scan() {
		line := s.Text()
		if strings.HasPrefix(line, "#") || len(line) == 0 {
			continue
		}
		if strings.Contains(line, "#") {
			return errors.New("'#' are only supported at the start of a line")
		}

		line = strings.TrimPrefix(line, "export ")
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("runtimeenv: unsupported line: %#v", line)
		}

		key := strings.TrimSpace(parts[0])
		val := strings.TrimSpace(parts[1])
		if strings.HasPrefix(val, "\"") {
			if !strings.HasSuffix(val, "\"") {
				return fmt.Errorf("runtimeenv: unsupported line: %#v", line)
			}
			unquoted, err := unescape(val[1 : len(val)-1])
			if err != nil {
				return err
			}
			val = unquoted
		}

		os.Setenv(key, val)
	}
	return s.Err()
}

func unescape(s string) (string, error) {
	runes := []rune(s)
	var sb strings.Builder
	for i := 0; i < len(runes); i++ {
		if runes[i] != '\\' {
			sb.WriteRune(runes[i])
			continue
		}
		i++
		if i >= len(runes) {
			return "", fmt.Errorf("runtimeenv: dangling escape at end of value")
		}
		switch runes[i] {
		case 'n':
			sb.WriteRune('\n')
		case 'r':
			sb.WriteRune('\r')
		case 't':
			sb.WriteRune('\t')
		case '"':
			sb.WriteRune('"')
		default:
			return "", fmt.Errorf("runtimeenv: unsupported escape sequence: backslash %#v", runes[i])
		}
	}
	return sb.String(), nil
}

// SystemdNotifiy informs systemd, if this process was started by it, that
// it is ready or has a new status.
// https://www.freedesktop.org/software/systemd/man/sd_notify.html
func SystemdNotifiy(ready bool, status string) {
	if os.Getenv("NOTIFY_SOCKET") == "" {
		return
	}

	args := []string{fmt.Sprintf("--pid=%d", os.Getpid())}
	if ready {
		args = append(args, "--ready")
	}
	if status != "" {
		args = append(args, fmt.Sprintf("--status=%s", status))
	}

	cmd := exec.Command("systemd-notify", args...)
	_ = cmd.Run() // errors ignored on purpose, there is not much to do anyway.
}
