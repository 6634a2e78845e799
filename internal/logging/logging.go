// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

// Package logging builds the zerolog loggers used by azgovtool.
package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
)

const (
	FormatConsole = "console" // FormatConsole writes human readable lines.
	FormatJSON    = "json"    // FormatJSON writes one JSON object per line.
)

// New returns a logger writing to w at the supplied level.
// An empty level means info, an empty format means console.
func New(w io.Writer, level, format string) (zerolog.Logger, error) {
	lvl := zerolog.InfoLevel
	if level != "" {
		var err error
		if lvl, err = zerolog.ParseLevel(strings.ToLower(level)); err != nil {
			return zerolog.Nop(), fmt.Errorf("logging.New: invalid level %q: %w", level, err)
		}
	}

	switch strings.ToLower(format) {
	case "", FormatConsole:
		w = zerolog.ConsoleWriter{Out: w, NoColor: true}
	case FormatJSON:
	default:
		return zerolog.Nop(), fmt.Errorf("logging.New: invalid format %q, must be %s or %s", format, FormatConsole, FormatJSON)
	}

	return zerolog.New(w).
		Level(lvl).
		With().
		Timestamp().
		Logger(), nil
}

// ValidLevel reports whether level can be parsed as a log level.
func ValidLevel(level string) bool {
	if level == "" {
		return true
	}

	_, err := zerolog.ParseLevel(strings.ToLower(level))

	return err == nil
}
