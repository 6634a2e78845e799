// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

// Package export writes audit rows in the JSON export format shared by every chore:
// a UTF-8 JSON array of flat objects.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// filePermissions is the permission to use when writing files.
const filePermissions = 0644

// JSON writes rows to w as an indented JSON array. A nil slice is written as an empty array.
func JSON[T any](w io.Writer, rows []T) error {
	if rows == nil {
		rows = make([]T, 0)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)

	if err := enc.Encode(rows); err != nil {
		return fmt.Errorf("export: could not encode rows: %w", err)
	}

	return nil
}

// JSONFile writes rows to the named file, replacing it. If path is "-" rows are written to stdout.
func JSONFile[T any](path string, rows []T) error {
	if path == "-" {
		return JSON(os.Stdout, rows)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, filePermissions)
	if err != nil {
		return fmt.Errorf("export: could not open %s: %w", path, err)
	}

	if err := JSON(f, rows); err != nil {
		f.Close() // nolint: errcheck
		return err
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("export: could not close %s: %w", path, err)
	}

	return nil
}
