// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package csvimport

import (
	"errors"
	"fmt"
	"strings"
)

// File-level errors fail the whole upload and are surfaced to the uploader.
var (
	ErrUnsupportedEncoding = errors.New("unsupported encoding, export the CSV as UTF-8")
	ErrEmptyFile           = errors.New("the file has no data rows")
)

type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("missing required columns: %s", strings.Join(e.Columns, ", "))
}

type TooManyRowsError struct {
	Limit int
	Count int
}

func (e *TooManyRowsError) Error() string {
	return fmt.Sprintf("file has %d rows, imports are limited to %d rows", e.Count, e.Limit)
}
