// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

// Package csvimport turns untrusted CSV uploads into normalized rows.
//
// Uploads come from spreadsheet exports with unknown encoding and delimiter,
// so decoding tries a fixed list of fallback encodings and the delimiter is
// sniffed from the first line.
package csvimport

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/canonical/invitation-service/internal/logging"
	"github.com/canonical/invitation-service/internal/tracing"
	"github.com/canonical/invitation-service/internal/types"
)

// DefaultMaxRows bounds worst-case processing latency and memory per upload.
const DefaultMaxRows = 500

// RequiredColumns is the normalized header set every upload must contain.
// Additional columns are ignored.
var RequiredColumns = []string{
	"email",
	"prenom",
	"nom",
	"filiere_ou_parcours",
	"niveau",
	"annee_academique",
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

type Ingestor struct {
	maxRows int

	tracer tracing.TracingInterface
	logger logging.LoggerInterface
}

func NewIngestor(maxRows int, tracer tracing.TracingInterface, logger logging.LoggerInterface) *Ingestor {
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}

	i := new(Ingestor)

	i.maxRows = maxRows
	i.tracer = tracer
	i.logger = logger

	return i
}

// Ingest decodes the raw buffer and returns its data rows in file order.
// The same buffer always yields the same rows, callers may re-ingest to
// restart iteration.
func (i *Ingestor) Ingest(ctx context.Context, raw []byte) ([]types.CsvRow, error) {
	_, span := i.tracer.Start(ctx, "csvimport.Ingestor.Ingest")
	defer span.End()

	text, err := decode(raw)
	if err != nil {
		return nil, err
	}

	delimiter := sniffDelimiter(text)

	reader := csv.NewReader(strings.NewReader(text))
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, ErrEmptyFile
		}
		return nil, fmt.Errorf("failed to parse CSV header: %w", err)
	}

	columns := make([]string, len(header))
	for n, name := range header {
		columns[n] = strings.ToLower(strings.TrimSpace(name))
	}

	if missing := missingColumns(columns); len(missing) > 0 {
		return nil, &MissingColumnsError{Columns: missing}
	}

	var rows []types.CsvRow
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse CSV row: %w", err)
		}

		row := make(types.CsvRow, len(columns))
		for n, column := range columns {
			value := ""
			if n < len(record) {
				value = strings.TrimSpace(record[n])
			}
			row[column] = value
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, ErrEmptyFile
	}
	if len(rows) > i.maxRows {
		return nil, &TooManyRowsError{Limit: i.maxRows, Count: len(rows)}
	}

	return rows, nil
}

// decode attempts the supported encodings in fixed priority order, first
// success wins. Latin-1 accepts any byte sequence, so in practice cp437 is
// only reachable if earlier decoders produce replacement runes.
func decode(raw []byte) (string, error) {
	if bytes.HasPrefix(raw, utf8BOM) {
		if body := bytes.TrimPrefix(raw, utf8BOM); utf8.Valid(body) {
			return string(body), nil
		}
	}

	if utf8.Valid(raw) {
		return string(raw), nil
	}

	for _, cm := range []*charmap.Charmap{charmap.Windows1252, charmap.ISO8859_1, charmap.CodePage437} {
		out, err := cm.NewDecoder().Bytes(raw)
		if err != nil {
			continue
		}
		// Bytes undefined in the code page decode to U+FFFD, treat that as
		// a failed attempt rather than silently corrupting cell values.
		if !bytes.ContainsRune(out, unicode.ReplacementChar) {
			return string(out), nil
		}
	}

	return "", ErrUnsupportedEncoding
}

// sniffDelimiter inspects only the first line and picks ';' over ',' when it
// is strictly more frequent. A heuristic, quoted semicolons in the header can
// mislead it.
func sniffDelimiter(text string) rune {
	firstLine, _, _ := strings.Cut(text, "\n")
	if strings.Count(firstLine, ";") > strings.Count(firstLine, ",") {
		return ';'
	}
	return ','
}

func missingColumns(columns []string) []string {
	present := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		present[c] = struct{}{}
	}

	var missing []string
	for _, required := range RequiredColumns {
		if _, ok := present[required]; !ok {
			missing = append(missing, required)
		}
	}

	sort.Strings(missing)
	return missing
}
