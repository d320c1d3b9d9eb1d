// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package csvimport

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canonical/invitation-service/internal/logging"
	"github.com/canonical/invitation-service/internal/tracing"
)

const header = "email,prenom,nom,filiere_ou_parcours,niveau,annee_academique"

func newTestIngestor(maxRows int) *Ingestor {
	return NewIngestor(maxRows, tracing.NewNoopTracer(), logging.NewNoopLogger())
}

func TestIngest_Encodings(t *testing.T) {
	utf8Content := header + "\nstephanie@example.com,Stéphanie,Müller,Génie Civil,M1,2026-2027\n"

	// The same row with accented characters encoded as windows-1252.
	win1252Content := strings.NewReplacer(
		"é", "\xe9",
		"ü", "\xfc",
	).Replace(utf8Content)

	testCases := []struct {
		name string
		raw  []byte
	}{
		{"utf-8", []byte(utf8Content)},
		{"utf-8 with BOM", append([]byte{0xEF, 0xBB, 0xBF}, utf8Content...)},
		{"windows-1252", []byte(win1252Content)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rows, err := newTestIngestor(0).Ingest(context.Background(), tc.raw)
			require.NoError(t, err)
			require.Len(t, rows, 1)

			assert.Equal(t, "stephanie@example.com", rows[0]["email"])
			assert.Equal(t, "Stéphanie", rows[0]["prenom"])
			assert.Equal(t, "Müller", rows[0]["nom"])
			assert.Equal(t, "Génie Civil", rows[0]["filiere_ou_parcours"])
		})
	}
}

func TestIngest_SemicolonDelimiter(t *testing.T) {
	content := strings.ReplaceAll(header, ",", ";") + "\na@example.com;Jean;Dupont;Informatique;L3;2026-2027\n"

	rows, err := newTestIngestor(0).Ingest(context.Background(), []byte(content))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Jean", rows[0]["prenom"])
}

func TestIngest_CommaWinsOnTie(t *testing.T) {
	// One semicolon inside a header cell must not flip the delimiter.
	content := header + "\na@example.com,Jean,Dupont,Info; Réseaux,L3,2026-2027\n"

	rows, err := newTestIngestor(0).Ingest(context.Background(), []byte(content))
	require.NoError(t, err)
	assert.Equal(t, "Info; Réseaux", rows[0]["filiere_ou_parcours"])
}

func TestIngest_HeaderNormalization(t *testing.T) {
	content := "Email , PRENOM ,nom,Filiere_Ou_Parcours,NIVEAU,annee_academique\na@example.com,Jean,Dupont,Informatique,L3,2026-2027\n"

	rows, err := newTestIngestor(0).Ingest(context.Background(), []byte(content))
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", rows[0]["email"])
	assert.Equal(t, "Jean", rows[0]["prenom"])
}

func TestIngest_MissingColumns(t *testing.T) {
	content := "email,prenom\na@example.com,Jean\n"

	_, err := newTestIngestor(0).Ingest(context.Background(), []byte(content))

	var missing *MissingColumnsError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{"annee_academique", "filiere_ou_parcours", "niveau", "nom"}, missing.Columns)
}

func TestIngest_EmptyFile(t *testing.T) {
	testCases := []struct {
		name    string
		content string
	}{
		{"no bytes", ""},
		{"header only", header + "\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := newTestIngestor(0).Ingest(context.Background(), []byte(tc.content))
			assert.ErrorIs(t, err, ErrEmptyFile)
		})
	}
}

func TestIngest_TooManyRows(t *testing.T) {
	var sb strings.Builder
	sb.WriteString(header + "\n")
	for n := 0; n < 11; n++ {
		fmt.Fprintf(&sb, "user%d@example.com,Jean,Dupont,Informatique,L3,2026-2027\n", n)
	}

	_, err := newTestIngestor(10).Ingest(context.Background(), []byte(sb.String()))

	var tooMany *TooManyRowsError
	require.True(t, errors.As(err, &tooMany))
	assert.Equal(t, 10, tooMany.Limit)
	assert.Equal(t, 11, tooMany.Count)
}

func TestIngest_ShortRecordsArePadded(t *testing.T) {
	content := header + "\na@example.com,Jean\n"

	rows, err := newTestIngestor(0).Ingest(context.Background(), []byte(content))
	require.NoError(t, err)
	assert.Equal(t, "Jean", rows[0]["prenom"])
	assert.Equal(t, "", rows[0]["niveau"])
}

func TestIngest_ValuesAreTrimmed(t *testing.T) {
	content := header + "\n  a@example.com , Jean ,Dupont,Informatique,L3,2026-2027\n"

	rows, err := newTestIngestor(0).Ingest(context.Background(), []byte(content))
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", rows[0]["email"])
	assert.Equal(t, "Jean", rows[0]["prenom"])
}
