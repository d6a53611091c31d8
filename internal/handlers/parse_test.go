package handlers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCSV(t *testing.T) {
	t.Run("byte order mark is stripped", func(t *testing.T) {
		input := "\uFEFFJob Card No,Customer Name\nJC-1,Asha\n"
		rows, err := parseCSV(strings.NewReader(input))
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "JC-1", rows[0]["Job Card No"])
		assert.Equal(t, "Asha", rows[0]["Customer Name"])
	})

	t.Run("ragged rows are tolerated", func(t *testing.T) {
		input := "A,B,C\n1,2\n4,5,6,7\n"
		rows, err := parseCSV(strings.NewReader(input))
		require.NoError(t, err)
		require.Len(t, rows, 2)

		_, hasC := rows[0]["C"]
		assert.False(t, hasC, "short row must not invent a value for C")
		assert.Equal(t, "6", rows[1]["C"])
	})

	t.Run("blank rows are dropped", func(t *testing.T) {
		input := "A,B\n1,2\n,\n3,4\n"
		rows, err := parseCSV(strings.NewReader(input))
		require.NoError(t, err)
		assert.Len(t, rows, 2)
	})

	t.Run("header only yields no rows", func(t *testing.T) {
		rows, err := parseCSV(strings.NewReader("A,B\n"))
		require.NoError(t, err)
		assert.Empty(t, rows)
	})
}

func TestRowsFromCells(t *testing.T) {
	rows := rowsFromCells([][]string{
		{"Job Card No", "", "Bill Amount"},
		{"JC-1", "ignored", "1200"},
	})

	require.Len(t, rows, 1)
	assert.Equal(t, "JC-1", rows[0]["Job Card No"])
	assert.Equal(t, "1200", rows[0]["Bill Amount"])
	assert.NotContains(t, rows[0], "", "cells under an empty header are dropped")
}
