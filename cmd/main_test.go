package main

import (
	"testing"
	"time"

	"barangayhealth/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCategories(t *testing.T) {
	all, err := parseCategories(nil)
	require.NoError(t, err)
	assert.Equal(t, models.AllCategories, all)

	got, err := parseCategories([]string{"first-aid", "Vaccine"})
	require.NoError(t, err)
	assert.Equal(t, []models.Category{models.CategoryFirstAid, models.CategoryVaccine}, got)

	_, err = parseCategories([]string{"fertilizer"})
	assert.Error(t, err)
}

func TestLoadLocation(t *testing.T) {
	loc, err := loadLocation("Asia/Manila")
	require.NoError(t, err)
	assert.Equal(t, "Asia/Manila", loc.String())

	_, offset := time.Date(2026, 10, 19, 6, 0, 0, 0, loc).Zone()
	assert.Equal(t, 8*60*60, offset)

	_, err = loadLocation("Philippines/Barangay")
	assert.Error(t, err)
}

func TestRootCommand_HasSubcommands(t *testing.T) {
	root := newRootCmd()
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Contains(t, names, "serve")
	assert.Contains(t, names, "sweep")

	sweep, _, err := root.Find([]string{"sweep"})
	require.NoError(t, err)
	assert.NotNil(t, sweep.Flags().Lookup("category"))
}
