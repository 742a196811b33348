package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runMigrate(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(&out)
	err := root.Execute()
	return out.String(), err
}

func TestList_EmbeddedSchema(t *testing.T) {
	out, err := runMigrate(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "000001_create_agency_schema")
	assert.Contains(t, out, "000002_create_reconcile_tables")
}

func TestCreateThenList(t *testing.T) {
	dir := t.TempDir()

	_, err := runMigrate(t, "--path", dir, "--log-level", "error", "create", "add provider email")
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.FileExists(t, filepath.Join(dir, "000001_add_provider_email.up.sql"))

	out, err := runMigrate(t, "--path", dir, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "000001_add_provider_email")
}

func TestArgumentValidation(t *testing.T) {
	_, err := runMigrate(t, "step", "two")
	assert.ErrorContains(t, err, "invalid step count")

	_, err = runMigrate(t, "force")
	assert.Error(t, err)

	_, err = runMigrate(t, "--path", t.TempDir(), "list")
	assert.NoError(t, err)
}
