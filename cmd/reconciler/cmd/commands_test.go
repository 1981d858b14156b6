package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestParseRange(t *testing.T) {
	r, err := parseRange("", "")
	require.NoError(t, err)
	assert.Nil(t, r)

	r, err = parseRange("2024-01-01", "2024-01-31")
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, 31, r.To.Day())

	_, err = parseRange("2024-01-01", "")
	assert.Error(t, err)
	_, err = parseRange("2024-02-01", "2024-01-01")
	assert.Error(t, err)
	_, err = parseRange("01/01/2024", "2024-01-31")
	assert.Error(t, err)
}

func TestResetNeedsConfirmation(t *testing.T) {
	_, err := run(t, "reset")
	assert.ErrorContains(t, err, "--yes")
}

func TestImportStatsExport(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DATABASE_URL", "file:cli-flow?mode=memory&cache=shared")

	dir := t.TempDir()
	input := filepath.Join(dir, "merged.csv")
	require.NoError(t, os.WriteFile(input, []byte(
		"bank_row,bank_date,bank_name,bank_amount,sale_row,invoice,sale_date,sale_name,sale_amount,match_type,confidence\n"+
			"1,2024-01-10,Ana,10.00,1,F-1,2024-01-10,Ana,10.00,x,medium (60%)\n"), 0o600))

	out, err := run(t, "import", input)
	require.NoError(t, err)
	assert.Contains(t, out, "pending:           1")

	out, err = run(t, "approve-all")
	require.NoError(t, err)
	assert.Contains(t, out, "approved 1 matches")

	out, err = run(t, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "confirmed matches: 1")

	output := filepath.Join(dir, "out.xlsx")
	out, err = run(t, "export", output)
	require.NoError(t, err)
	assert.Contains(t, out, "exported 1 rows")
	assert.FileExists(t, output)

	_, err = run(t, "reset", "--yes")
	require.NoError(t, err)
}
