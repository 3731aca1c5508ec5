package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/numtable/datasource"
	"github.com/YuminosukeSato/numtable/table"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "in.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args, "--log-level", "error"))
	err := cmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "ntable v"+version)
}

func TestInspect(t *testing.T) {
	path := writeCSV(t, "age;city\n30;tokyo\n41;osaka\n25;tokyo\n")

	out, err := run(t, "inspect", path, "--delimiter", ";", "--rows", "1:5")
	require.NoError(t, err)
	assert.Contains(t, out, "rows: 3")
	assert.Contains(t, out, "columns: 2")
	assert.Contains(t, out, "categorical")
	assert.Contains(t, out, "rows [1, 3)")
	assert.Contains(t, out, "osaka")
	assert.NotContains(t, out, "30")
}

func TestInspect_BadArguments(t *testing.T) {
	path := writeCSV(t, "a\n1\n")

	_, err := run(t, "inspect", path, "--rows", "x")
	assert.Error(t, err)

	_, err = run(t, "inspect", path, "--rows", "5:1")
	assert.Error(t, err)

	_, err = run(t, "inspect", path, "--delimiter", "ab")
	assert.Error(t, err)

	_, err = run(t, "inspect")
	assert.Error(t, err)
}

func TestConvertAndScale(t *testing.T) {
	path := writeCSV(t, "x,y\n1,a\n2,b\n3,a\n")
	dir := t.TempDir()

	t.Run("convert", func(t *testing.T) {
		dst := filepath.Join(dir, "out.arrows")
		out, err := run(t, "convert", path, dst, "--compression", "zstd")
		require.NoError(t, err)
		assert.Contains(t, out, "wrote 3 rows x 2 columns")

		f, err := os.Open(dst)
		require.NoError(t, err)
		defer f.Close()
		back, err := datasource.ReadArrowIPC(f, nil)
		require.NoError(t, err)
		got, err := table.ReadAll[float64](back)
		require.NoError(t, err)
		assert.Equal(t, []float64{1, 0, 2, 1, 3, 0}, got)
	})

	t.Run("scale", func(t *testing.T) {
		dst := filepath.Join(dir, "scaled.arrows")
		_, err := run(t, "scale", path, dst, "--batch-size", "2")
		require.NoError(t, err)

		f, err := os.Open(dst)
		require.NoError(t, err)
		defer f.Close()
		back, err := datasource.ReadArrowIPC(f, nil)
		require.NoError(t, err)
		got, err := table.ReadAll[float64](back)
		require.NoError(t, err)
		assert.InDelta(t, 0.0, got[2], 1e-12, "mean row standardizes to zero")
		assert.Equal(t, []float64{0, 1, 0}, []float64{got[1], got[3], got[5]}, "categorical column is copied")
	})
}

func TestConvert_BadCompression(t *testing.T) {
	path := writeCSV(t, "x\n1\n")
	_, err := run(t, "convert", path, filepath.Join(t.TempDir(), "out.arrows"), "--compression", "gzip")
	assert.Error(t, err)
}

func TestParseRows(t *testing.T) {
	start, count, err := parseRows("10:20")
	require.NoError(t, err)
	assert.Equal(t, 10, start)
	assert.Equal(t, 20, count)

	for _, bad := range []string{"", "1", "a:1", "1:-1", "-1:2"} {
		_, _, err := parseRows(bad)
		assert.Error(t, err, bad)
	}
}
