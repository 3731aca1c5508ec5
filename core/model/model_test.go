package model

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/numtable/pkg/errors"
)

type counter struct {
	BaseEstimator
	Sums []float64
}

func TestBaseEstimator(t *testing.T) {
	var e BaseEstimator
	assert.False(t, e.IsFitted())

	var notFitted *errors.NotFittedError
	require.ErrorAs(t, e.CheckFitted("counter", "Transform"), &notFitted)
	assert.Equal(t, "Transform", notFitted.Method)

	e.SetFitted(3, 10)
	assert.True(t, e.IsFitted())
	assert.NoError(t, e.CheckFitted("counter", "Transform"))
	assert.NoError(t, e.CheckColumns("counter.Transform", 3))

	var mismatch *errors.DimensionMismatchError
	require.ErrorAs(t, e.CheckColumns("counter.Transform", 4), &mismatch)
	assert.Equal(t, 3, mismatch.Expected)

	e.Reset()
	assert.False(t, e.IsFitted())
	assert.Zero(t, e.NFeatures)
}

func TestPersistence(t *testing.T) {
	src := &counter{Sums: []float64{1.5, 2}}
	src.SetFitted(2, 7)

	t.Run("writer", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, SaveModelToWriter(src, &buf))

		var dst counter
		require.NoError(t, LoadModelFromReader(&dst, &buf))
		assert.Equal(t, *src, dst)
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "counter.gob")
		require.NoError(t, SaveModel(src, path))

		var dst counter
		require.NoError(t, LoadModel(&dst, path))
		assert.True(t, dst.IsFitted())
		assert.Equal(t, 7, dst.NSamples)
	})

	t.Run("missing file", func(t *testing.T) {
		var dst counter
		assert.Error(t, LoadModel(&dst, filepath.Join(t.TempDir(), "nope.gob")))
	})
}
