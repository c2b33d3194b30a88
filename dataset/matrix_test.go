package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestMatrix(t *testing.T, path string, rows [][]float32) {
	t.Helper()

	dim := 0
	if len(rows) > 0 {
		dim = len(rows[0])
	}

	w, err := CreateMatrix(path, len(rows), dim)
	require.NoError(t, err)
	for _, row := range rows {
		require.NoError(t, w.WriteRow(row))
	}
	require.NoError(t, w.Close())
}

func TestMatrix_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "points.f32")
	rows := [][]float32{
		{1, 2, 3},
		{4, 5, 6},
		{-7.5, 0, 42.25},
	}
	writeTestMatrix(t, path, rows)

	m, err := OpenMatrix(path)
	require.NoError(t, err)
	defer m.Close()

	assert.Equal(t, 3, m.Rows())
	assert.Equal(t, 3, m.Dim())

	for i, want := range rows {
		assert.Equal(t, want, m.Row(i), "row %d", i)
	}

	views := m.Views()
	require.Len(t, views, 3)
	assert.Equal(t, rows[2], views[2])

	assert.NoError(t, m.Verify())
}

func TestMatrix_PublishIsAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "points.f32")

	w, err := CreateMatrix(path, 2, 2)
	require.NoError(t, err)
	require.NoError(t, w.WriteRow([]float32{1, 2}))

	// Not published yet
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, w.WriteRow([]float32{3, 4}))
	require.NoError(t, w.Close())

	_, err = os.Stat(path)
	assert.NoError(t, err)

	// No staged temp files left behind
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "points.f32", entries[0].Name())
}

func TestMatrixWriter_Validation(t *testing.T) {
	dir := t.TempDir()

	t.Run("InvalidShape", func(t *testing.T) {
		_, err := CreateMatrix(filepath.Join(dir, "bad.f32"), -1, 2)
		assert.Error(t, err)

		_, err = CreateMatrix(filepath.Join(dir, "bad.f32"), 2, 0)
		assert.Error(t, err)
	})

	t.Run("WrongRowLength", func(t *testing.T) {
		w, err := CreateMatrix(filepath.Join(dir, "w1.f32"), 1, 3)
		require.NoError(t, err)
		defer w.Abort()

		assert.Error(t, w.WriteRow([]float32{1, 2}))
	})

	t.Run("TooManyRows", func(t *testing.T) {
		w, err := CreateMatrix(filepath.Join(dir, "w2.f32"), 1, 1)
		require.NoError(t, err)
		defer w.Abort()

		require.NoError(t, w.WriteRow([]float32{1}))
		assert.Error(t, w.WriteRow([]float32{2}))
	})

	t.Run("MissingRows", func(t *testing.T) {
		path := filepath.Join(dir, "w3.f32")
		w, err := CreateMatrix(path, 2, 1)
		require.NoError(t, err)

		require.NoError(t, w.WriteRow([]float32{1}))
		assert.Error(t, w.Close())

		// Nothing published
		_, err = os.Stat(path)
		assert.True(t, os.IsNotExist(err))
	})
}

func TestOpenMatrix_BadFiles(t *testing.T) {
	dir := t.TempDir()

	t.Run("TooShort", func(t *testing.T) {
		path := filepath.Join(dir, "short.f32")
		require.NoError(t, os.WriteFile(path, []byte("tiny"), 0o600))

		_, err := OpenMatrix(path)
		assert.ErrorIs(t, err, ErrTruncated)
	})

	t.Run("WrongMagic", func(t *testing.T) {
		path := filepath.Join(dir, "magic.f32")
		require.NoError(t, os.WriteFile(path, make([]byte, headerSize), 0o600))

		_, err := OpenMatrix(path)
		assert.ErrorIs(t, err, ErrFormat)
	})

	t.Run("DataTruncated", func(t *testing.T) {
		path := filepath.Join(dir, "trunc.f32")
		writeTestMatrix(t, path, [][]float32{{1, 2}, {3, 4}})

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(path, data[:len(data)-4], 0o600))

		_, err = OpenMatrix(path)
		assert.ErrorIs(t, err, ErrTruncated)
	})
}

func TestMatrix_VerifyDetectsCorruption(t *testing.T) {
	path := filepath.Join(t.TempDir(), "points.f32")
	writeTestMatrix(t, path, [][]float32{{1, 2}, {3, 4}})

	// Flip one data byte
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	data[headerSize] ^= 0xFF
	require.NoError(t, os.WriteFile(path, data, 0o600))

	m, err := OpenMatrix(path)
	require.NoError(t, err, "open does not checksum")
	defer m.Close()

	assert.ErrorIs(t, m.Verify(), ErrChecksum)
}

func TestMatrix_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.f32")

	w, err := CreateMatrix(path, 0, 4)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	m, err := OpenMatrix(path)
	require.NoError(t, err)
	defer m.Close()

	assert.Equal(t, 0, m.Rows())
	assert.Equal(t, 4, m.Dim())
	assert.Empty(t, m.Views())
	assert.NoError(t, m.Verify())
}
