package mmap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/rootflat/pkg/errors"
)

func TestReader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fields.json")
	content := []byte(`{"fields": []}`)
	require.NoError(t, os.WriteFile(path, content, 0600))

	r, err := NewReader(path)
	require.NoError(t, err)
	assert.Equal(t, content, r.Bytes())
	assert.Equal(t, len(content), r.Len())

	require.NoError(t, r.Close())
	require.NoError(t, r.Close())
	assert.Nil(t, r.Bytes())
}

func TestReaderEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty")
	require.NoError(t, os.WriteFile(path, nil, 0600))

	r, err := NewReader(path)
	require.NoError(t, err)
	assert.Equal(t, 0, r.Len())
	assert.False(t, r.Mapped())
	require.NoError(t, r.Close())
}

func TestReaderMissing(t *testing.T) {
	_, err := NewReader(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeFile))
}
