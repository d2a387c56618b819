package badger

import (
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/skillscope/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenBackend_InMemory(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	assert.False(t, backend.IsClosed())
}

func TestOpenBackend_FileSystem(t *testing.T) {
	tmpDir := t.TempDir() + "/nested/db"
	backend, err := OpenBackend(tmpDir, false)
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	assert.False(t, backend.IsClosed())
}

func TestBackendClose(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)

	require.NoError(t, backend.Close())
	assert.True(t, backend.IsClosed())

	err = backend.WithTx(func(tx *badger.Txn) error { return nil }, false)
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
}

func TestGetSequence(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	seq, err := backend.GetSequence("test_sequence")
	require.NoError(t, err)
	defer seq.Release()

	id1, err := nextID(seq)
	require.NoError(t, err)
	id2, err := nextID(seq)
	require.NoError(t, err)

	assert.NotZero(t, id1)
	assert.Greater(t, id2, id1)
}

func TestKeyPrefixesDoNotOverlap(t *testing.T) {
	prefixes := []string{
		postingPrefix, postingFpPrefix, postingIngestPrefix,
		chunkPrefix, chunkPostingPrefix,
		analysisPrefix, analysisKeyPrefix, analysisDatePrefix,
	}
	for i, a := range prefixes {
		for j, b := range prefixes {
			if i != j {
				assert.False(t, len(b) >= len(a) && b[:len(a)] == a, "%q is a prefix of %q", a, b)
			}
		}
	}
}
