package modelcache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireLockExclusiveThenRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.lock")
	release, err := acquireLock(path)
	require.Nil(t, err)
	require.NotNil(t, release)

	_, statErr := os.Stat(path)
	require.NoError(t, statErr)

	release()
	_, statErr = os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestAcquireLockStealsStaleLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.lock")
	require.NoError(t, os.WriteFile(path, []byte(`{"pid":1}`), 0o644))

	old := time.Now().Add(-2 * LockTTL)
	require.NoError(t, os.Chtimes(path, old, old))

	release, err := acquireLock(path)
	require.Nil(t, err)
	release()
}
