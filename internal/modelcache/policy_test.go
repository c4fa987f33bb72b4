package modelcache

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func clearOfflineEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"HF_HUB_OFFLINE", "GNO_OFFLINE", "GNO_NO_AUTO_DOWNLOAD"} {
		old, had := os.LookupEnv(k)
		os.Unsetenv(k)
		t.Cleanup(func() {
			if had {
				os.Setenv(k, old)
			}
		})
	}
}

func TestResolvePolicyPrecedence(t *testing.T) {
	clearOfflineEnv(t)

	assert.Equal(t, Policy{Offline: true, AllowDownload: false}, ResolvePolicy(true))

	os.Setenv("HF_HUB_OFFLINE", "1")
	assert.Equal(t, Policy{Offline: true, AllowDownload: false}, ResolvePolicy(false))
	os.Unsetenv("HF_HUB_OFFLINE")

	os.Setenv("GNO_OFFLINE", "true")
	assert.Equal(t, Policy{Offline: true, AllowDownload: false}, ResolvePolicy(false))
	os.Unsetenv("GNO_OFFLINE")

	os.Setenv("GNO_NO_AUTO_DOWNLOAD", "yes")
	assert.Equal(t, Policy{Offline: false, AllowDownload: false}, ResolvePolicy(false))
	os.Unsetenv("GNO_NO_AUTO_DOWNLOAD")

	assert.Equal(t, Policy{Offline: false, AllowDownload: true}, ResolvePolicy(false))
}
