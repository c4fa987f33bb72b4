package modelcache

import (
	"encoding/json"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/gmickel/gno/internal/gnoerr"
)

// lockMeta is the JSON body written into a lock file (spec.md section
// 4.4: "Lock metadata contains {pid, hostname, user, createdAt}").
type lockMeta struct {
	PID       int       `json:"pid"`
	Hostname  string    `json:"hostname"`
	User      string    `json:"user"`
	CreatedAt time.Time `json:"createdAt"`
}

// acquireLock implements the exclusive-create + TTL-stale-steal + bounded
// poll protocol of spec.md section 4.4 / section 9 ("Implement lock
// acquisition with O_EXCL create + TTL-based stale detection + atomic
// rename-aside for steals"). It returns a release func that must be
// called on every exit path (including panics), matching the
// "withLock releases on every exit path" discipline of section 5.
func acquireLock(path string) (release func(), gerr *gnoerr.Error) {
	meta := lockMeta{
		PID:       os.Getpid(),
		Hostname:  hostnameOrUnknown(),
		User:      userOrUnknown(),
		CreatedAt: time.Now(),
	}
	body, err := json.Marshal(meta)
	if err != nil {
		return nil, gnoerr.Wrap(gnoerr.CodeLockFailed, err)
	}

	for attempt := 0; attempt < lockMaxAttempts; attempt++ {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			if _, writeErr := f.Write(body); writeErr != nil {
				f.Close()
				os.Remove(path)
				return nil, gnoerr.Wrap(gnoerr.CodeLockFailed, writeErr)
			}
			f.Close()
			return func() { os.Remove(path) }, nil
		}
		if !os.IsExist(err) {
			return nil, gnoerr.Wrap(gnoerr.CodeLockFailed, err)
		}

		if info, statErr := os.Stat(path); statErr == nil {
			if time.Since(info.ModTime()) > LockTTL {
				stale := path + ".stale." + uuid.NewString()
				if renameErr := os.Rename(path, stale); renameErr == nil {
					os.Remove(stale)
					continue // retry the create immediately; no sleep needed after a steal
				}
			}
		}

		time.Sleep(lockPollInterval)
	}
	return nil, gnoerr.New(gnoerr.CodeLockFailed, "timed out acquiring lock "+path, nil).
		WithDetail("path", path)
}

func hostnameOrUnknown() string {
	h, err := os.Hostname()
	if err != nil || h == "" {
		return "unknown"
	}
	return h
}

func userOrUnknown() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	if u := os.Getenv("USERNAME"); u != "" {
		return u
	}
	return "unknown"
}
