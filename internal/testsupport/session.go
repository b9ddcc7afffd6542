package testsupport

import (
	"testing"

	"facestage/internal/config"
	"facestage/internal/session"
)

// MustOpenSessionStore opens the session database for cfg and closes it when
// the test ends.
func MustOpenSessionStore(t testing.TB, cfg *config.Config) *session.Store {
	t.Helper()
	store, err := session.Open(cfg)
	if err != nil {
		t.Fatalf("open session store: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
