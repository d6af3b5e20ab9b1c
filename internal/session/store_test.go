package session

import (
	"os"
	"strings"
	"testing"
	"time"

	"dataops/internal/logging"
	"dataops/ui/widgets"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func newTestStore(t *testing.T, ttl time.Duration) (*Store, *fakeClock) {
	t.Helper()
	staging, err := NewStaging(t.TempDir())
	require.NoError(t, err)

	clock := &fakeClock{t: time.Date(2025, 11, 2, 10, 0, 0, 0, time.UTC)}
	store := NewStore(Config{TTL: ttl, SweepInterval: time.Second}, staging, logging.Discard())
	store.now = clock.Now
	return store, clock
}

func TestStore_GetOrCreate(t *testing.T) {
	store, _ := newTestStore(t, time.Minute)

	first, created := store.GetOrCreate("")
	assert.True(t, created)
	assert.NotEmpty(t, first.ID)

	again, created := store.GetOrCreate(first.ID)
	assert.False(t, created)
	assert.Same(t, first, again)

	other, created := store.GetOrCreate("unknown-id")
	assert.True(t, created)
	assert.NotEqual(t, "unknown-id", other.ID)
	assert.Equal(t, 2, store.Len())
}

func TestStore_SweepExpiresIdleSessions(t *testing.T) {
	store, clock := newTestStore(t, 10*time.Minute)

	idle := store.Create()
	staged, err := store.Staging().Stage(idle.ID, "a.csv", "", strings.NewReader("a,b\n1,2\n"))
	require.NoError(t, err)

	clock.t = clock.t.Add(8 * time.Minute)
	active := store.Create()

	clock.t = clock.t.Add(5 * time.Minute)
	_, ok := store.Get(active.ID)
	require.True(t, ok)

	assert.Equal(t, 1, store.Sweep())
	_, ok = store.Get(idle.ID)
	assert.False(t, ok)
	_, ok = store.Get(active.ID)
	assert.True(t, ok)

	_, err = os.Stat(staged.Path)
	assert.True(t, os.IsNotExist(err), "staged files of expired sessions are removed")
}

func TestStore_SweepKeepsInFlightUploads(t *testing.T) {
	store, clock := newTestStore(t, time.Minute)
	sess := store.Create()
	require.True(t, sess.TryStartUpload())

	clock.t = clock.t.Add(time.Hour)
	assert.Equal(t, 0, store.Sweep())
	assert.Equal(t, 1, store.Len())

	sess.FinishUpload()
	assert.Equal(t, 1, store.Sweep())
	assert.Equal(t, 0, store.Len())
}

func TestStore_PurgeOrphansAfterRestart(t *testing.T) {
	dir := t.TempDir()
	previous, err := NewStaging(dir)
	require.NoError(t, err)
	staged, err := previous.Stage("old-session", "orders.csv", "", strings.NewReader("a,b\n1,2\n"))
	require.NoError(t, err)

	staging, err := NewStaging(dir)
	require.NoError(t, err)
	store := NewStore(Config{TTL: 30 * time.Minute, SweepInterval: time.Minute}, staging, logging.Discard())
	store.PurgeOrphans()

	_, err = os.Stat(staged.Path)
	assert.True(t, os.IsNotExist(err), "files staged before a restart are removed even when recent")
}

func TestStore_ExpireRechecksIdleTime(t *testing.T) {
	store, clock := newTestStore(t, 10*time.Minute)
	sess := store.Create()

	clock.t = clock.t.Add(15 * time.Minute)
	cutoff := clock.t.Add(-10 * time.Minute)

	// a request lands between collection and deletion
	_, ok := store.Get(sess.ID)
	require.True(t, ok)

	assert.False(t, store.expire(sess, cutoff))
	assert.Equal(t, 1, store.Len())
	assert.True(t, sess.TryStartUpload(), "the upload slot is released")
	sess.FinishUpload()
}

func TestSession_SingleUploadSlot(t *testing.T) {
	store, _ := newTestStore(t, time.Minute)
	sess := store.Create()

	require.True(t, sess.TryStartUpload())
	assert.False(t, sess.TryStartUpload(), "second upload is rejected, not queued")
	sess.FinishUpload()
	assert.True(t, sess.TryStartUpload())
	sess.FinishUpload()
}

func TestSession_With(t *testing.T) {
	store, _ := newTestStore(t, time.Minute)
	sess := store.Create()

	sess.With(func(d *widgets.Dashboard) {
		d.Upload.ToggleLLM()
	})
	sess.With(func(d *widgets.Dashboard) {
		assert.False(t, d.Upload.UseLLM())
	})
}
