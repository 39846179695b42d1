package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/dyluth/skirmish/internal/aikey"
	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_RescansOnDescriptorChange(t *testing.T) {
	roots, ifaceRoot, _ := setupRoots(t)
	writeModule(t, ifaceRoot, "C", InterfaceInfoFile, "shortName: C\nversion: '0.1'\n")

	store, err := NewStore(roots)
	require.NoError(t, err)

	w, err := NewWatcher(store, 20*time.Millisecond)
	require.NoError(t, err)
	rescans := make(chan error, 16)
	w.OnRescan = func(err error) { rescans <- err }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	writeModule(t, ifaceRoot, "C", InterfaceInfoFile, "shortName: C\nversion: '0.2'\n")

	assert.Eventually(t, func() bool {
		_, err := store.Catalog().Interface(aikey.NewInterfaceKey("C", "0.2"))
		return err == nil
	}, 5*time.Second, 20*time.Millisecond, "catalog should pick up the new version")
	assert.NoError(t, <-rescans)
}

func TestNewWatcher_DefaultDebounce(t *testing.T) {
	roots, _, _ := setupRoots(t)
	w, err := NewWatcher(NewStaticStore(roots, &Catalog{}), 0)
	require.NoError(t, err)
	defer w.Stop()
	assert.Equal(t, DefaultDebounce, w.debounce)
}

func TestRelevant(t *testing.T) {
	tests := []struct {
		name  string
		event fsnotify.Event
		want  bool
	}{
		{"descriptor written", fsnotify.Event{Name: "/r/C/0.1/InterfaceInfo.yaml", Op: fsnotify.Write}, true},
		{"module dir created", fsnotify.Event{Name: "/r/RAI", Op: fsnotify.Create}, true},
		{"chmod only", fsnotify.Event{Name: "/r/C/0.1/InterfaceInfo.yaml", Op: fsnotify.Chmod}, false},
		{"unrelated file", fsnotify.Event{Name: "/r/C/0.1/libAIInterface.so", Op: fsnotify.Write}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, relevant(tt.event))
		})
	}
}
