package watch

import (
	"encoding/binary"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/rfroumine/dream-heatmap/internal/cache"
	"github.com/rfroumine/dream-heatmap/internal/data/store"
	"github.com/rfroumine/dream-heatmap/internal/layout"
	"github.com/rfroumine/dream-heatmap/internal/service"
)

func writeDataset(t *testing.T, dir string, meta store.Meta, values []float64) {
	t.Helper()

	raw := make([]byte, len(values)*8)
	for i, v := range values {
		binary.LittleEndian.PutUint64(raw[i*8:], math.Float64bits(v))
	}
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		t.Fatalf("failed to create zstd encoder: %v", err)
	}
	compressed := enc.EncodeAll(raw, nil)
	if err := enc.Close(); err != nil {
		t.Fatalf("failed to close zstd encoder: %v", err)
	}

	metaRaw, err := json.Marshal(meta)
	if err != nil {
		t.Fatalf("failed to marshal meta: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, store.MetaFile), metaRaw, 0644); err != nil {
		t.Fatalf("failed to write %s: %v", store.MetaFile, err)
	}
	if err := os.WriteFile(filepath.Join(dir, store.MatrixFile), compressed, 0644); err != nil {
		t.Fatalf("failed to write %s: %v", store.MatrixFile, err)
	}
}

// newWatchedService opens the dataset in dir and wires a watcher with a
// short settle window onto it.
func newWatchedService(t *testing.T, dir string) *service.HeatmapService {
	t.Helper()

	ds, err := store.Open(dir)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	mgr, err := cache.NewManager(cache.Config{FrameCacheSizeMB: 4, FrameTTL: time.Minute, QueryCacheSize: 8})
	if err != nil {
		t.Fatalf("cache.NewManager() error: %v", err)
	}
	t.Cleanup(func() { mgr.Close() })

	svc, err := service.NewHeatmapService(service.HeatmapServiceConfig{
		Dataset: ds,
		Cache:   mgr,
		Layout:  layout.Config{},
	})
	if err != nil {
		t.Fatalf("NewHeatmapService() error: %v", err)
	}

	w, err := New([]Target{{Dir: dir, Service: svc}}, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	t.Cleanup(func() { w.Close() })
	return svc
}

func eventually(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(20 * time.Millisecond)
	}
	return cond()
}

func TestDebounceCoalesces(t *testing.T) {
	d := newDebouncer(50 * time.Millisecond)
	var mu sync.Mutex
	count := 0

	for i := 0; i < 5; i++ {
		d.trigger(func() {
			mu.Lock()
			count++
			mu.Unlock()
		})
		time.Sleep(10 * time.Millisecond)
	}

	time.Sleep(200 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if count != 1 {
		t.Errorf("callback ran %d times, want 1", count)
	}
}

func TestDebounceCancel(t *testing.T) {
	d := newDebouncer(30 * time.Millisecond)
	var mu sync.Mutex
	count := 0

	d.trigger(func() {
		mu.Lock()
		count++
		mu.Unlock()
	})
	d.cancel()

	time.Sleep(100 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if count != 0 {
		t.Errorf("callback ran %d times after cancel", count)
	}
}

func TestWatcherReloadsDataset(t *testing.T) {
	dir := t.TempDir()
	writeDataset(t, dir, store.Meta{
		Name:   "start",
		RowIDs: []string{"r0", "r1"},
		ColIDs: []string{"c0", "c1", "c2"},
	}, []float64{1, 2, 3, 4, 5, 6})

	svc := newWatchedService(t, dir)

	// Atomic-replace shape: the metadata disappears briefly, then the new
	// dataset lands.
	if err := os.Remove(filepath.Join(dir, store.MetaFile)); err != nil {
		t.Fatalf("failed to remove meta: %v", err)
	}
	writeDataset(t, dir, store.Meta{
		Name:   "fresh",
		RowIDs: []string{"a", "b", "c"},
		ColIDs: []string{"x", "y"},
	}, []float64{6, 5, 4, 3, 2, 1})

	if !eventually(t, 5*time.Second, func() bool {
		md := svc.Metadata()
		return md.Name == "fresh" && md.NRows == 3 && md.NCols == 2
	}) {
		t.Fatalf("dataset never reloaded: %+v", svc.Metadata())
	}
	if svc.Metadata().Zoomed {
		t.Error("reload kept a zoom viewport")
	}
}

func TestWatcherKeepsServingOnBrokenRewrite(t *testing.T) {
	dir := t.TempDir()
	writeDataset(t, dir, store.Meta{
		Name:   "start",
		RowIDs: []string{"r0", "r1"},
		ColIDs: []string{"c0", "c1", "c2"},
	}, []float64{1, 2, 3, 4, 5, 6})

	svc := newWatchedService(t, dir)

	if err := os.WriteFile(filepath.Join(dir, store.MetaFile), []byte("{"), 0644); err != nil {
		t.Fatalf("failed to corrupt meta: %v", err)
	}

	time.Sleep(300 * time.Millisecond)
	md := svc.Metadata()
	if md.Name != "start" || md.NRows != 2 || md.NCols != 3 {
		t.Errorf("broken rewrite replaced the dataset: %+v", md)
	}
}
