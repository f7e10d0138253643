package store

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
)

func writeDataset(t *testing.T, dir string, meta Meta, values []float64) {
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
	if err := os.WriteFile(filepath.Join(dir, MetaFile), metaRaw, 0644); err != nil {
		t.Fatalf("failed to write %s: %v", MetaFile, err)
	}
	if err := os.WriteFile(filepath.Join(dir, MatrixFile), compressed, 0644); err != nil {
		t.Fatalf("failed to write %s: %v", MatrixFile, err)
	}
}

func TestOpenRoundTrip(t *testing.T) {
	dir := t.TempDir()
	vmax := 9.5
	meta := Meta{
		Name:   "bone_marrow",
		RowIDs: []string{"g1", "g2"},
		ColIDs: []string{"s1", "s2", "s3"},
		ColGroups: []Group{
			{Name: "tumor", IDs: []string{"s1", "s2"}},
			{Name: "normal", IDs: []string{"s3"}},
		},
		Scale:    ScaleRow,
		VMax:     &vmax,
		Colormap: "rdbu",
		ColAnnotations: []AnnotationTrack{
			{Name: "tissue", Values: map[string]string{"s1": "marrow", "s2": "marrow", "s3": "blood"}},
		},
		RowDendrogram: []DendrogramNode{
			{Left: -1, Right: -1, Height: 1.5, MemberIDs: []string{"g1", "g2"}},
		},
	}
	writeDataset(t, dir, meta, []float64{1, 2, 3, 4, math.NaN(), 6})

	ds, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}

	if ds.Name != "bone_marrow" {
		t.Errorf("Name = %q, want bone_marrow", ds.Name)
	}
	if ds.Dir != dir {
		t.Errorf("Dir = %q, want %q", ds.Dir, dir)
	}
	if ds.Matrix.NRows() != 2 || ds.Matrix.NCols() != 3 {
		t.Fatalf("matrix shape = %dx%d, want 2x3", ds.Matrix.NRows(), ds.Matrix.NCols())
	}
	if got := ds.Matrix.At(0, 2); got != 3 {
		t.Errorf("At(0,2) = %v, want 3", got)
	}
	if got := ds.Matrix.At(1, 1); !math.IsNaN(got) {
		t.Errorf("At(1,1) = %v, want NaN", got)
	}

	// Column groups come back as a split mapping with a gap between them.
	if got := ds.ColMap.Order(); len(got) != 3 || got[0] != "s1" || got[2] != "s3" {
		t.Errorf("ColMap.Order() = %v", got)
	}
	if gaps := ds.ColMap.Gaps(); len(gaps) != 1 || gaps[0] != 2 {
		t.Errorf("ColMap.Gaps() = %v, want [2]", gaps)
	}
	if gaps := ds.RowMap.Gaps(); len(gaps) != 0 {
		t.Errorf("RowMap.Gaps() = %v, want none", gaps)
	}

	if ds.Scale != ScaleRow {
		t.Errorf("Scale = %q, want %q", ds.Scale, ScaleRow)
	}
	if ds.VMin != nil {
		t.Errorf("VMin = %v, want nil", *ds.VMin)
	}
	if ds.VMax == nil || *ds.VMax != 9.5 {
		t.Errorf("VMax = %v, want 9.5", ds.VMax)
	}
	if len(ds.ColAnnotations) != 1 || ds.ColAnnotations[0].Name != "tissue" {
		t.Fatalf("ColAnnotations = %+v", ds.ColAnnotations)
	}
	if len(ds.RowDendrogram) != 1 || len(ds.RowDendrogram[0].MemberIDs) != 2 {
		t.Fatalf("RowDendrogram = %+v", ds.RowDendrogram)
	}
}

func TestOpenDefaultsNameToDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "pbmc3k")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("failed to create dataset dir: %v", err)
	}
	writeDataset(t, dir, Meta{
		RowIDs: []string{"g1"},
		ColIDs: []string{"s1"},
	}, []float64{42})

	ds, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	if ds.Name != "pbmc3k" {
		t.Errorf("Name = %q, want pbmc3k", ds.Name)
	}
}

func TestOpenMissingDataset(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope"))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Open() error = %v, want ErrNotFound", err)
	}
}

func TestOpenRejectsBrokenDatasets(t *testing.T) {
	base := Meta{
		RowIDs: []string{"g1", "g2"},
		ColIDs: []string{"s1", "s2"},
	}

	tests := []struct {
		name   string
		mutate func(*Meta)
		values []float64
	}{
		{
			name:   "shapeMismatch",
			mutate: func(m *Meta) { m.Shape = [2]int{3, 2} },
			values: []float64{1, 2, 3, 4},
		},
		{
			name:   "payloadTooShort",
			mutate: func(m *Meta) {},
			values: []float64{1, 2, 3},
		},
		{
			name:   "unknownScale",
			mutate: func(m *Meta) { m.Scale = "log" },
			values: []float64{1, 2, 3, 4},
		},
		{
			name: "groupMissesIdentifier",
			mutate: func(m *Meta) {
				m.ColGroups = []Group{{Name: "only", IDs: []string{"s1"}}}
			},
			values: []float64{1, 2, 3, 4},
		},
		{
			name:   "noRows",
			mutate: func(m *Meta) { m.RowIDs = nil },
			values: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			meta := base
			tt.mutate(&meta)
			writeDataset(t, dir, meta, tt.values)
			if _, err := Open(dir); err == nil {
				t.Fatal("Open() succeeded, want error")
			}
		})
	}
}

func TestOpenRejectsCorruptPayload(t *testing.T) {
	dir := t.TempDir()
	writeDataset(t, dir, Meta{
		RowIDs: []string{"g1"},
		ColIDs: []string{"s1"},
	}, []float64{1})

	if err := os.WriteFile(filepath.Join(dir, MatrixFile), []byte("not zstd"), 0644); err != nil {
		t.Fatalf("failed to overwrite payload: %v", err)
	}
	if _, err := Open(dir); err == nil {
		t.Fatal("Open() succeeded on corrupt payload, want error")
	}
}

func TestAnnotationTrackInOrder(t *testing.T) {
	track := AnnotationTrack{
		Name:   "tissue",
		Values: map[string]string{"a": "marrow", "c": "blood"},
	}
	got := track.InOrder([]string{"c", "b", "a"})
	want := []string{"blood", "", "marrow"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("InOrder() = %v, want %v", got, want)
		}
	}
}
