// Package store loads heatmap datasets from disk.
//
// A dataset directory holds meta.json (identifiers, grouping, annotation
// and dendrogram metadata) next to matrix.f64.zst, the dense value matrix
// stored row-major as little-endian float64 and zstd-compressed.
package store

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"github.com/rfroumine/dream-heatmap/internal/idmap"
	"github.com/rfroumine/dream-heatmap/internal/matrix"
)

// File names inside a dataset directory.
const (
	MetaFile   = "meta.json"
	MatrixFile = "matrix.f64.zst"
)

// Scale values accepted in meta.json. "row" and "column" z-score along
// that band at render time; empty and "none" leave values untouched.
const (
	ScaleNone   = "none"
	ScaleRow    = "row"
	ScaleColumn = "column"
)

// ErrNotFound reports a directory that does not contain a dataset.
var ErrNotFound = errors.New("dataset not found")

// Group names a contiguous block of identifiers for an axis split.
type Group struct {
	Name string   `json:"name"`
	IDs  []string `json:"ids"`
}

// AnnotationTrack carries one categorical label per identifier,
// e.g. tissue or condition for each column.
type AnnotationTrack struct {
	Name   string            `json:"name"`
	Values map[string]string `json:"values"`
}

// InOrder resolves the track to one value per visual index.
// Identifiers without a value get the empty string.
func (t AnnotationTrack) InOrder(order []string) []string {
	out := make([]string, len(order))
	for i, id := range order {
		out[i] = t.Values[id]
	}
	return out
}

// DendrogramNode is one merge of a precomputed clustering tree. Left and
// Right index earlier nodes in the same list (or -1 for leaves); MemberIDs
// lists every leaf identifier under the node.
type DendrogramNode struct {
	Left        int      `json:"left"`
	Right       int      `json:"right"`
	Height      float64  `json:"height"`
	LeftHeight  float64  `json:"left_height"`
	RightHeight float64  `json:"right_height"`
	MemberIDs   []string `json:"member_ids"`
}

// Meta mirrors meta.json.
type Meta struct {
	Name   string   `json:"name"`
	Shape  [2]int   `json:"shape"`
	RowIDs []string `json:"row_ids"`
	ColIDs []string `json:"col_ids"`

	RowGroups []Group `json:"row_groups,omitempty"`
	ColGroups []Group `json:"col_groups,omitempty"`

	Scale    string   `json:"scale,omitempty"`
	VMin     *float64 `json:"vmin,omitempty"`
	VMax     *float64 `json:"vmax,omitempty"`
	Colormap string   `json:"colormap,omitempty"`

	RowAnnotations []AnnotationTrack `json:"row_annotations,omitempty"`
	ColAnnotations []AnnotationTrack `json:"col_annotations,omitempty"`

	RowDendrogram []DendrogramNode `json:"row_dendrogram,omitempty"`
	ColDendrogram []DendrogramNode `json:"col_dendrogram,omitempty"`
}

func (m *Meta) validate() error {
	if len(m.RowIDs) == 0 {
		return fmt.Errorf("no row identifiers")
	}
	if len(m.ColIDs) == 0 {
		return fmt.Errorf("no column identifiers")
	}
	if m.Shape == [2]int{} {
		m.Shape = [2]int{len(m.RowIDs), len(m.ColIDs)}
	} else if m.Shape[0] != len(m.RowIDs) || m.Shape[1] != len(m.ColIDs) {
		return fmt.Errorf("shape %v does not match %d row and %d column identifiers",
			m.Shape, len(m.RowIDs), len(m.ColIDs))
	}
	switch m.Scale {
	case "", ScaleNone, ScaleRow, ScaleColumn:
	default:
		return fmt.Errorf("unknown scale %q", m.Scale)
	}
	return nil
}

// Dataset is a fully loaded heatmap dataset.
type Dataset struct {
	Name string
	Dir  string

	Matrix *matrix.Matrix
	RowMap *idmap.Mapping
	ColMap *idmap.Mapping

	RowAnnotations []AnnotationTrack
	ColAnnotations []AnnotationTrack
	RowDendrogram  []DendrogramNode
	ColDendrogram  []DendrogramNode

	Scale    string
	VMin     *float64
	VMax     *float64
	Colormap string
}

// Open reads a dataset directory. A missing meta.json reports ErrNotFound
// so callers can tell an absent dataset from a broken one.
func Open(dir string) (*Dataset, error) {
	metaRaw, err := os.ReadFile(filepath.Join(dir, MetaFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", dir, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read %s: %w", MetaFile, err)
	}

	var meta Meta
	if err := json.Unmarshal(metaRaw, &meta); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", MetaFile, err)
	}
	if err := meta.validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", MetaFile, err)
	}
	if meta.Name == "" {
		meta.Name = filepath.Base(dir)
	}

	compressed, err := os.ReadFile(filepath.Join(dir, MatrixFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", MatrixFile, err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	defer decoder.Close()
	raw, err := decoder.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress %s: %w", MatrixFile, err)
	}

	values, err := decodeFloat64s(raw, meta.Shape[0]*meta.Shape[1])
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", MatrixFile, err)
	}
	mat, err := matrix.New(values, meta.RowIDs, meta.ColIDs)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", MatrixFile, err)
	}

	rowMap, err := buildMapping(meta.RowIDs, meta.RowGroups)
	if err != nil {
		return nil, fmt.Errorf("invalid row grouping: %w", err)
	}
	colMap, err := buildMapping(meta.ColIDs, meta.ColGroups)
	if err != nil {
		return nil, fmt.Errorf("invalid column grouping: %w", err)
	}

	return &Dataset{
		Name:           meta.Name,
		Dir:            dir,
		Matrix:         mat,
		RowMap:         rowMap,
		ColMap:         colMap,
		RowAnnotations: meta.RowAnnotations,
		ColAnnotations: meta.ColAnnotations,
		RowDendrogram:  meta.RowDendrogram,
		ColDendrogram:  meta.ColDendrogram,
		Scale:          meta.Scale,
		VMin:           meta.VMin,
		VMax:           meta.VMax,
		Colormap:       meta.Colormap,
	}, nil
}

func buildMapping(ids []string, groups []Group) (*idmap.Mapping, error) {
	m, err := idmap.New(ids)
	if err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		return m, nil
	}
	split := make([]idmap.Group, len(groups))
	for i, g := range groups {
		split[i] = idmap.Group{Name: g.Name, IDs: g.IDs}
	}
	return m.Split(split)
}

func decodeFloat64s(raw []byte, n int) ([]float64, error) {
	if len(raw) != n*8 {
		return nil, fmt.Errorf("payload is %d bytes, want %d", len(raw), n*8)
	}
	values := make([]float64, n)
	for i := range values {
		values[i] = math.Float64frombits(binary.LittleEndian.Uint64(raw[i*8:]))
	}
	return values, nil
}
