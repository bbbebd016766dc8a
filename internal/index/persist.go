package index

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/rhodelta66/rag-tsql-agent/pkg/types"
)

// Companion artifacts written per snapshot directory. Both are required
// together; a load with only one present fails closed.
const (
	VectorsFile = "procedures.index"
	RecordsFile = "procedures.json"
)

// vectorsMagic marks the binary vector file layout: magic, uint32
// dimension, uint32 count, then count*dimension little-endian float32s.
var vectorsMagic = []byte("TSQLVEC1")

// Save persists the vectors and the record list as two companion files
// under directory. It returns false with a logged diagnostic on failure;
// persistence never panics or raises.
func (ix *Index) Save(directory string) bool {
	if len(ix.entries) == 0 {
		ix.log.Warn("no index to save")
		return false
	}

	if err := os.MkdirAll(directory, 0o755); err != nil {
		ix.log.Error("create index directory", "directory", directory, "error", err)
		return false
	}

	if err := os.WriteFile(filepath.Join(directory, VectorsFile), ix.encodeVectors(), 0o644); err != nil {
		ix.log.Error("write vector file", "directory", directory, "error", err)
		return false
	}

	records := make([]types.Procedure, len(ix.entries))
	for i := range ix.entries {
		records[i] = ix.entries[i].record
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		ix.log.Error("encode procedure records", "error", err)
		return false
	}
	if err := os.WriteFile(filepath.Join(directory, RecordsFile), data, 0o644); err != nil {
		ix.log.Error("write record file", "directory", directory, "error", err)
		return false
	}

	ix.log.Info("saved index", "directory", directory, "entries", len(ix.entries))
	return true
}

// Load restores both companion files from directory. It returns false with
// a logged diagnostic when either file is missing or malformed, or when the
// persisted dimension differs from the index's; any prior in-memory state is
// left untouched on failure.
func (ix *Index) Load(directory string) bool {
	vectorData, err := os.ReadFile(filepath.Join(directory, VectorsFile))
	if err != nil {
		ix.log.Warn("vector file not found", "directory", directory, "error", err)
		return false
	}
	recordData, err := os.ReadFile(filepath.Join(directory, RecordsFile))
	if err != nil {
		ix.log.Warn("record file not found", "directory", directory, "error", err)
		return false
	}

	dim, vectors, err := decodeVectors(vectorData)
	if err != nil {
		ix.log.Error("decode vector file", "directory", directory, "error", err)
		return false
	}
	if dim != ix.dim {
		ix.log.Error("persisted dimension does not match index",
			"persisted", dim, "index", ix.dim)
		return false
	}

	var records []types.Procedure
	if err := json.Unmarshal(recordData, &records); err != nil {
		ix.log.Error("decode record file", "directory", directory, "error", err)
		return false
	}
	if len(records) != len(vectors) {
		ix.log.Error("vector and record counts differ",
			"vectors", len(vectors), "records", len(records))
		return false
	}

	entries := make([]entry, len(records))
	for i := range records {
		entries[i] = entry{vector: vectors[i], record: records[i]}
	}
	ix.entries = entries

	ix.log.Info("loaded index", "directory", directory, "entries", len(ix.entries))
	return true
}

// encodeVectors serializes every stored vector into the binary layout.
func (ix *Index) encodeVectors() []byte {
	buf := make([]byte, 0, len(vectorsMagic)+8+len(ix.entries)*ix.dim*4)
	buf = append(buf, vectorsMagic...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(ix.dim))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(ix.entries)))
	for i := range ix.entries {
		for _, v := range ix.entries[i].vector {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
		}
	}
	return buf
}

// decodeVectors parses the binary layout back into per-entry vectors.
func decodeVectors(data []byte) (int, [][]float32, error) {
	header := len(vectorsMagic) + 8
	if len(data) < header {
		return 0, nil, fmt.Errorf("vector file too short: %d bytes", len(data))
	}
	for i, b := range vectorsMagic {
		if data[i] != b {
			return 0, nil, fmt.Errorf("bad vector file magic")
		}
	}

	dim := int(binary.LittleEndian.Uint32(data[len(vectorsMagic):]))
	count := int(binary.LittleEndian.Uint32(data[len(vectorsMagic)+4:]))
	if dim <= 0 {
		return 0, nil, fmt.Errorf("invalid dimension %d", dim)
	}

	payload := data[header:]
	if len(payload) != count*dim*4 {
		return 0, nil, fmt.Errorf("vector payload is %d bytes, want %d", len(payload), count*dim*4)
	}

	vectors := make([][]float32, count)
	for i := 0; i < count; i++ {
		vec := make([]float32, dim)
		for j := 0; j < dim; j++ {
			bits := binary.LittleEndian.Uint32(payload[(i*dim+j)*4:])
			vec[j] = math.Float32frombits(bits)
		}
		vectors[i] = vec
	}
	return dim, vectors, nil
}
