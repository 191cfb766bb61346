package pipeline

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/xkilldash9x/ui-differ/api/schemas"
)

// dumpExt is the file extension of stage snapshots.
const dumpExt = ".msgpack"

// Dumper writes every stage output of a run to disk so two stages can be
// compared offline. Snapshots land in <dir>/<runID>/<chain>-<NN>-<stage>.msgpack.
type Dumper struct {
	dir string
}

// NewDumper returns a dumper rooted at dir, or nil when dir is empty.
func NewDumper(dir string) *Dumper {
	if dir == "" {
		return nil
	}
	return &Dumper{dir: dir}
}

// Dump writes m as a msgpack array of nodes in map order. A nil Dumper is a no-op.
func (d *Dumper) Dump(runID, chain string, index int, stage string, m *schemas.NodeMap) (string, error) {
	if d == nil {
		return "", nil
	}
	runDir := filepath.Join(d.dir, runID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", fmt.Errorf("creating dump directory: %w", err)
	}
	path := filepath.Join(runDir, fmt.Sprintf("%s-%02d-%s%s", chain, index, stage, dumpExt))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating dump file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := msgpack.NewEncoder(w)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(m.Nodes()); err != nil {
		return "", fmt.Errorf("encoding %s snapshot: %w", stage, err)
	}
	if err := w.Flush(); err != nil {
		return "", fmt.Errorf("writing %s snapshot: %w", stage, err)
	}
	return path, nil
}

// LoadDump reads a snapshot written by Dump.
func LoadDump(path string) (*schemas.NodeMap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening dump: %w", err)
	}
	defer f.Close()

	dec := msgpack.NewDecoder(bufio.NewReader(f))
	dec.SetCustomStructTag("json")
	var nodes []*schemas.NodeInfo
	if err := dec.Decode(&nodes); err != nil {
		return nil, fmt.Errorf("decoding dump %s: %w", path, err)
	}
	return schemas.NewNodeMapFrom(nodes), nil
}
