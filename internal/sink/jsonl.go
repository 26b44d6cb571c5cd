package sink

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/samdwyer/farmbalance/internal/state"
)

// JSONL writes one zstd-compressed JSON record per line.
type JSONL struct {
	mu  sync.Mutex
	f   *os.File
	enc *zstd.Encoder
	w   *bufio.Writer
}

// NewJSONL creates (or truncates) the file at path.
func NewJSONL(path string) (*JSONL, error) {
	if path == "" {
		return nil, fmt.Errorf("jsonl sink needs a path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create sink directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create sink file: %w", err)
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &JSONL{f: f, enc: enc, w: bufio.NewWriterSize(enc, 128*1024)}, nil
}

func (j *JSONL) Event(runID string, e state.Event) error {
	return j.write(Record{Run: runID, Kind: "event", Event: &e})
}

func (j *JSONL) Snapshot(runID string, snap state.Snapshot) error {
	return j.write(Record{Run: runID, Kind: "snapshot", Snapshot: &snap})
}

func (j *JSONL) write(r Record) error {
	b, err := json.Marshal(r)
	if err != nil {
		return err
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.w == nil {
		return fmt.Errorf("jsonl sink is closed")
	}
	if _, err := j.w.Write(b); err != nil {
		return err
	}
	return j.w.WriteByte('\n')
}

// Close flushes buffered records and finishes the zstd frame.
func (j *JSONL) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.w == nil {
		return nil
	}
	flushErr := j.w.Flush()
	encErr := j.enc.Close()
	fileErr := j.f.Close()
	j.w, j.enc, j.f = nil, nil, nil
	for _, err := range []error{flushErr, encErr, fileErr} {
		if err != nil {
			return err
		}
	}
	return nil
}

// ReadJSONL decodes every record of a file written by JSONL.
func ReadJSONL(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	var out []Record
	scanner := bufio.NewScanner(dec)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		var r Record
		if err := json.Unmarshal(scanner.Bytes(), &r); err != nil {
			return nil, fmt.Errorf("line %d: %w", len(out)+1, err)
		}
		out = append(out, r)
	}
	return out, scanner.Err()
}
