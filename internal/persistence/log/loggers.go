package log

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"voxelminer.ai/internal/protocol"
)

// JSONLZstdWriter appends JSON lines to hourly zstd files under baseDir.
type JSONLZstdWriter struct {
	baseDir string
	prefix  string
	now     func() time.Time

	mu      sync.Mutex
	curHour string
	f       *os.File
	enc     *zstd.Encoder
	w       *bufio.Writer
}

func NewJSONLZstdWriter(baseDir, prefix string) *JSONLZstdWriter {
	return &JSONLZstdWriter{
		baseDir: baseDir,
		prefix:  prefix,
		now:     time.Now,
	}
}

func (w *JSONLZstdWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

func (w *JSONLZstdWriter) Write(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	hour := w.now().UTC().Format("2006-01-02-15")
	if hour != w.curHour {
		if err := w.rotateLocked(hour); err != nil {
			return err
		}
	}

	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	return w.w.Flush()
}

// Path returns the file currently written to, or "" before the first write.
func (w *JSONLZstdWriter) Path() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.curHour == "" {
		return ""
	}
	return w.pathForHour(w.curHour)
}

func (w *JSONLZstdWriter) rotateLocked(hour string) error {
	if err := w.closeLocked(); err != nil {
		return err
	}
	dir := filepath.Dir(w.pathForHour(hour))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(w.pathForHour(hour), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	w.f = f
	w.enc = enc
	w.w = bufio.NewWriterSize(enc, 128*1024)
	w.curHour = hour
	return nil
}

func (w *JSONLZstdWriter) closeLocked() error {
	var err1 error
	if w.w != nil {
		_ = w.w.Flush()
	}
	if w.enc != nil {
		err1 = w.enc.Close()
		w.enc = nil
	}
	if w.f != nil {
		_ = w.f.Close()
		w.f = nil
	}
	w.w = nil
	return err1
}

func (w *JSONLZstdWriter) pathForHour(hour string) string {
	return filepath.Join(w.baseDir, fmt.Sprintf("%s-%s.jsonl.zst", w.prefix, hour))
}

// TraceLogger writes one JSONL entry per trace event (compressed).
type TraceLogger struct{ w *JSONLZstdWriter }

func NewTraceLogger(sessionDir string) *TraceLogger {
	return &TraceLogger{w: NewJSONLZstdWriter(filepath.Join(sessionDir, "trace"), "trace")}
}

func (l *TraceLogger) WriteEvent(ev protocol.TraceEvent) error { return l.w.Write(ev) }
func (l *TraceLogger) Path() string                            { return l.w.Path() }
func (l *TraceLogger) Close() error                            { return l.w.Close() }

// ReadTrace decodes every event of a trace file. Each Close of the writer ends a
// zstd frame; the decoder reads concatenated frames transparently.
func ReadTrace(path string) ([]protocol.TraceEvent, error) {
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

	var out []protocol.TraceEvent
	jd := json.NewDecoder(dec)
	for {
		var ev protocol.TraceEvent
		if err := jd.Decode(&ev); err != nil {
			if err == io.EOF {
				return out, nil
			}
			return out, fmt.Errorf("%s: %w", path, err)
		}
		out = append(out, ev)
	}
}
