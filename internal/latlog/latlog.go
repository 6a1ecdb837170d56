// Package latlog writes per-request latency logs.
//
// Each line holds the completion time in milliseconds since the log was
// opened, the latency in microseconds, the data direction, the block size and
// the file offset:
//
//	12, 87, 1, 4096, 1048576
//
// Logs can be compressed as a stream with zstd or lz4.
package latlog

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects the stream compression of a log.
type Compression uint8

const (
	// CompressionNone writes plain text.
	CompressionNone Compression = iota
	// CompressionLZ4 writes an lz4 frame (fast).
	CompressionLZ4
	// CompressionZSTD writes a zstd stream (better ratio).
	CompressionZSTD
)

// ErrUnknownCompression is returned for an unsupported compression name.
var ErrUnknownCompression = errors.New("latlog: unknown compression")

// ParseCompression parses "none", "lz4" or "zstd".
func ParseCompression(s string) (Compression, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZSTD, nil
	default:
		return CompressionNone, fmt.Errorf("%w: %q", ErrUnknownCompression, s)
	}
}

func (c Compression) String() string {
	switch c {
	case CompressionLZ4:
		return "lz4"
	case CompressionZSTD:
		return "zstd"
	default:
		return "none"
	}
}

// Ext returns the file name extension of the compression.
func (c Compression) Ext() string {
	switch c {
	case CompressionLZ4:
		return ".lz4"
	case CompressionZSTD:
		return ".zst"
	default:
		return ""
	}
}

// Entry is one logged request.
type Entry struct {
	// Time is the completion time relative to the start of the log.
	Time    time.Duration
	Latency time.Duration
	// Dir is the data direction: 0 read, 1 write, 2 sync, 3 datasync, 4 trim.
	Dir    int
	Size   int
	Offset int64
}

// Writer appends entries to a log. It is safe for concurrent use.
type Writer struct {
	mu    sync.Mutex
	start time.Time
	buf   *bufio.Writer
	enc   io.WriteCloser
	count int64
}

// NewWriter creates a log writing to w. Close flushes the log but does not
// close w.
func NewWriter(w io.Writer, c Compression) (*Writer, error) {
	var enc io.WriteCloser
	switch c {
	case CompressionNone:
	case CompressionLZ4:
		enc = lz4.NewWriter(w)
		w = enc
	case CompressionZSTD:
		zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedFastest))
		if err != nil {
			return nil, err
		}
		enc = zw
		w = zw
	default:
		return nil, ErrUnknownCompression
	}
	return &Writer{
		start: time.Now(),
		buf:   bufio.NewWriter(w),
		enc:   enc,
	}, nil
}

// Log appends an entry for a request that completed now.
func (w *Writer) Log(latency time.Duration, dir, size int, offset int64) error {
	return w.Write(Entry{
		Time:    time.Since(w.start),
		Latency: latency,
		Dir:     dir,
		Size:    size,
		Offset:  offset,
	})
}

// Write appends e.
func (w *Writer) Write(e Entry) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	_, err := fmt.Fprintf(w.buf, "%d, %d, %d, %d, %d\n",
		e.Time.Milliseconds(), e.Latency.Microseconds(), e.Dir, e.Size, e.Offset)
	if err != nil {
		return err
	}
	w.count++
	return nil
}

// Count returns the number of entries written.
func (w *Writer) Count() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.count
}

// Close flushes buffered entries and ends the compressed stream.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	err := w.buf.Flush()
	if w.enc != nil {
		err = errors.Join(err, w.enc.Close())
	}
	return err
}

// ReadAll decodes every entry of a log.
func ReadAll(r io.Reader, c Compression) ([]Entry, error) {
	switch c {
	case CompressionNone:
	case CompressionLZ4:
		r = lz4.NewReader(r)
	case CompressionZSTD:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		r = dec
	default:
		return nil, ErrUnknownCompression
	}

	var entries []Entry
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		e, err := parseLine(line)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func parseLine(line string) (Entry, error) {
	fields := strings.Split(line, ",")
	if len(fields) != 5 {
		return Entry{}, fmt.Errorf("latlog: malformed line %q", line)
	}
	var v [5]int64
	for i, f := range fields {
		n, err := strconv.ParseInt(strings.TrimSpace(f), 10, 64)
		if err != nil {
			return Entry{}, fmt.Errorf("latlog: malformed line %q: %w", line, err)
		}
		v[i] = n
	}
	return Entry{
		Time:    time.Duration(v[0]) * time.Millisecond,
		Latency: time.Duration(v[1]) * time.Microsecond,
		Dir:     int(v[2]),
		Size:    int(v[3]),
		Offset:  v[4],
	}, nil
}
