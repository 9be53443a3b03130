// Package trace records toolkit events as a size-delimited protobuf
// stream. The demos enable it with --record to capture input and frame
// timing for offline inspection. A stream starts with a 5-byte header
// (magic "WLTK" plus a version byte) followed by varint-length-prefixed
// records.
package trace

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"google.golang.org/protobuf/encoding/protowire"
)

const (
	traceMagic   = "WLTK"
	traceVersion = 1
)

// Kind tags one recorded event
type Kind uint32

// Recorded event kinds
const (
	KindPointerMotion Kind = 1
	KindPointerButton Kind = 2
	KindKey           Kind = 3
	KindRedraw        Kind = 4
	KindCommit        Kind = 5
	KindConfigure     Kind = 6
	KindFrameDone     Kind = 7
)

// Record field numbers
const (
	fieldKind   = 1
	fieldMicros = 2
	fieldA      = 3
	fieldB      = 4
	fieldLabel  = 5
)

// Record is one decoded trace entry
type Record struct {
	Kind   Kind
	Micros uint64
	A      int64
	B      int64
	Label  string
}

// Recorder appends records to a stream. Safe for concurrent use.
type Recorder struct {
	mu       sync.Mutex
	w        io.Writer
	c        io.Closer
	start    time.Time
	buf      []byte
	err      error
	prefaced bool
}

// NewRecorder wraps an existing writer
func NewRecorder(w io.Writer) *Recorder {
	return &Recorder{w: w, start: time.Now()}
}

// Create opens path for writing and returns a recorder over it
func Create(path string) (*Recorder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace file: %w", err)
	}
	r := NewRecorder(f)
	r.c = f
	return r, nil
}

// Record appends one event. After the first write error the recorder
// goes quiet and the error is reported by Close.
func (r *Recorder) Record(kind Kind, a, b int64, label string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return
	}

	if !r.prefaced {
		header := append([]byte(traceMagic), traceVersion)
		if _, err := r.w.Write(header); err != nil {
			r.err = fmt.Errorf("failed to write trace header: %w", err)
			return
		}
		r.prefaced = true
	}

	micros := uint64(time.Since(r.start).Microseconds())

	msg := r.buf[:0]
	msg = protowire.AppendTag(msg, fieldKind, protowire.VarintType)
	msg = protowire.AppendVarint(msg, uint64(kind))
	msg = protowire.AppendTag(msg, fieldMicros, protowire.VarintType)
	msg = protowire.AppendVarint(msg, micros)
	if a != 0 {
		msg = protowire.AppendTag(msg, fieldA, protowire.VarintType)
		msg = protowire.AppendVarint(msg, protowire.EncodeZigZag(a))
	}
	if b != 0 {
		msg = protowire.AppendTag(msg, fieldB, protowire.VarintType)
		msg = protowire.AppendVarint(msg, protowire.EncodeZigZag(b))
	}
	if label != "" {
		msg = protowire.AppendTag(msg, fieldLabel, protowire.BytesType)
		msg = protowire.AppendString(msg, label)
	}
	r.buf = msg

	frame := protowire.AppendVarint(nil, uint64(len(msg)))
	frame = append(frame, msg...)
	if _, err := r.w.Write(frame); err != nil {
		r.err = fmt.Errorf("failed to write trace record: %w", err)
	}
}

// Close flushes and closes the underlying file, if any
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.c != nil {
		if err := r.c.Close(); err != nil && r.err == nil {
			r.err = err
		}
		r.c = nil
	}
	return r.err
}

// Player replays a stream written by Recorder one record at a time.
type Player struct {
	r *bufio.Reader
}

// NewPlayer validates the stream header and returns a player
func NewPlayer(r io.Reader) (*Player, error) {
	br := bufio.NewReader(r)
	header := make([]byte, len(traceMagic)+1)
	if _, err := io.ReadFull(br, header); err != nil {
		return nil, fmt.Errorf("failed to read trace header: %w", err)
	}
	if string(header[:len(traceMagic)]) != traceMagic {
		return nil, fmt.Errorf("not a trace stream: bad magic %q", header[:len(traceMagic)])
	}
	if header[len(traceMagic)] != traceVersion {
		return nil, fmt.Errorf("unsupported trace version %d", header[len(traceMagic)])
	}
	return &Player{r: br}, nil
}

// Next returns the next record, or io.EOF at end of stream
func (p *Player) Next() (Record, error) {
	size, err := binary.ReadUvarint(p.r)
	if err != nil {
		if err == io.EOF {
			return Record{}, io.EOF
		}
		return Record{}, fmt.Errorf("bad trace frame header: %w", err)
	}

	frame := make([]byte, size)
	if _, err := io.ReadFull(p.r, frame); err != nil {
		return Record{}, fmt.Errorf("truncated trace frame: %w", err)
	}
	return decodeRecord(frame)
}

// ReadAll decodes every record from a stream written by Recorder.
// Unknown fields are skipped so newer streams stay readable.
func ReadAll(data []byte) ([]Record, error) {
	var records []Record

	if len(data) < len(traceMagic)+1 || string(data[:len(traceMagic)]) != traceMagic {
		return nil, fmt.Errorf("not a trace stream: missing %q magic", traceMagic)
	}
	if data[len(traceMagic)] != traceVersion {
		return nil, fmt.Errorf("unsupported trace version %d", data[len(traceMagic)])
	}
	data = data[len(traceMagic)+1:]

	for len(data) > 0 {
		size, n := protowire.ConsumeVarint(data)
		if n < 0 {
			return records, fmt.Errorf("bad trace frame header: %w", protowire.ParseError(n))
		}
		data = data[n:]
		if uint64(len(data)) < size {
			return records, fmt.Errorf("truncated trace frame: need %d bytes, have %d", size, len(data))
		}

		rec, err := decodeRecord(data[:size])
		if err != nil {
			return records, err
		}
		records = append(records, rec)
		data = data[size:]
	}
	return records, nil
}

// ReadFile decodes a trace file from disk
func ReadFile(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read trace file: %w", err)
	}
	return ReadAll(data)
}

func decodeRecord(msg []byte) (Record, error) {
	var rec Record

	for len(msg) > 0 {
		num, typ, n := protowire.ConsumeTag(msg)
		if n < 0 {
			return rec, fmt.Errorf("bad trace field tag: %w", protowire.ParseError(n))
		}
		msg = msg[n:]

		switch {
		case num == fieldKind && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(msg)
			if n < 0 {
				return rec, protowire.ParseError(n)
			}
			rec.Kind = Kind(v)
			msg = msg[n:]
		case num == fieldMicros && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(msg)
			if n < 0 {
				return rec, protowire.ParseError(n)
			}
			rec.Micros = v
			msg = msg[n:]
		case num == fieldA && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(msg)
			if n < 0 {
				return rec, protowire.ParseError(n)
			}
			rec.A = protowire.DecodeZigZag(v)
			msg = msg[n:]
		case num == fieldB && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(msg)
			if n < 0 {
				return rec, protowire.ParseError(n)
			}
			rec.B = protowire.DecodeZigZag(v)
			msg = msg[n:]
		case num == fieldLabel && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(msg)
			if n < 0 {
				return rec, protowire.ParseError(n)
			}
			rec.Label = v
			msg = msg[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, msg)
			if n < 0 {
				return rec, protowire.ParseError(n)
			}
			msg = msg[n:]
		}
	}
	return rec, nil
}
