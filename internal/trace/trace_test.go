package trace

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
)

func TestRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	r := NewRecorder(&buf)

	r.Record(KindPointerMotion, 120, -45, "")
	r.Record(KindPointerButton, 0x110, 1, "")
	r.Record(KindRedraw, 0, 0, "resizor")
	require.NoError(t, r.Close())

	records, err := ReadAll(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, KindPointerMotion, records[0].Kind)
	assert.EqualValues(t, 120, records[0].A)
	assert.EqualValues(t, -45, records[0].B)

	assert.Equal(t, KindPointerButton, records[1].Kind)
	assert.EqualValues(t, 0x110, records[1].A)

	assert.Equal(t, KindRedraw, records[2].Kind)
	assert.Equal(t, "resizor", records[2].Label)

	// Timestamps are monotonic across records
	assert.LessOrEqual(t, records[0].Micros, records[1].Micros)
	assert.LessOrEqual(t, records[1].Micros, records[2].Micros)
}

func TestPlayerReplay(t *testing.T) {
	var buf bytes.Buffer
	r := NewRecorder(&buf)
	r.Record(KindConfigure, 500, 400, "")
	r.Record(KindFrameDone, 0, 0, "")
	require.NoError(t, r.Close())

	p, err := NewPlayer(&buf)
	require.NoError(t, err)

	first, err := p.Next()
	require.NoError(t, err)
	assert.Equal(t, KindConfigure, first.Kind)
	assert.EqualValues(t, 500, first.A)
	assert.EqualValues(t, 400, first.B)

	second, err := p.Next()
	require.NoError(t, err)
	assert.Equal(t, KindFrameDone, second.Kind)

	_, err = p.Next()
	assert.Equal(t, io.EOF, err)
}

func TestRejectsForeignStream(t *testing.T) {
	_, err := ReadAll([]byte("PNG\x00\x01 not ours"))
	assert.Error(t, err)

	_, err = NewPlayer(bytes.NewReader([]byte("nope")))
	assert.Error(t, err)
}

func TestTruncatedStream(t *testing.T) {
	var buf bytes.Buffer
	r := NewRecorder(&buf)
	r.Record(KindKey, 30, 1, "")
	r.Record(KindKey, 30, 0, "")
	require.NoError(t, r.Close())

	data := buf.Bytes()
	records, err := ReadAll(data[:len(data)-2])
	assert.Error(t, err)
	assert.Len(t, records, 1, "intact leading records should still decode")
}

func TestUnknownFieldsSkipped(t *testing.T) {
	msg := protowire.AppendTag(nil, fieldKind, protowire.VarintType)
	msg = protowire.AppendVarint(msg, uint64(KindCommit))
	// A field number this decoder has never heard of
	msg = protowire.AppendTag(msg, 99, protowire.BytesType)
	msg = protowire.AppendString(msg, "future data")

	stream := append([]byte(traceMagic), traceVersion)
	stream = protowire.AppendVarint(stream, uint64(len(msg)))
	stream = append(stream, msg...)

	records, err := ReadAll(stream)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, KindCommit, records[0].Kind)
}

type failWriter struct{}

func (failWriter) Write(p []byte) (int, error) {
	return 0, assert.AnError
}

func TestWriteErrorGoesQuiet(t *testing.T) {
	r := NewRecorder(failWriter{})
	r.Record(KindRedraw, 0, 0, "")
	r.Record(KindRedraw, 0, 0, "")
	assert.Error(t, r.Close())
}
