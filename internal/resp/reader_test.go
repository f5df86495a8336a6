package resp_test

import (
	"bytes"
	"errors"
	"io"
	"runtime"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/eternalApril/kilodb/internal/resp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInt(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr error
	}{
		{"Valid positive", ":1000\r\n", 1000, nil},
		{"Valid positive with +", ":+1230\r\n", 1230, nil},
		{"Valid negative", ":-15\r\n", -15, nil},
		{"Valid zero", ":0\r\n", 0, nil},
		{"Invalid ending", ":1000\n", 0, resp.ErrInvalidEnding},
		{"Not a number", ":abc\r\n", 0, resp.ErrProtocol},
		{"Incomplete", ":10", 0, resp.ErrIncomplete},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			val, n, err := resp.Parse([]byte(tt.input))

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, len(tt.input), n)
			assert.Equal(t, byte(resp.TypeInteger), val.Type)
			assert.Equal(t, tt.want, val.Integer)
		})
	}
}

func TestParseCommand(t *testing.T) {
	frame := "*3\r\n$3\r\nSET\r\n$3\r\nkey\r\n$5\r\nvalue\r\n"

	args, n, err := resp.ParseCommand([]byte(frame + "*1\r\n"))
	require.NoError(t, err)
	assert.Equal(t, len(frame), n, "only the first frame is consumed")
	assert.Equal(t, []string{"SET", "key", "value"}, toStrings(args))
}

func TestParseCommand_EveryPrefixIsIncomplete(t *testing.T) {
	frame := []byte("*2\r\n$4\r\nECHO\r\n$6\r\nhi\r\nyo\r\n")

	for i := 0; i < len(frame); i++ {
		_, n, err := resp.ParseCommand(frame[:i])
		require.ErrorIsf(t, err, resp.ErrIncomplete, "prefix of length %d", i)
		require.Zero(t, n)
	}

	args, n, err := resp.ParseCommand(frame)
	require.NoError(t, err)
	assert.Equal(t, len(frame), n)
	assert.Equal(t, []string{"ECHO", "hi\r\nyo"}, toStrings(args))
}

func TestParseCommand_BinarySafe(t *testing.T) {
	payload := []byte{0x00, '\r', '\n', 0xff, '$', '*', '\n'}
	frame, err := resp.SerializeCommand("SET", "bin", string(payload))
	require.NoError(t, err)

	args, _, err := resp.ParseCommand(frame)
	require.NoError(t, err)
	require.Len(t, args, 3)
	assert.Equal(t, payload, args[2])
}

func TestParseCommand_DoesNotAliasInput(t *testing.T) {
	frame := []byte("*1\r\n$4\r\nPING\r\n")
	args, _, err := resp.ParseCommand(frame)
	require.NoError(t, err)

	copy(frame, bytes.Repeat([]byte{'x'}, len(frame)))
	assert.Equal(t, "PING", string(args[0]))
}

func TestParseCommand_Empty(t *testing.T) {
	args, n, err := resp.ParseCommand([]byte("*0\r\n"))
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Empty(t, args)
}

func TestParseCommand_ProtocolErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"wrong leading marker", "+PING\r\n", resp.ErrProtocol},
		{"inline command", "PING\r\n", resp.ErrProtocol},
		{"negative array length", "*-1\r\n", resp.ErrProtocol},
		{"non-numeric array length", "*x\r\n", resp.ErrProtocol},
		{"element is not bulk", "*1\r\n:1\r\n", resp.ErrProtocol},
		{"negative bulk length", "*1\r\n$-1\r\n", resp.ErrProtocol},
		{"non-numeric bulk length", "*1\r\n$abc\r\n", resp.ErrProtocol},
		{"bulk longer than declared", "*1\r\n$2\r\nabc\r\n", resp.ErrProtocol},
		{"header without CR", "*1\n$1\r\na\r\n", resp.ErrInvalidEnding},
		{"header too long", "*" + strings.Repeat("1", 64), resp.ErrLimitExceeded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := resp.ParseCommand([]byte(tt.input))
			assert.ErrorIs(t, err, tt.wantErr)
			assert.False(t, errors.Is(err, resp.ErrIncomplete))
		})
	}
}

func TestParseCommand_Limits(t *testing.T) {
	limits := resp.Limits{MaxArrayLen: 2, MaxBulkLen: 4}

	_, _, err := limits.ParseCommand([]byte("*3\r\n"))
	assert.ErrorIs(t, err, resp.ErrLimitExceeded)

	_, _, err = limits.ParseCommand([]byte("*1\r\n$5\r\n"))
	assert.ErrorIs(t, err, resp.ErrLimitExceeded)

	args, _, err := limits.ParseCommand([]byte("*1\r\n$4\r\nPING\r\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"PING"}, toStrings(args))
}

func TestParseCommand_LargeHeaderIncompleteIsCheap(t *testing.T) {
	frame := []byte("*1048576\r\n$1\r\na\r\n")

	const runs = 20
	var before, after runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&before)
	for i := 0; i < runs; i++ {
		_, _, err := resp.ParseCommand(frame)
		require.ErrorIs(t, err, resp.ErrIncomplete)
	}
	runtime.ReadMemStats(&after)

	perRun := (after.TotalAlloc - before.TotalAlloc) / runs
	assert.Less(t, perRun, uint64(64*1024), "allocation must not follow the declared array length")
}

func TestParse_Replies(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  resp.Value
	}{
		{"status", "+OK\r\n", resp.MakeSimpleString("OK")},
		{"error", "-ERR boom\r\n", resp.MakeError("ERR boom")},
		{"bulk", "$3\r\nabc\r\n", resp.MakeBulkString("abc")},
		{"null bulk", "$-1\r\n", resp.MakeNilBulkString()},
		{"null array", "*-1\r\n", resp.Value{Type: resp.TypeArray, IsNull: true}},
		{"empty array", "*0\r\n", resp.MakeEmptyArray()},
		{
			"nested",
			"*2\r\n:1\r\n*1\r\n$1\r\nx\r\n",
			resp.MakeArray([]resp.Value{resp.MakeInteger(1), resp.MakeBulkArray([]string{"x"})}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, n, err := resp.Parse([]byte(tt.input))
			require.NoError(t, err)
			assert.Equal(t, len(tt.input), n)
			assert.Equal(t, tt.want, got)

			// encoding the parsed value reproduces the input
			out, err := resp.Marshal(got)
			require.NoError(t, err)
			assert.Equal(t, tt.input, string(out))
		})
	}
}

func TestParse_UnknownType(t *testing.T) {
	_, _, err := resp.Parse([]byte("?what\r\n"))
	assert.ErrorIs(t, err, resp.ErrUnknownType)
	assert.ErrorIs(t, err, resp.ErrProtocol)
}

func TestDecoder_ReadCommandPipelined(t *testing.T) {
	var stream bytes.Buffer
	for _, cmd := range [][]string{{"PING"}, {"SET", "k", strings.Repeat("v", 10000)}, {"GET", "k"}} {
		frame, err := resp.SerializeCommand(cmd...)
		require.NoError(t, err)
		stream.Write(frame)
	}

	// one byte per Read exercises every incomplete state
	dec := resp.NewDecoder(iotest.OneByteReader(&stream))

	args, err := dec.ReadCommand()
	require.NoError(t, err)
	assert.Equal(t, []string{"PING"}, toStrings(args))

	args, err = dec.ReadCommand()
	require.NoError(t, err)
	require.Len(t, args, 3)
	assert.Len(t, args[2], 10000)

	args, err = dec.ReadCommand()
	require.NoError(t, err)
	assert.Equal(t, []string{"GET", "k"}, toStrings(args))

	_, err = dec.ReadCommand()
	assert.ErrorIs(t, err, io.EOF)
}

func TestDecoder_Buffered(t *testing.T) {
	dec := resp.NewDecoder(strings.NewReader("*1\r\n$4\r\nPING\r\n*1\r\n$4\r\nPING\r\n"))

	_, err := dec.ReadCommand()
	require.NoError(t, err)
	assert.Equal(t, 14, dec.Buffered())

	_, err = dec.ReadCommand()
	require.NoError(t, err)
	assert.Zero(t, dec.Buffered())
}

func TestDecoder_OnFillRunsBeforeEachRead(t *testing.T) {
	// one byte per Read, so the frame arrives in pieces
	dec := resp.NewDecoder(iotest.OneByteReader(strings.NewReader("*1\r\n$4\r\nPING\r\n")))

	fills := 0
	dec.OnFill(func() error {
		fills++
		return nil
	})

	_, err := dec.ReadCommand()
	require.NoError(t, err)
	assert.Equal(t, 14, fills, "one call per byte pulled from the stream")

	// a failing hook aborts the read
	hookErr := errors.New("flush failed")
	dec = resp.NewDecoder(strings.NewReader("*1\r\n$4\r\nPING\r\n"))
	dec.OnFill(func() error { return hookErr })
	_, err = dec.ReadCommand()
	assert.ErrorIs(t, err, hookErr)
}

func TestDecoder_OnFillSkippedForBufferedFrames(t *testing.T) {
	dec := resp.NewDecoder(strings.NewReader("*1\r\n$4\r\nPING\r\n*1\r\n$4\r\nPING\r\n"))

	fills := 0
	dec.OnFill(func() error {
		fills++
		return nil
	})

	_, err := dec.ReadCommand()
	require.NoError(t, err)
	_, err = dec.ReadCommand()
	require.NoError(t, err)
	assert.Equal(t, 1, fills, "the second frame was already buffered")
}

func TestDecoder_TruncatedStream(t *testing.T) {
	dec := resp.NewDecoder(strings.NewReader("*2\r\n$3\r\nGET\r\n$3\r\nke"))

	_, err := dec.ReadCommand()
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestDecoder_ReadValues(t *testing.T) {
	dec := resp.NewDecoder(strings.NewReader("+PONG\r\n:3\r\n$-1\r\n"))

	v, err := dec.Read()
	require.NoError(t, err)
	assert.Equal(t, "PONG", v.Text())

	v, err = dec.Read()
	require.NoError(t, err)
	assert.Equal(t, int64(3), v.Integer)

	v, err = dec.Read()
	require.NoError(t, err)
	assert.True(t, v.IsNull)
}

func FuzzParseCommand(f *testing.F) {
	f.Add([]byte("*1\r\n$4\r\nPING\r\n"))
	f.Add([]byte("*2\r\n$3\r\nGET\r\n$1\r\n\x00\r\n"))
	f.Add([]byte("*-5\r\n"))

	f.Fuzz(func(t *testing.T, data []byte) {
		args, n, err := resp.ParseCommand(data)
		if err != nil {
			return
		}
		if n > len(data) {
			t.Fatalf("consumed %d bytes of %d", n, len(data))
		}

		// a decoded frame must re-encode to a frame that decodes to the same arguments
		strs := toStrings(args)
		frame, err := resp.SerializeCommand(strs...)
		if err != nil {
			t.Fatal(err)
		}
		again, _, err := resp.ParseCommand(frame)
		if err != nil {
			t.Fatal(err)
		}
		if len(again) != len(args) {
			t.Fatalf("got %d args, want %d", len(again), len(args))
		}
	})
}

func toStrings(args [][]byte) []string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = string(a)
	}
	return out
}
