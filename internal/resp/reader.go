package resp

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
)

var (
	ErrInvalidEnding = errors.New("invalid line ending")
	ErrIncomplete    = errors.New("resp: incomplete frame")
	ErrProtocol      = errors.New("resp: protocol error")
	ErrLimitExceeded = errors.New("resp: limit exceeded")
	ErrUnknownType   = errors.New("resp: unknown value type")
)

// Protocol limits
const (
	// MaxArrayLen limits the number of elements in a single array frame
	MaxArrayLen = 1024 * 1024

	// DefaultMaxBulkLen limits the size of a single bulk string (512MB)
	DefaultMaxBulkLen = 512 * 1024 * 1024

	// maxHeaderLen bounds "*<n>" and "$<n>" lines
	maxHeaderLen = 32

	// maxInlineLen bounds simple string, error and integer lines
	maxInlineLen = 64 * 1024

	readChunk = 4096

	// initialArgs caps the capacity reserved from a declared array length,
	// the slice grows as elements actually arrive
	initialArgs = 16
)

// Limits bounds the frames a parser accepts
type Limits struct {
	MaxArrayLen int
	MaxBulkLen  int
}

// DefaultLimits are used by ParseCommand, Parse and NewDecoder
var DefaultLimits = Limits{
	MaxArrayLen: MaxArrayLen,
	MaxBulkLen:  DefaultMaxBulkLen,
}

// ParseCommand decodes one request frame (an array of bulk strings) from the beginning of buf.
// It returns the arguments and the number of bytes consumed.
// If buf holds only a prefix of a frame, the error is ErrIncomplete and nothing is consumed.
// The returned arguments never alias buf
func ParseCommand(buf []byte) ([][]byte, int, error) {
	return DefaultLimits.ParseCommand(buf)
}

// Parse decodes one value of any RESP2 type from the beginning of buf
func Parse(buf []byte) (Value, int, error) {
	return DefaultLimits.Parse(buf)
}

// ParseCommand is ParseCommand with custom limits
func (l Limits) ParseCommand(buf []byte) ([][]byte, int, error) {
	if len(buf) == 0 {
		return nil, 0, ErrIncomplete
	}
	if buf[0] != TypeArray {
		return nil, 0, fmt.Errorf("%w: expected '*', got %q", ErrProtocol, buf[0])
	}

	n, pos, err := readLength(buf)
	if err != nil {
		return nil, 0, err
	}
	if n < 0 {
		return nil, 0, fmt.Errorf("%w: invalid multibulk length", ErrProtocol)
	}
	if n > int64(l.MaxArrayLen) {
		return nil, 0, fmt.Errorf("%w: array length %d exceeds limit %d", ErrLimitExceeded, n, l.MaxArrayLen)
	}

	// collect views first, so an incomplete frame costs no copies
	views := make([][]byte, 0, min(n, initialArgs))
	for i := int64(0); i < n; i++ {
		arg, m, err := l.parseBulk(buf[pos:], false)
		if err != nil {
			return nil, 0, err
		}
		views = append(views, arg)
		pos += m
	}

	args := make([][]byte, len(views))
	for i, v := range views {
		args[i] = bytes.Clone(v)
		if args[i] == nil {
			args[i] = []byte{}
		}
	}

	return args, pos, nil
}

// Parse is Parse with custom limits
func (l Limits) Parse(buf []byte) (Value, int, error) {
	if len(buf) == 0 {
		return Value{}, 0, ErrIncomplete
	}

	switch buf[0] {
	case TypeSimpleString, TypeError:
		line, pos, err := readLine(buf[1:], maxInlineLen)
		if err != nil {
			return Value{}, 0, err
		}
		return Value{Type: buf[0], String: bytes.Clone(line)}, pos + 1, nil

	case TypeInteger:
		line, pos, err := readLine(buf[1:], maxInlineLen)
		if err != nil {
			return Value{}, 0, err
		}
		num, err := strconv.ParseInt(string(line), 10, 64)
		if err != nil {
			return Value{}, 0, fmt.Errorf("%w: invalid integer %q", ErrProtocol, line)
		}
		return MakeInteger(num), pos + 1, nil

	case TypeBulkString:
		b, pos, err := l.parseBulk(buf, true)
		if err != nil {
			return Value{}, 0, err
		}
		if b == nil {
			return MakeNilBulkString(), pos, nil
		}
		return Value{Type: TypeBulkString, String: bytes.Clone(b)}, pos, nil

	case TypeArray:
		n, pos, err := readLength(buf)
		if err != nil {
			return Value{}, 0, err
		}
		if n == -1 {
			return Value{Type: TypeArray, IsNull: true}, pos, nil
		}
		if n < 0 {
			return Value{}, 0, fmt.Errorf("%w: invalid multibulk length", ErrProtocol)
		}
		if n > int64(l.MaxArrayLen) {
			return Value{}, 0, fmt.Errorf("%w: array length %d exceeds limit %d", ErrLimitExceeded, n, l.MaxArrayLen)
		}

		elems := make([]Value, 0, min(n, initialArgs))
		for i := int64(0); i < n; i++ {
			v, m, err := l.Parse(buf[pos:])
			if err != nil {
				return Value{}, 0, err
			}
			elems = append(elems, v)
			pos += m
		}
		return MakeArray(elems), pos, nil
	}

	return Value{}, 0, fmt.Errorf("%w: %w %q", ErrProtocol, ErrUnknownType, buf[0])
}

// parseBulk reads "$<len>\r\n<len bytes>\r\n". The returned slice aliases buf.
// A null bulk ($-1) yields a nil slice when allowNull is set
func (l Limits) parseBulk(buf []byte, allowNull bool) ([]byte, int, error) {
	if len(buf) == 0 {
		return nil, 0, ErrIncomplete
	}
	if buf[0] != TypeBulkString {
		return nil, 0, fmt.Errorf("%w: expected '$', got %q", ErrProtocol, buf[0])
	}

	n, pos, err := readLength(buf)
	if err != nil {
		return nil, 0, err
	}
	if n == -1 && allowNull {
		return nil, pos, nil
	}
	if n < 0 {
		return nil, 0, fmt.Errorf("%w: invalid bulk length", ErrProtocol)
	}
	if n > int64(l.MaxBulkLen) {
		return nil, 0, fmt.Errorf("%w: bulk length %d exceeds limit %d", ErrLimitExceeded, n, l.MaxBulkLen)
	}

	end := pos + int(n)
	if len(buf) < end+2 {
		return nil, 0, ErrIncomplete
	}
	if buf[end] != '\r' || buf[end+1] != '\n' {
		return nil, 0, fmt.Errorf("%w: bulk length mismatch", ErrProtocol)
	}

	return buf[pos:end:end], end + 2, nil
}

// readLength parses the "<marker><n>\r\n" header at the start of buf
func readLength(buf []byte) (int64, int, error) {
	line, pos, err := readLine(buf[1:], maxHeaderLen)
	if err != nil {
		return 0, 0, err
	}

	n, err := strconv.ParseInt(string(line), 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: invalid length %q", ErrProtocol, line)
	}

	return n, pos + 1, nil
}

// readLine returns the bytes before the first CRLF and the offset just past it
func readLine(buf []byte, maxLen int) ([]byte, int, error) {
	i := bytes.IndexByte(buf, '\n')
	if i < 0 {
		if len(buf) > maxLen+1 {
			return nil, 0, fmt.Errorf("%w: line length exceeds limit %d", ErrLimitExceeded, maxLen)
		}
		return nil, 0, ErrIncomplete
	}
	if i > maxLen+1 {
		return nil, 0, fmt.Errorf("%w: line length exceeds limit %d", ErrLimitExceeded, maxLen)
	}
	if i == 0 || buf[i-1] != '\r' {
		return nil, 0, fmt.Errorf("%w: %w", ErrProtocol, ErrInvalidEnding)
	}

	return buf[:i-1], i + 1, nil
}

// Decoder reads RESP frames from a stream.
// Partial frames are kept in an internal buffer until the rest arrives
type Decoder struct {
	rd     io.Reader
	buf    []byte
	start  int
	end    int
	limits Limits
	onFill func() error // called before blocking on the stream
}

// NewDecoder initializes a Decoder with the default limits
func NewDecoder(rd io.Reader) *Decoder {
	return NewDecoderWithLimits(rd, DefaultLimits)
}

// NewDecoderWithLimits initializes a Decoder with custom limits
func NewDecoderWithLimits(rd io.Reader, limits Limits) *Decoder {
	return &Decoder{
		rd:     rd,
		buf:    make([]byte, readChunk),
		limits: limits,
	}
}

// OnFill registers fn to run every time the decoder is about to read from the stream,
// i.e. when the buffered bytes hold no complete frame. A server uses it to flush replies
// before waiting for more input
func (d *Decoder) OnFill(fn func() error) {
	d.onFill = fn
}

// ReadCommand reads the next request frame and returns its arguments
func (d *Decoder) ReadCommand() ([][]byte, error) {
	for {
		if d.end > d.start {
			args, n, err := d.limits.ParseCommand(d.buf[d.start:d.end])
			if err == nil {
				d.consume(n)
				return args, nil
			}
			if !errors.Is(err, ErrIncomplete) {
				return nil, err
			}
		}

		if err := d.fill(); err != nil {
			return nil, err
		}
	}
}

// Read reads the next value of any type
func (d *Decoder) Read() (Value, error) {
	for {
		if d.end > d.start {
			v, n, err := d.limits.Parse(d.buf[d.start:d.end])
			if err == nil {
				d.consume(n)
				return v, nil
			}
			if !errors.Is(err, ErrIncomplete) {
				return Value{}, err
			}
		}

		if err := d.fill(); err != nil {
			return Value{}, err
		}
	}
}

// Buffered returns the number of bytes that can be read from the current buffer
func (d *Decoder) Buffered() int {
	return d.end - d.start
}

func (d *Decoder) consume(n int) {
	d.start += n
	if d.start == d.end {
		d.start, d.end = 0, 0
	}
}

// fill reads at least one more byte from the stream, compacting or growing the buffer as needed
func (d *Decoder) fill() error {
	if d.onFill != nil {
		if err := d.onFill(); err != nil {
			return err
		}
	}

	if d.start > 0 {
		copy(d.buf, d.buf[d.start:d.end])
		d.end -= d.start
		d.start = 0
	}
	if d.end == len(d.buf) {
		grown := make([]byte, 2*len(d.buf))
		copy(grown, d.buf[:d.end])
		d.buf = grown
	}

	for {
		n, err := d.rd.Read(d.buf[d.end:])
		d.end += n
		if n > 0 {
			return nil
		}
		if err != nil {
			if errors.Is(err, io.EOF) && d.end > 0 {
				return io.ErrUnexpectedEOF
			}
			return err
		}
	}
}
