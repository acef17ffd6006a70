package iso2709

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/FocuswithJustin/JuniperMARC/core/errors"
	"github.com/FocuswithJustin/JuniperMARC/core/marc"
)

// readBufferSize leaves room to look past the largest legal record when
// searching for a terminator the leader did not point at.
const readBufferSize = 1 << 17

// Reader pulls binary records from a stream one at a time.
type Reader struct {
	br     *bufio.Reader
	dec    *decoder
	offset int64
	done   bool
}

// NewReader returns a Reader over r. The Reader buffers r itself.
func NewReader(r io.Reader, opts *Options) *Reader {
	return &Reader{
		br:  bufio.NewReaderSize(r, readBufferSize),
		dec: newDecoder(opts),
	}
}

// Offset returns the stream offset of the next unread byte.
func (r *Reader) Offset() int64 {
	return r.offset
}

// Read returns the next record, or io.EOF once the stream is exhausted.
//
// An error that wraps errors.ErrUnrecoverable means the stream cannot be
// framed any further; every later call returns io.EOF. Any other error
// belongs to one record only and the next call continues after it.
func (r *Reader) Read() (*marc.Record, error) {
	if r.done {
		return nil, io.EOF
	}
	if err := r.skipSpace(); err != nil {
		if err == io.EOF {
			r.done = true
			return nil, io.EOF
		}
		return nil, r.fail(errors.NewIO("read", "", err))
	}

	head, err := r.br.Peek(5)
	if len(head) < 5 {
		if err == io.EOF {
			return nil, r.fail(&errors.TruncatedRecordError{Declared: -1, Read: len(head)})
		}
		return nil, r.fail(errors.NewIO("read", "", err))
	}
	declared, ok := digits(head)
	if !ok {
		return nil, r.fail(errors.NewMalformedLeader(string(head), "record length is not numeric"))
	}
	if declared < marc.LeaderLength+2 {
		return nil, r.fail(errors.NewMalformedLeader(string(head),
			fmt.Sprintf("record length %d is shorter than a leader and directory terminator", declared)))
	}

	n, err := r.frame(declared)
	if err != nil {
		return nil, r.fail(err)
	}
	data := make([]byte, n)
	if _, err := io.ReadFull(r.br, data); err != nil {
		return nil, r.fail(errors.NewIO("read", "", err))
	}
	start := r.offset
	r.offset += int64(n)

	// Length mismatches between the leader and the framed bytes are reported
	// by the decoder itself.
	rec, err := r.dec.decode(data)
	if err != nil {
		var dirErr *errors.MalformedDirectoryError
		if errors.As(err, &dirErr) {
			return nil, r.fail(err)
		}
		return nil, fmt.Errorf("record at offset %d: %w", start, err)
	}
	return rec, nil
}

// frame returns the number of bytes making up the next record. The declared
// length wins when it ends on a record terminator; otherwise the record runs
// to the first terminator after the leader.
func (r *Reader) frame(declared int) (int, error) {
	buf, err := r.br.Peek(declared)
	if len(buf) == declared && buf[declared-1] == RecordTerminator {
		return declared, nil
	}
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return 0, errors.NewIO("read", "", err)
	}

	window, err := r.br.Peek(readBufferSize)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return 0, errors.NewIO("read", "", err)
	}
	if len(window) > marc.LeaderLength {
		if i := bytes.IndexByte(window[marc.LeaderLength:], RecordTerminator); i >= 0 {
			return marc.LeaderLength + i + 1, nil
		}
	}
	if err == io.EOF {
		return 0, &errors.TruncatedRecordError{Declared: declared, Read: len(window)}
	}
	return 0, errors.NewMalformedLeader(string(window[:marc.LeaderLength]),
		fmt.Sprintf("no record terminator within %d bytes", len(window)))
}

func (r *Reader) skipSpace() error {
	for {
		b, err := r.br.ReadByte()
		if err != nil {
			return err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			r.offset++
		default:
			return r.br.UnreadByte()
		}
	}
}

func (r *Reader) fail(err error) error {
	r.done = true
	return errors.Unrecoverable(r.offset, err)
}
