package marc8

import (
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

// NewTransformer returns a transform.Transformer decoding a raw MARC-8
// stream to UTF-8. Registers persist for the whole stream and pending marks
// are flushed at EOF. Character references and normalization are left to
// the caller; chain norm.NFC if needed.
func NewTransformer(opts *Options) transform.Transformer {
	return &decodeTransformer{d: NewDecoder(opts)}
}

type decodeTransformer struct {
	d   *Decoder
	out []byte
	off int
}

func (t *decodeTransformer) Reset() {
	t.d.Reset("")
	t.out = t.out[:0]
	t.off = 0
}

func (t *decodeTransformer) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	for {
		if len(t.out) > 0 {
			n := copy(dst[nDst:], t.out)
			nDst += n
			t.out = t.out[n:]
			if len(t.out) > 0 {
				return nDst, nSrc, transform.ErrShortDst
			}
		}
		if nSrc == len(src) {
			if !atEOF || len(t.d.pending) == 0 {
				return nDst, nSrc, nil
			}
			t.d.flush(t.off)
			t.out = append(t.out, t.d.take()...)
			continue
		}
		n, short := t.d.step(src[nSrc:], t.off, atEOF)
		if short {
			return nDst, nSrc, transform.ErrShortSrc
		}
		nSrc += n
		t.off += n
		t.out = append(t.out, t.d.take()...)
	}
}

// NewEncodeTransformer returns a transform.Transformer encoding UTF-8 text to
// MARC-8. The default registers are restored at EOF.
func NewEncodeTransformer(opts *Options) transform.Transformer {
	return &encodeTransformer{e: NewEncoder(opts)}
}

type encodeTransformer struct {
	e        *Encoder
	out      []byte
	finished bool
}

func (t *encodeTransformer) Reset() {
	t.e.Reset("")
	t.out = t.out[:0]
	t.finished = false
}

func (t *encodeTransformer) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	for {
		if len(t.out) > 0 {
			n := copy(dst[nDst:], t.out)
			nDst += n
			t.out = t.out[n:]
			if len(t.out) > 0 {
				return nDst, nSrc, transform.ErrShortDst
			}
		}
		if nSrc == len(src) {
			if atEOF && !t.finished {
				t.finished = true
				t.out = append(t.out, t.e.Finish()...)
				continue
			}
			return nDst, nSrc, nil
		}
		n, ok := clusterLength(src[nSrc:], atEOF)
		if !ok {
			return nDst, nSrc, transform.ErrShortSrc
		}
		t.out = append(t.out, t.e.Encode(string(src[nSrc:nSrc+n]))...)
		nSrc += n
	}
}

// clusterLength measures the base character and trailing marks at the start
// of b. Without atEOF it refuses a cluster that may continue past b.
func clusterLength(b []byte, atEOF bool) (int, bool) {
	if !atEOF && !utf8.FullRune(b) {
		return 0, false
	}
	_, n := utf8.DecodeRune(b)
	for n < len(b) {
		if !atEOF && !utf8.FullRune(b[n:]) {
			return 0, false
		}
		r, size := utf8.DecodeRune(b[n:])
		if !isMark(r) {
			return n, true
		}
		n += size
	}
	if !atEOF {
		return 0, false
	}
	return n, true
}

type marc8Encoding struct {
	opts *Options
}

// Encoding exposes MARC-8 as an encoding.Encoding with the given options.
func Encoding(opts *Options) encoding.Encoding {
	return marc8Encoding{opts: opts}
}

func (m marc8Encoding) NewDecoder() *encoding.Decoder {
	return &encoding.Decoder{Transformer: NewTransformer(m.opts)}
}

func (m marc8Encoding) NewEncoder() *encoding.Encoder {
	return &encoding.Encoder{Transformer: NewEncodeTransformer(m.opts)}
}

func (m marc8Encoding) String() string { return "MARC-8" }
