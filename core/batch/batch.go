// Package batch iterates records lazily over one or more sources, whatever
// their format.
//
// Records yields one item per record. A record-level failure is yielded as
// (nil, err) and iteration continues; a failure after which the source can
// no longer be read (one wrapping errors.ErrUnrecoverable) is yielded and
// ends the sequence. Stopping the range loop stops reading.
package batch

import (
	"fmt"
	"io"
	"iter"

	"github.com/FocuswithJustin/JuniperMARC/core/errors"
	"github.com/FocuswithJustin/JuniperMARC/core/iso2709"
	"github.com/FocuswithJustin/JuniperMARC/core/marc"
	"github.com/FocuswithJustin/JuniperMARC/core/marcxml"
	"github.com/FocuswithJustin/JuniperMARC/core/mrk"
)

// RecordReader pulls one record per call and returns io.EOF at the end.
type RecordReader interface {
	Read() (*marc.Record, error)
}

// ReaderFunc wraps a source in a format's RecordReader.
type ReaderFunc func(io.Reader) (RecordReader, error)

// ISO2709 reads binary MARC21.
func ISO2709(opts *iso2709.Options) ReaderFunc {
	return func(r io.Reader) (RecordReader, error) {
		return iso2709.NewReader(r, opts), nil
	}
}

// XML reads MARCXML documents.
func XML(opts *marcxml.Options) ReaderFunc {
	return func(r io.Reader) (RecordReader, error) {
		return marcxml.NewReader(r, opts)
	}
}

// Mnemonic reads MARCMaker text.
func Mnemonic(opts *mrk.Options) ReaderFunc {
	return func(r io.Reader) (RecordReader, error) {
		return mrk.NewReader(r, opts), nil
	}
}

// Records returns the records of rr as a single-use sequence.
func Records(rr RecordReader) iter.Seq2[*marc.Record, error] {
	return func(yield func(*marc.Record, error) bool) {
		for {
			rec, err := rr.Read()
			if err == io.EOF {
				return
			}
			if !yield(rec, err) {
				return
			}
			if errors.IsUnrecoverable(err) {
				return
			}
		}
	}
}

// Sequence is a restartable record sequence: every call to All opens the
// source again.
type Sequence struct {
	Open   func() (io.ReadCloser, error)
	Format ReaderFunc
}

// All opens the source and yields its records. A failure to open the source
// is yielded as the only item. The source is closed when iteration ends.
func (s Sequence) All() iter.Seq2[*marc.Record, error] {
	return func(yield func(*marc.Record, error) bool) {
		rc, err := s.Open()
		if err != nil {
			yield(nil, errors.Unrecoverable(0, err))
			return
		}
		defer rc.Close()

		rr, err := s.Format(rc)
		if err != nil {
			yield(nil, errors.Unrecoverable(0, err))
			return
		}
		for rec, err := range Records(rr) {
			if !yield(rec, err) {
				return
			}
		}
	}
}

// Map calls fn once for every valid record of sources, read in order as one
// concatenation. Record errors are collected and returned joined; a source
// that fails unrecoverably is abandoned and the next one read. An error from
// fn stops Map and is returned with the errors collected so far.
func Map(fn func(*marc.Record) error, format ReaderFunc, sources ...io.Reader) error {
	var errs []error
	for i, src := range sources {
		rr, err := format(src)
		if err != nil {
			errs = append(errs, fmt.Errorf("source %d: %w", i, err))
			continue
		}
		for rec, err := range Records(rr) {
			if err != nil {
				errs = append(errs, fmt.Errorf("source %d: %w", i, err))
				continue
			}
			if err := fn(rec); err != nil {
				return errors.Join(append(errs, err)...)
			}
		}
	}
	return errors.Join(errs...)
}

// MapRecords is Map over binary MARC21 sources with default options.
func MapRecords(fn func(*marc.Record) error, sources ...io.Reader) error {
	return Map(fn, ISO2709(nil), sources...)
}

// MapXML is Map over MARCXML sources with default options.
func MapXML(fn func(*marc.Record) error, sources ...io.Reader) error {
	return Map(fn, XML(nil), sources...)
}

// Collect reads every record of sources into memory.
func Collect(format ReaderFunc, sources ...io.Reader) ([]*marc.Record, error) {
	var recs []*marc.Record
	err := Map(func(rec *marc.Record) error {
		recs = append(recs, rec)
		return nil
	}, format, sources...)
	return recs, err
}
