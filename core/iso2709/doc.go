// Package iso2709 reads and writes binary MARC21 records.
//
// A record is a 24-byte leader, a directory of 12-byte entries (tag, field
// length, start offset) closed by a field terminator, then the field data
// and a record terminator. Decode works on one complete record; Reader
// frames records from a stream and survives leaders whose declared length
// is wrong.
//
// Character data follows leader position 9: 'a' means UTF-8, anything else
// MARC-8, which goes through package marc8 with its registers reset at every
// field.
package iso2709
