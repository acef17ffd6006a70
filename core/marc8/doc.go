// Package marc8 converts between the MARC-8 character encoding and Unicode.
//
// MARC-8 is a stateful ISO 2022 style encoding with two registers. G0 covers
// bytes 0x21-0x7E and starts out as ASCII; G1 covers 0xA1-0xFE and starts
// out as ANSEL. Escape sequences designate other character sets into either
// register, and combining diacritics precede the character they modify.
//
// A Decoder or Encoder carries the registers for one field. The binary codec
// resets it at every field start and feeds it one subfield at a time. For raw
// streams NewTransformer and Encoding expose the same engine through
// golang.org/x/text.
//
// The built-in tables cover the common sets. LoadCodeTables extends them
// from the Library of Congress codetables.xml file.
package marc8
