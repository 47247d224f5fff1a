package leb128

import (
	"errors"
	"io"
)

// ErrTruncated is returned when the input ends in the middle of a value.
var ErrTruncated = errors.New("truncated LEB128 value")

// DecodeUnsigned decodes an unsigned Little Endian Base 128 represented
// number, returning the value and the number of bytes consumed.
func DecodeUnsigned(buf io.ByteReader) (uint64, uint32, error) {
	var (
		result uint64
		shift  uint
		length uint32
	)

	for {
		b, err := buf.ReadByte()
		if err != nil {
			if length == 0 && err == io.EOF {
				return 0, 0, err
			}
			return result, length, ErrTruncated
		}
		length++

		if shift < 64 {
			result |= uint64(b&0x7f) << shift
		}
		if b&0x80 == 0 {
			return result, length, nil
		}
		shift += 7
	}
}

// DecodeSigned decodes a signed Little Endian Base 128 represented number,
// returning the value and the number of bytes consumed.
func DecodeSigned(buf io.ByteReader) (int64, uint32, error) {
	var (
		result int64
		shift  uint
		length uint32
	)

	for {
		b, err := buf.ReadByte()
		if err != nil {
			if length == 0 && err == io.EOF {
				return 0, 0, err
			}
			return result, length, ErrTruncated
		}
		length++

		if shift < 64 {
			result |= int64(b&0x7f) << shift
		}
		shift += 7
		if b&0x80 == 0 {
			if shift < 64 && b&0x40 != 0 {
				result |= -1 << shift
			}
			return result, length, nil
		}
	}
}
