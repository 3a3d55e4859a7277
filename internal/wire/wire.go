// Package wire implements pictocrab's framed transport: every message,
// in either direction, is a 4-byte big-endian length prefix followed by
// that many bytes of payload.
package wire

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/RedstoneMedia/pictocrab/internal/errs"
)

// ReadBufSize is the chunk size used when accumulating a frame's payload,
// matching the fixed-size read buffer named in spec.md §6.1.
const ReadBufSize = 4096

// ReadFrame reads one length-prefixed frame from src and returns its
// payload. It returns io.EOF (unwrapped) if src is closed cleanly before
// any bytes of the length prefix are read, matching the "zero-length read
// on the prefix ends the loop cleanly" contract in spec.md §4.8.
func ReadFrame(src io.Reader) ([]byte, error) {
	var lenBuf [4]byte
	n, err := io.ReadFull(src, lenBuf[:])
	if n == 0 && err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, &errs.TransportError{Op: "read length prefix", Err: err}
	}
	size := binary.BigEndian.Uint32(lenBuf[:])

	data := make([]byte, 0, size)
	buf := make([]byte, ReadBufSize)
	for uint32(len(data)) < size {
		want := buf
		if remaining := size - uint32(len(data)); remaining < ReadBufSize {
			want = buf[:remaining]
		}
		n, err := src.Read(want)
		if n > 0 {
			data = append(data, want[:n]...)
		}
		if err != nil {
			if err == io.EOF && uint32(len(data)) == size {
				break
			}
			return nil, &errs.TransportError{Op: "read frame body", Err: err}
		}
	}
	return data, nil
}

// WriteFrame writes payload to dst prefixed with its big-endian u32
// length. payload must not exceed MaxUint32 bytes.
func WriteFrame(dst io.Writer, payload []byte) error {
	if uint64(len(payload)) > uint64(^uint32(0)) {
		return &errs.ParseError{Msg: fmt.Sprintf("payload of %d bytes exceeds max frame size", len(payload))}
	}
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	if _, err := dst.Write(lenBuf[:]); err != nil {
		return &errs.TransportError{Op: "write length prefix", Err: err}
	}
	if _, err := dst.Write(payload); err != nil {
		return &errs.TransportError{Op: "write frame body", Err: err}
	}
	return nil
}
