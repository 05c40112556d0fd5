// Copyright (C) 2025 sage-x-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

// Package stream implements the chunked state machine shared by the
// streaming envelope formats (v4, v11): an Encoder turning a plaintext
// io.Reader into a ciphertext io.Reader one chunk at a time, and a Decoder
// doing the reverse. Each format supplies its own ChunkCodec, since the
// two formats differ in header shape and associated data but share the
// same strictly-increasing-chunk-index state machine.
package stream

import (
	"bufio"
	"io"
)

// ChunkCodec owns one streaming format's on-wire chunk framing. EncryptChunk
// is given up to ClearChunkSize() bytes of plaintext and returns the full
// on-wire bytes for that chunk. DecryptChunk reads exactly one on-wire
// chunk from br (however that format frames it - fixed-size or
// self-describing) and reports whether it was the stream's final chunk.
type ChunkCodec interface {
	ClearChunkSize() int
	EncryptChunk(chunkIndex uint64, plaintext []byte) ([]byte, error)
	DecryptChunk(chunkIndex uint64, br *bufio.Reader) (plaintext []byte, final bool, err error)
}

// Encoder reads plaintext from src and exposes the encrypted stream
// through Read, emitting one chunk per underlying read of clearChunkSize
// bytes and a final (possibly empty) chunk on EOF, per §4.5.
type Encoder struct {
	src   io.Reader
	codec ChunkCodec
	index uint64
	buf   []byte
	eof   bool
}

// NewEncoder builds a streaming encoder over src using codec.
func NewEncoder(src io.Reader, codec ChunkCodec) *Encoder {
	return &Encoder{src: src, codec: codec}
}

// Read implements io.Reader, returning encrypted chunk bytes.
func (e *Encoder) Read(p []byte) (int, error) {
	for len(e.buf) == 0 {
		if e.eof {
			return 0, io.EOF
		}
		clear := make([]byte, e.codec.ClearChunkSize())
		n, err := io.ReadFull(e.src, clear)
		if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
			return 0, err
		}
		full := err == nil
		chunk, encErr := e.codec.EncryptChunk(e.index, clear[:n])
		if encErr != nil {
			return 0, encErr
		}
		e.index++
		e.buf = chunk
		if !full {
			e.eof = true
		}
	}
	n := copy(p, e.buf)
	e.buf = e.buf[n:]
	return n, nil
}

// Decoder reads encrypted chunks from src and exposes the decrypted
// plaintext stream through Read. A chunk whose bound chunkIndex does not
// match the next expected index is the codec's responsibility to reject;
// the decoder itself only tracks and supplies the expected index.
type Decoder struct {
	br    *bufio.Reader
	codec ChunkCodec
	index uint64
	buf   []byte
	eof   bool
}

// NewDecoder builds a streaming decoder over src using codec.
func NewDecoder(src io.Reader, codec ChunkCodec) *Decoder {
	return &Decoder{br: bufio.NewReader(src), codec: codec}
}

// Read implements io.Reader, returning decrypted plaintext bytes.
func (d *Decoder) Read(p []byte) (int, error) {
	for len(d.buf) == 0 {
		if d.eof {
			return 0, io.EOF
		}
		plain, final, err := d.codec.DecryptChunk(d.index, d.br)
		if err != nil {
			return 0, err
		}
		d.index++
		d.buf = plain
		if final {
			d.eof = true
		}
	}
	n := copy(p, d.buf)
	d.buf = d.buf[n:]
	return n, nil
}
