// Copyright 2024 Matrix Origin
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package wire

import (
	"context"

	"github.com/fagongzi/goetty/v2/buf"

	"github.com/matrixorigin/dmlproc/pkg/common/moerr"
)

func writeString(out *buf.ByteBuf, s string) {
	out.WriteUint32(uint32(len(s)))
	out.MustWrite([]byte(s))
}

func writeBytes(out *buf.ByteBuf, v []byte) {
	out.WriteUint32(uint32(len(v)))
	out.MustWrite(v)
}

func writeUint64(out *buf.ByteBuf, v uint64) {
	out.WriteInt64(int64(v))
}

func writeUint8(out *buf.ByteBuf, v uint8) {
	out.MustWrite([]byte{v})
}

func readAll(out *buf.ByteBuf) []byte {
	_, v := out.ReadAll()
	return v
}

// reader consumes a message front to back. The first short read sets
// err and every later read returns zero values.
type reader struct {
	what string
	data []byte
	err  error
}

func newReader(what string, data []byte) *reader {
	return &reader{what: what, data: data}
}

func (r *reader) need(n int) bool {
	if r.err != nil {
		return false
	}
	if len(r.data) < n {
		r.err = moerr.NewInvalidInput(context.Background(),
			"%s: need %d bytes, %d left", r.what, n, len(r.data))
		return false
	}
	return true
}

func (r *reader) uint8() uint8 {
	if !r.need(1) {
		return 0
	}
	v := r.data[0]
	r.data = r.data[1:]
	return v
}

func (r *reader) uint32() uint32 {
	if !r.need(4) {
		return 0
	}
	v := buf.Byte2Uint32(r.data)
	r.data = r.data[4:]
	return v
}

func (r *reader) uint64() uint64 {
	if !r.need(8) {
		return 0
	}
	v := uint64(buf.Byte2Int64(r.data))
	r.data = r.data[8:]
	return v
}

func (r *reader) bytes() []byte {
	n := int(r.uint32())
	if !r.need(n) {
		return nil
	}
	v := r.data[:n:n]
	r.data = r.data[n:]
	return v
}

func (r *reader) string() string {
	return string(r.bytes())
}

func (r *reader) rest() []byte {
	if r.err != nil {
		return nil
	}
	v := r.data
	r.data = nil
	return v
}

// EncodeCode encodes a control code or status word.
func EncodeCode(code uint32) []byte {
	out := buf.NewByteBuf(4)
	out.WriteUint32(code)
	return readAll(out)
}

// DecodeCode decodes a message that must be exactly one status word.
func DecodeCode(data []byte) (uint32, error) {
	if len(data) != 4 {
		return 0, moerr.NewInvalidInput(context.Background(),
			"status word: got %d bytes", len(data))
	}
	return buf.Byte2Uint32(data), nil
}

// EncodeString encodes a standalone string message.
func EncodeString(s string) []byte {
	out := buf.NewByteBuf(4 + len(s))
	writeString(out, s)
	return readAll(out)
}

// DecodeString decodes a standalone string message.
func DecodeString(data []byte) (string, error) {
	r := newReader("string", data)
	s := r.string()
	return s, r.err
}
