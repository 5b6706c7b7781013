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
	"github.com/RoaringBitmap/roaring"
	"github.com/fagongzi/goetty/v2/buf"
)

// TombstoneFlags expands the deleted rows of a partition into one flag
// byte per row. Rows at or beyond rows are ignored.
func TombstoneFlags(deleted *roaring.Bitmap, rows uint32) []byte {
	flags := make([]byte, rows)
	if deleted == nil {
		return flags
	}
	it := deleted.Iterator()
	for it.HasNext() {
		row := it.Next()
		if row >= rows {
			break
		}
		flags[row] = 1
	}
	return flags
}

// EncodeVacuumMeta prefixes the schema batch with the tombstone flags of
// the partition being vacuumed.
func EncodeVacuumMeta(flags []byte, meta []byte) []byte {
	out := buf.NewByteBuf(4 + len(flags) + len(meta))
	writeBytes(out, flags)
	out.MustWrite(meta)
	return readAll(out)
}

// DecodeVacuumMeta splits a vacuum schema payload into the tombstone
// bitmap and the schema batch.
func DecodeVacuumMeta(data []byte) (*roaring.Bitmap, []byte, error) {
	r := newReader("vacuum meta", data)
	flags := r.bytes()
	meta := r.rest()
	if r.err != nil {
		return nil, nil, r.err
	}
	deleted := roaring.New()
	for i, f := range flags {
		if f != 0 {
			deleted.Add(uint32(i))
		}
	}
	return deleted, meta, nil
}

// EncodeUpdateMeta prefixes the schema batch with the serialized update
// statement, which write engines need to evaluate the new values.
func EncodeUpdateMeta(statement []byte, meta []byte) []byte {
	out := buf.NewByteBuf(4 + len(statement) + len(meta))
	writeBytes(out, statement)
	out.MustWrite(meta)
	return readAll(out)
}

func DecodeUpdateMeta(data []byte) ([]byte, []byte, error) {
	r := newReader("update meta", data)
	statement := r.bytes()
	meta := r.rest()
	return statement, meta, r.err
}
