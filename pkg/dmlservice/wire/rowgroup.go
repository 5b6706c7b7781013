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
	"github.com/fagongzi/goetty/v2/buf"
)

// RowGroup is one message of the query-execution result stream. The
// first message of a stream is the schema and is forwarded as is; the
// following ones carry rows for a single partition.
type RowGroup struct {
	RowCount uint32
	BaseRID  uint64
	DBRoot   uint32
	Status   uint32
	// Error is only present when Status is not zero.
	Error string
	Data  []byte
}

// IsEnd reports the end of stream marker.
func (g RowGroup) IsEnd() bool {
	return g.Status == 0 && g.RowCount == 0
}

// IsFiller reports a batch with nothing to forward.
func (g RowGroup) IsFiller() bool {
	return g.BaseRID == InvalidBaseRID
}

func (g RowGroup) Encode() []byte {
	out := buf.NewByteBuf(4 + 8 + 4 + 4 + 4 + len(g.Error) + len(g.Data))
	out.WriteUint32(g.RowCount)
	writeUint64(out, g.BaseRID)
	out.WriteUint32(g.DBRoot)
	out.WriteUint32(g.Status)
	if g.Status != 0 {
		writeString(out, g.Error)
	}
	out.MustWrite(g.Data)
	return readAll(out)
}

func DecodeRowGroup(data []byte) (RowGroup, error) {
	r := newReader("row group", data)
	g := RowGroup{
		RowCount: r.uint32(),
		BaseRID:  r.uint64(),
		DBRoot:   r.uint32(),
		Status:   r.uint32(),
	}
	if g.Status != 0 {
		g.Error = r.string()
	}
	g.Data = r.rest()
	return g, r.err
}

// RIDs returns the row ids covered by the batch.
func (g RowGroup) RIDs() (first, last uint64) {
	if g.RowCount == 0 {
		return g.BaseRID, g.BaseRID
	}
	return g.BaseRID, g.BaseRID + uint64(g.RowCount) - 1
}
