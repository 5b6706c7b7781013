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

// Request is sent by the coordinator to one write engine, or to all of
// them for the schema batch.
type Request struct {
	Opcode      Opcode
	OperationID uint64
	NodeID      uint32
	TxnID       uint32
	Schema      string
	Table       string
	Payload     []byte
}

func (r Request) Encode() []byte {
	out := buf.NewByteBuf(1 + 8 + 4 + 4 + 8 + len(r.Schema) + len(r.Table) + len(r.Payload))
	writeUint8(out, uint8(r.Opcode))
	writeUint64(out, r.OperationID)
	out.WriteUint32(r.NodeID)
	out.WriteUint32(r.TxnID)
	writeString(out, r.Schema)
	writeString(out, r.Table)
	out.MustWrite(r.Payload)
	return readAll(out)
}

func DecodeRequest(data []byte) (Request, error) {
	r := newReader("request", data)
	req := Request{
		Opcode:      Opcode(r.uint8()),
		OperationID: r.uint64(),
		NodeID:      r.uint32(),
		TxnID:       r.uint32(),
		Schema:      r.string(),
		Table:       r.string(),
	}
	req.Payload = r.rest()
	return req, r.err
}

// PeekOperationID returns the operation id of an encoded request
// without decoding the rest.
func PeekOperationID(data []byte) (uint64, error) {
	r := newReader("request", data)
	r.uint8()
	id := r.uint64()
	return id, r.err
}

// Response is what a write engine returns for each request it handled.
type Response struct {
	Status        uint8
	Error         string
	NodeID        uint32
	BlocksChanged uint64
}

func (r Response) Encode() []byte {
	out := buf.NewByteBuf(1 + 4 + len(r.Error) + 4 + 8)
	writeUint8(out, r.Status)
	writeString(out, r.Error)
	out.WriteUint32(r.NodeID)
	writeUint64(out, r.BlocksChanged)
	return readAll(out)
}

func DecodeResponse(data []byte) (Response, error) {
	r := newReader("response", data)
	resp := Response{
		Status:        r.uint8(),
		Error:         r.string(),
		NodeID:        r.uint32(),
		BlocksChanged: r.uint64(),
	}
	return resp, r.err
}
