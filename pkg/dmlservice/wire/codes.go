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

// Package wire holds the byte layouts exchanged by the dml coordinator
// with the query-execution service and with the write engines. Integers
// are big endian and strings are a uint32 length followed by the bytes.
package wire

// Opcode is the operation a write engine performs for a request.
type Opcode uint8

const (
	OpDelete          Opcode = 0x11
	OpUpdate          Opcode = 0x12
	OpVacuumPartition Opcode = 0x13
	OpFlushDataFiles  Opcode = 0x14
)

func (o Opcode) String() string {
	switch o {
	case OpDelete:
		return "delete"
	case OpUpdate:
		return "update"
	case OpVacuumPartition:
		return "vacuum"
	case OpFlushDataFiles:
		return "flush"
	default:
		return "unknown"
	}
}

// Codes written by the coordinator to the query-execution service.
const (
	// CodeAbort tells the producer the coordinator stopped early.
	CodeAbort uint32 = 0
	// CodeStats asks for the query stats after a clean stop.
	CodeStats uint32 = 3
	// CodeBegin precedes the serialized plan.
	CodeBegin uint32 = 4
	// CodeContinue is sent once all write engines acknowledged the schema.
	CodeContinue uint32 = 100
)

// StatusHandshakeShort is reported when the producer answered the
// handshake with something other than a status word.
const StatusHandshakeShort uint32 = 999

// Write engine response statuses.
const (
	StatusOK uint8 = 0
	// StatusRangeWarning means the engine stored the batch but clipped a
	// value out of column range.
	StatusRangeWarning uint8 = 14
)

const (
	// InvalidBaseRID marks a batch that carries no rows to forward.
	InvalidBaseRID = ^uint64(0)
	// BroadcastNodeID is the node id carried by broadcast requests.
	BroadcastNodeID uint32 = 0
)
