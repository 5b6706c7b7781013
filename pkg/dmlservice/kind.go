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

package dmlservice

import (
	"github.com/matrixorigin/dmlproc/pkg/dmlservice/wire"
)

// Kind is the statement kind.
type Kind uint8

const (
	KindUpdate Kind = iota + 1
	KindDelete
	KindVacuum
)

func (k Kind) String() string {
	switch k {
	case KindUpdate:
		return "update"
	case KindDelete:
		return "delete"
	case KindVacuum:
		return "vacuum"
	default:
		return "unknown"
	}
}

// kindBehavior is what differs between the statement kinds. The relay and
// the coordinator are shared.
type kindBehavior struct {
	opcode   wire.Opcode
	failCode ResultCode
	// metaPayload builds the payload of the broadcast schema request.
	metaPayload func(pkg *Package, meta []byte) []byte
}

var kindBehaviors = map[Kind]kindBehavior{
	KindUpdate: {
		opcode:   wire.OpUpdate,
		failCode: UpdateError,
		metaPayload: func(pkg *Package, meta []byte) []byte {
			return wire.EncodeUpdateMeta(pkg.Payload, meta)
		},
	},
	KindDelete: {
		opcode:   wire.OpDelete,
		failCode: DeleteError,
		metaPayload: func(pkg *Package, meta []byte) []byte {
			return meta
		},
	},
	KindVacuum: {
		opcode:   wire.OpVacuumPartition,
		failCode: VacuumError,
		metaPayload: func(pkg *Package, meta []byte) []byte {
			var flags []byte
			if p := pkg.Partition; p != nil {
				flags = wire.TombstoneFlags(p.Deleted, p.Rows)
			}
			return wire.EncodeVacuumMeta(flags, meta)
		},
	},
}

func (k Kind) behavior() (kindBehavior, bool) {
	b, ok := kindBehaviors[k]
	return b, ok
}
