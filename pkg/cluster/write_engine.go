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

package cluster

import (
	"fmt"
	"sync"

	"github.com/RoaringBitmap/roaring"
	"github.com/google/btree"
	"go.uber.org/zap"

	"github.com/matrixorigin/dmlproc/pkg/dmlservice/wire"
	"github.com/matrixorigin/dmlproc/pkg/logutil"
)

const (
	// rowsPerBlock is how many rows a write engine stores in one block.
	rowsPerBlock = 8192

	statusBadRequest uint8 = 1
	statusUnknownOp  uint8 = 2
)

type row struct {
	rid     uint64
	version uint32
}

func (r row) Less(than btree.Item) bool {
	return r.rid < than.(row).rid
}

type undo struct {
	table  string
	before row
}

type engineOp struct {
	opcode     wire.Opcode
	txnID      uint32
	table      string
	statement  []byte
	tombstones *roaring.Bitmap
	undo       []undo
}

// Fault makes a write engine fail the next data batch it receives, or
// the next flush when OnFlush is set.
type Fault struct {
	Status  uint8
	Message string
	OnFlush bool
}

// WriteEngine is an in-process write engine. Rows are ordered by row id
// per table; every change is undoable until the operation is committed.
type WriteEngine struct {
	id     uint32
	logger *zap.Logger

	mu struct {
		sync.Mutex
		tables  map[string]*btree.BTree
		ops     map[uint64]*engineOp
		dirty   map[string]bool
		faults      []Fault
		flushFaults []Fault
		flushed     uint64
	}
}

// NewWriteEngine creates an empty write engine.
func NewWriteEngine(id uint32, logger *zap.Logger) *WriteEngine {
	w := &WriteEngine{
		id:     id,
		logger: logutil.Adjust(logger).Named("write-engine").With(logutil.NodeIDField(id)),
	}
	w.mu.tables = make(map[string]*btree.BTree)
	w.mu.ops = make(map[uint64]*engineOp)
	w.mu.dirty = make(map[string]bool)
	return w
}

func (w *WriteEngine) ID() uint32 {
	return w.id
}

// Load stores rows of a table with version 0.
func (w *WriteEngine) Load(schema, table string, rids ...uint64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	t := w.tableLocked(tableKey(schema, table))
	for _, rid := range rids {
		t.ReplaceOrInsert(row{rid: rid})
	}
}

// Rows returns the row ids of a table, ascending.
func (w *WriteEngine) Rows(schema, table string) []uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	t, ok := w.mu.tables[tableKey(schema, table)]
	if !ok {
		return nil
	}
	rids := make([]uint64, 0, t.Len())
	t.Ascend(func(i btree.Item) bool {
		rids = append(rids, i.(row).rid)
		return true
	})
	return rids
}

// Version returns how many times a row was updated.
func (w *WriteEngine) Version(schema, table string, rid uint64) (uint32, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	t, ok := w.mu.tables[tableKey(schema, table)]
	if !ok {
		return 0, false
	}
	i := t.Get(row{rid: rid})
	if i == nil {
		return 0, false
	}
	return i.(row).version, true
}

// Inject queues a fault for a later data batch.
func (w *WriteEngine) Inject(f Fault) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if f.OnFlush {
		w.mu.flushFaults = append(w.mu.flushFaults, f)
		return
	}
	w.mu.faults = append(w.mu.faults, f)
}

// Flushed returns how many flush requests the engine served.
func (w *WriteEngine) Flushed() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.mu.flushed
}

// Pending returns how many operations are neither committed nor rolled
// back.
func (w *WriteEngine) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.mu.ops)
}

// Handle serves one encoded request and returns the encoded response.
func (w *WriteEngine) Handle(data []byte) []byte {
	return w.handle(data).Encode()
}

func (w *WriteEngine) handle(data []byte) wire.Response {
	req, err := wire.DecodeRequest(data)
	if err != nil {
		return w.failed(statusBadRequest, err.Error())
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if req.Opcode == wire.OpFlushDataFiles {
		return w.flushLocked(req)
	}
	op, ok := w.mu.ops[req.OperationID]
	if !ok {
		return w.beginLocked(req)
	}
	return w.applyLocked(op, req)
}

// beginLocked handles the schema batch, the first request of an
// operation.
func (w *WriteEngine) beginLocked(req wire.Request) wire.Response {
	op := &engineOp{
		opcode: req.Opcode,
		txnID:  req.TxnID,
		table:  tableKey(req.Schema, req.Table),
	}
	var err error
	switch req.Opcode {
	case wire.OpDelete:
	case wire.OpUpdate:
		op.statement, _, err = wire.DecodeUpdateMeta(req.Payload)
	case wire.OpVacuumPartition:
		op.tombstones, _, err = wire.DecodeVacuumMeta(req.Payload)
	default:
		return w.failed(statusUnknownOp, fmt.Sprintf("unknown operation %s", req.Opcode))
	}
	if err != nil {
		return w.failed(statusBadRequest, err.Error())
	}
	w.mu.ops[req.OperationID] = op
	w.logger.Debug("operation started",
		zap.Stringer("opcode", req.Opcode),
		logutil.UniqueIDField(req.OperationID),
		logutil.TxnIDField(req.TxnID))
	return wire.Response{NodeID: w.id}
}

func (w *WriteEngine) applyLocked(op *engineOp, req wire.Request) wire.Response {
	payload, err := wire.DecodeFrame(req.Payload)
	if err != nil {
		return w.failed(statusBadRequest, err.Error())
	}
	g, err := wire.DecodeRowGroup(payload)
	if err != nil {
		return w.failed(statusBadRequest, err.Error())
	}

	var fault *Fault
	if len(w.mu.faults) > 0 {
		f := w.mu.faults[0]
		w.mu.faults = w.mu.faults[1:]
		fault = &f
	}
	if fault != nil && fault.Status != wire.StatusRangeWarning {
		return w.failed(fault.Status, fault.Message)
	}

	t := w.tableLocked(op.table)
	first, last := g.RIDs()
	for rid := first; rid <= last; rid++ {
		i := t.Get(row{rid: rid})
		if i == nil {
			continue
		}
		r := i.(row)
		switch op.opcode {
		case wire.OpUpdate:
			op.undo = append(op.undo, undo{table: op.table, before: r})
			r.version++
			t.ReplaceOrInsert(r)
		case wire.OpDelete:
			op.undo = append(op.undo, undo{table: op.table, before: r})
			t.Delete(r)
		case wire.OpVacuumPartition:
			if op.tombstones.Contains(uint32(rid)) {
				op.undo = append(op.undo, undo{table: op.table, before: r})
				t.Delete(r)
			}
		}
	}
	w.mu.dirty[op.table] = true

	resp := wire.Response{
		NodeID:        w.id,
		BlocksChanged: blocksChanged(first, last),
	}
	if fault != nil {
		resp.Status = fault.Status
		resp.Error = fault.Message
	}
	return resp
}

func (w *WriteEngine) flushLocked(req wire.Request) wire.Response {
	if len(w.mu.flushFaults) > 0 {
		f := w.mu.flushFaults[0]
		w.mu.flushFaults = w.mu.flushFaults[1:]
		return w.failed(f.Status, f.Message)
	}
	w.mu.flushed++
	if op, ok := w.mu.ops[req.OperationID]; ok {
		delete(w.mu.dirty, op.table)
	}
	return wire.Response{NodeID: w.id}
}

// Commit forgets the undo log of an operation.
func (w *WriteEngine) Commit(id uint64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.mu.ops, id)
}

// Rollback reverts every change made by an operation.
func (w *WriteEngine) Rollback(id uint64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	op, ok := w.mu.ops[id]
	if !ok {
		return
	}
	delete(w.mu.ops, id)
	for i := len(op.undo) - 1; i >= 0; i-- {
		u := op.undo[i]
		w.tableLocked(u.table).ReplaceOrInsert(u.before)
	}
	if len(op.undo) > 0 {
		w.logger.Info("operation rolled back",
			logutil.UniqueIDField(id),
			zap.Int("rows", len(op.undo)))
	}
}

func (w *WriteEngine) tableLocked(key string) *btree.BTree {
	t, ok := w.mu.tables[key]
	if !ok {
		t = btree.New(32)
		w.mu.tables[key] = t
	}
	return t
}

func (w *WriteEngine) failed(status uint8, msg string) wire.Response {
	w.logger.Error("request failed",
		zap.Uint8("status", status),
		zap.String("error", msg))
	return wire.Response{Status: status, Error: msg, NodeID: w.id}
}

func blocksChanged(first, last uint64) uint64 {
	return last/rowsPerBlock - first/rowsPerBlock + 1
}

func tableKey(schema, table string) string {
	return schema + "." + table
}
