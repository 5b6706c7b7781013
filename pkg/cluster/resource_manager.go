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
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/matrixorigin/dmlproc/pkg/common/moerr"
	"github.com/matrixorigin/dmlproc/pkg/dmlservice"
	"github.com/matrixorigin/dmlproc/pkg/dmlservice/wire"
	"github.com/matrixorigin/dmlproc/pkg/logutil"
)

type tableLock struct {
	id      uint64
	tableID uint64
	nodes   []uint32
	owner   dmlservice.LockOwner
}

// Sequence is the state of an autoincrement sequence.
type Sequence struct {
	TableID uint64
	Column  string
	Next    uint64
	Width   uint32
	Type    dmlservice.ColumnType
}

type txnState uint8

const (
	txnActive txnState = iota
	txnCommitted
	txnRolledBack
)

// ResourceManager is the in-process resource manager of a cluster made
// of WriteEngines.
type ResourceManager struct {
	logger  *zap.Logger
	engines []*WriteEngine
	ids     atomic.Uint64

	mu struct {
		sync.Mutex
		readOnly  bool
		lastLock  uint64
		locks     map[uint64]*tableLock
		tables    map[uint64]uint64
		sequences map[uint64]Sequence
		txns      map[uint32]txnState
	}
}

var _ dmlservice.ResourceManager = (*ResourceManager)(nil)

// NewResourceManager creates a resource manager for the given engines.
func NewResourceManager(engines []*WriteEngine, logger *zap.Logger) *ResourceManager {
	rm := &ResourceManager{
		logger:  logutil.Adjust(logger).Named("resource-manager"),
		engines: engines,
	}
	rm.mu.locks = make(map[uint64]*tableLock)
	rm.mu.tables = make(map[uint64]uint64)
	rm.mu.sequences = make(map[uint64]Sequence)
	rm.mu.txns = make(map[uint32]txnState)
	return rm
}

// SetReadOnly switches the cluster between read only and read write.
func (rm *ResourceManager) SetReadOnly(readOnly bool) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.mu.readOnly = readOnly
}

func (rm *ResourceManager) IsReadWrite(ctx context.Context) error {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	if rm.mu.readOnly {
		return moerr.NewInvalidState(ctx, "cluster is read only")
	}
	return nil
}

func (rm *ResourceManager) UniqueID(ctx context.Context) (uint64, error) {
	return rm.ids.Add(1), nil
}

func (rm *ResourceManager) AcquireTableLock(
	ctx context.Context,
	nodes []uint32,
	tableID uint64,
	owner dmlservice.LockOwner) (uint64, dmlservice.LockOwner, error) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	if id, ok := rm.mu.tables[tableID]; ok {
		l := rm.mu.locks[id]
		if l.owner.ProcessID == owner.ProcessID && l.owner.SessionID == owner.SessionID {
			return id, l.owner, nil
		}
		return 0, l.owner, nil
	}

	rm.mu.lastLock++
	l := &tableLock{
		id:      rm.mu.lastLock,
		tableID: tableID,
		nodes:   append([]uint32(nil), nodes...),
		owner:   owner,
	}
	rm.mu.locks[l.id] = l
	rm.mu.tables[tableID] = l.id
	rm.logger.Debug("table locked",
		logutil.TableIDField(tableID),
		logutil.SessionIDField(owner.SessionID),
		zap.Uint64("lock-id", l.id))
	return l.id, owner, nil
}

func (rm *ResourceManager) ReleaseTableLock(ctx context.Context, lockID uint64) (bool, error) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	l, ok := rm.mu.locks[lockID]
	if !ok {
		return false, nil
	}
	delete(rm.mu.locks, lockID)
	delete(rm.mu.tables, l.tableID)
	return true, nil
}

// Holder returns the owner of the lock on a table.
func (rm *ResourceManager) Holder(tableID uint64) (dmlservice.LockOwner, bool) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	id, ok := rm.mu.tables[tableID]
	if !ok {
		return dmlservice.LockOwner{}, false
	}
	return rm.mu.locks[id].owner, true
}

func (rm *ResourceManager) StartAutoIncrementSequence(
	ctx context.Context,
	column dmlservice.Column,
	tableID uint64,
	nextValue uint64) error {
	if nextValue == 0 {
		return moerr.NewInvalidInput(ctx, "sequence of column %s starts at 0", column.Name)
	}
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.mu.sequences[column.ID] = Sequence{
		TableID: tableID,
		Column:  column.Name,
		Next:    nextValue,
		Width:   column.Width,
		Type:    column.Type,
	}
	return nil
}

// Sequence returns the autoincrement sequence of a column.
func (rm *ResourceManager) Sequence(columnID uint64) (Sequence, bool) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	s, ok := rm.mu.sequences[columnID]
	return s, ok
}

func (rm *ResourceManager) MarkRolledBack(ctx context.Context, txnID uint32) error {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.mu.txns[txnID] = txnRolledBack
	return nil
}

// RolledBack reports whether the transaction was marked rolled back.
func (rm *ResourceManager) RolledBack(txnID uint32) bool {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	return rm.mu.txns[txnID] == txnRolledBack
}

func (rm *ResourceManager) Flush(ctx context.Context, tableID uint64, uniqueID uint64, txnID uint32) error {
	req := wire.Request{
		Opcode:      wire.OpFlushDataFiles,
		OperationID: uniqueID,
		TxnID:       txnID,
	}
	data := req.Encode()
	for _, e := range rm.engines {
		resp, err := wire.DecodeResponse(e.Handle(data))
		if err != nil {
			return err
		}
		if resp.Status != wire.StatusOK {
			return moerr.NewWriteEngine(ctx, resp.NodeID, resp.Error)
		}
	}
	rm.logger.Debug("table flushed",
		logutil.TableIDField(tableID),
		logutil.UniqueIDField(uniqueID))
	return nil
}

func (rm *ResourceManager) Commit(ctx context.Context, uniqueID uint64, txnID uint32) error {
	rm.mu.Lock()
	if rm.mu.txns[txnID] == txnRolledBack {
		rm.mu.Unlock()
		return moerr.NewInvalidState(ctx, "transaction %d was rolled back", txnID)
	}
	rm.mu.txns[txnID] = txnCommitted
	rm.mu.Unlock()

	for _, e := range rm.engines {
		e.Commit(uniqueID)
	}
	return nil
}

func (rm *ResourceManager) Rollback(ctx context.Context, uniqueID uint64, txnID uint32) error {
	rm.mu.Lock()
	rm.mu.txns[txnID] = txnRolledBack
	rm.mu.Unlock()

	for _, e := range rm.engines {
		e.Rollback(uniqueID)
	}
	return nil
}
