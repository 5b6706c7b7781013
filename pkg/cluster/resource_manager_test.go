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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matrixorigin/dmlproc/pkg/common/moerr"
	"github.com/matrixorigin/dmlproc/pkg/dmlservice"
	"github.com/matrixorigin/dmlproc/pkg/dmlservice/wire"
	"github.com/matrixorigin/dmlproc/pkg/logutil"
)

func TestResourceManagerTableLocks(t *testing.T) {
	ctx := context.Background()
	rm := NewResourceManager(nil, logutil.GetPanicLogger())

	owner := dmlservice.LockOwner{ProcessName: "DMLProc", ProcessID: 1, SessionID: 5, TxnID: 9}
	other := dmlservice.LockOwner{ProcessName: "DDLProc", ProcessID: 2, SessionID: 6}

	id, _, err := rm.AcquireTableLock(ctx, []uint32{1, 2}, 100, owner)
	require.NoError(t, err)
	require.NotZero(t, id)

	again, _, err := rm.AcquireTableLock(ctx, []uint32{1, 2}, 100, owner)
	require.NoError(t, err)
	assert.Equal(t, id, again)

	denied, holder, err := rm.AcquireTableLock(ctx, []uint32{1, 2}, 100, other)
	require.NoError(t, err)
	assert.Zero(t, denied)
	assert.Equal(t, owner, holder)

	h, ok := rm.Holder(100)
	require.True(t, ok)
	assert.Equal(t, owner, h)

	released, err := rm.ReleaseTableLock(ctx, id)
	require.NoError(t, err)
	assert.True(t, released)
	released, err = rm.ReleaseTableLock(ctx, id)
	require.NoError(t, err)
	assert.False(t, released)
	_, ok = rm.Holder(100)
	assert.False(t, ok)

	id2, _, err := rm.AcquireTableLock(ctx, nil, 100, other)
	require.NoError(t, err)
	assert.NotEqual(t, id, id2)
}

func TestResourceManagerIDs(t *testing.T) {
	ctx := context.Background()
	rm := NewResourceManager(nil, nil)
	seen := make(map[uint64]bool)
	for i := 0; i < 100; i++ {
		id, err := rm.UniqueID(ctx)
		require.NoError(t, err)
		require.False(t, seen[id])
		seen[id] = true
	}
}

func TestResourceManagerReadOnly(t *testing.T) {
	ctx := context.Background()
	rm := NewResourceManager(nil, nil)
	require.NoError(t, rm.IsReadWrite(ctx))
	rm.SetReadOnly(true)
	assert.Error(t, rm.IsReadWrite(ctx))
	rm.SetReadOnly(false)
	require.NoError(t, rm.IsReadWrite(ctx))
}

func TestResourceManagerSequences(t *testing.T) {
	ctx := context.Background()
	rm := NewResourceManager(nil, nil)

	col := testColumns[0]
	require.NoError(t, rm.StartAutoIncrementSequence(ctx, col, 3, 17))
	s, ok := rm.Sequence(col.ID)
	require.True(t, ok)
	assert.Equal(t, Sequence{TableID: 3, Column: "id", Next: 17, Width: 8, Type: dmlservice.ColumnTypeBigInt}, s)

	err := rm.StartAutoIncrementSequence(ctx, col, 3, 0)
	assert.True(t, moerr.IsMoErrCode(err, moerr.ErrInvalidInput))

	_, ok = rm.Sequence(99)
	assert.False(t, ok)
}

func TestResourceManagerTransactions(t *testing.T) {
	ctx := context.Background()
	e1 := newTestEngine(4)
	e2 := NewWriteEngine(2, logutil.GetPanicLogger())
	rm := NewResourceManager([]*WriteEngine{e1, e2}, nil)

	send(t, e1, schemaRequest(wire.OpDelete, 1, nil))
	send(t, e1, dataRequest(t, wire.OpDelete, 1, 0, 2, false))

	require.NoError(t, rm.Flush(ctx, 1, 1, 3))
	assert.Equal(t, uint64(1), e1.Flushed())
	assert.Equal(t, uint64(1), e2.Flushed())

	require.NoError(t, rm.Commit(ctx, 1, 3))
	assert.Equal(t, 0, e1.Pending())
	assert.Equal(t, []uint64{2, 3}, e1.Rows("db", "t"))
	assert.False(t, rm.RolledBack(3))

	send(t, e1, schemaRequest(wire.OpDelete, 2, nil))
	send(t, e1, dataRequest(t, wire.OpDelete, 2, 2, 2, false))
	require.NoError(t, rm.Rollback(ctx, 2, 4))
	assert.Equal(t, []uint64{2, 3}, e1.Rows("db", "t"))
	assert.True(t, rm.RolledBack(4))

	err := rm.Commit(ctx, 5, 4)
	assert.True(t, moerr.IsMoErrCode(err, moerr.ErrInvalidState))

	require.NoError(t, rm.MarkRolledBack(ctx, 6))
	assert.True(t, rm.RolledBack(6))
}

func TestResourceManagerFlushFailure(t *testing.T) {
	ctx := context.Background()
	e1 := newTestEngine(1)
	e2 := NewWriteEngine(2, logutil.GetPanicLogger())
	e2.Inject(Fault{Status: 4, Message: "no space", OnFlush: true})
	rm := NewResourceManager([]*WriteEngine{e1, e2}, nil)

	err := rm.Flush(ctx, 1, 1, 1)
	require.Error(t, err)
	assert.True(t, moerr.IsMoErrCode(err, moerr.ErrWriteEngine))
	assert.Contains(t, err.Error(), "no space")
}
