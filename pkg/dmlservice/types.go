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
	"context"
	"sync/atomic"

	"github.com/RoaringBitmap/roaring"
)

// Service runs update, delete and vacuum statements against the write
// engines of the cluster.
type Service interface {
	// Execute runs one statement to completion and returns its outcome.
	// Errors are reported in the Result, never as a panic.
	Execute(ctx context.Context, pkg *Package, exe QueryExecutor, cancel *CancelToken) Result
	// EndSession releases every table lock cached for the session and
	// forgets the session.
	EndSession(ctx context.Context, sessionID uint32) error
}

// QueryExecutor is the connection of one session to the query-execution
// service. Messages are read in the order they were produced.
type QueryExecutor interface {
	// Write sends one message.
	Write(ctx context.Context, data []byte) error
	// Read returns the next message. A zero length message means the
	// connection was lost.
	Read(ctx context.Context) ([]byte, error)
}

// Fabric delivers requests to write engines and collects their
// responses into per operation mailboxes.
type Fabric interface {
	// OpenMailbox starts collecting responses tagged with id.
	OpenMailbox(id uint64)
	// CloseMailbox discards the mailbox and any response still in it.
	CloseMailbox(id uint64)
	// SendOne sends data to a single write engine.
	SendOne(ctx context.Context, data []byte, node uint32) error
	// Broadcast sends data to every write engine.
	Broadcast(ctx context.Context, data []byte) error
	// Recv blocks until the next response for id arrives. A zero length
	// response means a write engine connection was lost.
	Recv(ctx context.Context, id uint64) ([]byte, error)
	// NodeCount returns the number of write engines a broadcast reaches.
	NodeCount() int
}

// LockOwner identifies who holds, or asks for, a table lock.
type LockOwner struct {
	ProcessName string
	ProcessID   int
	SessionID   uint32
	TxnID       uint32
}

// ColumnType is the storage type of an autoincrement column.
type ColumnType uint8

const (
	ColumnTypeInt ColumnType = iota + 1
	ColumnTypeBigInt
	ColumnTypeUnsignedInt
	ColumnTypeUnsignedBigInt
)

// Column is the catalog description of a table column.
type Column struct {
	ID            uint64
	Name          string
	AutoIncrement bool
	Width         uint32
	Type          ColumnType
}

// ResourceManager owns cluster wide ids, table locks, autoincrement
// sequences and transaction state.
type ResourceManager interface {
	// IsReadWrite returns an error when the cluster refuses writes.
	IsReadWrite(ctx context.Context) error
	// UniqueID allocates a cluster wide unique operation id.
	UniqueID(ctx context.Context) (uint64, error)
	// AcquireTableLock tries once to lock the table for owner on the given
	// nodes. A zero lock id means the lock is held by someone else, who is
	// returned as holder.
	AcquireTableLock(ctx context.Context, nodes []uint32, tableID uint64, owner LockOwner) (lockID uint64, holder LockOwner, err error)
	// ReleaseTableLock releases a lock. It reports false when the lock
	// was not held.
	ReleaseTableLock(ctx context.Context, lockID uint64) (bool, error)
	// StartAutoIncrementSequence seeds the sequence of a column.
	StartAutoIncrementSequence(ctx context.Context, column Column, tableID uint64, nextValue uint64) error
	// MarkRolledBack records that the transaction must not commit.
	MarkRolledBack(ctx context.Context, txnID uint32) error
	// Flush makes the table's changes of the operation durable on every
	// write engine.
	Flush(ctx context.Context, tableID uint64, uniqueID uint64, txnID uint32) error
	Commit(ctx context.Context, uniqueID uint64, txnID uint32) error
	Rollback(ctx context.Context, uniqueID uint64, txnID uint32) error
}

// Catalog resolves tables and their columns.
type Catalog interface {
	ResolveTable(ctx context.Context, schema, table string) (uint64, error)
	Columns(ctx context.Context, tableID uint64) ([]Column, error)
	NextAutoIncrementValue(ctx context.Context, tableID uint64) (uint64, error)
}

// Membership knows the write engines taking part in the cluster.
type Membership interface {
	// ParticipatingNodes returns the ids of the write engines, ascending.
	ParticipatingNodes(ctx context.Context) ([]uint32, error)
	// NodeOf returns the write engine that owns a partition root.
	NodeOf(dbRoot uint32) (uint32, bool)
}

// Partition describes the partition a vacuum statement compacts.
type Partition struct {
	DBRoot    uint32
	Partition uint32
	Segment   uint32
	// Rows is the number of row slots of the partition.
	Rows uint32
	// Deleted holds the row slots marked deleted.
	Deleted *roaring.Bitmap
}

// Package is one statement as handed over by the front end.
type Package struct {
	Kind      Kind
	SessionID uint32
	TxnID     uint32
	Schema    string
	Table     string
	// SQL is the statement text, used for logging only.
	SQL string
	// Plan is the serialized execution plan for the query-execution
	// service.
	Plan []byte
	// Payload is the serialized statement shipped to the write engines
	// by update statements.
	Payload []byte
	// Partition is only set for vacuum statements.
	Partition *Partition
}

// CancelToken is a flag the front end sets to stop a running statement.
// The statement notices it between batches.
type CancelToken struct {
	canceled atomic.Bool
}

func (c *CancelToken) Cancel() {
	c.canceled.Store(true)
}

func (c *CancelToken) Canceled() bool {
	return c != nil && c.canceled.Load()
}
