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
	"errors"
	"sync"

	"github.com/matrixorigin/dmlproc/pkg/dmlservice/wire"
)

// fakeExecutor replays a scripted query-execution service.
type fakeExecutor struct {
	sync.Mutex
	handshake []byte
	diag      []byte
	schema    []byte
	batches   [][]byte
	stats     wire.QueryStats
	// beforeRead is called before every read with the number of reads
	// done so far.
	beforeRead func(n int)

	expectPlan bool
	plan       []byte
	codes      []uint32
	queue      [][]byte
	reads      int
}

func newFakeExecutor(batches ...wire.RowGroup) *fakeExecutor {
	e := &fakeExecutor{
		handshake: wire.EncodeCode(0),
		diag:      wire.EncodeString(""),
		schema:    []byte("schema"),
		stats:     wire.QueryStats{Query: "q", Extended: "e", Mini: "m"},
	}
	for _, b := range batches {
		e.batches = append(e.batches, b.Encode())
	}
	return e
}

func (e *fakeExecutor) Write(ctx context.Context, data []byte) error {
	e.Lock()
	defer e.Unlock()
	if e.expectPlan {
		e.plan = data
		e.expectPlan = false
		return nil
	}
	code, err := wire.DecodeCode(data)
	if err != nil {
		return err
	}
	e.codes = append(e.codes, code)
	switch code {
	case wire.CodeBegin:
		e.expectPlan = true
		e.queue = append(e.queue, e.handshake)
		if code, err := wire.DecodeCode(e.handshake); err == nil && code == 0 {
			e.queue = append(e.queue, e.diag, e.schema)
		}
	case wire.CodeContinue:
		e.queue = append(e.queue, e.batches...)
	case wire.CodeStats:
		e.queue = append(e.queue, e.stats.Encode())
	}
	return nil
}

func (e *fakeExecutor) Read(ctx context.Context) ([]byte, error) {
	e.Lock()
	n := e.reads
	e.reads++
	hook := e.beforeRead
	e.Unlock()
	if hook != nil {
		hook(n)
	}

	e.Lock()
	defer e.Unlock()
	if len(e.queue) == 0 {
		return nil, nil
	}
	v := e.queue[0]
	e.queue = e.queue[1:]
	return v, nil
}

func (e *fakeExecutor) writtenCodes() []uint32 {
	e.Lock()
	defer e.Unlock()
	return append([]uint32(nil), e.codes...)
}

type sentRequest struct {
	node uint32
	req  wire.Request
}

// fakeFabric answers every request at once, in send order, and checks
// the pipelining rules while doing so.
type fakeFabric struct {
	sync.Mutex
	nodes []uint32

	// held nodes answer only when nothing else is pending.
	held map[uint32]bool
	// failNode answers data batches with an error.
	failNode map[uint32]string
	// failSchema answers the schema broadcast with an error.
	failSchema map[uint32]string
	warnNode   map[uint32]string
	// lostNode answers with a zero length message.
	lostNode map[uint32]bool

	open       map[uint64]bool
	opened     map[uint64]int
	closed     map[uint64]int
	queue      [][]byte
	heldQueue  [][]byte
	schemaWait map[uint32]bool
	schemaAck  map[uint32]bool
	inflight   map[uint32]int

	maxInflight       int
	dataBeforeSchema  bool
	outstandingAtShut int
	sent              []sentRequest
	broadcasts        []wire.Request
	recvs             int
}

func newFakeFabric(nodes ...uint32) *fakeFabric {
	return &fakeFabric{
		nodes:      nodes,
		held:       map[uint32]bool{},
		failNode:   map[uint32]string{},
		failSchema: map[uint32]string{},
		warnNode:   map[uint32]string{},
		lostNode:   map[uint32]bool{},
		open:       map[uint64]bool{},
		opened:     map[uint64]int{},
		closed:     map[uint64]int{},
		schemaWait: map[uint32]bool{},
		schemaAck:  map[uint32]bool{},
		inflight:   map[uint32]int{},
	}
}

func (f *fakeFabric) OpenMailbox(id uint64) {
	f.Lock()
	defer f.Unlock()
	f.open[id] = true
	f.opened[id]++
}

func (f *fakeFabric) CloseMailbox(id uint64) {
	f.Lock()
	defer f.Unlock()
	delete(f.open, id)
	f.closed[id]++
	for _, n := range f.inflight {
		f.outstandingAtShut += n
	}
	f.queue = nil
	f.heldQueue = nil
}

func (f *fakeFabric) SendOne(ctx context.Context, data []byte, node uint32) error {
	req, err := wire.DecodeRequest(data)
	if err != nil {
		return err
	}
	f.Lock()
	defer f.Unlock()
	if !f.open[req.OperationID] {
		return errors.New("mailbox not open")
	}
	if !f.schemaAck[node] {
		f.dataBeforeSchema = true
	}
	f.sent = append(f.sent, sentRequest{node: node, req: req})
	f.inflight[node]++
	if f.inflight[node] > f.maxInflight {
		f.maxInflight = f.inflight[node]
	}

	resp := wire.Response{Status: wire.StatusOK, NodeID: node, BlocksChanged: 1}
	if msg, ok := f.failNode[node]; ok {
		resp = wire.Response{Status: 5, Error: msg, NodeID: node}
	} else if msg, ok := f.warnNode[node]; ok {
		resp = wire.Response{Status: wire.StatusRangeWarning, Error: msg, NodeID: node, BlocksChanged: 1}
	}
	f.respond(node, resp)
	return nil
}

func (f *fakeFabric) Broadcast(ctx context.Context, data []byte) error {
	req, err := wire.DecodeRequest(data)
	if err != nil {
		return err
	}
	f.Lock()
	defer f.Unlock()
	if !f.open[req.OperationID] {
		return errors.New("mailbox not open")
	}
	f.broadcasts = append(f.broadcasts, req)
	for _, node := range f.nodes {
		f.schemaWait[node] = true
		resp := wire.Response{Status: wire.StatusOK, NodeID: node}
		if msg, ok := f.failSchema[node]; ok {
			resp = wire.Response{Status: 6, Error: msg, NodeID: node}
		}
		f.respond(node, resp)
	}
	return nil
}

func (f *fakeFabric) respond(node uint32, resp wire.Response) {
	data := resp.Encode()
	if f.lostNode[node] {
		data = []byte{}
	}
	if f.held[node] {
		f.heldQueue = append(f.heldQueue, data)
		return
	}
	f.queue = append(f.queue, data)
}

func (f *fakeFabric) Recv(ctx context.Context, id uint64) ([]byte, error) {
	f.Lock()
	defer f.Unlock()
	if !f.open[id] {
		return nil, errors.New("mailbox not open")
	}
	f.recvs++
	if len(f.queue) == 0 {
		if len(f.heldQueue) == 0 {
			return nil, errors.New("no response pending")
		}
		f.queue, f.heldQueue = f.heldQueue, nil
	}
	data := f.queue[0]
	f.queue = f.queue[1:]
	if len(data) == 0 {
		return data, nil
	}
	resp, err := wire.DecodeResponse(data)
	if err != nil {
		return nil, err
	}
	if f.schemaWait[resp.NodeID] {
		delete(f.schemaWait, resp.NodeID)
		f.schemaAck[resp.NodeID] = true
	} else {
		f.inflight[resp.NodeID]--
	}
	return data, nil
}

func (f *fakeFabric) NodeCount() int {
	return len(f.nodes)
}

func (f *fakeFabric) recvCount() int {
	f.Lock()
	defer f.Unlock()
	return f.recvs
}

// fakeResource grants the table lock after busyAttempts failed
// attempts, or never when busyAttempts is negative.
type fakeResource struct {
	sync.Mutex
	busyAttempts int
	holder       LockOwner
	readOnly     error
	uniqueErr    error
	flushErr     error
	commitErr    error
	autoIncErr   error

	nextID     uint64
	lockCalls  int
	lockOwners []LockOwner
	lockNodes  [][]uint32
	released   []uint64
	primed     []Column
	primedNext []uint64
	marked     []uint32
	flushes    int
	commits    int
	rollbacks  int
}

func (r *fakeResource) IsReadWrite(ctx context.Context) error {
	return r.readOnly
}

func (r *fakeResource) UniqueID(ctx context.Context) (uint64, error) {
	r.Lock()
	defer r.Unlock()
	if r.uniqueErr != nil {
		return 0, r.uniqueErr
	}
	r.nextID++
	return 1000 + r.nextID, nil
}

func (r *fakeResource) AcquireTableLock(ctx context.Context, nodes []uint32, tableID uint64, owner LockOwner) (uint64, LockOwner, error) {
	r.Lock()
	defer r.Unlock()
	r.lockCalls++
	r.lockOwners = append(r.lockOwners, owner)
	r.lockNodes = append(r.lockNodes, nodes)
	if r.busyAttempts < 0 || r.lockCalls <= r.busyAttempts {
		return 0, r.holder, nil
	}
	return 500 + tableID, owner, nil
}

func (r *fakeResource) ReleaseTableLock(ctx context.Context, lockID uint64) (bool, error) {
	r.Lock()
	defer r.Unlock()
	r.released = append(r.released, lockID)
	return true, nil
}

func (r *fakeResource) StartAutoIncrementSequence(ctx context.Context, column Column, tableID uint64, nextValue uint64) error {
	r.Lock()
	defer r.Unlock()
	if r.autoIncErr != nil {
		return r.autoIncErr
	}
	r.primed = append(r.primed, column)
	r.primedNext = append(r.primedNext, nextValue)
	return nil
}

func (r *fakeResource) MarkRolledBack(ctx context.Context, txnID uint32) error {
	r.Lock()
	defer r.Unlock()
	r.marked = append(r.marked, txnID)
	return nil
}

func (r *fakeResource) Flush(ctx context.Context, tableID uint64, uniqueID uint64, txnID uint32) error {
	r.Lock()
	defer r.Unlock()
	r.flushes++
	return r.flushErr
}

func (r *fakeResource) Commit(ctx context.Context, uniqueID uint64, txnID uint32) error {
	r.Lock()
	defer r.Unlock()
	r.commits++
	return r.commitErr
}

func (r *fakeResource) Rollback(ctx context.Context, uniqueID uint64, txnID uint32) error {
	r.Lock()
	defer r.Unlock()
	r.rollbacks++
	return nil
}

type fakeCatalog struct {
	tables   map[string]uint64
	columns  map[uint64][]Column
	next     uint64
	colCalls int
}

func (c *fakeCatalog) ResolveTable(ctx context.Context, schema, table string) (uint64, error) {
	id, ok := c.tables[schema+"."+table]
	if !ok {
		return 0, errors.New("no such table")
	}
	return id, nil
}

func (c *fakeCatalog) Columns(ctx context.Context, tableID uint64) ([]Column, error) {
	c.colCalls++
	return c.columns[tableID], nil
}

func (c *fakeCatalog) NextAutoIncrementValue(ctx context.Context, tableID uint64) (uint64, error) {
	return c.next, nil
}

type fakeMembership struct {
	nodes []uint32
	roots map[uint32]uint32
	// panicOnNodeOf makes NodeOf panic.
	panicOnNodeOf bool
}

func (m *fakeMembership) ParticipatingNodes(ctx context.Context) ([]uint32, error) {
	return m.nodes, nil
}

func (m *fakeMembership) NodeOf(dbRoot uint32) (uint32, bool) {
	if m.panicOnNodeOf {
		panic("membership table corrupted")
	}
	n, ok := m.roots[dbRoot]
	return n, ok
}

// dataBatch builds a row group for dbroot root, which the test
// membership maps to the node with the same id.
func dataBatch(root uint32, baseRID uint64, rows uint32) wire.RowGroup {
	return wire.RowGroup{RowCount: rows, BaseRID: baseRID, DBRoot: root, Data: []byte{byte(rows)}}
}

func endBatch() wire.RowGroup {
	return wire.RowGroup{}
}
