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
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/matrixorigin/dmlproc/pkg/common/moerr"
	"github.com/matrixorigin/dmlproc/pkg/dmlservice"
	"github.com/matrixorigin/dmlproc/pkg/dmlservice/wire"
	"github.com/matrixorigin/dmlproc/pkg/logutil"
)

const (
	defaultPoolSize    = 64
	defaultMailboxSize = 1024
)

// Handler serves the requests sent to one write engine.
type Handler interface {
	Handle(data []byte) []byte
}

// FabricOption is used to set up the Fabric.
type FabricOption func(*Fabric)

// WithFabricLogger sets the logger of the fabric.
func WithFabricLogger(logger *zap.Logger) FabricOption {
	return func(f *Fabric) {
		f.logger = logger
	}
}

// WithFabricPoolSize sets how many requests are served concurrently.
func WithFabricPoolSize(size int) FabricOption {
	return func(f *Fabric) {
		f.options.poolSize = size
	}
}

// WithFabricMailboxSize sets how many responses a mailbox buffers.
func WithFabricMailboxSize(size int) FabricOption {
	return func(f *Fabric) {
		f.options.mailboxSize = size
	}
}

// Fabric is an in-process node messaging fabric. Requests are served by
// a goroutine pool and responses are routed into the mailbox named by
// the request's operation id.
type Fabric struct {
	logger *zap.Logger
	pool   *ants.Pool

	options struct {
		poolSize    int
		mailboxSize int
	}

	mu struct {
		sync.RWMutex
		nodes     map[uint32]Handler
		lost      map[uint32]bool
		mailboxes map[uint64]chan []byte
	}
}

var _ dmlservice.Fabric = (*Fabric)(nil)

// NewFabric creates a fabric without any write engine.
func NewFabric(opts ...FabricOption) (*Fabric, error) {
	f := &Fabric{}
	for _, opt := range opts {
		opt(f)
	}
	f.adjust()

	pool, err := ants.NewPool(f.options.poolSize, ants.WithExpiryDuration(time.Second))
	if err != nil {
		return nil, moerr.ConvertGoError(context.Background(), err)
	}
	f.pool = pool
	f.mu.nodes = make(map[uint32]Handler)
	f.mu.lost = make(map[uint32]bool)
	f.mu.mailboxes = make(map[uint64]chan []byte)
	return f, nil
}

func (f *Fabric) adjust() {
	f.logger = logutil.Adjust(f.logger).Named("fabric")
	if f.options.poolSize == 0 {
		f.options.poolSize = defaultPoolSize
	}
	if f.options.mailboxSize == 0 {
		f.options.mailboxSize = defaultMailboxSize
	}
}

// Register attaches a write engine to the fabric.
func (f *Fabric) Register(node uint32, h Handler) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mu.nodes[node] = h
	delete(f.mu.lost, node)
}

// Disconnect makes every later response of the node arrive as a zero
// length message, the way a dropped connection looks to a reader.
func (f *Fabric) Disconnect(node uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mu.lost[node] = true
}

func (f *Fabric) OpenMailbox(id uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.mu.mailboxes[id]; ok {
		f.logger.Error("mailbox already open", logutil.UniqueIDField(id))
		return
	}
	f.mu.mailboxes[id] = make(chan []byte, f.options.mailboxSize)
}

func (f *Fabric) CloseMailbox(id uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.mu.mailboxes[id]
	if !ok {
		return
	}
	delete(f.mu.mailboxes, id)
	if n := len(ch); n > 0 {
		f.logger.Warn("mailbox closed with unread responses",
			logutil.UniqueIDField(id),
			zap.Int("responses", n))
	}
}

func (f *Fabric) SendOne(ctx context.Context, data []byte, node uint32) error {
	f.mu.RLock()
	h, ok := f.mu.nodes[node]
	f.mu.RUnlock()
	if !ok {
		return moerr.NewLostConnection(ctx, fmt.Sprintf("write engine %d", node), "sending a request")
	}
	id, err := wire.PeekOperationID(data)
	if err != nil {
		return err
	}
	return f.pool.Submit(func() {
		resp := h.Handle(data)
		f.deliver(node, id, resp)
	})
}

func (f *Fabric) Broadcast(ctx context.Context, data []byte) error {
	for _, node := range f.Nodes() {
		if err := f.SendOne(ctx, data, node); err != nil {
			return err
		}
	}
	return nil
}

func (f *Fabric) Recv(ctx context.Context, id uint64) ([]byte, error) {
	f.mu.RLock()
	ch, ok := f.mu.mailboxes[id]
	f.mu.RUnlock()
	if !ok {
		return nil, moerr.NewInvalidState(ctx, "mailbox %d is not open", id)
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case data := <-ch:
		return data, nil
	}
}

func (f *Fabric) NodeCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.mu.nodes)
}

// Nodes returns the registered write engines, ascending.
func (f *Fabric) Nodes() []uint32 {
	f.mu.RLock()
	nodes := make([]uint32, 0, len(f.mu.nodes))
	for id := range f.mu.nodes {
		nodes = append(nodes, id)
	}
	f.mu.RUnlock()
	sort.Slice(nodes, func(i, j int) bool { return nodes[i] < nodes[j] })
	return nodes
}

// Close stops serving requests.
func (f *Fabric) Close() error {
	f.pool.Release()
	return nil
}

func (f *Fabric) deliver(node uint32, id uint64, resp []byte) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.mu.lost[node] {
		resp = []byte{}
	}
	ch, ok := f.mu.mailboxes[id]
	if !ok {
		f.logger.Debug("drop response for a closed mailbox",
			logutil.NodeIDField(node),
			logutil.UniqueIDField(id))
		return
	}
	select {
	case ch <- resp:
	default:
		f.logger.Error("mailbox full, drop response",
			logutil.NodeIDField(node),
			logutil.UniqueIDField(id))
	}
}
