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
	"time"

	"github.com/lni/goutils/leaktest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matrixorigin/dmlproc/pkg/common/moerr"
	"github.com/matrixorigin/dmlproc/pkg/dmlservice/wire"
	"github.com/matrixorigin/dmlproc/pkg/logutil"
)

type echoHandler struct {
	node uint32
}

func (h echoHandler) Handle(data []byte) []byte {
	return wire.Response{NodeID: h.node}.Encode()
}

func newTestFabric(t *testing.T, nodes ...uint32) *Fabric {
	f, err := NewFabric(
		WithFabricLogger(logutil.GetPanicLogger()),
		WithFabricPoolSize(4),
		WithFabricMailboxSize(16))
	require.NoError(t, err)
	for _, n := range nodes {
		f.Register(n, echoHandler{node: n})
	}
	return f
}

func testRequest(id uint64, node uint32) []byte {
	return wire.Request{Opcode: wire.OpDelete, OperationID: id, NodeID: node}.Encode()
}

func recvResponse(t *testing.T, f *Fabric, id uint64) wire.Response {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	data, err := f.Recv(ctx, id)
	require.NoError(t, err)
	resp, err := wire.DecodeResponse(data)
	require.NoError(t, err)
	return resp
}

func TestFabricRoutesByOperationID(t *testing.T) {
	defer leaktest.AfterTest(t)()
	f := newTestFabric(t, 3, 1, 2)
	defer f.Close()

	assert.Equal(t, 3, f.NodeCount())
	assert.Equal(t, []uint32{1, 2, 3}, f.Nodes())

	f.OpenMailbox(10)
	f.OpenMailbox(20)
	defer f.CloseMailbox(10)
	defer f.CloseMailbox(20)

	ctx := context.Background()
	require.NoError(t, f.SendOne(ctx, testRequest(20, 2), 2))
	assert.Equal(t, uint32(2), recvResponse(t, f, 20).NodeID)

	require.NoError(t, f.Broadcast(ctx, testRequest(10, wire.BroadcastNodeID)))
	seen := map[uint32]bool{}
	for i := 0; i < 3; i++ {
		seen[recvResponse(t, f, 10).NodeID] = true
	}
	assert.Equal(t, map[uint32]bool{1: true, 2: true, 3: true}, seen)
}

func TestFabricDisconnect(t *testing.T) {
	defer leaktest.AfterTest(t)()
	f := newTestFabric(t, 1, 2)
	defer f.Close()

	f.OpenMailbox(1)
	defer f.CloseMailbox(1)
	f.Disconnect(2)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, f.SendOne(ctx, testRequest(1, 2), 2))
	data, err := f.Recv(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, data)

	f.Register(2, echoHandler{node: 2})
	require.NoError(t, f.SendOne(ctx, testRequest(1, 2), 2))
	assert.Equal(t, uint32(2), recvResponse(t, f, 1).NodeID)
}

func TestFabricUnknownNode(t *testing.T) {
	f := newTestFabric(t, 1)
	defer f.Close()

	err := f.SendOne(context.Background(), testRequest(1, 9), 9)
	require.Error(t, err)
	assert.True(t, moerr.IsMoErrCode(err, moerr.ErrLostConnection))
}

func TestFabricRecv(t *testing.T) {
	f := newTestFabric(t, 1)
	defer f.Close()

	_, err := f.Recv(context.Background(), 5)
	assert.True(t, moerr.IsMoErrCode(err, moerr.ErrInvalidState))

	f.OpenMailbox(5)
	defer f.CloseMailbox(5)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = f.Recv(ctx, 5)
	assert.Equal(t, context.DeadlineExceeded, err)
}

func TestFabricDropsResponsesOfClosedMailbox(t *testing.T) {
	f := newTestFabric(t, 1)
	defer f.Close()

	f.OpenMailbox(1)
	f.CloseMailbox(1)
	f.deliver(1, 1, []byte("late"))

	f.OpenMailbox(1)
	defer f.CloseMailbox(1)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := f.Recv(ctx, 1)
	assert.Equal(t, context.DeadlineExceeded, err)
}
