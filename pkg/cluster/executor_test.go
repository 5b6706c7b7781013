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

	"github.com/matrixorigin/dmlproc/pkg/dmlservice/wire"
)

func readAllMessages(t *testing.T, e *ScriptedExecutor, n int) [][]byte {
	msgs := make([][]byte, 0, n)
	for i := 0; i < n; i++ {
		data, err := e.Read(context.Background())
		require.NoError(t, err)
		msgs = append(msgs, data)
	}
	return msgs
}

func TestScriptedExecutor(t *testing.T) {
	ctx := context.Background()
	e := NewScriptedExecutor(Script{
		Schema:     []byte("meta"),
		Batches:    []Batch{{DBRoot: 1, BaseRID: 0, Rows: 3}, {DBRoot: 2, BaseRID: 8, Rows: 1}},
		Stats:      wire.QueryStats{Query: "q"},
		Diagnostic: "hint",
	})

	require.NoError(t, e.Write(ctx, wire.EncodeCode(wire.CodeBegin)))
	require.NoError(t, e.Write(ctx, []byte("plan")))
	assert.Equal(t, []byte("plan"), e.Plan())

	msgs := readAllMessages(t, e, 3)
	status, err := wire.DecodeCode(msgs[0])
	require.NoError(t, err)
	assert.Equal(t, uint32(0), status)
	diag, err := wire.DecodeString(msgs[1])
	require.NoError(t, err)
	assert.Equal(t, "hint", diag)
	assert.Equal(t, []byte("meta"), msgs[2])

	require.NoError(t, e.Write(ctx, wire.EncodeCode(wire.CodeContinue)))
	msgs = readAllMessages(t, e, 3)
	g, err := wire.DecodeRowGroup(msgs[1])
	require.NoError(t, err)
	assert.Equal(t, uint32(2), g.DBRoot)
	assert.Equal(t, uint64(8), g.BaseRID)
	g, err = wire.DecodeRowGroup(msgs[2])
	require.NoError(t, err)
	assert.True(t, g.IsEnd())

	require.NoError(t, e.Write(ctx, wire.EncodeCode(wire.CodeStats)))
	msgs = readAllMessages(t, e, 1)
	qs, err := wire.DecodeQueryStats(msgs[0])
	require.NoError(t, err)
	assert.Equal(t, "q", qs.Query)

	assert.Equal(t, []uint32{wire.CodeBegin, wire.CodeContinue, wire.CodeStats}, e.Codes())
	assert.Error(t, e.Write(ctx, wire.EncodeCode(wire.CodeContinue)))
}

func TestScriptedExecutorFailures(t *testing.T) {
	ctx := context.Background()

	rejected := NewScriptedExecutor(Script{PlanStatus: 8})
	require.NoError(t, rejected.Write(ctx, wire.EncodeCode(wire.CodeBegin)))
	require.NoError(t, rejected.Write(ctx, nil))
	msgs := readAllMessages(t, rejected, 1)
	status, err := wire.DecodeCode(msgs[0])
	require.NoError(t, err)
	assert.Equal(t, uint32(8), status)

	failing := NewScriptedExecutor(Script{
		Batches: []Batch{{DBRoot: 1, Rows: 1}, {DBRoot: 1, BaseRID: 1, Rows: 1}},
		FailAt:  2,
		FailMsg: "scan failed",
	})
	require.NoError(t, failing.Write(ctx, wire.EncodeCode(wire.CodeBegin)))
	require.NoError(t, failing.Write(ctx, nil))
	msgs = readAllMessages(t, failing, 3)
	assert.Equal(t, []byte{0}, msgs[2])
	require.NoError(t, failing.Write(ctx, wire.EncodeCode(wire.CodeContinue)))
	msgs = readAllMessages(t, failing, 2)
	g, err := wire.DecodeRowGroup(msgs[1])
	require.NoError(t, err)
	assert.Equal(t, "scan failed", g.Error)
	require.NoError(t, failing.Write(ctx, wire.EncodeCode(wire.CodeAbort)))
}
