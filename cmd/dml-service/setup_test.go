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

package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matrixorigin/dmlproc/pkg/cluster"
	"github.com/matrixorigin/dmlproc/pkg/dmlservice"
	"github.com/matrixorigin/dmlproc/pkg/logutil"
	"github.com/matrixorigin/dmlproc/pkg/util/toml"
)

func newTestConfig(t *testing.T, statements ...StatementConfig) *Config {
	cfg := &Config{
		DML: dmlservice.Config{
			WaitPeriod:       1,
			LockPollInterval: toml.Duration{Duration: time.Millisecond},
		},
		Cluster: ClusterConfig{
			Engines: []uint32{1, 2},
			DBRoots: []DBRootConfig{{Root: 2, Node: 2}, {Root: 1, Node: 1}},
		},
		Tables: []TableConfig{{
			Schema:      "db",
			Name:        "t",
			RowsPerRoot: 100,
			Columns:     []ColumnConfig{{Name: "id", Type: "BIGINT", Width: 8, AutoIncrement: true}},
		}},
		Statements: statements,
	}
	require.NoError(t, cfg.validate())
	return cfg
}

func newTestNode(t *testing.T, cfg *Config) *node {
	n, err := newNode(cfg, logutil.GetPanicLogger())
	require.NoError(t, err)
	t.Cleanup(n.close)
	require.NoError(t, n.loadTables(context.Background()))
	return n
}

func TestScript(t *testing.T) {
	cfg := newTestConfig(t,
		StatementConfig{Kind: "update", Schema: "db", Table: "t", BatchRows: 30},
		StatementConfig{Kind: "vacuum", Schema: "db", Table: "t", DBRoot: 2})
	n := newTestNode(t, cfg)

	s := n.script(cfg.Statements[0])
	assert.Equal(t, []byte("db.t"), s.Schema)
	assert.Equal(t, []cluster.Batch{
		{DBRoot: 1, BaseRID: 0, Rows: 30},
		{DBRoot: 1, BaseRID: 30, Rows: 30},
		{DBRoot: 1, BaseRID: 60, Rows: 30},
		{DBRoot: 1, BaseRID: 90, Rows: 10},
		{DBRoot: 2, BaseRID: 0, Rows: 30},
		{DBRoot: 2, BaseRID: 30, Rows: 30},
		{DBRoot: 2, BaseRID: 60, Rows: 30},
		{DBRoot: 2, BaseRID: 90, Rows: 10},
	}, s.Batches)

	s = n.script(cfg.Statements[1])
	assert.Equal(t, []cluster.Batch{{DBRoot: 2, BaseRID: 0, Rows: 100}}, s.Batches)

	pkg := n.pkg(cfg.Statements[1])
	assert.Equal(t, dmlservice.KindVacuum, pkg.Kind)
	require.NotNil(t, pkg.Partition)
	assert.Equal(t, uint32(100), pkg.Partition.Rows)
}

func TestRunStatements(t *testing.T) {
	cfg := newTestConfig(t,
		StatementConfig{Kind: "update", SessionID: 1, TxnID: 1, Schema: "db", Table: "t", BatchRows: 30},
		StatementConfig{Kind: "vacuum", SessionID: 1, TxnID: 2, Schema: "db", Table: "t", DBRoot: 1, Deleted: []uint32{3, 5}},
		StatementConfig{Kind: "delete", SessionID: 2, TxnID: 3, Schema: "db", Table: "t"},
		StatementConfig{Kind: "delete", SessionID: 1, TxnID: 4, Schema: "db", Table: "t", BatchRows: 64},
		StatementConfig{Kind: "update", SessionID: 1, TxnID: 5, Schema: "db", Table: "missing"},
	)
	n := newTestNode(t, cfg)

	results := n.runStatements(context.Background())
	require.Len(t, results, 5)

	assert.Equal(t, dmlservice.NoError, results[0].Code, results[0].Message)
	assert.Equal(t, uint64(200), results[0].RowCount)

	assert.Equal(t, dmlservice.NoError, results[1].Code, results[1].Message)

	// session 1 holds the table lock until its session ends
	assert.Equal(t, dmlservice.DeleteError, results[2].Code)

	assert.Equal(t, dmlservice.NoError, results[3].Code, results[3].Message)
	assert.Equal(t, uint64(200), results[3].RowCount)
	assert.Empty(t, n.engine(1).Rows("db", "t"))
	assert.Empty(t, n.engine(2).Rows("db", "t"))

	assert.Equal(t, dmlservice.UpdateError, results[4].Code)

	_, held := n.rm.Holder(1)
	assert.False(t, held)
}

func TestVacuumStatement(t *testing.T) {
	cfg := newTestConfig(t,
		StatementConfig{Kind: "vacuum", SessionID: 1, TxnID: 1, Schema: "db", Table: "t", DBRoot: 1, Deleted: []uint32{3, 5}})
	n := newTestNode(t, cfg)

	results := n.runStatements(context.Background())
	require.Len(t, results, 1)
	require.Equal(t, dmlservice.NoError, results[0].Code, results[0].Message)
	assert.Len(t, n.engine(1).Rows("db", "t"), 98)
	assert.Len(t, n.engine(2).Rows("db", "t"), 100)
}
