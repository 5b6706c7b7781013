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
	"sort"
	"strings"

	"github.com/RoaringBitmap/roaring"
	"go.uber.org/zap"

	"github.com/matrixorigin/dmlproc/pkg/cluster"
	"github.com/matrixorigin/dmlproc/pkg/dmlservice"
	"github.com/matrixorigin/dmlproc/pkg/logutil"
)

// node is every component of one dml-service process.
type node struct {
	cfg        *Config
	logger     *zap.Logger
	fabric     *cluster.Fabric
	engines    []*cluster.WriteEngine
	rm         *cluster.ResourceManager
	catalog    *cluster.Catalog
	membership *cluster.StaticMembership
	service    dmlservice.Service
}

func newNode(cfg *Config, logger *zap.Logger) (*node, error) {
	n := &node{cfg: cfg, logger: logger}

	fabric, err := cluster.NewFabric(
		cluster.WithFabricLogger(logger),
		cluster.WithFabricPoolSize(cfg.Cluster.PoolSize))
	if err != nil {
		return nil, err
	}
	n.fabric = fabric

	catalog, err := cluster.OpenCatalog(cfg.Cluster.CatalogDir)
	if err != nil {
		fabric.Close()
		return nil, err
	}
	n.catalog = catalog

	for _, id := range cfg.Cluster.Engines {
		e := cluster.NewWriteEngine(id, logger)
		fabric.Register(id, e)
		n.engines = append(n.engines, e)
	}
	n.rm = cluster.NewResourceManager(n.engines, logger)
	n.membership = cluster.NewStaticMembership(cfg.Cluster.Engines, cfg.roots())
	n.service = dmlservice.NewService(cfg.DML, dmlservice.Dependencies{
		Resource:   n.rm,
		Catalog:    n.catalog,
		Membership: n.membership,
		Fabric:     n.fabric,
	}, dmlservice.WithLogger(logger))
	return n, nil
}

func (n *node) close() {
	if err := n.catalog.Close(); err != nil {
		n.logger.Error("close catalog", zap.Error(err))
	}
	if err := n.fabric.Close(); err != nil {
		n.logger.Error("close fabric", zap.Error(err))
	}
}

// sortedRoots returns the configured dbroots, ascending.
func (n *node) sortedRoots() []DBRootConfig {
	roots := append([]DBRootConfig(nil), n.cfg.Cluster.DBRoots...)
	sort.Slice(roots, func(i, j int) bool { return roots[i].Root < roots[j].Root })
	return roots
}

func (n *node) engine(id uint32) *cluster.WriteEngine {
	for _, e := range n.engines {
		if e.ID() == id {
			return e
		}
	}
	return nil
}

// loadTables creates the configured tables and loads their rows into
// the write engine owning each dbroot.
func (n *node) loadTables(ctx context.Context) error {
	for _, t := range n.cfg.Tables {
		columns := make([]dmlservice.Column, 0, len(t.Columns))
		for i, col := range t.Columns {
			columns = append(columns, dmlservice.Column{
				ID:            uint64(i + 1),
				Name:          col.Name,
				AutoIncrement: col.AutoIncrement,
				Width:         col.Width,
				Type:          columnTypes[strings.ToLower(col.Type)],
			})
		}
		tableID, err := n.catalog.CreateTable(ctx, t.Schema, t.Name, columns)
		if err != nil {
			return err
		}

		rids := make([]uint64, t.RowsPerRoot)
		for i := range rids {
			rids[i] = uint64(i)
		}
		for _, r := range n.cfg.Cluster.DBRoots {
			n.engine(r.Node).Load(t.Schema, t.Name, rids...)
		}
		n.logger.Info("table loaded",
			zap.String("schema", t.Schema),
			zap.String("table", t.Name),
			logutil.TableIDField(tableID),
			zap.Uint64("rows-per-root", t.RowsPerRoot))
	}
	return nil
}

func (n *node) rowsPerRoot(schema, table string) uint64 {
	for _, t := range n.cfg.Tables {
		if t.Schema == schema && t.Name == table {
			return t.RowsPerRoot
		}
	}
	return 0
}

// script builds the row groups a full scan of the statement's table
// produces.
func (n *node) script(s StatementConfig) cluster.Script {
	rows := n.rowsPerRoot(s.Schema, s.Table)
	kind := statementKinds[strings.ToLower(s.Kind)]
	script := cluster.Script{Schema: []byte(s.Schema + "." + s.Table)}
	for _, r := range n.sortedRoots() {
		if kind == dmlservice.KindVacuum && r.Root != s.DBRoot {
			continue
		}
		for base := uint64(0); base < rows; base += uint64(s.BatchRows) {
			count := uint64(s.BatchRows)
			if base+count > rows {
				count = rows - base
			}
			script.Batches = append(script.Batches, cluster.Batch{
				DBRoot:  r.Root,
				BaseRID: base,
				Rows:    uint32(count),
			})
		}
	}
	return script
}

func (n *node) pkg(s StatementConfig) *dmlservice.Package {
	kind := statementKinds[strings.ToLower(s.Kind)]
	pkg := &dmlservice.Package{
		Kind:      kind,
		SessionID: s.SessionID,
		TxnID:     s.TxnID,
		Schema:    s.Schema,
		Table:     s.Table,
		SQL:       s.SQL,
		Plan:      []byte(s.SQL),
		Payload:   []byte(s.SQL),
	}
	if kind == dmlservice.KindVacuum {
		pkg.Partition = &dmlservice.Partition{
			DBRoot:  s.DBRoot,
			Rows:    uint32(n.rowsPerRoot(s.Schema, s.Table)),
			Deleted: roaring.BitmapOf(s.Deleted...),
		}
	}
	return pkg
}

// runStatements runs the configured statements in order and ends every
// session afterwards.
func (n *node) runStatements(ctx context.Context) []dmlservice.Result {
	results := make([]dmlservice.Result, 0, len(n.cfg.Statements))
	sessions := make(map[uint32]struct{})
	for _, s := range n.cfg.Statements {
		exe := cluster.NewScriptedExecutor(n.script(s))
		res := n.service.Execute(ctx, n.pkg(s), exe, &dmlservice.CancelToken{})
		sessions[s.SessionID] = struct{}{}
		results = append(results, res)

		fields := []zap.Field{
			logutil.StatementField(s.SQL),
			zap.Stringer("result", res.Code),
			zap.Uint64("rows", res.RowCount),
			zap.Uint64("blocks-changed", res.Stats.BlocksChanged),
		}
		if res.Code.Succeeded() {
			n.logger.Info("statement done", fields...)
		} else {
			n.logger.Error("statement failed", append(fields, zap.String("message", res.Message))...)
		}
	}
	for id := range sessions {
		if err := n.service.EndSession(ctx, id); err != nil {
			n.logger.Error("end session", logutil.SessionIDField(id), zap.Error(err))
		}
	}
	return results
}
