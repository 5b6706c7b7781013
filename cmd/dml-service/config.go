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
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matrixorigin/dmlproc/pkg/common/moerr"
	"github.com/matrixorigin/dmlproc/pkg/dmlservice"
	"github.com/matrixorigin/dmlproc/pkg/logutil"
)

const (
	defaultPoolSize  = 64
	defaultBatchRows = 8192
)

var columnTypes = map[string]dmlservice.ColumnType{
	"int":             dmlservice.ColumnTypeInt,
	"bigint":          dmlservice.ColumnTypeBigInt,
	"unsigned-int":    dmlservice.ColumnTypeUnsignedInt,
	"unsigned-bigint": dmlservice.ColumnTypeUnsignedBigInt,
}

var statementKinds = map[string]dmlservice.Kind{
	"update": dmlservice.KindUpdate,
	"delete": dmlservice.KindDelete,
	"vacuum": dmlservice.KindVacuum,
}

// Config is the dml-service config.
type Config struct {
	Log        logutil.LogConfig `toml:"log"`
	DML        dmlservice.Config `toml:"dml"`
	Cluster    ClusterConfig     `toml:"cluster"`
	Metrics    MetricsConfig     `toml:"metrics"`
	Tables     []TableConfig     `toml:"table"`
	Statements []StatementConfig `toml:"statement"`
}

// ClusterConfig describes the in-process write engines.
type ClusterConfig struct {
	// Engines are the ids of the write engines.
	Engines []uint32 `toml:"engines"`
	// DBRoots assigns partition roots to write engines.
	DBRoots []DBRootConfig `toml:"dbroot"`
	// PoolSize bounds how many write engine requests run at once.
	PoolSize int `toml:"pool-size"`
	// CatalogDir is where the catalog is stored, in memory when empty.
	CatalogDir string `toml:"catalog-dir"`
}

type DBRootConfig struct {
	Root uint32 `toml:"root"`
	Node uint32 `toml:"node"`
}

type MetricsConfig struct {
	// ListenAddress serves /metrics when set.
	ListenAddress string `toml:"listen-address"`
}

// TableConfig is a table created and loaded at startup. Every dbroot
// holds RowsPerRoot rows of the table.
type TableConfig struct {
	Schema      string         `toml:"schema"`
	Name        string         `toml:"name"`
	RowsPerRoot uint64         `toml:"rows-per-root"`
	Columns     []ColumnConfig `toml:"column"`
}

type ColumnConfig struct {
	Name          string `toml:"name"`
	Type          string `toml:"type"`
	Width         uint32 `toml:"width"`
	AutoIncrement bool   `toml:"auto-increment"`
}

// StatementConfig is a statement run after startup. It scans every row
// of the table, or of DBRoot for vacuum statements.
type StatementConfig struct {
	Kind      string   `toml:"kind"`
	SessionID uint32   `toml:"session-id"`
	TxnID     uint32   `toml:"txn-id"`
	Schema    string   `toml:"schema"`
	Table     string   `toml:"table"`
	SQL       string   `toml:"sql"`
	BatchRows uint32   `toml:"batch-rows"`
	DBRoot    uint32   `toml:"dbroot"`
	Deleted   []uint32 `toml:"deleted"`
}

func parseConfigFromFile(file string) (*Config, error) {
	if file == "" {
		return nil, moerr.NewBadConfig(context.Background(), "toml config file not set")
	}
	cfg := &Config{}
	if _, err := toml.DecodeFile(file, cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	ctx := context.Background()
	if err := c.DML.Validate(); err != nil {
		return err
	}
	if c.Cluster.PoolSize == 0 {
		c.Cluster.PoolSize = defaultPoolSize
	}
	if len(c.Cluster.Engines) == 0 {
		return moerr.NewBadConfig(ctx, "no write engine configured")
	}
	engines := make(map[uint32]struct{}, len(c.Cluster.Engines))
	for _, id := range c.Cluster.Engines {
		if id == 0 {
			return moerr.NewBadConfig(ctx, "write engine id 0 is reserved")
		}
		engines[id] = struct{}{}
	}
	// row ids are local to a write engine, so an engine owns one dbroot
	roots := make(map[uint32]struct{}, len(c.Cluster.DBRoots))
	owners := make(map[uint32]uint32, len(c.Cluster.DBRoots))
	for _, r := range c.Cluster.DBRoots {
		if _, ok := engines[r.Node]; !ok {
			return moerr.NewBadConfig(ctx, "dbroot %d assigned to unknown write engine %d", r.Root, r.Node)
		}
		if _, ok := roots[r.Root]; ok {
			return moerr.NewBadConfig(ctx, "dbroot %d assigned twice", r.Root)
		}
		if other, ok := owners[r.Node]; ok {
			return moerr.NewBadConfig(ctx, "write engine %d owns dbroot %d and %d", r.Node, other, r.Root)
		}
		roots[r.Root] = struct{}{}
		owners[r.Node] = r.Root
	}

	for _, t := range c.Tables {
		for _, col := range t.Columns {
			if _, ok := columnTypes[strings.ToLower(col.Type)]; !ok {
				return moerr.NewBadConfig(ctx, "column %s.%s.%s has unknown type %q", t.Schema, t.Name, col.Name, col.Type)
			}
		}
	}
	for i := range c.Statements {
		s := &c.Statements[i]
		kind, ok := statementKinds[strings.ToLower(s.Kind)]
		if !ok {
			return moerr.NewBadConfig(ctx, "statement %d has unknown kind %q", i, s.Kind)
		}
		if kind == dmlservice.KindVacuum {
			if _, ok := roots[s.DBRoot]; !ok {
				return moerr.NewBadConfig(ctx, "vacuum statement %d on unknown dbroot %d", i, s.DBRoot)
			}
		}
		if s.BatchRows == 0 {
			s.BatchRows = defaultBatchRows
		}
	}
	return nil
}

func (c *Config) roots() map[uint32]uint32 {
	roots := make(map[uint32]uint32, len(c.Cluster.DBRoots))
	for _, r := range c.Cluster.DBRoots {
		roots[r.Root] = r.Node
	}
	return roots
}
