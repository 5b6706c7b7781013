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
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/fagongzi/goetty/v2/buf"

	"github.com/matrixorigin/dmlproc/pkg/common/moerr"
	"github.com/matrixorigin/dmlproc/pkg/dmlservice"
)

var (
	lastTableIDKey = []byte("m/last-table-id")
)

func tableNameKey(schema, table string) []byte {
	return []byte(fmt.Sprintf("t/%s/%s", schema, table))
}

func columnsKey(tableID uint64) []byte {
	return []byte(fmt.Sprintf("c/%020d", tableID))
}

func autoIncrementKey(tableID uint64) []byte {
	return []byte(fmt.Sprintf("a/%020d", tableID))
}

// Catalog is a table catalog kept in a pebble store. An empty dir keeps
// the store in memory.
type Catalog struct {
	db *pebble.DB
	// serializes table creation
	mu sync.Mutex
}

var _ dmlservice.Catalog = (*Catalog)(nil)

func OpenCatalog(dir string) (*Catalog, error) {
	opts := &pebble.Options{}
	if dir == "" {
		opts.FS = vfs.NewMem()
	}
	db, err := pebble.Open(dir, opts)
	if err != nil {
		return nil, err
	}
	return &Catalog{db: db}, nil
}

func (c *Catalog) Close() error {
	return c.db.Close()
}

// CreateTable registers a table and returns its id. The autoincrement
// sequence of the table starts at 1.
func (c *Catalog) CreateTable(ctx context.Context, schema, table string, columns []dmlservice.Column) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if v, err := c.get(tableNameKey(schema, table)); err != nil {
		return 0, err
	} else if v != nil {
		return 0, moerr.NewInvalidInput(ctx, "table %s.%s already exists", schema, table)
	}

	var id uint64 = 1
	if v, err := c.get(lastTableIDKey); err != nil {
		return 0, err
	} else if v != nil {
		id = uint64(buf.Byte2Int64(v)) + 1
	}

	b := c.db.NewBatch()
	defer b.Close()
	for _, kv := range []struct{ k, v []byte }{
		{lastTableIDKey, int64Bytes(int64(id))},
		{tableNameKey(schema, table), int64Bytes(int64(id))},
		{columnsKey(id), encodeColumns(columns)},
		{autoIncrementKey(id), int64Bytes(1)},
	} {
		if err := b.Set(kv.k, kv.v, nil); err != nil {
			return 0, err
		}
	}
	if err := b.Commit(pebble.Sync); err != nil {
		return 0, err
	}
	return id, nil
}

func (c *Catalog) ResolveTable(ctx context.Context, schema, table string) (uint64, error) {
	v, err := c.get(tableNameKey(schema, table))
	if err != nil {
		return 0, err
	}
	if v == nil {
		return 0, moerr.NewNoSuchTable(ctx, schema, table)
	}
	return uint64(buf.Byte2Int64(v)), nil
}

func (c *Catalog) Columns(ctx context.Context, tableID uint64) ([]dmlservice.Column, error) {
	v, err := c.get(columnsKey(tableID))
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, moerr.NewInvalidState(ctx, "no columns for table %d", tableID)
	}
	return decodeColumns(ctx, v)
}

func (c *Catalog) NextAutoIncrementValue(ctx context.Context, tableID uint64) (uint64, error) {
	v, err := c.get(autoIncrementKey(tableID))
	if err != nil {
		return 0, err
	}
	if v == nil {
		return 0, moerr.NewInvalidState(ctx, "no autoincrement value for table %d", tableID)
	}
	return uint64(buf.Byte2Int64(v)), nil
}

// SetNextAutoIncrementValue moves the autoincrement sequence of a table.
func (c *Catalog) SetNextAutoIncrementValue(ctx context.Context, tableID uint64, next uint64) error {
	return c.db.Set(autoIncrementKey(tableID), int64Bytes(int64(next)), pebble.Sync)
}

func (c *Catalog) get(k []byte) ([]byte, error) {
	v, closer, err := c.db.Get(k)
	if err == pebble.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	r := make([]byte, len(v))
	copy(r, v)
	closer.Close()
	return r, nil
}

func encodeColumns(columns []dmlservice.Column) []byte {
	out := buf.NewByteBuf(64 * (len(columns) + 1))
	out.WriteUint32(uint32(len(columns)))
	for _, col := range columns {
		out.WriteInt64(int64(col.ID))
		out.WriteUint32(uint32(len(col.Name)))
		out.MustWrite([]byte(col.Name))
		if col.AutoIncrement {
			out.MustWrite([]byte{1})
		} else {
			out.MustWrite([]byte{0})
		}
		out.WriteUint32(col.Width)
		out.MustWrite([]byte{byte(col.Type)})
	}
	_, data := out.ReadAll()
	return data
}

func int64Bytes(v int64) []byte {
	out := buf.NewByteBuf(8)
	out.WriteInt64(v)
	_, data := out.ReadAll()
	return data
}

func decodeColumns(ctx context.Context, data []byte) ([]dmlservice.Column, error) {
	corrupted := func() error {
		return moerr.NewInternalError(ctx, "corrupted column list")
	}
	if len(data) < 4 {
		return nil, corrupted()
	}
	n := buf.Byte2Uint32(data)
	data = data[4:]
	columns := make([]dmlservice.Column, 0, n)
	for i := uint32(0); i < n; i++ {
		if len(data) < 12 {
			return nil, corrupted()
		}
		col := dmlservice.Column{ID: uint64(buf.Byte2Int64(data))}
		size := int(buf.Byte2Uint32(data[8:]))
		data = data[12:]
		if len(data) < size+6 {
			return nil, corrupted()
		}
		col.Name = string(data[:size])
		data = data[size:]
		col.AutoIncrement = data[0] == 1
		col.Width = buf.Byte2Uint32(data[1:])
		col.Type = dmlservice.ColumnType(data[5])
		data = data[6:]
		columns = append(columns, col)
	}
	return columns, nil
}
