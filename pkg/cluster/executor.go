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
	"sync"

	"github.com/matrixorigin/dmlproc/pkg/common/moerr"
	"github.com/matrixorigin/dmlproc/pkg/dmlservice"
	"github.com/matrixorigin/dmlproc/pkg/dmlservice/wire"
)

// Batch is one row group produced by a ScriptedExecutor.
type Batch struct {
	DBRoot  uint32
	BaseRID uint64
	Rows    uint32
}

// Script describes what a ScriptedExecutor produces for one statement.
type Script struct {
	// Schema is the first message of the result stream.
	Schema  []byte
	Batches []Batch
	Stats   wire.QueryStats
	// PlanStatus rejects the plan when not zero.
	PlanStatus uint32
	Diagnostic string
	// FailAt makes the row group at that index carry an error. Zero
	// disables it, so indexes start at 1.
	FailAt  int
	FailMsg string
}

type producerState uint8

const (
	waitBegin producerState = iota
	waitPlan
	waitContinue
	streaming
	done
)

// ScriptedExecutor plays the query-execution side of one statement.
type ScriptedExecutor struct {
	script Script
	out    chan []byte

	mu struct {
		sync.Mutex
		state producerState
		plan  []byte
		codes []uint32
	}
}

var _ dmlservice.QueryExecutor = (*ScriptedExecutor)(nil)

// NewScriptedExecutor creates a producer for the script. An empty schema
// is sent as a single zero byte since an empty message means a lost
// connection.
func NewScriptedExecutor(script Script) *ScriptedExecutor {
	if len(script.Schema) == 0 {
		script.Schema = []byte{0}
	}
	return &ScriptedExecutor{
		script: script,
		out:    make(chan []byte, len(script.Batches)+8),
	}
}

func (e *ScriptedExecutor) Write(ctx context.Context, data []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.mu.state == waitPlan {
		e.mu.plan = append([]byte(nil), data...)
		e.push(wire.EncodeCode(e.script.PlanStatus))
		if e.script.PlanStatus != 0 {
			e.mu.state = done
			return nil
		}
		e.push(wire.EncodeString(e.script.Diagnostic))
		e.push(e.script.Schema)
		e.mu.state = waitContinue
		return nil
	}

	code, err := wire.DecodeCode(data)
	if err != nil {
		return err
	}
	e.mu.codes = append(e.mu.codes, code)

	switch {
	case code == wire.CodeBegin && e.mu.state == waitBegin:
		e.mu.state = waitPlan
	case code == wire.CodeContinue && e.mu.state == waitContinue:
		e.mu.state = streaming
		e.produce()
	case code == wire.CodeStats && e.mu.state == streaming:
		e.mu.state = done
		e.push(e.script.Stats.Encode())
	case code == wire.CodeAbort:
		e.mu.state = done
	default:
		return moerr.NewInvalidState(ctx, "unexpected code %d", code)
	}
	return nil
}

func (e *ScriptedExecutor) Read(ctx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case data := <-e.out:
		return data, nil
	}
}

// Plan returns the plan the coordinator sent.
func (e *ScriptedExecutor) Plan() []byte {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mu.plan
}

// Codes returns every code the coordinator sent, in order.
func (e *ScriptedExecutor) Codes() []uint32 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]uint32(nil), e.mu.codes...)
}

func (e *ScriptedExecutor) produce() {
	for i, b := range e.script.Batches {
		g := wire.RowGroup{
			RowCount: b.Rows,
			BaseRID:  b.BaseRID,
			DBRoot:   b.DBRoot,
		}
		if e.script.FailAt == i+1 {
			g.Status = 1
			g.Error = e.script.FailMsg
			e.push(g.Encode())
			return
		}
		e.push(g.Encode())
	}
	e.push(wire.RowGroup{}.Encode())
}

func (e *ScriptedExecutor) push(data []byte) {
	e.out <- data
}
