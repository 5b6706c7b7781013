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

	"go.uber.org/zap"

	"github.com/matrixorigin/dmlproc/pkg/common/moerr"
	"github.com/matrixorigin/dmlproc/pkg/dmlservice/wire"
	v2 "github.com/matrixorigin/dmlproc/pkg/util/metric/v2"
)

// relay moves the row groups of one statement from the query-execution
// service to the write engines. Each write engine has at most one batch
// in flight: a new batch for a busy engine waits until that engine
// acknowledged its previous one.
type relay struct {
	logger     *zap.Logger
	exe        QueryExecutor
	fabric     Fabric
	membership Membership
	cancel     *CancelToken
	behavior   kindBehavior
	pkg        *Package
	uniqueID   uint64
	compress   bool
	stats      *Stats

	// slots is true for a write engine with a batch in flight.
	slots    map[uint32]bool
	rows     uint64
	canceled bool
	// warning is the first range warning reported by a write engine.
	warning error
}

// run streams the statement. It returns the number of rows forwarded,
// which is only meaningful when err is nil and the relay was not
// canceled.
func (r *relay) run(ctx context.Context) (uint64, error) {
	if err := r.handshake(ctx); err != nil {
		return 0, err
	}

	err := r.stream(ctx)
	if err != nil || r.canceled {
		r.abort(ctx)
		return r.rows, err
	}
	if err := r.collectStats(ctx); err != nil {
		return r.rows, err
	}
	return r.rows, nil
}

func (r *relay) handshake(ctx context.Context) error {
	if err := r.exe.Write(ctx, wire.EncodeCode(wire.CodeBegin)); err != nil {
		return moerr.ConvertGoError(ctx, err)
	}
	if err := r.exe.Write(ctx, r.pkg.Plan); err != nil {
		return moerr.ConvertGoError(ctx, err)
	}

	reply, err := r.readExecutor(ctx, "sending the plan")
	if err != nil {
		return err
	}
	status, err := wire.DecodeCode(reply)
	if err != nil {
		status = wire.StatusHandshakeShort
	}
	if status != 0 {
		return moerr.NewQueryExecution(ctx, "query-execution service returned status %d", status)
	}

	diag, err := r.readExecutor(ctx, "reading the plan diagnostics")
	if err != nil {
		return err
	}
	if msg, err := wire.DecodeString(diag); err == nil && msg != "" {
		r.logger.Debug("query-execution diagnostics", zap.String("message", msg))
	}
	return nil
}

// stream runs the batch loop. Outstanding batches are always drained
// before it returns, and a panic is returned as an error so the caller
// still aborts the producer.
func (r *relay) stream(ctx context.Context) (err error) {
	defer func() {
		derr := r.drain(ctx)
		if derr == nil {
			return
		}
		if err == nil {
			err = derr
			return
		}
		r.logger.Error("drain after a failed stream",
			zap.Error(derr))
	}()
	defer func() {
		if v := recover(); v != nil {
			err = moerr.ConvertPanicError(ctx, v)
		}
	}()

	schemaSent := false
	for {
		if r.cancel.Canceled() {
			r.canceled = true
			r.logger.Debug("statement canceled by user")
			return nil
		}

		msg, err := r.readExecutor(ctx, "reading row groups")
		if err != nil {
			return err
		}

		if !schemaSent {
			if err := r.broadcastSchema(ctx, msg); err != nil {
				return err
			}
			schemaSent = true
			if err := r.exe.Write(ctx, wire.EncodeCode(wire.CodeContinue)); err != nil {
				return moerr.ConvertGoError(ctx, err)
			}
			continue
		}

		g, err := wire.DecodeRowGroup(msg)
		if err != nil {
			return err
		}
		switch {
		case g.Status != 0:
			return moerr.NewQueryExecution(ctx, "%s", g.Error)
		case g.IsEnd():
			return nil
		case g.IsFiller():
			continue
		}

		if err := r.forward(ctx, g, msg); err != nil {
			return err
		}
		r.rows += uint64(g.RowCount)
	}
}

// broadcastSchema sends the first row group to every write engine and
// waits until each one acknowledged it.
func (r *relay) broadcastSchema(ctx context.Context, meta []byte) error {
	req := r.request(wire.BroadcastNodeID, r.behavior.metaPayload(r.pkg, meta))
	if err := r.fabric.Broadcast(ctx, req); err != nil {
		return moerr.ConvertGoError(ctx, err)
	}

	var first error
	for i := 0; i < r.fabric.NodeCount(); i++ {
		err := r.receiveOne(ctx)
		if err == nil {
			continue
		}
		if !moerr.IsMoErrCode(err, moerr.ErrWriteEngine) {
			return err
		}
		if first == nil {
			first = err
		}
	}
	return first
}

func (r *relay) forward(ctx context.Context, g wire.RowGroup, msg []byte) error {
	node, ok := r.membership.NodeOf(g.DBRoot)
	if !ok {
		return moerr.NewInvalidState(ctx, "no write engine owns dbroot %d", g.DBRoot)
	}
	payload, err := wire.EncodeFrame(msg, r.compress)
	if err != nil {
		return err
	}

	for r.slots[node] {
		if err := r.receiveOne(ctx); err != nil {
			return err
		}
	}
	if err := r.fabric.SendOne(ctx, r.request(node, payload), node); err != nil {
		return moerr.ConvertGoError(ctx, err)
	}
	r.slots[node] = true
	return nil
}

// drain waits for the acknowledgement of every batch still in flight.
func (r *relay) drain(ctx context.Context) error {
	outstanding := 0
	for _, busy := range r.slots {
		if busy {
			outstanding++
		}
	}
	if outstanding == 0 {
		return nil
	}
	if engines := r.fabric.NodeCount(); outstanding > engines {
		return moerr.NewMissingWriteEngine(ctx, outstanding, engines)
	}

	var first error
	for i := 0; i < outstanding; i++ {
		err := r.receiveOne(ctx)
		v2.DMLDrainResponsesCounter.Inc()
		if err == nil {
			continue
		}
		if first == nil {
			first = err
		}
		// Only a failed batch frees its slot; anything else leaves no
		// way to tell which engine answered.
		if !moerr.IsMoErrCode(err, moerr.ErrWriteEngine) {
			break
		}
	}
	return first
}

// receiveOne applies the next write engine response to the slots and
// the stats.
func (r *relay) receiveOne(ctx context.Context) error {
	data, err := r.fabric.Recv(ctx, r.uniqueID)
	if err != nil {
		return moerr.ConvertGoError(ctx, err)
	}
	if len(data) == 0 {
		return moerr.NewLostConnection(ctx, "write engine", "waiting for acknowledgements")
	}
	resp, err := wire.DecodeResponse(data)
	if err != nil {
		return err
	}

	r.slots[resp.NodeID] = false
	r.stats.BlocksChanged += resp.BlocksChanged
	switch resp.Status {
	case wire.StatusOK:
		return nil
	case wire.StatusRangeWarning:
		if r.warning == nil {
			r.warning = moerr.NewWarnDataTruncated(ctx, resp.Error)
		}
		return nil
	default:
		r.stats.ErrorNo = resp.Status
		return moerr.NewWriteEngine(ctx, resp.NodeID, resp.Error)
	}
}

func (r *relay) collectStats(ctx context.Context) error {
	if err := r.exe.Write(ctx, wire.EncodeCode(wire.CodeStats)); err != nil {
		return moerr.ConvertGoError(ctx, err)
	}
	data, err := r.readExecutor(ctx, "reading query stats")
	if err != nil {
		return err
	}
	qs, err := wire.DecodeQueryStats(data)
	if err != nil {
		return err
	}
	r.stats.Query = qs.Query
	r.stats.Extended = qs.Extended
	r.stats.Mini = qs.Mini
	return nil
}

// abort tells the producer the coordinator stopped early.
func (r *relay) abort(ctx context.Context) {
	if err := r.exe.Write(ctx, wire.EncodeCode(wire.CodeAbort)); err != nil {
		r.logger.Warn("write abort code to the query-execution service",
			zap.Error(err))
	}
}

func (r *relay) readExecutor(ctx context.Context, doing string) ([]byte, error) {
	data, err := r.exe.Read(ctx)
	if err != nil {
		return nil, moerr.ConvertGoError(ctx, err)
	}
	if len(data) == 0 {
		return nil, moerr.NewLostConnection(ctx, "the query-execution service", doing)
	}
	return data, nil
}

func (r *relay) request(node uint32, payload []byte) []byte {
	return wire.Request{
		Opcode:      r.behavior.opcode,
		OperationID: r.uniqueID,
		NodeID:      node,
		TxnID:       r.pkg.TxnID,
		Schema:      r.pkg.Schema,
		Table:       r.pkg.Table,
		Payload:     payload,
	}.Encode()
}
