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
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/matrixorigin/dmlproc/pkg/common/moerr"
	"github.com/matrixorigin/dmlproc/pkg/lockcache"
	"github.com/matrixorigin/dmlproc/pkg/logutil"
	v2 "github.com/matrixorigin/dmlproc/pkg/util/metric/v2"
)

type service struct {
	cfg    Config
	deps   Dependencies
	logger *zap.Logger
	locks  *lockcache.Cache
}

// NewService creates the dml service. The lock cache outlives single
// statements: sessions are removed by EndSession.
func NewService(cfg Config, deps Dependencies, opts ...Option) Service {
	s := &service{cfg: cfg, deps: deps}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logutil.Adjust(s.logger).Named("dmlservice")
	s.cfg.adjust()
	if s.locks == nil {
		s.locks = lockcache.New(lockcache.WithLogger(s.logger))
	}
	return s
}

func (s *service) Execute(ctx context.Context, pkg *Package, exe QueryExecutor, cancel *CancelToken) Result {
	start := time.Now()
	st := &statement{
		s:      s,
		pkg:    pkg,
		exe:    exe,
		cancel: cancel,
	}
	st.logger = s.logger.With(
		zap.String("statement-id", uuid.New().String()),
		zap.Stringer("kind", pkg.Kind),
		logutil.SessionIDField(pkg.SessionID),
		logutil.TxnIDField(pkg.TxnID))

	res := st.execute(ctx)

	kind := pkg.Kind.String()
	v2.GetDMLStatementCounter(kind, res.Code.String()).Inc()
	v2.GetDMLStatementDurationHistogram(kind).Observe(time.Since(start).Seconds())
	if res.Code.Succeeded() {
		v2.GetDMLRowsProcessedCounter(kind).Add(float64(res.RowCount))
	}
	return res
}

func (s *service) EndSession(ctx context.Context, sessionID uint32) error {
	entries := s.locks.RemoveSession(sessionID)
	var first error
	for _, e := range entries {
		released, err := s.deps.Resource.ReleaseTableLock(ctx, e.LockID)
		if err != nil {
			s.logger.Error("release table lock",
				logutil.SessionIDField(sessionID),
				logutil.TableIDField(e.TableID),
				zap.Uint64("lock-id", e.LockID),
				zap.Error(err))
			if first == nil {
				first = err
			}
			continue
		}
		if !released {
			s.logger.Warn("table lock was not held",
				logutil.SessionIDField(sessionID),
				logutil.TableIDField(e.TableID),
				zap.Uint64("lock-id", e.LockID))
		}
	}
	return first
}

// statement is the state of one Execute call.
type statement struct {
	s        *service
	logger   *zap.Logger
	pkg      *Package
	exe      QueryExecutor
	cancel   *CancelToken
	behavior kindBehavior

	uniqueID uint64
	tableID  uint64
	canceled bool
	warning  error
	stats    Stats
}

func (st *statement) execute(ctx context.Context) Result {
	behavior, ok := st.pkg.Kind.behavior()
	if !ok {
		return Result{
			Code:    UpdateError,
			Err:     moerr.NewInvalidInput(ctx, "unknown statement kind %d", st.pkg.Kind),
			Message: fmt.Sprintf("unknown statement kind %d", st.pkg.Kind),
		}
	}
	st.behavior = behavior
	if st.pkg.Kind == KindVacuum && st.pkg.Partition == nil {
		return st.fail(moerr.NewInvalidInput(ctx, "vacuum without a partition"))
	}

	if err := st.s.deps.Resource.IsReadWrite(ctx); err != nil {
		st.markRolledBack(ctx)
		return st.fail(moerr.NewReadOnly(ctx, st.pkg.Kind.String()).WithDetail(err.Error()))
	}

	uniqueID, err := st.s.deps.Resource.UniqueID(ctx)
	if err != nil {
		st.markRolledBack(ctx)
		return st.fail(moerr.NewUniqueIDUnavailable(ctx, err.Error()))
	}
	st.uniqueID = uniqueID
	st.logger = st.logger.With(logutil.UniqueIDField(uniqueID))

	fabric := st.s.deps.Fabric
	fabric.OpenMailbox(uniqueID)
	defer fabric.CloseMailbox(uniqueID)

	return st.run(ctx)
}

// run executes the lock and streaming stages and always finalizes.
func (st *statement) run(ctx context.Context) Result {
	var rows uint64
	var err error
	func() {
		defer func() {
			if v := recover(); v != nil {
				err = moerr.ConvertPanicError(ctx, v)
			}
		}()
		rows, err = st.process(ctx)
	}()
	return st.finalize(ctx, rows, err)
}

func (st *statement) process(ctx context.Context) (uint64, error) {
	if err := st.acquireResources(ctx); err != nil {
		st.markRolledBack(ctx)
		return 0, err
	}

	nodes, err := st.s.deps.Membership.ParticipatingNodes(ctx)
	if err != nil {
		return 0, err
	}
	r := &relay{
		logger:     st.logger,
		exe:        st.exe,
		fabric:     st.s.deps.Fabric,
		membership: st.s.deps.Membership,
		cancel:     st.cancel,
		behavior:   st.behavior,
		pkg:        st.pkg,
		uniqueID:   st.uniqueID,
		compress:   st.s.cfg.CompressRowGroups,
		stats:      &st.stats,
		slots:      make(map[uint32]bool, len(nodes)),
	}
	for _, n := range nodes {
		r.slots[n] = false
	}
	rows, err := r.run(ctx)
	st.canceled = r.canceled
	st.warning = r.warning
	return rows, err
}

func (st *statement) acquireResources(ctx context.Context) error {
	catalog := st.s.deps.Catalog
	tableID, err := catalog.ResolveTable(ctx, st.pkg.Schema, st.pkg.Table)
	if err != nil {
		return err
	}
	st.tableID = tableID
	st.logger = st.logger.With(logutil.TableIDField(tableID))

	if err := st.acquireTableLock(ctx); err != nil {
		return err
	}

	columns, err := catalog.Columns(ctx, tableID)
	if err != nil {
		return err
	}
	for _, col := range columns {
		if st.cancel.Canceled() {
			return moerr.NewQueryInterrupted(ctx)
		}
		if !col.AutoIncrement {
			continue
		}
		next, err := catalog.NextAutoIncrementValue(ctx, tableID)
		if err != nil {
			return moerr.NewAutoIncrement(ctx, col.Name, err.Error())
		}
		if err := st.s.deps.Resource.StartAutoIncrementSequence(ctx, col, tableID, next); err != nil {
			return moerr.NewAutoIncrement(ctx, col.Name, err.Error())
		}
		break
	}
	return nil
}

// acquireTableLock reuses the session's cached lock or asks the resource
// manager, polling while another owner holds the table.
func (st *statement) acquireTableLock(ctx context.Context) error {
	locks := st.s.locks.GetOrCreateSession(st.pkg.SessionID)
	if _, ok := locks.Lookup(st.tableID); ok {
		return nil
	}

	nodes, err := st.s.deps.Membership.ParticipatingNodes(ctx)
	if err != nil {
		return err
	}
	owner := LockOwner{
		ProcessName: st.s.cfg.ProcessName,
		ProcessID:   getpid(),
		SessionID:   st.pkg.SessionID,
		TxnID:       st.pkg.TxnID,
	}
	rm := st.s.deps.Resource
	lockID, holder, err := rm.AcquireTableLock(ctx, nodes, st.tableID, owner)
	if err != nil {
		return err
	}
	for retries := 0; lockID == 0; retries++ {
		if retries >= st.s.cfg.maxLockRetries() {
			return moerr.NewTableLocked(ctx, st.pkg.Kind.String(), holder.ProcessName, holder.ProcessID, holder.SessionID)
		}
		if err := sleep(ctx, st.s.cfg.LockPollInterval.Duration); err != nil {
			return moerr.ConvertGoError(ctx, err)
		}
		v2.DMLTableLockRetryCounter.Inc()
		lockID, holder, err = rm.AcquireTableLock(ctx, nodes, st.tableID, owner)
		if err != nil {
			return err
		}
	}

	locks.Store(st.tableID, lockID)
	st.logger.Debug("table lock acquired", zap.Uint64("lock-id", lockID))
	return nil
}

// finalize flushes the table and ends the transaction.
func (st *statement) finalize(ctx context.Context, rows uint64, err error) Result {
	rm := st.s.deps.Resource
	canceled := st.canceled || st.cancel.Canceled() || moerr.IsMoErrCode(err, moerr.ErrQueryInterrupted)

	if err == nil && !canceled {
		if ferr := rm.Flush(ctx, st.tableID, st.uniqueID, st.pkg.TxnID); ferr != nil {
			st.rollback(ctx)
			return st.fail(moerr.NewFlushFailed(ctx, ferr.Error()))
		}
		if cerr := rm.Commit(ctx, st.uniqueID, st.pkg.TxnID); cerr != nil {
			return st.fail(moerr.NewEndTransaction(ctx, cerr.Error()))
		}
		return st.succeed(rows)
	}

	if st.tableID != 0 {
		if ferr := rm.Flush(ctx, st.tableID, st.uniqueID, st.pkg.TxnID); ferr != nil {
			st.logger.Warn("flush before rollback", zap.Error(ferr))
		}
	}
	st.rollback(ctx)
	if canceled {
		st.logger.Info("statement canceled")
		return Result{
			Code:    JobCanceled,
			Err:     moerr.NewQueryInterrupted(ctx),
			Message: moerr.NewQueryInterrupted(ctx).Error(),
			Stats:   st.stats,
		}
	}
	return st.fail(err)
}

func (st *statement) succeed(rows uint64) Result {
	res := Result{
		Code:     NoError,
		RowCount: rows,
		Stats:    st.stats,
	}
	if st.warning != nil {
		res.Code = RangeWarning
		res.Err = st.warning
		res.Message = st.warning.Error()
	}
	st.logger.Info("dml statement finished",
		logutil.StatementField(st.pkg.SQL),
		zap.Uint64("rows", rows),
		zap.Uint64("blocks-changed", st.stats.BlocksChanged),
		zap.Stringer("result", res.Code))
	return res
}

// fail builds the result of a failed statement. Rows are never reported
// for a failed statement.
func (st *statement) fail(err error) Result {
	code := st.behavior.failCode
	switch {
	case moerr.IsMoErrCode(err, moerr.ErrReadOnly):
		code = ReadOnly
	case moerr.IsConnectionRelated(err):
		code = LostConnection
	}
	msg := fmt.Sprintf("%s failed: %s", st.pkg.Kind, err.Error())
	st.logger.Error("dml statement failed",
		logutil.StatementField(st.pkg.SQL),
		zap.Stringer("result", code),
		zap.String("sql-state", moerr.DowncastError(err).SqlState()),
		zap.Error(err))
	return Result{
		Code:    code,
		Err:     err,
		Message: msg,
		Stats:   st.stats,
	}
}

func (st *statement) rollback(ctx context.Context) {
	if err := st.s.deps.Resource.Rollback(ctx, st.uniqueID, st.pkg.TxnID); err != nil {
		st.logger.Error("rollback", zap.Error(err))
	}
}

func (st *statement) markRolledBack(ctx context.Context) {
	if err := st.s.deps.Resource.MarkRolledBack(ctx, st.pkg.TxnID); err != nil {
		st.logger.Error("mark transaction rolled back", zap.Error(err))
	}
}
