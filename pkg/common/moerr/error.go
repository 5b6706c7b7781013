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

package moerr

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime/debug"
)

const MySQLDefaultSqlState = "HY000"

const (
	// 0 - 99 is OK. They do not contain info, and are special handled
	// using a static instance, no alloc.
	Ok    uint16 = 0
	OkMax uint16 = 99

	// 200 - 299 is WARNING
	ErrWarn uint16 = 200
	// A write engine reported a value outside the column range. The
	// statement still commits.
	ErrWarnDataTruncated uint16 = 201

	// Group 1: Internal errors
	ErrStart            uint16 = 20100
	ErrInternal         uint16 = 20101
	ErrQueryInterrupted uint16 = 20104

	// Group 3: invalid input
	ErrBadConfig    uint16 = 20300
	ErrInvalidInput uint16 = 20301

	// Group 4: unexpected state and io errors
	ErrInvalidState  uint16 = 20400
	ErrNoSuchTable   uint16 = 20403
	ErrUnexpectedEOF uint16 = 20407
	ErrReadOnly      uint16 = 20460

	// Group 5: rpc and connections
	ErrLostConnection     uint16 = 20500
	ErrMissingWriteEngine uint16 = 20501

	// Group 6: dml write path
	ErrTableLocked         uint16 = 20600
	ErrQueryExecution      uint16 = 20601
	ErrWriteEngine         uint16 = 20602
	ErrFlushFailed         uint16 = 20603
	ErrUniqueIDUnavailable uint16 = 20604
	ErrAutoIncrement       uint16 = 20605
	ErrEndTransaction      uint16 = 20606

	// ErrEnd, the max value of MOErrorCode
	ErrEnd uint16 = 65535
)

type moErrorMsgItem struct {
	mysqlCode        uint16
	sqlStates        []string
	errorMsgOrFormat string
}

var errorMsgRefer = map[uint16]moErrorMsgItem{
	// OK code not in this table.

	// Warn
	ErrWarnDataTruncated: {WARN_DATA_TRUNCATED, []string{MySQLDefaultSqlState}, "warning: data truncated: %s"},

	// Group 1: Internal errors
	ErrStart:            {ER_UNKNOWN_ERROR, []string{MySQLDefaultSqlState}, "internal error: error code start"},
	ErrInternal:         {ER_UNKNOWN_ERROR, []string{MySQLDefaultSqlState}, "internal error: %s"},
	ErrQueryInterrupted: {ER_QUERY_INTERRUPTED, []string{"70100"}, "Query execution was interrupted"},

	// Group 3: invalid input
	ErrBadConfig:    {ER_UNKNOWN_ERROR, []string{MySQLDefaultSqlState}, "invalid configuration: %s"},
	ErrInvalidInput: {ER_UNKNOWN_ERROR, []string{MySQLDefaultSqlState}, "invalid input: %s"},

	// Group 4: unexpected state and io errors
	ErrInvalidState:  {ER_UNKNOWN_ERROR, []string{MySQLDefaultSqlState}, "invalid state %s"},
	ErrNoSuchTable:   {ER_NO_SUCH_TABLE, []string{"42S02"}, "no such table %s.%s"},
	ErrUnexpectedEOF: {ER_UNKNOWN_ERROR, []string{MySQLDefaultSqlState}, "unexpected end of file %s"},
	ErrReadOnly:      {ER_OPTION_PREVENTS_STATEMENT, []string{MySQLDefaultSqlState}, "cannot execute %s while the system is in read-only mode"},

	// Group 5: rpc and connections
	ErrLostConnection:     {ER_LOST_CONNECTION, []string{MySQLDefaultSqlState}, "lost connection to %s while %s"},
	ErrMissingWriteEngine: {ER_UNKNOWN_ERROR, []string{MySQLDefaultSqlState}, "one of the write engine servers went away: %d outstanding batches, %d write engines"},

	// Group 6: dml write path
	ErrTableLocked:         {ER_LOCK_WAIT_TIMEOUT, []string{MySQLDefaultSqlState}, "cannot %s table: table is locked by process %s (pid %d) session %d"},
	ErrQueryExecution:      {ER_UNKNOWN_ERROR, []string{MySQLDefaultSqlState}, "query execution failed: %s"},
	ErrWriteEngine:         {ER_UNKNOWN_ERROR, []string{MySQLDefaultSqlState}, "write engine %d: %s"},
	ErrFlushFailed:         {ER_UNKNOWN_ERROR, []string{MySQLDefaultSqlState}, "error when writing data to disk: %s"},
	ErrUniqueIDUnavailable: {ER_UNKNOWN_ERROR, []string{MySQLDefaultSqlState}, "cannot allocate a unique operation id: %s"},
	ErrAutoIncrement:       {ER_AUTOINC_READ_FAILED, []string{MySQLDefaultSqlState}, "cannot start autoincrement sequence for column %s: %s"},
	ErrEndTransaction:      {ER_UNKNOWN_ERROR, []string{MySQLDefaultSqlState}, "error when cleaning up data files: %s"},

	// Group End: max value of MOErrorCode
	ErrEnd: {ER_UNKNOWN_ERROR, []string{MySQLDefaultSqlState}, "internal error: end of errcode code"},
}

func newError(ctx context.Context, code uint16, args ...any) *Error {
	item, has := errorMsgRefer[code]
	if !has {
		panic(NewInternalError(ctx, "not exist MOErrorCode: %d", code))
	}
	msg := item.errorMsgOrFormat
	if len(args) > 0 {
		msg = fmt.Sprintf(item.errorMsgOrFormat, args...)
	}
	return &Error{
		code:      code,
		mysqlCode: item.mysqlCode,
		message:   msg,
		sqlState:  item.sqlStates[0],
	}
}

type Error struct {
	code      uint16
	mysqlCode uint16
	message   string
	sqlState  string
	detail    string
}

func (e *Error) Error() string {
	return e.message
}

func (e *Error) Detail() string {
	return e.detail
}

// WithDetail attaches extra text shown by Display but not by Error.
func (e *Error) WithDetail(detail string) *Error {
	e.detail = detail
	return e
}

func (e *Error) Display() string {
	if len(e.detail) == 0 {
		return e.message
	}
	return fmt.Sprintf("%s: %s", e.message, e.detail)
}

func (e *Error) ErrorCode() uint16 {
	return e.code
}

func (e *Error) MySQLCode() uint16 {
	return e.mysqlCode
}

func (e *Error) SqlState() string {
	return e.sqlState
}

func (e *Error) Succeeded() bool {
	return e.code < OkMax
}

// IsWarning reports whether the code is in the warning range.
func (e *Error) IsWarning() bool {
	return e.code >= ErrWarn && e.code < ErrStart
}

func IsMoErrCode(e error, rc uint16) bool {
	if e == nil {
		return rc == Ok
	}
	var me *Error
	if !errors.As(e, &me) {
		return false
	}
	return me.code == rc
}

func DowncastError(e error) *Error {
	var me *Error
	if errors.As(e, &me) {
		return me
	}
	return newError(context.Background(), ErrInternal, fmt.Sprintf("downcast error failed: %v", e))
}

// ConvertPanicError converts a runtime panic to internal error.
func ConvertPanicError(ctx context.Context, v interface{}) *Error {
	if e, ok := v.(*Error); ok {
		return e
	}
	return newError(ctx, ErrInternal, fmt.Sprintf("panic %v: %s", v, debug.Stack()))
}

// ConvertGoError converts a go error into mo error.
// Note here we must return error, because nil error
// is the same as nil *Error -- Go strangeness.
func ConvertGoError(ctx context.Context, err error) error {
	if err == nil {
		return err
	}

	var me *Error
	if errors.As(err, &me) {
		return err
	}

	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return NewUnexpectedEOF(ctx, err.Error())
	}
	if err == context.Canceled || err == context.DeadlineExceeded {
		return NewQueryInterrupted(ctx)
	}

	return NewInternalError(ctx, "convert go error to mo error %v", err)
}

func NewWarnDataTruncated(ctx context.Context, msg string) *Error {
	return newError(ctx, ErrWarnDataTruncated, msg)
}

func NewInternalError(ctx context.Context, msg string, args ...any) *Error {
	xmsg := fmt.Sprintf(msg, args...)
	return newError(ctx, ErrInternal, xmsg)
}

func NewQueryInterrupted(ctx context.Context) *Error {
	return newError(ctx, ErrQueryInterrupted)
}

func NewBadConfig(ctx context.Context, msg string, args ...any) *Error {
	xmsg := fmt.Sprintf(msg, args...)
	return newError(ctx, ErrBadConfig, xmsg)
}

func NewInvalidInput(ctx context.Context, msg string, args ...any) *Error {
	xmsg := fmt.Sprintf(msg, args...)
	return newError(ctx, ErrInvalidInput, xmsg)
}

func NewInvalidState(ctx context.Context, msg string, args ...any) *Error {
	xmsg := fmt.Sprintf(msg, args...)
	return newError(ctx, ErrInvalidState, xmsg)
}

func NewNoSuchTable(ctx context.Context, db, tbl string) *Error {
	return newError(ctx, ErrNoSuchTable, db, tbl)
}

func NewUnexpectedEOF(ctx context.Context, f string) *Error {
	return newError(ctx, ErrUnexpectedEOF, f)
}

func NewReadOnly(ctx context.Context, op string) *Error {
	return newError(ctx, ErrReadOnly, op)
}

func NewLostConnection(ctx context.Context, peer, doing string) *Error {
	return newError(ctx, ErrLostConnection, peer, doing)
}

func NewMissingWriteEngine(ctx context.Context, outstanding, engines int) *Error {
	return newError(ctx, ErrMissingWriteEngine, outstanding, engines)
}

func NewTableLocked(ctx context.Context, op, process string, pid int, session uint32) *Error {
	return newError(ctx, ErrTableLocked, op, process, pid, session)
}

func NewQueryExecution(ctx context.Context, msg string, args ...any) *Error {
	xmsg := fmt.Sprintf(msg, args...)
	return newError(ctx, ErrQueryExecution, xmsg)
}

func NewWriteEngine(ctx context.Context, node uint32, msg string) *Error {
	return newError(ctx, ErrWriteEngine, node, msg)
}

func NewFlushFailed(ctx context.Context, msg string) *Error {
	return newError(ctx, ErrFlushFailed, msg)
}

func NewUniqueIDUnavailable(ctx context.Context, msg string) *Error {
	return newError(ctx, ErrUniqueIDUnavailable, msg)
}

func NewAutoIncrement(ctx context.Context, column, msg string) *Error {
	return newError(ctx, ErrAutoIncrement, column, msg)
}

func NewEndTransaction(ctx context.Context, msg string) *Error {
	return newError(ctx, ErrEndTransaction, msg)
}

// IsConnectionRelated reports whether err means a peer of the write path
// is no longer reachable.
func IsConnectionRelated(err error) bool {
	if err == nil {
		return false
	}
	var me *Error
	if !errors.As(err, &me) {
		return false
	}
	switch me.code {
	case ErrLostConnection, ErrMissingWriteEngine:
		return true
	}
	return false
}
