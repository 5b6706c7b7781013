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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsConnectionRelated(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: false,
		},
		{
			name:     "ErrLostConnection",
			err:      NewLostConnection(ctx, "ExeMgr", "updating"),
			expected: true,
		},
		{
			name:     "ErrMissingWriteEngine",
			err:      NewMissingWriteEngine(ctx, 3, 2),
			expected: true,
		},
		{
			name:     "wrapped ErrLostConnection",
			err:      fmt.Errorf("relay: %w", NewLostConnection(ctx, "write engine", "draining")),
			expected: true,
		},
		{
			name:     "non-connection error - ErrTableLocked",
			err:      NewTableLocked(ctx, "update", "DMLProc", 42, 7),
			expected: false,
		},
		{
			name:     "non-connection error - standard error",
			err:      errors.New("some error"),
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsConnectionRelated(tt.err))
		})
	}
}

func TestTableLockedMessage(t *testing.T) {
	err := NewTableLocked(context.Background(), "delete", "DMLProc", 1234, 9)
	require.True(t, IsMoErrCode(err, ErrTableLocked))
	assert.Equal(t, "cannot delete table: table is locked by process DMLProc (pid 1234) session 9", err.Error())
	assert.Equal(t, ER_LOCK_WAIT_TIMEOUT, err.MySQLCode())
	assert.False(t, err.Succeeded())
}

func TestWarningRange(t *testing.T) {
	err := NewWarnDataTruncated(context.Background(), "column c1")
	assert.True(t, err.IsWarning())
	assert.False(t, NewInternalError(context.Background(), "x").IsWarning())
	assert.Equal(t, WARN_DATA_TRUNCATED, err.MySQLCode())
}

func TestConvertGoError(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, ConvertGoError(ctx, nil))
	assert.True(t, IsMoErrCode(ConvertGoError(ctx, io.EOF), ErrUnexpectedEOF))
	assert.True(t, IsMoErrCode(ConvertGoError(ctx, context.Canceled), ErrQueryInterrupted))
	assert.True(t, IsMoErrCode(ConvertGoError(ctx, errors.New("boom")), ErrInternal))

	orig := NewFlushFailed(ctx, "disk full")
	assert.Same(t, orig, ConvertGoError(ctx, orig))
}

func TestConvertPanicError(t *testing.T) {
	ctx := context.Background()
	orig := NewQueryInterrupted(ctx)
	assert.Same(t, orig, ConvertPanicError(ctx, orig))
	assert.True(t, IsMoErrCode(ConvertPanicError(ctx, "bad"), ErrInternal))
}

func TestDowncastError(t *testing.T) {
	ctx := context.Background()
	orig := NewQueryInterrupted(ctx)
	assert.Same(t, orig, DowncastError(fmt.Errorf("statement: %w", orig)))
	assert.Equal(t, "70100", DowncastError(orig).SqlState())

	plain := DowncastError(errors.New("boom"))
	assert.True(t, IsMoErrCode(plain, ErrInternal))
	assert.Equal(t, MySQLDefaultSqlState, plain.SqlState())
	assert.Equal(t, ER_UNKNOWN_ERROR, plain.MySQLCode())
}

func TestDisplay(t *testing.T) {
	err := NewWriteEngine(context.Background(), 2, "column out of space")
	assert.Equal(t, err.Error(), err.Display())
	err.WithDetail("dbroot 4")
	assert.Equal(t, "write engine 2: column out of space: dbroot 4", err.Display())
}
