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
	"github.com/go-sql-driver/mysql"

	"github.com/matrixorigin/dmlproc/pkg/common/moerr"
)

// ResultCode is the outcome class reported to the front end.
type ResultCode uint8

const (
	NoError ResultCode = iota
	UpdateError
	DeleteError
	VacuumError
	JobCanceled
	ReadOnly
	LostConnection
	// RangeWarning is a success: the statement committed but a write
	// engine clipped an out of range value.
	RangeWarning
)

func (c ResultCode) String() string {
	switch c {
	case NoError:
		return "ok"
	case UpdateError:
		return "update-error"
	case DeleteError:
		return "delete-error"
	case VacuumError:
		return "vacuum-error"
	case JobCanceled:
		return "canceled"
	case ReadOnly:
		return "read-only"
	case LostConnection:
		return "lost-connection"
	case RangeWarning:
		return "range-warning"
	default:
		return "unknown"
	}
}

// Succeeded reports whether the statement committed.
func (c ResultCode) Succeeded() bool {
	return c == NoError || c == RangeWarning
}

// Stats are the counters collected while a statement ran.
type Stats struct {
	// BlocksChanged sums what the write engines reported.
	BlocksChanged uint64
	// ErrorNo is the status of the last failed write engine response.
	ErrorNo uint8
	// Query, Extended and Mini are the query-execution stats, only set
	// after a clean stop.
	Query    string
	Extended string
	Mini     string
}

// Result is the outcome of one statement.
type Result struct {
	Code     ResultCode
	RowCount uint64
	// Message is empty on success.
	Message string
	// Err is the error behind a failed Code, or the warning behind
	// RangeWarning.
	Err   error
	Stats Stats
}

// MySQLError converts the result into the error a mysql client sees. It
// returns nil for NoError.
func (r Result) MySQLError() *mysql.MySQLError {
	if r.Code == NoError {
		return nil
	}
	number := moerr.ER_UNKNOWN_ERROR
	if r.Err != nil {
		number = moerr.DowncastError(r.Err).MySQLCode()
	}
	msg := r.Message
	if msg == "" && r.Err != nil {
		msg = r.Err.Error()
	}
	return &mysql.MySQLError{Number: number, Message: msg}
}
