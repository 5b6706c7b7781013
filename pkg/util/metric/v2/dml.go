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

package v2

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	statementCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mo",
			Subsystem: "dml",
			Name:      "statement_total",
			Help:      "Total number of dml statements by kind and result.",
		}, []string{"kind", "result"})

	rowsProcessedCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mo",
			Subsystem: "dml",
			Name:      "rows_processed_total",
			Help:      "Total number of rows forwarded to write engines by committed statements.",
		}, []string{"kind"})

	// DMLTableLockRetryCounter counts failed table lock attempts that were
	// followed by a poll.
	DMLTableLockRetryCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "mo",
			Subsystem: "dml",
			Name:      "table_lock_retry_total",
			Help:      "Total number of table lock retries.",
		})

	// DMLDrainResponsesCounter counts write engine responses consumed while
	// draining a statement.
	DMLDrainResponsesCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "mo",
			Subsystem: "dml",
			Name:      "drain_responses_total",
			Help:      "Total number of write engine responses read by drains.",
		})

	statementDurationHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mo",
			Subsystem: "dml",
			Name:      "statement_duration_seconds",
			Help:      "Bucketed histogram of dml statement duration.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2.0, 20),
		}, []string{"kind"})
)

func initDMLMetrics() {
	registry.MustRegister(statementCounter)
	registry.MustRegister(rowsProcessedCounter)
	registry.MustRegister(DMLTableLockRetryCounter)
	registry.MustRegister(DMLDrainResponsesCounter)
	registry.MustRegister(statementDurationHistogram)
}

func GetDMLStatementCounter(kind, result string) prometheus.Counter {
	return statementCounter.WithLabelValues(kind, result)
}

func GetDMLRowsProcessedCounter(kind string) prometheus.Counter {
	return rowsProcessedCounter.WithLabelValues(kind)
}

func GetDMLStatementDurationHistogram(kind string) prometheus.Observer {
	return statementDurationHistogram.WithLabelValues(kind)
}
