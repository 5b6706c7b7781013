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

package logutil

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// GetGlobalLogger returns the current global zap Logger.
func GetGlobalLogger() *zap.Logger {
	return _globalLogger.Load().(*zap.Logger)
}

// Adjust returns logger if it is not nil, otherwise the global logger
// with the given options applied.
func Adjust(logger *zap.Logger, options ...zap.Option) *zap.Logger {
	if logger != nil {
		return logger
	}
	return GetGlobalLogger().WithOptions(options...)
}

// GetPanicLogger returns a development logger at debug level, useful
// in tests.
func GetPanicLogger() *zap.Logger {
	return GetPanicLoggerWithLevel(zapcore.DebugLevel)
}

// GetPanicLoggerWithLevel returns a development logger whose DPanic
// calls panic.
func GetPanicLoggerWithLevel(level zapcore.Level) *zap.Logger {
	return GetLoggerWithOptions(zap.NewAtomicLevelAt(level), getLoggerEncoder("console"), nil,
		zap.Development(), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
}

func Debug(msg string, fields ...zap.Field) {
	GetGlobalLogger().WithOptions(zap.AddCallerSkip(1)).Debug(msg, fields...)
}

func Info(msg string, fields ...zap.Field) {
	GetGlobalLogger().WithOptions(zap.AddCallerSkip(1)).Info(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	GetGlobalLogger().WithOptions(zap.AddCallerSkip(1)).Warn(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	GetGlobalLogger().WithOptions(zap.AddCallerSkip(1)).Error(msg, fields...)
}

func Fatal(msg string, fields ...zap.Field) {
	GetGlobalLogger().WithOptions(zap.AddCallerSkip(1)).Fatal(msg, fields...)
}

// Debugf only use in develop mode
func Debugf(msg string, fields ...interface{}) {
	GetGlobalLogger().WithOptions(zap.AddCallerSkip(1)).Sugar().Debugf(msg, fields...)
}

// Infof only use in develop mode
func Infof(msg string, fields ...interface{}) {
	GetGlobalLogger().WithOptions(zap.AddCallerSkip(1)).Sugar().Infof(msg, fields...)
}

// Warnf only use in develop mode
func Warnf(msg string, fields ...interface{}) {
	GetGlobalLogger().WithOptions(zap.AddCallerSkip(1)).Sugar().Warnf(msg, fields...)
}

// Errorf only use in develop mode
func Errorf(msg string, fields ...interface{}) {
	GetGlobalLogger().WithOptions(zap.AddCallerSkip(1), zap.AddStacktrace(zap.ErrorLevel)).Sugar().Errorf(msg, fields...)
}

func SessionIDField(id uint32) zap.Field {
	return zap.Uint32("session-id", id)
}

func TxnIDField(id uint32) zap.Field {
	return zap.Uint32("txn-id", id)
}

func UniqueIDField(id uint64) zap.Field {
	return zap.Uint64("unique-id", id)
}

func TableIDField(id uint64) zap.Field {
	return zap.Uint64("table-id", id)
}

func NodeIDField(id uint32) zap.Field {
	return zap.Uint32("node-id", id)
}

func StatementField(sql string) zap.Field {
	return zap.String("statement", sql)
}
