/*
NAME
  logging.go

DESCRIPTION
  logging.go provides two concrete Logger implementations: a rotating
  file sink built directly on a lumberjack.Logger, and a structured
  adapter built on zap for callers that already run a zap-based
  logging stack.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package config

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Default rotation parameters for the file-backed Logger.
const (
	defaultMaxSizeMB  = 500
	defaultMaxBackups = 10
	defaultMaxAgeDays = 28
)

// fileLogger is a Logger backed by a rotating lumberjack file sink.
type fileLogger struct {
	mu     sync.Mutex
	level  int8
	writer *lumberjack.Logger
}

// NewFileLogger returns a Logger that writes to path, rotating at
// defaultMaxSizeMB with defaultMaxBackups kept for defaultMaxAgeDays.
func NewFileLogger(path string) Logger {
	return &fileLogger{
		writer: &lumberjack.Logger{
			Filename:   path,
			MaxSize:    defaultMaxSizeMB,
			MaxBackups: defaultMaxBackups,
			MaxAge:     defaultMaxAgeDays,
		},
	}
}

func (l *fileLogger) SetLevel(level int8) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

func (l *fileLogger) Log(level int8, message string, params ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if level < l.level {
		return
	}
	fmt.Fprintf(l.writer, "[%s] %s %v\n", levelName(level), message, params)
}

func levelName(level int8) string {
	switch level {
	case Debug:
		return "DEBUG"
	case Info:
		return "INFO"
	case Warning:
		return "WARN"
	case Error:
		return "ERROR"
	case Fatal:
		return "FATAL"
	default:
		return "LOG"
	}
}

// zapLogger adapts the Logger interface onto a *zap.SugaredLogger.
type zapLogger struct {
	level int8
	sugar *zap.SugaredLogger
}

// NewZapLogger wraps z behind the Logger interface. Use this when the
// caller already runs a zap-based logging stack and wants PXF's core to
// log through it rather than through a separate file sink.
func NewZapLogger(z *zap.Logger) Logger {
	return &zapLogger{sugar: z.Sugar()}
}

func (l *zapLogger) SetLevel(level int8) { l.level = level }

func (l *zapLogger) Log(level int8, message string, params ...interface{}) {
	if level < l.level {
		return
	}
	switch {
	case level >= Fatal:
		l.sugar.Fatalw(message, "params", params)
	case level >= Error:
		l.sugar.Errorw(message, "params", params)
	case level >= Warning:
		l.sugar.Warnw(message, "params", params)
	default:
		l.sugar.Infow(message, "params", params)
	}
}
