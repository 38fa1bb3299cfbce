// Copyright 2025 BINARY Members
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package logger

import (
	"fmt"
	"log"
	"os"
	"path"
	"runtime"
	"sync"
)

var _ Logger = (*FLogger)(nil)

const _flogPrefix = "cicada "

// FLogger calldepth
const _calldepth = 3

type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	Fatalf(format string, args ...any)
	Panicf(format string, args ...any)
}

var (
	loggerMu sync.RWMutex
	logger   = Logger(flog)
)

var flog = &FLogger{
	Logger: log.New(os.Stderr, _flogPrefix, log.LstdFlags),
}

func SetLogger(l Logger) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	logger = l
}

func ResetDefaultLogger() {
	SetLogger(flog)
}

func GetLogger() Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return logger
}

type level uint8

const (
	levelDebug level = iota
	levelInfo
	levelWarn
	levelError
	levelFatal
)

func (l level) String() string {
	switch l {
	case levelDebug:
		return "DEBUG"
	case levelInfo:
		return "INFO"
	case levelWarn:
		return "WARN"
	case levelError:
		return "ERROR"
	case levelFatal:
		return "FATAL"
	}
	return "UNKNOWN"
}

type FLogger struct {
	*log.Logger
	debug bool
}

func (fl *FLogger) SetDebug(v bool) {
	fl.debug = v
}

func (fl *FLogger) Debugf(format string, args ...any) {
	if fl.debug {
		fl.output(levelDebug, format, args...)
	}
}

func (fl *FLogger) Infof(format string, args ...any) {
	fl.output(levelInfo, format, args...)
}

func (fl *FLogger) Warnf(format string, args ...any) {
	fl.output(levelWarn, format, args...)
}

func (fl *FLogger) Errorf(format string, args ...any) {
	fl.output(levelError, format, args...)
}

func (fl *FLogger) Fatalf(format string, args ...any) {
	fl.output(levelFatal, format, args...)
}

func (fl *FLogger) Panicf(format string, args ...any) {
	fl.Logger.Panicf(format, args...)
}

func (fl *FLogger) output(lvl level, format string, args ...any) {
	_, file, line, ok := runtime.Caller(_calldepth - 1)
	if !ok {
		file = "unknown"
		line = 0
	} else {
		file = path.Base(file)
	}
	_ = fl.Output(_calldepth, fmt.Sprintf("%s:%d [%s] %s", file, line, lvl, fmt.Sprintf(format, args...)))
}
