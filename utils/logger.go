/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package utils

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

type Logger = logrus.Logger

const defaultTimestampFormat = "2006-01-02 15:04:05.000"

var (
	loggerRegistryMu sync.RWMutex
	loggerRegistry   = map[string]*logrus.Logger{}
	defaultLevel     = ParseLogLevel(EnvDefaultString("LOG_LEVEL", "info"))
	logFormat        = EnvDefaultString("CONSOLE_LOG_FORMAT", "text")
	logOutput        io.Writer = os.Stdout
)

// ConfigureLogFormat selects "json" or "text" output for loggers created
// afterwards.
func ConfigureLogFormat(format string) {
	if strings.ToLower(strings.TrimSpace(format)) == "json" {
		logFormat = "json"
	} else {
		logFormat = "text"
	}
}

// ConfigureLogOutput redirects loggers created afterwards to w.
func ConfigureLogOutput(w io.Writer) {
	if w == nil {
		w = os.Stdout
	}
	logOutput = w
}

// ConfigureLogLevel sets the level of every registered logger and the
// default for new ones.
func ConfigureLogLevel(levelStr string) {
	defaultLevel = ParseLogLevel(levelStr)
	loggerRegistryMu.RLock()
	for _, lg := range loggerRegistry {
		lg.SetLevel(defaultLevel)
	}
	loggerRegistryMu.RUnlock()
}

func ParseLogLevel(s string) logrus.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return logrus.TraceLevel
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	case "panic":
		return logrus.PanicLevel
	default:
		return logrus.InfoLevel
	}
}

func RegisterLogger(name string, l *logrus.Logger) {
	loggerRegistryMu.Lock()
	defer loggerRegistryMu.Unlock()
	loggerRegistry[name] = l
}

// SetLoggerLevel changes the level of a named logger. It reports false when
// no logger is registered under that name.
func SetLoggerLevel(name string, lvlStr string) bool {
	loggerRegistryMu.RLock()
	lg, ok := loggerRegistry[name]
	loggerRegistryMu.RUnlock()
	if !ok {
		return false
	}
	lg.SetLevel(ParseLogLevel(lvlStr))
	return true
}

// NewLogger returns the logger registered under name, creating it on first use.
func NewLogger(name string) *logrus.Logger {
	loggerRegistryMu.RLock()
	lg, ok := loggerRegistry[name]
	loggerRegistryMu.RUnlock()
	if ok {
		return lg
	}

	l := logrus.New()
	l.SetOutput(logOutput)
	l.SetLevel(defaultLevel)
	l.SetReportCaller(true)
	if logFormat == "json" {
		l.SetFormatter(&JSONLogFormatter{LoggerName: name})
	} else {
		l.SetFormatter(&Log4jFormatter{LoggerName: name, NameWidth: 10})
	}
	RegisterLogger(name, l)
	return l
}

// Log4jFormatter renders entries as
// "2025-01-02 15:04:05.000   INFO 4711 --- [DATABASE  ] repository/base.go:42 : message k=v".
type Log4jFormatter struct {
	LoggerName      string
	TimestampFormat string
	NameWidth       int
}

func (f *Log4jFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	tsFormat := f.TimestampFormat
	if tsFormat == "" {
		tsFormat = defaultTimestampFormat
	}
	var b strings.Builder
	b.WriteString(entry.Time.Format(tsFormat))
	b.WriteString(fmt.Sprintf(" %7s %-6d --- ", strings.ToUpper(entry.Level.String()), os.Getpid()))
	b.WriteString(fmt.Sprintf("[%-*s] ", f.NameWidth, limitRunes(f.LoggerName, f.NameWidth)))
	if entry.HasCaller() {
		b.WriteString(fmt.Sprintf("%s:%d : ", shortPath(entry.Caller.File), entry.Caller.Line))
	}
	b.WriteString(entry.Message)
	for _, k := range sortedKeys(entry.Data) {
		b.WriteString(fmt.Sprintf(" %s=%v", k, entry.Data[k]))
	}
	b.WriteByte('\n')
	return []byte(b.String()), nil
}

// JSONLogFormatter renders one JSON object per entry.
type JSONLogFormatter struct {
	LoggerName      string
	TimestampFormat string
}

func (f *JSONLogFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	tsFormat := f.TimestampFormat
	if tsFormat == "" {
		tsFormat = defaultTimestampFormat
	}
	payload := make(map[string]interface{}, len(entry.Data)+5)
	for k, v := range entry.Data {
		if err, ok := v.(error); ok {
			payload[k] = err.Error()
			continue
		}
		payload[k] = v
	}
	payload["time"] = entry.Time.Format(tsFormat)
	payload["level"] = entry.Level.String()
	payload["logger"] = f.LoggerName
	payload["msg"] = entry.Message
	if entry.HasCaller() {
		payload["caller"] = fmt.Sprintf("%s:%d", shortPath(entry.Caller.File), entry.Caller.Line)
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal log entry: %w", err)
	}
	return append(b, '\n'), nil
}

func sortedKeys(data logrus.Fields) []string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func shortPath(p string) string {
	dir, file := filepath.Split(p)
	parent := filepath.Base(dir)
	if parent == "." || parent == string(filepath.Separator) {
		return file
	}
	return parent + "/" + file
}

func limitRunes(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	return string(r[:n])
}

func EnvDefaultString(key string, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvDefaultBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return def
		}
		return b
	}
	return def
}
