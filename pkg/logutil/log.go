// Copyright 2026 PingCAP, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// See the License for the specific language governing permissions and
// limitations under the License.

package logutil

import (
	"os"
	"strings"

	"github.com/pingcap/errors"
	"github.com/pingcap/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	// DefaultLogLevel is used when no level is given on the command line.
	DefaultLogLevel = "info"
	// DefaultLogFormat is the text encoder used by pingcap/log.
	DefaultLogFormat = "text"
)

// Config describes how the global logger is built.
type Config struct {
	Level  string
	File   string
	Format string
	// Output receives log lines when File is empty. Defaults to stderr so
	// logs never interleave with the report on stdout.
	Output zapcore.WriteSyncer
}

// InitLogger builds a logger from cfg and installs it as the global logger
// used by log.Info and friends.
func InitLogger(cfg *Config) error {
	if cfg == nil {
		cfg = &Config{}
	}
	level := strings.ToLower(strings.TrimSpace(cfg.Level))
	if level == "" {
		level = DefaultLogLevel
	}
	if _, err := zapcore.ParseLevel(level); err != nil {
		return errors.Annotatef(err, "invalid log level %q", cfg.Level)
	}
	format := cfg.Format
	if format == "" {
		format = DefaultLogFormat
	}

	logCfg := &log.Config{
		Level:  level,
		Format: format,
		File: log.FileLogConfig{
			Filename: cfg.File,
		},
	}
	var (
		logger *zap.Logger
		props  *log.ZapProperties
		err    error
	)
	if cfg.File != "" {
		logger, props, err = log.InitLogger(logCfg)
	} else {
		output := cfg.Output
		if output == nil {
			output = zapcore.Lock(os.Stderr)
		}
		logger, props, err = log.InitLoggerWithWriteSyncer(logCfg, output, output)
	}
	if err != nil {
		return errors.Trace(err)
	}
	log.ReplaceGlobals(logger, props)
	log.Debug("logger initialized",
		zap.String("level", level),
		zap.String("file", cfg.File))
	return nil
}
