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

// Package artifact persists fitted models as Avro object container files.
package artifact

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/linkedin/goavro/v2"
	"github.com/pingcap/log"
	cerror "github.com/victoriarmitchell/fraud-detection/pkg/errors"
	"github.com/victoriarmitchell/fraud-detection/pkg/model"
	"go.uber.org/zap"
)

const (
	metaRunID     = "fraud.run_id"
	metaCreatedAt = "fraud.created_at"
	metaPlatform  = "fraud.platform"

	compressionName = goavro.CompressionDeflateLabel
)

const modelSchema = `{
  "type": "record",
  "name": "logistic_regression",
  "namespace": "fraud.model",
  "fields": [
    {"name": "solver", "type": "string"},
    {"name": "coef", "type": {"type": "array", "items": "double"}},
    {"name": "intercept", "type": "double"},
    {"name": "classes", "type": {"type": "array", "items": "long"}},
    {"name": "n_features", "type": "int"},
    {"name": "n_iter", "type": "int"},
    {"name": "c", "type": "double"},
    {"name": "max_iter", "type": "int"},
    {"name": "converged", "type": "boolean"}
  ]
}`

// Meta describes the run that produced an artifact.
type Meta struct {
	RunID     string
	CreatedAt time.Time
	Platform  string
}

func (m Meta) encode() map[string][]byte {
	return map[string][]byte{
		metaRunID:     []byte(m.RunID),
		metaCreatedAt: []byte(m.CreatedAt.UTC().Format(time.RFC3339Nano)),
		metaPlatform:  []byte(m.Platform),
	}
}

func decodeMeta(raw map[string][]byte) (Meta, error) {
	m := Meta{
		RunID:    string(raw[metaRunID]),
		Platform: string(raw[metaPlatform]),
	}
	if ts, ok := raw[metaCreatedAt]; ok && len(ts) > 0 {
		t, err := time.Parse(time.RFC3339Nano, string(ts))
		if err != nil {
			return Meta{}, err
		}
		m.CreatedAt = t
	}
	return m, nil
}

// Encode serializes m into an object container file held in memory.
func Encode(m *model.LogisticRegression, meta Meta) ([]byte, error) {
	codec, err := goavro.NewCodec(modelSchema)
	if err != nil {
		return nil, err
	}

	buf := bytes.NewBuffer(nil)
	writer, err := goavro.NewOCFWriter(goavro.OCFConfig{
		W:               buf,
		Codec:           codec,
		CompressionName: compressionName,
		MetaData:        meta.encode(),
	})
	if err != nil {
		return nil, err
	}
	if err := writer.Append([]any{toRecord(m)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode parses an object container file produced by Encode.
func Decode(data []byte) (*model.LogisticRegression, Meta, error) {
	reader, err := goavro.NewOCFReader(bytes.NewReader(data))
	if err != nil {
		return nil, Meta{}, err
	}
	if !reader.Scan() {
		if err := reader.Err(); err != nil {
			return nil, Meta{}, err
		}
		return nil, Meta{}, fmt.Errorf("artifact holds no model record")
	}
	datum, err := reader.Read()
	if err != nil {
		return nil, Meta{}, err
	}
	m, err := fromRecord(datum)
	if err != nil {
		return nil, Meta{}, err
	}
	meta, err := decodeMeta(reader.MetaData())
	if err != nil {
		return nil, Meta{}, err
	}
	return m, meta, nil
}

// Save writes m to path, creating parent directories as needed. It returns
// the encoded artifact so callers can upload the exact bytes on disk.
func Save(path string, m *model.LogisticRegression, meta Meta) ([]byte, error) {
	data, err := Encode(m, meta)
	if err != nil {
		return nil, cerror.WrapError(cerror.ErrArtifactWriteFailed, err, path)
	}
	if err := WriteFile(path, data); err != nil {
		return nil, err
	}
	return data, nil
}

// WriteFile writes encoded artifact data to path. The data is written to a
// temporary sibling and renamed into place, so readers never observe a
// partial artifact.
func WriteFile(path string, data []byte) error {
	if err := writeFileAtomic(path, data); err != nil {
		return cerror.WrapError(cerror.ErrArtifactWriteFailed, err, path)
	}
	log.Info("model artifact saved",
		zap.String("path", path),
		zap.Int("bytes", len(data)))
	return nil
}

// Load reads a model previously written by Save.
func Load(path string) (*model.LogisticRegression, Meta, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, Meta{}, cerror.WrapError(cerror.ErrArtifactDecodeFailed, err, path)
	}
	m, meta, err := Decode(data)
	if err != nil {
		return nil, Meta{}, cerror.WrapError(cerror.ErrArtifactDecodeFailed, err, path)
	}
	return m, meta, nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
