// Copyright 2025 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package blob

import (
	"io"
	"strings"

	"github.com/juju/errors"
	"go.uber.org/zap"

	"github.com/gorse-io/tuner/base/log"
	"github.com/gorse-io/tuner/config"
	"github.com/gorse-io/tuner/storage"
)

// Store saves and loads named artifacts.
type Store interface {
	// Open an artifact for reading.
	Open(name string) (io.ReadCloser, error)
	// Create an artifact for writing. An existing artifact with the same name is
	// overwritten. Close returns once the artifact is persisted.
	Create(name string) (io.WriteCloser, error)
}

// Open a store by path. Local directories, s3://bucket/prefix,
// gcs://bucket/prefix and azblob://container/prefix are supported.
func Open(path string, cfg *config.Config) (Store, error) {
	switch {
	case strings.HasPrefix(path, storage.S3Prefix):
		bucket, prefix := storage.SplitBucket(path[len(storage.S3Prefix):])
		return NewS3(cfg.S3, bucket, prefix)
	case strings.HasPrefix(path, storage.GCSPrefix):
		bucket, prefix := storage.SplitBucket(path[len(storage.GCSPrefix):])
		return NewGCS(cfg.GCS, bucket, prefix)
	case strings.HasPrefix(path, storage.AzurePrefix):
		container, prefix := storage.SplitBucket(path[len(storage.AzurePrefix):])
		return NewAzureBlob(cfg.Azure, container, prefix)
	case strings.Contains(path, "://"):
		return nil, errors.NotSupportedf("artifact store %s", path)
	default:
		return NewPOSIX(path), nil
	}
}

// WriteFile creates an artifact and fills it by write.
func WriteFile(store Store, name string, write func(w io.Writer) error) error {
	w, err := store.Create(name)
	if err != nil {
		return errors.Annotatef(err, "create %s", name)
	}
	if err = write(w); err != nil {
		if a, ok := w.(aborter); ok {
			a.Abort(err)
		} else {
			_ = w.Close()
		}
		return errors.Annotatef(err, "write %s", name)
	}
	if err = w.Close(); err != nil {
		return errors.Annotatef(err, "save %s", name)
	}
	log.Logger().Info("save artifact", zap.String("name", name))
	return nil
}

// ReadFile opens an artifact and consumes it by read.
func ReadFile(store Store, name string, read func(r io.Reader) error) error {
	r, err := store.Open(name)
	if err != nil {
		return errors.Annotatef(err, "open %s", name)
	}
	defer func() {
		if err := r.Close(); err != nil {
			log.Logger().Warn("failed to close artifact", zap.String("name", name), zap.Error(err))
		}
	}()
	return errors.Annotatef(read(r), "read %s", name)
}

// aborter discards a partially written artifact.
type aborter interface {
	Abort(err error)
}

// pipeWriter streams written bytes to an upload running in background.
type pipeWriter struct {
	*io.PipeWriter
	done chan error
}

func newPipeWriter(upload func(r io.Reader) error) *pipeWriter {
	pr, pw := io.Pipe()
	done := make(chan error, 1)
	go func() {
		err := upload(pr)
		// unblock writers if the upload stops early
		_ = pr.CloseWithError(err)
		done <- err
	}()
	return &pipeWriter{PipeWriter: pw, done: done}
}

// Close the pipe and wait for the upload.
func (w *pipeWriter) Close() error {
	if err := w.PipeWriter.Close(); err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(<-w.done)
}

// Abort the upload.
func (w *pipeWriter) Abort(err error) {
	_ = w.PipeWriter.CloseWithError(err)
	<-w.done
}
