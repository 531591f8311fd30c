// This file is part of https://github.com/racingmars/go5250/
// Copyright 2025 by Matthew R. Wilson, licensed under the MIT license. See
// LICENSE in the project root for license information.

package go5250

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ArtifactRecord is one append-only entry in the artifact sink: the
// outcome of a single workflow step, per spec.md §4.7.
type ArtifactRecord struct {
	RunID      uuid.UUID `json:"runId"`
	StepIndex  int       `json:"stepIndex"`
	StepKind   StepAction `json:"stepKind"`
	Outcome    string    `json:"outcome"` // "ok" or "error"
	Screenshot string    `json:"screenSnapshot,omitempty"`
	Error      string    `json:"error,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// ArtifactSink receives ArtifactRecords as a workflow runs. It is
// consumed by external reporting, never read back by go5250 itself.
type ArtifactSink interface {
	Record(ArtifactRecord)
}

// FileArtifactSink writes one JSON-lines file per workflow run under
// Dir, named by the run's uuid.UUID, matching SPEC_FULL.md §3's
// wiring of google/uuid into run identification so concurrent batch
// executions never collide on disk.
type FileArtifactSink struct {
	Dir string

	mu    sync.Mutex
	files map[uuid.UUID]*os.File
}

// NewFileArtifactSink returns a sink rooted at dir, creating it if
// necessary.
func NewFileArtifactSink(dir string) (*FileArtifactSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &ConfigError{Reason: "creating artifact directory", Err: err}
	}
	return &FileArtifactSink{Dir: dir, files: make(map[uuid.UUID]*os.File)}, nil
}

func (s *FileArtifactSink) Record(rec ArtifactRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.files[rec.RunID]
	if !ok {
		path := filepath.Join(s.Dir, rec.RunID.String()+".jsonl")
		var err error
		f, err = os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			debugf("artifact sink: %v", err)
			return
		}
		s.files[rec.RunID] = f
	}

	enc, err := json.Marshal(rec)
	if err != nil {
		debugf("artifact sink: marshal: %v", err)
		return
	}
	fmt.Fprintln(f, string(enc))
}

// Close flushes and closes every open run file.
func (s *FileArtifactSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var firstErr error
	for _, f := range s.files {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// NullArtifactSink discards every record; useful for tests.
type NullArtifactSink struct{}

func (NullArtifactSink) Record(ArtifactRecord) {}
