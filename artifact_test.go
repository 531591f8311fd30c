// This file is part of https://github.com/racingmars/go5250/
// Copyright 2025 by Matthew R. Wilson, licensed under the MIT license. See
// LICENSE in the project root for license information.

package go5250

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestFileArtifactSinkWritesOneFilePerRun(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewFileArtifactSink(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	runA := uuid.New()
	runB := uuid.New()
	sink.Record(ArtifactRecord{RunID: runA, StepIndex: 0, StepKind: ActionLogin, Outcome: "ok"})
	sink.Record(ArtifactRecord{RunID: runA, StepIndex: 1, StepKind: ActionSubmit, Outcome: "ok"})
	sink.Record(ArtifactRecord{RunID: runB, StepIndex: 0, StepKind: ActionLogin, Outcome: "error", Error: "boom"})

	if err := sink.Close(); err != nil {
		t.Fatalf("unexpected error closing sink: %v", err)
	}

	dataA, err := os.ReadFile(filepath.Join(dir, runA.String()+".jsonl"))
	if err != nil {
		t.Fatalf("expected a file for run A: %v", err)
	}
	lines := strings.Count(string(dataA), "\n")
	if lines != 2 {
		t.Errorf("expected 2 records for run A, got %d", lines)
	}

	dataB, err := os.ReadFile(filepath.Join(dir, runB.String()+".jsonl"))
	if err != nil {
		t.Fatalf("expected a file for run B: %v", err)
	}
	if !strings.Contains(string(dataB), "boom") {
		t.Error("expected run B's record to include the error message")
	}
}

func TestNullArtifactSinkDiscardsRecords(t *testing.T) {
	var sink NullArtifactSink
	sink.Record(ArtifactRecord{RunID: uuid.New()})
}
