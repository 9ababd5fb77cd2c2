// Package writer persists the original and validated scene documents as
// JSON artifacts. Writes go through a temporary file and an atomic rename,
// so an existing valid artifact is never left half-overwritten.
package writer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/scenekit/resize/internal/logging"
	"github.com/scenekit/resize/internal/scene"
	"github.com/scenekit/resize/internal/validate"
)

const (
	// OriginalArtifact is the canonical original scene file name.
	OriginalArtifact = "scene.json"
	// RevisedArtifact is the validated revised scene file name.
	RevisedArtifact = "new_scene.json"

	dirMode  = 0o755
	fileMode = 0o644
)

// Error reports a persistence failure. The documents are still held in
// memory, so the caller may retry the write without re-running the pipeline.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("write %s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// NativeImporter re-imports a validated document into the authoring
// application's native format. Optional: a nil importer means JSON artifacts
// only.
type NativeImporter interface {
	Import(ctx context.Context, doc *scene.Document) error
}

// Artifacts lists the files a successful write produced.
type Artifacts struct {
	Original string
	Revised  string
}

// Writer persists run artifacts to one output directory.
type Writer struct {
	dir      string
	importer NativeImporter
	logger   *logging.Logger
}

// New creates a writer targeting dir, creating it on first write if absent.
// importer may be nil.
func New(dir string, importer NativeImporter, logger *logging.Logger) *Writer {
	return &Writer{dir: dir, importer: importer, logger: logger.Stage("write")}
}

// Write persists the original document and the validated revision, then runs
// the native re-import when configured. Only validated documents are
// accepted as the revised scene.
func (w *Writer) Write(ctx context.Context, original *scene.Document, revised *validate.Validated) (Artifacts, error) {
	if err := os.MkdirAll(w.dir, dirMode); err != nil {
		return Artifacts{}, &Error{Path: w.dir, Err: err}
	}

	artifacts := Artifacts{
		Original: filepath.Join(w.dir, OriginalArtifact),
		Revised:  filepath.Join(w.dir, RevisedArtifact),
	}
	if err := w.writeDocument(artifacts.Original, original); err != nil {
		return Artifacts{}, err
	}
	if err := w.writeDocument(artifacts.Revised, revised.Document); err != nil {
		return Artifacts{}, err
	}
	w.logger.Info("artifacts written",
		zap.String("original", artifacts.Original),
		zap.String("revised", artifacts.Revised))

	if w.importer != nil {
		if err := w.importer.Import(ctx, revised.Document); err != nil {
			return artifacts, &Error{Path: "native re-import", Err: err}
		}
		w.logger.Info("revised scene re-imported into native format")
	}
	return artifacts, nil
}

// writeDocument serializes to a temp file in the target directory and
// renames over the destination. Rename within one directory is atomic on
// POSIX filesystems.
func (w *Writer) writeDocument(path string, doc *scene.Document) error {
	data, err := scene.Marshal(doc)
	if err != nil {
		return &Error{Path: path, Err: err}
	}

	tmp, err := os.CreateTemp(w.dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return &Error{Path: path, Err: err}
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op after successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return &Error{Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &Error{Path: path, Err: err}
	}
	if err := os.Chmod(tmpPath, fileMode); err != nil {
		return &Error{Path: path, Err: err}
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return &Error{Path: path, Err: err}
	}
	return nil
}
