// Package local implements the artifact Store contract against the local
// filesystem, mirroring the layout and chunk/commit protocol of the
// platform's original LocalStorage backend: chunks live beside the final
// artifact as model.<ext>.part<N> until commit concatenates and removes
// them.
package local

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/thirdway-labs/modelctl/components/controlplane/internal/domain/artifact"
)

// Store is a filesystem-backed artifact.Store rooted at a single directory.
type Store struct {
	root string
}

// NewStore returns a Store rooted at root, creating it if necessary.
func NewStore(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}

	return &Store{root: root}, nil
}

const artifactExtension = "ndb"

func (s *Store) modelDir(modelID string) string {
	return filepath.Join(s.root, "models", modelID)
}

func (s *Store) artifactPath(modelID string, compressed bool) string {
	ext := artifactExtension
	if compressed {
		ext += ".zip"
	}

	return filepath.Join(s.modelDir(modelID), "model."+ext)
}

func (s *Store) chunkPath(modelID string, index int) string {
	return fmt.Sprintf("%s.part%d", s.artifactPath(modelID, false), index)
}

// Reserve creates the model's artifact directory. Idempotent.
func (s *Store) Reserve(_ context.Context, modelID string) error {
	return os.MkdirAll(s.modelDir(modelID), 0o755)
}

// PutChunk writes chunkIndex's bytes to a temp file and renames it into
// place, so a crash mid-write never leaves a torn chunk visible to Commit.
func (s *Store) PutChunk(_ context.Context, modelID string, chunkIndex int, r io.Reader) error {
	dir := s.modelDir(modelID)

	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return artifact.ErrNotReserved{ModelID: modelID}
		}

		return err
	}

	tmp, err := os.CreateTemp(dir, "chunk-*.tmp")
	if err != nil {
		return err
	}

	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return err
	}

	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), s.chunkPath(modelID, chunkIndex))
}

// Commit concatenates chunks 1..totalChunks into the final artifact and
// removes the chunk parts. A missing chunk leaves every part intact for retry.
func (s *Store) Commit(_ context.Context, modelID string, totalChunks int) error {
	for i := 1; i <= totalChunks; i++ {
		if _, err := os.Stat(s.chunkPath(modelID, i)); err != nil {
			return artifact.ErrChunkMissing{ModelID: modelID, Index: i}
		}
	}

	finalPath := s.artifactPath(modelID, false)

	tmp, err := os.CreateTemp(s.modelDir(modelID), "commit-*.tmp")
	if err != nil {
		return err
	}

	for i := 1; i <= totalChunks; i++ {
		if err := appendChunk(tmp, s.chunkPath(modelID, i)); err != nil {
			tmp.Close()
			os.Remove(tmp.Name())

			return err
		}
	}

	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Rename(tmp.Name(), finalPath); err != nil {
		return err
	}

	for i := 1; i <= totalChunks; i++ {
		os.Remove(s.chunkPath(modelID, i))
	}

	return nil
}

func appendChunk(dst *os.File, chunkPath string) error {
	src, err := os.Open(chunkPath)
	if err != nil {
		return err
	}
	defer src.Close()

	_, err = io.Copy(dst, src)

	return err
}

// PrepareDownload builds the zipped representation from the uncompressed
// artifact if it doesn't already exist; a request for the uncompressed form
// is a no-op as long as the artifact exists.
func (s *Store) PrepareDownload(_ context.Context, modelID string, compressed bool) error {
	uncompressed := s.artifactPath(modelID, false)

	if _, err := os.Stat(uncompressed); err != nil {
		return artifact.ErrArtifactNotFound{ModelID: modelID}
	}

	if !compressed {
		return nil
	}

	zipPath := s.artifactPath(modelID, true)

	if _, err := os.Stat(zipPath); err == nil {
		return nil
	}

	return zipFile(zipPath, uncompressed, "model."+artifactExtension)
}

func zipFile(zipPath, srcPath, arcname string) error {
	tmp, err := os.CreateTemp(filepath.Dir(zipPath), "zip-*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	zw := zip.NewWriter(tmp)

	w, err := zw.Create(arcname)
	if err != nil {
		zw.Close()
		tmp.Close()

		return err
	}

	src, err := os.Open(srcPath)
	if err != nil {
		zw.Close()
		tmp.Close()

		return err
	}

	if _, err := io.Copy(w, src); err != nil {
		src.Close()
		zw.Close()
		tmp.Close()

		return err
	}

	src.Close()

	if err := zw.Close(); err != nil {
		tmp.Close()
		return err
	}

	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), zipPath)
}

// Stream opens the committed artifact (compressed or not) for sequential read.
func (s *Store) Stream(_ context.Context, modelID string, compressed bool) (io.ReadCloser, error) {
	path := s.artifactPath(modelID, compressed)

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, artifact.ErrArtifactNotFound{ModelID: modelID}
		}

		return nil, err
	}

	return f, nil
}

// Delete removes every artifact file and data directory for modelID.
func (s *Store) Delete(_ context.Context, modelID string) error {
	if err := os.RemoveAll(s.modelDir(modelID)); err != nil {
		return err
	}

	return os.RemoveAll(filepath.Join(s.root, "data", modelID))
}

var _ artifact.Store = (*Store)(nil)
