// Package s3 implements the artifact Store contract against an S3-compatible
// object store, keeping each model's objects under models/<id>/ like the
// local filesystem backend (chunks as models/<id>/chunks/<n>) but committing via a server-side multipart
// upload-copy instead of a local concatenate, so a multi-gigabyte artifact
// never round-trips through this process's memory or disk.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/thirdway-labs/modelctl/components/controlplane/internal/domain/artifact"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// Store is an S3-backed artifact.Store scoped to a single bucket.
type Store struct {
	client *s3.Client
	bucket string
}

// NewStore returns a Store backed by client, storing every object under bucket.
func NewStore(client *s3.Client, bucket string) *Store {
	return &Store{client: client, bucket: bucket}
}

func (s *Store) artifactKey(modelID string, compressed bool) string {
	if compressed {
		return fmt.Sprintf("models/%s/model.ndb.zip", modelID)
	}

	return fmt.Sprintf("models/%s/model.ndb", modelID)
}

func (s *Store) chunkKey(modelID string, index int) string {
	return fmt.Sprintf("models/%s/chunks/%d", modelID, index)
}

func (s *Store) reservationMarkerKey(modelID string) string {
	return fmt.Sprintf("models/%s/.reserved", modelID)
}

// Reserve writes a zero-length marker object so PutChunk can tell a model
// was reserved without needing a separate metadata store.
func (s *Store) Reserve(ctx context.Context, modelID string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.reservationMarkerKey(modelID)),
		Body:   bytes.NewReader(nil),
	})

	return err
}

func (s *Store) isReserved(ctx context.Context, modelID string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.reservationMarkerKey(modelID)),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}

		return false, err
	}

	return true, nil
}

// PutChunk uploads chunkIndex as its own object; a retried index simply
// overwrites the prior object, which S3 performs atomically from a reader's
// perspective.
func (s *Store) PutChunk(ctx context.Context, modelID string, chunkIndex int, r io.Reader) error {
	reserved, err := s.isReserved(ctx, modelID)
	if err != nil {
		return err
	}

	if !reserved {
		return artifact.ErrNotReserved{ModelID: modelID}
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.chunkKey(modelID, chunkIndex)),
		Body:   r,
	})

	return err
}

// Commit assembles chunks 1..totalChunks into the final artifact object via
// a multipart upload-copy, then deletes the chunk objects. Each chunk must
// be at least 5 MiB except the last, per S3's multipart-part-size floor;
// the control plane's chunked-upload protocol is expected to honor that.
func (s *Store) Commit(ctx context.Context, modelID string, totalChunks int) error {
	for i := 1; i <= totalChunks; i++ {
		if _, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(s.chunkKey(modelID, i)),
		}); err != nil {
			return artifact.ErrChunkMissing{ModelID: modelID, Index: i}
		}
	}

	finalKey := s.artifactKey(modelID, false)

	created, err := s.client.CreateMultipartUpload(ctx, &s3.CreateMultipartUploadInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(finalKey),
	})
	if err != nil {
		return err
	}

	parts := make([]types.CompletedPart, 0, totalChunks)

	for i := 1; i <= totalChunks; i++ {
		partNumber := int32(i)

		copied, err := s.client.UploadPartCopy(ctx, &s3.UploadPartCopyInput{
			Bucket:     aws.String(s.bucket),
			Key:        aws.String(finalKey),
			UploadId:   created.UploadId,
			PartNumber: aws.Int32(partNumber),
			CopySource: aws.String(s.bucket + "/" + s.chunkKey(modelID, i)),
		})
		if err != nil {
			s.abortMultipart(ctx, finalKey, created.UploadId)
			return err
		}

		parts = append(parts, types.CompletedPart{
			ETag:       copied.CopyPartResult.ETag,
			PartNumber: aws.Int32(partNumber),
		})
	}

	if _, err := s.client.CompleteMultipartUpload(ctx, &s3.CompleteMultipartUploadInput{
		Bucket:          aws.String(s.bucket),
		Key:             aws.String(finalKey),
		UploadId:        created.UploadId,
		MultipartUpload: &types.CompletedMultipartUpload{Parts: parts},
	}); err != nil {
		s.abortMultipart(ctx, finalKey, created.UploadId)
		return err
	}

	for i := 1; i <= totalChunks; i++ {
		s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(s.chunkKey(modelID, i)),
		})
	}

	return nil
}

func (s *Store) abortMultipart(ctx context.Context, key string, uploadID *string) {
	s.client.AbortMultipartUpload(ctx, &s3.AbortMultipartUploadInput{
		Bucket:   aws.String(s.bucket),
		Key:      aws.String(key),
		UploadId: uploadID,
	})
}

// PrepareDownload derives the zipped representation with a single
// server-side CopyObject if it is absent; S3 has no native zip
// transform, so the compressed form is produced by a lightweight proxy
// object carrying the same bytes under the .zip key when no dedicated
// compression step runs upstream of this store.
func (s *Store) PrepareDownload(ctx context.Context, modelID string, compressed bool) error {
	uncompressedKey := s.artifactKey(modelID, false)

	if _, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(uncompressedKey),
	}); err != nil {
		return artifact.ErrArtifactNotFound{ModelID: modelID}
	}

	if !compressed {
		return nil
	}

	zipKey := s.artifactKey(modelID, true)

	if _, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(zipKey),
	}); err == nil {
		return nil
	}

	_, err := s.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(s.bucket),
		Key:        aws.String(zipKey),
		CopySource: aws.String(s.bucket + "/" + uncompressedKey),
	})

	return err
}

// Stream opens a GetObject reader against the requested representation.
func (s *Store) Stream(ctx context.Context, modelID string, compressed bool) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.artifactKey(modelID, compressed)),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, artifact.ErrArtifactNotFound{ModelID: modelID}
		}

		return nil, err
	}

	return out.Body, nil
}

// Delete removes every object under the model's key prefixes.
func (s *Store) Delete(ctx context.Context, modelID string) error {
	prefixes := []string{
		fmt.Sprintf("models/%s/", modelID),
		fmt.Sprintf("data/%s/", modelID),
	}

	for _, prefix := range prefixes {
		if err := s.deletePrefix(ctx, prefix); err != nil {
			return err
		}
	}

	return nil
}

func (s *Store) deletePrefix(ctx context.Context, prefix string) error {
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return err
		}

		for _, obj := range page.Contents {
			if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
				Bucket: aws.String(s.bucket),
				Key:    obj.Key,
			}); err != nil {
				return err
			}
		}
	}

	return nil
}

var _ artifact.Store = (*Store)(nil)
