package service

import (
	"bytes"
	"context"
	"errors"
	"io"

	"github.com/google/uuid"

	"github.com/njprem/hubmarket-accounts/internal/media"
	"github.com/njprem/hubmarket-accounts/internal/repository/ports"
)

const profilePhotoPrefix = "profile/"

func prepareImageForUpload(ctx context.Context, processor media.Processor, upload media.Upload, maxDimension int) (io.Reader, int64, string, error) {
	if processor == nil {
		return upload.Reader, upload.Size, upload.ContentType, nil
	}
	result, err := processor.Process(ctx, upload, maxDimension)
	if err != nil {
		return nil, 0, "", err
	}
	return bytes.NewReader(result.Bytes), int64(len(result.Bytes)), result.ContentType, nil
}

// PhotoStore validates profile photos and writes them to object storage.
type PhotoStore struct {
	storage      ports.ObjectStorage
	processor    media.Processor
	bucket       string
	maxBytes     int64
	maxDimension int
}

func NewPhotoStore(storage ports.ObjectStorage, processor media.Processor, bucket string, maxBytes int64, maxDimension int) *PhotoStore {
	if maxBytes <= 0 {
		maxBytes = media.DefaultMaxBytes
	}
	if maxDimension <= 0 {
		maxDimension = media.DefaultMaxDimension
	}
	return &PhotoStore{
		storage:      storage,
		processor:    processor,
		bucket:       bucket,
		maxBytes:     maxBytes,
		maxDimension: maxDimension,
	}
}

// SavePhoto returns the stored reference for upload.
func (p *PhotoStore) SavePhoto(ctx context.Context, upload media.Upload) (string, error) {
	if err := media.Validate(upload, p.maxBytes); err != nil {
		return "", err
	}
	objectName := profilePhotoPrefix + uuid.NewString() + media.Extension(upload)
	reader, size, contentType, err := prepareImageForUpload(ctx, p.processor, upload, p.maxDimension)
	if err != nil {
		return "", err
	}
	return p.storage.Upload(ctx, p.bucket, objectName, contentType, reader, size)
}

func mapPhotoError(err error) error {
	switch {
	case errors.Is(err, media.ErrTooLarge):
		return ErrImageTooLarge
	case errors.Is(err, media.ErrNotImage), errors.Is(err, media.ErrEmpty):
		return ErrInvalidImage
	default:
		return ErrPersistence
	}
}
