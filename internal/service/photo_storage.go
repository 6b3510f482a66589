package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const (
	MaxPhotoSize     = 5 * 1024 * 1024
	photoURLTTL      = 15 * time.Minute
	photoPathPrefix  = "users"
	photoSniffLength = 512
)

var (
	ErrPhotoTooBig         = errors.New("photo exceeds 5MB limit")
	ErrPhotoType           = errors.New("only JPEG and PNG photos are allowed")
	ErrPhotoStorage        = errors.New("photo storage failure")
	ErrPhotoStorageOff     = errors.New("photo storage is disabled")
	ErrPhotoNotOwned       = errors.New("photo does not belong to user")
	allowedPhotoMediaTypes = map[string]string{
		"image/jpeg": ".jpg",
		"image/png":  ".png",
	}
)

// PhotoStorage keeps profile photos under users/<uid>/.
type PhotoStorage interface {
	Upload(ctx context.Context, userUID string, file io.Reader, size int64) (string, error)
	Delete(ctx context.Context, userUID, key string) error
	URL(ctx context.Context, key string) (string, error)
}

// DisabledPhotoStorage answers every call with ErrPhotoStorageOff.
type DisabledPhotoStorage struct{}

func (DisabledPhotoStorage) Upload(context.Context, string, io.Reader, int64) (string, error) {
	return "", ErrPhotoStorageOff
}

func (DisabledPhotoStorage) Delete(context.Context, string, string) error {
	return ErrPhotoStorageOff
}

func (DisabledPhotoStorage) URL(context.Context, string) (string, error) {
	return "", ErrPhotoStorageOff
}

type MinIOPhotoStorage struct {
	client   *minio.Client
	bucket   string
	initOnce sync.Once
	initErr  error
}

type MinIOSettings struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// NewMinIOPhotoStorage does not touch the server; the bucket is created on
// first use.
func NewMinIOPhotoStorage(settings MinIOSettings) (*MinIOPhotoStorage, error) {
	client, err := minio.New(settings.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(settings.AccessKey, settings.SecretKey, ""),
		Secure: settings.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return &MinIOPhotoStorage{client: client, bucket: settings.Bucket}, nil
}

func (s *MinIOPhotoStorage) lazyInit(ctx context.Context) error {
	s.initOnce.Do(func() {
		exists, err := s.client.BucketExists(ctx, s.bucket)
		if err != nil {
			s.initErr = fmt.Errorf("%w: check bucket: %v", ErrPhotoStorage, err)
			return
		}
		if !exists {
			if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
				s.initErr = fmt.Errorf("%w: create bucket: %v", ErrPhotoStorage, err)
			}
		}
	})
	return s.initErr
}

// Upload sniffs the content type from the first bytes instead of trusting
// the client header.
func (s *MinIOPhotoStorage) Upload(ctx context.Context, userUID string, file io.Reader, size int64) (string, error) {
	if size > MaxPhotoSize {
		return "", ErrPhotoTooBig
	}
	buf := make([]byte, photoSniffLength)
	n, err := io.ReadFull(file, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", fmt.Errorf("%w: read photo: %v", ErrPhotoStorage, err)
	}
	buf = buf[:n]
	mediaType := strings.ToLower(http.DetectContentType(buf))
	ext, ok := allowedPhotoMediaTypes[mediaType]
	if !ok {
		return "", ErrPhotoType
	}

	if err := s.lazyInit(ctx); err != nil {
		return "", err
	}

	key := fmt.Sprintf("%s/%s/%s%s", photoPathPrefix, userUID, uuid.NewString(), ext)
	_, err = s.client.PutObject(ctx, s.bucket, key, io.MultiReader(bytes.NewReader(buf), file), size, minio.PutObjectOptions{
		ContentType: mediaType,
		UserMetadata: map[string]string{
			"User-UID":    userUID,
			"Uploaded-At": time.Now().UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: put object: %v", ErrPhotoStorage, err)
	}
	return key, nil
}

func (s *MinIOPhotoStorage) Delete(ctx context.Context, userUID, key string) error {
	if strings.TrimSpace(key) == "" {
		return nil
	}
	if strings.Contains(key, "..") || !strings.HasPrefix(key, photoKeyPrefix(userUID)) {
		return ErrPhotoNotOwned
	}
	if err := s.lazyInit(ctx); err != nil {
		return err
	}
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("%w: remove object: %v", ErrPhotoStorage, err)
	}
	return nil
}

func (s *MinIOPhotoStorage) URL(ctx context.Context, key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("%w: empty key", ErrPhotoStorage)
	}
	if err := s.lazyInit(ctx); err != nil {
		return "", err
	}
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, photoURLTTL, url.Values{})
	if err != nil {
		return "", fmt.Errorf("%w: presign: %v", ErrPhotoStorage, err)
	}
	return u.String(), nil
}

func photoKeyPrefix(userUID string) string {
	return photoPathPrefix + "/" + userUID + "/"
}
