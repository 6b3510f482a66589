package integration

import (
	"context"
	"fmt"
	"net"
	"os"
	"sort"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/Elmeric/cycliti/internal/service"
)

const (
	minioImage    = "docker.io/minio/minio:RELEASE.2025-09-07T16-13-09Z"
	minioRootUser = "cycliti-it"
	minioRootPass = "cycliti-it-secret"
)

// photoBucket is a disposable MinIO bucket plus an admin client used to
// look behind the PhotoStorage under test.
type photoBucket struct {
	name    string
	storage *service.MinIOPhotoStorage
	admin   *minio.Client
}

// newPhotoBucket starts MinIO in a container, or skips when Docker is absent.
func newPhotoBucket(t *testing.T) *photoBucket {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)
	ctx := context.Background()

	image := os.Getenv("MINIO_TEST_IMAGE")
	if image == "" {
		image = minioImage
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        image,
			Env:          map[string]string{"MINIO_ROOT_USER": minioRootUser, "MINIO_ROOT_PASSWORD": minioRootPass},
			ExposedPorts: []string{"9000/tcp"},
			Cmd:          []string{"server", "/data"},
			WaitingFor:   wait.ForHTTP("/minio/health/ready").WithPort("9000/tcp").WithStartupTimeout(45 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("start minio: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("minio host: %v", err)
	}
	port, err := container.MappedPort(ctx, "9000/tcp")
	if err != nil {
		t.Fatalf("minio port: %v", err)
	}
	endpoint := net.JoinHostPort(host, port.Port())
	name := fmt.Sprintf("avatars-%d", time.Now().UnixNano())

	storage, err := service.NewMinIOPhotoStorage(service.MinIOSettings{
		Endpoint:  endpoint,
		AccessKey: minioRootUser,
		SecretKey: minioRootPass,
		Bucket:    name,
	})
	if err != nil {
		t.Fatalf("photo storage: %v", err)
	}
	admin, err := minio.New(endpoint, &minio.Options{Creds: credentials.NewStaticV4(minioRootUser, minioRootPass, "")})
	if err != nil {
		t.Fatalf("minio admin client: %v", err)
	}
	return &photoBucket{name: name, storage: storage, admin: admin}
}

// userPhotos lists the object keys stored for one user, sorted.
func (b *photoBucket) userPhotos(t *testing.T, userID uint) []string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var keys []string
	for obj := range b.admin.ListObjects(ctx, b.name, minio.ListObjectsOptions{
		Prefix:    fmt.Sprintf("users/%d/", userID),
		Recursive: true,
	}) {
		if obj.Err != nil {
			if minio.ToErrorResponse(obj.Err).Code == "NoSuchBucket" {
				return nil
			}
			t.Fatalf("list photos for user %d: %v", userID, obj.Err)
		}
		keys = append(keys, obj.Key)
	}
	sort.Strings(keys)
	return keys
}

func (b *photoBucket) contentType(t *testing.T, key string) string {
	t.Helper()
	info, err := b.admin.StatObject(context.Background(), b.name, key, minio.StatObjectOptions{})
	if err != nil {
		t.Fatalf("stat %q: %v", key, err)
	}
	return info.ContentType
}
