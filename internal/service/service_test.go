package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"blog-api/internal/repository"
	"blog-api/internal/repository/sqlite"
	"blog-api/internal/storage"
)

type testRepos struct {
	users    repository.UserRepository
	profiles repository.ProfileRepository
	posts    repository.PostRepository
}

func newTestRepos(t *testing.T) testRepos {
	t.Helper()

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "service.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	r := testRepos{
		users:    sqlite.NewUserRepository(db),
		profiles: sqlite.NewProfileRepository(db),
		posts:    sqlite.NewPostRepository(db),
	}
	require.NoError(t, sqlite.InitAll(context.Background(), r.users, r.profiles, r.posts))
	return r
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

// memoryStorage is an in-memory storage.Service.
type memoryStorage struct {
	mu          sync.Mutex
	objects     map[string][]byte
	deleteErr   error
	contentType map[string]string
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{
		objects:     map[string][]byte{},
		contentType: map[string]string{},
	}
}

func (m *memoryStorage) Upload(_ context.Context, body io.Reader, opts storage.UploadOptions) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[opts.Bucket+"/"+opts.Key] = data
	m.contentType[opts.Key] = opts.ContentType
	return fmt.Sprintf("s3://%s/%s", opts.Bucket, opts.Key), nil
}

func (m *memoryStorage) ListObjects(_ context.Context, bucket, prefix string) ([]storage.ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []storage.ObjectInfo
	for k, v := range m.objects {
		key := strings.TrimPrefix(k, bucket+"/")
		if key == k || !strings.HasPrefix(key, prefix) {
			continue
		}
		out = append(out, storage.ObjectInfo{Key: key, Size: int64(len(v))})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (m *memoryStorage) DeletePrefix(_ context.Context, bucket, prefix string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.objects {
		if strings.HasPrefix(k, bucket+"/"+prefix) {
			delete(m.objects, k)
		}
	}
	return nil
}

func (m *memoryStorage) GetObjectURL(_ context.Context, bucket, key string, _ time.Duration) (string, error) {
	return "https://" + bucket + ".example.com/" + key, nil
}

var _ storage.Service = (*memoryStorage)(nil)

func uploadBody(s string) io.Reader { return bytes.NewBufferString(s) }

var errBoom = errors.New("boom")
