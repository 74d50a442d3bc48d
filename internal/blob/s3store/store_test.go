package s3store

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/kailas-cloud/drugqa/internal/blob"
)

// --- Mocks ---

type apiError struct {
	code string
}

func (e *apiError) Error() string                 { return e.code }
func (e *apiError) ErrorCode() string             { return e.code }
func (e *apiError) ErrorMessage() string          { return e.code }
func (e *apiError) ErrorFault() smithy.ErrorFault { return smithy.FaultClient }

type mockS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	bucket  string
	putErr  error
	headErr error
}

func newMockS3() *mockS3 {
	return &mockS3{objects: make(map[string][]byte)}
}

func (m *mockS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bucket = *in.Bucket
	data, ok := m.objects[*in.Key]
	if !ok {
		return nil, &apiError{code: "NoSuchKey"}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (m *mockS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.putErr != nil {
		return nil, m.putErr
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[*in.Key] = data
	return &s3.PutObjectOutput{}, nil
}

func (m *mockS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if m.headErr != nil {
		return nil, m.headErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[*in.Key]; !ok {
		return nil, &apiError{code: "NotFound"}
	}
	return &s3.HeadObjectOutput{}, nil
}

func (m *mockS3) HeadBucket(_ context.Context, _ *s3.HeadBucketInput, _ ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	return &s3.HeadBucketOutput{}, nil
}

// --- Tests ---

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	m := newMockS3()
	s := New(m, "drugqa-indexes")

	if err := s.Put(ctx, "tenants/public/index.msgpack", []byte("snapshot")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := s.Get(ctx, "tenants/public/index.msgpack")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "snapshot" {
		t.Errorf("Get = %q", got)
	}
	if m.bucket != "drugqa-indexes" {
		t.Errorf("bucket = %q", m.bucket)
	}
}

func TestStore_NotFoundMapping(t *testing.T) {
	s := New(newMockS3(), "b")

	if _, err := s.Get(context.Background(), "missing"); !errors.Is(err, blob.ErrNotFound) {
		t.Errorf("Get: expected ErrNotFound, got %v", err)
	}
	ok, err := s.Exists(context.Background(), "missing")
	if err != nil || ok {
		t.Errorf("Exists = %v, %v", ok, err)
	}
}

func TestStore_ErrorsAreWrapped(t *testing.T) {
	m := newMockS3()
	m.putErr = &apiError{code: "AccessDenied"}
	m.headErr = &apiError{code: "AccessDenied"}
	s := New(m, "b")

	err := s.Put(context.Background(), "k", []byte("v"))
	var be *blob.Error
	if !errors.As(err, &be) || be.Op != blob.OpPut {
		t.Errorf("Put: expected blob.Error, got %v", err)
	}
	if _, err := s.Exists(context.Background(), "k"); !errors.As(err, &be) {
		t.Errorf("Exists: expected blob.Error, got %v", err)
	}
}

func TestNewFromConfig_RequiresBucket(t *testing.T) {
	if _, err := NewFromConfig(Config{Region: "ca-central-1"}); err == nil {
		t.Error("expected error")
	}
	s, err := NewFromConfig(Config{Bucket: "b", Region: "ca-central-1", Endpoint: "http://localhost:9000", UsePathStyle: true})
	if err != nil || s == nil {
		t.Errorf("NewFromConfig = %v, %v", s, err)
	}
}
