package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/connect-metrics/internal/config"
)

func newTestStorage(t *testing.T) *LocalStore {
	s, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestNew(t *testing.T) {
	s, err := New(context.Background(), config.StorageConfig{Type: "local", LocalPath: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, "local", s.Name())

	_, err = New(context.Background(), config.StorageConfig{Type: "gcs"})
	assert.Error(t, err)

	_, err = New(context.Background(), config.StorageConfig{Type: "aws"})
	assert.Error(t, err, "bucket is required")
}

func TestLocalStore_PutGetList(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "kixie_call_history/b.csv", []byte("Disposition,To Number\n"), "text/csv"))
	require.NoError(t, s.Put(ctx, "kixie_call_history/a.csv", []byte("x"), "text/csv"))
	require.NoError(t, s.Put(ctx, "kixie_call_history/a.csv", []byte("overwritten"), "text/csv"))

	data, err := s.Get(ctx, "kixie_call_history/a.csv")
	require.NoError(t, err)
	assert.Equal(t, "overwritten", string(data))

	objs, err := s.List(ctx, "kixie_call_history")
	require.NoError(t, err)
	require.Len(t, objs, 2)
	assert.Equal(t, "kixie_call_history/a.csv", objs[0].Key)
	assert.Equal(t, "a.csv", objs[0].Name)
	assert.Equal(t, int64(len("overwritten")), objs[0].Size)
	assert.False(t, objs[0].LastModified.IsZero())
}

func TestLocalStore_MissingFolderAndKey(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	objs, err := s.List(ctx, "powerlist_contacts")
	require.NoError(t, err)
	assert.Empty(t, objs)

	_, err = s.Get(ctx, "powerlist_contacts/none.csv")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, s.Ping(ctx))
}

func TestLocalStore_RejectsTraversal(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	assert.Error(t, s.Put(ctx, "../escape.csv", []byte("x"), "text/csv"))
	_, err := s.Get(ctx, "kixie_call_history/../../etc/passwd")
	assert.Error(t, err)
}

type fakeS3 struct {
	objects map[string][]byte
	listErr error
	pages   int
	puts    map[string]string
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}, puts: map[string]string{}}
}

func (f *fakeS3) ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.pages++
	if f.listErr != nil {
		return nil, f.listErr
	}
	prefix := aws.ToString(in.Prefix)
	out := &s3.ListObjectsV2Output{}
	for k, v := range f.objects {
		if strings.HasPrefix(k, prefix) {
			out.Contents = append(out.Contents, s3types.Object{
				Key:          aws.String(k),
				Size:         aws.Int64(int64(len(v))),
				LastModified: aws.Time(time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)),
			})
		}
	}
	return out, nil
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &s3types.NoSuchKey{Message: aws.String("missing")}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	key := aws.ToString(in.Key)
	f.objects[key] = data
	f.puts[key] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) HeadBucket(ctx context.Context, in *s3.HeadBucketInput, _ ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	return &s3.HeadBucketOutput{}, nil
}

func TestS3Store(t *testing.T) {
	fake := newFakeS3()
	fake.objects["prod/telesign_with_live/one.csv"] = []byte("phone_e164\n+15551234567\n")
	fake.objects["prod/telesign_with_live/nested/skip.csv"] = []byte("x")
	fake.objects["prod/telesign_without_live/two.csv"] = []byte("x")
	s := NewS3StoreWithClient(fake, "bucket", "/prod/")
	ctx := context.Background()

	objs, err := s.List(ctx, "telesign_with_live")
	require.NoError(t, err)
	require.Len(t, objs, 1)
	assert.Equal(t, Object{
		Key:          "telesign_with_live/one.csv",
		Name:         "one.csv",
		Size:         int64(len("phone_e164\n+15551234567\n")),
		LastModified: time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC),
	}, objs[0])

	data, err := s.Get(ctx, objs[0].Key)
	require.NoError(t, err)
	assert.Contains(t, string(data), "+15551234567")

	_, err = s.Get(ctx, "telesign_with_live/missing.csv")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Put(ctx, "powerlist_contacts/powerlist_contacts.csv", []byte("a"), "text/csv"))
	assert.Equal(t, "text/csv", fake.puts["prod/powerlist_contacts/powerlist_contacts.csv"])

	assert.NoError(t, s.Ping(ctx))
}

func TestS3Store_ListError(t *testing.T) {
	fake := newFakeS3()
	fake.listErr = errors.New("access denied")
	s := NewS3StoreWithClient(fake, "bucket", "")

	_, err := s.List(context.Background(), "kixie_call_history")
	assert.ErrorContains(t, err, "access denied")
}

func TestFallback(t *testing.T) {
	ctx := context.Background()
	fake := newFakeS3()
	fake.objects["kixie_call_history/remote.csv"] = []byte("remote")
	fake.objects["powerlist_contacts/readme.txt"] = []byte("not a csv")
	primary := NewS3StoreWithClient(fake, "bucket", "")

	local := newTestStorage(t)
	require.NoError(t, local.Put(ctx, "kixie_call_history/local.csv", []byte("local"), "text/csv"))
	require.NoError(t, local.Put(ctx, "powerlist_contacts/local.csv", []byte("local"), "text/csv"))

	f := NewFallback(primary, local)
	assert.Equal(t, "s3+local", f.Name())

	objs, err := f.List(ctx, "kixie_call_history")
	require.NoError(t, err)
	require.Len(t, objs, 1)
	assert.Equal(t, "remote.csv", objs[0].Name)

	objs, err = f.List(ctx, "powerlist_contacts")
	require.NoError(t, err)
	require.Len(t, objs, 1)
	assert.Equal(t, "local.csv", objs[0].Name, "no CSVs in primary folder")

	data, err := f.Get(ctx, "powerlist_contacts/local.csv")
	require.NoError(t, err)
	assert.Equal(t, "local", string(data))

	fake.listErr = errors.New("timeout")
	objs, err = f.List(ctx, "kixie_call_history")
	require.NoError(t, err)
	assert.Equal(t, "local.csv", objs[0].Name, "primary failure")
}

func TestIsCSV(t *testing.T) {
	assert.True(t, IsCSV("export.csv"))
	assert.True(t, IsCSV("EXPORT.CSV"))
	assert.False(t, IsCSV("notes.txt"))
	assert.False(t, IsCSV("csv"))
}
