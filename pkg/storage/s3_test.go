package storage

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeS3 内存版 S3 客户端
type fakeS3 struct {
	objects map[string][]byte
	types   map[string]string
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	key := aws.ToString(in.Key)
	f.objects[key] = data
	f.types[key] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if _, ok := f.objects[aws.ToString(in.Key)]; !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{}, nil
}

func TestS3Storage_RoundTrip(t *testing.T) {
	fake := newFakeS3()
	s := &S3Storage{client: fake, bucket: "trazor", publicURL: "https://cdn.example.com/"}
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "logbooks/week_2_TRZ260001.pdf", strings.NewReader("%PDF"), "application/pdf"))
	assert.Equal(t, "application/pdf", fake.types["logbooks/week_2_TRZ260001.pdf"])

	rc, err := s.Get(ctx, "logbooks/week_2_TRZ260001.pdf")
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, "%PDF", string(data))

	ok, err := s.Exists(ctx, "logbooks/week_2_TRZ260001.pdf")
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Equal(t, "https://cdn.example.com/logbooks/week_2_TRZ260001.pdf", s.URL("logbooks/week_2_TRZ260001.pdf"))

	require.NoError(t, s.Delete(ctx, "logbooks/week_2_TRZ260001.pdf"))
	_, err = s.Get(ctx, "logbooks/week_2_TRZ260001.pdf")
	assert.ErrorIs(t, err, ErrNotFound)

	ok, err = s.Exists(ctx, "logbooks/week_2_TRZ260001.pdf")
	require.NoError(t, err)
	assert.False(t, ok)
}
