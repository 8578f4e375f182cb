package service

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePutter struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakePutter) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = params
	f.body, _ = io.ReadAll(params.Body)
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func TestR2Storage_Upload(t *testing.T) {
	putter := &fakePutter{}
	storage := &R2Storage{client: putter, bucket: "media", publicURL: "https://cdn.example.com"}

	url, err := storage.Upload(context.Background(), "abc123", []byte("jpeg bytes"), "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/abc123", url)
	assert.Equal(t, "media", aws.ToString(putter.input.Bucket))
	assert.Equal(t, "image/jpeg", aws.ToString(putter.input.ContentType))
	assert.Equal(t, []byte("jpeg bytes"), putter.body)
}

func TestR2Storage_UploadError(t *testing.T) {
	storage := &R2Storage{client: &fakePutter{err: errors.New("denied")}, bucket: "media"}

	_, err := storage.Upload(context.Background(), "abc123", []byte("x"), "image/png")
	assert.EqualError(t, err, "denied")
}
