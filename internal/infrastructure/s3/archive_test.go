package s3infra

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voucher-console/internal/domain"
)

type fakePutter struct {
	in   *s3.PutObjectInput
	body []byte
	err  error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.in = in
	f.body, _ = io.ReadAll(in.Body)
	return &s3.PutObjectOutput{}, f.err
}

func record() domain.DeletionRecord {
	return domain.DeletionRecord{
		ID:        "01JABCDEF",
		ItemType:  "cash-voucher",
		ItemID:    "42",
		Email:     "a@b.com",
		DeletedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Response:  json.RawMessage(`{"message":"deleted"}`),
	}
}

func TestArchive_WritesJSONObject(t *testing.T) {
	f := &fakePutter{}
	require.NoError(t, NewArchive(f, "audit").Archive(context.Background(), record()))

	assert.Equal(t, "audit", aws.ToString(f.in.Bucket))
	assert.Equal(t, "deletions/cash-voucher/2026/03/01/01JABCDEF.json", aws.ToString(f.in.Key))
	assert.Equal(t, "application/json", aws.ToString(f.in.ContentType))

	var got domain.DeletionRecord
	require.NoError(t, json.Unmarshal(f.body, &got))
	assert.Equal(t, "42", got.ItemID)
	assert.JSONEq(t, `{"message":"deleted"}`, string(got.Response))
}

func TestArchive_WrapsPutError(t *testing.T) {
	f := &fakePutter{err: errors.New("access denied")}
	err := NewArchive(f, "audit").Archive(context.Background(), record())
	assert.ErrorContains(t, err, "s3 put object: access denied")
}
