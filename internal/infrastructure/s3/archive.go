package s3infra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/voucher-console/internal/domain"
)

// PutObjectAPI is the part of *s3.Client the archive needs.
type PutObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Archive writes one JSON object per confirmed deletion, keyed
// deletions/<item type>/<yyyy>/<mm>/<dd>/<record id>.json.
type Archive struct {
	client PutObjectAPI
	bucket string
}

func NewArchive(client PutObjectAPI, bucket string) *Archive {
	return &Archive{client: client, bucket: bucket}
}

func objectKey(rec domain.DeletionRecord) string {
	return fmt.Sprintf("deletions/%s/%s/%s.json",
		rec.ItemType, rec.DeletedAt.UTC().Format("2006/01/02"), rec.ID)
}

func (a *Archive) Archive(ctx context.Context, rec domain.DeletionRecord) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal deletion record: %w", err)
	}
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(objectKey(rec)),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("s3 put object: %w", err)
	}
	return nil
}
