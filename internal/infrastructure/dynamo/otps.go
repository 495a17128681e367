package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/voucher-console/internal/domain"
	"github.com/voucher-console/internal/pkg/codehash"
)

const (
	attrKey        = "issuance_key"
	attrEmail      = "email"
	attrCodeHash   = "code_hash"
	attrExpiresAt  = "expires_at_ms"
	attrTTL        = "ttl"
	emailCodeIndex = "email-code_hash-index"
)

// API is the subset of *dynamodb.Client the OTP store uses.
type API interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// otpItem is the table row. expires_at_ms is what verification compares
// against; ttl (epoch seconds) only lets DynamoDB reap rows eventually.
type otpItem struct {
	Key         string `dynamodbav:"issuance_key"`
	Email       string `dynamodbav:"email"`
	CodeHash    string `dynamodbav:"code_hash"`
	ExpiresAtMs int64  `dynamodbav:"expires_at_ms"`
	TTL         int64  `dynamodbav:"ttl"`
}

func toItem(rec domain.OTPRecord) otpItem {
	return otpItem{
		Key:         rec.Key,
		Email:       rec.Email,
		CodeHash:    rec.CodeHash,
		ExpiresAtMs: rec.ExpiresAt.UnixMilli(),
		TTL:         rec.ExpiresAt.Unix() + 1,
	}
}

func (it otpItem) record() domain.OTPRecord {
	return domain.OTPRecord{
		Key:       it.Key,
		Email:     it.Email,
		CodeHash:  it.CodeHash,
		ExpiresAt: time.UnixMilli(it.ExpiresAtMs).UTC(),
	}
}

// OTPStore keeps codes in a DynamoDB table.
// PK: issuance_key, GSI email-code_hash-index (email, code_hash).
type OTPStore struct {
	client    API
	tableName string
}

func NewOTPStore(client API, tableName string) *OTPStore {
	return &OTPStore{client: client, tableName: tableName}
}

func (r *OTPStore) Put(ctx context.Context, rec domain.OTPRecord) error {
	item, err := attributevalue.MarshalMap(toItem(rec))
	if err != nil {
		return fmt.Errorf("marshal otp record: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("dynamo otp put: %w", err)
	}
	return nil
}

// FindValid queries the GSI, which is eventually consistent: a code read back
// within milliseconds of issuance may not be visible yet.
func (r *OTPStore) FindValid(ctx context.Context, email, codeHash string, now time.Time) (*domain.OTPRecord, error) {
	in := &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(emailCodeIndex),
		KeyConditionExpression: aws.String("#e = :e AND #h = :h"),
		FilterExpression:       aws.String("#x > :now"),
		ExpressionAttributeNames: map[string]string{
			"#e": attrEmail, "#h": attrCodeHash, "#x": attrExpiresAt,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":e":   strVal(email),
			":h":   strVal(codeHash),
			":now": numVal(now.UnixMilli()),
		},
	}
	for {
		out, err := r.client.Query(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("dynamo otp query: %w", err)
		}
		var items []otpItem
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &items); err != nil {
			return nil, fmt.Errorf("unmarshal otp records: %w", err)
		}
		for _, it := range items {
			rec := it.record()
			if rec.Email == email && codehash.Equal(rec.CodeHash, codeHash) && rec.Live(now) {
				return &rec, nil
			}
		}
		if len(out.LastEvaluatedKey) == 0 {
			return nil, domain.ErrNotFound
		}
		in.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

// Remove deletes under attribute_exists, so exactly one concurrent caller wins.
func (r *OTPStore) Remove(ctx context.Context, key string) (bool, error) {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey(attrKey, key),
		ConditionExpression: aws.String("attribute_exists(#k)"),
		ExpressionAttributeNames: map[string]string{
			"#k": attrKey,
		},
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return false, nil
		}
		return false, fmt.Errorf("dynamo otp remove: %w", err)
	}
	return true, nil
}

func (r *OTPStore) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	in := &dynamodb.ScanInput{
		TableName:                aws.String(r.tableName),
		FilterExpression:         aws.String("#x <= :now"),
		ProjectionExpression:     aws.String("#k"),
		ExpressionAttributeNames: map[string]string{"#x": attrExpiresAt, "#k": attrKey},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":now": numVal(now.UnixMilli()),
		},
	}
	n := 0
	for {
		out, err := r.client.Scan(ctx, in)
		if err != nil {
			return n, fmt.Errorf("dynamo otp sweep: %w", err)
		}
		for _, item := range out.Items {
			removed, err := r.Remove(ctx, attrString(item, attrKey))
			if err != nil {
				return n, err
			}
			if removed {
				n++
			}
		}
		if len(out.LastEvaluatedKey) == 0 {
			return n, nil
		}
		in.ExclusiveStartKey = out.LastEvaluatedKey
	}
}
