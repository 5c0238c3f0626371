package dynamo

import (
	"context"
	"errors"
	"fmt"

	"alcyxob/file-grants/internal/domain"
	"alcyxob/file-grants/internal/repository"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
)

// PutItemAPI is the subset of *dynamodb.Client the audit repository needs.
type PutItemAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// dynamoAuditRepository implements repository.AuditRepository
type dynamoAuditRepository struct {
	client    PutItemAPI
	tableName string
}

// NewDynamoAuditRepository creates an audit repository writing to tableName.
func NewDynamoAuditRepository(client PutItemAPI, tableName string) repository.AuditRepository {
	return &dynamoAuditRepository{client: client, tableName: tableName}
}

// Put writes the record. The write is conditional on audit_id being new so
// an existing record is never replaced.
func (r *dynamoAuditRepository) Put(ctx context.Context, record *domain.AuditRecord) error {
	if err := repository.Validate(record); err != nil {
		return err
	}

	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return fmt.Errorf("marshal audit record: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(audit_id)"),
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			return repository.ErrDuplicate
		}
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			return fmt.Errorf("put audit record into %s (%s): %w", r.tableName, apiErr.ErrorCode(), err)
		}
		return fmt.Errorf("put audit record into %s: %w", r.tableName, err)
	}
	return nil
}
