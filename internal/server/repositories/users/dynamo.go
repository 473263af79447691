package users

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

// DynamoAPI is the subset of the DynamoDB client used by the repository.
// Wrapping the concrete client behind this interface keeps the repository
// testable without a live endpoint.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// DynamoRepository stores user records in a table keyed by userId with a
// unique-valued secondary index on email.
//
// The table has no native uniqueness constraint on the indexed attribute, so
// Create does not detect duplicates by itself: the registration flow performs
// an explicit GetByEmail first. Two concurrent registrations for the same
// email can both pass that check; the Postgres backend closes this race at
// the store layer.
type DynamoRepository struct {
	client     DynamoAPI
	table      string
	emailIndex string
}

func NewDynamoRepository(client DynamoAPI, table, emailIndex string) *DynamoRepository {
	return &DynamoRepository{client: client, table: table, emailIndex: emailIndex}
}

// dynamoUser is the persisted attribute shape. role and isActive are
// optional attributes; createdAt is an ISO-8601 string.
type dynamoUser struct {
	UserID       string `dynamodbav:"userId"`
	Name         string `dynamodbav:"name"`
	Email        string `dynamodbav:"email"`
	PasswordHash string `dynamodbav:"passwordHash"`
	Role         string `dynamodbav:"role,omitempty"`
	IsActive     *bool  `dynamodbav:"isActive,omitempty"`
	CreatedAt    string `dynamodbav:"createdAt"`
}

func (d *dynamoUser) toModel() (*models.User, error) {
	createdAt, err := time.Parse(time.RFC3339, d.CreatedAt)
	if err != nil && d.CreatedAt != "" {
		return nil, fmt.Errorf("error parsing createdAt %q: %w", d.CreatedAt, err)
	}

	return &models.User{
		UserID:       d.UserID,
		Name:         d.Name,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		Role:         d.Role,
		IsActive:     d.IsActive,
		CreatedAt:    createdAt,
	}, nil
}

func fromModel(user *models.User) *dynamoUser {
	return &dynamoUser{
		UserID:       user.UserID,
		Name:         user.Name,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		Role:         user.Role,
		IsActive:     user.IsActive,
		CreatedAt:    user.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func (r *DynamoRepository) Create(ctx context.Context, user *models.User) error {

	item, err := attributevalue.MarshalMap(fromModel(user))
	if err != nil {
		return fmt.Errorf("error marshalling user item: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("error putting user item: %w", err)
	}

	return nil
}

func (r *DynamoRepository) GetByID(ctx context.Context, userID string) (*models.User, error) {

	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.table),
		Key: map[string]types.AttributeValue{
			"userId": &types.AttributeValueMemberS{Value: userID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("error getting user item: %w", err)
	}

	if len(out.Item) == 0 {
		return nil, common.ErrorNotFound
	}

	item := &dynamoUser{}
	if err := attributevalue.UnmarshalMap(out.Item, item); err != nil {
		return nil, fmt.Errorf("error unmarshalling user item: %w", err)
	}

	return item.toModel()
}

// GetByEmail queries the email secondary index. The index is maintained in
// step with writes and holds at most one record per email, so only the first
// match is consulted.
func (r *DynamoRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {

	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.table),
		IndexName:              aws.String(r.emailIndex),
		KeyConditionExpression: aws.String("email = :email"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":email": &types.AttributeValueMemberS{Value: email},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("error querying email index: %w", err)
	}

	if out.Count == 0 || len(out.Items) == 0 {
		return nil, common.ErrorNotFound
	}

	item := &dynamoUser{}
	if err := attributevalue.UnmarshalMap(out.Items[0], item); err != nil {
		return nil, fmt.Errorf("error unmarshalling user item: %w", err)
	}

	return item.toModel()
}
