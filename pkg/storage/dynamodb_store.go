package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"

	"github.com/statkit/absbridge/pkg/dataflow"
)

// cacheItemID is the partition key of the single snapshot item
const cacheItemID = "dataflows"

// DynamoDBStoreConfig contains configuration for the DynamoDB store
type DynamoDBStoreConfig struct {
	// Region is the AWS region
	Region string

	// AccessKey is an optional static AWS access key
	AccessKey string

	// SecretKey is an optional static AWS secret key
	SecretKey string

	// TablePrefix is the prefix for the cache table name
	TablePrefix string

	// Endpoint is the DynamoDB endpoint (for local development)
	Endpoint string
}

// DynamoDBStore implements the CacheStore interface using DynamoDB
type DynamoDBStore struct {
	client    dynamodbiface.DynamoDBAPI
	tableName string
}

// NewDynamoDBStore creates a new DynamoDB-backed cache store
func NewDynamoDBStore(config DynamoDBStoreConfig) (*DynamoDBStore, error) {
	awsConfig := &aws.Config{
		Region: aws.String(config.Region),
	}

	// Set credentials if provided
	if config.AccessKey != "" && config.SecretKey != "" {
		awsConfig.Credentials = credentials.NewStaticCredentials(
			config.AccessKey,
			config.SecretKey,
			"",
		)
	}

	// Set endpoint for local DynamoDB if provided
	if config.Endpoint != "" {
		awsConfig.Endpoint = aws.String(config.Endpoint)
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &DynamoDBStore{
		client:    dynamodb.New(sess),
		tableName: config.TablePrefix + "dataflow_cache",
	}, nil
}

// Initialize creates the cache table if it does not exist
func (s *DynamoDBStore) Initialize() error {
	_, err := s.client.DescribeTable(&dynamodb.DescribeTableInput{
		TableName: aws.String(s.tableName),
	})
	if err == nil {
		return nil
	}

	aerr, ok := err.(awserr.Error)
	if !ok || aerr.Code() != dynamodb.ErrCodeResourceNotFoundException {
		return fmt.Errorf("failed to describe table %s: %w", s.tableName, err)
	}

	_, err = s.client.CreateTable(&dynamodb.CreateTableInput{
		TableName:   aws.String(s.tableName),
		BillingMode: aws.String(dynamodb.BillingModePayPerRequest),
		AttributeDefinitions: []*dynamodb.AttributeDefinition{
			{
				AttributeName: aws.String("cache_id"),
				AttributeType: aws.String(dynamodb.ScalarAttributeTypeS),
			},
		},
		KeySchema: []*dynamodb.KeySchemaElement{
			{
				AttributeName: aws.String("cache_id"),
				KeyType:       aws.String(dynamodb.KeyTypeHash),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create table %s: %w", s.tableName, err)
	}

	if err := s.client.WaitUntilTableExists(&dynamodb.DescribeTableInput{
		TableName: aws.String(s.tableName),
	}); err != nil {
		return fmt.Errorf("failed waiting for table %s: %w", s.tableName, err)
	}

	return nil
}

// Load retrieves the persisted snapshot
func (s *DynamoDBStore) Load() (*dataflow.Cache, error) {
	result, err := s.client.GetItem(&dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]*dynamodb.AttributeValue{
			"cache_id": {S: aws.String(cacheItemID)},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read cache from dynamodb: %w", err)
	}

	if result.Item == nil {
		return nil, ErrCacheNotFound
	}

	payload := result.Item["payload"]
	if payload == nil || payload.S == nil {
		return nil, fmt.Errorf("cache item in table %s has no payload", s.tableName)
	}

	var cache dataflow.Cache
	if err := json.Unmarshal([]byte(*payload.S), &cache); err != nil {
		return nil, fmt.Errorf("failed to parse cached snapshot: %w", err)
	}

	return &cache, nil
}

// Save replaces the persisted snapshot
func (s *DynamoDBStore) Save(cache *dataflow.Cache) error {
	data, err := json.Marshal(cache)
	if err != nil {
		return fmt.Errorf("failed to marshal cache: %w", err)
	}

	_, err = s.client.PutItem(&dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item: map[string]*dynamodb.AttributeValue{
			"cache_id":     {S: aws.String(cacheItemID)},
			"last_updated": {S: aws.String(cache.LastUpdated.Format(time.RFC3339Nano))},
			"payload":      {S: aws.String(string(data))},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to write cache to dynamodb: %w", err)
	}

	return nil
}

// Close cleans up resources
func (s *DynamoDBStore) Close() error {
	return nil
}
