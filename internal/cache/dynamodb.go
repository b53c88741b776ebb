package cache

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
)

const (
	attrKey       = "key"
	attrValue     = "value"
	attrExpiresAt = "expires_at"
)

type DynamoDBConfig struct {
	Table    string `envconfig:"TABLE" default:"fuelbot_cache"`
	Region   string `envconfig:"REGION" default:"eu-central-1"`
	Endpoint string `envconfig:"ENDPOINT" default:""`
}

// DynamoDB is a Store kept in a DynamoDB table with a string partition key
// named "key". The table's TTL attribute should be set to expires_at;
// DynamoDB deletes expired items lazily, so reads check the timestamp too.
type DynamoDB struct {
	client dynamodbiface.DynamoDBAPI
	table  string
	log    *slog.Logger
	now    func() time.Time
}

func NewDynamoDB(cfg DynamoDBConfig, logger *slog.Logger) (*DynamoDB, error) {
	config := aws.NewConfig().WithRegion(cfg.Region)
	if cfg.Endpoint != "" {
		config = config.WithEndpoint(cfg.Endpoint)
	}

	sess, err := session.NewSession()
	if err != nil {
		return nil, fmt.Errorf("error creating aws session: %w", err)
	}

	return newDynamoDB(dynamodb.New(sess, config), cfg.Table, logger), nil
}

func newDynamoDB(client dynamodbiface.DynamoDBAPI, table string, logger *slog.Logger) *DynamoDB {
	return &DynamoDB{client: client, table: table, log: logger, now: time.Now}
}

func (d *DynamoDB) Get(ctx context.Context, key string) ([]byte, bool, error) {
	out, err := d.client.GetItemWithContext(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(d.table),
		ConsistentRead: aws.Bool(true),
		Key: map[string]*dynamodb.AttributeValue{
			attrKey: {S: aws.String(key)},
		},
	})
	if err != nil {
		d.log.Debug("cache get failed", "key", key, "error", err)
		return nil, false, fmt.Errorf("dynamodb get item: %w", err)
	}
	if out.Item == nil {
		return nil, false, nil
	}

	exp, ok := out.Item[attrExpiresAt]
	if !ok || exp.N == nil {
		return nil, false, nil
	}
	expiresAt, err := strconv.ParseInt(*exp.N, 10, 64)
	if err != nil {
		return nil, false, fmt.Errorf("dynamodb parse %s: %w", attrExpiresAt, err)
	}
	if expiresAt <= d.now().Unix() {
		return nil, false, nil
	}

	val, ok := out.Item[attrValue]
	if !ok {
		return nil, false, nil
	}
	return val.B, true, nil
}

func (d *DynamoDB) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := checkTTL(ttl); err != nil {
		return err
	}
	expiresAt := d.now().Add(ttl).Unix()
	_, err := d.client.PutItemWithContext(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.table),
		Item: map[string]*dynamodb.AttributeValue{
			attrKey:       {S: aws.String(key)},
			attrValue:     {B: value},
			attrExpiresAt: {N: aws.String(strconv.FormatInt(expiresAt, 10))},
		},
	})
	if err != nil {
		d.log.Debug("cache put failed", "key", key, "error", err)
		return fmt.Errorf("dynamodb put item: %w", err)
	}
	return nil
}

func (d *DynamoDB) Close() error { return nil }
