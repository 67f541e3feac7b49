package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/closeloop/backend/internal/types"
	"github.com/rs/zerolog"
)

// DynamoDBStore implements Store using AWS DynamoDB
type DynamoDBStore struct {
	client *dynamodb.Client
	config DynamoConfig
	logger zerolog.Logger
}

// NewDynamoDBStore creates a new DynamoDB store
func NewDynamoDBStore(ctx context.Context, cfg DynamoConfig, logger zerolog.Logger) (*DynamoDBStore, error) {
	var client *dynamodb.Client

	if cfg.Mode == DynamoModeLocal {
		// For local mode, build the client directly without LoadDefaultConfig.
		// LoadDefaultConfig probes the EC2 IMDS endpoint which hangs on EC2
		// instances when static credentials are intended.
		client = dynamodb.New(dynamodb.Options{
			Region:       cfg.Region,
			BaseEndpoint: aws.String(cfg.Endpoint),
			Credentials:  credentials.NewStaticCredentialsProvider("local", "local", ""),
		})
	} else {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		client = dynamodb.NewFromConfig(awsCfg)
	}

	store := &DynamoDBStore{
		client: client,
		config: cfg,
		logger: logger,
	}

	// Create tables in local mode
	if cfg.Mode == DynamoModeLocal {
		if err := CreateTablesIfNotExist(ctx, client, cfg, logger); err != nil {
			return nil, err
		}
	}

	logger.Info().
		Str("mode", string(cfg.Mode)).
		Str("region", cfg.Region).
		Msg("DynamoDB store initialized")

	return store, nil
}

// sortableTimeLayout is a fixed-width RFC3339 encoding. The SDK's
// default RFC3339Nano drops trailing zeros from the seconds field, so
// raw marshaled timestamps do not compare correctly as the owner
// index range key.
const sortableTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func sortableTime(t time.Time) string {
	return t.UTC().Format(sortableTimeLayout)
}

func marshalTouchpoint(tp types.Touchpoint) (map[string]dbtypes.AttributeValue, error) {
	item, err := attributevalue.MarshalMap(tp)
	if err != nil {
		return nil, err
	}
	item["CreatedAt"] = &dbtypes.AttributeValueMemberS{Value: sortableTime(tp.CreatedAt)}
	return item, nil
}

func (s *DynamoDBStore) PutTouchpoint(tp types.Touchpoint) error {
	item, err := marshalTouchpoint(tp)
	if err != nil {
		return fmt.Errorf("failed to marshal touchpoint: %w", err)
	}

	_, err = s.client.PutItem(context.Background(), &dynamodb.PutItemInput{
		TableName: aws.String(s.config.TouchpointsTable),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to save touchpoint: %w", err)
	}
	return nil
}

func (s *DynamoDBStore) TouchpointsByContact(contactID, ownerID string) ([]types.Touchpoint, error) {
	keyCond := expression.Key("ContactID").Equal(expression.Value(contactID))
	filter := expression.Name("OwnerID").Equal(expression.Value(ownerID))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).WithFilter(filter).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	var touchpoints []types.Touchpoint
	var lastKey map[string]dbtypes.AttributeValue

	for {
		input := &dynamodb.QueryInput{
			TableName:                 aws.String(s.config.TouchpointsTable),
			KeyConditionExpression:    expr.KeyCondition(),
			FilterExpression:          expr.Filter(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
		}
		if lastKey != nil {
			input.ExclusiveStartKey = lastKey
		}

		result, err := s.client.Query(context.Background(), input)
		if err != nil {
			return nil, fmt.Errorf("failed to query touchpoints: %w", err)
		}

		var page []types.Touchpoint
		if err := attributevalue.UnmarshalListOfMaps(result.Items, &page); err != nil {
			return nil, fmt.Errorf("failed to unmarshal touchpoints: %w", err)
		}
		touchpoints = append(touchpoints, page...)

		lastKey = result.LastEvaluatedKey
		if lastKey == nil {
			break
		}
	}

	sortTouchpoints(touchpoints)
	return touchpoints, nil
}

func (s *DynamoDBStore) TouchpointsByOwner(ownerID string, period *types.Period) ([]types.Touchpoint, error) {
	keyCond := expression.Key("OwnerID").Equal(expression.Value(ownerID))
	if period != nil {
		keyCond = keyCond.And(expression.Key("CreatedAt").Between(
			expression.Value(sortableTime(period.Start)),
			expression.Value(sortableTime(period.End)),
		))
	}
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	var touchpoints []types.Touchpoint
	var lastKey map[string]dbtypes.AttributeValue

	for {
		input := &dynamodb.QueryInput{
			TableName:                 aws.String(s.config.TouchpointsTable),
			IndexName:                 aws.String(OwnerIndex),
			KeyConditionExpression:    expr.KeyCondition(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
		}
		if lastKey != nil {
			input.ExclusiveStartKey = lastKey
		}

		result, err := s.client.Query(context.Background(), input)
		if err != nil {
			return nil, fmt.Errorf("failed to query owner touchpoints: %w", err)
		}

		var page []types.Touchpoint
		if err := attributevalue.UnmarshalListOfMaps(result.Items, &page); err != nil {
			return nil, fmt.Errorf("failed to unmarshal touchpoints: %w", err)
		}
		touchpoints = append(touchpoints, page...)

		lastKey = result.LastEvaluatedKey
		if lastKey == nil {
			break
		}
	}

	sortTouchpoints(touchpoints)
	return touchpoints, nil
}

func (s *DynamoDBStore) GetDeal(dealID, ownerID string) (*types.Deal, error) {
	result, err := s.client.GetItem(context.Background(), &dynamodb.GetItemInput{
		TableName: aws.String(s.config.DealsTable),
		Key: map[string]dbtypes.AttributeValue{
			"DealID":  &dbtypes.AttributeValueMemberS{Value: dealID},
			"OwnerID": &dbtypes.AttributeValueMemberS{Value: ownerID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get deal: %w", err)
	}
	if result.Item == nil {
		return nil, nil
	}

	var deal types.Deal
	if err := attributevalue.UnmarshalMap(result.Item, &deal); err != nil {
		return nil, fmt.Errorf("failed to unmarshal deal: %w", err)
	}
	return &deal, nil
}

func (s *DynamoDBStore) GetDeals(ownerID string, dealIDs []string) (map[string]types.Deal, error) {
	deals := make(map[string]types.Deal, len(dealIDs))

	// BatchGetItem accepts at most 100 keys per request
	for i := 0; i < len(dealIDs); i += 100 {
		end := i + 100
		if end > len(dealIDs) {
			end = len(dealIDs)
		}

		keys := make([]map[string]dbtypes.AttributeValue, 0, end-i)
		for _, id := range dealIDs[i:end] {
			keys = append(keys, map[string]dbtypes.AttributeValue{
				"DealID":  &dbtypes.AttributeValueMemberS{Value: id},
				"OwnerID": &dbtypes.AttributeValueMemberS{Value: ownerID},
			})
		}

		request := map[string]dbtypes.KeysAndAttributes{
			s.config.DealsTable: {Keys: keys},
		}

		for len(request) > 0 {
			result, err := s.client.BatchGetItem(context.Background(), &dynamodb.BatchGetItemInput{
				RequestItems: request,
			})
			if err != nil {
				return nil, fmt.Errorf("failed to batch get deals: %w", err)
			}

			var page []types.Deal
			if err := attributevalue.UnmarshalListOfMaps(result.Responses[s.config.DealsTable], &page); err != nil {
				return nil, fmt.Errorf("failed to unmarshal deals: %w", err)
			}
			for _, deal := range page {
				deals[deal.DealID] = deal
			}

			request = result.UnprocessedKeys
		}
	}

	return deals, nil
}

// NewStore creates the appropriate store based on configuration
func NewStore(ctx context.Context, logger zerolog.Logger) (Store, error) {
	cfg := LoadDynamoConfig()

	switch cfg.Mode {
	case DynamoModeLocal, DynamoModeAWS:
		return NewDynamoDBStore(ctx, cfg, logger)
	default:
		logger.Info().Msg("DynamoDB disabled (DYNAMO_MODE=none), using in-memory store")
		return NewMemoryStore(), nil
	}
}
