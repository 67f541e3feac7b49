package storage

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog"
)

// CreateTablesIfNotExist creates DynamoDB tables for local development
func CreateTablesIfNotExist(ctx context.Context, client *dynamodb.Client, config DynamoConfig, logger zerolog.Logger) error {
	if err := createTouchpointsTable(ctx, client, config.TouchpointsTable, logger); err != nil {
		return err
	}
	return createDealsTable(ctx, client, config.DealsTable, logger)
}

func createTouchpointsTable(ctx context.Context, client *dynamodb.Client, name string, logger zerolog.Logger) error {
	_, err := client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(name),
	})
	if err == nil {
		logger.Info().Str("table", name).Msg("table already exists")
		return nil
	}

	_, err = client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(name),
		KeySchema: []dbtypes.KeySchemaElement{
			{AttributeName: aws.String("ContactID"), KeyType: dbtypes.KeyTypeHash},
			{AttributeName: aws.String("TouchpointID"), KeyType: dbtypes.KeyTypeRange},
		},
		AttributeDefinitions: []dbtypes.AttributeDefinition{
			{AttributeName: aws.String("ContactID"), AttributeType: dbtypes.ScalarAttributeTypeS},
			{AttributeName: aws.String("TouchpointID"), AttributeType: dbtypes.ScalarAttributeTypeS},
			{AttributeName: aws.String("OwnerID"), AttributeType: dbtypes.ScalarAttributeTypeS},
			{AttributeName: aws.String("CreatedAt"), AttributeType: dbtypes.ScalarAttributeTypeS},
		},
		GlobalSecondaryIndexes: []dbtypes.GlobalSecondaryIndex{
			{
				IndexName: aws.String(OwnerIndex),
				KeySchema: []dbtypes.KeySchemaElement{
					{AttributeName: aws.String("OwnerID"), KeyType: dbtypes.KeyTypeHash},
					{AttributeName: aws.String("CreatedAt"), KeyType: dbtypes.KeyTypeRange},
				},
				Projection: &dbtypes.Projection{ProjectionType: dbtypes.ProjectionTypeAll},
			},
		},
		BillingMode: dbtypes.BillingModePayPerRequest,
	})
	if err != nil {
		return fmt.Errorf("failed to create table %s: %w", name, err)
	}
	logger.Info().Str("table", name).Msg("table created")
	return nil
}

func createDealsTable(ctx context.Context, client *dynamodb.Client, name string, logger zerolog.Logger) error {
	_, err := client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(name),
	})
	if err == nil {
		logger.Info().Str("table", name).Msg("table already exists")
		return nil
	}

	_, err = client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(name),
		KeySchema: []dbtypes.KeySchemaElement{
			{AttributeName: aws.String("DealID"), KeyType: dbtypes.KeyTypeHash},
			{AttributeName: aws.String("OwnerID"), KeyType: dbtypes.KeyTypeRange},
		},
		AttributeDefinitions: []dbtypes.AttributeDefinition{
			{AttributeName: aws.String("DealID"), AttributeType: dbtypes.ScalarAttributeTypeS},
			{AttributeName: aws.String("OwnerID"), AttributeType: dbtypes.ScalarAttributeTypeS},
		},
		BillingMode: dbtypes.BillingModePayPerRequest,
	})
	if err != nil {
		return fmt.Errorf("failed to create table %s: %w", name, err)
	}
	logger.Info().Str("table", name).Msg("table created")
	return nil
}
