package camerastore

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/relaycore/dynrelay/internal/logging"
)

// DynamoDBStore implements Store against a DynamoDB table keyed by the
// configured partition key, one item per camera with an "id" and
// "source_url" attribute (§6.2 domain-stack expansion).
type DynamoDBStore struct {
	client       *dynamodb.Client
	tableName    string
	partitionKey string
	log          *logging.Logger
}

// dynamoItem is the wire shape of one DynamoDB item.
type dynamoItem struct {
	ID        string `dynamodbav:"id"`
	SourceURL string `dynamodbav:"source_url"`
}

// NewDynamoDBStore builds a DynamoDBStore for the given table/partition
// key, loading AWS credentials and region the standard SDK way.
func NewDynamoDBStore(ctx context.Context, tableName, partitionKey, region string, log *logging.Logger) (*DynamoDBStore, error) {
	if log == nil {
		log = logging.New("camerastore.dynamodb")
	}
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("camerastore: load aws config: %w", err)
	}
	return &DynamoDBStore{
		client:       dynamodb.NewFromConfig(cfg),
		tableName:    tableName,
		partitionKey: partitionKey,
		log:          log,
	}, nil
}

// ListAllCameras scans the configured table and returns every camera
// record. A full scan is appropriate here: the bootstrap list is read
// once at startup, not on a hot path.
func (d *DynamoDBStore) ListAllCameras(ctx context.Context) ([]Camera, error) {
	var cameras []Camera

	paginator := dynamodb.NewScanPaginator(d.client, &dynamodb.ScanInput{
		TableName: aws.String(d.tableName),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("camerastore: scan table %s: %w", d.tableName, err)
		}

		var items []dynamoItem
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
			return nil, fmt.Errorf("camerastore: unmarshal scan page: %w", err)
		}
		for _, it := range items {
			cameras = append(cameras, Camera{ID: it.ID, SourceURL: it.SourceURL})
		}
	}

	d.log.WithField("count", len(cameras)).WithField("table", d.tableName).Debug("listed cameras from dynamodb")
	return cameras, nil
}
