package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/hupe1980/clustergo/blobstore"
)

// LatestPointer is the reserved blob name that resolves to the most
// recently promoted snapshot. Reading it yields the snapshot path;
// writing it promotes a new snapshot.
const LatestPointer = "LATEST"

// ErrConcurrentPromotion is returned when two writers race to promote
// a snapshot and this one lost.
var ErrConcurrentPromotion = errors.New("concurrent snapshot promotion detected")

// RegistryStore implements blobstore.Store backed by S3 with DynamoDB
// for atomic snapshot promotion. This enables safe concurrent trainers.
//
// Snapshot blobs themselves are immutable and live in S3 under unique
// names, so they need no coordination. What does need coordination is
// the answer to "which snapshot is current": DynamoDB conditional
// writes give the compare-and-swap that S3 lacks, so two trainers
// finishing at the same time cannot both win the LATEST pointer.
//
// Table schema:
//   - Partition key: model_uri (string) - the S3 prefix of the model
//   - Sort key: version (number) - monotonically increasing version
//
// Create table with:
//
//	aws dynamodb create-table \
//	  --table-name clustergo-registry \
//	  --attribute-definitions AttributeName=model_uri,AttributeType=S AttributeName=version,AttributeType=N \
//	  --key-schema AttributeName=model_uri,KeyType=HASH AttributeName=version,KeyType=RANGE \
//	  --billing-mode PAY_PER_REQUEST
type RegistryStore struct {
	inner    *Store
	ddb      DDBClient
	table    string
	modelURI string // S3 bucket/prefix used as partition key
}

// DDBClient is the interface for DynamoDB operations.
type DDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// NewRegistryStore creates a new S3+DynamoDB registry store.
// The modelURI should be "s3://bucket/prefix" format used as partition key.
func NewRegistryStore(inner *Store, ddb DDBClient, table, modelURI string) *RegistryStore {
	return &RegistryStore{
		inner:    inner,
		ddb:      ddb,
		table:    table,
		modelURI: modelURI,
	}
}

// Open opens a blob for reading.
func (s *RegistryStore) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	// The LATEST pointer lives in DynamoDB, not S3.
	if name == LatestPointer {
		version, snapshotPath, err := s.Latest(ctx)
		if err != nil {
			return nil, err
		}
		if version == 0 {
			return nil, blobstore.ErrNotFound
		}
		// Return a virtual blob holding the snapshot path
		return &pointerBlob{content: []byte(snapshotPath)}, nil
	}
	return s.inner.Open(ctx, name)
}

// Put writes a blob. For LATEST, promotes the snapshot named by data
// using a DynamoDB conditional write.
func (s *RegistryStore) Put(ctx context.Context, name string, data []byte) error {
	if name == LatestPointer {
		return s.promote(ctx, string(data))
	}
	return s.inner.Put(ctx, name, data)
}

// Create creates a writable blob.
func (s *RegistryStore) Create(ctx context.Context, name string) (blobstore.WritableBlob, error) {
	return s.inner.Create(ctx, name)
}

// Delete deletes a blob.
func (s *RegistryStore) Delete(ctx context.Context, name string) error {
	return s.inner.Delete(ctx, name)
}

// List lists blobs with prefix.
func (s *RegistryStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.inner.List(ctx, prefix)
}

// Latest returns the most recently promoted version and its snapshot
// path. Version 0 means nothing has been promoted yet.
func (s *RegistryStore) Latest(ctx context.Context) (uint64, string, error) {
	resp, err := s.ddb.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.table),
		KeyConditionExpression: aws.String("model_uri = :uri"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uri": &types.AttributeValueMemberS{Value: s.modelURI},
		},
		ScanIndexForward: aws.Bool(false), // Descending order
		Limit:            aws.Int32(1),
	})
	if err != nil {
		return 0, "", fmt.Errorf("failed to query DynamoDB: %w", err)
	}

	if len(resp.Items) == 0 {
		return 0, "", nil
	}

	item := resp.Items[0]
	versionAttr, ok := item["version"].(*types.AttributeValueMemberN)
	if !ok {
		return 0, "", errors.New("invalid version attribute in DynamoDB")
	}
	pathAttr, ok := item["snapshot_path"].(*types.AttributeValueMemberS)
	if !ok {
		return 0, "", errors.New("invalid snapshot_path attribute in DynamoDB")
	}

	var version uint64
	if _, err := fmt.Sscanf(versionAttr.Value, "%d", &version); err != nil {
		return 0, "", fmt.Errorf("failed to parse version: %w", err)
	}

	return version, pathAttr.Value, nil
}

// promote atomically records a new latest snapshot using a DynamoDB
// conditional write.
func (s *RegistryStore) promote(ctx context.Context, snapshotPath string) error {
	// Get current version
	currentVersion, _, err := s.Latest(ctx)
	if err != nil {
		return err
	}

	newVersion := currentVersion + 1

	// Conditional put: only succeed if this version doesn't exist yet
	_, err = s.ddb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item: map[string]types.AttributeValue{
			"model_uri":     &types.AttributeValueMemberS{Value: s.modelURI},
			"version":       &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", newVersion)},
			"snapshot_path": &types.AttributeValueMemberS{Value: snapshotPath},
		},
		ConditionExpression: aws.String("attribute_not_exists(version)"),
	})

	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return ErrConcurrentPromotion
		}
		return fmt.Errorf("failed to record promotion in DynamoDB: %w", err)
	}

	return nil
}

// pointerBlob is a simple in-memory blob holding the LATEST pointer content.
type pointerBlob struct {
	content []byte
}

func (b *pointerBlob) ReadAt(_ context.Context, p []byte, off int64) (int, error) {
	if off >= int64(len(b.content)) {
		return 0, io.EOF
	}
	n := copy(p, b.content[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (b *pointerBlob) ReadRange(_ context.Context, off, length int64) (io.ReadCloser, error) {
	if off >= int64(len(b.content)) {
		return nil, io.EOF
	}
	end := off + length
	if end > int64(len(b.content)) {
		end = int64(len(b.content))
	}
	return io.NopCloser(bytes.NewReader(b.content[off:end])), nil
}

func (b *pointerBlob) Close() error {
	return nil
}

func (b *pointerBlob) Size() int64 {
	return int64(len(b.content))
}
