package conversation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const (
	dynamoTurnTTL = 90 * 24 * time.Hour
	// turnKeyLayout sorts lexically in time order.
	turnKeyLayout = "2006-01-02T15:04:05.000000000Z"
)

type dynamoAPI interface {
	PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(context.Context, *dynamodb.QueryInput, ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// dynamoTurn is the item layout: sessionId is the partition key and turnKey
// the sort key.
type dynamoTurn struct {
	SessionID string            `dynamodbav:"sessionId"`
	TurnKey   string            `dynamodbav:"turnKey"`
	RequestID string            `dynamodbav:"requestId,omitempty"`
	UserText  string            `dynamodbav:"userText"`
	BotText   string            `dynamodbav:"botText"`
	Metadata  map[string]string `dynamodbav:"metadata,omitempty"`
	CreatedAt string            `dynamodbav:"createdAt"`
	ExpiresAt int64             `dynamodbav:"expiresAt,omitempty"`
}

// DynamoTurnStore archives turns in a DynamoDB table.
type DynamoTurnStore struct {
	client    dynamoAPI
	tableName string
	ttl       time.Duration
}

var _ HistoryStore = (*DynamoTurnStore)(nil)

// NewDynamoTurnStore builds a store on the given table. A zero ttl keeps
// turns for 90 days.
func NewDynamoTurnStore(client dynamoAPI, tableName string, ttl time.Duration) *DynamoTurnStore {
	if client == nil {
		panic("conversation: dynamodb client cannot be nil")
	}
	if tableName == "" {
		panic("conversation: table name cannot be empty")
	}
	if ttl <= 0 {
		ttl = dynamoTurnTTL
	}
	return &DynamoTurnStore{client: client, tableName: tableName, ttl: ttl}
}

func (s *DynamoTurnStore) Append(ctx context.Context, turn Turn) error {
	if turn.SessionID == "" {
		return nil
	}
	created := turn.CreatedAt.UTC()
	if created.IsZero() {
		created = time.Now().UTC()
	}
	key := created.Format(turnKeyLayout)
	if turn.RequestID != "" {
		key += "#" + turn.RequestID
	}

	item, err := attributevalue.MarshalMap(dynamoTurn{
		SessionID: turn.SessionID,
		TurnKey:   key,
		RequestID: turn.RequestID,
		UserText:  turn.UserText,
		BotText:   turn.BotText,
		Metadata:  turn.Metadata,
		CreatedAt: created.Format(time.RFC3339Nano),
		ExpiresAt: created.Add(s.ttl).Unix(),
	})
	if err != nil {
		return fmt.Errorf("conversation: marshal turn: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(turnKey)"),
	})
	if err != nil {
		var exists *types.ConditionalCheckFailedException
		if errors.As(err, &exists) {
			return nil
		}
		return fmt.Errorf("conversation: put turn: %w", err)
	}
	return nil
}

// RecentTurns returns up to limit turns, newest first.
func (s *DynamoTurnStore) RecentTurns(ctx context.Context, sessionID string, limit int) ([]Turn, error) {
	if sessionID == "" || limit <= 0 {
		return nil, nil
	}
	out, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String("sessionId = :sid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":sid": &types.AttributeValueMemberS{Value: sessionID},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(int32(limit)),
	})
	if err != nil {
		return nil, fmt.Errorf("conversation: query turns: %w", err)
	}

	var rows []dynamoTurn
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &rows); err != nil {
		return nil, fmt.Errorf("conversation: unmarshal turns: %w", err)
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].TurnKey > rows[j].TurnKey })

	turns := make([]Turn, 0, len(rows))
	for _, row := range rows {
		created, _ := time.Parse(time.RFC3339Nano, row.CreatedAt)
		turns = append(turns, Turn{
			SessionID: row.SessionID,
			RequestID: row.RequestID,
			UserText:  row.UserText,
			BotText:   row.BotText,
			Metadata:  row.Metadata,
			CreatedAt: created,
		})
	}
	return turns, nil
}
