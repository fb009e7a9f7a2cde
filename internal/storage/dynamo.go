package storage

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// Dynamo implements Store on DynamoDB.
type Dynamo struct {
	DB  *dynamodb.Client
	Log *zap.Logger
}

// NewDynamo wraps a DynamoDB client.
func NewDynamo(db *dynamodb.Client, log *zap.Logger) *Dynamo {
	return &Dynamo{DB: db, Log: log}
}

func (d *Dynamo) Get(ctx context.Context, table string, key Item) (Item, error) {
	out, err := d.DB.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(table),
		Key:       key,
	})
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if out.Item == nil {
		return nil, nil
	}
	return out.Item, nil
}

func (d *Dynamo) Query(ctx context.Context, table, userID string, limit int32, startKey Item) (Page, error) {
	in := &dynamodb.QueryInput{
		TableName:              aws.String(table),
		KeyConditionExpression: aws.String("#u = :u"),
		ExpressionAttributeNames: map[string]string{
			"#u": "userId",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":u": &types.AttributeValueMemberS{Value: userID},
		},
	}
	if limit > 0 {
		in.Limit = aws.Int32(limit)
	}
	if len(startKey) > 0 {
		in.ExclusiveStartKey = startKey
	}
	out, err := d.DB.Query(ctx, in)
	if err != nil {
		return Page{}, fmt.Errorf("query partition: %w", err)
	}
	page := Page{Items: out.Items}
	if len(out.LastEvaluatedKey) > 0 {
		page.LastKey = out.LastEvaluatedKey
	}
	return page, nil
}

func (d *Dynamo) QueryAll(ctx context.Context, table, userID string) ([]Item, error) {
	var items []Item
	var start Item
	for {
		page, err := d.Query(ctx, table, userID, 0, start)
		if err != nil {
			d.Log.Warn("partition query failed, falling back to filtered scan",
				zap.String("table", table), zap.Error(err))
			return d.scanAll(ctx, table, userID)
		}
		items = append(items, page.Items...)
		if page.LastKey == nil {
			return items, nil
		}
		start = page.LastKey
	}
}

// scanAll is the degraded read path: a cross-partition scan filtered on
// userId equality. Mutations never reach this.
func (d *Dynamo) scanAll(ctx context.Context, table, userID string) ([]Item, error) {
	var items []Item
	var start Item
	for {
		out, err := d.DB.Scan(ctx, &dynamodb.ScanInput{
			TableName:        aws.String(table),
			FilterExpression: aws.String("#u = :u"),
			ExpressionAttributeNames: map[string]string{
				"#u": "userId",
			},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":u": &types.AttributeValueMemberS{Value: userID},
			},
			ExclusiveStartKey: start,
		})
		if err != nil {
			return nil, fmt.Errorf("scan fallback: %w", err)
		}
		items = append(items, out.Items...)
		if len(out.LastEvaluatedKey) == 0 {
			return items, nil
		}
		start = out.LastEvaluatedKey
	}
}

func (d *Dynamo) Put(ctx context.Context, table string, item Item) error {
	_, err := d.DB.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put item: %w", err)
	}
	return nil
}

func (d *Dynamo) Update(ctx context.Context, table string, key Item, patch Item) (Item, error) {
	names := make(map[string]string, len(patch))
	values := make(map[string]types.AttributeValue, len(patch))
	expr := ""
	i := 0
	for attr, val := range patch {
		n := fmt.Sprintf("#a%d", i)
		v := fmt.Sprintf(":v%d", i)
		names[n] = attr
		values[v] = val
		if expr != "" {
			expr += ", "
		}
		expr += n + " = " + v
		i++
	}
	out, err := d.DB.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(table),
		Key:                       key,
		UpdateExpression:          aws.String("SET " + expr),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		return nil, fmt.Errorf("update item: %w", err)
	}
	return out.Attributes, nil
}

func (d *Dynamo) Delete(ctx context.Context, table string, key Item) error {
	_, err := d.DB.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(table),
		Key:       key,
	})
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	return nil
}
