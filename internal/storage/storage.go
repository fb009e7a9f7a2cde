// Package storage abstracts the partitioned key-value store backing the
// tracker: partition key userId, sort key cardId in the cards table, userId
// alone in the profiles table.
package storage

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Item is one stored record in attribute-value form.
type Item = map[string]types.AttributeValue

// Page is one page of a partition query.
type Page struct {
	Items []Item
	// LastKey is the continuation key, nil when the partition is exhausted.
	LastKey Item
}

// Store is the contract handlers use. Every operation is scoped to one
// partition; nothing here can read across users except ScanAll inside
// QueryAll's degraded path, which still filters on userId equality.
type Store interface {
	// Get returns the item at key, or nil when absent.
	Get(ctx context.Context, table string, key Item) (Item, error)

	// Query returns one page of the user's partition.
	Query(ctx context.Context, table, userID string, limit int32, startKey Item) (Page, error)

	// QueryAll returns the entire partition. Read-only aggregation paths use
	// this; it may degrade to a filtered scan when the partition query fails
	// in a recoverable way.
	QueryAll(ctx context.Context, table, userID string) ([]Item, error)

	// Put upserts a full item.
	Put(ctx context.Context, table string, item Item) error

	// Update merges patch into the item at key and returns the merged item.
	// The item is created if absent. Callers always include updatedAt.
	Update(ctx context.Context, table string, key Item, patch Item) (Item, error)

	// Delete removes the item at key. Deleting a missing item is not an error.
	Delete(ctx context.Context, table string, key Item) error
}

// CardKey addresses an item in the cards table.
func CardKey(userID, cardID string) Item {
	return Item{
		"userId": &types.AttributeValueMemberS{Value: userID},
		"cardId": &types.AttributeValueMemberS{Value: cardID},
	}
}

// UserKey addresses an item in the profiles table.
func UserKey(userID string) Item {
	return Item{
		"userId": &types.AttributeValueMemberS{Value: userID},
	}
}
