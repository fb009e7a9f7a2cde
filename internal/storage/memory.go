package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Memory is an in-memory Store used by tests. Items are keyed the same way
// as the real tables: userId partition, cardId sort key when present.
type Memory struct {
	mu     sync.Mutex
	tables map[string]map[string]Item

	// Err, when set, is returned by every operation.
	Err error
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{tables: make(map[string]map[string]Item)}
}

func stringAttr(item Item, name string) string {
	if v, ok := item[name].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}

func compositeKey(key Item) string {
	return stringAttr(key, "userId") + "\x00" + stringAttr(key, "cardId")
}

func clone(item Item) Item {
	out := make(Item, len(item))
	for k, v := range item {
		out[k] = v
	}
	return out
}

func (m *Memory) table(name string) map[string]Item {
	t, ok := m.tables[name]
	if !ok {
		t = make(map[string]Item)
		m.tables[name] = t
	}
	return t
}

func (m *Memory) Get(_ context.Context, table string, key Item) (Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	item, ok := m.table(table)[compositeKey(key)]
	if !ok {
		return nil, nil
	}
	return clone(item), nil
}

// partition returns the user's items ordered by sort key.
func (m *Memory) partition(table, userID string) []Item {
	var items []Item
	for _, it := range m.table(table) {
		if stringAttr(it, "userId") == userID {
			items = append(items, it)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return stringAttr(items[i], "cardId") < stringAttr(items[j], "cardId")
	})
	return items
}

func (m *Memory) Query(_ context.Context, table, userID string, limit int32, startKey Item) (Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return Page{}, m.Err
	}
	items := m.partition(table, userID)
	if len(startKey) > 0 {
		after := stringAttr(startKey, "cardId")
		i := 0
		for i < len(items) && stringAttr(items[i], "cardId") <= after {
			i++
		}
		items = items[i:]
	}
	page := Page{}
	if limit > 0 && int(limit) < len(items) {
		items = items[:limit]
		page.LastKey = CardKey(userID, stringAttr(items[len(items)-1], "cardId"))
	}
	for _, it := range items {
		page.Items = append(page.Items, clone(it))
	}
	return page, nil
}

func (m *Memory) QueryAll(ctx context.Context, table, userID string) ([]Item, error) {
	page, err := m.Query(ctx, table, userID, 0, nil)
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

func (m *Memory) Put(_ context.Context, table string, item Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.table(table)[compositeKey(item)] = clone(item)
	return nil
}

func (m *Memory) Update(_ context.Context, table string, key Item, patch Item) (Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	t := m.table(table)
	ck := compositeKey(key)
	item, ok := t[ck]
	if !ok {
		item = clone(key)
	} else {
		item = clone(item)
	}
	for k, v := range patch {
		item[k] = v
	}
	t[ck] = item
	return clone(item), nil
}

func (m *Memory) Delete(_ context.Context, table string, key Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	delete(m.table(table), compositeKey(key))
	return nil
}
