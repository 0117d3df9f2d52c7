package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/craft_store/internal/models"
)

// OrderDoc is the search projection of an order.
type OrderDoc struct {
	ID            string             `json:"id"`
	CustomerID    string             `json:"customer_id"`
	Status        models.OrderStatus `json:"status"`
	PaymentMethod string             `json:"payment_method"`
	OrderDate     time.Time          `json:"order_date"`
	DeliveryDate  string             `json:"delivery_date"`
	TotalAmount   decimal.Decimal    `json:"total_amount"`
	ProductIDs    []uint             `json:"product_ids"`
	ItemsCount    int                `json:"items_count"`
}

func DocOf(o *models.Order) OrderDoc {
	doc := OrderDoc{
		ID:            o.ID.String(),
		CustomerID:    o.CustomerID,
		Status:        o.Status,
		PaymentMethod: o.PaymentMethod,
		OrderDate:     o.OrderDate.UTC(),
		DeliveryDate:  o.DeliveryDate.UTC().Format(time.DateOnly),
		TotalAmount:   o.TotalAmount,
	}
	for _, it := range o.LineItems {
		doc.ProductIDs = append(doc.ProductIDs, it.ProductID)
		doc.ItemsCount += it.Quantity
	}
	return doc
}

type Query struct {
	Text   string
	Status models.OrderStatus
	From   int
	Size   int
}

type OrderIndex struct {
	ES    *elasticsearch.Client
	Index string
}

func NewOrderIndex(es *elasticsearch.Client, index string) *OrderIndex {
	return &OrderIndex{ES: es, Index: index}
}

func (x *OrderIndex) IndexOrder(ctx context.Context, o *models.Order) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(DocOf(o)); err != nil {
		return fmt.Errorf("encode order: %w", err)
	}

	res, err := x.ES.Index(x.Index, &buf,
		x.ES.Index.WithContext(ctx),
		x.ES.Index.WithDocumentID(o.ID.String()),
		x.ES.Index.WithRefresh("wait_for"),
	)
	if err != nil {
		return fmt.Errorf("index order: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("index order: %s: %s", res.Status(), body)
	}
	return nil
}

func (x *OrderIndex) Search(ctx context.Context, q Query) (int64, []OrderDoc, error) {
	var must []map[string]any
	if q.Text != "" {
		must = append(must, map[string]any{
			"multi_match": map[string]any{
				"query":     q.Text,
				"fields":    []string{"id", "customer_id^2", "payment_method"},
				"fuzziness": "AUTO",
			},
		})
	}
	if q.Status != "" {
		must = append(must, map[string]any{"term": map[string]any{"status": q.Status}})
	}

	query := map[string]any{"match_all": map[string]any{}}
	if len(must) > 0 {
		query = map[string]any{"bool": map[string]any{"must": must}}
	}

	body := map[string]any{
		"query": query,
		"from":  q.From,
		"size":  q.Size,
		"sort":  []map[string]any{{"order_date": "desc"}},
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, fmt.Errorf("encode query: %w", err)
	}

	res, err := x.ES.Search(
		x.ES.Search.WithContext(ctx),
		x.ES.Search.WithIndex(x.Index),
		x.ES.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search orders: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		b, _ := io.ReadAll(res.Body)
		return 0, nil, fmt.Errorf("search orders: %s: %s", res.Status(), b)
	}

	var r struct {
		Hits struct {
			Total struct{ Value int64 } `json:"total"`
			Hits  []struct {
				Source OrderDoc `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, fmt.Errorf("decode search: %w", err)
	}

	docs := make([]OrderDoc, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		docs[i] = hit.Source
	}
	return r.Hits.Total.Value, docs, nil
}

const orderMapping = `{
  "mappings": {
    "properties": {
      "id":             {"type": "keyword"},
      "customer_id":    {"type": "keyword"},
      "status":         {"type": "keyword"},
      "payment_method": {"type": "text"},
      "order_date":     {"type": "date"},
      "delivery_date":  {"type": "date", "format": "yyyy-MM-dd"},
      "total_amount":   {"type": "scaled_float", "scaling_factor": 100},
      "product_ids":    {"type": "long"},
      "items_count":    {"type": "integer"}
    }
  }
}`

// EnsureIndex creates the order index with its mapping unless it exists.
func (x *OrderIndex) EnsureIndex(ctx context.Context) error {
	res, err := x.ES.Indices.Exists([]string{x.Index}, x.ES.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("index exists: %w", err)
	}
	res.Body.Close()
	if res.StatusCode == 200 {
		return nil
	}

	res, err = x.ES.Indices.Create(x.Index,
		x.ES.Indices.Create.WithContext(ctx),
		x.ES.Indices.Create.WithBody(bytes.NewReader([]byte(orderMapping))),
	)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("create index: %s: %s", res.Status(), body)
	}
	return nil
}
