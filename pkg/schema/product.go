package schema

import (
	"time"

	"github.com/hamba/avro/v2"
)

const ProductSchemaTextV1 = `{
	"type": "record",
	"namespace": "storefront",
	"name": "product",
	"fields": [
		{"name": "id", "type": "string"},
		{"name": "name", "type": "string"},
		{"name": "description", "type": "string"},
		{"name": "price", "type": "double"},
		{"name": "stock", "type": "long"},
		{"name": "category", "type": "string"},
		{"name": "rating", "type": "double"},
		{"name": "featured", "type": "boolean"},
		{"name": "images", "type": {"type": "array", "items": "string"}},
		{"name": "reviews", "type": {"type": "array", "items": {
			"type": "record",
			"name": "review",
			"fields": [
				{"name": "id", "type": "string"},
				{"name": "author", "type": "string"},
				{"name": "rating", "type": "double"},
				{"name": "comment", "type": "string"},
				{"name": "date", "type": "string"}
			]
		}}},
		{"name": "created_at", "type": {"type": "long", "logicalType": "timestamp-millis"}},
		{"name": "updated_at", "type": {"type": "long", "logicalType": "timestamp-millis"}}
	]
}`

const ProductEventSchemaTextV1 = `{
	"type": "record",
	"namespace": "storefront",
	"name": "product_event",
	"fields": [
		{"name": "op", "type": "string"},
		{"name": "product_id", "type": "string"},
		{"name": "product", "type": ["null", ` + ProductSchemaTextV1 + `], "default": null}
	]
}`

type (
	ProductV1 struct {
		ID          string     `avro:"id"`
		Name        string     `avro:"name"`
		Description string     `avro:"description"`
		Price       float64    `avro:"price"`
		Stock       int64      `avro:"stock"`
		Category    string     `avro:"category"`
		Rating      float64    `avro:"rating"`
		Featured    bool       `avro:"featured"`
		Images      []string   `avro:"images"`
		Reviews     []ReviewV1 `avro:"reviews"`
		CreatedAt   time.Time  `avro:"created_at"`
		UpdatedAt   time.Time  `avro:"updated_at"`
	}

	ReviewV1 struct {
		ID      string  `avro:"id"`
		Author  string  `avro:"author"`
		Rating  float64 `avro:"rating"`
		Comment string  `avro:"comment"`
		Date    string  `avro:"date"`
	}

	// A ProductEventV1 is a catalog change, Product is nil on delete.
	ProductEventV1 struct {
		Op        string     `avro:"op"`
		ProductID string     `avro:"product_id"`
		Product   *ProductV1 `avro:"product"`
	}
)

// ProductV1Avro panics on invalid schema text.
func ProductV1Avro() avro.Schema {
	return avro.MustParse(ProductSchemaTextV1)
}

// ProductEventV1Avro panics on invalid schema text.
func ProductEventV1Avro() avro.Schema {
	return avro.MustParse(ProductEventSchemaTextV1)
}
