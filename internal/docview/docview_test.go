package docview

import (
	"errors"
	"testing"
)

const sampleSpec = `{
  "openapi": "3.0.0",
  "info": {"title": "Pet Store", "version": "1.0"},
  "paths": {
    "/pets": {
      "get": {
        "summary": "List pets",
        "parameters": [
          {"name": "limit", "in": "query", "required": false, "schema": {"type": "integer"}, "description": "Max results"}
        ],
        "responses": {
          "200": {"description": "A list of pets"},
          "500": {"description": "Server error"}
        }
      },
      "post": {
        "summary": "Create a pet",
        "requestBody": {
          "content": {
            "application/json": {
              "schema": {"type": "object", "properties": {"name": {"type": "string"}}}
            }
          }
        },
        "responses": {
          "201": {"description": "Created"}
        }
      }
    },
    "/pets/{id}": {
      "get": {
        "summary": "Get a pet",
        "parameters": [
          {"name": "id", "in": "path", "required": true, "schema": {"type": "string"}}
        ],
        "responses": {"200": {"description": "A pet"}}
      }
    }
  }
}`

const swaggerBodySpec = `{
  "swagger": "2.0",
  "info": {"title": "Legacy", "version": "1.0"},
  "paths": {
    "/orders": {
      "post": {
        "summary": "Place an order",
        "parameters": [
          {"name": "order", "in": "body", "schema": {"$ref": "#/definitions/Order"}}
        ],
        "responses": {"201": {"description": "Order placed"}}
      }
    }
  },
  "definitions": {
    "Order": {
      "type": "object",
      "required": ["item"],
      "properties": {
        "item": {"type": "string", "description": "Item name"},
        "count": {"type": "integer", "description": "How many"}
      }
    }
  }
}`

func TestEndpoints(t *testing.T) {
	eps := Endpoints([]byte(sampleSpec))
	if len(eps) != 3 {
		t.Fatalf("Expected 3 endpoints, got %d", len(eps))
	}

	found := make(map[string]string)
	for _, ep := range eps {
		found[ep.Method+" "+ep.Path] = ep.Summary
	}
	if found["get /pets"] != "List pets" {
		t.Errorf("Missing or wrong GET /pets entry: %v", found)
	}
	if found["post /pets"] != "Create a pet" {
		t.Errorf("Missing or wrong POST /pets entry: %v", found)
	}
	if found["get /pets/{id}"] != "Get a pet" {
		t.Errorf("Missing or wrong GET /pets/{id} entry: %v", found)
	}
}

func TestEndpoints_EmptyDocument(t *testing.T) {
	eps := Endpoints([]byte(`{"openapi":"3.0.0","paths":{}}`))
	if len(eps) != 0 {
		t.Errorf("Expected no endpoints, got %d", len(eps))
	}
}

func TestOperation_Detail(t *testing.T) {
	detail, err := Operation([]byte(sampleSpec), "/pets", "get")
	if err != nil {
		t.Fatalf("Operation failed: %v", err)
	}

	if detail.Summary != "List pets" {
		t.Errorf("Expected summary 'List pets', got %q", detail.Summary)
	}
	if len(detail.Parameters) != 1 {
		t.Fatalf("Expected 1 parameter row, got %d", len(detail.Parameters))
	}
	p := detail.Parameters[0]
	if p.Name != "limit" || p.In != "query" || p.Required || p.Type != "integer" {
		t.Errorf("Unexpected parameter row: %+v", p)
	}
	if len(detail.Responses) != 2 {
		t.Errorf("Expected 2 response rows, got %d", len(detail.Responses))
	}
}

func TestOperation_MethodCaseInsensitive(t *testing.T) {
	detail, err := Operation([]byte(sampleSpec), "/pets", "GET")
	if err != nil {
		t.Fatalf("Operation failed for uppercase method: %v", err)
	}
	// The stored key wins, not the caller's casing
	if detail.Method != "get" {
		t.Errorf("Expected stored method 'get', got %q", detail.Method)
	}
}

func TestOperation_RequestBodySchema(t *testing.T) {
	detail, err := Operation([]byte(sampleSpec), "/pets", "post")
	if err != nil {
		t.Fatalf("Operation failed: %v", err)
	}
	if len(detail.RequestBodySchema) == 0 {
		t.Fatal("Expected request body schema to be carried through")
	}
}

func TestOperation_NotFound(t *testing.T) {
	if _, err := Operation([]byte(sampleSpec), "/missing", "get"); !errors.Is(err, ErrOperationNotFound) {
		t.Errorf("Expected ErrOperationNotFound for unknown path, got %v", err)
	}
	if _, err := Operation([]byte(sampleSpec), "/pets", "delete"); !errors.Is(err, ErrOperationNotFound) {
		t.Errorf("Expected ErrOperationNotFound for unknown method, got %v", err)
	}
}

func TestOperation_BodyParameterExpansion(t *testing.T) {
	detail, err := Operation([]byte(swaggerBodySpec), "/orders", "post")
	if err != nil {
		t.Fatalf("Operation failed: %v", err)
	}

	if len(detail.Parameters) != 2 {
		t.Fatalf("Expected 2 body property rows, got %d: %+v", len(detail.Parameters), detail.Parameters)
	}

	rows := make(map[string]ParamRow)
	for _, row := range detail.Parameters {
		if row.In != "body" {
			t.Errorf("Expected in=body for expanded row, got %q", row.In)
		}
		rows[row.Name] = row
	}
	if !rows["item"].Required {
		t.Error("Expected item to be marked required")
	}
	if rows["count"].Required {
		t.Error("Expected count to be optional")
	}
	if rows["count"].Type != "integer" {
		t.Errorf("Expected integer type for count, got %q", rows["count"].Type)
	}
}

func TestOperation_UnresolvableRefYieldsNoRows(t *testing.T) {
	broken := `{
	  "swagger": "2.0",
	  "paths": {
	    "/orders": {
	      "post": {
	        "parameters": [{"name": "order", "in": "body", "schema": {"$ref": "#/definitions/Missing"}}],
	        "responses": {"201": {"description": "ok"}}
	      }
	    }
	  }
	}`

	detail, err := Operation([]byte(broken), "/orders", "post")
	if err != nil {
		t.Fatalf("Operation failed: %v", err)
	}
	if len(detail.Parameters) != 0 {
		t.Errorf("Expected no rows for dangling reference, got %d", len(detail.Parameters))
	}
}

func TestResolveRef(t *testing.T) {
	spec := []byte(swaggerBodySpec)

	result, ok := ResolveRef(spec, "#/definitions/Order")
	if !ok {
		t.Fatal("Expected reference to resolve")
	}
	if result.Get("type").String() != "object" {
		t.Errorf("Resolved wrong node: %s", result.Raw)
	}

	if _, ok := ResolveRef(spec, "#/definitions/Nope"); ok {
		t.Error("Expected missing target to report ok=false")
	}
	if _, ok := ResolveRef(spec, "http://example.com/ext.json#/Order"); ok {
		t.Error("Expected external reference to report ok=false")
	}
}

func TestResolveRef_KeyWithDots(t *testing.T) {
	spec := []byte(`{"components":{"schemas":{"com.example.Order":{"type":"object"}}}}`)

	result, ok := ResolveRef(spec, "#/components/schemas/com.example.Order")
	if !ok {
		t.Fatal("Expected dotted key to resolve literally")
	}
	if result.Get("type").String() != "object" {
		t.Errorf("Resolved wrong node: %s", result.Raw)
	}
}
