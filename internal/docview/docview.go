// Package docview walks stored spec documents to produce the shapes the docs
// UI renders: the flattened endpoint list and per-operation parameter and
// response tables. Documents are walked as raw JSON; nothing here assumes a
// validated structure beyond what it probes for.
package docview

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrOperationNotFound is returned when the requested (path, method) pair is
// not present in the document.
var ErrOperationNotFound = errors.New("operation not found in spec")

// Endpoint is one (path, method) entry in the flattened endpoint list.
type Endpoint struct {
	Path    string `json:"path"`
	Method  string `json:"method"`
	Summary string `json:"summary"`
}

// ParamRow is one row of the parameter table.
type ParamRow struct {
	Name        string `json:"name"`
	In          string `json:"in"`
	Required    bool   `json:"required"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

// ResponseRow is one row of the response table.
type ResponseRow struct {
	Status      string `json:"status"`
	Description string `json:"description"`
}

// OperationDetail is everything the UI shows for a selected endpoint.
type OperationDetail struct {
	Path              string          `json:"path"`
	Method            string          `json:"method"`
	Summary           string          `json:"summary"`
	Description       string          `json:"description"`
	Parameters        []ParamRow      `json:"parameters"`
	Responses         []ResponseRow   `json:"responses"`
	RequestBodySchema json.RawMessage `json:"requestBodySchema,omitempty"`
}

// Endpoints flattens the document's paths map into (path, method) entries.
// Every key under a path item is treated as a method, case preserved.
func Endpoints(spec []byte) []Endpoint {
	out := make([]Endpoint, 0)
	gjson.GetBytes(spec, "paths").ForEach(func(path, item gjson.Result) bool {
		item.ForEach(func(method, op gjson.Result) bool {
			out = append(out, Endpoint{
				Path:    path.String(),
				Method:  method.String(),
				Summary: op.Get("summary").String(),
			})
			return true
		})
		return true
	})
	return out
}

// Operation builds the detail view for one endpoint. The method comparison is
// case-insensitive against the keys stored in the document.
func Operation(spec []byte, path, method string) (*OperationDetail, error) {
	item := gjson.GetBytes(spec, "paths."+escapeKey(path))
	if !item.Exists() {
		return nil, ErrOperationNotFound
	}

	var op gjson.Result
	var storedMethod string
	item.ForEach(func(key, value gjson.Result) bool {
		if strings.EqualFold(key.String(), method) {
			op = value
			storedMethod = key.String()
			return false
		}
		return true
	})
	if storedMethod == "" {
		return nil, ErrOperationNotFound
	}

	detail := &OperationDetail{
		Path:        path,
		Method:      storedMethod,
		Summary:     op.Get("summary").String(),
		Description: op.Get("description").String(),
		Parameters:  parameterRows(spec, op),
		Responses:   responseRows(op),
	}

	if schema := op.Get(`requestBody.content.application/json.schema`); schema.Exists() {
		detail.RequestBodySchema = json.RawMessage(schema.Raw)
	}

	return detail, nil
}

// parameterRows renders the operation's parameters. Body parameters carrying
// a schema are expanded into one row per schema property, resolving a $ref
// against the document root first. An unresolvable reference yields no rows
// rather than an error.
func parameterRows(spec []byte, op gjson.Result) []ParamRow {
	rows := make([]ParamRow, 0)
	op.Get("parameters").ForEach(func(_, param gjson.Result) bool {
		if param.Get("in").String() == "body" && param.Get("schema").Exists() {
			rows = append(rows, bodyRows(spec, param.Get("schema"))...)
			return true
		}

		typ := param.Get("schema.type").String()
		if typ == "" {
			typ = param.Get("type").String()
		}
		rows = append(rows, ParamRow{
			Name:        param.Get("name").String(),
			In:          param.Get("in").String(),
			Required:    param.Get("required").Bool(),
			Type:        typ,
			Description: param.Get("description").String(),
		})
		return true
	})
	return rows
}

// bodyRows expands a body parameter schema into per-property rows.
func bodyRows(spec []byte, schema gjson.Result) []ParamRow {
	if ref := schema.Get("$ref"); ref.Exists() {
		resolved, ok := ResolveRef(spec, ref.String())
		if !ok {
			return nil
		}
		schema = resolved
	}

	required := make(map[string]bool)
	schema.Get("required").ForEach(func(_, name gjson.Result) bool {
		required[name.String()] = true
		return true
	})

	rows := make([]ParamRow, 0)
	schema.Get("properties").ForEach(func(name, prop gjson.Result) bool {
		rows = append(rows, ParamRow{
			Name:        name.String(),
			In:          "body",
			Required:    required[name.String()],
			Type:        prop.Get("type").String(),
			Description: prop.Get("description").String(),
		})
		return true
	})
	return rows
}

// responseRows renders the operation's responses as (status, description).
func responseRows(op gjson.Result) []ResponseRow {
	rows := make([]ResponseRow, 0)
	op.Get("responses").ForEach(func(status, resp gjson.Result) bool {
		rows = append(rows, ResponseRow{
			Status:      status.String(),
			Description: resp.Get("description").String(),
		})
		return true
	})
	return rows
}

// ResolveRef resolves a local reference of the form "#/seg1/seg2/..." by
// walking the document root along the split segments. It is a single-hop,
// local-document-only resolver: chained and external references are not
// followed, and any missing segment reports ok=false.
func ResolveRef(spec []byte, ref string) (gjson.Result, bool) {
	if !strings.HasPrefix(ref, "#/") {
		return gjson.Result{}, false
	}

	segments := strings.Split(strings.TrimPrefix(ref, "#/"), "/")
	escaped := make([]string, len(segments))
	for i, seg := range segments {
		escaped[i] = escapeKey(seg)
	}

	result := gjson.GetBytes(spec, strings.Join(escaped, "."))
	if !result.Exists() {
		return gjson.Result{}, false
	}
	return result, true
}

// escapeKey escapes gjson path metacharacters so arbitrary spec keys (paths
// contain slashes and sometimes dots) address literally.
func escapeKey(key string) string {
	var b strings.Builder
	for _, r := range key {
		switch r {
		case '.', '*', '?', '\\', '|', '#', '@':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
