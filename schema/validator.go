// Package payloadschema validates the JSON payload of the deduplication API
// against an embedded JSON Schema before any record touches the engine.
package payloadschema

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed dedup_request.schema.json
var dedupRequestSchemaJSON string

// RequestOptions overrides engine tuning per request. Nil fields keep the
// server's configured values.
type RequestOptions struct {
	MatchThreshold *float64 `json:"match_threshold,omitempty"`
	MinSimilarity  *float64 `json:"min_similarity,omitempty"`
	KNeighbors     *int     `json:"k_neighbors,omitempty"`
}

// DedupRequest is the body of POST /api/dedup.
type DedupRequest struct {
	PayloadVersion string              `json:"payload_version"`
	Options        *RequestOptions     `json:"options,omitempty"`
	Records        []map[string]string `json:"records"`
}

var (
	compileOnce       sync.Once
	compiledSchema    *jsonschema.Schema
	compiledSchemaErr error
)

// ValidateDedupRequest parses and validates a request payload. Column names
// are lowercased so the API accepts the same header variants as the CSV
// loader.
func ValidateDedupRequest(payload json.RawMessage) (*DedupRequest, error) {
	value, err := decodeStrictJSON(payload)
	if err != nil {
		return nil, fmt.Errorf("decode payload JSON: %w", err)
	}

	schema, err := loadSchema()
	if err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}

	if err := schema.Validate(value); err != nil {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}

	normalized, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("normalize payload JSON: %w", err)
	}

	var request DedupRequest
	if err := json.Unmarshal(normalized, &request); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}

	if err := validateSemantics(&request); err != nil {
		return nil, err
	}

	return &request, nil
}

func loadSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		compiler.AssertFormat = true

		if err := compiler.AddResource("dedup_request.schema.json", strings.NewReader(dedupRequestSchemaJSON)); err != nil {
			compiledSchemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}

		schema, err := compiler.Compile("dedup_request.schema.json")
		if err != nil {
			compiledSchemaErr = fmt.Errorf("compile schema: %w", err)
			return
		}

		compiledSchema = schema
	})

	if compiledSchemaErr != nil {
		return nil, compiledSchemaErr
	}
	if compiledSchema == nil {
		return nil, fmt.Errorf("schema not initialized")
	}
	return compiledSchema, nil
}

func decodeStrictJSON(raw []byte) (any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("payload is empty")
	}

	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, err
	}

	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("payload contains trailing content")
	}

	return value, nil
}

func validateSemantics(request *DedupRequest) error {
	if request == nil {
		return fmt.Errorf("payload is nil")
	}
	if strings.TrimSpace(request.PayloadVersion) != "v1" {
		return fmt.Errorf("payload_version must be v1")
	}

	for i, fields := range request.Records {
		lowered := make(map[string]string, len(fields))
		for column, value := range fields {
			key := strings.ToLower(strings.TrimSpace(column))
			if key == "" {
				return fmt.Errorf("records[%d] has an empty column name", i)
			}
			if _, exists := lowered[key]; exists {
				return fmt.Errorf("records[%d] has duplicate column %q", i, key)
			}
			lowered[key] = value
		}
		request.Records[i] = lowered
	}

	return nil
}
