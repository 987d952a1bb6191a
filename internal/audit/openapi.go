// # internal/audit/openapi.go
package audit

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
)

const maxResponseBytes = 1 << 20 // 1 MiB

// advisorySchemaJSON is the contract the advisory endpoint must satisfy.
// Responses failing validation are treated the same as transport errors:
// the audit degrades rather than ingesting malformed data.
const advisorySchemaJSON = `{
  "type": "array",
  "items": {
    "type": "object",
    "required": ["id", "severity", "title"],
    "properties": {
      "id": {"type": "string", "minLength": 1},
      "severity": {"type": "string", "enum": ["critical", "high", "medium", "moderate", "low", "info"]},
      "title": {"type": "string"}
    }
  }
}`

var (
	advisorySchemaOnce sync.Once
	advisorySchema     *openapi3.Schema
	advisorySchemaErr  error
)

func loadAdvisorySchema() (*openapi3.Schema, error) {
	advisorySchemaOnce.Do(func() {
		schema := &openapi3.Schema{}
		if err := schema.UnmarshalJSON([]byte(advisorySchemaJSON)); err != nil {
			advisorySchemaErr = fmt.Errorf("advisory schema: %w", err)
			return
		}
		advisorySchema = schema
	})
	return advisorySchema, advisorySchemaErr
}

func validateAdvisoryPayload(data []byte) error {
	schema, err := loadAdvisorySchema()
	if err != nil {
		return err
	}

	var value interface{}
	if err := json.Unmarshal(data, &value); err != nil {
		return fmt.Errorf("invalid json: %w", err)
	}
	if err := schema.VisitJSON(value); err != nil {
		return fmt.Errorf("schema violation: %w", err)
	}
	return nil
}
