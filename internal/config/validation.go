package config

import (
	"encoding/json"
	"fmt"
	"strings"

	syncerrors "github.com/systmms/accountsync/internal/errors"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// documentSchema is the JSON schema the parsed accountsync.yaml must
// satisfy before it is mapped onto the typed Definition.
const documentSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["vault"],
  "additionalProperties": false,
  "properties": {
    "version": {"type": "integer"},
    "vault": {
      "type": "object",
      "required": ["url"],
      "additionalProperties": false,
      "properties": {
        "url": {"type": "string", "minLength": 1},
        "authMethod": {"enum": ["cyberark", "ldap", "radius"]},
        "username": {"type": "string"},
        "concurrentSession": {"type": "boolean"},
        "tlsSkipVerify": {"type": "boolean"},
        "caCert": {"type": "string"},
        "timeout_ms": {"type": "integer", "minimum": 0}
      }
    },
    "search": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "mode": {"enum": ["attribute", "wide-name", "narrow"]},
        "ignoreName": {"type": "boolean"},
        "bypass": {"enum": ["off", "assume-missing", "assume-exists"]}
      }
    },
    "safes": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "create": {"type": "boolean"},
        "template": {"type": "string"},
        "managingCPM": {"type": "string"},
        "numberOfDaysRetention": {"type": "integer", "minimum": 0},
        "bypassCheck": {"type": "boolean"}
      }
    },
    "onboarding": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "allowDuplicates": {"type": "boolean"},
        "skipDuplicates": {"type": "boolean"},
        "createOnUpdate": {"type": "boolean"}
      }
    },
    "reports": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "good": {"type": "string"},
        "bad": {"type": "string"}
      }
    },
    "metrics": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "enabled": {"type": "boolean"},
        "port": {"type": "integer", "minimum": 1, "maximum": 65535}
      }
    }
  }
}`

// validateDocument checks the raw YAML document against the schema,
// catching typos and wrong types before the typed unmarshal silently
// drops them.
func validateDocument(data []byte) error {
	var doc map[string]interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return syncerrors.ConfigError{
			Message:    "invalid YAML syntax in configuration file",
			Suggestion: "Check for indentation errors, missing quotes, or invalid characters. Use a YAML validator",
		}
	}

	jsonData, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal configuration for validation: %w", err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(documentSchema),
		gojsonschema.NewBytesLoader(jsonData),
	)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}

	if !result.Valid() {
		var messages []string
		for _, desc := range result.Errors() {
			messages = append(messages, desc.String())
		}
		return syncerrors.ConfigError{
			Message:    fmt.Sprintf("configuration does not match the expected structure:\n  - %s", strings.Join(messages, "\n  - ")),
			Suggestion: "Compare your accountsync.yaml against the documented structure",
		}
	}

	return nil
}
