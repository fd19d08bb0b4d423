package nimbus

import (
	"encoding/json"
	"fmt"
	"strings"
)

// NewParser returns the response parser for a protocol family.
func NewParser(protocol string) (Parser, error) {
	switch protocol {
	case ProtocolRESTJSON:
		return &restJSONParser{}, nil
	default:
		return nil, &UnknownProtocolError{Protocol: protocol}
	}
}

// restJSONParser decodes JSON bodies into Documents. Error responses are
// normalized under an "Error" key with "Code" and "Message" members so
// classification reads one shape regardless of how the service spells its
// error body.
type restJSONParser struct{}

func (p *restJSONParser) Parse(op *OperationDescription, meta *HTTPMetadata, body []byte) (Document, error) {
	parsed := Document{}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &parsed); err != nil {
			return nil, fmt.Errorf("parsing %s response: %w", op.Name, err)
		}
	}

	if meta.StatusCode >= 300 {
		parsed["Error"] = normalizeError(parsed, meta)
	}
	return parsed, nil
}

// normalizeError extracts an error code and message from the common wire
// spellings: a "code"/"message" pair, an "__type" marker, or an error code
// header.
func normalizeError(parsed Document, meta *HTTPMetadata) map[string]any {
	code := firstString(parsed, "code", "Code", "__type")
	message := firstString(parsed, "message", "Message")

	if header := meta.Headers.Get("X-Error-Type"); code == "" && header != "" {
		code = header
	}
	// "namespace#ErrorCode" markers keep only the code.
	if idx := strings.LastIndex(code, "#"); idx >= 0 {
		code = code[idx+1:]
	}

	return map[string]any{
		"Code":    code,
		"Message": message,
	}
}

func firstString(doc Document, keys ...string) string {
	for _, key := range keys {
		if v, ok := doc[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
