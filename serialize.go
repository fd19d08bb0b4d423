package nimbus

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// ProtocolRESTJSON is the protocol family shipped with this module. The
// serializer and parser registries key off the description's protocol field
// so further families can slot in without touching the execution path.
const ProtocolRESTJSON = "rest-json"

// NewSerializer returns the serializer for a protocol family. When
// validateParams is true, built requests are checked against the
// operation's input shape and violations surface as ParamValidationError
// before anything reaches the wire.
func NewSerializer(protocol string, validateParams bool) (Serializer, error) {
	switch protocol {
	case ProtocolRESTJSON:
		return &restJSONSerializer{validate: validateParams}, nil
	default:
		return nil, &UnknownProtocolError{Protocol: protocol}
	}
}

// restJSONSerializer routes members by their declared location: uri members
// substitute into the request URI, querystring members become query values,
// header members become headers, and the rest form the JSON body.
type restJSONSerializer struct {
	validate bool
}

func (s *restJSONSerializer) Build(params map[string]any, op *OperationDescription, rc *RequestContext) (*Request, error) {
	if s.validate {
		if err := validateParams(params, op.Input); err != nil {
			return nil, err
		}
	}

	req := &Request{
		Method:  op.HTTPMethod,
		Path:    op.RequestURI,
		Query:   url.Values{},
		Headers: http.Header{},
		Context: rc,
	}
	if req.Method == "" {
		req.Method = http.MethodPost
	}
	if req.Path == "" {
		req.Path = "/"
	}

	body := map[string]any{}
	for name, value := range params {
		member := memberFor(op.Input, name)
		wire := member.LocationName
		if wire == "" {
			wire = name
		}
		switch member.Location {
		case "uri":
			req.Path = strings.ReplaceAll(req.Path, "{"+wire+"}", url.PathEscape(fmt.Sprint(value)))
		case "querystring":
			req.Query.Set(wire, fmt.Sprint(value))
		case "header":
			req.Headers.Set(wire, fmt.Sprint(value))
		default:
			body[wire] = value
		}
	}

	if len(body) > 0 {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("serializing request body: %w", err)
		}
		req.Body = encoded
		req.Headers.Set("Content-Type", "application/json")
	}
	return req, nil
}

func memberFor(shape *ShapeDescription, name string) MemberDescription {
	if shape == nil {
		return MemberDescription{}
	}
	return shape.Members[name]
}

// validateParams checks the parameter mapping against the input shape:
// required members present, no undeclared members, values of the declared
// member type.
func validateParams(params map[string]any, shape *ShapeDescription) error {
	if shape == nil {
		if len(params) > 0 {
			return &ParamValidationError{Report: "operation accepts no parameters"}
		}
		return nil
	}

	for _, required := range shape.Required {
		if _, ok := params[required]; !ok {
			return &ParamValidationError{Report: fmt.Sprintf("missing required parameter %q", required)}
		}
	}

	for name, value := range params {
		member, ok := shape.Members[name]
		if !ok {
			return &ParamValidationError{Report: fmt.Sprintf("unknown parameter %q", name)}
		}
		if err := checkMemberType(name, member.Type, value); err != nil {
			return err
		}
	}
	return nil
}

func checkMemberType(name, memberType string, value any) error {
	if value == nil {
		return nil
	}
	ok := true
	switch memberType {
	case "string":
		_, ok = value.(string)
	case "integer":
		switch value.(type) {
		case int, int32, int64:
		default:
			ok = false
		}
	case "number":
		switch value.(type) {
		case int, int32, int64, float32, float64:
		default:
			ok = false
		}
	case "boolean":
		_, ok = value.(bool)
	case "blob":
		_, ok = value.([]byte)
	case "list":
		switch value.(type) {
		case []any, []string:
		default:
			ok = false
		}
	case "map", "structure":
		_, ok = value.(map[string]any)
	case "", "timestamp":
		// Untyped members and timestamps pass through as given.
	}
	if !ok {
		return &ParamValidationError{Report: fmt.Sprintf("parameter %q is not of type %s", name, memberType)}
	}
	return nil
}
