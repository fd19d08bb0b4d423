package nimbus

import (
	"reflect"
	"strings"

	"github.com/zoobzio/sentinel"
)

// ShapeOf derives a ShapeDescription from a Go struct type, so descriptions
// can be authored in Go instead of YAML. Field routing follows struct tags:
//
//	Bucket string `json:"Bucket" location:"uri" required:"true"`
//	Token  string `json:"ContinuationToken" location:"querystring"`
//
// The json tag names the wire member (json:"-" skips the field), location
// routes it, and required:"true" adds it to the required set.
func ShapeOf[T any]() *ShapeDescription {
	metadata := sentinel.Inspect[T]()

	shape := &ShapeDescription{
		Name:    reflect.TypeFor[T]().Name(),
		Members: make(map[string]MemberDescription, len(metadata.Fields)),
	}

	for _, field := range metadata.Fields {
		name := wireName(field)
		if name == "-" {
			continue
		}

		member := MemberDescription{
			Type:         wireType(field.Type),
			Location:     field.Tags["location"],
			LocationName: field.Tags["locationName"],
		}
		if desc, ok := field.Tags["desc"]; ok {
			member.Documentation = desc
		}
		shape.Members[name] = member

		if field.Tags["required"] == "true" {
			shape.Required = append(shape.Required, name)
		}
	}
	return shape
}

// wireName extracts the wire member name from field metadata.
func wireName(field sentinel.FieldMetadata) string {
	if jsonTag, ok := field.Tags["json"]; ok {
		parts := strings.Split(jsonTag, ",")
		if len(parts) > 0 && parts[0] != "" {
			return parts[0]
		}
	}
	return field.Name
}

// wireType maps Go types to shape member types.
func wireType(goType string) string {
	switch {
	case strings.HasPrefix(goType, "string"):
		return "string"
	case strings.HasPrefix(goType, "int"), strings.HasPrefix(goType, "uint"):
		return "integer"
	case strings.HasPrefix(goType, "float"):
		return "number"
	case strings.HasPrefix(goType, "bool"):
		return "boolean"
	case strings.HasPrefix(goType, "[]byte"):
		return "blob"
	case strings.HasPrefix(goType, "[]"):
		return "list"
	case strings.HasPrefix(goType, "map["):
		return "map"
	case strings.HasPrefix(goType, "time.Time"):
		return "timestamp"
	default:
		return "structure"
	}
}
