package nimbus

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

// ServiceDescription declares a service: its endpoint prefix, wire protocol,
// and the operations it exposes. Descriptions are read-only once built; the
// factory and clients only consult them.
type ServiceDescription struct {
	ServiceName    string                           `yaml:"serviceName"`
	EndpointPrefix string                           `yaml:"endpointPrefix"`
	APIVersion     string                           `yaml:"apiVersion"`
	Protocol       string                           `yaml:"protocol"`
	Operations     map[string]*OperationDescription `yaml:"operations"`
}

// OperationDescription declares one operation: how it travels on the wire,
// its input and output shapes, and its pagination metadata when pageable.
type OperationDescription struct {
	Name              string                 `yaml:"name"`
	HTTPMethod        string                 `yaml:"httpMethod"`
	RequestURI        string                 `yaml:"requestUri"`
	HasStreamingInput bool                   `yaml:"hasStreamingInput"`
	Input             *ShapeDescription      `yaml:"input"`
	Output            *ShapeDescription      `yaml:"output"`
	Pagination        *PaginationDescription `yaml:"pagination"`
}

// PaginationDescription names the fields that drive paged iteration: where
// the continuation token goes on input, where the next one arrives on
// output, and which output field holds the page's results.
type PaginationDescription struct {
	InputToken  string `yaml:"inputToken"`
	OutputToken string `yaml:"outputToken"`
	ResultKey   string `yaml:"resultKey"`
	LimitKey    string `yaml:"limitKey"`
}

// ShapeDescription declares the members of an input or output structure.
type ShapeDescription struct {
	Name     string                       `yaml:"name"`
	Members  map[string]MemberDescription `yaml:"members"`
	Required []string                     `yaml:"required"`
}

// MemberDescription declares one shape member and where it is serialized.
type MemberDescription struct {
	// Type is one of: string, integer, number, boolean, timestamp, blob,
	// list, map, structure.
	Type string `yaml:"type"`

	// Location routes the member on the wire: "uri", "querystring",
	// "header", or empty for the body.
	Location string `yaml:"location"`

	// LocationName overrides the member name at its wire location.
	LocationName string `yaml:"locationName"`

	Documentation string `yaml:"documentation"`
}

// OperationModel looks up an operation by its declared name.
func (d *ServiceDescription) OperationModel(name string) (*OperationDescription, error) {
	op, ok := d.Operations[name]
	if !ok {
		return nil, &UnknownOperationError{Service: d.EndpointPrefix, Operation: name}
	}
	return op, nil
}

// OperationNames returns the declared operation names, sorted.
func (d *ServiceDescription) OperationNames() []string {
	names := make([]string, 0, len(d.Operations))
	for name := range d.Operations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CanPaginate reports whether the named operation carries pagination
// metadata. Unknown operations are simply not pageable.
func (d *ServiceDescription) CanPaginate(name string) bool {
	op, ok := d.Operations[name]
	return ok && op.Pagination != nil
}

// Validate checks the description for the structural problems a loader can
// catch: missing prefix or protocol, operations without names, pagination
// metadata without its token fields.
func (d *ServiceDescription) Validate() error {
	if d.EndpointPrefix == "" {
		return fmt.Errorf("service description missing endpointPrefix")
	}
	if d.Protocol == "" {
		return fmt.Errorf("service description missing protocol")
	}
	for key, op := range d.Operations {
		if op.Name == "" {
			op.Name = key
		}
		if op.Name != key {
			return fmt.Errorf("operation %q declares mismatched name %q", key, op.Name)
		}
		if p := op.Pagination; p != nil {
			if p.InputToken == "" || p.OutputToken == "" {
				return fmt.Errorf("operation %q pagination missing token fields", key)
			}
			if p.ResultKey == "" {
				return fmt.Errorf("operation %q pagination missing resultKey", key)
			}
		}
	}
	return nil
}

// LoadDescription parses a service description document. YAML and JSON are
// both accepted.
func LoadDescription(data []byte) (*ServiceDescription, error) {
	var desc ServiceDescription
	if err := yaml.Unmarshal(data, &desc); err != nil {
		return nil, fmt.Errorf("parsing service description: %w", err)
	}
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	return &desc, nil
}

// LoadDescriptionFile reads and parses a service description from disk.
func LoadDescriptionFile(path string) (*ServiceDescription, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading service description: %w", err)
	}
	return LoadDescription(data)
}

// methodName converts an operation name to the snake_case method name
// exposed on clients, e.g. "ListBuckets" -> "list_buckets".
func methodName(operation string) string {
	var b strings.Builder
	runes := []rune(operation)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 && (!unicode.IsUpper(runes[i-1]) || (i+1 < len(runes) && !unicode.IsUpper(runes[i+1]))) {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// methodTable maps snake_case method names back to operation names. Hook
// event scoping and pagination lookups key off the operation name, so the
// reverse mapping is recorded at client-class creation.
func methodTable(d *ServiceDescription) map[string]string {
	table := make(map[string]string, len(d.Operations))
	for name := range d.Operations {
		table[methodName(name)] = name
	}
	return table
}
