package nimbus

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/zoobzio/capitan"
)

const defaultUserAgent = "nimbus-go/1.0"

// ClientArgs is the assembled bundle a Client is constructed from. It is
// exposed so per-service customizations can adjust pieces (endpoint URL,
// hook wiring) before the endpoint handle is built.
type ClientArgs struct {
	ServiceName string
	Description *ServiceDescription
	Serializer  Serializer
	Parser      Parser
	Signer      Signer
	Hooks       *Hooks
	Endpoint    *ResolvedEndpoint
	Config      *Config

	// EndpointOverridden records whether the caller supplied an explicit
	// endpoint URL; customizations that rewrite hosts skip overridden
	// endpoints.
	EndpointOverridden bool
}

// Customization adjusts ClientArgs for one service before endpoint
// construction. Keyed by service name in the factory registry.
type Customization func(args *ClientArgs) error

// FactoryOption configures a ClientFactory.
type FactoryOption func(*ClientFactory)

// WithHooks sets the factory's hook registry. Each built client receives a
// copy, so hooks registered here reach every client while per-client wiring
// never leaks back.
func WithHooks(hooks *Hooks) FactoryOption {
	return func(f *ClientFactory) { f.hooks = hooks }
}

// WithUserAgent replaces the default user-agent base string.
func WithUserAgent(ua string) FactoryOption {
	return func(f *ClientFactory) { f.userAgent = ua }
}

// WithEndpointResolver replaces the default endpoint resolver.
func WithEndpointResolver(resolver EndpointResolver) FactoryOption {
	return func(f *ClientFactory) { f.resolver = resolver }
}

// WithEndpointOptions applies transport options (retry, timeout) to every
// endpoint the factory builds.
func WithEndpointOptions(opts ...EndpointOption) FactoryOption {
	return func(f *ClientFactory) { f.endpointOpts = opts }
}

// WithTransport substitutes the HTTP round tripper underneath every session
// the factory builds. Connector options that shape the default transport
// are ignored when one is supplied; the main use is test doubles.
func WithTransport(rt http.RoundTripper) FactoryOption {
	return func(f *ClientFactory) { f.transport = rt }
}

// BuildInput carries the per-client inputs to ClientFactory.Build.
type BuildInput struct {
	// EndpointURL overrides resolver URL construction when non-empty.
	EndpointURL string

	// Insecure selects http over https for resolver-constructed URLs.
	Insecure bool

	Credentials Credentials

	// ScopedConfig is the caller's scoped configuration file content.
	// A "parameter_validation" value of "false" (case-insensitive)
	// disables input validation unless the explicit Config decides.
	ScopedConfig map[string]string

	// Config is the caller's explicit client configuration.
	Config *Config
}

// ClientFactory assembles Clients from service descriptions. One factory
// serves many services; the creating-client event for each service fires
// exactly once per factory, before the first client of that service.
type ClientFactory struct {
	hooks          *Hooks
	userAgent      string
	resolver       EndpointResolver
	endpointOpts   []EndpointOption
	transport      http.RoundTripper
	customizations map[string]Customization

	mu      sync.Mutex
	methods map[string]map[string]string // service -> method table, post-hook
}

// NewClientFactory builds a factory. Built-in customizations (storage host
// addressing) are installed first so callers can replace them.
func NewClientFactory(opts ...FactoryOption) *ClientFactory {
	f := &ClientFactory{
		hooks:     NewHooks(),
		userAgent: defaultUserAgent,
		resolver:  NewEndpointResolver(""),
		customizations: map[string]Customization{
			"storage": storageAddressing,
		},
		methods: make(map[string]map[string]string),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Hooks returns the factory's own registry, for registering hooks that
// should reach every subsequently built client.
func (f *ClientFactory) Hooks() *Hooks { return f.hooks }

// RegisterCustomization installs or replaces the customization for a
// service name.
func (f *ClientFactory) RegisterCustomization(service string, fn Customization) {
	f.customizations[service] = fn
}

// Build assembles a Client for one service in one region.
func (f *ClientFactory) Build(desc *ServiceDescription, region string, in BuildInput) (*Client, error) {
	args, err := f.clientArgs(desc, region, in)
	if err != nil {
		return nil, err
	}

	methods, err := f.methodTableFor(desc)
	if err != nil {
		return nil, err
	}

	session := newHTTPSession(
		args.Config.Connector,
		args.Config.EffectiveConnectTimeout(),
		args.Config.EffectiveReadTimeout(),
	)
	if f.transport != nil {
		session.client.Transport = f.transport
	}
	endpoint := NewEndpoint(args.Endpoint.URL, session, args.Signer, args.Parser, f.endpointOpts...)

	client := &Client{
		desc:       desc,
		serializer: args.Serializer,
		endpoint:   endpoint,
		session:    session,
		hooks:      args.Hooks,
		signer:     args.Signer,
		config:     args.Config,
		region:     args.Endpoint.Region,
		methods:    methods,
	}

	capitan.Info(context.Background(), ClientCreated,
		ServiceKey.Field(desc.EndpointPrefix),
		RegionKey.Field(args.Endpoint.Region),
		ProtocolKey.Field(desc.Protocol),
		EndpointURLKey.Field(args.Endpoint.URL),
		UserAgentKey.Field(args.Config.UserAgent),
	)
	return client, nil
}

// clientArgs resolves the full construction bundle: validation policy,
// serializer and parser for the protocol, endpoint details, user agent,
// signer, and the merged config.
func (f *ClientFactory) clientArgs(desc *ServiceDescription, region string, in BuildInput) (*ClientArgs, error) {
	serviceName := desc.EndpointPrefix

	// Three-tier precedence: explicit config beats scoped file config
	// beats the built-in default (enabled).
	parameterValidation := true
	if in.Config != nil && in.Config.ParameterValidation != nil {
		parameterValidation = *in.Config.ParameterValidation
	} else if raw, ok := in.ScopedConfig["parameter_validation"]; ok {
		if strings.EqualFold(strings.TrimSpace(raw), "false") {
			parameterValidation = false
		}
	}

	serializer, err := NewSerializer(desc.Protocol, parameterValidation)
	if err != nil {
		return nil, err
	}
	parser, err := NewParser(desc.Protocol)
	if err != nil {
		return nil, err
	}

	// The copy is deliberate: signer wiring and per-service hook
	// customizations must not mutate the caller's registry.
	hooks := f.hooks.Copy()

	endpoint, err := f.resolver.Resolve(serviceName, region, in.EndpointURL, !in.Insecure)
	if err != nil {
		return nil, err
	}

	userAgent := f.userAgent
	if in.Config != nil {
		if in.Config.UserAgent != "" {
			userAgent = in.Config.UserAgent
		}
		if in.Config.UserAgentExtra != "" {
			userAgent += " " + in.Config.UserAgentExtra
		}
	}

	signer := NewSigner(
		serviceName,
		endpoint.SigningRegion,
		endpoint.SigningName,
		endpoint.SignatureVersion,
		in.Credentials,
		hooks,
	)

	// The merged config is built fresh so callers cannot reach into a
	// live client by mutating the config they passed in.
	merged := &Config{
		Region:           endpoint.Region,
		SignatureVersion: endpoint.SignatureVersion,
		UserAgent:        userAgent,
	}
	if in.Config != nil {
		merged.ConnectTimeout = in.Config.ConnectTimeout
		merged.ReadTimeout = in.Config.ReadTimeout
		merged.AddressingStyle = in.Config.AddressingStyle
		if in.Config.connectorSet {
			merged.Connector = in.Config.Connector
			merged.connectorSet = true
		} else {
			defaults, err := ValidateConnectorOptions(nil)
			if err != nil {
				return nil, err
			}
			merged.Connector = defaults
		}
	} else {
		defaults, err := ValidateConnectorOptions(nil)
		if err != nil {
			return nil, err
		}
		merged.Connector = defaults
	}

	args := &ClientArgs{
		ServiceName:        serviceName,
		Description:        desc,
		Serializer:         serializer,
		Parser:             parser,
		Signer:             signer,
		Hooks:              hooks,
		Endpoint:           endpoint,
		Config:             merged,
		EndpointOverridden: in.EndpointURL != "",
	}

	if customize, ok := f.customizations[serviceName]; ok {
		if err := customize(args); err != nil {
			return nil, fmt.Errorf("customizing %s client: %w", serviceName, err)
		}
	}
	return args, nil
}

// methodTableFor returns the service's method table, firing the
// creating-client event the first time the service is seen by this factory.
func (f *ClientFactory) methodTableFor(desc *ServiceDescription) (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if table, ok := f.methods[desc.EndpointPrefix]; ok {
		return table, nil
	}

	table := methodTable(desc)
	ev := &CreatingClientEvent{
		Service:     desc.EndpointPrefix,
		Description: desc,
		Methods:     table,
	}
	if err := f.hooks.emitCreatingClient(ev); err != nil {
		return nil, fmt.Errorf("creating %s client class: %w", desc.EndpointPrefix, err)
	}
	f.methods[desc.EndpointPrefix] = ev.Methods
	return ev.Methods, nil
}

// storageAddressing is the built-in customization for the storage service:
// with virtual-host addressing (the default) a before-call hook moves the
// bucket, serialized as the first path segment, into the endpoint host.
// Path addressing and explicit endpoint overrides leave requests alone.
func storageAddressing(args *ClientArgs) error {
	if args.EndpointOverridden || args.Config.AddressingStyle == "path" {
		return nil
	}

	args.Hooks.OnBeforeCall(args.ServiceName, "", func(_ context.Context, ev *BeforeCallEvent) error {
		bucket, rest, ok := splitFirstSegment(ev.Request.Path)
		if !ok {
			return nil
		}
		parsed, err := url.Parse(ev.Request.URL)
		if err != nil || strings.HasPrefix(parsed.Host, bucket+".") {
			return nil
		}
		parsed.Host = bucket + "." + parsed.Host
		ev.Request.URL = parsed.String()
		ev.Request.Path = rest
		return nil
	})
	return nil
}

func splitFirstSegment(path string) (first, rest string, ok bool) {
	trimmed := strings.TrimPrefix(path, "/")
	if trimmed == "" {
		return "", "", false
	}
	if idx := strings.IndexByte(trimmed, '/'); idx >= 0 {
		return trimmed[:idx], "/" + trimmed[idx+1:], true
	}
	return trimmed, "/", true
}
