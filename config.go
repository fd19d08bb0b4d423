package nimbus

import (
	"crypto/tls"
	"time"
)

// DefaultKeepaliveTimeout is filled into connector options when the caller
// does not set one. Cloud load balancers commonly drop idle connections
// around the 20 second mark while net/http defaults to 90, so the default
// stays well inside that window.
const DefaultKeepaliveTimeout = 12 * time.Second

// DefaultCallTimeout applies to connect and read timeouts left unset on a
// Config.
const DefaultCallTimeout = 60 * time.Second

// ConnectorOptions tunes the transport session underneath a client.
// Construct it through ValidateConnectorOptions so unknown names and
// mistyped values fail at config-construction time.
type ConnectorOptions struct {
	KeepaliveTimeout time.Duration
	Limit            int
	ForceClose       bool
	UseDNSCache      bool
	TLSConfig        *tls.Config
}

// ValidateConnectorOptions normalizes a raw connector option mapping.
// Recognized keys and their required types:
//
//	use_dns_cache      bool
//	force_close        bool
//	keepalive_timeout  int or float, seconds
//	limit              int
//	tls_config         *tls.Config
//
// Any other key is rejected with a ConfigValidationError naming it; silent
// acceptance would hide caller typos until first network use. A missing
// keepalive_timeout is defaulted, nothing else is.
func ValidateConnectorOptions(raw map[string]any) (ConnectorOptions, error) {
	opts := ConnectorOptions{KeepaliveTimeout: DefaultKeepaliveTimeout}

	for k, v := range raw {
		switch k {
		case "use_dns_cache":
			b, ok := v.(bool)
			if !ok {
				return ConnectorOptions{}, &ConfigValidationError{Option: k, Expect: "a boolean"}
			}
			opts.UseDNSCache = b
		case "force_close":
			b, ok := v.(bool)
			if !ok {
				return ConnectorOptions{}, &ConfigValidationError{Option: k, Expect: "a boolean"}
			}
			opts.ForceClose = b
		case "keepalive_timeout":
			secs, ok := numericSeconds(v)
			if !ok {
				return ConnectorOptions{}, &ConfigValidationError{Option: k, Expect: "a float or int"}
			}
			opts.KeepaliveTimeout = secs
		case "limit":
			n, ok := v.(int)
			if !ok {
				return ConnectorOptions{}, &ConfigValidationError{Option: k, Expect: "an int"}
			}
			opts.Limit = n
		case "tls_config":
			cfg, ok := v.(*tls.Config)
			if !ok {
				return ConnectorOptions{}, &ConfigValidationError{Option: k, Expect: "a *tls.Config"}
			}
			opts.TLSConfig = cfg
		default:
			return ConnectorOptions{}, &ConfigValidationError{Option: k}
		}
	}
	return opts, nil
}

func numericSeconds(v any) (time.Duration, bool) {
	switch n := v.(type) {
	case int:
		return time.Duration(n) * time.Second, true
	case int64:
		return time.Duration(n) * time.Second, true
	case float64:
		return time.Duration(n * float64(time.Second)), true
	case float32:
		return time.Duration(float64(n) * float64(time.Second)), true
	case time.Duration:
		return n, true
	default:
		return 0, false
	}
}

// Config is the immutable-after-construction client configuration. Zero
// fields mean "not explicitly set"; Merge and the factory substitute
// defaults for them. ParameterValidation is tri-state so the factory can
// distinguish "disabled" from "unset".
type Config struct {
	Region           string
	SignatureVersion string
	UserAgent        string
	UserAgentExtra   string
	ConnectTimeout   time.Duration
	ReadTimeout      time.Duration

	// ParameterValidation disables input-shape validation when it points
	// at false. Nil defers to scoped configuration and the built-in
	// default (enabled).
	ParameterValidation *bool

	// AddressingStyle selects virtual-host or path addressing for services
	// that register an addressing customization. Empty means virtual.
	AddressingStyle string

	Connector    ConnectorOptions
	connectorSet bool
}

// NewConfig builds a Config with validated connector options. A nil mapping
// yields defaults; the connector options then count as not explicitly set
// for Merge purposes.
func NewConfig(connectorOptions map[string]any) (*Config, error) {
	opts, err := ValidateConnectorOptions(connectorOptions)
	if err != nil {
		return nil, err
	}
	return &Config{
		Connector:    opts,
		connectorSet: connectorOptions != nil,
	}, nil
}

// Merge layers other on top of c: fields other explicitly set win, the rest
// carry over from c. Connector options carry from c unless other set its
// own. Neither input is mutated.
func (c *Config) Merge(other *Config) *Config {
	merged := *c
	if other == nil {
		return &merged
	}

	if other.Region != "" {
		merged.Region = other.Region
	}
	if other.SignatureVersion != "" {
		merged.SignatureVersion = other.SignatureVersion
	}
	if other.UserAgent != "" {
		merged.UserAgent = other.UserAgent
	}
	if other.UserAgentExtra != "" {
		merged.UserAgentExtra = other.UserAgentExtra
	}
	if other.ConnectTimeout != 0 {
		merged.ConnectTimeout = other.ConnectTimeout
	}
	if other.ReadTimeout != 0 {
		merged.ReadTimeout = other.ReadTimeout
	}
	if other.ParameterValidation != nil {
		v := *other.ParameterValidation
		merged.ParameterValidation = &v
	}
	if other.AddressingStyle != "" {
		merged.AddressingStyle = other.AddressingStyle
	}
	if other.connectorSet {
		merged.Connector = other.Connector
		merged.connectorSet = true
	}
	return &merged
}

// EffectiveConnectTimeout returns the connect timeout with the default
// applied.
func (c *Config) EffectiveConnectTimeout() time.Duration {
	if c.ConnectTimeout != 0 {
		return c.ConnectTimeout
	}
	return DefaultCallTimeout
}

// EffectiveReadTimeout returns the read timeout with the default applied.
func (c *Config) EffectiveReadTimeout() time.Duration {
	if c.ReadTimeout != 0 {
		return c.ReadTimeout
	}
	return DefaultCallTimeout
}
