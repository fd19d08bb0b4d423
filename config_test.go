package nimbus

import (
	"crypto/tls"
	"errors"
	"testing"
	"time"
)

func TestValidateConnectorOptions(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		opts, err := ValidateConnectorOptions(nil)
		if err != nil {
			t.Fatalf("ValidateConnectorOptions failed: %v", err)
		}
		if opts.KeepaliveTimeout != DefaultKeepaliveTimeout {
			t.Errorf("expected default keepalive %v, got %v", DefaultKeepaliveTimeout, opts.KeepaliveTimeout)
		}
	})

	t.Run("all_recognized", func(t *testing.T) {
		opts, err := ValidateConnectorOptions(map[string]any{
			"use_dns_cache":     true,
			"force_close":       true,
			"keepalive_timeout": 30,
			"limit":             8,
			"tls_config":        &tls.Config{},
		})
		if err != nil {
			t.Fatalf("ValidateConnectorOptions failed: %v", err)
		}
		if !opts.UseDNSCache || !opts.ForceClose {
			t.Error("boolean flags were not carried over")
		}
		if opts.KeepaliveTimeout != 30*time.Second {
			t.Errorf("expected keepalive 30s, got %v", opts.KeepaliveTimeout)
		}
		if opts.Limit != 8 {
			t.Errorf("expected limit 8, got %d", opts.Limit)
		}
		if opts.TLSConfig == nil {
			t.Error("tls_config was dropped")
		}
	})

	t.Run("float_keepalive", func(t *testing.T) {
		opts, err := ValidateConnectorOptions(map[string]any{"keepalive_timeout": 1.5})
		if err != nil {
			t.Fatalf("ValidateConnectorOptions failed: %v", err)
		}
		if opts.KeepaliveTimeout != 1500*time.Millisecond {
			t.Errorf("expected 1.5s keepalive, got %v", opts.KeepaliveTimeout)
		}
	})

	t.Run("default_only_when_absent", func(t *testing.T) {
		opts, err := ValidateConnectorOptions(map[string]any{"keepalive_timeout": 0})
		if err != nil {
			t.Fatalf("ValidateConnectorOptions failed: %v", err)
		}
		if opts.KeepaliveTimeout != 0 {
			t.Errorf("explicit zero keepalive was overwritten: %v", opts.KeepaliveTimeout)
		}
	})

	t.Run("unknown_key", func(t *testing.T) {
		_, err := ValidateConnectorOptions(map[string]any{"keep_alive": 10})
		var cfgErr *ConfigValidationError
		if !errors.As(err, &cfgErr) {
			t.Fatalf("expected ConfigValidationError, got %v", err)
		}
		if cfgErr.Option != "keep_alive" {
			t.Errorf("error should name the offending key, got %q", cfgErr.Option)
		}
	})

	t.Run("wrong_types", func(t *testing.T) {
		cases := map[string]any{
			"use_dns_cache":     "yes",
			"force_close":       1,
			"keepalive_timeout": "12",
			"limit":             12.5,
			"tls_config":        "insecure",
		}
		for key, value := range cases {
			_, err := ValidateConnectorOptions(map[string]any{key: value})
			var cfgErr *ConfigValidationError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("%s: expected ConfigValidationError, got %v", key, err)
			}
			if cfgErr.Option != key {
				t.Errorf("%s: error names %q", key, cfgErr.Option)
			}
		}
	})
}

func TestNewConfig(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		cfg, err := NewConfig(map[string]any{"limit": 4})
		if err != nil {
			t.Fatalf("NewConfig failed: %v", err)
		}
		if cfg.Connector.Limit != 4 {
			t.Errorf("expected limit 4, got %d", cfg.Connector.Limit)
		}
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := NewConfig(map[string]any{"bogus": true})
		var cfgErr *ConfigValidationError
		if !errors.As(err, &cfgErr) {
			t.Fatalf("expected ConfigValidationError, got %v", err)
		}
	})
}

func TestConfigMerge(t *testing.T) {
	t.Run("overrides", func(t *testing.T) {
		a := &Config{Region: "us-east-1", UserAgent: "base", ConnectTimeout: 5 * time.Second}
		b := &Config{Region: "eu-west-1", ReadTimeout: 9 * time.Second}

		merged := a.Merge(b)
		if merged.Region != "eu-west-1" {
			t.Errorf("expected B's region, got %q", merged.Region)
		}
		if merged.UserAgent != "base" {
			t.Errorf("expected A's user agent, got %q", merged.UserAgent)
		}
		if merged.ConnectTimeout != 5*time.Second || merged.ReadTimeout != 9*time.Second {
			t.Error("timeouts were not layered correctly")
		}
	})

	t.Run("inputs_untouched", func(t *testing.T) {
		a := &Config{Region: "us-east-1"}
		b := &Config{Region: "eu-west-1"}
		_ = a.Merge(b)
		if a.Region != "us-east-1" || b.Region != "eu-west-1" {
			t.Error("Merge mutated an input config")
		}
	})

	t.Run("parameter_validation_tristate", func(t *testing.T) {
		off := false
		a := &Config{}
		b := &Config{ParameterValidation: &off}

		merged := a.Merge(b)
		if merged.ParameterValidation == nil || *merged.ParameterValidation {
			t.Error("B's explicit validation setting should win")
		}
		if a.ParameterValidation != nil {
			t.Error("Merge aliased B's pointer into A")
		}
	})

	t.Run("connector_carries_from_first", func(t *testing.T) {
		a, err := NewConfig(map[string]any{"limit": 3})
		if err != nil {
			t.Fatalf("NewConfig failed: %v", err)
		}
		b := &Config{Region: "eu-west-1"}

		merged := a.Merge(b)
		if merged.Connector.Limit != 3 {
			t.Errorf("connector options should carry from the first config, got limit %d", merged.Connector.Limit)
		}
	})

	t.Run("connector_replaced_when_explicit", func(t *testing.T) {
		a, err := NewConfig(map[string]any{"limit": 3})
		if err != nil {
			t.Fatalf("NewConfig failed: %v", err)
		}
		b, err := NewConfig(map[string]any{"limit": 7})
		if err != nil {
			t.Fatalf("NewConfig failed: %v", err)
		}

		merged := a.Merge(b)
		if merged.Connector.Limit != 7 {
			t.Errorf("explicit connector options in B should replace A's, got limit %d", merged.Connector.Limit)
		}
	})
}
