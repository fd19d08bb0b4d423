package nimbus

import "testing"

func TestEndpointResolver(t *testing.T) {
	r := NewEndpointResolver("")

	t.Run("constructed_url", func(t *testing.T) {
		ep, err := r.Resolve("storage", "us-test-1", "", true)
		if err != nil {
			t.Fatalf("Resolve failed: %v", err)
		}
		want := "https://storage.us-test-1." + DefaultDNSSuffix
		if ep.URL != want {
			t.Errorf("expected %q, got %q", want, ep.URL)
		}
		if ep.SigningRegion != "us-test-1" || ep.SigningName != "storage" {
			t.Errorf("signing details wrong: %+v", ep)
		}
		if ep.SignatureVersion != SignatureVersionV4 {
			t.Errorf("expected v4 default, got %q", ep.SignatureVersion)
		}
	})

	t.Run("insecure", func(t *testing.T) {
		ep, err := r.Resolve("storage", "us-test-1", "", false)
		if err != nil {
			t.Fatalf("Resolve failed: %v", err)
		}
		if ep.URL[:7] != "http://" {
			t.Errorf("expected http scheme, got %q", ep.URL)
		}
	})

	t.Run("override", func(t *testing.T) {
		ep, err := r.Resolve("storage", "us-test-1", "http://localhost:9000", true)
		if err != nil {
			t.Fatalf("Resolve failed: %v", err)
		}
		if ep.URL != "http://localhost:9000" {
			t.Errorf("override not honored: %q", ep.URL)
		}
		if ep.SigningRegion != "us-test-1" {
			t.Error("signing region should still resolve with an override")
		}
	})

	t.Run("custom_suffix", func(t *testing.T) {
		ep, err := NewEndpointResolver("internal.example").Resolve("queue", "eu-west-1", "", true)
		if err != nil {
			t.Fatalf("Resolve failed: %v", err)
		}
		if ep.URL != "https://queue.eu-west-1.internal.example" {
			t.Errorf("custom suffix ignored: %q", ep.URL)
		}
	})

	t.Run("missing_inputs", func(t *testing.T) {
		if _, err := r.Resolve("", "us-test-1", "", true); err == nil {
			t.Error("expected error for empty service")
		}
		if _, err := r.Resolve("storage", "", "", true); err == nil {
			t.Error("expected error for no region and no override")
		}
	})

	t.Run("override_without_region", func(t *testing.T) {
		ep, err := r.Resolve("storage", "", "http://localhost:9000", true)
		if err != nil {
			t.Fatalf("an explicit endpoint should not require a region: %v", err)
		}
		if ep.URL != "http://localhost:9000" {
			t.Errorf("override not honored: %q", ep.URL)
		}
	})
}
