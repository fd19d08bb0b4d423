package nimbus

import "fmt"

// DefaultDNSSuffix anchors constructed endpoint hostnames when no explicit
// endpoint URL is supplied.
const DefaultDNSSuffix = "cloud.zoobz.io"

// NewEndpointResolver builds the default resolver. Constructed URLs follow
// {prefix}.{region}.{dnsSuffix}; an empty dnsSuffix selects
// DefaultDNSSuffix.
func NewEndpointResolver(dnsSuffix string) EndpointResolver {
	if dnsSuffix == "" {
		dnsSuffix = DefaultDNSSuffix
	}
	return &dnsResolver{suffix: dnsSuffix}
}

type dnsResolver struct {
	suffix string
}

func (r *dnsResolver) Resolve(service, region, endpointURL string, secure bool) (*ResolvedEndpoint, error) {
	if service == "" {
		return nil, fmt.Errorf("resolve endpoint: empty service name")
	}
	if region == "" && endpointURL == "" {
		return nil, fmt.Errorf("resolve endpoint: no region and no endpoint URL for %q", service)
	}

	url := endpointURL
	if url == "" {
		scheme := "https"
		if !secure {
			scheme = "http"
		}
		url = fmt.Sprintf("%s://%s.%s.%s", scheme, service, region, r.suffix)
	}

	return &ResolvedEndpoint{
		Region:           region,
		URL:              url,
		SigningRegion:    region,
		SigningName:      service,
		SignatureVersion: SignatureVersionV4,
	}, nil
}
