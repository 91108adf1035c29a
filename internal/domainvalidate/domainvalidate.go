// Package domainvalidate validates domain strings for AuditOrchestrator's
// step-1 input check (spec.md §4.9). Grounded on the teacher's
// internal/dnsvalidator package, which establishes the miekg/dns library
// as this codebase's idiom for domain-grammar correctness — reused here in
// place of a hand-rolled regex.
package domainvalidate

import (
	"strings"

	"github.com/miekg/dns"
	"golang.org/x/net/idna"
)

// Normalize lowercases and punycode-normalizes a domain for consistent
// collection-name derivation and comparisons.
func Normalize(domain string) (string, error) {
	d := strings.ToLower(strings.TrimSpace(domain))
	d = strings.TrimSuffix(d, ".")
	ascii, err := idna.Lookup.ToASCII(d)
	if err != nil {
		return "", err
	}
	return ascii, nil
}

// Valid reports whether domain is a syntactically valid, resolvable-shaped
// hostname: a valid DNS name per RFC 1035 grammar with at least one dot and
// a plausible TLD (>= 2 alpha characters), mirroring the original's
// DOMAIN_REGEX intent with real DNS-grammar validation instead of a regex.
func Valid(domain string) bool {
	norm, err := Normalize(domain)
	if err != nil || norm == "" {
		return false
	}
	if !dns.IsDomainName(norm) {
		return false
	}
	labels := strings.Split(norm, ".")
	if len(labels) < 2 {
		return false
	}
	tld := labels[len(labels)-1]
	if len(tld) < 2 {
		return false
	}
	for _, r := range tld {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	for _, label := range labels {
		if label == "" || len(label) > 63 {
			return false
		}
	}
	return true
}

// CollectionName derives the per-domain vector-store collection name
// deterministically, per spec.md §4.2/§6 ("articles__<domain>").
func CollectionName(domain string) string {
	norm, err := Normalize(domain)
	if err != nil {
		norm = strings.ToLower(domain)
	}
	safe := strings.NewReplacer(".", "_", "-", "_").Replace(norm)
	return "articles__" + safe
}
