package fetch

import (
	"strings"

	"github.com/miekg/dns"
)

var dnsServers = []string{"8.8.8.8:53", "1.1.1.1:53"}

// VerifyEmailDomain reports whether the email's domain publishes MX
// records, so enrichment can flag extracted addresses that could never
// receive mail. A DNS failure counts as unverified, not invalid.
func VerifyEmailDomain(email string) bool {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return false
	}
	domain := strings.TrimSpace(parts[1])
	if domain == "" {
		return false
	}

	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(domain), dns.TypeMX)
	msg.RecursionDesired = true

	client := new(dns.Client)
	for _, server := range dnsServers {
		if resp, _, err := client.Exchange(msg, server); err == nil {
			if resp != nil && resp.Rcode == dns.RcodeSuccess && len(resp.Answer) > 0 {
				return true
			}
		}
	}
	return false
}
