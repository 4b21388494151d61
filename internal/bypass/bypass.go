package bypass

import (
	"net/mail"
	"strings"

	"go.uber.org/zap"
)

// Checker decides which senders skip model analysis, by domain
type Checker struct {
	domains []string
	logger  *zap.Logger
}

// NewChecker creates a checker. A leading "*." or "." on a domain also matches its subdomains.
func NewChecker(domains []string, logger *zap.Logger) *Checker {
	normalized := make([]string, 0, len(domains))
	for _, domain := range domains {
		d := strings.ToLower(strings.TrimSpace(domain))
		d = strings.TrimPrefix(d, "*")
		if d != "" && d != "." {
			normalized = append(normalized, d)
		}
	}

	if len(normalized) > 0 && logger != nil {
		logger.Info("Initialized sender bypass list", zap.Strings("domains", normalized))
	}

	return &Checker{
		domains: normalized,
		logger:  logger,
	}
}

// IsBypassed reports whether the sender's domain is on the list. sender may be a bare
// address or a display-name form.
func (c *Checker) IsBypassed(sender string) bool {
	if len(c.domains) == 0 {
		return false
	}

	domain := senderDomain(sender)
	if domain == "" {
		return false
	}

	for _, d := range c.domains {
		matched := domain == d
		if strings.HasPrefix(d, ".") {
			matched = strings.HasSuffix(domain, d) || domain == d[1:]
		}
		if matched {
			if c.logger != nil {
				c.logger.Debug("Sender domain is bypassed",
					zap.String("domain", domain),
					zap.String("sender", sender))
			}
			return true
		}
	}
	return false
}

func senderDomain(sender string) string {
	address := strings.TrimSpace(sender)
	if addr, err := mail.ParseAddress(address); err == nil {
		address = addr.Address
	}
	at := strings.LastIndex(address, "@")
	if at < 0 || at == len(address)-1 {
		return ""
	}
	return strings.ToLower(address[at+1:])
}
