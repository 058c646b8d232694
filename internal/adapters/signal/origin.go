package signal

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"
)

type originPolicy struct {
	allowAll bool
	allowed  map[string]struct{}
}

func newOriginPolicy(origins []string) *originPolicy {
	p := &originPolicy{allowed: make(map[string]struct{}, len(origins))}
	for _, o := range origins {
		o = strings.TrimSpace(o)
		if o == "*" {
			p.allowAll = true
			continue
		}
		n, ok := normalizeOrigin(o)
		if !ok {
			log.Warn().Str("module", "signal").Str("origin", o).Msg("ignoring invalid origin")
			continue
		}
		p.allowed[n] = struct{}{}
	}
	return p
}

func normalizeOrigin(origin string) (string, bool) {
	parsed, err := url.Parse(origin)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", false
	}
	return strings.ToLower(parsed.Scheme) + "://" + strings.ToLower(parsed.Host), true
}

// check allows requests without an Origin header; those are not browsers.
func (p *originPolicy) check(r *http.Request) bool {
	header := r.Header.Get("Origin")
	if p.allowAll || header == "" {
		return true
	}
	n, ok := normalizeOrigin(header)
	if ok {
		if _, found := p.allowed[n]; found {
			return true
		}
	}
	log.Warn().Str("module", "signal").Str("origin", header).Msg("blocked WS origin")
	return false
}
