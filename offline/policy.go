// Package offline keeps a versioned local copy of remote assets so the
// critter keeps working without a network
package offline

import (
	"path"
	"strings"

	"github.com/lixenwraith/critter/asset"
)

// Policy decides where a request is answered from
type Policy int

const (
	// PolicyNetworkOnly fetches and never stores
	PolicyNetworkOnly Policy = iota
	// PolicyCacheFirst answers from the cache, fetching and storing on miss
	PolicyCacheFirst
	// PolicyNetworkFirst fetches with a timeout and falls back to the cache
	PolicyNetworkFirst
)

func (p Policy) String() string {
	switch p {
	case PolicyCacheFirst:
		return "cache-first"
	case PolicyNetworkFirst:
		return "network-first"
	default:
		return "network-only"
	}
}

var policyByExt = map[string]Policy{
	".png":  PolicyCacheFirst,
	".mp3":  PolicyCacheFirst,
	".wav":  PolicyCacheFirst,
	".css":  PolicyCacheFirst,
	".txt":  PolicyCacheFirst,
	".yaml": PolicyNetworkFirst,
	".yml":  PolicyNetworkFirst,
	".json": PolicyNetworkFirst,
	".html": PolicyNetworkFirst,
	".js":   PolicyNetworkFirst,
}

// PolicyFor classifies a request path
// Static media is immutable per cache version; documents may change
func PolicyFor(name string) Policy {
	clean := asset.CleanPath(name)
	if clean == "." {
		return PolicyNetworkFirst
	}
	if p, ok := policyByExt[strings.ToLower(path.Ext(clean))]; ok {
		return p
	}
	return PolicyNetworkOnly
}
