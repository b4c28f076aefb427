package proxy

import (
	vo "github.com/sunstrike-inc/sunstrike/internal/domain/proxy/valueobjects"
)

// LinkGenerator renders connection links from the server endpoint config.
// Links are pure derivations: the same config, profile UUID and remark always
// produce the same string.
type LinkGenerator struct {
	config vo.VLESSConfig
	remark string
}

// NewLinkGenerator creates a link generator. The remark, when set, overrides
// the per-subscription fallback passed to Build.
func NewLinkGenerator(config vo.VLESSConfig, remark string) *LinkGenerator {
	return &LinkGenerator{config: config, remark: remark}
}

// Build renders the connection link for a profile. When no server-wide remark
// is configured the subscription username labels the link instead.
func (g *LinkGenerator) Build(profileUUID, username string) string {
	remark := g.remark
	if remark == "" {
		remark = username
	}
	return g.config.ToURI(profileUUID, remark)
}
