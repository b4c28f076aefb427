package proxy

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vo "github.com/sunstrike-inc/sunstrike/internal/domain/proxy/valueobjects"
)

func TestBuildDirective(t *testing.T) {
	d, err := BuildDirective(42, "alice", "s3cret-pass", "sunstrike.local", "")
	require.NoError(t, err)

	assert.Equal(t, uint(42), d.SubscriptionID)
	assert.Equal(t, "alice@sunstrike.local", d.Email)
	assert.Empty(t, d.Flow)

	parsed, err := uuid.Parse(d.UUID)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(5), parsed.Version())
}

func TestBuildDirective_Deterministic(t *testing.T) {
	a, err := BuildDirective(1, "alice", "s3cret-pass", "", "")
	require.NoError(t, err)
	b, err := BuildDirective(1, "alice", "s3cret-pass", "", "")
	require.NoError(t, err)

	assert.Equal(t, a.UUID, b.UUID)
	assert.Equal(t, "alice", a.Email)
}

func TestBuildDirective_CredentialChangesIdentity(t *testing.T) {
	a, err := BuildDirective(1, "alice", "s3cret-pass", "", "")
	require.NoError(t, err)
	b, err := BuildDirective(1, "alice", "other-secret", "", "")
	require.NoError(t, err)
	c, err := BuildDirective(1, "alicia", "s3cret-pass", "", "")
	require.NoError(t, err)

	assert.NotEqual(t, a.UUID, b.UUID)
	assert.NotEqual(t, a.UUID, c.UUID)
}

func TestBuildDirective_InvalidInput(t *testing.T) {
	_, err := BuildDirective(1, "", "s3cret-pass", "", "")
	assert.ErrorIs(t, err, ErrInvalidSubscription)

	_, err = BuildDirective(1, "alice", "", "", "")
	assert.ErrorIs(t, err, ErrInvalidSubscription)
}

func TestLinkGenerator_Build(t *testing.T) {
	cfg, err := vo.NewVLESSConfig("vpn.example.com", 443, "", "chrome", "pbk123", "www.google.com", "ab12")
	require.NoError(t, err)

	gen := NewLinkGenerator(cfg, "")
	link := gen.Build("u-1", "alice")
	assert.Contains(t, link, "vless://u-1@vpn.example.com:443")
	assert.Contains(t, link, "#alice")

	named := NewLinkGenerator(cfg, "Sunstrike VPN")
	link = named.Build("u-1", "alice")
	assert.Contains(t, link, "#Sunstrike+VPN")
}
