// Package valueobjects contains immutable value types for the proxy domain.
package valueobjects

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	// VLESSTransportTCP represents TCP transport protocol for VLESS
	VLESSTransportTCP = "tcp"

	// VLESSSecurityReality represents Reality security
	VLESSSecurityReality = "reality"

	// VLESSEncryptionNone is the only encryption value VLESS defines
	VLESSEncryptionNone = "none"

	// VLESSFlowVision represents XTLS-RPRX-Vision flow control
	VLESSFlowVision = "xtls-rprx-vision"
)

// VLESSConfig describes the server side of a Reality VLESS endpoint.
// This is an immutable value object; connection links are derived from it.
type VLESSConfig struct {
	host string
	port uint16

	flow        string
	fingerprint string

	// Reality parameters
	publicKey  string
	serverName string
	shortID    string
}

// NewVLESSConfig creates a new VLESSConfig with validation
func NewVLESSConfig(
	host string,
	port uint16,
	flow string,
	fingerprint string,
	publicKey string,
	serverName string,
	shortID string,
) (VLESSConfig, error) {
	if host == "" {
		return VLESSConfig{}, fmt.Errorf("host is required")
	}
	if port == 0 {
		return VLESSConfig{}, fmt.Errorf("port is required")
	}
	if flow != "" && flow != VLESSFlowVision {
		return VLESSConfig{}, fmt.Errorf("unsupported flow: %s (must be empty or xtls-rprx-vision)", flow)
	}
	if publicKey == "" {
		return VLESSConfig{}, fmt.Errorf("public_key is required for Reality security")
	}
	if serverName == "" {
		return VLESSConfig{}, fmt.Errorf("server_name is required for Reality security")
	}
	if shortID == "" {
		return VLESSConfig{}, fmt.Errorf("short_id is required for Reality security")
	}

	return VLESSConfig{
		host:        host,
		port:        port,
		flow:        flow,
		fingerprint: fingerprint,
		publicKey:   publicKey,
		serverName:  serverName,
		shortID:     shortID,
	}, nil
}

// Host returns the public server address
func (vc VLESSConfig) Host() string {
	return vc.host
}

// Port returns the public server port
func (vc VLESSConfig) Port() uint16 {
	return vc.port
}

// Flow returns the flow control setting
func (vc VLESSConfig) Flow() string {
	return vc.flow
}

// Fingerprint returns the TLS fingerprint
func (vc VLESSConfig) Fingerprint() string {
	return vc.fingerprint
}

// PublicKey returns the Reality public key
func (vc VLESSConfig) PublicKey() string {
	return vc.publicKey
}

// ServerName returns the Reality server name
func (vc VLESSConfig) ServerName() string {
	return vc.serverName
}

// ShortID returns the Reality short ID
func (vc VLESSConfig) ShortID() string {
	return vc.shortID
}

// ToURI generates a VLESS URI for a client profile.
// Format: vless://uuid@host:port?type=tcp&security=reality[&params]#remark
func (vc VLESSConfig) ToURI(uuid string, remark string) string {
	uri := fmt.Sprintf("vless://%s@%s:%d", uuid, vc.host, vc.port)

	params := []string{
		"type=" + VLESSTransportTCP,
		"security=" + VLESSSecurityReality,
		"pbk=" + url.QueryEscape(vc.publicKey),
	}
	if vc.fingerprint != "" {
		params = append(params, "fp="+url.QueryEscape(vc.fingerprint))
	}
	params = append(params, "sni="+url.QueryEscape(vc.serverName))
	params = append(params, "sid="+url.QueryEscape(vc.shortID))
	if vc.flow != "" {
		params = append(params, "flow="+url.QueryEscape(vc.flow))
	}
	params = append(params, "encryption="+VLESSEncryptionNone)

	uri += "?" + strings.Join(params, "&")

	if remark != "" {
		uri += "#" + url.QueryEscape(remark)
	}

	return uri
}

// Equals checks if two VLESSConfig instances are equal
func (vc VLESSConfig) Equals(other VLESSConfig) bool {
	return vc.host == other.host &&
		vc.port == other.port &&
		vc.flow == other.flow &&
		vc.fingerprint == other.fingerprint &&
		vc.publicKey == other.publicKey &&
		vc.serverName == other.serverName &&
		vc.shortID == other.shortID
}
