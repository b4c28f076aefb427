// Package xray controls a local xray-core process: it edits the client list
// inside the JSON config file and drives the service through systemd.
package xray

import (
	"encoding/json"
	"fmt"
)

const vlessProtocol = "vless"

// Client is one entry of an inbound's client list.
type Client struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Flow  string `json:"flow,omitempty"`
}

// Document wraps a parsed xray config file. The file is kept as a generic
// JSON tree so sections this tool does not understand (routing, outbounds,
// transport tuning) survive a rewrite byte-for-byte in meaning.
type Document struct {
	root map[string]interface{}
}

// ParseDocument decodes an xray config file.
func ParseDocument(data []byte) (*Document, error) {
	var root map[string]interface{}
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse xray config: %w", err)
	}
	return &Document{root: root}, nil
}

// Encode renders the config back to indented JSON.
func (d *Document) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(d.root, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode xray config: %w", err)
	}
	return append(data, '\n'), nil
}

// vlessInbounds returns the settings maps of all vless inbounds.
func (d *Document) vlessInbounds() ([]map[string]interface{}, error) {
	inbounds, ok := d.root["inbounds"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("xray config has no inbounds section")
	}

	var result []map[string]interface{}
	for _, raw := range inbounds {
		inbound, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		if inbound["protocol"] != vlessProtocol {
			continue
		}
		settings, ok := inbound["settings"].(map[string]interface{})
		if !ok {
			settings = map[string]interface{}{}
			inbound["settings"] = settings
		}
		result = append(result, settings)
	}

	if len(result) == 0 {
		return nil, fmt.Errorf("xray config has no vless inbound")
	}
	return result, nil
}

func clientsOf(settings map[string]interface{}) []interface{} {
	clients, _ := settings["clients"].([]interface{})
	return clients
}

// UpsertClient ensures a client with the given identity exists in every vless
// inbound. An entry matching by id or email is replaced rather than appended,
// so reapplying the same profile never grows the list.
func (d *Document) UpsertClient(client Client) error {
	settingsList, err := d.vlessInbounds()
	if err != nil {
		return err
	}

	entry := map[string]interface{}{
		"id":    client.ID,
		"email": client.Email,
	}
	if client.Flow != "" {
		entry["flow"] = client.Flow
	}

	for _, settings := range settingsList {
		clients := clientsOf(settings)
		replaced := false
		for i, raw := range clients {
			existing, ok := raw.(map[string]interface{})
			if !ok {
				continue
			}
			if existing["id"] == client.ID || existing["email"] == client.Email {
				clients[i] = entry
				replaced = true
				break
			}
		}
		if !replaced {
			clients = append(clients, entry)
		}
		settings["clients"] = clients
	}

	return nil
}

// RemoveClient drops every client whose id matches from all vless inbounds.
// Removing an absent id is a no-op.
func (d *Document) RemoveClient(id string) error {
	settingsList, err := d.vlessInbounds()
	if err != nil {
		return err
	}

	for _, settings := range settingsList {
		clients := clientsOf(settings)
		kept := make([]interface{}, 0, len(clients))
		for _, raw := range clients {
			existing, ok := raw.(map[string]interface{})
			if ok && existing["id"] == id {
				continue
			}
			kept = append(kept, raw)
		}
		settings["clients"] = kept
	}

	return nil
}

// HasClient reports whether any vless inbound carries a client with the id.
func (d *Document) HasClient(id string) (bool, error) {
	settingsList, err := d.vlessInbounds()
	if err != nil {
		return false, err
	}

	for _, settings := range settingsList {
		for _, raw := range clientsOf(settings) {
			existing, ok := raw.(map[string]interface{})
			if ok && existing["id"] == id {
				return true, nil
			}
		}
	}
	return false, nil
}

// DedupeClients removes duplicate client entries sharing an id or email,
// keeping the first occurrence. Returns the number of entries dropped.
func (d *Document) DedupeClients() (int, error) {
	settingsList, err := d.vlessInbounds()
	if err != nil {
		return 0, err
	}

	dropped := 0
	for _, settings := range settingsList {
		clients := clientsOf(settings)
		seenID := map[interface{}]bool{}
		seenEmail := map[interface{}]bool{}
		kept := make([]interface{}, 0, len(clients))
		for _, raw := range clients {
			existing, ok := raw.(map[string]interface{})
			if !ok {
				kept = append(kept, raw)
				continue
			}
			id := existing["id"]
			email := existing["email"]
			if (id != nil && seenID[id]) || (email != nil && seenEmail[email]) {
				dropped++
				continue
			}
			if id != nil {
				seenID[id] = true
			}
			if email != nil {
				seenEmail[email] = true
			}
			kept = append(kept, raw)
		}
		settings["clients"] = kept
	}

	return dropped, nil
}
