package xray

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `{
  "log": {"loglevel": "warning"},
  "inbounds": [
    {
      "port": 443,
      "protocol": "vless",
      "settings": {
        "clients": [
          {"id": "uuid-alice", "email": "alice"}
        ],
        "decryption": "none"
      },
      "streamSettings": {"network": "tcp", "security": "reality"}
    },
    {
      "port": 1080,
      "protocol": "socks",
      "settings": {}
    }
  ],
  "outbounds": [{"protocol": "freedom"}]
}`

func parseSample(t *testing.T) *Document {
	doc, err := ParseDocument([]byte(sampleConfig))
	require.NoError(t, err)
	return doc
}

func clientList(t *testing.T, doc *Document) []map[string]interface{} {
	data, err := doc.Encode()
	require.NoError(t, err)

	var root struct {
		Inbounds []struct {
			Protocol string `json:"protocol"`
			Settings struct {
				Clients []map[string]interface{} `json:"clients"`
			} `json:"settings"`
		} `json:"inbounds"`
	}
	require.NoError(t, json.Unmarshal(data, &root))

	for _, inbound := range root.Inbounds {
		if inbound.Protocol == "vless" {
			return inbound.Settings.Clients
		}
	}
	t.Fatal("no vless inbound in encoded config")
	return nil
}

func TestDocument_UpsertClient(t *testing.T) {
	t.Run("appends new client", func(t *testing.T) {
		doc := parseSample(t)
		require.NoError(t, doc.UpsertClient(Client{ID: "uuid-bob", Email: "bob", Flow: "xtls-rprx-vision"}))

		clients := clientList(t, doc)
		require.Len(t, clients, 2)
		assert.Equal(t, "uuid-bob", clients[1]["id"])
		assert.Equal(t, "xtls-rprx-vision", clients[1]["flow"])
	})

	t.Run("replaces entry with same email", func(t *testing.T) {
		doc := parseSample(t)
		require.NoError(t, doc.UpsertClient(Client{ID: "uuid-alice-2", Email: "alice"}))

		clients := clientList(t, doc)
		require.Len(t, clients, 1)
		assert.Equal(t, "uuid-alice-2", clients[0]["id"])
	})

	t.Run("reapplying same client changes nothing", func(t *testing.T) {
		doc := parseSample(t)
		require.NoError(t, doc.UpsertClient(Client{ID: "uuid-alice", Email: "alice"}))

		clients := clientList(t, doc)
		assert.Len(t, clients, 1)
	})

	t.Run("no vless inbound", func(t *testing.T) {
		doc, err := ParseDocument([]byte(`{"inbounds": [{"protocol": "socks"}]}`))
		require.NoError(t, err)
		assert.ErrorContains(t, doc.UpsertClient(Client{ID: "x", Email: "x"}), "no vless inbound")
	})
}

func TestDocument_RemoveClient(t *testing.T) {
	doc := parseSample(t)

	require.NoError(t, doc.RemoveClient("uuid-alice"))
	assert.Empty(t, clientList(t, doc))

	// removing an absent client is a success
	require.NoError(t, doc.RemoveClient("uuid-ghost"))
}

func TestDocument_HasClient(t *testing.T) {
	doc := parseSample(t)

	has, err := doc.HasClient("uuid-alice")
	require.NoError(t, err)
	assert.True(t, has)

	has, err = doc.HasClient("uuid-ghost")
	require.NoError(t, err)
	assert.False(t, has)
}

func TestDocument_DedupeClients(t *testing.T) {
	doc := parseSample(t)
	require.NoError(t, doc.UpsertClient(Client{ID: "uuid-bob", Email: "bob"}))

	// inject duplicates behind the upsert guard
	settingsList, err := doc.vlessInbounds()
	require.NoError(t, err)
	settingsList[0]["clients"] = append(clientsOf(settingsList[0]),
		map[string]interface{}{"id": "uuid-alice", "email": "alice-copy"},
		map[string]interface{}{"id": "uuid-other", "email": "bob"},
	)

	dropped, err := doc.DedupeClients()
	require.NoError(t, err)
	assert.Equal(t, 2, dropped)
	assert.Len(t, clientList(t, doc), 2)
}

func TestDocument_EncodePreservesUnknownSections(t *testing.T) {
	doc := parseSample(t)
	require.NoError(t, doc.UpsertClient(Client{ID: "uuid-bob", Email: "bob"}))

	data, err := doc.Encode()
	require.NoError(t, err)

	var root map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &root))
	assert.Contains(t, root, "log")
	assert.Contains(t, root, "outbounds")

	inbounds := root["inbounds"].([]interface{})
	assert.Len(t, inbounds, 2)
}
