package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClientIPConfig_ClientIP(t *testing.T) {
	tests := []struct {
		name    string
		config  ClientIPConfig
		headers map[string]string
		remote  string
		want    string
	}{
		{"untrusted headers ignored", ClientIPConfig{}, map[string]string{"CF-Connecting-IP": "198.51.100.1", "X-Forwarded-For": "10.0.0.1", "X-Real-IP": "10.0.0.2"}, "192.0.2.8:5555", "192.0.2.8"},
		{"configured header", ClientIPConfig{Header: "CF-Connecting-IP"}, map[string]string{"CF-Connecting-IP": "198.51.100.1", "X-Forwarded-For": "10.0.0.1"}, "127.0.0.1:1234", "198.51.100.1"},
		{"invalid configured header", ClientIPConfig{Header: "X-Real-IP"}, map[string]string{"X-Real-IP": "not-an-ip"}, "192.0.2.8:5555", "192.0.2.8"},
		{"one trusted hop takes right-most", ClientIPConfig{TrustedHops: 1}, map[string]string{"X-Forwarded-For": "10.9.9.9, 203.0.113.9"}, "127.0.0.1:1234", "203.0.113.9"},
		{"two trusted hops", ClientIPConfig{TrustedHops: 2}, map[string]string{"X-Forwarded-For": " 10.9.9.9 , 203.0.113.9 , 10.0.0.1"}, "127.0.0.1:1234", "203.0.113.9"},
		{"chain shorter than hops", ClientIPConfig{TrustedHops: 3}, map[string]string{"X-Forwarded-For": "203.0.113.9"}, "127.0.0.1:1234", "203.0.113.9"},
		{"invalid hop falls back", ClientIPConfig{TrustedHops: 1}, map[string]string{"X-Forwarded-For": "10.0.0.1, garbage"}, "192.0.2.8:5555", "192.0.2.8"},
		{"no forwarded header", ClientIPConfig{TrustedHops: 1}, nil, "192.0.2.8:5555", "192.0.2.8"},
		{"remote addr without port", ClientIPConfig{}, nil, "192.0.2.8", "192.0.2.8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, tt.config.clientIP(req))
		})
	}
}

func TestClientIPConfig_MultipleForwardedHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Add("X-Forwarded-For", "10.9.9.9")
	req.Header.Add("X-Forwarded-For", "203.0.113.9, 10.0.0.1")

	assert.Equal(t, "203.0.113.9", ClientIPConfig{TrustedHops: 2}.clientIP(req))
}

func TestValidSessionID(t *testing.T) {
	assert.True(t, validSessionID("abc-123_XYZ"))
	assert.True(t, validSessionID("6f1c2a7e-0b7d-4c55-9a43-3f3e8f9c1d20"))
	assert.False(t, validSessionID(""))
	assert.False(t, validSessionID("has space"))
	assert.False(t, validSessionID("semi;colon"))
	assert.False(t, validSessionID(strings.Repeat("a", maxSessionIDLength+1)))
}

func TestFirstValidSessionID(t *testing.T) {
	assert.Equal(t, "header", firstValidSessionID("bad id", "header", "cookie"))
	assert.Equal(t, "cookie", firstValidSessionID("", "", " cookie "))
	assert.Empty(t, firstValidSessionID("", "", ""))
}
