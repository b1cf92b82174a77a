package main

import (
	"strings"
	"testing"
)

// TestHealthURL verifies that healthURL constructs correct probe URLs
func TestHealthURL(t *testing.T) {
	tests := []struct {
		name     string
		port     string
		expected string
	}{
		{
			name:     "Default port",
			port:     "3002",
			expected: "http://127.0.0.1:3002/health",
		},
		{
			name:     "Custom port",
			port:     "8080",
			expected: "http://127.0.0.1:8080/health",
		},
		{
			name:     "High port number",
			port:     "65535",
			expected: "http://127.0.0.1:65535/health",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := healthURL(tt.port)
			if result != tt.expected {
				t.Errorf("healthURL(%q) = %q, want %q", tt.port, result, tt.expected)
			}
		})
	}
}

// TestHealthURLUsesIPv4 ensures healthURL always uses 127.0.0.1 instead of localhost.
// This is critical for scratch-based Docker images without /etc/hosts.
func TestHealthURLUsesIPv4(t *testing.T) {
	url := healthURL("3002")

	if !strings.Contains(url, "127.0.0.1") {
		t.Errorf("healthURL must use 127.0.0.1, got %q", url)
	}
	if strings.Contains(url, "localhost") {
		t.Error("healthURL must not use 'localhost' for scratch image compatibility")
	}
}
