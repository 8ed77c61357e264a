package services

import (
	"testing"
	"time"

	"coco-admissions-platform/internal/config"
)

func TestNewOCRClientTimeout(t *testing.T) {
	tests := []struct {
		name           string
		timeoutSeconds int
		want           time.Duration
	}{
		{"configured seconds", 30, 30 * time.Second},
		{"zero falls back", 0, 5 * time.Minute},
		{"negative falls back", -1, 5 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewOCRClient(&config.Config{OCRTimeout: tt.timeoutSeconds})
			if client.httpClient.Timeout != tt.want {
				t.Errorf("http client timeout = %v, want %v", client.httpClient.Timeout, tt.want)
			}
		})
	}
}

func TestNewOCRClientDefaultBaseURL(t *testing.T) {
	client := NewOCRClient(&config.Config{OCRTimeout: 300})
	if client.baseURL != "http://localhost:8001" {
		t.Errorf("base URL = %q", client.baseURL)
	}
}
