package ratelimit_test

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"mime/multipart"
	"net/url"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/qr-tracker/internal/ratelimit"
	"github.com/stretchr/testify/assert"
)

var errMultipartNotSupported = errors.New("multipart not supported in mock")

// mockHumaContext implements huma.Context for testing metadata lookup.
type mockHumaContext struct {
	method    string
	operation *huma.Operation
}

func (m *mockHumaContext) Operation() *huma.Operation {
	return m.operation
}
func (m *mockHumaContext) Context() context.Context          { return context.Background() }
func (m *mockHumaContext) TLS() *tls.ConnectionState         { return nil }
func (m *mockHumaContext) Version() huma.ProtoVersion        { return huma.ProtoVersion{} }
func (m *mockHumaContext) Method() string                    { return m.method }
func (m *mockHumaContext) Host() string                      { return "" }
func (m *mockHumaContext) RemoteAddr() string                { return "" }
func (m *mockHumaContext) URL() url.URL                      { return url.URL{} }
func (m *mockHumaContext) Param(_ string) string             { return "" }
func (m *mockHumaContext) Query(_ string) string             { return "" }
func (m *mockHumaContext) Header(_ string) string            { return "" }
func (m *mockHumaContext) EachHeader(_ func(string, string)) {}
func (m *mockHumaContext) BodyReader() io.Reader             { return nil }
func (m *mockHumaContext) GetMultipartForm() (*multipart.Form, error) {
	return nil, errMultipartNotSupported
}
func (m *mockHumaContext) SetReadDeadline(_ time.Time) error { return nil }
func (m *mockHumaContext) SetStatus(_ int)                   {}
func (m *mockHumaContext) Status() int                       { return 0 }
func (m *mockHumaContext) AppendHeader(_, _ string)          {}
func (m *mockHumaContext) SetHeader(_, _ string)             {}
func (m *mockHumaContext) BodyWriter() io.Writer             { return nil }

func TestGetEndpointConfig(t *testing.T) {
	t.Parallel()

	cfg := ratelimit.EndpointConfig{
		Scopes:    []ratelimit.Scope{ratelimit.ScopeShortCode, ratelimit.ScopeIP},
		PathParam: "shortCode",
	}

	tests := []struct {
		name      string
		operation *huma.Operation
		expected  *ratelimit.EndpointConfig
	}{
		{
			name:      "nil operation",
			operation: nil,
			expected:  nil,
		},
		{
			name:      "operation without metadata",
			operation: &huma.Operation{},
			expected:  nil,
		},
		{
			name: "unrelated metadata",
			operation: &huma.Operation{
				Metadata: map[string]any{"other": "value"},
			},
			expected: nil,
		},
		{
			name: "wrong value type under the key",
			operation: &huma.Operation{
				Metadata: map[string]any{ratelimit.MetadataKey: "shortcode"},
			},
			expected: nil,
		},
		{
			name: "config present",
			operation: &huma.Operation{
				Metadata: map[string]any{ratelimit.MetadataKey: cfg},
			},
			expected: &cfg,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctx := &mockHumaContext{method: "GET", operation: tt.operation}

			assert.Equal(t, tt.expected, ratelimit.GetEndpointConfig(ctx))
		})
	}
}
