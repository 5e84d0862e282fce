package httpserver_test

import (
	"crypto/tls"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AmmannChristian/go-tokenproxy/httpserver"
	"github.com/AmmannChristian/go-tokenproxy/internal/testutil"
)

func TestLoadTLSConfig_Disabled(t *testing.T) {
	files := httpserver.TLSFiles{}
	assert.False(t, files.Enabled())

	cfg, err := httpserver.LoadTLSConfig(files)
	require.NoError(t, err)
	assert.Nil(t, cfg)
}

func TestLoadTLSConfig_Errors(t *testing.T) {
	garbage := filepath.Join(t.TempDir(), "garbage.pem")
	require.NoError(t, os.WriteFile(garbage, []byte("not a pem"), 0o600))

	tests := []struct {
		name  string
		files httpserver.TLSFiles
	}{
		{name: "key without cert", files: httpserver.TLSFiles{KeyFile: "/path/to/key.pem"}},
		{name: "cert without key", files: httpserver.TLSFiles{CertFile: "/path/to/cert.pem"}},
		{name: "nonexistent files", files: httpserver.TLSFiles{CertFile: "/nonexistent/cert.pem", KeyFile: "/nonexistent/key.pem"}},
		{name: "invalid pem", files: httpserver.TLSFiles{CertFile: garbage, KeyFile: garbage}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := httpserver.LoadTLSConfig(tt.files)
			assert.Error(t, err)
			assert.Nil(t, cfg)
		})
	}
}

func TestLoadTLSConfig_Valid(t *testing.T) {
	certFile, keyFile := testutil.WriteTestServerCert(t, t.TempDir())

	files := httpserver.TLSFiles{CertFile: certFile, KeyFile: keyFile}
	require.True(t, files.Enabled())

	cfg, err := httpserver.LoadTLSConfig(files)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, uint16(tls.VersionTLS12), cfg.MinVersion)
	assert.Len(t, cfg.Certificates, 1)
}
