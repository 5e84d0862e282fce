package httpserver_test

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AmmannChristian/go-tokenproxy/httpserver"
	"github.com/AmmannChristian/go-tokenproxy/internal/testutil"
)

func healthOnly() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "OK")
	})
}

func startServer(t *testing.T, server *httpserver.Server) (addr string, stop func() error) {
	t.Helper()

	lis, err := net.Listen("tcp4", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- server.Serve(ctx, lis)
	}()

	return lis.Addr().String(), func() error {
		cancel()
		select {
		case err := <-done:
			return err
		case <-time.After(5 * time.Second):
			t.Fatal("server did not shut down")
			return nil
		}
	}
}

func TestServer_ServeAndShutdown(t *testing.T) {
	server := httpserver.NewServer(":0", healthOnly())
	assert.Equal(t, ":0", server.Addr())

	addr, stop := startServer(t, server)

	resp, err := http.Get("http://" + addr + "/")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", string(body))

	assert.NoError(t, stop())

	_, err = http.Get("http://" + addr + "/")
	assert.Error(t, err, "listener should be closed after shutdown")
}

func TestServer_ServeTLS(t *testing.T) {
	certFile, keyFile := testutil.WriteTestServerCert(t, t.TempDir())
	tlsConfig, err := httpserver.LoadTLSConfig(httpserver.TLSFiles{CertFile: certFile, KeyFile: keyFile})
	require.NoError(t, err)

	server := httpserver.NewServer(":0", healthOnly(), httpserver.WithServerTLS(tlsConfig))
	addr, stop := startServer(t, server)
	defer func() { assert.NoError(t, stop()) }()

	client := &http.Client{Transport: &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, // #nosec G402 self-signed test certificate
	}}

	resp, err := client.Get("https://" + addr + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotNil(t, resp.TLS)
}

func TestServer_RunListenError(t *testing.T) {
	server := httpserver.NewServer("256.0.0.1:bad", healthOnly())

	err := server.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "httpserver: listen")
}

func TestServer_WithServerLogger(t *testing.T) {
	logger := &recordingLogger{}
	server := httpserver.NewServer(":0", healthOnly(), httpserver.WithServerLogger(logger))

	_, stop := startServer(t, server)
	require.NoError(t, stop())

	assert.True(t, logger.saw("serving on"))
	assert.True(t, logger.saw("shutting down"))
}

type recordingLogger struct {
	mu       sync.Mutex
	messages []string
}

func (l *recordingLogger) Printf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, fmt.Sprintf(format, args...))
}

func (l *recordingLogger) saw(substr string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, msg := range l.messages {
		if strings.Contains(msg, substr) {
			return true
		}
	}
	return false
}
