package httpserver

import (
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// TLSFiles names the PEM files used to serve the gateway over HTTPS.
type TLSFiles struct {
	CertFile string
	KeyFile  string
}

// Enabled reports whether both files are configured.
func (f TLSFiles) Enabled() bool {
	return f.CertFile != "" && f.KeyFile != ""
}

// LoadTLSConfig reads the certificate pair and returns a server config
// that accepts TLS 1.2 and newer.
//
// Setting only one of CertFile and KeyFile is an error; setting neither
// returns (nil, nil) so the caller can fall back to plain HTTP.
func LoadTLSConfig(files TLSFiles) (*tls.Config, error) {
	switch {
	case files.CertFile == "" && files.KeyFile == "":
		return nil, nil
	case files.CertFile == "":
		return nil, errors.New("httpserver: TLS key file set without certificate file")
	case files.KeyFile == "":
		return nil, errors.New("httpserver: TLS certificate file set without key file")
	}

	certPEM, err := readPEMFile(files.CertFile)
	if err != nil {
		return nil, fmt.Errorf("httpserver: read certificate: %w", err)
	}
	keyPEM, err := readPEMFile(files.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("httpserver: read key: %w", err)
	}

	cert, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return nil, fmt.Errorf("httpserver: parse certificate pair: %w", err)
	}

	return &tls.Config{
		MinVersion:   tls.VersionTLS12,
		Certificates: []tls.Certificate{cert},
	}, nil
}

// readPEMFile opens path through os.OpenInRoot so that the final path
// element cannot escape its directory via a symlink.
func readPEMFile(path string) ([]byte, error) {
	abs, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("resolve %q: %w", path, err)
	}

	f, err := os.OpenInRoot(filepath.Dir(abs), filepath.Base(abs))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return io.ReadAll(f)
}
