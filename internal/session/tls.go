package session

import (
	"crypto/tls"
	"crypto/x509"
	"os"
)

// TLSConfig holds key material as file paths or inline PEM. PEM wins over
// the file when both are set.
type TLSConfig struct {
	CAFile   string
	CertFile string
	KeyFile  string
	CAPEM    string
	CertPEM  string
	KeyPEM   string
}

// Build returns a TLS 1.2+ client config. Without a CA the system roots are
// used; without a certificate no client certificate is presented.
func (c TLSConfig) Build() (*tls.Config, error) {
	cfg := &tls.Config{MinVersion: tls.VersionTLS12}

	ca, err := pemOrFile(c.CAPEM, c.CAFile)
	if err != nil {
		return nil, newError(ErrCodeConfiguration, "read CA certificate", err)
	}
	if ca != nil {
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(ca) {
			return nil, newError(ErrCodeConfiguration, "no certificates found in CA PEM", nil)
		}
		cfg.RootCAs = pool
	}

	cert, err := pemOrFile(c.CertPEM, c.CertFile)
	if err != nil {
		return nil, newError(ErrCodeConfiguration, "read client certificate", err)
	}
	key, err := pemOrFile(c.KeyPEM, c.KeyFile)
	if err != nil {
		return nil, newError(ErrCodeConfiguration, "read client key", err)
	}
	switch {
	case cert != nil && key != nil:
		pair, err := tls.X509KeyPair(cert, key)
		if err != nil {
			return nil, newError(ErrCodeConfiguration, "load client key pair", err)
		}
		cfg.Certificates = []tls.Certificate{pair}
	case cert != nil || key != nil:
		return nil, newError(ErrCodeConfiguration, "client certificate and key must be set together", nil)
	}

	return cfg, nil
}

func pemOrFile(pem, path string) ([]byte, error) {
	if pem != "" {
		return []byte(pem), nil
	}
	if path == "" {
		return nil, nil
	}
	return os.ReadFile(path)
}
