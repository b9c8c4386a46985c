package intersight

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"
)

const signedHeaders = "(request-target) date digest host"

// Signer adds HTTP Signature authentication headers to outgoing requests.
// RSA keys sign with rsa-sha256, EC keys with hs2019 (ECDSA over SHA-256).
type Signer struct {
	keyID string
	key   crypto.Signer
	now   func() time.Time
}

// NewSigner builds a Signer from a parsed private key.
func NewSigner(keyID string, key crypto.Signer) (*Signer, error) {
	switch key.(type) {
	case *rsa.PrivateKey, *ecdsa.PrivateKey:
	default:
		return nil, fmt.Errorf("unsupported private key type %T", key)
	}
	return &Signer{keyID: keyID, key: key, now: time.Now}, nil
}

// LoadSigner reads a PEM private key from path and builds a Signer for keyID.
func LoadSigner(keyID, path string) (*Signer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	key, err := ParsePrivateKey(data)
	if err != nil {
		return nil, err
	}
	return NewSigner(keyID, key)
}

// ParsePrivateKey decodes the first PEM block of data as a PKCS#1, SEC1 or PKCS#8 key.
func ParsePrivateKey(data []byte) (crypto.Signer, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errors.New("no PEM block found")
	}

	switch block.Type {
	case "RSA PRIVATE KEY":
		return x509.ParsePKCS1PrivateKey(block.Bytes)
	case "EC PRIVATE KEY":
		return x509.ParseECPrivateKey(block.Bytes)
	case "PRIVATE KEY":
		key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, err
		}
		signer, ok := key.(crypto.Signer)
		if !ok {
			return nil, fmt.Errorf("unsupported PKCS#8 key type %T", key)
		}
		return signer, nil
	default:
		return nil, fmt.Errorf("unsupported PEM block type %q", block.Type)
	}
}

func (s *Signer) algorithm() string {
	if _, ok := s.key.(*ecdsa.PrivateKey); ok {
		return "hs2019"
	}
	return "rsa-sha256"
}

// Sign sets Date, Digest and Authorization on req. body must be the exact
// request payload (nil for GET).
func (s *Signer) Sign(req *http.Request, body []byte) error {
	sum := sha256.Sum256(body)
	digest := "SHA-256=" + base64.StdEncoding.EncodeToString(sum[:])
	date := s.now().UTC().Format(http.TimeFormat)

	req.Header.Set("Date", date)
	req.Header.Set("Digest", digest)

	host := req.Host
	if host == "" {
		host = req.URL.Host
	}

	target := strings.ToLower(req.Method) + " " + req.URL.RequestURI()
	signingString := strings.Join([]string{
		"(request-target): " + target,
		"date: " + date,
		"digest: " + digest,
		"host: " + host,
	}, "\n")

	hashed := sha256.Sum256([]byte(signingString))
	var opts crypto.SignerOpts = crypto.SHA256
	sig, err := s.key.Sign(rand.Reader, hashed[:], opts)
	if err != nil {
		return fmt.Errorf("sign request: %w", err)
	}

	req.Header.Set("Authorization", fmt.Sprintf(
		`Signature keyId="%s",algorithm="%s",headers="%s",signature="%s"`,
		s.keyID, s.algorithm(), signedHeaders, base64.StdEncoding.EncodeToString(sig),
	))
	return nil
}
