package object

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/ssh"
)

const (
	// SignatureHeader holds a record's SSH signature.
	SignatureHeader = "signature"

	signaturePrefix = "sshsig-v1"
)

// SigningPayload returns the canonical bytes that are signed for a record.
// The payload excludes the signature header itself.
func SigningPayload(r *Record) []byte {
	if r == nil {
		return nil
	}
	unsigned := Record{
		keys:    r.Keys(),
		values:  make(map[string][][]byte, len(r.values)),
		Message: r.Message,
	}
	for k, v := range r.values {
		unsigned.values[k] = v
	}
	unsigned.Del(SignatureHeader)
	return unsigned.Payload()
}

// SignRecord signs r with signer and stores the result under the signature
// header, replacing any previous signature.
func SignRecord(r *Record, signer ssh.Signer) error {
	sig, err := signer.Sign(rand.Reader, SigningPayload(r))
	if err != nil {
		return fmt.Errorf("sign record: %w", err)
	}
	pub := base64.StdEncoding.EncodeToString(signer.PublicKey().Marshal())
	blob := base64.StdEncoding.EncodeToString(sig.Blob)
	r.Set(SignatureHeader, []byte(fmt.Sprintf("%s:%s:%s:%s", signaturePrefix, sig.Format, pub, blob)))
	return nil
}

// VerifyRecord checks the signature header of r and returns the signing key.
func VerifyRecord(r *Record) (ssh.PublicKey, error) {
	raw, ok := r.Get(SignatureHeader)
	if !ok {
		return nil, fmt.Errorf("verify record: no %s header", SignatureHeader)
	}
	parts := strings.Split(string(raw), ":")
	if len(parts) != 4 || parts[0] != signaturePrefix {
		return nil, fmt.Errorf("verify record: unrecognized signature encoding")
	}
	pubBytes, err := base64.StdEncoding.DecodeString(parts[2])
	if err != nil {
		return nil, fmt.Errorf("verify record: decode public key: %w", err)
	}
	pub, err := ssh.ParsePublicKey(pubBytes)
	if err != nil {
		return nil, fmt.Errorf("verify record: parse public key: %w", err)
	}
	blob, err := base64.StdEncoding.DecodeString(parts[3])
	if err != nil {
		return nil, fmt.Errorf("verify record: decode signature: %w", err)
	}
	if err := pub.Verify(SigningPayload(r), &ssh.Signature{Format: parts[1], Blob: blob}); err != nil {
		return nil, fmt.Errorf("verify record: %w", err)
	}
	return pub, nil
}
