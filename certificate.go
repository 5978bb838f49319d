// Portions of this file are:

// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package urtc

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"time"

	"github.com/pkg/errors"

	"github.com/mauka-labs/urtc/internal/sdp"
)

// Certificate is the self-signed DTLS certificate a peer connection
// advertises in its local SDP. The DTLS handshake itself is out of this
// library's scope; generating the certificate and the fingerprint that
// identifies it in SDP is not, since SetLocalDescription needs it.
type Certificate struct {
	// DER-encoded certificate, as handed to a DTLS implementation.
	DER []byte

	// PEM-encoded private key, as handed to a DTLS implementation.
	KeyPEM []byte

	Fingerprint sdp.Fingerprint
}

// generateCertificate produces a fresh self-signed ECDSA P-256 certificate,
// valid for 30 days (matching Chrome's own default), and the SHA-256
// fingerprint of its DER encoding.
func generateCertificate() (*Certificate, error) {
	notBefore := time.Now()
	notAfter := notBefore.Add(30 * 24 * time.Hour)

	serialNumberLimit := new(big.Int).Lsh(big.NewInt(1), 128)
	serialNumber, err := rand.Int(rand.Reader, serialNumberLimit)
	if err != nil {
		return nil, errors.Wrap(err, "generating serial number")
	}

	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, errors.Wrap(err, "generating key pair")
	}

	template := x509.Certificate{
		SignatureAlgorithm: x509.ECDSAWithSHA256,
		SerialNumber:       serialNumber,
		Subject:            pkix.Name{CommonName: "urtc"},
		NotBefore:          notBefore,
		NotAfter:           notAfter,
	}

	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &priv.PublicKey, priv)
	if err != nil {
		return nil, errors.Wrap(err, "creating certificate")
	}

	keyDER, err := x509.MarshalECPrivateKey(priv)
	if err != nil {
		return nil, errors.Wrap(err, "marshaling private key")
	}
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER})

	return &Certificate{
		DER:         der,
		KeyPEM:      keyPEM,
		Fingerprint: sdp.Fingerprint{SHA256: sha256.Sum256(der)},
	}, nil
}
