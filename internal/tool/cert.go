package tool

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"net"
	"os"
	"time"
)

// IsFileExists reports whether filename exists.
func IsFileExists(filename string) (bool, error) {
	_, err := os.Stat(filename)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// EnsureTlsCertificate generates a self-signed certificate and its key unless
// both files already exist. It reports whether new files were written.
func EnsureTlsCertificate(organization, commonName, keyFilename, certFilename string, hostnames []string) (bool, error) {
	existCert, err := IsFileExists(certFilename)
	if err != nil {
		return false, err
	}
	existKey, err := IsFileExists(keyFilename)
	if err != nil {
		return false, err
	}
	if existCert && existKey {
		return false, nil
	}
	return true, GenerateTlsCertificate(organization, commonName, keyFilename, certFilename, hostnames)
}

func GenerateTlsCertificate(organization, commonName, keyFilename, certFilename string, hostnames []string) error {
	notBefore := time.Now()
	notAfter := notBefore.AddDate(10, 0, 0)

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return err
	}

	serialNumber, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return err
	}
	template := x509.Certificate{
		SerialNumber: serialNumber,
		Subject: pkix.Name{
			Organization: []string{organization},
			CommonName:   commonName,
		},
		NotBefore:             notBefore,
		NotAfter:              notAfter,
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
	}
	for _, h := range hostnames {
		if ip := net.ParseIP(h); ip != nil {
			template.IPAddresses = append(template.IPAddresses, ip)
		} else {
			template.DNSNames = append(template.DNSNames, h)
		}
	}

	derBytes, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	if err != nil {
		return err
	}
	keyBytes, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return err
	}

	if err := pemToFile(keyFilename, "EC PRIVATE KEY", keyBytes, 0600); err != nil {
		return err
	}
	return pemToFile(certFilename, "CERTIFICATE", derBytes, 0644)
}

func pemToFile(filename, blockType string, b []byte, perm os.FileMode) error {
	file, err := os.OpenFile(filename, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if err := pem.Encode(file, &pem.Block{Type: blockType, Bytes: b}); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
