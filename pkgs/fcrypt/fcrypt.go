// Package fcrypt wraps age encryption with ASCII armor for files that are
// kept next to their plaintext names with an .age suffix.
package fcrypt

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"filippo.io/age"
	"filippo.io/age/armor"
)

const Ext = ".age"

func LoadPublicKey(key string) (*age.X25519Recipient, error) {
	ageRecipient, err := age.ParseX25519Recipient(key)
	if err != nil {
		return nil, fmt.Errorf("error parsing age public key='%s': %w", key, err)
	}

	return ageRecipient, nil
}

// LoadPublicKeys parses every non-empty key.
func LoadPublicKeys(keys []string) ([]age.Recipient, error) {
	recipients := make([]age.Recipient, 0, len(keys))

	for _, key := range keys {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}

		r, err := LoadPublicKey(key)
		if err != nil {
			return nil, err
		}
		recipients = append(recipients, r)
	}

	if len(recipients) == 0 {
		return nil, errors.New("no age recipients configured")
	}

	return recipients, nil
}

func LoadPrivateKey(key string) (*age.X25519Identity, error) {
	ageIdentity, err := age.ParseX25519Identity(key)
	if err != nil {
		return nil, fmt.Errorf("error parsing age private key: %w", err)
	}

	return ageIdentity, nil
}

// EncryptReader encrypts r to w as armored age data.
func EncryptReader(r io.Reader, w io.Writer, recipients ...age.Recipient) error {
	armorWriter := armor.NewWriter(w)

	encryptor, err := age.Encrypt(armorWriter, recipients...)
	if err != nil {
		_ = armorWriter.Close()
		return fmt.Errorf("failed to create encryptor: %w", err)
	}

	if _, err = io.Copy(encryptor, r); err != nil {
		_ = encryptor.Close()
		_ = armorWriter.Close()
		return fmt.Errorf("failed to encrypt: %w", err)
	}

	// close in reverse order so both layers are finalized
	if err = encryptor.Close(); err != nil {
		_ = armorWriter.Close()
		return fmt.Errorf("failed to finalize encryption: %w", err)
	}
	if err = armorWriter.Close(); err != nil {
		return fmt.Errorf("failed to finalize armor: %w", err)
	}

	return nil
}

// DecryptReader decrypts armored age data from r into w.
func DecryptReader(r io.Reader, w io.Writer, identity age.Identity) error {
	decryptor, err := age.Decrypt(armor.NewReader(r), identity)
	if err != nil {
		return fmt.Errorf("failed to create decryptor: %w", err)
	}

	if _, err = io.Copy(w, decryptor); err != nil {
		return fmt.Errorf("failed to decrypt: %w", err)
	}

	return nil
}

// EncryptInPlace writes path+".age" and removes the plaintext file.
func EncryptInPlace(path string, recipients ...age.Recipient) error {
	if err := transform(path, path+Ext, func(r io.Reader, w io.Writer) error {
		return EncryptReader(r, w, recipients...)
	}); err != nil {
		return err
	}

	return os.Remove(path)
}

// DecryptInPlace writes path without its .age suffix and removes the
// encrypted file.
func DecryptInPlace(path string, identity age.Identity) error {
	if !strings.HasSuffix(path, Ext) {
		return fmt.Errorf("file %s does not have %s extension", path, Ext)
	}

	if err := transform(path, strings.TrimSuffix(path, Ext), func(r io.Reader, w io.Writer) error {
		return DecryptReader(r, w, identity)
	}); err != nil {
		return err
	}

	return os.Remove(path)
}

func transform(inputPath, outputPath string, fn func(io.Reader, io.Writer) error) error {
	inputFile, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	defer func() {
		_ = inputFile.Close()
	}()

	outputFile, err := os.OpenFile(outputPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	if err := fn(inputFile, outputFile); err != nil {
		_ = outputFile.Close()
		_ = os.Remove(outputPath)
		return err
	}

	return outputFile.Close()
}
