package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/hay-kot/vmboot/internal/core"
	"github.com/hay-kot/vmboot/pkgs/fcrypt"
)

type EncryptCmd struct {
	coreFlags *core.Flags
}

func NewEncryptCmd(coreFlags *core.Flags) *EncryptCmd {
	return &EncryptCmd{coreFlags: coreFlags}
}

func (ec *EncryptCmd) Register(app *cli.Command) *cli.Command {
	cmds := []*cli.Command{
		{
			Name:  "encrypt",
			Usage: "encrypt vault var files in-place",
			Description: `Encrypts every var file marked 'vault: true' in vmboot.yml with the
 configured age recipients. The plaintext file is replaced by a .age file.
 Files that are missing or already encrypted are skipped.`,
			Action: ec.encrypt,
		},
		{
			Name:  "decrypt",
			Usage: "decrypt vault var files in-place",
			Description: `Decrypts every vault var file with the configured age identity so it
 can be edited. The .age file is removed once the plaintext is written.`,
			Action: ec.decrypt,
		},
	}

	app.Commands = append(app.Commands, cmds...)
	return app
}

// vaultPaths returns the plaintext and encrypted path for a vault file.
func vaultPaths(file string) (plain, encrypted string) {
	plain = strings.TrimSuffix(file, fcrypt.Ext)
	return plain, plain + fcrypt.Ext
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, os.ErrNotExist)
}

func (ec *EncryptCmd) encrypt(ctx context.Context, cmd *cli.Command) error {
	cfg, err := setupEnv(ec.coreFlags)
	if err != nil {
		return err
	}

	if len(cfg.Age.Recipients) == 0 {
		return errors.New("no age recipients configured")
	}

	recipients, err := fcrypt.LoadPublicKeys(cfg.Age.Recipients)
	if err != nil {
		return err
	}

	files, err := cfg.EncryptedFiles()
	if err != nil {
		return err
	}

	if len(files) == 0 {
		log.Info().Msg("no vault files configured")
		return nil
	}

	count := 0
	for _, file := range files {
		plain, encrypted := vaultPaths(file)

		if !exists(plain) {
			log.Debug().Str("file", plain).Msg("plaintext file does not exist, skipping")
			continue
		}

		if exists(encrypted) {
			log.Warn().Str("file", encrypted).Msg("encrypted file already exists, skipping")
			continue
		}

		if err := fcrypt.EncryptInPlace(plain, recipients...); err != nil {
			return fmt.Errorf("failed to encrypt %s: %w", plain, err)
		}

		count++
		log.Info().Str("file", encrypted).Msg("encrypted")
	}

	log.Info().Int("count", count).Msg("encryption complete")
	return nil
}

func (ec *EncryptCmd) decrypt(ctx context.Context, cmd *cli.Command) error {
	cfg, err := setupEnv(ec.coreFlags)
	if err != nil {
		return err
	}

	if cfg.Age.IdentityFile == "" {
		return errors.New("no age identity_file configured")
	}

	identity, err := cfg.ReadIdentity()
	if err != nil {
		return err
	}

	files, err := cfg.EncryptedFiles()
	if err != nil {
		return err
	}

	if len(files) == 0 {
		log.Info().Msg("no vault files configured")
		return nil
	}

	count := 0
	for _, file := range files {
		plain, encrypted := vaultPaths(file)

		if !exists(encrypted) {
			log.Debug().Str("file", encrypted).Msg("encrypted file does not exist, skipping")
			continue
		}

		if exists(plain) {
			log.Warn().Str("file", plain).Msg("plaintext file already exists, skipping")
			continue
		}

		if err := fcrypt.DecryptInPlace(encrypted, identity); err != nil {
			return fmt.Errorf("failed to decrypt %s: %w", encrypted, err)
		}

		count++
		log.Info().Str("file", plain).Msg("decrypted")
	}

	log.Info().Int("count", count).Msg("decryption complete")
	return nil
}
