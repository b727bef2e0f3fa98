package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/furcwire-project/furcwire/internal/protocol"
)

// Environment variables that override the config file.
const (
	EnvName            = "FURC_NAME"
	EnvPassword        = "FURC_PASSWORD"
	EnvAccount         = "FURC_ACCOUNT"
	EnvAccountPassword = "FURC_ACCOUNT_PASSWORD"
	EnvAPIToken        = "FURC_API_TOKEN"
)

// LoadEnv reads KEY=value pairs from the given dotenv files into the process
// environment without overriding variables that are already set. Missing
// files are skipped.
func LoadEnv(files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return err
		}
		log.Debug().Str("file", f).Msg("environment file loaded")
	}
	return nil
}

// ApplySecrets copies credentials from the environment into the config.
// Secrets are never written back by Save.
func (c *Config) ApplySecrets() {
	c.mu.Lock()
	defer c.mu.Unlock()

	cred := &c.Connection.Credential
	if v, ok := os.LookupEnv(EnvName); ok {
		cred.Name = v
	}
	if v, ok := os.LookupEnv(EnvPassword); ok {
		cred.Password = v
	}
	if v, ok := os.LookupEnv(EnvAccount); ok {
		cred.Account = v
	}
	if v, ok := os.LookupEnv(EnvAccountPassword); ok {
		cred.AccountPassword = v
	}
	if v, ok := os.LookupEnv(EnvAPIToken); ok {
		c.ApplicationData.API.Token = v
	}
}

// Credential converts the configured login into the value the command
// encoder consumes.
func (cc CredentialConfig) Credential() protocol.Credential {
	cred := protocol.Credential{
		Kind:     protocol.CredentialPlain,
		Name:     cc.Name,
		Password: cc.Password,
	}
	if cc.Kind == CredentialLinked {
		cred.Kind = protocol.CredentialLinked
		cred.AccountName = cc.Account
		cred.AccountPassword = cc.AccountPassword
	}
	return cred
}
