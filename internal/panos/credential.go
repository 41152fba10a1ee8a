package panos

import (
	"context"
	"fmt"

	"github.com/pastats/pastats/internal/config"
	"github.com/pastats/pastats/internal/errors"
)

// Credential is the API key for one firewall. The secret must never be
// logged or echoed; it only travels inside request parameters.
type Credential struct {
	Firewall string
	Secret   string
}

// CredentialStore holds one credential per firewall profile.
type CredentialStore struct {
	secrets map[string]string
}

// NewCredentialStore builds the store from loaded config. Enabled
// profiles without a key are a configuration error surfaced up front,
// not at dispatch time.
func NewCredentialStore(cfg *config.Config) (*CredentialStore, error) {
	secrets := make(map[string]string, len(cfg.Firewalls))
	for name, fw := range cfg.Firewalls {
		if fw.APIKey == "" {
			if fw.IsEnabled() {
				return nil, errors.New(errors.ErrConfig,
					fmt.Sprintf("Firewall %q has no api_key", name),
					"Set api_key in "+config.ConfigFileName+" or export PA_API_KEY.")
			}
			continue
		}
		secrets[name] = fw.APIKey
	}
	return &CredentialStore{secrets: secrets}, nil
}

// Get returns the credential for a firewall.
func (s *CredentialStore) Get(firewall string) (Credential, error) {
	secret, ok := s.secrets[firewall]
	if !ok {
		return Credential{}, errors.New(errors.ErrConfig,
			fmt.Sprintf("No credential stored for firewall %q", firewall), "")
	}
	return Credential{Firewall: firewall, Secret: secret}, nil
}

// authProbeCommand is the cheapest read-only command the API accepts,
// used purely to prove a key works.
const authProbeCommand = "<show><system><info></info></system></show>"

// Verify issues a single authentication probe against one firewall.
// The response data is discarded; only the auth result matters.
func (s *CredentialStore) Verify(ctx context.Context, t Transport, fw config.Firewall, firewall string) error {
	cred, err := s.Get(firewall)
	if err != nil {
		return err
	}
	_, err = t.Execute(ctx, fw, cred, OpRequest{Command: authProbeCommand})
	return err
}
