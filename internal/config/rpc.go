package config

import (
	"errors"
	"os"
)

type RPCConfig struct {
	RPCUrl string
	WSUrl  string

	// AuthorityKey is the base58-encoded private key of the router
	// authority. It must match the authority stored in the router record.
	AuthorityKey string
}

func (r *RPCConfig) Key() string {
	return RPC_CONFIG_KEY
}

func (r *RPCConfig) Load() error {
	r.RPCUrl = os.Getenv("RPC_URL")
	r.WSUrl = os.Getenv("WS_URL")
	r.AuthorityKey = os.Getenv("ROUTER_AUTHORITY_KEY")
	return nil
}

func (r *RPCConfig) Validate() error {
	if r.RPCUrl == "" {
		return errors.New("invalid rpc config")
	}
	if r.AuthorityKey == "" {
		return errors.New("missing router authority key")
	}
	return nil
}
