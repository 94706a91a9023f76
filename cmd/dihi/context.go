package main

import (
	"strings"

	"dihi/internal/api"
	"dihi/internal/config"
)

// commandContext shares lazily loaded configuration and the daemon client
// across commands.
type commandContext struct {
	addressFlag *string
	configFlag  *string

	cfg *config.Config
}

func newCommandContext(addressFlag, configFlag *string) *commandContext {
	return &commandContext{addressFlag: addressFlag, configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	path := ""
	if c.configFlag != nil {
		path = strings.TrimSpace(*c.configFlag)
	}
	cfg, _, _, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	c.cfg = cfg
	return cfg, nil
}

// client resolves the daemon address: the --address flag wins, then the
// configured bind address.
func (c *commandContext) client() *api.Client {
	address := ""
	if c.addressFlag != nil {
		address = strings.TrimSpace(*c.addressFlag)
	}
	if address == "" && c.cfg != nil {
		address = c.cfg.Paths.APIBind
	}
	return api.NewClient(address)
}
