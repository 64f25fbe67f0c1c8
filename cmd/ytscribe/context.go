package main

import (
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"ytscribe/internal/config"
	"ytscribe/internal/queue"
)

type commandContext struct {
	configFlag *string
	apiFlag    *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag, apiFlag *string) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		apiFlag:    apiFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) openStore() (*queue.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return queue.Open(cfg)
}

// apiAddress resolves the daemon API address, preferring the --api flag over
// the configured bind address.
func (c *commandContext) apiAddress() string {
	if c.apiFlag != nil {
		if addr := strings.TrimSpace(*c.apiFlag); addr != "" {
			return addr
		}
	}
	cfg, err := c.ensureConfig()
	if err != nil || cfg == nil {
		return ""
	}
	return strings.TrimSpace(cfg.Paths.APIBind)
}

// daemonClient returns a client for the running daemon, or nil when the
// daemon is not reachable. Commands fall back to direct store access.
func (c *commandContext) daemonClient() *daemonClient {
	addr := c.apiAddress()
	if addr == "" {
		return nil
	}
	client := newDaemonClient(addr)
	if !client.reachable() {
		return nil
	}
	return client
}

// withQueue runs fn with a daemon client when one is reachable, otherwise
// with a direct store handle. Exactly one of the two arguments is non-nil.
func (c *commandContext) withQueue(fn func(client *daemonClient, store *queue.Store) error) error {
	if client := c.daemonClient(); client != nil {
		return fn(client, nil)
	}
	store, err := c.openStore()
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(nil, store)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
