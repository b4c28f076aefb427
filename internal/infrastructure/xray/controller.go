package xray

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sunstrike-inc/sunstrike/internal/domain/proxy"
	"github.com/sunstrike-inc/sunstrike/internal/shared/config"
	"github.com/sunstrike-inc/sunstrike/internal/shared/logger"
)

const healthPollInterval = 500 * time.Millisecond

// Controller implements proxy.Controller against a local xray-core service
// managed by systemd. Config edits are written atomically: the new content is
// validated by `xray -test` against a temp file before it replaces the live
// config, so a rejected change never reaches the running process.
type Controller struct {
	cfg    config.ProxyConfig
	runner CommandRunner
	logger logger.Interface

	mu sync.Mutex
}

func NewController(cfg config.ProxyConfig, runner CommandRunner, log logger.Interface) *Controller {
	return &Controller{
		cfg:    cfg,
		runner: runner,
		logger: log.Named("xray"),
	}
}

func (c *Controller) Apply(ctx context.Context, directive proxy.ProfileDirective) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	doc, original, err := c.loadDocument()
	if err != nil {
		return err
	}

	if err := doc.UpsertClient(Client{
		ID:    directive.UUID,
		Email: directive.Email,
		Flow:  directive.Flow,
	}); err != nil {
		return fmt.Errorf("%w: %v", proxy.ErrConfigRejected, err)
	}

	updated, err := doc.Encode()
	if err != nil {
		return fmt.Errorf("%w: %v", proxy.ErrConfigRejected, err)
	}

	if bytes.Equal(original, updated) {
		// profile already applied, just make sure the process serves it
		return c.ensureHealthyLocked(ctx)
	}

	if err := c.commit(ctx, updated); err != nil {
		return err
	}

	c.logger.Infow("profile applied", "uuid", directive.UUID, "email", directive.Email)
	return nil
}

func (c *Controller) Remove(ctx context.Context, profileUUID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	doc, original, err := c.loadDocument()
	if err != nil {
		return err
	}

	if err := doc.RemoveClient(profileUUID); err != nil {
		return fmt.Errorf("%w: %v", proxy.ErrConfigRejected, err)
	}

	updated, err := doc.Encode()
	if err != nil {
		return fmt.Errorf("%w: %v", proxy.ErrConfigRejected, err)
	}

	if bytes.Equal(original, updated) {
		return nil
	}

	if err := c.commit(ctx, updated); err != nil {
		return err
	}

	c.logger.Infow("profile removed", "uuid", profileUUID)
	return nil
}

func (c *Controller) Contains(ctx context.Context, profileUUID string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	doc, _, err := c.loadDocument()
	if err != nil {
		return false, err
	}
	has, err := doc.HasClient(profileUUID)
	if err != nil {
		return false, fmt.Errorf("%w: %v", proxy.ErrConfigRejected, err)
	}
	return has, nil
}

func (c *Controller) EnsureHealthy(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ensureHealthyLocked(ctx)
}

// Dedupe removes duplicate client entries from the live config, reloading the
// service only when something was actually dropped.
func (c *Controller) Dedupe(ctx context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	doc, _, err := c.loadDocument()
	if err != nil {
		return 0, err
	}

	dropped, err := doc.DedupeClients()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", proxy.ErrConfigRejected, err)
	}
	if dropped == 0 {
		return 0, nil
	}

	updated, err := doc.Encode()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", proxy.ErrConfigRejected, err)
	}
	if err := c.commit(ctx, updated); err != nil {
		return 0, err
	}

	c.logger.Warnw("duplicate profiles removed from xray config", "count", dropped)
	return dropped, nil
}

func (c *Controller) loadDocument() (*Document, []byte, error) {
	data, err := os.ReadFile(c.cfg.ConfigPath)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: reading config: %v", proxy.ErrUnreachable, err)
	}

	doc, err := ParseDocument(data)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", proxy.ErrConfigRejected, err)
	}

	// re-encode so change detection compares canonical forms
	canonical, err := doc.Encode()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", proxy.ErrConfigRejected, err)
	}

	return doc, canonical, nil
}

// commit validates the candidate config against the xray binary, swaps it in
// atomically and restarts the service.
func (c *Controller) commit(ctx context.Context, content []byte) error {
	dir := filepath.Dir(c.cfg.ConfigPath)
	tmp, err := os.CreateTemp(dir, ".config-*.json")
	if err != nil {
		return fmt.Errorf("%w: creating temp config: %v", proxy.ErrUnreachable, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: writing temp config: %v", proxy.ErrUnreachable, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: closing temp config: %v", proxy.ErrUnreachable, err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return fmt.Errorf("%w: chmod temp config: %v", proxy.ErrUnreachable, err)
	}

	if out, err := c.runner.Run(ctx, c.cfg.BinaryPath, "-test", "-config", tmpPath); err != nil {
		c.logger.Errorw("xray rejected candidate config", "output", out, "error", err)
		return fmt.Errorf("%w: %s", proxy.ErrConfigRejected, out)
	}

	if err := os.Rename(tmpPath, c.cfg.ConfigPath); err != nil {
		return fmt.Errorf("%w: replacing config: %v", proxy.ErrUnreachable, err)
	}

	return c.restart(ctx)
}

func (c *Controller) restart(ctx context.Context) error {
	if out, err := c.runner.Run(ctx, "systemctl", "restart", c.cfg.ServiceName); err != nil {
		c.logger.Errorw("failed to restart xray service", "output", out, "error", err)
		return fmt.Errorf("%w: systemctl restart failed: %s", proxy.ErrUnreachable, out)
	}

	return c.awaitActive(ctx)
}

func (c *Controller) awaitActive(ctx context.Context) error {
	deadline := time.Now().Add(c.cfg.ReloadTimeout())
	for {
		out, err := c.runner.Run(ctx, "systemctl", "is-active", c.cfg.ServiceName)
		if err == nil && out == "active" {
			return nil
		}
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %v", proxy.ErrReloadTimeout, ctx.Err())
		}
		if time.Now().After(deadline) {
			c.logger.Errorw("xray did not come back after reload", "status", out)
			return fmt.Errorf("%w: last status %q", proxy.ErrReloadTimeout, out)
		}
		time.Sleep(healthPollInterval)
	}
}

func (c *Controller) ensureHealthyLocked(ctx context.Context) error {
	out, err := c.runner.Run(ctx, "systemctl", "is-active", c.cfg.ServiceName)
	if err == nil && out == "active" {
		return nil
	}

	c.logger.Warnw("xray service not active, restarting", "status", out)
	if err := c.restart(ctx); err != nil {
		return err
	}

	if settle := c.cfg.RestartSettle(); settle > 0 {
		time.Sleep(settle)
	}
	return nil
}
