package gitnative

import (
	"github.com/input-output-hk/catalyst-forge-libs/gitnative/native"
)

// Config is the repository's configuration, addressed with git's dotted
// names: "user.name", "branch.main.remote".
type Config struct {
	repo *Repository
	h    *handle
}

// Config opens the repository configuration. The handle borrows the
// repository and is released by either its own Close or the repository's.
func (r *Repository) Config() (*Config, error) {
	if err := r.h.use(); err != nil {
		return nil, err
	}
	raw, st := r.eng.ConfigOpen(r.h.mustRaw())
	if st != native.OK {
		return nil, translate(r.eng, st)
	}
	return &Config{
		repo: r,
		h:    newHandle(r.eng, raw, "config", r.eng.ConfigFree, r.h),
	}, nil
}

// Close releases the config handle. Idempotent.
func (c *Config) Close() error { return c.h.close() }

// Get returns the value for name, CodeNotFound when unset.
func (c *Config) Get(name string) (string, error) {
	if err := c.h.use(); err != nil {
		return "", err
	}
	value, st := c.repo.eng.ConfigGet(c.h.mustRaw(), name)
	if st != native.OK {
		return "", WrapErrorf(translate(c.repo.eng, st), "config get %q", name)
	}
	return value, nil
}

// Set writes the value for name, creating or replacing it.
func (c *Config) Set(name, value string) error {
	if err := c.h.use(); err != nil {
		return err
	}
	st := c.repo.eng.ConfigSet(c.h.mustRaw(), name, value)
	if st != native.OK {
		return WrapErrorf(translate(c.repo.eng, st), "config set %q", name)
	}
	return nil
}

// Delete removes the value for name. Deleting an unset name is a no-op.
func (c *Config) Delete(name string) error {
	if err := c.h.use(); err != nil {
		return err
	}
	st := c.repo.eng.ConfigDelete(c.h.mustRaw(), name)
	if st != native.OK {
		return WrapErrorf(translate(c.repo.eng, st), "config delete %q", name)
	}
	return nil
}
