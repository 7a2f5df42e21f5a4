package git

import "context"

// Init creates an empty repository in the working directory.
// Running it on an existing repository is harmless (git reinitializes).
func (g *Git) Init(ctx context.Context) error {
	_, err := g.Exec(ctx, "init")
	return err
}

// SetIdentity configures the commit author. Setting the same value twice is
// a no-op, and empty values are skipped.
//
// The identity is written to the global git configuration, matching how
// nbake has always configured it.
func (g *Git) SetIdentity(ctx context.Context, name, email string) error {
	if name != "" {
		if _, err := g.Exec(ctx, "config", "--global", "user.name", name); err != nil {
			return err
		}
	}
	if email != "" {
		if _, err := g.Exec(ctx, "config", "--global", "user.email", email); err != nil {
			return err
		}
	}
	return nil
}
