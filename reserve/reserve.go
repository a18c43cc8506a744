// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package reserve provides URL namespace reservation strategies.
//
// Binding an HTTP prefix on a privileged port can require the running user
// to hold a reservation for that URL namespace. On Windows style permission
// models the reservation is registered with an external tool; elsewhere the
// concept does not exist and [Nop] should be used.
package reserve

import (
	"context"
	"fmt"
	"os/exec"
)

// Reserver represents anything which can register a URL namespace
// reservation for a prefix on behalf of a user.
type Reserver interface {
	Reserve(ctx context.Context, prefix, user string) error
}

// ReserverFunc is a functional implementation of the [Reserver] interface.
type ReserverFunc func(ctx context.Context, prefix, user string) error

// Reserve implements the [Reserver] interface.
func (f ReserverFunc) Reserve(ctx context.Context, prefix, user string) error {
	return f(ctx, prefix, user)
}

// Nop is a [Reserver] which does nothing. It is meant for platforms
// without a URL namespace reservation concept.
type Nop struct{}

// Reserve implements the [Reserver] interface.
func (Nop) Reserve(_ context.Context, _, _ string) error {
	return nil
}

// CommandError occurs when the reservation tool fails for a prefix.
type CommandError struct {
	Prefix string
	Output string
	Cause  error
}

// Error implements the [builtin.error] interface.
func (e CommandError) Error() string {
	return fmt.Sprintf("reservation tool failed for prefix %s: %s", e.Prefix, e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e CommandError) Unwrap() error {
	return e.Cause
}

// CommandOption is a functional option for configuring a [Command].
type CommandOption func(*Command)

// Tool overrides the reservation tool name and leading arguments.
//
// Default is the netsh http urlacl tool.
func Tool(name string, args ...string) CommandOption {
	return func(c *Command) {
		c.name = name
		c.args = args
	}
}

// Command is a [Reserver] which registers reservations by running an
// external command line tool, one invocation per prefix.
type Command struct {
	name string
	args []string

	run func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// NewCommand returns a [Command] configured with the given options.
func NewCommand(opts ...CommandOption) *Command {
	c := &Command{
		name: "netsh",
		args: []string{"http", "add", "urlacl"},
		run: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return exec.CommandContext(ctx, name, args...).CombinedOutput()
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Reserve implements the [Reserver] interface.
func (c *Command) Reserve(ctx context.Context, prefix, user string) error {
	args := make([]string, len(c.args), len(c.args)+2)
	copy(args, c.args)
	args = append(args, "url="+prefix, "user="+user)

	out, err := c.run(ctx, c.name, args...)
	if err != nil {
		return CommandError{
			Prefix: prefix,
			Output: string(out),
			Cause:  err,
		}
	}
	return nil
}
