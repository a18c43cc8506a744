// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package host

import (
	"errors"
	"fmt"
	"strings"
)

// ErrAlreadyStarted is returned by [Host.Start] if the host is
// already serving connections.
var ErrAlreadyStarted = errors.New("host is already started")

// InvalidBaseError occurs when a base URI is not an absolute
// http or https URI.
type InvalidBaseError struct {
	Base  string
	Cause error
}

// Error implements the [builtin.error] interface.
func (e InvalidBaseError) Error() string {
	return fmt.Sprintf("invalid base uri %q: %s", e.Base, e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e InvalidBaseError) Unwrap() error {
	return e.Cause
}

// EngineInitError occurs when the engine provider fails to initialize.
type EngineInitError struct {
	Cause error
}

// Error implements the [builtin.error] interface.
func (e EngineInitError) Error() string {
	return fmt.Sprintf("failed to initialize engine: %s", e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e EngineInitError) Unwrap() error {
	return e.Cause
}

// ReservationRequiredError occurs when binding a prefix is denied and
// automatic namespace reservation is disabled.
type ReservationRequiredError struct {
	Prefixes []string
	User     string
}

// Error implements the [builtin.error] interface.
func (e ReservationRequiredError) Error() string {
	return fmt.Sprintf(
		"cannot create namespace reservation for prefixes [%s] as user %q",
		strings.Join(e.Prefixes, ", "),
		e.User,
	)
}

// ReservationError occurs when a namespace reservation can not be
// registered for a prefix.
type ReservationError struct {
	Prefix string
	Cause  error
}

// Error implements the [builtin.error] interface.
func (e ReservationError) Error() string {
	return fmt.Sprintf("unable to configure namespace reservation for prefix %s: %s", e.Prefix, e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e ReservationError) Unwrap() error {
	return e.Cause
}

// StartError occurs when the listener still fails to start after all
// prefixes were successfully reserved.
type StartError struct {
	Cause error
}

// Error implements the [builtin.error] interface.
func (e StartError) Error() string {
	return fmt.Sprintf("unable to start listener: %s", e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e StartError) Unwrap() error {
	return e.Cause
}

// MissingTLSConfigError occurs when a https base URI is configured
// without a TLS config.
type MissingTLSConfigError struct {
	Prefix string
}

// Error implements the [builtin.error] interface.
func (e MissingTLSConfigError) Error() string {
	return fmt.Sprintf("no tls config provided for https prefix %s", e.Prefix)
}

// NoMatchingBaseError occurs when an incoming request URL is not a
// case-insensitive extension of any configured base URI.
type NoMatchingBaseError struct {
	URL string
}

// Error implements the [builtin.error] interface.
func (e NoMatchingBaseError) Error() string {
	return fmt.Sprintf("no matching base uri for %s", e.URL)
}
