// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

// Package checker runs preflight checks before a chore changes anything.
package checker

import (
	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
)

// Validator is a struct that holds a list of checks to be performed.
type Validator struct {
	checks []ValidatorCheck
	logger zerolog.Logger
}

// ValidatorCheck is a struct that holds the name and function of a check to be performed.
// The function should return an error if the check fails.
// Use closures to capture the context of the check, such as the subscription or other parameters.
type ValidatorCheck struct {
	name string
	f    ValidateFunc
}

// NewValidatorCheck creates a new ValidatorCheck with the given name and function.
func NewValidatorCheck(name string, f ValidateFunc) ValidatorCheck {
	return ValidatorCheck{
		name: name,
		f:    f,
	}
}

// ValidateFunc is a function type that returns an error if the validation fails.
type ValidateFunc func() error

// NewValidator creates a new Validator with the given checks.
// Check start and finish messages are logged at debug level.
func NewValidator(logger zerolog.Logger, c ...ValidatorCheck) Validator {
	return Validator{
		checks: c,
		logger: logger,
	}
}

// AddChecks adds additional checks to the Validator.
func (v Validator) AddChecks(c ...ValidatorCheck) Validator {
	v.checks = append(v.checks, c...)
	return v
}

// Validate runs all the checks in order and returns every failure.
// Checks run in order, so a check may depend on values captured by an earlier one.
func (v Validator) Validate() error {
	var errs error

	for _, c := range v.checks {
		v.logger.Debug().Str("check", c.name).Msg("starting check")

		if err := c.f(); err != nil {
			v.logger.Error().Str("check", c.name).Err(err).Msg("check failed")
			errs = multierror.Append(errs, err)

			continue
		}

		v.logger.Debug().Str("check", c.name).Msg("finished check")
	}

	return errs
}
