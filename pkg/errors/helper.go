// Copyright 2026 PingCAP, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// See the License for the specific language governing permissions and
// limitations under the License.

package errors

import (
	stderrors "errors"

	"github.com/pingcap/errors"
)

var (
	Trace     = errors.Trace
	Cause     = errors.Cause
	As        = stderrors.As
	Is        = stderrors.Is
	New       = errors.New
	Errorf    = errors.Errorf
	Annotate  = errors.Annotate
	Annotatef = errors.Annotatef
)

// WrapError generates a new error based on given `*errors.Error`, wraps the err
// as cause error.
// If given `err` is nil, returns a nil error, which a the different behavior
// against `Wrap` function in pingcap/errors.
func WrapError(rfcError *errors.Error, err error, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return rfcError.Wrap(err).GenWithStackByArgs(args...)
}

// RFCCode returns the RFC code of the outermost normalized error in err's chain.
func RFCCode(err error) (errors.RFCErrorCode, bool) {
	for err != nil {
		if terr, ok := err.(*errors.Error); ok { // nolint:errorlint
			return terr.RFCCode(), true
		}
		err = next(err)
	}
	return "", false
}

// HasCode reports whether any normalized error in err's chain has the same
// RFC code as rfcError.
func HasCode(err error, rfcError *errors.Error) bool {
	for err != nil {
		if terr, ok := err.(*errors.Error); ok && terr.RFCCode() == rfcError.RFCCode() { // nolint:errorlint
			return true
		}
		err = next(err)
	}
	return false
}

func next(err error) error {
	switch e := err.(type) { // nolint:errorlint
	case interface{ Unwrap() error }:
		return e.Unwrap()
	case interface{ Cause() error }:
		return e.Cause()
	default:
		return nil
	}
}

func hasAnyCode(err error, rfcErrors ...*errors.Error) bool {
	for _, e := range rfcErrors {
		if HasCode(err, e) {
			return true
		}
	}
	return false
}

// IsConfigError reports whether err was caused by missing, malformed or
// out-of-range configuration.
func IsConfigError(err error) bool {
	return hasAnyCode(err,
		ErrConfigInvalid,
		ErrConfigKeyMissing,
		ErrInvalidTestSize,
		ErrUnknownSolver,
		ErrInvalidPublishConfig,
	)
}

// IsIOError reports whether err was caused by reading or writing the local
// model artifact.
func IsIOError(err error) bool {
	return hasAnyCode(err, ErrArtifactWriteFailed, ErrArtifactDecodeFailed)
}

// IsRemoteStorageError reports whether err was returned by the object store.
func IsRemoteStorageError(err error) bool {
	return hasAnyCode(err, ErrRemoteStorageAPI, ErrStorageURIInvalid)
}

// IsRegistryError reports whether err was returned by the model registry.
func IsRegistryError(err error) bool {
	return HasCode(err, ErrRegistryAPI)
}
