// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package makefs provides functions to format NanoFS partitions.
package makefs

import (
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Option to control makefs settings.
type Option func(*Options)

// Options for makefs.
type Options struct {
	UUID   uuid.UUID
	Logger *zap.Logger
}

// WithUUID sets the filesystem UUID, by default a random one is generated.
func WithUUID(id uuid.UUID) Option {
	return func(o *Options) {
		o.UUID = id
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// NewDefaultOptions builds options with specified setters applied.
func NewDefaultOptions(setters ...Option) Options {
	var opt Options

	for _, o := range setters {
		o(&opt)
	}

	if opt.UUID == uuid.Nil {
		opt.UUID = uuid.New()
	}

	if opt.Logger == nil {
		opt.Logger = zap.NewNop()
	}

	return opt
}
