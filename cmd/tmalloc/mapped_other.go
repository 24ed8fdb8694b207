//go:build !linux

package main

import (
	"github.com/pkg/errors"
	"github.com/vkngwrapper/tmalloc/memutils"
	"github.com/vkngwrapper/tmalloc/memutils/growth"
)

func newMappedProvider(reserve int) (growth.Provider, error) {
	return nil, errors.Wrap(memutils.ErrInvalidArgument, "the mapped provider is only available on linux")
}
