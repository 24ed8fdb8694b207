//go:build linux

package main

import "github.com/vkngwrapper/tmalloc/memutils/growth"

func newMappedProvider(reserve int) (growth.Provider, error) {
	return growth.NewMapped(growth.MappedOptions{Reserve: reserve})
}
