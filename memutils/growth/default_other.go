//go:build !linux

package growth

// NewDefault creates the provider used by the process-wide heap: an arena with the default
// capacity
func NewDefault() (Provider, error) {
	return NewArena(ArenaOptions{})
}
