//go:build linux

package growth

// NewDefault creates the provider used by the process-wide heap: an anonymous mapping with the
// default reservation
func NewDefault() (Provider, error) {
	return NewMapped(MappedOptions{})
}
