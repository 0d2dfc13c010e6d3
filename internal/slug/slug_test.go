package slug

import (
	"regexp"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMake(t *testing.T) {
	assert.Equal(t, "friday-night-fever", Make("  Friday   Night Fever "))
	assert.Equal(t, "djs-90s-party", Make("DJ's 90s --- Party!"))
	assert.Equal(t, "", Make("!!!"))
}

func TestForEvent(t *testing.T) {
	re := regexp.MustCompile(`^friday-night-[a-z0-9]{6}$`)
	s := ForEvent("Friday Night")
	assert.Regexp(t, re, s)
	// Suffixes have to differ between calls
	assert.NotEqual(t, s, ForEvent("Friday Night"))
	// A name without any slug-safe characters still yields a usable identifier
	assert.Regexp(t, regexp.MustCompile(`^[a-z0-9]{6}$`), ForEvent("!!!"))
}

// Event creation happens from concurrent HTTP handlers, so suffix generation must not race
func TestForEventConcurrent(t *testing.T) {
	re := regexp.MustCompile(`^friday-night-[a-z0-9]{6}$`)
	out := make([]string, 16)
	var wg sync.WaitGroup
	for i := range out {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out[i] = ForEvent("Friday Night")
		}(i)
	}
	wg.Wait()
	for _, s := range out {
		assert.Regexp(t, re, s)
	}
}
