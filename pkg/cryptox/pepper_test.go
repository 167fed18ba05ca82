package cryptox

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// Concurrent first callers on a fresh process must all observe the same
// pepper; two writers generating independent secrets would leave users
// hashed against different peppers.
func TestGetPepperConcurrentFirstUse(t *testing.T) {
	const callers = 32

	var wg sync.WaitGroup
	peppers := make([]string, callers)

	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			peppers[i] = GetPepper()
		}()
	}
	wg.Wait()

	require.NotEmpty(t, peppers[0])
	for _, p := range peppers[1:] {
		require.Equal(t, peppers[0], p)
	}
}
