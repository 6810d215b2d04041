package actions

import (
	"fmt"
	"sync"
	"testing"

	"github.com/rendis/addonkit/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog_Register(t *testing.T) {
	c := NewCatalog()
	require.NoError(t, c.Register("demo", okHandler("ok")))
	assert.Equal(t, 1, c.Len())

	fn, ok := c.Lookup("demo")
	assert.True(t, ok)
	assert.NotNil(t, fn)

	_, ok = c.Lookup("missing")
	assert.False(t, ok)
}

func TestCatalog_Register_Duplicate(t *testing.T) {
	c := NewCatalog()
	require.NoError(t, c.Register("demo", okHandler("ok")))

	err := c.Register("demo", okHandler("again"))
	assert.True(t, schema.HasCode(err, schema.ErrCodeConflict))
}

func TestCatalog_Register_Invalid(t *testing.T) {
	c := NewCatalog()
	assert.True(t, schema.HasCode(c.Register("", okHandler("ok")), schema.ErrCodeValidation))
	assert.True(t, schema.HasCode(c.Register("demo", nil), schema.ErrCodeValidation))
	assert.Equal(t, 0, c.Len())
}

func TestCatalog_MustRegister_Panics(t *testing.T) {
	c := NewCatalog()
	c.MustRegister("demo", okHandler("ok"))
	assert.Panics(t, func() { c.MustRegister("demo", okHandler("ok")) })
}

func TestCatalog_ConcurrentRegister(t *testing.T) {
	c := NewCatalog()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			assert.NoError(t, c.Register(fmt.Sprintf("h%d", n), okHandler("ok")))
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 20, c.Len())
}
