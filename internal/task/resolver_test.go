package task

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolver_RegisterAndResolve(t *testing.T) {
	r := NewResolver()
	called := false

	r.Register("tests.tasks.index_incrementer", func(args []interface{}, kwargs map[string]interface{}) error {
		called = true
		return nil
	})

	fn, err := r.Resolve("tests.tasks.index_incrementer")
	require.NoError(t, err)
	require.NotNil(t, fn)

	require.NoError(t, fn(nil, nil))
	assert.True(t, called)
}

func TestResolver_Unregistered(t *testing.T) {
	r := NewResolver()

	fn, err := r.Resolve("tests.tasks.missing")
	assert.Nil(t, fn)

	var resErr *ResolutionError
	require.True(t, errors.As(err, &resErr))
	assert.Equal(t, "tests.tasks.missing", resErr.Task)
	assert.Contains(t, err.Error(), "not registered")
}

func TestResolver_Names(t *testing.T) {
	r := NewResolver()
	r.Register("a", func(args []interface{}, kwargs map[string]interface{}) error { return nil })
	r.Register("b", func(args []interface{}, kwargs map[string]interface{}) error { return nil })

	names := r.Names()
	assert.ElementsMatch(t, []string{"a", "b"}, names)
}

func TestResolver_Overwrite(t *testing.T) {
	r := NewResolver()
	r.Register("a", func(args []interface{}, kwargs map[string]interface{}) error {
		return errors.New("first")
	})
	r.Register("a", func(args []interface{}, kwargs map[string]interface{}) error {
		return errors.New("second")
	})

	fn, err := r.Resolve("a")
	require.NoError(t, err)
	assert.EqualError(t, fn(nil, nil), "second")
}
