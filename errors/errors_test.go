package errors

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAddsCallSite(t *testing.T) {
	err := New("backend %s failed", "gemini-2.5-flash")
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "[errors_test.go:"), err.Error())
	assert.Contains(t, err.Error(), "backend gemini-2.5-flash failed")
}

func TestWrapfKeepsChain(t *testing.T) {
	base := Sentinel("boom")
	wrapped := Wrapf(base, "writing %s", "a.txt")
	assert.True(t, Is(wrapped, base))
	assert.Contains(t, wrapped.Error(), "writing a.txt: boom")
	assert.Nil(t, Wrapf(nil, "ignored"))
}

func TestUserErrorHidesCause(t *testing.T) {
	cause := fmt.Errorf("exit status 128")
	err := User("This directory is not inside a Git repository.", cause)
	assert.Equal(t, "This directory is not inside a Git repository.", err.Error())
	assert.Equal(t, cause, Detail(err))
	assert.True(t, Is(err, cause))

	plain := User("no cause", nil)
	assert.Nil(t, Detail(plain))
}
