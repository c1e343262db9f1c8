//go:build linux || darwin

package priority

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNiceRoundTrip(t *testing.T) {
	for _, c := range []Class{ClassIdle, ClassBelowNormal, ClassNormal, ClassAboveNormal, ClassHigh} {
		nice, ok := classToNice[c]
		require.True(t, ok, c.String())
		assert.Equal(t, c, niceToClass(nice), c.String())
	}
	_, ok := classToNice[ClassRealtime]
	assert.False(t, ok)
}

func TestNiceToClass(t *testing.T) {
	tests := []struct {
		nice int
		want Class
	}{
		{-20, ClassHigh},
		{-10, ClassHigh},
		{-9, ClassAboveNormal},
		{-5, ClassAboveNormal},
		{-1, ClassAboveNormal},
		{0, ClassNormal},
		{1, ClassBelowNormal},
		{5, ClassBelowNormal},
		{18, ClassBelowNormal},
		{19, ClassIdle},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, niceToClass(tc.nice), "nice %d", tc.nice)
	}
}

func TestGetNiceOwnProcess(t *testing.T) {
	nice, err := getNice(os.Getpid())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, nice, -20)
	assert.LessOrEqual(t, nice, 19)
}

func TestSystemReadsOwnProcess(t *testing.T) {
	api := System()
	h, err := api.Open(int32(os.Getpid()), QueryAccess)
	require.NoError(t, err)
	defer h.Close()
	class, err := api.Class(h)
	require.NoError(t, err)
	assert.NotEqual(t, ClassUnknown, class)
}
