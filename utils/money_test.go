package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRound2(t *testing.T) {
	assert.Equal(t, 212.4, Round2(212.40000000000003))
	assert.Equal(t, 0.13, Round2(0.125))
	assert.Equal(t, -1.23, Round2(-1.2349))
	assert.Equal(t, 100.0, Round2(99.999))
}
