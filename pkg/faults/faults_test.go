package faults

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	base := errors.New("boom")

	assert.Equal(t, KindTransport, KindOf(Transport("get", base)))
	assert.Equal(t, KindParse, KindOf(fmt.Errorf("outer: %w", Parse("decode", base))))
	assert.Equal(t, KindInternal, KindOf(base))
	assert.Equal(t, KindInternal, KindOf(nil))
}

func TestIsMatchesKindThroughWrapping(t *testing.T) {
	err := fmt.Errorf("locate: %w", Transport("package_show", errors.New("connection refused")))

	assert.True(t, Is(err, KindTransport))
	assert.False(t, Is(err, KindParse))
	assert.ErrorContains(t, err, "package_show: connection refused")
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "E_NOT_FOUND", (&Error{Kind: KindNotFound}).Error())
	assert.Equal(t, "lookup: E_NOT_FOUND", (&Error{Kind: KindNotFound, Op: "lookup"}).Error())
	assert.Equal(t, "bad", Configuration("", errors.New("bad")).Error())
}
