package constants

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllowedRole(t *testing.T) {
	assert.True(t, AllowedRole(CreateInvoice, Member))
	assert.True(t, AllowedRole(CreateInvoice, Owner))
	assert.False(t, AllowedRole(CreateInvoice, Guest))
	assert.True(t, AllowedRole(ViewData, Guest))
	assert.False(t, AllowedRole(AddMember, Member))
	assert.False(t, AllowedRole("unknown", Owner))
}
