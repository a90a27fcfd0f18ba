package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClaims_CanAccessBranch(t *testing.T) {
	claims := &Claims{RoleID: 2, BranchIDs: []string{"b1", "b2"}}

	assert.True(t, claims.CanAccessBranch("b2", 1))
	assert.False(t, claims.CanAccessBranch("b3", 1))

	admin := &Claims{RoleID: 1}
	assert.True(t, admin.CanAccessBranch("b3", 1))
}
