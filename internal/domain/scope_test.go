package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScope_Validate(t *testing.T) {
	assert.NoError(t, Scope{TenantID: "t", BranchID: "b"}.Validate())
	assert.ErrorIs(t, Scope{TenantID: "t"}.Validate(), ErrScopeRequired)
	assert.ErrorIs(t, Scope{BranchID: " "}.Validate(), ErrScopeRequired)
	assert.Equal(t, "t:b", Scope{TenantID: "t", BranchID: "b"}.Key())
}
