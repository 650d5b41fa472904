package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		in   string
		want Role
		ok   bool
	}{
		{"reader", RoleReader, true},
		{" Admin ", RoleAdmin, true},
		{"COLLABORATOR", RoleCollaborator, true},
		{"editor", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseRole(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAuthorize(t *testing.T) {
	reader := &Principal{UserID: 1, Role: RoleReader}
	collab := &Principal{UserID: 2, Role: RoleCollaborator}
	admin := &Principal{UserID: 3, Role: RoleAdmin}

	assert.Equal(t, Unauthenticated, Authorize(nil))
	assert.Equal(t, Unauthenticated, Authorize(nil, RoleAdmin))
	assert.Equal(t, Allowed, Authorize(reader))
	assert.Equal(t, Forbidden, Authorize(reader, RoleCollaborator, RoleAdmin))
	assert.Equal(t, Allowed, Authorize(collab, RoleCollaborator, RoleAdmin))
	assert.Equal(t, Forbidden, Authorize(collab, RoleAdmin))
	assert.Equal(t, Allowed, Authorize(admin, RoleAdmin))
}

func TestAuthorizePermission(t *testing.T) {
	collab := &Principal{UserID: 2, Role: RoleCollaborator}

	assert.Equal(t, Unauthenticated, AuthorizePermission(nil, PermissionWriteArticles))
	assert.Equal(t, Allowed, AuthorizePermission(collab, PermissionWriteArticles))
	assert.Equal(t, Forbidden, AuthorizePermission(collab, PermissionModerateComments))
	assert.Equal(t, Forbidden, AuthorizePermission(&Principal{Role: RoleReader}, PermissionUploadImages))
}

func TestOwnsOrAdmin(t *testing.T) {
	owner := &Principal{UserID: 7, Role: RoleCollaborator}
	other := &Principal{UserID: 8, Role: RoleCollaborator}
	admin := &Principal{UserID: 1, Role: RoleAdmin}

	assert.True(t, owner.OwnsOrAdmin(7))
	assert.False(t, other.OwnsOrAdmin(7))
	assert.True(t, admin.OwnsOrAdmin(7))

	var anon *Principal
	assert.False(t, anon.OwnsOrAdmin(7))
	assert.False(t, anon.IsAdmin())
}

func TestPrincipalContext(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, FromContext(ctx))

	p := &Principal{UserID: 42, Username: "ana", Role: RoleReader}
	ctx = WithPrincipal(ctx, p)
	assert.Same(t, p, FromContext(ctx))
}
