package authz

import (
	"testing"

	"github.com/google/uuid"

	"github.com/fornihq/forni-backend/pkg/enums"
	pkgerrors "github.com/fornihq/forni-backend/pkg/errors"
)

type ownedResource struct {
	owner uuid.UUID
}

func (o ownedResource) ResourceOwnerID() uuid.UUID {
	return o.owner
}

func TestRequireOwnerOrAdmin(t *testing.T) {
	owner := uuid.New()
	resource := ownedResource{owner: owner}

	t.Run("owner", func(t *testing.T) {
		actor := Actor{UserID: owner, Role: enums.UserRoleBakeryOwner}
		if err := RequireOwnerOrAdmin(actor, resource); err != nil {
			t.Fatalf("expected owner to pass, got %v", err)
		}
	})

	t.Run("admin", func(t *testing.T) {
		actor := Actor{UserID: uuid.New(), Role: enums.UserRoleAdmin}
		if err := RequireOwnerOrAdmin(actor, resource); err != nil {
			t.Fatalf("expected admin to pass, got %v", err)
		}
	})

	t.Run("stranger", func(t *testing.T) {
		actor := Actor{UserID: uuid.New(), Role: enums.UserRoleBakeryOwner}
		err := RequireOwnerOrAdmin(actor, resource)
		if err == nil {
			t.Fatal("expected forbidden error")
		}
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
			t.Fatalf("expected forbidden code, got %v", err)
		}
	})

	t.Run("nilResource", func(t *testing.T) {
		actor := Actor{UserID: owner, Role: enums.UserRoleBakeryOwner}
		if err := RequireOwnerOrAdmin(actor, nil); err == nil {
			t.Fatal("expected forbidden error for nil resource")
		}
	})
}

func TestRequireSelfOrAdmin(t *testing.T) {
	self := uuid.New()

	if err := RequireSelfOrAdmin(Actor{UserID: self, Role: enums.UserRoleCustomer}, self); err != nil {
		t.Fatalf("expected self to pass, got %v", err)
	}
	if err := RequireSelfOrAdmin(Actor{UserID: uuid.New(), Role: enums.UserRoleAdmin}, self); err != nil {
		t.Fatalf("expected admin to pass, got %v", err)
	}
	if err := RequireSelfOrAdmin(Actor{UserID: uuid.New(), Role: enums.UserRoleCustomer}, self); err == nil {
		t.Fatal("expected forbidden error")
	}
}

func TestRequireRole(t *testing.T) {
	actor := Actor{UserID: uuid.New(), Role: enums.UserRoleBakeryOwner}

	if err := RequireRole(actor, enums.UserRoleBakeryOwner, enums.UserRoleAdmin); err != nil {
		t.Fatalf("expected role to pass, got %v", err)
	}
	if err := RequireRole(actor, enums.UserRoleAdmin); err == nil {
		t.Fatal("expected insufficient role error")
	}
}
