package tenant

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zerobertocosta/Karibu/pkg/errorbank"
)

func TestAuthorize_DecisionTable(t *testing.T) {
	cases := []struct {
		name    string
		role    Role
		actor   int64
		target  int64
		allowed bool
	}{
		{"staff same establishment", RoleStaff, 1, 1, true},
		{"staff other establishment", RoleStaff, 1, 2, false},
		{"manager same establishment", RoleManager, 3, 3, true},
		{"manager other establishment", RoleManager, 3, 4, false},
		{"superuser same establishment", RoleSuperuser, 5, 5, true},
		{"superuser other establishment", RoleSuperuser, 5, 6, false},
		{"unknown role", Role("intern"), 1, 1, false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := Authorize(Context{EstablishmentID: c.actor, Role: c.role}, c.target)
			if c.allowed {
				assert.NoError(t, err)
				return
			}
			assert.Error(t, err)

			// Cross-tenant denial must read as absence, not as forbidden.
			var appErr *errorbank.AppError
			assert.True(t, errors.As(err, &appErr))
			assert.Equal(t, errorbank.KindNotFound, appErr.Kind())
		})
	}
}

func TestContextRoundTrip(t *testing.T) {
	tc := Context{EstablishmentID: 42, Role: RoleManager}
	ctx := NewContext(context.Background(), tc)

	got, ok := FromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, tc, got)

	_, ok = FromContext(context.Background())
	assert.False(t, ok)
}
