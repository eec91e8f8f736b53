package authz

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	require.Equal(t, RoleAdmin, ParseRole("ADMIN"))
	require.Equal(t, RoleCreator, ParseRole("CREATOR"))
	require.Equal(t, RoleUser, ParseRole("USER"))
	// unknown roles degrade to USER
	require.Equal(t, RoleUser, ParseRole("root"))
	require.Equal(t, RoleUser, ParseRole(""))
}

// TestCan_DecisionTable walks every (role, ownership, visibility, operation)
// combination against the expected decision.
func TestCan_DecisionTable(t *testing.T) {
	cases := []struct {
		name   string
		role   Role
		owner  bool
		public bool
		op     Operation
		want   bool
	}{
		// admin bypasses everything
		{"admin read private foreign", RoleAdmin, false, false, OpRead, true},
		{"admin update private foreign", RoleAdmin, false, false, OpUpdate, true},
		{"admin delete private foreign", RoleAdmin, false, false, OpDelete, true},
		{"admin render private foreign", RoleAdmin, false, false, OpRender, true},
		{"admin create", RoleAdmin, false, false, OpCreate, true},

		// owners have full control regardless of visibility
		{"creator owner read", RoleCreator, true, false, OpRead, true},
		{"creator owner update", RoleCreator, true, true, OpUpdate, true},
		{"creator owner delete", RoleCreator, true, false, OpDelete, true},
		{"user owner read", RoleUser, true, false, OpRead, true},
		{"user owner update", RoleUser, true, false, OpUpdate, true},
		{"user owner delete", RoleUser, true, false, OpDelete, true},
		{"user owner render", RoleUser, true, false, OpRender, true},

		// non-owners may read public, never private
		{"creator foreign public read", RoleCreator, false, true, OpRead, true},
		{"creator foreign private read", RoleCreator, false, false, OpRead, false},
		{"user foreign public read", RoleUser, false, true, OpRead, true},
		{"user foreign private read", RoleUser, false, false, OpRead, false},
		{"creator foreign public render", RoleCreator, false, true, OpRender, true},
		{"user foreign private render", RoleUser, false, false, OpRender, false},

		// non-owners never mutate, even public templates
		{"creator foreign public update", RoleCreator, false, true, OpUpdate, false},
		{"creator foreign public delete", RoleCreator, false, true, OpDelete, false},
		{"user foreign public update", RoleUser, false, true, OpUpdate, false},
		{"user foreign public delete", RoleUser, false, true, OpDelete, false},

		// anyone may create and list
		{"user create", RoleUser, false, false, OpCreate, true},
		{"creator create", RoleCreator, false, false, OpCreate, true},
		{"user list", RoleUser, false, false, OpList, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Can(tc.role, tc.owner, tc.public, tc.op))
		})
	}
}

func TestClampVisibility(t *testing.T) {
	// USER-created templates are always private
	require.False(t, ClampVisibility(RoleUser, true))
	require.False(t, ClampVisibility(RoleUser, false))
	// CREATOR and ADMIN keep what they asked for
	require.True(t, ClampVisibility(RoleCreator, true))
	require.False(t, ClampVisibility(RoleCreator, false))
	require.True(t, ClampVisibility(RoleAdmin, true))
}

func TestListsAll(t *testing.T) {
	require.True(t, ListsAll(RoleAdmin))
	require.False(t, ListsAll(RoleCreator))
	require.False(t, ListsAll(RoleUser))
}

func TestAccessDeniedError_Message(t *testing.T) {
	err := &AccessDeniedError{Op: OpUpdate, TemplateID: "t-1"}
	require.Contains(t, err.Error(), "update")
	require.Contains(t, err.Error(), "t-1")
}
