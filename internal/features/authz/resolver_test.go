package authz

import "testing"

func TestHasRole(t *testing.T) {
	tests := []struct {
		name     string
		role     string
		required string
		want     bool
	}{
		{"Owner meets owner", RoleOwner, RoleOwner, true},
		{"Owner meets user", RoleOwner, RoleUser, true},
		{"Admin meets moderator", RoleAdmin, RoleModerator, true},
		{"Moderator below admin", RoleModerator, RoleAdmin, false},
		{"User below moderator", RoleUser, RoleModerator, false},
		{"User meets user", RoleUser, RoleUser, true},
		{"Unknown role denied", "ghost", RoleUser, false},
		{"Unknown requirement denied", RoleOwner, "ghost", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasRole(tt.role, tt.required); got != tt.want {
				t.Errorf("HasRole(%q, %q) = %v, want %v", tt.role, tt.required, got, tt.want)
			}
		})
	}
}

func TestHasPermission(t *testing.T) {
	tests := []struct {
		name      string
		role      string
		overrides []string
		required  string
		want      bool
	}{
		{"Owner wildcard", RoleOwner, nil, PermManagePermissions, true},
		{"Admin default", RoleAdmin, nil, PermManageGroups, true},
		{"Admin lacks kick by default", RoleAdmin, nil, PermKickUsers, false},
		{"Moderator kick", RoleModerator, nil, PermKickUsers, true},
		{"User send", RoleUser, nil, PermSendMessages, true},
		{"User denied ban", RoleUser, nil, PermBanUsers, false},
		{"Explicit override wins", RoleUser, []string{PermBanUsers}, PermBanUsers, true},
		{"Override does not leak", RoleUser, []string{PermBanUsers}, PermViewLogs, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasPermission(tt.role, tt.overrides, tt.required); got != tt.want {
				t.Errorf("HasPermission(%q, %v, %q) = %v, want %v", tt.role, tt.overrides, tt.required, got, tt.want)
			}
		})
	}
}

func TestRankOrdering(t *testing.T) {
	order := Roles()
	for i := 1; i < len(order); i++ {
		if RankOf(order[i-1]) >= RankOf(order[i]) {
			t.Errorf("expected %s to rank below %s", order[i-1], order[i])
		}
	}
}
