package authz

// Role hierarchy: owner > admin > moderator > user
const (
	RoleOwner     = "owner"
	RoleAdmin     = "admin"
	RoleModerator = "moderator"
	RoleUser      = "user"
)

const (
	PermSendMessages        = "send_messages"
	PermJoinGroups          = "join_groups"
	PermUploadFiles         = "upload_files"
	PermKickUsers           = "kick_users"
	PermBanUsers            = "ban_users"
	PermManageMessages      = "manage_messages"
	PermViewLogs            = "view_logs"
	PermManageUsers         = "manage_users"
	PermManageGroups        = "manage_groups"
	PermManageAnnouncements = "manage_announcements"
	PermManageBlacklist     = "manage_blacklist"
	PermManagePermissions   = "manage_permissions"
)

// PermAll is the wildcard marker held by the owner role's default set.
const PermAll = "*"

var roleRank = map[string]int{
	RoleOwner:     4,
	RoleAdmin:     3,
	RoleModerator: 2,
	RoleUser:      1,
}

var defaultPermissions = map[string][]string{
	RoleOwner:     {PermAll},
	RoleAdmin:     {PermManageUsers, PermManageGroups, PermViewLogs, PermManageAnnouncements, PermManageBlacklist},
	RoleModerator: {PermKickUsers, PermBanUsers, PermManageMessages, PermViewLogs},
	RoleUser:      {PermSendMessages, PermJoinGroups, PermUploadFiles},
}

// RankOf resolves a role name to its rank. Unknown roles rank 0.
func RankOf(role string) int {
	return roleRank[role]
}

// HasRole reports whether role meets or exceeds the required role.
func HasRole(role, required string) bool {
	req, ok := roleRank[required]
	if !ok {
		return false
	}
	return roleRank[role] >= req
}

// HasPermission reports whether a user with the given role and explicit
// permission overrides holds the required permission. Pure over its inputs;
// safe for concurrent use.
func HasPermission(role string, overrides []string, required string) bool {
	for _, p := range overrides {
		if p == required {
			return true
		}
	}
	for _, p := range defaultPermissions[role] {
		if p == required || p == PermAll {
			return true
		}
	}
	return false
}

// Roles lists the known role names in ascending rank order.
func Roles() []string {
	return []string{RoleUser, RoleModerator, RoleAdmin, RoleOwner}
}

// Permissions lists every grantable permission.
func Permissions() []string {
	return []string{
		PermSendMessages,
		PermJoinGroups,
		PermUploadFiles,
		PermKickUsers,
		PermBanUsers,
		PermManageMessages,
		PermViewLogs,
		PermManageUsers,
		PermManageGroups,
		PermManageAnnouncements,
		PermManageBlacklist,
		PermManagePermissions,
	}
}
