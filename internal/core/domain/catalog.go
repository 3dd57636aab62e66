package domain

// Permission codes checked by the HTTP surface and granted by the default seed.
const (
	PermUsersCreate         = "users:create"
	PermUsersRead           = "users:read"
	PermUsersUpdate         = "users:update"
	PermUsersDelete         = "users:delete"
	PermRolesManage         = "roles:manage"
	PermRolesRead           = "roles:read"
	PermPermissionsRead     = "permissions:read"
	PermJobsCreate          = "jobs:create"
	PermJobsRead            = "jobs:read"
	PermJobsUpdate          = "jobs:update"
	PermJobsDelete          = "jobs:delete"
	PermApplicationsCreate  = "applications:create"
	PermApplicationsRead    = "applications:read"
	PermApplicationsProcess = "applications:process"
	PermContentModerate     = "content:moderate"
	PermEmployersCreate     = "employers:create"
	PermEmployersRead       = "employers:read"
)

// DefaultPermissions is the permission catalogue installed by the seed command.
func DefaultPermissions() []Permission {
	return []Permission{
		{Name: "Create Users", Code: PermUsersCreate, Description: "Ability to create new users"},
		{Name: "Read Users", Code: PermUsersRead, Description: "Ability to view user profiles"},
		{Name: "Update Users", Code: PermUsersUpdate, Description: "Ability to update user details"},
		{Name: "Delete Users", Code: PermUsersDelete, Description: "Ability to remove users"},
		{Name: "Manage Roles", Code: PermRolesManage, Description: "Ability to assign and revoke roles"},
		{Name: "Read Roles", Code: PermRolesRead, Description: "Ability to list roles and their permissions"},
		{Name: "Read Permissions", Code: PermPermissionsRead, Description: "Ability to list permissions"},
		{Name: "Create Jobs", Code: PermJobsCreate, Description: "Ability to post new job listings"},
		{Name: "Read Jobs", Code: PermJobsRead, Description: "Ability to view job listings"},
		{Name: "Update Jobs", Code: PermJobsUpdate, Description: "Ability to modify job listings"},
		{Name: "Delete Jobs", Code: PermJobsDelete, Description: "Ability to remove job listings"},
		{Name: "Apply for Jobs", Code: PermApplicationsCreate, Description: "Ability to apply for jobs"},
		{Name: "View Applications", Code: PermApplicationsRead, Description: "Ability to view job applications"},
		{Name: "Process Applications", Code: PermApplicationsProcess, Description: "Ability to accept or reject applications"},
		{Name: "Moderate Content", Code: PermContentModerate, Description: "Ability to review and moderate user-generated content"},
		{Name: "Create Employers", Code: PermEmployersCreate, Description: "Ability to create employer profiles"},
		{Name: "Read Employers", Code: PermEmployersRead, Description: "Ability to view employer profiles"},
	}
}

// DefaultRolePermissions maps each non-admin role to the codes it is granted
// by the seed. ADMIN receives every code.
func DefaultRolePermissions() map[RoleName][]string {
	return map[RoleName][]string{
		RoleEmployer: {
			PermJobsCreate, PermJobsRead, PermJobsUpdate, PermJobsDelete,
			PermApplicationsRead, PermApplicationsProcess, PermEmployersRead,
		},
		RoleCandidate: {PermJobsRead, PermApplicationsCreate, PermEmployersCreate},
		RoleModerator: {PermUsersRead, PermJobsRead, PermApplicationsRead, PermContentModerate},
		RoleVisitor:   {PermJobsRead},
	}
}
