// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import "slices"

// # User Roles

// UserRole represents the authorization level granted to an account.
type UserRole string

const (
	// Unrestricted system access
	RoleAdmin UserRole = "ADMINISTRADOR"

	// School management: staff accounts, enrolment, finance
	RoleDirector UserRole = "DIRECTOR"

	// Classroom records for assigned groups
	RoleTeacher UserRole = "PROFESOR"

	// Read-only access to linked students
	RoleParent UserRole = "PADRE"

	// Read-only access to own records
	RoleStudent UserRole = "ESTUDIANTE"
)

// Roles lists every known role, most privileged first.
var Roles = []UserRole{RoleAdmin, RoleDirector, RoleTeacher, RoleParent, RoleStudent}

// Valid reports whether r is one of the known [Roles].
func (r UserRole) Valid() bool {
	return slices.Contains(Roles, r)
}

// # Permissions

// Permission names a mutating capability guarded by a role gate.
type Permission string

const (
	PermManageAllUsers               Permission = "manage_all_users"
	PermManageNonAdminUsers          Permission = "manage_non_admin_users"
	PermManageTeacherUsers           Permission = "manage_teacher_users"
	PermManageParentUsers            Permission = "manage_parent_users"
	PermManageStudentUsers           Permission = "manage_student_users"
	PermManageParentStudentRelations Permission = "manage_parent_student_relations"
	PermManageSubjects               Permission = "manage_subjects"
	PermManageGroups                 Permission = "manage_groups"
	PermManageGrades                 Permission = "manage_grades"
	PermManageAttendance             Permission = "manage_attendance"
	PermManagePayments               Permission = "manage_payments"
	PermGenerateReports              Permission = "generate_reports"
)

// AllPermissions lists every permission in a stable order.
var AllPermissions = []Permission{
	PermManageAllUsers,
	PermManageNonAdminUsers,
	PermManageTeacherUsers,
	PermManageParentUsers,
	PermManageStudentUsers,
	PermManageParentStudentRelations,
	PermManageSubjects,
	PermManageGroups,
	PermManageGrades,
	PermManageAttendance,
	PermManagePayments,
	PermGenerateReports,
}

// Permissions is the role capability table. [RoleAdmin] is not listed: it holds
// every permission. Roles absent from the table hold none.
var Permissions = map[UserRole][]Permission{
	RoleDirector: {
		PermManageNonAdminUsers,
		PermManageTeacherUsers,
		PermManageParentUsers,
		PermManageStudentUsers,
		PermManageParentStudentRelations,
		PermManageSubjects,
		PermManageGroups,
		PermManagePayments,
		PermGenerateReports,
	},
	RoleTeacher: {
		PermManageGrades,
		PermManageAttendance,
		PermGenerateReports,
	},
}

// # Role Gates

// Can reports whether the role holds the permission.
func (r UserRole) Can(permission Permission) bool {
	if r == RoleAdmin {
		return slices.Contains(AllPermissions, permission)
	}
	return slices.Contains(Permissions[r], permission)
}

// Granted returns the permissions held by the role, in [AllPermissions] order.
func (r UserRole) Granted() []Permission {
	granted := make([]Permission, 0, len(AllPermissions))
	for _, permission := range AllPermissions {
		if r.Can(permission) {
			granted = append(granted, permission)
		}
	}
	return granted
}
