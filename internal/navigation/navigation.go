// Package navigation maps a dashboard role to its menu and page title.
package navigation

import (
	"strings"

	"github.com/afiatamanna06/csedu-web-sub001/internal/domain"
)

// Link is one entry of a dashboard menu.
type Link struct {
	Label string `json:"label"`
	Path  string `json:"path"`
}

var menus = map[domain.Role][]Link{
	domain.RoleStudent: {
		{Label: "Overview", Path: "/dashboard/student"},
		{Label: "Courses", Path: "/dashboard/student/courses"},
		{Label: "Exam Schedule", Path: "/dashboard/student/exams"},
		{Label: "Results", Path: "/dashboard/student/results"},
		{Label: "Notices", Path: "/dashboard/student/notices"},
		{Label: "Profile", Path: "/dashboard/student/profile"},
	},
	domain.RoleFaculty: {
		{Label: "Overview", Path: "/dashboard/faculty"},
		{Label: "Courses", Path: "/dashboard/faculty/courses"},
		{Label: "Room Booking", Path: "/dashboard/faculty/rooms"},
		{Label: "Research", Path: "/dashboard/faculty/research"},
		{Label: "Notices", Path: "/dashboard/faculty/notices"},
		{Label: "Profile", Path: "/dashboard/faculty/profile"},
	},
	domain.RoleAdmin: {
		{Label: "Overview", Path: "/dashboard/admin"},
		{Label: "Users", Path: "/dashboard/admin/users"},
		{Label: "Events", Path: "/dashboard/admin/events"},
		{Label: "Notices", Path: "/dashboard/admin/notices"},
		{Label: "Room Bookings", Path: "/dashboard/admin/bookings"},
		{Label: "Exam Schedules", Path: "/dashboard/admin/exams"},
	},
	domain.RoleAlumni: {
		{Label: "Overview", Path: "/dashboard/alumni"},
		{Label: "Events", Path: "/dashboard/alumni/events"},
		{Label: "Directory", Path: "/dashboard/alumni/directory"},
		{Label: "Profile", Path: "/dashboard/alumni/profile"},
	},
}

var titles = map[domain.Role]string{
	domain.RoleStudent: "Student Dashboard",
	domain.RoleFaculty: "Faculty Dashboard",
	domain.RoleAdmin:   "Admin Dashboard",
	domain.RoleAlumni:  "Alumni Dashboard",
}

// ResolveRoleFromPath returns the role named by the first matching path
// segment, or domain.DefaultRole.
func ResolveRoleFromPath(path string) domain.Role {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	for _, segment := range strings.Split(path, "/") {
		if segment == "" {
			continue
		}
		if role, ok := domain.ParseRole(segment); ok {
			return role
		}
	}
	return domain.DefaultRole
}

// LinksForRole returns a copy of the role's menu. Unknown roles get the
// default role's menu.
func LinksForRole(role domain.Role) []Link {
	links, ok := menus[role]
	if !ok {
		links = menus[domain.DefaultRole]
	}
	out := make([]Link, len(links))
	copy(out, links)
	return out
}

// TitleForRole returns the dashboard heading for role.
func TitleForRole(role domain.Role) string {
	if title, ok := titles[role]; ok {
		return title
	}
	return titles[domain.DefaultRole]
}
