// Package navigation builds the sidebar menu and breadcrumbs of the admin pages.
package navigation

// Sections of the admin sidebar.
const (
	SectionSettings = "settings"
	SectionTools    = "tools"
)

// MenuItem is one sidebar link.
type MenuItem struct {
	Title   string
	URL     string
	Section string
	Page    string
}

// BreadcrumbItem represents a single breadcrumb link.
type BreadcrumbItem struct {
	Title  string
	URL    string
	Active bool
}

// Context represents the navigation context for a page.
type Context struct {
	ActiveSection string
	ActivePage    string
	Breadcrumbs   []BreadcrumbItem
	PageTitle     string
	Menu          []MenuItem
}

// NewContext creates a new navigation context carrying a copy of menu.
func NewContext(pageTitle, activeSection, activePage string, menu ...MenuItem) *Context {
	return &Context{
		PageTitle:     pageTitle,
		ActiveSection: activeSection,
		ActivePage:    activePage,
		Breadcrumbs:   make([]BreadcrumbItem, 0),
		Menu:          append([]MenuItem(nil), menu...),
	}
}

// AddBreadcrumb adds a breadcrumb item to the context.
func (c *Context) AddBreadcrumb(title, url string, active bool) *Context {
	c.Breadcrumbs = append(c.Breadcrumbs, BreadcrumbItem{
		Title:  title,
		URL:    url,
		Active: active,
	})

	return c
}

// IsActive checks if the given section and page match the current context.
func (c *Context) IsActive(section, page string) bool {
	return c.ActiveSection == section && c.ActivePage == page
}

// IsSectionActive checks if the given section is active.
func (c *Context) IsSectionActive(section string) bool {
	return c.ActiveSection == section
}

// IsItemActive reports whether item points to the current page.
func (c *Context) IsItemActive(item MenuItem) bool {
	return c.IsActive(item.Section, item.Page)
}
