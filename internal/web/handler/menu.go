package handler

import "github.com/zach-adams/wp-browsersync-reload/internal/web/navigation"

// Menu is the sidebar of every admin page.
var Menu = []navigation.MenuItem{ //nolint:gochecknoglobals
	{Title: "Browsersync", URL: AdminPath + "/settings/browsersync", Section: navigation.SectionSettings, Page: "browsersync"},
	{Title: "Metrics", URL: "/metrics", Section: navigation.SectionTools, Page: "metrics"},
}
