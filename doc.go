// Package main is the bsreload binary. It listens for "post saved" notifications of a
// CMS, either on the /hooks/save-post webhook or on a NATS subject, and asks a
// Browsersync server to reload the connected browsers. Reload host, port and the
// enable switch live in the database and are edited on the admin settings page.
package main
