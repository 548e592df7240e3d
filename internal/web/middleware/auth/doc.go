// Package auth guards the admin pages.
//
// The middleware reads the session cookie, loads the session and stores the
// logged in user in fiber.Locals under CurrentUserKey for handlers and
// templates. Requests without a valid session are redirected to the login page.
//
// Usage:
//
//	app.Get(path, auth.Middleware, s.Get)
package auth
