// Package auth authenticates requests and carries the signed-in user through
// the request as a Session.
//
// Three modes are supported, selected with AUTH_MODE:
//   - "none": no authentication, every request runs as DefaultUserID
//   - "local": users in the local database, bcrypt passwords and session cookies
//   - "firebase": Firebase ID tokens sent as "Authorization: Bearer <token>"
//
// # Configuration
//
//	AUTH_MODE=local
//	AUTH_SESSION_SECRET=<hex-32-bytes>  # CSRF key, generated if empty
//	AUTH_SESSION_LIFETIME=24h
//	AUTH_BCRYPT_COST=12
//	AUTH_SECURE_COOKIES=true
//
// # Usage
//
//	notifier := auth.NewNotifier()
//	svc := auth.NewService(userRepo, cfg.Auth, notifier)
//	mw := auth.NewMiddleware(cfg.Auth, auth.WithLocal(svc, sessions))
//	router.Use(mw.Handler())
//
// Handlers read the session from the gin context, services from the request
// context:
//
//	userID := auth.GetUserID(c)
//	s, ok := auth.FromContext(ctx)
package auth
