package middleware

import "context"

type contextKey string

const ctxStaffUsername contextKey = "staff_username"

// StaffUsernameFromContext returns the authenticated staff username, if any.
func StaffUsernameFromContext(ctx context.Context) (string, bool) {
	username, ok := ctx.Value(ctxStaffUsername).(string)
	return username, ok && username != ""
}
