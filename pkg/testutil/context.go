package testutil

import (
	"net/http"

	"trustgate/pkg/platform/middleware/admin"
)

// AdminToken is the shared admin token used by handler tests.
const AdminToken = "test-admin-token"

// AdminRequest sets the admin token and, when given, the acting operator.
func AdminRequest(req *http.Request, adminID string) *http.Request {
	req.Header.Set("X-Admin-Token", AdminToken)
	if adminID != "" {
		req.Header.Set(admin.AdminIDHeader, adminID)
	}
	return req
}
