package domain

// ProjectScope is what the solutions architect decides a project needs.
type ProjectScope struct {
	IsCRUDRequired         bool `json:"is_crud_required"`
	IsUserLoginAndLogout   bool `json:"is_user_login_and_logout"`
	IsExternalURLsRequired bool `json:"is_external_urls_required"`
}

// RouteObject describes a single REST endpoint of generated backend code.
type RouteObject struct {
	IsRouteDynamic string `json:"is_route_dynamic"`
	Method         string `json:"method"`
	RequestBody    any    `json:"request_body"`
	Response       any    `json:"response"`
	Route          string `json:"route"`
}
