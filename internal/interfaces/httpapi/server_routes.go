package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
	mux.HandleFunc("GET /readyz", handler.Readyz)
}

func registerDomainRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/org-data", handler.GetOrgData)
	mux.HandleFunc("POST /v1/org-data/refresh", handler.RefreshOrgData)
	mux.HandleFunc("GET /v1/grades", handler.ListGrades)
	mux.HandleFunc("GET /v1/ladder", handler.GetLadder)
	mux.HandleFunc("POST /v1/images", handler.GenerateImage)
	mux.HandleFunc("GET /v1/dashboard", handler.GetDashboard)
}
