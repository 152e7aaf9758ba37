package httpapi

import "net/http"

// serviceInfoType identifies this service in the GA4GH service-info
// response (spec.md §6.1).
const serviceInfoType = "org.ga4gh:service-info:1.0.0"

// handleServiceInfo implements GET /service-info, the GA4GH discovery
// document (spec.md §6.1). Logging, auth, and deployment metadata are out
// of this spec's scope (spec.md §1); this returns the minimal identity
// block every GA4GH service exposes.
func (s *Server) handleServiceInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"id":          "org.ga4gh.anyvar",
		"name":        "anyvar",
		"type": map[string]string{
			"group":    "org.ga4gh",
			"artifact": "anyvar",
			"version":  "2.0.0",
		},
		"description": "Registers, retrieves, and searches GA4GH VRS sequence variation.",
		"organization": map[string]string{
			"name": "anyvario",
			"url":  "https://github.com/anyvario/anyvar",
		},
		"version": serviceInfoType,
	})
}
