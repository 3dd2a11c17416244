package api

import (
	"encoding/json"
	"net/http"

	"github.com/purebridge/purebridge-core/internal/cloud"
	"github.com/purebridge/purebridge-core/internal/device"
)

// decodeCredentialsRequest carries a pasted credentials blob.
type decodeCredentialsRequest struct {
	Credentials string `json:"credentials"`
}

// handleDecodeCredentials decodes a base64 credentials blob and reports the
// device identity it carries, so users can verify a blob before putting it
// in the configuration. The password is never echoed back.
func (s *Server) handleDecodeCredentials(w http.ResponseWriter, r *http.Request) {
	var req decodeCredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Credentials == "" {
		writeBadRequest(w, "credentials blob is required")
		return
	}

	creds, err := cloud.DecodeCredentials(req.Credentials)
	if err != nil {
		writeBadRequest(w, "credentials blob could not be decoded")
		return
	}

	profile := device.Lookup(creds.ProductType)
	writeJSON(w, http.StatusOK, map[string]any{
		"name":         creds.Name,
		"serial":       creds.Serial,
		"product_type": creds.ProductType,
		"version":      creds.Version,
		"model":        profile.Model,
		"known_model":  device.IsKnown(creds.ProductType),
	})
}
