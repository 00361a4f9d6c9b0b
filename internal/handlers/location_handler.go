package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"marketBack/internal/models"
	"marketBack/internal/services"
)

// LocationHandler feeds the cascading country/region/subregion selects.
type LocationHandler struct {
	Service *services.LocationService
}

// ListLocations answers /api/locations?parent=<id> or ?type=country.
func (h *LocationHandler) ListLocations(w http.ResponseWriter, r *http.Request) {
	var (
		locations []models.Location
		err       error
	)
	parent := r.URL.Query().Get("parent")
	switch {
	case parent != "":
		parentID, convErr := strconv.ParseInt(parent, 10, 64)
		if convErr != nil || parentID <= 0 {
			http.Error(w, "Invalid parent", http.StatusBadRequest)
			return
		}
		locations, err = h.Service.Children(r.Context(), parentID)
	case r.URL.Query().Get("type") == "" || r.URL.Query().Get("type") == string(models.LocationCountry):
		locations, err = h.Service.Countries(r.Context())
	default:
		http.Error(w, "Unsupported type", http.StatusBadRequest)
		return
	}
	if err != nil {
		http.Error(w, "Failed to load locations", http.StatusInternalServerError)
		return
	}
	if locations == nil {
		locations = []models.Location{}
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "public, max-age=600")
	_ = json.NewEncoder(w).Encode(locations)
}
