package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"tra/routesearch/search"
)

type searchRequest struct {
	HomeStationCode    string `json:"home_station_code"`
	HomeStationName    string `json:"home_station_name"`
	DepartureDatetime  string `json:"departure_datetime"`
	DestinationAddress string `json:"destination_address"`
	IsReturnTrip       bool   `json:"is_return_trip"`
}

type closestRequest struct {
	Address string `json:"address"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSearchStation(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.DepartureDatetime == "" || req.DestinationAddress == "" {
		writeError(w, http.StatusBadRequest, "missing required parameters")
		return
	}

	originCode, originName, destination := req.HomeStationCode, req.HomeStationName, req.DestinationAddress
	if req.IsReturnTrip {
		// return trip: depart from the station nearest the activity address,
		// travel back toward the home station
		nearest, err := s.api.ClosestStation(r.Context(), req.DestinationAddress)
		if err != nil {
			writeSearchError(w, err)
			return
		}
		originCode, originName = nearest.Code, nearest.Name
		destination = req.HomeStationName
		log.Infof("return trip: %s -> %s", originName, destination)
	} else if originCode == "" || originName == "" {
		writeError(w, http.StatusBadRequest, "missing required parameters")
		return
	}

	result, err := s.api.Search(r.Context(), originCode, originName, req.DepartureDatetime, destination)
	if err != nil {
		writeSearchError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleClosestStation(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	var req closestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Address == "" {
		writeError(w, http.StatusBadRequest, "missing required parameter 'address'")
		return
	}
	nearest, err := s.api.ClosestStation(r.Context(), req.Address)
	if err != nil {
		writeSearchError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]*search.NearestStation{"closest_station": nearest})
}

func writeSearchError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, search.ErrUnresolvableDestination):
		writeError(w, http.StatusBadRequest, "destination address could not be resolved")
	case errors.Is(err, search.ErrNoRoute):
		writeError(w, http.StatusNotFound, "no suitable route found")
	case errors.Is(err, search.ErrNoStation):
		writeError(w, http.StatusNotFound, "no station found")
	default:
		writeError(w, http.StatusBadRequest, err.Error())
	}
}
