package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"parkhive/internal/billing"
	"parkhive/internal/database"
	"parkhive/internal/export"
	"parkhive/internal/metrics"
	"parkhive/internal/models"
	"parkhive/internal/service"
)

func (s *HTTPServer) handleSpaces(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.createSpace(w, r)
	case http.MethodGet:
		s.listOwnerSpaces(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) createSpace(w http.ResponseWriter, r *http.Request) {
	actor, err := s.actorID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var body struct {
		Name        string  `json:"name"`
		Address     string  `json:"address"`
		Latitude    float64 `json:"latitude"`
		Longitude   float64 `json:"longitude"`
		HourlyRate  float64 `json:"hourly_rate"`
		TotalSpots  int64   `json:"total_spots"`
		Description string  `json:"description"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(body.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	space := &models.ParkingSpace{
		OwnerID:     actor,
		Name:        strings.TrimSpace(body.Name),
		Address:     strings.TrimSpace(body.Address),
		Latitude:    body.Latitude,
		Longitude:   body.Longitude,
		HourlyRate:  body.HourlyRate,
		TotalSpots:  body.TotalSpots,
		Description: body.Description,
		IsActive:    true,
	}
	if err := s.spaces.RegisterSpace(r.Context(), space); err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, space)
}

func (s *HTTPServer) listOwnerSpaces(w http.ResponseWriter, r *http.Request) {
	actor, err := s.actorID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	spaces, err := s.spaces.GetOwnerSpaces(r.Context(), actor)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"spaces": spaces})
}

func (s *HTTPServer) handleNearby(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	q := r.URL.Query()
	lat, latErr := strconv.ParseFloat(strings.TrimSpace(q.Get("lat")), 64)
	lon, lonErr := strconv.ParseFloat(strings.TrimSpace(q.Get("lon")), 64)
	if latErr != nil || lonErr != nil {
		writeError(w, http.StatusBadRequest, "lat and lon are required")
		return
	}

	var radiusKm float64
	if raw := strings.TrimSpace(q.Get("radius_km")); raw != "" {
		radiusKm, _ = strconv.ParseFloat(raw, 64)
	}
	var limit int
	if raw := strings.TrimSpace(q.Get("limit")); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}

	results, err := s.spaces.FindNearby(r.Context(), lat, lon, radiusKm, limit)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"spaces": results})
}

// handleSpaceByID serves /api/v1/spaces/{id} and /api/v1/spaces/{id}/occupancy.
func (s *HTTPServer) handleSpaceByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/spaces/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid space id")
		return
	}

	switch {
	case len(parts) == 2 && parts[1] == "occupancy" && r.Method == http.MethodGet:
		occ, err := s.spaces.GetOccupancy(r.Context(), id)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, occ)
	case len(parts) == 1 && r.Method == http.MethodGet:
		space, err := s.spaces.GetSpace(r.Context(), id)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, space)
	case len(parts) == 1 && r.Method == http.MethodDelete:
		actor, err := s.actorID(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := s.spaces.DeactivateSpace(r.Context(), id, actor); err != nil {
			s.writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deactivated"})
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (s *HTTPServer) handleRequests(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.createRequest(w, r)
	case http.MethodGet:
		s.listRequests(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) createRequest(w http.ResponseWriter, r *http.Request) {
	actor, err := s.actorID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var body struct {
		SpaceID int64 `json:"space_id"`
	}
	if err := decodeJSON(r, &body); err != nil || body.SpaceID == 0 {
		writeError(w, http.StatusBadRequest, "space_id is required")
		return
	}

	request, err := s.requests.CreateRequest(r.Context(), actor, body.SpaceID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	metrics.IncTransition(models.StatusPending)
	writeJSON(w, http.StatusCreated, request)
}

func (s *HTTPServer) listRequests(w http.ResponseWriter, r *http.Request) {
	actor, err := s.actorID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var requests []*models.ParkingRequest
	if r.URL.Query().Get("role") == "owner" {
		requests, err = s.requests.GetOwnerRequests(r.Context(), actor)
	} else {
		requests, err = s.requests.GetUserRequests(r.Context(), actor)
	}
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"requests": requests})
}

// handleRequestByID serves /api/v1/requests/{id} and lifecycle actions
// /api/v1/requests/{id}/(approve|deny|end|confirm-end).
func (s *HTTPServer) handleRequestByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/requests/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request id")
		return
	}

	if len(parts) == 1 {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		request, err := s.requests.GetRequest(r.Context(), id)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, request)
		return
	}

	if len(parts) != 2 || r.Method != http.MethodPost {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	actor, err := s.actorID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var body struct {
		Version int64 `json:"version"`
	}
	if err := decodeJSON(r, &body); err != nil || body.Version == 0 {
		writeError(w, http.StatusBadRequest, "version is required")
		return
	}

	switch parts[1] {
	case "approve":
		if err := s.requests.ApproveRequest(r.Context(), id, body.Version, actor); err != nil {
			s.writeDomainError(w, err)
			return
		}
		metrics.IncTransition(models.StatusActive)
		writeJSON(w, http.StatusOK, map[string]string{"status": models.StatusActive})
	case "deny":
		if err := s.requests.DenyRequest(r.Context(), id, body.Version, actor); err != nil {
			s.writeDomainError(w, err)
			return
		}
		metrics.IncTransition(models.StatusCancelled)
		writeJSON(w, http.StatusOK, map[string]string{"status": models.StatusCancelled})
	case "end":
		if err := s.requests.RequestEnd(r.Context(), id, body.Version, actor); err != nil {
			s.writeDomainError(w, err)
			return
		}
		metrics.IncTransition(models.StatusEndRequested)
		writeJSON(w, http.StatusOK, map[string]string{"status": models.StatusEndRequested})
	case "confirm-end":
		ended, err := s.requests.ConfirmEnd(r.Context(), id, body.Version, actor)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		metrics.IncTransition(models.StatusEnded)
		writeJSON(w, http.StatusOK, ended)
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (s *HTTPServer) handleWallet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	actor, err := s.actorID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	wallet, err := s.wallets.GetWallet(r.Context(), actor)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, wallet)
}

func (s *HTTPServer) handleWalletCredit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	actor, err := s.actorID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var body struct {
		Amount float64 `json:"amount"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := s.wallets.Credit(r.Context(), actor, body.Amount); err != nil {
		metrics.IncWalletOp("credit", "error")
		s.writeDomainError(w, err)
		return
	}
	metrics.IncWalletOp("credit", "ok")

	wallet, err := s.wallets.GetWallet(r.Context(), actor)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, wallet)
}

func (s *HTTPServer) handleWalletDebit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	actor, err := s.actorID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var body struct {
		Amount float64 `json:"amount"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := s.wallets.Debit(r.Context(), actor, body.Amount); err != nil {
		metrics.IncWalletOp("debit", "error")
		s.writeDomainError(w, err)
		return
	}
	metrics.IncWalletOp("debit", "ok")

	wallet, err := s.wallets.GetWallet(r.Context(), actor)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, wallet)
}

func (s *HTTPServer) handleWalletPay(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	actor, err := s.actorID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var body struct {
		RequestID int64 `json:"request_id"`
	}
	if err := decodeJSON(r, &body); err != nil || body.RequestID == 0 {
		writeError(w, http.StatusBadRequest, "request_id is required")
		return
	}

	amount, err := s.wallets.Pay(r.Context(), actor, body.RequestID)
	if err != nil {
		metrics.IncWalletOp("pay", "error")
		s.writeDomainError(w, err)
		return
	}
	metrics.IncWalletOp("pay", "ok")
	writeJSON(w, http.StatusOK, map[string]any{"request_id": body.RequestID, "amount": amount, "paid": true})
}

// handleOwnerEarnings serves /api/v1/owners/{id}/earnings and
// /api/v1/owners/{id}/export.
func (s *HTTPServer) handleOwnerEarnings(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/owners/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) != 2 {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	ownerID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid owner id")
		return
	}

	actor, err := s.actorID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if actor != ownerID {
		writeError(w, http.StatusForbidden, "owner data is visible to the owner only")
		return
	}

	switch {
	case parts[1] == "earnings" && r.Method == http.MethodGet:
		earnings, err := s.requests.OwnerEarnings(r.Context(), ownerID)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		var total float64
		for _, v := range earnings {
			total += v
		}
		writeJSON(w, http.StatusOK, map[string]any{"by_space": earnings, "total": total})
	case parts[1] == "export" && r.Method == http.MethodPost:
		s.exportOwnerReport(w, r, ownerID)
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (s *HTTPServer) exportOwnerReport(w http.ResponseWriter, r *http.Request, ownerID int64) {
	if s.exporter == nil {
		writeError(w, http.StatusNotImplemented, "exports are not configured")
		return
	}

	var body struct {
		StartDate string `json:"start_date"`
		EndDate   string `json:"end_date"`
	}
	if err := decodeJSON(r, &body); err != nil && err != io.EOF {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	start, end := export.DefaultRange(time.Now())
	if body.StartDate != "" {
		parsed, err := time.Parse("2006-01-02", body.StartDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid start_date; expected YYYY-MM-DD")
			return
		}
		start = parsed
	}
	if body.EndDate != "" {
		parsed, err := time.Parse("2006-01-02", body.EndDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid end_date; expected YYYY-MM-DD")
			return
		}
		end = parsed
	}
	if !end.After(start) {
		writeError(w, http.StatusBadRequest, "end_date must be after start_date")
		return
	}

	path, err := s.exporter.ExportOwnerReport(r.Context(), ownerID, start, end)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"file": path})
}

// writeDomainError maps domain sentinels onto HTTP status codes.
func (s *HTTPServer) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, database.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, database.ErrConcurrentModification):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, database.ErrDuplicateActiveRequest),
		errors.Is(err, database.ErrAlreadyPaid),
		errors.Is(err, service.ErrInvalidTransition):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, database.ErrInsufficientFunds):
		writeError(w, http.StatusPaymentRequired, err.Error())
	case errors.Is(err, service.ErrNotOwner), errors.Is(err, service.ErrNotRequester):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrSelfRequest),
		errors.Is(err, service.ErrSpaceInactive),
		errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, billing.ErrInvalidRate),
		errors.Is(err, billing.ErrInvalidInterval):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error().Err(err).Msg("internal error")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// handleUserMe serves the acting user's contact profile. The rendering
// layer pushes profile updates here so notifications and exports have
// contact data to work with.
func (s *HTTPServer) handleUserMe(w http.ResponseWriter, r *http.Request) {
	actor, err := s.actorID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	switch r.Method {
	case http.MethodGet:
		user, err := s.users.GetUserByID(r.Context(), actor)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, user)
	case http.MethodPut:
		var body struct {
			Email          string `json:"email"`
			DisplayName    string `json:"display_name"`
			Phone          string `json:"phone"`
			TelegramChatID int64  `json:"telegram_chat_id"`
		}
		if err := decodeJSON(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if body.Email == "" {
			writeError(w, http.StatusBadRequest, "email is required")
			return
		}
		user := &models.User{
			ID:             actor,
			Email:          body.Email,
			DisplayName:    body.DisplayName,
			Phone:          body.Phone,
			TelegramChatID: body.TelegramChatID,
		}
		if err := s.users.SaveUser(r.Context(), user); err != nil {
			s.writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, user)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}
