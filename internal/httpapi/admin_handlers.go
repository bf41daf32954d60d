package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"portfolio-site/internal/model"
)

type issueCodeRequest struct {
	PhoneNumber string                `json:"phoneNumber"`
	Channel     model.DeliveryChannel `json:"channel"`
	TTLMinutes  int                   `json:"ttlMinutes"`
	MaxAttempts int                   `json:"maxAttempts"`
	Send        bool                  `json:"send"`
}

type issueCodeResponse struct {
	ID          string     `json:"id"`
	PhoneNumber string     `json:"phoneNumber"`
	Channel     string     `json:"channel"`
	Code        string     `json:"code"`
	ExpiresAt   time.Time  `json:"expiresAt"`
	MaxAttempts int        `json:"maxAttempts"`
	CreatedAt   time.Time  `json:"createdAt"`
	UsedAt      *time.Time `json:"usedAt,omitempty"`
}

// handleIssueCode lets the operator mint a code out of band, e.g. to hand a
// visitor access without a delivery channel round trip.
func (s *Server) handleIssueCode(w http.ResponseWriter, r *http.Request) {
	var req issueCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON")
		return
	}
	if req.Channel == "" {
		req.Channel = model.ChannelKakao
	}

	issued, err := s.auth.IssueCode(r.Context(), req.PhoneNumber, req.Channel, req.TTLMinutes, req.MaxAttempts, req.Send)
	if err != nil {
		writeAuthError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, issueCodeResponse{
		ID:          issued.Code.ID,
		PhoneNumber: issued.Code.PhoneNumber,
		Channel:     string(issued.Code.Channel),
		Code:        issued.PlainCode,
		ExpiresAt:   issued.Code.ExpiresAt,
		MaxAttempts: issued.Code.MaxAttempts,
		CreatedAt:   issued.Code.CreatedAt,
	})
}

func (s *Server) handleListCodes(w http.ResponseWriter, r *http.Request) {
	codes, err := s.auth.ListRecentCodes(r.Context(), 20)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL", "failed to list codes")
		return
	}
	if codes == nil {
		codes = []model.AccessCode{}
	}
	writeJSON(w, http.StatusOK, codes)
}

func (s *Server) handleListAttempts(w http.ResponseWriter, r *http.Request) {
	attempts, err := s.auth.ListRecentAttempts(r.Context(), 50)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL", "failed to list attempts")
		return
	}
	if attempts == nil {
		attempts = []model.AuthAttempt{}
	}
	writeJSON(w, http.StatusOK, attempts)
}
