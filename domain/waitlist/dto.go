package waitlist

import (
	"strings"

	"github.com/metll/metll-backend/internal/models"
	"golang.org/x/text/unicode/norm"
)

// JoinWaitlistRequest is the body of POST /api/waitlist. Field order decides
// which validation message is reported first.
type JoinWaitlistRequest struct {
	Name       string  `json:"name" validate:"required,max=255"`
	Email      string  `json:"email" validate:"required,email,max=255"`
	Suggestion *string `json:"suggestion,omitempty" validate:"omitempty,max=1000"`
}

type WaitlistEntryResponse struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ========================================
// Mappers
// ========================================

// Normalize trims name and email and NFC-normalises the name. A blank
// suggestion becomes nil; any other suggestion is kept as sent.
func (req *JoinWaitlistRequest) Normalize() {
	req.Name = norm.NFC.String(strings.TrimSpace(req.Name))
	req.Email = strings.TrimSpace(req.Email)
	req.Suggestion = normalizeSuggestion(req.Suggestion)
}

func normalizeSuggestion(suggestion *string) *string {
	if suggestion == nil {
		return nil
	}

	if strings.TrimSpace(*suggestion) == "" {
		return nil
	}

	return suggestion
}

func ToWaitlistEntryModel(req *JoinWaitlistRequest) *models.WaitlistEntry {
	if req == nil {
		return nil
	}
	return &models.WaitlistEntry{
		Name:       req.Name,
		Email:      req.Email,
		Suggestion: req.Suggestion,
	}
}

func ToWaitlistEntryResponse(entry *models.WaitlistEntry) WaitlistEntryResponse {
	if entry == nil {
		return WaitlistEntryResponse{}
	}
	return WaitlistEntryResponse{
		ID:    entry.ID,
		Name:  entry.Name,
		Email: entry.Email,
	}
}
