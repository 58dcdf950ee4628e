package api

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"pkg.jsn.cam/foodjournal/pkg/journal"
)

// RegisterRequest is the body of POST /v1/register.
type RegisterRequest struct {
	Image          string `json:"image"`
	UserName       string `json:"user_name"`
	DisplayName    string `json:"display_name"`
	TargetCalories uint64 `json:"target_calories"`
	CurrentDate    string `json:"current_date,omitempty"` // defaults to today
}

// UserResponse is a profile as returned to clients.
type UserResponse struct {
	Image              string `json:"image"`
	UserName           string `json:"user_name"`
	DisplayName        string `json:"display_name"`
	TargetCalories     uint64 `json:"target_calories"`
	TargetFat          uint64 `json:"target_fat"`
	TargetProtein      uint64 `json:"target_protein"`
	TargetCarbohydrate uint64 `json:"target_carbohydrate"`
	CurrentDate        string `json:"current_date"`
}

// UsersResponse wraps the user list so fields can be added later.
type UsersResponse struct {
	Users []UserResponse `json:"users"`
}

// EntryRequest is the body of POST /v1/journal.
type EntryRequest struct {
	Text          string  `json:"text"`
	Quantity      float64 `json:"qty"`
	QuantityUnits string  `json:"qty_units"`
	Calories      uint64  `json:"calories"`
	Carbohydrate  uint64  `json:"carbohydrate"`
	Fat           uint64  `json:"fat"`
	Protein       uint64  `json:"protein"`
}

// EntryResponse is a journal entry as returned to clients.
type EntryResponse struct {
	ID            string  `json:"id"`
	Text          string  `json:"text"`
	Timestamp     int64   `json:"timestamp"`
	Quantity      float64 `json:"qty"`
	QuantityUnits string  `json:"qty_units"`
	Calories      uint64  `json:"calories"`
	Carbohydrate  uint64  `json:"carbohydrate"`
	Fat           uint64  `json:"fat"`
	Protein       uint64  `json:"protein"`
}

// JournalResponse is the body of GET /v1/journal.
type JournalResponse struct {
	Records []EntryResponse `json:"records"`
}

// EndDayResponse is the body of POST /v1/end-day.
type EndDayResponse struct {
	CurrentDate string `json:"current_date"`
}

func userResponse(id string, u journal.User) UserResponse {
	return UserResponse{
		Image:              u.Image,
		UserName:           id,
		DisplayName:        u.DisplayName,
		TargetCalories:     u.TargetCalories,
		TargetFat:          u.TargetFat,
		TargetProtein:      u.TargetProtein,
		TargetCarbohydrate: u.TargetCarbohydrate,
		CurrentDate:        u.CurrentDate,
	}
}

// userID extracts the caller's identity. It is trusted as given.
func (s *Server) userID(r *http.Request) (string, error) {
	id := r.Header.Get(s.userHeader)
	if id == "" {
		return "", fmt.Errorf("%w: missing %s header", journal.ErrInvalidInput, s.userHeader)
	}
	return id, nil
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) error {
	resp := UsersResponse{Users: []UserResponse{}}
	for rec, err := range s.store.ListUsers(r.Context()) {
		if err != nil {
			if !errors.Is(err, journal.ErrCorruptRecord) {
				return err
			}
			log.Printf("[API] Warning: skipping user record: %v", err)
			continue
		}
		resp.Users = append(resp.Users, userResponse(rec.ID, rec.User))
	}

	writeJSON(w, http.StatusOK, resp)
	return nil
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) error {
	var req RegisterRequest
	if err := decodeBody(w, r, &req); err != nil {
		return err
	}

	date := req.CurrentDate
	if date == "" {
		date = journal.FormatDate(s.now())
	}

	macros := targetMacros(req.TargetCalories)
	user := journal.User{
		Image:              req.Image,
		DisplayName:        req.DisplayName,
		TargetCalories:     req.TargetCalories,
		TargetFat:          macros.Fat,
		TargetProtein:      macros.Protein,
		TargetCarbohydrate: macros.Carbohydrate,
		CurrentDate:        date,
	}
	if err := s.store.PutUser(r.Context(), req.UserName, user); err != nil {
		return err
	}

	log.Printf("[API] Registered user %s", req.UserName)
	writeJSON(w, http.StatusCreated, userResponse(req.UserName, user))
	return nil
}

func (s *Server) handleEndDay(w http.ResponseWriter, r *http.Request) error {
	id, err := s.userID(r)
	if err != nil {
		return err
	}

	next, err := s.store.AdvanceDay(r.Context(), id)
	if err != nil {
		return err
	}

	writeJSON(w, http.StatusOK, EndDayResponse{CurrentDate: next})
	return nil
}

func (s *Server) handleGetJournal(w http.ResponseWriter, r *http.Request) error {
	id, err := s.userID(r)
	if err != nil {
		return err
	}

	resp := JournalResponse{Records: []EntryResponse{}}
	for rec, err := range s.store.ListJournalEntries(r.Context(), id) {
		if err != nil {
			if !errors.Is(err, journal.ErrCorruptRecord) {
				return err
			}
			log.Printf("[API] Warning: skipping journal record for %s: %v", id, err)
			continue
		}
		e := rec.Entry
		resp.Records = append(resp.Records, EntryResponse{
			ID:            rec.ID,
			Text:          e.Text,
			Timestamp:     e.Timestamp,
			Quantity:      e.Quantity,
			QuantityUnits: e.QuantityUnits,
			Calories:      e.Calories,
			Carbohydrate:  e.Carbohydrate,
			Fat:           e.Fat,
			Protein:       e.Protein,
		})
	}

	writeJSON(w, http.StatusOK, resp)
	return nil
}

func (s *Server) handlePostJournal(w http.ResponseWriter, r *http.Request) error {
	id, err := s.userID(r)
	if err != nil {
		return err
	}

	var req EntryRequest
	if err := decodeBody(w, r, &req); err != nil {
		return err
	}

	entryID, err := s.store.AppendJournalEntry(r.Context(), id, journal.JournalEntry{
		Text:          req.Text,
		Quantity:      req.Quantity,
		QuantityUnits: req.QuantityUnits,
		Calories:      req.Calories,
		Carbohydrate:  req.Carbohydrate,
		Fat:           req.Fat,
		Protein:       req.Protein,
	})
	if err != nil {
		return err
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": entryID})
	return nil
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) error {
	stats, err := s.store.Stats(r.Context())
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, stats)
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
