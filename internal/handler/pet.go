package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"pawtrack/internal/auth"
	"pawtrack/internal/model"
	"pawtrack/internal/series"
	"pawtrack/internal/store"
)

type PetHandler struct {
	pets    *store.PetStore
	users   *store.UserStore
	manager *series.Manager
	logger  *slog.Logger
}

func NewPetHandler(pets *store.PetStore, users *store.UserStore, manager *series.Manager, logger *slog.Logger) *PetHandler {
	return &PetHandler{pets: pets, users: users, manager: manager, logger: logger}
}

type petRequest struct {
	Name     string   `json:"name"`
	Birthday *string  `json:"birthday"`
	Breed    string   `json:"breed"`
	WeightKg *float64 `json:"weight_kg"`
	Gender   string   `json:"gender"`
	Features string   `json:"features"`
}

func (req *petRequest) apply(p *model.Pet) string {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return "name is required"
	}

	p.Name = req.Name
	p.Breed = req.Breed
	p.WeightKg = req.WeightKg
	p.Gender = req.Gender
	p.Features = req.Features

	p.Birthday = nil
	if req.Birthday != nil && *req.Birthday != "" {
		d, err := parseDate(*req.Birthday)
		if err != nil {
			return "birthday must be YYYY-MM-DD"
		}
		p.Birthday = &d
	}
	return ""
}

// authorizePet loads the pet and checks that the calling user owns it,
// writing the error response itself on failure.
func authorizePet(w http.ResponseWriter, r *http.Request, pets *store.PetStore, petID string) (*model.Pet, bool) {
	pet, err := pets.GetByID(petID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load pet")
		return nil, false
	}
	if pet == nil {
		writeError(w, http.StatusNotFound, "pet not found")
		return nil, false
	}

	owner, err := pets.IsOwner(petID, auth.UserID(r.Context()))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to check ownership")
		return nil, false
	}
	if !owner {
		writeError(w, http.StatusForbidden, "you do not own this pet")
		return nil, false
	}
	return pet, true
}

func (h *PetHandler) List(w http.ResponseWriter, r *http.Request) {
	pets, err := h.pets.ListByOwner(auth.UserID(r.Context()))
	if err != nil {
		h.logger.Error("list pets", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list pets")
		return
	}
	if pets == nil {
		pets = []model.Pet{}
	}
	writeJSON(w, http.StatusOK, pets)
}

func (h *PetHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req petRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	var pet model.Pet
	if msg := req.apply(&pet); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	if err := h.pets.Create(&pet, auth.UserID(r.Context())); err != nil {
		h.logger.Error("create pet", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create pet")
		return
	}

	if pet.Birthday != nil {
		if err := h.manager.RebuildBirthdaySeries(&pet, time.Now()); err != nil {
			h.logger.Error("build birthday series", "pet_id", pet.ID, "error", err)
		}
	}

	writeJSON(w, http.StatusCreated, pet)
}

func (h *PetHandler) Get(w http.ResponseWriter, r *http.Request) {
	pet, ok := authorizePet(w, r, h.pets, r.PathValue("id"))
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, pet)
}

func (h *PetHandler) Update(w http.ResponseWriter, r *http.Request) {
	pet, ok := authorizePet(w, r, h.pets, r.PathValue("id"))
	if !ok {
		return
	}

	var req petRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	oldBirthday := pet.Birthday
	if msg := req.apply(pet); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	if err := h.pets.Update(pet); err != nil {
		h.logger.Error("update pet", "pet_id", pet.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update pet")
		return
	}

	if birthdayChanged(oldBirthday, pet.Birthday) {
		if err := h.manager.RebuildBirthdaySeries(pet, time.Now()); err != nil {
			h.logger.Error("rebuild birthday series", "pet_id", pet.ID, "error", err)
		}
	}

	writeJSON(w, http.StatusOK, pet)
}

func (h *PetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	pet, ok := authorizePet(w, r, h.pets, r.PathValue("id"))
	if !ok {
		return
	}

	if err := h.pets.Delete(pet.ID); err != nil {
		h.logger.Error("delete pet", "pet_id", pet.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete pet")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddOwner shares the pet with another user, looked up by username. The new
// owner gets the full set of rights, reminders included.
func (h *PetHandler) AddOwner(w http.ResponseWriter, r *http.Request) {
	pet, ok := authorizePet(w, r, h.pets, r.PathValue("id"))
	if !ok {
		return
	}

	var req struct {
		Username string `json:"username"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	user, err := h.users.GetByUsername(strings.TrimSpace(req.Username))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to look up user")
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}

	if err := h.pets.AddOwner(pet.ID, user.ID); err != nil {
		h.logger.Error("add pet owner", "pet_id", pet.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to add owner")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func birthdayChanged(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a != b
	}
	return !a.Equal(*b)
}
