package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"pawtrack/internal/model"
)

type PetStore struct {
	db *sql.DB
}

func NewPetStore(db *sql.DB) *PetStore {
	return &PetStore{db: db}
}

const petCols = `id, name, birthday, breed, weight_kg, gender, features, created_at`

func scanPet(scanner interface{ Scan(...any) error }) (*model.Pet, error) {
	var p model.Pet
	var birthday sql.NullString
	var weight sql.NullFloat64

	err := scanner.Scan(&p.ID, &p.Name, &birthday, &p.Breed, &weight, &p.Gender, &p.Features, &p.CreatedAt)
	if err != nil {
		return nil, err
	}

	if p.Birthday, err = scanNullDate(birthday); err != nil {
		return nil, fmt.Errorf("parse pet birthday: %w", err)
	}
	if weight.Valid {
		p.WeightKg = &weight.Float64
	}

	return &p, nil
}

// Create inserts the pet and registers ownerID as its first owner.
func (s *PetStore) Create(p *model.Pet, ownerID string) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}

	var weight sql.NullFloat64
	if p.WeightKg != nil {
		weight = sql.NullFloat64{Float64: *p.WeightKg, Valid: true}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO pets (id, name, birthday, breed, weight_kg, gender, features)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, nullDate(p.Birthday), p.Breed, weight, p.Gender, p.Features,
	)
	if err != nil {
		return fmt.Errorf("insert pet: %w", err)
	}

	_, err = tx.Exec(`INSERT INTO pet_owners (pet_id, user_id) VALUES (?, ?)`, p.ID, ownerID)
	if err != nil {
		return fmt.Errorf("insert pet owner: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *PetStore) GetByID(id string) (*model.Pet, error) {
	row := s.db.QueryRow(`SELECT `+petCols+` FROM pets WHERE id = ?`, id)
	p, err := scanPet(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query pet: %w", err)
	}
	return p, nil
}

func (s *PetStore) ListByOwner(userID string) ([]model.Pet, error) {
	rows, err := s.db.Query(
		`SELECT p.id, p.name, p.birthday, p.breed, p.weight_kg, p.gender, p.features, p.created_at
		 FROM pets p
		 JOIN pet_owners po ON po.pet_id = p.id
		 WHERE po.user_id = ?
		 ORDER BY p.name`, userID)
	if err != nil {
		return nil, fmt.Errorf("query pets: %w", err)
	}
	defer rows.Close()

	var pets []model.Pet
	for rows.Next() {
		p, err := scanPet(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pet: %w", err)
		}
		pets = append(pets, *p)
	}
	return pets, rows.Err()
}

func (s *PetStore) Update(p *model.Pet) error {
	var weight sql.NullFloat64
	if p.WeightKg != nil {
		weight = sql.NullFloat64{Float64: *p.WeightKg, Valid: true}
	}

	_, err := s.db.Exec(
		`UPDATE pets SET name = ?, birthday = ?, breed = ?, weight_kg = ?, gender = ?, features = ? WHERE id = ?`,
		p.Name, nullDate(p.Birthday), p.Breed, weight, p.Gender, p.Features, p.ID,
	)
	if err != nil {
		return fmt.Errorf("update pet: %w", err)
	}
	return nil
}

func (s *PetStore) Delete(id string) error {
	_, err := s.db.Exec(`DELETE FROM pets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete pet: %w", err)
	}
	return nil
}

// AddOwner grants an additional user ownership of the pet.
func (s *PetStore) AddOwner(petID, userID string) error {
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO pet_owners (pet_id, user_id) VALUES (?, ?)`, petID, userID)
	if err != nil {
		return fmt.Errorf("add pet owner: %w", err)
	}
	return nil
}

// IsOwner reports whether userID owns the pet.
func (s *PetStore) IsOwner(petID, userID string) (bool, error) {
	var one int
	err := s.db.QueryRow(
		`SELECT 1 FROM pet_owners WHERE pet_id = ? AND user_id = ?`, petID, userID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check pet owner: %w", err)
	}
	return true, nil
}

// ListOwnerIDs returns the user ids owning the pet.
func (s *PetStore) ListOwnerIDs(petID string) ([]string, error) {
	rows, err := s.db.Query(`SELECT user_id FROM pet_owners WHERE pet_id = ?`, petID)
	if err != nil {
		return nil, fmt.Errorf("query pet owners: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan owner id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
