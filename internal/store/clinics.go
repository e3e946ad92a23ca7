package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/robzajac581/glowra-search-api-sub002/internal/geo"
	"github.com/robzajac581/glowra-search-api-sub002/internal/match"
)

// PlaceDetails is the extended enrichment payload stored alongside a clinic,
// keyed by the external place identifier and the clinic id.
type PlaceDetails struct {
	PlaceID     string
	Phone       string
	Website     string
	Rating      float64
	ReviewCount int
	RawJSON     string
}

// LoadClinics fetches the full canonical clinic set ordered by identifier.
// The slice is the immutable snapshot used for one matching run.
func (s *Store) LoadClinics(ctx context.Context) ([]match.Clinic, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT clinic_id, name, COALESCE(address, ''),
		       latitude, longitude,
		       COALESCE(place_id, ''), COALESCE(phone, ''), COALESCE(website, '')
		FROM clinics
		ORDER BY clinic_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to load clinics: %w", err)
	}
	defer rows.Close()

	var clinics []match.Clinic
	for rows.Next() {
		var c match.Clinic
		var lat, lng sql.NullFloat64

		if err := rows.Scan(&c.ID, &c.Name, &c.Address, &lat, &lng, &c.PlaceID, &c.Phone, &c.Website); err != nil {
			return nil, fmt.Errorf("failed to scan clinic row: %w", err)
		}
		if lat.Valid && lng.Valid {
			c.Coord = &geo.Point{Lat: lat.Float64, Lng: lng.Float64}
		}
		clinics = append(clinics, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading clinic rows: %w", err)
	}

	return clinics, nil
}

// MaxClinicID returns the highest clinic identifier issued so far, or zero
// for an empty table. Identifiers are permanent: the allocator seeded from
// this value must never hand one out twice, even after logical deletion.
func (s *Store) MaxClinicID(ctx context.Context) (int64, error) {
	var max sql.NullInt64
	err := s.DB.QueryRowContext(ctx, `SELECT MAX(clinic_id) FROM clinics`).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("failed to read max clinic id: %w", err)
	}
	if !max.Valid {
		return 0, nil
	}
	return max.Int64, nil
}

// InsertClinic inserts a clinic with an explicit, pre-allocated identifier.
func (s *Store) InsertClinic(ctx context.Context, c match.Clinic) error {
	var lat, lng interface{}
	if c.Coord != nil {
		lat, lng = c.Coord.Lat, c.Coord.Lng
	}

	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO clinics (clinic_id, name, address, latitude, longitude, place_id, phone, website)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8)
	`, c.ID, c.Name, c.Address, lat, lng, c.PlaceID, c.Phone, c.Website)
	if err != nil {
		return fmt.Errorf("failed to insert clinic %d: %w", c.ID, err)
	}
	return nil
}

// DeletePlaceLink removes the enrichment row tying a place identifier to a
// clinic. Deleting an already-removed row is a no-op, not an error, so a
// partially applied correction batch can be re-run safely.
func (s *Store) DeletePlaceLink(ctx context.Context, placeID string, clinicID int64) (int64, error) {
	res, err := s.DB.ExecContext(ctx, `
		DELETE FROM clinic_place_details
		WHERE place_id = $1 AND clinic_id = $2
	`, placeID, clinicID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete place link (%s, %d): %w", placeID, clinicID, err)
	}
	return res.RowsAffected()
}

// InsertPlaceDetails inserts the enrichment payload for a clinic.
func (s *Store) InsertPlaceDetails(ctx context.Context, clinicID int64, d PlaceDetails) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO clinic_place_details (place_id, clinic_id, phone, website, rating, review_count, raw_json)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, d.PlaceID, clinicID, d.Phone, d.Website, d.Rating, d.ReviewCount, d.RawJSON)
	if err != nil {
		return fmt.Errorf("failed to insert place details for clinic %d: %w", clinicID, err)
	}
	return nil
}

// CountClinics reports the current clinic row count. Used by the ping
// command for a connectivity check with context.
func (s *Store) CountClinics(ctx context.Context) (int, error) {
	var count int
	err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM clinics`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count clinics: %w", err)
	}
	return count, nil
}
