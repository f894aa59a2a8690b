package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"

	"github.com/uyirthuli/donor-match-service/internal/core/domain"
	"github.com/uyirthuli/donor-match-service/internal/core/geo"
	"github.com/uyirthuli/donor-match-service/internal/core/ports"
)

// responseRateAlpha is the exponential smoothing factor applied when a
// donor responds: rate moves toward 1 on accept, toward 0 on decline.
const responseRateAlpha = 0.2

type SQLRepository struct {
	db *sql.DB
}

// Ensure SQLRepository implements both persistence ports.
var (
	_ ports.DonorRepository   = (*SQLRepository)(nil)
	_ ports.RequestRepository = (*SQLRepository)(nil)
)

func NewSQLRepository(db *sql.DB) *SQLRepository {
	return &SQLRepository{db: db}
}

const donorColumns = `d.id, d.full_name, d.abo, d.rh, d.availability,
	d.latitude, d.longitude, d.contact_consent, d.emergency_only, d.share_location, d.created_at,
	s.donation_count, s.response_rate, s.avg_response_minutes`

func scanDonor(row interface{ Scan(...any) error }) (*domain.DonorProfile, error) {
	var (
		d            domain.DonorProfile
		abo, rh      string
		lat, lon     sql.NullFloat64
		count        sql.NullInt64
		rate, avgMin sql.NullFloat64
	)
	err := row.Scan(
		&d.ID, &d.FullName, &abo, &rh, &d.Availability,
		&lat, &lon, &d.Consent.ContactConsent, &d.Consent.EmergencyOnly, &d.Consent.ShareLocation, &d.CreatedAt,
		&count, &rate, &avgMin,
	)
	if err != nil {
		return nil, err
	}
	d.Blood = domain.BloodGroup{ABO: domain.ABOGroup(abo), Rh: domain.RhFactor(rh)}
	if lat.Valid && lon.Valid {
		d.Location = &domain.Coordinates{Latitude: lat.Float64, Longitude: lon.Float64}
	}
	if count.Valid {
		d.Stats = &domain.DonorStats{
			DonationCount:      int(count.Int64),
			ResponseRate:       rate.Float64,
			AvgResponseMinutes: avgMin.Float64,
		}
	}
	return &d, nil
}

func (r *SQLRepository) GetDonor(ctx context.Context, donorID string) (*domain.DonorProfile, error) {
	donor, err := scanDonor(r.db.QueryRowContext(ctx, `
		SELECT `+donorColumns+`
		FROM donors d
		LEFT JOIN donor_stats s ON s.donor_id = d.id
		WHERE d.id = $1`, donorID))
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, domain.Upstream("get donor", err)
	}
	return donor, nil
}

func (r *SQLRepository) DonorsByID(ctx context.Context, donorIDs []string) ([]domain.DonorProfile, error) {
	if len(donorIDs) == 0 {
		return nil, nil
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+donorColumns+`
		FROM donors d
		LEFT JOIN donor_stats s ON s.donor_id = d.id
		WHERE d.id = ANY($1)`, pq.Array(donorIDs))
	if err != nil {
		return nil, domain.Upstream("donors by id", err)
	}
	defer rows.Close()
	return collectDonors(rows)
}

func (r *SQLRepository) DonorsWithin(ctx context.Context, box geo.BoundingBox) ([]domain.DonorProfile, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+donorColumns+`
		FROM donors d
		LEFT JOIN donor_stats s ON s.donor_id = d.id
		WHERE d.latitude BETWEEN $1 AND $2
		  AND d.longitude BETWEEN $3 AND $4
		  AND d.availability = $5`,
		box.MinLat, box.MaxLat, box.MinLon, box.MaxLon, domain.Available)
	if err != nil {
		return nil, domain.Upstream("donors within bounds", err)
	}
	defer rows.Close()
	return collectDonors(rows)
}

func collectDonors(rows *sql.Rows) ([]domain.DonorProfile, error) {
	var donors []domain.DonorProfile
	for rows.Next() {
		d, err := scanDonor(rows)
		if err != nil {
			return nil, domain.Upstream("scan donor", err)
		}
		donors = append(donors, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Upstream("iterate donors", err)
	}
	return donors, nil
}

func (r *SQLRepository) UpdateLocation(ctx context.Context, donorID string, loc domain.Coordinates) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE donors SET latitude = $2, longitude = $3 WHERE id = $1`,
		donorID, loc.Latitude, loc.Longitude)
	if err != nil {
		return domain.Upstream("update location", err)
	}
	return requireRow(res)
}

func (r *SQLRepository) UpdateAvailability(ctx context.Context, donorID string, availability domain.Availability) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE donors SET availability = $2 WHERE id = $1`,
		donorID, availability)
	if err != nil {
		return domain.Upstream("update availability", err)
	}
	return requireRow(res)
}

func (r *SQLRepository) RecordResponse(ctx context.Context, donorID string, accepted bool, respondedIn time.Duration) error {
	outcome := 0.0
	if accepted {
		outcome = 1.0
	}
	minutes := respondedIn.Minutes()
	if minutes < 0 {
		minutes = 0
	}
	// A donor without a stats row starts from the neutral 0.5 used in
	// scoring, smoothed once by this response.
	initialRate := 0.5*(1-responseRateAlpha) + outcome*responseRateAlpha

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO donor_stats (donor_id, donation_count, response_rate, avg_response_minutes)
		VALUES ($1, 0, $2, $3)
		ON CONFLICT (donor_id) DO UPDATE SET
			response_rate = donor_stats.response_rate * (1 - $4) + $5 * $4,
			avg_response_minutes = donor_stats.avg_response_minutes * (1 - $4) + $3 * $4`,
		donorID, initialRate, minutes, responseRateAlpha, outcome)
	if err != nil {
		return domain.Upstream("record response", err)
	}
	return nil
}

func (r *SQLRepository) CreditFulfillment(ctx context.Context, donorID string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO donor_stats (donor_id, donation_count, response_rate, avg_response_minutes)
		VALUES ($1, 1, 0.5, 0)
		ON CONFLICT (donor_id) DO UPDATE SET
			donation_count = donor_stats.donation_count + 1`,
		donorID)
	if err != nil {
		return domain.Upstream("credit fulfillment", err)
	}
	return nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return domain.Upstream("rows affected", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
