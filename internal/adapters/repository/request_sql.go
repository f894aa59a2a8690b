package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/uyirthuli/donor-match-service/internal/core/domain"
	"github.com/uyirthuli/donor-match-service/internal/core/ports"
)

// outboxChannel is the NOTIFY channel the relay listens on.
const outboxChannel = "outbox_channel"

func (r *SQLRepository) CreateRequestWithMatches(ctx context.Context, req *domain.EmergencyRequest, matches []domain.RequestMatch, events []ports.OutboxEvent) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Upstream("begin create request", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO emergency_requests
			(id, requester_id, abo, rh, urgency, units_needed, latitude, longitude, radius_km, status, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		req.ID, req.RequesterID, req.Blood.ABO, req.Blood.Rh, req.Urgency, req.UnitsNeeded,
		req.Location.Latitude, req.Location.Longitude, req.RadiusKm, req.Status, req.CreatedAt, req.ExpiresAt)
	if err != nil {
		return domain.Upstream("insert request", err)
	}

	for _, m := range matches {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO request_matches
				(id, request_id, donor_id, distance_km, score, status, notified_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (request_id, donor_id) DO NOTHING`,
			m.ID, m.RequestID, m.DonorID, m.DistanceKm, m.Score, m.Status, m.NotifiedAt)
		if err != nil {
			return domain.Upstream("insert match", err)
		}
	}

	for _, ev := range events {
		if err := insertOutboxEvent(ctx, tx, ev); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return domain.Upstream("commit create request", err)
	}
	return nil
}

const requestColumns = `id, requester_id, abo, rh, urgency, units_needed,
	latitude, longitude, radius_km, status, created_at, expires_at, matched_at`

func scanRequest(row interface{ Scan(...any) error }) (*domain.EmergencyRequest, error) {
	var (
		req       domain.EmergencyRequest
		abo, rh   string
		matchedAt sql.NullTime
	)
	err := row.Scan(
		&req.ID, &req.RequesterID, &abo, &rh, &req.Urgency, &req.UnitsNeeded,
		&req.Location.Latitude, &req.Location.Longitude, &req.RadiusKm,
		&req.Status, &req.CreatedAt, &req.ExpiresAt, &matchedAt,
	)
	if err != nil {
		return nil, err
	}
	req.Blood = domain.BloodGroup{ABO: domain.ABOGroup(abo), Rh: domain.RhFactor(rh)}
	if matchedAt.Valid {
		req.MatchedAt = &matchedAt.Time
	}
	return &req, nil
}

func (r *SQLRepository) GetRequest(ctx context.Context, requestID string) (*domain.EmergencyRequest, error) {
	req, err := scanRequest(r.db.QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM emergency_requests WHERE id = $1`, requestID))
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, domain.Upstream("get request", err)
	}
	return req, nil
}

const matchColumns = `id, request_id, donor_id, distance_km, score, status, notified_at, responded_at`

func scanMatch(row interface{ Scan(...any) error }) (*domain.RequestMatch, error) {
	var (
		m           domain.RequestMatch
		respondedAt sql.NullTime
	)
	err := row.Scan(&m.ID, &m.RequestID, &m.DonorID, &m.DistanceKm, &m.Score, &m.Status, &m.NotifiedAt, &respondedAt)
	if err != nil {
		return nil, err
	}
	if respondedAt.Valid {
		m.RespondedAt = &respondedAt.Time
	}
	return &m, nil
}

func (r *SQLRepository) MatchesForRequest(ctx context.Context, requestID string) ([]domain.RequestMatch, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+matchColumns+`
		FROM request_matches
		WHERE request_id = $1
		ORDER BY score DESC, distance_km ASC, donor_id ASC`, requestID)
	if err != nil {
		return nil, domain.Upstream("matches for request", err)
	}
	defer rows.Close()

	var matches []domain.RequestMatch
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, domain.Upstream("scan match", err)
		}
		matches = append(matches, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Upstream("iterate matches", err)
	}
	return matches, nil
}

func (r *SQLRepository) GetMatch(ctx context.Context, matchID string) (*domain.RequestMatch, error) {
	m, err := scanMatch(r.db.QueryRowContext(ctx,
		`SELECT `+matchColumns+` FROM request_matches WHERE id = $1`, matchID))
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, domain.Upstream("get match", err)
	}
	return m, nil
}

// AcceptMatch is the single transactional accept primitive. The
// request row update is conditional on the status still being OPEN and
// checked through the affected-row count, so two racing donors cannot
// both win: the loser's update affects zero rows and is classified
// into a conflict reason inside the same transaction.
func (r *SQLRepository) AcceptMatch(ctx context.Context, requestID, donorID string, fallback *domain.RequestMatch, now time.Time) (*domain.RequestMatch, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, domain.Upstream("begin accept", err)
	}
	defer tx.Rollback()

	// Lock the donor's match row first: a donor who already responded
	// must be rejected before the request row is touched.
	existing, err := scanMatch(tx.QueryRowContext(ctx, `
		SELECT `+matchColumns+`
		FROM request_matches
		WHERE request_id = $1 AND donor_id = $2
		FOR UPDATE`, requestID, donorID))
	if err != nil && err != sql.ErrNoRows {
		return nil, domain.Upstream("lock match", err)
	}
	if existing != nil && existing.Status != domain.MatchNotified {
		return nil, domain.NewConflict(domain.ConflictAlreadyResponded,
			"you have already responded to this request")
	}

	var requesterID string
	err = tx.QueryRowContext(ctx, `
		UPDATE emergency_requests
		SET status = $2, matched_at = $3
		WHERE id = $1 AND status = $4 AND expires_at > $3
		RETURNING requester_id`,
		requestID, domain.RequestMatched, now, domain.RequestOpen).Scan(&requesterID)
	if err == sql.ErrNoRows {
		return nil, r.classifyAcceptLoss(ctx, tx, requestID, now)
	}
	if err != nil {
		return nil, domain.Upstream("claim request", err)
	}

	match := existing
	if match != nil {
		_, err = tx.ExecContext(ctx, `
			UPDATE request_matches SET status = $2, responded_at = $3 WHERE id = $1`,
			match.ID, domain.MatchAccepted, now)
		if err != nil {
			return nil, domain.Upstream("accept match", err)
		}
	} else {
		// The donor responded without having been pre-notified.
		match = fallback
		_, err = tx.ExecContext(ctx, `
			INSERT INTO request_matches
				(id, request_id, donor_id, distance_km, score, status, notified_at, responded_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			match.ID, requestID, donorID, match.DistanceKm, match.Score,
			domain.MatchAccepted, match.NotifiedAt, now)
		if err != nil {
			return nil, domain.Upstream("insert walk-in match", err)
		}
	}
	match.Status = domain.MatchAccepted
	match.RespondedAt = &now

	payload, err := json.Marshal(ports.MatchAcceptedEvent{
		MatchID:     match.ID,
		RequestID:   requestID,
		DonorID:     donorID,
		RequesterID: requesterID,
	})
	if err != nil {
		return nil, err
	}
	if err := insertOutboxEvent(ctx, tx, ports.OutboxEvent{
		ID:      uuid.NewString(),
		Type:    ports.EventMatchAccepted,
		Payload: payload,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, domain.Upstream("commit accept", err)
	}
	return match, nil
}

// classifyAcceptLoss turns a failed conditional update into a
// diagnosable conflict. A stale OPEN request is reclassified EXPIRED
// on the spot so the committed state matches the reported reason.
func (r *SQLRepository) classifyAcceptLoss(ctx context.Context, tx *sql.Tx, requestID string, now time.Time) error {
	var status domain.RequestStatus
	var expiresAt time.Time
	err := tx.QueryRowContext(ctx,
		`SELECT status, expires_at FROM emergency_requests WHERE id = $1`,
		requestID).Scan(&status, &expiresAt)
	if err == sql.ErrNoRows {
		return domain.ErrNotFound
	}
	if err != nil {
		return domain.Upstream("classify accept loss", err)
	}

	switch status {
	case domain.RequestOpen:
		_, err = tx.ExecContext(ctx, `
			UPDATE emergency_requests SET status = $2 WHERE id = $1 AND status = $3`,
			requestID, domain.RequestExpired, domain.RequestOpen)
		if err != nil {
			return domain.Upstream("expire stale request", err)
		}
		if err := tx.Commit(); err != nil {
			return domain.Upstream("commit expiry", err)
		}
		return domain.NewConflict(domain.ConflictRequestClosed, "this request has expired")
	case domain.RequestMatched, domain.RequestFulfilled:
		return domain.NewConflict(domain.ConflictAlreadyMatched, "this request has already been matched")
	default:
		return domain.NewConflict(domain.ConflictRequestClosed, "this request is no longer open")
	}
}

func (r *SQLRepository) DeclineMatch(ctx context.Context, requestID, donorID string, fallback *domain.RequestMatch, now time.Time) (*domain.RequestMatch, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, domain.Upstream("begin decline", err)
	}
	defer tx.Rollback()

	existing, err := scanMatch(tx.QueryRowContext(ctx, `
		SELECT `+matchColumns+`
		FROM request_matches
		WHERE request_id = $1 AND donor_id = $2
		FOR UPDATE`, requestID, donorID))
	if err != nil && err != sql.ErrNoRows {
		return nil, domain.Upstream("lock match", err)
	}
	if existing != nil && existing.Status != domain.MatchNotified {
		return nil, domain.NewConflict(domain.ConflictAlreadyResponded,
			"you have already responded to this request")
	}

	match := existing
	if match != nil {
		_, err = tx.ExecContext(ctx, `
			UPDATE request_matches SET status = $2, responded_at = $3 WHERE id = $1`,
			match.ID, domain.MatchDeclined, now)
		if err != nil {
			return nil, domain.Upstream("decline match", err)
		}
	} else {
		// No prior notification: a match row may only be created while
		// the request is still open or matched.
		var status domain.RequestStatus
		var expiresAt time.Time
		err = tx.QueryRowContext(ctx,
			`SELECT status, expires_at FROM emergency_requests WHERE id = $1`,
			requestID).Scan(&status, &expiresAt)
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		if err != nil {
			return nil, domain.Upstream("check request", err)
		}
		open := status == domain.RequestOpen && now.Before(expiresAt)
		if !open && status != domain.RequestMatched {
			return nil, domain.NewConflict(domain.ConflictRequestClosed,
				"this request is no longer open")
		}

		match = fallback
		_, err = tx.ExecContext(ctx, `
			INSERT INTO request_matches
				(id, request_id, donor_id, distance_km, score, status, notified_at, responded_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			match.ID, requestID, donorID, match.DistanceKm, match.Score,
			domain.MatchDeclined, match.NotifiedAt, now)
		if err != nil {
			return nil, domain.Upstream("insert declined match", err)
		}
	}
	match.Status = domain.MatchDeclined
	match.RespondedAt = &now

	if err := tx.Commit(); err != nil {
		return nil, domain.Upstream("commit decline", err)
	}
	return match, nil
}

func (r *SQLRepository) AdvanceMatch(ctx context.Context, matchID string, from, to domain.MatchStatus, now time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE request_matches SET status = $2 WHERE id = $1 AND status = $3`,
		matchID, to, from)
	if err != nil {
		return domain.Upstream("advance match", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.Upstream("advance match", err)
	}
	if n == 0 {
		var current domain.MatchStatus
		err := r.db.QueryRowContext(ctx,
			`SELECT status FROM request_matches WHERE id = $1`, matchID).Scan(&current)
		if err == sql.ErrNoRows {
			return domain.ErrNotFound
		}
		if err != nil {
			return domain.Upstream("advance match", err)
		}
		return domain.NewConflict(domain.ConflictIllegalTransition,
			"match cannot move from "+string(current)+" to "+string(to))
	}
	return nil
}

func (r *SQLRepository) MarkFulfilled(ctx context.Context, requestID string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE emergency_requests SET status = $2 WHERE id = $1 AND status = $3`,
		requestID, domain.RequestFulfilled, domain.RequestMatched)
	if err != nil {
		return domain.Upstream("mark fulfilled", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.Upstream("mark fulfilled", err)
	}
	if n > 0 {
		return nil
	}

	var status domain.RequestStatus
	err = r.db.QueryRowContext(ctx,
		`SELECT status FROM emergency_requests WHERE id = $1`, requestID).Scan(&status)
	if err == sql.ErrNoRows {
		return domain.ErrNotFound
	}
	if err != nil {
		return domain.Upstream("mark fulfilled", err)
	}
	switch status {
	case domain.RequestFulfilled:
		return nil
	case domain.RequestOpen:
		return domain.NewConflict(domain.ConflictIllegalTransition,
			"request has no committed donor")
	default:
		return domain.NewConflict(domain.ConflictRequestClosed,
			"this request is no longer open")
	}
}

func (r *SQLRepository) CancelRequest(ctx context.Context, requestID string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE emergency_requests SET status = $2 WHERE id = $1 AND status = $3`,
		requestID, domain.RequestCanceled, domain.RequestOpen)
	if err != nil {
		return domain.Upstream("cancel request", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.Upstream("cancel request", err)
	}
	if n > 0 {
		return nil
	}

	var status domain.RequestStatus
	err = r.db.QueryRowContext(ctx,
		`SELECT status FROM emergency_requests WHERE id = $1`, requestID).Scan(&status)
	if err == sql.ErrNoRows {
		return domain.ErrNotFound
	}
	if err != nil {
		return domain.Upstream("cancel request", err)
	}
	switch status {
	case domain.RequestCanceled:
		return nil
	case domain.RequestMatched:
		return domain.NewConflict(domain.ConflictAlreadyMatched,
			"this request has already been matched")
	default:
		return domain.NewConflict(domain.ConflictRequestClosed,
			"this request is no longer open")
	}
}

func (r *SQLRepository) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE emergency_requests SET status = $1 WHERE status = $2 AND expires_at <= $3`,
		domain.RequestExpired, domain.RequestOpen, now)
	if err != nil {
		return 0, domain.Upstream("expire stale", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, domain.Upstream("expire stale", err)
	}
	return n, nil
}

func insertOutboxEvent(ctx context.Context, tx *sql.Tx, ev ports.OutboxEvent) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO outbox_events (id, event_type, payload, created_at) VALUES ($1, $2, $3, NOW())`,
		ev.ID, ev.Type, ev.Payload)
	if err != nil {
		return domain.Upstream("insert outbox event", err)
	}
	if _, err := tx.ExecContext(ctx, `SELECT pg_notify($1, $2)`, outboxChannel, ev.ID); err != nil {
		return domain.Upstream("notify outbox", err)
	}
	return nil
}
