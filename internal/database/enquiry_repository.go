package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/HelixAutomations/enquiry-timeline/internal/models"
)

// ErrEnquiryNotFound is returned when no enquiry exists for an id.
var ErrEnquiryNotFound = errors.New("enquiry not found")

// EnquiryRepository reads enquiry records from the CRM database. Enquiries
// are written by the intake system; this service only reads them to
// pre-populate sync parameters.
type EnquiryRepository struct {
	db *sql.DB
}

// NewEnquiryRepository creates a new enquiry repository.
func NewEnquiryRepository(db *sql.DB) *EnquiryRepository {
	return &EnquiryRepository{db: db}
}

// GetByID retrieves a single enquiry.
func (r *EnquiryRepository) GetByID(ctx context.Context, id string) (*models.Enquiry, error) {
	query := `
		SELECT id, prospect_name, prospect_email, phone, secondary_phone,
		       fee_earner, fee_earner_email, area_of_work, rating, notes,
		       received_at, last_touchpoint
		FROM enquiries
		WHERE id = $1
	`

	var (
		enquiry        models.Enquiry
		prospectName   sql.NullString
		prospectEmail  sql.NullString
		phone          sql.NullString
		secondaryPhone sql.NullString
		feeEarner      sql.NullString
		feeEarnerEmail sql.NullString
		areaOfWork     sql.NullString
		rating         sql.NullString
		notes          sql.NullString
		lastTouchpoint sql.NullTime
	)

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&enquiry.ID,
		&prospectName,
		&prospectEmail,
		&phone,
		&secondaryPhone,
		&feeEarner,
		&feeEarnerEmail,
		&areaOfWork,
		&rating,
		&notes,
		&enquiry.ReceivedAt,
		&lastTouchpoint,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEnquiryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get enquiry %s: %w", id, err)
	}

	enquiry.ProspectName = prospectName.String
	enquiry.ProspectEmail = prospectEmail.String
	enquiry.Phone = phone.String
	enquiry.SecondaryPhone = secondaryPhone.String
	enquiry.FeeEarner = feeEarner.String
	enquiry.FeeEarnerEmail = feeEarnerEmail.String
	enquiry.AreaOfWork = areaOfWork.String
	enquiry.Rating = rating.String
	enquiry.Notes = notes.String
	if lastTouchpoint.Valid {
		enquiry.LastTouchpoint = lastTouchpoint.Time
	}

	return &enquiry, nil
}

// ListRecent returns the most recently received enquiries, newest first.
func (r *EnquiryRepository) ListRecent(ctx context.Context, limit int) ([]models.Enquiry, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, prospect_name, prospect_email, phone, secondary_phone,
		       fee_earner, fee_earner_email, area_of_work, rating, notes,
		       received_at, last_touchpoint
		FROM enquiries
		ORDER BY received_at DESC
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list enquiries: %w", err)
	}
	defer rows.Close()

	var enquiries []models.Enquiry
	for rows.Next() {
		var (
			enquiry        models.Enquiry
			prospectName   sql.NullString
			prospectEmail  sql.NullString
			phone          sql.NullString
			secondaryPhone sql.NullString
			feeEarner      sql.NullString
			feeEarnerEmail sql.NullString
			areaOfWork     sql.NullString
			rating         sql.NullString
			notes          sql.NullString
			lastTouchpoint sql.NullTime
		)

		if err := rows.Scan(
			&enquiry.ID,
			&prospectName,
			&prospectEmail,
			&phone,
			&secondaryPhone,
			&feeEarner,
			&feeEarnerEmail,
			&areaOfWork,
			&rating,
			&notes,
			&enquiry.ReceivedAt,
			&lastTouchpoint,
		); err != nil {
			return nil, fmt.Errorf("failed to scan enquiry: %w", err)
		}

		enquiry.ProspectName = prospectName.String
		enquiry.ProspectEmail = prospectEmail.String
		enquiry.Phone = phone.String
		enquiry.SecondaryPhone = secondaryPhone.String
		enquiry.FeeEarner = feeEarner.String
		enquiry.FeeEarnerEmail = feeEarnerEmail.String
		enquiry.AreaOfWork = areaOfWork.String
		enquiry.Rating = rating.String
		enquiry.Notes = notes.String
		if lastTouchpoint.Valid {
			enquiry.LastTouchpoint = lastTouchpoint.Time
		}

		enquiries = append(enquiries, enquiry)
	}

	return enquiries, rows.Err()
}
