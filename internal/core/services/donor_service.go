package services

import (
	"context"
	"log"

	"github.com/uyirthuli/donor-match-service/internal/core/domain"
	"github.com/uyirthuli/donor-match-service/internal/core/ports"
)

// DonorService handles the donor-side mutations this subsystem owns:
// availability and last known location. Both keep the geo index in
// step with the database; a failed index write is logged and tolerated
// because the bounding-box fallback still finds the donor.
type DonorService struct {
	donors ports.DonorRepository
	index  ports.DonorIndex
}

var _ ports.DonorService = (*DonorService)(nil)

func NewDonorService(donors ports.DonorRepository, index ports.DonorIndex) *DonorService {
	return &DonorService{donors: donors, index: index}
}

func (s *DonorService) UpdateLocation(ctx context.Context, donorID string, loc domain.Coordinates) error {
	if loc.Latitude < -90 || loc.Latitude > 90 {
		return &domain.ValidationError{Field: "latitude", Reason: "latitude must be between -90 and 90"}
	}
	if loc.Longitude < -180 || loc.Longitude > 180 {
		return &domain.ValidationError{Field: "longitude", Reason: "longitude must be between -180 and 180"}
	}

	donor, err := s.donors.GetDonor(ctx, donorID)
	if err != nil {
		return err
	}

	if err := s.donors.UpdateLocation(ctx, donorID, loc); err != nil {
		return err
	}

	if !donor.Consent.ShareLocation {
		return nil
	}
	if err := s.index.Upsert(ctx, donorID, loc); err != nil {
		log.Printf("donors: failed to update geo index for %s: %v", donorID, err)
	}
	return nil
}

func (s *DonorService) UpdateAvailability(ctx context.Context, donorID string, availability domain.Availability) error {
	if availability != domain.Available && availability != domain.Unavailable {
		return &domain.ValidationError{Field: "availability", Reason: "availability must be AVAILABLE or UNAVAILABLE"}
	}

	donor, err := s.donors.GetDonor(ctx, donorID)
	if err != nil {
		return err
	}

	if err := s.donors.UpdateAvailability(ctx, donorID, availability); err != nil {
		return err
	}

	// Unavailable donors drop out of the index so pools stay small;
	// coming back online re-registers their last known location.
	switch availability {
	case domain.Unavailable:
		if err := s.index.Remove(ctx, donorID); err != nil {
			log.Printf("donors: failed to remove %s from geo index: %v", donorID, err)
		}
	case domain.Available:
		if loc := donor.KnownLocation(); loc != nil {
			if err := s.index.Upsert(ctx, donorID, *loc); err != nil {
				log.Printf("donors: failed to re-index %s: %v", donorID, err)
			}
		}
	}
	return nil
}
