package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/uyirthuli/donor-match-service/internal/core/domain"
	"github.com/uyirthuli/donor-match-service/internal/core/services"
	"github.com/uyirthuli/donor-match-service/test/mocks"
)

func TestUpdateLocation(t *testing.T) {
	t.Run("rejects_out_of_range_coordinates", func(t *testing.T) {
		service := services.NewDonorService(mocks.NewMockStore(), mocks.NewMockDonorIndex())
		for _, loc := range []domain.Coordinates{
			{Latitude: 91, Longitude: 0},
			{Latitude: -91, Longitude: 0},
			{Latitude: 0, Longitude: 181},
			{Latitude: 0, Longitude: -181},
		} {
			err := service.UpdateLocation(context.Background(), "d1", loc)
			var validation *domain.ValidationError
			if !errors.As(err, &validation) {
				t.Errorf("UpdateLocation(%+v): got %v, want ValidationError", loc, err)
			}
		}
	})

	t.Run("updates_store_and_index", func(t *testing.T) {
		store := mocks.NewMockStore()
		store.SeedDonor(mocks.TestDonor("d1", mocks.MustBlood("A", "+"), testLat, testLon))
		index := mocks.NewMockDonorIndex()

		service := services.NewDonorService(store, index)
		if err := service.UpdateLocation(context.Background(), "d1", domain.Coordinates{Latitude: 12.9716, Longitude: 77.5946}); err != nil {
			t.Fatalf("UpdateLocation failed: %v", err)
		}
		if len(index.UpsertCalls) != 1 || index.UpsertCalls[0] != "d1" {
			t.Errorf("index upserts = %v, want [d1]", index.UpsertCalls)
		}
	})

	t.Run("skips_index_without_location_consent", func(t *testing.T) {
		store := mocks.NewMockStore()
		donor := mocks.TestDonor("d1", mocks.MustBlood("A", "+"), testLat, testLon)
		donor.Consent.ShareLocation = false
		store.SeedDonor(donor)
		index := mocks.NewMockDonorIndex()

		service := services.NewDonorService(store, index)
		if err := service.UpdateLocation(context.Background(), "d1", domain.Coordinates{Latitude: 12.9716, Longitude: 77.5946}); err != nil {
			t.Fatalf("UpdateLocation failed: %v", err)
		}
		if len(index.UpsertCalls) != 0 {
			t.Errorf("donor without location consent must not be indexed, got upserts %v", index.UpsertCalls)
		}
	})

	t.Run("tolerates_index_failure", func(t *testing.T) {
		store := mocks.NewMockStore()
		store.SeedDonor(mocks.TestDonor("d1", mocks.MustBlood("A", "+"), testLat, testLon))
		index := mocks.NewMockDonorIndex()
		index.UpsertError = errors.New("connection refused")

		service := services.NewDonorService(store, index)
		if err := service.UpdateLocation(context.Background(), "d1", domain.Coordinates{Latitude: 12.9716, Longitude: 77.5946}); err != nil {
			t.Errorf("index failure must not fail the update: %v", err)
		}
	})

	t.Run("unknown_donor", func(t *testing.T) {
		service := services.NewDonorService(mocks.NewMockStore(), mocks.NewMockDonorIndex())
		err := service.UpdateLocation(context.Background(), "missing", domain.Coordinates{Latitude: 1, Longitude: 1})
		if !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("got %v, want ErrNotFound", err)
		}
	})
}

func TestUpdateAvailability(t *testing.T) {
	t.Run("rejects_unknown_state", func(t *testing.T) {
		service := services.NewDonorService(mocks.NewMockStore(), mocks.NewMockDonorIndex())
		err := service.UpdateAvailability(context.Background(), "d1", domain.Availability("SLEEPING"))
		var validation *domain.ValidationError
		if !errors.As(err, &validation) {
			t.Errorf("got %v, want ValidationError", err)
		}
	})

	t.Run("unavailable_leaves_the_index", func(t *testing.T) {
		store := mocks.NewMockStore()
		store.SeedDonor(mocks.TestDonor("d1", mocks.MustBlood("A", "+"), testLat, testLon))
		index := mocks.NewMockDonorIndex()
		index.Seed("d1", domain.Coordinates{Latitude: testLat, Longitude: testLon})

		service := services.NewDonorService(store, index)
		if err := service.UpdateAvailability(context.Background(), "d1", domain.Unavailable); err != nil {
			t.Fatalf("UpdateAvailability failed: %v", err)
		}
		if len(index.RemoveCalls) != 1 || index.RemoveCalls[0] != "d1" {
			t.Errorf("index removals = %v, want [d1]", index.RemoveCalls)
		}
	})

	t.Run("available_reindexes_known_location", func(t *testing.T) {
		store := mocks.NewMockStore()
		store.SeedDonor(mocks.TestDonor("d1", mocks.MustBlood("A", "+"), testLat, testLon))
		index := mocks.NewMockDonorIndex()

		service := services.NewDonorService(store, index)
		if err := service.UpdateAvailability(context.Background(), "d1", domain.Available); err != nil {
			t.Fatalf("UpdateAvailability failed: %v", err)
		}
		if len(index.UpsertCalls) != 1 || index.UpsertCalls[0] != "d1" {
			t.Errorf("index upserts = %v, want [d1]", index.UpsertCalls)
		}
	})

	t.Run("available_without_location_skips_index", func(t *testing.T) {
		store := mocks.NewMockStore()
		donor := mocks.TestDonor("d1", mocks.MustBlood("A", "+"), testLat, testLon)
		donor.Location = nil
		store.SeedDonor(donor)
		index := mocks.NewMockDonorIndex()

		service := services.NewDonorService(store, index)
		if err := service.UpdateAvailability(context.Background(), "d1", domain.Available); err != nil {
			t.Fatalf("UpdateAvailability failed: %v", err)
		}
		if len(index.UpsertCalls) != 0 {
			t.Errorf("donor with no location must not be indexed, got %v", index.UpsertCalls)
		}
	})
}
