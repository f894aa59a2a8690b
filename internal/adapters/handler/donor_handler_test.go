package handler_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/uyirthuli/donor-match-service/internal/adapters/handler"
	"github.com/uyirthuli/donor-match-service/internal/core/services"
	"github.com/uyirthuli/donor-match-service/test/mocks"
)

func newDonorHandler(store *mocks.MockStore, index *mocks.MockDonorIndex) *handler.DonorHandler {
	return handler.NewDonorHandler(services.NewDonorService(store, index))
}

func TestUpdateLocationEndpoint(t *testing.T) {
	store := mocks.NewMockStore()
	store.SeedDonor(mocks.TestDonor("d1", mocks.MustBlood("B", "+"), handlerLat, handlerLon))
	index := mocks.NewMockDonorIndex()
	h := newDonorHandler(store, index)

	put := func(callerID, body string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodPut, "/donors/me/location", strings.NewReader(body))
		if callerID != "" {
			r = authed(r, callerID)
		}
		w := httptest.NewRecorder()
		h.UpdateLocation(w, r)
		return w
	}

	if w := put("", `{"latitude":12.9716,"longitude":77.5946}`); w.Code != http.StatusUnauthorized {
		t.Errorf("missing identity: status = %d, want 401", w.Code)
	}
	if w := put("d1", `{bad json`); w.Code != http.StatusBadRequest {
		t.Errorf("malformed body: status = %d, want 400", w.Code)
	}
	if w := put("d1", `{"latitude":91,"longitude":0}`); w.Code != http.StatusBadRequest {
		t.Errorf("out of range latitude: status = %d, want 400", w.Code)
	}
	if w := put("missing", `{"latitude":12.9716,"longitude":77.5946}`); w.Code != http.StatusNotFound {
		t.Errorf("unknown donor: status = %d, want 404", w.Code)
	}

	w := put("d1", `{"latitude":12.9716,"longitude":77.5946}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", w.Code, w.Body.String())
	}
	if len(index.UpsertCalls) != 1 || index.UpsertCalls[0] != "d1" {
		t.Errorf("index upserts = %v, want [d1]", index.UpsertCalls)
	}
}

func TestUpdateAvailabilityEndpoint(t *testing.T) {
	store := mocks.NewMockStore()
	store.SeedDonor(mocks.TestDonor("d1", mocks.MustBlood("B", "+"), handlerLat, handlerLon))
	index := mocks.NewMockDonorIndex()
	seeded := mocks.TestDonor("d1", mocks.MustBlood("B", "+"), handlerLat, handlerLon)
	index.Seed("d1", *seeded.KnownLocation())
	h := newDonorHandler(store, index)

	put := func(body string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodPut, "/donors/me/availability", strings.NewReader(body))
		r = authed(r, "d1")
		w := httptest.NewRecorder()
		h.UpdateAvailability(w, r)
		return w
	}

	if w := put(`{"availability":"SLEEPING"}`); w.Code != http.StatusBadRequest {
		t.Errorf("unknown state: status = %d, want 400", w.Code)
	}

	w := put(`{"availability":"UNAVAILABLE"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", w.Code, w.Body.String())
	}
	if len(index.RemoveCalls) != 1 || index.RemoveCalls[0] != "d1" {
		t.Errorf("index removals = %v, want [d1]", index.RemoveCalls)
	}
}
