package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestUpstreamClient(t *testing.T) {
	t.Run("Given a configured client When fetching events Then the API key header is sent", func(t *testing.T) {
		var gotKey, gotPath string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotKey = r.Header.Get("X-API-Key")
			gotPath = r.URL.Path
			w.Write([]byte(`[{"id":"ev1"}]`))
		}))
		defer server.Close()

		client := NewUpstreamClientWith(server.URL, "secret-key")

		body, err := client.Events(context.Background(), nil)
		if err != nil {
			t.Fatalf("Events: %v", err)
		}
		if gotKey != "secret-key" {
			t.Errorf("X-API-Key = %q, attendu %q", gotKey, "secret-key")
		}
		if gotPath != "/v1/events" {
			t.Errorf("path = %q, attendu /v1/events", gotPath)
		}
		if string(body) != `[{"id":"ev1"}]` {
			t.Errorf("body = %s", body)
		}
	})

	t.Run("Given an upstream error When fetching a booking Then the status is surfaced", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "not found", http.StatusNotFound)
		}))
		defer server.Close()

		client := NewUpstreamClientWith(server.URL, "k")

		_, err := client.Booking(context.Background(), "BK-404")
		if err == nil {
			t.Fatal("attendu une erreur pour un statut 404")
		}
	})

	t.Run("Given a booking payload When creating a booking Then the response is decoded", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				t.Errorf("méthode = %s, attendu POST", r.Method)
			}
			var params CreateBookingParams
			if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
				t.Errorf("décodage params: %v", err)
			}
			if params.EventID != "ev42" || params.Seats != 2 {
				t.Errorf("params inattendus: %+v", params)
			}
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"reference":   "BK-001",
				"event_id":    "ev42",
				"seats":       2,
				"total_price": 90.0,
				"status":      "pending",
			})
		}))
		defer server.Close()

		client := NewUpstreamClientWith(server.URL, "k")

		booking, err := client.CreateBooking(context.Background(), CreateBookingParams{
			EventID: "ev42", Seats: 2, Customer: "c1",
		})
		if err != nil {
			t.Fatalf("CreateBooking: %v", err)
		}
		if booking.Reference != "BK-001" {
			t.Errorf("reference = %q", booking.Reference)
		}
		if booking.TotalPrice != 90.0 {
			t.Errorf("total = %v", booking.TotalPrice)
		}
	})

	t.Run("Given a tournament filter When listing tournaments Then it is passed as query", func(t *testing.T) {
		var gotQuery string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotQuery = r.URL.RawQuery
			w.Write([]byte(`[]`))
		}))
		defer server.Close()

		client := NewUpstreamClientWith(server.URL, "k")

		if _, err := client.Tournaments(context.Background(), "s9"); err != nil {
			t.Fatalf("Tournaments: %v", err)
		}
		if gotQuery != "sport_id=s9" {
			t.Errorf("query = %q, attendu sport_id=s9", gotQuery)
		}
	})
}
