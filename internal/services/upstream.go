package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"tribune_back_end/internal/models"
)

// UpstreamClient encapsule l'API du fournisseur billetterie.
// Toutes les requêtes portent la clé dans le header X-API-Key.
type UpstreamClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewUpstreamClient() *UpstreamClient {
	return &UpstreamClient{
		baseURL: os.Getenv("UPSTREAM_API_URL"),
		apiKey:  os.Getenv("UPSTREAM_API_KEY"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// NewUpstreamClientWith permet d'injecter l'URL et la clé (tests)
func NewUpstreamClientWith(baseURL, apiKey string) *UpstreamClient {
	return &UpstreamClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *UpstreamClient) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-API-Key", c.apiKey)

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fournisseur injoignable: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fournisseur a renvoyé %d: %s", res.StatusCode, string(body))
	}
	return body, nil
}

func (c *UpstreamClient) post(ctx context.Context, path string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fournisseur injoignable: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}
	if res.StatusCode != http.StatusOK && res.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("fournisseur a renvoyé %d: %s", res.StatusCode, string(body))
	}
	return body, nil
}

//
// --- CATALOGUE (relayé en JSON brut) ---
//

func (c *UpstreamClient) Sports(ctx context.Context) ([]byte, error) {
	return c.get(ctx, "/v1/sports", nil)
}

func (c *UpstreamClient) Tournaments(ctx context.Context, sportID string) ([]byte, error) {
	q := url.Values{}
	if sportID != "" {
		q.Set("sport_id", sportID)
	}
	return c.get(ctx, "/v1/tournaments", q)
}

func (c *UpstreamClient) Teams(ctx context.Context, tournamentID string) ([]byte, error) {
	q := url.Values{}
	if tournamentID != "" {
		q.Set("tournament_id", tournamentID)
	}
	return c.get(ctx, "/v1/teams", q)
}

func (c *UpstreamClient) Cities(ctx context.Context) ([]byte, error) {
	return c.get(ctx, "/v1/cities", nil)
}

func (c *UpstreamClient) Countries(ctx context.Context) ([]byte, error) {
	return c.get(ctx, "/v1/countries", nil)
}

func (c *UpstreamClient) Events(ctx context.Context, filters url.Values) ([]byte, error) {
	return c.get(ctx, "/v1/events", filters)
}

func (c *UpstreamClient) EventDetails(ctx context.Context, eventID string) ([]byte, error) {
	return c.get(ctx, "/v1/events/"+url.PathEscape(eventID), nil)
}

//
// --- RÉSERVATIONS (décodées) ---
//

type CreateBookingParams struct {
	EventID  string `json:"event_id"`
	Seats    int    `json:"seats"`
	Customer string `json:"customer"`
}

func (c *UpstreamClient) CreateBooking(ctx context.Context, params CreateBookingParams) (*models.UpstreamBooking, error) {
	body, err := c.post(ctx, "/v1/bookings", params)
	if err != nil {
		return nil, err
	}

	var booking models.UpstreamBooking
	if err := json.Unmarshal(body, &booking); err != nil {
		return nil, fmt.Errorf("réponse réservation illisible: %w", err)
	}
	return &booking, nil
}

func (c *UpstreamClient) Booking(ctx context.Context, reference string) (*models.UpstreamBooking, error) {
	body, err := c.get(ctx, "/v1/bookings/"+url.PathEscape(reference), nil)
	if err != nil {
		return nil, err
	}

	var booking models.UpstreamBooking
	if err := json.Unmarshal(body, &booking); err != nil {
		return nil, fmt.Errorf("réponse réservation illisible: %w", err)
	}
	return &booking, nil
}

func (c *UpstreamClient) ETicket(ctx context.Context, reference string) (*models.UpstreamETicket, error) {
	body, err := c.get(ctx, "/v1/bookings/"+url.PathEscape(reference)+"/eticket", nil)
	if err != nil {
		return nil, err
	}

	var ticket models.UpstreamETicket
	if err := json.Unmarshal(body, &ticket); err != nil {
		return nil, fmt.Errorf("réponse e-billet illisible: %w", err)
	}
	return &ticket, nil
}
