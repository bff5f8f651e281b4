package models

// DTOs minimaux pour les réponses du fournisseur billetterie.
// La majorité des endpoints catalogue sont relayés tels quels (JSON brut),
// seules les réservations et e-billets sont décodés côté serveur.

type UpstreamBooking struct {
	Reference  string  `json:"reference"`
	EventID    string  `json:"event_id"`
	EventName  string  `json:"event_name"`
	Seats      int     `json:"seats"`
	TotalPrice float64 `json:"total_price"`
	Currency   string  `json:"currency"`
	Status     string  `json:"status"`
}

type UpstreamETicket struct {
	BookingReference string `json:"booking_reference"`
	TicketNumber     string `json:"ticket_number"`
	HolderName       string `json:"holder_name"`
	Barcode          string `json:"barcode"`
}
