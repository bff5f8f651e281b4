package utils

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/skip2/go-qrcode"
)

// GenerateETicketQR génère le QR code d'un e-ticket en base64 prêt à
// mettre dans <img src="...">. Le payload reprend le format du système
// de billetterie amont: TRIBUNE|<booking>|<event>|<seat>
func GenerateETicketQR(bookingRef, eventID, seat string) (string, error) {
	payload := fmt.Sprintf("TRIBUNE|%s|%s|%s", bookingRef, eventID, seat)

	png, err := qrcode.Encode(payload, qrcode.Medium, 256)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

// RenderConfirmationPDF charge la page React du front et l'imprime en PDF.
// frontendURL doit ressembler à: http://localhost:3000/confirmation
func RenderConfirmationPDF(frontendURL, reference, qrBase64 string) ([]byte, error) {
	// on passe les params en query
	q := url.Values{}
	q.Set("ref", reference)
	q.Set("qr", qrBase64)

	fullURL := fmt.Sprintf("%s?%s", frontendURL, q.Encode())

	ctx, cancel := chromedp.NewContext(context.Background())
	defer cancel()

	// timeout pour éviter de bloquer
	ctx, cancel = context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	var pdfBuf []byte

	err := chromedp.Run(ctx,
		chromedp.Navigate(fullURL),
		chromedp.WaitVisible("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPreferCSSPageSize(true).
				Do(ctx)
			if err != nil {
				return err
			}
			pdfBuf = buf
			return nil
		}),
	)
	if err != nil {
		return nil, err
	}

	return pdfBuf, nil
}

// Helper: récupère l'URL du front depuis l'env
func GetFrontendConfirmationBaseURL() string {
	u := os.Getenv("FRONTEND_CONFIRMATION_URL")
	if u == "" {
		// fallback local dev
		return "http://localhost:3000/confirmation"
	}
	return u
}
