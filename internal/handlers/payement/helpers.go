package payement

import (
	"fmt"
	"math"

	"tribune_back_end/internal/models"
	"tribune_back_end/internal/workflow"
)

// Service workflow partagé par les handlers paiement, injecté au démarrage
var requests *workflow.Service

func InitWorkflow(svc *workflow.Service) {
	requests = svc
}

// amountToCents convertit un montant en euros vers les centimes Stripe.
// L'arrondi évite qu'une imprécision flottante (19.99 → 1998.999…)
// tronque d'un centime
func amountToCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func generatePaymentConfirmationHTML(booking models.Booking) string {
	return fmt.Sprintf(`
<!DOCTYPE html>
<html lang="fr">
<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
	<title>Confirmation de réservation</title>
</head>
<body style="font-family: Arial, sans-serif; background-color: #f9f9f9; padding: 20px;">
	<div style="max-width: 600px; margin: auto; background-color: white; padding: 20px; border-radius: 10px;">
		<h2 style="color: #333;">🎟️ Vos places sont confirmées</h2>
		<p>Bonjour,</p>
		<p>Votre paiement a bien été reçu. Retrouvez votre e-billet en pièce jointe ou dans votre espace client.</p>

		<h3>Détails de la réservation</h3>
		<table style="width: 100%%; border-collapse: collapse; margin: 20px 0;">
			<tr>
				<td style="padding: 10px; border: 1px solid #ddd;"><strong>Événement</strong></td>
				<td style="padding: 10px; border: 1px solid #ddd;">%s</td>
			</tr>
			<tr>
				<td style="padding: 10px; border: 1px solid #ddd;"><strong>Référence</strong></td>
				<td style="padding: 10px; border: 1px solid #ddd;">%s</td>
			</tr>
			<tr>
				<td style="padding: 10px; border: 1px solid #ddd;"><strong>Places</strong></td>
				<td style="padding: 10px; border: 1px solid #ddd;">%d</td>
			</tr>
			<tr>
				<td style="padding: 10px; border: 1px solid #ddd;"><strong>Total</strong></td>
				<td style="padding: 10px; border: 1px solid #ddd;">%.2f€</td>
			</tr>
		</table>

		<p style="margin-top: 30px; color: #555;">
			Cordialement,<br>
			<strong>L'équipe Tribune</strong>
		</p>
	</div>
</body>
</html>`, booking.EventName, booking.UpstreamRef, booking.Seats, booking.TotalPrice)
}
