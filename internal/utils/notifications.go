package utils

import (
	"fmt"
	"log"
	"os"

	"tribune_back_end/internal/models"
)

// SendRequestStatusEmail notifie le client d'un changement de statut de sa demande
func SendRequestStatusEmail(req models.Request, newStatus string) error {
	if req.CustomerEmail == "" {
		return nil
	}

	subject := getRequestEmailSubject(req.Kind, newStatus)
	html := generateRequestStatusHTML(req, newStatus)

	err := SendConfirmationEmail(req.CustomerEmail, subject, html, nil)
	if err != nil {
		log.Printf("❌ Erreur envoi email statut: %v", err)
		return err
	}

	log.Printf("📧 Email de statut envoyé: %s → %s", newStatus, req.CustomerEmail)
	return nil
}

func getRequestEmailSubject(kind, status string) string {
	label := "d'annulation"
	if kind == models.RequestKindRefund {
		label = "de remboursement"
	}

	switch status {
	case models.StatusApproved:
		return fmt.Sprintf("✅ Demande %s approuvée - Tribune", label)
	case models.StatusRejected:
		return fmt.Sprintf("❌ Demande %s refusée - Tribune", label)
	case models.StatusProcessing:
		return "💰 Remboursement en cours - Tribune"
	case models.StatusCompleted:
		return fmt.Sprintf("🎉 Demande %s finalisée - Tribune", label)
	default:
		return fmt.Sprintf("📋 Mise à jour de votre demande %s - Tribune", label)
	}
}

func getRequestStatusMessage(status string) string {
	switch status {
	case models.StatusApproved:
		return "Bonne nouvelle ! Votre demande a été approuvée par notre équipe."
	case models.StatusRejected:
		return "Après examen, nous ne pouvons malheureusement pas donner suite à votre demande."
	case models.StatusProcessing:
		return "Votre remboursement est en cours de traitement auprès de notre prestataire de paiement."
	case models.StatusCompleted:
		return "Votre demande a été finalisée. Si un remboursement était dû, les fonds seront crédités sous 5-10 jours ouvrés."
	default:
		return "Le statut de votre demande a été mis à jour."
	}
}

func getRequestStatusColor(status string) string {
	switch status {
	case models.StatusApproved:
		return "#10b981" // Green
	case models.StatusRejected:
		return "#ef4444" // Red
	case models.StatusProcessing:
		return "#f59e0b" // Orange
	case models.StatusCompleted:
		return "#8b5cf6" // Purple
	default:
		return "#6b7280" // Gray
	}
}

func generateRequestStatusHTML(req models.Request, status string) string {
	statusMessage := getRequestStatusMessage(status)
	statusColor := getRequestStatusColor(status)

	frontURL := os.Getenv("FRONTEND_URL")
	if frontURL == "" {
		frontURL = "https://tribune-tickets.com"
	}

	amountRow := ""
	if net := req.NetRefundAmount(); net != nil && status != models.StatusRejected {
		amountRow = fmt.Sprintf(`
                                            <tr>
                                                <td style="padding: 8px 0; color: #666666; font-size: 14px;">
                                                    <strong style="color: #333333;">Montant remboursé:</strong>
                                                </td>
                                                <td style="padding: 8px 0; color: #047857; font-size: 14px; text-align: right; font-weight: 600;">
                                                    %.2f€
                                                </td>
                                            </tr>`, *net)
	}

	reasonBlock := ""
	if status == models.StatusRejected && req.RejectionReason != "" {
		reasonBlock = fmt.Sprintf(`
                            <table role="presentation" style="width: 100%%; border-collapse: collapse; background-color: #fef2f2; border-left: 4px solid #ef4444; border-radius: 8px; margin: 25px 0;">
                                <tr>
                                    <td style="padding: 20px;">
                                        <h3 style="margin: 0 0 15px 0; color: #991b1b; font-size: 18px; font-weight: 600;">
                                            📋 Raison du refus
                                        </h3>
                                        <p style="margin: 0; color: #7f1d1d; font-size: 14px; line-height: 1.6;">
                                            %s
                                        </p>
                                    </td>
                                </tr>
                            </table>`, req.RejectionReason)
	}

	return fmt.Sprintf(`
<!DOCTYPE html>
<html lang="fr">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Mise à jour de votre demande</title>
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif; background-color: #f5f5f5;">
    <table role="presentation" style="width: 100%%; border-collapse: collapse; background-color: #f5f5f5;">
        <tr>
            <td style="padding: 40px 20px;">
                <table role="presentation" style="max-width: 600px; margin: 0 auto; background-color: #ffffff; border-radius: 12px; box-shadow: 0 4px 6px rgba(0,0,0,0.1);">
                    <!-- Header -->
                    <tr>
                        <td style="background: linear-gradient(135deg, #667eea 0%%, #764ba2 100%%); padding: 40px 30px; text-align: center; border-radius: 12px 12px 0 0;">
                            <h1 style="margin: 0; color: #ffffff; font-size: 28px; font-weight: 600;">
                                🎟️ Tribune
                            </h1>
                            <p style="margin: 10px 0 0 0; color: #ffffff; font-size: 16px; opacity: 0.9;">
                                Mise à jour de votre demande
                            </p>
                        </td>
                    </tr>

                    <!-- Status Badge -->
                    <tr>
                        <td style="padding: 30px 30px 0 30px; text-align: center;">
                            <div style="display: inline-block; padding: 12px 24px; background-color: %s; color: #ffffff; border-radius: 25px; font-weight: 600; font-size: 14px; text-transform: uppercase; letter-spacing: 0.5px;">
                                %s
                            </div>
                        </td>
                    </tr>

                    <!-- Content -->
                    <tr>
                        <td style="padding: 30px;">
                            <p style="margin: 0 0 20px 0; color: #333333; font-size: 16px; line-height: 1.6;">
                                %s
                            </p>
%s
                            <!-- Request Info Box -->
                            <table role="presentation" style="width: 100%%; border-collapse: collapse; background-color: #f8f9fa; border-radius: 8px; margin: 20px 0;">
                                <tr>
                                    <td style="padding: 20px;">
                                        <h3 style="margin: 0 0 15px 0; color: #333333; font-size: 18px; font-weight: 600;">
                                            📋 Détails de la demande
                                        </h3>
                                        <table role="presentation" style="width: 100%%; border-collapse: collapse;">
                                            <tr>
                                                <td style="padding: 8px 0; color: #666666; font-size: 14px;">
                                                    <strong style="color: #333333;">Référence:</strong>
                                                </td>
                                                <td style="padding: 8px 0; color: #333333; font-size: 14px; text-align: right;">
                                                    %s
                                                </td>
                                            </tr>%s
                                            <tr>
                                                <td style="padding: 8px 0; color: #666666; font-size: 14px;">
                                                    <strong style="color: #333333;">Statut:</strong>
                                                </td>
                                                <td style="padding: 8px 0; color: %s; font-size: 14px; text-align: right; font-weight: 600;">
                                                    %s
                                                </td>
                                            </tr>
                                        </table>
                                    </td>
                                </tr>
                            </table>

                            <!-- CTA Button -->
                            <table role="presentation" style="width: 100%%; margin: 30px 0;">
                                <tr>
                                    <td style="text-align: center;">
                                        <a href="%s/requests" style="display: inline-block; padding: 14px 32px; background-color: #667eea; color: #ffffff; text-decoration: none; border-radius: 6px; font-weight: 600; font-size: 15px;">
                                            Voir ma demande
                                        </a>
                                    </td>
                                </tr>
                            </table>

                            <p style="margin: 20px 0 0 0; color: #666666; font-size: 14px; line-height: 1.6;">
                                Vous avez des questions ? Notre équipe support est disponible 7j/7 pour vous aider.
                            </p>
                        </td>
                    </tr>

                    <!-- Footer -->
                    <tr>
                        <td style="padding: 30px; background-color: #f8f9fa; border-radius: 0 0 12px 12px; text-align: center;">
                            <p style="margin: 0 0 10px 0; color: #999999; font-size: 12px;">
                                © 2026 Tribune - Tous droits réservés
                            </p>
                            <p style="margin: 0; color: #999999; font-size: 12px;">
                                Cet email a été envoyé automatiquement, merci de ne pas y répondre.
                            </p>
                        </td>
                    </tr>
                </table>
            </td>
        </tr>
    </table>
</body>
</html>
`, statusColor, status, statusMessage, reasonBlock, req.Reference, amountRow, statusColor, status, frontURL)
}

// SendRequestReceivedEmail confirme la réception d'une demande au client
func SendRequestReceivedEmail(req models.Request) error {
	if req.CustomerEmail == "" {
		return nil
	}

	label := "d'annulation"
	if req.Kind == models.RequestKindRefund {
		label = "de remboursement"
	}
	subject := fmt.Sprintf("💰 Demande %s reçue - Tribune", label)

	html := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: linear-gradient(135deg, #667eea 0%%, #764ba2 100%%); color: white; padding: 30px; text-align: center; border-radius: 10px 10px 0 0; }
        .content { background: #f9f9f9; padding: 30px; border-radius: 0 0 10px 10px; }
        .info-box { background: white; padding: 20px; border-radius: 8px; margin: 20px 0; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>💰 Demande %s</h1>
        </div>
        <div class="content">
            <p>Bonjour %s,</p>
            <p>Nous avons bien reçu votre demande.</p>

            <div class="info-box">
                <h3>Détails</h3>
                <p><strong>Référence:</strong> %s</p>
                <p><strong>Réservation:</strong> %s</p>
                <p><strong>Raison:</strong> %s</p>
                <p><strong>Statut:</strong> En attente de traitement</p>
            </div>

            <p>Notre équipe va examiner votre demande dans les plus brefs délais. Vous recevrez une notification par email une fois la décision prise.</p>

            <p>Délai de traitement habituel : 2-5 jours ouvrés</p>
        </div>
    </div>
</body>
</html>
`, label, req.CustomerName, req.Reference, req.BookingID, req.Reason)

	return SendConfirmationEmail(req.CustomerEmail, subject, html, nil)
}

// SendWelcomeEmail envoie un email de bienvenue après inscription
func SendWelcomeEmail(userEmail, userName string) error {
	subject := "🎉 Bienvenue sur Tribune !"

	html := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: linear-gradient(135deg, #667eea 0%%, #764ba2 100%%); color: white; padding: 30px; text-align: center; border-radius: 10px 10px 0 0; }
        .content { background: #f9f9f9; padding: 30px; border-radius: 0 0 10px 10px; }
        .cta-button { display: inline-block; padding: 15px 30px; background: #667eea; color: white; text-decoration: none; border-radius: 5px; margin: 20px 0; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>🎉 Bienvenue %s !</h1>
        </div>
        <div class="content">
            <p>Merci de vous être inscrit sur Tribune, votre billetterie sportive en ligne.</p>

            <p>Découvrez dès maintenant les prochains matchs et réservez vos places en quelques clics !</p>

            <a href="#" class="cta-button">Voir les événements</a>

            <h3>Avantages membres :</h3>
            <ul>
                <li>✅ E-tickets avec QR code instantanés</li>
                <li>✅ Annulation simplifiée</li>
                <li>✅ Remboursement sécurisé</li>
                <li>✅ Support client 7j/7</li>
            </ul>
        </div>
    </div>
</body>
</html>
`, userName)

	return SendConfirmationEmail(userEmail, subject, html, nil)
}
