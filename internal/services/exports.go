package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/minio/minio-go/v7"

	"tribune_back_end/internal/database"
	"tribune_back_end/internal/models"
)

const ExportURLExpiry = 24 * time.Hour

// BuildRequestsCSV sérialise une liste de demandes au format CSV
func BuildRequestsCSV(requests []models.Request) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{
		"reference", "type", "reservation", "client", "email",
		"montant_demande", "montant_approuve", "frais", "statut",
		"priorite", "raison", "demande_le", "traite_le",
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, r := range requests {
		approved := ""
		if r.ApprovedAmount != nil {
			approved = strconv.FormatFloat(*r.ApprovedAmount, 'f', 2, 64)
		}
		reviewed := ""
		if r.ReviewedAt != nil {
			reviewed = r.ReviewedAt.Format(time.RFC3339)
		}

		row := []string{
			r.Reference,
			r.Kind,
			r.BookingID,
			r.CustomerName,
			r.CustomerEmail,
			strconv.FormatFloat(r.RequestedAmount, 'f', 2, 64),
			approved,
			strconv.FormatFloat(r.FeeAmount, 'f', 2, 64),
			r.Status,
			r.Priority,
			r.Reason,
			r.RequestedAt.Format(time.RFC3339),
			reviewed,
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UploadExport archive un export CSV dans MinIO et retourne le nom d'objet
func UploadExport(ctx context.Context, data []byte) (string, error) {
	if database.MinIO == nil {
		return "", fmt.Errorf("MinIO non initialisé")
	}

	bucket := os.Getenv("MINIO_BUCKET")
	objectName := fmt.Sprintf("exports/demandes_%s.csv", time.Now().Format("20060102_150405"))

	_, err := database.MinIO.PutObject(ctx, bucket, objectName,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "text/csv"})
	if err != nil {
		return "", err
	}

	return objectName, nil
}

// GenerateSignedURL génère une URL de téléchargement signée avec expiration
func GenerateSignedURL(ctx context.Context, objectName string, duration time.Duration) (string, error) {
	if database.MinIO == nil {
		return "", fmt.Errorf("MinIO non initialisé")
	}

	reqParams := make(url.Values)
	bucket := os.Getenv("MINIO_BUCKET")

	presignedURL, err := database.MinIO.PresignedGetObject(ctx, bucket, objectName, duration, reqParams)
	if err != nil {
		return "", err
	}

	return presignedURL.String(), nil
}
