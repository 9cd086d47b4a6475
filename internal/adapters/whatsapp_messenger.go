package adapters

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"path"
	"strings"

	"autoparts_quotes_backend/internal/adapters/storage"
	purchasingsvc "autoparts_quotes_backend/internal/purchasing/service"
	quoterequestsvc "autoparts_quotes_backend/internal/quoterequests/service"
	"autoparts_quotes_backend/internal/whatsapp/gateway"
	"autoparts_quotes_backend/platform/tenancy"
)

const (
	mediaTypeImage    = "image"
	mediaTypeDocument = "document"
	contentTypePDF    = "application/pdf"
)

// TextSender is the part of the WhatsApp module the messenger drives.
type TextSender interface {
	SendText(ctx context.Context, scope tenancy.Scope, number, text string) error
	SendMedia(ctx context.Context, scope tenancy.Scope, number string, media gateway.Media) error
}

// WhatsAppMessenger sends texts, stored vehicle photos and generated
// documents through the caller's WhatsApp gateway. Media is handed to the
// gateway as a presigned storage URL.
type WhatsAppMessenger struct {
	sender         TextSender
	storage        storage.StorageService
	imageBucket    string
	documentBucket string
}

// NewWhatsAppMessenger creates a new messenger adapter.
func NewWhatsAppMessenger(sender TextSender, storageSvc storage.StorageService, imageBucket, documentBucket string) *WhatsAppMessenger {
	return &WhatsAppMessenger{sender: sender, storage: storageSvc, imageBucket: imageBucket, documentBucket: documentBucket}
}

func (m *WhatsAppMessenger) SendText(ctx context.Context, scope tenancy.Scope, number, text string) error {
	return m.sender.SendText(ctx, scope, number, text)
}

// SendImage sends a stored vehicle image.
func (m *WhatsAppMessenger) SendImage(ctx context.Context, scope tenancy.Scope, number, imageKey, caption string) error {
	if m.storage == nil {
		return fmt.Errorf("image storage is not configured")
	}
	presigned, err := m.storage.GenerateDownloadURL(ctx, m.imageBucket, imageKey)
	if err != nil {
		return fmt.Errorf("presign image: %w", err)
	}
	return m.sender.SendMedia(ctx, scope, number, gateway.Media{
		URL:       presigned.URL,
		MediaType: mediaTypeImage,
		MimeType:  imageMimeType(imageKey),
		Caption:   caption,
		FileName:  path.Base(imageKey),
	})
}

// SendDocument stores a generated PDF and sends it as a document.
func (m *WhatsAppMessenger) SendDocument(ctx context.Context, scope tenancy.Scope, number string, doc purchasingsvc.Document) error {
	if m.storage == nil {
		return fmt.Errorf("document storage is not configured")
	}
	folder := "purchase-orders/" + scope.UserID.String()
	key, err := m.storage.UploadFile(ctx, m.documentBucket, folder, doc.FileName, contentTypePDF, bytes.NewReader(doc.Content), int64(len(doc.Content)))
	if err != nil {
		return fmt.Errorf("upload document: %w", err)
	}
	presigned, err := m.storage.GenerateDownloadURL(ctx, m.documentBucket, key)
	if err != nil {
		return fmt.Errorf("presign document: %w", err)
	}
	return m.sender.SendMedia(ctx, scope, number, gateway.Media{
		URL:       presigned.URL,
		MediaType: mediaTypeDocument,
		MimeType:  contentTypePDF,
		Caption:   doc.Caption,
		FileName:  doc.FileName,
	})
}

func imageMimeType(key string) string {
	if t := mime.TypeByExtension(strings.ToLower(path.Ext(key))); strings.HasPrefix(t, "image/") {
		return t
	}
	return "image/jpeg"
}

// Compile-time checks that WhatsAppMessenger serves both senders.
var (
	_ quoterequestsvc.Messenger = (*WhatsAppMessenger)(nil)
	_ purchasingsvc.Messenger   = (*WhatsAppMessenger)(nil)
)
