package adapters

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"autoparts_quotes_backend/internal/adapters/storage"
	purchasingsvc "autoparts_quotes_backend/internal/purchasing/service"
	quoterequestsvc "autoparts_quotes_backend/internal/quoterequests/service"
	"autoparts_quotes_backend/internal/whatsapp/gateway"
	"autoparts_quotes_backend/platform/tenancy"

	"github.com/google/uuid"
)

type recordingSender struct {
	texts []string
	media []gateway.Media
}

func (s *recordingSender) SendText(_ context.Context, _ tenancy.Scope, _, text string) error {
	s.texts = append(s.texts, text)
	return nil
}

func (s *recordingSender) SendMedia(_ context.Context, _ tenancy.Scope, _ string, media gateway.Media) error {
	s.media = append(s.media, media)
	return nil
}

type fakeStorage struct {
	storage.StorageService
	uploads map[string]string
}

func (f *fakeStorage) UploadFile(_ context.Context, bucket, folder, fileName, _ string, reader io.Reader, _ int64) (string, error) {
	body, _ := io.ReadAll(reader)
	key := folder + "/" + fileName
	f.uploads[bucket+"/"+key] = string(body)
	return key, nil
}

func (f *fakeStorage) GenerateDownloadURL(_ context.Context, bucket, fileKey string) (*storage.PresignedURL, error) {
	return &storage.PresignedURL{URL: "https://files.example.com/" + bucket + "/" + fileKey, FileKey: fileKey, ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func TestSendImagePresignsVehiclePhoto(t *testing.T) {
	sender := &recordingSender{}
	m := NewWhatsAppMessenger(sender, &fakeStorage{uploads: map[string]string{}}, "vehicle-images", "purchase-orders")

	if err := m.SendImage(context.Background(), tenancy.ForUser(uuid.New()), "5511987654321", "vehicles/1/front.PNG", "Fiat Uno"); err != nil {
		t.Fatalf("send image: %v", err)
	}
	got := sender.media[0]
	if got.MediaType != mediaTypeImage || got.MimeType != "image/png" {
		t.Fatalf("unexpected media %+v", got)
	}
	if !strings.HasPrefix(got.URL, "https://files.example.com/vehicle-images/") {
		t.Fatalf("unexpected url %q", got.URL)
	}
}

func TestSendDocumentUploadsBeforeSending(t *testing.T) {
	sender := &recordingSender{}
	store := &fakeStorage{uploads: map[string]string{}}
	m := NewWhatsAppMessenger(sender, store, "vehicle-images", "purchase-orders")
	scope := tenancy.ForUser(uuid.New())

	err := m.SendDocument(context.Background(), scope, "5511987654321", purchasingsvc.Document{
		FileName: "Pedido-ABC.pdf", Content: []byte("%PDF-1.4"), Caption: "Pedido ABC",
	})
	if err != nil {
		t.Fatalf("send document: %v", err)
	}
	key := "purchase-orders/purchase-orders/" + scope.UserID.String() + "/Pedido-ABC.pdf"
	if store.uploads[key] != "%PDF-1.4" {
		t.Fatalf("document not uploaded under %s: %v", key, store.uploads)
	}
	if got := sender.media[0]; got.MediaType != mediaTypeDocument || got.FileName != "Pedido-ABC.pdf" {
		t.Fatalf("unexpected media %+v", got)
	}
}

func TestSendImageWithoutStorage(t *testing.T) {
	m := NewWhatsAppMessenger(&recordingSender{}, nil, "a", "b")
	if err := m.SendImage(context.Background(), tenancy.Scope{}, "55", "k.jpg", ""); err == nil {
		t.Fatal("expected an error without storage")
	}
}

func TestMessageTemplatesRender(t *testing.T) {
	tpl := NewMessageTemplates(nil)
	out := tpl.Render("Olá {supplier}, {brand} {model}: {link}", quoterequestsvc.MessageValues{
		Supplier: "Auto Peças A", Brand: "Fiat", Model: "Uno", Link: "https://app/x",
	})
	if out != "Olá Auto Peças A, Fiat Uno: https://app/x" {
		t.Fatalf("render = %q", out)
	}
	if !tpl.HasLink("{link}") || tpl.HasLink("sem link") {
		t.Fatal("HasLink mismatch")
	}
}
