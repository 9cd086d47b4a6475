package extraction

import (
	"bytes"
	"compress/zlib"
	"context"
	"errors"
	"testing"

	"autoparts_quotes_backend/platform/apperr"
	"autoparts_quotes_backend/platform/logger"

	"google.golang.org/genai"
)

type stubExtractor struct {
	name   string
	fields Fields
	err    error
	calls  int
}

func (s *stubExtractor) Name() string { return s.name }

func (s *stubExtractor) Extract(context.Context, *Document) (Fields, error) {
	s.calls++
	return s.fields, s.err
}

func TestExtractSkipsFallbackWhenConfident(t *testing.T) {
	ai := &stubExtractor{name: "ai", fields: Fields{Brand: "Fiat", Model: "Uno", Plate: "abc-1234"}}
	fallback := &stubExtractor{name: "regex", fields: Fields{Year: "2012"}}
	svc := New(logger.Nop(), ai, fallback)

	got, err := svc.Extract(context.Background(), []byte("%PDF"))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if fallback.calls != 0 {
		t.Fatal("expected fallback to be skipped")
	}
	if got.Plate != "ABC1234" {
		t.Fatalf("expected normalized plate, got %q", got.Plate)
	}
}

func TestExtractMergesLowConfidenceResult(t *testing.T) {
	ai := &stubExtractor{name: "ai", fields: Fields{Model: "Gol"}}
	fallback := &stubExtractor{name: "regex", fields: Fields{Brand: "Volkswagen", Model: "Fox", Year: "2020"}}
	svc := New(logger.Nop(), ai, fallback)

	got, err := svc.Extract(context.Background(), []byte("%PDF"))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	want := Fields{Brand: "Volkswagen", Model: "Gol", Year: "2020"}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestExtractFallsBackOnError(t *testing.T) {
	ai := &stubExtractor{name: "ai", err: errors.New("quota")}
	fallback := &stubExtractor{name: "regex", fields: Fields{Plate: "ABC1D23"}}
	svc := New(logger.Nop(), ai, fallback)

	got, err := svc.Extract(context.Background(), []byte("%PDF"))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if got.Plate != "ABC1D23" || fallback.calls != 1 {
		t.Fatalf("unexpected result %+v", got)
	}
}

func TestExtractFailsWithoutFields(t *testing.T) {
	svc := New(logger.Nop(), &stubExtractor{name: "ai", err: errors.New("down")}, &stubExtractor{name: "regex"})
	_, err := svc.Extract(context.Background(), []byte("%PDF"))
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestExtractFromTextLabeled(t *testing.T) {
	text := "ORÇAMENTO 1234\nMarca: VW  Modelo: GOL 1.0\nAno/Modelo: 2019 / 2020 Placa: abc-1d23\nChassi: 9BWAB45U0LT000001\n"
	got := ExtractFromText(text)
	want := Fields{Brand: "Volkswagen", Model: "GOL 1.0", Year: "2019/2020", Plate: "ABC1D23", Chassis: "9BWAB45U0LT000001"}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestExtractFromTextUnlabeled(t *testing.T) {
	text := "Cliente João\nVeiculo FIAT UNO 2012 placa ABC1234\n"
	got := ExtractFromText(text)
	if got.Brand != "Fiat" || got.Model != "Uno" || got.Year != "2012" || got.Plate != "ABC1234" {
		t.Fatalf("unexpected fields %+v", got)
	}
	if got.Chassis != "" {
		t.Fatalf("expected no chassis, got %q", got.Chassis)
	}
}

func TestPDFTextReadsCompressedStream(t *testing.T) {
	content := []byte("BT /F1 12 Tf 72 712 Td (Marca: FIAT) Tj 0 -14 Td [(Placa: ) -250 (ABC1234)] TJ ET")
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(content); err != nil {
		t.Fatalf("compress: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("compress: %v", err)
	}

	pdf := append([]byte("%PDF-1.4\n1 0 obj << /Filter /FlateDecode >>\nstream\n"), buf.Bytes()...)
	pdf = append(pdf, []byte("\nendstream\nendobj\n")...)

	got := ExtractFromText(PDFText(pdf))
	if got.Brand != "Fiat" || got.Plate != "ABC1234" {
		t.Fatalf("unexpected fields %+v from %q", got, PDFText(pdf))
	}
}

func TestUnescapeLiteral(t *testing.T) {
	if got := unescapeLiteral([]byte(`Pe\(c\)a \351 ok`)); got != "Pe(c)a é ok" {
		t.Fatalf("unexpected %q", got)
	}
}

type fakeGenerator struct {
	text string
	err  error
}

func (f fakeGenerator) GenerateContent(context.Context, string, []*genai.Content, *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: genai.NewContentFromText(f.text, genai.RoleModel),
	}}}, nil
}

func TestGeminiExtractorParsesFencedJSON(t *testing.T) {
	ex := &GeminiExtractor{models: fakeGenerator{text: "```json\n{\"brand\":\"Fiat\",\"plate\":\"ABC1234\"}\n```"}, model: "m"}
	got, err := ex.Extract(context.Background(), NewDocument([]byte("%PDF")))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if got.Brand != "Fiat" || got.Plate != "ABC1234" {
		t.Fatalf("unexpected fields %+v", got)
	}

	ex.models = fakeGenerator{text: "not json"}
	if _, err := ex.Extract(context.Background(), NewDocument([]byte("%PDF"))); err == nil {
		t.Fatal("expected decode error")
	}
}
