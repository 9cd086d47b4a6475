package adapters

import (
	quoterequestsvc "autoparts_quotes_backend/internal/quoterequests/service"
	templatesvc "autoparts_quotes_backend/internal/templates/service"
)

// MessageTemplates exposes the caller's templates to quotation dispatch.
type MessageTemplates struct {
	*templatesvc.Service
}

// NewMessageTemplates creates a new templates adapter.
func NewMessageTemplates(svc *templatesvc.Service) *MessageTemplates {
	return &MessageTemplates{Service: svc}
}

// Render fills a template with a dispatch's values.
func (t *MessageTemplates) Render(content string, v quoterequestsvc.MessageValues) string {
	return templatesvc.Render(content, templatesvc.Values{
		Brand:    v.Brand,
		Model:    v.Model,
		Year:     v.Year,
		Chassis:  v.Chassis,
		Plate:    v.Plate,
		Parts:    v.Parts,
		Link:     v.Link,
		Supplier: v.Supplier,
	})
}

// HasLink reports whether a template places the response link itself.
func (t *MessageTemplates) HasLink(content string) bool {
	return templatesvc.HasLink(content)
}

// Compile-time check that MessageTemplates implements quoterequests/service.Templates.
var _ quoterequestsvc.Templates = (*MessageTemplates)(nil)
