package services

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/graficaops/envelopamento-api/internal/models"
)

// RestoreSettings supplies defaults for fields missing from a payload
type RestoreSettings struct {
	DefaultDiscountType string
	DefaultFreight      float64
}

// DefaultRestoreSettings returns the settings used when none are configured
func DefaultRestoreSettings() RestoreSettings {
	return RestoreSettings{DefaultDiscountType: models.DiscountTypePercentage}
}

// Historical field names, newest first.
var (
	idKeys          = []string{"id", "_id", "quote_id", "orcamento_id"}
	codeKeys        = []string{"code", "codigo", "budget_code", "numero"}
	clientKeys      = []string{"client", "cliente", "customer"}
	clientIDKeys    = []string{"client_id", "clientId", "cliente_id"}
	clientNameKeys  = []string{"client_name", "clientName", "cliente_nome", "nome_cliente"}
	piecesKeys      = []string{"pieces", "pecas", "peças", "items", "itens"}
	discountKeys    = []string{"discount", "desconto"}
	discountTypeKey = []string{"discount_type", "discountType", "tipo_desconto", "tipoDesconto"}
	freightKeys     = []string{"freight", "frete"}
	observationKeys = []string{"observation", "observacao", "observação", "obs", "notes"}
	statusKeys      = []string{"status", "situacao"}
	paymentsKeys    = []string{"payments", "pagamentos"}

	partKeys        = []string{"part", "parte", "peca", "peça"}
	nameKeys        = []string{"name", "nome", "description", "descricao", "descrição"}
	heightKeys      = []string{"height", "altura"}
	widthKeys       = []string{"width", "largura"}
	quantityKeys    = []string{"quantity", "quantidade", "qty", "qtd"}
	productKeys     = []string{"product", "produto"}
	unitKeys        = []string{"unit_of_measure", "unitOfMeasure", "unidade_medida", "unidadeMedida", "unidade", "unit"}
	unitPriceKeys   = []string{"unit_price", "unitPrice", "preco", "preço", "valor_m2", "price"}
	stockKeys       = []string{"stock_available", "stockAvailable", "estoque", "quantidade_estoque", "stock"}
	servicesKeys    = []string{"additional_services", "additionalServices", "servicos_adicionais", "servicosAdicionais", "services"}
	valueKeys       = []string{"value", "valor", "amount"}
	methodKeys      = []string{"method", "metodo", "forma_pagamento", "forma"}
	installmentKeys = []string{"installments", "parcelas"}
	machineKeys     = []string{"card_machine", "maquininha", "cardMachine"}
	documentKeys    = []string{"document", "documento", "cpf_cnpj"}
	phoneKeys       = []string{"phone", "telefone"}
)

// NormalizeQuotePayload rehydrates a quote from a possibly partial or legacy
// payload. Missing fields get defaults; numbers may be locale strings. The
// returned quote has not been recomputed.
func NormalizeQuotePayload(payload []byte, settings RestoreSettings) (*models.Quote, error) {
	if len(strings.TrimSpace(string(payload))) == 0 {
		return nil, ErrEmptyPayload
	}
	var raw map[string]any
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("invalid quote payload: %w", err)
	}
	for _, key := range []string{"quote", "orcamento", "budget"} {
		if nested, ok := raw[key].(map[string]any); ok && pick(raw, piecesKeys) == nil {
			raw = nested
			break
		}
	}
	return normalizeQuote(raw, settings), nil
}

// SerializeQuote encodes a quote in the canonical payload shape
func SerializeQuote(q models.Quote) ([]byte, error) {
	return json.Marshal(q)
}

func normalizeQuote(raw map[string]any, settings RestoreSettings) *models.Quote {
	q := models.NewDraftQuote()

	if id := pickString(raw, idKeys); id != "" {
		q.ID = id
	}
	q.Code = pickString(raw, codeKeys)
	q.Client = normalizeClient(raw)
	q.Observation = pickString(raw, observationKeys)

	q.DiscountType = normalizeDiscountType(pickString(raw, discountTypeKey), settings.DefaultDiscountType)
	if v, ok := toFloat(pick(raw, discountKeys)); ok {
		q.Discount = v
	}
	q.Freight = settings.DefaultFreight
	if v, ok := toFloat(pick(raw, freightKeys)); ok {
		q.Freight = v
	}

	if items, ok := pick(raw, piecesKeys).([]any); ok {
		for _, item := range items {
			if m, ok := item.(map[string]any); ok {
				q.Pieces = append(q.Pieces, normalizePiece(m))
			}
		}
	}

	if items, ok := pick(raw, paymentsKeys).([]any); ok {
		for _, item := range items {
			if m, ok := item.(map[string]any); ok {
				q.Payments = append(q.Payments, normalizePayment(m))
			}
		}
	}

	// Only a finalized quote keeps its status; anything else restarts as draft.
	if strings.EqualFold(pickString(raw, statusKeys), models.QuoteStatusFinalized) {
		q.Status = models.QuoteStatusFinalized
	}
	return q
}

func normalizeClient(raw map[string]any) *models.Client {
	switch v := pick(raw, clientKeys).(type) {
	case map[string]any:
		c := &models.Client{
			ID:       pickString(v, idKeys),
			Name:     pickString(v, nameKeys),
			Document: pickString(v, documentKeys),
			Phone:    pickString(v, phoneKeys),
		}
		if c.ID == "" && c.Name == "" {
			return nil
		}
		return c
	case string:
		if strings.TrimSpace(v) != "" {
			return &models.Client{ID: pickString(raw, clientIDKeys), Name: strings.TrimSpace(v)}
		}
	}

	id, name := pickString(raw, clientIDKeys), pickString(raw, clientNameKeys)
	if id == "" && name == "" {
		return nil
	}
	return &models.Client{ID: id, Name: name}
}

func normalizePiece(raw map[string]any) models.Piece {
	p := models.Piece{
		ID:                 pickString(raw, idKeys),
		Quantity:           1,
		AdditionalServices: []models.AdditionalService{},
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}

	// Measurements live either on a nested part or flat on the piece.
	partSrc, nested := raw, false
	if m, ok := pick(raw, partKeys).(map[string]any); ok {
		partSrc, nested = m, true
	}
	p.Part = models.Part{
		ID:   pickUint(partSrc, idKeys),
		Name: pickString(partSrc, nameKeys),
	}
	if nested && p.Part.Name == "" {
		p.Part.Name = pickString(raw, nameKeys)
	}
	if v, ok := toFloat(pick(partSrc, heightKeys)); ok {
		p.Part.Height = v
	} else if v, ok := toFloat(pick(raw, heightKeys)); ok {
		p.Part.Height = v
	}
	if v, ok := toFloat(pick(partSrc, widthKeys)); ok {
		p.Part.Width = v
	} else if v, ok := toFloat(pick(raw, widthKeys)); ok {
		p.Part.Width = v
	}

	if v, ok := toFloat(pick(raw, quantityKeys)); ok && v >= 1 {
		p.Quantity = int(math.Round(v))
	}

	if m, ok := pick(raw, productKeys).(map[string]any); ok {
		product := &models.Product{
			ID:            pickUint(m, idKeys),
			Name:          pickString(m, nameKeys),
			UnitOfMeasure: pickString(m, unitKeys),
		}
		if product.UnitOfMeasure == "" {
			product.UnitOfMeasure = models.UnitSquareMeter
		}
		product.UnitPrice, _ = toFloat(pick(m, unitPriceKeys))
		product.StockAvailable, _ = toFloat(pick(m, stockKeys))
		if product.ID != 0 || product.Name != "" {
			p.Product = product
		}
	}

	if items, ok := pick(raw, servicesKeys).([]any); ok {
		for _, item := range items {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			s := models.AdditionalService{
				ID:          pickString(m, idKeys),
				Description: pickString(m, nameKeys),
			}
			if s.ID == "" {
				s.ID = uuid.NewString()
			}
			s.Value, _ = toFloat(pick(m, valueKeys))
			p.AdditionalServices = append(p.AdditionalServices, s)
		}
	}
	return p
}

func normalizePayment(raw map[string]any) models.Payment {
	p := models.Payment{
		Method:      pickString(raw, methodKeys),
		CardMachine: pickString(raw, machineKeys),
	}
	p.Amount, _ = toFloat(pick(raw, valueKeys))
	if v, ok := toFloat(pick(raw, installmentKeys)); ok {
		p.Installments = int(v)
	}
	return p
}

func normalizeDiscountType(v, fallback string) string {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "percentage", "percent", "percentual", "porcentagem", "%":
		return models.DiscountTypePercentage
	case "fixed", "fixo", "valor", "value", "amount", "r$":
		return models.DiscountTypeFixed
	}
	if fallback == models.DiscountTypeFixed {
		return models.DiscountTypeFixed
	}
	return models.DiscountTypePercentage
}

// pick returns the first present, non-null value among keys
func pick(raw map[string]any, keys []string) any {
	if raw == nil {
		return nil
	}
	for _, k := range keys {
		if v, ok := raw[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func pickString(raw map[string]any, keys []string) string {
	switch v := pick(raw, keys).(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		if v == math.Trunc(v) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%g", v)
	}
	return ""
}

func pickUint(raw map[string]any, keys []string) uint {
	v, ok := toFloat(pick(raw, keys))
	if !ok || v < 0 {
		return 0
	}
	return uint(v)
}
