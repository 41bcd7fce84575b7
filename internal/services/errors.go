package services

import (
	"errors"
	"fmt"
)

// Common service errors
var (
	ErrNotFound          = errors.New("registro não encontrado")
	ErrInvalidState      = errors.New("transição de estado inválida")
	ErrQuoteLocked       = errors.New("o orçamento não pode ser editado enquanto a finalização está em andamento")
	ErrPieceNotFound     = errors.New("peça não encontrada")
	ErrInvalidQuantity   = errors.New("a quantidade deve ser um inteiro positivo")
	ErrInvalidMeasure    = errors.New("altura e largura devem ser positivas")
	ErrInvalidDiscount   = errors.New("tipo de desconto inválido")
	ErrUnknownAction     = errors.New("ação desconhecida")
	ErrPaymentCancelled  = errors.New("pagamento cancelado")
	ErrInvalidPayments   = errors.New("pagamentos inválidos")
	ErrEmptyPayload      = errors.New("nenhum orçamento informado")
	ErrRepositoryMissing = errors.New("repositório de orçamentos não configurado")
	ErrIntentConsumed    = errors.New("a sessão já foi inicializada")
	ErrNoDocumentEmitter = errors.New("emissor de documentos não configurado")
	ErrUnsupportedFormat = errors.New("formato de exportação não suportado")
	ErrNoCatalogProduct  = errors.New("produto sem identificador no catálogo")
	ErrNoStockSource     = errors.New("consulta de estoque não configurada")
)

// ValidationError is a local pre-check failure that the user can fix directly
type ValidationError struct {
	Field     string `json:"field"`
	PieceID   string `json:"piece_id,omitempty"`
	PieceName string `json:"piece_name,omitempty"`
	Message   string `json:"message"`
}

func (e *ValidationError) Error() string {
	return e.Message
}

// StockInsufficientError reports a piece whose area exceeds the live stock
type StockInsufficientError struct {
	ProductName string  `json:"product_name"`
	PieceID     string  `json:"piece_id"`
	PieceName   string  `json:"piece_name"`
	Required    float64 `json:"required"`
	Available   float64 `json:"available"`
	Unit        string  `json:"unit"`
}

func (e *StockInsufficientError) Error() string {
	return fmt.Sprintf("Estoque insuficiente do produto %q para a peça %q: necessário %s %s, disponível %s %s",
		e.ProductName, e.PieceName,
		FormatDecimal(e.Required, 2), e.Unit,
		FormatDecimal(e.Available, 2), e.Unit)
}

// StockLookupError is a fatal live-stock lookup failure for one piece
type StockLookupError struct {
	PieceName   string
	ProductName string
	Err         error
}

func (e *StockLookupError) Error() string {
	return fmt.Sprintf("Não foi possível consultar o estoque do produto %q (peça %q). Tente novamente.",
		e.ProductName, e.PieceName)
}

func (e *StockLookupError) Unwrap() error {
	return e.Err
}

// PersistenceError means the finalized quote could not be saved after payment
// was confirmed. Payment intent is already captured at that point.
type PersistenceError struct {
	QuoteID string
	Err     error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("pagamento confirmado, mas o orçamento %s não foi salvo: %v", e.QuoteID, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// DocumentEmissionError is reported after a successful finalization whose
// document could not be produced. It never rolls the finalization back.
type DocumentEmissionError struct {
	QuoteID string
	Err     error
}

func (e *DocumentEmissionError) Error() string {
	return fmt.Sprintf("orçamento %s finalizado, mas o documento não pôde ser gerado: %v", e.QuoteID, e.Err)
}

func (e *DocumentEmissionError) Unwrap() error {
	return e.Err
}
