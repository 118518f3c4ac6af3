package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/ppob-membership/internal/application"
	"github.com/oksasatya/ppob-membership/internal/interface/middleware"
	"github.com/oksasatya/ppob-membership/pkg/response"
)

type TransactionHandler struct {
	Ledger     *application.LedgerService
	HistorySvc *application.HistoryService
	Logger     *logrus.Logger
}

func NewTransactionHandler(ledger *application.LedgerService, history *application.HistoryService, logger *logrus.Logger) *TransactionHandler {
	return &TransactionHandler{Ledger: ledger, HistorySvc: history, Logger: logger}
}

// money renders a decimal as a bare JSON number.
func money(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

// topUpRequest accepts "amount" and the older "top_up_amount".
type topUpRequest struct {
	Amount      json.RawMessage `json:"amount"`
	TopUpAmount json.RawMessage `json:"top_up_amount"`
}

type transactionRequest struct {
	ServiceCode string `json:"service_code" binding:"required"`
}

type receiptResponse struct {
	InvoiceNumber   string      `json:"invoice_number"`
	ServiceCode     string      `json:"service_code"`
	ServiceName     string      `json:"service_name"`
	TransactionType string      `json:"transaction_type"`
	TotalAmount     json.Number `json:"total_amount"`
	CreatedOn       time.Time   `json:"created_on"`
}

type historyRecordResponse struct {
	InvoiceNumber   string      `json:"invoice_number"`
	TransactionType string      `json:"transaction_type"`
	Description     string      `json:"description"`
	TotalAmount     json.Number `json:"total_amount"`
	CreatedOn       time.Time   `json:"created_on"`
}

type historyResponse struct {
	Offset  int                     `json:"offset"`
	Limit   *int                    `json:"limit"`
	Records []historyRecordResponse `json:"records"`
}

func (h *TransactionHandler) Balance(c *gin.Context) {
	bal, err := h.Ledger.GetBalance(c.Request.Context(), c.GetString(middleware.CtxUserEmail))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"balance": money(bal)}, "Get Balance Berhasil")
}

func (h *TransactionHandler) TopUp(c *gin.Context) {
	var req topUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, h.Logger, application.ErrInvalidAmount)
		return
	}
	raw := req.Amount
	if len(raw) == 0 {
		raw = req.TopUpAmount
	}
	amount, err := application.ParseAmount(raw)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	rc, err := h.Ledger.TopUp(c.Request.Context(), c.GetString(middleware.CtxUserEmail), amount)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"balance": money(rc.Balance)}, "Top Up Balance berhasil")
}

func (h *TransactionHandler) Transaction(c *gin.Context) {
	var req transactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	rc, err := h.Ledger.Purchase(c.Request.Context(), c.GetString(middleware.CtxUserEmail), req.ServiceCode)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, receiptResponse{
		InvoiceNumber:   rc.InvoiceNumber,
		ServiceCode:     rc.ServiceCode,
		ServiceName:     rc.ServiceName,
		TransactionType: string(rc.TransactionType),
		TotalAmount:     money(rc.Amount),
		CreatedOn:       rc.CreatedAt,
	}, "Transaksi berhasil")
}

// queryInt parses an optional integer query parameter.
func queryInt(c *gin.Context, name string) (*int, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (h *TransactionHandler) History(c *gin.Context) {
	offset, err := queryInt(c, "offset")
	if err != nil {
		writeError(c, h.Logger, application.ErrInvalidPagination)
		return
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		writeError(c, h.Logger, application.ErrInvalidPagination)
		return
	}
	off := 0
	if offset != nil {
		off = *offset
	}

	page, err := h.HistorySvc.ListHistory(c.Request.Context(), c.GetString(middleware.CtxUserEmail), off, limit)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	out := historyResponse{Offset: page.Offset, Limit: page.Limit, Records: make([]historyRecordResponse, 0, len(page.Records))}
	for _, r := range page.Records {
		out.Records = append(out.Records, historyRecordResponse{
			InvoiceNumber:   r.InvoiceNumber,
			TransactionType: string(r.TransactionType),
			Description:     r.Description,
			TotalAmount:     money(r.TotalAmount),
			CreatedOn:       r.CreatedOn,
		})
	}
	response.Success(c, http.StatusOK, out, "Get History Berhasil")
}

func (h *TransactionHandler) Search(c *gin.Context) {
	size, err := queryInt(c, "size")
	if err != nil {
		writeError(c, h.Logger, application.ErrInvalidPagination)
		return
	}
	n := 0
	if size != nil {
		n = *size
	}
	docs, err := h.HistorySvc.Search(c.Request.Context(), c.GetString(middleware.CtxUserEmail), c.Query("q"), n)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	out := make([]historyRecordResponse, 0, len(docs))
	for _, d := range docs {
		out = append(out, historyRecordResponse{
			InvoiceNumber:   d.InvoiceNumber,
			TransactionType: d.TransactionType,
			Description:     d.Description,
			TotalAmount:     money(d.TotalAmount),
			CreatedOn:       d.CreatedOn,
		})
	}
	response.Success(c, http.StatusOK, gin.H{"records": out}, "Sukses")
}
