package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"notary/internal/ledger"
	"notary/internal/logger"
	"notary/internal/sequence"
	"notary/pkg/models"
)

// InvoiceResponse is an invoice with its derived balance and the payment
// history readers should see.
type InvoiceResponse struct {
	models.Invoice
	Balance          ledger.Balance         `json:"balance"`
	EffectivePayment []models.PaymentRecord `json:"effectivePayments"`
}

func newInvoiceResponse(inv models.Invoice) InvoiceResponse {
	return InvoiceResponse{
		Invoice:          inv,
		Balance:          ledger.BalanceOf(&inv),
		EffectivePayment: ledger.EffectiveHistory(&inv),
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleListInvoices(c *gin.Context) {
	invoices := s.ledger.View().List()
	status := models.InvoiceStatus(c.Query("status"))

	out := make([]InvoiceResponse, 0, len(invoices))
	for _, inv := range invoices {
		if status != "" && inv.Status != status {
			continue
		}
		out = append(out, newInvoiceResponse(inv))
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    out,
		"count":   len(out),
	})
}

func (s *Server) handleGetInvoice(c *gin.Context) {
	inv, err := s.ledger.Invoice(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": newInvoiceResponse(inv)})
}

func (s *Server) handleAddPayment(c *gin.Context) {
	var in ledger.PaymentInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	inv, err := s.ledger.AddPayment(c.Request.Context(), c.Param("id"), in)
	s.writeInvoice(c, http.StatusCreated, inv, err)
}

func (s *Server) handleEditPayment(c *gin.Context) {
	var in ledger.PaymentInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	inv, err := s.ledger.EditPayment(c.Request.Context(), c.Param("id"), c.Param("paymentId"), in)
	s.writeInvoice(c, http.StatusOK, inv, err)
}

func (s *Server) handleDeletePayment(c *gin.Context) {
	inv, err := s.ledger.DeletePayment(c.Request.Context(), c.Param("id"), c.Param("paymentId"))
	s.writeInvoice(c, http.StatusOK, inv, err)
}

func (s *Server) handleListDeeds(c *gin.Context) {
	deeds, err := s.deeds.Deeds(c.Request.Context())
	if err != nil {
		s.writeError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": deeds, "count": len(deeds)})
}

func (s *Server) handleNextNumber(c *gin.Context) {
	n, err := s.deeds.NextNumbers(c.Request.Context(), c.Query("date"))
	if err != nil {
		s.writeError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": n})
}

func (s *Server) handleCreateDeed(c *gin.Context) {
	var deed models.Deed
	if err := c.ShouldBindJSON(&deed); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	saved, err := s.deeds.CreateDeed(c.Request.Context(), deed)
	if err != nil {
		s.writeError(c, err, saved)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": saved})
}

func (s *Server) writeInvoice(c *gin.Context, status int, inv models.Invoice, err error) {
	if err != nil {
		var data interface{}
		if errors.Is(err, ledger.ErrPersistence) {
			data = newInvoiceResponse(inv)
		}
		s.writeError(c, err, data)
		return
	}
	c.JSON(status, gin.H{"success": true, "data": newInvoiceResponse(inv)})
}

// writeError maps domain errors to status codes. A persistence failure
// still carries the locally applied record.
func (s *Server) writeError(c *gin.Context, err error, data interface{}) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.WithContext(c.Request.Context()).Error().Err(err).Msg("Request failed")
	}

	body := gin.H{"success": false, "error": err.Error()}
	if data != nil && status == http.StatusBadGateway {
		body["data"] = data
	}
	c.JSON(status, body)
}

func statusFor(err error) int {
	var (
		ledgerValidation *ledger.ValidationError
		deedValidation   *sequence.ValidationError
	)
	switch {
	case errors.As(err, &ledgerValidation), errors.As(err, &deedValidation):
		return http.StatusBadRequest
	case errors.Is(err, ledger.ErrInvoiceNotFound), errors.Is(err, ledger.ErrPaymentNotFound):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrPersistence), errors.Is(err, sequence.ErrPersistence):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
