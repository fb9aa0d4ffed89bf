package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"notary/internal/ledger"
	"notary/internal/logger"
	"notary/internal/sequence"
)

const requestIDHeader = "X-Request-ID"

// Server exposes the ledger and the deed allocator over JSON.
type Server struct {
	ledger *ledger.Service
	deeds  *sequence.Service
	router *gin.Engine
	log    zerolog.Logger
}

// NewServer creates the router with every route registered.
func NewServer(ledgerSvc *ledger.Service, deedSvc *sequence.Service) *Server {
	router := gin.New()

	s := &Server{
		ledger: ledgerSvc,
		deeds:  deedSvc,
		router: router,
		log:    logger.WithComponent("api"),
	}

	router.Use(gin.Recovery(), s.requestLogger())

	router.GET("/healthz", s.handleHealth)

	invoices := router.Group("/invoices")
	{
		invoices.GET("", s.handleListInvoices)
		invoices.GET("/:id", s.handleGetInvoice)
		invoices.POST("/:id/payments", s.handleAddPayment)
		invoices.PUT("/:id/payments/:paymentId", s.handleEditPayment)
		invoices.DELETE("/:id/payments/:paymentId", s.handleDeletePayment)
	}

	deeds := router.Group("/deeds")
	{
		deeds.GET("", s.handleListDeeds)
		deeds.GET("/next-number", s.handleNextNumber)
		deeds.POST("", s.handleCreateDeed)
	}

	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	s.log.Info().Msg("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

// requestLogger tags each request with an id and logs it once it completes.
// The request logger travels on the request context.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(requestIDHeader, requestID)

		reqLog := logger.WithRequestID(requestID)
		c.Request = c.Request.WithContext(reqLog.WithContext(c.Request.Context()))

		start := time.Now()
		c.Next()

		event := reqLog.Info()
		if c.Writer.Status() >= http.StatusInternalServerError {
			event = reqLog.Error()
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("Request handled")
	}
}
