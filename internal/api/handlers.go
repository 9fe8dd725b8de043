package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"trade-journal-go/internal/analytics"
	"trade-journal-go/internal/models"
	"trade-journal-go/internal/storage"
)

// listTrades returns the full journal in insertion order.
func (s *Server) listTrades(c *gin.Context) {
	trades, err := s.store.List()
	if err != nil {
		s.logger.Error("Failed to list trades", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load trades"})
		return
	}
	c.JSON(http.StatusOK, trades)
}

// createTrade validates and persists a new trade.
func (s *Server) createTrade(c *gin.Context) {
	var input models.Trade
	if err := json.NewDecoder(c.Request.Body).Decode(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}

	created, err := s.store.Create(input)
	if err != nil {
		s.writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// updateTrade merges the request body over the stored record. The id in the
// body, if any, is ignored in favor of the path id.
func (s *Server) updateTrade(c *gin.Context) {
	id, ok := tradeID(c)
	if !ok {
		return
	}

	var patch map[string]any
	if err := json.NewDecoder(c.Request.Body).Decode(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}

	updated, err := s.store.Update(id, patch)
	if err != nil {
		s.writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// deleteTrade removes a record and returns it.
func (s *Server) deleteTrade(c *gin.Context) {
	id, ok := tradeID(c)
	if !ok {
		return
	}

	removed, err := s.store.Delete(id)
	if err != nil {
		s.writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, removed)
}

// uploadAttachment hands the file to the object-storage collaborator and
// stores the returned URL on the trade.
func (s *Server) uploadAttachment(c *gin.Context) {
	if s.uploader == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "Attachments are disabled"})
		return
	}
	id, ok := tradeID(c)
	if !ok {
		return
	}
	if _, err := s.store.Get(id); err != nil {
		s.writeStoreError(c, err)
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing file"})
		return
	}
	if s.cfg.Attachments.MaxBytes > 0 && file.Size > s.cfg.Attachments.MaxBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File too large"})
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unreadable file"})
		return
	}
	defer src.Close()
	content, err := io.ReadAll(src)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unreadable file"})
		return
	}

	url, err := s.uploader.Upload(c.Request.Context(), file.Filename, content)
	if err != nil {
		s.logger.Error("Attachment upload failed", zap.Int64("id", id), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Attachment upload failed"})
		return
	}

	updated, err := s.store.Update(id, map[string]any{"attachment_url": url})
	if err != nil {
		s.writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// tradeAnalytics returns realized PNL and percentage return for one trade.
func (s *Server) tradeAnalytics(c *gin.Context) {
	id, ok := tradeID(c)
	if !ok {
		return
	}
	trade, err := s.store.Get(id)
	if err != nil {
		s.writeStoreError(c, err)
		return
	}
	metrics, err := analytics.TradeMetrics(trade)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, metrics)
}

// strategySummary returns the per-tag performance map, recomputed fresh from
// the current journal.
func (s *Server) strategySummary(c *gin.Context) {
	trades, err := s.store.List()
	if err != nil {
		s.logger.Error("Failed to list trades", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load trades"})
		return
	}
	c.JSON(http.StatusOK, analytics.Summarize(trades))
}

// stats returns journal aggregates filtered by entry-time window and tags.
func (s *Server) stats(c *gin.Context) {
	trades, err := s.store.List()
	if err != nil {
		s.logger.Error("Failed to list trades", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load trades"})
		return
	}

	var start, end *time.Time
	if raw := c.Query("start"); raw != "" {
		ts, err := analytics.ParseTime(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid start time"})
			return
		}
		start = &ts
	}
	if raw := c.Query("end"); raw != "" {
		ts, err := analytics.ParseTime(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid end time"})
			return
		}
		end = &ts
	}
	var tags []string
	if raw := c.Query("tags"); raw != "" {
		for _, tag := range strings.Split(raw, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				tags = append(tags, tag)
			}
		}
	}

	c.JSON(http.StatusOK, analytics.Stats(trades, start, end, tags))
}

// optionGreeks computes Black-Scholes delta and gamma from query parameters.
func (s *Server) optionGreeks(c *gin.Context) {
	spot, err1 := strconv.ParseFloat(c.Query("spot"), 64)
	strike, err2 := strconv.ParseFloat(c.Query("strike"), 64)
	expiry, err3 := strconv.ParseFloat(c.Query("expiry"), 64)
	rate, err4 := strconv.ParseFloat(c.DefaultQuery("rate", "0"), 64)
	sigma, err5 := strconv.ParseFloat(c.Query("sigma"), 64)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil || err5 != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "spot, strike, expiry, rate and sigma must be numeric"})
		return
	}

	greeks, err := analytics.OptionGreeks(spot, strike, expiry, rate, sigma, c.DefaultQuery("type", "call"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, greeks)
}

// tradeID parses the :id path parameter. A non-numeric id matches nothing in
// the journal, so it reports 404 rather than 400.
func tradeID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return 0, false
	}
	return id, true
}

// writeStoreError maps store errors onto the API status codes.
func (s *Server) writeStoreError(c *gin.Context, err error) {
	var validation *models.ValidationError
	var persistence *storage.PersistenceError
	switch {
	case errors.Is(err, storage.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": validation.Error()})
	case errors.As(err, &persistence):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save trade"})
	default:
		s.logger.Error("Unhandled store error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
	}
}
