package httpapi

import (
	"errors"
	"net/http"
	"time"

	"cryptotracker/internal/application/service"
	"cryptotracker/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type errorBody struct {
	Error string `json:"error"`
}

func abort(c *gin.Context, code int, err error) {
	c.AbortWithStatusJSON(code, errorBody{Error: err.Error()})
}

// statusFor maps service errors onto HTTP codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrAlertLimitReached):
		return http.StatusConflict
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidAlert),
		errors.Is(err, domain.ErrInvalidHolding),
		errors.Is(err, domain.ErrInvalidSettings):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) getHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"uptime":      time.Since(s.start).Round(time.Second).String(),
		"connections": s.hub.Len(),
	})
}

func (s *Server) getStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": s.deps.Table.Status(),
		"assets": s.deps.Table.Len(),
	})
}

// ---- prices ----

func (s *Server) getPrices(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": s.deps.Table.Status(),
		"prices": s.deps.Table.GetAll(),
	})
}

func (s *Server) getPrice(c *gin.Context) {
	id := c.Param("id")
	px, ok := s.deps.Table.Get(id)
	if !ok {
		abort(c, http.StatusNotFound, errors.New("no price for "+id))
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "price": px})
}

// ---- alerts ----

func (s *Server) listAlerts(c *gin.Context) {
	var alerts []domain.Alert
	switch c.Query("filter") {
	case "active":
		alerts = s.deps.Alerts.Active()
	case "triggered":
		alerts = s.deps.Alerts.Triggered()
	default:
		if asset := c.Query("coinId"); asset != "" {
			alerts = s.deps.Alerts.ByAsset(asset)
		} else {
			alerts = s.deps.Alerts.List()
		}
	}
	if alerts == nil {
		alerts = []domain.Alert{}
	}
	c.JSON(http.StatusOK, gin.H{"alerts": alerts, "max": s.deps.Alerts.Max()})
}

func (s *Server) addAlert(c *gin.Context) {
	var draft domain.AlertDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}
	a, err := s.deps.Alerts.Add(draft)
	if err != nil {
		abort(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

func (s *Server) removeAlert(c *gin.Context) {
	if !s.deps.Alerts.Remove(c.Param("id")) {
		abort(c, http.StatusNotFound, service.ErrNotFound)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) toggleAlert(c *gin.Context) {
	id := c.Param("id")
	a, ok := s.deps.Alerts.Toggle(id)
	if !ok {
		if _, exists := s.deps.Alerts.Get(id); exists {
			abort(c, http.StatusConflict, errors.New("triggered alerts cannot be toggled"))
			return
		}
		abort(c, http.StatusNotFound, service.ErrNotFound)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (s *Server) clearTriggered(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"removed": s.deps.Alerts.ClearTriggered()})
}

// ---- holdings ----

func (s *Server) listHoldings(c *gin.Context) {
	var holdings []domain.Holding
	if asset := c.Query("coinId"); asset != "" {
		holdings = s.deps.Portfolio.ByAsset(asset)
	} else {
		holdings = s.deps.Portfolio.List()
	}
	if holdings == nil {
		holdings = []domain.Holding{}
	}
	c.JSON(http.StatusOK, gin.H{"holdings": holdings})
}

func (s *Server) addHolding(c *gin.Context) {
	var draft domain.HoldingDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}
	h, err := s.deps.Portfolio.Add(draft)
	if err != nil {
		abort(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusCreated, h)
}

type holdingPatch struct {
	Amount   *decimal.Decimal `json:"amount"`
	BuyPrice *decimal.Decimal `json:"buyPrice"`
}

func (s *Server) updateHolding(c *gin.Context) {
	var patch holdingPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}
	h, err := s.deps.Portfolio.Update(c.Param("id"), patch.Amount, patch.BuyPrice)
	if err != nil {
		abort(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusOK, h)
}

func (s *Server) removeHolding(c *gin.Context) {
	if !s.deps.Portfolio.Remove(c.Param("id")) {
		abort(c, http.StatusNotFound, service.ErrNotFound)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) getPortfolio(c *gin.Context) {
	values, stats := s.deps.Portfolio.Valuation(s.deps.Table)
	c.JSON(http.StatusOK, gin.H{"holdings": values, "stats": stats})
}

// ---- settings ----

func (s *Server) getSettings(c *gin.Context) {
	c.JSON(http.StatusOK, s.deps.Settings.Get())
}

func (s *Server) putSettings(c *gin.Context) {
	st := s.deps.Settings.Get()
	if err := c.ShouldBindJSON(&st); err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}
	if err := s.deps.Settings.Replace(st); err != nil {
		abort(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusOK, s.deps.Settings.Get())
}
