package handlers

import (
	"fmt"
	"net/http"

	"merchant-chat-api/pkg/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ForecastHandler serves the quantity and revenue forecasts
type ForecastHandler struct {
	quantities services.QuantityForecaster
	sales      services.SalesForecaster
	logger     *logrus.Logger
}

// NewForecastHandler creates a new ForecastHandler
func NewForecastHandler(quantities services.QuantityForecaster, sales services.SalesForecaster, logger *logrus.Logger) *ForecastHandler {
	return &ForecastHandler{quantities: quantities, sales: sales, logger: logger}
}

// ForecastQuantity returns the 30 day per-item forecast
func (h *ForecastHandler) ForecastQuantity(c *gin.Context) {
	forecast, err := h.quantities.Forecast(c.Request.Context(), merchantID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, forecast)
}

// ForecastSales returns the 30 day revenue forecast with its holdout evaluation
func (h *ForecastHandler) ForecastSales(c *gin.Context) {
	forecast, err := h.sales.Forecast(c.Request.Context(), merchantID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, forecast)
}

// ExportQuantity downloads the quantity forecast as an xlsx workbook
func (h *ForecastHandler) ExportQuantity(c *gin.Context) {
	id := merchantID(c)
	forecast, err := h.quantities.Forecast(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	buf, err := services.QuantityWorkbook(forecast)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="quantity_forecast_%s.xlsx"`, id))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
