package middleware

import (
	"context"
	"log"
	"net/http"

	"stock-api/internal/models"
	"stock-api/internal/repository"

	"github.com/gin-gonic/gin"
)

// QuoteFetcher es lo que los handlers necesitan del servicio de cotizaciones
type QuoteFetcher interface {
	FetchQuote(ctx context.Context, code string) (*models.QuoteData, error)
}

// StockHandler expone los dos endpoints de lectura del catálogo
type StockHandler struct {
	repo   *repository.StockRepository
	quotes QuoteFetcher
}

func NewStockHandler(repo *repository.StockRepository, quotes QuoteFetcher) *StockHandler {
	return &StockHandler{repo: repo, quotes: quotes}
}

// SearchStocks busca tickers por nombre o código con el parámetro q.
// Siempre responde 200 con un array JSON, posiblemente vacío.
func (h *StockHandler) SearchStocks(c *gin.Context) {
	results := h.repo.Search(c.Query("q"))
	c.JSON(http.StatusOK, results)
}

// GetStockDetail devuelve los campos estáticos de un ticker fusionados con la
// cotización en vivo. Si el código no existe responde 404 sin tocar el
// upstream. Si la cotización falla responde igual con los campos estáticos:
// los campos en vivo quedan ausentes, no rellenados con null.
func (h *StockHandler) GetStockDetail(c *gin.Context) {
	code := c.Param("code")

	stock, ok := h.repo.GetByCode(code)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}

	resp := gin.H{
		"code":      stock.Code,
		"name":      stock.Name,
		"market":    stock.Market,
		"marketCap": stock.MarketCap,
	}

	quote, err := h.quotes.FetchQuote(c.Request.Context(), code)
	if err != nil {
		log.Printf("error al obtener cotización de %s: %v", code, err)
		c.JSON(http.StatusOK, resp)
		return
	}

	resp["price"] = quote.Price
	resp["per"] = quote.Per
	resp["pbr"] = quote.Pbr
	resp["volume"] = quote.Volume
	resp["diff"] = quote.Diff
	resp["diffRate"] = quote.DiffRate
	resp["open"] = quote.Open
	resp["high"] = quote.High
	resp["low"] = quote.Low
	resp["upper"] = quote.Upper
	resp["lower"] = quote.Lower
	resp["tradeAmount"] = quote.TradeAmount
	resp["high52w"] = quote.High52w
	resp["low52w"] = quote.Low52w
	resp["sector"] = quote.Sector
	// la capitalización en vivo solo pisa la estática cuando viene presente
	if quote.MarketCap != nil {
		resp["marketCap"] = *quote.MarketCap
	}

	c.JSON(http.StatusOK, resp)
}
