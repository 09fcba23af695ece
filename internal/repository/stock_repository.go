package repository

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"strings"

	"stock-api/internal/models"
)

// MaxSearchResults es el máximo de resultados que devuelve una búsqueda
const MaxSearchResults = 20

// StockRepository mantiene el catálogo de tickers en memoria.
// Se carga una vez al arrancar y es de solo lectura después.
type StockRepository struct {
	stocks []models.Stock
	byCode map[string]models.Stock
}

// NewStockRepository carga el catálogo desde un archivo JSON.
// Si el archivo no existe o no se puede parsear, arranca con un
// catálogo vacío en lugar de fallar: un catálogo vacío es un estado
// válido para los handlers.
func NewStockRepository(path string) *StockRepository {
	repo := &StockRepository{byCode: make(map[string]models.Stock)}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Printf("catálogo %s no encontrado, arrancando con catálogo vacío", path)
		} else {
			log.Printf("error al leer el catálogo %s: %v", path, err)
		}
		return repo
	}

	if err := json.Unmarshal(data, &repo.stocks); err != nil {
		log.Printf("error al parsear el catálogo %s: %v", path, err)
		repo.stocks = nil
		return repo
	}

	for _, s := range repo.stocks {
		repo.byCode[s.Code] = s
	}

	return repo
}

// NewStockRepositoryFromStocks crea un repositorio a partir de una lista
// ya cargada. Útil para tests.
func NewStockRepositoryFromStocks(stocks []models.Stock) *StockRepository {
	repo := &StockRepository{
		stocks: stocks,
		byCode: make(map[string]models.Stock, len(stocks)),
	}
	for _, s := range stocks {
		repo.byCode[s.Code] = s
	}
	return repo
}

// Search devuelve hasta MaxSearchResults tickers cuyo nombre contiene la
// consulta (sin distinguir mayúsculas) o cuyo código coincide exactamente.
// Una consulta vacía o solo espacios devuelve una lista vacía, no todo el
// catálogo. El orden es el orden de carga del catálogo.
func (r *StockRepository) Search(query string) []models.Stock {
	results := make([]models.Stock, 0, MaxSearchResults)

	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return results
	}
	keyword := strings.ToLower(trimmed)

	for _, s := range r.stocks {
		if strings.Contains(strings.ToLower(s.Name), keyword) || s.Code == trimmed {
			results = append(results, s)
			if len(results) == MaxSearchResults {
				break
			}
		}
	}

	return results
}

// GetByCode busca un ticker por código exacto.
func (r *StockRepository) GetByCode(code string) (models.Stock, bool) {
	s, ok := r.byCode[code]
	return s, ok
}

// Len devuelve la cantidad de tickers cargados.
func (r *StockRepository) Len() int {
	return len(r.stocks)
}
