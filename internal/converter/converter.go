package converter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"stock-api/internal/models"

	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/transform"
)

// Nombres de columna del CSV de KRX
const (
	columnCode      = "종목코드" // código del ticker
	columnName      = "종목명"  // nombre
	columnMarket    = "시장구분" // segmento de mercado
	columnMarketCap = "시가총액" // capitalización, con separadores de miles
)

// Convert lee el CSV del proveedor (codificado en CP949) y devuelve los
// registros del catálogo. Las filas sin código o sin nombre se saltan; una
// capitalización no numérica queda en 0. Las filas con cantidad de campos
// distinta al header se toleran.
func Convert(r io.Reader) ([]models.Stock, error) {
	reader := csv.NewReader(transform.NewReader(r, korean.EUCKR.NewDecoder()))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return []models.Stock{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("leer header del CSV: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimPrefix(h, "\ufeff")
		columns[strings.TrimSpace(h)] = i
	}
	if _, ok := columns[columnCode]; !ok {
		return nil, fmt.Errorf("el CSV no tiene la columna %s", columnCode)
	}
	if _, ok := columns[columnName]; !ok {
		return nil, fmt.Errorf("el CSV no tiene la columna %s", columnName)
	}

	var stocks []models.Stock
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("leer fila del CSV: %w", err)
		}

		code := field(row, columns, columnCode)
		name := field(row, columns, columnName)
		if code == "" || name == "" {
			continue
		}

		capStr := strings.ReplaceAll(field(row, columns, columnMarketCap), ",", "")
		marketCap, err := strconv.ParseFloat(capStr, 64)
		if err != nil {
			marketCap = 0
		}

		stocks = append(stocks, models.Stock{
			Code:      code,
			Name:      name,
			Market:    field(row, columns, columnMarket),
			MarketCap: marketCap,
		})
	}

	return stocks, nil
}

func field(row []string, columns map[string]int, name string) string {
	i, ok := columns[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
