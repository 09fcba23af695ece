package main

import (
	"encoding/json"
	"log"
	"os"

	"stock-api/internal/converter"
)

// Convierte el CSV del proveedor en el stocks.json que carga el servidor.
// Se corre offline cada vez que llega un CSV nuevo; el servidor se reinicia
// para tomar el catálogo actualizado.
func main() {
	csvPath := "stocks.csv"
	outPath := "stocks.json"
	if len(os.Args) > 1 {
		csvPath = os.Args[1]
	}
	if len(os.Args) > 2 {
		outPath = os.Args[2]
	}

	f, err := os.Open(csvPath)
	if err != nil {
		log.Fatalf("Error al abrir %s: %v", csvPath, err)
	}
	defer f.Close()

	stocks, err := converter.Convert(f)
	if err != nil {
		log.Fatalf("Error al convertir el CSV: %v", err)
	}

	data, err := json.MarshalIndent(stocks, "", "  ")
	if err != nil {
		log.Fatalf("Error al serializar el catálogo: %v", err)
	}

	if err := os.WriteFile(outPath, data, 0644); err != nil {
		log.Fatalf("Error al escribir %s: %v", outPath, err)
	}

	log.Printf("%d tickers escritos en %s", len(stocks), outPath)
}
