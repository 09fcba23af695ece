package main

import (
	"log"
	"os"

	"stock-api/internal/middleware"
	"stock-api/internal/repository"
	routes "stock-api/internal/server"
	"stock-api/internal/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Cargar variables de entorno
	if err := godotenv.Load(); err != nil {
		log.Printf("No se pudo cargar el archivo .env: %v", err)
	}

	// Crear el router de Gin
	router := gin.Default()

	// Configurar CORS: el front-end se sirve desde otro origen
	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AllowMethods = []string{"GET", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	router.Use(cors.New(config))

	// Cargar el catálogo estático (generado offline con cmd/update-csv)
	dataPath := os.Getenv("STOCKS_FILE")
	if dataPath == "" {
		dataPath = "stocks.json"
	}
	repo := repository.NewStockRepository(dataPath)
	log.Printf("%d tickers cargados desde %s", repo.Len(), dataPath)

	// Cliente de cotizaciones: una sola instancia para todo el proceso,
	// dueña del token cacheado
	quotes := services.NewQuoteService(os.Getenv("API_KEY"), os.Getenv("API_SECRET"))

	// Configurar las rutas
	handler := middleware.NewStockHandler(repo, quotes)
	routes.RegisterRoutes(router, handler)

	// Iniciar el servidor
	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}

	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Error al iniciar el servidor: %v", err)
	}
}
