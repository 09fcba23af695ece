package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"stock-api/internal/models"
)

const (
	// Dirección base de la API abierta de Korea Investment & Securities
	defaultBaseURL = "https://openapi.koreainvestment.com:9443"

	tokenPath = "/oauth2/token"
	quotePath = "/uapi/domestic-stock/v1/quotations/inquire-price"

	// tr_id del endpoint inquire-price (consulta de precio básica)
	trIDInquirePrice = "FHKST01010100"
	// custtype P = cliente personal
	custTypePersonal = "P"
	// J = mercado KRX
	marketDivisionKRX = "J"
)

// QuoteService es el cliente de la API de cotizaciones de Korea Investment.
// Mantiene el token de acceso en caché durante la vida del proceso: el token
// dura 24h y el servicio se reinicia antes, así que no se trackea expiración.
type QuoteService struct {
	baseURL      string
	appKey       string
	appSecret    string
	client       *http.Client
	retryBackoff time.Duration

	mutex sync.RWMutex
	token string
}

// Option configura un QuoteService
type Option func(*QuoteService)

// WithBaseURL reemplaza la URL base del upstream
func WithBaseURL(baseURL string) Option {
	return func(s *QuoteService) { s.baseURL = baseURL }
}

// WithHTTPClient reemplaza el cliente HTTP
func WithHTTPClient(client *http.Client) Option {
	return func(s *QuoteService) { s.client = client }
}

// WithRetryBackoff ajusta la espera antes del reintento del token
func WithRetryBackoff(d time.Duration) Option {
	return func(s *QuoteService) { s.retryBackoff = d }
}

// NewQuoteService crea el cliente con las dos credenciales de la API.
// Se construye una sola vez en el arranque y se pasa a los handlers.
func NewQuoteService(appKey, appSecret string, opts ...Option) *QuoteService {
	s := &QuoteService{
		baseURL:      defaultBaseURL,
		appKey:       appKey,
		appSecret:    appSecret,
		client:       &http.Client{Timeout: 10 * time.Second},
		retryBackoff: 500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetAccessToken devuelve el token cacheado si existe; si no, lo pide al
// endpoint OAuth con un reintento. Un fallo nunca se cachea. Dos peticiones
// concurrentes pueden pedir el token por duplicado y sobrescribir el slot;
// cualquiera de los dos tokens sirve.
func (s *QuoteService) GetAccessToken(ctx context.Context) (string, error) {
	s.mutex.RLock()
	token := s.token
	s.mutex.RUnlock()
	if token != "" {
		return token, nil
	}

	token, err := s.requestToken(ctx)
	if err != nil {
		time.Sleep(s.retryBackoff)
		token, err = s.requestToken(ctx)
		if err != nil {
			return "", err
		}
	}

	s.mutex.Lock()
	s.token = token
	s.mutex.Unlock()

	return token, nil
}

func (s *QuoteService) requestToken(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+tokenPath, nil)
	if err != nil {
		return "", fmt.Errorf("crear petición de token: %w", err)
	}

	q := req.URL.Query()
	q.Set("grant_type", "client_credentials")
	q.Set("appkey", s.appKey)
	q.Set("appsecret", s.appSecret)
	req.URL.RawQuery = q.Encode()

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("petición de token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("petición de token devolvió estado %d", resp.StatusCode)
	}

	var body struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("parsear respuesta de token: %w", err)
	}
	if body.AccessToken == "" {
		return "", fmt.Errorf("respuesta de token sin access_token")
	}

	return body.AccessToken, nil
}

// inquirePriceResponse es el payload del endpoint inquire-price; todos los
// campos numéricos llegan como strings
type inquirePriceResponse struct {
	Output struct {
		StckPrpr    string `json:"stck_prpr"`     // precio actual
		Per         string `json:"per"`           // PER
		Pbr         string `json:"pbr"`           // PBR
		AcmlVol     string `json:"acml_vol"`      // volumen acumulado
		PrdyVrss    string `json:"prdy_vrss"`     // diferencia contra el día anterior
		PrdyCtrt    string `json:"prdy_ctrt"`     // diferencia en %
		StckOprc    string `json:"stck_oprc"`     // apertura
		StckHgpr    string `json:"stck_hgpr"`     // máximo del día
		StckLwpr    string `json:"stck_lwpr"`     // mínimo del día
		StckMxpr    string `json:"stck_mxpr"`     // límite superior diario
		StckLlam    string `json:"stck_llam"`     // límite inferior diario
		AcmlTrPbmn  string `json:"acml_tr_pbmn"`  // monto operado
		D250Hgpr    string `json:"d250_hgpr"`     // máximo 52 semanas
		D250Lwpr    string `json:"d250_lwpr"`     // mínimo 52 semanas
		BstpKorIsnm string `json:"bstp_kor_isnm"` // sector
		HtsAvls     string `json:"hts_avls"`      // capitalización en unidades de cien millones
	} `json:"output"`
}

// FetchQuote consulta la cotización en vivo de un ticker. Cualquier fallo
// (token, red, estado no-200, payload inválido) se devuelve como error para
// que el handler lo loguee y degrade a la respuesta estática.
func (s *QuoteService) FetchQuote(ctx context.Context, code string) (*models.QuoteData, error) {
	token, err := s.GetAccessToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("obtener token de acceso: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+quotePath, nil)
	if err != nil {
		return nil, fmt.Errorf("crear petición de cotización: %w", err)
	}

	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("appkey", s.appKey)
	req.Header.Set("appsecret", s.appSecret)
	req.Header.Set("tr_id", trIDInquirePrice)
	req.Header.Set("custtype", custTypePersonal)

	q := req.URL.Query()
	q.Set("FID_COND_MRKT_DIV_CODE", marketDivisionKRX)
	q.Set("FID_INPUT_ISCD", code)
	req.URL.RawQuery = q.Encode()

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("petición de cotización: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("petición de cotización devolvió estado %d", resp.StatusCode)
	}

	var body inquirePriceResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("parsear respuesta de cotización: %w", err)
	}

	out := body.Output
	return &models.QuoteData{
		Price:       out.StckPrpr,
		Per:         out.Per,
		Pbr:         out.Pbr,
		Volume:      out.AcmlVol,
		Diff:        out.PrdyVrss,
		DiffRate:    out.PrdyCtrt,
		Open:        out.StckOprc,
		High:        out.StckHgpr,
		Low:         out.StckLwpr,
		Upper:       out.StckMxpr,
		Lower:       out.StckLlam,
		TradeAmount: out.AcmlTrPbmn,
		High52w:     out.D250Hgpr,
		Low52w:      out.D250Lwpr,
		Sector:      out.BstpKorIsnm,
		MarketCap:   ConvertEokToMillion(out.HtsAvls),
	}, nil
}

// ConvertEokToMillion reescala la capitalización de unidades de cien millones
// (eok, la unidad del upstream) a millones. Un valor ausente, cero o no
// numérico devuelve nil (dato ausente), nunca 0.
func ConvertEokToMillion(value string) *float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || v == 0 {
		return nil
	}
	million := v * 100
	return &million
}
