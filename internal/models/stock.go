package models

// Stock es un registro estático del catálogo, generado offline a partir del
// CSV de KRX y cargado una sola vez al arrancar.
type Stock struct {
	Code      string  `json:"code"`
	Name      string  `json:"name"`
	Market    string  `json:"market"`
	MarketCap float64 `json:"marketCap"`
}

// QuoteData contiene los datos en vivo de un ticker devueltos por la API de
// Korea Investment. Los campos llegan como strings desde el upstream y se
// pasan tal cual; solo la capitalización se reescala (ver services).
type QuoteData struct {
	Price       string   `json:"price"`
	Per         string   `json:"per"`
	Pbr         string   `json:"pbr"`
	Volume      string   `json:"volume"`
	Diff        string   `json:"diff"`
	DiffRate    string   `json:"diffRate"`
	Open        string   `json:"open"`
	High        string   `json:"high"`
	Low         string   `json:"low"`
	Upper       string   `json:"upper"`
	Lower       string   `json:"lower"`
	TradeAmount string   `json:"tradeAmount"`
	High52w     string   `json:"high52w"`
	Low52w      string   `json:"low52w"`
	Sector      string   `json:"sector"`
	MarketCap   *float64 `json:"marketCap,omitempty"`
}
