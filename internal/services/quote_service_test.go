package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConvertEokToMillion(t *testing.T) {
	result := ConvertEokToMillion("250")
	require.NotNil(t, result)
	require.Equal(t, float64(25000), *result)

	result = ConvertEokToMillion("3500000")
	require.NotNil(t, result)
	require.Equal(t, float64(350000000), *result)

	// cero y ausente devuelven nil, nunca 0
	require.Nil(t, ConvertEokToMillion("0"))
	require.Nil(t, ConvertEokToMillion(""))
	require.Nil(t, ConvertEokToMillion("   "))
	require.Nil(t, ConvertEokToMillion("abc"))
}

func TestGetAccessTokenCachesToken(t *testing.T) {
	var tokenCalls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/oauth2/token", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "client_credentials", r.URL.Query().Get("grant_type"))
		require.Equal(t, "mi-key", r.URL.Query().Get("appkey"))
		require.Equal(t, "mi-secret", r.URL.Query().Get("appsecret"))

		atomic.AddInt32(&tokenCalls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"token-abc"}`))
	}))
	defer srv.Close()

	svc := NewQuoteService("mi-key", "mi-secret", WithBaseURL(srv.URL))

	token, err := svc.GetAccessToken(context.Background())
	require.NoError(t, err)
	require.Equal(t, "token-abc", token)

	// la segunda llamada usa el caché, sin tocar la red
	token, err = svc.GetAccessToken(context.Background())
	require.NoError(t, err)
	require.Equal(t, "token-abc", token)
	require.Equal(t, int32(1), atomic.LoadInt32(&tokenCalls))
}

func TestGetAccessTokenRetriesOnce(t *testing.T) {
	var tokenCalls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&tokenCalls, 1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"access_token":"token-retry"}`))
	}))
	defer srv.Close()

	svc := NewQuoteService("k", "s", WithBaseURL(srv.URL), WithRetryBackoff(0))

	token, err := svc.GetAccessToken(context.Background())
	require.NoError(t, err)
	require.Equal(t, "token-retry", token)
	require.Equal(t, int32(2), atomic.LoadInt32(&tokenCalls))
}

func TestGetAccessTokenFailureNotCached(t *testing.T) {
	var tokenCalls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&tokenCalls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	svc := NewQuoteService("k", "s", WithBaseURL(srv.URL), WithRetryBackoff(0))

	_, err := svc.GetAccessToken(context.Background())
	require.Error(t, err)
	// intento original + un reintento
	require.Equal(t, int32(2), atomic.LoadInt32(&tokenCalls))

	// el fallo no queda cacheado: la siguiente llamada vuelve a intentar
	_, err = svc.GetAccessToken(context.Background())
	require.Error(t, err)
	require.Equal(t, int32(4), atomic.LoadInt32(&tokenCalls))
}

func TestFetchQuote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oauth2/token":
			w.Write([]byte(`{"access_token":"token-abc"}`))
		case "/uapi/domestic-stock/v1/quotations/inquire-price":
			require.Equal(t, "Bearer token-abc", r.Header.Get("Authorization"))
			require.Equal(t, "mi-key", r.Header.Get("appkey"))
			require.Equal(t, "mi-secret", r.Header.Get("appsecret"))
			require.Equal(t, "FHKST01010100", r.Header.Get("tr_id"))
			require.Equal(t, "P", r.Header.Get("custtype"))
			require.Equal(t, "J", r.URL.Query().Get("FID_COND_MRKT_DIV_CODE"))
			require.Equal(t, "005930", r.URL.Query().Get("FID_INPUT_ISCD"))

			w.Write([]byte(`{"output":{
				"stck_prpr":"71900","per":"13.5","pbr":"1.4","acml_vol":"1234567",
				"prdy_vrss":"-300","prdy_ctrt":"-0.42","stck_oprc":"72000",
				"stck_hgpr":"72500","stck_lwpr":"71500","stck_mxpr":"93800",
				"stck_llam":"50600","acml_tr_pbmn":"88888888","d250_hgpr":"88800",
				"d250_lwpr":"65000","bstp_kor_isnm":"전기전자","hts_avls":"4292"
			}}`))
		default:
			t.Errorf("petición inesperada a %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	svc := NewQuoteService("mi-key", "mi-secret", WithBaseURL(srv.URL))

	quote, err := svc.FetchQuote(context.Background(), "005930")
	require.NoError(t, err)
	require.Equal(t, "71900", quote.Price)
	require.Equal(t, "13.5", quote.Per)
	require.Equal(t, "1.4", quote.Pbr)
	require.Equal(t, "1234567", quote.Volume)
	require.Equal(t, "-300", quote.Diff)
	require.Equal(t, "-0.42", quote.DiffRate)
	require.Equal(t, "72000", quote.Open)
	require.Equal(t, "72500", quote.High)
	require.Equal(t, "71500", quote.Low)
	require.Equal(t, "93800", quote.Upper)
	require.Equal(t, "50600", quote.Lower)
	require.Equal(t, "88888888", quote.TradeAmount)
	require.Equal(t, "88800", quote.High52w)
	require.Equal(t, "65000", quote.Low52w)
	require.Equal(t, "전기전자", quote.Sector)
	require.NotNil(t, quote.MarketCap)
	require.Equal(t, float64(429200), *quote.MarketCap)
}

func TestFetchQuoteAbsentMarketCap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/oauth2/token" {
			w.Write([]byte(`{"access_token":"token-abc"}`))
			return
		}
		w.Write([]byte(`{"output":{"stck_prpr":"1000","hts_avls":""}}`))
	}))
	defer srv.Close()

	svc := NewQuoteService("k", "s", WithBaseURL(srv.URL))

	quote, err := svc.FetchQuote(context.Background(), "000001")
	require.NoError(t, err)
	require.Equal(t, "1000", quote.Price)
	require.Nil(t, quote.MarketCap)
}

func TestFetchQuoteTokenFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	svc := NewQuoteService("k", "s", WithBaseURL(srv.URL), WithRetryBackoff(0))

	_, err := svc.FetchQuote(context.Background(), "005930")
	require.Error(t, err)
}

func TestFetchQuoteUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/oauth2/token" {
			w.Write([]byte(`{"access_token":"token-abc"}`))
			return
		}
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	svc := NewQuoteService("k", "s", WithBaseURL(srv.URL))

	_, err := svc.FetchQuote(context.Background(), "005930")
	require.Error(t, err)
}

func TestFetchQuoteMalformedPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/oauth2/token" {
			w.Write([]byte(`{"access_token":"token-abc"}`))
			return
		}
		w.Write([]byte(`no es json`))
	}))
	defer srv.Close()

	svc := NewQuoteService("k", "s", WithBaseURL(srv.URL))

	_, err := svc.FetchQuote(context.Background(), "005930")
	require.Error(t, err)
}
