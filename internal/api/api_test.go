package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fastprodman/vapor/internal/ledger"
	"github.com/fastprodman/vapor/internal/market"
	"github.com/fastprodman/vapor/internal/services/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testAPI struct {
	srv  *httptest.Server
	sink *ledger.FileSink
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	sink := ledger.NewFileSink(filepath.Join(t.TempDir(), "daily.txt"))
	require.NoError(t, sink.Reset())

	m, err := market.Restore(market.State{
		Accounts: []market.Account{
			{Username: "admin", Type: market.Admin},
			{Username: "bob", Type: market.FullStandard, Balance: 5000},
			{
				Username: "carol",
				Type:     market.Seller,
				Listings: []market.ListingState{{Game: "Portal 2", Price: 1999, Discount: 5000}},
			},
			{Username: "dave", Type: market.Buyer, Balance: 1000},
		},
	}, sink)
	require.NoError(t, err)

	h := NewHandler(session.New(m), NewTokens("test-secret", time.Hour))
	srv := httptest.NewServer(NewRouter(h))
	t.Cleanup(srv.Close)

	return &testAPI{srv: srv, sink: sink}
}

func (a *testAPI) call(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()

	var rdr *bytes.Reader

	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)

		rdr = bytes.NewReader(raw)
	} else {
		rdr = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(t.Context(), method, a.srv.URL+path, rdr)
	require.NoError(t, err)

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := a.srv.Client().Do(req)
	require.NoError(t, err)

	defer resp.Body.Close()

	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)

	return resp.StatusCode, out
}

func (a *testAPI) login(t *testing.T, username string) string {
	t.Helper()

	code, out := a.call(t, http.MethodPost, "/session", "", map[string]string{"username": username})
	require.Equal(t, http.StatusOK, code, out)

	token, ok := out["token"].(string)
	require.True(t, ok)

	return token
}

func (a *testAPI) balance(t *testing.T, username string) string {
	t.Helper()

	code, out := a.call(t, http.MethodGet, "/users/"+username, "", nil)
	require.Equal(t, http.StatusOK, code, out)

	return out["balance"].(string)
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	a := newTestAPI(t)

	code, out := a.call(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", out["status"])
}

func TestSession_Lifecycle(t *testing.T) {
	t.Parallel()

	a := newTestAPI(t)

	code, _ := a.call(t, http.MethodPost, "/session", "", map[string]string{"username": "nobody"})
	assert.Equal(t, http.StatusNotFound, code)

	token := a.login(t, "bob")

	code, _ = a.call(t, http.MethodPost, "/session", "", map[string]string{"username": "dave"})
	assert.Equal(t, http.StatusConflict, code, "one session at a time")

	code, _ = a.call(t, http.MethodDelete, "/session", token, nil)
	require.Equal(t, http.StatusOK, code)

	raw, err := os.ReadFile(a.sink.Path())
	require.NoError(t, err)
	assert.Equal(t, "00 bob             FS 000050.00\n10 bob             FS 000050.00\n", string(raw))

	code, _ = a.call(t, http.MethodPost, "/credits", token, map[string]string{"amount": "1"})
	assert.Equal(t, http.StatusUnauthorized, code, "token dies with its session")

	fresh := a.login(t, "dave")
	code, _ = a.call(t, http.MethodPost, "/credits", token, map[string]string{"amount": "1"})
	assert.Equal(t, http.StatusUnauthorized, code, "old token does not reach the new session")

	code, _ = a.call(t, http.MethodPost, "/credits", fresh, map[string]string{"amount": "1"})
	assert.Equal(t, http.StatusOK, code)
}

func TestAuth_RejectsBadTokens(t *testing.T) {
	t.Parallel()

	a := newTestAPI(t)

	code, _ := a.call(t, http.MethodPost, "/credits", "", map[string]string{"amount": "1"})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = a.call(t, http.MethodPost, "/credits", "not-a-jwt", map[string]string{"amount": "1"})
	assert.Equal(t, http.StatusUnauthorized, code)

	forged, err := NewTokens("other-secret", time.Hour).Issue("id", "admin")
	require.NoError(t, err)

	code, _ = a.call(t, http.MethodPost, "/credits", forged, map[string]string{"amount": "1"})
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestBuy(t *testing.T) {
	t.Parallel()

	a := newTestAPI(t)
	token := a.login(t, "bob")

	code, out := a.call(t, http.MethodPost, "/purchases", token,
		map[string]string{"game": "Portal 2", "seller": "carol"})
	require.Equal(t, http.StatusOK, code, out)
	assert.Equal(t, "30.01", out["balance"])

	assert.Equal(t, "30.01", a.balance(t, "bob"))
	assert.Equal(t, "19.99", a.balance(t, "carol"))

	code, _ = a.call(t, http.MethodPost, "/purchases", token,
		map[string]string{"game": "Portal 2", "seller": "carol"})
	assert.Equal(t, http.StatusConflict, code)

	code, _ = a.call(t, http.MethodPost, "/purchases", token,
		map[string]string{"game": "Doom", "seller": "carol"})
	assert.Equal(t, http.StatusNotFound, code)

	assert.Equal(t, "30.01", a.balance(t, "bob"))
}

func TestAddCredit_DailyLimit(t *testing.T) {
	t.Parallel()

	a := newTestAPI(t)
	token := a.login(t, "dave")

	code, out := a.call(t, http.MethodPost, "/credits", token, map[string]string{"amount": "1000.01"})
	assert.Equal(t, http.StatusConflict, code, out)
	assert.Equal(t, "10.00", a.balance(t, "dave"))

	code, _ = a.call(t, http.MethodPost, "/credits", token, map[string]string{"amount": "1.005"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = a.call(t, http.MethodPost, "/credits", token, map[string]string{"amount": "5", "username": "bob"})
	assert.Equal(t, http.StatusForbidden, code)

	code, out = a.call(t, http.MethodPost, "/credits", token, map[string]string{"amount": "1000"})
	require.Equal(t, http.StatusOK, code, out)
	assert.Equal(t, "1010.00", out["balance"])
}

func TestAdminOperations(t *testing.T) {
	t.Parallel()

	a := newTestAPI(t)

	bob := a.login(t, "bob")
	code, _ := a.call(t, http.MethodPost, "/users", bob, map[string]string{"username": "erin", "type": "BS"})
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = a.call(t, http.MethodDelete, "/session", bob, nil)
	require.Equal(t, http.StatusOK, code)

	admin := a.login(t, "admin")

	code, out := a.call(t, http.MethodPost, "/users", admin,
		map[string]string{"username": "erin", "type": "Buyer", "credit": "12.50"})
	require.Equal(t, http.StatusCreated, code, out)
	assert.Equal(t, "12.50", out["balance"])
	assert.Equal(t, "BS", out["type"])

	code, _ = a.call(t, http.MethodPost, "/users", admin,
		map[string]string{"username": "erin", "type": "BS"})
	assert.Equal(t, http.StatusConflict, code)

	code, _ = a.call(t, http.MethodPost, "/users", admin,
		map[string]string{"username": "x", "type": "ZZ"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, out = a.call(t, http.MethodPost, "/auction-sale", admin, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, out["auctionSale"])

	code, _ = a.call(t, http.MethodPost, "/refunds", admin,
		map[string]string{"buyer": "dave", "seller": "carol", "amount": "1.00"})
	assert.Equal(t, http.StatusConflict, code, "carol has no credits")

	code, _ = a.call(t, http.MethodDelete, "/games/"+url.PathEscape("Portal 2")+"?owner=carol", admin, nil)
	assert.Equal(t, http.StatusOK, code)

	for _, game := range []string{"AC/DC Rocks", "Half-Life: Alyx", "50% Off"} {
		code, out = a.call(t, http.MethodPost, "/listings", admin,
			map[string]string{"game": game, "price": "1.00"})
		require.Equal(t, http.StatusCreated, code, out)

		code, out = a.call(t, http.MethodDelete, "/games/"+url.PathEscape(game), admin, nil)
		assert.Equal(t, http.StatusOK, code, "remove %q: %v", game, out)
	}

	code, _ = a.call(t, http.MethodDelete, "/users/dave", admin, nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = a.call(t, http.MethodDelete, "/users/admin", admin, nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestSellAndListings(t *testing.T) {
	t.Parallel()

	a := newTestAPI(t)
	token := a.login(t, "bob")

	code, _ := a.call(t, http.MethodPost, "/listings", token,
		map[string]string{"game": "Celeste", "price": "15.00", "discount": "10"})
	require.Equal(t, http.StatusCreated, code)

	code, _ = a.call(t, http.MethodPost, "/listings", token,
		map[string]string{"game": "Quake", "price": "1000.00"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = a.call(t, http.MethodPost, "/listings", token,
		map[string]string{"game": "Quake", "price": "1.00", "discount": "100"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = a.call(t, http.MethodPost, "/listings", token, map[string]any{"game": "Quake", "bogus": 1})
	assert.Equal(t, http.StatusBadRequest, code)

	resp, err := a.srv.Client().Get(a.srv.URL + "/listings")
	require.NoError(t, err)

	defer resp.Body.Close()

	var listings []listingResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&listings))

	require.Len(t, listings, 2)
	assert.Equal(t, listingResponse{
		Seller: "bob", Game: "Celeste", Price: "15.00", Discount: "10.00", SalePrice: "15.00", Buyable: false,
	}, listings[0])
	assert.Equal(t, "carol", listings[1].Seller)
	assert.True(t, listings[1].Buyable)
}

func TestGift(t *testing.T) {
	t.Parallel()

	a := newTestAPI(t)
	token := a.login(t, "bob")

	code, _ := a.call(t, http.MethodPost, "/purchases", token,
		map[string]string{"game": "Portal 2", "seller": "carol"})
	require.Equal(t, http.StatusOK, code)

	code, _ = a.call(t, http.MethodPost, "/gifts", token,
		map[string]string{"game": "Portal 2", "receiver": "dave"})
	assert.Equal(t, http.StatusConflict, code, "bought today")

	code, _ = a.call(t, http.MethodPost, "/gifts", token,
		map[string]string{"game": "Portal 2", "receiver": "carol"})
	assert.Equal(t, http.StatusForbidden, code, "sellers cannot receive games")
}
