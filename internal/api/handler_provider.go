package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/fastprodman/vapor/internal/market"
	"github.com/fastprodman/vapor/internal/money"
	"github.com/fastprodman/vapor/internal/services/session"
	"github.com/go-chi/chi/v5"
)

// HandlerProvider exposes the market operations over HTTP.
type HandlerProvider struct {
	svc    *session.Service
	tokens *Tokens
}

// NewHandler returns a new Handler provider.
func NewHandler(svc *session.Service, tokens *Tokens) *HandlerProvider {
	return &HandlerProvider{svc: svc, tokens: tokens}
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

var (
	errBadBody = errors.New("bad request body")
	errBadPath = errors.New("bad path parameter")
)

// pathParam returns the decoded route parameter. chi routes on RawPath when the
// request carries escapes such as %2F, and then the value is still escaped.
func pathParam(r *http.Request, key string) (string, error) {
	raw := chi.URLParam(r, key)
	if r.URL.RawPath == "" {
		return raw, nil
	}

	v, err := url.PathUnescape(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", errBadPath, key, err)
	}

	return v, nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", errBadBody)
		}

		return fmt.Errorf("%w: %v", errBadBody, err)
	}

	return nil
}

// statusFor maps domain errors to HTTP statuses.
//
//nolint:cyclop
func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadBody),
		errors.Is(err, errBadPath),
		errors.Is(err, money.ErrInvalidAmount),
		errors.Is(err, market.ErrInvalidUsername),
		errors.Is(err, market.ErrInvalidUserType),
		errors.Is(err, market.ErrInvalidGameName),
		errors.Is(err, market.ErrInvalidPrice),
		errors.Is(err, market.ErrInvalidDiscount),
		errors.Is(err, market.ErrSelfDeletion),
		errors.Is(err, market.ErrSelfRefund),
		errors.Is(err, market.ErrSelfGift):
		return http.StatusBadRequest
	case errors.Is(err, market.ErrNotLoggedIn),
		errors.Is(err, session.ErrSessionExpired):
		return http.StatusUnauthorized
	case errors.Is(err, market.ErrUnauthorized),
		errors.Is(err, market.ErrNotBuyer),
		errors.Is(err, market.ErrNotSeller):
		return http.StatusForbidden
	case errors.Is(err, market.ErrUserNotFound),
		errors.Is(err, market.ErrGameNotFound):
		return http.StatusNotFound
	case errors.Is(err, market.ErrAlreadyLoggedIn),
		errors.Is(err, market.ErrUserExists),
		errors.Is(err, market.ErrOwnListing),
		errors.Is(err, market.ErrDuplicateGame),
		errors.Is(err, market.ErrNotEligible),
		errors.Is(err, market.ErrInsufficientFunds),
		errors.Is(err, market.ErrDailyCreditLimit),
		errors.Is(err, money.ErrOverflow):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "path", r.URL.Path, "error", err)
		writeError(w, status, "internal error")

		return
	}

	slog.Debug("request rejected", "path", r.URL.Path, "status", status, "error", err)
	writeError(w, status, err.Error())
}

// do runs fn for the caller's session and writes either the error or ok.
func (h *HandlerProvider) do(w http.ResponseWriter, r *http.Request, status int, fn func(m *market.Market) (any, error)) {
	var resp any

	err := h.svc.Do(sessionFrom(r.Context()), func(m *market.Market) error {
		var err error

		resp, err = fn(m)

		return err
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	if resp == nil {
		resp = map[string]string{"status": "ok"}
	}

	writeJSON(w, status, resp)
}

// --- Responses ---

type gameResponse struct {
	Name     string `json:"name"`
	Giftable bool   `json:"giftable"`
}

type listingResponse struct {
	Seller    string `json:"seller,omitempty"`
	Game      string `json:"game"`
	Price     string `json:"price"`
	Discount  string `json:"discount"`
	SalePrice string `json:"salePrice"`
	Buyable   bool   `json:"buyable"`
}

type userResponse struct {
	Username     string            `json:"username"`
	Type         string            `json:"type"`
	Balance      string            `json:"balance"`
	CreditsAdded string            `json:"creditsAdded"`
	Games        []gameResponse    `json:"games"`
	Listings     []listingResponse `json:"listings"`
}

func toListingResponse(seller string, l market.Listing, auctionSale bool) listingResponse {
	return listingResponse{
		Seller:    seller,
		Game:      l.Game.Name,
		Price:     l.Price.String(),
		Discount:  l.Discount.String(),
		SalePrice: l.SalePrice(auctionSale).String(),
		Buyable:   l.Buyable,
	}
}

func toUserResponse(v market.UserView, auctionSale bool) userResponse {
	resp := userResponse{
		Username:     v.Username,
		Type:         string(v.Type),
		Balance:      v.Balance.String(),
		CreditsAdded: v.CreditsAdded.String(),
		Games:        make([]gameResponse, 0, len(v.Games)),
		Listings:     make([]listingResponse, 0, len(v.Listings)),
	}

	for _, g := range v.Games {
		resp.Games = append(resp.Games, gameResponse{Name: g.Name, Giftable: g.Giftable})
	}

	for _, l := range v.Listings {
		resp.Listings = append(resp.Listings, toListingResponse("", l, auctionSale))
	}

	return resp
}

// --- Handlers ---

type loginRequest struct {
	Username string `json:"username"`
}

// LoginHandler handles POST /session
func (h *HandlerProvider) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest

	err := decodeJSON(w, r, &req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	sess, err := h.svc.Login(req.Username)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	token, err := h.tokens.Issue(sess.ID, sess.Username)
	if err != nil {
		// the token is lost, so the session has to be closed here
		cerr := h.svc.Logout(r.Context(), sess.ID)
		if cerr != nil {
			slog.Error("close session after token failure", "error", cerr)
		}

		writeDomainError(w, r, err)

		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": token, "username": sess.Username})
}

// LogoutHandler handles DELETE /session
func (h *HandlerProvider) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	err := h.svc.Logout(r.Context(), sessionFrom(r.Context()))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetUserHandler handles GET /users/{username}
func (h *HandlerProvider) GetUserHandler(w http.ResponseWriter, r *http.Request) {
	username, err := pathParam(r, "username")
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	var resp userResponse

	h.svc.View(func(m *market.Market) {
		var v market.UserView

		v, err = m.User(username)
		if err == nil {
			resp = toUserResponse(v, m.AuctionSale())
		}
	})

	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// ListListingsHandler handles GET /listings
func (h *HandlerProvider) ListListingsHandler(w http.ResponseWriter, r *http.Request) {
	var resp []listingResponse

	h.svc.View(func(m *market.Market) {
		listings := m.Listings()
		resp = make([]listingResponse, 0, len(listings))

		for _, l := range listings {
			resp = append(resp, toListingResponse(l.Seller, l.Listing, m.AuctionSale()))
		}
	})

	writeJSON(w, http.StatusOK, resp)
}

type createUserRequest struct {
	Username string `json:"username"`
	Type     string `json:"type"`
	Credit   string `json:"credit"`
}

// CreateUserHandler handles POST /users
func (h *HandlerProvider) CreateUserHandler(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest

	err := decodeJSON(w, r, &req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	t, err := market.ParseUserType(req.Type)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	credit := money.Credits(0)
	if req.Credit != "" {
		credit, err = money.Parse(req.Credit)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
	}

	h.do(w, r, http.StatusCreated, func(m *market.Market) (any, error) {
		err := m.CreateAccount(req.Username, t, credit)
		if err != nil {
			return nil, err
		}

		v, err := m.User(req.Username)

		return toUserResponse(v, m.AuctionSale()), err
	})
}

// DeleteUserHandler handles DELETE /users/{username}
func (h *HandlerProvider) DeleteUserHandler(w http.ResponseWriter, r *http.Request) {
	username, err := pathParam(r, "username")
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	h.do(w, r, http.StatusOK, func(m *market.Market) (any, error) {
		return nil, m.DeleteAccount(username)
	})
}

type creditRequest struct {
	Amount   string `json:"amount"`
	Username string `json:"username,omitempty"`
}

// AddCreditHandler handles POST /credits
func (h *HandlerProvider) AddCreditHandler(w http.ResponseWriter, r *http.Request) {
	var req creditRequest

	err := decodeJSON(w, r, &req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	amount, err := money.Parse(req.Amount)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	h.do(w, r, http.StatusOK, func(m *market.Market) (any, error) {
		err := m.AddCredit(amount, req.Username)
		if err != nil {
			return nil, err
		}

		target := req.Username
		if target == "" {
			target, _ = m.Active()
		}

		v, err := m.User(target)

		return map[string]string{"username": v.Username, "balance": v.Balance.String()}, err
	})
}

type sellRequest struct {
	Game     string `json:"game"`
	Price    string `json:"price"`
	Discount string `json:"discount"`
}

// SellHandler handles POST /listings
func (h *HandlerProvider) SellHandler(w http.ResponseWriter, r *http.Request) {
	var req sellRequest

	err := decodeJSON(w, r, &req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	price, err := money.Parse(req.Price)
	if err != nil {
		writeDomainError(w, r, fmt.Errorf("%w: %w", market.ErrInvalidPrice, err))
		return
	}

	discount := money.Percent(0)
	if req.Discount != "" {
		discount, err = money.ParsePercent(req.Discount)
		if err != nil {
			writeDomainError(w, r, fmt.Errorf("%w: %w", market.ErrInvalidDiscount, err))
			return
		}
	}

	h.do(w, r, http.StatusCreated, func(m *market.Market) (any, error) {
		return nil, m.Sell(req.Game, price, discount)
	})
}

type purchaseRequest struct {
	Game   string `json:"game"`
	Seller string `json:"seller"`
}

// BuyHandler handles POST /purchases
func (h *HandlerProvider) BuyHandler(w http.ResponseWriter, r *http.Request) {
	var req purchaseRequest

	err := decodeJSON(w, r, &req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	h.do(w, r, http.StatusOK, func(m *market.Market) (any, error) {
		err := m.Buy(req.Game, req.Seller)
		if err != nil {
			return nil, err
		}

		buyer, _ := m.Active()
		v, err := m.User(buyer)

		return map[string]string{"username": v.Username, "balance": v.Balance.String()}, err
	})
}

type giftRequest struct {
	Game     string `json:"game"`
	Receiver string `json:"receiver"`
	Owner    string `json:"owner,omitempty"`
}

// GiftHandler handles POST /gifts
func (h *HandlerProvider) GiftHandler(w http.ResponseWriter, r *http.Request) {
	var req giftRequest

	err := decodeJSON(w, r, &req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	h.do(w, r, http.StatusOK, func(m *market.Market) (any, error) {
		return nil, m.Gift(req.Game, req.Receiver, req.Owner)
	})
}

// RemoveGameHandler handles DELETE /games/{game}?owner=
func (h *HandlerProvider) RemoveGameHandler(w http.ResponseWriter, r *http.Request) {
	game, err := pathParam(r, "game")
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	owner := r.URL.Query().Get("owner")

	h.do(w, r, http.StatusOK, func(m *market.Market) (any, error) {
		return nil, m.RemoveGame(game, owner)
	})
}

type refundRequest struct {
	Buyer  string `json:"buyer"`
	Seller string `json:"seller"`
	Amount string `json:"amount"`
}

// RefundHandler handles POST /refunds
func (h *HandlerProvider) RefundHandler(w http.ResponseWriter, r *http.Request) {
	var req refundRequest

	err := decodeJSON(w, r, &req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	amount, err := money.Parse(req.Amount)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	h.do(w, r, http.StatusOK, func(m *market.Market) (any, error) {
		return nil, m.Refund(req.Buyer, req.Seller, amount)
	})
}

// AuctionSaleHandler handles POST /auction-sale
func (h *HandlerProvider) AuctionSaleHandler(w http.ResponseWriter, r *http.Request) {
	h.do(w, r, http.StatusOK, func(m *market.Market) (any, error) {
		on, err := m.ToggleAuctionSale()

		return map[string]bool{"auctionSale": on}, err
	})
}
