package http

import (
	"net/http"

	"finapp/internal/core"
	"finapp/internal/services"
)

// holdingInput reads a holding form. qtyField names the quantity field
// ("amount" for crypto, "shares" for stocks); "quantity" is accepted for both.
func holdingInput(p *RequestBodyParser, qtyField string) services.HoldingInput {
	qty := p.Get(qtyField)
	if qty == "" {
		qty = p.Get("quantity")
	}
	return services.HoldingInput{
		Symbol:   p.Get("symbol"),
		Name:     p.Get("name"),
		Quantity: qty,
		Price:    p.Get("price"),
		IconName: p.Get("icon_name"),
	}
}

func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	sum, err := s.deps.Portfolio.Summary(r.Context())
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	NewResponse().JSON(newPortfolioView(sum)).Write(w)
}

func (s *Server) handleListCrypto(w http.ResponseWriter, r *http.Request) {
	assets, err := s.deps.Portfolio.CryptoAssets(r.Context())
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	hs := make([]core.Holding, 0, len(assets))
	for _, a := range assets {
		hs = append(hs, a.Holding())
	}
	NewResponse().JSON(map[string]interface{}{"crypto": holdingsView(hs)}).Write(w)
}

func (s *Server) handleAddCrypto(w http.ResponseWriter, r *http.Request) {
	p, ok := readBody(w, r)
	if !ok {
		return
	}
	a, err := s.deps.Portfolio.AddCryptoAsset(r.Context(), holdingInput(p, "amount"))
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	NewResponse().
		Status(http.StatusCreated).
		Event(EventPortfolioChanged, map[string]string{"crypto_id": a.ID}).
		JSON(holdingsView([]core.Holding{a.Holding()})[0]).
		Write(w)
}

func (s *Server) handleDeleteCrypto(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.deps.Portfolio.DeleteCryptoAsset(r.Context(), id); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	NewResponse().
		Status(http.StatusNoContent).
		Event(EventPortfolioChanged, map[string]string{"crypto_id": id}).
		Write(w)
}

func (s *Server) handleListStocks(w http.ResponseWriter, r *http.Request) {
	stocks, err := s.deps.Portfolio.Stocks(r.Context())
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	hs := make([]core.Holding, 0, len(stocks))
	for _, st := range stocks {
		hs = append(hs, st.Holding())
	}
	NewResponse().JSON(map[string]interface{}{"stocks": holdingsView(hs)}).Write(w)
}

func (s *Server) handleAddStock(w http.ResponseWriter, r *http.Request) {
	p, ok := readBody(w, r)
	if !ok {
		return
	}
	st, err := s.deps.Portfolio.AddStock(r.Context(), holdingInput(p, "shares"))
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	NewResponse().
		Status(http.StatusCreated).
		Event(EventPortfolioChanged, map[string]string{"stock_id": st.ID}).
		JSON(holdingsView([]core.Holding{st.Holding()})[0]).
		Write(w)
}

func (s *Server) handleDeleteStock(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.deps.Portfolio.DeleteStock(r.Context(), id); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	NewResponse().
		Status(http.StatusNoContent).
		Event(EventPortfolioChanged, map[string]string{"stock_id": id}).
		Write(w)
}
