package http

import (
	"net/http"

	"finapp/internal/core"
	"finapp/internal/services"
)

func (s *Server) handleListWallets(w http.ResponseWriter, r *http.Request) {
	wallets := s.deps.Ledger.Wallets()
	v := walletListView{Wallets: make([]walletView, 0, len(wallets))}
	for _, wl := range wallets {
		v.Wallets = append(v.Wallets, newWalletView(wl))
	}
	v.ResetNotice = s.resetNotice.Swap(false)
	NewResponse().JSON(v).Write(w)
}

func (s *Server) handleAddWallet(w http.ResponseWriter, r *http.Request) {
	p, ok := readBody(w, r)
	if !ok {
		return
	}
	wl, err := s.deps.Ledger.AddWallet(r.Context(), services.WalletInput{
		Name:     p.Get("name"),
		Currency: p.Get("currency"),
		CardType: p.Get("card_type"),
	})
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	NewResponse().
		Status(http.StatusCreated).
		WalletEvent(EventWalletCreated, wl.ID).
		JSON(newWalletView(wl)).
		Write(w)
}

// handleUpdateWallet renames the wallet when "name" is present and flips the
// card type when "toggle_card_type" is true. Unknown wallets answer 204.
func (s *Server) handleUpdateWallet(w http.ResponseWriter, r *http.Request) {
	p, ok := readBody(w, r)
	if !ok {
		return
	}
	var u services.WalletUpdate
	if p.Has("name") {
		name := p.Get("name")
		u.Name = &name
	}
	u.ToggleCardType = p.Bool("toggle_card_type")

	wl, found, err := s.deps.Ledger.UpdateWallet(r.Context(), r.PathValue("id"), u)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	if !found {
		NewResponse().Status(http.StatusNoContent).Write(w)
		return
	}
	NewResponse().WalletEvent(EventWalletUpdated, wl.ID).JSON(newWalletView(wl)).Write(w)
}

func (s *Server) handleDeleteWallet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	resp := NewResponse().Status(http.StatusNoContent)
	if s.deps.Ledger.DeleteWallet(r.Context(), id) {
		resp.WalletEvent(EventWalletDeleted, id)
	}
	resp.Write(w)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	wl, err := s.deps.Ledger.Wallet(id)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	q := r.URL.Query()
	limit := queryIntDefault(q, "limit", core.DefaultRecentLimit)
	txs, err := s.deps.Ledger.RecentTransactions(id, limit, q.Get("type"))
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	NewResponse().JSON(map[string]interface{}{
		"wallet_id":    id,
		"transactions": transactionsView(txs, wl.Currency),
	}).Write(w)
}

func (s *Server) transactionInput(p *RequestBodyParser) (services.TransactionInput, error) {
	date, err := parseDate(p.Get("date"), s.deps.Location)
	if err != nil {
		return services.TransactionInput{}, err
	}
	return services.TransactionInput{
		Amount:   p.Get("amount"),
		Category: p.Get("category"),
		Note:     p.Get("note"),
		Type:     p.Get("type"),
		Date:     date,
	}, nil
}

func (s *Server) handleRecordTransaction(w http.ResponseWriter, r *http.Request) {
	p, ok := readBody(w, r)
	if !ok {
		return
	}
	in, err := s.transactionInput(p)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	walletID := r.PathValue("id")
	tx, err := s.deps.Ledger.RecordTransaction(r.Context(), walletID, in)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	wl, err := s.deps.Ledger.Wallet(walletID)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	NewResponse().
		Status(http.StatusCreated).
		TransactionEvent(EventTransactionRecorded, walletID, tx.ID).
		JSON(map[string]interface{}{
			"transaction": transactionsView([]core.Transaction{tx}, wl.Currency)[0],
			"wallet":      newWalletView(wl),
		}).
		Write(w)
}

// handleEditTransaction answers 204 when the wallet or transaction does not exist.
func (s *Server) handleEditTransaction(w http.ResponseWriter, r *http.Request) {
	p, ok := readBody(w, r)
	if !ok {
		return
	}
	in, err := s.transactionInput(p)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	walletID, txID := r.PathValue("id"), r.PathValue("txID")
	updated, err := s.deps.Ledger.EditTransaction(r.Context(), walletID, txID, in)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	if !updated {
		NewResponse().Status(http.StatusNoContent).Write(w)
		return
	}
	wl, err := s.deps.Ledger.Wallet(walletID)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	tx, _ := wl.Transaction(txID)
	NewResponse().
		TransactionEvent(EventTransactionEdited, walletID, txID).
		JSON(map[string]interface{}{
			"transaction": transactionsView([]core.Transaction{tx}, wl.Currency)[0],
			"wallet":      newWalletView(wl),
		}).
		Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	walletID, txID := r.PathValue("id"), r.PathValue("txID")
	resp := NewResponse().Status(http.StatusNoContent)
	if s.deps.Ledger.DeleteTransaction(r.Context(), walletID, txID) {
		resp.TransactionEvent(EventTransactionDeleted, walletID, txID)
	}
	resp.Write(w)
}

// handleCategories lists one type's categories, or both when type is empty.
func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	typ := r.URL.Query().Get("type")
	types := []core.TransactionType{core.Income, core.Expense}
	if typ != "" {
		t, err := core.ParseTransactionType(typ)
		if err != nil {
			UnprocessableEntityError("invalid type").Write(w)
			return
		}
		types = []core.TransactionType{t}
	}

	out := make(map[string][]string, len(types))
	for _, t := range types {
		cats, err := s.deps.Taxonomy.Categories(r.Context(), t)
		if err != nil {
			writeError(r.Context(), w, err)
			return
		}
		out[t.String()] = cats
	}
	NewResponse().JSON(out).Write(w)
}
