package http

import (
	"net/http"
	"time"

	"finapp/internal/core"
	"finapp/internal/services"
)

// currency returns the symbol amounts of walletID are shown in. Reports over
// all wallets use the default symbol.
func (s *Server) currency(walletID string) string {
	if walletID == "" {
		return core.DefaultCurrency
	}
	if wl, err := s.deps.Ledger.Wallet(walletID); err == nil && wl.Currency != "" {
		return wl.Currency
	}
	return core.DefaultCurrency
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	window, err := parseWindow(r)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	walletID := r.URL.Query().Get("wallet")
	o, err := s.deps.Reports.Overview(r.Context(), services.ReportQuery{
		WalletID: walletID,
		Window:   window,
		Now:      s.now().In(s.deps.Location),
	})
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	NewResponse().JSON(newOverviewView(o, s.currency(walletID))).Write(w)
}

func (s *Server) handleTrend(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	walletID := q.Get("wallet")
	// Pages are numbered from 1 on the wire.
	page := queryIntDefault(q, "page", 1)
	t, err := s.deps.Reports.Trend(r.Context(), walletID, s.now().In(s.deps.Location), page-1)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	t.Page = page
	NewResponse().JSON(newTrendView(t, s.currency(walletID))).Write(w)
}

func (s *Server) handleMonth(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	walletID := q.Get("wallet")
	mp := ParseMonthParams(q, s.now().In(s.deps.Location))
	d, err := s.deps.Reports.Month(r.Context(), walletID, mp.Year, time.Month(mp.Month), s.deps.Location)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	NewResponse().JSON(newMonthView(d, s.currency(walletID))).Write(w)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.deps.Reports.Dashboard(r.Context(), s.now().In(s.deps.Location))
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	NewResponse().JSON(newDashboardView(d)).Write(w)
}
