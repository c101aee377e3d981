package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"finapp/internal/cache"
	"finapp/internal/core"
	"finapp/internal/log"
	"finapp/internal/metrics"
	"finapp/internal/services"
	"finapp/internal/storage/memory"
)

var testNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

type testAPI struct {
	srv      *Server
	metrics  *metrics.Metrics
	walletID string
}

func newTestAPI(t *testing.T, mutate func(*Deps)) *testAPI {
	t.Helper()
	logger := log.Discard()
	m := metrics.New()
	store := memory.New(core.IncomeCategories(), core.ExpenseCategories())

	ledger := services.NewLedgerService(store, nil, logger, m)
	if err := ledger.EnsureDefaultWallet(context.Background()); err != nil {
		t.Fatalf("EnsureDefaultWallet: %v", err)
	}
	d := Deps{
		Ledger:    ledger,
		Reports:   services.NewReportService(ledger, cache.NewLRUCache[any](32, time.Minute), m, time.Sunday),
		Budgets:   services.NewBudgetService(store, ledger, logger, time.Sunday),
		Portfolio: services.NewPortfolioService(store, logger),
		Taxonomy:  store,
		Metrics:   m,
		Logger:    logger,
		Location:  time.UTC,
	}
	if mutate != nil {
		mutate(&d)
	}
	srv := NewServer(":0", d)
	srv.now = func() time.Time { return testNow }
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	return &testAPI{srv: srv, metrics: m, walletID: ledger.Wallets()[0].ID}
}

func (a *testAPI) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if strings.HasPrefix(body, "{") {
		req.Header.Set("Content-Type", "application/json")
	} else if body != "" {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	rr := httptest.NewRecorder()
	a.srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
}

func expectStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Fatalf("status = %d, want %d, body: %s", rr.Code, want, rr.Body.String())
	}
}

func TestHealthReadyAndMetrics(t *testing.T) {
	api := newTestAPI(t, nil)

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := api.do(t, http.MethodGet, path, "")
		expectStatus(t, rr, http.StatusOK)
	}

	rr := api.do(t, http.MethodGet, "/metrics", "")
	expectStatus(t, rr, http.StatusOK)
	if !strings.Contains(rr.Body.String(), "finapp_http_request_duration_seconds") {
		t.Errorf("metrics output missing HTTP histogram")
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header missing")
	}
	if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("security headers missing")
	}
}

func TestReadyFailsWithoutStore(t *testing.T) {
	api := newTestAPI(t, func(d *Deps) { d.Taxonomy = nil })
	rr := api.do(t, http.MethodGet, "/readyz", "")
	expectStatus(t, rr, http.StatusServiceUnavailable)
}

func TestReadyAfterLastWalletDeleted(t *testing.T) {
	api := newTestAPI(t, nil)

	rr := api.do(t, http.MethodDelete, "/api/wallets/"+api.walletID, "")
	expectStatus(t, rr, http.StatusNoContent)

	var list walletListView
	decode(t, api.do(t, http.MethodGet, "/api/wallets", ""), &list)
	if len(list.Wallets) != 0 {
		t.Fatalf("wallets after delete = %d, want 0", len(list.Wallets))
	}

	rr = api.do(t, http.MethodGet, "/readyz", "")
	expectStatus(t, rr, http.StatusOK)
}

func TestReadyFailsBeforeLedgerLoaded(t *testing.T) {
	api := newTestAPI(t, func(d *Deps) {
		store := memory.New(core.IncomeCategories(), core.ExpenseCategories())
		d.Ledger = services.NewLedgerService(store, nil, log.Discard(), metrics.New())
	})
	rr := api.do(t, http.MethodGet, "/readyz", "")
	expectStatus(t, rr, http.StatusServiceUnavailable)
}

func TestWalletLifecycle(t *testing.T) {
	api := newTestAPI(t, func(d *Deps) { d.ResetNotice = true })

	var list walletListView
	rr := api.do(t, http.MethodGet, "/api/wallets", "")
	expectStatus(t, rr, http.StatusOK)
	decode(t, rr, &list)
	if len(list.Wallets) != 1 || !list.ResetNotice {
		t.Fatalf("first listing = %+v, want one wallet and the reset notice", list)
	}
	if rr.Header().Get("Cache-Control") != "no-store" {
		t.Error("API responses should not be cached")
	}

	rr = api.do(t, http.MethodGet, "/api/wallets", "")
	list = walletListView{}
	decode(t, rr, &list)
	if list.ResetNotice {
		t.Error("reset notice must be shown only once")
	}

	rr = api.do(t, http.MethodPost, "/api/wallets", `{"name":"Travel","currency":"€","card_type":"credit"}`)
	expectStatus(t, rr, http.StatusCreated)
	if !strings.Contains(rr.Header().Get(HeaderLedgerEvent), EventWalletCreated) {
		t.Errorf("missing wallet event: %q", rr.Header().Get(HeaderLedgerEvent))
	}
	var created walletView
	decode(t, rr, &created)
	if created.Name != "Travel" || created.CardType != string(core.Credit) {
		t.Fatalf("created = %+v", created)
	}

	rr = api.do(t, http.MethodPost, "/api/wallets", "name=")
	expectStatus(t, rr, http.StatusUnprocessableEntity)

	rr = api.do(t, http.MethodPatch, "/api/wallets/"+created.ID, "name=Trips&toggle_card_type=true")
	expectStatus(t, rr, http.StatusOK)
	var updated walletView
	decode(t, rr, &updated)
	if updated.Name != "Trips" || updated.CardType != string(core.Debit) {
		t.Errorf("updated = %+v", updated)
	}

	rr = api.do(t, http.MethodPatch, "/api/wallets/missing", `{"name":"x"}`)
	expectStatus(t, rr, http.StatusNoContent)

	rr = api.do(t, http.MethodDelete, "/api/wallets/"+created.ID, "")
	expectStatus(t, rr, http.StatusNoContent)
	if rr.Header().Get(HeaderLedgerEvent) == "" {
		t.Error("delete should announce the wallet event")
	}
	rr = api.do(t, http.MethodDelete, "/api/wallets/"+created.ID, "")
	expectStatus(t, rr, http.StatusNoContent)
	if rr.Header().Get(HeaderLedgerEvent) != "" {
		t.Error("deleting an absent wallet is a silent no-op")
	}
}

type txResponse struct {
	Transaction transactionView `json:"transaction"`
	Wallet      walletView      `json:"wallet"`
}

func TestTransactionFlow(t *testing.T) {
	api := newTestAPI(t, nil)
	base := "/api/wallets/" + api.walletID + "/transactions"

	rr := api.do(t, http.MethodPost, base, `{"amount":"5000","category":"Salary","type":"income","date":"2024-03-01"}`)
	expectStatus(t, rr, http.StatusCreated)
	var income txResponse
	decode(t, rr, &income)
	if income.Wallet.Balance.Cents != 500000 {
		t.Fatalf("balance after income = %d", income.Wallet.Balance.Cents)
	}

	rr = api.do(t, http.MethodPost, base, "amount=120.50&category=Food&type=expense&note=groceries&date=2024-03-10")
	expectStatus(t, rr, http.StatusCreated)
	var expense txResponse
	decode(t, rr, &expense)
	if expense.Wallet.Balance.Cents != 487950 {
		t.Fatalf("balance after expense = %d", expense.Wallet.Balance.Cents)
	}
	if !strings.Contains(rr.Header().Get(HeaderLedgerEvent), expense.Transaction.ID) {
		t.Errorf("event header should name the transaction: %q", rr.Header().Get(HeaderLedgerEvent))
	}

	rr = api.do(t, http.MethodPut, base+"/"+expense.Transaction.ID, `{"amount":"200","category":"Food","note":"groceries"}`)
	expectStatus(t, rr, http.StatusOK)
	var edited txResponse
	decode(t, rr, &edited)
	if edited.Wallet.Balance.Cents != 480000 || edited.Transaction.Amount.Cents != 20000 {
		t.Fatalf("after edit = %+v", edited)
	}
	if !edited.Transaction.Date.Equal(time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("edit without date should keep the original date, got %v", edited.Transaction.Date)
	}

	rr = api.do(t, http.MethodDelete, base+"/"+expense.Transaction.ID, "")
	expectStatus(t, rr, http.StatusNoContent)

	rr = api.do(t, http.MethodGet, "/api/wallets", "")
	var list walletListView
	decode(t, rr, &list)
	if list.Wallets[0].Balance.Cents != 500000 || list.Wallets[0].TotalExpenses.Cents != 0 {
		t.Errorf("after delete = %+v", list.Wallets[0])
	}

	rr = api.do(t, http.MethodDelete, base+"/"+expense.Transaction.ID, "")
	expectStatus(t, rr, http.StatusNoContent)
	rr = api.do(t, http.MethodPut, base+"/missing", `{"amount":"1","category":"Food"}`)
	expectStatus(t, rr, http.StatusNoContent)
}

func TestTransactionValidation(t *testing.T) {
	api := newTestAPI(t, nil)
	base := "/api/wallets/" + api.walletID + "/transactions"

	tests := []struct {
		name string
		body string
	}{
		{"bad amount", `{"amount":"abc","category":"Food","type":"expense"}`},
		{"zero amount", `{"amount":"0","category":"Food","type":"expense"}`},
		{"empty category", `{"amount":"10","category":" ","type":"expense"}`},
		{"bad type", `{"amount":"10","category":"Food","type":"transfer"}`},
		{"bad date", `{"amount":"10","category":"Food","type":"expense","date":"15/03/2024"}`},
		{"long note", `{"amount":"10","category":"Food","type":"expense","note":"` + strings.Repeat("n", 501) + `"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := api.do(t, http.MethodPost, base, tt.body)
			expectStatus(t, rr, http.StatusUnprocessableEntity)
			var body errorBody
			decode(t, rr, &body)
			if body.Error == "" {
				t.Error("error message missing")
			}
		})
	}

	rr := api.do(t, http.MethodPost, base, `{"amount":`)
	expectStatus(t, rr, http.StatusBadRequest)

	rr = api.do(t, http.MethodPost, "/api/wallets/missing/transactions", `{"amount":"10","category":"Food","type":"expense"}`)
	expectStatus(t, rr, http.StatusNotFound)

	if got := api.srv.deps.Ledger.Wallets()[0].Transactions; len(got) != 0 {
		t.Errorf("rejected input must not change the ledger, got %d transactions", len(got))
	}
}

func TestListTransactions(t *testing.T) {
	api := newTestAPI(t, nil)
	base := "/api/wallets/" + api.walletID + "/transactions"
	for _, body := range []string{
		`{"amount":"100","category":"Salary","type":"income","date":"2024-03-01"}`,
		`{"amount":"10","category":"Food","type":"expense","date":"2024-03-02"}`,
		`{"amount":"20","category":"Rent","type":"expense","date":"2024-03-03"}`,
	} {
		expectStatus(t, api.do(t, http.MethodPost, base, body), http.StatusCreated)
	}

	var resp struct {
		Transactions []transactionView `json:"transactions"`
	}
	rr := api.do(t, http.MethodGet, base+"?type=expense&limit=1", "")
	expectStatus(t, rr, http.StatusOK)
	decode(t, rr, &resp)
	if len(resp.Transactions) != 1 || resp.Transactions[0].Category != "Rent" {
		t.Errorf("filtered = %+v", resp.Transactions)
	}

	expectStatus(t, api.do(t, http.MethodGet, base+"?type=bogus", ""), http.StatusUnprocessableEntity)
	expectStatus(t, api.do(t, http.MethodGet, "/api/wallets/missing/transactions", ""), http.StatusNotFound)
}

func TestCategories(t *testing.T) {
	api := newTestAPI(t, nil)

	var out map[string][]string
	rr := api.do(t, http.MethodGet, "/api/categories?type=expense", "")
	expectStatus(t, rr, http.StatusOK)
	decode(t, rr, &out)
	if len(out["expense"]) == 0 || out["income"] != nil {
		t.Errorf("expense categories = %v", out)
	}

	out = nil
	decode(t, api.do(t, http.MethodGet, "/api/categories", ""), &out)
	if len(out["income"]) == 0 || len(out["expense"]) == 0 {
		t.Errorf("both types expected, got %v", out)
	}

	expectStatus(t, api.do(t, http.MethodGet, "/api/categories?type=nope", ""), http.StatusUnprocessableEntity)
}

func TestReports(t *testing.T) {
	api := newTestAPI(t, nil)
	base := "/api/wallets/" + api.walletID + "/transactions"
	for _, body := range []string{
		`{"amount":"3000","category":"Salary","type":"income","date":"2024-03-01"}`,
		`{"amount":"900","category":"Rent","type":"expense","date":"2024-03-14"}`,
		`{"amount":"100","category":"Food","type":"expense","date":"2024-03-15"}`,
		`{"amount":"50","category":"Food","type":"expense","date":"2024-02-10"}`,
	} {
		expectStatus(t, api.do(t, http.MethodPost, base, body), http.StatusCreated)
	}

	var ov overviewView
	rr := api.do(t, http.MethodGet, "/api/reports/overview?window=month&wallet="+api.walletID, "")
	expectStatus(t, rr, http.StatusOK)
	decode(t, rr, &ov)
	if ov.Income.Cents != 300000 || ov.Expenses.Cents != 100000 || ov.Net.Cents != 200000 {
		t.Errorf("month overview = %+v", ov)
	}
	if ov.Income.Display != "$3,000.00" {
		t.Errorf("display = %q", ov.Income.Display)
	}

	ov = overviewView{}
	decode(t, api.do(t, http.MethodGet, "/api/reports/overview?window=year", ""), &ov)
	if ov.Expenses.Cents != 105000 {
		t.Errorf("year expenses = %d, want 105000", ov.Expenses.Cents)
	}

	expectStatus(t, api.do(t, http.MethodGet, "/api/reports/overview?window=decade", ""), http.StatusUnprocessableEntity)
	expectStatus(t, api.do(t, http.MethodGet, "/api/reports/overview?wallet=missing", ""), http.StatusNotFound)

	var month monthView
	rr = api.do(t, http.MethodGet, "/api/reports/month?year=2024&month=2", "")
	expectStatus(t, rr, http.StatusOK)
	decode(t, rr, &month)
	if month.Expenses.Cents != 5000 || len(month.ExpenseTxs) != 1 {
		t.Errorf("february = %+v", month)
	}
	expectStatus(t, api.do(t, http.MethodGet, "/api/reports/month?year=2024&month=13", ""), http.StatusUnprocessableEntity)

	var trend trendView
	rr = api.do(t, http.MethodGet, "/api/reports/trend?page=1", "")
	expectStatus(t, rr, http.StatusOK)
	decode(t, rr, &trend)
	if trend.TotalPages != 2 || len(trend.Points) == 0 {
		t.Errorf("trend = %+v", trend)
	}

	var dash dashboardView
	rr = api.do(t, http.MethodGet, "/api/reports/dashboard", "")
	expectStatus(t, rr, http.StatusOK)
	decode(t, rr, &dash)
	if dash.WalletCount != 1 || dash.TotalBalance.Cents != 195000 {
		t.Errorf("dashboard = %+v", dash)
	}
}

func TestBudgetsAndSavingGoal(t *testing.T) {
	api := newTestAPI(t, nil)
	expectStatus(t, api.do(t, http.MethodPost, "/api/wallets/"+api.walletID+"/transactions",
		`{"amount":"450","category":"Food","type":"expense","date":"2024-03-10"}`), http.StatusCreated)

	rr := api.do(t, http.MethodPost, "/api/budgets", "category=Food&amount=500")
	expectStatus(t, rr, http.StatusCreated)
	var b budgetView
	decode(t, rr, &b)
	if b.Allocated.Cents != 50000 {
		t.Fatalf("budget = %+v", b)
	}
	expectStatus(t, api.do(t, http.MethodPost, "/api/budgets", "category=&amount=5"), http.StatusUnprocessableEntity)

	var rep budgetReportView
	rr = api.do(t, http.MethodGet, "/api/budgets/report?window=month", "")
	expectStatus(t, rr, http.StatusOK)
	decode(t, rr, &rep)
	if len(rep.Lines) != 1 || rep.Lines[0].Spent.Cents != 45000 || rep.Lines[0].Status != "warning" {
		t.Errorf("budget report = %+v", rep)
	}

	rr = api.do(t, http.MethodPut, "/api/saving-goal", `{"amount":"1000"}`)
	expectStatus(t, rr, http.StatusOK)
	if !strings.Contains(rr.Header().Get(HeaderLedgerEvent), EventSavingGoalChanged) {
		t.Error("saving goal event missing")
	}
	var goal struct {
		Goal moneyView `json:"goal"`
	}
	decode(t, api.do(t, http.MethodGet, "/api/saving-goal", ""), &goal)
	if goal.Goal.Cents != 100000 {
		t.Errorf("goal = %+v", goal)
	}
	expectStatus(t, api.do(t, http.MethodPut, "/api/saving-goal", `{"amount":"-5"}`), http.StatusUnprocessableEntity)

	expectStatus(t, api.do(t, http.MethodDelete, "/api/budgets/"+b.ID, ""), http.StatusNoContent)
	var list struct {
		Budgets []budgetView `json:"budgets"`
	}
	decode(t, api.do(t, http.MethodGet, "/api/budgets", ""), &list)
	if len(list.Budgets) != 0 {
		t.Errorf("budgets after delete = %+v", list.Budgets)
	}
}

func TestPortfolio(t *testing.T) {
	api := newTestAPI(t, nil)

	rr := api.do(t, http.MethodPost, "/api/portfolio/crypto", `{"symbol":"BTC","name":"Bitcoin","amount":"0.5","price":"60000"}`)
	expectStatus(t, rr, http.StatusCreated)
	var btc holdingView
	decode(t, rr, &btc)

	rr = api.do(t, http.MethodPost, "/api/portfolio/stocks", "symbol=AAPL&name=Apple&shares=3&price=190.25")
	expectStatus(t, rr, http.StatusCreated)

	expectStatus(t, api.do(t, http.MethodPost, "/api/portfolio/stocks", "symbol=AAPL&name=Apple&shares=0&price=1"), http.StatusUnprocessableEntity)

	var sum portfolioView
	decode(t, api.do(t, http.MethodGet, "/api/portfolio", ""), &sum)
	if sum.CryptoValue.Cents != 3000000 || sum.StockValue.Cents != 57075 || sum.Total.Cents != 3057075 {
		t.Errorf("portfolio = %+v", sum)
	}

	expectStatus(t, api.do(t, http.MethodDelete, "/api/portfolio/crypto/"+btc.ID, ""), http.StatusNoContent)
	var crypto struct {
		Crypto []holdingView `json:"crypto"`
	}
	decode(t, api.do(t, http.MethodGet, "/api/portfolio/crypto", ""), &crypto)
	if len(crypto.Crypto) != 0 {
		t.Errorf("crypto after delete = %+v", crypto.Crypto)
	}

	var stocks struct {
		Stocks []holdingView `json:"stocks"`
	}
	decode(t, api.do(t, http.MethodGet, "/api/portfolio/stocks", ""), &stocks)
	if len(stocks.Stocks) != 1 || stocks.Stocks[0].Quantity != "3" {
		t.Errorf("stocks = %+v", stocks.Stocks)
	}
}

func TestRateLimitAppliesToAPIOnly(t *testing.T) {
	api := newTestAPI(t, func(d *Deps) { d.RequestsPerMinute = 2 })

	for i := 0; i < 2; i++ {
		expectStatus(t, api.do(t, http.MethodGet, "/api/wallets", ""), http.StatusOK)
	}
	rr := api.do(t, http.MethodGet, "/api/wallets", "")
	expectStatus(t, rr, http.StatusTooManyRequests)
	if rr.Header().Get("Retry-After") == "" {
		t.Error("Retry-After missing")
	}

	expectStatus(t, api.do(t, http.MethodGet, "/healthz", ""), http.StatusOK)
}

func TestUnknownRouteAndMethod(t *testing.T) {
	api := newTestAPI(t, nil)
	expectStatus(t, api.do(t, http.MethodGet, "/api/nothing", ""), http.StatusNotFound)
	expectStatus(t, api.do(t, http.MethodPut, "/api/wallets", ""), http.StatusMethodNotAllowed)
}
