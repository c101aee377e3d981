package http

import (
	"net/http"

	"finapp/internal/core"
)

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	budgets, err := s.deps.Budgets.Budgets(r.Context())
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	out := make([]budgetView, 0, len(budgets))
	for _, b := range budgets {
		out = append(out, newBudgetView(b))
	}
	NewResponse().JSON(map[string]interface{}{"budgets": out}).Write(w)
}

func (s *Server) handleAddBudget(w http.ResponseWriter, r *http.Request) {
	p, ok := readBody(w, r)
	if !ok {
		return
	}
	b, err := s.deps.Budgets.AddBudget(r.Context(), p.Get("category"), p.Get("amount"))
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	NewResponse().
		Status(http.StatusCreated).
		Event(EventBudgetChanged, map[string]string{"budget_id": b.ID}).
		JSON(newBudgetView(b)).
		Write(w)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.deps.Budgets.RemoveBudget(r.Context(), id); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	NewResponse().
		Status(http.StatusNoContent).
		Event(EventBudgetChanged, map[string]string{"budget_id": id}).
		Write(w)
}

func (s *Server) handleBudgetReport(w http.ResponseWriter, r *http.Request) {
	window, err := parseWindow(r)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	rep, err := s.deps.Budgets.Report(r.Context(), window, s.now().In(s.deps.Location))
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	NewResponse().JSON(newBudgetReportView(rep)).Write(w)
}

func (s *Server) handleGetSavingGoal(w http.ResponseWriter, r *http.Request) {
	goal, err := s.deps.Budgets.SavingGoal(r.Context())
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	NewResponse().JSON(map[string]interface{}{"goal": money(goal, core.DefaultCurrency)}).Write(w)
}

// handleSetSavingGoal sets the monthly goal; an empty or zero amount clears it.
func (s *Server) handleSetSavingGoal(w http.ResponseWriter, r *http.Request) {
	p, ok := readBody(w, r)
	if !ok {
		return
	}
	goal, err := s.deps.Budgets.SetSavingGoal(r.Context(), p.Get("amount"))
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	NewResponse().
		Event(EventSavingGoalChanged, nil).
		JSON(map[string]interface{}{"goal": money(goal, core.DefaultCurrency)}).
		Write(w)
}
