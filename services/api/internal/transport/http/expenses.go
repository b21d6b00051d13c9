package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/culturepass/booking-api/services/api/internal/domain"
)

// ExpenseReader is the minimal interface for the expense report
// endpoint.
type ExpenseReader interface {
	GetUserExpenses(ctx context.Context, userID string) (domain.Expenses, error)
}

// HandleUserExpenses serves GET /users/{id}/expenses.
func HandleUserExpenses(svc ExpenseReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := parseUserExpensesPath(r.URL.Path)
		if !ok {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		expenses, err := svc.GetUserExpenses(r.Context(), userID)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(expensesResponse{
			All:      newExpenseEntry(expenses.All),
			Physical: newExpenseEntry(expenses.Physical),
			Digital:  newExpenseEntry(expenses.Digital),
		})
	}
}

func parseUserExpensesPath(path string) (string, bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 3 {
		return "", false
	}
	if parts[0] != "users" || parts[2] != "expenses" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

type expenseEntry struct {
	Max    string `json:"max"`
	Actual string `json:"actual"`
}

func newExpenseEntry(e domain.Expense) expenseEntry {
	return expenseEntry{Max: e.Max.String(), Actual: e.Actual.String()}
}

type expensesResponse struct {
	All      expenseEntry `json:"all"`
	Physical expenseEntry `json:"physical"`
	Digital  expenseEntry `json:"digital"`
}
