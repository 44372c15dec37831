package server

import (
	"net/http"

	"github.com/tcmclinic/telemed/pkg/api"
	"github.com/tcmclinic/telemed/pkg/database"
	"github.com/tcmclinic/telemed/pkg/types"
)

// statsHandler serves the public platform summary. Plain row counts; no
// aggregation pipeline behind it.
func statsHandler(db *database.DB) http.HandlerFunc {
	counts := []struct {
		key   string
		query string
	}{
		{"doctors", "SELECT COUNT(*) FROM doctors"},
		{"departments", "SELECT COUNT(*) FROM departments"},
		{"appointments", "SELECT COUNT(*) FROM appointments"},
		{"live_streams", "SELECT COUNT(*) FROM live_streams WHERE status = 'live'"},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		summary := map[string]int64{}
		for _, c := range counts {
			var n int64
			if err := db.QueryRowContext(r.Context(), c.query).Scan(&n); err != nil {
				api.Error(w, types.NewInternalError("failed to compute summary", err))
				return
			}
			summary[c.key] = n
		}
		api.OK(w, "summary retrieved", summary)
	}
}
