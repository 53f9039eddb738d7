package web

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"tailscale.com/tsweb"

	"github.com/banshee-data/tactile/internal/dashboard"
	"github.com/banshee-data/tactile/internal/frame"
	"github.com/banshee-data/tactile/internal/httputil"
	"github.com/banshee-data/tactile/internal/version"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := s.dash.Snapshot()
	httputil.WriteJSONOK(w, map[string]interface{}{
		"status":      "ok",
		"version":     version.Get(),
		"mode":        s.dash.Mode(),
		"session":     snap.Session,
		"last_frame":  snap.Seq,
		"captured_at": snap.CapturedAt.Format(time.RFC3339Nano),
	})
}

// handleSelect changes the selected row. The row comes from the "row" form
// or query value.
func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	if !httputil.AllowMethods(w, r, http.MethodPost) {
		return
	}
	raw := strings.TrimSpace(r.FormValue("row"))
	if raw == "" {
		httputil.BadRequest(w, "missing 'row' parameter")
		return
	}
	row, err := strconv.Atoi(raw)
	if err != nil {
		httputil.BadRequest(w, fmt.Sprintf("invalid 'row' parameter %q", raw))
		return
	}
	if err := s.dash.SelectRow(row); err != nil {
		if errors.Is(err, dashboard.ErrInvalidRow) {
			httputil.BadRequest(w, err.Error())
			return
		}
		httputil.InternalServerError(w, err.Error())
		return
	}
	httputil.WriteJSONOK(w, map[string]int{"selected": row})
}

// frameResponse is the JSON form of the latest rendered frame.
type frameResponse struct {
	Seq        uint64                 `json:"seq"`
	Session    uuid.UUID              `json:"session"`
	CapturedAt time.Time              `json:"captured_at"`
	Rows       int                    `json:"rows"`
	Cols       int                    `json:"cols"`
	Matrix     [][]int                `json:"matrix"`
	Selected   int                    `json:"selected"`
	Values     []int                  `json:"values"`
	Summary    dashboard.Summary      `json:"summary"`
	Range      dashboard.DisplayRange `json:"range"`
	Stats      frame.SweepStats       `json:"stats"`
}

func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	if !httputil.AllowMethods(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	snap := s.dash.Snapshot()
	selected := s.dash.Selected()
	values := snap.Matrix.Row(selected)
	httputil.WriteJSONOK(w, frameResponse{
		Seq:        snap.Seq,
		Session:    snap.Session,
		CapturedAt: snap.CapturedAt,
		Rows:       snap.Matrix.Rows(),
		Cols:       snap.Matrix.Cols(),
		Matrix:     snap.Matrix.ToRows(),
		Selected:   selected,
		Values:     values,
		Summary:    dashboard.Summarize(values),
		Range:      s.dash.Range(),
		Stats:      snap.Stats,
	})
}

// attachAdminRoutes adds sweep statistics to the tsweb debug index.
func (s *Server) attachAdminRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)
	debug.HandleFunc("sweeps", "sweep statistics since startup", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSONOK(w, s.dash.Totals())
	})
}
