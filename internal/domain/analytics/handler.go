package analytics

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/medportal/portal/internal/platform/auth"
	"github.com/medportal/portal/pkg/pagination"
)

type Handler struct {
	svc          *Service
	previewLimit int
	defaults     QueryDefaults
	now          func() time.Time
}

func NewHandler(svc *Service) *Handler {
	return &Handler{
		svc:          svc,
		previewLimit: DefaultPreviewLimit,
		defaults:     QueryDefaults{Scope: ScopeAllTime, MaxRangeDays: DefaultMaxRangeDays},
		now:          time.Now,
	}
}

// SetPreviewLimit changes how many timeline entries the compact views return.
func (h *Handler) SetPreviewLimit(n int) {
	if n > 0 {
		h.previewLimit = n
	}
}

// SetDefaultScope changes the leaderboard scope used when a request has none.
func (h *Handler) SetDefaultScope(s Scope) {
	if s != "" {
		h.defaults.Scope = s
	}
}

// SetMaxRangeDays changes the longest range a request may ask for.
func (h *Handler) SetMaxRangeDays(n int) {
	if n > 0 {
		h.defaults.MaxRangeDays = n
	}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/admin/analytics", auth.RequireRole(auth.RoleAdmin))
	g.GET("", h.GetDashboard)
	g.GET("/series", h.GetSeries)
	g.GET("/timeline", h.GetTimeline)
	g.GET("/leaderboard", h.GetLeaderboard)
}

type dashboardParams struct {
	Start       string `query:"start" validate:"omitempty,datetime=2006-01-02"`
	End         string `query:"end" validate:"omitempty,datetime=2006-01-02"`
	Granularity string `query:"granularity" validate:"omitempty,oneof=day week month year auto"`
	Date        string `query:"date" validate:"omitempty,datetime=2006-01-02"`
	Scope       string `query:"scope" validate:"omitempty,oneof=all-time range"`
}

type dashboardResponse struct {
	*Dashboard
	TimelineHasMore bool `json:"timeline_has_more"`
}

type seriesResponse struct {
	Range       DateRange     `json:"range"`
	Granularity Granularity   `json:"granularity"`
	Series      []SeriesPoint `json:"series"`
	Dropped     int           `json:"dropped"`
}

type leaderboardResponse struct {
	Scope Scope            `json:"scope"`
	Rows  []LeaderboardRow `json:"rows"`
}

// GetDashboard returns the whole dashboard with the timeline cut to the
// preview size.
func (h *Handler) GetDashboard(c echo.Context) error {
	d, err := h.dashboard(c)
	if err != nil {
		return err
	}
	tl := Timeline{Events: d.Timeline}
	d.Timeline = tl.Preview(h.previewLimit)
	return c.JSON(http.StatusOK, dashboardResponse{
		Dashboard:       d,
		TimelineHasMore: tl.HasMore(h.previewLimit),
	})
}

func (h *Handler) GetSeries(c echo.Context) error {
	d, err := h.dashboard(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, seriesResponse{
		Range:       d.Range,
		Granularity: d.Granularity,
		Series:      d.Series,
		Dropped:     d.Dropped,
	})
}

// GetTimeline pages through the merged feed. Without limit it returns the
// preview; all=true returns everything.
func (h *Handler) GetTimeline(c echo.Context) error {
	d, err := h.dashboard(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c, h.previewLimit)
	return c.JSON(http.StatusOK, pagination.NewResponse(pagination.Slice(d.Timeline, pg), d.TimelineTotal, pg))
}

func (h *Handler) GetLeaderboard(c echo.Context) error {
	d, err := h.dashboard(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, leaderboardResponse{Scope: d.LeaderboardScope, Rows: d.Leaderboard})
}

func (h *Handler) dashboard(c echo.Context) (*Dashboard, error) {
	q, err := h.parseQuery(c)
	if err != nil {
		return nil, err
	}
	d, err := h.svc.Dashboard(c.Request().Context(), q)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "failed to load analytics")
	}
	return d, nil
}

func (h *Handler) parseQuery(c echo.Context) (Query, error) {
	var p dashboardParams
	if err := c.Bind(&p); err != nil {
		return Query{}, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&p); err != nil {
		return Query{}, err
	}

	q, err := ParseQuery(RawQuery{
		Start:       p.Start,
		End:         p.End,
		Granularity: p.Granularity,
		Date:        p.Date,
		Scope:       p.Scope,
	}, h.now(), h.defaults)
	if err != nil {
		return Query{}, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return q, nil
}
