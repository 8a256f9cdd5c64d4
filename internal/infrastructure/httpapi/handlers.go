package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"WineScout/internal/domain"
	"WineScout/internal/feed"
	"WineScout/internal/infrastructure/export"
	"WineScout/internal/infrastructure/favorites"
	"WineScout/internal/usecase"
)

// guestOwner is used when the client supplies no device identity.
const guestOwner = "guest"

func (s *Server) triggerSync(c *gin.Context) {
	source := c.Param("source")

	syncID, err := s.deps.Sync.Trigger(c.Request.Context(), source)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "sync started for " + source,
		"sync_id": syncID,
	})
}

type batchRequest struct {
	BatchNumber int `json:"batchNumber"`
	BatchSize   int `json:"batchSize"`
}

func (s *Server) runSyncBatch(c *gin.Context) {
	source := c.Param("source")

	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid request body"})
		return
	}
	if req.BatchNumber < 1 || req.BatchSize < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "batchNumber and batchSize must be positive"})
		return
	}

	outcome, err := s.deps.Sync.RunBatch(c.Request.Context(), source, req.BatchNumber, req.BatchSize)
	if errors.Is(err, feed.ErrUnknownSource) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "message": err.Error()})
		return
	}

	// nextBatch is null once the feed is exhausted.
	var nextBatch *int
	if outcome.HasMore {
		nextBatch = &outcome.NextBatch
	}
	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"sync_id":        outcome.RunID,
		"wines_inserted": outcome.WinesInserted,
		"wines_updated":  outcome.WinesUpdated,
		"total_products": outcome.TotalProducts,
		"hasMore":        outcome.HasMore,
		"nextBatch":      nextBatch,
	})
}

func (s *Server) syncRuns(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive number"})
			return
		}
		limit = parsed
	}

	runs, err := s.deps.Tracker.RunsBySource(c.Request.Context(), c.Param("source"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	responses := make([]gin.H, len(runs))
	for i, run := range runs {
		responses[i] = runResponse(run)
	}
	c.JSON(http.StatusOK, gin.H{"runs": responses})
}

func (s *Server) syncStatus(c *gin.Context) {
	run, err := s.deps.Tracker.LatestRun(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if run.ID == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "no sync has run yet"})
		return
	}
	c.JSON(http.StatusOK, runResponse(run))
}

func runResponse(run domain.SyncRun) gin.H {
	return gin.H{
		"id":                 run.ID,
		"sync_type":          run.SyncType,
		"status":             run.Status,
		"total_products":     run.TotalProducts,
		"processed_products": run.ProcessedProducts,
		"wines_inserted":     run.WinesInserted,
		"wines_updated":      run.WinesUpdated,
		"error_message":      run.ErrorMessage,
		"started_at":         run.StartedAt,
		"completed_at":       run.CompletedAt,
	}
}

func (s *Server) listWines(c *gin.Context) {
	ctx := c.Request.Context()

	// A bare request dumps the whole table; any query parameter switches
	// to the filtered, paginated view.
	if len(c.Request.URL.Query()) == 0 {
		wines, err := s.deps.Catalog.Export(ctx, usecase.NewFilterState(s.deps.Catalog.Limits()))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"wines": wineResponses(wines), "total": len(wines)})
		return
	}

	state := usecase.DecodeFilterState(c.Request.URL.Query(), s.deps.Catalog.Limits())
	page, err := s.deps.Catalog.Browse(ctx, state)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"wines":      wineResponses(page.Wines),
		"total":      page.Total,
		"page":       page.Page,
		"page_count": page.PageCount,
		"page_size":  page.PageSize,
	})
}

func (s *Server) listLaunchPlans(c *gin.Context) {
	year := 0
	if raw := c.Query("year"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "year must be numeric"})
			return
		}
		year = parsed
	}

	plans, err := s.deps.LaunchPlans.ListLaunchPlans(c.Request.Context(), year)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	responses := make([]gin.H, len(plans))
	for i, plan := range plans {
		responses[i] = gin.H{
			"id":         plan.ID,
			"title":      plan.Title,
			"date":       plan.Date,
			"year":       plan.Year,
			"quarter":    plan.Quarter,
			"source_url": plan.SourceURL,
		}
	}
	c.JSON(http.StatusOK, gin.H{"launch_plans": responses})
}

type createLaunchPlanRequest struct {
	Title     string `json:"title"`
	Date      string `json:"date"`
	Quarter   int    `json:"quarter"`
	SourceURL string `json:"source_url"`
}

func (s *Server) createLaunchPlan(c *gin.Context) {
	if !s.requireRole(c, domain.RoleAdmin) {
		return
	}

	var req createLaunchPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title is required"})
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}

	quarter := req.Quarter
	if quarter == 0 {
		quarter = (int(date.Month())-1)/3 + 1
	}
	plan := domain.LaunchPlan{
		Title:     req.Title,
		Date:      date,
		Year:      date.Year(),
		Quarter:   quarter,
		SourceURL: req.SourceURL,
	}
	if err := s.deps.LaunchPlans.SaveLaunchPlan(c.Request.Context(), plan); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"title":      plan.Title,
		"date":       plan.Date,
		"year":       plan.Year,
		"quarter":    plan.Quarter,
		"source_url": plan.SourceURL,
	})
}

func owner(c *gin.Context) string {
	if id := c.GetHeader("X-Device-Id"); id != "" {
		return id
	}
	return guestOwner
}

type listResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	ProductIDs  []string  `json:"product_ids"`
	WineCount   int       `json:"wine_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toListResponse(list domain.WineList) listResponse {
	ids := list.ProductIDs
	if ids == nil {
		ids = []string{}
	}
	return listResponse{
		ID:          list.ID,
		Name:        list.Name,
		Description: list.Description,
		ProductIDs:  ids,
		WineCount:   list.WineCount(),
		CreatedAt:   list.CreatedAt,
		UpdatedAt:   list.UpdatedAt,
	}
}

func (s *Server) listLists(c *gin.Context) {
	lists, err := s.deps.Favorites.Lists(c.Request.Context(), owner(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	responses := make([]listResponse, len(lists))
	for i, list := range lists {
		responses[i] = toListResponse(list)
	}
	c.JSON(http.StatusOK, gin.H{"lists": responses})
}

type createListRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (s *Server) createList(c *gin.Context) {
	var req createListRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	list := domain.WineList{
		ID:          uuid.NewString(),
		OwnerID:     owner(c),
		Name:        req.Name,
		Description: req.Description,
		CreatedAt:   time.Now(),
	}
	if err := s.deps.Favorites.SaveList(c.Request.Context(), list); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, toListResponse(list))
}

func (s *Server) deleteList(c *gin.Context) {
	err := s.deps.Favorites.DeleteList(c.Request.Context(), owner(c), c.Param("id"))
	if errors.Is(err, favorites.ErrListNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "list not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

type listWineRequest struct {
	ProductID string `json:"product_id"`
}

func (s *Server) addListWine(c *gin.Context) {
	var req listWineRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ProductID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "product_id is required"})
		return
	}

	err := s.deps.Favorites.AddWine(c.Request.Context(), owner(c), c.Param("id"), req.ProductID)
	if errors.Is(err, favorites.ErrListNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "list not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) removeListWine(c *gin.Context) {
	err := s.deps.Favorites.RemoveWine(c.Request.Context(), owner(c), c.Param("id"), c.Param("productId"))
	if errors.Is(err, favorites.ErrListNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "list not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// exportSelection resolves what an export endpoint should emit: either
// the filtered catalog or, with ?list=<id>, one favorites list.
func (s *Server) exportSelection(c *gin.Context) ([]domain.Wine, *export.ListMeta, bool) {
	ctx := c.Request.Context()

	if listID := c.Query("list"); listID != "" {
		list, err := s.deps.Favorites.GetList(ctx, owner(c), listID)
		if errors.Is(err, favorites.ErrListNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "list not found"})
			return nil, nil, false
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return nil, nil, false
		}

		wines, err := s.deps.Catalog.WinesByProductID(ctx, list.ProductIDs)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return nil, nil, false
		}
		meta := &export.ListMeta{
			Name:        list.Name,
			Description: list.Description,
			CreatedAt:   list.CreatedAt,
			WineCount:   list.WineCount(),
		}
		return wines, meta, true
	}

	state := usecase.DecodeFilterState(c.Request.URL.Query(), s.deps.Catalog.Limits())
	wines, err := s.deps.Catalog.Export(ctx, state)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, nil, false
	}
	return wines, nil, true
}

func (s *Server) exportCSV(c *gin.Context) {
	wines, _, ok := s.exportSelection(c)
	if !ok {
		return
	}
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename=wines.csv`)
	if err := export.WriteCSV(c.Writer, wines); err != nil {
		s.logError("csv export", err)
	}
}

func (s *Server) exportJSON(c *gin.Context) {
	wines, meta, ok := s.exportSelection(c)
	if !ok {
		return
	}
	c.Header("Content-Type", "application/json; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename=wines.json`)
	if err := export.WriteJSON(c.Writer, wines, meta); err != nil {
		s.logError("json export", err)
	}
}

func (s *Server) exportXLSX(c *gin.Context) {
	wines, _, ok := s.exportSelection(c)
	if !ok {
		return
	}
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", `attachment; filename=wines.xlsx`)
	if err := export.WriteXLSX(c.Writer, wines); err != nil {
		s.logError("xlsx export", err)
	}
}

// requireRole gates destructive endpoints on the X-Role header set by
// the auth proxy in front of the API.
func (s *Server) requireRole(c *gin.Context, role domain.Role) bool {
	if domain.Role(c.GetHeader("X-Role")) != role {
		c.JSON(http.StatusForbidden, gin.H{"error": "requires " + string(role) + " role"})
		return false
	}
	return true
}

func (s *Server) adminReset(c *gin.Context) {
	if !s.requireRole(c, domain.RoleAdmin) {
		return
	}
	if err := s.deps.Repository.Reset(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "wine catalog wiped"})
}

func (s *Server) logError(op string, err error) {
	if s.deps.Logger != nil {
		s.deps.Logger.Error(op+" failed", "error", err)
	}
}

type wineResponse struct {
	ProductID          string  `json:"product_id"`
	Name               string  `json:"name"`
	Producer           string  `json:"producer"`
	Vintage            *int    `json:"vintage"`
	Category           string  `json:"category"`
	Country            string  `json:"country"`
	Region             string  `json:"region"`
	Price              float64 `json:"price"`
	Currency           string  `json:"currency"`
	Description        string  `json:"description,omitempty"`
	ImageURL           string  `json:"image_url,omitempty"`
	Assortment         string  `json:"assortment,omitempty"`
	Source             string  `json:"source"`
	InvestmentScore    int     `json:"investment_score"`
	ProjectedReturn1Y  float64 `json:"projected_return_1y"`
	ProjectedReturn3Y  float64 `json:"projected_return_3y"`
	ProjectedReturn5Y  float64 `json:"projected_return_5y"`
	ProjectedReturn10Y float64 `json:"projected_return_10y"`
	StorageTimeMonths  int     `json:"storage_time_months"`
	DrinkingWindowFrom int     `json:"drinking_window_from"`
	DrinkingWindowTo   int     `json:"drinking_window_to"`
	ValueAppreciation  float64 `json:"value_appreciation"`
}

func wineResponses(wines []domain.Wine) []wineResponse {
	out := make([]wineResponse, len(wines))
	for i, w := range wines {
		out[i] = wineResponse{
			ProductID:          w.ProductID,
			Name:               w.Name,
			Producer:           w.Producer,
			Vintage:            w.Vintage,
			Category:           w.Category,
			Country:            w.Country,
			Region:             w.Region,
			Price:              w.Price,
			Currency:           w.Currency,
			Description:        w.Description,
			ImageURL:           w.ImageURL,
			Assortment:         w.Assortment,
			Source:             w.Source,
			InvestmentScore:    w.Metrics.InvestmentScore,
			ProjectedReturn1Y:  w.Metrics.ProjectedReturn1Y,
			ProjectedReturn3Y:  w.Metrics.ProjectedReturn3Y,
			ProjectedReturn5Y:  w.Metrics.ProjectedReturn5Y,
			ProjectedReturn10Y: w.Metrics.ProjectedReturn10Y,
			StorageTimeMonths:  w.Metrics.StorageTimeMonths,
			DrinkingWindowFrom: w.Metrics.DrinkingWindowFrom,
			DrinkingWindowTo:   w.Metrics.DrinkingWindowTo,
			ValueAppreciation:  w.Metrics.ValueAppreciation,
		}
	}
	return out
}
