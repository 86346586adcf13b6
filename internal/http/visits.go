package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/mrlokans/matjip/internal/auth"
	"github.com/mrlokans/matjip/internal/database/restaurants"
	"github.com/mrlokans/matjip/internal/database/visits"
	"github.com/mrlokans/matjip/internal/entities"
)

// VisitStore defines the visit history operations used by handlers.
type VisitStore interface {
	Create(ctx context.Context, v entities.Visit) (*entities.Visit, error)
	Get(ctx context.Context, id string) (*entities.Visit, error)
	Update(ctx context.Context, id string, u visits.Update) error
	Delete(ctx context.Context, id string) error
	ListByUser(ctx context.Context, userID string) ([]entities.Visit, error)
	ListByRestaurant(ctx context.Context, userID, restaurantID string) ([]entities.Visit, error)
}

type VisitsController struct {
	visits      VisitStore
	restaurants RestaurantStore
	audit       AuditLogger
}

// NewVisitsController creates the visits controller. audit may be nil.
func NewVisitsController(visits VisitStore, restaurants RestaurantStore, audit AuditLogger) *VisitsController {
	return &VisitsController{visits: visits, restaurants: restaurants, audit: auditOrNop(audit)}
}

func (vc *VisitsController) RegisterRoutes(r gin.IRouter) {
	g := r.Group("/api/visits")
	g.GET("", vc.List)
	g.POST("", vc.Create)
	g.GET("/:id", vc.Get)
	g.PATCH("/:id", vc.Update)
	g.DELETE("/:id", vc.Delete)
}

type createVisitRequest struct {
	RestaurantID string     `json:"restaurant_id" binding:"required"`
	Rating       int        `json:"rating" binding:"required,min=1,max=5"`
	Memo         string     `json:"memo"`
	VisitedAt    *time.Time `json:"visited_at"`
}

type updateVisitRequest struct {
	Rating    *int       `json:"rating" binding:"omitempty,min=1,max=5"`
	Memo      *string    `json:"memo"`
	VisitedAt *time.Time `json:"visited_at"`
}

// List handles GET /api/visits, newest visit first. With ?restaurant_id=
// only visits to that restaurant are returned.
func (vc *VisitsController) List(c *gin.Context) {
	userID := auth.GetUserID(c)
	ctx := c.Request.Context()

	var (
		list []entities.Visit
		err  error
	)
	if rid := c.Query("restaurant_id"); rid != "" {
		list, err = vc.visits.ListByRestaurant(ctx, userID, rid)
	} else {
		list, err = vc.visits.ListByUser(ctx, userID)
	}
	if err != nil {
		respondInternalError(c, err, "list visits")
		return
	}
	c.JSON(http.StatusOK, newListResponse(list))
}

// Create handles POST /api/visits. The restaurant name is copied from the
// cache at creation time.
func (vc *VisitsController) Create(c *gin.Context) {
	var req createVisitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}
	ctx := c.Request.Context()

	restaurant, err := vc.restaurants.GetByID(ctx, req.RestaurantID)
	if errors.Is(err, restaurants.ErrNotFound) {
		respondNotFound(c, "restaurant")
		return
	}
	if err != nil {
		respondInternalError(c, err, "look up restaurant")
		return
	}

	visitedAt := time.Now()
	if req.VisitedAt != nil {
		visitedAt = *req.VisitedAt
	}
	v, err := vc.visits.Create(ctx, entities.Visit{
		UserID:         auth.GetUserID(c),
		RestaurantID:   restaurant.ID,
		RestaurantName: restaurant.Name,
		Rating:         req.Rating,
		Memo:           req.Memo,
		VisitedAt:      visitedAt,
	})
	if errors.Is(err, visits.ErrInvalidRating) {
		respondBadRequest(c, err.Error())
		return
	}
	if err != nil {
		respondInternalError(c, err, "create visit")
		return
	}
	c.JSON(http.StatusCreated, v)
}

// ownedVisit loads the visit named by :id. Visits of other users answer
// 404 like missing ones.
func (vc *VisitsController) ownedVisit(c *gin.Context) (*entities.Visit, bool) {
	v, err := vc.visits.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, visits.ErrNotFound) || (err == nil && v.UserID != auth.GetUserID(c)) {
		respondNotFound(c, "visit")
		return nil, false
	}
	if err != nil {
		respondInternalError(c, err, "get visit")
		return nil, false
	}
	return v, true
}

func (vc *VisitsController) Get(c *gin.Context) {
	v, ok := vc.ownedVisit(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, v)
}

// Update handles PATCH /api/visits/:id; omitted fields are kept.
func (vc *VisitsController) Update(c *gin.Context) {
	var req updateVisitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}
	v, ok := vc.ownedVisit(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	err := vc.visits.Update(ctx, v.ID, visits.Update{Rating: req.Rating, Memo: req.Memo, VisitedAt: req.VisitedAt})
	if errors.Is(err, visits.ErrInvalidRating) {
		respondBadRequest(c, err.Error())
		return
	}
	if err != nil {
		respondInternalError(c, err, "update visit")
		return
	}

	updated, err := vc.visits.Get(ctx, v.ID)
	if err != nil {
		respondInternalError(c, err, "reload visit")
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (vc *VisitsController) Delete(c *gin.Context) {
	v, ok := vc.ownedVisit(c)
	if !ok {
		return
	}
	if err := vc.visits.Delete(c.Request.Context(), v.ID); err != nil {
		respondInternalError(c, err, "delete visit")
		return
	}
	userID, ip := auditActor(c)
	vc.audit.LogDelete(userID, ip, "visit", v.ID, v.RestaurantName)
	c.Status(http.StatusNoContent)
}
