package http

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/mrlokans/matjip/internal/daegufood"
	"github.com/mrlokans/matjip/internal/database/restaurants"
	"github.com/mrlokans/matjip/internal/entities"
)

// RestaurantStore is the restaurant cache as seen by handlers.
type RestaurantStore interface {
	Cache(ctx context.Context, r entities.Restaurant) (string, bool, error)
	GetByID(ctx context.Context, id string) (*entities.Restaurant, error)
	ListByCategory(ctx context.Context, category string) ([]entities.Restaurant, error)
}

// RestaurantCatalog serves restaurants after bringing the cache up to date.
type RestaurantCatalog interface {
	Refresh(ctx context.Context, forceSync bool) error
	GetRestaurantsByRegion(ctx context.Context, region string, forceSync bool) ([]entities.Restaurant, error)
	GetAllCachedRestaurants(ctx context.Context, forceSync bool) ([]entities.Restaurant, error)
}

type RestaurantsController struct {
	store   RestaurantStore
	catalog RestaurantCatalog
}

func NewRestaurantsController(store RestaurantStore, catalog RestaurantCatalog) *RestaurantsController {
	return &RestaurantsController{store: store, catalog: catalog}
}

func (rc *RestaurantsController) RegisterRoutes(r gin.IRouter) {
	g := r.Group("/api/restaurants")
	g.GET("", rc.List)
	g.POST("", rc.Cache)
	g.GET("/:id", rc.Get)
}

// List handles GET /api/restaurants?region=&category=&force_sync=
// A stale cache is refreshed first; force_sync refreshes it unconditionally.
func (rc *RestaurantsController) List(c *gin.Context) {
	force, ok := parseBoolQuery(c, "force_sync")
	if !ok {
		return
	}
	region := strings.TrimSpace(c.Query("region"))
	category := strings.TrimSpace(c.Query("category"))
	ctx := c.Request.Context()

	var (
		list []entities.Restaurant
		err  error
	)
	switch {
	case region != "":
		list, err = rc.catalog.GetRestaurantsByRegion(ctx, region, force)
		if err == nil && category != "" {
			list = filterByCategory(list, category)
		}
	case category != "":
		if err = rc.catalog.Refresh(ctx, force); err == nil {
			list, err = rc.store.ListByCategory(ctx, category)
		}
	default:
		list, err = rc.catalog.GetAllCachedRestaurants(ctx, force)
	}
	if err != nil {
		if isUpstreamError(err) {
			respondBadGateway(c, err, "list restaurants")
		} else {
			respondInternalError(c, err, "list restaurants")
		}
		return
	}

	c.JSON(http.StatusOK, newListResponse(list))
}

// isUpstreamError reports whether err came from the daegufood API rather
// than the store.
func isUpstreamError(err error) bool {
	var httpErr *daegufood.HTTPError
	var netErr *url.Error
	return errors.As(err, &httpErr) || errors.Is(err, daegufood.ErrNotDone) || errors.As(err, &netErr)
}

func filterByCategory(list []entities.Restaurant, category string) []entities.Restaurant {
	out := list[:0]
	for _, r := range list {
		if r.Category == category {
			out = append(out, r)
		}
	}
	return out
}

// Get handles GET /api/restaurants/:id. The id may be the store key or the
// upstream identifier.
func (rc *RestaurantsController) Get(c *gin.Context) {
	r, err := rc.store.GetByID(c.Request.Context(), c.Param("id"))
	if errors.Is(err, restaurants.ErrNotFound) {
		respondNotFound(c, "restaurant")
		return
	}
	if err != nil {
		respondInternalError(c, err, "get restaurant")
		return
	}
	c.JSON(http.StatusOK, r)
}

type cacheRestaurantRequest struct {
	ExternalID    string `json:"external_id" binding:"required"`
	Name          string `json:"name" binding:"required"`
	Address       string `json:"address"`
	Category      string `json:"category"`
	Region        string `json:"region"`
	Phone         string `json:"phone"`
	BusinessHours string `json:"business_hours"`
	Menu          string `json:"menu"`
	Description   string `json:"description"`
	Reservation   bool   `json:"reservation"`
}

// Cache handles POST /api/restaurants. An already cached external id
// answers 200 with the existing key, a new one 201.
func (rc *RestaurantsController) Cache(c *gin.Context) {
	var req cacheRestaurantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	if req.Region == "" {
		req.Region = daegufood.ExtractRegion(req.Address)
	}

	id, created, err := rc.store.Cache(c.Request.Context(), entities.Restaurant{
		ExternalID:    req.ExternalID,
		Name:          req.Name,
		Address:       req.Address,
		Category:      req.Category,
		Region:        req.Region,
		Phone:         req.Phone,
		BusinessHours: req.BusinessHours,
		Menu:          req.Menu,
		Description:   req.Description,
		Reservation:   req.Reservation,
	})
	if err != nil {
		respondInternalError(c, err, "cache restaurant")
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"id": id, "created": created})
}
