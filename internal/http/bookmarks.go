package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/mrlokans/matjip/internal/auth"
	"github.com/mrlokans/matjip/internal/database/bookmarks"
	"github.com/mrlokans/matjip/internal/database/restaurants"
	"github.com/mrlokans/matjip/internal/entities"
)

// BookmarkStore defines bookmark group and bookmark operations.
type BookmarkStore interface {
	CreateGroup(ctx context.Context, userID, name string) (*entities.BookmarkGroup, error)
	GetGroup(ctx context.Context, id string) (*entities.BookmarkGroup, error)
	ListGroups(ctx context.Context, userID string) ([]entities.BookmarkGroup, error)
	RenameGroup(ctx context.Context, id, name string) error
	DeleteGroup(ctx context.Context, id string) error

	Add(ctx context.Context, b entities.Bookmark) (*entities.Bookmark, error)
	Get(ctx context.Context, id string) (*entities.Bookmark, error)
	ListByGroup(ctx context.Context, groupID string) ([]entities.Bookmark, error)
	ListByUser(ctx context.Context, userID string) ([]entities.Bookmark, error)
	Delete(ctx context.Context, id string) error
	Exists(ctx context.Context, userID, restaurantID, groupID string) (bool, error)
}

type BookmarksController struct {
	bookmarks   BookmarkStore
	restaurants RestaurantStore
	audit       AuditLogger
}

func NewBookmarksController(bookmarks BookmarkStore, restaurants RestaurantStore, audit AuditLogger) *BookmarksController {
	return &BookmarksController{bookmarks: bookmarks, restaurants: restaurants, audit: auditOrNop(audit)}
}

func (bc *BookmarksController) RegisterRoutes(r gin.IRouter) {
	groups := r.Group("/api/bookmark-groups")
	groups.GET("", bc.ListGroups)
	groups.POST("", bc.CreateGroup)
	groups.GET("/:id", bc.GetGroup)
	groups.PATCH("/:id", bc.RenameGroup)
	groups.DELETE("/:id", bc.DeleteGroup)
	groups.GET("/:id/bookmarks", bc.ListGroupBookmarks)

	marks := r.Group("/api/bookmarks")
	marks.GET("", bc.List)
	marks.POST("", bc.Add)
	marks.GET("/exists", bc.Exists)
	marks.DELETE("/:id", bc.Delete)
}

type groupRequest struct {
	Name string `json:"name"`
}

type addBookmarkRequest struct {
	GroupID      string `json:"group_id" binding:"required"`
	RestaurantID string `json:"restaurant_id" binding:"required"`
}

// --- Groups ---

func (bc *BookmarksController) ListGroups(c *gin.Context) {
	groups, err := bc.bookmarks.ListGroups(c.Request.Context(), auth.GetUserID(c))
	if err != nil {
		respondInternalError(c, err, "list bookmark groups")
		return
	}
	c.JSON(http.StatusOK, newListResponse(groups))
}

func (bc *BookmarksController) CreateGroup(c *gin.Context) {
	var req groupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}
	g, err := bc.bookmarks.CreateGroup(c.Request.Context(), auth.GetUserID(c), req.Name)
	if errors.Is(err, bookmarks.ErrEmptyGroupName) {
		respondBadRequest(c, err.Error())
		return
	}
	if err != nil {
		respondInternalError(c, err, "create bookmark group")
		return
	}
	c.JSON(http.StatusCreated, g)
}

// ownedGroup loads the group with the given id; foreign groups answer 404.
func (bc *BookmarksController) ownedGroup(c *gin.Context, id string) (*entities.BookmarkGroup, bool) {
	g, err := bc.bookmarks.GetGroup(c.Request.Context(), id)
	if errors.Is(err, bookmarks.ErrGroupNotFound) || (err == nil && g.UserID != auth.GetUserID(c)) {
		respondNotFound(c, "bookmark group")
		return nil, false
	}
	if err != nil {
		respondInternalError(c, err, "get bookmark group")
		return nil, false
	}
	return g, true
}

func (bc *BookmarksController) GetGroup(c *gin.Context) {
	g, ok := bc.ownedGroup(c, c.Param("id"))
	if !ok {
		return
	}
	c.JSON(http.StatusOK, g)
}

func (bc *BookmarksController) RenameGroup(c *gin.Context) {
	var req groupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}
	g, ok := bc.ownedGroup(c, c.Param("id"))
	if !ok {
		return
	}
	ctx := c.Request.Context()

	err := bc.bookmarks.RenameGroup(ctx, g.ID, req.Name)
	if errors.Is(err, bookmarks.ErrEmptyGroupName) {
		respondBadRequest(c, err.Error())
		return
	}
	if err != nil {
		respondInternalError(c, err, "rename bookmark group")
		return
	}

	renamed, err := bc.bookmarks.GetGroup(ctx, g.ID)
	if err != nil {
		respondInternalError(c, err, "reload bookmark group")
		return
	}
	c.JSON(http.StatusOK, renamed)
}

// DeleteGroup removes the group and every bookmark filed in it.
func (bc *BookmarksController) DeleteGroup(c *gin.Context) {
	g, ok := bc.ownedGroup(c, c.Param("id"))
	if !ok {
		return
	}
	if err := bc.bookmarks.DeleteGroup(c.Request.Context(), g.ID); err != nil {
		respondInternalError(c, err, "delete bookmark group")
		return
	}
	userID, ip := auditActor(c)
	bc.audit.LogDelete(userID, ip, "bookmark_group", g.ID, g.Name)
	c.Status(http.StatusNoContent)
}

func (bc *BookmarksController) ListGroupBookmarks(c *gin.Context) {
	g, ok := bc.ownedGroup(c, c.Param("id"))
	if !ok {
		return
	}
	list, err := bc.bookmarks.ListByGroup(c.Request.Context(), g.ID)
	if err != nil {
		respondInternalError(c, err, "list group bookmarks")
		return
	}
	c.JSON(http.StatusOK, newListResponse(list))
}

// --- Bookmarks ---

func (bc *BookmarksController) List(c *gin.Context) {
	list, err := bc.bookmarks.ListByUser(c.Request.Context(), auth.GetUserID(c))
	if err != nil {
		respondInternalError(c, err, "list bookmarks")
		return
	}
	c.JSON(http.StatusOK, newListResponse(list))
}

// Add handles POST /api/bookmarks. The restaurant name and address are
// copied into the bookmark. A restaurant can be filed once per group.
func (bc *BookmarksController) Add(c *gin.Context) {
	var req addBookmarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}
	g, ok := bc.ownedGroup(c, req.GroupID)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	userID := auth.GetUserID(c)

	restaurant, err := bc.restaurants.GetByID(ctx, req.RestaurantID)
	if errors.Is(err, restaurants.ErrNotFound) {
		respondNotFound(c, "restaurant")
		return
	}
	if err != nil {
		respondInternalError(c, err, "look up restaurant")
		return
	}

	exists, err := bc.bookmarks.Exists(ctx, userID, restaurant.ID, g.ID)
	if err != nil {
		respondInternalError(c, err, "check bookmark")
		return
	}
	if exists {
		respondConflict(c, "restaurant is already bookmarked in this group")
		return
	}

	b, err := bc.bookmarks.Add(ctx, entities.Bookmark{
		UserID:            userID,
		GroupID:           g.ID,
		RestaurantID:      restaurant.ID,
		RestaurantName:    restaurant.Name,
		RestaurantAddress: restaurant.Address,
	})
	if err != nil {
		respondInternalError(c, err, "add bookmark")
		return
	}
	c.JSON(http.StatusCreated, b)
}

// Exists handles GET /api/bookmarks/exists?restaurant_id=&group_id=
func (bc *BookmarksController) Exists(c *gin.Context) {
	restaurantID, ok := requireQuery(c, "restaurant_id")
	if !ok {
		return
	}
	groupID, ok := requireQuery(c, "group_id")
	if !ok {
		return
	}
	exists, err := bc.bookmarks.Exists(c.Request.Context(), auth.GetUserID(c), restaurantID, groupID)
	if err != nil {
		respondInternalError(c, err, "check bookmark")
		return
	}
	c.JSON(http.StatusOK, gin.H{"exists": exists})
}

func (bc *BookmarksController) Delete(c *gin.Context) {
	ctx := c.Request.Context()
	b, err := bc.bookmarks.Get(ctx, c.Param("id"))
	if errors.Is(err, bookmarks.ErrBookmarkNotFound) || (err == nil && b.UserID != auth.GetUserID(c)) {
		respondNotFound(c, "bookmark")
		return
	}
	if err != nil {
		respondInternalError(c, err, "get bookmark")
		return
	}
	if err := bc.bookmarks.Delete(ctx, b.ID); err != nil {
		respondInternalError(c, err, "delete bookmark")
		return
	}
	userID, ip := auditActor(c)
	bc.audit.LogDelete(userID, ip, "bookmark", b.ID, b.RestaurantName)
	c.Status(http.StatusNoContent)
}
