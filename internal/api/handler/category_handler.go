package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/photosync/photosync/internal/core/domain"
	"github.com/photosync/photosync/internal/core/ports"
)

type CategoryHandler struct {
	categories ports.CategoryService
}

func NewCategoryHandler(categories ports.CategoryService) *CategoryHandler {
	return &CategoryHandler{categories: categories}
}

// List returns all categories ordered by name.
//
// @Summary      List categories
// @Tags         categories
// @Produce      json
// @Security     BearerAuth
// @Success      200   {array}   domain.Category
// @Router       /admin/categories [get]
func (h *CategoryHandler) List(c echo.Context) error {
	cats, err := h.categories.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cats)
}

// Create adds a category; the slug is derived from the name.
//
// @Summary      Create category
// @Tags         categories
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      categoryRequest  true  "Category name"
// @Success      201   {object}  domain.Category
// @Failure      422   {object}  errorResponse
// @Router       /admin/categories [post]
func (h *CategoryHandler) Create(c echo.Context) error {
	var req categoryRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	cat, err := h.categories.Create(c.Request().Context(), req.Name)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, cat)
}

// Delete removes a category.
//
// @Summary      Delete category
// @Tags         categories
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int  true  "Category ID"
// @Success      200   {object}  messageResponse
// @Failure      404   {object}  errorResponse
// @Router       /admin/categories/{id} [delete]
func (h *CategoryHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return domain.ErrCategoryNotFound
	}
	if err := h.categories.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "category deleted successfully"})
}
