package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/domain"
)

type productQuery struct {
	Type    string `form:"type"`
	Gender  string `form:"gender"`
	Search  string `form:"q"`
	Tag     string `form:"tag"`
	NewOnly bool   `form:"new"`
	Sort    string `form:"sort"`
	Limit   int    `form:"limit"`
}

func (h *handler) listProducts(c *gin.Context) {
	var q productQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondError(c, http.StatusBadRequest, "InvalidInput", "invalid query parameters")
		return
	}
	products, err := h.deps.ProductSvc.List(c.Request.Context(), domain.ProductFilter{
		Type:    q.Type,
		Gender:  q.Gender,
		Search:  q.Search,
		Tag:     q.Tag,
		NewOnly: q.NewOnly,
		Sort:    q.Sort,
		Limit:   q.Limit,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	resp := productListResponse{Count: len(products), Results: make([]productView, 0, len(products))}
	for _, p := range products {
		resp.Results = append(resp.Results, toProductView(p, h.deps.ImageHost))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handler) getProduct(c *gin.Context) {
	p, err := h.deps.ProductSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProductView(*p, h.deps.ImageHost))
}

func (h *handler) listCategories(c *gin.Context) {
	cats, err := h.deps.CategorySvc.List(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	if cats == nil {
		cats = []domain.Category{}
	}
	c.JSON(http.StatusOK, gin.H{"count": len(cats), "results": cats})
}
