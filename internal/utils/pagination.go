package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type PaginationParams struct {
	Page     int    `json:"page" form:"page"`
	PageSize int    `json:"page_size" form:"page_size"`
	Sort     string `json:"sort" form:"sort"`
	Order    string `json:"order" form:"order"`
}

type PaginationMeta struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

func GetPaginationParams(c *gin.Context) *PaginationParams {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(DefaultPageSize)))
	sort := c.DefaultQuery("sort", "created_at")
	order := c.DefaultQuery("order", "desc")

	if page < 1 {
		page = 1
	}
	if pageSize < MinPageSize {
		pageSize = MinPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	if order != "asc" && order != "desc" {
		order = "desc"
	}

	return &PaginationParams{Page: page, PageSize: pageSize, Sort: sort, Order: order}
}

// FindOptions translates pagination params into mongo find options with
// a deterministic sort; callers never rely on natural ordering.
func (p *PaginationParams) FindOptions() *options.FindOptions {
	direction := -1
	if p.Order == "asc" {
		direction = 1
	}

	return options.Find().
		SetSort(bson.D{{Key: p.Sort, Value: direction}, {Key: "_id", Value: direction}}).
		SetSkip(int64((p.Page - 1) * p.PageSize)).
		SetLimit(int64(p.PageSize))
}

func (p *PaginationParams) BuildMeta(total int64) *PaginationMeta {
	totalPages := int((total + int64(p.PageSize) - 1) / int64(p.PageSize))
	return &PaginationMeta{
		Page:       p.Page,
		PageSize:   p.PageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    p.Page < totalPages,
	}
}
