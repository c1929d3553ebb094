package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mpetrenko/flightcycle/internal/domain"
	"github.com/mpetrenko/flightcycle/internal/service/airports"
)

type AirportHandler struct {
	service *airports.Service
}

func NewAirportHandler(service *airports.Service) *AirportHandler {
	return &AirportHandler{service: service}
}

func (h *AirportHandler) Register(router *gin.RouterGroup) {
	router.GET("/", h.list)
	router.GET("/:code", h.get)
}

func (h *AirportHandler) RegisterAdmin(router *gin.RouterGroup) {
	router.POST("/", h.create)
}

type createAirportRequest struct {
	Code    string `json:"code" binding:"required"`
	Name    string `json:"name" binding:"required"`
	City    string `json:"city"`
	Country string `json:"country"`
}

func (h *AirportHandler) list(c *gin.Context) {
	list, err := h.service.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *AirportHandler) get(c *gin.Context) {
	airport, err := h.service.GetByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, airport)
}

func (h *AirportHandler) create(c *gin.Context) {
	var req createAirportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	airport := &domain.Airport{Code: req.Code, Name: req.Name, City: req.City, Country: req.Country}
	if err := h.service.Create(c.Request.Context(), airport); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, airport)
}
