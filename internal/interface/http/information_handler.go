package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/ppob-membership/internal/application"
	"github.com/oksasatya/ppob-membership/pkg/response"
)

type InformationHandler struct {
	Catalog *application.CatalogService
	Logger  *logrus.Logger
}

func NewInformationHandler(catalog *application.CatalogService, logger *logrus.Logger) *InformationHandler {
	return &InformationHandler{Catalog: catalog, Logger: logger}
}

type bannerResponse struct {
	BannerName  string `json:"banner_name"`
	BannerImage string `json:"banner_image"`
	Description string `json:"description"`
}

type serviceResponse struct {
	ServiceCode   string      `json:"service_code"`
	ServiceName   string      `json:"service_name"`
	ServiceIcon   string      `json:"service_icon"`
	ServiceTariff json.Number `json:"service_tariff"`
}

func (h *InformationHandler) Banners(c *gin.Context) {
	banners, err := h.Catalog.ListBanners(c.Request.Context())
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	out := make([]bannerResponse, 0, len(banners))
	for _, b := range banners {
		out = append(out, bannerResponse{BannerName: b.Name, BannerImage: b.Image, Description: b.Description})
	}
	response.Success(c, http.StatusOK, out, "Sukses")
}

func (h *InformationHandler) Services(c *gin.Context) {
	services, err := h.Catalog.ListServices(c.Request.Context())
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	out := make([]serviceResponse, 0, len(services))
	for _, s := range services {
		out = append(out, serviceResponse{
			ServiceCode:   s.Code,
			ServiceName:   s.Name,
			ServiceIcon:   s.Icon,
			ServiceTariff: money(s.Tariff),
		})
	}
	response.Success(c, http.StatusOK, out, "Sukses")
}
