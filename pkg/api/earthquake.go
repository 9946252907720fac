package api

import (
	"net/http"

	"github.com/labstack/echo"
	"github.com/nsyszr/quakedb/pkg/api/resource"
	"github.com/nsyszr/quakedb/pkg/quake"
	"github.com/nsyszr/quakedb/pkg/storage"
	"github.com/pkg/errors"
)

// errorStatus maps the error kinds onto HTTP status codes
func errorStatus(err error) int {
	switch errors.Cause(err) {
	case storage.ErrNotFound:
		return http.StatusNotFound
	case storage.ErrDuplicateKey:
		return http.StatusConflict
	case quake.ErrInvalidInput, quake.ErrEmptyUpload:
		return http.StatusBadRequest
	case quake.ErrInvalidFileType:
		return http.StatusUnsupportedMediaType
	default:
		return http.StatusInternalServerError
	}
}

func jsonError(c echo.Context, err error) error {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		c.Logger().Error(err)
	}
	return c.JSON(status, resource.NewError(err))
}

func (h *Handler) handleFetchEarthquakes(c echo.Context) error {
	m, err := h.svc.FetchAll(c.Request().Context())
	if err != nil {
		return jsonError(c, err)
	}

	return c.JSON(http.StatusOK, resource.NewEarthquakeList(m))
}

func (h *Handler) handleGetEarthquakeByID(c echo.Context) error {
	m, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return jsonError(c, err)
	}

	return c.JSON(http.StatusOK, resource.NewEarthquake(m))
}

func (h *Handler) handleCreateEarthquake(c echo.Context) error {
	r := &resource.EarthquakeResource{}
	if err := c.Bind(r); err != nil {
		return c.JSON(http.StatusBadRequest, resource.NewError(err))
	}

	m := r.Model()
	if err := h.svc.Insert(c.Request().Context(), m); err != nil {
		return jsonError(c, err)
	}

	return c.JSON(http.StatusCreated, resource.NewEarthquake(m))
}

func (h *Handler) handleUpdateEarthquake(c echo.Context) error {
	r := &resource.EarthquakeResource{}
	if err := c.Bind(r); err != nil {
		return c.JSON(http.StatusBadRequest, resource.NewError(err))
	}

	m := r.Model()
	if err := h.svc.Replace(c.Request().Context(), c.Param("id"), m); err != nil {
		return jsonError(c, err)
	}

	return c.JSON(http.StatusOK, resource.NewEarthquake(m))
}

func (h *Handler) handleDeleteEarthquake(c echo.Context) error {
	if err := h.svc.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return jsonError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) handleSearchEarthquakes(c echo.Context) error {
	m, err := h.svc.Search(c.Request().Context(), c.QueryParam("latitude"), c.QueryParam("degrees"))
	if quake.IsInvalidInput(err) {
		return c.JSON(http.StatusBadRequest, &resource.ErrorResource{Message: quake.MsgInvalidSearch})
	} else if err != nil {
		return jsonError(c, err)
	}

	return c.JSON(http.StatusOK, resource.NewEarthquakeList(m))
}

func (h *Handler) handleImportEarthquakes(c echo.Context) error {
	fh, err := csvFile(c)
	if err != nil {
		return jsonError(c, err)
	}

	report, err := h.importFile(c, fh)
	if err != nil {
		return jsonError(c, err)
	}

	return c.JSON(http.StatusOK, report)
}
