package api

import (
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/labstack/echo"
	"github.com/nsyszr/quakedb/pkg/model"
	"github.com/nsyszr/quakedb/pkg/quake"
	"github.com/nsyszr/quakedb/pkg/storage"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// pageData is passed to every page template
type pageData struct {
	Flash   string
	Error   string
	Entries []model.Earthquake
	Report  *quake.ImportReport
}

func (h *Handler) render(c echo.Context, name string, data *pageData) error {
	data.Flash = popFlash(c)
	return c.Render(http.StatusOK, name, data)
}

func (h *Handler) handleIndex(c echo.Context) error {
	return h.render(c, "index", &pageData{})
}

func (h *Handler) handleSearchForm(c echo.Context) error {
	return h.render(c, "search", &pageData{})
}

func (h *Handler) handleSearch(c echo.Context) error {
	entries, err := h.svc.Search(c.Request().Context(), c.FormValue("latitude"), c.FormValue("degrees"))
	if quake.IsInvalidInput(err) {
		return h.render(c, "search", &pageData{Error: quake.MsgInvalidSearch})
	} else if err != nil {
		return err
	}

	return h.render(c, "results", &pageData{Entries: entries})
}

func (h *Handler) handleDeleteForm(c echo.Context) error {
	return h.render(c, "delete", &pageData{})
}

func (h *Handler) handleDeleteEntries(c echo.Context) error {
	res, err := h.svc.DeleteByNetwork(c.Request().Context(), c.FormValue("net_value"))
	if err != nil {
		return err
	}

	return c.String(http.StatusOK, fmt.Sprintf("Deleted %d entries. %d entries remain.", res.Deleted, res.Remaining))
}

func (h *Handler) handleCreateForm(c echo.Context) error {
	return h.render(c, "add", &pageData{})
}

func (h *Handler) handleCreateEntry(c echo.Context) error {
	raw := &quake.RawEarthquake{}
	if err := c.Bind(raw); err != nil {
		return redirectWithFlash(c, "/create_entry", "Error: "+err.Error())
	}

	_, err := h.svc.Create(c.Request().Context(), raw)
	switch {
	case err == nil:
		return c.Redirect(http.StatusFound, "/")
	case errors.Cause(err) == storage.ErrDuplicateKey:
		return redirectWithFlash(c, "/create_entry", quake.MsgDuplicateID)
	case quake.IsInvalidInput(err):
		return redirectWithFlash(c, "/create_entry", "Error: "+err.Error())
	default:
		return err
	}
}

func (h *Handler) handleModifyForm(c echo.Context) error {
	return h.render(c, "update", &pageData{})
}

func (h *Handler) handleModifyEntry(c echo.Context) error {
	raw := &quake.RawEarthquake{}
	if err := c.Bind(raw); err != nil {
		return redirectWithFlash(c, "/modify_entry", "Error: "+err.Error())
	}

	_, err := h.svc.Update(c.Request().Context(), c.FormValue("net_id"), raw)
	switch {
	case err == nil:
		return c.Redirect(http.StatusFound, "/")
	case errors.Cause(err) == storage.ErrNotFound:
		return redirectWithFlash(c, "/modify_entry", quake.MsgUnknownID)
	case errors.Cause(err) == storage.ErrDuplicateKey:
		return redirectWithFlash(c, "/modify_entry", quake.MsgDuplicateID)
	case quake.IsInvalidInput(err):
		return redirectWithFlash(c, "/modify_entry", "Error: "+err.Error())
	default:
		return err
	}
}

func (h *Handler) handleDisplayEntries(c echo.Context) error {
	entries, err := h.svc.FetchAll(c.Request().Context())
	if err != nil {
		return err
	}

	return h.render(c, "display", &pageData{Entries: entries})
}

func (h *Handler) handleUploadForm(c echo.Context) error {
	return h.render(c, "uploadcsv", &pageData{})
}

func (h *Handler) handleUploadResults(c echo.Context) error {
	fh, err := csvFile(c)
	switch errors.Cause(err) {
	case nil:
	case quake.ErrEmptyUpload:
		if hasFilePart(c) {
			return redirectWithFlash(c, "/uploadcsv", quake.MsgNoSelectedFile)
		}
		return redirectWithFlash(c, "/uploadcsv", quake.MsgNoFilePart)
	case quake.ErrInvalidFileType:
		return c.String(http.StatusOK, quake.MsgInvalidFileType)
	default:
		return err
	}

	report, err := h.importFile(c, fh)
	if quake.IsInvalidInput(err) {
		return redirectWithFlash(c, "/uploadcsv", "Error: "+err.Error())
	} else if err != nil {
		return err
	}

	return h.render(c, "uploadresult", &pageData{Report: report})
}

// csvFile returns the uploaded csvfile part after checking its name and
// content type. A missing part and a part without file name both fail with
// quake.ErrEmptyUpload.
func csvFile(c echo.Context) (*multipart.FileHeader, error) {
	fh, err := c.FormFile("csvfile")
	if err == http.ErrMissingFile || err == http.ErrNotMultipart {
		return nil, quake.ErrEmptyUpload
	} else if err != nil {
		return nil, errors.Wrap(err, "failed to read multipart form")
	}

	if err := quake.CheckUpload(fh.Filename, fh.Header.Get(echo.HeaderContentType)); err != nil {
		return nil, err
	}

	return fh, nil
}

// hasFilePart reports whether csvfile was sent without a file name. Such a
// part is parsed as a plain form value.
func hasFilePart(c echo.Context) bool {
	form := c.Request().MultipartForm
	if form == nil {
		return false
	}
	_, ok := form.Value["csvfile"]
	return ok
}

func (h *Handler) importFile(c echo.Context, fh *multipart.FileHeader) (*quake.ImportReport, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, errors.Wrap(err, "failed to open uploaded file")
	}
	defer f.Close()

	log.WithFields(log.Fields{
		"filename": fh.Filename,
		"size":     fh.Size,
	}).Debug("Importing uploaded CSV file")

	return h.svc.Import(c.Request().Context(), f)
}
