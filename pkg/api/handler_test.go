package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo"
	"github.com/nsyszr/quakedb/pkg/api/resource"
	"github.com/nsyszr/quakedb/pkg/quake"
	"github.com/nsyszr/quakedb/pkg/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*echo.Echo, *quake.Service) {
	t.Helper()

	r, err := NewRenderer()
	require.NoError(t, err)

	e := echo.New()
	e.Renderer = r

	svc := quake.NewService(memory.NewStore(), nil, nil)
	NewHandler(nil, svc).RegisterRoutes(e)

	return e, svc
}

func seed(t *testing.T, svc *quake.Service, id, net, lat string) {
	t.Helper()

	_, err := svc.Create(context.Background(), &quake.RawEarthquake{
		ID:        id,
		Time:      "2024-02-03T04:05:06.000Z",
		Latitude:  lat,
		Longitude: "-118.1",
		Depth:     "4.2",
		Magnitude: "1.9",
		Network:   net,
	})
	require.NoError(t, err)
}

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func postForm(e *echo.Echo, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	return serve(e, req)
}

func entryForm(id, net, lat string) url.Values {
	return url.Values{
		"id":        {id},
		"time":      {"2024-02-03T04:05:06.000Z"},
		"latitude":  {lat},
		"longitude": {"-118.1"},
		"depth":     {"4.2"},
		"mag":       {"1.9"},
		"net":       {net},
	}
}

func flashOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	for _, c := range rec.Result().Cookies() {
		if c.Name == flashCookie {
			msg, err := url.QueryUnescape(c.Value)
			require.NoError(t, err)
			return msg
		}
	}
	return ""
}

// follow requests the redirect target carrying the cookies of rec
func follow(e *echo.Echo, rec *httptest.ResponseRecorder) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, rec.Header().Get(echo.HeaderLocation), nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return serve(e, req)
}

func csvUpload(t *testing.T, filename, contentType, body string) *http.Request {
	t.Helper()

	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", `form-data; name="csvfile"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write([]byte(body))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/uploadcsvresults", buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return req
}

const uploadCSV = "id,time,latitude,longitude,depth,mag,net\n" +
	"a1,2024-01-01T00:00:00Z,10.5,-120,3,2.5,ci\n" +
	"a1,2024-01-01T00:00:00Z,11.5,-120,3,2.5,ci\n" +
	"a2,2024-01-01T00:00:00Z,abc,-120,3,2.5,ci\n"

func TestFormPages(t *testing.T) {
	e, _ := newTestServer(t)

	for path, want := range map[string]string{
		"/":               "Earthquake records",
		"/search":         `name="degrees"`,
		"/delete_entries": `name="net_value"`,
		"/create_entry":   `action="/create_entry"`,
		"/modify_entry":   `name="net_id"`,
		"/uploadcsv":      `name="csvfile"`,
	} {
		rec := serve(e, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Contains(t, rec.Body.String(), want, path)
	}
}

func TestSearchPage(t *testing.T) {
	e, svc := newTestServer(t)
	seed(t, svc, "in1", "ci", "9")
	seed(t, svc, "in2", "ci", "12")
	seed(t, svc, "out", "ci", "13")

	rec := postForm(e, "/search", url.Values{"latitude": {"10"}, "degrees": {"2"}})
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "2 entries found.")
	assert.Contains(t, body, "in1")
	assert.Contains(t, body, "in2")
	assert.NotContains(t, body, "<td>out</td>")
}

func TestSearchPageInvalidInput(t *testing.T) {
	e, _ := newTestServer(t)

	rec := postForm(e, "/search", url.Values{"latitude": {"north"}, "degrees": {"2"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), quake.MsgInvalidSearch)
	assert.Contains(t, rec.Body.String(), `name="latitude"`)
}

func TestDeleteEntries(t *testing.T) {
	e, svc := newTestServer(t)
	for _, id := range []string{"1", "2"} {
		seed(t, svc, "aa"+id, "AA", "0")
	}
	for _, id := range []string{"1", "2", "3"} {
		seed(t, svc, "bb"+id, "BB", "0")
	}

	rec := postForm(e, "/delete_entries", url.Values{"net_value": {"AA"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Deleted 2 entries. 3 entries remain.", rec.Body.String())
}

func TestCreateEntry(t *testing.T) {
	e, svc := newTestServer(t)

	rec := postForm(e, "/create_entry", entryForm("ci1", "ci", "34.5"))
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get(echo.HeaderLocation))

	m, err := svc.Get(context.Background(), "ci1")
	require.NoError(t, err)
	assert.Equal(t, 34.5, m.Latitude)
}

func TestCreateEntryDuplicate(t *testing.T) {
	e, svc := newTestServer(t)
	seed(t, svc, "ci1", "ci", "1")

	rec := postForm(e, "/create_entry", entryForm("ci1", "nc", "2"))
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/create_entry", rec.Header().Get(echo.HeaderLocation))
	assert.Equal(t, quake.MsgDuplicateID, flashOf(t, rec))

	page := follow(e, rec)
	assert.Contains(t, page.Body.String(), quake.MsgDuplicateID)
}

func TestCreateEntryInvalid(t *testing.T) {
	e, svc := newTestServer(t)

	rec := postForm(e, "/create_entry", entryForm("ci1", "ci", "north"))
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/create_entry", rec.Header().Get(echo.HeaderLocation))
	assert.Contains(t, flashOf(t, rec), "latitude")

	_, err := svc.Get(context.Background(), "ci1")
	assert.Error(t, err)
}

func TestModifyEntry(t *testing.T) {
	e, svc := newTestServer(t)
	seed(t, svc, "old", "ci", "1")

	form := entryForm("new", "us", "5")
	form.Set("net_id", "old")
	rec := postForm(e, "/modify_entry", form)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get(echo.HeaderLocation))

	_, err := svc.Get(context.Background(), "old")
	assert.Error(t, err)
	m, err := svc.Get(context.Background(), "new")
	require.NoError(t, err)
	assert.Equal(t, "us", m.Network)
}

func TestModifyEntryUnknownID(t *testing.T) {
	e, _ := newTestServer(t)

	form := entryForm("new", "us", "5")
	form.Set("net_id", "missing")
	rec := postForm(e, "/modify_entry", form)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/modify_entry", rec.Header().Get(echo.HeaderLocation))
	assert.Equal(t, quake.MsgUnknownID, flashOf(t, rec))
}

func TestDisplayEntries(t *testing.T) {
	e, svc := newTestServer(t)
	seed(t, svc, "ci1", "ci", "1")
	seed(t, svc, "ci2", "nc", "2")

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/display_entries", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<td>ci1</td>")
	assert.Contains(t, rec.Body.String(), "<td>ci2</td>")
}

func TestUploadResults(t *testing.T) {
	e, svc := newTestServer(t)

	rec := serve(e, csvUpload(t, "quakes.csv", "text/csv", uploadCSV))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "1 entries imported.")
	assert.Contains(t, body, "Error: ID a1 already exists.")
	assert.Contains(t, body, "Error processing row a2:")

	n, err := svc.FetchAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, n, 1)
}

func TestUploadResultsInvalidFileType(t *testing.T) {
	e, svc := newTestServer(t)

	rec := serve(e, csvUpload(t, "quakes.csv", "application/vnd.ms-excel", uploadCSV))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, quake.MsgInvalidFileType, rec.Body.String())

	n, err := svc.FetchAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, n)
}

func TestUploadResultsMissingFile(t *testing.T) {
	e, _ := newTestServer(t)

	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	require.NoError(t, w.WriteField("other", "x"))
	require.NoError(t, w.Close())
	req := httptest.NewRequest(http.MethodPost, "/uploadcsvresults", buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())

	rec := serve(e, req)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/uploadcsv", rec.Header().Get(echo.HeaderLocation))
	assert.Equal(t, quake.MsgNoFilePart, flashOf(t, rec))
}

func TestUploadResultsNoSelectedFile(t *testing.T) {
	e, _ := newTestServer(t)

	rec := serve(e, csvUpload(t, "", "application/octet-stream", ""))
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, quake.MsgNoSelectedFile, flashOf(t, rec))

	page := follow(e, rec)
	assert.Contains(t, page.Body.String(), quake.MsgNoSelectedFile)
}

func TestAPIEarthquakeLifecycle(t *testing.T) {
	e, _ := newTestServer(t)

	body := `{"id":"us1","time":"2024-01-01T00:00:00Z","latitude":1.5,"longitude":2,"depth":3,"mag":4.1,"net":"us"}`
	newJSON := func(method, path, body string) *http.Request {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		return req
	}

	rec := serve(e, newJSON(http.MethodPost, "/api/v1/earthquakes", body))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = serve(e, newJSON(http.MethodPost, "/api/v1/earthquakes", body))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = serve(e, httptest.NewRequest(http.MethodGet, "/api/v1/earthquakes/us1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	got := &resource.EarthquakeResource{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), got))
	assert.Equal(t, 4.1, got.Magnitude)

	updated := strings.Replace(body, `"mag":4.1`, `"mag":5.2`, 1)
	rec = serve(e, newJSON(http.MethodPut, "/api/v1/earthquakes/us1", updated))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = serve(e, httptest.NewRequest(http.MethodGet, "/api/v1/earthquakes", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	list := &resource.EarthquakeListResource{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), list))
	require.Len(t, list.Members, 1)
	assert.Equal(t, 5.2, list.Members[0].Magnitude)

	rec = serve(e, httptest.NewRequest(http.MethodDelete, "/api/v1/earthquakes/us1", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = serve(e, httptest.NewRequest(http.MethodGet, "/api/v1/earthquakes/us1", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPICreateInvalid(t *testing.T) {
	e, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/earthquakes", strings.NewReader(`{"id":"us1","time":"t"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := serve(e, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "net is required")
}

func TestAPISearch(t *testing.T) {
	e, svc := newTestServer(t)
	seed(t, svc, "in", "ci", "8")
	seed(t, svc, "out", "ci", "7.9")

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/api/v1/earthquakes/search?latitude=10&degrees=2", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	list := &resource.EarthquakeListResource{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), list))
	require.Len(t, list.Members, 1)
	assert.Equal(t, "in", list.Members[0].ID)

	rec = serve(e, httptest.NewRequest(http.MethodGet, "/api/v1/earthquakes/search?latitude=10&degrees=-1", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), quake.MsgInvalidSearch)
}

func TestAPIImport(t *testing.T) {
	e, _ := newTestServer(t)

	req := csvUpload(t, "quakes.csv", "text/csv", uploadCSV)
	req.URL.Path = "/api/v1/earthquakes/import"
	rec := serve(e, req)
	require.Equal(t, http.StatusOK, rec.Code)

	report := &quake.ImportReport{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), report))
	assert.Equal(t, 1, report.Imported)
	assert.Len(t, report.Errors, 2)

	req = csvUpload(t, "quakes.xls", "application/vnd.ms-excel", uploadCSV)
	req.URL.Path = "/api/v1/earthquakes/import"
	rec = serve(e, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}
