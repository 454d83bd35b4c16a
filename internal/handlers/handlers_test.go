package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/krishivue/agri-api/internal/imaging"
	"github.com/krishivue/agri-api/internal/metrics"
	"github.com/krishivue/agri-api/internal/model"
	"github.com/krishivue/agri-api/internal/predict"
	"github.com/krishivue/agri-api/internal/serving"
)

type stubInvoker struct {
	scores []float32
	err    error
}

func (s stubInvoker) Invoke(context.Context, *model.Batch) ([]float32, error) {
	return s.scores, s.err
}

type stubClassifier struct{ idx int64 }

func (s stubClassifier) Classify(context.Context, *model.Batch) (int64, error) {
	return s.idx, nil
}

func newHandler(inv predict.Invoker, cls predict.Classifier, maxUpload int64) *Handler {
	disease := predict.NewDiseaseService(imaging.NewDecoder(0), inv, model.DiseaseClasses)
	crop := predict.NewCropService(cls, model.CropNames)
	return NewHandler(disease, crop, maxUpload)
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 8))))
	return buf.Bytes()
}

func uploadRequest(t *testing.T, path, field string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile(field, "leaf.png")
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHello(t *testing.T) {
	h := newHandler(stubInvoker{}, stubClassifier{}, 0)

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		h.Hello(rec, httptest.NewRequest(http.MethodGet, "/hello", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		require.JSONEq(t, `{"message": "Hello World"}`, rec.Body.String())
	}

	rec := httptest.NewRecorder()
	h.Hello(rec, httptest.NewRequest(http.MethodPost, "/hello", nil))
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	require.Contains(t, decodeBody(t, rec), "error")
}

func TestPredictDisease(t *testing.T) {
	h := newHandler(stubInvoker{scores: []float32{0.7, 0.2, 0.1}}, stubClassifier{}, 0)

	rec := httptest.NewRecorder()
	h.PredictDisease(rec, uploadRequest(t, "/predictCropDisease", "file", pngBytes(t)))

	require.Equal(t, http.StatusOK, rec.Code)
	out := decodeBody(t, rec)
	require.Equal(t, "Potato___Early_blight", out["class"])
	require.InDelta(t, 0.7, out["confidence"], 1e-6)
}

func TestPredictDisease_ImageFieldFallback(t *testing.T) {
	h := newHandler(stubInvoker{scores: []float32{0, 1, 0}}, stubClassifier{}, 0)

	rec := httptest.NewRecorder()
	h.PredictDisease(rec, uploadRequest(t, "/predict", "image", pngBytes(t)))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Potato___healthy", decodeBody(t, rec)["class"])
}

func TestPredictDisease_Errors(t *testing.T) {
	tests := []struct {
		name    string
		invoker stubInvoker
		req     func(t *testing.T) *http.Request
		status  int
	}{
		{
			name:    "not an image",
			invoker: stubInvoker{scores: []float32{1, 0, 0}},
			req: func(t *testing.T) *http.Request {
				return uploadRequest(t, "/predictCropDisease", "file", []byte("hello"))
			},
			status: http.StatusBadRequest,
		},
		{
			name:    "no file",
			invoker: stubInvoker{scores: []float32{1, 0, 0}},
			req: func(t *testing.T) *http.Request {
				return uploadRequest(t, "/predictCropDisease", "other", pngBytes(t))
			},
			status: http.StatusBadRequest,
		},
		{
			name:    "model rejects input",
			invoker: stubInvoker{err: model.ErrModel},
			req: func(t *testing.T) *http.Request {
				return uploadRequest(t, "/predictCropDisease", "file", pngBytes(t))
			},
			status: http.StatusInternalServerError,
		},
		{
			name:    "serving unreachable",
			invoker: stubInvoker{err: model.ErrTransport},
			req: func(t *testing.T) *http.Request {
				return uploadRequest(t, "/predict", "file", pngBytes(t))
			},
			status: http.StatusBadGateway,
		},
		{
			name:    "bad serving response",
			invoker: stubInvoker{err: model.ErrProtocol},
			req: func(t *testing.T) *http.Request {
				return uploadRequest(t, "/predict", "file", pngBytes(t))
			},
			status: http.StatusBadGateway,
		},
		{
			name:    "wrong score count",
			invoker: stubInvoker{scores: []float32{1}},
			req: func(t *testing.T) *http.Request {
				return uploadRequest(t, "/predictCropDisease", "file", pngBytes(t))
			},
			status: http.StatusInternalServerError,
		},
		{
			name:    "wrong method",
			invoker: stubInvoker{},
			req: func(t *testing.T) *http.Request {
				return httptest.NewRequest(http.MethodGet, "/predictCropDisease", nil)
			},
			status: http.StatusMethodNotAllowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHandler(tt.invoker, stubClassifier{}, 0)
			rec := httptest.NewRecorder()
			h.PredictDisease(rec, tt.req(t))

			require.Equal(t, tt.status, rec.Code)
			require.NotEmpty(t, decodeBody(t, rec)["error"])
		})
	}
}

func TestPredictDisease_UploadLimit(t *testing.T) {
	h := newHandler(stubInvoker{scores: []float32{1, 0, 0}}, stubClassifier{}, 300)

	rec := httptest.NewRecorder()
	h.PredictDisease(rec, uploadRequest(t, "/predictCropDisease", "file", bytes.Repeat([]byte{1}, 4096)))
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestPredictCrop(t *testing.T) {
	h := newHandler(stubInvoker{}, stubClassifier{idx: 20}, 0)

	body := `{"n":90,"p":42,"k":43,"temperature":20.87,"humidity":82.0,"ph":6.5,"rainfall":202.93}`
	rec := httptest.NewRecorder()
	h.PredictCrop(rec, httptest.NewRequest(http.MethodPost, "/predictCrop", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"prediction": "rice"}`, rec.Body.String())
}

func TestPredictCrop_Errors(t *testing.T) {
	tests := []struct {
		name   string
		idx    int64
		body   string
		status int
	}{
		{"missing field", 20, `{"n":90,"p":42}`, http.StatusBadRequest},
		{"non numeric", 20, `{"n":"lots","p":42,"k":43,"temperature":1,"humidity":1,"ph":1,"rainfall":1}`, http.StatusBadRequest},
		{"malformed", 20, `{`, http.StatusBadRequest},
		{"unknown class", 99, `{"n":1,"p":1,"k":1,"temperature":1,"humidity":1,"ph":1,"rainfall":1}`, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHandler(stubInvoker{}, stubClassifier{idx: tt.idx}, 0)
			rec := httptest.NewRecorder()
			h.PredictCrop(rec, httptest.NewRequest(http.MethodPost, "/predictCrop", strings.NewReader(tt.body)))

			require.Equal(t, tt.status, rec.Code)
			require.NotEmpty(t, decodeBody(t, rec)["error"])
		})
	}
}

func TestRouter(t *testing.T) {
	h := newHandler(stubInvoker{scores: []float32{0, 0, 1}}, stubClassifier{idx: 0}, 0)
	m := metrics.New()
	srv := httptest.NewServer(NewRouter(h.ProxyRoutes(), m, []string{"http://localhost:3000"}))
	defer srv.Close()

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/hello", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))
	require.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	req, err = http.NewRequest(http.MethodGet, srv.URL+"/hello", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://evil.example")
	req.Header.Set("X-Request-ID", "abc")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
	require.Equal(t, "abc", resp.Header.Get("X-Request-ID"))

	req, err = http.NewRequest(http.MethodOptions, srv.URL+"/predict", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// the proxy process has no crop route
	resp, err = http.Post(srv.URL+"/predictCrop", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.Contains(t, string(body), `http_requests_total{method="GET",path="/hello",status="200"} 2`)
}

func TestPredictDisease_RemoteWrongWidth(t *testing.T) {
	for _, body := range []string{`{"predictions": [[0.5, 0.5]]}`, `{"predictions": [[]]}`} {
		tfs := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(body))
		}))

		client := serving.New(tfs.URL+"/v1/models/krishiVue:predict", time.Second, len(model.DiseaseClasses))
		h := newHandler(client, stubClassifier{}, 0)

		rec := httptest.NewRecorder()
		h.PredictDisease(rec, uploadRequest(t, "/predict", "file", pngBytes(t)))
		tfs.Close()

		require.Equal(t, http.StatusBadGateway, rec.Code, body)
		require.NotEmpty(t, decodeBody(t, rec)["error"])
	}
}

func TestPredictDisease_NaNScore(t *testing.T) {
	nan := float32(math.NaN())
	h := newHandler(stubInvoker{scores: []float32{nan, 0.1, 0.2}}, stubClassifier{}, 0)

	rec := httptest.NewRecorder()
	h.PredictDisease(rec, uploadRequest(t, "/predictCropDisease", "file", pngBytes(t)))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.NotEmpty(t, decodeBody(t, rec)["error"])
}

func TestWriteJSON_EncodeFailure(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSON(rec, http.StatusOK, map[string]float64{"confidence": math.Inf(1)})

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.NotEmpty(t, decodeBody(t, rec)["error"])
}
