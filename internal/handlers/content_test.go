// internal/handlers/content_test.go
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/imi-campaigns/internal/middleware"
	"github.com/javajoker/imi-campaigns/internal/models"
	"github.com/javajoker/imi-campaigns/internal/repository/memory"
	"github.com/javajoker/imi-campaigns/internal/services"
	"github.com/javajoker/imi-campaigns/internal/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
	utils.SetJWTSecret("handlers-test-secret")
}

type recordingStorage struct {
	uploads map[string][]byte
}

func (s *recordingStorage) Upload(ctx context.Context, file services.MediaFile, folder string) (string, error) {
	data, err := io.ReadAll(file.Body)
	if err != nil {
		return "", err
	}
	s.uploads[file.Name] = data
	return "https://cdn.test/" + folder + "/" + file.Name, nil
}

func (s *recordingStorage) Delete(ctx context.Context, url string) error { return nil }

func multipartBody(t *testing.T, fields map[string]string, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for name, data := range files {
		part, err := w.CreateFormFile("media", name)
		require.NoError(t, err)
		_, err = part.Write([]byte(data))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func TestSubmitContentMultipart(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	brandID := uuid.New()
	campaign := &models.Campaign{BrandID: brandID, Title: "Launch", Status: models.CampaignStatusActive}
	require.NoError(t, store.Campaigns().Create(ctx, campaign))

	storage := &recordingStorage{uploads: map[string][]byte{}}
	h := NewContentHandler(services.NewContentService(store, storage))
	r := gin.New()
	r.POST("/v1/contents", middleware.OptionalAuth(), h.SubmitContent)

	influencerID := uuid.New()
	tok, err := utils.GenerateJWT(influencerID, "inf", string(models.UserTypeInfluencer), 1)
	require.NoError(t, err)

	send := func(fields, files map[string]string, auth bool) *httptest.ResponseRecorder {
		body, contentType := multipartBody(t, fields, files)
		req := httptest.NewRequest("POST", "/v1/contents", body)
		req.Header.Set("Content-Type", contentType)
		if auth {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	fields := map[string]string{"campaign_id": campaign.ID.String(), "platform": "instagram", "caption": "Look"}
	files := map[string]string{"look.jpg": "jpeg-bytes"}

	assert.Equal(t, http.StatusUnauthorized, send(fields, files, false).Code)

	bad := map[string]string{"campaign_id": "nope", "platform": "instagram"}
	assert.Equal(t, http.StatusBadRequest, send(bad, files, true).Code)

	w := send(fields, nil, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "VALIDATION_ERROR")

	w = send(fields, files, true)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, []byte("jpeg-bytes"), storage.uploads["look.jpg"])

	var resp struct {
		Data struct {
			Content models.Content `json:"content"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, models.ReviewStatusSubmitted, resp.Data.Content.Status)
	assert.Equal(t, influencerID, resp.Data.Content.InfluencerID)
	assert.Equal(t, []string{"https://cdn.test/content/" + campaign.ID.String() + "/look.jpg"}, []string(resp.Data.Content.MediaURLs))
}

func TestPathIDAndBindJSON(t *testing.T) {
	r := gin.New()
	r.PUT("/things/:id", func(c *gin.Context) {
		id, ok := pathID(c, "id", "thing")
		if !ok {
			return
		}
		var body struct {
			Name string `json:"name"`
		}
		if !bindJSON(c, &body) {
			return
		}
		c.String(http.StatusOK, id.String()+":"+body.Name)
	})

	serve := func(path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest("PUT", path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	id := uuid.New()
	assert.Equal(t, http.StatusBadRequest, serve("/things/123", `{}`).Code)
	assert.Equal(t, http.StatusBadRequest, serve("/things/"+id.String(), `{bad`).Code)
	assert.Equal(t, id.String()+":", serve("/things/"+id.String(), "").Body.String())
	assert.Equal(t, id.String()+":x", serve("/things/"+id.String(), `{"name":"x"}`).Body.String())
}
