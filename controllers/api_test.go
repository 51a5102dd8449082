package controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"social-sphere/config"
	"social-sphere/controllers"
	"social-sphere/models"
	"social-sphere/routes"
	"social-sphere/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestAPI(t *testing.T) (*gin.Engine, *services.NotificationService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.Conversation{}, &models.Message{}, &models.Notification{},
	))
	config.DB = db

	hub := services.NewWSManager()
	presence := services.NewPresenceRegistry(hub)
	notifications := services.NewNotificationService(db, hub, presence)
	messages := services.NewMessageService(db, hub, presence, notifications)
	hub.Bind(presence, messages)

	controllers.Setup(hub, presence, messages, notifications)
	return routes.RegisterRoutes(), notifications
}

func registerTestUser(t *testing.T, username string) (models.User, string) {
	t.Helper()
	user := models.User{Username: username, Password: "hashed"}
	require.NoError(t, config.DB.Create(&user).Error)
	token, err := services.GenerateToken(user)
	require.NoError(t, err)
	return user, token
}

func doRequest(r *gin.Engine, method, path, token string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	recorder := httptest.NewRecorder()
	r.ServeHTTP(recorder, req)
	return recorder
}

func multipartBody(t *testing.T, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestAPIRequiresToken(t *testing.T) {
	r, _ := setupTestAPI(t)

	recorder := doRequest(r, http.MethodGet, "/api/conversations", "", nil, "")
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)

	recorder = doRequest(r, http.MethodGet, "/api/notifications", "bogus-token", nil, "")
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestSendMessageEndpoint(t *testing.T) {
	r, _ := setupTestAPI(t)
	_, aliceToken := registerTestUser(t, "alice")
	bob, _ := registerTestUser(t, "bob")

	body, contentType := multipartBody(t, map[string]string{
		"receiver_id": bob.ID,
		"content":     "hello",
	})
	recorder := doRequest(r, http.MethodPost, "/api/messages", aliceToken, body, contentType)
	require.Equal(t, http.StatusOK, recorder.Code)

	var response struct {
		Data models.Message `json:"data"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	assert.Equal(t, "hello", response.Data.Content)
	assert.Equal(t, bob.ID, response.Data.ReceiverID)

	// 既没有文字也没有媒体 → 400
	body, contentType = multipartBody(t, map[string]string{"receiver_id": bob.ID})
	recorder = doRequest(r, http.MethodPost, "/api/messages", aliceToken, body, contentType)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	// 接收方不存在 → 404
	body, contentType = multipartBody(t, map[string]string{
		"receiver_id": "missing-user",
		"content":     "hi",
	})
	recorder = doRequest(r, http.MethodPost, "/api/messages", aliceToken, body, contentType)
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestDeleteMessageRequiresSender(t *testing.T) {
	r, _ := setupTestAPI(t)
	_, aliceToken := registerTestUser(t, "alice")
	bob, bobToken := registerTestUser(t, "bob")

	body, contentType := multipartBody(t, map[string]string{
		"receiver_id": bob.ID,
		"content":     "hello",
	})
	recorder := doRequest(r, http.MethodPost, "/api/messages", aliceToken, body, contentType)
	require.Equal(t, http.StatusOK, recorder.Code)

	var response struct {
		Data models.Message `json:"data"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))

	recorder = doRequest(r, http.MethodDelete, "/api/messages/"+response.Data.MessageID, bobToken, nil, "")
	assert.Equal(t, http.StatusForbidden, recorder.Code)

	recorder = doRequest(r, http.MethodDelete, "/api/messages/"+response.Data.MessageID, aliceToken, nil, "")
	assert.Equal(t, http.StatusOK, recorder.Code)

	recorder = doRequest(r, http.MethodDelete, "/api/messages/"+response.Data.MessageID, aliceToken, nil, "")
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestNotificationEndpointsEnforceOwnership(t *testing.T) {
	r, notifications := setupTestAPI(t)
	owner, ownerToken := registerTestUser(t, "owner")
	liker, _ := registerTestUser(t, "liker")
	_, strangerToken := registerTestUser(t, "stranger")

	notifications.NotifyLike(owner.ID, liker.ID, "post-1")

	recorder := doRequest(r, http.MethodGet, "/api/notifications", ownerToken, nil, "")
	require.Equal(t, http.StatusOK, recorder.Code)

	var listResponse struct {
		Data []models.Notification `json:"data"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &listResponse))
	require.Len(t, listResponse.Data, 1)
	id := listResponse.Data[0].NotificationID

	// 非接收方标记已读 → 403
	recorder = doRequest(r, http.MethodPut, "/api/notifications/"+id+"/read", strangerToken, nil, "")
	assert.Equal(t, http.StatusForbidden, recorder.Code)

	// 不存在的通知 → 404
	recorder = doRequest(r, http.MethodPut, "/api/notifications/missing/read", ownerToken, nil, "")
	assert.Equal(t, http.StatusNotFound, recorder.Code)

	recorder = doRequest(r, http.MethodPut, "/api/notifications/"+id+"/read", ownerToken, nil, "")
	assert.Equal(t, http.StatusOK, recorder.Code)

	recorder = doRequest(r, http.MethodGet, "/api/notifications/unread/count", ownerToken, nil, "")
	require.Equal(t, http.StatusOK, recorder.Code)
	var countResponse struct {
		Data struct {
			Count int64 `json:"count"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &countResponse))
	assert.EqualValues(t, 0, countResponse.Data.Count)

	recorder = doRequest(r, http.MethodDelete, "/api/notifications", ownerToken, nil, "")
	assert.Equal(t, http.StatusOK, recorder.Code)

	recorder = doRequest(r, http.MethodGet, "/api/notifications", ownerToken, nil, "")
	require.Equal(t, http.StatusOK, recorder.Code)
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &listResponse))
	assert.Empty(t, listResponse.Data)
}

func TestThreadEndpointMarksRead(t *testing.T) {
	r, _ := setupTestAPI(t)
	alice, aliceToken := registerTestUser(t, "alice")
	bob, bobToken := registerTestUser(t, "bob")

	body, contentType := multipartBody(t, map[string]string{
		"receiver_id": bob.ID,
		"content":     "hello",
	})
	recorder := doRequest(r, http.MethodPost, "/api/messages", aliceToken, body, contentType)
	require.Equal(t, http.StatusOK, recorder.Code)

	recorder = doRequest(r, http.MethodGet, "/api/messages/"+alice.ID, bobToken, nil, "")
	require.Equal(t, http.StatusOK, recorder.Code)

	var threadResponse struct {
		Data []models.Message `json:"data"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &threadResponse))
	require.Len(t, threadResponse.Data, 1)
	assert.True(t, threadResponse.Data[0].IsRead)

	recorder = doRequest(r, http.MethodGet, "/api/messages/unread/count", bobToken, nil, "")
	require.Equal(t, http.StatusOK, recorder.Code)
	var countResponse struct {
		Data struct {
			Count int64 `json:"count"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &countResponse))
	assert.EqualValues(t, 0, countResponse.Data.Count)
}
