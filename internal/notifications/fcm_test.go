package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/kawaii-gallery/backend/internal/logger"
	"github.com/kawaii-gallery/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Initialize("error", os.DevNull); err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	os.Exit(m.Run())
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func setupTestDB(t *testing.T) *gorm.DB {
	host := getEnv("POSTGRES_HOST", "localhost")
	port := getEnv("POSTGRES_PORT", "5432")
	user := getEnv("POSTGRES_USER", "postgres")
	password := os.Getenv("POSTGRES_PASSWORD")
	dbname := getEnv("POSTGRES_DB", "kawaii_gallery_test")

	dsn := fmt.Sprintf("host=%s port=%s user=%s dbname=%s sslmode=disable", host, port, user, dbname)
	if password != "" {
		dsn = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable", host, port, user, password, dbname)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Skipf("Skipping notification tests: database not available (%v)", err)
	}

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.FCMToken{}))
	return db
}

func registerToken(t *testing.T, db *gorm.DB, userID, token, deviceType string) {
	row := &models.FCMToken{
		UserID:     userID,
		Token:      token,
		DeviceType: deviceType,
	}
	require.NoError(t, db.Create(row).Error)
	t.Cleanup(func() {
		db.Unscoped().Delete(&models.FCMToken{}, "token = ?", token)
	})
}

func createUser(t *testing.T, db *gorm.DB) *models.User {
	id := uuid.New().String()
	user := &models.User{
		ID:       id,
		Email:    "fcm-" + id + "@test.local",
		Nickname: "fcm-" + id[:8],
	}
	require.NoError(t, db.Create(user).Error)
	t.Cleanup(func() {
		db.Unscoped().Delete(&models.User{}, "id = ?", id)
	})
	return user
}

func TestNotifyLikeSendsToEveryDevice(t *testing.T) {
	db := setupTestDB(t)
	author := createUser(t, db)
	registerToken(t, db, author.ID, "device-a-"+uuid.New().String(), "android")
	registerToken(t, db, author.ID, "device-b-"+uuid.New().String(), "ios")

	var mu sync.Mutex
	var received []fcmMessage
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key=test-server-key", r.Header.Get("Authorization"))

		var msg fcmMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&msg))
		mu.Lock()
		received = append(received, msg)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	svc := NewService(db, "test-server-key")
	svc.sendURL = server.URL

	svc.NotifyLike(context.Background(), author.ID, "귀여운토끼", "post-123", "오늘의 스케치")

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, received, 2)
	for _, msg := range received {
		assert.Equal(t, "좋아요!", msg.Notification.Title)
		assert.Equal(t, "'귀여운토끼'님이 당신의 게시글 '오늘의 스케치'을(를) 좋아합니다.", msg.Notification.Body)
		assert.Equal(t, "post-123", msg.Data["post_id"])
	}
}

func TestNotifyCommentBody(t *testing.T) {
	db := setupTestDB(t)
	author := createUser(t, db)
	registerToken(t, db, author.ID, "device-"+uuid.New().String(), "android")

	var got fcmMessage
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	svc := NewService(db, "test-server-key")
	svc.sendURL = server.URL

	svc.NotifyComment(context.Background(), author.ID, "별빛", "post-7", "새 그림")

	assert.Equal(t, "댓글!", got.Notification.Title)
	assert.Equal(t, "'별빛'님이 당신의 게시글 '새 그림'에 댓글을 달았습니다.", got.Notification.Body)
}

func TestSendSkipsWithoutServerKey(t *testing.T) {
	db := setupTestDB(t)
	author := createUser(t, db)
	registerToken(t, db, author.ID, "device-"+uuid.New().String(), "android")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected when the server key is empty")
	}))
	defer server.Close()

	svc := NewService(db, "")
	svc.sendURL = server.URL

	svc.NotifyLike(context.Background(), author.ID, "nick", "post-1", "title")
}

func TestSendFailureIsSwallowed(t *testing.T) {
	db := setupTestDB(t)
	author := createUser(t, db)
	registerToken(t, db, author.ID, "device-"+uuid.New().String(), "android")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	svc := NewService(db, "test-server-key")
	svc.sendURL = server.URL

	// Must not panic or surface the delivery failure
	svc.NotifyLike(context.Background(), author.ID, "nick", "post-1", "title")
}
