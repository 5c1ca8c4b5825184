package handlers

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/kawaii-gallery/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (suite *HandlersTestSuite) TestToggleLikeRequiresAuth() {
	t := suite.T()

	post := suite.createPost(suite.createUser(0))
	w := suite.request("POST", "/api/v1/posts/"+post.ID+"/like", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func (suite *HandlersTestSuite) TestToggleLikeUnknownPost() {
	t := suite.T()

	user := suite.createUser(0)
	w := suite.request("POST", "/api/v1/posts/"+uuid.New().String()+"/like", user.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func (suite *HandlersTestSuite) TestToggleLikeRoundTrip() {
	t := suite.T()

	owner := suite.createUser(0)
	userA := suite.createUser(0)
	userB := suite.createUser(0)
	post := suite.createPost(owner)

	// A likes
	w := suite.request("POST", "/api/v1/posts/"+post.ID+"/like", userA.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeJSON(t, w)
	assert.Equal(t, true, body["liked"])
	assert.Equal(t, float64(1), body["post"].(map[string]interface{})["like_count"])

	// A toggles off
	w = suite.request("POST", "/api/v1/posts/"+post.ID+"/like", userA.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body = decodeJSON(t, w)
	assert.Equal(t, false, body["liked"])
	assert.Equal(t, float64(0), body["post"].(map[string]interface{})["like_count"])

	// B likes: counter reflects the set, not the day's history
	w = suite.request("POST", "/api/v1/posts/"+post.ID+"/like", userB.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body = decodeJSON(t, w)
	assert.Equal(t, true, body["liked"])
	assert.Equal(t, float64(1), body["post"].(map[string]interface{})["like_count"])
}

func (suite *HandlersTestSuite) TestRankingEmpty() {
	t := suite.T()

	w := suite.request("GET", "/api/v1/ranking", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func (suite *HandlersTestSuite) TestRankingOrdersByScore() {
	t := suite.T()

	owner := suite.createUser(0)
	userA := suite.createUser(0)
	userB := suite.createUser(0)
	hot := suite.createPost(owner)
	warm := suite.createPost(owner)

	for _, likerID := range []string{userA.ID, userB.ID} {
		w := suite.request("POST", "/api/v1/posts/"+hot.ID+"/like", likerID, nil)
		require.Equal(t, http.StatusOK, w.Code)
	}
	w := suite.request("POST", "/api/v1/posts/"+warm.ID+"/like", userA.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = suite.request("GET", "/api/v1/ranking?n=10", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeJSON(t, w)
	entries := body["entries"].([]interface{})
	require.Len(t, entries, 2)

	first := entries[0].(map[string]interface{})
	second := entries[1].(map[string]interface{})
	assert.Equal(t, float64(1), first["rank"])
	assert.Equal(t, float64(2), first["score"])
	assert.Equal(t, hot.ID, first["post"].(map[string]interface{})["id"])
	assert.Equal(t, float64(2), second["rank"])
	assert.Equal(t, float64(1), second["score"])
	assert.Equal(t, warm.ID, second["post"].(map[string]interface{})["id"])
}

func (suite *HandlersTestSuite) TestCreatePostRewardsFeather() {
	t := suite.T()

	user := suite.createUser(0)
	w := suite.request("POST", "/api/v1/posts", user.ID, map[string]interface{}{
		"title":   "my first post",
		"content": "hello",
		"tags":    []string{"daily"},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	body := decodeJSON(t, w)
	postID := body["id"].(string)
	t.Cleanup(func() {
		suite.db.Unscoped().Delete(&models.Post{}, "id = ?", postID)
	})

	w = suite.request("GET", "/api/v1/me/feather", user.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decodeJSON(t, w)["feather"])
}

func (suite *HandlersTestSuite) TestCreateCommentSpendsFeather() {
	t := suite.T()

	owner := suite.createUser(0)
	commenter := suite.createUser(1)
	post := suite.createPost(owner)

	w := suite.request("POST", "/api/v1/posts/"+post.ID+"/comments", commenter.ID, map[string]interface{}{
		"content": "nice photo!",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = suite.request("GET", "/api/v1/me/feather", commenter.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), decodeJSON(t, w)["feather"])

	// Balance exhausted: the next comment is rejected before it is written
	w = suite.request("POST", "/api/v1/posts/"+post.ID+"/comments", commenter.ID, map[string]interface{}{
		"content": "one more",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = suite.request("GET", "/api/v1/posts/"+post.ID+"/comments", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	comments := decodeJSON(t, w)["comments"].([]interface{})
	assert.Len(t, comments, 1)
}

func (suite *HandlersTestSuite) TestUpdateNicknameConflict() {
	t := suite.T()

	userA := suite.createUser(0)
	userB := suite.createUser(0)

	w := suite.request("PUT", "/api/v1/me", userA.ID, map[string]interface{}{
		"nickname": userB.Nickname,
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func (suite *HandlersTestSuite) TestUpdatePostForbiddenForNonOwner() {
	t := suite.T()

	owner := suite.createUser(0)
	other := suite.createUser(0)
	post := suite.createPost(owner)

	w := suite.request("PUT", "/api/v1/posts/"+post.ID, other.ID, map[string]interface{}{
		"title": "hijacked",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func (suite *HandlersTestSuite) TestRegisterFCMTokenUpsert() {
	t := suite.T()

	userA := suite.createUser(0)
	userB := suite.createUser(0)
	token := fmt.Sprintf("fcm-token-%s", uuid.New().String())
	t.Cleanup(func() {
		suite.db.Exec("DELETE FROM fcm_tokens WHERE token = ?", token)
	})

	w := suite.request("POST", "/api/v1/me/fcm-token", userA.ID, map[string]interface{}{
		"fcm_token":   token,
		"device_type": "android",
	})
	require.Equal(t, http.StatusOK, w.Code)

	// Same device logs in as another user: the token moves, no duplicate row
	w = suite.request("POST", "/api/v1/me/fcm-token", userB.ID, map[string]interface{}{
		"fcm_token":   token,
		"device_type": "android",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var count int64
	suite.db.Table("fcm_tokens").Where("token = ?", token).Count(&count)
	assert.Equal(t, int64(1), count)
}
