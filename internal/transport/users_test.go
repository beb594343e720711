package transport

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/models"
)

func TestAuthFlow(t *testing.T) {
	ts := newTestServer(t)

	resp, body := ts.do(t, http.MethodPost, "/api/users/", "", map[string]string{
		"email":      "alice@example.com",
		"username":   "alice",
		"first_name": "Alice",
		"last_name":  "Liddell",
		"password":   "secret-password",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	created := models.UserCreatedResp{}
	decode(t, body, &created)
	assert.Equal(t, "alice", created.Username)
	assert.NotContains(t, string(body), "password")

	resp, body = ts.do(t, http.MethodPost, "/api/auth/token/login/", "", map[string]string{
		"email": "alice@example.com", "password": "wrong-password",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, string(body))

	resp, body = ts.do(t, http.MethodPost, "/api/auth/token/login/", "", map[string]string{
		"email": "alice@example.com", "password": "secret-password",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	token := models.TokenResp{}
	decode(t, body, &token)
	require.NotEmpty(t, token.AuthToken)

	resp, _ = ts.do(t, http.MethodGet, "/api/users/me/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body = ts.do(t, http.MethodGet, "/api/users/me/", token.AuthToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	me := models.UserResp{}
	decode(t, body, &me)
	assert.Equal(t, created.ID, me.ID)

	resp, body = ts.do(t, http.MethodPost, "/api/users/set_password/", token.AuthToken, map[string]string{
		"current_password": "secret-password", "new_password": "another-password",
	})
	assert.Equal(t, http.StatusNoContent, resp.StatusCode, string(body))

	resp, _ = ts.do(t, http.MethodPost, "/api/auth/token/logout/", token.AuthToken, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = ts.do(t, http.MethodGet, "/api/users/me/", token.AuthToken, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestUserCreateDuplicate(t *testing.T) {
	ts := newTestServer(t)
	ts.login(t, "alice", false)

	resp, body := ts.do(t, http.MethodPost, "/api/users/", "", map[string]string{
		"email":      "alice@example.com",
		"username":   "alice",
		"first_name": "Alice",
		"last_name":  "Liddell",
		"password":   "secret-password",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, string(body))

	resp, _ = ts.do(t, http.MethodPost, "/api/users/", "", map[string]string{"email": "x@example.com"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUserListPagination(t *testing.T) {
	ts := newTestServer(t)
	for i := 0; i < 3; i++ {
		ts.login(t, fmt.Sprintf("user%d", i), false)
	}

	resp, body := ts.do(t, http.MethodGet, "/api/users/?limit=2", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	page := struct {
		Count    int64             `json:"count"`
		Next     *string           `json:"next"`
		Previous *string           `json:"previous"`
		Results  []models.UserResp `json:"results"`
	}{}
	decode(t, body, &page)
	assert.EqualValues(t, 3, page.Count)
	assert.Len(t, page.Results, 2)
	require.NotNil(t, page.Next)
	assert.Contains(t, *page.Next, "page=2")
	assert.Contains(t, *page.Next, "limit=2")
	assert.Nil(t, page.Previous)

	resp, _ = ts.do(t, http.MethodGet, "/api/users/?page=abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = ts.do(t, http.MethodGet, "/api/users/?page=9223372036854775807", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, string(body))
	assert.NotContains(t, string(body), "page=-")
}

func TestUserGetRequiresAuth(t *testing.T) {
	ts := newTestServer(t)
	alice, token := ts.login(t, "alice", false)

	resp, _ := ts.do(t, http.MethodGet, fmt.Sprintf("/api/users/%d/", alice.ID), "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = ts.do(t, http.MethodGet, fmt.Sprintf("/api/users/%d/", alice.ID), token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = ts.do(t, http.MethodGet, "/api/users/999/", token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSubscribeEndpoints(t *testing.T) {
	ts := newTestServer(t)
	alice, aliceToken := ts.login(t, "alice", false)
	bob, _ := ts.login(t, "bob", false)

	resp, body := ts.do(t, http.MethodPost, fmt.Sprintf("/api/users/%d/subscribe/", alice.ID), aliceToken, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, string(body))

	resp, body = ts.do(t, http.MethodPost, fmt.Sprintf("/api/users/%d/subscribe/", bob.ID), aliceToken, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	author := models.UserWithRecipesResp{}
	decode(t, body, &author)
	assert.Equal(t, bob.ID, author.ID)
	assert.True(t, author.IsSubscribed)
	assert.NotNil(t, author.Recipes)
	assert.Zero(t, author.RecipesCount)

	resp, _ = ts.do(t, http.MethodPost, fmt.Sprintf("/api/users/%d/subscribe/", bob.ID), aliceToken, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = ts.do(t, http.MethodGet, fmt.Sprintf("/api/users/%d/", bob.ID), aliceToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	profile := models.UserResp{}
	decode(t, body, &profile)
	assert.True(t, profile.IsSubscribed)

	resp, body = ts.do(t, http.MethodGet, "/api/users/subscriptions/?recipes_limit=3", aliceToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Contains(t, string(body), `"username":"bob"`)

	resp, _ = ts.do(t, http.MethodDelete, fmt.Sprintf("/api/users/%d/subscribe/", bob.ID), aliceToken, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = ts.do(t, http.MethodDelete, fmt.Sprintf("/api/users/%d/subscribe/", bob.ID), aliceToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
