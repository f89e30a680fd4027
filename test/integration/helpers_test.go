// Package integration 针对运行中的服务的端到端测试
//
// 需要先启动依赖和服务（api migrate up && api serve），再设置：
//
//	MALL_TEST_BASE_URL=http://localhost:8080
//	MALL_TEST_ADMIN_EMAIL / MALL_TEST_ADMIN_PASSWORD（api admin create创建）
//
// 未设置MALL_TEST_BASE_URL时全部跳过
package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var httpClient = &http.Client{Timeout: 30 * time.Second}

// APIResponse 统一响应结构
type APIResponse struct {
	Status     int             `json:"-"`
	Success    bool            `json:"success"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
	Total      int64           `json:"total"`
	TotalPages int             `json:"total_pages"`
}

func baseURL(t *testing.T) string {
	t.Helper()
	u := os.Getenv("MALL_TEST_BASE_URL")
	if u == "" {
		t.Skip("未设置MALL_TEST_BASE_URL，跳过集成测试")
	}
	return u + "/api/v1"
}

func do(t *testing.T, req *http.Request, token string) *APIResponse {
	t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := httpClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	out := &APIResponse{Status: resp.StatusCode}
	require.NoError(t, json.Unmarshal(body, out), "响应不是JSON: %s", body)
	return out
}

func postJSON(t *testing.T, url string, payload interface{}, token string) *APIResponse {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(data))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	return do(t, req, token)
}

func get(t *testing.T, url, token string) *APIResponse {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	return do(t, req, token)
}

func postImage(t *testing.T, url, filename string, data []byte) *APIResponse {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("image", filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return do(t, req, "")
}

// login 登录并返回Access Token
func login(t *testing.T, base, email, password string) string {
	t.Helper()
	resp := postJSON(t, base+"/auth/login", map[string]string{"email": email, "password": password}, "")
	require.Equal(t, http.StatusOK, resp.Status, resp.Message)

	var data struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	return data.AccessToken
}

// adminToken 使用预先创建的管理员登录
func adminToken(t *testing.T, base string) string {
	t.Helper()
	email, password := os.Getenv("MALL_TEST_ADMIN_EMAIL"), os.Getenv("MALL_TEST_ADMIN_PASSWORD")
	if email == "" || password == "" {
		t.Skip("未设置MALL_TEST_ADMIN_EMAIL/MALL_TEST_ADMIN_PASSWORD")
	}
	return login(t, base, email, password)
}

// registerUser 注册一个普通用户并登录
func registerUser(t *testing.T, base, prefix string) string {
	t.Helper()
	email := fmt.Sprintf("%s_%d@example.com", prefix, time.Now().UnixNano())
	resp := postJSON(t, base+"/auth/register", map[string]string{
		"email": email, "password": "passw0rd1", "nickname": prefix,
	}, "")
	require.Equal(t, http.StatusCreated, resp.Status, resp.Message)
	return login(t, base, email, "passw0rd1")
}
