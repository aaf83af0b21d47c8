//go:generate mockgen -destination=storage_mock_test.go -package=auth github.com/haveachin/barebones/pkg/storage Storage
package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	gomock "github.com/golang/mock/gomock"
)

func newTestService(t *testing.T, h http.Handler, cfg Config) *Service {
	t.Helper()

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	cfg.AuthURL = srv.URL + "/session/minecraft/hasJoined?username=%s&serverId=%s"
	cfg.UserProfileURL = srv.URL + "/users/profiles/minecraft/%s"
	cfg.MinecraftProfileURL = srv.URL + "/session/minecraft/profile/%s?unsigned=false"
	if cfg.Timeout == 0 {
		cfg.Timeout = 2 * time.Second
	}

	s, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func newCachedTestService(t *testing.T, h http.Handler) (*Service, *MockStorage) {
	t.Helper()

	ctrl := gomock.NewController(t)
	cache := NewMockStorage(ctrl)
	return newTestService(t, h, Config{Cache: cache}), cache
}
