package auth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/gofrs/uuid"
	gomock "github.com/golang/mock/gomock"
	"github.com/haveachin/barebones/pkg/profile"
	"github.com/haveachin/barebones/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	uberatomic "go.uber.org/atomic"
)

const (
	notchHex     = "069a79f444e94726a5befca90e38aaf5"
	notchProfile = `{"id":"069a79f444e94726a5befca90e38aaf5","name":"Notch","properties":[]}`
)

var notchUUID = uuid.Must(uuid.FromString("069a79f4-44e9-4726-a5be-fca90e38aaf5"))

func texturesValue(skinURL string) string {
	return base64.StdEncoding.EncodeToString(
		[]byte(`{"textures":{"SKIN":{"url":"` + skinURL + `"}}}`))
}

func skinProfile(value, signature string) string {
	b, _ := json.Marshal(map[string]any{
		"id":   notchHex,
		"name": "Notch",
		"properties": []map[string]string{
			{"name": "other", "value": "x"},
			{"name": "textures", "value": value, "signature": signature},
		},
	})
	return string(b)
}

func get[T any](t *testing.T, f interface {
	Get(context.Context) (T, bool)
}) (T, bool) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return f.Get(ctx)
}

func TestNew(t *testing.T) {
	s, err := New(Config{})
	require.NoError(t, err)

	assert.Equal(t, DefaultAuthURL, s.authURL)
	assert.Equal(t, DefaultUserProfileURL, s.userProfileURL)
	assert.Equal(t, DefaultMinecraftProfileURL, s.minecraftProfileURL)
	assert.Equal(t, DefaultTimeout, s.timeout)
	assert.Equal(t, DefaultMaxResponseSize, s.maxResponseSize)
	assert.Equal(t, DefaultWorkers, cap(s.workers))
	assert.NotNil(t, s.client)
	assert.NotNil(t, s.logger)
}

func TestNew_InvalidFormat(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "auth url with one verb", cfg: Config{AuthURL: "https://a/%s"}},
		{name: "user profile url without verb", cfg: Config{UserProfileURL: "https://a/"}},
		{name: "minecraft profile url with two verbs", cfg: Config{MinecraftProfileURL: "https://a/%s/%s"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			assert.ErrorIs(t, err, ErrInvalidArgument)
		})
	}
}

func TestService_RequestGameProfile(t *testing.T) {
	var gotQuery, gotAgent string
	s := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		gotAgent = r.Header.Get("User-Agent")
		assert.Equal(t, "/session/minecraft/hasJoined", r.URL.Path)
		_, _ = w.Write([]byte(notchProfile))
	}), Config{UserAgent: "test-agent"})

	f, err := s.RequestGameProfile(context.Background(), "-7c9d5b0044c130109a5d7b5fb5c317c02b4e28c1", "Notch")
	require.NoError(t, err)

	g, ok := get[profile.GameProfile](t, f)
	require.True(t, ok)

	want, err := profile.New(notchUUID, "Notch")
	require.NoError(t, err)
	assert.True(t, g.Equal(want), "got %s", g)
	assert.Empty(t, g.Properties())

	assert.Equal(t, "username=Notch&serverId=-7c9d5b0044c130109a5d7b5fb5c317c02b4e28c1", gotQuery)
	assert.Equal(t, "test-agent", gotAgent)
}

func TestService_RequestGameProfile_Properties(t *testing.T) {
	value := texturesValue("https://texture/abc")
	s := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(skinProfile(value, "c2ln")))
	}), Config{})

	f, err := s.RequestGameProfile(context.Background(), "hash", "Notch")
	require.NoError(t, err)

	g, ok := get[profile.GameProfile](t, f)
	require.True(t, ok)

	props := g.Properties()
	require.Len(t, props, 2)
	assert.Equal(t, profile.Property{Name: "other", Value: "x"}, props[0])
	assert.False(t, props[0].IsSigned())
	assert.Equal(t, profile.Property{Name: "textures", Value: value, Signature: "c2ln"}, props[1])
}

func TestService_RequestGameProfile_Empty(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		cfg     Config
	}{
		{
			name: "no content",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			},
		},
		{
			name: "rate limited",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(notchProfile))
			},
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			},
		},
		{
			name: "malformed json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"id":`))
			},
		},
		{
			name: "malformed uuid",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"id":"nope","name":"Notch","properties":[]}`))
			},
		},
		{
			name: "missing name",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"id":"` + notchHex + `","properties":[]}`))
			},
		},
		{
			name: "missing properties",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"id":"` + notchHex + `","name":"Notch"}`))
			},
		},
		{
			name: "keys in the wrong case",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"ID":"` + notchHex + `","Name":"Notch","Properties":[]}`))
			},
		},
		{
			name: "response too large",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(notchProfile))
			},
			cfg: Config{MaxResponseSize: 16 * datasize.B},
		},
		{
			name: "timeout",
			handler: func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-r.Context().Done():
				case <-time.After(2 * time.Second):
				}
			},
			cfg: Config{Timeout: 20 * time.Millisecond},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestService(t, tt.handler, tt.cfg)

			f, err := s.RequestGameProfile(context.Background(), "hash", "Notch")
			require.NoError(t, err)

			_, ok := get[profile.GameProfile](t, f)
			assert.False(t, ok)
		})
	}
}

func TestService_RequestGameProfile_InvalidArgument(t *testing.T) {
	s := newTestService(t, http.NotFoundHandler(), Config{})

	_, err := s.RequestGameProfile(context.Background(), "hash", "")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = s.RequestGameProfile(context.Background(), "", "Notch")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	broken, err := New(Config{AuthURL: "://%s/%s"})
	require.NoError(t, err)
	_, err = broken.RequestGameProfile(context.Background(), "hash", "Notch")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestService_RequestGameProfile_Escaping(t *testing.T) {
	var username, serverID string
	s := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username = r.URL.Query().Get("username")
		serverID = r.URL.Query().Get("serverId")
		w.WriteHeader(http.StatusNoContent)
	}), Config{})

	f, err := s.RequestGameProfile(context.Background(), "a&b=c", "we ird+name")
	require.NoError(t, err)
	get[profile.GameProfile](t, f)

	assert.Equal(t, "we ird+name", username)
	assert.Equal(t, "a&b=c", serverID)
}

func TestService_RequestGameProfileWithIP(t *testing.T) {
	var ip string
	s := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip = r.URL.Query().Get("ip")
		_, _ = w.Write([]byte(notchProfile))
	}), Config{})

	f, err := s.RequestGameProfileWithIP(context.Background(), "hash", "Notch", "203.0.113.7")
	require.NoError(t, err)

	_, ok := get[profile.GameProfile](t, f)
	assert.True(t, ok)
	assert.Equal(t, "203.0.113.7", ip)
}

func TestService_CancelledContext(t *testing.T) {
	var calls uberatomic.Int32
	s := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Inc()
		_, _ = w.Write([]byte(notchProfile))
	}), Config{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f, err := s.RequestGameProfile(ctx, "hash", "Notch")
	require.NoError(t, err)

	<-f.Done()
	_, ok := f.Wait()
	assert.False(t, ok)
	assert.Zero(t, calls.Load())
}

func TestService_LookupUUID(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   uuid.UUID
		ok     bool
	}{
		{
			name:   "hyphenless id",
			status: http.StatusOK,
			body:   `{"id":"` + notchHex + `","name":"Notch"}`,
			want:   notchUUID,
			ok:     true,
		},
		{
			name:   "uppercase id",
			status: http.StatusOK,
			body:   `{"id":"` + strings.ToUpper(notchHex) + `","name":"Notch"}`,
			want:   notchUUID,
			ok:     true,
		},
		{
			name:   "not found",
			status: http.StatusNoContent,
		},
		{
			name:   "bad request",
			status: http.StatusBadRequest,
			body:   `{"error":"BadRequestException"}`,
		},
		{
			name:   "short id",
			status: http.StatusOK,
			body:   `{"id":"069a79f4","name":"Notch"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/users/profiles/minecraft/Notch", r.URL.Path)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}), Config{})

			id, ok := get[uuid.UUID](t, s.LookupUUID(context.Background(), "Notch"))
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, id)
		})
	}
}

func TestService_LookupUUID_EmptyUsername(t *testing.T) {
	s := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("unexpected request")
	}), Config{})

	f := s.LookupUUID(context.Background(), "")
	select {
	case <-f.Done():
	default:
		t.Fatal("future for empty username is not settled immediately")
	}
	_, ok := f.Wait()
	assert.False(t, ok)
}

func TestService_SkinByUUID(t *testing.T) {
	value := texturesValue("https://texture/abc")
	s := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/session/minecraft/profile/"+notchHex, r.URL.Path)
		assert.Equal(t, "false", r.URL.Query().Get("unsigned"))
		_, _ = w.Write([]byte(skinProfile(value, "c2ln")))
	}), Config{})

	tex, ok := get[profile.PlayerTextures](t, s.SkinByUUID(context.Background(), notchUUID))
	require.True(t, ok)

	assert.Equal(t, "https://texture/abc", tex.SkinURL().String())
	assert.Nil(t, tex.CapeURL())
	assert.Equal(t, profile.Property{Name: "textures", Value: value, Signature: "c2ln"}, tex.AsProperty())
}

func TestService_SkinByUUID_Empty(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "no textures", body: notchProfile},
		{name: "broken textures", body: skinProfile("@@@", "")},
		{name: "relative skin url", body: skinProfile(texturesValue("/skin.png"), "")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}), Config{})

			_, ok := get[profile.PlayerTextures](t, s.SkinByUUID(context.Background(), notchUUID))
			assert.False(t, ok)
		})
	}

	s := newTestService(t, http.NotFoundHandler(), Config{})
	_, ok := s.SkinByUUID(context.Background(), uuid.Nil).Wait()
	assert.False(t, ok)
}

func TestService_SkinByName(t *testing.T) {
	value := texturesValue("https://texture/abc")

	var lookups, profiles uberatomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/users/profiles/minecraft/", func(w http.ResponseWriter, r *http.Request) {
		lookups.Inc()
		if strings.HasSuffix(r.URL.Path, "/Notch") {
			_, _ = w.Write([]byte(`{"id":"` + notchHex + `","name":"Notch"}`))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/session/minecraft/profile/", func(w http.ResponseWriter, r *http.Request) {
		profiles.Inc()
		_, _ = w.Write([]byte(skinProfile(value, "")))
	})
	s := newTestService(t, mux, Config{})

	tex, ok := get[profile.PlayerTextures](t, s.SkinByName(context.Background(), "Notch"))
	require.True(t, ok)
	assert.Equal(t, value, tex.Value())
	assert.False(t, tex.IsSigned())

	_, ok = get[profile.PlayerTextures](t, s.SkinByName(context.Background(), "nobody"))
	assert.False(t, ok)

	_, ok = s.SkinByName(context.Background(), "").Wait()
	assert.False(t, ok)

	assert.Equal(t, int32(2), lookups.Load())
	assert.Equal(t, int32(1), profiles.Load(), "profile fetched although the lookup failed")
}

func TestService_Workers(t *testing.T) {
	var (
		mu      sync.Mutex
		active  int
		maxSeen int
	)
	release := make(chan struct{})
	entered := make(chan struct{}, 4)

	s := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		active++
		if active > maxSeen {
			maxSeen = active
		}
		mu.Unlock()

		entered <- struct{}{}
		<-release

		mu.Lock()
		active--
		mu.Unlock()
		_, _ = w.Write([]byte(`{"id":"` + notchHex + `","name":"Notch"}`))
	}), Config{Workers: 1})

	first := s.LookupUUID(context.Background(), "Notch")
	second := s.LookupUUID(context.Background(), "Notch")

	<-entered
	assert.Equal(t, int64(1), s.InFlight())

	close(release)
	_, ok1 := get[uuid.UUID](t, first)
	_, ok2 := get[uuid.UUID](t, second)
	assert.True(t, ok1)
	assert.True(t, ok2)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, maxSeen)
}

func TestService_LookupUUID_Cache(t *testing.T) {
	t.Run("hit", func(t *testing.T) {
		s, cache := newCachedTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("cache hit must not reach Mojang")
		}))
		cache.EXPECT().Get(gomock.Any(), "uuid:notch").Return(notchUUID.Bytes(), nil)

		id, ok := get[uuid.UUID](t, s.LookupUUID(context.Background(), "Notch"))
		assert.True(t, ok)
		assert.Equal(t, notchUUID, id)
	})

	t.Run("miss", func(t *testing.T) {
		s, cache := newCachedTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"id":"` + notchHex + `","name":"Notch"}`))
		}))
		gomock.InOrder(
			cache.EXPECT().Get(gomock.Any(), "uuid:notch").Return(nil, storage.ErrNotFound),
			cache.EXPECT().Put(gomock.Any(), "uuid:notch", notchUUID.Bytes()).Return(nil),
		)

		id, ok := get[uuid.UUID](t, s.LookupUUID(context.Background(), "NOTCH"))
		assert.True(t, ok)
		assert.Equal(t, notchUUID, id)
	})

	t.Run("broken cache", func(t *testing.T) {
		s, cache := newCachedTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"id":"` + notchHex + `","name":"Notch"}`))
		}))
		cache.EXPECT().Get(gomock.Any(), "uuid:notch").Return(nil, errors.New("connection refused"))
		cache.EXPECT().Put(gomock.Any(), "uuid:notch", gomock.Any()).Return(errors.New("connection refused"))

		id, ok := get[uuid.UUID](t, s.LookupUUID(context.Background(), "Notch"))
		assert.True(t, ok)
		assert.Equal(t, notchUUID, id)
	})

	t.Run("failed lookups are not cached", func(t *testing.T) {
		s, cache := newCachedTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))
		cache.EXPECT().Get(gomock.Any(), "uuid:notch").Return(nil, storage.ErrNotFound)

		_, ok := get[uuid.UUID](t, s.LookupUUID(context.Background(), "Notch"))
		assert.False(t, ok)
	})
}

func TestService_SkinByUUID_Cache(t *testing.T) {
	value := texturesValue("https://texture/abc")
	cached, err := json.Marshal(cachedTextures{Value: value, Signature: "c2ln"})
	require.NoError(t, err)

	t.Run("hit", func(t *testing.T) {
		s, cache := newCachedTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("cache hit must not reach Mojang")
		}))
		cache.EXPECT().Get(gomock.Any(), "skin:"+notchHex).Return(cached, nil)

		tex, ok := get[profile.PlayerTextures](t, s.SkinByUUID(context.Background(), notchUUID))
		require.True(t, ok)
		assert.Equal(t, value, tex.Value())
		assert.Equal(t, "c2ln", tex.Signature())
	})

	t.Run("miss", func(t *testing.T) {
		s, cache := newCachedTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(skinProfile(value, "c2ln")))
		}))
		gomock.InOrder(
			cache.EXPECT().Get(gomock.Any(), "skin:"+notchHex).Return(nil, storage.ErrNotFound),
			cache.EXPECT().Put(gomock.Any(), "skin:"+notchHex, cached).Return(nil),
		)

		_, ok := get[profile.PlayerTextures](t, s.SkinByUUID(context.Background(), notchUUID))
		assert.True(t, ok)
	})

	t.Run("hasJoined is never cached", func(t *testing.T) {
		s, _ := newCachedTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(skinProfile(value, "c2ln")))
		}))

		f, err := s.RequestGameProfile(context.Background(), "hash", "Notch")
		require.NoError(t, err)
		_, ok := get[profile.GameProfile](t, f)
		assert.True(t, ok)
	})
}
