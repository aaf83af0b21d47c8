// Package auth talks to Mojang's session and profile endpoints and holds the
// cryptography of the login handshake.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/gofrs/uuid"
	"github.com/haveachin/barebones/pkg/future"
	"github.com/haveachin/barebones/pkg/mcuuid"
	"github.com/haveachin/barebones/pkg/profile"
	"github.com/haveachin/barebones/pkg/storage"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

const (
	DefaultAuthURL             = "https://sessionserver.mojang.com/session/minecraft/hasJoined?username=%s&serverId=%s"
	DefaultUserProfileURL      = "https://api.mojang.com/users/profiles/minecraft/%s"
	DefaultMinecraftProfileURL = "https://sessionserver.mojang.com/session/minecraft/profile/%s?unsigned=false"

	DefaultTimeout         = 10 * time.Second
	DefaultWorkers         = 16
	DefaultMaxResponseSize = datasize.MB
	DefaultUserAgent       = "barebones (+https://github.com/haveachin/barebones)"
)

const (
	opHasJoined  = "has_joined"
	opLookupUUID = "lookup_uuid"
	opSkinByUUID = "skin_by_uuid"
	opSkinByName = "skin_by_name"

	cacheKindUUID = "uuid"
	cacheKindSkin = "skin"
)

type Config struct {
	// AuthURL takes the username and the server hash.
	AuthURL string
	// UserProfileURL takes the username.
	UserProfileURL string
	// MinecraftProfileURL takes the hyphenless player UUID.
	MinecraftProfileURL string

	Timeout         time.Duration
	Workers         int
	MaxResponseSize datasize.ByteSize
	UserAgent       string

	HTTPClient *http.Client
	Cache      storage.Storage
	Logger     *zap.Logger
}

// Service resolves player identities with Mojang. Every lookup runs on a
// bounded pool of workers and settles its future empty on any failure, so
// callers only ever learn whether a player was positively identified.
type Service struct {
	authURL             string
	userProfileURL      string
	minecraftProfileURL string
	timeout             time.Duration
	maxResponseSize     datasize.ByteSize
	userAgent           string

	client *http.Client
	cache  storage.Storage
	logger *zap.Logger

	workers  chan struct{}
	inFlight atomic.Int64
}

func New(cfg Config) (*Service, error) {
	if cfg.AuthURL == "" {
		cfg.AuthURL = DefaultAuthURL
	}
	if cfg.UserProfileURL == "" {
		cfg.UserProfileURL = DefaultUserProfileURL
	}
	if cfg.MinecraftProfileURL == "" {
		cfg.MinecraftProfileURL = DefaultMinecraftProfileURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.MaxResponseSize == 0 {
		cfg.MaxResponseSize = DefaultMaxResponseSize
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	if err := checkFormat("auth url", cfg.AuthURL, 2); err != nil {
		return nil, err
	}
	if err := checkFormat("user profile url", cfg.UserProfileURL, 1); err != nil {
		return nil, err
	}
	if err := checkFormat("minecraft profile url", cfg.MinecraftProfileURL, 1); err != nil {
		return nil, err
	}

	return &Service{
		authURL:             cfg.AuthURL,
		userProfileURL:      cfg.UserProfileURL,
		minecraftProfileURL: cfg.MinecraftProfileURL,
		timeout:             cfg.Timeout,
		maxResponseSize:     cfg.MaxResponseSize,
		userAgent:           cfg.UserAgent,
		client:              cfg.HTTPClient,
		cache:               cfg.Cache,
		logger:              cfg.Logger,
		workers:             make(chan struct{}, cfg.Workers),
	}, nil
}

func checkFormat(name, format string, verbs int) error {
	if n := strings.Count(format, "%s"); n != verbs {
		return fmt.Errorf("%w: %s %q needs %d %%s verbs, has %d", ErrInvalidArgument, name, format, verbs, n)
	}
	return nil
}

// InFlight returns the number of lookups currently holding a worker.
func (s *Service) InFlight() int64 {
	return s.inFlight.Load()
}

// RequestGameProfile asks the session server whether username joined with
// serverHash. The future holds the authenticated profile or settles empty.
// The error is only non-nil when the request URL cannot be built.
func (s *Service) RequestGameProfile(ctx context.Context, serverHash, username string) (*future.Future[profile.GameProfile], error) {
	return s.RequestGameProfileWithIP(ctx, serverHash, username, "")
}

// RequestGameProfileWithIP is RequestGameProfile that also asks the session
// server to check the player's IP. An empty ip omits the check.
func (s *Service) RequestGameProfileWithIP(ctx context.Context, serverHash, username, ip string) (*future.Future[profile.GameProfile], error) {
	if username == "" {
		return nil, fmt.Errorf("%w: username is empty", ErrInvalidArgument)
	}
	if serverHash == "" {
		return nil, fmt.Errorf("%w: server hash is empty", ErrInvalidArgument)
	}

	rawURL := fmt.Sprintf(s.authURL, url.QueryEscape(username), url.QueryEscape(serverHash))
	if ip != "" {
		rawURL += "&ip=" + url.QueryEscape(ip)
	}
	if err := checkURL(rawURL); err != nil {
		return nil, err
	}

	return submit(ctx, s, opHasJoined, func(ctx context.Context) (profile.GameProfile, bool) {
		var g profile.GameProfile
		if err := s.get(ctx, rawURL, &g); err != nil {
			s.logger.Debug("failed to authenticate player",
				append(logRequest(opHasJoined, rawURL), zap.String("username", username), zap.Error(err))...)
			return profile.GameProfile{}, false
		}

		s.logger.Debug("authenticated player", logProfile(g)...)
		return g, true
	}), nil
}

// LookupUUID resolves the UUID of the account currently named username.
func (s *Service) LookupUUID(ctx context.Context, username string) *future.Future[uuid.UUID] {
	if username == "" {
		return future.Empty[uuid.UUID]()
	}

	return submit(ctx, s, opLookupUUID, func(ctx context.Context) (uuid.UUID, bool) {
		return s.lookupUUID(ctx, username)
	})
}

// SkinByUUID fetches the textures of the player with the given UUID.
func (s *Service) SkinByUUID(ctx context.Context, id uuid.UUID) *future.Future[profile.PlayerTextures] {
	if id == uuid.Nil {
		return future.Empty[profile.PlayerTextures]()
	}

	return submit(ctx, s, opSkinByUUID, func(ctx context.Context) (profile.PlayerTextures, bool) {
		return s.skin(ctx, id)
	})
}

// SkinByName resolves username to a UUID and then fetches its textures.
// Both exchanges run one after the other on the same worker.
func (s *Service) SkinByName(ctx context.Context, username string) *future.Future[profile.PlayerTextures] {
	if username == "" {
		return future.Empty[profile.PlayerTextures]()
	}

	return submit(ctx, s, opSkinByName, func(ctx context.Context) (profile.PlayerTextures, bool) {
		id, ok := s.lookupUUID(ctx, username)
		if !ok {
			return profile.PlayerTextures{}, false
		}
		return s.skin(ctx, id)
	})
}

func (s *Service) lookupUUID(ctx context.Context, username string) (uuid.UUID, bool) {
	cacheKey := cacheKindUUID + ":" + strings.ToLower(username)
	if b, ok := s.cacheGet(ctx, cacheKindUUID, cacheKey); ok {
		if id, err := uuid.FromBytes(b); err == nil {
			return id, true
		}
	}

	rawURL := fmt.Sprintf(s.userProfileURL, url.PathEscape(username))
	if err := checkURL(rawURL); err != nil {
		s.logger.Debug("invalid user profile url", append(logRequest(opLookupUUID, rawURL), zap.Error(err))...)
		return uuid.Nil, false
	}

	var resp struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := s.get(ctx, rawURL, &resp); err != nil {
		s.logger.Debug("failed to look up uuid",
			append(logRequest(opLookupUUID, rawURL), zap.String("username", username), zap.Error(err))...)
		return uuid.Nil, false
	}

	id, ok := mcuuid.Parse(resp.ID)
	if !ok || id == uuid.Nil {
		s.logger.Debug("malformed uuid in profile response",
			append(logRequest(opLookupUUID, rawURL), zap.String("id", resp.ID))...)
		return uuid.Nil, false
	}

	s.logger.Debug("looked up uuid", logLookup(username, id)...)
	s.cachePut(ctx, cacheKey, id.Bytes())
	return id, true
}

type cachedTextures struct {
	Value     string `json:"value"`
	Signature string `json:"signature,omitempty"`
}

func (s *Service) skin(ctx context.Context, id uuid.UUID) (profile.PlayerTextures, bool) {
	undashed := mcuuid.Undashed(id)
	cacheKey := cacheKindSkin + ":" + undashed

	if b, ok := s.cacheGet(ctx, cacheKindSkin, cacheKey); ok {
		var cached cachedTextures
		if err := json.Unmarshal(b, &cached); err == nil {
			if t, err := profile.DecodeTextures(cached.Value, cached.Signature); err == nil {
				return t, true
			}
		}
	}

	rawURL := fmt.Sprintf(s.minecraftProfileURL, undashed)
	if err := checkURL(rawURL); err != nil {
		s.logger.Debug("invalid minecraft profile url", append(logRequest(opSkinByUUID, rawURL), zap.Error(err))...)
		return profile.PlayerTextures{}, false
	}

	var g profile.GameProfile
	if err := s.get(ctx, rawURL, &g); err != nil {
		s.logger.Debug("failed to fetch profile",
			append(logRequest(opSkinByUUID, rawURL), zap.Stringer("uuid", id), zap.Error(err))...)
		return profile.PlayerTextures{}, false
	}

	t, ok, err := profile.TexturesFromProfile(g)
	if !ok || err != nil {
		s.logger.Debug("profile has no usable textures",
			append(logProfile(g), zap.Bool("hasTextures", ok), zap.Error(err))...)
		return profile.PlayerTextures{}, false
	}

	if b, err := json.Marshal(cachedTextures{Value: t.Value(), Signature: t.Signature()}); err == nil {
		s.cachePut(ctx, cacheKey, b)
	}
	return t, true
}

// get performs one GET and decodes a 200 response into v.
func (s *Service) get(ctx context.Context, rawURL string, v any) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	limit := s.maxResponseSize.Bytes()
	body, err := io.ReadAll(io.LimitReader(resp.Body, int64(limit)+1))
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s", errUnexpectedStatus, resp.Status)
	}
	if uint64(len(body)) > limit {
		return fmt.Errorf("%w: more than %s", errResponseTooLarge, s.maxResponseSize.HR())
	}

	return json.Unmarshal(body, v)
}

func (s *Service) cacheGet(ctx context.Context, kind, key string) ([]byte, bool) {
	if s.cache == nil {
		return nil, false
	}

	b, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn("failed to read from cache", zap.String("key", key), zap.Error(err))
		}
		observeCache(kind, false)
		return nil, false
	}

	observeCache(kind, true)
	return b, true
}

func (s *Service) cachePut(ctx context.Context, key string, value []byte) {
	if s.cache == nil {
		return
	}

	if err := s.cache.Put(ctx, key, value); err != nil {
		s.logger.Warn("failed to write to cache", zap.String("key", key), zap.Error(err))
	}
}

func checkURL(rawURL string) error {
	u, err := url.ParseRequestURI(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: %q is not absolute", ErrInvalidArgument, rawURL)
	}
	return nil
}

// submit runs fn once a worker is free. Cancelling ctx while waiting for a
// worker settles the future empty without running fn.
func submit[T any](ctx context.Context, s *Service, op string, fn func(context.Context) (T, bool)) *future.Future[T] {
	f := future.New[T]()

	go func() {
		if ctx.Err() != nil {
			observeRequest(op, false, 0)
			f.Settle()
			return
		}

		select {
		case s.workers <- struct{}{}:
		case <-ctx.Done():
			observeRequest(op, false, 0)
			f.Settle()
			return
		}
		defer func() { <-s.workers }()

		s.inFlight.Inc()
		requestsInFlight.Inc()
		defer func() {
			s.inFlight.Dec()
			requestsInFlight.Dec()
		}()

		start := time.Now()
		v, ok := fn(ctx)
		observeRequest(op, ok, time.Since(start))

		if ok {
			f.Resolve(v)
		} else {
			f.Settle()
		}
	}()

	return f
}
