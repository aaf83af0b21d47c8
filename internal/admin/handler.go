package admin

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/gorilla/schema"
	"github.com/haveachin/barebones/pkg/mcuuid"
	"github.com/haveachin/barebones/pkg/profile"
)

type uuidQuery struct {
	Dashed bool `schema:"dashed"`
}

type skinDTO struct {
	Value     string `json:"value"`
	Signature string `json:"signature,omitempty"`
	SkinURL   string `json:"skinUrl,omitempty"`
	CapeURL   string `json:"capeUrl,omitempty"`
	Model     string `json:"model,omitempty"`
}

func newSkinDTO(t profile.PlayerTextures) skinDTO {
	dto := skinDTO{
		Value:     t.Value(),
		Signature: t.Signature(),
	}
	if u := t.SkinURL(); u != nil {
		dto.SkinURL = u.String()
	}
	if u := t.CapeURL(); u != nil {
		dto.CapeURL = u.String()
	}
	if m, ok := t.SkinModel(); ok {
		dto.Model = m.String()
	}
	return dto
}

func healthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]string{"status": "ok"})
	}
}

func getUUIDHandler(resolver Resolver) http.HandlerFunc {
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)
	return func(w http.ResponseWriter, r *http.Request) {
		query := uuidQuery{}
		if err := decoder.Decode(&query, r.URL.Query()); err != nil {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}

		username := chi.URLParam(r, "username")
		id, ok := resolver.LookupUUID(r.Context(), username).Get(r.Context())
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		dto := struct {
			ID       string `json:"id"`
			Username string `json:"username"`
		}{
			ID:       mcuuid.Undashed(id),
			Username: username,
		}
		if query.Dashed {
			dto.ID = id.String()
		}

		render.JSON(w, r, dto)
	}
}

func getSkinByNameHandler(resolver Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username := chi.URLParam(r, "username")
		t, ok := resolver.SkinByName(r.Context(), username).Get(r.Context())
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		render.JSON(w, r, newSkinDTO(t))
	}
}

func getSkinByUUIDHandler(resolver Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := mcuuid.Parse(chi.URLParam(r, "uuid"))
		if !ok {
			http.Error(w, "malformed uuid", http.StatusUnprocessableEntity)
			return
		}

		t, ok := resolver.SkinByUUID(r.Context(), id).Get(r.Context())
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		render.JSON(w, r, newSkinDTO(t))
	}
}
