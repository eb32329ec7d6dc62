package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/rushteam/animerec/core"
	"github.com/rushteam/animerec/pkg/logging"
	"github.com/rushteam/animerec/recommend"
)

const headerDegraded = "X-Degraded-Batches"

// Recommender 是 HTTP 层依赖的推荐能力（recommend.Engine 实现）。
type Recommender interface {
	RecommendDetailed(ctx context.Context, req recommend.Request) (*recommend.Result, error)
}

// recommendParams 是 /recommend/{username} 的请求参数。
type recommendParams struct {
	UserName string `validate:"required,max=64"`
	MinScore int    `validate:"gte=0,lte=100"`
	TopN     int    `validate:"gte=1,lte=50"`
	Filter   string `validate:"max=512"`
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

type handler struct {
	rec             Recommender
	defaultMinScore int
	defaultTopN     int
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) recommend(w http.ResponseWriter, r *http.Request) {
	params, msg := h.parseParams(r)
	if msg != "" {
		writeDetail(w, r, http.StatusBadRequest, msg)
		return
	}

	res, err := h.rec.RecommendDetailed(r.Context(), recommend.Request{
		UserName: params.UserName,
		MinScore: params.MinScore,
		TopN:     params.TopN,
		Filter:   params.Filter,
	})
	if err != nil {
		status := http.StatusInternalServerError
		log := logging.Ctx(r.Context())
		switch {
		case core.Match(err, core.ModuleFilter, core.ErrorCodeInvalidInput):
			status = http.StatusBadRequest
		case core.IsUnavailable(err):
			// 上游抖动或熔断，不是本服务的错误
			log.Warn().Err(err).Str("user", params.UserName).Msg("upstream unavailable")
		default:
			log.Error().Err(err).Str("user", params.UserName).Msg("recommend request failed")
		}
		writeDetail(w, r, status, err.Error())
		return
	}

	items := res.Items
	if items == nil {
		items = []*core.Item{}
	}
	w.Header().Set(headerDegraded, strconv.Itoa(res.Degraded))
	writeJSON(w, r, http.StatusOK, items)
}

func (h *handler) parseParams(r *http.Request) (recommendParams, string) {
	p := recommendParams{
		UserName: chi.URLParam(r, "username"),
		MinScore: h.defaultMinScore,
		TopN:     h.defaultTopN,
		Filter:   r.URL.Query().Get("filter"),
	}
	q := r.URL.Query()
	if v := q.Get("min_score"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return p, "min_score must be an integer"
		}
		p.MinScore = n
	}
	if v := q.Get("top_n"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return p, "top_n must be an integer"
		}
		p.TopN = n
	}

	if err := getValidator().Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return p, fieldMessage(verrs[0])
		}
		return p, err.Error()
	}
	return p, ""
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Field() {
	case "MinScore":
		return "min_score must be between 0 and 100"
	case "TopN":
		return "top_n must be between 1 and 50"
	case "UserName":
		return "username is invalid"
	case "Filter":
		return "filter is too long"
	default:
		return fe.Error()
	}
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("failed to write JSON response")
	}
}

// writeDetail 输出 {"detail": msg} 形式的错误。
func writeDetail(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, map[string]string{"detail": msg})
}
