package redirect

import (
	"context"
	"net/http"

	"github.com/issafronov/siteredirect/internal/app/config"
	"github.com/issafronov/siteredirect/internal/app/contextkeys"
	"github.com/issafronov/siteredirect/internal/app/models"
	"github.com/issafronov/siteredirect/internal/app/urlvalue"
	"github.com/issafronov/siteredirect/internal/middleware/logger"
	"go.uber.org/zap"
)

// Decider вычисляет решение для запроса
type Decider interface {
	Decide(ctx context.Context, req models.CurrentRequest) models.Decision
}

// FlagsFunc вычисляет признаки контекста запроса
type FlagsFunc func(r *http.Request) models.RequestFlags

// PathFlags определяет признаки по путям администратора и входа из конфигурации
func PathFlags(cfg *config.Config) FlagsFunc {
	return func(r *http.Request) models.RequestFlags {
		return models.RequestFlags{
			IsAdminContext:  cfg.IsAdminPath(r.URL.Path),
			IsLoginEndpoint: cfg.IsLoginPath(r.URL.Path),
		}
	}
}

// RedirectMiddleware перенаправляет запрос, если так решил Decider.
// Иначе решение кладётся в контекст и запрос передаётся дальше.
func RedirectMiddleware(decider Decider, flags FlagsFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			current := models.CurrentRequest{RawURL: urlvalue.FromRequest(r).String()}
			if flags != nil {
				current.RequestFlags = flags(r)
			}

			d := decider.Decide(r.Context(), current)
			if d.Redirect {
				logger.Log.Debug("redirecting request",
					zap.String("from", current.RawURL),
					zap.String("to", d.Location),
					zap.Int("status", d.Status),
				)
				http.Redirect(w, r, d.Location, d.Status)
				return
			}

			ctx := context.WithValue(r.Context(), contextkeys.DecisionKey, d)
			next.ServeHTTP(w, r.WithContext(ctx))
		}
		return http.HandlerFunc(fn)
	}
}

// DecisionFromContext возвращает решение, принятое для запроса
func DecisionFromContext(ctx context.Context) (models.Decision, bool) {
	d, ok := ctx.Value(contextkeys.DecisionKey).(models.Decision)
	return d, ok
}
