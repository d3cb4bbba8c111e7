package auth

import (
	"log"
	"net/http"

	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// RateLimit limita tentativas por IP (formato "10-M" = 10 por minuto).
// Usado na rota de login para frear brute force de credenciais.
func RateLimit(formatted string) func(http.Handler) http.Handler {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		log.Fatalf("invalid rate %q: %v", formatted, err)
	}

	store := memory.NewStore()
	instance := limiter.New(store, rate)
	mw := stdlib.NewMiddleware(instance)

	return func(next http.Handler) http.Handler {
		return mw.Handler(next)
	}
}
