package trustedsubnet

import (
	"net"
	"net/http"

	"github.com/issafronov/siteredirect/internal/middleware/logger"
	"go.uber.org/zap"
)

// TrustedSubnetMiddleware пропускает к API администратора только клиентов из доверенной подсети.
// Адрес клиента берётся из X-Real-IP, а при его отсутствии из RemoteAddr.
func TrustedSubnetMiddleware(trustedNet *net.IPNet) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ipStr := clientIP(r)

			if trustedNet == nil || ipStr == "" {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}

			ip := net.ParseIP(ipStr)
			if ip == nil || !trustedNet.Contains(ip) {
				logger.Log.Debug("request from untrusted address", zap.String("ip", ipStr))
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Parse разбирает подсеть в формате CIDR; пустая строка означает, что проверка выключена
func Parse(cidr string) (*net.IPNet, error) {
	if cidr == "" {
		return nil, nil
	}
	_, trustedNet, err := net.ParseCIDR(cidr)
	if err != nil {
		return nil, err
	}
	return trustedNet, nil
}

func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return ""
	}
	return host
}
