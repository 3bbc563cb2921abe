package middleware

import (
	"context"
	"net"
	"net/netip"
	"strings"

	"NetworkingServer/pkg/logger"
	"NetworkingServer/pkg/util"

	"github.com/gin-gonic/gin"
)

// 反向代理转发真实 IP 的请求头，按顺序取第一个合法值
var forwardedHeaders = []string{"X-Real-IP", "X-Forwarded-For", "X-Client-IP"}

// ClientIPMiddleware 解析客户端 IP，写入 gin.Context 与请求 context（日志 client_ip 字段、限流使用）
// trustedProxies 为 CIDR 或单个 IP：
//   - 为空时信任任意来源的转发头（部署在网关之后）
//   - 非空时只有直连对端在列表内才读取转发头，否则使用对端地址
//
// 非法的条目记录告警后忽略
func ClientIPMiddleware(trustedProxies []string) gin.HandlerFunc {
	trusted := parseTrusted(trustedProxies)
	return func(c *gin.Context) {
		peer := normalizeIP(c.Request.RemoteAddr)
		ip := ""
		if trusted.allows(peer) {
			ip = forwardedIP(c)
		}
		if ip == "" {
			ip = peer
		}
		if ip == "" {
			ip = c.ClientIP()
		}

		c.Set(util.ContextKeyClientIP, ip)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), util.ContextKeyClientIP, ip))
		c.Next()
	}
}

type proxySet struct {
	any      bool
	prefixes []netip.Prefix
}

func parseTrusted(entries []string) proxySet {
	set := proxySet{}
	for _, raw := range entries {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if !strings.Contains(raw, "/") {
			addr, err := netip.ParseAddr(raw)
			if err != nil {
				logger.Warn(context.Background(), "忽略非法的可信代理地址", logger.String("entry", raw))
				continue
			}
			set.prefixes = append(set.prefixes, netip.PrefixFrom(addr.Unmap(), addr.Unmap().BitLen()))
			continue
		}
		prefix, err := netip.ParsePrefix(raw)
		if err != nil {
			logger.Warn(context.Background(), "忽略非法的可信代理网段", logger.String("entry", raw))
			continue
		}
		set.prefixes = append(set.prefixes, prefix.Masked())
	}
	set.any = len(set.prefixes) == 0 && len(entries) == 0
	return set
}

func (s proxySet) allows(peer string) bool {
	if s.any {
		return true
	}
	addr, err := netip.ParseAddr(peer)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range s.prefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// forwardedIP X-Forwarded-For 取第一个合法 IP（最靠近客户端）
func forwardedIP(c *gin.Context) string {
	for _, h := range forwardedHeaders {
		for _, part := range strings.Split(c.GetHeader(h), ",") {
			if ip := normalizeIP(part); ip != "" {
				return ip
			}
		}
	}
	return ""
}

// normalizeIP 去掉端口并规范化，非法时返回空串
func normalizeIP(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if host, _, err := net.SplitHostPort(raw); err == nil {
		raw = host
	}
	addr, err := netip.ParseAddr(raw)
	if err != nil {
		return ""
	}
	return addr.Unmap().String()
}
