package ports

// ProxyTarget is a client whose outbound HTTP traffic can be redirected
// through a proxy at runtime.
type ProxyTarget interface {
	SetProxy(proxyURL string) error
}
