package api

import (
	"bytes"
	_ "embed"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
)

// URLBasePlaceholder is replaced with host:port in the description document.
const URLBasePlaceholder = "##URLBASE##"

//go:embed setup.xml
var defaultSetup []byte

// DefaultSetup returns a copy of the built-in description template.
func DefaultSetup() []byte {
	return bytes.Clone(defaultSetup)
}

// LoadSetup reads the description template from path.
// An empty path selects the built-in template.
func LoadSetup(path string) ([]byte, error) {
	if path == "" {
		return DefaultSetup(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading setup template: %w", err)
	}
	return data, nil
}

// RenderSetup substitutes every URLBasePlaceholder in tpl with host:port.
// The result is computed once at startup and served unchanged.
func RenderSetup(tpl []byte, host string, port int) []byte {
	base := net.JoinHostPort(host, strconv.Itoa(port))
	return bytes.ReplaceAll(tpl, []byte(URLBasePlaceholder), []byte(base))
}

// ResolvePublishHost returns configured when set, otherwise the first
// non-loopback IPv4 address of this host, otherwise 127.0.0.1.
func ResolvePublishHost(configured string) string {
	if configured != "" {
		return configured
	}

	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return "127.0.0.1"
	}
	for _, a := range addrs {
		ipnet, ok := a.(*net.IPNet)
		if !ok || ipnet.IP.IsLoopback() {
			continue
		}
		if ip4 := ipnet.IP.To4(); ip4 != nil {
			return ip4.String()
		}
	}
	return "127.0.0.1"
}

// handleSetup serves the rendered description document.
func (s *Server) handleSetup(w http.ResponseWriter, r *http.Request) {
	s.logger.Info("SETUP", "path", r.URL.Path)

	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	w.Write(s.setup) //nolint:errcheck // best-effort write; connection may be closed
}
