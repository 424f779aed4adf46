package eligibility

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// DefaultProxyScheme is used for proxies given as ip:port:user:password
const DefaultProxyScheme = "http"

const maxLineBytes = 1 << 20

// LoadAddresses reads one address per line, trimmed, skipping blank lines
func LoadAddresses(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAddressesUnavailable, err)
	}
	defer f.Close()

	addresses, err := readLines(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAddressesUnavailable, err)
	}
	return addresses, nil
}

// LoadProxies reads the proxy list. A missing or unreadable file yields an
// empty list, which means direct connections.
func LoadProxies(path, scheme string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	lines, err := readLines(f)
	if err != nil {
		return nil
	}

	proxies := make([]string, 0, len(lines))
	for _, line := range lines {
		proxies = append(proxies, ParseProxyLine(line, scheme))
	}
	return proxies
}

// ParseProxyLine expands "ip:port:user:password" into "scheme://user:password@ip:port".
// Any other line, including one that already is a URI, is returned as is.
func ParseProxyLine(line, scheme string) string {
	line = strings.TrimSpace(line)
	if strings.Contains(line, "://") {
		return line
	}
	if scheme == "" {
		scheme = DefaultProxyScheme
	}

	parts := strings.Split(line, ":")
	if len(parts) != 4 {
		return line
	}

	ip, port, user, password := parts[0], parts[1], parts[2], parts[3]
	return fmt.Sprintf("%s://%s:%s@%s:%s", scheme, user, password, ip, port)
}

func readLines(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var lines []string
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines, scanner.Err()
}
