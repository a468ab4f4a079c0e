package qclient

import (
	"strconv"
	"strings"

	"github.com/theanalyst/qclient-go/internal/endpoint"
)

const movedPrefix = "MOVED "

// parseMoved recognizes spec.md §6.1's redirect error payload, "MOVED
// <slot> <host>:<port>", and extracts the target endpoint.
func parseMoved(payload string) (endpoint.Endpoint, bool) {
	if !strings.HasPrefix(payload, movedPrefix) {
		return endpoint.Endpoint{}, false
	}
	fields := strings.Fields(payload[len(movedPrefix):])
	if len(fields) != 2 {
		return endpoint.Endpoint{}, false
	}
	hostPort := fields[1]
	idx := strings.LastIndexByte(hostPort, ':')
	if idx < 0 {
		return endpoint.Endpoint{}, false
	}
	host := hostPort[:idx]
	port, err := strconv.Atoi(hostPort[idx+1:])
	if err != nil || host == "" {
		return endpoint.Endpoint{}, false
	}
	return endpoint.Endpoint{Host: host, Port: port}, true
}
