// Package testutil provides a fake Sylve server and a CLI harness shared by
// the package tests.
package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// Reply is a canned response.
type Reply struct {
	Status int
	Body   string
}

// RecordedRequest is a request seen by SylveServer.
type RecordedRequest struct {
	Method string
	Path   string
	Header http.Header
	Body   string
}

// SylveServer is an httptest server answering Sylve API routes with canned
// envelopes. Routes are keyed by method and path (including the query)
// relative to /api.
type SylveServer struct {
	*httptest.Server

	mu       sync.Mutex
	routes   map[string]Reply
	calls    map[string]int
	requests []RecordedRequest
}

// NewSylveServer starts a server preloaded with a healthy single-node host.
// It is closed when the test ends.
func NewSylveServer(t *testing.T) *SylveServer {
	t.Helper()
	s := &SylveServer{
		routes: make(map[string]Reply),
		calls:  make(map[string]int),
	}
	for key, data := range defaultRoutes {
		s.routes[key] = Reply{Status: http.StatusOK, Body: Success(json.RawMessage(data))}
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

func (s *SylveServer) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	path := strings.TrimPrefix(r.URL.RequestURI(), "/api")
	key := r.Method + " " + path

	s.mu.Lock()
	s.calls[key]++
	s.requests = append(s.requests, RecordedRequest{
		Method: r.Method,
		Path:   path,
		Header: r.Header.Clone(),
		Body:   string(body),
	})
	reply, ok := s.routes[key]
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, Failure("not_found", "no route for "+key))
		return
	}
	w.WriteHeader(reply.Status)
	_, _ = io.WriteString(w, reply.Body)
}

// Handle replaces the reply for method and path.
func (s *SylveServer) Handle(method, path string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes[method+" "+path] = Reply{Status: status, Body: body}
}

// HandleData answers method and path with a success envelope around data.
func (s *SylveServer) HandleData(method, path string, data any) {
	s.Handle(method, path, http.StatusOK, Success(data))
}

// Calls returns how many times method and path were requested.
func (s *SylveServer) Calls(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method+" "+path]
}

// TotalCalls returns the number of requests served.
func (s *SylveServer) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

// Requests returns a copy of every request served so far.
func (s *SylveServer) Requests() []RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]RecordedRequest(nil), s.requests...)
}

// LastRequest returns the most recent request to method and path.
func (s *SylveServer) LastRequest(method, path string) (RecordedRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.requests) - 1; i >= 0; i-- {
		if r := s.requests[i]; r.Method == method && r.Path == path {
			return r, true
		}
	}
	return RecordedRequest{}, false
}

// Success renders a success envelope around data.
func Success(data any) string {
	b, _ := json.Marshal(map[string]any{"status": "success", "message": "ok", "data": data})
	return string(b)
}

// Failure renders an error envelope.
func Failure(code, message string) string {
	b, _ := json.Marshal(map[string]any{"status": "error", "error": code, "message": message, "data": nil})
	return string(b)
}

var defaultRoutes = map[string]string{
	"GET /info/basic": `{"hostname":"node-a","os":"FreeBSD 14.2-RELEASE","uptime":93784,
		"loadAverage":"0.21, 0.30, 0.28","bootMode":"UEFI","sylveVersion":"0.1.0"}`,
	"GET /info/cpu": `{"name":"AMD EPYC 7302P","physicalCores":16,"threadsPerCore":2,"logicalCores":32,
		"family":23,"model":49,"features":["sse4_2","avx2"],"cacheLine":64,
		"cache":{"l1d":32768,"l1i":32768,"l2":524288,"l3":134217728},"frequency":3000,"usage":12.5}`,
	"GET /info/cpu/historical":  `[{"id":1,"usage":10.5,"createdAt":"2026-10-15T10:00:00Z"},{"id":2,"usage":12.5,"createdAt":"2026-10-15T10:01:00Z"}]`,
	"GET /info/ram":             `{"total":68719476736,"free":34359738368,"usedPercent":50}`,
	"GET /info/ram/historical":  `[{"id":1,"usage":49.8,"createdAt":"2026-10-15T10:00:00Z"}]`,
	"GET /info/swap":            `{"total":8589934592,"free":8589934592,"usedPercent":0}`,
	"GET /info/swap/historical": `[]`,
	"GET /info/notes":           `[{"id":1,"title":"maintenance","content":"scrub tank on sunday","createdAt":"2026-10-14T09:00:00Z"}]`,
	"POST /info/notes":          `{"id":2,"title":"new","content":"body","createdAt":"2026-10-16T09:00:00Z"}`,
	"DELETE /info/notes/1":      `null`,
	"GET /zfs/pool/list": `[{"name":"tank","health":"ONLINE","allocated":1099511627776,"size":4398046511104,
		"free":3298534883328,"readOnly":false,"freeing":0,"leaked":0,"dedupRatio":1,
		"vdevs":[{"name":"mirror-0","alloc":1099511627776,"free":3298534883328,"size":4398046511104,"health":"ONLINE",
		"operations":{"read":12,"write":40},"bandwidth":{"read":1024,"write":4096},
		"devices":[{"name":"ada0","size":4398046511104,"health":"ONLINE"},{"name":"ada1","size":4398046511104,"health":"ONLINE"}]}]}]`,
	"GET /zfs/pool/io-delay":              `{"delay":0.4}`,
	"GET /zfs/pool/io-delay?historical=1": `[{"id":1,"delay":0.4,"createdAt":"2026-10-15T10:00:00Z"}]`,
	"GET /zfs/datasets": `[{"name":"tank/data","guid":"1234","type":"filesystem","used":1073741824,"avail":3298534883328,
		"referenced":1073741824,"mountpoint":"/tank/data","compression":"lz4"},
		{"name":"tank/data@daily","guid":"5678","type":"snapshot","used":0,"referenced":1073741824}]`,
	"POST /zfs/datasets/snapshot": `null`,
	"GET /disk/list": `[{"device":"ada0","type":"HDD","usage":"ZFS","size":4398046511104,"gpt":true,
		"model":"WDC WD40EFRX","serial":"WD-1","partitions":[{"name":"ada0p1","usage":"ZFS","size":4398046511104}]}]`,
	"GET /vm":        `[{"id":1,"name":"web","description":"nginx","vmId":100,"cpuSockets":1,"cpuCores":2,"cpuThreads":1,"ram":2147483648,"vncPort":5900,"startAtBoot":true,"startOrder":1}]`,
	"GET /vm/simple": `[{"id":1,"name":"web","vmId":100,"state":"ACTIVE"}]`,
	"GET /jail/simple": `[{"id":1,"name":"dns","ctId":101,"state":"ACTIVE"},
		{"id":2,"name":"build","ctId":102,"state":"INACTIVE"}]`,
	"GET /network/interface": `[{"name":"em0","ether":"00:11:22:33:44:55","flags":{"raw":34883,"desc":["UP","BROADCAST"]},
		"mtu":1500,"metric":0,"capabilities":{"enabled":{"raw":0,"desc":[]},"supported":{"raw":0,"desc":[]}},
		"driver":"em","ipv4":[{"ip":"192.168.1.10","netmask":"255.255.255.0","broadcast":"192.168.1.255"}],"ipv6":[]}]`,
	"GET /network/switch": `{"standard":[{"id":1,"name":"public","mtu":1500,"vlan":0,"private":false,
		"address":"10.0.0.1/24","ports":[{"id":1,"name":"em0","switchId":1}]}]}`,
	"GET /cluster": `{"cluster":{"id":1,"enabled":true,"key":"k","raftBootstrap":true,"raftIP":"192.168.1.10","raftPort":8182},
		"nodeId":"node-a-id","nodes":[{"id":"node-a-id","address":"192.168.1.10:8182","suffrage":"Voter","isLeader":true}],
		"leaderId":"node-a-id","leaderAddress":"192.168.1.10:8182","partial":false}`,
	"GET /cluster/nodes": `[{"id":1,"nodeUUID":"node-a-id","hostname":"node-a","api":"192.168.1.10:8181","status":"online",
		"cpu":32,"cpuUsage":12.5,"memory":68719476736,"memoryUsage":50,"disk":4398046511104,"diskUsage":25}]`,
	"GET /samba/shares": `[{"id":1,"name":"media","dataset":"tank/media","readOnlyGroups":[],"writeableGroups":[{"id":1,"name":"staff"}],
		"createMask":"0664","directoryMask":"2775","guestOk":false,"readOnly":false}]`,
	"POST /auth/login": `{"token":"tok-123","hostname":"node-a","nodeId":"node-a-id","clusterToken":"ct-456"}`,
}
