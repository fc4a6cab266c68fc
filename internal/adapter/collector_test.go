package adapter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"netinspect/internal/domain"
)

func newCollectorServer(t *testing.T, handler http.HandlerFunc) *CollectorClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewCollectorClient(CollectorConfig{BaseURL: srv.URL + "/", Timeout: 2 * time.Second}, zerolog.Nop())
}

func TestCollectorClientDiscoverNeighbors(t *testing.T) {
	var got collectorRequest
	client := newCollectorServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, collectorLLDPPath, r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"code": 200,
			"data": {
				"raw": "...",
				"links": [
					{"device_id": 1, "device_name": "core-sw1", "local_port": "GE0/0/1",
					 "neighbor": "access-sw1", "neighbor_port": "GE0/0/24", "status": "Up"},
					"not an object",
					null,
					{"device_id": "1", "local_port": 7, "neighbor": "10.0.0.2", "neighbor_port": 12, "status": null}
				]
			}
		}`))
	})

	device := domain.Device{ID: 1, Name: "core-sw1", IP: "10.0.0.1", Vendor: "huawei"}
	records, err := client.DiscoverNeighbors(context.Background(), device, domain.Credential{Username: "admin", Secret: "pw"})
	require.NoError(t, err)

	assert.Equal(t, collectorRequest{
		DeviceID:   1,
		IP:         "10.0.0.1",
		Username:   "admin",
		Password:   "pw",
		Vendor:     "huawei",
		Protocol:   "ssh",
		DeviceName: "core-sw1",
	}, got)

	require.Len(t, records, 2)
	assert.Equal(t, domain.RawLinkRecord{
		DeviceID:     1,
		DeviceName:   "core-sw1",
		LocalPort:    "GE0/0/1",
		Neighbor:     "access-sw1",
		NeighborPort: "GE0/0/24",
		Status:       "Up",
	}, records[0])

	// scalar fields are stringified, missing name falls back to the device
	assert.Equal(t, "7", records[1].LocalPort)
	assert.Equal(t, "12", records[1].NeighborPort)
	assert.Equal(t, "core-sw1", records[1].DeviceName)
	assert.Empty(t, records[1].Status)
}

func TestCollectorClientErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"server error", http.StatusInternalServerError, `{"detail":"LLDP failed"}`, ErrCollectorStatus},
		{"bad request", http.StatusBadRequest, `{"detail":"missing password"}`, ErrCollectorStatus},
		{"not json", http.StatusOK, `<html>`, ErrMalformedResponse},
		{"missing data", http.StatusOK, `{"code":200}`, ErrMalformedResponse},
		{"missing links", http.StatusOK, `{"code":200,"data":{"raw":""}}`, ErrMalformedResponse},
		{"links not a list", http.StatusOK, `{"code":200,"data":{"links":{}}}`, ErrMalformedResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newCollectorServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := client.DiscoverNeighbors(context.Background(), domain.Device{ID: 1, IP: "10.0.0.1"}, domain.Credential{})
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCollectorClientEmptyLinks(t *testing.T) {
	client := newCollectorServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code":200,"data":{"links":[]}}`))
	})

	records, err := client.DiscoverNeighbors(context.Background(), domain.Device{ID: 1}, domain.Credential{})
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestCollectorClientHonorsContext(t *testing.T) {
	release := make(chan struct{})
	client := newCollectorServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.DiscoverNeighbors(ctx, domain.Device{ID: 1}, domain.Credential{})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCollectorClientNotConfigured(t *testing.T) {
	client := NewCollectorClient(CollectorConfig{}, zerolog.Nop())
	_, err := client.DiscoverNeighbors(context.Background(), domain.Device{}, domain.Credential{})
	require.Error(t, err)
}

func TestDecodeCollectorLinksDeviceID(t *testing.T) {
	body := `{"code":200,"data":{"links":[
		{"local_port":"GE0/0/1","neighbor":"access-sw1","neighbor_port":"GE0/0/24","status":"Up"},
		{"device_id":"abc","local_port":"GE0/0/2","neighbor":"access-sw2","neighbor_port":"GE0/0/24"},
		{"device_id":null,"local_port":"GE0/0/3","neighbor":"access-sw3","neighbor_port":"GE0/0/24"},
		{"device_id":1.0,"local_port":"GE0/0/4","neighbor":"access-sw4","neighbor_port":"GE0/0/24"},
		{"device_id":2,"local_port":"GE0/0/5","neighbor":"access-sw5","neighbor_port":"GE0/0/24"},
		{"device_id":" 1","local_port":"GE0/0/6","neighbor":"access-sw6","neighbor_port":"GE0/0/24"}
	]}}`

	records, err := decodeCollectorLinks(strings.NewReader(body), domain.Device{ID: 1, Name: "core-sw1"})
	require.NoError(t, err)
	require.Len(t, records, 6)

	// only ids the collector actually sent are used, never the queried device
	ids := make([]int64, len(records))
	for i, rec := range records {
		ids[i] = rec.DeviceID
	}
	assert.Equal(t, []int64{0, 0, 0, 1, 2, 0}, ids)
}

func TestDecodeCollectorLinksKeepsStringsVerbatim(t *testing.T) {
	body := `{"code":200,"data":{"links":[
		{"device_id":1,"local_port":"  ","neighbor":" access-sw1 ","neighbor_port":"GE0/0/24","status":""}
	]}}`

	records, err := decodeCollectorLinks(strings.NewReader(body), domain.Device{ID: 1, Name: "core-sw1"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "  ", records[0].LocalPort)
	assert.Equal(t, " access-sw1 ", records[0].Neighbor)
	assert.Empty(t, records[0].Status)
}

func TestParseDeviceID(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want int64
	}{
		{"integer", json.Number("7"), 7},
		{"integral float", json.Number("7.0"), 7},
		{"fraction truncated", json.Number("7.9"), 7},
		{"exponent", json.Number("1e2"), 100},
		{"numeric string", "42", 42},
		{"padded string", " 42", 0},
		{"float string", "42.0", 0},
		{"word", "abc", 0},
		{"null", nil, 0},
		{"bool", true, 0},
		{"object", map[string]any{"id": json.Number("1")}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseDeviceID(tt.in))
		})
	}
}
