package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"netinspect/internal/domain"
)

const collectorLLDPPath = "/api/topology/lldp"

// CollectorConfig holds configuration for the collect service client
type CollectorConfig struct {
	// BaseURL is the collect service root, e.g. http://collect-service:8001
	BaseURL string
	// Timeout bounds a single request when ctx carries no deadline
	Timeout time.Duration
}

// CollectorClient asks the external collect service for a device's LLDP neighbors
type CollectorClient struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewCollectorClient builds a collect service client
func NewCollectorClient(config CollectorConfig, logger zerolog.Logger) *CollectorClient {
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	return &CollectorClient{
		baseURL:    strings.TrimRight(strings.TrimSpace(config.BaseURL), "/"),
		httpClient: &http.Client{Timeout: config.Timeout},
		logger:     logger,
	}
}

// Name returns the adapter identifier
func (c *CollectorClient) Name() string {
	return "collector"
}

type collectorRequest struct {
	DeviceID   int64  `json:"device_id"`
	IP         string `json:"ip"`
	Username   string `json:"username"`
	Password   string `json:"password"`
	Vendor     string `json:"vendor"`
	Protocol   string `json:"protocol"`
	DeviceName string `json:"device_name"`
}

type collectorResponse struct {
	Data json.RawMessage `json:"data"`
}

// DiscoverNeighbors posts the device and its credential to the collect service
// and decodes data.links from the reply. Items that are not objects are skipped.
func (c *CollectorClient) DiscoverNeighbors(ctx context.Context, device domain.Device, cred domain.Credential) ([]domain.RawLinkRecord, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("collector base url not configured")
	}

	body, err := json.Marshal(collectorRequest{
		DeviceID:   device.ID,
		IP:         device.IP,
		Username:   cred.Username,
		Password:   cred.Secret,
		Vendor:     device.Vendor,
		Protocol:   string(device.EffectiveProtocol()),
		DeviceName: device.Name,
	})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+collectorLLDPPath, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: %s: %s", ErrCollectorStatus, resp.Status, strings.TrimSpace(string(detail)))
	}

	records, err := decodeCollectorLinks(resp.Body, device)
	if err != nil {
		return nil, err
	}

	c.logger.Debug().
		Str("device", device.Name).
		Str("ip", device.IP).
		Int("records", len(records)).
		Msg("Collector LLDP collection complete")

	return records, nil
}

func decodeCollectorLinks(r io.Reader, device domain.Device) ([]domain.RawLinkRecord, error) {
	var envelope collectorResponse
	if err := json.NewDecoder(r).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	var data struct {
		Links []json.RawMessage `json:"links"`
	}
	if len(envelope.Data) == 0 {
		return nil, fmt.Errorf("%w: missing data", ErrMalformedResponse)
	}
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		return nil, fmt.Errorf("%w: data: %v", ErrMalformedResponse, err)
	}
	if data.Links == nil {
		return nil, fmt.Errorf("%w: missing data.links", ErrMalformedResponse)
	}

	records := make([]domain.RawLinkRecord, 0, len(data.Links))
	for _, raw := range data.Links {
		item, ok := decodeObject(raw)
		if !ok {
			continue
		}

		// a missing or unparseable device_id leaves DeviceID at 0, which no
		// directory device has, so the merger drops the record
		record := domain.RawLinkRecord{
			DeviceID:     parseDeviceID(item["device_id"]),
			DeviceName:   stringify(item["device_name"]),
			LocalPort:    stringify(item["local_port"]),
			Neighbor:     stringify(item["neighbor"]),
			NeighborPort: stringify(item["neighbor_port"]),
			Status:       stringify(item["status"]),
		}
		if record.DeviceName == "" {
			record.DeviceName = device.Name
		}

		records = append(records, record)
	}

	return records, nil
}

func decodeObject(raw json.RawMessage) (map[string]any, bool) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var item map[string]any
	if err := dec.Decode(&item); err != nil || item == nil {
		return nil, false
	}
	return item, true
}

// parseDeviceID reads a device id sent as a JSON number or a numeric string.
// Fractional numbers are truncated. Anything else yields 0.
func parseDeviceID(v any) int64 {
	switch val := v.(type) {
	case json.Number:
		if id, err := val.Int64(); err == nil {
			return id
		}
		if f, err := val.Float64(); err == nil && f >= math.MinInt64 && f < math.MaxInt64 {
			return int64(f)
		}
	case string:
		if id, err := strconv.ParseInt(val, 10, 64); err == nil {
			return id
		}
	}
	return 0
}

// stringify renders a decoded JSON scalar as text, strings verbatim.
// Null and composite values become "".
func stringify(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	}
	return ""
}
