package services

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"time"

	"zone-alerts-vms/be/config"
	"zone-alerts-vms/be/repository"

	"github.com/deepch/vdk/format/rtsp"
	"go.uber.org/zap"
)

const defaultRTSPPort = "554"

// ProbeResult reports whether a camera stream answered DESCRIBE and which
// codecs it announced.
type ProbeResult struct {
	CameraID  uint     `json:"camera_id"`
	Reachable bool     `json:"reachable"`
	Codecs    []string `json:"codecs"`
	LatencyMs int64    `json:"latency_ms"`
	Error     string   `json:"error,omitempty"`
}

// StreamDialer opens an RTSP session and lists its codecs.
type StreamDialer func(uri string, timeout time.Duration) ([]string, error)

type RTSPService struct {
	config config.RTSPConfig
	dial   StreamDialer
	logger *zap.Logger
}

func NewRTSPService(cfg config.RTSPConfig, logger *zap.Logger) *RTSPService {
	return &RTSPService{
		config: cfg,
		dial:   dialRTSP,
		logger: logger,
	}
}

// WithDialer swaps the RTSP client, for tests.
func (s *RTSPService) WithDialer(dial StreamDialer) *RTSPService {
	cp := *s
	cp.dial = dial
	return &cp
}

// Probe dials the camera once. A failed dial is a result, not an error.
func (s *RTSPService) Probe(ctx context.Context, cameraID uint, creds *repository.CameraCredentials) ProbeResult {
	result := ProbeResult{CameraID: cameraID, Codecs: []string{}}

	uri := StreamURL(creds)
	if uri == "" {
		result.Error = "camera has no stream address"
		return result
	}

	timeout := s.config.ProbeTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}

	start := time.Now()
	codecs, err := s.dial(uri, timeout)
	result.LatencyMs = time.Since(start).Milliseconds()
	if err != nil {
		s.logger.Info("camera probe failed",
			zap.Uint("camera_id", cameraID),
			zap.Error(err),
		)
		result.Error = err.Error()
		return result
	}

	result.Reachable = true
	result.Codecs = append(result.Codecs, codecs...)
	return result
}

// StreamURL prefers the stored stream address and otherwise builds one from
// the device address and login.
func StreamURL(creds *repository.CameraCredentials) string {
	if creds == nil {
		return ""
	}
	if creds.RTSPUrl != "" {
		return creds.RTSPUrl
	}
	if creds.IPAddress == "" {
		return ""
	}

	u := url.URL{
		Scheme: "rtsp",
		Host:   net.JoinHostPort(creds.IPAddress, defaultRTSPPort),
		Path:   "/",
	}
	if creds.Username != "" {
		u.User = url.UserPassword(creds.Username, creds.Password)
	}
	return u.String()
}

func dialRTSP(uri string, timeout time.Duration) ([]string, error) {
	client, err := rtsp.DialTimeout(uri, timeout)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	defer client.Close()

	streams, err := client.Streams()
	if err != nil {
		return nil, fmt.Errorf("describe: %w", err)
	}

	codecs := make([]string, 0, len(streams))
	for _, stream := range streams {
		codecs = append(codecs, stream.Type().String())
	}
	return codecs, nil
}
