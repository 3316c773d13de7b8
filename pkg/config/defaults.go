// Package config provides centralized default values for the bridge
package config

import (
	"log"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

var envLoaded sync.Once

func loadEnvFile() {
	envLoaded.Do(func() {
		if err := godotenv.Load(); err != nil {
			return
		}
		log.Println("Loaded configuration overrides from .env file")
	})
}

func getEnvInt(key string, defaultValue int) int {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := strconv.Atoi(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%d (default: %d)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

func getEnvString(key string, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		if val != defaultValue {
			log.Printf("Config override: %s=%s (default: %s)", key, val, defaultValue)
		}
		return val
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := strconv.ParseBool(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%t (default: %t)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := time.ParseDuration(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%s (default: %s)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

var (
	// Server Configuration
	Port               string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration
	ServerIdleTimeout  time.Duration

	// SSE Configuration
	SSEHeartbeatInterval time.Duration
	SSEChannelBuffer     int
	MaxSSEConnections    int

	// Media Cache
	MediaCacheCapacity int
	MediaScanDepth     int // messages scanned per chat when locating media

	// Query Limits
	HistoryDefaultLimit int
	HistoryMaxLimit     int
	RecentDefaultLimit  int
	RecentMaxLimit      int

	// Stream Consumer
	ReconnectDelay time.Duration

	// Observability
	RenderQRInTerminal bool
	MaxPerfMarkers     int
)

func init() {
	loadEnvFile()

	// Server Configuration
	Port = getEnvString("PORT", "8080")
	ServerReadTimeout = getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second)
	ServerWriteTimeout = getEnvDuration("SERVER_WRITE_TIMEOUT", 0) // 0: SSE writes are open-ended
	ServerIdleTimeout = getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second)

	// SSE Configuration
	SSEHeartbeatInterval = getEnvDuration("SSE_HEARTBEAT_INTERVAL", 15*time.Second)
	SSEChannelBuffer = getEnvInt("SSE_CHANNEL_BUFFER", 64)
	MaxSSEConnections = getEnvInt("MAX_SSE_CONNECTIONS", 1000)

	// Media Cache
	MediaCacheCapacity = getEnvInt("MEDIA_CACHE_CAPACITY", 100)
	MediaScanDepth = getEnvInt("MEDIA_SCAN_DEPTH", 100)

	// Query Limits
	HistoryDefaultLimit = getEnvInt("HISTORY_DEFAULT_LIMIT", 50)
	HistoryMaxLimit = getEnvInt("HISTORY_MAX_LIMIT", 200)
	RecentDefaultLimit = getEnvInt("RECENT_DEFAULT_LIMIT", 30)
	RecentMaxLimit = getEnvInt("RECENT_MAX_LIMIT", 50)

	// Stream Consumer
	ReconnectDelay = getEnvDuration("RECONNECT_DELAY", 3*time.Second)

	// Observability
	RenderQRInTerminal = getEnvBool("RENDER_QR_IN_TERMINAL", true)
	MaxPerfMarkers = getEnvInt("MAX_PERF_MARKERS", 1000)
}
