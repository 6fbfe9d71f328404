package config

import (
	"testing"
	"time"
)

func TestLoad_AppEnvValidation(t *testing.T) {
	t.Setenv("APP_ENV", "invalid")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid APP_ENV")
	}
}

func TestLoad_UptraceRequiresDSNWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "true")
	t.Setenv("UPTRACE_DSN", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when UPTRACE_ENABLED=true without UPTRACE_DSN")
	}
}

func TestLoad_BetterStackRequiresEndpointWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")
	t.Setenv("BETTERSTACK_ENABLED", "true")
	t.Setenv("BETTERSTACK_ENDPOINT", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when BETTERSTACK_ENABLED=true without BETTERSTACK_ENDPOINT")
	}
}

func TestLoad_BetterStackConfigParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")
	t.Setenv("BETTERSTACK_ENABLED", "true")
	t.Setenv("BETTERSTACK_ENDPOINT", "s1765114.eu-fsn-3.betterstackdata.com")
	t.Setenv("BETTERSTACK_TOKEN", "token-123")
	t.Setenv("BETTERSTACK_TIMEOUT", "4s")
	t.Setenv("BETTERSTACK_MIN_LEVEL", "warn")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if !cfg.BetterStackEnabled {
		t.Fatalf("expected BetterStackEnabled=true")
	}
	if cfg.BetterStackEndpoint != "s1765114.eu-fsn-3.betterstackdata.com" {
		t.Fatalf("unexpected BetterStackEndpoint: %q", cfg.BetterStackEndpoint)
	}
	if cfg.BetterStackToken != "token-123" {
		t.Fatalf("unexpected BetterStackToken")
	}
	if cfg.BetterStackTimeout != 4*time.Second {
		t.Fatalf("unexpected BetterStackTimeout: %s", cfg.BetterStackTimeout)
	}
	if cfg.BetterStackMinLevel.String() != "warn" {
		t.Fatalf("unexpected BetterStackMinLevel: %s", cfg.BetterStackMinLevel.String())
	}
}

func TestLoad_PprofDefaultsAddrWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")
	t.Setenv("PPROF_ENABLED", "true")
	t.Setenv("PPROF_ADDR", "  ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.PprofAddr != ":6060" {
		t.Fatalf("expected default pprof addr :6060, got %q", cfg.PprofAddr)
	}
}

func TestLoad_PyroscopeRequiresServerAddressWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")
	t.Setenv("PYROSCOPE_ENABLED", "true")
	t.Setenv("PYROSCOPE_SERVER_ADDRESS", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when PYROSCOPE_ENABLED=true without PYROSCOPE_SERVER_ADDRESS")
	}
}

func TestLoad_PyroscopeAppNameDefaultsToServiceName(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")
	t.Setenv("APP_SERVICE_NAME", "clubpromo-api-test")
	t.Setenv("PYROSCOPE_ENABLED", "true")
	t.Setenv("PYROSCOPE_SERVER_ADDRESS", "http://localhost:4040")
	t.Setenv("PYROSCOPE_APP_NAME", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.PyroscopeAppName != "clubpromo-api-test" {
		t.Fatalf("unexpected pyroscope app name: %q", cfg.PyroscopeAppName)
	}
}

func TestLoad_CORSOriginsDefaultAndParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")

	t.Run("default wildcard", func(t *testing.T) {
		t.Setenv("CORS_ALLOWED_ORIGINS", "")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "*" {
			t.Fatalf("unexpected default CORS origins: %+v", cfg.CORSAllowedOrigins)
		}
	})

	t.Run("comma separated parsing", func(t *testing.T) {
		t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example.com, http://localhost:5173 ")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if len(cfg.CORSAllowedOrigins) != 2 {
			t.Fatalf("unexpected CORS origins length: %d", len(cfg.CORSAllowedOrigins))
		}
		if cfg.CORSAllowedOrigins[0] != "https://a.example.com" {
			t.Fatalf("unexpected first CORS origin: %s", cfg.CORSAllowedOrigins[0])
		}
		if cfg.CORSAllowedOrigins[1] != "http://localhost:5173" {
			t.Fatalf("unexpected second CORS origin: %s", cfg.CORSAllowedOrigins[1])
		}
	})
}

func TestLoad_DBDisablePreparedBinaryResultParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")

	t.Run("default true", func(t *testing.T) {
		t.Setenv("DB_DISABLE_PREPARED_BINARY_RESULT", "")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if !cfg.DBDisablePreparedBinary {
			t.Fatalf("expected DBDisablePreparedBinary=true by default")
		}
	})

	t.Run("invalid value", func(t *testing.T) {
		t.Setenv("DB_DISABLE_PREPARED_BINARY_RESULT", "not-bool")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for invalid DB_DISABLE_PREPARED_BINARY_RESULT")
		}
	})
}

func TestLoad_PlayHQConfigParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")

	t.Run("defaults", func(t *testing.T) {
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.PlayHQBaseURL != "https://api.playhq.com" {
			t.Fatalf("unexpected default base URL: %s", cfg.PlayHQBaseURL)
		}
		if cfg.PlayHQDefaultTenant != "ca" {
			t.Fatalf("unexpected default tenant: %s", cfg.PlayHQDefaultTenant)
		}
		if cfg.PlayHQTimeout != 20*time.Second {
			t.Fatalf("unexpected default timeout: %s", cfg.PlayHQTimeout)
		}
		if !cfg.PlayHQCircuitEnabled {
			t.Fatalf("expected circuit breaker enabled by default")
		}
	})

	t.Run("invalid timeout", func(t *testing.T) {
		t.Setenv("PLAYHQ_TIMEOUT", "bad")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for invalid PLAYHQ_TIMEOUT")
		}
	})

	t.Run("negative rate rejected", func(t *testing.T) {
		t.Setenv("PLAYHQ_TIMEOUT", "20s")
		t.Setenv("PLAYHQ_REQUESTS_PER_SECOND", "-1")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for negative PLAYHQ_REQUESTS_PER_SECOND")
		}
	})
}

func TestLoad_AggregationConfigParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")

	t.Run("defaults", func(t *testing.T) {
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.CacheMaxAgeHours != 6 {
			t.Fatalf("unexpected default cache max age: %d", cfg.CacheMaxAgeHours)
		}
		if cfg.DateWindowDays != 21 {
			t.Fatalf("unexpected default date window: %d", cfg.DateWindowDays)
		}
		if cfg.FixtureBatchSize != 2 {
			t.Fatalf("unexpected default batch size: %d", cfg.FixtureBatchSize)
		}
		if cfg.RefreshWorkers != 4 {
			t.Fatalf("unexpected default refresh workers: %d", cfg.RefreshWorkers)
		}
	})

	t.Run("overrides", func(t *testing.T) {
		t.Setenv("CACHE_MAX_AGE_HOURS", "12")
		t.Setenv("DATE_WINDOW_DAYS", "365")
		t.Setenv("FIXTURE_BATCH_SIZE", "4")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.CacheMaxAgeHours != 12 {
			t.Fatalf("unexpected cache max age: %d", cfg.CacheMaxAgeHours)
		}
		if cfg.DateWindowDays != 365 {
			t.Fatalf("unexpected date window: %d", cfg.DateWindowDays)
		}
		if cfg.FixtureBatchSize != 4 {
			t.Fatalf("unexpected batch size: %d", cfg.FixtureBatchSize)
		}
	})

	t.Run("zero batch size rejected", func(t *testing.T) {
		t.Setenv("FIXTURE_BATCH_SIZE", "0")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for FIXTURE_BATCH_SIZE=0")
		}
	})

	t.Run("zero window rejected", func(t *testing.T) {
		t.Setenv("FIXTURE_BATCH_SIZE", "2")
		t.Setenv("DATE_WINDOW_DAYS", "0")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for DATE_WINDOW_DAYS=0")
		}
	})
}

func TestLoad_RendererConfigParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")

	t.Run("defaults", func(t *testing.T) {
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if !cfg.RendererEnabled {
			t.Fatalf("expected renderer enabled by default")
		}
		if cfg.RendererTimeout != 30*time.Second {
			t.Fatalf("unexpected default renderer timeout: %s", cfg.RendererTimeout)
		}
	})

	t.Run("invalid timeout", func(t *testing.T) {
		t.Setenv("RENDERER_TIMEOUT", "0s")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for RENDERER_TIMEOUT=0s")
		}
	})
}
