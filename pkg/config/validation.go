package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/marmos91/sigscan/internal/bytesize"
	"github.com/marmos91/sigscan/internal/telemetry"
)

// maxBufferSize caps server.buffer_size; one buffer is held per in-flight request.
const maxBufferSize = 64 * bytesize.MiB

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// Report fields by their yaml key.
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Validate checks struct tags and the cross-field rules that tags cannot
// express. It expects defaults to have been applied.
func Validate(cfg *Config) error {
	if err := getValidator().Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return formatValidationErrors(verrs)
		}
		return err
	}

	if cfg.Server.BufferSize == 0 {
		return errors.New("server.buffer_size must be positive")
	}
	if cfg.Server.BufferSize.Uint64() > uint64(maxBufferSize) {
		return fmt.Errorf("server.buffer_size %s exceeds the %s limit", cfg.Server.BufferSize, maxBufferSize)
	}

	if cfg.Telemetry.Enabled && cfg.Telemetry.Endpoint == "" {
		return errors.New("telemetry.endpoint is required when telemetry is enabled")
	}
	if cfg.Telemetry.Profiling.Enabled {
		if cfg.Telemetry.Profiling.Endpoint == "" {
			return errors.New("telemetry.profiling.endpoint is required when profiling is enabled")
		}
		for _, pt := range cfg.Telemetry.Profiling.ProfileTypes {
			if !telemetry.ValidProfileType(pt) {
				return fmt.Errorf("telemetry.profiling.profile_types: unknown profile type %q", pt)
			}
		}
	}

	if cfg.Quarantine.Journal.Enabled && cfg.Quarantine.Journal.Path == "" {
		return errors.New("quarantine.journal.path is required when the journal is enabled")
	}

	if cfg.API.IsEnabled() && cfg.API.Port == cfg.Server.Port && cfg.API.Port != 0 {
		return fmt.Errorf("api.port %d collides with server.port", cfg.API.Port)
	}

	return nil
}

// formatValidationErrors renders validator errors as "field: tag=param"
// lines keyed by the yaml path.
func formatValidationErrors(verrs validator.ValidationErrors) error {
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		msgs = append(msgs, fmt.Sprintf("%s: failed '%s' (got %v)", fieldPath(fe.Namespace()), rule, fe.Value()))
	}
	return errors.New(strings.Join(msgs, "; "))
}

// fieldPath turns "Config.server.port" into "server.port".
func fieldPath(namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		return rest
	}
	return namespace
}
