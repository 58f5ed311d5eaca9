package config

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Validate checks structural constraints via validate tags, then applies
// the cross-field rules the tag language cannot express.
func Validate(cfg *Config) error {
	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			return fmt.Errorf("%s", formatFieldErrors(fieldErrs))
		}
		return err
	}

	if err := validateClient(&cfg.Client); err != nil {
		return fmt.Errorf("client config: %w", err)
	}

	return nil
}

// validateClient enforces relationships between client settings:
// the receive deadline must cover at least one connect attempt, the jitter
// ceiling must not dwarf the base delay, and a rate limiter needs a burst.
func validateClient(cfg *ClientConfig) error {
	if cfg.Timeout.Receive < cfg.Timeout.Connect {
		return fmt.Errorf("receive timeout %v is shorter than connect timeout %v", cfg.Timeout.Receive, cfg.Timeout.Connect)
	}

	if cfg.Retry.JitterMax > 10*cfg.Retry.BaseDelay {
		return fmt.Errorf("retry jitter ceiling %v exceeds 10x base delay %v", cfg.Retry.JitterMax, cfg.Retry.BaseDelay)
	}

	if cfg.Rate.Limit > 0 && cfg.Rate.Burst <= 0 {
		return fmt.Errorf("rate limit %v requires a positive burst", cfg.Rate.Limit)
	}

	return nil
}

func formatFieldErrors(errs validator.ValidationErrors) string {
	if len(errs) == 0 {
		return "validation failed"
	}
	first := errs[0]
	return fmt.Sprintf("field %s failed %q validation (value: %v)", first.Namespace(), first.Tag(), first.Value())
}
