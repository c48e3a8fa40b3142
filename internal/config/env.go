package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Each helper only touches dst when the variable is set and non-empty.

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidValue, key, v)
		}
		*dst = n
	}
	return nil
}

func setInt64(dst *int64, key string) error {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidValue, key, v)
		}
		*dst = n
	}
	return nil
}

func setDuration(dst *duration, key string) error {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidValue, key, v)
		}
		dst.Duration = d
	}
	return nil
}
