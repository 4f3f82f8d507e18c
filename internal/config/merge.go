package config

import "fmt"

// Merge combines two configs where overlay takes precedence over base.
//   - version: must agree if both declare it (non-zero)
//   - scalars: a non-zero overlay value wins
//   - cache.fingerprints: a set overlay value wins
//   - interop.command: a non-empty overlay replaces base entirely
//
// Command-line flags are applied the same way, as the last overlay.
func Merge(base, overlay *Config) (*Config, error) {
	if base == nil {
		return overlay, nil
	}
	if overlay == nil {
		return base, nil
	}

	result := *base

	if err := mergeVersion(base.Version, overlay.Version, &result.Version); err != nil {
		return nil, err
	}

	if overlay.Library.Version != "" {
		result.Library.Version = overlay.Library.Version
	}
	if overlay.BuildDir != "" {
		result.BuildDir = overlay.BuildDir
	}
	if overlay.Concurrency != 0 {
		result.Concurrency = overlay.Concurrency
	}
	if overlay.HTTP.Timeout != 0 {
		result.HTTP.Timeout = overlay.HTTP.Timeout
	}
	if overlay.HTTP.MaxSize != 0 {
		result.HTTP.MaxSize = overlay.HTTP.MaxSize
	}
	if overlay.Unpack.MaxBytes != 0 {
		result.Unpack.MaxBytes = overlay.Unpack.MaxBytes
	}
	if overlay.Cache.Fingerprints != nil {
		v := *overlay.Cache.Fingerprints
		result.Cache.Fingerprints = &v
	}
	if len(overlay.Interop.Command) > 0 {
		result.Interop.Command = append([]string(nil), overlay.Interop.Command...)
	} else {
		result.Interop.Command = append([]string(nil), base.Interop.Command...)
	}

	return &result, nil
}

func mergeVersion(base, overlay int, result *int) error {
	switch {
	case base == 0:
		*result = overlay
	case overlay == 0:
		*result = base
	case base != overlay:
		return fmt.Errorf("config version mismatch: %d vs %d — all config layers must declare the same version", base, overlay)
	default:
		*result = base
	}
	return nil
}
