package config

import (
	"time"

	"dario.cat/mergo"
)

// FetchConfig holds the HTTP fetch settings from the job file's fetch
// section. Zero values mean "use the default"; the two retry fields are
// pointers because an explicit zero is meaningful for them.
type FetchConfig struct {
	// UserAgent is sent as the User-Agent header.
	UserAgent string `yaml:"userAgent,omitempty"`

	// Headers are extra HTTP headers added to every request.
	Headers map[string]string `yaml:"headers,omitempty"`

	// Cookie is sent verbatim as the Cookie header.
	// Format: "name=value" or "name1=value1; name2=value2".
	Cookie string `yaml:"cookie,omitempty"`

	// TimeoutSeconds is the per-request timeout.
	TimeoutSeconds int `yaml:"timeoutSeconds,omitempty"`

	// RetryCount is the number of internal retries per request.
	// 0 disables retrying.
	RetryCount *int `yaml:"retryCount,omitempty"`

	// RetryWaitSeconds is the base wait between retries.
	RetryWaitSeconds *int `yaml:"retryWaitSeconds,omitempty"`

	// MaxBodyBytes caps how much of a page document is read for parsing.
	// Negative disables the cap. File downloads are never capped.
	MaxBodyBytes int64 `yaml:"maxBodyBytes,omitempty"`

	// Charset forces decoding page documents with the named encoding
	// (for example "shift_jis") instead of auto-detection.
	Charset string `yaml:"charset,omitempty"`
}

// DefaultFetchConfig returns the built-in fetch settings with every field
// populated, so merging a user section over it yields a complete config.
func DefaultFetchConfig() FetchConfig {
	retries := DefaultRetryCount
	wait := int(DefaultRetryWait / time.Second)
	return FetchConfig{
		UserAgent:        DefaultUserAgent,
		TimeoutSeconds:   int(DefaultTimeout / time.Second),
		RetryCount:       &retries,
		RetryWaitSeconds: &wait,
		MaxBodyBytes:     DefaultMaxBodyBytes,
	}
}

// MergeFetch deep-merges override onto base. Set fields of override win;
// header maps are merged per key with override entries winning.
func MergeFetch(base, override FetchConfig) (FetchConfig, error) {
	merged := base
	if err := mergo.Merge(&merged, override, mergo.WithOverride); err != nil {
		return FetchConfig{}, err
	}
	return merged, nil
}

// Timeout returns the per-request timeout as a duration.
func (c FetchConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Retries returns the retry count, defaulting when unset.
func (c FetchConfig) Retries() int {
	if c.RetryCount == nil {
		return DefaultRetryCount
	}
	return *c.RetryCount
}

// RetryWait returns the base wait between retries, defaulting when unset.
func (c FetchConfig) RetryWait() time.Duration {
	if c.RetryWaitSeconds == nil {
		return DefaultRetryWait
	}
	return time.Duration(*c.RetryWaitSeconds) * time.Second
}
