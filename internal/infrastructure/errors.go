package infrastructure

import "github.com/yourusername/nyaa-go/internal/domain"

func networkError(op, url string, err error) error {
	return &domain.NetworkError{Op: op, URL: url, Err: err}
}

func statusError(op, url string, code int) error {
	return &domain.HTTPStatusError{Op: op, URL: url, StatusCode: code}
}

func configError(component, field, reason string) error {
	return &domain.ConfigError{Component: component, Field: field, Reason: reason}
}
