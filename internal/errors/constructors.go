package errors

// Convenience functions for common error patterns

// Config errors

func ConfigNotFound(path string) *DocfxError {
	return New(CategoryConfig, SeverityFatal, "configuration file not found").
		WithContext("path", path)
}

func ConfigInvalid(path string, cause error) *DocfxError {
	return Wrap(cause, CategoryConfig, SeverityFatal, "configuration file is invalid").
		WithContext("path", path)
}

func ValidationFailed(field, reason string) *DocfxError {
	return New(CategoryValidation, SeverityFatal, "validation failed").
		WithContext("field", field).
		WithContext("reason", reason)
}

func InvalidGlob(pattern string, cause error) *DocfxError {
	return Wrap(cause, CategoryConfig, SeverityFatal, "invalid glob pattern").
		WithContext("pattern", pattern)
}

// Moniker definition errors

func DefinitionLoadFailed(source string, cause error) *DocfxError {
	return Wrap(cause, CategoryMoniker, SeverityFatal, "failed to load moniker definition").
		WithContext("source", source)
}

func DefinitionInvalid(source, reason string) *DocfxError {
	return New(CategoryMoniker, SeverityFatal, "moniker definition is invalid").
		WithContext("source", source).
		WithContext("reason", reason)
}

// Resource errors

func ResourceNotFound(path string, cause error) *DocfxError {
	return Wrap(cause, CategoryFileSystem, SeverityFatal, "resource not found").
		WithContext("path", path)
}

func NetworkFailure(url string, cause error) *DocfxError {
	return WrapRetryable(cause, CategoryNetwork, SeverityWarning, "network request failed").
		WithContext("url", url)
}

// Internal errors

func InternalError(message string, cause error) *DocfxError {
	return Wrap(cause, CategoryInternal, SeverityFatal, message)
}
