package dedup

import "fmt"

// ConfigurationError reports an invalid or missing engine option. It is
// returned before any computation starts; the engine never substitutes a
// silent default for a bad value.
type ConfigurationError struct {
	Option string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s %s", e.Option, e.Reason)
}

// InputShapeError reports a structural problem with the record set that the
// engine cannot degrade around, such as the location column missing from the
// whole dataset.
type InputShapeError struct {
	Field  string
	Reason string
}

func (e *InputShapeError) Error() string {
	return fmt.Sprintf("invalid input shape: field %q %s", e.Field, e.Reason)
}
