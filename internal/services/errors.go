package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation marks malformed input rejected before any state mutation.
	ErrValidation = errors.New("validation error")
	// ErrSaturated marks an admission rejection; callers should retry later.
	ErrSaturated = errors.New("concurrency ceiling reached")
	// ErrExternalTool marks a failure raised by the retrieval engine or the
	// transcoding tool.
	ErrExternalTool = errors.New("external tool error")
	// ErrStage marks a post-processing stage failure.
	ErrStage = errors.New("pipeline stage error")
	// ErrConfiguration marks unusable configuration detected at run time.
	ErrConfiguration = errors.New("configuration error")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
