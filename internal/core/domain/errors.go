package domain

import (
	"fmt"

	"go.trai.ch/zerr"
)

var (
	// ErrDuplicateTarget is returned when registering a target whose name is already taken.
	ErrDuplicateTarget = zerr.New("target already registered")

	// ErrUnknownTarget is returned when a target name is not present in the registry.
	ErrUnknownTarget = zerr.New("unknown target")

	// ErrCyclicDependency is returned when the target graph contains a cycle.
	ErrCyclicDependency = zerr.New("cyclic dependency detected")

	// ErrRegistrySealed is returned when registering a target after the registry was sealed.
	ErrRegistrySealed = zerr.New("registry is sealed")

	// ErrRegistryNotSealed is returned when resolving against a registry that was never sealed.
	ErrRegistryNotSealed = zerr.New("registry is not sealed")

	// ErrInvalidTargetName is returned when a target name is empty or contains invalid characters.
	ErrInvalidTargetName = zerr.New("invalid target name")

	// ErrReservedTargetName is returned when a target uses a reserved name.
	ErrReservedTargetName = zerr.New("target name 'all' is reserved")

	// ErrNoTargetsSpecified is returned when a run or plan is requested without targets.
	ErrNoTargetsSpecified = zerr.New("no targets specified")

	// ErrMalformedEventPayload is returned when the pull request event document is absent,
	// unparseable, or missing the pull_request.head.ref field.
	ErrMalformedEventPayload = zerr.New("malformed pull request event payload")

	// ErrEventNotAvailable is returned when no event document is configured or readable.
	ErrEventNotAvailable = zerr.New("pull request event not available")

	// ErrMissingTargetBranch is returned when the destination branch cannot be determined.
	ErrMissingTargetBranch = zerr.New("missing target branch")

	// ErrMissingSourceRef is returned when the current git reference cannot be determined.
	ErrMissingSourceRef = zerr.New("missing source reference")

	// ErrPolicyViolation is matched by every *PolicyViolation through errors.Is.
	ErrPolicyViolation = zerr.New("merge policy violation")

	// ErrInvalidPolicyDefault is returned when the unmatched-branch policy is neither permit nor deny.
	ErrInvalidPolicyDefault = zerr.New("invalid unmatched branch policy, expected 'permit' or 'deny'")

	// ErrTargetFailed wraps the opaque error returned by a target action or gate.
	ErrTargetFailed = zerr.New("target failed")

	// ErrCommandStartFailed is returned when a target command cannot be started.
	ErrCommandStartFailed = zerr.New("failed to start command")

	// ErrCommandFailed is returned when a target command exits non-zero.
	ErrCommandFailed = zerr.New("command failed")

	// ErrTargetPanicked is returned when a target's gate or action panics.
	ErrTargetPanicked = zerr.New("target panicked")

	// ErrTargetSkipped is recorded for targets that never started.
	ErrTargetSkipped = zerr.New("target skipped")

	// ErrPipelineFailed is returned when at least one planned target did not succeed.
	ErrPipelineFailed = zerr.New("pipeline execution failed")

	// ErrConfigNotFound is returned when no configuration file can be located.
	ErrConfigNotFound = zerr.New("could not find gate.yaml")

	// ErrConfigReadFailed is returned when the config file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the config file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrConfigInvalid is returned when the config file parses but is semantically invalid.
	ErrConfigInvalid = zerr.New("invalid configuration")

	// ErrUnknownTriggerEvent is returned when a trigger references an unsupported CI event.
	ErrUnknownTriggerEvent = zerr.New("unknown trigger event")

	// ErrInvalidBranchPattern is returned when a trigger branch pattern is malformed.
	ErrInvalidBranchPattern = zerr.New("invalid branch pattern")

	// ErrInvalidOutputMode is returned for an unknown --output-mode value.
	ErrInvalidOutputMode = zerr.New("invalid output mode, expected auto, tui, linear or ci")

	// ErrReportWriteFailed is returned when a run report cannot be persisted.
	ErrReportWriteFailed = zerr.New("failed to write run report")

	// ErrReportReadFailed is returned when a run report cannot be loaded.
	ErrReportReadFailed = zerr.New("failed to read run report")

	// ErrReportNotFound is returned when no run report exists yet.
	ErrReportNotFound = zerr.New("no run report found")
)

// Tag wraps a sentinel and attaches key/value metadata while keeping the
// sentinel reachable through errors.Is. zerr.With on the bare sentinel would copy it.
func Tag(sentinel error, kv ...any) error {
	err := zerr.Wrap(sentinel, "")
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		err = zerr.With(err, key, kv[i+1])
	}
	return err
}

// Cause wraps an underlying error under a sentinel. Both stay reachable
// through errors.Is and kv is attached as with Tag.
func Cause(sentinel, cause error, kv ...any) error {
	return Tag(fmt.Errorf("%w: %w", sentinel, cause), kv...)
}
